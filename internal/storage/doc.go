// Package storage manages the directory the calendar is published to.
//
// The directory is created on demand, a leading ~ is expanded, and calendar
// files are replaced atomically through a temporary file and rename.
package storage
