// Package cli implements the command-line interface for eor-ics.
//
// The root command resolves configuration from flags, environment and an
// optional YAML file, scrapes the event listings, writes the calendar and
// prints a text or JSON run report. The schedule subcommand repeats the same
// run on a cron expression until interrupted.
package cli
