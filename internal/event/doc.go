// Package event provides the event record scraped from listing pages and the
// date handling around it.
//
// Each Event carries normalized text fields; its start and end are derived on
// demand from the free-form DateText by ParseRange, which reads dates day
// first, fills missing components from sensible defaults and never fails
// loudly: unparseable text yields zero times. UIDs are SHA1 fingerprints of
// title, link and start so re-publishing the same event keeps its identity.
package event
