// Package model describes the documents persisted by the provenance
// recorder: the run record written once per recorded run, the index entry
// summarizing a run in the catalog, and the identifiers and archive paths
// tying them together.
package model
