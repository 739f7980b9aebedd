// Package violation defines the in-memory model of a linter report.
//
// A [Record] is one finding at a file/line/column for a rule. Records of one
// file in one run are held in a [FileSet], always ordered by line, column and
// rule id so that matching is deterministic. A [Collection] maps file paths
// to FileSets and is what ingestion hands to the diff engine, once per [Run].
package violation
