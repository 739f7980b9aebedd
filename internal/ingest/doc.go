// Package ingest reads linter reports and rule configurations from disk and
// turns them into the models consumed by the diff engine.
//
// Three report formats are understood, selected by [Format]:
//   - checkstyle: checkstyle-result.xml, streamed file by file
//   - sarif: SARIF v2.1.0 results
//   - json: the native format, validated against an embedded schema
//
// File paths are made relative to the source root when one is configured.
// Parsed reports are cached by content hash when a cache is supplied.
//
// Rule configurations are read from checkstyle configuration XML or from a
// TOML file with one [rules.<id>] table per rule, and flattened into a
// [configdiff.Tree].
package ingest
