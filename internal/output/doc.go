// Package output formats diff reports for display or machine consumption.
//
// Five formats are supported:
//   - text     human-readable terminal output (default)
//   - json     the full Document as JSON
//   - markdown PR-comment-friendly with a collapsible section per file
//   - sarif    SARIF v2.1.0 with baselineState set on every result
//   - site     a directory of static HTML pages with annotated source
//
// Use [GetWriter] to obtain a [Writer] for a stream format, then call
// [Writer.Write] with an [io.Writer] and a [*Document]. [WriteReport] handles
// destination selection. The site format writes a directory and is produced
// by [Site.Generate] instead.
package output
