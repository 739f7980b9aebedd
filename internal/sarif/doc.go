// Package sarif holds the subset of the SARIF v2.1.0 object model that
// patchdiff reads from linter reports and writes for CI upload.
package sarif
