// Patchdiff compares the violation reports of a base and a patch linter run
// and classifies every violation as added, removed or unchanged.
//
// It reads checkstyle XML, SARIF and its own JSON report format, optionally
// diffs the two runs' rule configurations, and renders text, JSON, markdown,
// SARIF or a static HTML site. Exit codes are deterministic for CI gating.
//
// Usage:
//
//	patchdiff diff --base-report base.xml --patch-report patch.xml
//	patchdiff diff --base-report base.xml --patch-report patch.xml --ref-files . --output report/
//	patchdiff diff ... --base-config base-checks.xml --patch-config patch-checks.xml
//	patchdiff convert checkstyle-result.xml --out report.json
//	patchdiff config init
package main
