package output

import (
	"io"
	"strings"

	"github.com/dshills/patchdiff/internal/configdiff"
	"github.com/dshills/patchdiff/internal/diff"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report. Unchanged
// violations are counted but not listed.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, doc *Document) error {
	ew := &errWriter{w: w}
	rep := doc.Report
	s := rep.Summary

	ew.printf("## Violation changes\n\n")

	ew.printf("| Status | Count |\n")
	ew.printf("|--------|-------|\n")
	ew.printf("| :new: Added | %d |\n", s.Added)
	ew.printf("| :white_check_mark: Removed | %d |\n", s.Removed)
	ew.printf("| :heavy_minus_sign: Unchanged | %d |\n", s.Unchanged)
	ew.printf("| **Files** | **%d** (%d changed) |\n\n", s.Files, s.ChangedFiles)

	if s.Added+s.Removed == 0 {
		ew.println("No violations were introduced or removed. :white_check_mark:")
	}

	for _, fd := range orderedFiles(rep) {
		if !fd.HasChanges() {
			continue
		}
		ew.printf("<details>\n<summary><code>%s</code> (+%d -%d)</summary>\n\n", fd.Path, fd.Added, fd.Removed)
		ew.printf("| | Line | Severity | Rule | Message |\n")
		ew.printf("|---|---|---|---|---|\n")
		for _, e := range fd.Entries {
			if e.Status == diff.StatusUnchanged {
				continue
			}
			rec := e.Record()
			ew.printf("| %s | %s | %s | `%s` | %s |\n",
				mdStatusIcon(e.Status), position(rec), rec.Severity, shortRule(rec.RuleID), mdCell(rec.Message))
		}
		ew.printf("\n</details>\n\n")
	}

	if cd := rep.ConfigDiff; cd != nil && cd.HasChanges() {
		writeConfigMarkdown(ew, cd)
	}

	ew.printf("*Generated by %s %s*\n", doc.Tool, doc.Version)
	return ew.err
}

func writeConfigMarkdown(ew *errWriter, cd *configdiff.Result) {
	c := cd.Counts()
	ew.printf("### Configuration changes\n\n")
	ew.printf("%d added, %d removed, %d changed\n\n", c.Added, c.Removed, c.Changed)
	ew.printf("| Rule | Status | Attributes |\n")
	ew.printf("|------|--------|------------|\n")
	for _, rd := range cd.Rules {
		if rd.Status == configdiff.StatusUnchanged {
			continue
		}
		ew.printf("| `%s` | %s | %s |\n", rd.RuleID, rd.Status, mdCell(strings.Join(rd.Changed, ", ")))
	}
	ew.println("")
}

func mdStatusIcon(s diff.Status) string {
	switch s {
	case diff.StatusAdded:
		return ":red_circle:"
	case diff.StatusRemoved:
		return ":green_circle:"
	default:
		return ":white_circle:"
	}
}

// mdCell escapes text for a single table cell.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
