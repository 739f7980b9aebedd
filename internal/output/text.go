package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dshills/patchdiff/internal/configdiff"
	"github.com/dshills/patchdiff/internal/diff"
	"github.com/dshills/patchdiff/internal/violation"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct {
	// Color enables ANSI colors; fatih/color still turns them off when stdout
	// is not a terminal.
	Color bool
}

type palette struct {
	added, removed, unchanged, dim, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		added:     color.New(color.FgGreen),
		removed:   color.New(color.FgRed),
		unchanged: color.New(color.FgYellow),
		dim:       color.New(color.Faint),
		bold:      color.New(color.Bold),
	}
	if !enabled {
		for _, c := range []*color.Color{p.added, p.removed, p.unchanged, p.dim, p.bold} {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) status(s diff.Status) *color.Color {
	switch s {
	case diff.StatusAdded:
		return p.added
	case diff.StatusRemoved:
		return p.removed
	default:
		return p.unchanged
	}
}

func (t *TextWriter) Write(w io.Writer, doc *Document) error {
	ew := &errWriter{w: w}
	p := newPalette(t.Color)
	rep := doc.Report
	s := rep.Summary

	ew.printf("%s %s\n", p.bold.Sprint("patchdiff"), doc.Version)
	ew.printf("Base:  %s\nPatch: %s\n", doc.Inputs.BaseReport, doc.Inputs.PatchReport)
	ew.println(strings.Repeat("─", 60))
	ew.printf("Files: %d (%d changed)  %s  %s  %s\n",
		s.Files, s.ChangedFiles,
		p.added.Sprintf("+%d added", s.Added),
		p.removed.Sprintf("-%d removed", s.Removed),
		p.unchanged.Sprintf("=%d unchanged", s.Unchanged),
	)
	if s.Added > 0 {
		ew.printf("Added by severity: %s\n", severityLine(s.AddedBySeverity))
	}
	if s.Removed > 0 {
		ew.printf("Removed by severity: %s\n", severityLine(s.RemovedBySeverity))
	}
	ew.println(strings.Repeat("─", 60))

	if s.Files == 0 {
		ew.println("\nNo violations in either report.")
	}
	for _, fd := range orderedFiles(rep) {
		ew.printf("\n%s  (+%d -%d =%d)\n", p.bold.Sprint(fd.Path), fd.Added, fd.Removed, fd.Unchanged)
		for _, e := range fd.Entries {
			rec := e.Record()
			c := p.status(e.Status)
			ew.printf("  %s %-9s %-7s %s\n",
				c.Sprint(statusMark(e.Status)),
				entryPosition(e),
				rec.Severity,
				p.dim.Sprint(shortRule(rec.RuleID)),
			)
			for _, line := range wrapText(rec.Message, 70) {
				ew.printf("      %s\n", line)
			}
		}
	}

	if cd := rep.ConfigDiff; cd != nil {
		writeConfigText(ew, p, cd)
	}
	return ew.err
}

func writeConfigText(ew *errWriter, p palette, cd *configdiff.Result) {
	c := cd.Counts()
	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Configuration: %d added, %d removed, %d changed, %d unchanged\n",
		c.Added, c.Removed, c.Changed, c.Unchanged)
	for _, rd := range cd.Rules {
		switch rd.Status {
		case configdiff.StatusAdded:
			ew.printf("  %s %s\n", p.added.Sprint("+"), rd.RuleID)
		case configdiff.StatusRemoved:
			ew.printf("  %s %s\n", p.removed.Sprint("-"), rd.RuleID)
		case configdiff.StatusChanged:
			ew.printf("  %s %s\n", p.unchanged.Sprint("~"), rd.RuleID)
			for _, k := range rd.Changed {
				ew.printf("      %s: %s -> %s\n", k, attrValue(rd.Base, k), attrValue(rd.Patch, k))
			}
		}
	}
}

func attrValue(attrs configdiff.Attributes, key string) string {
	v, ok := attrs[key]
	if !ok {
		return "(unset)"
	}
	return fmt.Sprintf("%q", v)
}

func severityLine(c violation.SeverityCounts) string {
	return fmt.Sprintf("%d error, %d warning, %d info", c.Error, c.Warning, c.Info)
}

func statusMark(s diff.Status) string {
	switch s {
	case diff.StatusAdded:
		return "+"
	case diff.StatusRemoved:
		return "-"
	default:
		return "="
	}
}

// position formats line:column. Line 0 marks a file-level violation and
// column 0 an unknown column.
func position(r violation.Record) string {
	switch {
	case r.Line == 0:
		return "-"
	case r.Column == 0:
		return fmt.Sprintf("%d", r.Line)
	default:
		return fmt.Sprintf("%d:%d", r.Line, r.Column)
	}
}

// entryPosition shows where a moved violation came from.
func entryPosition(e diff.Entry) string {
	if e.Moved() {
		return position(*e.Base) + ">" + position(*e.Patch)
	}
	return position(e.Record())
}

// shortRule drops the package qualifier of dotted rule ids such as
// checkstyle check class names.
func shortRule(id string) string {
	if i := strings.LastIndex(id, "."); i >= 0 && i < len(id)-1 {
		return id[i+1:]
	}
	return id
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
