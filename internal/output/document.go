package output

import (
	"github.com/google/uuid"

	"github.com/dshills/patchdiff/internal/diff"
	"github.com/dshills/patchdiff/internal/redact"
	"github.com/dshills/patchdiff/internal/violation"
)

// ToolName is written into every document.
const ToolName = "patchdiff"

// Document wraps a diff report with the metadata of the run that produced it.
type Document struct {
	Tool    string       `json:"tool"`
	Version string       `json:"version"`
	RunID   string       `json:"runId"`
	Inputs  Inputs       `json:"inputs"`
	Report  *diff.Report `json:"report"`
}

// Inputs records where the compared data came from.
type Inputs struct {
	BaseReport      string `json:"baseReport"`
	PatchReport     string `json:"patchReport"`
	SourceRoot      string `json:"sourceRoot,omitempty"`
	BaseConfig      string `json:"baseConfig,omitempty"`
	PatchConfig     string `json:"patchConfig,omitempty"`
	MaxLineDistance int    `json:"maxLineDistance,omitempty"`
}

// NewDocument stamps report with a fresh run id.
func NewDocument(version string, inputs Inputs, report *diff.Report) *Document {
	return &Document{
		Tool:    ToolName,
		Version: version,
		RunID:   uuid.NewString(),
		Inputs:  inputs,
		Report:  report,
	}
}

// Redacted returns a copy of d whose violation messages went through r. The
// original document is left untouched.
func (d *Document) Redacted(r *redact.Redactor) *Document {
	if r == nil || d.Report == nil {
		return d
	}
	rep := *d.Report
	rep.Files = make(map[string]*diff.FileDiff, len(d.Report.Files))
	for p, fd := range d.Report.Files {
		cp := *fd
		cp.Entries = make([]diff.Entry, len(fd.Entries))
		for i, e := range fd.Entries {
			cp.Entries[i] = diff.Entry{
				Status: e.Status,
				Base:   redactRecord(e.Base, r),
				Patch:  redactRecord(e.Patch, r),
			}
		}
		rep.Files[p] = &cp
	}
	out := *d
	out.Report = &rep
	return &out
}

func redactRecord(rec *violation.Record, r *redact.Redactor) *violation.Record {
	if rec == nil {
		return nil
	}
	cp := *rec
	cp.Message = r.Text(cp.Message)
	return &cp
}

// orderedFiles returns the file diffs in path order.
func orderedFiles(rep *diff.Report) []*diff.FileDiff {
	paths := rep.Paths()
	out := make([]*diff.FileDiff, 0, len(paths))
	for _, p := range paths {
		out = append(out, rep.Files[p])
	}
	return out
}
