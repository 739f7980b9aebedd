package diff

import (
	"fmt"
	"slices"

	"github.com/dshills/patchdiff/internal/configdiff"
	"github.com/dshills/patchdiff/internal/violation"
)

// Status classifies a violation across the two runs.
type Status string

const (
	StatusAdded     Status = "added"
	StatusRemoved   Status = "removed"
	StatusUnchanged Status = "unchanged"
)

// Swap returns the status seen when base and patch trade places.
func (s Status) Swap() Status {
	switch s {
	case StatusAdded:
		return StatusRemoved
	case StatusRemoved:
		return StatusAdded
	default:
		return s
	}
}

func statusOrder(s Status) int {
	switch s {
	case StatusRemoved:
		return 0
	case StatusUnchanged:
		return 1
	default:
		return 2
	}
}

// Entry is one classified violation. Base is set for removed and unchanged
// entries, Patch for added and unchanged ones.
type Entry struct {
	Status Status            `json:"status"`
	Base   *violation.Record `json:"base,omitempty"`
	Patch  *violation.Record `json:"patch,omitempty"`
}

// Record returns the record used to display the entry: the patch side when
// present, the base side otherwise.
func (e Entry) Record() violation.Record {
	if e.Patch != nil {
		return *e.Patch
	}
	if e.Base != nil {
		return *e.Base
	}
	return violation.Record{}
}

// Moved reports whether an unchanged entry was matched across different
// positions.
func (e Entry) Moved() bool {
	return e.Status == StatusUnchanged && e.Base != nil && e.Patch != nil &&
		(e.Base.Line != e.Patch.Line || e.Base.Column != e.Patch.Column)
}

// FileDiff holds the classified entries of one file.
type FileDiff struct {
	Path      string  `json:"path"`
	Entries   []Entry `json:"entries"`
	Added     int     `json:"added"`
	Removed   int     `json:"removed"`
	Unchanged int     `json:"unchanged"`
}

// HasChanges reports whether the file has any added or removed entries.
func (fd *FileDiff) HasChanges() bool {
	return fd.Added+fd.Removed > 0
}

func newFileDiff(path string, entries []Entry) *FileDiff {
	fd := &FileDiff{Path: path, Entries: entries}
	for _, e := range entries {
		switch e.Status {
		case StatusAdded:
			fd.Added++
		case StatusRemoved:
			fd.Removed++
		case StatusUnchanged:
			fd.Unchanged++
		}
	}
	return fd
}

// Summary provides totals over all files.
type Summary struct {
	Files             int                      `json:"files"`
	ChangedFiles      int                      `json:"changedFiles"`
	Added             int                      `json:"added"`
	Removed           int                      `json:"removed"`
	Unchanged         int                      `json:"unchanged"`
	AddedBySeverity   violation.SeverityCounts `json:"addedBySeverity"`
	RemovedBySeverity violation.SeverityCounts `json:"removedBySeverity"`
}

// Report is the normalized result of a diff run. It is read-only once
// Aggregate returns it.
type Report struct {
	Files      map[string]*FileDiff `json:"files"`
	Summary    Summary              `json:"summary"`
	ConfigDiff *configdiff.Result   `json:"configDiff,omitempty"`

	paths []string
}

// Paths returns the file paths in sorted order.
func (r *Report) Paths() []string {
	if len(r.paths) == len(r.Files) {
		return slices.Clone(r.paths)
	}
	paths := make([]string, 0, len(r.Files))
	for p := range r.Files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// File returns the diff for path, or nil if the path has none.
func (r *Report) File(path string) *FileDiff {
	return r.Files[path]
}

// ComputeSummary sums per-file counts in path order.
func ComputeSummary(files []*FileDiff) Summary {
	var s Summary
	for _, fd := range files {
		s.Files++
		if fd.HasChanges() {
			s.ChangedFiles++
		}
		s.Added += fd.Added
		s.Removed += fd.Removed
		s.Unchanged += fd.Unchanged
		for _, e := range fd.Entries {
			switch e.Status {
			case StatusAdded:
				s.AddedBySeverity.Add(e.Patch.Severity)
			case StatusRemoved:
				s.RemovedBySeverity.Add(e.Base.Severity)
			}
		}
	}
	return s
}

// Check verifies the structural invariants of the report: entry presence
// rules, rule isolation, per-file counts and summary totals.
func (r *Report) Check() error {
	var files []*FileDiff
	paths := r.Paths()
	for _, p := range paths {
		fd, ok := r.Files[p]
		if !ok {
			return fmt.Errorf("path %s listed but missing", p)
		}
		for i, e := range fd.Entries {
			if err := checkEntry(e); err != nil {
				return fmt.Errorf("%s entry %d: %w", p, i, err)
			}
		}
		want := newFileDiff(p, fd.Entries)
		if want.Added != fd.Added || want.Removed != fd.Removed || want.Unchanged != fd.Unchanged {
			return fmt.Errorf("%s: counts %d/%d/%d do not match entries", p, fd.Added, fd.Removed, fd.Unchanged)
		}
		files = append(files, fd)
	}
	if len(files) != len(r.Files) {
		return fmt.Errorf("%d files but %d paths", len(r.Files), len(paths))
	}
	if s := ComputeSummary(files); s != r.Summary {
		return fmt.Errorf("summary %+v does not match files %+v", r.Summary, s)
	}
	return nil
}

func checkEntry(e Entry) error {
	switch e.Status {
	case StatusAdded:
		if e.Base != nil || e.Patch == nil {
			return fmt.Errorf("added entry must carry only a patch record")
		}
	case StatusRemoved:
		if e.Base == nil || e.Patch != nil {
			return fmt.Errorf("removed entry must carry only a base record")
		}
	case StatusUnchanged:
		if e.Base == nil || e.Patch == nil {
			return fmt.Errorf("unchanged entry must carry both records")
		}
		if e.Base.RuleID != e.Patch.RuleID {
			return fmt.Errorf("paired rules differ: %s vs %s", e.Base.RuleID, e.Patch.RuleID)
		}
	default:
		return fmt.Errorf("unknown status %q", e.Status)
	}
	return nil
}
