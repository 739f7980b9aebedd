package violation

import (
	"slices"
	"sort"
)

// FileSet holds the violations of one file in one run, ordered by Compare.
type FileSet struct {
	Path    string
	Records []Record
}

// NewFileSet sorts a copy of records and wraps it in a FileSet.
func NewFileSet(path string, records []Record) FileSet {
	rs := slices.Clone(records)
	slices.SortStableFunc(rs, Compare)
	return FileSet{Path: path, Records: rs}
}

// Len returns the number of records.
func (fs FileSet) Len() int {
	return len(fs.Records)
}

// Collection maps a file path to the violations reported for it in one run.
type Collection map[string]FileSet

// Paths returns the file paths in sorted order.
func (c Collection) Paths() []string {
	paths := make([]string, 0, len(c))
	for p := range c {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Count returns the total number of records across all files.
func (c Collection) Count() int {
	n := 0
	for _, fs := range c {
		n += fs.Len()
	}
	return n
}

// Records returns every record in path order, then Compare order.
func (c Collection) Records() []Record {
	out := make([]Record, 0, c.Count())
	for _, p := range c.Paths() {
		out = append(out, c[p].Records...)
	}
	return out
}

// Validate checks every record and that each one is filed under its own path.
func (c Collection) Validate() error {
	for _, p := range c.Paths() {
		for _, r := range c[p].Records {
			if err := Validate(r); err != nil {
				return err
			}
			if r.FilePath != p {
				return &PathMismatchError{Key: p, Record: r}
			}
		}
	}
	return nil
}

// PathMismatchError reports a record stored under a different file key.
type PathMismatchError struct {
	Key    string
	Record Record
}

func (e *PathMismatchError) Error() string {
	return "record for " + e.Record.FilePath + " filed under " + e.Key
}

func (e *PathMismatchError) Unwrap() error {
	return ErrMalformedInput
}

// Builder accumulates records streamed from a report and produces a sorted
// Collection. A file that was seen without any violations is kept so that
// callers can tell it apart from a file that was never reported.
type Builder struct {
	files map[string][]Record
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{files: make(map[string][]Record)}
}

// Touch registers path even if it carries no records.
func (b *Builder) Touch(path string) {
	if _, ok := b.files[path]; !ok {
		b.files[path] = nil
	}
}

// Add appends r under its file path after validating it.
func (b *Builder) Add(r Record) error {
	if err := Validate(r); err != nil {
		return err
	}
	b.files[r.FilePath] = append(b.files[r.FilePath], r)
	return nil
}

// AddAll adds records in order, stopping at the first invalid one.
func (b *Builder) AddAll(records []Record) error {
	for _, r := range records {
		if err := b.Add(r); err != nil {
			return err
		}
	}
	return nil
}

// Build returns the collected records as a Collection.
func (b *Builder) Build() Collection {
	c := make(Collection, len(b.files))
	for p, rs := range b.files {
		c[p] = NewFileSet(p, rs)
	}
	return c
}
