package diff

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/patchdiff/internal/configdiff"
	"github.com/dshills/patchdiff/internal/violation"
)

// Options controls an aggregation run.
type Options struct {
	Match MatchOptions
	// Jobs limits how many files are matched concurrently. Zero or negative
	// means GOMAXPROCS.
	Jobs int
	// ConfigDiff is attached to the report as is. Nil when no rule
	// configurations were supplied.
	ConfigDiff *configdiff.Result
}

// Aggregate matches every file present in base or patch and builds the
// Report. Input is validated up front; a malformed record aborts the run and
// no report is produced. Files with no records on either side are left out.
func Aggregate(ctx context.Context, base, patch violation.Collection, opts Options) (*Report, error) {
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("base report: %w", err)
	}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("patch report: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paths := unionPaths(base, patch)
	logger := zerolog.Ctx(ctx)
	logger.Debug().
		Int("files", len(paths)).
		Int("base", base.Count()).
		Int("patch", patch.Count()).
		Msg("matching violations")

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Each worker owns one slot, so no locking is needed.
	slots := make([]*FileDiff, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(paths))))
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = newFileDiff(p, Match(base[p], patch[p], opts.Match))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Report{
		Files:      make(map[string]*FileDiff, len(slots)),
		Summary:    ComputeSummary(slots),
		ConfigDiff: opts.ConfigDiff,
		paths:      paths,
	}
	for _, fd := range slots {
		r.Files[fd.Path] = fd
	}

	logger.Debug().
		Int("added", r.Summary.Added).
		Int("removed", r.Summary.Removed).
		Int("unchanged", r.Summary.Unchanged).
		Msg("matching complete")
	return r, nil
}

// unionPaths returns the sorted paths that carry at least one record in
// either collection.
func unionPaths(base, patch violation.Collection) []string {
	seen := make(map[string]struct{}, len(base)+len(patch))
	for _, c := range []violation.Collection{base, patch} {
		for p, fs := range c {
			if fs.Len() > 0 {
				seen[p] = struct{}{}
			}
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
