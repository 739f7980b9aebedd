package ingest

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/patchdiff/internal/cache"
	"github.com/dshills/patchdiff/internal/configdiff"
	"github.com/dshills/patchdiff/internal/violation"
)

// Options controls how reports are read.
type Options struct {
	// Format forces a report format. FormatAuto detects it per file.
	Format Format
	// SourceRoot is the directory report paths are made relative to.
	SourceRoot string
	// BatchSize is the number of files flushed at a time while streaming a
	// checkstyle report.
	BatchSize int
	// Cache stores parsed reports. Nil disables caching.
	Cache *cache.Cache
}

// ViolationSource supplies the violations of one run.
type ViolationSource interface {
	Violations(ctx context.Context, run violation.Run) (violation.Collection, error)
}

// RuleSource supplies the flattened rule configuration of one run.
type RuleSource interface {
	Rules(ctx context.Context, run violation.Run) (configdiff.Tree, error)
}

// Reports reads the base and patch violation reports from disk.
type Reports struct {
	BasePath  string
	PatchPath string
	Options   Options
}

// Violations implements ViolationSource.
func (r Reports) Violations(ctx context.Context, run violation.Run) (violation.Collection, error) {
	switch run {
	case violation.Base:
		return LoadReport(ctx, r.BasePath, r.Options)
	case violation.Patch:
		return LoadReport(ctx, r.PatchPath, r.Options)
	default:
		return nil, fmt.Errorf("unknown run %s", run)
	}
}

// LoadBoth fetches both runs from src concurrently.
func LoadBoth(ctx context.Context, src ViolationSource) (base, patch violation.Collection, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := src.Violations(gctx, violation.Base)
		if err != nil {
			return fmt.Errorf("base report: %w", err)
		}
		base = c
		return nil
	})
	g.Go(func() error {
		c, err := src.Violations(gctx, violation.Patch)
		if err != nil {
			return fmt.Errorf("patch report: %w", err)
		}
		patch = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return base, patch, nil
}

// LoadReport reads one report file (or report directory) into a Collection.
func LoadReport(ctx context.Context, path string, opts Options) (violation.Collection, error) {
	logger := zerolog.Ctx(ctx)

	path, err := ResolveReportPath(path)
	if err != nil {
		return nil, err
	}
	format := opts.Format
	if format == FormatAuto {
		head, err := sniff(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if format, err = Detect(path, head); err != nil {
			return nil, err
		}
	}
	norm, err := newPathNormalizer(opts.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("source root: %w", err)
	}

	var key string
	if opts.Cache.Enabled() {
		digest, err := digestFile(path)
		if err != nil {
			return nil, err
		}
		key = cache.BuildCacheKey(string(format), norm.root, digest)
		if coll, ok := opts.Cache.Get(key); ok {
			logger.Debug().Str("report", path).Int("files", len(coll)).Msg("report loaded from cache")
			return coll, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()

	b := violation.NewBuilder()
	batches := 0
	sink := func(batch fileBatch) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		batches++
		for _, pf := range batch {
			b.Touch(pf.path)
			if err := b.AddAll(pf.records); err != nil {
				return err
			}
		}
		return nil
	}
	if err := parse(f, format, norm, opts.BatchSize, sink); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	coll := b.Build()
	logger.Debug().
		Str("report", path).
		Str("format", string(format)).
		Int("files", len(coll)).
		Int("violations", coll.Count()).
		Int("batches", batches).
		Msg("report parsed")

	if key != "" {
		if err := opts.Cache.Put(key, coll); err != nil {
			logger.Warn().Err(err).Msg("caching parsed report failed")
		}
	}
	return coll, nil
}

func parse(r io.Reader, format Format, norm pathNormalizer, batchSize int, emit batchFunc) error {
	switch format {
	case FormatCheckstyle:
		return parseCheckstyle(r, norm, batchSize, emit)
	case FormatSARIF:
		return parseSARIF(r, norm, emit)
	case FormatJSON:
		return parseJSON(r, norm, emit)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()
	return cache.DigestReader(f)
}
