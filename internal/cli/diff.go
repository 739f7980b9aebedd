package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/patchdiff/internal/cache"
	"github.com/dshills/patchdiff/internal/config"
	"github.com/dshills/patchdiff/internal/configdiff"
	"github.com/dshills/patchdiff/internal/diff"
	"github.com/dshills/patchdiff/internal/ingest"
	"github.com/dshills/patchdiff/internal/logging"
	"github.com/dshills/patchdiff/internal/output"
	"github.com/dshills/patchdiff/internal/redact"
)

// Diff flags
var (
	flagBaseReport      string
	flagPatchReport     string
	flagRefFiles        string
	flagOutputDir       string
	flagBaseConfig      string
	flagPatchConfig     string
	flagFormat          string
	flagOut             string
	flagReportFormat    string
	flagMaxLineDistance int
	flagJobs            int
	flagFailOnAdded     bool
	flagNoRedact        bool
	flagNoCache         bool
	flagVerbose         bool
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare a base and a patch violation report",
	Long: "Compare the violation reports of a base and a patch run. Each violation is classified as " +
		"added, removed or unchanged. With --output (or --format site) an HTML site is generated; " +
		"if the output folder exists its content is purged.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (flagBaseConfig == "") != (flagPatchConfig == "") {
			return fmt.Errorf("--base-config and --patch-config must be given together")
		}
		cfg, err := loadConfig(cmd)
		if errors.Is(err, config.ErrInvalid) {
			return err
		}
		if err != nil {
			logger, _ := logging.New(os.Stderr, logging.Options{Verbose: flagVerbose})
			logger.Error().Err(err).Msg("loading configuration failed")
			exitCode = ExitRuntimeError
			return nil
		}
		logger, err := logging.New(os.Stderr, logging.Options{Level: cfg.LogLevel, Verbose: flagVerbose})
		if err != nil {
			return err
		}
		ctx := logging.WithLogger(cmd.Context(), logger)
		exitCode = runDiff(ctx, cfg)
		return nil
	},
}

func addDiffFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagBaseReport, "base-report", "", "Base run violation report (file, or directory containing checkstyle-result.xml)")
	f.StringVar(&flagPatchReport, "patch-report", "", "Patch run violation report (file, or directory containing checkstyle-result.xml)")
	f.StringVar(&flagRefFiles, "ref-files", "", "Source root; report paths are made relative to it and sources are annotated from it")
	f.StringVar(&flagOutputDir, "output", "", "Site output directory (default: ~/patchdiff_report_YYYY.MM.DD_HH_MM_SS)")
	f.StringVar(&flagBaseConfig, "base-config", "", "Base run rule configuration (checkstyle XML or TOML)")
	f.StringVar(&flagPatchConfig, "patch-config", "", "Patch run rule configuration (checkstyle XML or TOML)")
	f.StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif, site)")
	f.StringVar(&flagOut, "out", "", "Output file path for stream formats (default: stdout)")
	f.StringVar(&flagReportFormat, "report-format", "", "Input report format (auto, checkstyle, sarif, json)")
	f.IntVar(&flagMaxLineDistance, "max-line-distance", 0, "Maximum line distance for pairing moved violations (0 = unbounded)")
	f.IntVar(&flagJobs, "jobs", 0, "Files matched in parallel (0 = GOMAXPROCS)")
	f.BoolVar(&flagFailOnAdded, "fail-on-added", false, "Exit with code 1 when the patch adds violations")
	f.BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	f.BoolVar(&flagNoCache, "no-cache", false, "Do not read or write the report cache")
	f.BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug events")
	_ = cmd.MarkFlagRequired("base-report")
	_ = cmd.MarkFlagRequired("patch-report")
}

// buildOverrides maps the flags the user set onto config keys.
func buildOverrides(cmd *cobra.Command) map[string]any {
	f := cmd.Flags()
	m := make(map[string]any)
	if f.Changed("format") {
		m["format"] = flagFormat
	} else if f.Changed("output") {
		m["format"] = output.FormatSite
	}
	if f.Changed("report-format") {
		m["report_format"] = flagReportFormat
	}
	if f.Changed("max-line-distance") {
		m["max_line_distance"] = flagMaxLineDistance
	}
	if f.Changed("jobs") {
		m["jobs"] = flagJobs
	}
	if f.Changed("fail-on-added") {
		m["fail_on_added"] = flagFailOnAdded
	}
	if flagNoCache {
		m["cache.enabled"] = false
	}
	if flagNoRedact {
		m["privacy.redact_secrets"] = false
	}
	return m
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := configFilePath()
	if err != nil {
		return config.Config{}, err
	}
	return config.LoadFrom(path, buildOverrides(cmd))
}

func runDiff(ctx context.Context, cfg config.Config) int {
	logger := zerolog.Ctx(ctx)
	if flagNoRedact {
		logger.Warn().Msg("secret redaction is disabled")
	}

	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		logger.Warn().Err(err).Msg("report cache unavailable")
		c = nil
	}
	format, err := ingest.ParseFormat(cfg.ReportFormat)
	if err != nil {
		logger.Error().Err(err).Msg("invalid report format")
		return ExitUsageError
	}

	logger.Info().Str("stage", "parsing").Msg("reading reports")
	base, patch, err := ingest.LoadBoth(ctx, ingest.Reports{
		BasePath:  flagBaseReport,
		PatchPath: flagPatchReport,
		Options: ingest.Options{
			Format:     format,
			SourceRoot: flagRefFiles,
			BatchSize:  cfg.BatchSize,
			Cache:      c,
		},
	})
	if err != nil {
		logger.Error().Err(err).Msg("reading reports failed")
		return ExitRuntimeError
	}

	var cd *configdiff.Result
	configs := ingest.Configs{BasePath: flagBaseConfig, PatchPath: flagPatchConfig}
	if configs.Present() {
		if cd, err = ingest.DiffRules(ctx, configs); err != nil {
			logger.Error().Err(err).Msg("reading configurations failed")
			return ExitRuntimeError
		}
	}

	logger.Info().Str("stage", "matching").Int("files", len(base)+len(patch)).Msg("matching violations")
	rep, err := diff.Aggregate(ctx, base, patch, diff.Options{
		Match:      diff.MatchOptions{MaxLineDistance: cfg.MaxLineDistance},
		Jobs:       cfg.Jobs,
		ConfigDiff: cd,
	})
	if err != nil {
		logger.Error().Err(err).Msg("matching failed")
		return ExitRuntimeError
	}

	doc := output.NewDocument(version, output.Inputs{
		BaseReport:      flagBaseReport,
		PatchReport:     flagPatchReport,
		SourceRoot:      flagRefFiles,
		BaseConfig:      flagBaseConfig,
		PatchConfig:     flagPatchConfig,
		MaxLineDistance: cfg.MaxLineDistance,
	}, rep)
	red := redact.New(cfg.Privacy.RedactSecrets, cfg.Privacy.RedactPaths)

	logger.Info().Str("stage", "rendering").Str("format", cfg.Format).Msg("writing report")
	if cfg.Format == output.FormatSite {
		if err := writeSite(ctx, doc, red); err != nil {
			logger.Error().Err(err).Msg("writing site failed")
			return ExitRuntimeError
		}
	} else {
		opts := output.Options{Color: flagOut == "", Redactor: red}
		if err := output.WriteReport(doc, cfg.Format, flagOut, opts); err != nil {
			logger.Error().Err(err).Msg("writing output failed")
			return ExitRuntimeError
		}
	}

	logger.Info().
		Int("added", rep.Summary.Added).
		Int("removed", rep.Summary.Removed).
		Int("unchanged", rep.Summary.Unchanged).
		Msg("done")

	if cfg.FailOnAdded && rep.Summary.Added > 0 {
		return ExitFindings
	}
	return ExitSuccess
}

func writeSite(ctx context.Context, doc *output.Document, red *redact.Redactor) error {
	dir := flagOutputDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = defaultSiteDir(home, time.Now())
	}
	site := &output.Site{SourceRoot: flagRefFiles, Redactor: red}
	events, err := site.Generate(dir, doc)
	logEvents(zerolog.Ctx(ctx), events)
	return err
}

// defaultSiteDir names a timestamped report folder under home.
func defaultSiteDir(home string, now time.Time) string {
	return filepath.Join(home, "patchdiff_report_"+now.Format("2006.01.02_15_04_05"))
}

func logEvents(logger *zerolog.Logger, events []output.Event) {
	for _, ev := range events {
		lvl, err := zerolog.ParseLevel(ev.Level)
		if err != nil {
			lvl = zerolog.InfoLevel
		}
		e := logger.WithLevel(lvl)
		if ev.Path != "" {
			e = e.Str("path", ev.Path)
		}
		e.Msg(ev.Message)
	}
}

func init() {
	addDiffFlags(diffCmd)
}
