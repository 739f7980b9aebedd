package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	koanftoml "github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "PATCHDIFF_"

// ErrUnknownKey is returned by SetField for keys it does not know.
var ErrUnknownKey = errors.New("unknown config key")

// ErrInvalid wraps every error returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config represents the patchdiff configuration.
type Config struct {
	Format          string        `koanf:"format" toml:"format" json:"format"`
	ReportFormat    string        `koanf:"report_format" toml:"report_format" json:"reportFormat"`
	MaxLineDistance int           `koanf:"max_line_distance" toml:"max_line_distance" json:"maxLineDistance"`
	Jobs            int           `koanf:"jobs" toml:"jobs" json:"jobs"`
	BatchSize       int           `koanf:"batch_size" toml:"batch_size" json:"batchSize"`
	LogLevel        string        `koanf:"log_level" toml:"log_level" json:"logLevel"`
	FailOnAdded     bool          `koanf:"fail_on_added" toml:"fail_on_added" json:"failOnAdded"`
	Cache           CacheConfig   `koanf:"cache" toml:"cache" json:"cache"`
	Privacy         PrivacyConfig `koanf:"privacy" toml:"privacy" json:"privacy"`
}

// CacheConfig controls caching of parsed reports.
type CacheConfig struct {
	Enabled    bool   `koanf:"enabled" toml:"enabled" json:"enabled"`
	Dir        string `koanf:"dir" toml:"dir,omitempty" json:"dir,omitempty"`
	TTLSeconds int    `koanf:"ttl_seconds" toml:"ttl_seconds" json:"ttlSeconds"`
}

// PrivacyConfig controls redaction of rendered messages and source.
type PrivacyConfig struct {
	RedactSecrets bool     `koanf:"redact_secrets" toml:"redact_secrets" json:"redactSecrets"`
	RedactPaths   []string `koanf:"redact_paths" toml:"redact_paths,omitempty" json:"redactPaths,omitempty"`
}

var (
	outputFormats = []string{"text", "json", "markdown", "sarif", "site"}
	reportFormats = []string{"auto", "checkstyle", "sarif", "json"}
	logLevels     = []string{"trace", "debug", "info", "warn", "warning", "error"}

	// listKeys hold comma-separated lists when set from a string.
	listKeys = []string{"privacy.redact_paths"}
)

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Format:       "text",
		ReportFormat: "auto",
		BatchSize:    50,
		LogLevel:     "info",
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

func defaultsMap() map[string]any {
	d := Default()
	return map[string]any{
		"format":                 d.Format,
		"report_format":          d.ReportFormat,
		"max_line_distance":      d.MaxLineDistance,
		"jobs":                   d.Jobs,
		"batch_size":             d.BatchSize,
		"log_level":              d.LogLevel,
		"fail_on_added":          d.FailOnAdded,
		"cache.enabled":          d.Cache.Enabled,
		"cache.dir":              d.Cache.Dir,
		"cache.ttl_seconds":      d.Cache.TTLSeconds,
		"privacy.redact_secrets": d.Privacy.RedactSecrets,
		"privacy.redact_paths":   d.Privacy.RedactPaths,
	}
}

// Keys returns the keys accepted by SetField and by the override map of Load.
func Keys() []string {
	keys := make([]string, 0, 12)
	for k := range defaultsMap() {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ConfigDir returns the platform-appropriate config directory for patchdiff.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "patchdiff"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "patchdiff"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "patchdiff"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "patchdiff"), nil
	default:
		return filepath.Join(home, ".config", "patchdiff"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load builds the effective config from the default config file location.
// See LoadFrom.
func Load(overrides map[string]any) (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(path, overrides)
}

// LoadFrom builds the effective config by merging: defaults <- file <- env <-
// overrides. A missing file is not an error. Override keys use the dotted
// form returned by Keys; CLI callers should only set flags the user changed.
func LoadFrom(path string, overrides map[string]any) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), koanftoml.Parser()); err != nil {
				return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return Config{}, fmt.Errorf("applying overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps PATCHDIFF_CACHE__TTL_SECONDS to cache.ttl_seconds.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// envValue maps an environment variable to its config key. List values are
// split on commas as SetField does.
func envValue(name, value string) (string, any) {
	key := envKey(name)
	if slices.Contains(listKeys, key) {
		if list := splitList(value); list != nil {
			return key, list
		}
		return key, []string{}
	}
	return key, value
}

// LoadFile reads only the config file at path on top of the defaults. A
// missing file yields Default().
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as TOML to path, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("encoding config: %w", err)
	}
	return f.Close()
}

// Validate rejects values no command can act on. Errors wrap ErrInvalid.
func (c Config) Validate() error {
	if !slices.Contains(outputFormats, c.Format) {
		return fmt.Errorf("%w: format must be one of %s, got %q", ErrInvalid, strings.Join(outputFormats, ", "), c.Format)
	}
	if c.ReportFormat != "" && !slices.Contains(reportFormats, c.ReportFormat) {
		return fmt.Errorf("%w: report_format must be one of %s, got %q", ErrInvalid, strings.Join(reportFormats, ", "), c.ReportFormat)
	}
	if c.LogLevel != "" && !slices.Contains(logLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("%w: log_level %q is not a known level", ErrInvalid, c.LogLevel)
	}
	if c.MaxLineDistance < 0 {
		return fmt.Errorf("%w: max_line_distance must not be negative", ErrInvalid)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("%w: batch_size must not be negative", ErrInvalid)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("%w: cache.ttl_seconds must not be negative", ErrInvalid)
	}
	return nil
}

// SetField sets a single config field by key name. Returns an error wrapping
// ErrUnknownKey if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "format":
		cfg.Format = value
	case "report_format":
		cfg.ReportFormat = value
	case "log_level":
		cfg.LogLevel = value
	case "max_line_distance":
		return setInt(&cfg.MaxLineDistance, key, value)
	case "jobs":
		return setInt(&cfg.Jobs, key, value)
	case "batch_size":
		return setInt(&cfg.BatchSize, key, value)
	case "fail_on_added":
		return setBool(&cfg.FailOnAdded, key, value)
	case "cache.enabled":
		return setBool(&cfg.Cache.Enabled, key, value)
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttl_seconds":
		return setInt(&cfg.Cache.TTLSeconds, key, value)
	case "privacy.redact_secrets":
		return setBool(&cfg.Privacy.RedactSecrets, key, value)
	case "privacy.redact_paths":
		cfg.Privacy.RedactPaths = splitList(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be true or false: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
