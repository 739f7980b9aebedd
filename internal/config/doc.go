// Package config loads and merges patchdiff configuration from multiple
// sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (PATCHDIFF_FORMAT, PATCHDIFF_MAX_LINE_DISTANCE,
//     PATCHDIFF_CACHE__TTL_SECONDS, ...; a double underscore separates
//     nesting levels)
//  3. Config file ($XDG_CONFIG_HOME/patchdiff/config.toml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single key.
package config
