// Package cli wires together the Cobra command tree for the patchdiff binary.
//
// It defines the root command and all subcommands (diff, convert, config,
// cache, version), binds flags, reads configuration, runs ingestion, matching
// and rendering, and returns deterministic exit codes for CI gating.
package cli
