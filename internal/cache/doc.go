// Package cache provides a file-based cache for parsed violation reports.
//
// Cache entries are keyed by a SHA-256 hash of the report format, the source
// root used to relativize paths, and a digest of the report bytes. Each entry
// stores the parsed records msgpack-encoded, along with a creation timestamp
// and a TTL (in seconds). Expired entries are skipped on read and dropped when
// the cache is cleared. Writes go through a temp file and a rename.
//
// The default cache directory is $XDG_CACHE_HOME/patchdiff (or the
// OS-appropriate equivalent).
package cache
