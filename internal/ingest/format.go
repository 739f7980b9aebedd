package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat is returned when a report format cannot be determined.
var ErrUnknownFormat = errors.New("unknown report format")

// Format identifies a report schema.
type Format string

const (
	FormatAuto       Format = ""
	FormatCheckstyle Format = "checkstyle"
	FormatSARIF      Format = "sarif"
	FormatJSON       Format = "json"
)

// DefaultReportName is looked up when a report path names a directory.
const DefaultReportName = "checkstyle-result.xml"

// ParseFormat validates a user-supplied format name. "auto" and "" both mean
// detection from the file.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "checkstyle", "xml":
		return FormatCheckstyle, nil
	case "sarif":
		return FormatSARIF, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Detect guesses the format of the report at path from its extension and,
// failing that, from its first bytes.
func Detect(path string, head []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatCheckstyle, nil
	case ".sarif":
		return FormatSARIF, nil
	}
	trimmed := bytes.TrimSpace(head)
	switch {
	case bytes.HasPrefix(trimmed, []byte("<")):
		return FormatCheckstyle, nil
	case bytes.HasPrefix(trimmed, []byte("{")):
		if bytes.Contains(trimmed, []byte(`"runs"`)) || bytes.Contains(trimmed, []byte(`"$schema"`)) {
			return FormatSARIF, nil
		}
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// ResolveReportPath returns the report file for path. A directory resolves to
// the checkstyle-result.xml inside it.
func ResolveReportPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("report %s: %w", path, err)
	}
	if !info.IsDir() {
		return path, nil
	}
	p := filepath.Join(path, DefaultReportName)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("report directory %s: %w", path, err)
	}
	return p, nil
}

// sniff reads up to 512 bytes from the start of path.
func sniff(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}
