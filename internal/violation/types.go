package violation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedInput is returned when a record breaks the invariants that
// ingestion is expected to enforce.
var ErrMalformedInput = errors.New("malformed violation record")

// Severity represents the severity level of a violation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// ParseSeverity maps the spellings used by checkstyle, SARIF and the native
// JSON format onto a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info", "note", "none", "ignore":
		return SeverityInfo, nil
	default:
		return "", fmt.Errorf("%w: unknown severity %q", ErrMalformedInput, s)
	}
}

// Run identifies which of the two compared reports a record came from.
type Run int

const (
	Base Run = iota
	Patch
)

func (r Run) String() string {
	switch r {
	case Base:
		return "base"
	case Patch:
		return "patch"
	default:
		return fmt.Sprintf("run(%d)", int(r))
	}
}

// Record is a single linter finding. Records are values; nothing in this
// module mutates one after ingestion builds it.
type Record struct {
	FilePath string   `json:"path" msgpack:"p"`
	Line     int      `json:"line" msgpack:"l"`
	Column   int      `json:"column,omitempty" msgpack:"c"`
	RuleID   string   `json:"rule" msgpack:"r"`
	Severity Severity `json:"severity" msgpack:"s"`
	Message  string   `json:"message" msgpack:"m"`
}

// Validate reports whether r satisfies the record invariants. Line and column
// 0 mean "unknown" and are accepted.
func Validate(r Record) error {
	switch {
	case r.FilePath == "":
		return fmt.Errorf("%w: empty file path", ErrMalformedInput)
	case r.RuleID == "":
		return fmt.Errorf("%w: %s:%d: empty rule id", ErrMalformedInput, r.FilePath, r.Line)
	case r.Line < 0:
		return fmt.Errorf("%w: %s: negative line %d", ErrMalformedInput, r.FilePath, r.Line)
	case r.Column < 0:
		return fmt.Errorf("%w: %s:%d: negative column %d", ErrMalformedInput, r.FilePath, r.Line, r.Column)
	case SeverityRank(r.Severity) == 0:
		return fmt.Errorf("%w: %s:%d: unknown severity %q", ErrMalformedInput, r.FilePath, r.Line, r.Severity)
	}
	return nil
}

// Compare orders records by line, column and rule id, falling back to
// severity and message so that the order is total.
func Compare(a, b Record) int {
	if c := cmpInt(a.Line, b.Line); c != 0 {
		return c
	}
	if c := cmpInt(a.Column, b.Column); c != 0 {
		return c
	}
	if c := strings.Compare(a.RuleID, b.RuleID); c != 0 {
		return c
	}
	if c := cmpInt(SeverityRank(a.Severity), SeverityRank(b.Severity)); c != 0 {
		return c
	}
	return strings.Compare(a.Message, b.Message)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Info    int `json:"info"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// Add increments the counter for s.
func (c *SeverityCounts) Add(s Severity) {
	switch s {
	case SeverityInfo:
		c.Info++
	case SeverityWarning:
		c.Warning++
	case SeverityError:
		c.Error++
	}
}
