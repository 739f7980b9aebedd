package ingest

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dshills/patchdiff/internal/violation"
)

// DefaultBatchSize is the number of <file> elements handed to the builder at
// a time while streaming a checkstyle report.
const DefaultBatchSize = 50

// fileBatch is a group of parsed files passed from a parser to its sink.
type fileBatch []parsedFile

type parsedFile struct {
	path    string
	records []violation.Record
}

type batchFunc func(fileBatch) error

// parseCheckstyle streams a checkstyle XML report. The decoder never holds
// more than batchSize files before flushing them to emit.
func parseCheckstyle(r io.Reader, norm pathNormalizer, batchSize int, emit batchFunc) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	dec := xml.NewDecoder(r)
	var (
		batch   fileBatch
		current *parsedFile
		sawRoot bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("decoding checkstyle XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "checkstyle":
				sawRoot = true
			case "file":
				name := attr(t, "name")
				if name == "" {
					return fmt.Errorf("%w: <file> without name", violation.ErrMalformedInput)
				}
				current = &parsedFile{path: norm.normalize(name)}
			case "error":
				if current == nil {
					return fmt.Errorf("%w: <error> outside <file>", violation.ErrMalformedInput)
				}
				rec, err := checkstyleRecord(current.path, t)
				if err != nil {
					return err
				}
				current.records = append(current.records, rec)
			}
		case xml.EndElement:
			if t.Name.Local == "file" && current != nil {
				batch = append(batch, *current)
				current = nil
				if len(batch) >= batchSize {
					if err := emit(batch); err != nil {
						return err
					}
					batch = nil
				}
			}
		}
	}
	if !sawRoot {
		return fmt.Errorf("%w: missing <checkstyle> root element", violation.ErrMalformedInput)
	}
	if len(batch) > 0 {
		return emit(batch)
	}
	return nil
}

func checkstyleRecord(path string, el xml.StartElement) (violation.Record, error) {
	line, err := intAttr(el, "line")
	if err != nil {
		return violation.Record{}, fmt.Errorf("%s: %w", path, err)
	}
	col, err := intAttr(el, "column")
	if err != nil {
		return violation.Record{}, fmt.Errorf("%s:%d: %w", path, line, err)
	}
	sev, err := violation.ParseSeverity(attr(el, "severity"))
	if err != nil {
		return violation.Record{}, fmt.Errorf("%s:%d: %w", path, line, err)
	}
	return violation.Record{
		FilePath: path,
		Line:     line,
		Column:   col,
		RuleID:   attr(el, "source"),
		Severity: sev,
		Message:  attr(el, "message"),
	}, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// intAttr parses a numeric attribute; a missing attribute reads as 0.
func intAttr(el xml.StartElement, name string) (int, error) {
	v := attr(el, name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", violation.ErrMalformedInput, name, v)
	}
	return n, nil
}
