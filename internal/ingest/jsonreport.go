package ingest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dshills/patchdiff/internal/violation"
)

//go:embed schema/report.schema.json
var reportSchemaJSON []byte

const reportSchemaURL = "report.schema.json"

var (
	reportSchemaOnce sync.Once
	reportSchema     *jsonschema.Schema
	reportSchemaErr  error
)

func compiledReportSchema() (*jsonschema.Schema, error) {
	reportSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(reportSchemaURL, bytes.NewReader(reportSchemaJSON)); err != nil {
			reportSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		reportSchema, reportSchemaErr = compiler.Compile(reportSchemaURL)
	})
	return reportSchema, reportSchemaErr
}

// jsonReport is the native report format.
type jsonReport struct {
	Tool  string     `json:"tool,omitempty"`
	Files []jsonFile `json:"files"`
}

type jsonFile struct {
	Path       string          `json:"path"`
	Violations []jsonViolation `json:"violations,omitempty"`
}

type jsonViolation struct {
	Line     int    `json:"line"`
	Column   int    `json:"column,omitempty"`
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message,omitempty"`
}

// parseJSON validates the document against the embedded schema before
// decoding it.
func parseJSON(r io.Reader, norm pathNormalizer, emit batchFunc) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading JSON report: %w", err)
	}
	schema, err := compiledReportSchema()
	if err != nil {
		return err
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decoding JSON report: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("%w: %v", violation.ErrMalformedInput, err)
	}

	var rep jsonReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		return fmt.Errorf("decoding JSON report: %w", err)
	}
	batch := make(fileBatch, 0, len(rep.Files))
	for _, f := range rep.Files {
		pf := parsedFile{path: norm.normalize(f.Path)}
		for _, v := range f.Violations {
			sev, err := violation.ParseSeverity(v.Severity)
			if err != nil {
				return fmt.Errorf("%s:%d: %w", f.Path, v.Line, err)
			}
			pf.records = append(pf.records, violation.Record{
				FilePath: pf.path,
				Line:     v.Line,
				Column:   v.Column,
				RuleID:   v.Rule,
				Severity: sev,
				Message:  v.Message,
			})
		}
		batch = append(batch, pf)
	}
	return emit(batch)
}

// WriteJSON writes coll in the native report format. It is the inverse of the
// json reader and is used to convert other formats.
func WriteJSON(w io.Writer, tool string, coll violation.Collection) error {
	rep := jsonReport{Tool: tool, Files: make([]jsonFile, 0, len(coll))}
	for _, p := range coll.Paths() {
		jf := jsonFile{Path: p}
		for _, r := range coll[p].Records {
			jf.Violations = append(jf.Violations, jsonViolation{
				Line:     r.Line,
				Column:   r.Column,
				Rule:     r.RuleID,
				Severity: string(r.Severity),
				Message:  r.Message,
			})
		}
		rep.Files = append(rep.Files, jf)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
