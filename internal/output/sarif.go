package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/dshills/patchdiff/internal/diff"
	"github.com/dshills/patchdiff/internal/sarif"
	"github.com/dshills/patchdiff/internal/violation"
)

// SARIFWriter outputs the patch run as SARIF v2.1.0. Added violations get
// baselineState "new", unchanged ones "unchanged", and removed base
// violations are included as "absent".
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, doc *Document) error {
	log := buildSARIF(doc)
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

func buildSARIF(doc *Document) sarif.Log {
	results := []sarif.Result{}
	ruleIDs := make(map[string]struct{})

	for _, fd := range orderedFiles(doc.Report) {
		for _, e := range fd.Entries {
			rec := e.Record()
			ruleIDs[rec.RuleID] = struct{}{}
			results = append(results, sarif.Result{
				RuleID:        rec.RuleID,
				Level:         sarif.Level(string(rec.Severity)),
				Message:       sarif.Message{Text: rec.Message},
				Locations:     []sarif.Location{sarifLocation(rec)},
				BaselineState: baselineState(e.Status),
			})
		}
	}

	ids := make([]string, 0, len(ruleIDs))
	for id := range ruleIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rules := make([]sarif.Rule, 0, len(ids))
	for _, id := range ids {
		rules = append(rules, sarif.Rule{ID: id, Name: shortRule(id)})
	}

	run := sarif.Run{
		Tool: sarif.Tool{
			Driver: sarif.Driver{
				Name:           doc.Tool,
				Version:        doc.Version,
				InformationURI: "https://github.com/dshills/patchdiff",
				Rules:          rules,
			},
		},
		Results: results,
	}
	if doc.RunID != "" {
		run.AutomationDetails = &sarif.AutomationDetails{ID: doc.Tool + "/" + doc.RunID}
	}
	return sarif.Log{
		Version: sarif.Version,
		Schema:  sarif.Schema,
		Runs:    []sarif.Run{run},
	}
}

func sarifLocation(rec violation.Record) sarif.Location {
	loc := sarif.Location{
		PhysicalLocation: sarif.PhysicalLocation{
			ArtifactLocation: sarif.ArtifactLocation{URI: rec.FilePath},
		},
	}
	if rec.Line > 0 {
		loc.PhysicalLocation.Region = &sarif.Region{
			StartLine:   rec.Line,
			StartColumn: rec.Column,
		}
	}
	return loc
}

func baselineState(s diff.Status) string {
	switch s {
	case diff.StatusAdded:
		return sarif.BaselineNew
	case diff.StatusRemoved:
		return sarif.BaselineAbsent
	default:
		return sarif.BaselineUnchanged
	}
}
