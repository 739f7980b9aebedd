package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/patchdiff/internal/sarif"
	"github.com/dshills/patchdiff/internal/violation"
)

// parseSARIF reads every result of every run. Results without a physical
// location cannot be placed in a file and are rejected. Results whose
// baseline state is absent describe findings that no longer exist and are
// skipped.
func parseSARIF(r io.Reader, norm pathNormalizer, emit batchFunc) error {
	var log sarif.Log
	if err := json.NewDecoder(r).Decode(&log); err != nil {
		return fmt.Errorf("decoding SARIF: %w", err)
	}
	if len(log.Runs) == 0 && log.Version == "" {
		return fmt.Errorf("%w: not a SARIF log", violation.ErrMalformedInput)
	}

	byPath := make(map[string]*parsedFile)
	var order []string
	for ri, run := range log.Runs {
		for i, res := range run.Results {
			if res.BaselineState == sarif.BaselineAbsent {
				continue
			}
			if len(res.Locations) == 0 {
				return fmt.Errorf("%w: run %d result %d has no location", violation.ErrMalformedInput, ri, i)
			}
			loc := res.Locations[0].PhysicalLocation
			path := norm.normalize(loc.ArtifactLocation.URI)
			var line, col int
			if loc.Region != nil {
				line, col = loc.Region.StartLine, loc.Region.StartColumn
			}
			ruleID, rule := resolveRule(run, res)
			level := res.Level
			if level == "" {
				level = "warning"
				if rule != nil && rule.DefaultConfig != nil && rule.DefaultConfig.Level != "" {
					level = rule.DefaultConfig.Level
				}
			}
			sev, err := violation.ParseSeverity(level)
			if err != nil {
				return fmt.Errorf("run %d result %d: %w", ri, i, err)
			}
			pf, ok := byPath[path]
			if !ok {
				pf = &parsedFile{path: path}
				byPath[path] = pf
				order = append(order, path)
			}
			pf.records = append(pf.records, violation.Record{
				FilePath: path,
				Line:     line,
				Column:   col,
				RuleID:   ruleID,
				Severity: sev,
				Message:  res.Message.Text,
			})
		}
	}

	batch := make(fileBatch, 0, len(order))
	for _, p := range order {
		batch = append(batch, *byPath[p])
	}
	return emit(batch)
}

// resolveRule returns the rule id of res and its descriptor, if the run
// declares one. The id comes from ruleId, then rule.id, then the descriptor
// the rule index points at. A result without a level takes the descriptor's
// default level, or "warning" as SARIF prescribes.
func resolveRule(run sarif.Run, res sarif.Result) (string, *sarif.Rule) {
	rules := run.Tool.Driver.Rules
	index := res.RuleIndex
	if index == nil && res.Rule != nil {
		index = res.Rule.Index
	}
	var desc *sarif.Rule
	if index != nil && *index >= 0 && *index < len(rules) {
		desc = &rules[*index]
	}

	id := res.RuleID
	if id == "" && res.Rule != nil {
		id = res.Rule.ID
	}
	if id == "" && desc != nil {
		id = desc.ID
	}
	if desc == nil && id != "" {
		for i := range rules {
			if rules[i].ID == id {
				desc = &rules[i]
				break
			}
		}
	}
	return id, desc
}
