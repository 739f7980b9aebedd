package output

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/patchdiff/internal/configdiff"
	"github.com/dshills/patchdiff/internal/diff"
	"github.com/dshills/patchdiff/internal/violation"
)

const (
	ruleLineLength = "com.puppycrawl.tools.checkstyle.checks.sizes.LineLengthCheck"
	ruleMagic      = "com.puppycrawl.tools.checkstyle.checks.coding.MagicNumberCheck"
	ruleNaming     = "com.puppycrawl.tools.checkstyle.checks.naming.LocalVariableNameCheck"
	ruleSecret     = "IllegalTokenText"
	secretValue    = "supersecretvalue"
)

// sampleDocument builds a report with one moved unchanged violation, one
// removed and two added violations, plus a configuration diff.
func sampleDocument(t *testing.T) *Document {
	t.Helper()

	base := violation.NewBuilder()
	require.NoError(t, base.AddAll([]violation.Record{
		{FilePath: "src/Foo.java", Line: 10, Column: 1, RuleID: ruleLineLength, Severity: violation.SeverityError, Message: "Line is longer than 100 characters (found 120)."},
		{FilePath: "src/Foo.java", Line: 11, RuleID: ruleMagic, Severity: violation.SeverityWarning, Message: "'42' is a magic number."},
	}))
	patch := violation.NewBuilder()
	require.NoError(t, patch.AddAll([]violation.Record{
		{FilePath: "src/Foo.java", Line: 12, Column: 1, RuleID: ruleLineLength, Severity: violation.SeverityError, Message: "Line is longer than 100 characters (found 120)."},
		{FilePath: "src/Foo.java", Line: 3, Column: 5, RuleID: ruleNaming, Severity: violation.SeverityWarning, Message: "Name 'x_y' must match pattern."},
		{FilePath: "src/Bar.java", Line: 0, RuleID: ruleSecret, Severity: violation.SeverityError, Message: `Found password = "` + secretValue + `"`},
	}))

	cd := configdiff.Diff(
		configdiff.Tree{"LineLength": {"max": "100"}, "MagicNumber": {}},
		configdiff.Tree{"LineLength": {"max": "120"}, "LocalVariableName": {"format": "^[a-z]+$"}},
	)
	rep, err := diff.Aggregate(context.Background(), base.Build(), patch.Build(), diff.Options{ConfigDiff: cd})
	require.NoError(t, err)

	return &Document{
		Tool:    ToolName,
		Version: "1.2.3",
		RunID:   "11111111-2222-3333-4444-555555555555",
		Inputs: Inputs{
			BaseReport:  "base/checkstyle-result.xml",
			PatchReport: "patch/checkstyle-result.xml",
			BaseConfig:  "base.xml",
			PatchConfig: "patch.xml",
		},
		Report: rep,
	}
}
