package configdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_SeverityChanged(t *testing.T) {
	base := Tree{"ruleY": {"severity": "error"}}
	patch := Tree{"ruleY": {"severity": "warn"}}

	res := Diff(base, patch)
	require.Len(t, res.Rules, 1)
	rd := res.Rules[0]
	assert.Equal(t, StatusChanged, rd.Status)
	assert.Equal(t, []string{"severity"}, rd.Changed)
}

func TestDiff_AllStatuses(t *testing.T) {
	base := Tree{
		"Removed":   {"a": "1"},
		"Same":      {"a": "1", "b": "2"},
		"MissingIn": {"a": "1", "b": "2"},
	}
	patch := Tree{
		"Added":     {"x": "y"},
		"Same":      {"b": "2", "a": "1"},
		"MissingIn": {"a": "1", "c": "3"},
	}

	res := Diff(base, patch)
	ids := make([]string, 0, len(res.Rules))
	for _, rd := range res.Rules {
		ids = append(ids, rd.RuleID)
	}
	assert.Equal(t, []string{"Added", "MissingIn", "Removed", "Same"}, ids)

	rd, ok := res.Rule("MissingIn")
	require.True(t, ok)
	assert.Equal(t, StatusChanged, rd.Status)
	assert.Equal(t, []string{"b", "c"}, rd.Changed)

	rd, ok = res.Rule("Same")
	require.True(t, ok)
	assert.Equal(t, StatusUnchanged, rd.Status)
	assert.Empty(t, rd.Changed)

	assert.Equal(t, Counts{Added: 1, Removed: 1, Changed: 1, Unchanged: 1}, res.Counts())
	assert.True(t, res.HasChanges())
}

func TestDiff_NilSides(t *testing.T) {
	res := Diff(nil, nil)
	assert.Empty(t, res.Rules)
	assert.False(t, res.HasChanges())

	res = Diff(nil, Tree{"A": nil})
	require.Len(t, res.Rules, 1)
	assert.Equal(t, StatusAdded, res.Rules[0].Status)
}

func TestDiff_DoesNotAliasInput(t *testing.T) {
	base := Tree{"R": {"k": "v"}}
	res := Diff(base, Tree{"R": {"k": "v"}})
	base["R"]["k"] = "mutated"
	assert.Equal(t, "v", res.Rules[0].Base["k"])
}

func TestResult_RuleMissing(t *testing.T) {
	var r *Result
	_, ok := r.Rule("x")
	assert.False(t, ok)
	assert.Equal(t, Counts{}, r.Counts())
}
