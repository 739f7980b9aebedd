package configdiff

import (
	"maps"
	"sort"
)

// Status classifies a rule configuration across the two runs.
type Status string

const (
	StatusAdded     Status = "added"
	StatusRemoved   Status = "removed"
	StatusChanged   Status = "changed"
	StatusUnchanged Status = "unchanged"
)

// Attributes maps an attribute name to its value for one rule.
type Attributes map[string]string

// Tree maps a rule id to its attributes.
type Tree map[string]Attributes

// RuleDiff is the comparison result for one rule id.
type RuleDiff struct {
	RuleID  string     `json:"rule"`
	Status  Status     `json:"status"`
	Changed []string   `json:"changed,omitempty"`
	Base    Attributes `json:"base,omitempty"`
	Patch   Attributes `json:"patch,omitempty"`
}

// Counts holds per-status totals.
type Counts struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`
}

// Result is the full configuration diff, sorted by rule id.
type Result struct {
	Rules []RuleDiff `json:"rules"`
}

// Diff compares two rule configuration trees. Either side may be nil.
func Diff(base, patch Tree) *Result {
	ids := make(map[string]struct{}, len(base)+len(patch))
	for id := range base {
		ids[id] = struct{}{}
	}
	for id := range patch {
		ids[id] = struct{}{}
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	res := &Result{Rules: make([]RuleDiff, 0, len(sorted))}
	for _, id := range sorted {
		b, inBase := base[id]
		p, inPatch := patch[id]
		rd := RuleDiff{RuleID: id, Base: maps.Clone(b), Patch: maps.Clone(p)}
		switch {
		case !inBase:
			rd.Status = StatusAdded
		case !inPatch:
			rd.Status = StatusRemoved
		default:
			rd.Changed = changedAttributes(b, p)
			if len(rd.Changed) > 0 {
				rd.Status = StatusChanged
			} else {
				rd.Status = StatusUnchanged
			}
		}
		res.Rules = append(res.Rules, rd)
	}
	return res
}

// changedAttributes returns the sorted names whose values differ, counting an
// attribute present on only one side as a difference.
func changedAttributes(a, b Attributes) []string {
	var out []string
	for k, av := range a {
		if bv, ok := b[k]; !ok || bv != av {
			out = append(out, k)
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Counts returns how many rules fall into each status.
func (r *Result) Counts() Counts {
	var c Counts
	if r == nil {
		return c
	}
	for _, rd := range r.Rules {
		switch rd.Status {
		case StatusAdded:
			c.Added++
		case StatusRemoved:
			c.Removed++
		case StatusChanged:
			c.Changed++
		case StatusUnchanged:
			c.Unchanged++
		}
	}
	return c
}

// Rule looks up the diff for id.
func (r *Result) Rule(id string) (RuleDiff, bool) {
	if r == nil {
		return RuleDiff{}, false
	}
	i := sort.Search(len(r.Rules), func(i int) bool { return r.Rules[i].RuleID >= id })
	if i < len(r.Rules) && r.Rules[i].RuleID == id {
		return r.Rules[i], true
	}
	return RuleDiff{}, false
}

// HasChanges reports whether any rule was added, removed or changed.
func (r *Result) HasChanges() bool {
	c := r.Counts()
	return c.Added+c.Removed+c.Changed > 0
}
