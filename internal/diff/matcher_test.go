package diff

import (
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/patchdiff/internal/violation"
)

func rec(line, col int, rule string) violation.Record {
	return violation.Record{
		FilePath: "file.go",
		Line:     line,
		Column:   col,
		RuleID:   rule,
		Severity: violation.SeverityWarning,
		Message:  rule + " violated",
	}
}

func set(records ...violation.Record) violation.FileSet {
	return violation.NewFileSet("file.go", records)
}

func countStatuses(entries []Entry) (added, removed, unchanged int) {
	for _, e := range entries {
		switch e.Status {
		case StatusAdded:
			added++
		case StatusRemoved:
			removed++
		case StatusUnchanged:
			unchanged++
		}
	}
	return
}

func TestMatch_IdenticalRecord(t *testing.T) {
	entries := Match(set(rec(10, 1, "ruleX")), set(rec(10, 1, "ruleX")), MatchOptions{})
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Status != StatusUnchanged {
		t.Errorf("status = %s, want unchanged", entries[0].Status)
	}
	if entries[0].Moved() {
		t.Error("exact match should not be reported as moved")
	}
}

func TestMatch_BaseEmpty(t *testing.T) {
	entries := Match(set(), set(rec(4, 2, "ruleX")), MatchOptions{})
	a, r, u := countStatuses(entries)
	if a != 1 || r != 0 || u != 0 {
		t.Errorf("counts = %d/%d/%d, want 1/0/0", a, r, u)
	}
	if entries[0].Base != nil || entries[0].Patch == nil {
		t.Error("added entry must carry only the patch record")
	}
}

func TestMatch_LineDrift(t *testing.T) {
	entries := Match(set(rec(10, 1, "ruleX")), set(rec(12, 1, "ruleX")), MatchOptions{})
	if len(entries) != 1 || entries[0].Status != StatusUnchanged {
		t.Fatalf("entries = %+v, want one unchanged", entries)
	}
	e := entries[0]
	if e.Base.Line != 10 || e.Patch.Line != 12 {
		t.Errorf("paired lines = %d -> %d, want 10 -> 12", e.Base.Line, e.Patch.Line)
	}
	if !e.Moved() {
		t.Error("drifted match should be reported as moved")
	}
}

func TestMatch_ExactBeatsNearest(t *testing.T) {
	base := set(rec(10, 1, "ruleX"), rec(11, 1, "ruleX"))
	patch := set(rec(10, 1, "ruleX"))
	entries := Match(base, patch, MatchOptions{})

	a, r, u := countStatuses(entries)
	if a != 0 || r != 1 || u != 1 {
		t.Fatalf("counts = %d/%d/%d, want 0/1/1", a, r, u)
	}
	for _, e := range entries {
		switch e.Status {
		case StatusUnchanged:
			if e.Base.Line != 10 {
				t.Errorf("unchanged base line = %d, want 10", e.Base.Line)
			}
		case StatusRemoved:
			if e.Base.Line != 11 {
				t.Errorf("removed base line = %d, want 11", e.Base.Line)
			}
		}
	}
}

func TestMatch_NeverPairsAcrossRules(t *testing.T) {
	entries := Match(set(rec(10, 1, "ruleA")), set(rec(10, 1, "ruleB")), MatchOptions{})
	a, r, u := countStatuses(entries)
	if a != 1 || r != 1 || u != 0 {
		t.Errorf("counts = %d/%d/%d, want 1/1/0", a, r, u)
	}
}

func TestMatch_NearestTieBreak(t *testing.T) {
	// Base line 10 is equidistant from patch lines 8 and 12; the smaller
	// patch line wins.
	entries := Match(set(rec(10, 1, "R")), set(rec(8, 1, "R"), rec(12, 1, "R")), MatchOptions{})
	var paired, added int
	for _, e := range entries {
		switch e.Status {
		case StatusUnchanged:
			paired = e.Patch.Line
		case StatusAdded:
			added = e.Patch.Line
		}
	}
	if paired != 8 || added != 12 {
		t.Errorf("paired patch line %d, added %d; want 8, 12", paired, added)
	}
}

func TestMatch_GreedyNearest(t *testing.T) {
	// Distances: (20,21)=1 is taken first, leaving base 10 for patch 30.
	base := set(rec(10, 1, "R"), rec(20, 1, "R"))
	patch := set(rec(21, 1, "R"), rec(30, 1, "R"))
	entries := Match(base, patch, MatchOptions{})
	got := map[int]int{}
	for _, e := range entries {
		if e.Status == StatusUnchanged {
			got[e.Base.Line] = e.Patch.Line
		}
	}
	if got[20] != 21 || got[10] != 30 {
		t.Errorf("pairs = %v, want 20->21 and 10->30", got)
	}
}

func TestMatch_MaxLineDistance(t *testing.T) {
	base := set(rec(10, 1, "R"))
	patch := set(rec(40, 1, "R"))

	entries := Match(base, patch, MatchOptions{MaxLineDistance: 5})
	a, r, u := countStatuses(entries)
	if a != 1 || r != 1 || u != 0 {
		t.Errorf("bounded counts = %d/%d/%d, want 1/1/0", a, r, u)
	}

	entries = Match(base, patch, MatchOptions{})
	if _, _, u := countStatuses(entries); u != 1 {
		t.Errorf("unbounded unchanged = %d, want 1", u)
	}
}

func TestMatch_DuplicatePositions(t *testing.T) {
	base := set(rec(5, 3, "R"), rec(5, 3, "R"))
	patch := set(rec(5, 3, "R"))
	a, r, u := countStatuses(Match(base, patch, MatchOptions{}))
	if a != 0 || r != 1 || u != 1 {
		t.Errorf("counts = %d/%d/%d, want 0/1/1", a, r, u)
	}
}

func TestMatch_OutputOrder(t *testing.T) {
	base := set(rec(50, 1, "A"), rec(3, 1, "B"))
	patch := set(rec(20, 1, "C"), rec(52, 1, "A"))
	entries := Match(base, patch, MatchOptions{})

	var lines []int
	for _, e := range entries {
		lines = append(lines, e.Record().Line)
	}
	want := []int{3, 20, 52}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("lines = %v, want %v", lines, want)
			break
		}
	}
}

func TestMatch_IgnoresInputOrder(t *testing.T) {
	a := violation.FileSet{Path: "file.go", Records: []violation.Record{rec(9, 1, "R"), rec(2, 1, "R")}}
	b := set(rec(2, 1, "R"), rec(9, 1, "R"))
	e1 := Match(a, set(rec(4, 1, "R")), MatchOptions{})
	e2 := Match(b, set(rec(4, 1, "R")), MatchOptions{})
	if len(e1) != len(e2) {
		t.Fatalf("len %d vs %d", len(e1), len(e2))
	}
	for i := range e1 {
		if e1[i].Status != e2[i].Status || e1[i].Record() != e2[i].Record() {
			t.Errorf("entry %d differs: %+v vs %+v", i, e1[i], e2[i])
		}
	}
}

// pairAllQuadratic is the straightforward nearest-line pass: every unused
// pair sorted once and consumed greedily.
func pairAllQuadratic(base, patch []violation.Record, maxDist int) [][2]int {
	h := &candidateHeap{base: base, patch: patch}
	for i := range base {
		for j := range patch {
			d := abs(base[i].Line - patch[j].Line)
			if maxDist > 0 && d > maxDist {
				continue
			}
			h.cands = append(h.cands, candidate{dist: d, base: i, patch: j})
		}
	}
	sort.Slice(h.cands, h.Less)
	usedBase := make([]bool, len(base))
	usedPatch := make([]bool, len(patch))
	var pairs [][2]int
	for _, c := range h.cands {
		if usedBase[c.base] || usedPatch[c.patch] {
			continue
		}
		usedBase[c.base], usedPatch[c.patch] = true, true
		pairs = append(pairs, [2]int{c.base, c.patch})
	}
	return pairs
}

func TestMatch_NearestAgreesWithExhaustivePairing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		var base, patch []violation.Record
		for i := rng.Intn(12); i > 0; i-- {
			base = append(base, rec(rng.Intn(25), rng.Intn(3)+1, "R"))
		}
		for i := rng.Intn(12); i > 0; i-- {
			patch = append(patch, rec(rng.Intn(25), rng.Intn(3)+1, "R"))
		}
		maxDist := rng.Intn(4) * 3
		bs, ps := set(base...), set(patch...)

		// Exact matches never meet the nearest pass, so compare on
		// distinct positions only.
		free := removeExact(bs.Records, ps.Records)
		want := pairAllQuadratic(free[0], free[1], maxDist)

		got := Match(set(free[0]...), set(free[1]...), MatchOptions{MaxLineDistance: maxDist})
		var gotPairs []string
		for _, e := range got {
			if e.Status == StatusUnchanged {
				gotPairs = append(gotPairs, pairKey(*e.Base, *e.Patch))
			}
		}
		var wantPairs []string
		for _, p := range want {
			wantPairs = append(wantPairs, pairKey(free[0][p[0]], free[1][p[1]]))
		}
		sort.Strings(gotPairs)
		sort.Strings(wantPairs)
		if diff := cmp.Diff(wantPairs, gotPairs); diff != "" {
			t.Fatalf("iteration %d (max %d) pairs differ (-want +got):\n%s", iter, maxDist, diff)
		}
	}
}

// removeExact drops records sharing a position with a record on the other
// side so that only the nearest pass decides the remaining pairs.
func removeExact(base, patch []violation.Record) [2][]violation.Record {
	seen := make(map[position]bool)
	for _, r := range base {
		seen[position{r.Line, r.Column}] = true
	}
	inPatch := make(map[position]bool)
	var p []violation.Record
	for _, r := range patch {
		k := position{r.Line, r.Column}
		inPatch[k] = true
		if !seen[k] {
			p = append(p, r)
		}
	}
	var b []violation.Record
	for _, r := range base {
		if !inPatch[position{r.Line, r.Column}] {
			b = append(b, r)
		}
	}
	return [2][]violation.Record{set(b...).Records, set(p...).Records}
}

func pairKey(b, p violation.Record) string {
	return fmt.Sprintf("%d:%d>%d:%d", b.Line, b.Column, p.Line, p.Column)
}

func TestMatch_LargeShiftedFile(t *testing.T) {
	const n = 5000
	base := make([]violation.Record, n)
	patch := make([]violation.Record, n)
	for i := 0; i < n; i++ {
		base[i] = rec(2*i, 1, "R")
		patch[i] = rec(2*i+1, 1, "R")
	}
	bs, ps := set(base...), set(patch...)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()
	entries := Match(bs, ps, MatchOptions{})
	elapsed := time.Since(start)
	runtime.ReadMemStats(&after)

	a, r, u := countStatuses(entries)
	if a != 0 || r != 0 || u != n {
		t.Errorf("counts = %d/%d/%d, want 0/0/%d", a, r, u, n)
	}
	for _, e := range entries {
		if e.Patch.Line != e.Base.Line+1 {
			t.Fatalf("base line %d paired with patch line %d", e.Base.Line, e.Patch.Line)
		}
	}
	if elapsed > 5*time.Second {
		t.Errorf("matching took %s", elapsed)
	}
	if alloc := after.TotalAlloc - before.TotalAlloc; alloc > 64<<20 {
		t.Errorf("matching allocated %d bytes", alloc)
	}
}
