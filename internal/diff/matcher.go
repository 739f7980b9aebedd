package diff

import (
	"container/heap"
	"slices"
	"sort"
	"strings"

	"github.com/dshills/patchdiff/internal/violation"
)

// MatchOptions tunes the nearest-line pass.
type MatchOptions struct {
	// MaxLineDistance bounds how far apart two records of the same rule may
	// be and still be paired. Zero means unbounded.
	MaxLineDistance int `json:"maxLineDistance"`
}

// Match classifies the records of one file. Records are only paired with
// records of the same rule: first on identical line and column, then greedily
// by smallest line distance. Whatever is left over is removed (base) or added
// (patch).
func Match(base, patch violation.FileSet, opts MatchOptions) []Entry {
	baseByRule := groupByRule(base.Records)
	patchByRule := groupByRule(patch.Records)

	rules := make([]string, 0, len(baseByRule)+len(patchByRule))
	for id := range baseByRule {
		rules = append(rules, id)
	}
	for id := range patchByRule {
		if _, ok := baseByRule[id]; !ok {
			rules = append(rules, id)
		}
	}
	sort.Strings(rules)

	entries := make([]Entry, 0, base.Len()+patch.Len())
	for _, id := range rules {
		entries = append(entries, matchRule(baseByRule[id], patchByRule[id], opts)...)
	}
	slices.SortStableFunc(entries, compareEntries)
	return entries
}

func groupByRule(records []violation.Record) map[string][]violation.Record {
	m := make(map[string][]violation.Record)
	for _, r := range records {
		m[r.RuleID] = append(m[r.RuleID], r)
	}
	for _, rs := range m {
		slices.SortStableFunc(rs, violation.Compare)
	}
	return m
}

type position struct {
	line, column int
}

// candidate is a possible base/patch pairing for the nearest-line pass.
type candidate struct {
	dist        int
	base, patch int
}

// candidateHeap is a min-heap of candidates in pairing order: line distance,
// patch line, base line, patch column, base column, then index.
type candidateHeap struct {
	cands       []candidate
	base, patch []violation.Record
}

func (h *candidateHeap) Len() int { return len(h.cands) }

func (h *candidateHeap) Less(x, y int) bool {
	a, b := h.cands[x], h.cands[y]
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	pa, pb := h.patch[a.patch], h.patch[b.patch]
	if pa.Line != pb.Line {
		return pa.Line < pb.Line
	}
	ba, bb := h.base[a.base], h.base[b.base]
	if ba.Line != bb.Line {
		return ba.Line < bb.Line
	}
	if pa.Column != pb.Column {
		return pa.Column < pb.Column
	}
	if ba.Column != bb.Column {
		return ba.Column < bb.Column
	}
	if a.patch != b.patch {
		return a.patch < b.patch
	}
	return a.base < b.base
}

func (h *candidateHeap) Swap(x, y int) { h.cands[x], h.cands[y] = h.cands[y], h.cands[x] }

func (h *candidateHeap) Push(v any) { h.cands = append(h.cands, v.(candidate)) }

func (h *candidateHeap) Pop() any {
	n := len(h.cands) - 1
	c := h.cands[n]
	h.cands = h.cands[:n]
	return c
}

// freePatches finds unused patch records of one rule by line. The records
// are sorted by position; used slots are skipped through path-compressed
// links in both directions.
type freePatches struct {
	recs []violation.Record
	next []int // next[j] leads to the smallest unused index >= j, len(recs) if none
	prev []int // prev[j+1] leads to the largest unused index <= j, plus one; 0 if none
}

func newFreePatches(recs []violation.Record) *freePatches {
	f := &freePatches{
		recs: recs,
		next: make([]int, len(recs)+1),
		prev: make([]int, len(recs)+1),
	}
	for i := range f.next {
		f.next[i] = i
		f.prev[i] = i
	}
	return f
}

func (f *freePatches) use(j int) {
	f.next[j] = j + 1
	f.prev[j+1] = j
}

func find(links []int, i int) int {
	root := i
	for links[root] != root {
		root = links[root]
	}
	for i != root {
		i, links[i] = links[i], root
	}
	return root
}

// firstAtOrAfter returns the index of the first record on line or below it.
func (f *freePatches) firstAtOrAfter(line int) int {
	return sort.Search(len(f.recs), func(i int) bool { return f.recs[i].Line >= line })
}

// nearest returns the unused record a base record on line prefers: the
// closest line, the lower line on a tie, the first record on that line.
func (f *freePatches) nearest(line int) (int, bool) {
	k := f.firstAtOrAfter(line)
	right := find(f.next, k)
	left := find(f.prev, k) - 1
	if left >= 0 {
		left = find(f.next, f.firstAtOrAfter(f.recs[left].Line))
	}
	switch {
	case left < 0 && right == len(f.recs):
		return 0, false
	case left < 0:
		return right, true
	case right == len(f.recs):
		return left, true
	case line-f.recs[left].Line <= f.recs[right].Line-line:
		return left, true
	default:
		return right, true
	}
}

func matchRule(base, patch []violation.Record, opts MatchOptions) []Entry {
	usedBase := make([]bool, len(base))
	usedPatch := make([]bool, len(patch))
	free := newFreePatches(patch)
	var entries []Entry

	pair := func(i, j int) {
		usedBase[i], usedPatch[j] = true, true
		free.use(j)
		b, p := base[i], patch[j]
		entries = append(entries, Entry{Status: StatusUnchanged, Base: &b, Patch: &p})
	}

	// Exact positions first. Duplicates at one position pair up in order.
	byPos := make(map[position][]int)
	for j, p := range patch {
		k := position{p.Line, p.Column}
		byPos[k] = append(byPos[k], j)
	}
	for i, b := range base {
		k := position{b.Line, b.Column}
		if q := byPos[k]; len(q) > 0 {
			pair(i, q[0])
			byPos[k] = q[1:]
		}
	}

	// Each unpaired base record keeps its preferred unused patch record on
	// the heap. A popped candidate whose patch record was taken in the
	// meantime is replaced by the next preference of the same base record.
	h := &candidateHeap{base: base, patch: patch}
	offer := func(i int) {
		j, ok := free.nearest(base[i].Line)
		if !ok {
			return
		}
		d := abs(base[i].Line - patch[j].Line)
		if opts.MaxLineDistance > 0 && d > opts.MaxLineDistance {
			return
		}
		heap.Push(h, candidate{dist: d, base: i, patch: j})
	}
	for i := range base {
		if !usedBase[i] {
			offer(i)
		}
	}
	for h.Len() > 0 {
		c := heap.Pop(h).(candidate)
		if usedPatch[c.patch] {
			offer(c.base)
			continue
		}
		pair(c.base, c.patch)
	}

	for i := range base {
		if !usedBase[i] {
			b := base[i]
			entries = append(entries, Entry{Status: StatusRemoved, Base: &b})
		}
	}
	for j := range patch {
		if !usedPatch[j] {
			p := patch[j]
			entries = append(entries, Entry{Status: StatusAdded, Patch: &p})
		}
	}
	return entries
}

// compareEntries orders entries top to bottom by the position they are shown
// at: the patch position when there is one, the base position otherwise.
func compareEntries(a, b Entry) int {
	ra, rb := a.Record(), b.Record()
	if ra.Line != rb.Line {
		return cmpInt(ra.Line, rb.Line)
	}
	if ra.Column != rb.Column {
		return cmpInt(ra.Column, rb.Column)
	}
	if c := strings.Compare(ra.RuleID, rb.RuleID); c != 0 {
		return c
	}
	if c := cmpInt(statusOrder(a.Status), statusOrder(b.Status)); c != 0 {
		return c
	}
	if c := strings.Compare(ra.Message, rb.Message); c != 0 {
		return c
	}
	if a.Base != nil && b.Base != nil {
		return violation.Compare(*a.Base, *b.Base)
	}
	return 0
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

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
