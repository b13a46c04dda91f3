package evaluate

import (
	"github.com/tracelab/entiq/pkg/types"
)

// entry collects the score contributions of one candidate. Duplicate field
// hits are collapsed by (field, snippet) so repeating a predicate cannot
// inflate the score.
type entry struct {
	ref     types.EntityRef
	score   float64
	details []types.MatchDetail
	seen    map[string]bool
}

func (en *entry) add(d types.MatchDetail) {
	key := d.Field + "\x00" + d.Snippet
	if en.seen[key] {
		return
	}
	en.seen[key] = true
	en.details = append(en.details, d)
	en.score += d.Weight
}

// accumulator is a candidate set with per-candidate scores, preserving first
// insertion order for determinism.
type accumulator struct {
	entries map[types.EntityRef]*entry
	order   []types.EntityRef
}

func newAccumulator() *accumulator {
	return &accumulator{entries: map[types.EntityRef]*entry{}}
}

func fromRefs(refs []types.EntityRef) *accumulator {
	acc := newAccumulator()
	for _, r := range refs {
		acc.get(r)
	}
	return acc
}

func (a *accumulator) get(ref types.EntityRef) *entry {
	if en, ok := a.entries[ref]; ok {
		return en
	}
	en := &entry{ref: ref, seen: map[string]bool{}}
	a.entries[ref] = en
	a.order = append(a.order, ref)
	return en
}

func (a *accumulator) addMatch(m types.RankedMatch) {
	en := a.get(m.Ref)
	if len(m.Matches) == 0 && m.Score > 0 {
		en.score += m.Score
		return
	}
	for _, d := range m.Matches {
		en.add(d)
	}
}

// union merges other into a, summing distinct contributions per candidate.
func (a *accumulator) union(other *accumulator) {
	for _, ref := range other.order {
		src := other.entries[ref]
		dst := a.get(ref)
		if len(src.details) == 0 {
			continue
		}
		for _, d := range src.details {
			dst.add(d)
		}
	}
}

// intersect keeps only candidates present in both, combining their
// contributions.
func (a *accumulator) intersect(other *accumulator) *accumulator {
	out := newAccumulator()
	for _, ref := range a.order {
		src, ok := other.entries[ref]
		if !ok {
			continue
		}
		dst := out.get(ref)
		for _, d := range a.entries[ref].details {
			dst.add(d)
		}
		for _, d := range src.details {
			dst.add(d)
		}
	}
	return out
}

func (a *accumulator) refs() []types.EntityRef {
	return append([]types.EntityRef(nil), a.order...)
}

func (a *accumulator) ranked() []types.RankedMatch {
	out := make([]types.RankedMatch, 0, len(a.order))
	for _, ref := range a.order {
		en := a.entries[ref]
		out = append(out, types.RankedMatch{Ref: ref, Score: en.score, Matches: en.details})
	}
	return out
}
