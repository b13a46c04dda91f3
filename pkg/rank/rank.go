package rank

import (
	"sort"
	"strings"

	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/types"
)

// Key selects what a sort field compares.
type Key string

const (
	// KeyScore compares relevance scores.
	KeyScore Key = "score"
	// KeyKind compares kinds in the fixed kind order.
	KeyKind Key = "kind"
	// KeyPermID compares permanent ids.
	KeyPermID Key = "permId"
	// KeyIdentifier compares identifiers.
	KeyIdentifier Key = "identifier"
	// KeyAttribute compares a named attribute.
	KeyAttribute Key = "attribute"
)

// Field is one sort key with its own direction. Ascending is the default.
type Field struct {
	Key       Key
	Attribute string
	Desc      bool
}

// Spec is the caller's ordered sort key sequence.
type Spec []Field

// ValueSource resolves an attribute of a candidate for sorting, e.g. its
// identifier or perm id. A nil source falls back to the reference id.
type ValueSource func(ref types.EntityRef, attribute string) string

// Compose orders the merged match collection by the spec and windows it,
// returning the page of references and the total count of the full set. The
// total is independent of the window. Candidates equal under every
// requested key fall back to ascending identifier, so repeated identical
// calls produce identical order.
func Compose(matches []types.RankedMatch, spec Spec, page *fetch.Page, values ValueSource) ([]types.EntityRef, int) {
	total := len(matches)
	ordered := append([]types.RankedMatch(nil), matches...)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		for _, f := range spec {
			c := compareField(f, a, b, values)
			if c == 0 {
				continue
			}
			if f.Desc {
				return c > 0
			}
			return c < 0
		}
		return identifierOf(a.Ref, values) < identifierOf(b.Ref, values)
	})

	start, end := page.Apply(total)
	refs := make([]types.EntityRef, 0, end-start)
	for _, m := range ordered[start:end] {
		refs = append(refs, m.Ref)
	}
	return refs, total
}

// ComposeByKind merges per-kind collections before composing. A candidate
// appearing in several collections keeps a single entry with its
// contributions combined.
func ComposeByKind(byKind map[types.Kind][]types.RankedMatch, spec Spec, page *fetch.Page, values ValueSource) ([]types.EntityRef, int) {
	index := map[types.EntityRef]int{}
	var merged []types.RankedMatch

	kinds := make([]types.Kind, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		for _, m := range byKind[kind] {
			if at, ok := index[m.Ref]; ok {
				merged[at].Score += m.Score
				merged[at].Matches = append(merged[at].Matches, m.Matches...)
				continue
			}
			index[m.Ref] = len(merged)
			merged = append(merged, m)
		}
	}
	return Compose(merged, spec, page, values)
}

func compareField(f Field, a, b types.RankedMatch, values ValueSource) int {
	switch f.Key {
	case KeyScore:
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		}
		return 0
	case KeyKind:
		return types.KindRank(a.Ref.Kind) - types.KindRank(b.Ref.Kind)
	case KeyPermID:
		return strings.Compare(attributeOf(a.Ref, "permId", values), attributeOf(b.Ref, "permId", values))
	case KeyIdentifier:
		return strings.Compare(identifierOf(a.Ref, values), identifierOf(b.Ref, values))
	case KeyAttribute:
		return strings.Compare(attributeOf(a.Ref, f.Attribute, values), attributeOf(b.Ref, f.Attribute, values))
	}
	return 0
}

func attributeOf(ref types.EntityRef, attribute string, values ValueSource) string {
	if values == nil {
		return ref.ID
	}
	if v := values(ref, attribute); v != "" {
		return v
	}
	return ref.ID
}

func identifierOf(ref types.EntityRef, values ValueSource) string {
	return attributeOf(ref, "identifier", values)
}
