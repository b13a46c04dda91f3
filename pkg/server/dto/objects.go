package dto

import (
	"github.com/tracelab/entiq/pkg/hydrate"
	"github.com/tracelab/entiq/pkg/types"
)

// Object is one hydrated entity on the wire. Relations reference other
// objects by index into the enclosing arena, so shared instances and cycles
// serialize without duplication.
type Object struct {
	Kind       string            `json:"kind"`
	ID         string            `json:"id"`
	Attributes map[string]string `json:"attributes"`
	// Properties is null when the property bag was not fetched, empty when
	// fetched and empty.
	Properties map[string]string `json:"properties,omitempty"`
	Score      *float64          `json:"score,omitempty"`
	Matches    []MatchDetail     `json:"matches,omitempty"`
	Relations  map[string][]int  `json:"relations,omitempty"`
}

// MatchDetail is one full-text hit.
type MatchDetail struct {
	Field   string  `json:"field"`
	Snippet string  `json:"snippet"`
	Weight  float64 `json:"weight"`
}

// SearchResponse is one result page: root indexes into the object arena plus
// the full-set total.
type SearchResponse struct {
	TotalCount int      `json:"totalCount"`
	Roots      []int    `json:"roots"`
	Objects    []Object `json:"objects"`
}

// GetResponse maps requested references to arena indexes. Unresolvable
// references are absent.
type GetResponse struct {
	Found   map[string]int `json:"found"`
	Objects []Object       `json:"objects"`
}

// RenderObjects flattens hydrated objects into an arena, preserving
// structural sharing. Nil roots render as index -1.
func RenderObjects(roots []*hydrate.Object) ([]int, []Object) {
	r := &renderer{index: map[*hydrate.Object]int{}}
	rootIndexes := make([]int, len(roots))
	for i, obj := range roots {
		rootIndexes[i] = r.render(obj)
	}
	return rootIndexes, r.arena
}

type renderer struct {
	index map[*hydrate.Object]int
	arena []Object
}

func (r *renderer) render(obj *hydrate.Object) int {
	if obj == nil {
		return -1
	}
	if at, ok := r.index[obj]; ok {
		return at
	}

	at := len(r.arena)
	r.index[obj] = at
	r.arena = append(r.arena, Object{})

	dto := Object{
		Kind:       string(obj.Ref().Kind),
		ID:         obj.Ref().ID,
		Attributes: renderValues(obj.Attributes()),
	}
	if props, err := obj.Properties(); err == nil {
		dto.Properties = renderValues(props)
		if dto.Properties == nil {
			dto.Properties = map[string]string{}
		}
	}
	if score, matches, err := obj.Match(); err == nil {
		dto.Score = &score
		for _, m := range matches {
			dto.Matches = append(dto.Matches, MatchDetail{Field: m.Field, Snippet: m.Snippet, Weight: m.Weight})
		}
	}
	for _, name := range obj.FetchedRelations() {
		related, err := obj.Relation(name)
		if err != nil {
			continue
		}
		indexes := make([]int, 0, len(related))
		for _, child := range related {
			indexes = append(indexes, r.render(child))
		}
		if dto.Relations == nil {
			dto.Relations = map[string][]int{}
		}
		dto.Relations[name] = indexes
	}

	r.arena[at] = dto
	return at
}

func renderValues(values map[string]types.Value) map[string]string {
	if values == nil {
		return nil
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v.Text
	}
	return out
}
