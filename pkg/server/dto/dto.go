// Package dto defines the JSON wire shapes of the HTTP API and their
// conversions to and from the engine's native types. Fetch graphs are
// expressed as an id-keyed table so recursive shapes survive serialization.
package dto

import (
	"fmt"

	"github.com/tracelab/entiq/pkg/criteria"
	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/types"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Criteria is the wire form of a criteria tree.
type Criteria struct {
	Kind     string   `json:"kind"`
	Operator string   `json:"operator,omitempty"` // AND (default) or OR
	Clauses  []Clause `json:"clauses,omitempty"`
}

// Clause is one node of a criteria tree: exactly one of Predicate,
// Relation, or Composite is set.
type Clause struct {
	Predicate *Predicate `json:"predicate,omitempty"`
	Relation  *Relation  `json:"relation,omitempty"`
	Composite *Composite `json:"composite,omitempty"`
}

// Predicate is a leaf comparison.
type Predicate struct {
	Target   string `json:"target"` // attribute, property, anyProperty, anyField, text
	Name     string `json:"name,omitempty"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
	Family   string `json:"family,omitempty"` // string (default), number, date, timestamp, boolean
	TimeZone *int   `json:"timeZone,omitempty"`
}

// Relation nests criteria for a related kind.
type Relation struct {
	Name     string    `json:"name"`
	Kind     string    `json:"kind"`
	Negated  bool      `json:"negated,omitempty"`
	Criteria *Criteria `json:"criteria,omitempty"`
}

// Composite groups clauses under an operator.
type Composite struct {
	Operator string   `json:"operator,omitempty"`
	Clauses  []Clause `json:"clauses,omitempty"`
}

// ToCriteria converts the wire form to a criteria tree.
func (c *Criteria) ToCriteria() (*criteria.Criteria, error) {
	if c == nil || c.Kind == "" {
		return nil, fmt.Errorf("criteria kind is required")
	}
	crit := criteria.For(types.Kind(c.Kind))
	if c.Operator == string(criteria.Or) {
		crit.WithOrOperator()
	}
	for _, clause := range c.Clauses {
		node, err := clause.toNode()
		if err != nil {
			return nil, err
		}
		crit.Add(node)
	}
	return crit, nil
}

func (c Clause) toNode() (criteria.Node, error) {
	switch {
	case c.Predicate != nil:
		return c.Predicate.toNode()
	case c.Relation != nil:
		return c.Relation.toNode()
	case c.Composite != nil:
		op := criteria.And
		if c.Composite.Operator == string(criteria.Or) {
			op = criteria.Or
		}
		children := make([]criteria.Node, 0, len(c.Composite.Clauses))
		for _, child := range c.Composite.Clauses {
			node, err := child.toNode()
			if err != nil {
				return nil, err
			}
			children = append(children, node)
		}
		return &criteria.Composite{Op: op, Children: children}, nil
	}
	return nil, fmt.Errorf("clause must set predicate, relation, or composite")
}

func (p *Predicate) toNode() (criteria.Node, error) {
	family := criteria.Family(p.Family)
	if p.Family == "" {
		family = criteria.FamilyString
	}
	operand := types.TextValue(p.Value)
	return &criteria.Predicate{
		Target:   criteria.FieldTarget(p.Target),
		Name:     p.Name,
		Op:       criteria.CompareOp(p.Operator),
		Operand:  operand,
		Family:   family,
		TimeZone: p.TimeZone,
	}, nil
}

func (r *Relation) toNode() (criteria.Node, error) {
	rel := &criteria.Relation{
		Name:    r.Name,
		Kind:    types.Kind(r.Kind),
		Negated: r.Negated,
	}
	if r.Criteria != nil {
		nested, err := r.Criteria.ToCriteria()
		if err != nil {
			return nil, err
		}
		rel.Nested = nested
	}
	return rel, nil
}

// FetchGraph is the wire form of a fetch graph: a table of graph definitions
// keyed by id, plus the root id. Relations point at graph ids, so a graph
// may reference itself or an ancestor to express recursion.
type FetchGraph struct {
	Root   string               `json:"root"`
	Graphs map[string]GraphSpec `json:"graphs"`
}

// GraphSpec is one graph definition.
type GraphSpec struct {
	Kind       string          `json:"kind"`
	Properties bool            `json:"properties,omitempty"`
	Match      bool            `json:"match,omitempty"`
	Sort       []SortField     `json:"sort,omitempty"`
	From       *int            `json:"from,omitempty"`
	Count      *int            `json:"count,omitempty"`
	Relations  []FetchRelation `json:"relations,omitempty"`
}

// SortField is one sort key.
type SortField struct {
	Kind string `json:"kind"` // attribute, property, score, kind
	Name string `json:"name,omitempty"`
	Desc bool   `json:"desc,omitempty"`
}

// FetchRelation includes a relation, referencing the graph to apply to the
// related entities by id, with optional per-occurrence sort and paging.
type FetchRelation struct {
	Name  string      `json:"name"`
	Graph string      `json:"graph"`
	Sort  []SortField `json:"sort,omitempty"`
	From  *int        `json:"from,omitempty"`
	Count *int        `json:"count,omitempty"`
}

// ToGraph converts the wire form to a fetch graph. A nil or empty FetchGraph
// yields a bare attributes-only graph of the given default kind.
func (f *FetchGraph) ToGraph(defaultKind types.Kind) (*fetch.Graph, error) {
	if f == nil || len(f.Graphs) == 0 {
		return fetch.NewGraph(defaultKind), nil
	}
	if _, ok := f.Graphs[f.Root]; !ok {
		return nil, fmt.Errorf("fetch root %q is not defined", f.Root)
	}

	// Materialize every graph first so relations can reference any of them.
	graphs := make(map[string]*fetch.Graph, len(f.Graphs))
	for id, spec := range f.Graphs {
		kind := types.Kind(spec.Kind)
		if kind == "" {
			kind = defaultKind
		}
		g := fetch.NewGraph(kind)
		if spec.Properties {
			g.WithProperties()
		}
		if spec.Match {
			g.WithMatch()
		}
		applySort(g.SortBy, spec.Sort)
		if spec.From != nil {
			g.From(*spec.From)
		}
		if spec.Count != nil {
			g.Count(*spec.Count)
		}
		graphs[id] = g
	}

	for id, spec := range f.Graphs {
		g := graphs[id]
		for _, rel := range spec.Relations {
			sub, ok := graphs[rel.Graph]
			if !ok {
				return nil, fmt.Errorf("relation %q references undefined graph %q", rel.Name, rel.Graph)
			}
			g.WithUsing(rel.Name, sub)
			node := g.Node(rel.Name)
			applySort(node.SortBy, rel.Sort)
			if rel.From != nil {
				node.From(*rel.From)
			}
			if rel.Count != nil {
				node.Count(*rel.Count)
			}
		}
	}
	return graphs[f.Root], nil
}

func applySort(sortBy func() *fetch.SortOptions, fields []SortField) {
	if len(fields) == 0 {
		return
	}
	opts := sortBy()
	for _, f := range fields {
		var order *fetch.SortOrder
		switch fetch.SortFieldKind(f.Kind) {
		case fetch.SortByProperty:
			order = opts.ByProperty(f.Name)
		case fetch.SortByScore:
			order = opts.ByScore()
		case fetch.SortByKind:
			order = opts.ByKind()
		default:
			order = opts.ByAttribute(f.Name)
		}
		if f.Desc {
			order.Desc()
		}
	}
}
