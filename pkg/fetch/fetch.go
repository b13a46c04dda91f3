package fetch

import (
	"github.com/google/uuid"

	"github.com/tracelab/entiq/pkg/types"
)

// Graph describes what to materialize for entities of one kind: the
// relations to follow (each with its own nested Graph), whether to load the
// property bag and match details, and the kind-level sorting and paging.
//
// Every graph carries an identity token assigned at construction. The
// hydration cache and cycle detection key on that token, so sharing a graph
// instance between nodes is what expresses recursion.
type Graph struct {
	id    string
	kind  types.Kind
	nodes map[string]*Node
	order []string

	properties bool
	match      bool

	sort *SortOptions
	page *Page
}

// NewGraph starts an empty fetch graph for the given kind. An empty graph
// hydrates attributes only; every relation reads as not fetched.
func NewGraph(kind types.Kind) *Graph {
	return &Graph{
		id:    uuid.NewString(),
		kind:  kind,
		nodes: map[string]*Node{},
	}
}

// ID returns the graph's identity token.
func (g *Graph) ID() string { return g.id }

// Kind returns the entity kind the graph applies to.
func (g *Graph) Kind() types.Kind { return g.kind }

// With includes the named relation, allocating a fresh nested graph for the
// related kind. Calling With again for the same relation returns the nested
// graph already installed.
func (g *Graph) With(relation string) *Graph {
	if n, ok := g.nodes[relation]; ok {
		return n.graph
	}
	rel := RelationOf(g.kind, relation)
	nested := NewGraph(rel.Target)
	g.install(&Node{rel: rel, graph: nested})
	return nested
}

// WithUsing includes the named relation using an existing graph for the
// related entities. Passing a graph that is (transitively) the enclosing one
// is how a recursive fetch shape is expressed.
func (g *Graph) WithUsing(relation string, sub *Graph) *Graph {
	rel := RelationOf(g.kind, relation)
	if n, ok := g.nodes[relation]; ok {
		n.graph = sub
		return sub
	}
	g.install(&Node{rel: rel, graph: sub})
	return sub
}

func (g *Graph) install(n *Node) {
	g.nodes[n.rel.Name] = n
	g.order = append(g.order, n.rel.Name)
}

// WithProperties includes the property bag.
func (g *Graph) WithProperties() *Graph {
	g.properties = true
	return g
}

// WithMatch includes full-text match details and score on hydrated objects.
// It only has an effect for global-search results.
func (g *Graph) WithMatch() *Graph {
	g.match = true
	return g
}

// HasProperties reports whether the property bag is included.
func (g *Graph) HasProperties() bool { return g.properties }

// HasMatch reports whether match details are included.
func (g *Graph) HasMatch() bool { return g.match }

// Has reports whether the named relation is included.
func (g *Graph) Has(relation string) bool {
	_, ok := g.nodes[relation]
	return ok
}

// Node returns the fetch node for the named relation, or nil.
func (g *Graph) Node(relation string) *Node { return g.nodes[relation] }

// Nodes returns the fetch nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// SortBy returns the kind-level sort options, creating them on first use.
// They order collection results wherever this graph is used, unless a node
// overrides them.
func (g *Graph) SortBy() *SortOptions {
	if g.sort == nil {
		g.sort = &SortOptions{}
	}
	return g.sort
}

// Sort returns the kind-level sort options, or nil when unsorted.
func (g *Graph) Sort() *SortOptions { return g.sort }

// From sets the offset of the kind-level page window.
func (g *Graph) From(offset int) *Graph {
	g.ensurePage().Offset = offset
	return g
}

// Count sets the limit of the kind-level page window.
func (g *Graph) Count(limit int) *Graph {
	p := g.ensurePage()
	p.Limit = limit
	p.Limited = true
	return g
}

func (g *Graph) ensurePage() *Page {
	if g.page == nil {
		g.page = &Page{}
	}
	return g.page
}

// Page returns the kind-level page window, or nil when unpaged.
func (g *Graph) Page() *Page { return g.page }

// Node is one included relation: the relation itself, the graph to apply to
// the related entities, and optional sort/page overrides for this
// occurrence.
type Node struct {
	rel   Relation
	graph *Graph
	sort  *SortOptions
	page  *Page
}

// Relation returns the relation this node fetches.
func (n *Node) Relation() Relation { return n.rel }

// Graph returns the nested fetch graph.
func (n *Node) Graph() *Graph { return n.graph }

// SortBy returns sort options overriding the nested graph's for this node
// only, creating them on first use.
func (n *Node) SortBy() *SortOptions {
	if n.sort == nil {
		n.sort = &SortOptions{}
	}
	return n.sort
}

// EffectiveSort resolves the sort applied to this node's collection: the
// node override if set, else the nested graph's.
func (n *Node) EffectiveSort() *SortOptions {
	if n.sort != nil {
		return n.sort
	}
	return n.graph.sort
}

// From sets the offset of this node's page window.
func (n *Node) From(offset int) *Node {
	n.ensurePage().Offset = offset
	return n
}

// Count sets the limit of this node's page window.
func (n *Node) Count(limit int) *Node {
	p := n.ensurePage()
	p.Limit = limit
	p.Limited = true
	return n
}

func (n *Node) ensurePage() *Page {
	if n.page == nil {
		n.page = &Page{}
	}
	return n.page
}

// EffectivePage resolves the page window applied to this node's collection:
// the node override if set, else the nested graph's.
func (n *Node) EffectivePage() *Page {
	if n.page != nil {
		return n.page
	}
	return n.graph.page
}

// Page is an offset/limit window over an ordered collection.
type Page struct {
	Offset int
	Limit  int
	// Limited distinguishes "no limit" from an explicit limit of zero.
	Limited bool
}

// Apply windows a length, returning the start and end indexes.
func (p *Page) Apply(n int) (int, int) {
	if p == nil {
		return 0, n
	}
	start := p.Offset
	if start > n {
		start = n
	}
	if start < 0 {
		start = 0
	}
	end := n
	if p.Limited {
		end = start + p.Limit
		if end > n {
			end = n
		}
	}
	return start, end
}
