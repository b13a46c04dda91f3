package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/types"
)

// Entity is one stored record: its reference, attribute bag, property bag,
// and outgoing relations.
type Entity struct {
	Ref        types.EntityRef
	Attributes map[string]types.Value
	Properties map[string]types.Value
	Relations  map[string][]types.EntityRef
}

// Store holds entities of every kind in memory. All methods are safe for
// concurrent use. Iteration over a kind follows insertion order, so repeated
// identical calls see identical candidate order.
type Store struct {
	mu       sync.RWMutex
	entities map[types.Kind]map[string]*Entity
	order    map[types.Kind][]string
	schema   map[types.Kind]map[string]types.PropertyType
	hidden   map[types.EntityRef]bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entities: map[types.Kind]map[string]*Entity{},
		order:    map[types.Kind][]string{},
		schema:   map[types.Kind]map[string]types.PropertyType{},
		hidden:   map[types.EntityRef]bool{},
	}
}

// Put stores an entity, replacing any previous record under the same
// reference.
func (s *Store) Put(e Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.entities[e.Ref.Kind]
	if byID == nil {
		byID = map[string]*Entity{}
		s.entities[e.Ref.Kind] = byID
	}
	if _, exists := byID[e.Ref.ID]; !exists {
		s.order[e.Ref.Kind] = append(s.order[e.Ref.Kind], e.Ref.ID)
	}
	if e.Attributes == nil {
		e.Attributes = map[string]types.Value{}
	}
	byID[e.Ref.ID] = &e
}

// Entities snapshots every stored record in insertion order, kind by kind.
// Persistent backends seed themselves from it.
func (s *Store) Entities() []*Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kinds := make([]string, 0, len(s.order))
	for kind := range s.order {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	var out []*Entity
	for _, kind := range kinds {
		for _, id := range s.order[types.Kind(kind)] {
			e := *s.entities[types.Kind(kind)][id]
			out = append(out, &e)
		}
	}
	return out
}

// Relate appends related references under a named relation of an existing
// entity.
func (s *Store) Relate(from types.EntityRef, relation string, to ...types.EntityRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entity(from)
	if e == nil {
		return
	}
	if e.Relations == nil {
		e.Relations = map[string][]types.EntityRef{}
	}
	e.Relations[relation] = append(e.Relations[relation], to...)
}

// Define declares the property type of a kind's property, for criteria
// validation.
func (s *Store) Define(kind types.Kind, code string, t types.PropertyType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schema[kind] == nil {
		s.schema[kind] = map[string]types.PropertyType{}
	}
	s.schema[kind][code] = t
}

// Hide marks an entity invisible to every principal.
func (s *Store) Hide(ref types.EntityRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden[ref] = true
}

// IsVisible implements provider.Authorizer: everything not explicitly
// hidden is visible.
func (s *Store) IsVisible(_ context.Context, ref types.EntityRef, _ types.Principal) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.hidden[ref]
}

// PropertyType implements provider.SchemaResolver.
func (s *Store) PropertyType(kind types.Kind, code string) (types.PropertyType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.schema[kind][code]
	return t, ok
}

// entity looks up a record. Caller must hold the lock.
func (s *Store) entity(ref types.EntityRef) *Entity {
	return s.entities[ref.Kind][ref.ID]
}

// LoadAttributes implements provider.EntityLoader.
func (s *Store) LoadAttributes(_ context.Context, ref types.EntityRef) (map[string]types.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.entity(ref)
	if e == nil {
		return nil, types.ErrNotExists
	}
	return cloneValues(e.Attributes), nil
}

// LoadProperties implements provider.EntityLoader.
func (s *Store) LoadProperties(_ context.Context, ref types.EntityRef) (map[string]types.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.entity(ref)
	if e == nil {
		return nil, types.ErrNotExists
	}
	return cloneValues(e.Properties), nil
}

// LoadProperty implements provider.EntityLoader.
func (s *Store) LoadProperty(_ context.Context, ref types.EntityRef, code string) (types.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.entity(ref)
	if e == nil {
		return types.Value{}, types.ErrNotExists
	}
	v, ok := e.Properties[code]
	if !ok {
		return types.Value{}, types.ErrNoValue
	}
	return v, nil
}

// LoadRelation implements provider.EntityLoader, applying the requested
// sort and page window.
func (s *Store) LoadRelation(_ context.Context, ref types.EntityRef, relation string, sortOpts *fetch.SortOptions, page *fetch.Page) ([]types.EntityRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.entity(ref)
	if e == nil {
		return nil, types.ErrNotExists
	}
	refs := append([]types.EntityRef(nil), e.Relations[relation]...)
	s.sortRefs(refs, sortOpts)
	start, end := page.Apply(len(refs))
	return refs[start:end], nil
}

// sortRefs orders references by the sort fields, comparing rendered values.
// Caller must hold the lock.
func (s *Store) sortRefs(refs []types.EntityRef, sortOpts *fetch.SortOptions) {
	fields := sortOpts.Fields()
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(refs, func(i, j int) bool {
		for _, f := range fields {
			a := s.sortValue(refs[i], f)
			b := s.sortValue(refs[j], f)
			if a == b {
				continue
			}
			if f.Desc {
				return a > b
			}
			return a < b
		}
		return false
	})
}

func (s *Store) sortValue(ref types.EntityRef, f fetch.SortField) string {
	e := s.entity(ref)
	if e == nil {
		return ""
	}
	switch f.Kind {
	case fetch.SortByProperty:
		return e.Properties[f.Name].Text
	case fetch.SortByAttribute:
		return e.Attributes[f.Name].Text
	default:
		// Score and kind keys only apply to top-level result composition.
		return ""
	}
}

func cloneValues(m map[string]types.Value) map[string]types.Value {
	out := make(map[string]types.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
