package hydrate

import (
	"sort"

	"github.com/tracelab/entiq/pkg/types"
)

// relationSlot is the tagged state of one relation on a hydrated object:
// absent from the map means not fetched, present means fetched (possibly
// empty).
type relationSlot struct {
	objects []*Object
}

// Object is the materialized counterpart of an entity reference for one
// fetch graph. Objects live for the duration of a single hydration call;
// within that call, every result reaching the same entity through the same
// fetch graph shares one Object instance.
type Object struct {
	ref        types.EntityRef
	attributes map[string]types.Value

	propertiesFetched bool
	properties        map[string]types.Value

	relations map[string]*relationSlot

	matchFetched bool
	score        float64
	matches      []types.MatchDetail
}

func newObject(ref types.EntityRef, attributes map[string]types.Value) *Object {
	return &Object{
		ref:        ref,
		attributes: attributes,
		relations:  map[string]*relationSlot{},
	}
}

// Ref returns the entity reference this object materializes.
func (o *Object) Ref() types.EntityRef { return o.ref }

// Attribute returns a named attribute. Attributes are always loaded.
func (o *Object) Attribute(name string) (types.Value, bool) {
	v, ok := o.attributes[name]
	return v, ok
}

// Attributes returns the full attribute bag.
func (o *Object) Attributes() map[string]types.Value { return o.attributes }

// Code, PermID, and Identifier are shorthands for the conventional
// attributes.

func (o *Object) Code() string {
	v, _ := o.Attribute("code")
	return v.Text
}

func (o *Object) PermID() string {
	v, _ := o.Attribute("permId")
	return v.Text
}

func (o *Object) Identifier() string {
	v, _ := o.Attribute("identifier")
	return v.Text
}

// Properties returns the property bag. It fails with *types.NotFetchedError
// when the fetch graph did not include properties; an included but empty bag
// returns an empty map.
func (o *Object) Properties() (map[string]types.Value, error) {
	if !o.propertiesFetched {
		return nil, &types.NotFetchedError{Ref: o.ref, Relation: "properties"}
	}
	return o.properties, nil
}

// Property returns one property value, or types.ErrNoValue when the entity
// has none under the code.
func (o *Object) Property(code string) (types.Value, error) {
	props, err := o.Properties()
	if err != nil {
		return types.Value{}, err
	}
	v, ok := props[code]
	if !ok {
		return types.Value{}, types.ErrNoValue
	}
	return v, nil
}

// Relation returns the related objects under a relation name. It fails with
// *types.NotFetchedError when the relation was not part of the fetch graph.
// A fetched relation with nothing under it returns an empty slice.
func (o *Object) Relation(name string) ([]*Object, error) {
	slot, ok := o.relations[name]
	if !ok {
		return nil, &types.NotFetchedError{Ref: o.ref, Relation: name}
	}
	return slot.objects, nil
}

// One returns the single related object of a single-valued relation, or nil
// when the relation is fetched but empty.
func (o *Object) One(name string) (*Object, error) {
	objs, err := o.Relation(name)
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, nil
	}
	return objs[0], nil
}

// HasFetched reports whether the named relation was fetched.
func (o *Object) HasFetched(name string) bool {
	_, ok := o.relations[name]
	return ok
}

// FetchedRelations returns the names of the fetched relations in sorted
// order.
func (o *Object) FetchedRelations() []string {
	names := make([]string, 0, len(o.relations))
	for name := range o.relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Match returns the full-text score and match details. It fails with
// *types.NotFetchedError when the fetch graph did not include match
// details.
func (o *Object) Match() (float64, []types.MatchDetail, error) {
	if !o.matchFetched {
		return 0, nil, &types.NotFetchedError{Ref: o.ref, Relation: "match"}
	}
	return o.score, o.matches, nil
}

// AttachMatch installs the full-text score and details on an object whose
// fetch graph included match information. Called by the engine after
// hydration; a no-op when match was not fetched.
func (o *Object) AttachMatch(score float64, matches []types.MatchDetail) {
	if !o.matchFetched {
		return
	}
	o.score = score
	o.matches = matches
}

func (o *Object) setProperties(props map[string]types.Value) {
	o.propertiesFetched = true
	if props == nil {
		props = map[string]types.Value{}
	}
	o.properties = props
}

func (o *Object) setRelation(name string, objects []*Object) {
	if objects == nil {
		objects = []*Object{}
	}
	o.relations[name] = &relationSlot{objects: objects}
}
