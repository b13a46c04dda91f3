package fetch

import (
	"sync"

	"github.com/tracelab/entiq/pkg/types"
)

// Relation describes one named relation an entity kind can be fetched
// through.
type Relation struct {
	Name string
	// Target is the kind of the related entities.
	Target types.Kind
	// Collection marks relations with many related entities.
	Collection bool
}

var (
	registryMu sync.RWMutex
	registry   = map[types.Kind]map[string]Relation{}
)

// RegisterRelation adds or replaces a relation definition for a kind. The
// built-in schema below covers the conventional catalog; integrators with
// additional kinds register theirs at startup.
func RegisterRelation(kind types.Kind, rel Relation) {
	registryMu.Lock()
	defer registryMu.Unlock()
	m, ok := registry[kind]
	if !ok {
		m = map[string]Relation{}
		registry[kind] = m
	}
	m[rel.Name] = rel
}

// RelationOf resolves a relation name for a kind. Unknown names resolve to
// an untyped collection relation targeting the same kind; whether it exists
// is decided by the entity loader at hydration time.
func RelationOf(kind types.Kind, name string) Relation {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if rel, ok := registry[kind][name]; ok {
		return rel
	}
	return Relation{Name: name, Target: kind, Collection: true}
}

// Relations lists the registered relations of a kind.
func Relations(kind types.Kind) []Relation {
	registryMu.RLock()
	defer registryMu.RUnlock()
	rels := make([]Relation, 0, len(registry[kind]))
	for _, rel := range registry[kind] {
		rels = append(rels, rel)
	}
	return rels
}

func init() {
	for _, r := range []struct {
		kind types.Kind
		rel  Relation
	}{
		{types.KindSample, Relation{Name: "space", Target: types.KindSpace}},
		{types.KindSample, Relation{Name: "project", Target: types.KindProject}},
		{types.KindSample, Relation{Name: "experiment", Target: types.KindExperiment}},
		{types.KindSample, Relation{Name: "container", Target: types.KindSample}},
		{types.KindSample, Relation{Name: "components", Target: types.KindSample, Collection: true}},
		{types.KindSample, Relation{Name: "parents", Target: types.KindSample, Collection: true}},
		{types.KindSample, Relation{Name: "children", Target: types.KindSample, Collection: true}},
		{types.KindSample, Relation{Name: "dataSets", Target: types.KindDataSet, Collection: true}},
		{types.KindSample, Relation{Name: "material", Target: types.KindMaterial}},

		{types.KindExperiment, Relation{Name: "project", Target: types.KindProject}},
		{types.KindExperiment, Relation{Name: "samples", Target: types.KindSample, Collection: true}},
		{types.KindExperiment, Relation{Name: "dataSets", Target: types.KindDataSet, Collection: true}},

		{types.KindDataSet, Relation{Name: "experiment", Target: types.KindExperiment}},
		{types.KindDataSet, Relation{Name: "sample", Target: types.KindSample}},
		{types.KindDataSet, Relation{Name: "parents", Target: types.KindDataSet, Collection: true}},
		{types.KindDataSet, Relation{Name: "children", Target: types.KindDataSet, Collection: true}},
		{types.KindDataSet, Relation{Name: "containers", Target: types.KindDataSet, Collection: true}},
		{types.KindDataSet, Relation{Name: "components", Target: types.KindDataSet, Collection: true}},

		{types.KindProject, Relation{Name: "space", Target: types.KindSpace}},
		{types.KindProject, Relation{Name: "experiments", Target: types.KindExperiment, Collection: true}},

		{types.KindSpace, Relation{Name: "projects", Target: types.KindProject, Collection: true}},
		{types.KindSpace, Relation{Name: "samples", Target: types.KindSample, Collection: true}},
	} {
		RegisterRelation(r.kind, r.rel)
	}
}
