package hydrate

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/provider"
	"github.com/tracelab/entiq/pkg/types"
)

// Hydrator materializes object graphs through an entity loader.
type Hydrator struct {
	loader  provider.EntityLoader
	logger  *slog.Logger
	workers int
}

// New creates a hydrator. A nil logger falls back to slog.Default.
func New(loader provider.EntityLoader, logger *slog.Logger) *Hydrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hydrator{loader: loader, logger: logger, workers: runtime.NumCPU()}
}

// SetWorkers bounds the concurrent top-level materializations per call.
func (h *Hydrator) SetWorkers(n int) {
	if n > 0 {
		h.workers = n
	}
}

// cacheKey identifies one (entity, fetch shape) pair. The graph's identity
// token, not its pointer, is the key, so aliased graph instances and cycles
// resolve to the same entry.
type cacheKey struct {
	ref     types.EntityRef
	graphID string
}

// session is the per-call state: the object cache and its lock, the only
// shared mutable state of a hydration call. An entry is written at most
// once; later resolutions of the same key reuse it.
type session struct {
	mu    sync.Mutex
	cache map[cacheKey]*Object
}

// Hydrate materializes the requested fetch graph for each reference. The
// result is aligned with the input: a reference the loader no longer knows
// yields nil at its position. Sibling top-level references are resolved
// concurrently over a bounded worker pool.
func (h *Hydrator) Hydrate(ctx context.Context, refs []types.EntityRef, g *fetch.Graph) ([]*Object, error) {
	s := &session{cache: map[cacheKey]*Object{}}
	results := make([]*Object, len(refs))

	if len(refs) <= 1 || h.workers <= 1 {
		for i, ref := range refs {
			obj, err := h.materialize(ctx, s, ref, g)
			if err != nil {
				return nil, err
			}
			results[i] = obj
		}
		return results, nil
	}

	pool, err := ants.NewPool(h.workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error

	for i, ref := range refs {
		i, ref := i, ref
		wg.Add(1)
		task := func() {
			defer wg.Done()
			obj, err := h.materialize(ctx, s, ref, g)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			results[i] = obj
		}
		if err := pool.Submit(task); err != nil {
			// Pool exhausted or released: fall back to inline execution.
			task()
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// materialize resolves one (ref, graph) pair. The object is installed in
// the cache after its attributes load but before any relation expands, so a
// fetch graph that reaches the same pair again — including through a
// reference-identity cycle — resolves to the shared instance instead of
// re-expanding.
func (h *Hydrator) materialize(ctx context.Context, s *session, ref types.EntityRef, g *fetch.Graph) (*Object, error) {
	key := cacheKey{ref: ref, graphID: g.ID()}

	s.mu.Lock()
	if obj, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return obj, nil
	}
	s.mu.Unlock()

	attrs, err := h.loader.LoadAttributes(ctx, ref)
	if err != nil {
		if errors.Is(err, types.ErrNotExists) {
			return nil, nil
		}
		return nil, err
	}

	obj := newObject(ref, attrs)

	s.mu.Lock()
	if existing, ok := s.cache[key]; ok {
		// Lost the install race: the first writer populates.
		s.mu.Unlock()
		return existing, nil
	}
	s.cache[key] = obj
	s.mu.Unlock()

	if err := h.populate(ctx, s, obj, g); err != nil {
		return nil, err
	}
	return obj, nil
}

func (h *Hydrator) populate(ctx context.Context, s *session, obj *Object, g *fetch.Graph) error {
	if g.HasProperties() {
		props, err := h.loader.LoadProperties(ctx, obj.ref)
		if err != nil && !errors.Is(err, types.ErrNoValue) {
			return err
		}
		obj.setProperties(props)
	}

	if g.HasMatch() {
		obj.matchFetched = true
	}

	for _, node := range g.Nodes() {
		name := node.Relation().Name
		refs, err := h.loader.LoadRelation(ctx, obj.ref, name, node.EffectiveSort(), node.EffectivePage())
		if err != nil && !errors.Is(err, types.ErrNoValue) {
			return err
		}

		children := make([]*Object, 0, len(refs))
		for _, rref := range refs {
			child, err := h.materialize(ctx, s, rref, node.Graph())
			if err != nil {
				return err
			}
			if child != nil {
				children = append(children, child)
			}
		}
		obj.setRelation(name, children)
	}
	return nil
}
