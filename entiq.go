package entiq

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tracelab/entiq/pkg/criteria"
	"github.com/tracelab/entiq/pkg/evaluate"
	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/hydrate"
	"github.com/tracelab/entiq/pkg/provider"
	"github.com/tracelab/entiq/pkg/rank"
	"github.com/tracelab/entiq/pkg/telemetry"
	"github.com/tracelab/entiq/pkg/types"
)

// GlobalScope is the default kind set for SearchGlobal when the caller
// passes none.
var GlobalScope = []types.Kind{
	types.KindExperiment,
	types.KindSample,
	types.KindDataSet,
	types.KindMaterial,
}

// SearchResult is one page of hydrated results plus the size of the full
// visible match set. TotalCount is invariant across page windows.
type SearchResult struct {
	Objects    []*hydrate.Object
	TotalCount int
}

// Engine is the main implementation of the Searcher and Getter interfaces.
type Engine struct {
	loader    provider.EntityLoader
	index     provider.MatchProvider
	authz     provider.Authorizer
	schema    provider.SchemaResolver
	evaluator *evaluate.Evaluator
	hydrator  *hydrate.Hydrator
	recorder  telemetry.Recorder
	logger    *slog.Logger
	workers   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithAuthorizer sets the visibility filter. Defaults to provider.AllowAll.
func WithAuthorizer(authz provider.Authorizer) Option {
	return func(e *Engine) { e.authz = authz }
}

// WithSchema sets the property schema used for criteria validation.
// Defaults to provider.OpenSchema, which validates nothing.
func WithSchema(schema provider.SchemaResolver) Option {
	return func(e *Engine) { e.schema = schema }
}

// WithRecorder sets the query telemetry sink. Defaults to a no-op.
func WithRecorder(recorder telemetry.Recorder) Option {
	return func(e *Engine) { e.recorder = recorder }
}

// WithWorkers bounds the hydration worker pool. Defaults to the CPU count.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// New creates an Engine over the given backend collaborators.
func New(loader provider.EntityLoader, index provider.MatchProvider, opts ...Option) *Engine {
	e := &Engine{
		loader:   loader,
		index:    index,
		authz:    provider.AllowAll{},
		schema:   provider.OpenSchema{},
		recorder: telemetry.NopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.evaluator = evaluate.New(index, e.schema, e.logger)
	e.hydrator = hydrate.New(loader, e.logger)
	if e.workers > 0 {
		e.hydrator.SetWorkers(e.workers)
	}
	return e
}

// SearchObjects implements Searcher.
func (e *Engine) SearchObjects(ctx context.Context, principal types.Principal, crit *criteria.Criteria, graph *fetch.Graph) (*SearchResult, error) {
	start := time.Now()
	result, err := e.search(ctx, principal, crit, []types.Kind{crit.Kind()}, graph)
	e.record(ctx, "search", principal, []types.Kind{crit.Kind()}, result, start, err)
	return result, err
}

// SearchGlobal implements Searcher.
func (e *Engine) SearchGlobal(ctx context.Context, principal types.Principal, crit *criteria.Criteria, scope []types.Kind, graph *fetch.Graph) (*SearchResult, error) {
	start := time.Now()
	if len(scope) == 0 {
		scope = GlobalScope
	}
	result, err := e.search(ctx, principal, crit, scope, graph)
	e.record(ctx, "global", principal, scope, result, start, err)
	return result, err
}

func (e *Engine) search(ctx context.Context, principal types.Principal, crit *criteria.Criteria, scope []types.Kind, graph *fetch.Graph) (*SearchResult, error) {
	matches, err := e.evaluator.Evaluate(ctx, crit, scope)
	if err != nil {
		return nil, err
	}

	// Invisible candidates vanish: not returned, not counted.
	visible := matches[:0:0]
	for _, m := range matches {
		if e.authz.IsVisible(ctx, m.Ref, principal) {
			visible = append(visible, m)
		}
	}
	if dropped := len(matches) - len(visible); dropped > 0 {
		e.logger.Debug("candidates filtered by authorization", "dropped", dropped, "user", principal.UserID)
	}

	byKind := make(map[types.Kind][]types.RankedMatch, len(scope))
	for _, m := range visible {
		byKind[m.Ref.Kind] = append(byKind[m.Ref.Kind], m)
	}
	refs, total := rank.ComposeByKind(byKind, sortSpec(graph.Sort()), graph.Page(), e.valueSource(ctx))

	objects, err := e.hydrator.Hydrate(ctx, refs, graph)
	if err != nil {
		return nil, err
	}

	if graph.HasMatch() {
		byRef := make(map[types.EntityRef]types.RankedMatch, len(visible))
		for _, m := range visible {
			byRef[m.Ref] = m
		}
		for _, obj := range objects {
			if obj == nil {
				continue
			}
			if m, ok := byRef[obj.Ref()]; ok {
				obj.AttachMatch(m.Score, m.Matches)
			}
		}
	}

	return &SearchResult{Objects: objects, TotalCount: total}, nil
}

// GetObjects implements Getter.
func (e *Engine) GetObjects(ctx context.Context, principal types.Principal, refs []types.EntityRef, graph *fetch.Graph) (map[types.EntityRef]*hydrate.Object, error) {
	start := time.Now()
	result, err := e.get(ctx, principal, refs, graph)
	e.record(ctx, "get", principal, nil, nil, start, err)
	return result, err
}

func (e *Engine) get(ctx context.Context, principal types.Principal, refs []types.EntityRef, graph *fetch.Graph) (map[types.EntityRef]*hydrate.Object, error) {
	// Direct fetch never hides an entity the caller may not see; it names it.
	for _, ref := range refs {
		if !e.authz.IsVisible(ctx, ref, principal) {
			return nil, &types.AccessDeniedError{Ref: ref, UserID: principal.UserID, Required: "read"}
		}
	}

	objects, err := e.hydrator.Hydrate(ctx, refs, graph)
	if err != nil {
		return nil, err
	}

	result := make(map[types.EntityRef]*hydrate.Object, len(objects))
	for i, obj := range objects {
		if obj == nil {
			// Unresolvable refs are simply absent.
			continue
		}
		result[refs[i]] = obj
	}
	return result, nil
}

// valueSource resolves sort attributes lazily through the loader, caching
// attribute bags per call. Names missing from the attribute bag fall through
// to the property bag.
func (e *Engine) valueSource(ctx context.Context) rank.ValueSource {
	cache := map[types.EntityRef]map[string]types.Value{}
	return func(ref types.EntityRef, attribute string) string {
		attrs, ok := cache[ref]
		if !ok {
			attrs, _ = e.loader.LoadAttributes(ctx, ref)
			cache[ref] = attrs
		}
		if v, ok := attrs[attribute]; ok {
			return v.Text
		}
		if v, err := e.loader.LoadProperty(ctx, ref, attribute); err == nil {
			return v.Text
		}
		return ""
	}
}

func sortSpec(opts *fetch.SortOptions) rank.Spec {
	fields := opts.Fields()
	spec := make(rank.Spec, 0, len(fields))
	for _, f := range fields {
		switch f.Kind {
		case fetch.SortByScore:
			spec = append(spec, rank.Field{Key: rank.KeyScore, Desc: f.Desc})
		case fetch.SortByKind:
			spec = append(spec, rank.Field{Key: rank.KeyKind, Desc: f.Desc})
		default:
			switch f.Name {
			case "identifier":
				spec = append(spec, rank.Field{Key: rank.KeyIdentifier, Desc: f.Desc})
			case "permId":
				spec = append(spec, rank.Field{Key: rank.KeyPermID, Desc: f.Desc})
			default:
				spec = append(spec, rank.Field{Key: rank.KeyAttribute, Attribute: f.Name, Desc: f.Desc})
			}
		}
	}
	return spec
}

func (e *Engine) record(ctx context.Context, operation string, principal types.Principal, scope []types.Kind, result *SearchResult, start time.Time, err error) {
	rec := telemetry.QueryRecord{
		UserID:     principal.UserID,
		Operation:  operation,
		Kinds:      kindList(scope),
		DurationMs: float64(time.Since(start)) / float64(time.Millisecond),
	}
	if result != nil {
		rec.Results = len(result.Objects)
		rec.Total = result.TotalCount
	}
	if err != nil {
		rec.Error = err.Error()
	}
	e.recorder.Record(ctx, rec)
}

func kindList(scope []types.Kind) string {
	if len(scope) == 0 {
		return ""
	}
	parts := make([]string, len(scope))
	for i, k := range scope {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}
