package evaluate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tracelab/entiq/pkg/criteria"
	"github.com/tracelab/entiq/pkg/provider"
	"github.com/tracelab/entiq/pkg/types"
)

// Evaluator resolves criteria trees against a match provider.
type Evaluator struct {
	index  provider.MatchProvider
	schema provider.SchemaResolver
	logger *slog.Logger
}

// New creates an evaluator. A nil logger falls back to slog.Default.
func New(index provider.MatchProvider, schema provider.SchemaResolver, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{index: index, schema: schema, logger: logger}
}

// Evaluate validates the criteria and resolves them over every kind in
// scope, returning one ranked match per distinct entity. Order is undefined
// at this stage; ordering is the rank composer's job. An empty scope
// evaluates the criteria's own kind.
func (e *Evaluator) Evaluate(ctx context.Context, crit *criteria.Criteria, scope []types.Kind) ([]types.RankedMatch, error) {
	if err := criteria.Validate(crit, e.schema); err != nil {
		return nil, err
	}
	if len(scope) == 0 {
		scope = []types.Kind{crit.Kind()}
	}

	merged := newAccumulator()
	for _, kind := range scope {
		acc, err := e.evalComposite(ctx, kind, crit.Operator(), crit.Nodes())
		if err != nil {
			return nil, err
		}
		merged.union(acc)
	}

	e.logger.Debug("criteria evaluated", "kinds", len(scope), "matches", len(merged.entries))
	return merged.ranked(), nil
}

// evalComposite resolves one composite level. Text predicates at this level
// are grouped and OR-merged; every other child contributes one operand to
// the composite's set operation.
func (e *Evaluator) evalComposite(ctx context.Context, kind types.Kind, op criteria.Operator, nodes []criteria.Node) (*accumulator, error) {
	var textPredicates []*criteria.Predicate
	var operands []*accumulator

	for _, n := range nodes {
		switch node := n.(type) {
		case *criteria.Composite:
			acc, err := e.evalComposite(ctx, kind, node.Op, node.Children)
			if err != nil {
				return nil, err
			}
			operands = append(operands, acc)
		case *criteria.Predicate:
			if node.Target == criteria.TargetText {
				textPredicates = append(textPredicates, node)
				continue
			}
			acc, err := e.evalPredicate(ctx, kind, node)
			if err != nil {
				return nil, err
			}
			operands = append(operands, acc)
		case *criteria.Relation:
			acc, err := e.evalRelation(ctx, kind, node)
			if err != nil {
				return nil, err
			}
			operands = append(operands, acc)
		default:
			return nil, fmt.Errorf("unsupported criteria node %T", n)
		}
	}

	if len(textPredicates) > 0 {
		acc, err := e.evalTextGroup(ctx, kind, textPredicates)
		if err != nil {
			return nil, err
		}
		operands = append(operands, acc)
	}

	// A composite with no children matches everything of the kind.
	if len(operands) == 0 {
		refs, err := e.index.AllOf(ctx, kind)
		if err != nil {
			return nil, err
		}
		return fromRefs(refs), nil
	}

	result := operands[0]
	for _, next := range operands[1:] {
		if op == criteria.Or {
			result.union(next)
		} else {
			result = result.intersect(next)
		}
	}
	return result, nil
}

func (e *Evaluator) evalPredicate(ctx context.Context, kind types.Kind, p *criteria.Predicate) (*accumulator, error) {
	refs, err := e.index.MatchPredicate(ctx, kind, p)
	if err != nil {
		return nil, err
	}
	return fromRefs(refs), nil
}

// evalTextGroup resolves accumulated full-text predicates: union of the
// per-predicate scored matches, with duplicate field hits collapsing so the
// same match never scores twice.
func (e *Evaluator) evalTextGroup(ctx context.Context, kind types.Kind, preds []*criteria.Predicate) (*accumulator, error) {
	acc := newAccumulator()
	for _, p := range preds {
		matches, err := e.index.MatchText(ctx, kind, p)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			acc.addMatch(m)
		}
	}
	return acc, nil
}

func (e *Evaluator) evalRelation(ctx context.Context, kind types.Kind, rel *criteria.Relation) (*accumulator, error) {
	if rel.Negated {
		all, err := e.index.AllOf(ctx, kind)
		if err != nil {
			return nil, err
		}
		having, err := e.index.MatchRelated(ctx, kind, rel.Name, nil)
		if err != nil {
			return nil, err
		}
		exclude := make(map[types.EntityRef]bool, len(having))
		for _, r := range having {
			exclude[r] = true
		}
		var refs []types.EntityRef
		for _, r := range all {
			if !exclude[r] {
				refs = append(refs, r)
			}
		}
		return fromRefs(refs), nil
	}

	// A bare relation predicate means "has a non-null relation".
	if rel.Nested == nil || len(rel.Nested.Nodes()) == 0 {
		refs, err := e.index.MatchRelated(ctx, kind, rel.Name, nil)
		if err != nil {
			return nil, err
		}
		return fromRefs(refs), nil
	}

	nested, err := e.evalComposite(ctx, rel.Kind, rel.Nested.Operator(), rel.Nested.Nodes())
	if err != nil {
		return nil, err
	}
	related := nested.refs()
	if len(related) == 0 {
		return newAccumulator(), nil
	}
	refs, err := e.index.MatchRelated(ctx, kind, rel.Name, related)
	if err != nil {
		return nil, err
	}
	return fromRefs(refs), nil
}
