package memstore

import (
	"context"
	"sort"
	"strconv"

	"github.com/tracelab/entiq/pkg/criteria"
	"github.com/tracelab/entiq/pkg/match"
	"github.com/tracelab/entiq/pkg/types"
)

// AllOf implements provider.MatchProvider.
func (s *Store) AllOf(_ context.Context, kind types.Kind) ([]types.EntityRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]types.EntityRef, 0, len(s.order[kind]))
	for _, id := range s.order[kind] {
		refs = append(refs, types.EntityRef{Kind: kind, ID: id})
	}
	return refs, nil
}

// MatchPredicate implements provider.MatchProvider.
func (s *Store) MatchPredicate(_ context.Context, kind types.Kind, p *criteria.Predicate) ([]types.EntityRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var refs []types.EntityRef
	for _, id := range s.order[kind] {
		e := s.entities[kind][id]
		ok, err := Matches(e, p)
		if err != nil {
			return nil, err
		}
		if ok {
			refs = append(refs, e.Ref)
		}
	}
	return refs, nil
}

// MatchRelated implements provider.MatchProvider. A nil related set selects
// entities with any related entity under the relation.
func (s *Store) MatchRelated(_ context.Context, kind types.Kind, relation string, related []types.EntityRef) ([]types.EntityRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[types.EntityRef]bool, len(related))
	for _, r := range related {
		wanted[r] = true
	}

	var refs []types.EntityRef
	for _, id := range s.order[kind] {
		e := s.entities[kind][id]
		for _, target := range e.Relations[relation] {
			if related == nil || wanted[target] {
				refs = append(refs, e.Ref)
				break
			}
		}
	}
	return refs, nil
}

// MatchText implements provider.MatchProvider, scoring every field hit per
// the weight table: exact canonical attributes dominate, then exact
// attributes, partial attributes, property phrases, property tokens.
func (s *Store) MatchText(_ context.Context, kind types.Kind, p *criteria.Predicate) ([]types.RankedMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []types.RankedMatch
	for _, id := range s.order[kind] {
		if m, ok := ScoreText(s.entities[kind][id], p); ok {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// ScoreText scores every field of one entity against a full-text predicate
// per the weight table: exact canonical attributes dominate, then exact
// attributes, partial attributes, property phrases, property tokens. The
// second return is false when no field hits.
func ScoreText(e *Entity, p *criteria.Predicate) (types.RankedMatch, bool) {
	phrase := p.Op == criteria.OpContainsExactly
	operand := p.Operand.Text

	var details []types.MatchDetail
	for _, name := range sortedKeys(e.Attributes) {
		v := e.Attributes[name]
		switch {
		case match.EqualsFold(v.Text, operand):
			details = append(details, types.MatchDetail{
				Field:   attributeLabel(name),
				Snippet: v.Text,
				Weight:  match.AttributeWeight(name, true),
			})
		case textHit(v.Text, operand, phrase):
			details = append(details, types.MatchDetail{
				Field:   attributeLabel(name),
				Snippet: v.Text,
				Weight:  match.AttributeWeight(name, false),
			})
		}
	}

	for _, code := range sortedKeys(e.Properties) {
		v := e.Properties[code]
		if textHit(v.Text, operand, phrase) {
			details = append(details, types.MatchDetail{
				Field:   "Property '" + code + "'",
				Snippet: v.Text,
				Weight:  match.PropertyWeight(phrase),
			})
		}
	}

	if len(details) == 0 {
		return types.RankedMatch{}, false
	}
	var score float64
	for _, d := range details {
		score += d.Weight
	}
	return types.RankedMatch{Ref: e.Ref, Score: score, Matches: details}, true
}

// textHit reports a full-text hit in one field. Phrase mode is substring
// search; token mode hits when any operand token appears as a whole token,
// so "simple stuff" also finds values containing only "stuff".
func textHit(value, operand string, phrase bool) bool {
	if phrase {
		return match.ContainsPhrase(value, operand)
	}
	for _, token := range match.Tokenize(operand) {
		if match.ContainsTokens(value, token) {
			return true
		}
	}
	return false
}

// Matches reports whether one entity satisfies a boolean predicate. It is
// shared by every backend that scans records rather than indexing them.
func Matches(e *Entity, p *criteria.Predicate) (bool, error) {
	switch p.Target {
	case criteria.TargetAttribute:
		v, ok := e.Attributes[p.Name]
		if !ok {
			return false, nil
		}
		return stringMatch(v.Text, p.Op, p.Operand.Text), nil

	case criteria.TargetProperty:
		v, ok := e.Properties[p.Name]
		if !ok {
			return false, nil
		}
		return matchesValue(v, p)

	case criteria.TargetAnyProperty:
		for _, v := range e.Properties {
			if stringMatch(v.Text, p.Op, p.Operand.Text) {
				return true, nil
			}
		}
		return false, nil

	case criteria.TargetAnyField:
		for _, v := range e.Attributes {
			if stringMatch(v.Text, p.Op, p.Operand.Text) {
				return true, nil
			}
		}
		for _, v := range e.Properties {
			if stringMatch(v.Text, p.Op, p.Operand.Text) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, &types.InvalidCriteriaError{Field: p.FieldLabel(), Operator: string(p.Op)}
}

// matchesValue compares a single property value per the predicate family.
func matchesValue(v types.Value, p *criteria.Predicate) (bool, error) {
	switch p.Family {
	case criteria.FamilyNumber:
		value, ok := numberOf(v)
		if !ok {
			return false, nil
		}
		operand, ok := numberOf(p.Operand)
		if !ok {
			return false, nil
		}
		return orderedMatch(value, operand, p.Op), nil

	case criteria.FamilyDate, criteria.FamilyTimestamp:
		value := v.Time
		if value == nil {
			t, _, err := criteria.ParseTemporal(v.Text)
			if err != nil {
				return false, nil
			}
			value = &t
		}
		return criteria.CompareTemporal(p, *value)

	case criteria.FamilyBoolean:
		if v.Boolean == nil || p.Operand.Boolean == nil {
			return false, nil
		}
		return *v.Boolean == *p.Operand.Boolean, nil

	default:
		return stringMatch(v.Text, p.Op, p.Operand.Text), nil
	}
}

func stringMatch(value string, op criteria.CompareOp, operand string) bool {
	switch op {
	case criteria.OpEquals:
		return match.EqualsFold(value, operand)
	case criteria.OpEqualsWildcards:
		return match.Wildcard(value, operand)
	case criteria.OpStartsWith:
		return match.StartsWith(value, operand)
	case criteria.OpEndsWith:
		return match.EndsWith(value, operand)
	case criteria.OpContains:
		return match.ContainsTokens(value, operand)
	case criteria.OpContainsExactly:
		return match.ContainsPhrase(value, operand)
	}
	return false
}

func orderedMatch(value, operand float64, op criteria.CompareOp) bool {
	switch op {
	case criteria.OpEquals:
		return value == operand
	case criteria.OpGreaterThan:
		return value > operand
	case criteria.OpGreaterOrEqual:
		return value >= operand
	case criteria.OpLessThan:
		return value < operand
	case criteria.OpLessOrEqual:
		return value <= operand
	}
	return false
}

func numberOf(v types.Value) (float64, bool) {
	switch {
	case v.Real != nil:
		return *v.Real, true
	case v.Integer != nil:
		return float64(*v.Integer), true
	}
	f, err := strconv.ParseFloat(v.Text, 64)
	return f, err == nil
}

func attributeLabel(name string) string {
	switch name {
	case "code":
		return "Code"
	case "permId":
		return "Perm ID"
	case "identifier":
		return "Identifier"
	}
	return name
}

func sortedKeys(m map[string]types.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic detail order across runs.
	sort.Strings(keys)
	return keys
}
