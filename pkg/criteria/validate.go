package criteria

import (
	"github.com/tracelab/entiq/pkg/types"
)

// Schema resolves declared property types for validation. Unknown properties
// resolve to false and are left unvalidated; they simply match nothing at
// evaluation time.
type Schema interface {
	PropertyType(kind types.Kind, code string) (types.PropertyType, bool)
}

// Validate checks the criteria tree against the operator / data-type
// contract before any evaluation. A violation is an
// *types.InvalidCriteriaError naming the offending field and the predicate
// family that should have been used; it aborts the whole call.
func Validate(c *Criteria, schema Schema) error {
	return validateNodes(c.Kind(), c.Nodes(), schema)
}

func validateNodes(kind types.Kind, nodes []Node, schema Schema) error {
	for _, n := range nodes {
		switch node := n.(type) {
		case *Composite:
			if err := validateNodes(kind, node.Children, schema); err != nil {
				return err
			}
		case *Predicate:
			if err := validatePredicate(kind, node, schema); err != nil {
				return err
			}
		case *Relation:
			if node.Nested != nil {
				if err := Validate(node.Nested, schema); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validatePredicate(kind types.Kind, p *Predicate, schema Schema) error {
	// Time zones are an hour offset applied to DATE operands; TIMESTAMP
	// values are already zone-qualified.
	if p.TimeZone != nil && p.Family != FamilyDate {
		return &types.InvalidCriteriaError{
			Field:      p.FieldLabel(),
			Operator:   string(p.Op),
			Suggestion: "a DATE property predicate; time zones cannot be attached to TIMESTAMP predicates",
		}
	}

	if p.Family == FamilyDate || p.Family == FamilyTimestamp {
		// Parse eagerly so malformed operands and a time of day on a DATE
		// predicate surface before evaluation.
		if _, err := p.TemporalOperand(); err != nil {
			return err
		}
	}

	if p.Target != TargetProperty {
		return nil
	}

	declared, known := schema.PropertyType(kind, p.Name)
	if !known {
		return nil
	}

	switch {
	case p.Op.IsTextOnly() && declared != types.PropertyTypeText:
		return &types.InvalidCriteriaError{
			Field:      p.FieldLabel(),
			Operator:   string(p.Op),
			Suggestion: suggestionFor(declared),
		}
	case p.Op.IsOrdering() && !declared.IsNumeric() && !declared.IsTemporal():
		return &types.InvalidCriteriaError{
			Field:      p.FieldLabel(),
			Operator:   string(p.Op),
			Suggestion: "string property predicates (equals, startsWith, contains)",
		}
	case p.Family == FamilyNumber && !declared.IsNumeric():
		return &types.InvalidCriteriaError{
			Field:      p.FieldLabel(),
			Operator:   string(p.Op),
			Suggestion: suggestionFor(declared),
		}
	case (p.Family == FamilyDate || p.Family == FamilyTimestamp) && !declared.IsTemporal():
		return &types.InvalidCriteriaError{
			Field:      p.FieldLabel(),
			Operator:   string(p.Op),
			Suggestion: suggestionFor(declared),
		}
	}
	return nil
}

func suggestionFor(t types.PropertyType) string {
	switch {
	case t.IsNumeric():
		return "number property predicates (equals, greater/less than)"
	case t.IsTemporal():
		return "date property predicates (equals, earlier/later than)"
	case t == types.PropertyTypeBoolean:
		return "boolean property predicates (equals)"
	default:
		return "string property predicates (equals, startsWith, contains)"
	}
}
