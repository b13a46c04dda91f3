package criteria

import (
	"github.com/tracelab/entiq/pkg/types"
)

// Operator combines the children of a composite.
type Operator string

const (
	// And requires every child to hold. It is the default operator at every
	// composite level.
	And Operator = "AND"
	// Or requires at least one child to hold.
	Or Operator = "OR"
)

// CompareOp is the comparison applied by a predicate.
type CompareOp string

const (
	OpEquals          CompareOp = "equals"
	OpEqualsWildcards CompareOp = "equalsWithWildcards"
	OpStartsWith      CompareOp = "startsWith"
	OpEndsWith        CompareOp = "endsWith"
	OpContains        CompareOp = "contains"
	OpContainsExactly CompareOp = "containsExactly"
	OpGreaterThan     CompareOp = "greaterThan"
	OpGreaterOrEqual  CompareOp = "greaterOrEqual"
	OpLessThan        CompareOp = "lessThan"
	OpLessOrEqual     CompareOp = "lessOrEqual"
)

// IsTextOnly reports whether the operator is defined for text values only.
func (op CompareOp) IsTextOnly() bool {
	switch op {
	case OpEqualsWildcards, OpStartsWith, OpEndsWith, OpContains, OpContainsExactly:
		return true
	}
	return false
}

// IsOrdering reports whether the operator compares ordered values.
func (op CompareOp) IsOrdering() bool {
	switch op {
	case OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual:
		return true
	}
	return false
}

// FieldTarget selects what part of an entity a predicate applies to.
type FieldTarget string

const (
	// TargetAttribute matches a built-in attribute such as code or permId.
	TargetAttribute FieldTarget = "attribute"
	// TargetProperty matches a single named property.
	TargetProperty FieldTarget = "property"
	// TargetAnyProperty matches across all properties with OR semantics.
	TargetAnyProperty FieldTarget = "anyProperty"
	// TargetAnyField matches across all properties and attributes with OR
	// semantics.
	TargetAnyField FieldTarget = "anyField"
	// TargetText is the global full-text mode producing scored matches.
	TargetText FieldTarget = "text"
)

// Family records which predicate family the caller used, so validation can
// catch a string predicate aimed at a DATE property and point at the right
// family in the diagnostic.
type Family string

const (
	FamilyString    Family = "string"
	FamilyNumber    Family = "number"
	FamilyDate      Family = "date"
	FamilyTimestamp Family = "timestamp"
	FamilyBoolean   Family = "boolean"
)

// Node is one node of a criteria tree. The interface is sealed: only
// Composite, Predicate, and Relation implement it, which keeps type switches
// in evaluators exhaustive.
type Node interface {
	criteriaNode()
}

// Composite combines child nodes under a boolean operator. Children keep
// their insertion order.
type Composite struct {
	Op       Operator
	Children []Node
}

func (*Composite) criteriaNode() {}

// Predicate is a leaf comparison against an attribute, a property, any
// property, any field, or the full-text index.
type Predicate struct {
	Target  FieldTarget
	Name    string // attribute name or property code; empty for any/text targets
	Op      CompareOp
	Operand types.Value
	Family  Family
	// TimeZone is an hour offset attached to DATE predicates only.
	TimeZone *int
}

func (*Predicate) criteriaNode() {}

// FieldLabel renders the predicate's field for diagnostics.
func (p *Predicate) FieldLabel() string {
	switch p.Target {
	case TargetProperty:
		return "Property '" + p.Name + "'"
	case TargetAnyProperty:
		return "any property"
	case TargetAnyField:
		return "any field"
	case TargetText:
		return "full text"
	default:
		return "Attribute '" + p.Name + "'"
	}
}

// Relation nests criteria for a related kind. A nil or empty nested criteria
// means "has a non-null relation of this name"; Negated inverts that to
// "has no such relation".
type Relation struct {
	Name    string
	Kind    types.Kind
	Negated bool
	Nested  *Criteria
}

func (*Relation) criteriaNode() {}

// Criteria is a buildable criteria tree scoped to one entity kind.
type Criteria struct {
	kind     types.Kind
	op       Operator
	children []Node
}

// For starts a criteria tree for entities of the given kind.
func For(kind types.Kind) *Criteria {
	return &Criteria{kind: kind, op: And}
}

// Kind returns the entity kind the criteria are scoped to.
func (c *Criteria) Kind() types.Kind { return c.kind }

// Operator returns the composite operator, And unless WithOrOperator was
// called.
func (c *Criteria) Operator() Operator { return c.op }

// Nodes returns the child nodes in insertion order.
func (c *Criteria) Nodes() []Node { return c.children }

// WithOrOperator switches the top-level composite to OR semantics.
func (c *Criteria) WithOrOperator() *Criteria {
	c.op = Or
	return c
}

// WithAndOperator switches the top-level composite back to AND semantics.
func (c *Criteria) WithAndOperator() *Criteria {
	c.op = And
	return c
}

// Root builds the composite node for the whole tree.
func (c *Criteria) Root() *Composite {
	return &Composite{Op: c.op, Children: c.children}
}

func (c *Criteria) add(n Node) { c.children = append(c.children, n) }

// Add appends a prebuilt node. Transports deserializing criteria use this;
// everything else goes through the typed builders.
func (c *Criteria) Add(n Node) *Criteria {
	c.add(n)
	return c
}

// WithCode adds a predicate on the code attribute.
func (c *Criteria) WithCode() *StringField {
	return &StringField{c: c, target: TargetAttribute, name: AttributeCode}
}

// WithPermID adds a predicate on the permanent-id attribute.
func (c *Criteria) WithPermID() *StringField {
	return &StringField{c: c, target: TargetAttribute, name: AttributePermID}
}

// WithIdentifier adds a predicate on the identifier attribute.
func (c *Criteria) WithIdentifier() *StringField {
	return &StringField{c: c, target: TargetAttribute, name: AttributeIdentifier}
}

// WithAttribute adds a predicate on an arbitrary named attribute.
func (c *Criteria) WithAttribute(name string) *StringField {
	return &StringField{c: c, target: TargetAttribute, name: name}
}

// WithProperty adds a string predicate on a named property.
func (c *Criteria) WithProperty(code string) *StringField {
	return &StringField{c: c, target: TargetProperty, name: code}
}

// WithNumberProperty adds a numeric predicate on a named property.
func (c *Criteria) WithNumberProperty(code string) *NumberField {
	return &NumberField{c: c, name: code}
}

// WithDateProperty adds a date predicate on a named property. A time-zone
// offset may be attached with WithTimeZone.
func (c *Criteria) WithDateProperty(code string) *DateField {
	return &DateField{c: c, name: code, family: FamilyDate}
}

// WithTimestampProperty adds a timestamp predicate on a named property.
// Timestamp values are already zone-qualified, so no time zone can be
// attached.
func (c *Criteria) WithTimestampProperty(code string) *DateField {
	return &DateField{c: c, name: code, family: FamilyTimestamp}
}

// WithBooleanProperty adds a boolean predicate on a named property.
func (c *Criteria) WithBooleanProperty(code string) *BooleanField {
	return &BooleanField{c: c, name: code}
}

// WithAnyProperty matches across every property of the candidate with OR
// semantics, regardless of the enclosing composite operator.
func (c *Criteria) WithAnyProperty() *StringField {
	return &StringField{c: c, target: TargetAnyProperty}
}

// WithAnyField matches across every property and attribute of the candidate
// with OR semantics.
func (c *Criteria) WithAnyField() *StringField {
	return &StringField{c: c, target: TargetAnyField}
}

// WithText enters full-text mode. Text predicates produce scored matches.
func (c *Criteria) WithText() *TextField {
	return &TextField{c: c}
}

// WithRelation nests criteria for a named relation to the given kind. The
// returned criteria are scoped to the related kind; leaving them empty means
// "has a non-null relation".
func (c *Criteria) WithRelation(name string, kind types.Kind) *Criteria {
	nested := For(kind)
	c.add(&Relation{Name: name, Kind: kind, Nested: nested})
	return nested
}

// WithoutRelation selects entities that have no related entity under the
// named relation.
func (c *Criteria) WithoutRelation(name string, kind types.Kind) *Criteria {
	c.add(&Relation{Name: name, Kind: kind, Negated: true})
	return c
}

// Relation sugar for the common schema. Each is shorthand for WithRelation
// with the conventional relation name.

func (c *Criteria) WithExperiment() *Criteria { return c.WithRelation("experiment", types.KindExperiment) }
func (c *Criteria) WithSample() *Criteria     { return c.WithRelation("sample", types.KindSample) }
func (c *Criteria) WithSpace() *Criteria      { return c.WithRelation("space", types.KindSpace) }
func (c *Criteria) WithProject() *Criteria    { return c.WithRelation("project", types.KindProject) }
func (c *Criteria) WithContainer() *Criteria  { return c.WithRelation("container", types.KindSample) }
func (c *Criteria) WithParents() *Criteria    { return c.WithRelation("parents", c.kind) }
func (c *Criteria) WithChildren() *Criteria   { return c.WithRelation("children", c.kind) }

func (c *Criteria) WithoutExperiment() *Criteria {
	return c.WithoutRelation("experiment", types.KindExperiment)
}

func (c *Criteria) WithoutContainer() *Criteria {
	return c.WithoutRelation("container", types.KindSample)
}

func (c *Criteria) WithoutSpace() *Criteria {
	return c.WithoutRelation("space", types.KindSpace)
}

// Well-known attribute names.
const (
	AttributeCode       = "code"
	AttributePermID     = "permId"
	AttributeIdentifier = "identifier"
)
