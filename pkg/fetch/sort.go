package fetch

// SortFieldKind selects what a sort field reads from an entity.
type SortFieldKind string

const (
	// SortByAttribute orders by a named attribute.
	SortByAttribute SortFieldKind = "attribute"
	// SortByProperty orders by a named property.
	SortByProperty SortFieldKind = "property"
	// SortByScore orders by full-text relevance score. Only meaningful for
	// global-search results.
	SortByScore SortFieldKind = "score"
	// SortByKind orders by entity kind.
	SortByKind SortFieldKind = "kind"
)

// SortField is one key of a multi-key sort. Ascending is the default
// direction for every key.
type SortField struct {
	Kind SortFieldKind
	Name string
	Desc bool
}

// SortOptions is an ordered list of sort fields. Multi-key sorts are
// lexicographic over the field sequence.
type SortOptions struct {
	fields []SortField
}

// Fields returns the sort fields in the order they were added.
func (o *SortOptions) Fields() []SortField {
	if o == nil {
		return nil
	}
	return o.fields
}

// ByAttribute adds a sort key on a named attribute.
func (o *SortOptions) ByAttribute(name string) *SortOrder {
	o.fields = append(o.fields, SortField{Kind: SortByAttribute, Name: name})
	return &SortOrder{opts: o, index: len(o.fields) - 1}
}

// ByProperty adds a sort key on a named property.
func (o *SortOptions) ByProperty(code string) *SortOrder {
	o.fields = append(o.fields, SortField{Kind: SortByProperty, Name: code})
	return &SortOrder{opts: o, index: len(o.fields) - 1}
}

// ByCode adds a sort key on the code attribute.
func (o *SortOptions) ByCode() *SortOrder { return o.ByAttribute("code") }

// ByIdentifier adds a sort key on the identifier attribute.
func (o *SortOptions) ByIdentifier() *SortOrder { return o.ByAttribute("identifier") }

// ByScore adds a sort key on the full-text relevance score. Ascending is the
// default here too; call Desc for best-first ordering.
func (o *SortOptions) ByScore() *SortOrder {
	o.fields = append(o.fields, SortField{Kind: SortByScore})
	return &SortOrder{opts: o, index: len(o.fields) - 1}
}

// ByKind adds a sort key on the entity kind.
func (o *SortOptions) ByKind() *SortOrder {
	o.fields = append(o.fields, SortField{Kind: SortByKind})
	return &SortOrder{opts: o, index: len(o.fields) - 1}
}

// SortOrder sets the direction of one sort field.
type SortOrder struct {
	opts  *SortOptions
	index int
}

// Asc orders ascending (the default).
func (s *SortOrder) Asc() { s.opts.fields[s.index].Desc = false }

// Desc orders descending.
func (s *SortOrder) Desc() { s.opts.fields[s.index].Desc = true }
