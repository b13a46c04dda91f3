package neo4jstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/tracelab/entiq/pkg/criteria"
	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/memstore"
	"github.com/tracelab/entiq/pkg/types"
)

// Store implements the entity loader and match provider against a Neo4j
// database.
type Store struct {
	client   neo4j.DriverWithContext
	database string
}

// New creates a store connected to a Neo4j instance.
func New(uri, username, password, database string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	return &Store{client: driver, database: database}, nil
}

// Close closes the underlying driver.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// VerifyConnectivity checks that the database is reachable.
func (s *Store) VerifyConnectivity(ctx context.Context) error {
	return s.client.VerifyConnectivity(ctx)
}

var labelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// labelFor renders a kind as a node label. Labels cannot be parameterized
// in Cypher, so the kind is validated before interpolation.
func labelFor(kind types.Kind) (string, error) {
	if !labelPattern.MatchString(string(kind)) {
		return "", fmt.Errorf("kind %q is not a valid node label", kind)
	}
	return string(kind), nil
}

// Seed stores a batch of entities: first every node, then every
// relationship, so targets exist before they are linked.
func (s *Store) Seed(ctx context.Context, entities []*memstore.Entity) error {
	session := s.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, e := range entities {
			if err := upsertNode(ctx, tx, e); err != nil {
				return nil, err
			}
		}
		for _, e := range entities {
			if err := upsertRelations(ctx, tx, e); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func upsertNode(ctx context.Context, tx neo4j.ManagedTransaction, e *memstore.Entity) error {
	label, err := labelFor(e.Ref.Kind)
	if err != nil {
		return err
	}
	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return fmt.Errorf("encode %s attributes: %w", e.Ref, err)
	}
	props, err := json.Marshal(e.Properties)
	if err != nil {
		return fmt.Errorf("encode %s properties: %w", e.Ref, err)
	}

	query := fmt.Sprintf(`
		MERGE (n:%s {id: $id})
		SET n.kind = $kind, n.attributes = $attributes, n.properties = $properties
	`, label)
	_, err = tx.Run(ctx, query, map[string]any{
		"id":         e.Ref.ID,
		"kind":       string(e.Ref.Kind),
		"attributes": string(attrs),
		"properties": string(props),
	})
	return err
}

func upsertRelations(ctx context.Context, tx neo4j.ManagedTransaction, e *memstore.Entity) error {
	label, err := labelFor(e.Ref.Kind)
	if err != nil {
		return err
	}
	for name, targets := range e.Relations {
		for ord, target := range targets {
			targetLabel, err := labelFor(target.Kind)
			if err != nil {
				return err
			}
			query := fmt.Sprintf(`
				MATCH (a:%s {id: $from}), (b:%s {id: $to})
				MERGE (a)-[r:REL {name: $name, ord: $ord}]->(b)
			`, label, targetLabel)
			_, err = tx.Run(ctx, query, map[string]any{
				"from": e.Ref.ID,
				"to":   target.ID,
				"name": name,
				"ord":  ord,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// read runs a read transaction in a fresh session.
func (s *Store) read(ctx context.Context, fn neo4j.ManagedTransactionWork) (any, error) {
	session := s.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, fn)
}

func decodeValues(raw any) (map[string]types.Value, error) {
	text, ok := raw.(string)
	if !ok || text == "" {
		return map[string]types.Value{}, nil
	}
	values := map[string]types.Value{}
	if err := json.Unmarshal([]byte(text), &values); err != nil {
		return nil, err
	}
	return values, nil
}

// loadEntity reads one node with its relations. Missing nodes map to
// types.ErrNotExists.
func loadEntity(ctx context.Context, tx neo4j.ManagedTransaction, ref types.EntityRef) (*memstore.Entity, error) {
	label, err := labelFor(ref.Kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		MATCH (n:%s {id: $id})
		OPTIONAL MATCH (n)-[r:REL]->(m)
		RETURN n.attributes AS attributes, n.properties AS properties,
		       collect({name: r.name, ord: r.ord, kind: m.kind, id: m.id}) AS relations
	`, label)
	res, err := tx.Run(ctx, query, map[string]any{"id": ref.ID})
	if err != nil {
		return nil, err
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, types.ErrNotExists
	}
	record := records[0]

	attrsRaw, _ := record.Get("attributes")
	attrs, err := decodeValues(attrsRaw)
	if err != nil {
		return nil, fmt.Errorf("decode %s attributes: %w", ref, err)
	}
	propsRaw, _ := record.Get("properties")
	props, err := decodeValues(propsRaw)
	if err != nil {
		return nil, fmt.Errorf("decode %s properties: %w", ref, err)
	}

	e := &memstore.Entity{Ref: ref, Attributes: attrs, Properties: props}

	type link struct {
		name string
		ord  int64
		ref  types.EntityRef
	}
	var links []link
	if raw, found := record.Get("relations"); found {
		entries, _ := raw.([]any)
		for _, entry := range entries {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			name, _ := m["name"].(string)
			if name == "" {
				continue
			}
			ord, _ := m["ord"].(int64)
			kind, _ := m["kind"].(string)
			id, _ := m["id"].(string)
			links = append(links, link{
				name: name,
				ord:  ord,
				ref:  types.EntityRef{Kind: types.Kind(kind), ID: id},
			})
		}
	}
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].name != links[j].name {
			return links[i].name < links[j].name
		}
		return links[i].ord < links[j].ord
	})
	for _, l := range links {
		if e.Relations == nil {
			e.Relations = map[string][]types.EntityRef{}
		}
		e.Relations[l.name] = append(e.Relations[l.name], l.ref)
	}
	return e, nil
}

// kindEntities streams every entity of a kind, ordered by node id.
func (s *Store) kindEntities(ctx context.Context, kind types.Kind) ([]*memstore.Entity, error) {
	label, err := labelFor(kind)
	if err != nil {
		return nil, err
	}

	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := fmt.Sprintf(`
			MATCH (n:%s)
			RETURN n.id AS id
			ORDER BY n.id
		`, label)
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		entities := make([]*memstore.Entity, 0, len(records))
		for _, record := range records {
			idRaw, _ := record.Get("id")
			id, _ := idRaw.(string)
			e, err := loadEntity(ctx, tx, types.EntityRef{Kind: kind, ID: id})
			if err != nil {
				return nil, err
			}
			entities = append(entities, e)
		}
		return entities, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*memstore.Entity), nil
}

// LoadAttributes implements provider.EntityLoader.
func (s *Store) LoadAttributes(ctx context.Context, ref types.EntityRef) (map[string]types.Value, error) {
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		e, err := loadEntity(ctx, tx, ref)
		if err != nil {
			return nil, err
		}
		return e.Attributes, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]types.Value), nil
}

// LoadProperties implements provider.EntityLoader.
func (s *Store) LoadProperties(ctx context.Context, ref types.EntityRef) (map[string]types.Value, error) {
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		e, err := loadEntity(ctx, tx, ref)
		if err != nil {
			return nil, err
		}
		return e.Properties, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]types.Value), nil
}

// LoadProperty implements provider.EntityLoader.
func (s *Store) LoadProperty(ctx context.Context, ref types.EntityRef, code string) (types.Value, error) {
	props, err := s.LoadProperties(ctx, ref)
	if err != nil {
		return types.Value{}, err
	}
	v, ok := props[code]
	if !ok {
		return types.Value{}, types.ErrNoValue
	}
	return v, nil
}

// LoadRelation implements provider.EntityLoader, applying the requested
// sort and page window. Sort fields compare the rendered values of the
// related records.
func (s *Store) LoadRelation(ctx context.Context, ref types.EntityRef, relation string, sortOpts *fetch.SortOptions, page *fetch.Page) ([]types.EntityRef, error) {
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		e, err := loadEntity(ctx, tx, ref)
		if err != nil {
			return nil, err
		}
		refs := append([]types.EntityRef(nil), e.Relations[relation]...)

		fields := sortOpts.Fields()
		if len(fields) > 0 {
			values := make(map[types.EntityRef][]string, len(refs))
			for _, r := range refs {
				target, err := loadEntity(ctx, tx, r)
				if errors.Is(err, types.ErrNotExists) {
					values[r] = make([]string, len(fields))
					continue
				}
				if err != nil {
					return nil, err
				}
				rendered := make([]string, len(fields))
				for i, f := range fields {
					rendered[i] = sortValue(target, f)
				}
				values[r] = rendered
			}
			sort.SliceStable(refs, func(i, j int) bool {
				a, b := values[refs[i]], values[refs[j]]
				for k, f := range fields {
					if a[k] == b[k] {
						continue
					}
					if f.Desc {
						return a[k] > b[k]
					}
					return a[k] < b[k]
				}
				return false
			})
		}

		start, end := page.Apply(len(refs))
		return refs[start:end], nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.EntityRef), nil
}

func sortValue(e *memstore.Entity, f fetch.SortField) string {
	switch f.Kind {
	case fetch.SortByProperty:
		return e.Properties[f.Name].Text
	case fetch.SortByAttribute:
		return e.Attributes[f.Name].Text
	default:
		return ""
	}
}

// AllOf implements provider.MatchProvider.
func (s *Store) AllOf(ctx context.Context, kind types.Kind) ([]types.EntityRef, error) {
	entities, err := s.kindEntities(ctx, kind)
	if err != nil {
		return nil, err
	}
	refs := make([]types.EntityRef, len(entities))
	for i, e := range entities {
		refs[i] = e.Ref
	}
	return refs, nil
}

// MatchPredicate implements provider.MatchProvider.
func (s *Store) MatchPredicate(ctx context.Context, kind types.Kind, p *criteria.Predicate) ([]types.EntityRef, error) {
	entities, err := s.kindEntities(ctx, kind)
	if err != nil {
		return nil, err
	}
	var refs []types.EntityRef
	for _, e := range entities {
		ok, err := memstore.Matches(e, p)
		if err != nil {
			return nil, err
		}
		if ok {
			refs = append(refs, e.Ref)
		}
	}
	return refs, nil
}

// MatchText implements provider.MatchProvider.
func (s *Store) MatchText(ctx context.Context, kind types.Kind, p *criteria.Predicate) ([]types.RankedMatch, error) {
	entities, err := s.kindEntities(ctx, kind)
	if err != nil {
		return nil, err
	}
	var matches []types.RankedMatch
	for _, e := range entities {
		if m, ok := memstore.ScoreText(e, p); ok {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// MatchRelated implements provider.MatchProvider. A nil related set selects
// entities with any related entity under the relation.
func (s *Store) MatchRelated(ctx context.Context, kind types.Kind, relation string, related []types.EntityRef) ([]types.EntityRef, error) {
	entities, err := s.kindEntities(ctx, kind)
	if err != nil {
		return nil, err
	}

	wanted := make(map[types.EntityRef]bool, len(related))
	for _, r := range related {
		wanted[r] = true
	}

	var refs []types.EntityRef
	for _, e := range entities {
		for _, target := range e.Relations[relation] {
			if related == nil || wanted[target] {
				refs = append(refs, e.Ref)
				break
			}
		}
	}
	return refs, nil
}
