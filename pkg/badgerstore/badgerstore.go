package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/tracelab/entiq/pkg/criteria"
	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/memstore"
	"github.com/tracelab/entiq/pkg/types"
)

// record is the stored form of one entity. Relations hold rendered
// references so the record stays a flat JSON document.
type record struct {
	Attributes map[string]types.Value `json:"attributes,omitempty"`
	Properties map[string]types.Value `json:"properties,omitempty"`
	Relations  map[string][]string    `json:"relations,omitempty"`
}

// Store wraps a BadgerDB instance holding entity records.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens a BadgerDB database at the given path, creating the directory
// if needed. An empty path opens an in-memory database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if err := os.MkdirAll(path, 0755); err != nil {
				return nil, err
			}
			info, err = os.Stat(path)
			if err != nil {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", path)
		}
		opts = badger.DefaultOptions(path)
	}

	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func entityKey(ref types.EntityRef) []byte {
	return []byte(fmt.Sprintf("ent:%s:%s", ref.Kind, ref.ID))
}

func kindPrefix(kind types.Kind) []byte {
	return []byte(fmt.Sprintf("ent:%s:", kind))
}

// Put stores or replaces one entity record.
func (s *Store) Put(_ context.Context, e *memstore.Entity) error {
	rec := record{
		Attributes: e.Attributes,
		Properties: e.Properties,
	}
	if len(e.Relations) > 0 {
		rec.Relations = make(map[string][]string, len(e.Relations))
		for name, targets := range e.Relations {
			rendered := make([]string, len(targets))
			for i, t := range targets {
				rendered[i] = t.String()
			}
			rec.Relations[name] = rendered
		}
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Ref, err)
	}
	return s.db.Update(func(tx *badger.Txn) error {
		return tx.Set(entityKey(e.Ref), value)
	})
}

// Seed stores a batch of entities.
func (s *Store) Seed(ctx context.Context, entities []*memstore.Entity) error {
	for _, e := range entities {
		if err := s.Put(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// get reads and decodes one record inside tx. A missing key maps to
// types.ErrNotExists.
func get(tx *badger.Txn, ref types.EntityRef) (*memstore.Entity, error) {
	item, err := tx.Get(entityKey(ref))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, types.ErrNotExists
	}
	if err != nil {
		return nil, err
	}

	var rec record
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}
	return decode(ref, rec)
}

func decode(ref types.EntityRef, rec record) (*memstore.Entity, error) {
	e := &memstore.Entity{
		Ref:        ref,
		Attributes: rec.Attributes,
		Properties: rec.Properties,
	}
	if e.Attributes == nil {
		e.Attributes = map[string]types.Value{}
	}
	if e.Properties == nil {
		e.Properties = map[string]types.Value{}
	}
	if len(rec.Relations) > 0 {
		e.Relations = make(map[string][]types.EntityRef, len(rec.Relations))
		for name, rendered := range rec.Relations {
			targets := make([]types.EntityRef, len(rendered))
			for i, r := range rendered {
				target, err := types.ParseRef(r)
				if err != nil {
					return nil, fmt.Errorf("decode %s relation %s: %w", ref, name, err)
				}
				targets[i] = target
			}
			e.Relations[name] = targets
		}
	}
	return e, nil
}

// scan visits every entity of a kind in key order.
func (s *Store) scan(kind types.Kind, fn func(e *memstore.Entity) error) error {
	prefix := kindPrefix(kind)
	return s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			ref := types.EntityRef{Kind: kind, ID: string(item.Key()[len(prefix):])}

			var rec record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", ref, err)
			}
			e, err := decode(ref, rec)
			if err != nil {
				return err
			}
			if err := fn(e); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadAttributes implements provider.EntityLoader.
func (s *Store) LoadAttributes(_ context.Context, ref types.EntityRef) (map[string]types.Value, error) {
	var attrs map[string]types.Value
	err := s.db.View(func(tx *badger.Txn) error {
		e, err := get(tx, ref)
		if err != nil {
			return err
		}
		attrs = e.Attributes
		return nil
	})
	return attrs, err
}

// LoadProperties implements provider.EntityLoader.
func (s *Store) LoadProperties(_ context.Context, ref types.EntityRef) (map[string]types.Value, error) {
	var props map[string]types.Value
	err := s.db.View(func(tx *badger.Txn) error {
		e, err := get(tx, ref)
		if err != nil {
			return err
		}
		props = e.Properties
		return nil
	})
	return props, err
}

// LoadProperty implements provider.EntityLoader.
func (s *Store) LoadProperty(_ context.Context, ref types.EntityRef, code string) (types.Value, error) {
	var value types.Value
	err := s.db.View(func(tx *badger.Txn) error {
		e, err := get(tx, ref)
		if err != nil {
			return err
		}
		v, ok := e.Properties[code]
		if !ok {
			return types.ErrNoValue
		}
		value = v
		return nil
	})
	return value, err
}

// LoadRelation implements provider.EntityLoader, applying the requested sort
// and page window. Sort fields compare the rendered values of the related
// records, read in the same transaction.
func (s *Store) LoadRelation(_ context.Context, ref types.EntityRef, relation string, sortOpts *fetch.SortOptions, page *fetch.Page) ([]types.EntityRef, error) {
	var refs []types.EntityRef
	err := s.db.View(func(tx *badger.Txn) error {
		e, err := get(tx, ref)
		if err != nil {
			return err
		}
		refs = append([]types.EntityRef(nil), e.Relations[relation]...)

		fields := sortOpts.Fields()
		if len(fields) > 0 {
			values := make(map[types.EntityRef][]string, len(refs))
			for _, r := range refs {
				target, err := get(tx, r)
				if errors.Is(err, types.ErrNotExists) {
					values[r] = make([]string, len(fields))
					continue
				}
				if err != nil {
					return err
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
		refs = refs[start:end]
		return nil
	})
	return refs, err
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
func (s *Store) AllOf(_ context.Context, kind types.Kind) ([]types.EntityRef, error) {
	var refs []types.EntityRef
	err := s.scan(kind, func(e *memstore.Entity) error {
		refs = append(refs, e.Ref)
		return nil
	})
	return refs, err
}

// MatchPredicate implements provider.MatchProvider by scanning the kind
// prefix and evaluating each record.
func (s *Store) MatchPredicate(_ context.Context, kind types.Kind, p *criteria.Predicate) ([]types.EntityRef, error) {
	var refs []types.EntityRef
	err := s.scan(kind, func(e *memstore.Entity) error {
		ok, err := memstore.Matches(e, p)
		if err != nil {
			return err
		}
		if ok {
			refs = append(refs, e.Ref)
		}
		return nil
	})
	return refs, err
}

// MatchText implements provider.MatchProvider.
func (s *Store) MatchText(_ context.Context, kind types.Kind, p *criteria.Predicate) ([]types.RankedMatch, error) {
	var matches []types.RankedMatch
	err := s.scan(kind, func(e *memstore.Entity) error {
		if m, ok := memstore.ScoreText(e, p); ok {
			matches = append(matches, m)
		}
		return nil
	})
	return matches, err
}

// MatchRelated implements provider.MatchProvider. A nil related set selects
// entities with any related entity under the relation.
func (s *Store) MatchRelated(_ context.Context, kind types.Kind, relation string, related []types.EntityRef) ([]types.EntityRef, error) {
	wanted := make(map[types.EntityRef]bool, len(related))
	for _, r := range related {
		wanted[r] = true
	}

	var refs []types.EntityRef
	err := s.scan(kind, func(e *memstore.Entity) error {
		for _, target := range e.Relations[relation] {
			if related == nil || wanted[target] {
				refs = append(refs, e.Ref)
				break
			}
		}
		return nil
	})
	return refs, err
}
