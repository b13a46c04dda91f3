package memstore

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tracelab/entiq/pkg/types"
)

// fixtureDoc is the YAML shape of a store fixture.
type fixtureDoc struct {
	Schema   map[string]map[string]string `yaml:"schema"`
	Entities []fixtureEntity              `yaml:"entities"`
	Hidden   []string                     `yaml:"hidden"`
}

type fixtureEntity struct {
	Kind       string                 `yaml:"kind"`
	ID         string                 `yaml:"id"`
	Attributes map[string]string      `yaml:"attributes"`
	Properties map[string]interface{} `yaml:"properties"`
	Relations  map[string][]string    `yaml:"relations"`
}

// LoadYAML loads a fixture document into the store. Relations reference
// other entities as "KIND:id" strings; property values keep their YAML
// scalar type.
func (s *Store) LoadYAML(data []byte) error {
	var doc fixtureDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse fixture: %w", err)
	}

	for kind, props := range doc.Schema {
		for code, t := range props {
			s.Define(types.Kind(kind), code, types.PropertyType(t))
		}
	}

	for _, fe := range doc.Entities {
		if fe.Kind == "" || fe.ID == "" {
			return fmt.Errorf("fixture entity missing kind or id: %+v", fe)
		}
		e := Entity{
			Ref:        types.EntityRef{Kind: types.Kind(fe.Kind), ID: fe.ID},
			Attributes: map[string]types.Value{},
			Properties: map[string]types.Value{},
			Relations:  map[string][]types.EntityRef{},
		}
		for name, v := range fe.Attributes {
			e.Attributes[name] = types.TextValue(v)
		}
		for code, v := range fe.Properties {
			e.Properties[code] = scalarValue(v)
		}
		for name, targets := range fe.Relations {
			for _, t := range targets {
				ref, err := types.ParseRef(t)
				if err != nil {
					return fmt.Errorf("fixture entity %s/%s: %w", fe.Kind, fe.ID, err)
				}
				e.Relations[name] = append(e.Relations[name], ref)
			}
		}
		s.Put(e)
	}

	for _, h := range doc.Hidden {
		ref, err := types.ParseRef(h)
		if err != nil {
			return err
		}
		s.Hide(ref)
	}
	return nil
}

// LoadFile loads a YAML fixture file.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture file: %w", err)
	}
	return s.LoadYAML(data)
}

func scalarValue(v interface{}) types.Value {
	switch x := v.(type) {
	case bool:
		return types.BooleanValue(x)
	case int:
		return types.IntegerValue(int64(x))
	case int64:
		return types.IntegerValue(x)
	case float64:
		return types.RealValue(x)
	case string:
		return types.TextValue(x)
	default:
		return types.TextValue(fmt.Sprintf("%v", x))
	}
}
