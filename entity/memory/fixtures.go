package memory

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/usagegraph/graph"
)

// Fixtures describes a corpus of objects in YAML form.
type Fixtures struct {
	Types    []TypeFixture   `yaml:"types"`
	Entities []EntityFixture `yaml:"entities"`
}

// TypeFixture describes an object type and its fields.
type TypeFixture struct {
	Name         string         `yaml:"name"`
	Content      bool           `yaml:"content"`
	Revisionable bool           `yaml:"revisionable"`
	Translatable bool           `yaml:"translatable"`
	Fields       []FieldFixture `yaml:"fields"`
}

// FieldFixture describes a field definition.
type FieldFixture struct {
	Name     string            `yaml:"name"`
	Type     string            `yaml:"type"`
	Base     bool              `yaml:"base"`
	Settings map[string]string `yaml:"settings"`
}

// StateFixture holds field values and per-language translation values.
type StateFixture struct {
	Values       map[string]entity.Value            `yaml:"values"`
	Translations map[string]map[string]entity.Value `yaml:"translations"`
}

// EntityFixture describes an object. Revisions are listed oldest first and
// the last one is the current state; objects without revisions use the
// inline state instead.
type EntityFixture struct {
	Type         string         `yaml:"type"`
	ID           string         `yaml:"id"`
	Language     string         `yaml:"language"`
	StateFixture `yaml:",inline"`
	Revisions    []StateFixture `yaml:"revisions"`
}

// LoadFixturesFile reads a fixtures file into a new repository.
func LoadFixturesFile(path string) (*Repository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	defer f.Close()

	return LoadFixtures(f)
}

// LoadFixtures decodes YAML fixtures from r into a new repository.
func LoadFixtures(r io.Reader) (*Repository, error) {
	var fx Fixtures
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}

	repo := NewRepository()
	defs := make(map[string][]entity.FieldDefinition)

	for _, t := range fx.Types {
		repo.DefineType(entity.TypeInfo{
			Name:         t.Name,
			ContentLike:  t.Content,
			Revisionable: t.Revisionable,
			Translatable: t.Translatable,
		})

		for _, f := range t.Fields {
			defs[t.Name] = append(defs[t.Name], entity.FieldDefinition{
				Name:     f.Name,
				Type:     f.Type,
				Base:     f.Base,
				Settings: f.Settings,
			})
		}
	}

	for _, e := range fx.Entities {
		states := e.Revisions
		if len(states) == 0 {
			states = []StateFixture{e.StateFixture}
		}

		for _, state := range states {
			rec := &entity.Record{
				EntityType:  e.Type,
				EntityID:    graph.ID(e.ID),
				Lang:        e.Language,
				Definitions: defs[e.Type],
				Values:      state.Values,
			}

			for lang, values := range state.Translations {
				if rec.Translations == nil {
					rec.Translations = make(map[string]*entity.Record)
				}
				rec.Translations[lang] = &entity.Record{Values: values}
			}

			if _, err := repo.Save(rec); err != nil {
				return nil, fmt.Errorf("load fixtures: %w", err)
			}
		}
	}

	return repo, nil
}
