package schema

import (
	"fmt"
	"os"
	"slices"

	"github.com/jinzhu/inflection"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

// Definitions maps table names to declared models.
type Definitions map[string]*models.Model

type definitionsFile struct {
	Models map[string]*models.Model `yaml:"models"`
}

// LoadDefinitions reads declared models from a YAML file:
//
//	models:
//	  products:
//	    enums:
//	      - field: status
//	        values: [draft, active, archived]
//	    validators:
//	      - kind: length
//	        attributes: [name]
//	        options: {minimum: 3, maximum: 50}
//	    associations:
//	      - name: category
//	        macro: belongs_to
//	        table: categories
//	        foreign_key: category_id
//
// An empty path yields no definitions.
func LoadDefinitions(path string) (Definitions, error) {
	if path == "" {
		return Definitions{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model definitions: %w", err)
	}
	return ParseDefinitions(data)
}

// ParseDefinitions decodes and checks a definitions document.
func ParseDefinitions(data []byte) (Definitions, error) {
	var file definitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse model definitions: %w", err)
	}

	defs := make(Definitions, len(file.Models))
	for table, m := range file.Models {
		if m == nil {
			m = &models.Model{}
		}
		if m.TableName == "" {
			m.TableName = table
		}
		for i, a := range m.Associations {
			if !slices.Contains(models.ValidMacros, a.Macro) {
				return nil, fmt.Errorf("model %s: association %q has unknown macro %q", table, a.Name, a.Macro)
			}
			if a.IsBelongsTo() && a.ForeignKey == "" {
				m.Associations[i].ForeignKey = a.Name + "_id"
			}
			if a.Table == "" {
				m.Associations[i].Table = inflection.Plural(a.Name)
			}
		}
		for _, v := range m.Validators {
			if len(v.Attributes) == 0 {
				return nil, fmt.Errorf("model %s: validator %q has no attributes", table, v.Kind)
			}
		}
		defs[table] = m
	}
	return defs, nil
}

// Get returns the definition for table, or nil.
func (d Definitions) Get(table string) *models.Model {
	if d == nil {
		return nil
	}
	return d[table]
}
