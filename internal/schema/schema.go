// Package schema holds the declarative field-alias table that maps each
// semantic attribute of a record kind to an ordered list of acceptable
// field names. Keeping the table as data lets the Airtable base rename
// columns without code changes.
package schema

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliases []byte

// AliasSet is an ordered list of candidate field names for one semantic
// attribute. Order defines precedence: the first name present on a record
// wins regardless of its value.
type AliasSet []string

// Schema maps record kind -> attribute -> alias set.
type Schema map[string]map[string]AliasSet

// Load parses the embedded default alias table.
func Load() (Schema, error) {
	return parse(defaultAliases)
}

// LoadFile parses an alias table from a YAML file, for deployments that
// override the embedded defaults.
func LoadFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFile: read %s: %w", path, err)
	}
	return parse(data)
}

// Aliases returns the alias set for an attribute of a kind. A missing kind
// or attribute yields an empty set, which resolves every record to absent.
func (s Schema) Aliases(kind, attribute string) AliasSet {
	attrs, ok := s[kind]
	if !ok {
		return nil
	}
	return attrs[attribute]
}

func parse(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse alias table: %w", err)
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("parse alias table: no kinds defined")
	}
	return s, nil
}
