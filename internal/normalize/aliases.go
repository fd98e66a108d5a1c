package normalize

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliasesYAML []byte

// Aliases canonicalizes entity names so identity stays stable across the
// whole date range.
type Aliases struct {
	Countries map[string]string `yaml:"countries"`
	Provinces map[string]string `yaml:"provinces"`
}

// DefaultAliases returns the built-in alias table.
func DefaultAliases() *Aliases {
	a, err := ParseAliases(defaultAliasesYAML)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseAliases decodes an alias table from YAML.
func ParseAliases(data []byte) (*Aliases, error) {
	var a Aliases
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, eris.Wrap(err, "normalize: parse aliases")
	}
	if a.Countries == nil {
		a.Countries = map[string]string{}
	}
	if a.Provinces == nil {
		a.Provinces = map[string]string{}
	}
	return &a, nil
}

// Country returns the canonical country name.
func (a *Aliases) Country(name string) string {
	name = strings.TrimSpace(name)
	if c, ok := a.Countries[name]; ok {
		return c
	}
	return name
}

// Province returns the canonical province/state name.
func (a *Aliases) Province(name string) string {
	name = strings.TrimSpace(name)
	if c, ok := a.Provinces[name]; ok {
		return c
	}
	return name
}
