package forms

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var defaultCountriesYAML []byte

type Country struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}

// Countries is the catalogue shown in the participant country selector.
type Countries []Country

func (c Countries) Names() []string {
	names := make([]string, 0, len(c))
	for _, country := range c {
		names = append(names, country.Name)
	}
	return names
}

// DefaultCountries parses the embedded catalogue.
func DefaultCountries() (Countries, error) {
	return ParseCountries(defaultCountriesYAML)
}

func ParseCountries(data []byte) (Countries, error) {
	var doc struct {
		Countries Countries `yaml:"countries"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse country catalogue: %w", err)
	}

	seen := make(map[string]bool, len(doc.Countries))
	for i, c := range doc.Countries {
		if strings.TrimSpace(c.Code) == "" || strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("country catalogue entry %d: code and name are required", i)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("country catalogue entry %d: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true
	}
	return doc.Countries, nil
}
