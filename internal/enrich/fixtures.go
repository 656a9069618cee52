package enrich

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"catalognorm/internal/record"
)

// fixtureFile is the on-disk shape of local enrichment data:
//
//	products:
//	  A1: {name: Smart Home Hub, color: White}
//	prices:
//	  A1: 149.99
type fixtureFile struct {
	Products map[string]map[string]any `yaml:"products"`
	Prices   map[string]float64        `yaml:"prices"`
}

// LoadFixtures reads static product and pricing data from a YAML file.
func LoadFixtures(path string) (StaticProducts, StaticPricing, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return StaticProducts{}, StaticPricing{}, err
	}
	return ParseFixtures(b)
}

func ParseFixtures(b []byte) (StaticProducts, StaticPricing, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return StaticProducts{}, StaticPricing{}, fmt.Errorf("enrich: parse fixtures: %w", err)
	}
	items := make(map[string]record.Attributes, len(f.Products))
	for id, fields := range f.Products {
		attrs := make(record.Attributes, len(fields))
		for k, v := range fields {
			raw, err := json.Marshal(v)
			if err != nil {
				return StaticProducts{}, StaticPricing{}, fmt.Errorf("enrich: fixture %s.%s: %w", id, k, err)
			}
			attrs[k] = raw
		}
		items[id] = attrs
	}
	return StaticProducts{Items: items}, StaticPricing{Prices: f.Prices}, nil
}
