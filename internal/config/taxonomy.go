package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bizpilot/internal/logging"
	"bizpilot/internal/perception"
	"bizpilot/internal/types"
)

// taxonomyFile is the YAML shape of a taxonomy override file.
type taxonomyFile struct {
	Domains []taxonomyDomain `yaml:"domains"`
}

type taxonomyDomain struct {
	Domain   string           `yaml:"domain"`
	Keywords []string         `yaml:"keywords"`
	Intents  []taxonomyIntent `yaml:"intents"`
}

type taxonomyIntent struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// LoadTaxonomy reads a taxonomy override file. Domain declaration order in
// the file is preserved; it is the matcher's tie-break order. Unknown domain
// names are rejected so a typo cannot silently drop a domain's rules.
func LoadTaxonomy(path string) ([]perception.DomainTaxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}

	var file taxonomyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy file: %w", err)
	}
	if len(file.Domains) == 0 {
		return nil, fmt.Errorf("taxonomy file defines no domains")
	}

	out := make([]perception.DomainTaxonomy, 0, len(file.Domains))
	for _, d := range file.Domains {
		domain := types.AgentDomain(d.Domain)
		if !domain.Valid() || domain == types.AgentCopilot {
			return nil, fmt.Errorf("taxonomy file references unknown domain %q", d.Domain)
		}
		dt := perception.DomainTaxonomy{
			Domain:   domain,
			Keywords: d.Keywords,
		}
		for _, in := range d.Intents {
			if in.Name == "" {
				return nil, fmt.Errorf("taxonomy domain %q has an unnamed intent", d.Domain)
			}
			dt.Intents = append(dt.Intents, perception.IntentDef{
				Name:     in.Name,
				Keywords: in.Keywords,
			})
		}
		out = append(out, dt)
	}
	return out, nil
}

// ResolveTaxonomy returns the taxonomy the matcher should use: the override
// file when configured and readable, the built-in corpus otherwise.
func (c *Config) ResolveTaxonomy() []perception.DomainTaxonomy {
	if c.TaxonomyPath == "" {
		return perception.DefaultTaxonomy()
	}
	taxonomy, err := LoadTaxonomy(c.TaxonomyPath)
	if err != nil {
		// A broken override must not take the assistant down.
		logging.ConfigWarn("taxonomy override %s unusable, using built-in: %v", c.TaxonomyPath, err)
		return perception.DefaultTaxonomy()
	}
	logging.Config("taxonomy loaded from %s (%d domains)", c.TaxonomyPath, len(taxonomy))
	return taxonomy
}
