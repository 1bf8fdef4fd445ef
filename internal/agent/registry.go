// Package agent implements the specialist agents: prompt construction over
// sanitized board content, the model completion call, fixed-grammar response
// parsing, and delegation extraction. One agent exists per domain; the
// registry of definitions is embedded at build time.
package agent

import (
	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/droverhq/drover/internal/domain"
	"github.com/droverhq/drover/internal/errors"
)

//go:embed definitions.yaml
var definitionsYAML []byte

// Definition describes one specialist agent: its domain, its model persona,
// and the board label color used when routing cards to it.
type Definition struct {
	Domain       domain.Domain `yaml:"domain"`
	Name         string        `yaml:"name"`
	Description  string        `yaml:"description"`
	LabelColor   string        `yaml:"label_color"`
	Capabilities []string      `yaml:"capabilities"`
	SystemPrompt string        `yaml:"system_prompt"`
}

// Registry holds the loaded agent definitions, one per domain.
type Registry struct {
	byDomain map[domain.Domain]*Definition
	order    []domain.Domain
}

// LoadRegistry parses the embedded definitions. It fails on an unknown or
// duplicated domain, and on any domain left without a definition, so a valid
// registry always covers the full domain set.
func LoadRegistry() (*Registry, error) {
	var file struct {
		Agents []*Definition `yaml:"agents"`
	}
	if err := yaml.Unmarshal(definitionsYAML, &file); err != nil {
		return nil, errors.Wrap(err, "parsing agent definitions")
	}

	r := &Registry{byDomain: make(map[domain.Domain]*Definition, len(file.Agents))}
	for _, def := range file.Agents {
		if _, err := domain.ValidateDomain(string(def.Domain)); err != nil {
			return nil, errors.Wrapf(err, "agent %q", def.Name)
		}
		if _, exists := r.byDomain[def.Domain]; exists {
			return nil, errors.Wrapf(errors.ErrInvalidDomain, "duplicate agent definition for %q", def.Domain)
		}
		r.byDomain[def.Domain] = def
		r.order = append(r.order, def.Domain)
	}

	for _, d := range domain.Domains() {
		if _, ok := r.byDomain[d]; !ok {
			return nil, errors.Wrapf(errors.ErrNoAgentForDomain, "domain %q has no definition", d)
		}
	}
	return r, nil
}

// ForDomain returns the definition for a domain.
func (r *Registry) ForDomain(d domain.Domain) (*Definition, error) {
	def, ok := r.byDomain[d]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNoAgentForDomain, "domain %q", d)
	}
	return def, nil
}

// All returns every definition in declaration order.
func (r *Registry) All() []*Definition {
	defs := make([]*Definition, 0, len(r.order))
	for _, d := range r.order {
		defs = append(defs, r.byDomain[d])
	}
	return defs
}

// LabelColors maps each domain to its agent's board label color.
func (r *Registry) LabelColors() map[domain.Domain]string {
	colors := make(map[domain.Domain]string, len(r.byDomain))
	for d, def := range r.byDomain {
		colors[d] = def.LabelColor
	}
	return colors
}
