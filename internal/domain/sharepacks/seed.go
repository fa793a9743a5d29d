package sharepacks

import (
	_ "embed"
	"fmt"
	"sort"

	"stable-sharing/internal/domain/scope"

	"gopkg.in/yaml.v3"
)

//go:embed seed_packs.yaml
var seedYAML []byte

type seedFile struct {
	Packs []struct {
		Key         string           `yaml:"key"`
		Name        string           `yaml:"name"`
		Description string           `yaml:"description"`
		Scope       scope.Descriptor `yaml:"scope"`
	} `yaml:"packs"`
}

// ParseSystemPacks lee un catálogo de sistema en YAML.
func ParseSystemPacks(raw []byte) ([]Pack, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("sharepacks: parse seed: %w", err)
	}
	if len(f.Packs) == 0 {
		return nil, fmt.Errorf("sharepacks: seed has no packs")
	}

	seen := map[string]bool{}
	out := make([]Pack, 0, len(f.Packs))
	for _, p := range f.Packs {
		if !validKey(p.Key) {
			return nil, fmt.Errorf("sharepacks: invalid seed key %q", p.Key)
		}
		if seen[p.Key] {
			return nil, fmt.Errorf("sharepacks: duplicated seed key %q", p.Key)
		}
		if err := p.Scope.Validate(); err != nil {
			return nil, fmt.Errorf("sharepacks: seed %s: %w", p.Key, err)
		}
		seen[p.Key] = true
		out = append(out, Pack{
			Key:         p.Key,
			Name:        p.Name,
			Description: p.Description,
			Scope:       p.Scope,
			IsSystem:    true,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// DefaultSystemPacks es el catálogo embebido. Un seed inválido es un bug de build.
func DefaultSystemPacks() []Pack {
	packs, err := ParseSystemPacks(seedYAML)
	if err != nil {
		panic(err)
	}
	return packs
}
