package consents

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"stable-sharing/internal/domain/scope"
	"stable-sharing/internal/ports/tenants"

	"gopkg.in/yaml.v3"
)

// PresetGrant describe un grant a sembrar. GrantorKind dice qué parte lo emite.
type PresetGrant struct {
	GrantorKind  tenants.Kind   `yaml:"grantor"`
	ResourceType scope.Category `yaml:"resource"`
	AccessLevel  AccessLevel    `yaml:"access"`
	ForwardOnly  bool           `yaml:"forward_only"`
}

// PresetPolicy decide qué grants sembrar para un par de tipos de tenant.
// Es intercambiable; la tabla por defecto es sólo una heurística de producto.
type PresetPolicy interface {
	PresetsFor(a, b tenants.Kind) []PresetGrant
}

// TablePolicy es una tabla indexada por el par (sin orden) de kinds.
type TablePolicy struct {
	pairs map[pairKey][]PresetGrant
}

type pairKey struct{ lo, hi tenants.Kind }

func keyOf(a, b tenants.Kind) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

func (p *TablePolicy) PresetsFor(a, b tenants.Kind) []PresetGrant {
	if p == nil {
		return nil
	}
	return p.pairs[keyOf(a, b)]
}

//go:embed presets_default.yaml
var defaultPresetsYAML []byte

type presetFile struct {
	Pairs []struct {
		Kinds  []tenants.Kind `yaml:"kinds"`
		Grants []PresetGrant  `yaml:"grants"`
	} `yaml:"pairs"`
}

// ParsePresets arma una TablePolicy desde YAML.
func ParsePresets(raw []byte) (*TablePolicy, error) {
	var f presetFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("consents: parse presets: %w", err)
	}

	p := &TablePolicy{pairs: map[pairKey][]PresetGrant{}}
	for i, pair := range f.Pairs {
		if len(pair.Kinds) != 2 {
			return nil, fmt.Errorf("consents: presets pair %d needs exactly two kinds", i)
		}
		k := keyOf(pair.Kinds[0], pair.Kinds[1])
		if _, dup := p.pairs[k]; dup {
			return nil, fmt.Errorf("consents: presets pair %s/%s declared twice", k.lo, k.hi)
		}
		for _, g := range pair.Grants {
			if g.GrantorKind != k.lo && g.GrantorKind != k.hi {
				return nil, fmt.Errorf("consents: presets pair %s/%s: grantor %q is not in the pair", k.lo, k.hi, g.GrantorKind)
			}
			if _, ok := scope.ParseCategory(string(g.ResourceType)); !ok {
				return nil, fmt.Errorf("consents: presets pair %s/%s: unknown resource %q", k.lo, k.hi, g.ResourceType)
			}
			if g.AccessLevel == "" {
				g.AccessLevel = AccessRead
			}
			if !g.AccessLevel.Valid() {
				return nil, fmt.Errorf("consents: presets pair %s/%s: unknown access %q", k.lo, k.hi, g.AccessLevel)
			}
			p.pairs[k] = append(p.pairs[k], g)
		}
	}
	return p, nil
}

// DefaultPresets es la tabla embebida.
func DefaultPresets() *TablePolicy {
	p, err := ParsePresets(defaultPresetsYAML)
	if err != nil {
		panic(err)
	}
	return p
}

// LoadPresets lee la tabla de un archivo; path vacío = tabla embebida.
func LoadPresets(path string) (*TablePolicy, error) {
	if path == "" {
		return DefaultPresets(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("consents: read presets: %w", err)
	}
	return ParsePresets(raw)
}

// Pairs lista los pares configurados (para logs de arranque).
func (p *TablePolicy) Pairs() []string {
	out := make([]string, 0, len(p.pairs))
	for k := range p.pairs {
		out = append(out, string(k.lo)+"/"+string(k.hi))
	}
	sort.Strings(out)
	return out
}
