package autowire

import (
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"
)

// Config is a declarative wiring file: which types are singleton-scoped and
// which abstract types route to which concrete types, all by registered
// name. It lets deployments adjust wiring without recompiling.
//
// Example:
//
//	shared:
//	  - store.Memory
//	bindings:
//	  store.Backend: store.Memory
type Config struct {
	Shared   []string          `yaml:"shared"`
	Bindings map[string]string `yaml:"bindings"`
}

// LoadConfig reads and parses a YAML wiring file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load wiring config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML wiring data.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse wiring config: %w", err)
	}

	return &cfg, nil
}

// Apply resolves every name through the resolver's registry and returns one
// derived resolver with the bindings and shared set applied. Unknown names
// fail the whole application; nothing is partially applied.
func (cfg *Config) Apply(r *Resolver) (*Resolver, error) {
	reg := r.Types()

	entries := make(map[reflect.Type]any, len(cfg.Bindings))
	for abstract, concrete := range cfg.Bindings {
		at, ok := reg.Lookup(abstract)
		if !ok {
			return nil, fmt.Errorf("wiring config: binding %q: %w", abstract, ErrUnknownTypeName)
		}

		ct, ok := reg.Lookup(concrete)
		if !ok {
			return nil, fmt.Errorf("wiring config: binding %q -> %q: %w", abstract, concrete, ErrUnknownTypeName)
		}

		entries[at] = ct
	}

	shared := make([]reflect.Type, 0, len(cfg.Shared))
	for _, name := range cfg.Shared {
		t, ok := reg.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("wiring config: shared %q: %w", name, ErrUnknownTypeName)
		}
		shared = append(shared, t)
	}

	d := r
	if len(entries) > 0 {
		d = d.Bindings(entries)
	}
	if len(shared) > 0 {
		d = d.Share(shared...)
	}

	return d, nil
}
