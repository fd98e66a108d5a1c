package source

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/covidsync/internal/config"
	"github.com/sells-group/covidsync/internal/model"
)

// Registry maps variant names to their configuration.
type Registry struct {
	variants map[string]*Variant
	order    []string // insertion order for deterministic iteration
}

// NewRegistry creates a registry with the global and US variants, using the
// base URLs and start dates from cfg.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	globalStart, err := model.ParseDay(cfg.Sources.Global.StartDate)
	if err != nil {
		return nil, eris.Wrap(err, "source: global start_date")
	}
	usStart, err := model.ParseDay(cfg.Sources.US.StartDate)
	if err != nil {
		return nil, eris.Wrap(err, "source: us start_date")
	}

	r := &Registry{variants: make(map[string]*Variant)}
	r.Register(Global(cfg.Sources.Global.BaseURL, globalStart))
	r.Register(US(cfg.Sources.US.BaseURL, usStart))
	return r, nil
}

// Register adds a variant to the registry.
func (r *Registry) Register(v *Variant) {
	if r.variants == nil {
		r.variants = make(map[string]*Variant)
	}
	if _, ok := r.variants[v.Name]; !ok {
		r.order = append(r.order, v.Name)
	}
	r.variants[v.Name] = v
}

// Get returns a variant by name.
func (r *Registry) Get(name string) (*Variant, error) {
	v, ok := r.variants[name]
	if !ok {
		return nil, eris.Errorf("source: unknown variant %q (valid: %v)", name, r.order)
	}
	return v, nil
}

// Select returns the named variants, or all of them when names is empty.
func (r *Registry) Select(names []string) ([]*Variant, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	result := make([]*Variant, 0, len(names))
	for _, name := range names {
		v, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// All returns all variants in registration order.
func (r *Registry) All() []*Variant {
	result := make([]*Variant, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.variants[name])
	}
	return result
}

// Names returns all registered variant names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
