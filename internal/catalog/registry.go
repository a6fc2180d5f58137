package catalog

import (
	"context"
	"sort"

	"github.com/Queneri/catalogotefi/internal/store"

	"golang.org/x/sync/singleflight"
)

// Registry holds one controller per configured brand and loads each lazily
type Registry struct {
	brands      map[string]Brand
	controllers map[string]*Controller
	group       singleflight.Group
}

// NewRegistry builds a controller for every brand, all sharing rs
func NewRegistry(rs store.RecordStore, brands []Brand, opts ...Option) *Registry {
	r := &Registry{
		brands:      make(map[string]Brand, len(brands)),
		controllers: make(map[string]*Controller, len(brands)),
	}
	for _, b := range brands {
		r.brands[b.Slug] = b
		r.controllers[b.Slug] = NewController(rs, b, opts...)
	}
	return r
}

// Brands lists the configured brands sorted by slug
func (r *Registry) Brands() []Brand {
	out := make([]Brand, 0, len(r.brands))
	for _, b := range r.brands {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Get returns the controller for slug, loading it on first use.
// Concurrent first requests share a single load.
func (r *Registry) Get(ctx context.Context, slug string) (*Controller, error) {
	c, ok := r.controllers[slug]
	if !ok {
		return nil, ErrUnknownBrand
	}
	if c.Loaded() {
		return c, nil
	}
	_, err, _ := r.group.Do(slug, func() (interface{}, error) {
		if c.Loaded() {
			return nil, nil
		}
		return nil, c.Load(ctx, r.brands[slug])
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// LoadAll loads every brand, stopping at the first error
func (r *Registry) LoadAll(ctx context.Context) error {
	for _, b := range r.Brands() {
		if _, err := r.Get(ctx, b.Slug); err != nil {
			return err
		}
	}
	return nil
}
