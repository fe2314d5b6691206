package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bytedance/gg/gmap"
)

var ErrProviderNotFound = errors.New("provider not found")

// Registry holds the providers built from configuration. It is constructed
// by the service and handed to whatever needs a backend.
type Registry struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

func (r *Registry) Register(p Provider) error {
	if p == nil || p.ID() == "" {
		return errors.New("provider must have an id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[p.ID()]; exists {
		return fmt.Errorf("provider %s already registered", p.ID())
	}
	r.providers[p.ID()] = p
	return nil
}

func (r *Registry) Get(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	return p, nil
}

// Default returns the only registered provider, used when llm_cfg does not
// name one.
func (r *Registry) Default() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.providers) != 1 {
		return nil, fmt.Errorf("%w: no provider named and %d configured", ErrProviderNotFound, len(r.providers))
	}
	for _, p := range r.providers {
		return p, nil
	}
	return nil, ErrProviderNotFound
}

func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := gmap.ToSlice(r.providers, func(k string, v Provider) Provider { return v })
	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

// Close closes every provider and returns the first error.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for id, p := range r.providers {
		if err := p.Close(); err != nil && first == nil {
			first = fmt.Errorf("close provider %s: %w", id, err)
		}
	}
	r.providers = make(map[string]Provider)
	return first
}
