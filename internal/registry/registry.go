package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tgifai/eternal/internal/pkg/logs"
)

var ErrNotFound = errors.New("not registered")

// Category names one kind of pluggable capability.
type Category string

const (
	LLM              Category = "llm"
	ToolSet          Category = "toolset"
	CharacterBuilder Category = "character_builder"
	Agent            Category = "agent"
)

// ClassRegistration selects a registered capability by name and carries the
// parameters its factory is built with.
type ClassRegistration struct {
	Name       string         `yaml:"name" json:"name"`
	InitParams map[string]any `yaml:"init_params,omitempty" json:"init_params,omitempty"`
}

// Clone returns a copy whose InitParams map can be mutated independently.
func (c ClassRegistration) Clone() ClassRegistration {
	out := ClassRegistration{Name: c.Name}
	if c.InitParams != nil {
		out.InitParams = make(map[string]any, len(c.InitParams))
		for k, v := range c.InitParams {
			out.InitParams[k] = v
		}
	}
	return out
}

type Factory[T any] func(params map[string]any) (T, error)

// Catalog maps names to factories for one category.
type Catalog[T any] struct {
	category  Category
	factories map[string]Factory[T]
	mu        sync.RWMutex
}

func NewCatalog[T any](category Category) *Catalog[T] {
	return &Catalog[T]{
		category:  category,
		factories: make(map[string]Factory[T], 8),
	}
}

func (c *Catalog[T]) Category() Category {
	return c.category
}

func (c *Catalog[T]) Register(name string, factory Factory[T]) error {
	if name == "" {
		return fmt.Errorf("%s: name cannot be empty", c.category)
	}
	if factory == nil {
		return fmt.Errorf("%s: factory for %s cannot be nil", c.category, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.factories[name]; exists {
		return fmt.Errorf("%s: %s already registered", c.category, name)
	}
	c.factories[name] = factory
	logs.Debug("[registry] registered %s/%s", c.category, name)
	return nil
}

// MustRegister panics on a duplicate or empty registration. It is meant for
// the static builtin list.
func (c *Catalog[T]) MustRegister(name string, factory Factory[T]) {
	if err := c.Register(name, factory); err != nil {
		panic(err)
	}
}

func (c *Catalog[T]) Resolve(name string) (Factory[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.factories[name]
	return f, ok
}

// Build resolves cfg.Name and invokes its factory with cfg.InitParams.
func (c *Catalog[T]) Build(cfg ClassRegistration) (T, error) {
	var zero T
	factory, ok := c.Resolve(cfg.Name)
	if !ok {
		return zero, fmt.Errorf("%s %q: %w", c.category, cfg.Name, ErrNotFound)
	}
	params := cfg.InitParams
	if params == nil {
		params = map[string]any{}
	}
	obj, err := factory(params)
	if err != nil {
		return zero, fmt.Errorf("build %s %q: %w", c.category, cfg.Name, err)
	}
	return obj, nil
}

func (c *Catalog[T]) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
