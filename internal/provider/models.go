package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Generator is the part of an eino chat model a backend needs.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// BuildFunc creates the chat model serving modelName.
type BuildFunc func(ctx context.Context, modelName string) (Generator, error)

// ChatModels lazily builds one chat model per model name and shares it
// between concurrent missions and chat sessions.
type ChatModels struct {
	typ   Type
	cfg   BaseConfig
	build BuildFunc

	mu     sync.Mutex
	models map[string]Generator
}

func NewChatModels(typ Type, cfg BaseConfig, build BuildFunc) *ChatModels {
	return &ChatModels{
		typ:    typ,
		cfg:    cfg,
		build:  build,
		models: make(map[string]Generator, 4),
	}
}

// Generate runs one completion on modelName, or on the configured default
// model when modelName is empty, bounded by the backend timeout.
func (c *ChatModels) Generate(ctx context.Context, modelName string, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if modelName == "" {
		modelName = c.cfg.DefaultModel
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	m, err := c.get(ctx, modelName)
	if err != nil {
		return nil, err
	}
	resp, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", c.typ, modelName, err)
	}
	return resp, nil
}

func (c *ChatModels) get(ctx context.Context, modelName string) (Generator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.models[modelName]; ok {
		return m, nil
	}
	m, err := c.build(ctx, modelName)
	if err != nil {
		return nil, fmt.Errorf("build %s chat model %s: %w", c.typ, modelName, err)
	}
	c.models[modelName] = m
	return m, nil
}

// Cached reports how many models have been built so far.
func (c *ChatModels) Cached() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.models)
}
