package provider

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Provider is one configured model backend.
type Provider interface {
	// ID returns the configured provider instance identifier, the lookup key
	// used by llm_cfg init params.
	ID() string

	Type() Type

	// IsAvailable performs a lightweight remote check.
	IsAvailable(ctx context.Context) bool

	// ListModels returns model metadata currently offered by the backend.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// Generate performs a single non-streaming chat completion. An empty
	// modelName falls back to the configured default model.
	Generate(ctx context.Context, modelName string, input []*schema.Message, opts ...model.Option) (*schema.Message, error)

	Close() error
}
