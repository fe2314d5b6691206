package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ollamamodel "github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	ollamaapi "github.com/eino-contrib/ollama/api"

	"github.com/tgifai/eternal/internal/provider"
)

var _ provider.Provider = (*Provider)(nil)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3.1"
)

// Provider serves local models. It needs no api key.
type Provider struct {
	config provider.BaseConfig
	api    *ollamaapi.Client
	models *provider.ChatModels
}

func NewProvider(_ context.Context, id string, cfgMap map[string]any) (*Provider, error) {
	cfg, err := provider.ParseBaseConfig(provider.Ollama, id, cfgMap, provider.Defaults{
		BaseURL:      defaultBaseURL,
		DefaultModel: defaultModel,
	})
	if err != nil {
		return nil, fmt.Errorf("parse ollama config: %w", err)
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	return &Provider{
		config: cfg,
		api:    ollamaapi.NewClient(baseURL, &http.Client{Timeout: cfg.Timeout}),
		models: provider.NewChatModels(provider.Ollama, cfg, func(ctx context.Context, name string) (provider.Generator, error) {
			return ollamamodel.NewChatModel(ctx, &ollamamodel.ChatModelConfig{
				BaseURL: cfg.BaseURL,
				Timeout: cfg.Timeout,
				Model:   name,
			})
		}),
	}, nil
}

func (p *Provider) ID() string          { return p.config.ID }
func (p *Provider) Type() provider.Type { return provider.Ollama }
func (p *Provider) Close() error        { return nil }

// IsAvailable only pings the daemon, listing pulls every local manifest.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()
	return p.api.Heartbeat(ctx) == nil
}

func (p *Provider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	lr, err := p.api.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ollama models: %w", err)
	}

	out := make([]provider.ModelInfo, 0, len(lr.Models))
	for _, m := range lr.Models {
		id := strings.TrimSpace(m.Model)
		if id == "" {
			id = strings.TrimSpace(m.Name)
		}
		if id != "" {
			out = append(out, provider.ModelInfo{ID: id, Name: id, Provider: provider.Ollama})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no models pulled into %s", p.config.BaseURL)
	}
	return out, nil
}

func (p *Provider) Generate(ctx context.Context, modelName string, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return p.models.Generate(ctx, modelName, input, opts...)
}
