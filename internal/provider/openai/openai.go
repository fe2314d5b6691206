package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tgifai/eternal/internal/provider"
)

var _ provider.Provider = (*Provider)(nil)

const defaultModel = "gpt-4o-mini"

// Provider talks to any OpenAI compatible chat completions endpoint,
// including the eternal backend.
type Provider struct {
	config  provider.BaseConfig
	httpCli *http.Client
	models  *provider.ChatModels
}

func NewProvider(_ context.Context, id string, cfgMap map[string]any) (*Provider, error) {
	cfg, err := provider.ParseBaseConfig(provider.OpenAI, id, cfgMap, provider.Defaults{
		BaseURL:       "https://api.openai.com/v1",
		DefaultModel:  defaultModel,
		RequireAPIKey: true,
	})
	if err != nil {
		return nil, fmt.Errorf("parse openai config: %w", err)
	}

	p := &Provider{
		config: cfg,
		httpCli: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: true},
		},
	}
	p.models = provider.NewChatModels(provider.OpenAI, cfg, func(ctx context.Context, name string) (provider.Generator, error) {
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:     cfg.APIKey,
			Model:      name,
			BaseURL:    cfg.BaseURL,
			HTTPClient: p.httpCli,
		})
	})
	return p, nil
}

func (p *Provider) ID() string {
	return p.config.ID
}

func (p *Provider) Type() provider.Type {
	return provider.OpenAI
}

func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.ListModels(ctx)
	return err == nil
}

func (p *Provider) Close() error {
	p.httpCli.CloseIdleConnections()
	return nil
}

func (p *Provider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	return provider.ListCompatibleModels(ctx, p.httpCli, provider.OpenAI, p.config.BaseURL+"/models", http.Header{
		"Authorization": {"Bearer " + p.config.APIKey},
	})
}

func (p *Provider) Generate(ctx context.Context, modelName string, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return p.models.Generate(ctx, modelName, input, opts...)
}
