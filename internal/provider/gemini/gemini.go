package gemini

import (
	"context"
	"fmt"
	"strings"

	gmodel "github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/tgifai/eternal/internal/provider"
)

var _ provider.Provider = (*Provider)(nil)

const defaultModel = "gemini-2.5-flash"

type Provider struct {
	config provider.BaseConfig
	client *genai.Client
	models *provider.ChatModels
}

func NewProvider(ctx context.Context, id string, cfgMap map[string]any) (*Provider, error) {
	cfg, err := provider.ParseBaseConfig(provider.Gemini, id, cfgMap, provider.Defaults{
		DefaultModel:  defaultModel,
		RequireAPIKey: true,
	})
	if err != nil {
		return nil, fmt.Errorf("parse gemini config: %w", err)
	}

	clientCfg := &genai.ClientConfig{APIKey: cfg.APIKey}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("new gemini client failed: %w", err)
	}

	// Every model shares the one genai client.
	return &Provider{
		config: cfg,
		client: client,
		models: provider.NewChatModels(provider.Gemini, cfg, func(ctx context.Context, name string) (provider.Generator, error) {
			return gmodel.NewChatModel(ctx, &gmodel.Config{Client: client, Model: name})
		}),
	}, nil
}

func (p *Provider) ID() string          { return p.config.ID }
func (p *Provider) Type() provider.Type { return provider.Gemini }
func (p *Provider) Close() error        { return nil }

func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.ListModels(ctx)
	return err == nil
}

// ListModels pages through the genai model catalog. Names come back as
// "models/<id>".
func (p *Provider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	var out []provider.ModelInfo
	for item, err := range p.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list gemini models: %w", err)
		}
		if item == nil || strings.TrimSpace(item.Name) == "" {
			continue
		}
		info := provider.ModelInfo{
			ID:       strings.TrimPrefix(strings.TrimSpace(item.Name), "models/"),
			Name:     strings.TrimSpace(item.DisplayName),
			Provider: provider.Gemini,
		}
		if info.Name == "" {
			info.Name = info.ID
		}
		out = append(out, info)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no models returned from %s", provider.Gemini)
	}
	return out, nil
}

func (p *Provider) Generate(ctx context.Context, modelName string, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return p.models.Generate(ctx, modelName, input, opts...)
}
