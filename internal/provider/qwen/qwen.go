package qwen

import (
	"context"
	"fmt"
	"net/http"

	qwenmodel "github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tgifai/eternal/internal/provider"
)

var _ provider.Provider = (*Provider)(nil)

const (
	defaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	defaultModel   = "qwen-plus"
)

// Provider serves DashScope models through its OpenAI compatible mode.
type Provider struct {
	config  provider.BaseConfig
	httpCli *http.Client
	models  *provider.ChatModels
}

func NewProvider(_ context.Context, id string, cfgMap map[string]any) (*Provider, error) {
	cfg, err := provider.ParseBaseConfig(provider.Qwen, id, cfgMap, provider.Defaults{
		BaseURL:       defaultBaseURL,
		DefaultModel:  defaultModel,
		RequireAPIKey: true,
	})
	if err != nil {
		return nil, fmt.Errorf("parse qwen config: %w", err)
	}

	return &Provider{
		config:  cfg,
		httpCli: &http.Client{Timeout: cfg.Timeout},
		models: provider.NewChatModels(provider.Qwen, cfg, func(ctx context.Context, name string) (provider.Generator, error) {
			return qwenmodel.NewChatModel(ctx, &qwenmodel.ChatModelConfig{
				APIKey:  cfg.APIKey,
				BaseURL: cfg.BaseURL,
				Timeout: cfg.Timeout,
				Model:   name,
			})
		}),
	}, nil
}

func (p *Provider) ID() string          { return p.config.ID }
func (p *Provider) Type() provider.Type { return provider.Qwen }
func (p *Provider) Close() error        { return nil }

func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.ListModels(ctx)
	return err == nil
}

func (p *Provider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	return provider.ListCompatibleModels(ctx, p.httpCli, provider.Qwen, p.config.BaseURL+"/models", http.Header{
		"Authorization": {"Bearer " + p.config.APIKey},
	})
}

func (p *Provider) Generate(ctx context.Context, modelName string, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return p.models.Generate(ctx, modelName, input, opts...)
}
