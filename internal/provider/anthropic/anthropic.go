package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/gg/gconv"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tgifai/eternal/internal/provider"
)

var _ provider.Provider = (*Provider)(nil)

const (
	defaultModel     = "claude-3-5-sonnet-20241022"
	defaultMaxTokens = 4096
	apiVersion       = "2023-06-01"
)

type Provider struct {
	config  provider.BaseConfig
	httpCli *http.Client
	models  *provider.ChatModels
}

func NewProvider(_ context.Context, id string, cfgMap map[string]any) (*Provider, error) {
	cfg, err := provider.ParseBaseConfig(provider.Anthropic, id, cfgMap, provider.Defaults{
		BaseURL:       "https://api.anthropic.com",
		DefaultModel:  defaultModel,
		RequireAPIKey: true,
	})
	if err != nil {
		return nil, fmt.Errorf("parse anthropic config: %w", err)
	}

	maxTokens := gconv.To[int](cfgMap["max_tokens"])
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	p := &Provider{
		config:  cfg,
		httpCli: &http.Client{Timeout: cfg.Timeout},
	}
	p.models = provider.NewChatModels(provider.Anthropic, cfg, func(ctx context.Context, name string) (provider.Generator, error) {
		var baseURL *string
		if cfg.BaseURL != "" {
			baseURL = &cfg.BaseURL
		}
		return claude.NewChatModel(ctx, &claude.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    baseURL,
			Model:      name,
			MaxTokens:  maxTokens,
			HTTPClient: p.httpCli,
		})
	})
	return p, nil
}

func (p *Provider) ID() string          { return p.config.ID }
func (p *Provider) Type() provider.Type { return provider.Anthropic }
func (p *Provider) Close() error        { return nil }

func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.ListModels(ctx)
	return err == nil
}

func (p *Provider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	return provider.ListCompatibleModels(ctx, p.httpCli, provider.Anthropic, p.modelsEndpoint(), http.Header{
		"x-api-key":         {p.config.APIKey},
		"anthropic-version": {apiVersion},
	})
}

func (p *Provider) Generate(ctx context.Context, modelName string, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return p.models.Generate(ctx, modelName, sanitizeMessages(messages), opts...)
}

// sanitizeMessages fills empty message content, the claude client cannot
// encode a message with no content blocks. The caller's messages are left
// untouched, they may be shared with a cached prompt.
func sanitizeMessages(msgs []*schema.Message) []*schema.Message {
	out, copied := msgs, false
	for i, m := range msgs {
		if m.Content != "" || len(m.ToolCalls) > 0 ||
			len(m.UserInputMultiContent) > 0 ||
			len(m.AssistantGenMultiContent) > 0 ||
			len(m.MultiContent) > 0 {
			continue
		}
		if !copied {
			out, copied = append([]*schema.Message(nil), msgs...), true
		}
		cp := *m
		cp.Content = "..."
		if m.Role == schema.Tool {
			cp.Content = "{}"
		}
		out[i] = &cp
	}
	return out
}

func (p *Provider) modelsEndpoint() string {
	base := strings.TrimRight(p.config.BaseURL, "/")
	if strings.HasSuffix(base, "/v1") {
		return base + "/models"
	}
	return base + "/v1/models"
}
