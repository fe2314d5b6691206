package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tgifai/eternal/internal/config"
	"github.com/tgifai/eternal/internal/pkg/logs"
	"github.com/tgifai/eternal/internal/provider"
	"github.com/tgifai/eternal/internal/provider/anthropic"
	"github.com/tgifai/eternal/internal/provider/gemini"
	"github.com/tgifai/eternal/internal/provider/ollama"
	"github.com/tgifai/eternal/internal/provider/openai"
	"github.com/tgifai/eternal/internal/provider/qwen"
)

func initProviders(ctx context.Context, providers map[string]config.ProviderConfig) (*provider.Registry, error) {
	reg := provider.NewRegistry()
	for id, cfg := range providers {
		cfg.ID = id
		p, err := newProvider(ctx, cfg)
		if err != nil {
			logs.CtxError(ctx, "[%s] create provider #%s error: %v", strings.ToUpper(cfg.Type), cfg.ID, err)
			_ = reg.Close()
			return nil, fmt.Errorf("create provider %s: %w", cfg.ID, err)
		}

		if err = reg.Register(p); err != nil {
			_ = reg.Close()
			return nil, fmt.Errorf("register provider %s: %w", cfg.ID, err)
		}
		logs.CtxInfo(ctx, "[%s] register provider #%s success", strings.ToUpper(cfg.Type), cfg.ID)
	}
	return reg, nil
}

func newProvider(ctx context.Context, cfg config.ProviderConfig) (provider.Provider, error) {
	typ, err := provider.ParseType(cfg.Type)
	if err != nil {
		return nil, err
	}

	switch typ {
	case provider.OpenAI:
		return openai.NewProvider(ctx, cfg.ID, cfg.Config)
	case provider.Anthropic:
		return anthropic.NewProvider(ctx, cfg.ID, cfg.Config)
	case provider.Gemini:
		return gemini.NewProvider(ctx, cfg.ID, cfg.Config)
	case provider.Ollama:
		return ollama.NewProvider(ctx, cfg.ID, cfg.Config)
	case provider.Qwen:
		return qwen.NewProvider(ctx, cfg.ID, cfg.Config)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

const probeTimeout = 5 * time.Second

// probeProviders checks every backend in parallel and returns the ids that
// did not answer. A down backend is only logged, missions using it fail
// through their own retries.
func probeProviders(ctx context.Context, reg *provider.Registry) []string {
	list := reg.List()
	down := make([]bool, len(list))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range list {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, probeTimeout)
			defer cancel()
			if !p.IsAvailable(pctx) {
				down[i] = true
				logs.CtxWarn(ctx, "[%s] provider #%s is not reachable", strings.ToUpper(string(p.Type())), p.ID())
			}
			return nil
		})
	}
	_ = g.Wait()

	var ids []string
	for i, p := range list {
		if down[i] {
			ids = append(ids, p.ID())
		}
	}
	return ids
}
