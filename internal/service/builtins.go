package service

import (
	"fmt"
	"strings"

	"github.com/bytedance/gg/gconv"
	"github.com/cloudwego/eino/components/model"

	"github.com/tgifai/eternal/internal/character"
	"github.com/tgifai/eternal/internal/config"
	"github.com/tgifai/eternal/internal/inference"
	"github.com/tgifai/eternal/internal/mission"
	"github.com/tgifai/eternal/internal/provider"
	"github.com/tgifai/eternal/internal/registry"
	"github.com/tgifai/eternal/internal/toolset"
	"github.com/tgifai/eternal/internal/toolset/clock"
	"github.com/tgifai/eternal/internal/toolset/httpx"
	"github.com/tgifai/eternal/internal/toolset/webx"
	"github.com/tgifai/eternal/internal/toolset/wiki"
)

const (
	ChatCompletionLLM        = "ChatCompletion"
	EternalChatCompletionLLM = "EternalAIChatCompletion"
)

// Catalogs groups the four capability categories a config document can name.
type Catalogs struct {
	LLMs       *registry.Catalog[inference.LLM]
	Toolsets   *registry.Catalog[toolset.Toolset]
	Characters *registry.Catalog[character.Builder]
	Agents     *registry.Catalog[mission.Stepper]
}

func newCatalogs() *Catalogs {
	return &Catalogs{
		LLMs:       registry.NewCatalog[inference.LLM](registry.LLM),
		Toolsets:   registry.NewCatalog[toolset.Toolset](registry.ToolSet),
		Characters: registry.NewCatalog[character.Builder](registry.CharacterBuilder),
		Agents:     registry.NewCatalog[mission.Stepper](registry.Agent),
	}
}

// registerBuiltins is the one place every shipped capability is listed.
func (s *Service) registerBuiltins() {
	s.catalogs.LLMs.MustRegister(ChatCompletionLLM, s.newLLM)
	s.catalogs.LLMs.MustRegister(EternalChatCompletionLLM, s.newLLM)

	s.catalogs.Toolsets.MustRegister(wiki.Name, wiki.New)
	s.catalogs.Toolsets.MustRegister(webx.Name, webx.New)
	s.catalogs.Toolsets.MustRegister(clock.Name, clock.New)
	s.catalogs.Toolsets.MustRegister(httpx.Name, httpx.New)

	s.catalogs.Characters.MustRegister(character.SimpleBuilderName, character.NewSimple)
	s.catalogs.Characters.MustRegister(character.TwitterUserBuilderName, character.NewTwitterUser)

	machine := mission.NewMachine(s.catalogs.LLMs, s.catalogs.Toolsets)
	s.catalogs.Agents.MustRegister(mission.ReactAgentName, func(map[string]any) (mission.Stepper, error) {
		return machine, nil
	})
}

// newLLM builds a chat completion client from llm_cfg init params:
// provider, model_name, max_tokens, temperature, max_retries and
// model_kwargs (top_p, stop).
func (s *Service) newLLM(params map[string]any) (inference.LLM, error) {
	providerID := strings.TrimSpace(gconv.To[string](params["provider"]))
	modelName := strings.TrimSpace(gconv.To[string](params["model_name"]))

	if providerID == "" && modelName != "" {
		if spec, err := provider.ParseModelSpec(modelName); err == nil {
			if _, err := s.providers.Get(spec.ProviderID); err == nil {
				providerID, modelName = spec.ProviderID, spec.ModelName
			}
		}
	}

	var (
		p   provider.Provider
		err error
	)
	if providerID == "" {
		p, err = s.providers.Default()
	} else {
		p, err = s.providers.Get(providerID)
	}
	if err != nil {
		return nil, err
	}

	retries := config.DefaultMaxRetries
	if r := s.cfg.Inference.DefaultMaxRetries; r != nil {
		retries = *r
	}
	if v, ok := params["max_retries"]; ok {
		retries = gconv.To[int](v)
	}

	return s.inference.NewClient(p, inference.ClientConfig{
		Backend:    p.ID(),
		Model:      modelName,
		MaxRetries: retries,
		Options:    modelOptions(params),
	}), nil
}

func modelOptions(params map[string]any) []model.Option {
	var opts []model.Option
	if v := gconv.To[int](params["max_tokens"]); v > 0 {
		opts = append(opts, model.WithMaxTokens(v))
	}
	if v, ok := params["temperature"]; ok {
		opts = append(opts, model.WithTemperature(float32(gconv.To[float64](v))))
	}

	kwargs, _ := params["model_kwargs"].(map[string]any)
	if v, ok := kwargs["top_p"]; ok {
		opts = append(opts, model.WithTopP(float32(gconv.To[float64](v))))
	}
	if stop := stringList(kwargs["stop"]); len(stop) > 0 {
		opts = append(opts, model.WithStop(stop))
	}
	return opts
}

func stringList(v any) []string {
	switch vv := v.(type) {
	case string:
		if vv == "" {
			return nil
		}
		return []string{vv}
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, one := range vv {
			out = append(out, gconv.To[string](one))
		}
		return out
	default:
		return nil
	}
}

// buildPersona renders characteristic with the named character builder.
func (s *Service) buildPersona(cfg registry.ClassRegistration) (string, error) {
	builder, err := s.catalogs.Characters.Build(cfg)
	if err != nil {
		return "", err
	}
	persona, err := builder.Build(s.cfg.Characteristic)
	if err != nil {
		return "", fmt.Errorf("character %s: %w", cfg.Name, err)
	}
	return persona, nil
}
