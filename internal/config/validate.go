package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tgifai/eternal/internal/consts"
)

const (
	DefaultSleepIntervalSec      = 10
	DefaultChatSessionTimeoutSec = 3 * 60 * 60
	DefaultChatWindow            = 30
	DefaultRecentMissions        = 64
	DefaultCacheSize             = 2048
	DefaultAsyncWorkers          = 4
	DefaultMaxRetries            = 2
	DefaultRequestTimeoutSec     = 300
	DefaultMetricsPath           = "/metrics"

	DefaultAgentBuilder     = "ReactReasoningAgent"
	DefaultCharacterBuilder = "SimpleCharacterBuilder"
	DefaultLLM              = "ChatCompletion"

	InferenceModeSync  = "sync"
	InferenceModeAsync = "async"

	// EnvProviderID is the provider synthesized from ETERNAL_BACKEND_API when
	// the document declares none.
	EnvProviderID = "eternal"
)

// Validate fills defaults in place and rejects documents the daemon cannot run.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}

	if c.Service.SleepIntervalSec <= 0 {
		c.Service.SleepIntervalSec = DefaultSleepIntervalSec
	}
	if c.Service.ChatSessionTimeoutSec <= 0 {
		c.Service.ChatSessionTimeoutSec = DefaultChatSessionTimeoutSec
	}
	if c.Service.ChatWindow <= 0 {
		c.Service.ChatWindow = DefaultChatWindow
	}
	if c.Service.RecentMissions <= 0 {
		c.Service.RecentMissions = DefaultRecentMissions
	}
	if envFlag("ETERNAL_SANDBOX") || envFlag("IS_SANDBOX") {
		c.Service.Sandbox = true
	}

	c.Inference.Mode = strings.ToLower(strings.TrimSpace(c.Inference.Mode))
	switch c.Inference.Mode {
	case "":
		c.Inference.Mode = InferenceModeSync
	case InferenceModeSync, InferenceModeAsync:
	default:
		return fmt.Errorf("invalid inference.mode: %s", c.Inference.Mode)
	}
	if c.Inference.CacheSize <= 0 {
		c.Inference.CacheSize = DefaultCacheSize
	}
	if c.Inference.AsyncWorkers <= 0 {
		c.Inference.AsyncWorkers = DefaultAsyncWorkers
	}
	switch r := c.Inference.DefaultMaxRetries; {
	case r == nil:
		n := DefaultMaxRetries
		c.Inference.DefaultMaxRetries = &n
	case *r < 0:
		return fmt.Errorf("invalid inference.default_max_retries: %d", *r)
	}

	if strings.TrimSpace(c.Server.Bind) == "" {
		c.Server.Bind = consts.DefaultHTTPBind
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = DefaultRequestTimeoutSec
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}
	c.Server.APIKey = os.ExpandEnv(c.Server.APIKey)

	if err := c.validateProviders(); err != nil {
		return err
	}

	if c.Characteristic == nil {
		c.Characteristic = map[string]any{}
	}

	if c.Interactive.LLMCfg.Name == "" {
		c.Interactive.LLMCfg.Name = DefaultLLM
	}
	if c.Interactive.CharacterBuilder.Name == "" {
		c.Interactive.CharacterBuilder.Name = DefaultCharacterBuilder
	}

	for i := range c.Missions {
		if err := c.Missions[i].Validate(); err != nil {
			return fmt.Errorf("missions[%d] validation failed: %w", i, err)
		}
	}
	return nil
}

func (c *Config) validateProviders() error {
	normalized := make(map[string]ProviderConfig, len(c.Providers)+1)
	for key, one := range c.Providers {
		providerID := strings.TrimSpace(key)
		if providerID == "" {
			return errors.New("provider id cannot be empty")
		}
		one.ID = providerID
		one.Type = strings.ToLower(strings.TrimSpace(one.Type))
		if one.Type == "" {
			return fmt.Errorf("providers[%s].type is required", providerID)
		}
		one.Config = expandEnv(one.Config)
		normalized[providerID] = one
	}

	if len(normalized) == 0 {
		if base := strings.TrimRight(os.Getenv("ETERNAL_BACKEND_API"), "/"); base != "" {
			normalized[EnvProviderID] = ProviderConfig{
				ID:   EnvProviderID,
				Type: "openai",
				Config: map[string]any{
					"base_url": base + "/v1",
					"api_key":  os.Getenv("ETERNAL_BACKEND_API_APIKEY"),
				},
			}
		}
	}
	c.Providers = normalized
	return nil
}

func (m *MissionConfig) Validate() error {
	if strings.TrimSpace(m.Task) == "" {
		return errors.New("task is required")
	}
	if m.Scheduling.IntervalMinutes < 0 {
		return fmt.Errorf("scheduling.interval_minutes must not be negative, got %d", m.Scheduling.IntervalMinutes)
	}
	if m.LLMCfg.Name == "" {
		m.LLMCfg.Name = DefaultLLM
	}
	if m.AgentBuilder.Name == "" {
		m.AgentBuilder.Name = DefaultAgentBuilder
	}
	if m.CharacterBuilder.Name == "" {
		m.CharacterBuilder.Name = DefaultCharacterBuilder
	}
	if len(m.ToolsetCfg) == 0 {
		return errors.New("toolset_cfg needs at least one toolset")
	}
	return nil
}

// expandEnv resolves ${VAR} references in string values so api keys can stay
// out of the document.
func expandEnv(in map[string]any) map[string]any {
	if in == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if s, ok := v.(string); ok {
			v = os.ExpandEnv(s)
		}
		out[k] = v
	}
	return out
}

func envFlag(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes"
}
