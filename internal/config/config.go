package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/tgifai/eternal/internal/registry"
)

type (
	Config struct {
		Service        ServiceConfig             `yaml:"service" json:"service"`
		Inference      InferenceConfig           `yaml:"inference" json:"inference"`
		Server         ServerConfig              `yaml:"server" json:"server"`
		Logging        LoggingConfig             `yaml:"logging" json:"logging"`
		Providers      map[string]ProviderConfig `yaml:"providers" json:"providers"`
		Characteristic map[string]any            `yaml:"characteristic" json:"characteristic"`
		Interactive    InteractiveConfig         `yaml:"interactive" json:"interactive"`
		Missions       []MissionConfig           `yaml:"missions" json:"missions"`
	}

	ServiceConfig struct {
		SleepIntervalSec      int  `yaml:"sleep_interval_sec" json:"sleep_interval_sec"`
		ChatSessionTimeoutSec int  `yaml:"chat_session_timeout_sec" json:"chat_session_timeout_sec"`
		ChatWindow            int  `yaml:"chat_window" json:"chat_window"`
		RecentMissions        int  `yaml:"recent_missions" json:"recent_missions"`
		Sandbox               bool `yaml:"sandbox" json:"sandbox"`
	}

	InferenceConfig struct {
		Mode              string `yaml:"mode" json:"mode"` // sync, async
		CacheSize         int    `yaml:"cache_size" json:"cache_size"`
		AsyncWorkers      int    `yaml:"async_workers" json:"async_workers"`
		// DefaultMaxRetries is nil until validated, 0 disables retries.
		DefaultMaxRetries *int   `yaml:"default_max_retries" json:"default_max_retries"`
	}

	ServerConfig struct {
		Bind           string `yaml:"bind" json:"bind"`
		RequestTimeout int    `yaml:"request_timeout" json:"request_timeout"`
		APIKey         string `yaml:"api_key" json:"api_key"`
		MetricsBind    string `yaml:"metrics_bind" json:"metrics_bind"`
		MetricsPath    string `yaml:"metrics_path" json:"metrics_path"`
	}

	LoggingConfig struct {
		Level      string `yaml:"level" json:"level"`   // debug, info, warn, error
		Format     string `yaml:"format" json:"format"` // json, text
		Output     string `yaml:"output" json:"output"` // stdout, file, both
		File       string `yaml:"file" json:"file"`
		MaxSize    int    `yaml:"max_size" json:"max_size"` // MB
		MaxBackups int    `yaml:"max_backups" json:"max_backups"`
		MaxAge     int    `yaml:"max_age" json:"max_age"` // days
	}

	ProviderConfig struct {
		ID     string         `yaml:"-" json:"-"`
		Type   string         `yaml:"type" json:"type"` // openai, anthropic, gemini, ollama, qwen
		Config map[string]any `yaml:"config" json:"config"`
	}

	InteractiveConfig struct {
		LLMCfg           registry.ClassRegistration `yaml:"llm_cfg" json:"llm_cfg"`
		CharacterBuilder registry.ClassRegistration `yaml:"character_builder" json:"character_builder"`
	}

	MissionConfig struct {
		Task             string                       `yaml:"task" json:"task"`
		SystemReminder   string                       `yaml:"system_reminder" json:"system_reminder"`
		ToolsetCfg       []registry.ClassRegistration `yaml:"toolset_cfg" json:"toolset_cfg"`
		LLMCfg           registry.ClassRegistration   `yaml:"llm_cfg" json:"llm_cfg"`
		AgentBuilder     registry.ClassRegistration   `yaml:"agent_builder" json:"agent_builder"`
		CharacterBuilder registry.ClassRegistration   `yaml:"character_builder" json:"character_builder"`
		Scheduling       SchedulingConfig             `yaml:"scheduling" json:"scheduling"`
	}

	SchedulingConfig struct {
		IntervalMinutes int `yaml:"interval_minutes" json:"interval_minutes"`
	}
)

// Clone .
func (c *Config) Clone() (*Config, error) {
	if c == nil {
		return nil, fmt.Errorf("config is nil")
	}

	raw, err := sonic.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	var cloned Config
	if err := sonic.Unmarshal(raw, &cloned); err != nil {
		return nil, fmt.Errorf("unmarshal config clone: %w", err)
	}
	for id, p := range cloned.Providers {
		p.ID = id
		cloned.Providers[id] = p
	}

	return &cloned, nil
}

// Hash .
func (c *Config) Hash() string {
	json := sonic.Config{SortMapKeys: true, UseNumber: true}.Froze()
	raw, _ := json.Marshal(c)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
