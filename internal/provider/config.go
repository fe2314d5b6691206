package provider

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/gg/gconv"
)

// BaseConfig carries the settings every backend shares.
type BaseConfig struct {
	ID           string
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
}

// Defaults is what a backend fills in when the document leaves a field blank.
type Defaults struct {
	BaseURL       string
	DefaultModel  string
	RequireAPIKey bool
}

// ParseBaseConfig reads api_key (or secret_key), base_url, default_model and
// timeout (seconds) from a provider's config map.
func ParseBaseConfig(typ Type, id string, configMap map[string]any, d Defaults) (BaseConfig, error) {
	cfg := BaseConfig{ID: strings.TrimSpace(id)}
	if cfg.ID == "" {
		return cfg, errors.New("provider ID cannot be empty")
	}

	cfg.APIKey = gconv.To[string](configMap["api_key"])
	if cfg.APIKey == "" {
		cfg.APIKey = gconv.To[string](configMap["secret_key"])
	}
	if cfg.APIKey == "" && d.RequireAPIKey {
		return cfg, fmt.Errorf("%s api_key is required", typ)
	}

	cfg.BaseURL = strings.TrimRight(gconv.To[string](configMap["base_url"]), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = d.BaseURL
	}

	cfg.DefaultModel = gconv.To[string](configMap["default_model"])
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = d.DefaultModel
	}

	cfg.Timeout = DefaultTimeout
	if timeout := gconv.To[int](configMap["timeout"]); timeout > 0 {
		cfg.Timeout = time.Duration(timeout) * time.Second
	}
	return cfg, nil
}
