package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

var defaultManager = &InstanceManager{}

// InstanceManager keeps the loaded configuration snapshot. Readers always get
// a clone, so nothing downstream can mutate the shared copy.
type InstanceManager struct {
	path string
	// loaded indicates whether Load has been called successfully.
	loaded bool
	cfg    *Config
	hash   string

	mu sync.RWMutex
}

func (ins *InstanceManager) Get() (*Config, error) {
	if ins == nil {
		return nil, fmt.Errorf("instance manager is nil")
	}

	ins.mu.RLock()
	defer ins.mu.RUnlock()

	if !ins.loaded || ins.cfg == nil {
		return nil, fmt.Errorf("config is not loaded")
	}

	return ins.cfg.Clone()
}

func (ins *InstanceManager) Load(path string) (*Config, error) {
	if ins == nil {
		return nil, fmt.Errorf("instance manager is nil")
	}

	ins.mu.Lock()
	defer ins.mu.Unlock()

	path = strings.TrimSpace(path)
	if path == "" {
		if strings.TrimSpace(ins.path) != "" {
			path = ins.path
		} else {
			path = defaultConfigPath
		}
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	ins.path = path
	ins.cfg = cfg
	ins.hash = cfg.Hash()
	ins.loaded = true
	return cfg.Clone()
}

func (ins *InstanceManager) Path() string {
	ins.mu.RLock()
	defer ins.mu.RUnlock()
	return ins.path
}

func (ins *InstanceManager) Hash() (string, error) {
	if ins == nil {
		return "", fmt.Errorf("instance manager is nil")
	}

	ins.mu.RLock()
	defer ins.mu.RUnlock()

	if !ins.loaded || ins.cfg == nil {
		return "", fmt.Errorf("config is not loaded")
	}

	return ins.hash, nil
}

// LoadFile reads and validates a YAML (or JSON) document.
func LoadFile(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("config path is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML document, or a JSON one when the first non-blank byte
// opens an object.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := sonic.Unmarshal(trimmed, &cfg); err != nil {
			return nil, fmt.Errorf("parse config json: %w", err)
		}
	} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	return defaultManager.Load(path)
}

func Get() (*Config, error) {
	return defaultManager.Get()
}

func Hash() (string, error) {
	return defaultManager.Hash()
}
