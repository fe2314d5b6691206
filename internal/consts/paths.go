package consts

import (
	"os"
	"path/filepath"
)

const (
	AppName         = "Eternal Agent"
	EternalDirName  = ".eternal"
	ConfigFileName  = "config.yaml"
	DotEnvFileName  = ".env"
	DefaultHTTPBind = "0.0.0.0:8000"
)

func EternalHomeDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, EternalDirName)
}

func DefaultConfigPath() string {
	return filepath.Join(EternalHomeDir(), ConfigFileName)
}

// ResolveConfigPath prefers an explicit path, then ./config.yaml, then the
// home directory default.
func ResolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	return DefaultConfigPath()
}
