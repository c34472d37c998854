// Package config loads ntbridge configuration from a JSON file with an
// environment-variable overlay (NTBRIDGE_* vars win over file values).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Helper   HelperConfig `json:"helper"`
	LogLevel string       `json:"log_level" env:"NTBRIDGE_LOG_LEVEL"`
	TempDir  string       `json:"temp_dir" env:"NTBRIDGE_TEMP_DIR"`
}

// HelperConfig addresses the out-of-process kernel helper. The helper
// serves the duplex channel on ws://host:port/ws and the unary fallback
// on http://host:port/.
type HelperConfig struct {
	Host string `json:"host" env:"NTBRIDGE_HELPER_HOST"`
	Port int    `json:"port" env:"NTBRIDGE_HELPER_PORT"`
}

func (h HelperConfig) WSURL() string {
	return fmt.Sprintf("ws://%s:%d/ws", h.Host, h.Port)
}

func (h HelperConfig) HTTPURL() string {
	return fmt.Sprintf("http://%s:%d/", h.Host, h.Port)
}

func DefaultConfig() *Config {
	return &Config{
		Helper: HelperConfig{
			Host: "127.0.0.1",
			Port: 13000,
		},
		LogLevel: "info",
		TempDir:  filepath.Join(os.TempDir(), "ntbridge"),
	}
}

// LoadConfig reads the JSON config at path, falling back to defaults when
// the file does not exist, then applies the environment overlay.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply env overlay: %w", err)
	}
	return cfg, nil
}
