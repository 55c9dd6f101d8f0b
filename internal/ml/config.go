package ml

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// BaseConfig provides common configuration functionality
type BaseConfig struct {
	ConfigPath string `json:"-" yaml:"-"`
}

// LoadConfig loads provider configuration from a file, falling back to
// environment variables. Files ending in .yaml or .yml are read as YAML.
// A file that is missing or unparseable is skipped.
func (c *BaseConfig) LoadConfig(configPath string, envPrefix string, config interface{}) error {
	if configPath != "" {
		if err := decodeFile(configPath, config); err == nil {
			slog.Debug("Loaded model configuration", slog.String("path", configPath))
			return nil
		} else if !os.IsNotExist(err) {
			slog.Warn("Ignoring model configuration", slog.String("path", configPath), slog.String("error", err.Error()))
		}
	}

	for _, ext := range []string{"json", "yaml"} {
		defaultPath := filepath.Join("config", fmt.Sprintf("%s.%s", envPrefix, ext))
		if err := decodeFile(defaultPath, config); err == nil {
			slog.Debug("Loaded model configuration from default file", slog.String("path", defaultPath))
			return nil
		}
	}

	slog.Debug("Using environment variables for model configuration", slog.String("provider", envPrefix))
	return nil
}

func decodeFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	default:
		return json.Unmarshal(data, out)
	}
}
