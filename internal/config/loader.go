package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading configuration files.
type Loader struct {
	configDir string
}

// NewLoader creates a new config loader.
func NewLoader(configDir string) *Loader {
	return &Loader{configDir: configDir}
}

// LoadFile loads a configuration from a specific file path. JSON and YAML
// are both accepted, selected by file extension. Environment variables in
// the file are expanded before parsing; ${VAR} and ${VAR:-default} syntax
// are both supported.
func (l *Loader) LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	data = ExpandEnvVarsBytes(data)

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// LoadAndValidate loads and validates a config file.
func (l *Loader) LoadAndValidate(path string) (*Config, error) {
	cfg, err := l.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed for %s:\n%w", path, err)
	}

	return cfg, nil
}

// isConfigFile reports whether name looks like a config file this loader
// understands.
func isConfigFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".json" || ext == ".yaml" || ext == ".yml"
}

// LoadDirectory scans a directory for JSON/YAML config files and loads them
// all.
func (l *Loader) LoadDirectory(dir string) ([]*Config, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*Config
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !isConfigFile(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		cfg, err := l.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", entry.Name(), err)
		}
		configs = append(configs, cfg)
	}

	return configs, nil
}

// LoadDefault loads the default configuration from the config directory,
// preferring default.yaml over default.json when both exist.
func (l *Loader) LoadDefault() (*Config, error) {
	for _, name := range []string{"default.yaml", "default.yml", "default.json"} {
		path := filepath.Join(l.configDir, name)
		if _, err := os.Stat(path); err == nil {
			return l.LoadFile(path)
		}
	}
	return nil, fmt.Errorf("no default config found in %s", l.configDir)
}
