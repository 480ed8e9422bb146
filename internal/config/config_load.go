package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:  "openai",
			Model: "gpt-4o",
		},
		Mode:              "review",
		MaxIterations:     100,
		ContextWindow:     128000,
		RequestsPerMinute: 30,
	}
}

// Load reads the user config file, then overlays env vars.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config to disk. Secrets are excluded by the struct tags.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// applyEnvOverrides overlays CODA_* environment variables. Env takes
// precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("CODA_API_KEY", &c.Provider.APIKey)
	envStr("CODA_API_BASE", &c.Provider.APIBase)
	envStr("CODA_MODEL", &c.Provider.Model)
	envStr("CODA_PROVIDER", &c.Provider.Name)
	envStr("CODA_MODE", &c.Mode)
	envStr("CODA_WORKSPACE", &c.Workspace)

	if v := os.Getenv("CODA_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxIterations = n
		}
	}
	if v := os.Getenv("CODA_CONTEXT_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ContextWindow = n
		}
	}
	if v := os.Getenv("CODA_VERBOSE"); v == "true" || v == "1" {
		c.Verbose = true
	}

	envStr("CODA_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	if v := os.Getenv("CODA_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = v == "true" || v == "1"
	}
}

// LoadWorkspace reads .coda.yml from the workspace root. A missing file
// yields an empty config.
func LoadWorkspace(root string) (*WorkspaceConfig, error) {
	wc := &WorkspaceConfig{}

	data, err := os.ReadFile(filepath.Join(root, WorkspaceConfigName))
	if err != nil {
		if os.IsNotExist(err) {
			return wc, nil
		}
		return nil, fmt.Errorf("read workspace config: %w", err)
	}

	if err := yaml.Unmarshal(data, wc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", WorkspaceConfigName, err)
	}
	return wc, nil
}
