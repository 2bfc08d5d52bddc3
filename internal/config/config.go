// Package config provides configuration management for vlanislands.
//
// The config file holds analysis policy, assistant endpoint settings and
// storage location. Secrets never live in the file: the assistant API key
// is read from the environment variable named by assistant.api_key_env.
//
// Config file locations (priority order, see Locations):
//  1. $VLANISLANDS_CONFIG
//  2. ./vlanislands.yaml
//  3. $XDG_CONFIG_HOME/vlanislands/config.yaml
//  4. ~/.config/vlanislands/config.yaml
//  5. /etc/vlanislands/config.yaml
//
// A relative database.path inside a config file is taken relative to that
// file's directory. Paths from flags or VLANISLANDS_DB stay relative to the
// working directory.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"vlanislands/internal/detect"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDatabasePath    = "./vlanislands.db"
	DefaultAPIKeyEnv       = "VLANISLANDS_API_KEY"
	DefaultModel           = "gpt-4o-mini"
	DefaultMaxTokens       = 1500
	DefaultTimeout         = 60 * time.Second
	DefaultMaxHistoryTurns = 10
	DefaultAddr            = ":3000"
)

var validate = validator.New()

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, "", cfg.Validate()
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.Database.Path = resolveRelative(path, cfg.Database.Path)
	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Detection.Policy == "" {
		c.Detection.Policy = detect.PresetBalanced
	}
	if c.Assistant.APIType == "" {
		c.Assistant.APIType = "openai"
	}
	if c.Assistant.Model == "" {
		c.Assistant.Model = DefaultModel
	}
	if c.Assistant.APIKeyEnv == "" {
		c.Assistant.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.Assistant.MaxTokens == 0 {
		c.Assistant.MaxTokens = DefaultMaxTokens
	}
	if c.Assistant.Timeout == 0 {
		c.Assistant.Timeout = Duration(DefaultTimeout)
	}
	if c.Assistant.MaxHistoryTurns == 0 {
		c.Assistant.MaxHistoryTurns = DefaultMaxHistoryTurns
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(30 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(2 * time.Minute)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// applyEnv lets the environment override assistant endpoint settings.
// Explicit VLANISLANDS_* variables win over the Azure OpenAI conventions.
func (c *Config) applyEnv() {
	if v := envOr("VLANISLANDS_BASE_URL", "AZURE_OPENAI_BASE_URL"); v != "" {
		c.Assistant.BaseURL = v
	}
	if v := envOr("VLANISLANDS_API_VERSION", "AZURE_OPENAI_API_VERSION"); v != "" {
		c.Assistant.APIVersion = v
	}
	if v := envOr("VLANISLANDS_MODEL", "AZURE_OPENAI_MODEL"); v != "" {
		c.Assistant.Model = v
	}
	if v := os.Getenv("VLANISLANDS_API_TYPE"); v != "" {
		c.Assistant.APIType = strings.ToLower(v)
	}
	if v := os.Getenv("VLANISLANDS_POLICY"); v != "" {
		c.Detection.Policy = detect.Preset(strings.ToLower(v))
	}
	if v := os.Getenv("VLANISLANDS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Detection.Workers = n
		}
	}
	if v := os.Getenv("VLANISLANDS_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("VLANISLANDS_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// envOr returns the first non-empty environment variable among names
func envOr(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks field ranges and the effective policy
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Assistant.APIType == "azure" && c.Assistant.BaseURL == "" {
		return fmt.Errorf("invalid config: assistant.base_url is required for api_type azure")
	}
	return c.EffectivePolicy().Validate()
}

// EffectivePolicy returns the preset policy with overrides applied
func (c *Config) EffectivePolicy() detect.Policy {
	base := c.Detection.Policy.Policy()

	o := c.Detection.Overrides
	if o == nil {
		return base
	}

	base.Name = base.Name + "+overrides"
	if o.CriticalRatio != nil {
		base.CriticalRatio = *o.CriticalRatio
	}
	if o.MajorRatio != nil {
		base.MajorRatio = *o.MajorRatio
	}
	if o.SingletonSeverity != nil {
		base.SingletonSeverity = *o.SingletonSeverity
	}
	if o.FragmentationCritical != nil {
		base.FragmentationCritical = *o.FragmentationCritical
	}
	if o.FragmentationMajor != nil {
		base.FragmentationMajor = *o.FragmentationMajor
	}

	return base
}

// APIKey reads the assistant API key from the configured environment
// variable, falling back to the Azure platform subscription key.
func (c *Config) APIKey() string {
	return envOr(c.Assistant.APIKeyEnv, "GENAIPLATFORM_FARM_SUBSCRIPTION_KEY")
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	policy := c.EffectivePolicy()

	summary := fmt.Sprintf("Policy: %s (critical>=%.2f, major>=%.2f)\n",
		policy.Name, policy.CriticalRatio, policy.MajorRatio)
	summary += fmt.Sprintf("Workers: %d, Database: %s\n", c.Detection.Workers, c.Database.Path)
	summary += fmt.Sprintf("Assistant: %s model %s", c.Assistant.APIType, c.Assistant.Model)
	if c.Assistant.BaseURL != "" {
		summary += fmt.Sprintf(" at %s", c.Assistant.BaseURL)
	}

	return summary
}
