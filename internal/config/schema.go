package config

import (
	"time"

	"vlanislands/internal/detect"
	"vlanislands/internal/domain"
)

// Config is the root configuration structure
type Config struct {
	Version   int             `yaml:"version"`
	Database  DatabaseConfig  `yaml:"database"`
	Detection DetectionConfig `yaml:"detection"`
	Graph     GraphConfig     `yaml:"graph,omitempty"`
	Assistant AssistantConfig `yaml:"assistant"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// DatabaseConfig holds run history storage settings
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// DetectionConfig selects the classification policy
type DetectionConfig struct {
	Policy    detect.Preset   `yaml:"policy" validate:"oneof=strict balanced lenient"`
	Overrides *PolicyOverride `yaml:"overrides,omitempty"`
	// Workers bounds concurrent per-VLAN detection; 0 or 1 is sequential
	Workers int `yaml:"workers" validate:"gte=0,lte=256"`
}

// PolicyOverride allows overriding individual policy thresholds
type PolicyOverride struct {
	CriticalRatio         *float64         `yaml:"critical_ratio,omitempty"`
	MajorRatio            *float64         `yaml:"major_ratio,omitempty"`
	SingletonSeverity     *domain.Severity `yaml:"singleton_severity,omitempty"`
	FragmentationCritical *int             `yaml:"fragmentation_critical,omitempty"`
	FragmentationMajor    *int             `yaml:"fragmentation_major,omitempty"`
}

// GraphConfig tunes graph construction
type GraphConfig struct {
	ExcludeLinkStatuses []string `yaml:"exclude_link_statuses,omitempty"`
}

// AssistantConfig configures the chat-completion bridge. The API key is
// never stored here; APIKeyEnv names the environment variable holding it.
type AssistantConfig struct {
	BaseURL         string   `yaml:"base_url,omitempty"`
	APIType         string   `yaml:"api_type" validate:"oneof=openai azure"`
	APIVersion      string   `yaml:"api_version,omitempty"`
	Model           string   `yaml:"model" validate:"required"`
	APIKeyEnv       string   `yaml:"api_key_env" validate:"required"`
	MaxTokens       int      `yaml:"max_tokens" validate:"gte=0"`
	Temperature     float32  `yaml:"temperature" validate:"gte=0,lte=2"`
	Timeout         Duration `yaml:"timeout"`
	MaxHistoryTurns int      `yaml:"max_history_turns" validate:"gte=0"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr         string   `yaml:"addr" validate:"required"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// LogConfig selects log verbosity and encoding
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
