package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/slidebuilder/internal/retry"
)

// DefaultConfigFile is the configuration file looked up when no -c flag is given.
const DefaultConfigFile = "slidebuilder.yaml"

// Config is the complete build configuration. Every field has a default, so an absent
// configuration file yields a working setup for the conventional talks/ layout.
type Config struct {
	Content   ContentConfig   `yaml:"content"`
	Output    OutputConfig    `yaml:"output"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Converter ConverterConfig `yaml:"converter"`
	Assets    AssetsConfig    `yaml:"assets"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ContentConfig describes where talks live and how they are recognized.
type ContentConfig struct {
	Root             string `yaml:"root"`              // Directory scanned for talks
	Marker           string `yaml:"marker"`            // File name identifying a talk directory
	Metadata         string `yaml:"metadata"`          // Optional per-talk metadata file name
	FallbackCategory string `yaml:"fallback_category"` // Category for talks directly under root
}

// OutputConfig describes the generated site layout.
type OutputConfig struct {
	Directory string      `yaml:"directory"` // Output root; its base name becomes the URL prefix
	Manifest  string      `yaml:"manifest"`  // Manifest file name inside the output root
	Force     bool        `yaml:"force"`     // Replace an output root that does not look like a previous build
	Retry     RetryConfig `yaml:"retry"`     // Backoff for removing old output directories
}

// RetryConfig controls retries when replacing the output root fails transiently, e.g. while
// a preview server still holds files open.
type RetryConfig struct {
	Backoff    string `yaml:"backoff"`     // fixed|linear|exponential
	Initial    string `yaml:"initial"`     // first delay (Go duration)
	Max        string `yaml:"max"`         // delay cap (Go duration)
	MaxRetries *int   `yaml:"max_retries"` // attempts after the first failure
}

// WorkspaceConfig controls the temporary per-build directory.
type WorkspaceConfig struct {
	Directory string `yaml:"directory"`
}

// ConverterConfig describes the external deck converter invocation.
type ConverterConfig struct {
	Command []string `yaml:"command"` // argv prefix, e.g. [bunx, reveal-md]
	Args    []string `yaml:"args"`    // extra arguments appended after --static <dest>
	Timeout string   `yaml:"timeout"` // per-talk limit (Go duration); empty disables it
}

// AssetsConfig lists the shared assets emitted by the converter into every deck.
type AssetsConfig struct {
	SharedDirs []string `yaml:"shared_dirs"` // Directories copied once into the output root
	Favicon    string   `yaml:"favicon"`     // Optional shared icon file
	EntryFiles []string `yaml:"entry_files"` // Per-talk HTML files copied and patched
	Prefixes   []string `yaml:"prefixes"`    // Reference prefixes rewritten from ./ to ../
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig controls the optional Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// TimeoutDuration parses Converter.Timeout. Validation guarantees it parses.
func (c ConverterConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Policy converts the configured values. Validation guarantees they parse; anything unset
// keeps the retry package defaults.
func (r RetryConfig) Policy() retry.Policy {
	initial, _ := time.ParseDuration(r.Initial)
	maxDelay, _ := time.ParseDuration(r.Max)
	maxRetries := -1
	if r.MaxRetries != nil {
		maxRetries = *r.MaxRetries
	}
	return retry.NewPolicy(retry.BackoffMode(r.Backoff), initial, maxDelay, maxRetries)
}

// Load reads, defaults and validates a configuration file. Environment variables are
// loaded from .env files first and ${VAR} references in the YAML are expanded.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return finish(cfg)
}

// LoadOrDefault behaves like Load but returns the defaults when configPath does not exist.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		loadEnvFiles()
		return finish(&Config{})
	}
	return Load(configPath)
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func finish(cfg *Config) (*Config, error) {
	if err := normalize(cfg); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	ApplyDefaults(cfg)
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Init writes an example configuration file populated with the defaults.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Default()
	example.Converter.Timeout = "5m"

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
