// Package config loads storefront settings from YAML files and the
// environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spiffcs/storefront/internal/constants"
	"github.com/spiffcs/storefront/internal/duration"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	BaseURL       string `yaml:"base_url,omitempty" json:"base_url,omitempty" env:"STOREFRONT_BASE_URL"`
	ImageBaseURL  string `yaml:"image_base_url,omitempty" json:"image_base_url,omitempty" env:"STOREFRONT_IMAGE_BASE_URL"`
	DefaultFormat string `yaml:"default_format,omitempty" json:"default_format,omitempty" env:"STOREFRONT_FORMAT"`
	Retries       *int   `yaml:"retries,omitempty" json:"retries,omitempty" env:"STOREFRONT_RETRIES"`
	PageCacheTTL  string `yaml:"page_cache_ttl,omitempty" json:"page_cache_ttl,omitempty" env:"STOREFRONT_PAGE_CACHE_TTL"`
	Timeout       string `yaml:"timeout,omitempty" json:"timeout,omitempty" env:"STOREFRONT_TIMEOUT"`

	// Token only ever comes from the environment; the session file holds
	// tokens obtained by logging in.
	Token string `yaml:"-" json:"-" env:"STOREFRONT_TOKEN"`
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".storefront"
	}
	return filepath.Join(configDir, "storefront")
}

// ConfigPath returns the path to the global config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".storefront.yaml"
}

// DotEnvPath is the optional file of KEY=value environment defaults read
// from the current directory.
const DotEnvPath = ".env"

// Load loads the configuration: defaults, then the global file, then the
// local .storefront.yaml, then STOREFRONT_* variables from .env and the
// process environment.
func Load() (*Config, error) {
	environ, err := Environ(DotEnvPath)
	if err != nil {
		return nil, err
	}
	return LoadFrom(ConfigPath(), LocalConfigPath(), environ)
}

// Environ returns the process environment layered over the variables in
// dotenvPath. A missing file is not an error.
func Environ(dotenvPath string) (map[string]string, error) {
	environ := map[string]string{}
	if dotenvPath != "" {
		fileEnv, err := godotenv.Read(dotenvPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", dotenvPath, err)
		}
		for k, v := range fileEnv {
			environ[k] = v
		}
	}
	for k, v := range env.ToMap(os.Environ()) {
		environ[k] = v
	}
	return environ, nil
}

// LoadFrom is Load with explicit file paths and environment.
func LoadFrom(globalPath, localPath string, environ map[string]string) (*Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	cfg := &Config{}

	global, err := readFile(globalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load global config file: %w", err)
	}
	if global != nil {
		cfg = global
	}

	local, err := readFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load local config file: %w", err)
	}
	if local != nil {
		cfg = mergeConfig(cfg, local)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = "table"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// readFile parses a config file, returning nil when it does not exist.
func readFile(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := *global

	if local.BaseURL != "" {
		result.BaseURL = local.BaseURL
	}
	if local.ImageBaseURL != "" {
		result.ImageBaseURL = local.ImageBaseURL
	}
	if local.DefaultFormat != "" {
		result.DefaultFormat = local.DefaultFormat
	}
	if local.Retries != nil {
		result.Retries = local.Retries
	}
	if local.PageCacheTTL != "" {
		result.PageCacheTTL = local.PageCacheTTL
	}
	if local.Timeout != "" {
		result.Timeout = local.Timeout
	}

	return &result
}

// Validate checks that every set value is usable.
func (c *Config) Validate() error {
	if c.BaseURL != "" {
		if err := validateURL(c.BaseURL); err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
	}
	if c.ImageBaseURL != "" {
		if err := validateURL(c.ImageBaseURL); err != nil {
			return fmt.Errorf("invalid image_base_url: %w", err)
		}
	}
	switch c.DefaultFormat {
	case "", "table", "json", "markdown":
	default:
		return fmt.Errorf("invalid default_format: %s (must be table, json or markdown)", c.DefaultFormat)
	}
	if c.Retries != nil && *c.Retries < 0 {
		return fmt.Errorf("invalid retries: %d (must be >= 0)", *c.Retries)
	}
	if _, err := c.GetPageCacheTTL(); err != nil {
		return err
	}
	if _, err := c.GetTimeout(); err != nil {
		return err
	}
	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: scheme must be http or https", s)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: missing host", s)
	}
	return nil
}

// GetBaseURL returns the API root, defaulting to the local development server.
func (c *Config) GetBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return constants.DefaultBaseURL
}

// GetImageBaseURL returns where product images are served, defaulting to
// the API root.
func (c *Config) GetImageBaseURL() string {
	if c.ImageBaseURL != "" {
		return c.ImageBaseURL
	}
	return c.GetBaseURL()
}

// GetRetries returns how many times idempotent requests are retried.
func (c *Config) GetRetries() int {
	if c.Retries != nil {
		return *c.Retries
	}
	return constants.DefaultRetries
}

// GetPageCacheTTL returns how long fetched pages are served from disk.
func (c *Config) GetPageCacheTTL() (time.Duration, error) {
	if c.PageCacheTTL == "" {
		return constants.PageCacheTTL, nil
	}
	d, err := duration.Parse(c.PageCacheTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid page_cache_ttl: %w", err)
	}
	return d, nil
}

// GetTimeout returns the per-request timeout.
func (c *Config) GetTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return constants.DefaultTimeout, nil
	}
	d, err := duration.Parse(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout: %w", err)
	}
	if d == 0 {
		return 0, fmt.Errorf("invalid timeout: must be greater than zero")
	}
	return d, nil
}

// Save saves the configuration to the global config file
func (c *Config) Save() error {
	return c.SaveFile(ConfigPath())
}

// SaveFile writes the configuration to path.
func (c *Config) SaveFile(path string) error {
	content, err := c.ToYAML()
	if err != nil {
		return err
	}
	return SaveTo(path, content)
}

// Keys lists the settings accepted by Set.
func Keys() []string {
	return []string{"base_url", "image_base_url", "default_format", "retries", "page_cache_ttl", "timeout"}
}

// Set assigns a single setting by its file key and validates the result.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case "token":
		return fmt.Errorf("tokens cannot be stored in config files. Run 'storefront login' or set STOREFRONT_TOKEN instead")
	case "base_url":
		next.BaseURL = value
	case "image_base_url":
		next.ImageBaseURL = value
	case "default_format", "format":
		next.DefaultFormat = value
	case "retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries: %s", value)
		}
		next.Retries = &n
	case "page_cache_ttl":
		next.PageCacheTTL = value
	case "timeout":
		next.Timeout = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// DefaultConfig returns a fully populated config with all default values.
func DefaultConfig() *Config {
	retries := constants.DefaultRetries
	return &Config{
		BaseURL:       constants.DefaultBaseURL,
		ImageBaseURL:  constants.DefaultBaseURL,
		DefaultFormat: "table",
		Retries:       &retries,
		PageCacheTTL:  constants.PageCacheTTL.String(),
		Timeout:       constants.DefaultTimeout.String(),
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# Storefront configuration file
# See: storefront config defaults  (for all available options)

# Shop API root
base_url: http://localhost:4000

# Where product images are served (defaults to base_url)
# image_base_url: http://localhost:4000

# Output format for 'storefront products': table, json or markdown
default_format: table

# How long fetched pages are reused before refetching
# page_cache_ttl: 5m

# Retries for failed read requests
# retries: 2

# Environment overrides: STOREFRONT_BASE_URL, STOREFRONT_IMAGE_BASE_URL,
# STOREFRONT_FORMAT, STOREFRONT_RETRIES, STOREFRONT_PAGE_CACHE_TTL,
# STOREFRONT_TIMEOUT, STOREFRONT_TOKEN
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
