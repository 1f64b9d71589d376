package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config is the resolved configuration of the identity client.
// Values can come from several sources, lowest precedence first:
// 1. Default values
// 2. Global config file (~/.config/idm/config.yaml)
// 3. Local config file (.idmrc.yaml in the current directory)
// 4. The file named by --config or IDM_CONFIG
// 5. Environment variables
// 6. Command-line flags
type Config struct {
	// Service settings
	BaseURL string        `yaml:"baseUrl" toml:"baseUrl" json:"baseUrl"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout" json:"timeout"`

	// Credentials. APIKeyFile is a properties file with apiKey.id and
	// apiKey.secret, read when the id or secret is not set directly.
	APIKeyID     string `yaml:"apiKeyId" toml:"apiKeyId" json:"apiKeyId"`
	APIKeySecret string `yaml:"apiKeySecret" toml:"apiKeySecret" json:"apiKeySecret"`
	APIKeyFile   string `yaml:"apiKeyFile,omitempty" toml:"apiKeyFile" json:"apiKeyFile,omitempty"`

	// Response cache. A zero CacheSize disables caching.
	CacheSize int           `yaml:"cacheSize" toml:"cacheSize" json:"cacheSize"`
	CacheTTL  time.Duration `yaml:"cacheTtl" toml:"cacheTtl" json:"cacheTtl"`

	// RateLimit caps requests per second. Zero means unlimited.
	RateLimit float64 `yaml:"rateLimit" toml:"rateLimit" json:"rateLimit"`

	// Logging settings
	LogLevel  string `yaml:"logLevel" toml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" toml:"logFormat" json:"logFormat"`

	// ConfigFile is the explicit config file, if any.
	ConfigFile string `yaml:"-" toml:"-" json:"configFile,omitempty"`

	// Sources tracks where each value came from, keyed by yaml name.
	Sources map[string]string `yaml:"-" toml:"-" json:"-"`
}

// Config sources.
const (
	SourceDefault = "default"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// Defaults.
const (
	DefaultBaseURL   = "http://localhost:4380/v1"
	DefaultTimeout   = 30 * time.Second
	DefaultCacheTTL  = 5 * time.Minute
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// NewDefault creates a Config holding the default values.
func NewDefault() *Config {
	cfg := &Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		CacheTTL:  DefaultCacheTTL,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Sources:   make(map[string]string),
	}
	for _, key := range []string{"baseUrl", "timeout", "cacheSize", "cacheTtl", "logLevel", "logFormat"} {
		cfg.Sources[key] = SourceDefault
	}
	return cfg
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("baseUrl is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("baseUrl %q must be an absolute http(s) URL", c.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("baseUrl %q must be an absolute http(s) URL", c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout %s cannot be negative", c.Timeout)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cacheSize %d cannot be negative", c.CacheSize)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rateLimit %g cannot be negative", c.RateLimit)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cacheTtl %s cannot be negative", c.CacheTTL)
	}
	if (c.APIKeyID == "") != (c.APIKeySecret == "") {
		return errors.New("apiKeyId and apiKeySecret must be set together")
	}
	return nil
}

// Masked returns a copy of c safe to print.
func (c *Config) Masked() *Config {
	out := *c
	if out.APIKeySecret != "" {
		out.APIKeySecret = "********"
	}
	return &out
}
