package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variable names
const (
	EnvBaseURL      = "IDM_BASE_URL"
	EnvTimeout      = "IDM_TIMEOUT"
	EnvAPIKeyID     = "IDM_API_KEY_ID"
	EnvAPIKeySecret = "IDM_API_KEY_SECRET"
	EnvAPIKeyFile   = "IDM_API_KEY_FILE"
	EnvCacheSize    = "IDM_CACHE_SIZE"
	EnvCacheTTL     = "IDM_CACHE_TTL"
	EnvRateLimit    = "IDM_RATE_LIMIT"
	EnvLogLevel     = "IDM_LOG_LEVEL"
	EnvLogFormat    = "IDM_LOG_FORMAT"
	EnvConfig       = "IDM_CONFIG"
)

// LoadEnvConfig loads configuration from environment variables.
// It only sets values that are present in the environment.
func LoadEnvConfig(cfg *Config) error {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	textVars := []struct {
		env, key string
		dst      *string
	}{
		{EnvBaseURL, "baseUrl", &cfg.BaseURL},
		{EnvAPIKeyID, "apiKeyId", &cfg.APIKeyID},
		{EnvAPIKeySecret, "apiKeySecret", &cfg.APIKeySecret},
		{EnvAPIKeyFile, "apiKeyFile", &cfg.APIKeyFile},
		{EnvLogLevel, "logLevel", &cfg.LogLevel},
		{EnvLogFormat, "logFormat", &cfg.LogFormat},
		{EnvConfig, "configFile", &cfg.ConfigFile},
	}
	for _, s := range textVars {
		if v := os.Getenv(s.env); v != "" {
			*s.dst = v
			cfg.Sources[s.key] = SourceEnv
		}
	}

	durations := []struct {
		env, key string
		dst      *time.Duration
	}{
		{EnvTimeout, "timeout", &cfg.Timeout},
		{EnvCacheTTL, "cacheTtl", &cfg.CacheTTL},
	}
	for _, d := range durations {
		if v := os.Getenv(d.env); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", d.env, err)
			}
			*d.dst = parsed
			cfg.Sources[d.key] = SourceEnv
		}
	}

	if v := os.Getenv(EnvCacheSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCacheSize, err)
		}
		cfg.CacheSize = n
		cfg.Sources["cacheSize"] = SourceEnv
	}

	if v := os.Getenv(EnvRateLimit); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateLimit, err)
		}
		cfg.RateLimit = f
		cfg.Sources["rateLimit"] = SourceEnv
	}
	return nil
}
