package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// isolate points the user config dir at an empty directory and clears IDM_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, env := range []string{
		EnvBaseURL, EnvTimeout, EnvAPIKeyID, EnvAPIKeySecret, EnvAPIKeyFile,
		EnvCacheSize, EnvCacheTTL, EnvRateLimit, EnvLogLevel, EnvLogFormat, EnvConfig,
	} {
		t.Setenv(env, "")
	}
	return filepath.Join(home, ".config")
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"empty base url", func(c *Config) { c.BaseURL = "" }, "baseUrl is required"},
		{"relative base url", func(c *Config) { c.BaseURL = "v1/accounts" }, `baseUrl "v1/accounts" must be an absolute http(s) URL`},
		{"ftp base url", func(c *Config) { c.BaseURL = "ftp://example.com" }, `baseUrl "ftp://example.com" must be an absolute http(s) URL`},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "timeout -1s cannot be negative"},
		{"negative cache size", func(c *Config) { c.CacheSize = -1 }, "cacheSize -1 cannot be negative"},
		{"negative rate limit", func(c *Config) { c.RateLimit = -0.5 }, "rateLimit -0.5 cannot be negative"},
		{"id without secret", func(c *Config) { c.APIKeyID = "id" }, "apiKeyId and apiKeySecret must be set together"},
		{"full key", func(c *Config) { c.APIKeyID, c.APIKeySecret = "id", "secret" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewDefault()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Masked(t *testing.T) {
	t.Parallel()

	cfg := NewDefault()
	cfg.APIKeySecret = "s3cret"
	masked := cfg.Masked()

	assert.Equal(t, "********", masked.APIKeySecret)
	assert.Equal(t, "s3cret", cfg.APIKeySecret)
}

func TestMergeConfig(t *testing.T) {
	t.Parallel()

	target := NewDefault()
	MergeConfig(target, &Config{BaseURL: "https://idm.example.com", CacheSize: 10}, SourceLocal)

	assert.Equal(t, "https://idm.example.com", target.BaseURL)
	assert.Equal(t, 10, target.CacheSize)
	assert.Equal(t, DefaultTimeout, target.Timeout)
	assert.Equal(t, SourceLocal, target.Sources["baseUrl"])
	assert.Equal(t, SourceLocal, target.Sources["cacheSize"])
	assert.Equal(t, SourceDefault, target.Sources["timeout"])

	MergeConfig(target, nil, SourceFlag)
	assert.Equal(t, "https://idm.example.com", target.BaseURL)
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	tests := []struct {
		name     string
		file     string
		content  string
		want     Config
		wantLine int
		wantErr  bool
	}{
		{
			name:    "yaml",
			file:    "a.yaml",
			content: "baseUrl: https://idm.example.com/v1\ntimeout: 5s\ncacheSize: 64\ncacheTtl: 1m\n",
			want:    Config{BaseURL: "https://idm.example.com/v1", Timeout: 5 * time.Second, CacheSize: 64, CacheTTL: time.Minute},
		},
		{
			name:    "toml",
			file:    "a.toml",
			content: "baseUrl = \"https://idm.example.com/v1\"\nlogLevel = \"debug\"\ncacheSize = 8\n",
			want:    Config{BaseURL: "https://idm.example.com/v1", LogLevel: "debug", CacheSize: 8},
		},
		{
			name:    "empty yaml",
			file:    "empty.yml",
			content: "",
			want:    Config{},
		},
		{
			name:     "yaml unknown field",
			file:     "bad.yaml",
			content:  "baseUrl: x\nport: 80\n",
			wantLine: 2,
			wantErr:  true,
		},
		{
			name:     "toml syntax error",
			file:     "bad.toml",
			content:  "baseUrl = \"x\"\ncacheSize = = 3\n",
			wantLine: 2,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, dir, tt.file, tt.content)

			cfg, err := LoadConfigFile(path)
			if tt.wantErr {
				var cfgErr *ConfigError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, path, cfgErr.Path)
				assert.Equal(t, tt.wantLine, cfgErr.Line)
				return
			}
			require.NoError(t, err)
			tt.want.Sources = map[string]string{}
			assert.Equal(t, &tt.want, cfg)
		})
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	t.Parallel()
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigError_Error(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a.yaml (line 3): bad", (&ConfigError{Path: "a.yaml", Line: 3, Message: "bad"}).Error())
	assert.Equal(t, "a.yaml: bad", (&ConfigError{Path: "a.yaml", Message: "bad"}).Error())
}

func TestLoadAll_Precedence(t *testing.T) {
	configHome := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(configHome, GlobalConfigDir), 0o700))
	writeFile(t, filepath.Join(configHome, GlobalConfigDir), "config.yaml",
		"baseUrl: https://global.example.com\ntimeout: 7s\nlogLevel: info\n")

	local := t.TempDir()
	writeFile(t, local, ".idmrc.toml", "baseUrl = \"https://local.example.com\"\ncacheSize = 32\n")

	t.Setenv(EnvCacheSize, "64")
	t.Setenv(EnvRateLimit, "2.5")

	cfg, err := LoadAll(local, "")
	require.NoError(t, err)

	assert.Equal(t, "https://local.example.com", cfg.BaseURL)
	assert.Equal(t, 7*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 64, cfg.CacheSize)
	assert.InDelta(t, 2.5, cfg.RateLimit, 0)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)

	assert.Equal(t, SourceLocal, cfg.Sources["baseUrl"])
	assert.Equal(t, SourceGlobal, cfg.Sources["timeout"])
	assert.Equal(t, SourceEnv, cfg.Sources["cacheSize"])
	assert.Equal(t, SourceDefault, cfg.Sources["logFormat"])
}

func TestLoadAll_ExplicitFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", "baseUrl: https://explicit.example.com\n")
	t.Setenv(EnvConfig, path)

	cfg, err := LoadAll(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, "https://explicit.example.com", cfg.BaseURL)
	assert.Equal(t, SourceFile, cfg.Sources["baseUrl"])
	assert.Equal(t, path, cfg.ConfigFile)

	_, err = LoadAll(t.TempDir(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadAll_BadEnv(t *testing.T) {
	isolate(t)
	t.Setenv(EnvTimeout, "soon")

	_, err := LoadAll(t.TempDir(), "")
	assert.ErrorContains(t, err, EnvTimeout)

	t.Setenv(EnvTimeout, "")
	t.Setenv(EnvRateLimit, "fast")
	_, err = LoadAll(t.TempDir(), "")
	assert.ErrorContains(t, err, EnvRateLimit)
}

func TestResolveAPIKey(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	keyFile := writeFile(t, dir, "apiKey.properties", "apiKey.id = ABC123\napiKey.secret = s3cr3t\n")

	cfg := NewDefault()
	cfg.APIKeyFile = keyFile
	require.NoError(t, cfg.ResolveAPIKey())
	assert.Equal(t, "ABC123", cfg.APIKeyID)
	assert.Equal(t, "s3cr3t", cfg.APIKeySecret)

	cfg = NewDefault()
	cfg.APIKeyID, cfg.APIKeySecret = "direct", "wins"
	cfg.APIKeyFile = keyFile
	require.NoError(t, cfg.ResolveAPIKey())
	assert.Equal(t, "direct", cfg.APIKeyID)

	incomplete := writeFile(t, dir, "partial.properties", "apiKey.id = ABC123\n")
	cfg = NewDefault()
	cfg.APIKeyFile = incomplete
	var cfgErr *ConfigError
	assert.ErrorAs(t, cfg.ResolveAPIKey(), &cfgErr)
}
