package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

// GlobalConfigDir is the directory for global config under the user config dir.
const GlobalConfigDir = "idm"

// LocalConfigFileNames are the names to search for local config (in order).
var LocalConfigFileNames = []string{".idmrc.yaml", ".idmrc.yml", ".idmrc.toml"}

// GlobalConfigFileNames are the names to search for global config (in order).
var GlobalConfigFileNames = []string{"config.yaml", "config.yml", "config.toml"}

// FindLocalConfig searches dir for a local config file.
// Returns empty string if not found.
func FindLocalConfig(dir string) string {
	for _, name := range LocalConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// FindGlobalConfig returns the path to the global config file.
// Returns empty string if not found.
func FindGlobalConfig() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	for _, name := range GlobalConfigFileNames {
		path := filepath.Join(configDir, GlobalConfigDir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadConfigFile loads a Config from a YAML or TOML file, chosen by extension.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
			return nil, tomlError(path, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, yamlError(path, err)
		}
	}

	cfg.Sources = make(map[string]string)
	return &cfg, nil
}

// ConfigError represents a configuration file error with location info.
type ConfigError struct {
	Path    string
	Line    int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", e.Path, e.Line, e.Message)
	}
	return e.Path + ": " + e.Message
}

var yamlLine = regexp.MustCompile(`line (\d+): (.*)`)

func yamlError(path string, err error) *ConfigError {
	msg := err.Error()
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		msg = te.Errors[0]
	}
	msg = strings.TrimPrefix(msg, "yaml: ")
	if m := yamlLine.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &ConfigError{Path: path, Line: line, Message: m[2]}
	}
	return &ConfigError{Path: path, Message: msg}
}

func tomlError(path string, err error) *ConfigError {
	var pe toml.ParseError
	if errors.As(err, &pe) {
		return &ConfigError{Path: path, Line: pe.Position.Line, Message: pe.Message}
	}
	return &ConfigError{Path: path, Message: err.Error()}
}

// LoadAPIKeyFile reads apiKey.id and apiKey.secret from a properties file.
func LoadAPIKeyFile(path string) (id, secret string, err error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return "", "", &ConfigError{Path: path, Message: err.Error()}
	}
	id, _ = p.Get("apiKey.id")
	secret, _ = p.Get("apiKey.secret")
	if id == "" || secret == "" {
		return "", "", &ConfigError{Path: path, Message: "apiKey.id and apiKey.secret are required"}
	}
	return id, secret, nil
}

// LoadAll loads configuration from every file and environment source and
// merges them over the defaults. dir is searched for a local config file;
// explicit, when set, names a config file that must exist.
func LoadAll(dir, explicit string) (*Config, error) {
	cfg := NewDefault()

	if path := FindGlobalConfig(); path != "" {
		fileCfg, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		MergeConfig(cfg, fileCfg, SourceGlobal)
	}

	if path := FindLocalConfig(dir); path != "" {
		fileCfg, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		MergeConfig(cfg, fileCfg, SourceLocal)
	}

	if explicit == "" {
		explicit = os.Getenv(EnvConfig)
	}
	if explicit != "" {
		fileCfg, err := LoadConfigFile(explicit)
		if err != nil {
			return nil, err
		}
		MergeConfig(cfg, fileCfg, SourceFile)
		cfg.ConfigFile = explicit
	}

	if err := LoadEnvConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveAPIKey fills the key id and secret from APIKeyFile when either is unset.
func (c *Config) ResolveAPIKey() error {
	if c.APIKeyFile == "" || (c.APIKeyID != "" && c.APIKeySecret != "") {
		return nil
	}
	id, secret, err := LoadAPIKeyFile(c.APIKeyFile)
	if err != nil {
		return err
	}
	if c.Sources == nil {
		c.Sources = make(map[string]string)
	}
	source := c.Sources["apiKeyFile"]
	if source == "" {
		source = SourceFile
	}
	c.APIKeyID, c.APIKeySecret = id, secret
	c.Sources["apiKeyId"], c.Sources["apiKeySecret"] = source, source
	return nil
}
