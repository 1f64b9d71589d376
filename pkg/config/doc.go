// Package config resolves the idm client configuration from defaults, config
// files, environment variables and flags.
//
// Config files may be YAML (.yaml, .yml) or TOML (.toml):
//
//	baseUrl: https://idm.example.com/v1
//	apiKeyFile: /etc/idm/apiKey.properties
//	timeout: 10s
//	cacheSize: 256
//	cacheTtl: 1m
//	logLevel: debug
//
// Every resolved value records its origin in Config.Sources, which
// `idmctl config show` prints next to the value.
package config
