package config

// MergeConfig merges source config into target, updating sources tracking.
// Only non-zero values from source are applied.
func MergeConfig(target, source *Config, sourceType string) {
	if source == nil {
		return
	}
	if target.Sources == nil {
		target.Sources = make(map[string]string)
	}

	if source.BaseURL != "" {
		target.BaseURL = source.BaseURL
		target.Sources["baseUrl"] = sourceType
	}
	if source.Timeout != 0 {
		target.Timeout = source.Timeout
		target.Sources["timeout"] = sourceType
	}
	if source.APIKeyID != "" {
		target.APIKeyID = source.APIKeyID
		target.Sources["apiKeyId"] = sourceType
	}
	if source.APIKeySecret != "" {
		target.APIKeySecret = source.APIKeySecret
		target.Sources["apiKeySecret"] = sourceType
	}
	if source.APIKeyFile != "" {
		target.APIKeyFile = source.APIKeyFile
		target.Sources["apiKeyFile"] = sourceType
	}
	if source.CacheSize != 0 {
		target.CacheSize = source.CacheSize
		target.Sources["cacheSize"] = sourceType
	}
	if source.CacheTTL != 0 {
		target.CacheTTL = source.CacheTTL
		target.Sources["cacheTtl"] = sourceType
	}
	if source.RateLimit != 0 {
		target.RateLimit = source.RateLimit
		target.Sources["rateLimit"] = sourceType
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
		target.Sources["logLevel"] = sourceType
	}
	if source.LogFormat != "" {
		target.LogFormat = source.LogFormat
		target.Sources["logFormat"] = sourceType
	}
	if source.ConfigFile != "" {
		target.ConfigFile = source.ConfigFile
		target.Sources["configFile"] = sourceType
	}
}
