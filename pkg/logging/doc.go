// Package logging builds the slog loggers used by the idm client and idmctl.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//
//	logger.Debug("request", "method", "GET", "href", href, "status", 200)
//
// Attributes named in Config.Redact (password, apiKeySecret and authorization
// by default) are written as [REDACTED].
//
// # Integration
//
// Components accept a *slog.Logger through an option. If none is given they
// use logging.Nop().
package logging
