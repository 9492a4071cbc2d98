// Package logging builds the daemon's log/slog pipeline.
//
// A Logger hands out one *slog.Logger for the life of the process. Its
// level lives in a slog.LevelVar and its handler behind an atomic swap, so
// a reload can change level, format, output or redaction without callers
// re-fetching their logger. Loggers derived with With keep their attributes
// across a swap.
//
// # Usage
//
//	logger, err := logging.New(config.LoggingConfig{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	ctl := lifecycle.New[AppConfig](loader, lifecycle.Options{Logger: logger.Slog()})
//	ctl.With(logging.Extension(logger, func(c AppConfig) config.LoggingConfig {
//	    return c.Daemon.Logging
//	}))
//
// # Redaction
//
// Attributes whose key contains password, secret, token, api_key and
// similar are replaced with "***". String values are scrubbed of bearer
// tokens, key=value credentials and URL userinfo passwords.
//
// # Trace correlation
//
// Records logged with a context carrying a valid span get trace_id and
// span_id attributes.
package logging
