package config

import "time"

// Default values for Settings fields.
const (
	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "stderr"

	// Admin defaults
	DefaultAdminEnabled       = false
	DefaultAdminListenAddress = "127.0.0.1:9900"
	DefaultAdminReloadRate    = 1.0
	DefaultAdminReloadBurst   = 3

	// Shutdown defaults
	DefaultShutdownGrace       = 10 * time.Second
	DefaultShutdownHookTimeout = 5 * time.Second

	// Reload defaults
	DefaultReloadDebounce = 250 * time.Millisecond

	// Journal defaults
	DefaultJournalRetentionDays = 30
	DefaultJournalPruneSchedule = "0 3 * * *"

	// Metrics defaults
	DefaultMetricsNamespace = "keeper"

	// Tracing defaults
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingServiceName = "keeperd"
	DefaultTracingSampleRatio = 1.0
)

// DefaultSettings returns a Settings value with every default applied.
func DefaultSettings() Settings {
	var s Settings
	ApplyDefaults(&s)
	return s
}

// ApplyDefaults fills zero-valued fields of s with their defaults.
// It is idempotent: applying defaults twice yields the same result.
func ApplyDefaults(s *Settings) {
	applyLoggingDefaults(&s.Logging)
	applyAdminDefaults(&s.Admin)
	applyShutdownDefaults(&s.Shutdown)

	if s.Reload.Debounce == 0 {
		s.Reload.Debounce = DefaultReloadDebounce
	}

	if s.Journal.RetentionDays == 0 {
		s.Journal.RetentionDays = DefaultJournalRetentionDays
	}
	if s.Journal.PruneSchedule == "" {
		s.Journal.PruneSchedule = DefaultJournalPruneSchedule
	}

	if s.Metrics.Namespace == "" {
		s.Metrics.Namespace = DefaultMetricsNamespace
	}

	applyTracingDefaults(&s.Tracing)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = DefaultLogLevel
	}
	if cfg.Format == "" {
		cfg.Format = DefaultLogFormat
	}
	if cfg.Output == "" {
		cfg.Output = DefaultLogOutput
	}
}

func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultAdminListenAddress
	}
	if cfg.ReloadRate == 0 {
		cfg.ReloadRate = DefaultAdminReloadRate
	}
	if cfg.ReloadBurst == 0 {
		cfg.ReloadBurst = DefaultAdminReloadBurst
	}
}

func applyShutdownDefaults(cfg *ShutdownConfig) {
	if cfg.Grace == 0 {
		cfg.Grace = DefaultShutdownGrace
	}
	if cfg.HookTimeout == 0 {
		cfg.HookTimeout = DefaultShutdownHookTimeout
	}
}

func applyTracingDefaults(cfg *TracingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultTracingEndpoint
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultTracingServiceName
	}
	if cfg.SampleRatio == 0 {
		cfg.SampleRatio = DefaultTracingSampleRatio
	}
}
