package config

import "time"

// Settings is the daemon runtime's own configuration section. Applications
// embed it in their configuration type and hand it to the lifecycle
// extensions that consume it.
//
// Every field is hot-reloadable unless its documentation says otherwise.
type Settings struct {
	// Logging controls the process logger.
	Logging LoggingConfig `yaml:"logging" toml:"logging" json:"logging"`

	// Admin configures the operator HTTP listener.
	Admin AdminConfig `yaml:"admin" toml:"admin" json:"admin"`

	// Shutdown bounds the time spent in the ShuttingDown state.
	Shutdown ShutdownConfig `yaml:"shutdown" toml:"shutdown" json:"shutdown"`

	// Reload configures automatic reload triggers.
	Reload ReloadConfig `yaml:"reload" toml:"reload" json:"reload"`

	// Journal configures retention of the reload journal.
	Journal JournalConfig `yaml:"journal" toml:"journal" json:"journal"`

	// Metrics configures the Prometheus collector.
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics" json:"metrics"`

	// Tracing configures OpenTelemetry export.
	Tracing TracingConfig `yaml:"tracing" toml:"tracing" json:"tracing"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", or "error".
	Level string `yaml:"level" toml:"level" json:"level"`

	// Format is the output format: "json" or "text".
	Format string `yaml:"format" toml:"format" json:"format"`

	// Output is "stdout", "stderr", or a file path opened in append mode.
	Output string `yaml:"output" toml:"output" json:"output"`

	// AddSource includes the source file and line in each record.
	AddSource bool `yaml:"add_source" toml:"add_source" json:"add_source"`

	// RedactKeys lists additional attribute keys whose values are replaced
	// with "[REDACTED]".
	RedactKeys []string `yaml:"redact_keys" toml:"redact_keys" json:"redact_keys"`
}

// AdminConfig contains settings for the admin HTTP listener.
type AdminConfig struct {
	// Enabled starts the admin listener.
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`

	// ListenAddress is the host:port the listener binds to.
	// Changing it requires a restart.
	ListenAddress string `yaml:"listen_address" toml:"listen_address" json:"listen_address"`

	// ReloadRate is the number of operator reload requests accepted per second.
	ReloadRate float64 `yaml:"reload_rate" toml:"reload_rate" json:"reload_rate"`

	// ReloadBurst is the burst size for operator reload requests.
	ReloadBurst int `yaml:"reload_burst" toml:"reload_burst" json:"reload_burst"`
}

// ShutdownConfig bounds the shutdown sequence.
type ShutdownConfig struct {
	// Grace is how long bodies get to acknowledge cancellation.
	Grace time.Duration `yaml:"grace" toml:"grace" json:"grace"`

	// HookTimeout is the budget of each terminate hook.
	HookTimeout time.Duration `yaml:"hook_timeout" toml:"hook_timeout" json:"hook_timeout"`
}

// ReloadConfig configures automatic reload triggers.
type ReloadConfig struct {
	// Watch reloads when a configuration file changes on disk.
	Watch bool `yaml:"watch" toml:"watch" json:"watch"`

	// Debounce collapses bursts of file events into one reload.
	Debounce time.Duration `yaml:"debounce" toml:"debounce" json:"debounce"`

	// Schedule is an optional standard cron expression for periodic reloads.
	Schedule string `yaml:"schedule" toml:"schedule" json:"schedule"`
}

// JournalConfig configures reload journal retention.
type JournalConfig struct {
	// RetentionDays is how long entries are kept. 0 keeps entries forever.
	RetentionDays int `yaml:"retention_days" toml:"retention_days" json:"retention_days"`

	// PruneSchedule is the cron expression for pruning old entries.
	PruneSchedule string `yaml:"prune_schedule" toml:"prune_schedule" json:"prune_schedule"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics on the admin listener.
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`

	// Namespace prefixes every metric name. Changing it requires a restart.
	Namespace string `yaml:"namespace" toml:"namespace" json:"namespace"`
}

// TracingConfig contains OpenTelemetry settings. Changing it requires a restart.
type TracingConfig struct {
	// Enabled turns on span export.
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	Endpoint string `yaml:"endpoint" toml:"endpoint" json:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure" toml:"insecure" json:"insecure"`

	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `yaml:"service_name" toml:"service_name" json:"service_name"`

	// SampleRatio is the fraction of cycles traced, between 0 and 1.
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio" json:"sample_ratio"`
}
