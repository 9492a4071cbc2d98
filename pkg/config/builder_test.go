package config

import "time"

// SettingsBuilder provides a fluent API for building Settings in tests.
// It starts with default values and allows selective overrides.
type SettingsBuilder struct {
	s Settings
}

// NewTestSettings creates a builder whose result is valid as-is.
func NewTestSettings() *SettingsBuilder {
	return &SettingsBuilder{s: DefaultSettings()}
}

// Build returns the built Settings.
func (b *SettingsBuilder) Build() *Settings {
	return &b.s
}

// WithLogLevel sets the logging level.
func (b *SettingsBuilder) WithLogLevel(level string) *SettingsBuilder {
	b.s.Logging.Level = level
	return b
}

// WithLogFormat sets the logging format.
func (b *SettingsBuilder) WithLogFormat(format string) *SettingsBuilder {
	b.s.Logging.Format = format
	return b
}

// WithAdmin enables the admin listener on addr.
func (b *SettingsBuilder) WithAdmin(addr string) *SettingsBuilder {
	b.s.Admin.Enabled = true
	b.s.Admin.ListenAddress = addr
	return b
}

// WithHookTimeout sets the terminate hook budget.
func (b *SettingsBuilder) WithHookTimeout(d time.Duration) *SettingsBuilder {
	b.s.Shutdown.HookTimeout = d
	return b
}

// WithReloadSchedule sets the reload cron expression.
func (b *SettingsBuilder) WithReloadSchedule(expr string) *SettingsBuilder {
	b.s.Reload.Schedule = expr
	return b
}

// WithTracing enables tracing with the given sample ratio.
func (b *SettingsBuilder) WithTracing(endpoint string, ratio float64) *SettingsBuilder {
	b.s.Tracing.Enabled = true
	b.s.Tracing.Endpoint = endpoint
	b.s.Tracing.SampleRatio = ratio
	return b
}
