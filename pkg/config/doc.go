// Package config provides layered configuration loading and the shared,
// hot-swappable configuration cell used by the lifecycle controller.
//
// # Layered Loading
//
// A Loader merges sources field by field, lowest precedence first:
//
//	loader := config.NewLoader(
//	    config.Defaults(defaultConfig),
//	    config.File[Config]("/etc/keeperd/keeperd.yaml"),
//	    config.Env[Config]("KEEPER"),
//	    config.Overrides[Config]("daemon.logging.level=debug"),
//	)
//	cfg, err := loader.Load(ctx)
//
// Files are decoded as YAML, TOML or JSON depending on their extension.
// A directory of fragments can be loaded with Dir. Failures are reported as
// *LoadError, which names the offending source and classifies the reason.
//
// # Environment Variables
//
// Environment variables follow the naming convention PREFIX_SECTION_FIELD.
// With prefix KEEPER:
//
//   - KEEPER_DAEMON_LOGGING_LEVEL overrides daemon.logging.level
//   - KEEPER_DAEMON_SHUTDOWN_GRACE overrides daemon.shutdown.grace
//
// # Configuration Precedence
//
// Values are applied in the following order (later overrides earlier):
//
//  1. Defaults
//  2. Files, in the order given
//  3. Environment variables
//  4. Command-line overrides
//
// Fields tagged required:"true" must be non-zero after merging.
//
// # Shared Snapshots
//
// Shared holds the live configuration as an immutable *Snapshot. Readers
// call Get, which is a single atomic load and never blocks. A snapshot
// obtained by a reader stays valid after a newer one is committed:
//
//	snap := shared.Get()
//	fmt.Println(snap.Version(), snap.Value().Port)
//
// Commit versions must increase strictly.
//
// # Example Configuration
//
//	daemon:
//	  logging:
//	    level: "info"
//	    format: "json"
//	  shutdown:
//	    grace: 10s
//	    hook_timeout: 5s
//	  reload:
//	    watch: true
package config
