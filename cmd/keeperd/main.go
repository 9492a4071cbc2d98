// Keeperd is a reference daemon built on the keeper lifecycle runtime.
//
// It loads layered configuration, keeps it hot-reloadable through signals,
// file watching, cron schedules and an admin endpoint, and serves a small
// TCP greeting service whose listeners and message follow the configuration.
//
// Usage:
//
//	# Start with a configuration file
//	keeperd run --config /etc/keeperd/keeperd.yaml
//
//	# Merge a directory of fragments and override one value
//	keeperd run --config /etc/keeperd/conf.d --set message=hello
//
//	# Validate configuration without starting
//	keeperd check --config /etc/keeperd/keeperd.yaml
//
//	# Show version information
//	keeperd version
package main

import "os"

func main() {
	os.Exit(Execute())
}
