package main

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/keeper/pkg/cli"
	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/journal"
	"mercator-hq/keeper/pkg/lifecycle"
	"mercator-hq/keeper/pkg/listen"
	"mercator-hq/keeper/pkg/schedule"
	"mercator-hq/keeper/pkg/server"
	"mercator-hq/keeper/pkg/signals"
	"mercator-hq/keeper/pkg/telemetry/health"
	"mercator-hq/keeper/pkg/telemetry/logging"
	"mercator-hq/keeper/pkg/telemetry/metrics"
	"mercator-hq/keeper/pkg/telemetry/tracing"
	"mercator-hq/keeper/pkg/watch"
)

const greetTimeout = 5 * time.Second

var runFlags struct {
	signals []string
	journal string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the daemon",
	Long: `Start the daemon and keep it running until a terminate signal.

By default SIGHUP reloads the configuration and SIGINT/SIGTERM shut down.
Use --signal to remap, e.g. --signal USR1=reload --signal USR2=custom:rotate.

Examples:
  # Start with a config file
  keeperd run --config keeperd.yaml

  # Persist the reload journal in SQLite
  keeperd run --config keeperd.yaml --journal sqlite:/var/lib/keeperd/journal.db

  # Raise the log level for this run only
  keeperd run --config keeperd.yaml --set daemon.logging.level=debug`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayVar(&runFlags.signals, "signal", nil, "map a signal to an action: SIGNAL=reload|terminate|custom:<tag> (repeatable)")
	runCmd.Flags().StringVar(&runFlags.journal, "journal", "memory", "reload journal: memory, memory:<capacity>, sqlite:<path> or sqlite3:<path>")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loader, err := newLoader()
	if err != nil {
		return &cli.ExitError{Code: lifecycle.ExitStartup, Err: err}
	}
	mapping, err := signals.ParseMapping(runFlags.signals)
	if err != nil {
		return &cli.ExitError{Code: lifecycle.ExitStartup, Err: err}
	}

	// Tracing and metrics are built once from the startup configuration;
	// later changes to those sections need a restart. A configuration that
	// does not load here falls back to defaults, and the startup cycle then
	// rejects, logs and journals it like any other failure.
	boot, err := loader.Load(ctx)
	if err != nil {
		boot = defaultAppConfig()
	}

	logger, err := logging.New(boot.Daemon.Logging)
	if err != nil {
		return &cli.ExitError{Code: lifecycle.ExitStartup, Err: err}
	}
	defer logger.Close()

	tracer, err := tracing.New(ctx, boot.Daemon.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return &cli.ExitError{Code: lifecycle.ExitStartup, Err: err}
	}

	metricsCfg := boot.Daemon.Metrics
	collector := metrics.NewCollector(&metricsCfg, nil)

	store, err := journal.Open(runFlags.journal)
	if err != nil {
		return &cli.ExitError{Code: lifecycle.ExitStartup, Err: err}
	}
	defer store.Close()

	ctl := lifecycle.New[AppConfig](loader, lifecycle.Options{
		Logger:  logger.Slog(),
		Signals: mapping,
		Metrics: collector,
		Journal: store,
		Tracer:  tracer.Tracer(),
	})

	greeter := listen.New("greeter", listenEndpoints, listen.HandlerFunc(func(_ context.Context, conn net.Conn) {
		greet(ctl, conn)
	}))
	udpGreeter := listen.NewUDP("greeter", udpEndpoints, listen.PacketHandlerFunc(func(_ context.Context, conn net.PacketConn, from net.Addr, _ []byte) {
		greetPacket(ctl, conn, from)
	}))

	if err := ctl.With(
		lifecycle.SettingsExtension("daemon", daemonSettings),
		logging.Extension(logger, func(c AppConfig) config.LoggingConfig { return c.Daemon.Logging }),
		tracing.Extension(tracer, func(c AppConfig) config.TracingConfig { return c.Daemon.Tracing }),
		watch.Extension(cfgPaths, func(c AppConfig) config.ReloadConfig { return c.Daemon.Reload }),
		schedule.Extension(schedule.New(logger.Slog()), daemonSettings),
		lifecycle.ExtensionFunc[AppConfig](validateEndpoints),
		greeter,
		udpGreeter,
		server.New(func(c AppConfig) config.AdminConfig { return c.Daemon.Admin }, server.Options{
			Version: health.NewVersionInfo(Version, GitCommit, BuildDate),
			Metrics: collector,
		}),
	); err != nil {
		return &cli.ExitError{Code: lifecycle.ExitStartup, Err: err}
	}

	logger.Slog().Info("starting keeperd",
		"version", Version,
		"sources", loader.Sources(),
		"journal", runFlags.journal,
	)

	if err := ctl.Run(ctx); err != nil {
		return cli.NewExitError(err)
	}
	return nil
}

func validateEndpoints(ctl *lifecycle.Controller[AppConfig]) error {
	return ctl.OnValidate("endpoints", func(_ context.Context, _ *lifecycle.Cycle, cfg AppConfig) error {
		if err := listen.Validate(cfg.Listen); err != nil {
			return err
		}
		return listen.Validate(cfg.ListenUDP)
	})
}

func currentMessage(ctl *lifecycle.Controller[AppConfig]) string {
	if snap := ctl.Config(); snap != nil {
		return snap.Value().Message
	}
	return ""
}

// greet writes the message of the current snapshot.
func greet(ctl *lifecycle.Controller[AppConfig], conn net.Conn) {
	_ = conn.SetWriteDeadline(time.Now().Add(greetTimeout))

	if _, err := io.WriteString(conn, currentMessage(ctl)+"\n"); err != nil {
		ctl.Logger().Debug("greeting failed", "remote", conn.RemoteAddr().String(), "error", err)
	}
}

// greetPacket answers any datagram with the message of the current snapshot.
func greetPacket(ctl *lifecycle.Controller[AppConfig], conn net.PacketConn, from net.Addr) {
	_ = conn.SetWriteDeadline(time.Now().Add(greetTimeout))
	if _, err := conn.WriteTo([]byte(currentMessage(ctl)+"\n"), from); err != nil {
		ctl.Logger().Debug("udp greeting failed", "remote", from.String(), "error", err)
	}
}
