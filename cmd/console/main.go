package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/open-teleop/rover-console/domain/diagnostic"
	"github.com/open-teleop/rover-console/domain/telemetry"
	"github.com/open-teleop/rover-console/pkg/api"
	"github.com/open-teleop/rover-console/pkg/config"
	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/pkg/rover"
	"github.com/open-teleop/rover-console/pkg/store"
	"github.com/open-teleop/rover-console/pkg/tui"
	"github.com/open-teleop/rover-console/pkg/zeromq"
	"github.com/open-teleop/rover-console/services"
)

func main() {
	terminal := flag.Bool("tui", false, "show the terminal dashboard and drive with the keyboard")
	flag.Parse()

	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "./config"
	}

	bootstrap, err := config.LoadBootstrapConfig(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load bootstrap config: %v\n", err)
		os.Exit(1)
	}

	newLogger := customlog.NewLogrusLogger
	if *terminal {
		newLogger = customlog.NewLogrusFileLogger
	}
	logger, err := newLogger(bootstrap.Logging.Level, bootstrap.Logging.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Infof("Loaded bootstrap config from %s", configDir)

	st, err := store.Open(bootstrap.Data.Directory)
	if err != nil {
		logger.Fatalf("Failed to open settings store: %v", err)
	}
	defer st.Close()

	settings, err := services.NewSettingsService(st, config.DefaultPollingConfig(bootstrap.Rover.DefaultAddress), logger)
	if err != nil {
		logger.Fatalf("Failed to load settings: %v", err)
	}
	current := settings.GetCurrentSettings()

	client := rover.NewClient(current.TargetAddress,
		time.Duration(bootstrap.Rover.RequestTimeoutMs)*time.Millisecond)

	opts := services.ConsoleOptions{
		Settings:         current,
		SettleDelay:      time.Duration(bootstrap.Rover.SettleDelayMs) * time.Millisecond,
		LogFetchInterval: time.Duration(bootstrap.Rover.LogFetchIntervalMs) * time.Millisecond,
		Processing:       bootstrap.Processing,
	}

	// Assigned below; the fan-out only reads it once the console runs.
	var console *services.Console

	var zmqService *zeromq.TelemetryService
	if bootstrap.ZeroMQ.PublishBindAddress != "" {
		zmqService, err = zeromq.NewTelemetryService(zeromq.Options{
			PublishAddress: bootstrap.ZeroMQ.PublishBindAddress,
			ReplyAddress:   bootstrap.ZeroMQ.ReplyBindAddress,
		}, logger.WithField("component", "zeromq"))
		if err != nil {
			logger.Fatalf("Failed to start telemetry fan-out: %v", err)
		}
		publisher := zeromq.NewTelemetryPublisher(zmqService, logger,
			func() string { return console.MissionRunID() },
			func() string { return console.RoverAddress() })
		opts.Sinks = append(opts.Sinks, publisher)
		opts.ConnectionListeners = append(opts.ConnectionListeners, publisher)

		zeromq.RegisterQueryHandlers(zmqService,
			func() interface{} { return settings.GetCurrentSettings() },
			func() interface{} { return console.Board().Snapshot() },
			logger)
		logger.Infof("Publishing telemetry on %s", zmqService.PublishEndpoint())
	}

	console = services.NewConsole(client, opts, logger)
	settings.SetListener(console)
	if zmqService != nil {
		zmqService.Start()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := console.Start(ctx); err != nil {
		logger.Fatalf("Failed to start console: %v", err)
	}

	app := api.NewServer(console, settings, diagnostic.NewDiagnosticService(console), logger, api.ServerOptions{
		StaticDir:      bootstrap.Server.StaticDir,
		RequestLogging: !*terminal,
	})

	// Get port from environment variable or use the configured one
	port := os.Getenv("PORT")
	if port == "" {
		port = strconv.Itoa(bootstrap.Server.HTTPPort)
	}

	go func() {
		logger.Infof("Server starting on port %s", port)
		if err := app.Listen(":" + port); err != nil {
			logger.Errorf("Failed to start server: %v", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if *terminal {
		uiCtx, uiCancel := context.WithCancel(ctx)
		go func() {
			select {
			case <-quit:
			case <-uiCtx.Done():
			}
			uiCancel()
		}()
		if err := tui.New(console, logger).Run(uiCtx); err != nil && err != context.Canceled {
			logger.Errorf("Terminal view failed: %v", err)
		}
		uiCancel()
	} else {
		select {
		case <-quit:
		case <-ctx.Done():
		}
	}
	logger.Infof("Shutting down console...")

	// Final Stop goes out before the transports close.
	console.Shutdown()
	if zmqService != nil {
		zmqService.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Infof("Console exited properly")
}

// Compile-time check that the fan-out satisfies both console hooks.
var (
	_ telemetry.SnapshotSink       = (*zeromq.TelemetryPublisher)(nil)
	_ telemetry.ConnectionListener = (*zeromq.TelemetryPublisher)(nil)
)
