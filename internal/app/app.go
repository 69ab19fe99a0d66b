package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"usbtop/internal/aggregators"
	"usbtop/internal/captures"
	"usbtop/internal/devices"
	internalhttp "usbtop/internal/http"
	"usbtop/internal/orchestrators"
	"usbtop/internal/renderers"
	"usbtop/internal/shared/configs"
	"usbtop/internal/shared/loggers"

	"github.com/spf13/afero"
)

// App holds all application dependencies and manages lifecycle.
type App struct {
	config    *configs.Config
	appLogger loggers.Logger
	server    *http.Server

	buses        []uint16
	orchestrator orchestrators.Orchestrator
}

// New creates and initializes a new App instance reading usbmon and sysfs from the host.
func New(config *configs.Config) (*App, error) {
	// The table owns stdout; logs go to stderr so they do not tear the frame.
	logOutput := io.Writer(os.Stdout)
	if config.Render.Mode == "table" {
		logOutput = os.Stderr
	}
	appLogger, err := loggers.NewWithWriter(config.Log.Level, logOutput)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return newApp(config, afero.NewOsFs(), os.Stdout, appLogger)
}

func newApp(config *configs.Config, fs afero.Fs, console io.Writer, appLogger loggers.Logger) (*App, error) {
	appLogger = appLogger.With().
		Str(loggers.FieldApp, "usbtop").
		Logger()

	// Resolve buses
	paths := captures.Paths{
		BinaryRoot: config.Capture.BinaryRoot,
		TextRoot:   config.Capture.TextRoot,
	}
	buses := make([]uint16, 0, len(config.Capture.Buses))
	for _, bus := range config.Capture.Buses {
		buses = append(buses, uint16(bus))
	}
	if len(buses) == 0 {
		discovered, err := captures.DiscoverBuses(fs, paths)
		if err != nil {
			return nil, fmt.Errorf("failed to discover buses: %w", err)
		}
		buses = discovered
	}

	// Initialize device manager and aggregator
	deviceManager := devices.NewSysfsDeviceManager(fs, devices.Config{
		Root:     config.Devices.SysfsRoot,
		CacheTTL: time.Duration(config.Devices.CacheTTLSeconds) * time.Second,
		Logger:   appLogger.With().Str(loggers.FieldComponent, "devices").Logger(),
	})
	aggregator, err := aggregators.NewBandwidthAggregator(deviceManager, aggregators.Config{
		HistoryWindow: config.Stats.HistoryWindow(),
		SampleBucket:  config.Stats.SampleBucket(),
		StaleGrace:    config.Stats.StaleGrace(),
		Logger:        appLogger.With().Str(loggers.FieldComponent, "aggregator").Logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize aggregator: %w", err)
	}

	// Initialize capture sources, one per bus
	sources := make([]captures.CaptureSource, 0, len(buses))
	for _, bus := range buses {
		sources = append(sources, captures.NewUsbmonSource(fs, captures.SourceConfig{
			Bus:                bus,
			PreferBinary:       config.Capture.PreferBinaryFormat,
			Paths:              paths,
			ReadBufferBytes:    config.Capture.ReadBufferBytes,
			MalformedThreshold: config.Capture.MalformedThreshold,
			Logger:             appLogger.With().Str(loggers.FieldComponent, "capture").Logger(),
		}))
	}

	// Initialize renderers
	var tickRenderers []orchestrators.Renderer
	switch config.Render.Mode {
	case "table":
		tickRenderers = append(tickRenderers, renderers.NewTableRenderer(console, deviceManager, true))
	case "log":
		tickRenderers = append(tickRenderers, renderers.NewLogRenderer(appLogger, deviceManager))
	}
	if config.Server.Enabled {
		tickRenderers = append(tickRenderers, renderers.NewMetricsRenderer())
	}

	orchestrator := orchestrators.NewOrchestrator(sources, aggregator, tickRenderers, orchestrators.Config{
		TickInterval:     config.Stats.TickInterval(),
		StaleGrace:       config.Stats.StaleGrace(),
		StaleEvictFactor: config.Stats.StaleEvictFactor,
		EventQueueSize:   config.Stats.EventQueueSize,
		DrainTimeout:     config.Stats.DrainTimeout(),
		Logger:           appLogger.With().Str(loggers.FieldComponent, "orchestrator").Logger(),
	})

	// Create the optional status server
	var server *http.Server
	if config.Server.Enabled {
		httpLogger := appLogger.With().Str(loggers.FieldComponent, "http").Logger()
		server = &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Server.Port),
			Handler:           internalhttp.NewRouter(orchestrator, httpLogger),
			ReadHeaderTimeout: time.Duration(config.Server.ReadHeaderTimeout) * time.Second,
			ReadTimeout:       time.Duration(config.Server.ReadTimeout) * time.Second,
			WriteTimeout:      time.Duration(config.Server.WriteTimeout) * time.Second,
			IdleTimeout:       time.Duration(config.Server.IdleTimeout) * time.Second,
		}
	}

	return &App{
		config:       config,
		appLogger:    appLogger,
		server:       server,
		buses:        buses,
		orchestrator: orchestrator,
	}, nil
}

// Start runs the capture pipeline until ctx is cancelled or every source has failed.
// The status server, when enabled, is served in the background.
func (app *App) Start(ctx context.Context) error {
	app.appLogger.Info().
		Msgf("Starting usbtop on buses %v (log_level=%s, render=%s, prefer_binary=%t)",
			app.buses,
			app.config.Log.Level,
			app.config.Render.Mode,
			app.config.Capture.PreferBinaryFormat)

	if app.server != nil {
		go func() {
			app.appLogger.Info().Msgf("Serving status endpoint on port %d", app.config.Server.Port)
			if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.appLogger.Error().Err(err).Msg("status server failed")
			}
		}()
	}

	return app.orchestrator.Run(ctx)
}

// Shutdown gracefully shuts down the application.
func (app *App) Shutdown(ctx context.Context) error {
	if app.server != nil {
		app.appLogger.Info().Msg("Shutting down server...")
		if err := app.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		app.appLogger.Info().Msg("Server stopped")
	}
	app.appLogger.Info().
		Str(loggers.FieldState, app.orchestrator.State().String()).
		Msg("usbtop stopped")
	return nil
}
