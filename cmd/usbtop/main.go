package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"usbtop/internal/app"
	"usbtop/internal/orchestrators"
	"usbtop/internal/shared/configs"

	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("usbtop", pflag.ExitOnError)
	configPath := flags.String("config", "./configs/configs.yml", "path to the YAML configuration file")
	logLevel := flags.String("log-level", "", "log level override (debug, info, warn, error)")
	buses := flags.IntSlice("bus", nil, "bus to capture, repeatable; all discovered buses when omitted")
	_ = flags.Parse(os.Args[1:])

	// Load configuration; the default path may be absent.
	cfg, err := configs.LoadConfig(*configPath, !flags.Changed("config"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if len(*buses) > 0 {
		cfg.Capture.Buses = *buses
	}
	if err := configs.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		os.Exit(1)
	}

	// Initialize application
	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Blocks until interrupted or every capture source has failed
	runErr := application.Start(ctx)

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Forced to shutdown: %v\n", err)
	}

	if runErr != nil {
		if errors.Is(runErr, orchestrators.ErrNoActiveSources) {
			fmt.Fprintln(os.Stderr, "No usbmon interface could be read; is the usbmon module loaded and are you root?")
		} else {
			fmt.Fprintf(os.Stderr, "usbtop failed: %v\n", runErr)
		}
		stop()
		cancel()
		os.Exit(1)
	}
}
