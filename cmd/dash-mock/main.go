// dash-mock serves the admin API from memory so the dashboard can be tried
// without a backend. Everything is lost on exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/tgienger/dash/internal/config"
	"github.com/tgienger/dash/internal/logging"
	"github.com/tgienger/dash/internal/mockapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr      string
		latency   time.Duration
		cfg       mockapi.Config
		logLevel  string
		logFormat string
	)

	flags := pflag.NewFlagSet("dash-mock", pflag.ContinueOnError)
	flags.StringVar(&addr, "addr", ":8080", "listen address")
	flags.DurationVar(&latency, "latency", 0, "delay added to every response")
	flags.StringVar(&cfg.AdminUsername, "admin-user", "admin", "seeded admin username")
	flags.StringVar(&cfg.AdminPassword, "admin-password", "admin123", "seeded admin password")
	flags.DurationVar(&cfg.TokenTTL, "token-ttl", 24*time.Hour, "lifetime of issued tokens")
	flags.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", "text", "text or json")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	cfg.Secret = os.Getenv("DASH_MOCK_SECRET")

	logger := logging.New(config.LogConfig{Level: logLevel, Format: logFormat}, os.Stderr)

	srv, err := mockapi.New(cfg, logger)
	if err != nil {
		return err
	}
	srv.SetLatency(latency)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("mock API listening", "addr", addr, "admin", cfg.AdminUsername)
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-runCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
