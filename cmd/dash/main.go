package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/auth"
	"github.com/tgienger/dash/internal/config"
	"github.com/tgienger/dash/internal/dashboard"
	"github.com/tgienger/dash/internal/db"
	"github.com/tgienger/dash/internal/logging"
	"github.com/tgienger/dash/internal/ui"
	"github.com/tgienger/dash/internal/ui/views"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, baseURL string
	var showVersion bool

	flags := pflag.NewFlagSet("dash", pflag.ContinueOnError)
	flags.BoolVarP(&showVersion, "version", "v", false, "print version and exit")
	flags.StringVarP(&configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/dash/config.yaml)")
	flags.StringVar(&baseURL, "base-url", "", "admin API base URL, overrides the config file")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("dash %s (commit: %s, built: %s)\n", version, commit, date)
		return nil
	}

	if configPath != "" {
		os.Setenv("DASH_CONFIG", configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: validate: %w", err)
		}
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := logging.New(cfg.Log, logFile)

	database, err := db.New(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := api.New(cfg.API.BaseURL, database, logger, api.WithTimeout(cfg.API.Timeout))
	session := auth.NewSession(database, client, logger)
	if err := session.Init(ctx); err != nil {
		return err
	}
	// An unreachable backend still leaves an anonymous session; the status bar shows why.
	if err := session.Err(); err != nil {
		logger.Warn("anonymous permissions unavailable", "error", err)
	}

	deps := views.NewDeps(ctx, session, logger)
	defer deps.Close()

	tags := dashboard.NewActivityTagCell(client, logger)
	app := ui.NewApp(database, deps, ui.Controllers{
		Notices:  dashboard.NewNoticeBoard(client, cfg.UI.NoticePageSize, logger),
		Todo:     dashboard.NewTodoBoard(client, logger),
		Activity: dashboard.NewActivityLog(client, tags, logger),
		Access:   dashboard.NewAccessControl(client, logger),
		Games:    dashboard.NewGames(client, cfg.UI.GamePageSize, logger),
		Health:   dashboard.NewHealth(client, logger),
	})

	logger.Info("starting dash", "version", version, "api", cfg.API.BaseURL)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}
