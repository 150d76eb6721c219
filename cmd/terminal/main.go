// Package main runs the dashboard in the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"stocksense/config"
	"stocksense/internal/app"
	"stocksense/internal/terminal"
	"stocksense/observability"
	"stocksense/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// The alt screen owns stdout, so logs go to STOCKSENSE_LOG_FILE or nowhere.
	var logOut io.Writer = io.Discard
	if path := os.Getenv("STOCKSENSE_LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	observability.InitLoggerTo(logOut, cfg.Logging.Production, observability.ParseLevel(cfg.Logging.Level))

	providers, err := services.NewProviders(cfg, services.ClientOptions{})
	if err != nil {
		log.Fatalf("failed to configure providers: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dash := app.New(cfg, providers.Quotes, providers.News)
	dash.Startup(ctx)
	defer dash.Shutdown(context.Background())

	p := tea.NewProgram(terminal.NewModel(ctx, dash), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
