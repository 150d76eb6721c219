// Package main runs the dashboard HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stocksense/config"
	"stocksense/internal/api"
	"stocksense/internal/app"
	"stocksense/observability"
	"stocksense/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	observability.InitLoggerWithLevel(cfg.Logging.Production, observability.ParseLevel(cfg.Logging.Level))
	metrics := observability.InitMetrics()
	services.GetGlobalRegistry().SetMetrics(metrics)

	providers, err := services.NewProviders(cfg, services.ClientOptions{Metrics: metrics})
	if err != nil {
		observability.Fatal("failed to configure providers", "error", err)
	}
	observability.Info("providers configured",
		"quotes", cfg.Provider.Quotes,
		"news", cfg.Provider.News,
		"fallback", cfg.Provider.Fallback)

	ctx := context.Background()
	dash := app.New(cfg, providers.Quotes, providers.News, app.WithMetrics(metrics))
	dash.Startup(ctx)

	router := api.NewRouter(api.NewHandler(dash, cfg, api.WithBreakers(providers.Breakers)), cfg)

	// WriteTimeout stays unset so websocket streams are not cut off.
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
	}

	go func() {
		observability.Info("starting server", "addr", cfg.HTTP.Addr, "url", fmt.Sprintf("http://localhost%s", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Closing the publisher first ends open streams with a close frame.
	dash.Shutdown(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("server forced to shutdown", "error", err)
	}
	observability.Info("server stopped")
}
