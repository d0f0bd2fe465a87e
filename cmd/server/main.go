// Command main is the entry point for the Agora forum server.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agora/internal/bootstrap"
	"agora/internal/config"
	"agora/internal/middleware"
	"agora/internal/notifications"
	"agora/internal/observability"
	"agora/internal/server"
)

// @title Agora Forum API
// @version 1.0
// @description Multi-tenant discussion forum API with threaded replies, likes, mentions, and moderation
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@agora.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8380
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "agora-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{EnsureDevAdmin: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	fanout := notifications.NewFanout(rt.Directory,
		notifications.MultiDispatcher{
			notifications.NewRedisDispatcher(rt.Redis),
			notifications.LogDispatcher{},
		},
		cfg.NotifyWorkers, cfg.NotifyQueueSize,
	)

	srv := server.NewServer(cfg, server.Deps{
		Central:   rt.Central,
		Redis:     rt.Redis,
		Tenants:   rt.Tenants,
		Directory: rt.Directory,
		Publisher: fanout,
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		middleware.Logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Stop taking requests, then drain notifications while the
		// central store is still open for recipient lookups.
		if err := srv.App().ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("http shutdown error", slog.String("error", err.Error()))
		}
		if err := fanout.Close(ctx); err != nil {
			middleware.Logger.Error("notification drain incomplete", slog.String("error", err.Error()))
		}
		if err := srv.Shutdown(ctx); err != nil {
			middleware.Logger.Error("server shutdown error", slog.String("error", err.Error()))
		}
		if err := shutdownTracing(ctx); err != nil {
			middleware.Logger.Error("tracing shutdown error", slog.String("error", err.Error()))
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
