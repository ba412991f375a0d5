// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/priorityhub/inbox-platform/internal/bus"
	"github.com/priorityhub/inbox-platform/internal/config"
	"github.com/priorityhub/inbox-platform/internal/handler"
	"github.com/priorityhub/inbox-platform/internal/ingest"
	"github.com/priorityhub/inbox-platform/internal/middleware"
	"github.com/priorityhub/inbox-platform/internal/natsbridge"
	"github.com/priorityhub/inbox-platform/internal/store"
	"github.com/priorityhub/inbox-platform/pkg/logger"
	"github.com/priorityhub/inbox-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Infow("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "inbox-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warnw("failed to initialize tracing", "error", err)
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Change notifier and entity store
	notifier := bus.New()
	defer notifier.Close()
	entityStore := store.New(notifier, log)

	// Optional NATS event mirror
	var mirror *natsbridge.Bridge
	if cfg.NATSURL != "" {
		mirror, err = natsbridge.Connect(natsbridge.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, notifier, log)
		if err != nil {
			log.Errorw("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer mirror.Close()
	}

	// Ingestion pipeline
	pipeline := ingest.New(entityStore, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(mirror)
	userHandler := handler.NewUserHandler(entityStore, log)
	ingestHandler := handler.NewIngestHandler(pipeline, log)
	conversationHandler := handler.NewConversationHandler(entityStore, log)
	streamHandler := handler.NewStreamHandler(notifier, entityStore, log, cfg.HeartbeatInterval, cfg.SubscriberQueueSize)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Users
		r.Post("/users", userHandler.Create)
		r.Get("/users/{id}", userHandler.Get)

		// Ingestion
		r.Post("/messages/{channel}", ingestHandler.Ingest)

		// Conversations
		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationHandler.List)
			r.Get("/stream", streamHandler.StreamUser)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Get("/messages", conversationHandler.Messages)
				r.Get("/messages/stream", streamHandler.StreamConversation)
			})
		})
	})

	// Create HTTP server. No write timeout: SSE connections outlive any
	// fixed deadline.
	server := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     r,
		ReadTimeout: cfg.ServerReadTimeout,
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Infow("server stopped")
}
