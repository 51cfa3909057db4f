package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/roadcall/dispatch/internal/cache"
	"github.com/roadcall/dispatch/internal/config"
	"github.com/roadcall/dispatch/internal/events"
	"github.com/roadcall/dispatch/internal/geocode"
	"github.com/roadcall/dispatch/internal/handler"
	"github.com/roadcall/dispatch/internal/location"
	"github.com/roadcall/dispatch/internal/metrics"
	"github.com/roadcall/dispatch/internal/models"
	"github.com/roadcall/dispatch/internal/notifier"
	"github.com/roadcall/dispatch/internal/repository"
	"github.com/roadcall/dispatch/internal/service"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Initialize the database connection.
	dtb, err := repository.NewDatabase(
		ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dtb.Close()

	// Create a new repository instance using the database connection,
	// optionally fronted by a Redis candidate cache.
	var repo repository.Interface = repository.NewRepository(dtb, logger)
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		repo = cache.NewCandidateCache(repo, rdb, cfg.Redis.TTL, logger)
		logger.InfoContext(ctx, "Candidate cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	// Create the optional geocoding backend using the factory pattern.
	// A nil geocoder simply skips the geocoding step during resolution.
	geocoder, err := geocode.New(geocode.Config{
		Kind:      geocode.Kind(cfg.Geocoder.Kind),
		APIKey:    cfg.Geocoder.APIKey,
		RateLimit: cfg.Geocoder.RateLimit,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to create geocoder: %v", err)
	}

	resolver := location.NewResolver(geocoder, cfg.Dispatch.Fallbacks, cfg.Dispatch.Default, logger)

	// Build one sender per notification channel.
	senders := make([]notifier.Sender, 0, 2)
	for _, channel := range []models.Channel{models.ChannelPush, models.ChannelEmail} {
		sender, serr := notifier.New(notifier.Config{
			Channel:    channel,
			GatewayURL: cfg.Push.GatewayURL,
			GatewayKey: cfg.Push.GatewayKey,
			EmailURL:   cfg.Email.URL,
			EmailKey:   cfg.Email.Key,
			SenderName: cfg.Email.Sender,
			RateLimit:  cfg.Push.RateLimit,
			Logger:     logger,
		})
		if serr != nil {
			log.Fatalf("Failed to create %s sender: %v", channel, serr)
		}
		senders = append(senders, sender)
	}

	dispatcher := service.NewDispatcher(logger, repo, resolver, appMetrics, senders, cfg.Dispatch.DefaultRadiusKm)

	// Optionally consume insert events from an AMQP broker alongside the webhook.
	if cfg.AMQP.Enabled() {
		consumer := events.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, dispatcher, logger)
		go func() {
			if cerr := consumer.Run(ctx); cerr != nil {
				logger.ErrorContext(ctx, "AMQP consumer failed", "error", cerr)
			}
		}()
	}

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the HTTP server in a goroutine to allow main to listen for signals.
	server := newServer(ctx, logger, reg, dtb, dispatcher, cfg.Port)
	go func() {
		if serr := server.ListenAndServe(); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "HTTP server failed", "error", serr)
		}
	}()

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	shutdownTimeout := 10
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(shutdownTimeout)*time.Second)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	// Log graceful shutdown completion.
	logger.Info("Application stopped gracefully.")
}

// newServer builds the HTTP server carrying the webhook endpoint plus the
// health check and metrics endpoints.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - dtb: A pgxpool connector for database methods (ping)
// - dispatcher: The dispatch orchestrator backing the webhook.
// - port: The port number on which the server will listen.
func newServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	dtb *pgxpool.Pool,
	dispatcher handler.Dispatcher,
	port int,
) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/hooks/service-requests", handler.NewWebhook(log, dispatcher))
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, req *http.Request) {
		log.DebugContext(req.Context(), "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if err := dtb.Ping(req.Context()); err != nil {
			status, body = http.StatusServiceUnavailable, "DB ping failed"
		}
		writer.WriteHeader(status)
		_, err := writer.Write([]byte(body))
		if err != nil {
			log.ErrorContext(req.Context(), "failed to write reply", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting HTTP server", "port", port)
	readTimeout := 5
	writeTimeout := 30
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified	 or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
