package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/spf13/cobra"

	"github.com/studyloop/mentor-go/internal/embedder"
	"github.com/studyloop/mentor-go/internal/gateway"
	"github.com/studyloop/mentor-go/internal/logging"
	"github.com/studyloop/mentor-go/internal/provider"
	"github.com/studyloop/mentor-go/internal/server"
	"github.com/studyloop/mentor-go/internal/tracing"
)

// NewServeCmd constructs the `mentor serve` command, which starts the HTTP
// API for search, answers, and knowledge-base management.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mentor HTTP API",
		Long: `Start the mentor HTTP server on localhost.

The server exposes a REST API for semantic search, retrieval-augmented
answers, and knowledge-base management, plus health, readiness, and
Prometheus metrics endpoints. The knowledge base is restored from the
snapshot database at startup and saved after every mutation.

Examples:
  mentor serve
  mentor serve --port 9090
  MODEL_PROVIDER=azure mentor serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Flags win over config-file values; config-file values win over
			// the flag defaults.
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("SERVER_HOST"); v != "" {
					host = v
				}
			}
			if !cmd.Flags().Changed("port") {
				if v := os.Getenv("SERVER_PORT"); v != "" {
					if p, err := strconv.Atoi(v); err == nil {
						port = p
					}
				}
			}

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			embedder.WarnOnSuspectConfig(log)

			// Both providers are optional at startup: a missing embedder or
			// chat model puts the gateway in degraded mode instead of
			// preventing the server from coming up.
			embedClient, err := embedder.NewFromEnv()
			if err != nil {
				log.Warn("embedding provider unavailable, embeddings degraded", slog.Any("error", err))
				embedClient = nil
			}
			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				log.Warn("chat provider unavailable, answers will use fallback text", slog.Any("error", err))
				chatModel = nil
			}

			degradedEmbeds := promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "mentor",
				Subsystem: "embedding",
				Name:      "degraded_total",
				Help:      "Embeddings served by the deterministic fallback generator.",
			})

			dims := embedder.DefaultDimensions(embedder.ResolveBackend())
			gw := gateway.New(embedClient, chatModel, dims, gateway.WithDegradedHook(degradedEmbeds.Inc))

			app, cleanup, err := buildApp(ctx, log, gw)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer cleanup()

			pingers := []server.Pinger{
				server.NewEmbedderPinger(embedClient, embedder.ResolveBackend()),
				server.NewModelPinger(chatModel, getEnvOrDefault("MODEL_PROVIDER", "ollama")),
			}

			srv, err := server.New(app.store, app.searcher, app.engine, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("MENTOR_API_KEY"),
				OnMutation: func(ctx context.Context) {
					app.save(ctx, log)
				},
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			if err := srv.Start(ctx); err != nil {
				return err //nolint:wrapcheck // CLI entry point — error goes directly to cobra
			}

			// ctx is already cancelled after a graceful shutdown; use a fresh
			// context for the final snapshot save.
			app.save(context.Background(), log)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
