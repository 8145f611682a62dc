package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talentbridge/talentbridge/internal/adapters/http/api"
	eventpub "github.com/talentbridge/talentbridge/internal/adapters/mq/publisher"
	service "github.com/talentbridge/talentbridge/internal/app"
	"github.com/talentbridge/talentbridge/internal/config"
	"github.com/talentbridge/talentbridge/internal/domain/dedupe"
	"github.com/talentbridge/talentbridge/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with the background expiry sweeper",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	if err := logger.Init(); err != nil {
		return err
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithDBPath(cfg.DBPath),
		service.WithSweepInterval(cfg.SweepInterval()),
		service.WithResponseWindow(cfg.ResponseWindow()),
		service.WithThreshold(cfg.SignificanceThreshold),
		service.WithScorePolicy(cfg.ScoreBaseline, cfg.HireWeight, cfg.CompletionWeight, cfg.CollaborationWeight, cfg.ResponsivenessWeight),
		service.WithPublisherBufferSize(cfg.PublisherBufferSize),
		service.WithPublishRetryPolicy(cfg.PublishMaxRetries, cfg.PublishRetryDelay()),
	)

	// Delivery is at-least-once, so the built-in consumer de-duplicates
	// before logging the score movement for downstream systems.
	seen := dedupe.NewInMemoryDeduper()
	eventLog := log.Named("events")
	svc.SubscribeEvents(func(ctx context.Context, env eventpub.Envelope) error {
		if seen.SeenAndRecord(ctx, env.DedupeKey()) {
			return nil
		}
		eventLog.Info(ctx, "reputation updated",
			logger.String("recruiterID", env.RecruiterID),
			logger.Float64("oldScore", env.Payload.OldScore),
			logger.Float64("newScore", env.Payload.NewScore),
			logger.String("reason", env.Payload.Reason),
			logger.Time("occurredAt", env.OccurredAt),
		)
		return nil
	})

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	apiServer := api.NewServer(svc, svc, cfg.DefaultLeaderboardLimit, cfg.MaxLeaderboardLimit)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// startServiceMetricsUpdater refreshes gauge metrics derived from store
// counts on a fixed interval.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the gauges as a side effect.
			_ = svc.GetStats()
		}
	}
}
