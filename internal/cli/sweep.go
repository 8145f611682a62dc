package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/talentbridge/talentbridge/internal/app"
	"github.com/talentbridge/talentbridge/internal/config"
	"github.com/talentbridge/talentbridge/pkg/logger"
)

// sweepCmd runs a single expiry pass and exits, for cron-style deployments
// where the long-running sweeper is not wanted.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire overdue proposals once and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSweep(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(parent context.Context) error {
	if err := logger.Init(); err != nil {
		return err
	}

	ctx := parent
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	svc := service.New(
		service.WithLogger(logger.Get()),
		service.WithDBPath(cfg.DBPath),
		service.WithResponseWindow(cfg.ResponseWindow()),
		service.WithThreshold(cfg.SignificanceThreshold),
		service.WithScorePolicy(cfg.ScoreBaseline, cfg.HireWeight, cfg.CompletionWeight, cfg.CollaborationWeight, cfg.ResponsivenessWeight),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	swept, err := svc.Sweep(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("swept %d proposals\n", swept)
	return nil
}
