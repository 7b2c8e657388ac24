package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/orchestrator"
	"github.com/spigell/job-matcher/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return schedule(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().Bool("now", false, "run once immediately after start")
}

func schedule(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	c, err := newComponents(ctx, config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	job := func(ctx context.Context) error {
		result, err := pipeline(ctx, c, orchestrator.Options{})
		if err != nil {
			return err
		}
		logRunSummary(logger, result)
		if result.HasErrors() {
			errs := make([]error, 0, len(result.Errors))
			for _, e := range result.Errors {
				errs = append(errs, e)
			}
			return errors.Join(errs...)
		}
		return nil
	}

	opts := config.Schedule
	if now, _ := cmd.Flags().GetBool("now"); now {
		opts.RunOnStart = true
	}

	s, err := scheduler.New(job, logger, opts)
	if err != nil {
		return err
	}

	if err := s.Start(ctx); err != nil {
		return err
	}
	logger.Info("waiting for the next run", zap.Time("next_run", s.Next()))

	<-ctx.Done()
	<-s.Stop().Done()
	return nil
}
