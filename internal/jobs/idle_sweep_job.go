package jobs

import (
	"context"
	"log/slog"

	"drivethru/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// IdleSweepJob releases lanes whose sessions went quiet past their idle
// deadline. Runs every few seconds so an abandoned lane frees up close to
// the configured timeout.
type IdleSweepJob struct {
	handler commands.ExpireIdleSessionsCommandHandler
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewIdleSweepJob creates the idle-session sweep job.
func NewIdleSweepJob(handler commands.ExpireIdleSessionsCommandHandler, logger *slog.Logger) *IdleSweepJob {
	return &IdleSweepJob{
		handler: handler,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "idle_sweep_job"),
	}
}

// Start begins the sweep, running every five seconds.
func (j *IdleSweepJob) Start() error {
	_, err := j.cron.AddFunc("*/5 * * * * *", func() {
		ctx := context.Background()

		cmd, cmdErr := commands.NewExpireIdleSessionsCommand()
		if cmdErr != nil {
			j.logger.ErrorContext(ctx, "Idle sweep command construction failed", "error", cmdErr)
			return
		}

		if handleErr := j.handler.Handle(ctx, cmd); handleErr != nil {
			j.logger.ErrorContext(ctx, "Idle sweep job failed", "error", handleErr)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Idle sweep job started (running every five seconds)")
	return nil
}

// Stop stops the sweep.
func (j *IdleSweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Idle sweep job stopped")
}
