// Package cron runs the scheduler passes on the daily execution slot.
// The same passes are exposed over HTTP, so deployments with an
// external cron can disable this runner via CRON_ENABLED.
package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"challenge-league/internal/service"
	"challenge-league/pkg/logger"
)

const passTimeout = 10 * time.Minute

// Runner owns the in-process cron schedule.
type Runner struct {
	cron      *cron.Cron
	scheduler service.Scheduler
	warnings  service.Warnings
	logger    *logger.Logger
}

// New builds the runner. executionHour is the UTC hour of the daily
// slot: the transition pass and the day-ahead warnings run on the
// slot, the final-hours warnings run two hours before it.
func New(executionHour int, scheduler service.Scheduler, warnings service.Warnings, log *logger.Logger) (*Runner, error) {
	r := &Runner{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		scheduler: scheduler,
		warnings:  warnings,
		logger:    log,
	}

	if _, err := r.cron.AddFunc(fmt.Sprintf("0 %d * * *", executionHour), r.runDailyPass); err != nil {
		return nil, fmt.Errorf("failed to schedule daily pass: %w", err)
	}

	finalHour := (executionHour + 22) % 24
	if _, err := r.cron.AddFunc(fmt.Sprintf("0 %d * * *", finalHour), r.runFinalWarnings); err != nil {
		return nil, fmt.Errorf("failed to schedule final warnings: %w", err)
	}

	return r, nil
}

// Start begins running the schedule in its own goroutines.
func (r *Runner) Start() {
	r.cron.Start()
	r.logger.Info("Cron runner started")
}

// Stop stops the schedule and waits for any running job to finish.
func (r *Runner) Stop(ctx context.Context) error {
	done := r.cron.Stop().Done()
	select {
	case <-done:
		r.logger.Info("Cron runner stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runDailyPass applies due transitions, then the day-ahead warnings.
func (r *Runner) runDailyPass() {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	r.logger.Info("Daily scheduler pass starting")

	report, err := r.scheduler.ProcessDueTransitions(ctx)
	if err != nil {
		r.logger.WithError(err).Error("Daily scheduler pass failed")
		return
	}

	warningReport, err := r.warnings.SendDeadlineWarnings(ctx)
	if err != nil {
		r.logger.WithError(err).Error("Day-ahead warning pass failed")
		return
	}

	r.logger.WithFields(map[string]interface{}{
		"transitioned":   report.Transitioned,
		"failures":       len(report.Failures),
		"users_notified": warningReport.UsersNotified,
	}).Info("Daily scheduler pass complete")
}

// runFinalWarnings runs the final-hours warning tier.
func (r *Runner) runFinalWarnings() {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	report, err := r.warnings.SendFinalWarnings(ctx)
	if err != nil {
		r.logger.WithError(err).Error("Final warning pass failed")
		return
	}

	r.logger.WithFields(map[string]interface{}{
		"prompts_checked": report.PromptsChecked,
		"users_notified":  report.UsersNotified,
	}).Info("Final warning pass complete")
}
