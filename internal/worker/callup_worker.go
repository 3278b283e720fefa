package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/config"
	"github.com/spec-kit/squad-service/internal/observability"
	"github.com/spec-kit/squad-service/internal/service"
)

const passTimeout = 2 * time.Minute

// DueCallupDispatcher sends scheduled callups whose time has come.
type DueCallupDispatcher interface {
	DispatchDue(ctx context.Context) (service.DispatchReport, error)
}

// ScheduledCallupWorker runs DispatchDue on a cron schedule. Overlapping
// passes are skipped.
type ScheduledCallupWorker struct {
	cron       *cron.Cron
	dispatcher DueCallupDispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewScheduledCallupWorker builds a worker for cfg.Spec.
func NewScheduledCallupWorker(cfg config.SchedulerConfig, dispatcher DueCallupDispatcher, logger *zap.Logger, metrics *observability.Metrics) (*ScheduledCallupWorker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLogger := zapCronLogger{logger: logger.Sugar()}
	w := &ScheduledCallupWorker{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
	if _, err := w.cron.AddFunc(cfg.Spec, w.tick); err != nil {
		return nil, fmt.Errorf("invalid scheduler spec %q: %w", cfg.Spec, err)
	}
	return w, nil
}

// Start begins scheduling in the background.
func (w *ScheduledCallupWorker) Start() {
	w.cron.Start()
}

// Stop prevents new passes and waits for a running one, or for ctx.
func (w *ScheduledCallupWorker) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (w *ScheduledCallupWorker) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()
	_, _ = w.RunOnce(ctx)
}

// RunOnce performs a single dispatch pass.
func (w *ScheduledCallupWorker) RunOnce(ctx context.Context) (service.DispatchReport, error) {
	report, err := RunDispatchPass(ctx, w.dispatcher, w.metrics)
	if err != nil {
		w.logger.Error("scheduled callup pass failed", zap.Error(err))
		return report, err
	}
	if report.Claimed > 0 {
		w.logger.Info("scheduled callup pass",
			zap.Int("claimed", report.Claimed),
			zap.Int("sent", report.Sent),
			zap.Int("failed", report.Failed))
	}
	return report, nil
}

// RunDispatchPass runs DispatchDue once and records outcome metrics.
func RunDispatchPass(ctx context.Context, dispatcher DueCallupDispatcher, metrics *observability.Metrics) (service.DispatchReport, error) {
	report, err := dispatcher.DispatchDue(ctx)
	for i := 0; i < report.Sent; i++ {
		metrics.RecordCallupDispatch("sent")
	}
	for i := 0; i < report.Failed; i++ {
		metrics.RecordCallupDispatch("failed")
	}
	return report, err
}

type zapCronLogger struct {
	logger *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw("cron: "+msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
