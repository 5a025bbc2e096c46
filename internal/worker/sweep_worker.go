package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/service"
)

// SweepWorker runs the breach detector on a cron schedule. Overlapping runs
// are harmless: the detector's conditional marking makes concurrent sweeps
// converge, so no run-exclusion lock is needed.
type SweepWorker struct {
	detector *service.BreachService
	metrics  *observability.Metrics
	logger   *zap.Logger
	spec     string
	cron     *cron.Cron
}

// NewSweepWorker constructs the worker.
func NewSweepWorker(detector *service.BreachService, metrics *observability.Metrics, logger *zap.Logger, spec string) *SweepWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepWorker{
		detector: detector,
		metrics:  metrics,
		logger:   logger,
		spec:     spec,
	}
}

// Start schedules the sweep. Returns the scheduling error immediately when
// the cron expression is invalid.
func (w *SweepWorker) Start(ctx context.Context) error {
	w.cron = cron.New()
	_, err := w.cron.AddFunc(w.spec, func() {
		w.runOnce(ctx)
	})
	if err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("sla sweep scheduled", zap.String("cron", w.spec))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (w *SweepWorker) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
}

func (w *SweepWorker) runOnce(ctx context.Context) {
	started := time.Now()
	report, err := w.detector.Sweep(ctx, time.Now().UTC())
	if err != nil {
		w.logger.Error("sla sweep failed", zap.Error(err))
		return
	}
	w.metrics.RecordSweep(len(report.Events), len(report.Failed), time.Since(started))
}
