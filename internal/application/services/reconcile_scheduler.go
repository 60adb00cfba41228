package services

import (
	"context"
	"time"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultReconcileSchedule runs every 30 seconds
const DefaultReconcileSchedule = "*/30 * * * * *"

// ReconcileScheduler runs the settlement reconciler on a cron schedule
type ReconcileScheduler struct {
	reconciler *SettlementReconciler
	logger     *zap.Logger
	cron       *cron.Cron
	schedule   string
	timeout    time.Duration
	isRunning  bool
}

// NewReconcileScheduler creates a new reconcile scheduler
func NewReconcileScheduler(reconciler *SettlementReconciler, logger *zap.Logger, schedule string) *ReconcileScheduler {
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}
	return &ReconcileScheduler{
		reconciler: reconciler,
		logger:     logger,
		cron:       cron.New(cron.WithSeconds()),
		schedule:   schedule,
		timeout:    30 * time.Second,
		isRunning:  false,
	}
}

// Start starts the reconcile scheduler
func (s *ReconcileScheduler) Start() error {
	if s.isRunning {
		s.logger.Warn("Reconcile scheduler is already running")
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, s.reconcile)
	if err != nil {
		s.logger.Error("Failed to add cron job", zap.Error(err))
		return err
	}

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Reconcile scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running pass to finish
func (s *ReconcileScheduler) Stop() {
	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Reconcile scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *ReconcileScheduler) IsRunning() bool {
	return s.isRunning
}

func (s *ReconcileScheduler) reconcile() {
	startTime := time.Now()

	result, err := s.ReconcileOnce()
	if err != nil {
		s.logger.Error("Failed to reconcile settlements", zap.Error(err))
		return
	}

	if result.TotalProcessed == 0 {
		s.logger.Debug("No settlements to reconcile")
		return
	}

	s.logger.Info("Scheduled reconciliation completed",
		zap.Int("total_processed", result.TotalProcessed),
		zap.Int("confirmed", result.Confirmed),
		zap.Int("failed", result.Failed),
		zap.Int("still_pending", result.StillPending),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", time.Since(startTime)),
	)

	for _, failed := range result.Errors {
		s.logger.Warn("Reconcile error detail",
			zap.Int64("history_id", failed.HistoryID),
			zap.String("tx_hash", failed.TxHash),
			zap.String("error", failed.Error),
		)
	}
}

// ReconcileOnce runs one reconciliation pass (for manual execution)
func (s *ReconcileScheduler) ReconcileOnce() (*entities.ReconcileResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	return s.reconciler.ReconcilePending(ctx)
}
