package services

import (
	"context"
	"fmt"
	"time"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	domainRepos "github.com/acecasino/settlement_api/internal/domain/repositories"
	"github.com/acecasino/settlement_api/pkg/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ReceiptLookup fetches a mined receipt. A transaction that is not mined yet
// yields (nil, nil).
type ReceiptLookup interface {
	LookupReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// SettlementReconciler moves submitted settlements to their final state and
// abandons pending rows whose request never finished
type SettlementReconciler struct {
	historyRepo domainRepos.SettlementHistoryRepository
	receipts    ReceiptLookup
	notifier    Notifier
	logger      *zap.Logger
	batchSize   int
	staleAfter  time.Duration
	now         func() time.Time
}

// NewSettlementReconciler creates a new settlement reconciler. notifier may be nil.
func NewSettlementReconciler(
	historyRepo domainRepos.SettlementHistoryRepository,
	receipts ReceiptLookup,
	notifier Notifier,
	logger *zap.Logger,
	batchSize int,
	staleAfter time.Duration,
) *SettlementReconciler {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &SettlementReconciler{
		historyRepo: historyRepo,
		receipts:    receipts,
		notifier:    notifier,
		logger:      logger,
		batchSize:   batchSize,
		staleAfter:  staleAfter,
		now:         time.Now,
	}
}

// ReconcilePending processes a single batch of submitted and stale pending rows
func (r *SettlementReconciler) ReconcilePending(ctx context.Context) (*entities.ReconcileResult, error) {
	result := &entities.ReconcileResult{
		Errors: make([]entities.FailedReconcileDetail, 0),
	}

	submitted, err := r.historyRepo.GetByStatus(ctx, entities.SettlementSubmitted, r.now(), r.batchSize)
	if err != nil {
		return result, errors.Wrap(err, "failed to get submitted settlements")
	}

	for i := range submitted {
		record := &submitted[i]
		result.TotalProcessed++

		if err := r.reconcileSubmitted(ctx, record, result); err != nil {
			result.Errors = append(result.Errors, entities.FailedReconcileDetail{
				HistoryID: record.ID,
				TxHash:    record.TxHash,
				Error:     err.Error(),
			})
		}
	}

	if r.staleAfter <= 0 {
		return result, nil
	}

	stale, err := r.historyRepo.GetByStatus(ctx, entities.SettlementPending, r.now().Add(-r.staleAfter), r.batchSize)
	if err != nil {
		return result, errors.Wrap(err, "failed to get stale pending settlements")
	}

	for i := range stale {
		record := &stale[i]
		result.TotalProcessed++

		record.Status = entities.SettlementFailed
		record.Reason = "abandoned: no outcome recorded"
		if err := r.historyRepo.Update(ctx, record); err != nil {
			result.Errors = append(result.Errors, entities.FailedReconcileDetail{
				HistoryID: record.ID,
				Error:     err.Error(),
			})
			continue
		}
		result.Failed++
		metrics.ReconciledTotal.WithLabelValues(string(entities.SettlementFailed)).Inc()
		r.logger.Warn("Abandoned pending settlement",
			zap.Int64("history_id", record.ID),
			zap.String("route", record.Route),
		)
	}

	return result, nil
}

func (r *SettlementReconciler) reconcileSubmitted(ctx context.Context, record *entities.SettlementHistory, result *entities.ReconcileResult) error {
	if record.TxHash == "" {
		return errors.New("submitted settlement has no tx hash")
	}

	receipt, err := r.receipts.LookupReceipt(ctx, common.HexToHash(record.TxHash))
	if err != nil {
		return errors.Wrap(err, "failed to look up receipt")
	}
	if receipt == nil {
		result.StillPending++
		return nil
	}

	record.BlockNumber = receipt.BlockNumber.Int64()
	if receipt.Status == types.ReceiptStatusSuccessful {
		record.Status = entities.SettlementConfirmed
		record.Reason = ""
	} else {
		record.Status = entities.SettlementFailed
		record.Reason = "transaction reverted"
	}

	if err := r.historyRepo.Update(ctx, record); err != nil {
		return errors.Wrap(err, "failed to update settlement")
	}

	metrics.ReconciledTotal.WithLabelValues(string(record.Status)).Inc()
	if record.Status == entities.SettlementConfirmed {
		result.Confirmed++
		return nil
	}

	result.Failed++
	if r.notifier != nil {
		msg := fmt.Sprintf("[%s] settlement reverted\ntx: %s\nblock: %d", record.Route, record.TxHash, record.BlockNumber)
		if err := r.notifier.Notify(msg); err != nil {
			r.logger.Error("Failed to send reconcile alert", zap.Error(err))
		}
	}
	return nil
}
