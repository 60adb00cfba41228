package services

import (
	"context"
	"fmt"
	"time"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	domainRepos "github.com/acecasino/settlement_api/internal/domain/repositories"
	"github.com/acecasino/settlement_api/pkg/logger"
	"github.com/acecasino/settlement_api/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SettlementExecutor performs the ledger side of a settlement. It owns gas,
// nonces, signing, approvals and inclusion waiting, and reports every
// failure through the returned outcome.
type SettlementExecutor interface {
	Execute(ctx context.Context, route entities.Route, batch *entities.TransferBatch) entities.SettlementOutcome
}

// Notifier delivers operator alerts
type Notifier interface {
	Notify(msg string) error
}

// RouteStrategy is what differs between the four settlement routes
type RouteStrategy struct {
	MaxValues  int
	Recipients RecipientResolver
}

// SettlementService runs the collect/disperse flow for every route:
// validate, resolve amounts, resolve recipients, build the batch, execute.
type SettlementService struct {
	strategies    map[entities.Route]RouteStrategy
	executor      SettlementExecutor
	historyRepo   domainRepos.SettlementHistoryRepository
	errorLogsRepo domainRepos.ErrorLogsRepository
	notifier      Notifier
}

// NewSettlementService creates a settlement service. historyRepo,
// errorLogsRepo and notifier may be nil.
func NewSettlementService(
	executor SettlementExecutor,
	strategies map[entities.Route]RouteStrategy,
	historyRepo domainRepos.SettlementHistoryRepository,
	errorLogsRepo domainRepos.ErrorLogsRepository,
	notifier Notifier,
) *SettlementService {
	return &SettlementService{
		strategies:    strategies,
		executor:      executor,
		historyRepo:   historyRepo,
		errorLogsRepo: errorLogsRepo,
		notifier:      notifier,
	}
}

// Settle runs one request on route. It returns (nil, nil) when there are no
// values, a non-nil error when the request is rejected before the ledger is
// touched, and otherwise the executor outcome, successful or not.
func (s *SettlementService) Settle(ctx context.Context, route entities.Route, req entities.DistributionRequest) (*entities.SettlementOutcome, error) {
	log := logger.GetLogger().WithFields(logrus.Fields{
		"route":       route.String(),
		"values_type": req.Kind.String(),
		"value_count": len(req.Values),
	})

	strategy, ok := s.strategies[route]
	if !ok {
		return nil, errors.Wrap(entities.ErrUnsupportedRoute, route.String())
	}

	batch, err := s.prepare(ctx, strategy, req)
	if err != nil {
		log.WithError(err).Warn("Settlement request rejected")
		metrics.SettlementsTotal.WithLabelValues(route.String(), metrics.ResultRejected).Inc()
		return nil, err
	}
	if batch == nil {
		log.Info("No values provided")
		metrics.SettlementsTotal.WithLabelValues(route.String(), metrics.ResultNoop).Inc()
		return nil, nil
	}
	metrics.SettlementBatchSize.WithLabelValues(route.String()).Observe(float64(batch.Len()))

	log = log.WithFields(logrus.Fields{
		"entry_count":     batch.Len(),
		"aggregate_total": batch.AggregateTotal.Dec(),
	})

	// history writes must survive a caller that hung up mid-settlement
	bgCtx := context.WithoutCancel(ctx)
	record := s.recordPending(bgCtx, route, batch)

	start := time.Now()
	outcome := s.executor.Execute(ctx, route, batch)
	metrics.ExecutorDuration.WithLabelValues(route.String()).Observe(time.Since(start).Seconds())

	s.recordOutcome(bgCtx, route, record, outcome)

	if !outcome.Succeeded() {
		log.WithError(outcome.Err).WithField("tx_hash", txHashField(outcome)).Error("Settlement failed")
		metrics.SettlementsTotal.WithLabelValues(route.String(), metrics.ResultFailed).Inc()
		s.alert(bgCtx, route, batch, outcome)
		return &outcome, nil
	}

	log.WithFields(logrus.Fields{
		"tx_hash":      outcome.TxHash.Hex(),
		"block_number": outcome.BlockNumber,
	}).Info("Settlement confirmed")
	metrics.SettlementsTotal.WithLabelValues(route.String(), metrics.ResultConfirmed).Inc()
	return &outcome, nil
}

// prepare returns a nil batch and nil error when there is nothing to settle
func (s *SettlementService) prepare(ctx context.Context, strategy RouteStrategy, req entities.DistributionRequest) (*entities.TransferBatch, error) {
	proceed, err := ValidateValues(req.Values, strategy.MaxValues)
	if err != nil || !proceed {
		return nil, err
	}

	amounts, err := ResolveAmounts(req)
	if err != nil {
		return nil, err
	}

	recipients, err := strategy.Recipients.ResolveRecipients(ctx, len(amounts))
	if err != nil {
		return nil, err
	}

	return BuildBatch(amounts, recipients)
}

func (s *SettlementService) recordPending(ctx context.Context, route entities.Route, batch *entities.TransferBatch) *entities.SettlementHistory {
	if s.historyRepo == nil {
		return nil
	}

	record := &entities.SettlementHistory{
		Route:          route.String(),
		Status:         entities.SettlementPending,
		EntryCount:     batch.Len(),
		AggregateTotal: decimal.NewFromBigInt(batch.AggregateTotal.ToBig(), 0),
	}
	if err := s.historyRepo.Create(ctx, record); err != nil {
		s.logSideChannelError(ctx, "history.create", route, err)
		return nil
	}
	return record
}

func (s *SettlementService) recordOutcome(ctx context.Context, route entities.Route, record *entities.SettlementHistory, outcome entities.SettlementOutcome) {
	if record == nil {
		return
	}

	switch {
	case outcome.Succeeded():
		record.Status = entities.SettlementConfirmed
		record.BlockNumber = int64(outcome.BlockNumber)
	case outcome.Mined:
		record.Status = entities.SettlementFailed
		record.BlockNumber = int64(outcome.BlockNumber)
		record.Reason = outcome.Err.Error()
	case outcome.Broadcast():
		// sent but unconfirmed, the reconciler settles the final state from the receipt
		record.Status = entities.SettlementSubmitted
		record.Reason = outcome.Err.Error()
	default:
		record.Status = entities.SettlementFailed
		record.Reason = outcome.Err.Error()
	}
	if outcome.Broadcast() {
		record.TxHash = outcome.TxHash.Hex()
	}

	if err := s.historyRepo.Update(ctx, record); err != nil {
		s.logSideChannelError(ctx, "history.update", route, err)
	}
}

func (s *SettlementService) alert(ctx context.Context, route entities.Route, batch *entities.TransferBatch, outcome entities.SettlementOutcome) {
	if s.notifier == nil {
		return
	}

	msg := fmt.Sprintf("[%s] settlement failed\nentries: %d\ntotal: %s\ntx: %s\nreason: %s",
		route, batch.Len(), batch.AggregateTotal.Dec(), txHashField(outcome), outcome.Err)
	if err := s.notifier.Notify(msg); err != nil {
		s.logSideChannelError(ctx, "notify", route, err)
	}
}

func (s *SettlementService) logSideChannelError(ctx context.Context, code string, route entities.Route, err error) {
	logger.GetLogger().WithError(err).WithFields(logrus.Fields{
		"component": code,
		"route":     route.String(),
	}).Error("Settlement side channel failed")

	if s.errorLogsRepo == nil {
		return
	}
	if logErr := s.errorLogsRepo.SendErrMsg(ctx, code, route.String(), err); logErr != nil {
		logger.GetLogger().WithError(logErr).Error("Failed to store error log")
	}
}

func txHashField(outcome entities.SettlementOutcome) string {
	if !outcome.Broadcast() {
		return "none"
	}
	return outcome.TxHash.Hex()
}
