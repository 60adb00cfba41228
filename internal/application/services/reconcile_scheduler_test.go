package services

import (
	"testing"
	"time"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReconcileScheduler_ReconcileOnce(t *testing.T) {
	repo := newMemoryHistoryRepo()
	repo.seed(entities.SettlementHistory{Route: "collect/eth", Status: entities.SettlementPending, Updated: time.Now().Add(-time.Hour)})
	reconciler := NewSettlementReconciler(repo, &fakeReceipts{}, nil, zap.NewNop(), 10, time.Minute)
	scheduler := NewReconcileScheduler(reconciler, zap.NewNop(), DefaultReconcileSchedule)

	result, err := scheduler.ReconcileOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalProcessed)
	assert.Equal(t, 1, result.Failed)
}
