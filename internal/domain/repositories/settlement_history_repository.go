package repositories

import (
	"context"
	"time"

	"github.com/acecasino/settlement_api/internal/domain/entities"
)

// SettlementHistoryRepository defines the interface for settlement history operations
type SettlementHistoryRepository interface {
	// Create operations
	Create(ctx context.Context, history *entities.SettlementHistory) error

	// Read operations
	GetByID(ctx context.Context, id int64) (*entities.SettlementHistory, error)
	GetByTxHash(ctx context.Context, txHash string) (*entities.SettlementHistory, error)
	List(ctx context.Context, route string, limit, offset int) ([]entities.SettlementHistory, error)
	GetByStatus(ctx context.Context, status entities.SettlementStatus, olderThan time.Time, limit int) ([]entities.SettlementHistory, error)

	// Update operations
	Update(ctx context.Context, history *entities.SettlementHistory) error

	// Utility operations
	Count(ctx context.Context) (int64, error)
}
