package repositories

import (
	"context"
	"time"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	domainRepos "github.com/acecasino/settlement_api/internal/domain/repositories"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// settlementHistoryRepository implements SettlementHistoryRepository interface
type settlementHistoryRepository struct {
	db *gorm.DB
}

// NewSettlementHistoryRepository creates a new settlement history repository
func NewSettlementHistoryRepository(db *gorm.DB) domainRepos.SettlementHistoryRepository {
	return &settlementHistoryRepository{
		db: db,
	}
}

// Create creates a new settlement history record
func (r *settlementHistoryRepository) Create(ctx context.Context, history *entities.SettlementHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

// GetByID retrieves settlement history by ID, nil when missing
func (r *settlementHistoryRepository) GetByID(ctx context.Context, id int64) (*entities.SettlementHistory, error) {
	var history entities.SettlementHistory
	err := r.db.WithContext(ctx).First(&history, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &history, nil
}

// GetByTxHash retrieves settlement history by transaction hash, nil when missing
func (r *settlementHistoryRepository) GetByTxHash(ctx context.Context, txHash string) (*entities.SettlementHistory, error) {
	var history entities.SettlementHistory
	err := r.db.WithContext(ctx).Where("tx_hash = ?", txHash).First(&history).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &history, nil
}

// List retrieves settlement history newest first, optionally filtered by route
func (r *settlementHistoryRepository) List(ctx context.Context, route string, limit, offset int) ([]entities.SettlementHistory, error) {
	var histories []entities.SettlementHistory
	query := r.db.WithContext(ctx)
	if route != "" {
		query = query.Where("route = ?", route)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Order("created DESC, id DESC").Find(&histories).Error
	return histories, err
}

// GetByStatus retrieves the oldest rows in status that were last updated before olderThan
func (r *settlementHistoryRepository) GetByStatus(ctx context.Context, status entities.SettlementStatus, olderThan time.Time, limit int) ([]entities.SettlementHistory, error) {
	var histories []entities.SettlementHistory
	query := r.db.WithContext(ctx).
		Where("status = ?", status).
		Where("updated < ?", olderThan)

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("id ASC").Find(&histories).Error
	return histories, err
}

// Update updates an existing settlement history record
func (r *settlementHistoryRepository) Update(ctx context.Context, history *entities.SettlementHistory) error {
	return r.db.WithContext(ctx).Save(history).Error
}

// Count returns the total count of settlement history records
func (r *settlementHistoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.SettlementHistory{}).Count(&count).Error
	return count, err
}
