package repositories

import (
	"context"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/acecasino/settlement_api/internal/domain/repositories"
	"gorm.io/gorm"
)

// errorLogsRepository implements ErrorLogsRepository interface
type errorLogsRepository struct {
	db *gorm.DB
}

// NewErrorLogsRepository creates a new error logs repository
func NewErrorLogsRepository(db *gorm.DB) repositories.ErrorLogsRepository {
	return &errorLogsRepository{db: db}
}

// GetAll retrieves all error logs, newest first
func (r *errorLogsRepository) GetAll(ctx context.Context) ([]entities.ErrorLogs, error) {
	var errorLogs []entities.ErrorLogs
	err := r.db.WithContext(ctx).Order("id DESC").Find(&errorLogs).Error
	return errorLogs, err
}

// Create creates a new error log
func (r *errorLogsRepository) Create(ctx context.Context, errorLog *entities.ErrorLogs) error {
	return r.db.WithContext(ctx).Create(errorLog).Error
}

// SendErrMsg sends error message to error_logs table
func (r *errorLogsRepository) SendErrMsg(ctx context.Context, code string, route string, err error) error {
	errorLog := entities.ErrorLogs{
		Code:  code,
		Route: route,
		Msg:   err.Error(),
	}
	return r.Create(ctx, &errorLog)
}
