package repositories

import (
	"context"

	"github.com/acecasino/settlement_api/internal/domain/entities"
)

// ErrorLogsRepository defines the interface for error logs data operations
type ErrorLogsRepository interface {
	GetAll(ctx context.Context) ([]entities.ErrorLogs, error)
	Create(ctx context.Context, errorLog *entities.ErrorLogs) error
	// SendErrMsg stores err under code for the given route
	SendErrMsg(ctx context.Context, code string, route string, err error) error
}
