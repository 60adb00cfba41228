package database

import (
	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Migrate creates or updates the tables owned by the settlement service
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entities.SettlementHistory{}, &entities.ErrorLogs{}); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}
