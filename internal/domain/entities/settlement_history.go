package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementStatus is the lifecycle state of a settlement_history row
type SettlementStatus string

const (
	// SettlementPending is written before the executor is called
	SettlementPending SettlementStatus = "pending"
	// SettlementSubmitted means the transaction was broadcast but not confirmed
	SettlementSubmitted SettlementStatus = "submitted"
	SettlementConfirmed SettlementStatus = "confirmed"
	SettlementFailed    SettlementStatus = "failed"
)

// SettlementHistory represents the settlement_history table
type SettlementHistory struct {
	ID             int64            `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Route          string           `gorm:"size:32;column:route;index" json:"route"`
	Status         SettlementStatus `gorm:"size:16;column:status;index" json:"status"`
	TxHash         string           `gorm:"size:66;column:tx_hash;index" json:"tx_hash,omitempty"`
	EntryCount     int              `gorm:"column:entry_count" json:"entry_count"`
	AggregateTotal decimal.Decimal  `gorm:"type:decimal(78,0);column:aggregate_total" json:"aggregate_total"`
	Reason         string           `gorm:"type:text;column:reason" json:"reason,omitempty"`
	BlockNumber    int64            `gorm:"column:block_number" json:"block_number,omitempty"`
	Created        time.Time        `gorm:"column:created;autoCreateTime" json:"created"`
	Updated        time.Time        `gorm:"column:updated;autoUpdateTime" json:"updated"`
}

// TableName returns the table name for SettlementHistory
func (SettlementHistory) TableName() string {
	return "settlement_history"
}

// ReconcileResult represents the result of one reconciliation pass
type ReconcileResult struct {
	TotalProcessed int                     `json:"total_processed"`
	Confirmed      int                     `json:"confirmed"`
	Failed         int                     `json:"failed"`
	StillPending   int                     `json:"still_pending"`
	Errors         []FailedReconcileDetail `json:"errors"`
}

// FailedReconcileDetail represents a row the reconciler could not check
type FailedReconcileDetail struct {
	HistoryID int64  `json:"history_id"`
	TxHash    string `json:"tx_hash"`
	Error     string `json:"error"`
}
