package entities

import "gorm.io/gorm"

// ErrorLogs stores failures of side channels (history writes, alerts) that
// must not change the HTTP result of a settlement
type ErrorLogs struct {
	gorm.Model
	Code  string `gorm:"column:code"`
	Route string `gorm:"size:32;column:route"`
	Msg   string `gorm:"column:msg"`
}

// TableName returns the table name for ErrorLogs
func (ErrorLogs) TableName() string {
	return "error_logs"
}
