package models

import "time"

// PrintAck records that labels for a unit were printed. The internal code is
// the primary key, so the acknowledgement write is idempotent: a duplicate
// ack hits the unique constraint and is treated as a no-op.
type PrintAck struct {
	InternalCode string    `gorm:"primaryKey" json:"internalCode"`
	StaffID      string    `gorm:"type:uuid;index" json:"staffId"`
	AckedAt      time.Time `json:"ackedAt"`
}

// TableName specifies the table name for PrintAck model
func (PrintAck) TableName() string {
	return "print_acks"
}
