package models

import (
	"time"

	"gorm.io/gorm"
)

// Statement statuses. An approved statement authorizes exactly one reprint
// and is marked consumed by the acknowledgement that used it.
const (
	StatementPending  = "pending"
	StatementApproved = "approved"
	StatementRejected = "rejected"
	StatementConsumed = "consumed"
)

// Statement is a reprint-approval request: filed by a marker whose label
// resolution was refused, decided by the director.
type Statement struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	InternalCode string     `gorm:"not null;index" json:"internalCode"`
	StaffID      string     `gorm:"type:uuid;index" json:"staffId"`
	Status       string     `gorm:"default:'pending'" json:"status"`
	DecidedBy    *string    `gorm:"type:uuid" json:"decidedBy,omitempty"`
	DecidedAt    *time.Time `json:"decidedAt,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Staff *UserAuth    `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	Unit  *ProductUnit `gorm:"foreignKey:InternalCode;references:InternalCode" json:"unit,omitempty"`
}

// TableName specifies the table name for Statement model
func (Statement) TableName() string {
	return "statements"
}
