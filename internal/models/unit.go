package models

import (
	"time"

	"gorm.io/gorm"
)

// Unit lifecycle statuses: created -> marked -> passed/defect -> packed.
const (
	UnitStatusCreated = "created"
	UnitStatusMarked  = "marked"
	UnitStatusPassed  = "passed"
	UnitStatusDefect  = "defect"
	UnitStatusPacked  = "packed"
)

// ProductUnit is one physical garment unit. InternalCode is minted at label
// creation, is immutable and correlates every scan, print-ack and inspection
// event for the unit.
type ProductUnit struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	InternalCode string `gorm:"unique;not null;index" json:"internalCode"`
	OrderID      *uint  `gorm:"index" json:"orderId,omitempty"`
	Product      string `gorm:"not null" json:"product"`
	Color        string `json:"color"`
	Size         string `json:"size"`
	Status       string `gorm:"default:'created'" json:"status"`

	Labels []UnitLabel `gorm:"foreignKey:UnitID" json:"labels,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for ProductUnit model
func (ProductUnit) TableName() string {
	return "product_units"
}

// UnitLabel is one renderable label artifact tied to a unit. Labels are
// created once with the unit and never mutated; their order is the print order.
type UnitLabel struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UnitID      uint   `gorm:"not null;index" json:"unitId"`
	Kind        string `gorm:"default:'qr'" json:"kind"` // qr or barcode
	Data        string `gorm:"not null" json:"data"`
	Description string `json:"description"`
	File        string `json:"file"` // rendered image reference, when pre-rendered

	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for UnitLabel model
func (UnitLabel) TableName() string {
	return "unit_labels"
}
