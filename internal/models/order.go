package models

import (
	"time"

	"gorm.io/gorm"
)

// Order represents one client order going through the manufacturing workflow
type Order struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Title      string `gorm:"not null" json:"title"`
	ClientName string `json:"clientName"`
	Status     string `gorm:"default:'open'" json:"status"`

	Units []ProductUnit `gorm:"foreignKey:OrderID" json:"units,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Order model
func (Order) TableName() string {
	return "orders"
}
