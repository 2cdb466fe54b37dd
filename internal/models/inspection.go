package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InspectionReport records one quality-control outcome for a unit. Defect
// reports carry a category from the closed defect set and the stored photo
// references as a JSON array.
type InspectionReport struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	InternalCode string         `gorm:"not null;index" json:"internalCode"`
	IsDefect     bool           `gorm:"default:false" json:"isDefect"`
	Category     string         `json:"category,omitempty"`
	Photos       datatypes.JSON `json:"photos,omitempty"`
	StaffID      string         `gorm:"type:uuid;index" json:"staffId"`

	CreatedAt time.Time      `json:"createdAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for InspectionReport model
func (InspectionReport) TableName() string {
	return "inspection_reports"
}
