package models

import (
	"time"

	"gorm.io/gorm"
)

// Staff roles. Each role gates one slice of the workflow API.
const (
	RoleDirector = "director"
	RoleReceiver = "receiver"
	RoleMarker   = "marker"
	RoleOTK      = "otk"
	RolePacker   = "packer"
)

// UserAuth represents a staff member in the system
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type UserAuth struct {
	ID        string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Email     string     `gorm:"unique;not null" json:"email"`
	Password  string     `gorm:"not null" json:"-"`
	FullName  string     `json:"fullName,omitempty"`
	Role      string     `gorm:"default:'packer'" json:"role"`
	IsActive  bool       `gorm:"default:true" json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for UserAuth model
func (UserAuth) TableName() string {
	return "user_auths"
}

// ValidRole reports whether role is one of the known staff roles.
func ValidRole(role string) bool {
	switch role {
	case RoleDirector, RoleReceiver, RoleMarker, RoleOTK, RolePacker:
		return true
	}
	return false
}
