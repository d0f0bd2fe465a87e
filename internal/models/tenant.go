package models

import (
	"time"

	"gorm.io/gorm"
)

// Tenant is an organization with its own isolated database, registered in the
// central store.
type Tenant struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Key       string         `gorm:"size:64;uniqueIndex;not null" json:"key"`
	Name      string         `gorm:"size:200" json:"name"`
	DSN       string         `gorm:"type:text;not null" json:"-"`
	Active    bool           `gorm:"default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
