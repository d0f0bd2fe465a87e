package database

import (
	"fmt"

	"agora/internal/models"

	"gorm.io/gorm"
)

// CentralModels returns the schema-managed models of the central store.
func CentralModels() []interface{} {
	return []interface{}{
		&models.Tenant{},
		&models.Staff{},
		&models.StaffAssignment{},
	}
}

// TenantModels returns the schema-managed models of every tenant store.
func TenantModels() []interface{} {
	return []interface{}{
		&models.Member{},
		&models.Discussion{},
		&models.Reply{},
		&models.Like{},
		&models.Pin{},
		&models.DiscussionView{},
		&models.Mention{},
		&models.Report{},
		&models.Attachment{},
	}
}

// MigrateCentral brings the central schema up to date.
func MigrateCentral(db *gorm.DB) error {
	if err := db.AutoMigrate(CentralModels()...); err != nil {
		return fmt.Errorf("failed to migrate central database: %w", err)
	}
	return nil
}

// MigrateTenant brings a tenant schema up to date.
func MigrateTenant(db *gorm.DB) error {
	if err := db.AutoMigrate(TenantModels()...); err != nil {
		return fmt.Errorf("failed to migrate tenant database: %w", err)
	}
	return nil
}
