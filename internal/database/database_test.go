package database

import (
	"errors"
	"testing"

	"agora/internal/config"
	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(SQLitePrefix + "file::memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openMemory(t)
	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestCentralDSN_DefaultsSSLMode(t *testing.T) {
	dsn := CentralDSN(&config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "agora"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=agora sslmode=disable", dsn)
}

func TestMigrateTenant_CreatesSchema(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, MigrateTenant(db))

	for _, m := range TenantModels() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Report{}, "idx_reports_open"))
	assert.True(t, db.Migrator().HasIndex(&models.Like{}, "idx_likes_unique"))
}

func TestMigrateCentral_CreatesSchema(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, MigrateCentral(db))
	assert.True(t, db.Migrator().HasTable(&models.Tenant{}))
	assert.True(t, db.Migrator().HasTable(&models.StaffAssignment{}))
}

func TestOpenReportIndex_AllowsResolvedDuplicates(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, MigrateTenant(db))

	base := models.Report{
		EntityType: models.EntityReply, EntityID: 1, DiscussionID: 1,
		ReportType: models.ReportTypeSpam, Reason: "spam",
		ReportedBy: 2, ReportedByRole: models.RoleMember,
	}
	first := base
	first.Status = models.ReportStatusResolved
	require.NoError(t, db.Create(&first).Error)

	open := base
	open.Status = models.ReportStatusPending
	require.NoError(t, db.Create(&open).Error)

	dup := base
	dup.Status = models.ReportStatusPending
	err := db.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}
