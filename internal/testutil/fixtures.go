// Package testutil provides shared fixtures for database-backed tests.
package testutil

import (
	"testing"

	"agora/internal/database"
	"agora/internal/models"
	"agora/internal/tenant"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TenantKey is the key of the tenant created by NewTenant.
const TenantKey = "test-school"

func memoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.SQLitePrefix + ":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every statement on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewTenantDB returns a migrated in-memory tenant store.
func NewTenantDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := memoryDB(t)
	require.NoError(t, database.MigrateTenant(db))
	return db
}

// NewCentralDB returns a migrated in-memory central store.
func NewCentralDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := memoryDB(t)
	require.NoError(t, database.MigrateCentral(db))
	return db
}

// NewTenant returns a tenant context over a fresh tenant store.
func NewTenant(t *testing.T) *tenant.Context {
	t.Helper()
	return &tenant.Context{Key: TenantKey, Name: "Test School", DB: NewTenantDB(t)}
}

// NewRedis starts a miniredis server and returns a client for it.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

// CreateMember inserts a tenant member.
func CreateMember(t *testing.T, db *gorm.DB, handle, first, last string) models.UserRef {
	t.Helper()
	m := models.Member{Handle: handle, FirstName: first, LastName: last, Email: handle + "@school.test"}
	require.NoError(t, db.Create(&m).Error)
	return models.Ref(m.ID, models.RoleMember)
}

// CreateStaff inserts a central account with role and assigns it to tenantKey
// when tenantKey is not empty.
func CreateStaff(t *testing.T, central *gorm.DB, handle string, role models.Role, tenantKey string) models.UserRef {
	t.Helper()
	s := models.Staff{Handle: handle, FirstName: handle, LastName: "Staff", Email: handle + "@central.test", Role: role}
	require.NoError(t, central.Create(&s).Error)
	if tenantKey != "" {
		require.NoError(t, central.Create(&models.StaffAssignment{StaffID: s.ID, TenantKey: tenantKey}).Error)
	}
	return models.Ref(s.ID, role)
}
