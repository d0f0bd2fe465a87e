package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/models"
	"agora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDevAdmin(t *testing.T) {
	central := testutil.NewCentralDB(t)
	cfg := &config.Config{Env: "development"}

	require.NoError(t, ensureDevAdmin(cfg, central))
	require.NoError(t, ensureDevAdmin(cfg, central))

	var admins []models.Staff
	require.NoError(t, central.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, DevAdminHandle, admins[0].Handle)
}

func TestEnsureDevAdmin_SkipsOutsideDevelopment(t *testing.T) {
	central := testutil.NewCentralDB(t)
	require.NoError(t, ensureDevAdmin(&config.Config{Env: "production"}, central))

	var n int64
	require.NoError(t, central.Model(&models.Staff{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestNewTenantRouter_OpensStaticTenant(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "north.db")
	tenants := filepath.Join(dir, "tenants.yml")
	require.NoError(t, os.WriteFile(tenants,
		[]byte("tenants:\n  - key: north-high\n    name: North High\n    dsn: "+database.SQLitePrefix+dbPath+"\n"), 0o600))

	router, err := NewTenantRouter(&config.Config{Env: "test", TenantsFile: tenants}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = router.Close() })

	tc, err := router.Get(context.Background(), "north-high")
	require.NoError(t, err)
	assert.Equal(t, "North High", tc.Name)
	// Schema is migrated on open outside production.
	assert.True(t, tc.DB.Migrator().HasTable(&models.Discussion{}))
}

func TestNewTenantRouter_BadFile(t *testing.T) {
	_, err := NewTenantRouter(&config.Config{TenantsFile: filepath.Join(t.TempDir(), "missing.yml")}, nil)
	assert.Error(t, err)
}
