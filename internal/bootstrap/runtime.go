// Package bootstrap wires the stores shared by the server and the tooling
// commands.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"agora/internal/cache"
	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/identity"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/tenant"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// DevAdminHandle is the handle of the administrator ensured in development.
const DevAdminHandle = "agora_root"

// Options control runtime initialization behavior.
type Options struct {
	// EnsureDevAdmin creates an administrator account in development when
	// the central store has none.
	EnsureDevAdmin bool
}

// Runtime is the set of long-lived collaborators built at startup.
type Runtime struct {
	Central   *gorm.DB
	Redis     *redis.Client
	Tenants   *tenant.Router
	Directory *identity.Service
}

// InitRuntime connects to the central DB and Redis and prepares the tenant
// router.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	central, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	router, err := NewTenantRouter(cfg, central)
	if err != nil {
		return nil, err
	}

	if opts.EnsureDevAdmin {
		if err := ensureDevAdmin(cfg, central); err != nil {
			return nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
		}
	}

	return &Runtime{
		Central:   central,
		Redis:     rdb,
		Tenants:   router,
		Directory: identity.NewService(central, rdb, time.Duration(cfg.IdentityCacheTTL)*time.Second),
	}, nil
}

// NewTenantRouter builds the tenant router, registering the entries of the
// tenants file when one is configured.
func NewTenantRouter(cfg *config.Config, central *gorm.DB) (*tenant.Router, error) {
	router := tenant.NewRouter(central, func(dsn string) (*gorm.DB, error) {
		return database.ConnectTenant(cfg, dsn)
	})
	if cfg.TenantsFile != "" {
		if err := router.LoadStatic(cfg.TenantsFile); err != nil {
			return nil, err
		}
	}
	return router, nil
}

func ensureDevAdmin(cfg *config.Config, central *gorm.DB) error {
	if cfg == nil || central == nil || cfg.Env != "development" {
		return nil
	}

	var admin models.Staff
	err := central.Where("role = ?", models.RoleAdmin).First(&admin).Error
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	admin = models.Staff{
		Handle:    DevAdminHandle,
		FirstName: "Agora",
		LastName:  "Root",
		Email:     "root@agora.local",
		Role:      models.RoleAdmin,
	}
	if err := central.Create(&admin).Error; err != nil {
		return err
	}

	middleware.Logger.Info("development admin ensured",
		slog.Uint64("staff_id", uint64(admin.ID)),
		slog.String("handle", admin.Handle),
	)
	return nil
}
