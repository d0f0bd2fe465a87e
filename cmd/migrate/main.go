// Command migrate applies the central and tenant schemas.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/tenant"

	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate/main.go <central|tenants|all|status> [-tenant key]")
}

func run() error {
	only := flag.String("tenant", "", "Restrict tenant migrations to this key")
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	central, err := database.Open(database.CentralDSN(cfg))
	if err != nil {
		return fmt.Errorf("connect central database: %w", err)
	}

	// Tenant stores are opened without migrating so status stays read-only.
	router := tenant.NewRouter(central, database.Open)
	if cfg.TenantsFile != "" {
		if err := router.LoadStatic(cfg.TenantsFile); err != nil {
			return err
		}
	}
	defer func() { _ = router.Close() }()

	ctx := context.Background()
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	switch cmd {
	case "central":
		return migrateCentral(central)
	case "tenants":
		return eachTenant(ctx, router, *only, migrateTenant)
	case "all":
		if err := migrateCentral(central); err != nil {
			return err
		}
		return eachTenant(ctx, router, *only, migrateTenant)
	case "status":
		return eachTenant(ctx, router, *only, func(tc *tenant.Context) error {
			missing := pendingTables(tc.DB, database.TenantModels())
			log.Printf("tenant=%s pending_tables=%d %v", tc.Key, len(missing), missing)
			return nil
		})
	default:
		return usage()
	}
}

func migrateCentral(db *gorm.DB) error {
	if err := database.MigrateCentral(db); err != nil {
		return fmt.Errorf("central migration failed: %w", err)
	}
	log.Println("central schema applied")
	return nil
}

func migrateTenant(tc *tenant.Context) error {
	if err := database.MigrateTenant(tc.DB); err != nil {
		return fmt.Errorf("tenant %s migration failed: %w", tc.Key, err)
	}
	log.Printf("tenant %s schema applied", tc.Key)
	return nil
}

// eachTenant runs fn for every tenant the router knows about.
func eachTenant(ctx context.Context, router *tenant.Router, only string, fn func(*tenant.Context) error) error {
	keys, err := router.Known(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	for _, key := range keys {
		if only != "" && key != only {
			continue
		}
		tc, err := router.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("open tenant %s: %w", key, err)
		}
		if err := fn(tc); err != nil {
			return err
		}
	}
	return nil
}

func pendingTables(db *gorm.DB, models []interface{}) []string {
	var missing []string
	for _, m := range models {
		if db.Migrator().HasTable(m) {
			continue
		}
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err == nil {
			missing = append(missing, stmt.Table)
		}
	}
	return missing
}
