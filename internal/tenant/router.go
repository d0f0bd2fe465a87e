// Package tenant resolves tenant keys to isolated tenant stores.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/validation"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Context scopes an operation to one tenant store.
type Context struct {
	Key  string
	Name string
	DB   *gorm.DB
}

// Opener connects to a tenant DSN.
type Opener func(dsn string) (*gorm.DB, error)

// StaticTenant is one entry of the tenants file.
type StaticTenant struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
	DSN  string `yaml:"dsn"`
}

type staticFile struct {
	Tenants []StaticTenant `yaml:"tenants"`
}

// Router hands out tenant contexts, opening each tenant store at most once.
type Router struct {
	central *gorm.DB
	open    Opener

	mu      sync.RWMutex
	tenants map[string]*Context
	static  map[string]StaticTenant
	opening singleflight.Group
}

// NewRouter builds a router backed by the central store. central may be nil
// when all tenants are registered statically.
func NewRouter(central *gorm.DB, open Opener) *Router {
	return &Router{
		central: central,
		open:    open,
		tenants: make(map[string]*Context),
		static:  make(map[string]StaticTenant),
	}
}

// Register binds key to an already opened store.
func (r *Router) Register(key, name string, db *gorm.DB) *Context {
	tc := &Context{Key: key, Name: name, DB: db}
	r.mu.Lock()
	r.tenants[key] = tc
	r.mu.Unlock()
	return tc
}

// LoadStatic reads tenant registrations from a YAML file of the form
//
//	tenants:
//	  - key: north-high
//	    name: North High
//	    dsn: sqlite://north.db
func (r *Router) LoadStatic(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tenants file: %w", err)
	}
	var f staticFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse tenants file: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range f.Tenants {
		if t.Key == "" || t.DSN == "" {
			return fmt.Errorf("tenants file: entry %q needs key and dsn", t.Key)
		}
		if err := validation.ValidateTenantKey(t.Key); err != nil {
			return fmt.Errorf("tenants file: %w", err)
		}
		r.static[t.Key] = t
	}
	return nil
}

// Get returns the context of the tenant identified by key.
func (r *Router) Get(ctx context.Context, key string) (*Context, error) {
	if validation.ValidateTenantKey(key) != nil {
		return nil, models.NewNotFoundError("Tenant", key)
	}

	r.mu.RLock()
	tc, ok := r.tenants[key]
	r.mu.RUnlock()
	if ok {
		return tc, nil
	}

	v, err, _ := r.opening.Do(key, func() (interface{}, error) {
		r.mu.RLock()
		existing, ok := r.tenants[key]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		name, dsn, err := r.lookup(ctx, key)
		if err != nil {
			return nil, err
		}
		db, err := r.open(dsn)
		if err != nil {
			middleware.Logger.ErrorContext(ctx, "failed to open tenant store",
				slog.String("tenant", key), slog.String("error", err.Error()))
			return nil, models.NewInternalError(err)
		}
		return r.Register(key, name, db), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Context), nil
}

func (r *Router) lookup(ctx context.Context, key string) (name, dsn string, err error) {
	r.mu.RLock()
	st, ok := r.static[key]
	r.mu.RUnlock()
	if ok {
		return st.Name, st.DSN, nil
	}

	if r.central == nil {
		return "", "", models.NewNotFoundError("Tenant", key)
	}

	var t models.Tenant
	err = r.central.WithContext(ctx).
		Where(&models.Tenant{Key: key, Active: true}).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", models.NewNotFoundError("Tenant", key)
	}
	if err != nil {
		return "", "", models.NewInternalError(err)
	}
	return t.Name, t.DSN, nil
}

// Keys lists the tenants currently open.
func (r *Router) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.tenants))
	for k := range r.tenants {
		keys = append(keys, k)
	}
	return keys
}

// Known lists every tenant the router can resolve: open, static and the
// active entries of the central registry.
func (r *Router) Known(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	r.mu.RLock()
	for k := range r.tenants {
		seen[k] = struct{}{}
	}
	for k := range r.static {
		seen[k] = struct{}{}
	}
	r.mu.RUnlock()

	if r.central != nil {
		var registered []string
		err := r.central.WithContext(ctx).Model(&models.Tenant{}).
			Where("active = ?", true).Pluck("key", &registered).Error
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		for _, k := range registered {
			seen[k] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes every opened tenant store.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for key, tc := range r.tenants {
		if sqlDB, err := tc.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
		delete(r.tenants, key)
	}
	return errors.Join(errs...)
}
