// Package identity resolves user references against the two identity
// spaces: members in the tenant store and staff in the central store.
package identity

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"agora/internal/cache"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/tenant"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Service is the identity resolver shared by every tenant.
type Service struct {
	central *gorm.DB
	rdb     *redis.Client
	ttl     time.Duration
}

// NewService creates the resolver. rdb may be nil to disable caching.
func NewService(central *gorm.DB, rdb *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = cache.IdentityTTL
	}
	return &Service{central: central, rdb: rdb, ttl: ttl}
}

func (s *Service) members(tc *tenant.Context) *memberStore {
	return &memberStore{db: tc.DB}
}

func (s *Service) staff(tc *tenant.Context) *staffStore {
	return &staffStore{db: s.central, tenant: tc.Key}
}

func (s *Service) storeFor(tc *tenant.Context, role models.Role) Store {
	if role.IsCentral() {
		return s.staff(tc)
	}
	return s.members(tc)
}

// Resolve returns the display summary for ref, or nil when the account does
// not exist.
func (s *Service) Resolve(ctx context.Context, tc *tenant.Context, ref models.UserRef) (*models.UserSummary, error) {
	key := cache.IdentityKey(tc.Key, ref)
	if u, ok := cache.Lookup[models.UserSummary](ctx, s.rdb, key); ok {
		observability.IdentityCacheLookups.WithLabelValues("hit").Inc()
		return &u, nil
	}
	observability.IdentityCacheLookups.WithLabelValues("miss").Inc()

	found, err := s.storeFor(tc, ref.Role).ByIDs(ctx, []uint{ref.ID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	cache.Store(ctx, s.rdb, key, found[0], s.ttl)
	return found[0], nil
}

// ResolveMany resolves refs with one query per store, both stores queried in
// parallel. Unknown refs are absent from the result.
func (s *Service) ResolveMany(ctx context.Context, tc *tenant.Context, refs []models.UserRef) (map[models.UserRef]*models.UserSummary, error) {
	out := make(map[models.UserRef]*models.UserSummary, len(refs))
	if len(refs) == 0 {
		return out, nil
	}

	pending := s.fromCache(ctx, tc, refs, out)

	var memberIDs, staffIDs []uint
	wanted := make(map[uint][]models.UserRef)
	staffWanted := make(map[uint][]models.UserRef)
	for _, ref := range pending {
		if ref.Role.IsCentral() {
			if _, seen := staffWanted[ref.ID]; !seen {
				staffIDs = append(staffIDs, ref.ID)
			}
			staffWanted[ref.ID] = append(staffWanted[ref.ID], ref)
		} else {
			if _, seen := wanted[ref.ID]; !seen {
				memberIDs = append(memberIDs, ref.ID)
			}
			wanted[ref.ID] = append(wanted[ref.ID], ref)
		}
	}

	var members, staff []*models.UserSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = s.members(tc).ByIDs(gctx, memberIDs)
		return err
	})
	g.Go(func() error {
		var err error
		staff, err = s.staff(tc).ByIDs(gctx, staffIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, u := range members {
		for _, ref := range wanted[u.ID] {
			out[ref] = u
		}
		cache.Store(ctx, s.rdb, cache.IdentityKey(tc.Key, u.Ref()), u, s.ttl)
	}
	for _, u := range staff {
		for _, ref := range staffWanted[u.ID] {
			out[ref] = u
			cache.Store(ctx, s.rdb, cache.IdentityKey(tc.Key, ref), u, s.ttl)
		}
	}
	return out, nil
}

// fromCache fills out with cached summaries and returns the refs still missing.
func (s *Service) fromCache(ctx context.Context, tc *tenant.Context, refs []models.UserRef, out map[models.UserRef]*models.UserSummary) []models.UserRef {
	if s.rdb == nil {
		return refs
	}
	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = cache.IdentityKey(tc.Key, ref)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		middleware.Logger.WarnContext(ctx, "identity cache read failed", slog.String("error", err.Error()))
		return refs
	}

	var missing []models.UserRef
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, refs[i])
			continue
		}
		var u models.UserSummary
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			missing = append(missing, refs[i])
			continue
		}
		out[refs[i]] = &u
	}
	observability.IdentityCacheLookups.WithLabelValues("hit").Add(float64(len(refs) - len(missing)))
	observability.IdentityCacheLookups.WithLabelValues("miss").Add(float64(len(missing)))
	return missing
}

// FindByHandle looks the handle up among tenant members first, then among
// staff assigned to the tenant.
func (s *Service) FindByHandle(ctx context.Context, tc *tenant.Context, handle string) (*models.UserSummary, error) {
	u, err := s.members(tc).ByHandle(ctx, handle)
	if err != nil || u != nil {
		return u, err
	}
	return s.staff(tc).ByHandle(ctx, handle)
}

// Mentionable returns the account ref names when it can be mentioned in the
// tenant: a member of the tenant store, or staff assigned to the tenant whose
// role matches ref. It returns nil otherwise and never reads the cache, which
// is not scoped by assignment.
func (s *Service) Mentionable(ctx context.Context, tc *tenant.Context, ref models.UserRef) (*models.UserSummary, error) {
	var (
		found []*models.UserSummary
		err   error
	)
	if ref.Role.IsCentral() {
		found, err = s.staff(tc).assignedByIDs(ctx, []uint{ref.ID})
	} else {
		found, err = s.members(tc).ByIDs(ctx, []uint{ref.ID})
	}
	if err != nil {
		return nil, err
	}
	if len(found) == 0 || found[0].Ref() != ref {
		return nil, nil
	}
	return found[0], nil
}

// ListMembers returns mention candidates whose handle or name starts with
// query, members before staff.
func (s *Service) ListMembers(ctx context.Context, tc *tenant.Context, query string, limit int) ([]*models.UserSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	out, err := s.members(tc).Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if rest := limit - len(out); rest > 0 {
		staff, err := s.staff(tc).Search(ctx, query, rest)
		if err != nil {
			return nil, err
		}
		out = append(out, staff...)
	}
	return out, nil
}

// Recipients lists every account of the tenant: members and assigned staff.
func (s *Service) Recipients(ctx context.Context, tc *tenant.Context) ([]models.UserRef, error) {
	var members, staff []models.UserRef
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = s.members(tc).All(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		staff, err = s.staff(tc).All(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return append(members, staff...), nil
}

// Administrators lists the administrators assigned to the tenant.
func (s *Service) Administrators(ctx context.Context, tc *tenant.Context) ([]models.UserRef, error) {
	return s.staff(tc).admins(ctx)
}

// Invalidate drops the cached summary of ref.
func (s *Service) Invalidate(ctx context.Context, tc *tenant.Context, ref models.UserRef) {
	cache.InvalidateIdentity(ctx, s.rdb, tc.Key, ref)
}
