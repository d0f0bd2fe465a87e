package identity

import (
	"context"
	"strings"

	"agora/internal/models"

	"gorm.io/gorm"
)

// Store is one identity space: tenant members or central staff.
type Store interface {
	ByIDs(ctx context.Context, ids []uint) ([]*models.UserSummary, error)
	ByHandle(ctx context.Context, handle string) (*models.UserSummary, error)
	Search(ctx context.Context, prefix string, limit int) ([]*models.UserSummary, error)
	All(ctx context.Context) ([]models.UserRef, error)
}

// memberStore reads accounts from the tenant database.
type memberStore struct {
	db *gorm.DB
}

func (s *memberStore) ByIDs(ctx context.Context, ids []uint) ([]*models.UserSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Member
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.UserSummary, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Summary())
	}
	return out, nil
}

func (s *memberStore) ByHandle(ctx context.Context, handle string) (*models.UserSummary, error) {
	var rows []models.Member
	err := s.db.WithContext(ctx).
		Where("LOWER(handle) = ?", strings.ToLower(handle)).
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0].Summary(), nil
}

func (s *memberStore) Search(ctx context.Context, prefix string, limit int) ([]*models.UserSummary, error) {
	var rows []models.Member
	err := matchPrefix(s.db.WithContext(ctx), prefix).
		Order("handle ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*models.UserSummary, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Summary())
	}
	return out, nil
}

func (s *memberStore) All(ctx context.Context) ([]models.UserRef, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.Member{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	refs := make([]models.UserRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, models.Ref(id, models.RoleMember))
	}
	return refs, nil
}

// staffStore reads central accounts. Lookups by id are unrestricted so that
// content written by since-unassigned staff still resolves; handle lookups,
// search and enumeration only see staff assigned to the tenant.
type staffStore struct {
	db     *gorm.DB
	tenant string
}

func (s *staffStore) assigned(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Staff{}).
		Joins("JOIN staff_assignments ON staff_assignments.staff_id = staff.id AND staff_assignments.tenant_key = ?", s.tenant)
}

func (s *staffStore) ByIDs(ctx context.Context, ids []uint) ([]*models.UserSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Staff
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.UserSummary, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Summary())
	}
	return out, nil
}

// assignedByIDs is ByIDs restricted to staff assigned to the tenant.
func (s *staffStore) assignedByIDs(ctx context.Context, ids []uint) ([]*models.UserSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Staff
	if err := s.assigned(ctx).Where("staff.id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.UserSummary, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Summary())
	}
	return out, nil
}

func (s *staffStore) ByHandle(ctx context.Context, handle string) (*models.UserSummary, error) {
	var rows []models.Staff
	err := s.assigned(ctx).
		Where("LOWER(staff.handle) = ?", strings.ToLower(handle)).
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0].Summary(), nil
}

func (s *staffStore) Search(ctx context.Context, prefix string, limit int) ([]*models.UserSummary, error) {
	var rows []models.Staff
	err := matchPrefix(s.assigned(ctx), prefix).
		Order("staff.handle ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*models.UserSummary, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Summary())
	}
	return out, nil
}

func (s *staffStore) All(ctx context.Context) ([]models.UserRef, error) {
	var rows []models.Staff
	if err := s.assigned(ctx).Select("staff.id", "staff.role").Order("staff.id").Find(&rows).Error; err != nil {
		return nil, err
	}
	refs := make([]models.UserRef, 0, len(rows))
	for i := range rows {
		refs = append(refs, rows[i].Summary().Ref())
	}
	return refs, nil
}

func (s *staffStore) admins(ctx context.Context) ([]models.UserRef, error) {
	var ids []uint
	err := s.assigned(ctx).
		Where("staff.role = ?", models.RoleAdmin).
		Order("staff.id").
		Pluck("staff.id", &ids).Error
	if err != nil {
		return nil, err
	}
	refs := make([]models.UserRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, models.Ref(id, models.RoleAdmin))
	}
	return refs, nil
}

// matchPrefix filters by handle, first name or last name prefix. The table
// prefix is left off so the clause works for both stores' default scopes.
func matchPrefix(db *gorm.DB, prefix string) *gorm.DB {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return db
	}
	like := escapeLike(prefix) + "%"
	return db.Where("LOWER(handle) LIKE ? ESCAPE '\\' OR LOWER(first_name) LIKE ? ESCAPE '\\' OR LOWER(last_name) LIKE ? ESCAPE '\\'", like, like, like)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
