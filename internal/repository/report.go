package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
)

// ReportFilter narrows a report listing.
type ReportFilter struct {
	Status     models.ReportStatus
	EntityType models.EntityType
}

// ReportRepository defines the interface for moderation report data operations
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	HasOpen(ctx context.Context, entityType models.EntityType, entityID uint, reporter models.UserRef) (bool, error)
	CountOpen(ctx context.Context, entityType models.EntityType, entityID uint) (int64, error)
	List(ctx context.Context, filter ReportFilter, limit, offset int) ([]*models.Report, int64, error)
	Update(ctx context.Context, report *models.Report, columns ...string) error
	ResolveForDiscussion(ctx context.Context, discussionID uint, note string) error
	ResolveForEntities(ctx context.Context, entityType models.EntityType, ids []uint, note string) error
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) HasOpen(ctx context.Context, entityType models.EntityType, entityID uint, reporter models.UserRef) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("entity_type = ? AND entity_id = ? AND reported_by = ? AND reported_by_role = ? AND status <> ?",
			entityType, entityID, reporter.ID, reporter.Role, models.ReportStatusResolved).
		Count(&n).Error
	return n > 0, err
}

func (r *reportRepository) CountOpen(ctx context.Context, entityType models.EntityType, entityID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("entity_type = ? AND entity_id = ? AND status <> ?", entityType, entityID, models.ReportStatusResolved).
		Count(&n).Error
	return n, err
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter, limit, offset int) ([]*models.Report, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.EntityType != "" {
			db = db.Where("entity_type = ?", filter.EntityType)
		}
		return db
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Report{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*models.Report
	err := r.db.WithContext(ctx).Scopes(scope).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, total, err
}

func (r *reportRepository) Update(ctx context.Context, report *models.Report, columns ...string) error {
	return r.db.WithContext(ctx).Model(report).Select(columns).Updates(report).Error
}

// ResolveForDiscussion closes every open report filed against the
// discussion or any of its replies.
func (r *reportRepository) ResolveForDiscussion(ctx context.Context, discussionID uint, note string) error {
	return r.db.WithContext(ctx).Model(&models.Report{}).
		Where("discussion_id = ? AND status <> ?", discussionID, models.ReportStatusResolved).
		Updates(map[string]interface{}{
			"status":          models.ReportStatusResolved,
			"resolution_note": note,
		}).Error
}

func (r *reportRepository) ResolveForEntities(ctx context.Context, entityType models.EntityType, ids []uint, note string) error {
	return chunk(ids, BatchSize, func(batch []uint) error {
		return r.db.WithContext(ctx).Model(&models.Report{}).
			Where("entity_type = ? AND entity_id IN ? AND status <> ?", entityType, batch, models.ReportStatusResolved).
			Updates(map[string]interface{}{
				"status":          models.ReportStatusResolved,
				"resolution_note": note,
			}).Error
	})
}
