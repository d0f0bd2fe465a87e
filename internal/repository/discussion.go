package repository

import (
	"context"
	"strings"
	"time"

	"agora/internal/models"
	"agora/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sort orders accepted by DiscussionQuery.
const (
	SortNewest         = "newest"
	SortOldest         = "oldest"
	SortMostReplies    = "most_replies"
	SortMostLikes      = "most_likes"
	SortRecentActivity = "recent_activity"
)

// DiscussionQuery filters and pages a discussion listing.
type DiscussionQuery struct {
	Type        models.DiscussionType
	Tag         string
	Statuses    []models.ContentStatus
	Creator     *models.UserRef
	Viewer      models.UserRef
	PinnedOnly  bool
	UnreadOnly  bool
	Search      string
	Sort        string
	PinnedFirst bool
	Limit       int
	Offset      int
}

// DiscussionRepository defines the interface for discussion data operations
type DiscussionRepository interface {
	Create(ctx context.Context, d *models.Discussion) error
	GetByID(ctx context.Context, id uint) (*models.Discussion, error)
	Update(ctx context.Context, d *models.Discussion, columns ...string) error
	SetStatus(ctx context.Context, id uint, status models.ContentStatus) error
	TouchActivity(ctx context.Context, id uint, at time.Time) error
	AdjustCounter(ctx context.Context, id uint, column string, delta int) error
	IncrementIfActive(ctx context.Context, id uint, column string) (bool, error)
	SoftDelete(ctx context.Context, id uint, actor models.UserRef, at time.Time) (bool, error)
	List(ctx context.Context, q DiscussionQuery) ([]*models.Discussion, int64, error)
}

type discussionRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewDiscussionRepository creates a new discussion repository
func NewDiscussionRepository(db *gorm.DB) DiscussionRepository {
	return &discussionRepository{db: db, metrics: observability.NewDatabaseMetrics("discussions")}
}

func (r *discussionRepository) Create(ctx context.Context, d *models.Discussion) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *discussionRepository) GetByID(ctx context.Context, id uint) (*models.Discussion, error) {
	var d models.Discussion
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// Update writes only the named columns of d.
func (r *discussionRepository) Update(ctx context.Context, d *models.Discussion, columns ...string) error {
	return r.db.WithContext(ctx).Model(d).Select(columns).Updates(d).Error
}

func (r *discussionRepository) SetStatus(ctx context.Context, id uint, status models.ContentStatus) error {
	return r.db.WithContext(ctx).Model(&models.Discussion{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *discussionRepository) TouchActivity(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Discussion{}).
		Where("id = ?", id).
		UpdateColumn("last_activity_at", at).Error
}

func (r *discussionRepository) AdjustCounter(ctx context.Context, id uint, column string, delta int) error {
	return adjustCounter(ctx, r.db, &models.Discussion{}, "discussions", id, column, delta)
}

func (r *discussionRepository) IncrementIfActive(ctx context.Context, id uint, column string) (bool, error) {
	return incrementIfActive(ctx, r.db, &models.Discussion{}, "discussions", id, column)
}

// SoftDelete marks the discussion deleted and reports whether this call did
// it; false means it was already deleted or never existed.
func (r *discussionRepository) SoftDelete(ctx context.Context, id uint, actor models.UserRef, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Unscoped().Model(&models.Discussion{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"status":          models.StatusDeleted,
			"deleted_at":      at,
			"deleted_by":      actor.ID,
			"deleted_by_role": actor.Role,
			"reply_count":     0,
		})
	return res.RowsAffected > 0, res.Error
}

// List returns one page of discussions and the total matching q.
func (r *discussionRepository) List(ctx context.Context, q DiscussionQuery) ([]*models.Discussion, int64, error) {
	defer r.metrics.TrackQuery("list")()
	filters := func(db *gorm.DB) *gorm.DB { return applyDiscussionFilters(db, q) }

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Discussion{}).Scopes(filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*models.Discussion
	db := r.db.WithContext(ctx).Model(&models.Discussion{}).Scopes(filters)
	order := sortColumns(q.Sort)
	if q.PinnedFirst && q.Viewer.ID != 0 {
		// A clause.OrderBy expression replaces plain columns, so the sort
		// columns ride along in the same expression.
		db = db.Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                pinnedFirstSQL + "," + strings.Join(order, ","),
			Vars:               []interface{}{q.Viewer.ID, q.Viewer.Role},
			WithoutParentheses: true,
		}})
	} else {
		for _, col := range order {
			db = db.Order(col)
		}
	}
	err := db.Limit(q.Limit).Offset(q.Offset).Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyDiscussionFilters(db *gorm.DB, q DiscussionQuery) *gorm.DB {
	if q.Type != "" {
		db = db.Where("discussions.type = ?", q.Type)
	}
	if tag := strings.ToLower(strings.TrimSpace(q.Tag)); tag != "" {
		db = db.Where(`discussions.tags LIKE ? ESCAPE '\'`, `%"`+escapeLike(tag)+`"%`)
	}
	if len(q.Statuses) > 0 {
		db = db.Where("discussions.status IN ?", q.Statuses)
	}
	if q.Creator != nil {
		db = db.Where("discussions.created_by = ? AND discussions.creator_role = ?", q.Creator.ID, q.Creator.Role)
	}
	if q.PinnedOnly {
		db = db.Where("EXISTS (SELECT 1 FROM pins WHERE pins.discussion_id = discussions.id AND pins.pinned_by = ? AND pins.pinned_by_role = ?)",
			q.Viewer.ID, q.Viewer.Role)
	}
	if q.UnreadOnly {
		db = db.Where("NOT EXISTS (SELECT 1 FROM discussion_views WHERE discussion_views.discussion_id = discussions.id AND discussion_views.user_id = ? AND discussion_views.user_role = ? AND discussion_views.viewed_at >= discussions.last_activity_at)",
			q.Viewer.ID, q.Viewer.Role)
	}
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		db = db.Where(`LOWER(discussions.title) LIKE ? ESCAPE '\'`, "%"+escapeLike(s)+"%")
	}
	return db
}

const pinnedFirstSQL = "CASE WHEN EXISTS (SELECT 1 FROM pins WHERE pins.discussion_id = discussions.id AND pins.pinned_by = ? AND pins.pinned_by_role = ?) THEN 0 ELSE 1 END"

func sortColumns(sort string) []string {
	switch sort {
	case SortOldest:
		return []string{"discussions.created_at ASC", "discussions.id ASC"}
	case SortMostReplies:
		return []string{"discussions.reply_count DESC", "discussions.created_at DESC", "discussions.id DESC"}
	case SortMostLikes:
		return []string{"discussions.like_count DESC", "discussions.created_at DESC", "discussions.id DESC"}
	case SortRecentActivity:
		return []string{"discussions.last_activity_at DESC", "discussions.id DESC"}
	default:
		return []string{"discussions.created_at DESC", "discussions.id DESC"}
	}
}

// ValidSort reports whether s is an accepted sort order.
func ValidSort(s string) bool {
	switch s {
	case "", SortNewest, SortOldest, SortMostReplies, SortMostLikes, SortRecentActivity:
		return true
	}
	return false
}
