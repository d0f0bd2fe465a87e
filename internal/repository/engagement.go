package repository

import (
	"context"
	"time"

	"agora/internal/models"
	"agora/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	Insert(ctx context.Context, like *models.Like) (bool, error)
	Delete(ctx context.Context, entityType models.EntityType, entityID uint, user models.UserRef) (bool, error)
	Exists(ctx context.Context, entityType models.EntityType, entityID uint, user models.UserRef) (bool, error)
	LikedIDs(ctx context.Context, entityType models.EntityType, ids []uint, user models.UserRef) (map[uint]bool, error)
	ListForEntity(ctx context.Context, entityType models.EntityType, entityID uint, limit, offset int) ([]models.Like, int64, error)
	Count(ctx context.Context, entityType models.EntityType, entityID uint) (int64, error)
	DeleteForEntities(ctx context.Context, entityType models.EntityType, ids []uint) error
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Insert adds like unless the user already likes the entity. The returned
// flag is true only when a row was written.
func (r *likeRepository) Insert(ctx context.Context, like *models.Like) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(like)
	return res.RowsAffected > 0, res.Error
}

// Delete removes the user's like. The returned flag is true only when a row
// was removed.
func (r *likeRepository) Delete(ctx context.Context, entityType models.EntityType, entityID uint, user models.UserRef) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND liked_by = ? AND liked_by_role = ?", entityType, entityID, user.ID, user.Role).
		Delete(&models.Like{})
	return res.RowsAffected > 0, res.Error
}

func (r *likeRepository) Exists(ctx context.Context, entityType models.EntityType, entityID uint, user models.UserRef) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("entity_type = ? AND entity_id = ? AND liked_by = ? AND liked_by_role = ?", entityType, entityID, user.ID, user.Role).
		Count(&n).Error
	return n > 0, err
}

func (r *likeRepository) LikedIDs(ctx context.Context, entityType models.EntityType, ids []uint, user models.UserRef) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if user.ID == 0 {
		return out, nil
	}
	err := chunk(ids, BatchSize, func(batch []uint) error {
		var liked []uint
		if err := r.db.WithContext(ctx).Model(&models.Like{}).
			Where("entity_type = ? AND entity_id IN ? AND liked_by = ? AND liked_by_role = ?", entityType, batch, user.ID, user.Role).
			Pluck("entity_id", &liked).Error; err != nil {
			return err
		}
		for _, id := range liked {
			out[id] = true
		}
		return nil
	})
	return out, err
}

func (r *likeRepository) ListForEntity(ctx context.Context, entityType models.EntityType, entityID uint, limit, offset int) ([]models.Like, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("entity_type = ? AND entity_id = ?", entityType, entityID)
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var likes []models.Like
	err := r.db.WithContext(ctx).Scopes(scope).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&likes).Error
	return likes, total, err
}

func (r *likeRepository) Count(ctx context.Context, entityType models.EntityType, entityID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Count(&n).Error
	return n, err
}

func (r *likeRepository) DeleteForEntities(ctx context.Context, entityType models.EntityType, ids []uint) error {
	return chunk(ids, BatchSize, func(batch []uint) error {
		return r.db.WithContext(ctx).
			Where("entity_type = ? AND entity_id IN ?", entityType, batch).
			Delete(&models.Like{}).Error
	})
}

// PinRepository defines the interface for pin data operations
type PinRepository interface {
	Insert(ctx context.Context, pin *models.Pin) (bool, error)
	Delete(ctx context.Context, discussionID uint, user models.UserRef) (bool, error)
	Exists(ctx context.Context, discussionID uint, user models.UserRef) (bool, error)
	PinnedIDs(ctx context.Context, ids []uint, user models.UserRef) (map[uint]bool, error)
	DeleteForDiscussion(ctx context.Context, discussionID uint) error
}

type pinRepository struct {
	db *gorm.DB
}

// NewPinRepository creates a new pin repository
func NewPinRepository(db *gorm.DB) PinRepository {
	return &pinRepository{db: db}
}

func (r *pinRepository) Insert(ctx context.Context, pin *models.Pin) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(pin)
	return res.RowsAffected > 0, res.Error
}

func (r *pinRepository) Delete(ctx context.Context, discussionID uint, user models.UserRef) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("discussion_id = ? AND pinned_by = ? AND pinned_by_role = ?", discussionID, user.ID, user.Role).
		Delete(&models.Pin{})
	return res.RowsAffected > 0, res.Error
}

func (r *pinRepository) Exists(ctx context.Context, discussionID uint, user models.UserRef) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Pin{}).
		Where("discussion_id = ? AND pinned_by = ? AND pinned_by_role = ?", discussionID, user.ID, user.Role).
		Count(&n).Error
	return n > 0, err
}

func (r *pinRepository) PinnedIDs(ctx context.Context, ids []uint, user models.UserRef) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if user.ID == 0 {
		return out, nil
	}
	err := chunk(ids, BatchSize, func(batch []uint) error {
		var pinned []uint
		if err := r.db.WithContext(ctx).Model(&models.Pin{}).
			Where("discussion_id IN ? AND pinned_by = ? AND pinned_by_role = ?", batch, user.ID, user.Role).
			Pluck("discussion_id", &pinned).Error; err != nil {
			return err
		}
		for _, id := range pinned {
			out[id] = true
		}
		return nil
	})
	return out, err
}

func (r *pinRepository) DeleteForDiscussion(ctx context.Context, discussionID uint) error {
	return r.db.WithContext(ctx).Where("discussion_id = ?", discussionID).Delete(&models.Pin{}).Error
}

// UnreadRow is one discussion's contribution to a user's unread totals.
type UnreadRow struct {
	DiscussionID     uint
	DiscussionUnread bool
	Replies          int64
}

// ViewRepository defines the interface for read-tracking data operations
type ViewRepository interface {
	Upsert(ctx context.Context, user models.UserRef, discussionID uint, at time.Time) (bool, error)
	LastViewed(ctx context.Context, user models.UserRef, discussionID uint) (*time.Time, error)
	LastViewedMany(ctx context.Context, user models.UserRef, ids []uint) (map[uint]time.Time, error)
	Unread(ctx context.Context, user models.UserRef, statuses []models.ContentStatus) ([]UnreadRow, error)
	DeleteForDiscussion(ctx context.Context, discussionID uint) error
}

type viewRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewViewRepository creates a new view repository
func NewViewRepository(db *gorm.DB) ViewRepository {
	return &viewRepository{db: db, metrics: observability.NewDatabaseMetrics("discussion_views")}
}

// Upsert records that user viewed discussionID at. The returned flag is true
// when this is the user's first view of the discussion.
func (r *viewRepository) Upsert(ctx context.Context, user models.UserRef, discussionID uint, at time.Time) (bool, error) {
	view := models.DiscussionView{UserID: user.ID, UserRole: user.Role, DiscussionID: discussionID, ViewedAt: at}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&view)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	err := r.db.WithContext(ctx).Model(&models.DiscussionView{}).
		Where("user_id = ? AND user_role = ? AND discussion_id = ?", user.ID, user.Role, discussionID).
		Update("viewed_at", at).Error
	return false, err
}

func (r *viewRepository) LastViewed(ctx context.Context, user models.UserRef, discussionID uint) (*time.Time, error) {
	var views []models.DiscussionView
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND user_role = ? AND discussion_id = ?", user.ID, user.Role, discussionID).
		Limit(1).
		Find(&views).Error
	if err != nil || len(views) == 0 {
		return nil, err
	}
	return &views[0].ViewedAt, nil
}

func (r *viewRepository) LastViewedMany(ctx context.Context, user models.UserRef, ids []uint) (map[uint]time.Time, error) {
	out := make(map[uint]time.Time)
	if user.ID == 0 {
		return out, nil
	}
	err := chunk(ids, BatchSize, func(batch []uint) error {
		var views []models.DiscussionView
		if err := r.db.WithContext(ctx).
			Where("user_id = ? AND user_role = ? AND discussion_id IN ?", user.ID, user.Role, batch).
			Find(&views).Error; err != nil {
			return err
		}
		for _, v := range views {
			out[v.DiscussionID] = v.ViewedAt
		}
		return nil
	})
	return out, err
}

// Unread compares content timestamps with the user's last view of each
// discussion in the database: a discussion is unread when never viewed or
// active since the last view, a reply when created after the last view.
func (r *viewRepository) Unread(ctx context.Context, user models.UserRef, statuses []models.ContentStatus) ([]UnreadRow, error) {
	defer r.metrics.TrackQuery("unread")()
	var discussions []uint
	err := r.db.WithContext(ctx).Table("discussions").
		Joins("LEFT JOIN discussion_views ON discussion_views.discussion_id = discussions.id AND discussion_views.user_id = ? AND discussion_views.user_role = ?", user.ID, user.Role).
		Where("discussions.deleted_at IS NULL AND discussions.status IN ?", statuses).
		Where("discussion_views.id IS NULL OR discussions.last_activity_at > discussion_views.viewed_at").
		Order("discussions.id").
		Pluck("discussions.id", &discussions).Error
	if err != nil {
		return nil, err
	}

	var replyCounts []struct {
		DiscussionID uint
		Unread       int64
	}
	err = r.db.WithContext(ctx).Table("replies").
		Select("replies.discussion_id AS discussion_id, COUNT(*) AS unread").
		Joins("JOIN discussions ON discussions.id = replies.discussion_id AND discussions.deleted_at IS NULL AND discussions.status IN ?", statuses).
		Joins("LEFT JOIN discussion_views ON discussion_views.discussion_id = replies.discussion_id AND discussion_views.user_id = ? AND discussion_views.user_role = ?", user.ID, user.Role).
		Where("replies.deleted_at IS NULL").
		Where("discussion_views.viewed_at IS NULL OR replies.created_at > discussion_views.viewed_at").
		Group("replies.discussion_id").
		Order("replies.discussion_id").
		Scan(&replyCounts).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*UnreadRow)
	var rows []UnreadRow
	order := make([]uint, 0, len(discussions)+len(replyCounts))
	for _, id := range discussions {
		byID[id] = &UnreadRow{DiscussionID: id, DiscussionUnread: true}
		order = append(order, id)
	}
	for _, rc := range replyCounts {
		row, ok := byID[rc.DiscussionID]
		if !ok {
			row = &UnreadRow{DiscussionID: rc.DiscussionID}
			byID[rc.DiscussionID] = row
			order = append(order, rc.DiscussionID)
		}
		row.Replies = rc.Unread
	}
	for _, id := range order {
		rows = append(rows, *byID[id])
	}
	return rows, nil
}

func (r *viewRepository) DeleteForDiscussion(ctx context.Context, discussionID uint) error {
	return r.db.WithContext(ctx).Where("discussion_id = ?", discussionID).Delete(&models.DiscussionView{}).Error
}
