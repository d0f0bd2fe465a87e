package repository

import (
	"context"
	"time"

	"agora/internal/models"
	"agora/internal/observability"

	"gorm.io/gorm"
)

// ReplyRepository defines the interface for reply data operations
type ReplyRepository interface {
	Create(ctx context.Context, reply *models.Reply) error
	GetByID(ctx context.Context, id uint) (*models.Reply, error)
	ListChildren(ctx context.Context, discussionID uint, parentID *uint, limit, offset int) ([]*models.Reply, int64, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	SetStatus(ctx context.Context, id uint, status models.ContentStatus) error
	AdjustCounter(ctx context.Context, id uint, column string, delta int) error
	IncrementIfActive(ctx context.Context, id uint, column string) (bool, error)
	CollectDescendants(ctx context.Context, rootID uint) ([]uint, error)
	ParentsOf(ctx context.Context, ids []uint) (map[uint]*uint, error)
	IDsForDiscussion(ctx context.Context, discussionID uint) ([]uint, error)
	MarkDeleted(ctx context.Context, ids []uint, actor models.UserRef, at time.Time) (int64, error)
	HasLiveChildren(ctx context.Context, parentIDs []uint) (bool, error)
}

type replyRepository struct {
	db *gorm.DB
}

// NewReplyRepository creates a new reply repository
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

func (r *replyRepository) Create(ctx context.Context, reply *models.Reply) error {
	return r.db.WithContext(ctx).Create(reply).Error
}

func (r *replyRepository) GetByID(ctx context.Context, id uint) (*models.Reply, error) {
	var reply models.Reply
	if err := r.db.WithContext(ctx).First(&reply, id).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

// ListChildren pages the non-deleted replies directly under parentID, or the
// top-level replies of discussionID when parentID is nil, oldest first.
func (r *replyRepository) ListChildren(ctx context.Context, discussionID uint, parentID *uint, limit, offset int) ([]*models.Reply, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if parentID == nil {
			return db.Where("discussion_id = ? AND parent_reply_id IS NULL", discussionID)
		}
		return db.Where("parent_reply_id = ?", *parentID)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Reply{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var replies []*models.Reply
	err := r.db.WithContext(ctx).Scopes(scope).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&replies).Error
	if err != nil {
		return nil, 0, err
	}
	return replies, total, nil
}

func (r *replyRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	return r.db.WithContext(ctx).Model(&models.Reply{}).
		Where("id = ?", id).
		Update("content", content).Error
}

func (r *replyRepository) SetStatus(ctx context.Context, id uint, status models.ContentStatus) error {
	return r.db.WithContext(ctx).Model(&models.Reply{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *replyRepository) AdjustCounter(ctx context.Context, id uint, column string, delta int) error {
	return adjustCounter(ctx, r.db, &models.Reply{}, "replies", id, column, delta)
}

func (r *replyRepository) IncrementIfActive(ctx context.Context, id uint, column string) (bool, error) {
	return incrementIfActive(ctx, r.db, &models.Reply{}, "replies", id, column)
}

// CollectDescendants walks the tree below rootID breadth-first and returns
// the ids of every non-deleted descendant, excluding rootID. Each id is
// visited once, so a malformed cycle cannot loop.
func (r *replyRepository) CollectDescendants(ctx context.Context, rootID uint) (out []uint, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "replies", "CollectDescendants")
	defer func() { observability.EndSpan(span, err) }()

	visited := map[uint]bool{rootID: true}
	frontier := []uint{rootID}

	for len(frontier) > 0 {
		var next []uint
		err := chunk(frontier, BatchSize, func(batch []uint) error {
			var ids []uint
			if err := r.db.WithContext(ctx).Model(&models.Reply{}).
				Where("parent_reply_id IN ?", batch).
				Order("id").
				Pluck("id", &ids).Error; err != nil {
				return err
			}
			for _, id := range ids {
				if visited[id] {
					continue
				}
				visited[id] = true
				next = append(next, id)
				out = append(out, id)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		frontier = next
	}
	return out, nil
}

// ParentsOf maps each id to its parent reply id (nil for top-level replies).
func (r *replyRepository) ParentsOf(ctx context.Context, ids []uint) (map[uint]*uint, error) {
	out := make(map[uint]*uint, len(ids))
	err := chunk(ids, BatchSize, func(batch []uint) error {
		var rows []models.Reply
		if err := r.db.WithContext(ctx).Unscoped().
			Select("id", "parent_reply_id").
			Where("id IN ?", batch).
			Find(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			out[row.ID] = row.ParentReplyID
		}
		return nil
	})
	return out, err
}

func (r *replyRepository) IDsForDiscussion(ctx context.Context, discussionID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Reply{}).
		Where("discussion_id = ?", discussionID).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

// MarkDeleted soft-deletes the ids that are not deleted yet, in batches, and
// returns how many rows it changed. Deleted replies have no live children
// left, so their sub-reply counter is reset with them.
func (r *replyRepository) MarkDeleted(ctx context.Context, ids []uint, actor models.UserRef, at time.Time) (int64, error) {
	var changed int64
	err := chunk(ids, BatchSize, func(batch []uint) error {
		res := r.db.WithContext(ctx).Unscoped().Model(&models.Reply{}).
			Where("id IN ? AND deleted_at IS NULL", batch).
			Updates(map[string]interface{}{
				"status":          models.StatusDeleted,
				"deleted_at":      at,
				"deleted_by":      actor.ID,
				"deleted_by_role": actor.Role,
				"sub_reply_count": 0,
			})
		changed += res.RowsAffected
		return res.Error
	})
	return changed, err
}

// HasLiveChildren reports whether any non-deleted reply sits directly under
// one of parentIDs.
func (r *replyRepository) HasLiveChildren(ctx context.Context, parentIDs []uint) (bool, error) {
	found := false
	err := chunk(parentIDs, BatchSize, func(batch []uint) error {
		if found {
			return nil
		}
		var n int64
		if err := r.db.WithContext(ctx).Model(&models.Reply{}).
			Where("parent_reply_id IN ?", batch).
			Count(&n).Error; err != nil {
			return err
		}
		found = n > 0
		return nil
	})
	return found, err
}
