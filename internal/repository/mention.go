package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
)

// MentionRepository defines the interface for mention data operations
type MentionRepository interface {
	CreateBatch(ctx context.Context, mentions []models.Mention) error
	ReplaceForContent(ctx context.Context, discussionID uint, replyID *uint, mentions []models.Mention) error
	DeleteForReplies(ctx context.Context, replyIDs []uint) error
	DeleteForDiscussion(ctx context.Context, discussionID uint) error
	ListForContent(ctx context.Context, discussionID uint, replyID *uint) ([]models.Mention, error)
	ListForUser(ctx context.Context, user models.UserRef, limit, offset int) ([]*models.Mention, int64, error)
}

type mentionRepository struct {
	db *gorm.DB
}

// NewMentionRepository creates a new mention repository
func NewMentionRepository(db *gorm.DB) MentionRepository {
	return &mentionRepository{db: db}
}

func (r *mentionRepository) CreateBatch(ctx context.Context, mentions []models.Mention) error {
	if len(mentions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(mentions, BatchSize).Error
}

func contentScope(discussionID uint, replyID *uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if replyID == nil {
			return db.Where("discussion_id = ? AND reply_id IS NULL", discussionID)
		}
		return db.Where("reply_id = ?", *replyID)
	}
}

// ReplaceForContent drops the mention set of one content item and writes the
// new one. Callers run it inside a transaction.
func (r *mentionRepository) ReplaceForContent(ctx context.Context, discussionID uint, replyID *uint, mentions []models.Mention) error {
	if err := r.db.WithContext(ctx).Scopes(contentScope(discussionID, replyID)).Delete(&models.Mention{}).Error; err != nil {
		return err
	}
	return r.CreateBatch(ctx, mentions)
}

func (r *mentionRepository) DeleteForReplies(ctx context.Context, replyIDs []uint) error {
	return chunk(replyIDs, BatchSize, func(batch []uint) error {
		return r.db.WithContext(ctx).Where("reply_id IN ?", batch).Delete(&models.Mention{}).Error
	})
}

func (r *mentionRepository) DeleteForDiscussion(ctx context.Context, discussionID uint) error {
	return r.db.WithContext(ctx).Where("discussion_id = ?", discussionID).Delete(&models.Mention{}).Error
}

func (r *mentionRepository) ListForContent(ctx context.Context, discussionID uint, replyID *uint) ([]models.Mention, error) {
	var out []models.Mention
	err := r.db.WithContext(ctx).Scopes(contentScope(discussionID, replyID)).Order("id").Find(&out).Error
	return out, err
}

// ListForUser pages the mentions addressed to user, newest first.
func (r *mentionRepository) ListForUser(ctx context.Context, user models.UserRef, limit, offset int) ([]*models.Mention, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("mentioned_user = ? AND mentioned_user_role = ?", user.ID, user.Role)
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Mention{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*models.Mention
	err := r.db.WithContext(ctx).Scopes(scope).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, total, err
}
