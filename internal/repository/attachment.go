package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
)

// AttachmentRepository defines the interface for attachment metadata operations
type AttachmentRepository interface {
	CreateBatch(ctx context.Context, attachments []models.Attachment) error
	ListForContent(ctx context.Context, discussionID uint, replyID *uint) ([]models.Attachment, error)
	ListForDiscussions(ctx context.Context, ids []uint) (map[uint][]models.Attachment, error)
	SoftDeleteForReplies(ctx context.Context, replyIDs []uint) error
	SoftDeleteForDiscussion(ctx context.Context, discussionID uint) error
}

type attachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) CreateBatch(ctx context.Context, attachments []models.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&attachments).Error
}

func (r *attachmentRepository) ListForContent(ctx context.Context, discussionID uint, replyID *uint) ([]models.Attachment, error) {
	var out []models.Attachment
	err := r.db.WithContext(ctx).
		Scopes(contentScope(discussionID, replyID)).
		Where("status = ?", models.AttachmentActive).
		Order("id").
		Find(&out).Error
	return out, err
}

// ListForDiscussions returns the active discussion-level attachments of ids.
func (r *attachmentRepository) ListForDiscussions(ctx context.Context, ids []uint) (map[uint][]models.Attachment, error) {
	out := make(map[uint][]models.Attachment)
	err := chunk(ids, BatchSize, func(batch []uint) error {
		var rows []models.Attachment
		if err := r.db.WithContext(ctx).
			Where("discussion_id IN ? AND reply_id IS NULL AND status = ?", batch, models.AttachmentActive).
			Order("id").
			Find(&rows).Error; err != nil {
			return err
		}
		for _, a := range rows {
			out[a.DiscussionID] = append(out[a.DiscussionID], a)
		}
		return nil
	})
	return out, err
}

func (r *attachmentRepository) SoftDeleteForReplies(ctx context.Context, replyIDs []uint) error {
	return chunk(replyIDs, BatchSize, func(batch []uint) error {
		return r.db.WithContext(ctx).Model(&models.Attachment{}).
			Where("reply_id IN ?", batch).
			Update("status", models.AttachmentDeleted).Error
	})
}

func (r *attachmentRepository) SoftDeleteForDiscussion(ctx context.Context, discussionID uint) error {
	return r.db.WithContext(ctx).Model(&models.Attachment{}).
		Where("discussion_id = ?", discussionID).
		Update("status", models.AttachmentDeleted).Error
}
