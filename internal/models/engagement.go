package models

import "time"

// EntityType names the content kinds that can be liked, reported or carry
// attachments.
type EntityType string

const (
	EntityDiscussion EntityType = "discussion"
	EntityReply      EntityType = "reply"
)

// Valid reports whether e is a known entity type.
func (e EntityType) Valid() bool {
	return e == EntityDiscussion || e == EntityReply
}

// Like is a presence relation between a user and a discussion or reply.
type Like struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	EntityType  EntityType `gorm:"type:varchar(20);not null;uniqueIndex:idx_likes_unique" json:"entity_type"`
	EntityID    uint       `gorm:"not null;uniqueIndex:idx_likes_unique" json:"entity_id"`
	LikedBy     uint       `gorm:"not null;uniqueIndex:idx_likes_unique" json:"liked_by"`
	LikedByRole Role       `gorm:"type:varchar(20);not null;uniqueIndex:idx_likes_unique" json:"liked_by_role"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Pin is a personal bookmark on a discussion.
type Pin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscussionID uint      `gorm:"not null;uniqueIndex:idx_pins_unique" json:"discussion_id"`
	PinnedBy     uint      `gorm:"not null;uniqueIndex:idx_pins_unique" json:"pinned_by"`
	PinnedByRole Role      `gorm:"type:varchar(20);not null;uniqueIndex:idx_pins_unique" json:"pinned_by_role"`
	CreatedAt    time.Time `json:"created_at"`
}

// DiscussionView stores the last time a user opened a discussion. One row per
// (user, discussion); ViewedAt is overwritten.
type DiscussionView struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_views_unique" json:"user_id"`
	UserRole     Role      `gorm:"type:varchar(20);not null;uniqueIndex:idx_views_unique" json:"user_role"`
	DiscussionID uint      `gorm:"not null;uniqueIndex:idx_views_unique;index" json:"discussion_id"`
	ViewedAt     time.Time `gorm:"not null" json:"viewed_at"`
}

// Mention records that a piece of content addressed a user.
type Mention struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	DiscussionID      uint      `gorm:"not null;index" json:"discussion_id"`
	ReplyID           *uint     `gorm:"index" json:"reply_id,omitempty"`
	MentionedBy       uint      `gorm:"not null" json:"mentioned_by"`
	MentionedByRole   Role      `gorm:"type:varchar(20);not null" json:"mentioned_by_role"`
	MentionedUser     uint      `gorm:"not null;index:idx_mentions_user" json:"mentioned_user"`
	MentionedUserRole Role      `gorm:"type:varchar(20);not null;index:idx_mentions_user" json:"mentioned_user_role"`
	MentionText       string    `gorm:"size:80;not null" json:"mention_text"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
}

// AttachmentStatus marks an attachment active or soft-deleted.
type AttachmentStatus string

const (
	AttachmentActive  AttachmentStatus = "active"
	AttachmentDeleted AttachmentStatus = "deleted"
)

// Attachment references a file held by the blob store; this engine only keeps
// its URL and metadata.
type Attachment struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	DiscussionID   uint             `gorm:"not null;index" json:"discussion_id"`
	ReplyID        *uint            `gorm:"index" json:"reply_id,omitempty"`
	EntityType     EntityType       `gorm:"type:varchar(20);not null" json:"entity_type"`
	URL            string           `gorm:"type:text;not null" json:"url"`
	FileName       string           `gorm:"size:255" json:"file_name"`
	MimeType       string           `gorm:"size:100" json:"mime_type"`
	SizeBytes      int64            `json:"size_bytes"`
	UploadedBy     uint             `gorm:"not null" json:"uploaded_by"`
	UploadedByRole Role             `gorm:"type:varchar(20);not null" json:"uploaded_by_role"`
	Status         AttachmentStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
