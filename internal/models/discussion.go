package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscussionType enumerates the kinds of discussion.
type DiscussionType string

const (
	DiscussionTypeDiscussion   DiscussionType = "discussion"
	DiscussionTypeQuestion     DiscussionType = "question"
	DiscussionTypeCaseStudy    DiscussionType = "case_study"
	DiscussionTypeAnnouncement DiscussionType = "announcement"
	DiscussionTypeMeeting      DiscussionType = "meeting"
)

// Valid reports whether t is a known discussion type.
func (t DiscussionType) Valid() bool {
	switch t {
	case DiscussionTypeDiscussion, DiscussionTypeQuestion, DiscussionTypeCaseStudy,
		DiscussionTypeAnnouncement, DiscussionTypeMeeting:
		return true
	}
	return false
}

// ContentStatus is the moderation state of a discussion or reply.
type ContentStatus string

const (
	StatusActive   ContentStatus = "active"
	StatusArchived ContentStatus = "archived"
	StatusReported ContentStatus = "reported"
	StatusDeleted  ContentStatus = "deleted"
)

// Discussion is the root of a reply tree.
type Discussion struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:300;not null" json:"title"`
	Body        string         `gorm:"type:text;not null" json:"body"`
	Type        DiscussionType `gorm:"type:varchar(20);not null;default:'discussion';index" json:"type"`
	Tags        []string       `gorm:"type:text;serializer:json" json:"tags"`
	CreatedBy   uint           `gorm:"not null;index:idx_discussions_creator" json:"created_by"`
	CreatorRole Role           `gorm:"type:varchar(20);not null;index:idx_discussions_creator" json:"creator_role"`
	Status      ContentStatus  `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`

	ReplyCount int `gorm:"not null;default:0" json:"reply_count"`
	ViewCount  int `gorm:"not null;default:0" json:"view_count"`
	LikeCount  int `gorm:"not null;default:0" json:"like_count"`

	MeetingLink        string     `json:"meeting_link,omitempty"`
	MeetingPlatform    string     `gorm:"size:50" json:"meeting_platform,omitempty"`
	MeetingScheduledAt *time.Time `json:"meeting_scheduled_at,omitempty"`
	MeetingDuration    int        `json:"meeting_duration,omitempty"`

	LastActivityAt time.Time      `gorm:"index" json:"last_activity_at"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy      *uint          `json:"-"`
	DeletedByRole  Role           `gorm:"type:varchar(20)" json:"-"`
}

// Creator returns the discussion author reference.
func (d *Discussion) Creator() UserRef {
	return UserRef{ID: d.CreatedBy, Role: d.CreatorRole}
}

// IsOpen reports whether the discussion accepts replies.
func (d *Discussion) IsOpen() bool {
	return d.Status == StatusActive && !d.DeletedAt.Valid
}

// Reply is a node in a discussion's reply tree; a nil ParentReplyID marks a
// top-level reply.
type Reply struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	DiscussionID  uint          `gorm:"not null;index:idx_replies_discussion_parent" json:"discussion_id"`
	ParentReplyID *uint         `gorm:"index:idx_replies_discussion_parent;index" json:"parent_reply_id"`
	Content       string        `gorm:"type:text;not null" json:"content"`
	CreatedBy     uint          `gorm:"not null;index" json:"created_by"`
	CreatorRole   Role          `gorm:"type:varchar(20);not null" json:"creator_role"`
	Status        ContentStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	LikeCount     int `gorm:"not null;default:0" json:"like_count"`
	SubReplyCount int `gorm:"not null;default:0" json:"sub_reply_count"`

	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy     *uint          `json:"-"`
	DeletedByRole Role           `gorm:"type:varchar(20)" json:"-"`
}

// Creator returns the reply author reference.
func (r *Reply) Creator() UserRef {
	return UserRef{ID: r.CreatedBy, Role: r.CreatorRole}
}

// IsOpen reports whether the reply can receive sub-replies.
func (r *Reply) IsOpen() bool {
	return r.Status == StatusActive && !r.DeletedAt.Valid
}
