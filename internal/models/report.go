package models

import "time"

// ReportStatus is the review state of a moderation report.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusReviewed ReportStatus = "reviewed"
	ReportStatusResolved ReportStatus = "resolved"
)

// Open reports whether the report still counts against the reporter's quota
// of one open report per entity.
func (s ReportStatus) Open() bool {
	return s == ReportStatusPending || s == ReportStatusReviewed
}

// Report types accepted from clients.
const (
	ReportTypeSpam       = "spam"
	ReportTypeAbuse      = "abuse"
	ReportTypeOffTopic   = "off_topic"
	ReportTypeInaccurate = "inaccurate"
	ReportTypeOther      = "other"
)

// ValidReportType reports whether t is an accepted report type.
func ValidReportType(t string) bool {
	switch t {
	case ReportTypeSpam, ReportTypeAbuse, ReportTypeOffTopic, ReportTypeInaccurate, ReportTypeOther:
		return true
	}
	return false
}

// Report is a moderation report filed against a discussion or reply. The
// partial unique index keeps one open report per reporter and entity.
type Report struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	EntityType     EntityType   `gorm:"type:varchar(20);not null;uniqueIndex:idx_reports_open,where:status <> 'resolved'" json:"entity_type"`
	EntityID       uint         `gorm:"not null;uniqueIndex:idx_reports_open,where:status <> 'resolved'" json:"entity_id"`
	DiscussionID   uint         `gorm:"not null;index" json:"discussion_id"`
	ReportType     string       `gorm:"size:30;not null" json:"report_type"`
	Reason         string       `gorm:"type:text;not null" json:"reason"`
	ReportedBy     uint         `gorm:"not null;uniqueIndex:idx_reports_open,where:status <> 'resolved'" json:"reported_by"`
	ReportedByRole Role         `gorm:"type:varchar(20);not null;uniqueIndex:idx_reports_open,where:status <> 'resolved'" json:"reported_by_role"`
	Status         ReportStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedBy     *uint        `json:"reviewed_by,omitempty"`
	ReviewedByRole Role         `gorm:"type:varchar(20)" json:"reviewed_by_role,omitempty"`
	ResolutionNote string       `gorm:"type:text" json:"resolution_note,omitempty"`
	CreatedAt      time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Reporter returns the reporter reference.
func (r *Report) Reporter() UserRef {
	return UserRef{ID: r.ReportedBy, Role: r.ReportedByRole}
}
