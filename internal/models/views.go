package models

import "time"

// Page is one page of a paginated listing. Total counts every row matching
// the filters, independent of Limit and Offset.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// DiscussionItem is a discussion assembled for a specific viewer.
type DiscussionItem struct {
	*Discussion
	Creator     *UserSummary `json:"creator"`
	Pinned      bool         `json:"pinned"`
	Liked       bool         `json:"liked"`
	Unread      bool         `json:"unread"`
	LastViewed  *time.Time   `json:"last_viewed_at,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// ReplyItem is a reply assembled for a specific viewer.
type ReplyItem struct {
	*Reply
	Creator *UserSummary `json:"creator"`
	Liked   bool         `json:"liked"`
	Unread  bool         `json:"unread"`
}

// MentionItem is a mention addressed to the viewer.
type MentionItem struct {
	*Mention
	MentionedByUser *UserSummary `json:"mentioned_by_user"`
}

// ReportItem is a report with its reporter resolved.
type ReportItem struct {
	*Report
	ReporterUser *UserSummary `json:"reporter"`
}

// LikerItem is one entry of a who-liked listing.
type LikerItem struct {
	User    *UserSummary `json:"user"`
	LikedAt time.Time    `json:"liked_at"`
}

// UnreadCounts summarizes what a user has not seen yet.
type UnreadCounts struct {
	Discussions  int64                `json:"discussions"`
	Replies      int64                `json:"replies"`
	ByDiscussion map[uint]UnreadEntry `json:"by_discussion"`
}

// UnreadEntry is the unread state of one discussion.
type UnreadEntry struct {
	DiscussionUnread bool  `json:"discussion_unread"`
	Replies          int64 `json:"replies"`
}
