package service

import (
	"context"
	"strings"
	"time"

	"agora/internal/models"
	"agora/internal/repository"
)

const (
	defaultCandidates = 10
	maxCandidates     = 50
)

// QueryService serves listings assembled for a viewer.
type QueryService struct {
	*base
}

// DiscussionFilter narrows a discussion listing.
type DiscussionFilter struct {
	Type        models.DiscussionType
	Tag         string
	Statuses    []models.ContentStatus
	Creator     *models.UserRef
	PinnedOnly  bool
	UnreadOnly  bool
	Search      string
	Sort        string
	PinnedFirst bool
}

func (f DiscussionFilter) validate() error {
	if f.Type != "" && !f.Type.Valid() {
		return models.NewValidationError("Unknown discussion type")
	}
	if !repository.ValidSort(f.Sort) {
		return models.NewValidationError("Unknown sort order")
	}
	for _, st := range f.Statuses {
		switch st {
		case models.StatusActive, models.StatusArchived, models.StatusReported:
		default:
			return models.NewValidationError("Unknown discussion status")
		}
	}
	return nil
}

// ListDiscussions pages discussions matching filter. The total and the page
// come from the same filters; assembly runs on the page only.
func (s *QueryService) ListDiscussions(ctx context.Context, filter DiscussionFilter, page Page, viewer models.UserRef) (*models.Page[*models.DiscussionItem], error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = visibleStatuses
	}

	rows, total, err := s.store.Discussions.List(ctx, repository.DiscussionQuery{
		Type:        filter.Type,
		Tag:         filter.Tag,
		Statuses:    statuses,
		Creator:     filter.Creator,
		Viewer:      viewer,
		PinnedOnly:  filter.PinnedOnly,
		UnreadOnly:  filter.UnreadOnly,
		Search:      strings.TrimSpace(filter.Search),
		Sort:        filter.Sort,
		PinnedFirst: filter.PinnedFirst,
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
	if err != nil {
		return nil, internalError(ctx, "discussion.list", err)
	}

	items, err := s.assembleDiscussions(ctx, rows, viewer)
	if err != nil {
		return nil, internalError(ctx, "discussion.list.assemble", err)
	}
	return &models.Page[*models.DiscussionItem]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// ListMentionsForUser pages the mentions addressed to user, newest first.
func (s *QueryService) ListMentionsForUser(ctx context.Context, user models.UserRef, page Page) (*models.Page[*models.MentionItem], error) {
	rows, total, err := s.store.Mentions.ListForUser(ctx, user, page.Limit, page.Offset)
	if err != nil {
		return nil, internalError(ctx, "mention.list", err)
	}
	refs := make([]models.UserRef, 0, len(rows))
	for _, m := range rows {
		refs = append(refs, models.Ref(m.MentionedBy, m.MentionedByRole))
	}
	users := s.summaries(ctx, refs)

	items := make([]*models.MentionItem, 0, len(rows))
	for _, m := range rows {
		items = append(items, &models.MentionItem{
			Mention:         m,
			MentionedByUser: users[models.Ref(m.MentionedBy, m.MentionedByRole)],
		})
	}
	return &models.Page[*models.MentionItem]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// MentionCandidates lists accounts whose handle or name starts with query,
// for mention autocomplete.
func (s *QueryService) MentionCandidates(ctx context.Context, query string, limit int) ([]*models.UserSummary, error) {
	if limit <= 0 {
		limit = defaultCandidates
	}
	if limit > maxCandidates {
		limit = maxCandidates
	}
	out, err := s.dir.ListMembers(ctx, s.tc, strings.TrimSpace(strings.TrimPrefix(query, "@")), limit)
	if err != nil {
		return nil, internalError(ctx, "mention.candidates", err)
	}
	if out == nil {
		out = []*models.UserSummary{}
	}
	return out, nil
}

// assembleDiscussions decorates rows with viewer state and creator summaries
// using one batched query per relation.
func (b *base) assembleDiscussions(ctx context.Context, rows []*models.Discussion, viewer models.UserRef) ([]*models.DiscussionItem, error) {
	items := make([]*models.DiscussionItem, 0, len(rows))
	if len(rows) == 0 {
		return items, nil
	}

	ids := make([]uint, 0, len(rows))
	refs := make([]models.UserRef, 0, len(rows))
	for _, d := range rows {
		ids = append(ids, d.ID)
		refs = append(refs, d.Creator())
	}

	pinned, err := b.store.Pins.PinnedIDs(ctx, ids, viewer)
	if err != nil {
		return nil, err
	}
	liked, err := b.store.Likes.LikedIDs(ctx, models.EntityDiscussion, ids, viewer)
	if err != nil {
		return nil, err
	}
	viewed, err := b.store.Views.LastViewedMany(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}
	attachments, err := b.store.Attachments.ListForDiscussions(ctx, ids)
	if err != nil {
		return nil, err
	}
	users := b.summaries(ctx, refs)

	for _, d := range rows {
		item := &models.DiscussionItem{
			Discussion:  d,
			Creator:     users[d.Creator()],
			Pinned:      pinned[d.ID],
			Liked:       liked[d.ID],
			Attachments: attachments[d.ID],
		}
		if at, ok := viewed[d.ID]; ok {
			item.LastViewed = &at
		}
		item.Unread = isUnread(item.LastViewed, d.LastActivityAt)
		items = append(items, item)
	}
	return items, nil
}

// assembleReplies decorates replies with viewer state and creator summaries.
func (b *base) assembleReplies(ctx context.Context, rows []*models.Reply, viewer models.UserRef) ([]*models.ReplyItem, error) {
	items := make([]*models.ReplyItem, 0, len(rows))
	if len(rows) == 0 {
		return items, nil
	}

	ids := make([]uint, 0, len(rows))
	refs := make([]models.UserRef, 0, len(rows))
	discussionIDs := make([]uint, 0, 1)
	seen := make(map[uint]bool)
	for _, r := range rows {
		ids = append(ids, r.ID)
		refs = append(refs, r.Creator())
		if !seen[r.DiscussionID] {
			seen[r.DiscussionID] = true
			discussionIDs = append(discussionIDs, r.DiscussionID)
		}
	}

	liked, err := b.store.Likes.LikedIDs(ctx, models.EntityReply, ids, viewer)
	if err != nil {
		return nil, err
	}
	viewed, err := b.store.Views.LastViewedMany(ctx, viewer, discussionIDs)
	if err != nil {
		return nil, err
	}
	users := b.summaries(ctx, refs)

	for _, r := range rows {
		var last *time.Time
		if at, ok := viewed[r.DiscussionID]; ok {
			last = &at
		}
		items = append(items, &models.ReplyItem{
			Reply:   r,
			Creator: users[r.Creator()],
			Liked:   liked[r.ID],
			Unread:  isUnread(last, r.CreatedAt),
		})
	}
	return items, nil
}
