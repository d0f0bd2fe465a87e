package service

import (
	"context"
	"strings"
	"time"

	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/observability"
	"agora/internal/repository"
)

const (
	maxTitleLen   = 300
	maxTags       = 10
	maxTagLen     = 50
	deletedReason = "content deleted"
)

// DiscussionService manages the discussion lifecycle.
type DiscussionService struct {
	*base
}

// AttachmentInput describes a file already stored in the blob store.
type AttachmentInput struct {
	URL       string `json:"url"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// MeetingInput carries the fields of a meeting-type discussion.
type MeetingInput struct {
	Link        string     `json:"meeting_link"`
	Platform    string     `json:"meeting_platform"`
	ScheduledAt *time.Time `json:"meeting_scheduled_at"`
	Duration    int        `json:"meeting_duration"`
}

func (m MeetingInput) empty() bool {
	return strings.TrimSpace(m.Link) == "" && strings.TrimSpace(m.Platform) == "" &&
		m.ScheduledAt == nil && m.Duration == 0
}

func (m MeetingInput) validate() error {
	if strings.TrimSpace(m.Link) == "" || strings.TrimSpace(m.Platform) == "" || m.ScheduledAt == nil {
		return models.NewValidationError("Meeting link, platform and scheduled time are required")
	}
	if m.Duration <= 0 {
		return models.NewValidationError("Meeting duration must be positive")
	}
	return nil
}

type CreateDiscussionInput struct {
	Actor       models.UserRef
	Title       string
	Body        string
	Type        models.DiscussionType
	Tags        []string
	Meeting     MeetingInput
	Attachments []AttachmentInput
}

type UpdateDiscussionInput struct {
	Actor   models.UserRef
	ID      uint
	Title   *string
	Body    *string
	Tags    *[]string
	Meeting *MeetingInput
}

// NormalizeTags lowercases, trims and deduplicates tags, keeping first-seen
// order.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		if len(t) > maxTagLen {
			return nil, models.NewValidationError("Tag too long (max 50 characters)")
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) > maxTags {
		return nil, models.NewValidationError("Too many tags (max 10)")
	}
	return out, nil
}

func validateTitleBody(title, body string) error {
	if title == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	if body == "" {
		return models.NewValidationError("Body is required")
	}
	if len(body) > maxContentLen {
		return models.NewValidationError("Body too long (max 20000 characters)")
	}
	return nil
}

func attachmentRows(discussionID uint, replyID *uint, actor models.UserRef, in []AttachmentInput) ([]models.Attachment, error) {
	rows := make([]models.Attachment, 0, len(in))
	entity := models.EntityDiscussion
	if replyID != nil {
		entity = models.EntityReply
	}
	for _, a := range in {
		if strings.TrimSpace(a.URL) == "" {
			return nil, models.NewValidationError("Attachment URL is required")
		}
		rows = append(rows, models.Attachment{
			DiscussionID:   discussionID,
			ReplyID:        replyID,
			EntityType:     entity,
			URL:            strings.TrimSpace(a.URL),
			FileName:       a.FileName,
			MimeType:       a.MimeType,
			SizeBytes:      a.SizeBytes,
			UploadedBy:     actor.ID,
			UploadedByRole: actor.Role,
			Status:         models.AttachmentActive,
		})
	}
	return rows, nil
}

// CreateDiscussion validates and stores a new discussion, records its
// mentions and notifies the rest of the tenant.
func (s *DiscussionService) CreateDiscussion(ctx context.Context, in CreateDiscussionInput) (*models.DiscussionItem, error) {
	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.Body)
	if err := validateTitleBody(title, body); err != nil {
		return nil, err
	}

	typ := in.Type
	if typ == "" {
		typ = models.DiscussionTypeDiscussion
	}
	if !typ.Valid() {
		return nil, models.NewValidationError("Unknown discussion type")
	}
	if typ == models.DiscussionTypeMeeting {
		if !in.Actor.Role.IsPrivileged() {
			return nil, models.NewForbiddenError("Only staff can create meetings")
		}
		if err := in.Meeting.validate(); err != nil {
			return nil, err
		}
	} else if !in.Meeting.empty() {
		return nil, models.NewValidationError("Meeting fields are only allowed on meetings")
	}

	tags, err := NormalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	formatted, resolved, err := s.mentions.Process(ctx, s.tc, body)
	if err != nil {
		return nil, internalError(ctx, "discussion.create.mentions", err)
	}

	now := s.now()
	d := &models.Discussion{
		Title:          title,
		Body:           formatted,
		Type:           typ,
		Tags:           tags,
		CreatedBy:      in.Actor.ID,
		CreatorRole:    in.Actor.Role,
		Status:         models.StatusActive,
		LastActivityAt: now,
		CreatedAt:      now,
	}
	if typ == models.DiscussionTypeMeeting {
		d.MeetingLink = strings.TrimSpace(in.Meeting.Link)
		d.MeetingPlatform = strings.TrimSpace(in.Meeting.Platform)
		at := in.Meeting.ScheduledAt.UTC()
		d.MeetingScheduledAt = &at
		d.MeetingDuration = in.Meeting.Duration
	}

	attachments, err := attachmentRows(0, nil, in.Actor, in.Attachments)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Discussions.Create(ctx, d); err != nil {
			return err
		}
		if err := tx.Mentions.CreateBatch(ctx, mentionRows(d.ID, nil, in.Actor, resolved, now)); err != nil {
			return err
		}
		for i := range attachments {
			attachments[i].DiscussionID = d.ID
		}
		if err := tx.Attachments.CreateBatch(ctx, attachments); err != nil {
			return err
		}
		// The author has seen their own discussion.
		_, err := tx.Views.Upsert(ctx, in.Actor, d.ID, now)
		return err
	})
	if err != nil {
		return nil, internalError(ctx, "discussion.create", err)
	}

	s.publish(ctx, notifications.EventDiscussionCreated, in.Actor, notifications.AllMembersExcept(in.Actor),
		"New discussion", d.Title, map[string]any{"discussion_id": d.ID, "type": string(d.Type)})
	s.notifyMentions(ctx, in.Actor, resolved, d.ID, nil)

	return s.getDiscussion(ctx, d.ID, in.Actor)
}

// GetDiscussion returns the discussion assembled for viewer.
func (s *DiscussionService) GetDiscussion(ctx context.Context, id uint, viewer models.UserRef) (*models.DiscussionItem, error) {
	return s.getDiscussion(ctx, id, viewer)
}

func (b *base) getDiscussion(ctx context.Context, id uint, viewer models.UserRef) (*models.DiscussionItem, error) {
	d, err := b.store.Discussions.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(ctx, "discussion.get", "Discussion", id, err)
	}
	items, err := b.assembleDiscussions(ctx, []*models.Discussion{d}, viewer)
	if err != nil {
		return nil, internalError(ctx, "discussion.get.assemble", err)
	}
	return items[0], nil
}

// UpdateDiscussion edits a discussion. Only the creator or an administrator
// may do so; a new body replaces the recorded mention set.
func (s *DiscussionService) UpdateDiscussion(ctx context.Context, in UpdateDiscussionInput) (*models.DiscussionItem, error) {
	d, err := s.store.Discussions.GetByID(ctx, in.ID)
	if err != nil {
		return nil, notFound(ctx, "discussion.update", "Discussion", in.ID, err)
	}
	if !canModify(in.Actor, d.Creator()) {
		return nil, models.NewForbiddenError("You can only edit your own discussions")
	}

	columns := []string{"updated_at"}
	if in.Title != nil {
		d.Title = strings.TrimSpace(*in.Title)
		columns = append(columns, "title")
	}
	bodyChanged := false
	if in.Body != nil {
		d.Body = strings.TrimSpace(*in.Body)
		bodyChanged = true
		columns = append(columns, "body")
	}
	if err := validateTitleBody(d.Title, d.Body); err != nil {
		return nil, err
	}
	if in.Tags != nil {
		tags, err := NormalizeTags(*in.Tags)
		if err != nil {
			return nil, err
		}
		d.Tags = tags
		columns = append(columns, "tags")
	}
	if in.Meeting != nil {
		if d.Type != models.DiscussionTypeMeeting {
			return nil, models.NewValidationError("Meeting fields are only allowed on meetings")
		}
		if err := in.Meeting.validate(); err != nil {
			return nil, err
		}
		at := in.Meeting.ScheduledAt.UTC()
		d.MeetingLink = strings.TrimSpace(in.Meeting.Link)
		d.MeetingPlatform = strings.TrimSpace(in.Meeting.Platform)
		d.MeetingScheduledAt = &at
		d.MeetingDuration = in.Meeting.Duration
		columns = append(columns, "meeting_link", "meeting_platform", "meeting_scheduled_at", "meeting_duration")
	}

	var edit *editedMentions
	if bodyChanged {
		if edit, err = s.processEdit(ctx, d.Body, d.ID, nil); err != nil {
			return nil, internalError(ctx, "discussion.update.mentions", err)
		}
		d.Body = edit.text
	}

	now := s.now()
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Discussions.Update(ctx, d, columns...); err != nil {
			return err
		}
		if edit == nil {
			return nil
		}
		return tx.Mentions.ReplaceForContent(ctx, d.ID, nil, mentionRows(d.ID, nil, in.Actor, edit.set, now))
	})
	if err != nil {
		return nil, internalError(ctx, "discussion.update", err)
	}

	if edit != nil {
		s.notifyMentions(ctx, in.Actor, edit.added, d.ID, nil)
	}
	return s.getDiscussion(ctx, d.ID, in.Actor)
}

// ArchiveDiscussion moves an active or reported discussion to archived.
// Archiving an archived discussion is a no-op.
func (s *DiscussionService) ArchiveDiscussion(ctx context.Context, id uint, actor models.UserRef) (*models.DiscussionItem, error) {
	if !actor.Role.IsPrivileged() {
		return nil, models.NewForbiddenError("Only staff can archive discussions")
	}
	d, err := s.store.Discussions.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(ctx, "discussion.archive", "Discussion", id, err)
	}
	if d.Status != models.StatusArchived {
		if err := s.store.Discussions.SetStatus(ctx, id, models.StatusArchived); err != nil {
			return nil, internalError(ctx, "discussion.archive", err)
		}
	}
	return s.getDiscussion(ctx, id, actor)
}

// DeleteDiscussion soft-deletes a discussion and everything tied to it in a
// single transaction. Deleting it twice reports NotFound.
func (s *DiscussionService) DeleteDiscussion(ctx context.Context, id uint, actor models.UserRef) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "discussion", "DeleteDiscussion", s.tc.Key)
	defer func() { observability.EndSpan(span, err) }()

	d, err := s.store.Discussions.GetByID(ctx, id)
	if err != nil {
		return notFound(ctx, "discussion.delete", "Discussion", id, err)
	}
	if !canModify(actor, d.Creator()) {
		return models.NewForbiddenError("You can only delete your own discussions")
	}

	now := s.now()
	var removed int
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		// Claim the discussion first so a concurrent delete or new reply
		// either finishes before this one or sees it deleted.
		claimed, err := tx.Discussions.SoftDelete(ctx, id, actor, now)
		if err != nil {
			return err
		}
		if !claimed {
			return models.NewNotFoundError("Discussion", id)
		}
		replyIDs, err := tx.Replies.IDsForDiscussion(ctx, id)
		if err != nil {
			return err
		}
		removed = len(replyIDs)
		if _, err := tx.Replies.MarkDeleted(ctx, replyIDs, actor, now); err != nil {
			return err
		}
		if err := tx.Likes.DeleteForEntities(ctx, models.EntityReply, replyIDs); err != nil {
			return err
		}
		if err := tx.Likes.DeleteForEntities(ctx, models.EntityDiscussion, []uint{id}); err != nil {
			return err
		}
		if err := tx.Pins.DeleteForDiscussion(ctx, id); err != nil {
			return err
		}
		if err := tx.Mentions.DeleteForDiscussion(ctx, id); err != nil {
			return err
		}
		if err := tx.Attachments.SoftDeleteForDiscussion(ctx, id); err != nil {
			return err
		}
		if err := tx.Reports.ResolveForDiscussion(ctx, id, deletedReason); err != nil {
			return err
		}
		return tx.Views.DeleteForDiscussion(ctx, id)
	})
	if err != nil {
		return internalError(ctx, "discussion.delete", err)
	}
	observability.CascadeSize.Observe(float64(removed))
	return nil
}
