package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/observability"
	"agora/internal/repository"
)

const maxContentLen = 20000

// ReplyService manages the reply tree of discussions.
type ReplyService struct {
	*base
}

type CreateReplyInput struct {
	Actor         models.UserRef
	DiscussionID  uint
	ParentReplyID *uint
	Content       string
	Attachments   []AttachmentInput
}

type UpdateReplyInput struct {
	Actor   models.UserRef
	ReplyID uint
	Content string
}

func validateContent(content string) error {
	if content == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return models.NewValidationError("Content too long (max 20000 characters)")
	}
	return nil
}

// CreateReply adds a reply to an active discussion, optionally under an
// active reply of the same discussion.
func (s *ReplyService) CreateReply(ctx context.Context, in CreateReplyInput) (*models.ReplyItem, error) {
	content := strings.TrimSpace(in.Content)
	if err := validateContent(content); err != nil {
		return nil, err
	}

	d, err := s.store.Discussions.GetByID(ctx, in.DiscussionID)
	if err != nil {
		return nil, notFound(ctx, "reply.create", "Discussion", in.DiscussionID, err)
	}
	if !d.IsOpen() {
		return nil, models.NewNotFoundError("Discussion", in.DiscussionID)
	}

	addressee := d.Creator()
	if in.ParentReplyID != nil {
		parent, err := s.store.Replies.GetByID(ctx, *in.ParentReplyID)
		if err != nil {
			return nil, notFound(ctx, "reply.create", "Reply", *in.ParentReplyID, err)
		}
		if parent.DiscussionID != d.ID || !parent.IsOpen() {
			return nil, models.NewNotFoundError("Reply", *in.ParentReplyID)
		}
		addressee = parent.Creator()
	}

	attachments, err := attachmentRows(d.ID, nil, in.Actor, in.Attachments)
	if err != nil {
		return nil, err
	}

	formatted, resolved, err := s.mentions.Process(ctx, s.tc, content)
	if err != nil {
		return nil, internalError(ctx, "reply.create.mentions", err)
	}

	now := s.now()
	reply := &models.Reply{
		DiscussionID:  d.ID,
		ParentReplyID: in.ParentReplyID,
		Content:       formatted,
		CreatedBy:     in.Actor.ID,
		CreatorRole:   in.Actor.Role,
		Status:        models.StatusActive,
		CreatedAt:     now,
	}
	// The checks above can be stale by now; the increments only apply to
	// rows that are still active.
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		ok, err := tx.Discussions.IncrementIfActive(ctx, d.ID, repository.ColReplyCount)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundError("Discussion", d.ID)
		}
		if reply.ParentReplyID != nil {
			ok, err := tx.Replies.IncrementIfActive(ctx, *reply.ParentReplyID, repository.ColSubReplyCount)
			if err != nil {
				return err
			}
			if !ok {
				return models.NewNotFoundError("Reply", *reply.ParentReplyID)
			}
		}
		if err := tx.Replies.Create(ctx, reply); err != nil {
			return err
		}
		if err := tx.Discussions.TouchActivity(ctx, d.ID, now); err != nil {
			return err
		}
		if err := tx.Mentions.CreateBatch(ctx, mentionRows(d.ID, &reply.ID, in.Actor, resolved, now)); err != nil {
			return err
		}
		for i := range attachments {
			attachments[i].ReplyID = &reply.ID
			attachments[i].EntityType = models.EntityReply
		}
		return tx.Attachments.CreateBatch(ctx, attachments)
	})
	if err != nil {
		return nil, internalError(ctx, "reply.create", err)
	}

	if !addressee.Is(in.Actor) {
		meta := map[string]any{"discussion_id": d.ID, "reply_id": reply.ID}
		if reply.ParentReplyID != nil {
			meta["parent_reply_id"] = *reply.ParentReplyID
		}
		s.publish(ctx, notifications.EventReplyCreated, in.Actor, notifications.ToUser(addressee),
			"New reply", d.Title, meta)
	}
	s.notifyMentions(ctx, in.Actor, resolved, d.ID, &reply.ID)

	return s.getReply(ctx, reply.ID, in.Actor)
}

// ListTopLevelReplies pages the replies without a parent, oldest first.
func (s *ReplyService) ListTopLevelReplies(ctx context.Context, discussionID uint, page Page, viewer models.UserRef) (*models.Page[*models.ReplyItem], error) {
	if _, err := s.store.Discussions.GetByID(ctx, discussionID); err != nil {
		return nil, notFound(ctx, "reply.list", "Discussion", discussionID, err)
	}
	return s.listChildren(ctx, discussionID, nil, page, viewer)
}

// ListSubReplies pages the direct children of an active reply, oldest first.
func (s *ReplyService) ListSubReplies(ctx context.Context, parentID uint, page Page, viewer models.UserRef) (*models.Page[*models.ReplyItem], error) {
	parent, err := s.store.Replies.GetByID(ctx, parentID)
	if err != nil {
		return nil, notFound(ctx, "reply.list_sub", "Reply", parentID, err)
	}
	if !parent.IsOpen() {
		return nil, models.NewNotFoundError("Reply", parentID)
	}
	return s.listChildren(ctx, parent.DiscussionID, &parentID, page, viewer)
}

func (s *ReplyService) listChildren(ctx context.Context, discussionID uint, parentID *uint, page Page, viewer models.UserRef) (*models.Page[*models.ReplyItem], error) {
	rows, total, err := s.store.Replies.ListChildren(ctx, discussionID, parentID, page.Limit, page.Offset)
	if err != nil {
		return nil, internalError(ctx, "reply.list", err)
	}
	items, err := s.assembleReplies(ctx, rows, viewer)
	if err != nil {
		return nil, internalError(ctx, "reply.list.assemble", err)
	}
	return &models.Page[*models.ReplyItem]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// GetReply returns one reply assembled for viewer.
func (s *ReplyService) GetReply(ctx context.Context, id uint, viewer models.UserRef) (*models.ReplyItem, error) {
	return s.getReply(ctx, id, viewer)
}

func (s *ReplyService) getReply(ctx context.Context, id uint, viewer models.UserRef) (*models.ReplyItem, error) {
	r, err := s.store.Replies.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(ctx, "reply.get", "Reply", id, err)
	}
	items, err := s.assembleReplies(ctx, []*models.Reply{r}, viewer)
	if err != nil {
		return nil, internalError(ctx, "reply.get.assemble", err)
	}
	return items[0], nil
}

// UpdateReply replaces the content of a reply and its mention set. Counters
// are left untouched.
func (s *ReplyService) UpdateReply(ctx context.Context, in UpdateReplyInput) (*models.ReplyItem, error) {
	r, err := s.store.Replies.GetByID(ctx, in.ReplyID)
	if err != nil {
		return nil, notFound(ctx, "reply.update", "Reply", in.ReplyID, err)
	}
	if !canModify(in.Actor, r.Creator()) {
		return nil, models.NewForbiddenError("You can only edit your own replies")
	}
	content := strings.TrimSpace(in.Content)
	if err := validateContent(content); err != nil {
		return nil, err
	}

	edit, err := s.processEdit(ctx, content, r.DiscussionID, &r.ID)
	if err != nil {
		return nil, internalError(ctx, "reply.update.mentions", err)
	}

	now := s.now()
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Replies.UpdateContent(ctx, r.ID, edit.text); err != nil {
			return err
		}
		return tx.Mentions.ReplaceForContent(ctx, r.DiscussionID, &r.ID, mentionRows(r.DiscussionID, &r.ID, in.Actor, edit.set, now))
	})
	if err != nil {
		return nil, internalError(ctx, "reply.update", err)
	}

	s.notifyMentions(ctx, in.Actor, edit.added, r.DiscussionID, &r.ID)
	return s.getReply(ctx, r.ID, in.Actor)
}

// DeleteReply soft-deletes a reply and its whole subtree in one
// transaction. The root is claimed with a conditional update first, so of
// two overlapping deletes only one gets to adjust the counters.
func (s *ReplyService) DeleteReply(ctx context.Context, id uint, actor models.UserRef) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "reply", "DeleteReply", s.tc.Key)
	defer func() { observability.EndSpan(span, err) }()

	r, err := s.store.Replies.GetByID(ctx, id)
	if err != nil {
		return notFound(ctx, "reply.delete", "Reply", id, err)
	}
	if !canModify(actor, r.Creator()) {
		return models.NewForbiddenError("You can only delete your own replies")
	}

	var removed int
	for attempt := 1; ; attempt++ {
		removed, err = s.deleteSubtree(ctx, r, actor)
		if !errors.Is(err, errCascadeRaced) || attempt == cascadeAttempts {
			break
		}
		middleware.Logger.WarnContext(ctx, "reply delete raced, retrying",
			slog.Uint64("reply_id", uint64(id)),
			slog.Int("attempt", attempt),
		)
	}
	if errors.Is(err, errCascadeRaced) {
		return models.NewConflictError("Reply changed while it was being deleted; try again")
	}
	if err != nil {
		return internalError(ctx, "reply.delete", err)
	}
	observability.CascadeSize.Observe(float64(removed))
	return nil
}

// cascadeAttempts bounds the retries of a subtree delete that lost a race.
const cascadeAttempts = 3

// errCascadeRaced reports that the subtree changed between collecting it
// and marking it deleted. The transaction is rolled back and retried.
var errCascadeRaced = errors.New("reply subtree changed during delete")

func (s *ReplyService) deleteSubtree(ctx context.Context, r *models.Reply, actor models.UserRef) (int, error) {
	now := s.now()
	var set []uint
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		claimed, err := tx.Replies.MarkDeleted(ctx, []uint{r.ID}, actor, now)
		if err != nil {
			return err
		}
		if claimed == 0 {
			return models.NewNotFoundError("Reply", r.ID)
		}

		descendants, err := tx.Replies.CollectDescendants(ctx, r.ID)
		if err != nil {
			return err
		}
		set = append([]uint{r.ID}, descendants...)
		marked, err := tx.Replies.MarkDeleted(ctx, descendants, actor, now)
		if err != nil {
			return err
		}
		if marked != int64(len(descendants)) {
			return errCascadeRaced
		}
		// A reply committed under the subtree after it was collected.
		orphaned, err := tx.Replies.HasLiveChildren(ctx, set)
		if err != nil {
			return err
		}
		if orphaned {
			return errCascadeRaced
		}

		parents, err := tx.Replies.ParentsOf(ctx, set)
		if err != nil {
			return err
		}
		if err := tx.Likes.DeleteForEntities(ctx, models.EntityReply, set); err != nil {
			return err
		}
		if err := tx.Mentions.DeleteForReplies(ctx, set); err != nil {
			return err
		}
		if err := tx.Attachments.SoftDeleteForReplies(ctx, set); err != nil {
			return err
		}
		if err := tx.Reports.ResolveForEntities(ctx, models.EntityReply, set, deletedReason); err != nil {
			return err
		}
		for parentID, n := range parentDecrements(set, parents) {
			if err := tx.Replies.AdjustCounter(ctx, parentID, repository.ColSubReplyCount, -n); err != nil {
				return err
			}
		}
		return tx.Discussions.AdjustCounter(ctx, r.DiscussionID, repository.ColReplyCount, -len(set))
	})
	return len(set), err
}

// parentDecrements counts, for every parent outside the deleted set, how
// many of its direct children the set removes. Parents inside the set are
// reset to zero when they are marked deleted.
func parentDecrements(set []uint, parents map[uint]*uint) map[uint]int {
	inSet := make(map[uint]bool, len(set))
	for _, id := range set {
		inSet[id] = true
	}
	out := make(map[uint]int)
	for _, id := range set {
		p := parents[id]
		if p == nil || inSet[*p] {
			continue
		}
		out[*p]++
	}
	return out
}
