package service

import (
	"context"
	"time"

	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/repository"
)

// EngagementService tracks likes, pins and views.
type EngagementService struct {
	*base
}

// LikeState is the like status of an entity for one user.
type LikeState struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// likeTarget is the owner and current counter of a likeable entity.
type likeTarget struct {
	owner        models.UserRef
	discussionID uint
	title        string
	likeCount    int
}

func (s *EngagementService) target(ctx context.Context, entityType models.EntityType, id uint) (*likeTarget, error) {
	switch entityType {
	case models.EntityDiscussion:
		d, err := s.store.Discussions.GetByID(ctx, id)
		if err != nil {
			return nil, notFound(ctx, "like.target", "Discussion", id, err)
		}
		return &likeTarget{owner: d.Creator(), discussionID: d.ID, title: d.Title, likeCount: d.LikeCount}, nil
	case models.EntityReply:
		r, err := s.store.Replies.GetByID(ctx, id)
		if err != nil {
			return nil, notFound(ctx, "like.target", "Reply", id, err)
		}
		return &likeTarget{owner: r.Creator(), discussionID: r.DiscussionID, likeCount: r.LikeCount}, nil
	default:
		return nil, models.NewValidationError("Entity type must be discussion or reply")
	}
}

func adjustLikes(ctx context.Context, tx *repository.Store, entityType models.EntityType, id uint, delta int) error {
	if entityType == models.EntityDiscussion {
		return tx.Discussions.AdjustCounter(ctx, id, repository.ColLikeCount, delta)
	}
	return tx.Replies.AdjustCounter(ctx, id, repository.ColLikeCount, delta)
}

type likeMode int

const (
	likeToggle likeMode = iota
	likeAdd
	likeRemove
)

// ToggleLike removes the user's like when present and adds it otherwise.
// The removal is attempted first, so two concurrent toggles never leave two
// rows behind.
func (s *EngagementService) ToggleLike(ctx context.Context, entityType models.EntityType, id uint, user models.UserRef) (*LikeState, error) {
	return s.setLike(ctx, entityType, id, user, likeToggle)
}

// Like adds the user's like; liking twice is a no-op.
func (s *EngagementService) Like(ctx context.Context, entityType models.EntityType, id uint, user models.UserRef) (*LikeState, error) {
	return s.setLike(ctx, entityType, id, user, likeAdd)
}

// Unlike removes the user's like; unliking twice is a no-op.
func (s *EngagementService) Unlike(ctx context.Context, entityType models.EntityType, id uint, user models.UserRef) (*LikeState, error) {
	return s.setLike(ctx, entityType, id, user, likeRemove)
}

func (s *EngagementService) setLike(ctx context.Context, entityType models.EntityType, id uint, user models.UserRef, mode likeMode) (*LikeState, error) {
	t, err := s.target(ctx, entityType, id)
	if err != nil {
		return nil, err
	}

	var liked, inserted bool
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if mode != likeAdd {
			removed, err := tx.Likes.Delete(ctx, entityType, id, user)
			if err != nil {
				return err
			}
			if removed {
				return adjustLikes(ctx, tx, entityType, id, -1)
			}
			if mode == likeRemove {
				return nil
			}
		}
		liked = true
		ok, err := tx.Likes.Insert(ctx, &models.Like{
			EntityType:  entityType,
			EntityID:    id,
			LikedBy:     user.ID,
			LikedByRole: user.Role,
			CreatedAt:   s.now(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		inserted = true
		return adjustLikes(ctx, tx, entityType, id, 1)
	})
	if err != nil {
		return nil, internalError(ctx, "like.set", err)
	}

	if inserted && !t.owner.Is(user) {
		meta := map[string]any{"entity_type": string(entityType), "entity_id": id, "discussion_id": t.discussionID}
		s.publish(ctx, notifications.EventLikeCreated, user, notifications.ToUser(t.owner),
			"New like", t.title, meta)
	}

	fresh, err := s.target(ctx, entityType, id)
	if err != nil {
		return nil, err
	}
	return &LikeState{Liked: liked, LikeCount: fresh.likeCount}, nil
}

// LikeStatus reports whether user likes the entity and its like count.
func (s *EngagementService) LikeStatus(ctx context.Context, entityType models.EntityType, id uint, user models.UserRef) (*LikeState, error) {
	t, err := s.target(ctx, entityType, id)
	if err != nil {
		return nil, err
	}
	liked, err := s.store.Likes.Exists(ctx, entityType, id, user)
	if err != nil {
		return nil, internalError(ctx, "like.status", err)
	}
	return &LikeState{Liked: liked, LikeCount: t.likeCount}, nil
}

// ListLikers pages the accounts that like the entity, most recent first.
func (s *EngagementService) ListLikers(ctx context.Context, entityType models.EntityType, id uint, page Page) (*models.Page[models.LikerItem], error) {
	if _, err := s.target(ctx, entityType, id); err != nil {
		return nil, err
	}
	likes, total, err := s.store.Likes.ListForEntity(ctx, entityType, id, page.Limit, page.Offset)
	if err != nil {
		return nil, internalError(ctx, "like.list", err)
	}
	refs := make([]models.UserRef, 0, len(likes))
	for _, l := range likes {
		refs = append(refs, models.Ref(l.LikedBy, l.LikedByRole))
	}
	users := s.summaries(ctx, refs)

	items := make([]models.LikerItem, 0, len(likes))
	for _, l := range likes {
		items = append(items, models.LikerItem{
			User:    users[models.Ref(l.LikedBy, l.LikedByRole)],
			LikedAt: l.CreatedAt,
		})
	}
	return &models.Page[models.LikerItem]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// TogglePin bookmarks the discussion for user, or removes the bookmark. It
// returns the new pinned state.
func (s *EngagementService) TogglePin(ctx context.Context, discussionID uint, user models.UserRef) (bool, error) {
	if _, err := s.store.Discussions.GetByID(ctx, discussionID); err != nil {
		return false, notFound(ctx, "pin.toggle", "Discussion", discussionID, err)
	}
	var pinned bool
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		removed, err := tx.Pins.Delete(ctx, discussionID, user)
		if err != nil || removed {
			return err
		}
		pinned = true
		_, err = tx.Pins.Insert(ctx, &models.Pin{
			DiscussionID: discussionID,
			PinnedBy:     user.ID,
			PinnedByRole: user.Role,
			CreatedAt:    s.now(),
		})
		return err
	})
	if err != nil {
		return false, internalError(ctx, "pin.toggle", err)
	}
	return pinned, nil
}

// PinStatus reports whether user pinned the discussion.
func (s *EngagementService) PinStatus(ctx context.Context, discussionID uint, user models.UserRef) (bool, error) {
	if _, err := s.store.Discussions.GetByID(ctx, discussionID); err != nil {
		return false, notFound(ctx, "pin.status", "Discussion", discussionID, err)
	}
	pinned, err := s.store.Pins.Exists(ctx, discussionID, user)
	if err != nil {
		return false, internalError(ctx, "pin.status", err)
	}
	return pinned, nil
}

// MarkViewed records that user viewed the discussion now. The first view of
// each user counts towards the discussion's view count.
func (s *EngagementService) MarkViewed(ctx context.Context, user models.UserRef, discussionID uint) error {
	if _, err := s.store.Discussions.GetByID(ctx, discussionID); err != nil {
		return notFound(ctx, "view.mark", "Discussion", discussionID, err)
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		first, err := tx.Views.Upsert(ctx, user, discussionID, s.now())
		if err != nil || !first {
			return err
		}
		return tx.Discussions.AdjustCounter(ctx, discussionID, repository.ColViewCount, 1)
	})
	return internalError(ctx, "view.mark", err)
}

// IsUnread reports whether content timestamped at is unread for user: the
// user never viewed the discussion or viewed it before at.
func (s *EngagementService) IsUnread(ctx context.Context, user models.UserRef, discussionID uint, at time.Time) (bool, error) {
	viewed, err := s.store.Views.LastViewed(ctx, user, discussionID)
	if err != nil {
		return false, internalError(ctx, "view.unread", err)
	}
	return isUnread(viewed, at), nil
}

func isUnread(viewed *time.Time, at time.Time) bool {
	return viewed == nil || at.After(*viewed)
}

// UnreadCounts totals what user has not seen across visible discussions.
func (s *EngagementService) UnreadCounts(ctx context.Context, user models.UserRef) (*models.UnreadCounts, error) {
	rows, err := s.store.Views.Unread(ctx, user, visibleStatuses)
	if err != nil {
		return nil, internalError(ctx, "view.unread_counts", err)
	}
	out := &models.UnreadCounts{ByDiscussion: make(map[uint]models.UnreadEntry, len(rows))}
	for _, r := range rows {
		if r.DiscussionUnread {
			out.Discussions++
		}
		out.Replies += r.Replies
		out.ByDiscussion[r.DiscussionID] = models.UnreadEntry{DiscussionUnread: r.DiscussionUnread, Replies: r.Replies}
	}
	return out, nil
}
