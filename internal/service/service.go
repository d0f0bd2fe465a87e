// Package service implements the forum operations of one tenant on top of
// the repository layer: reply trees, discussion lifecycle and moderation,
// engagement tracking, listings and notification fanout.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"agora/internal/mentions"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/repository"
	"agora/internal/tenant"

	"gorm.io/gorm"
)

// Pagination defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Directory is the identity surface the services consume.
type Directory interface {
	Resolve(ctx context.Context, tc *tenant.Context, ref models.UserRef) (*models.UserSummary, error)
	ResolveMany(ctx context.Context, tc *tenant.Context, refs []models.UserRef) (map[models.UserRef]*models.UserSummary, error)
	FindByHandle(ctx context.Context, tc *tenant.Context, handle string) (*models.UserSummary, error)
	Mentionable(ctx context.Context, tc *tenant.Context, ref models.UserRef) (*models.UserSummary, error)
	ListMembers(ctx context.Context, tc *tenant.Context, query string, limit int) ([]*models.UserSummary, error)
}

// Publisher queues notification events. Implementations must not block on
// delivery.
type Publisher interface {
	Publish(ctx context.Context, ev notifications.Event)
}

// Deps are the tenant-independent collaborators shared by every Forum.
type Deps struct {
	Directory Directory
	Publisher Publisher
	Now       func() time.Time
}

// Forum bundles the services bound to one tenant.
type Forum struct {
	Discussions *DiscussionService
	Replies     *ReplyService
	Engagement  *EngagementService
	Moderation  *ModerationService
	Query       *QueryService
}

// NewForum builds the services for tc.
func NewForum(tc *tenant.Context, deps Deps) *Forum {
	b := newBase(tc, deps)
	return &Forum{
		Discussions: &DiscussionService{base: b},
		Replies:     &ReplyService{base: b},
		Engagement:  &EngagementService{base: b},
		Moderation:  &ModerationService{base: b},
		Query:       &QueryService{base: b},
	}
}

// Page is a normalized limit/offset pair.
type Page struct {
	Limit  int
	Offset int
}

// NewPage clamps limit to [1, MaxPageSize] (DefaultPageSize when unset) and
// offset to a non-negative value.
func NewPage(limit, offset int) Page {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

type base struct {
	tc       *tenant.Context
	store    *repository.Store
	dir      Directory
	mentions *mentions.Resolver
	pub      Publisher
	now      func() time.Time
}

func newBase(tc *tenant.Context, deps Deps) *base {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &base{
		tc:       tc,
		store:    repository.NewStore(tc.DB),
		dir:      deps.Directory,
		mentions: mentions.NewResolver(deps.Directory),
		pub:      deps.Publisher,
		now:      func() time.Time { return now().UTC() },
	}
}

// internalError passes typed AppErrors through and converts anything else
// into a generic internal error after logging the cause.
func internalError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	middleware.Logger.ErrorContext(ctx, "operation failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return models.NewInternalError(err)
}

// notFound maps gorm.ErrRecordNotFound to a NotFound error and anything else
// through internalError.
func notFound(ctx context.Context, op, resource string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return internalError(ctx, op, err)
}

// ignoreMissing drops gorm.ErrRecordNotFound.
func ignoreMissing(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func (b *base) publish(ctx context.Context, typ notifications.EventType, actor models.UserRef, rule notifications.Rule, title, body string, metadata map[string]any) {
	if b.pub == nil {
		return
	}
	b.pub.Publish(ctx, notifications.NewEvent(b.tc, typ, actor, rule, title, body, metadata))
}

// notifyMentions fans a mention event out to every mentioned account except
// the author.
func (b *base) notifyMentions(ctx context.Context, actor models.UserRef, resolved []mentions.Resolved, discussionID uint, replyID *uint) {
	var targets []models.UserRef
	for _, r := range resolved {
		if !r.User.Is(actor) {
			targets = append(targets, r.User)
		}
	}
	if len(targets) == 0 {
		return
	}
	meta := map[string]any{"discussion_id": discussionID}
	if replyID != nil {
		meta["reply_id"] = *replyID
	}
	b.publish(ctx, notifications.EventMentionCreated, actor, notifications.ToUsers(targets...),
		"You were mentioned", "You were mentioned in a discussion", meta)
}

type editedMentions struct {
	text  string
	set   []mentions.Resolved
	added []mentions.Resolved
}

// processEdit runs the mention pipeline over edited text and reports which
// accounts the content did not mention before.
func (b *base) processEdit(ctx context.Context, text string, discussionID uint, replyID *uint) (*editedMentions, error) {
	existing, err := b.store.Mentions.ListForContent(ctx, discussionID, replyID)
	if err != nil {
		return nil, err
	}
	formatted, set, err := b.mentions.Process(ctx, b.tc, text)
	if err != nil {
		return nil, err
	}
	before := make(map[models.UserRef]bool, len(existing))
	for _, m := range existing {
		before[models.Ref(m.MentionedUser, m.MentionedUserRole)] = true
	}
	edit := &editedMentions{text: formatted, set: set}
	for _, r := range set {
		if !before[r.User] {
			edit.added = append(edit.added, r)
		}
	}
	return edit, nil
}

func mentionRows(discussionID uint, replyID *uint, actor models.UserRef, resolved []mentions.Resolved, at time.Time) []models.Mention {
	rows := make([]models.Mention, 0, len(resolved))
	for _, r := range resolved {
		rows = append(rows, models.Mention{
			DiscussionID:      discussionID,
			ReplyID:           replyID,
			MentionedBy:       actor.ID,
			MentionedByRole:   actor.Role,
			MentionedUser:     r.User.ID,
			MentionedUserRole: r.User.Role,
			MentionText:       "@" + r.Handle,
			CreatedAt:         at,
		})
	}
	return rows
}

// canModify reports whether actor may edit or delete content owned by owner.
func canModify(actor, owner models.UserRef) bool {
	return actor.Is(owner) || actor.Role.IsAdmin()
}

// visibleStatuses are the discussion statuses listed when the caller does
// not ask for specific ones.
var visibleStatuses = []models.ContentStatus{models.StatusActive, models.StatusReported}

// summaries resolves refs in one batched call. Lookup failures degrade to
// missing summaries rather than failing a read.
func (b *base) summaries(ctx context.Context, refs []models.UserRef) map[models.UserRef]*models.UserSummary {
	if len(refs) == 0 || b.dir == nil {
		return map[models.UserRef]*models.UserSummary{}
	}
	out, err := b.dir.ResolveMany(ctx, b.tc, refs)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to resolve user summaries",
			slog.Int("count", len(refs)),
			slog.String("error", err.Error()),
		)
		return map[models.UserRef]*models.UserSummary{}
	}
	return out
}
