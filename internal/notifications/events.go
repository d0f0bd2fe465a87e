package notifications

import (
	"context"
	"time"

	"agora/internal/models"
	"agora/internal/tenant"

	"github.com/google/uuid"
)

// EventType names what happened.
type EventType string

const (
	EventDiscussionCreated EventType = "discussion.created"
	EventReplyCreated      EventType = "reply.created"
	EventLikeCreated       EventType = "like.created"
	EventMentionCreated    EventType = "mention.created"
	EventReportCreated     EventType = "report.created"
)

// Directory enumerates the accounts of a tenant.
type Directory interface {
	Recipients(ctx context.Context, tc *tenant.Context) ([]models.UserRef, error)
	Administrators(ctx context.Context, tc *tenant.Context) ([]models.UserRef, error)
}

// Rule selects the recipients of an event.
type Rule interface {
	Select(ctx context.Context, dir Directory, tc *tenant.Context) ([]models.UserRef, error)
}

type toUsers []models.UserRef

func (r toUsers) Select(context.Context, Directory, *tenant.Context) ([]models.UserRef, error) {
	return r, nil
}

// ToUser addresses one account.
func ToUser(ref models.UserRef) Rule { return toUsers{ref} }

// ToUsers addresses a fixed list of accounts.
func ToUsers(refs ...models.UserRef) Rule { return toUsers(refs) }

type allExcept struct{ actor models.UserRef }

func (r allExcept) Select(ctx context.Context, dir Directory, tc *tenant.Context) ([]models.UserRef, error) {
	all, err := dir.Recipients(ctx, tc)
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, ref := range all {
		if !ref.Is(r.actor) {
			out = append(out, ref)
		}
	}
	return out, nil
}

// AllMembersExcept addresses every account of the tenant but actor.
func AllMembersExcept(actor models.UserRef) Rule { return allExcept{actor: actor} }

type administrators struct{}

func (administrators) Select(ctx context.Context, dir Directory, tc *tenant.Context) ([]models.UserRef, error) {
	return dir.Administrators(ctx, tc)
}

// Administrators addresses the tenant's administrators.
func Administrators() Rule { return administrators{} }

// Event is one triggering occurrence to fan out.
type Event struct {
	ID         string
	Type       EventType
	Tenant     *tenant.Context
	Actor      models.UserRef
	Title      string
	Body       string
	Metadata   map[string]any
	Recipients Rule
	OccurredAt time.Time
}

// NewEvent stamps a new event with an id and time.
func NewEvent(tc *tenant.Context, typ EventType, actor models.UserRef, rule Rule, title, body string, metadata map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Tenant:     tc,
		Actor:      actor,
		Title:      title,
		Body:       body,
		Metadata:   metadata,
		Recipients: rule,
		OccurredAt: time.Now().UTC(),
	}
}

// Notification is the per-recipient record handed to a Dispatcher.
type Notification struct {
	EventID       string         `json:"event_id"`
	RecipientID   uint           `json:"recipient_id"`
	RecipientType models.Role    `json:"recipient_type"`
	Title         string         `json:"title"`
	Body          string         `json:"body"`
	EventType     EventType      `json:"event_type"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	TenantKey     string         `json:"tenant_key"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (e Event) notificationFor(ref models.UserRef) Notification {
	return Notification{
		EventID:       e.ID,
		RecipientID:   ref.ID,
		RecipientType: ref.Role,
		Title:         e.Title,
		Body:          e.Body,
		EventType:     e.Type,
		Metadata:      e.Metadata,
		TenantKey:     e.Tenant.Key,
		CreatedAt:     e.OccurredAt,
	}
}
