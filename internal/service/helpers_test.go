package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"agora/internal/identity"
	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/tenant"
	"agora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev notifications.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) ofType(typ notifications.EventType) []notifications.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []notifications.Event
	for _, ev := range p.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// stepClock advances one second on every reading so timestamps are strictly
// ordered.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	tc      *tenant.Context
	central *gorm.DB
	dir     *identity.Service
	forum   *Forum
	pub     *recordingPublisher

	alice models.UserRef
	bob   models.UserRef
	carol models.UserRef
	staff models.UserRef
	admin models.UserRef
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tc := testutil.NewTenant(t)
	central := testutil.NewCentralDB(t)
	dir := identity.NewService(central, nil, 0)
	pub := &recordingPublisher{}
	clock := &stepClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}

	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		tc:      tc,
		central: central,
		dir:     dir,
		pub:     pub,
		forum:   NewForum(tc, Deps{Directory: dir, Publisher: pub, Now: clock.Now}),
	}
	f.alice = testutil.CreateMember(t, tc.DB, "alice", "Alice", "Archer")
	f.bob = testutil.CreateMember(t, tc.DB, "bob", "Bob", "Baker")
	f.carol = testutil.CreateMember(t, tc.DB, "carol", "Carol", "Cole")
	f.staff = testutil.CreateStaff(t, central, "mentor", models.RoleStaff, testutil.TenantKey)
	f.admin = testutil.CreateStaff(t, central, "principal", models.RoleAdmin, testutil.TenantKey)
	return f
}

func (f *fixture) discussion(actor models.UserRef, title, body string) *models.DiscussionItem {
	f.t.Helper()
	d, err := f.forum.Discussions.CreateDiscussion(f.ctx, CreateDiscussionInput{Actor: actor, Title: title, Body: body})
	require.NoError(f.t, err)
	return d
}

func (f *fixture) reply(actor models.UserRef, discussionID uint, parent *uint, content string) *models.ReplyItem {
	f.t.Helper()
	r, err := f.forum.Replies.CreateReply(f.ctx, CreateReplyInput{
		Actor: actor, DiscussionID: discussionID, ParentReplyID: parent, Content: content,
	})
	require.NoError(f.t, err)
	return r
}

func (f *fixture) discussionRow(id uint) models.Discussion {
	f.t.Helper()
	var d models.Discussion
	require.NoError(f.t, f.tc.DB.Unscoped().First(&d, id).Error)
	return d
}

func (f *fixture) replyRow(id uint) models.Reply {
	f.t.Helper()
	var r models.Reply
	require.NoError(f.t, f.tc.DB.Unscoped().First(&r, id).Error)
	return r
}

func (f *fixture) count(model interface{}, query string, args ...interface{}) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.tc.DB.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func (f *fixture) recipients(ev notifications.Event) []models.UserRef {
	f.t.Helper()
	refs, err := ev.Recipients.Select(f.ctx, f.dir, f.tc)
	require.NoError(f.t, err)
	return refs
}

// assertCounters checks every denormalized counter in the tenant against the
// rows it summarizes.
func (f *fixture) assertCounters() {
	f.t.Helper()

	var discussions []models.Discussion
	require.NoError(f.t, f.tc.DB.Unscoped().Find(&discussions).Error)
	for _, d := range discussions {
		live := f.count(&models.Reply{}, "discussion_id = ?", d.ID)
		assert.Equal(f.t, live, int64(d.ReplyCount), "reply_count of discussion %d", d.ID)
		if !d.DeletedAt.Valid {
			likes := f.count(&models.Like{}, "entity_type = ? AND entity_id = ?", models.EntityDiscussion, d.ID)
			assert.Equal(f.t, likes, int64(d.LikeCount), "like_count of discussion %d", d.ID)
		}
	}

	var replies []models.Reply
	require.NoError(f.t, f.tc.DB.Unscoped().Find(&replies).Error)
	for _, r := range replies {
		children := f.count(&models.Reply{}, "parent_reply_id = ?", r.ID)
		if r.DeletedAt.Valid {
			assert.Zero(f.t, r.SubReplyCount, "deleted reply %d keeps sub_reply_count", r.ID)
			assert.Zero(f.t, children, "deleted reply %d has live children", r.ID)
			continue
		}
		assert.Equal(f.t, children, int64(r.SubReplyCount), "sub_reply_count of reply %d", r.ID)
		likes := f.count(&models.Like{}, "entity_type = ? AND entity_id = ?", models.EntityReply, r.ID)
		assert.Equal(f.t, likes, int64(r.LikeCount), "like_count of reply %d", r.ID)
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.HasCode(err, code), "expected %s, got %v", code, err)
}

func uintPtr(v uint) *uint { return &v }
