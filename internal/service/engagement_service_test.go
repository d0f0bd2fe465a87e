package service

import (
	"sync"
	"testing"
	"time"

	"agora/internal/models"
	"agora/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLike_Idempotent(t *testing.T) {
	f := newFixture(t)
	d := f.discussion(f.alice, "Likeable", "body")
	f.pub.reset()

	for i := 0; i < 2; i++ {
		state, err := f.forum.Engagement.Like(f.ctx, models.EntityDiscussion, d.ID, f.bob)
		require.NoError(t, err)
		assert.True(t, state.Liked)
		assert.Equal(t, 1, state.LikeCount)
	}
	assert.Equal(t, int64(1), f.count(&models.Like{}, "entity_id = ?", d.ID))

	likes := f.pub.ofType(notifications.EventLikeCreated)
	require.Len(t, likes, 1)
	assert.Equal(t, []models.UserRef{f.alice}, f.recipients(likes[0]))

	for i := 0; i < 2; i++ {
		state, err := f.forum.Engagement.Unlike(f.ctx, models.EntityDiscussion, d.ID, f.bob)
		require.NoError(t, err)
		assert.False(t, state.Liked)
		assert.Zero(t, state.LikeCount)
	}
	f.assertCounters()
}

func TestToggleLike_RoundTrip(t *testing.T) {
	f := newFixture(t)
	d := f.discussion(f.alice, "Topic", "body")
	r := f.reply(f.bob, d.ID, nil, "reply")

	state, err := f.forum.Engagement.ToggleLike(f.ctx, models.EntityReply, r.ID, f.carol)
	require.NoError(t, err)
	assert.Equal(t, LikeState{Liked: true, LikeCount: 1}, *state)

	status, err := f.forum.Engagement.LikeStatus(f.ctx, models.EntityReply, r.ID, f.carol)
	require.NoError(t, err)
	assert.True(t, status.Liked)

	state, err = f.forum.Engagement.ToggleLike(f.ctx, models.EntityReply, r.ID, f.carol)
	require.NoError(t, err)
	assert.Equal(t, LikeState{Liked: false, LikeCount: 0}, *state)
	assert.Zero(t, f.replyRow(r.ID).LikeCount)
	f.assertCounters()
}

func TestLike_RoleIsPartOfIdentity(t *testing.T) {
	f := newFixture(t)
	d := f.discussion(f.alice, "Topic", "body")
	// A member and a staff account may share a numeric id.
	twin := models.Ref(f.alice.ID, models.RoleStaff)

	_, err := f.forum.Engagement.Like(f.ctx, models.EntityDiscussion, d.ID, f.alice)
	require.NoError(t, err)
	state, err := f.forum.Engagement.Like(f.ctx, models.EntityDiscussion, d.ID, twin)
	require.NoError(t, err)
	assert.Equal(t, 2, state.LikeCount)
}

func TestLike_SelfLikeIsSilent(t *testing.T) {
	f := newFixture(t)
	d := f.discussion(f.alice, "Mine", "body")
	f.pub.reset()

	_, err := f.forum.Engagement.Like(f.ctx, models.EntityDiscussion, d.ID, f.alice)
	require.NoError(t, err)
	assert.Empty(t, f.pub.ofType(notifications.EventLikeCreated))
}

func TestLike_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.forum.Engagement.ToggleLike(f.ctx, "comment", 1, f.bob)
	assertCode(t, err, models.CodeValidation)
	_, err = f.forum.Engagement.ToggleLike(f.ctx, models.EntityDiscussion, 404, f.bob)
	assertCode(t, err, models.CodeNotFound)
	_, err = f.forum.Engagement.ListLikers(f.ctx, models.EntityReply, 404, NewPage(0, 0))
	assertCode(t, err, models.CodeNotFound)
}

func TestLike_Concurrent(t *testing.T) {
	f := newFixture(t)
	d := f.discussion(f.alice, "Hot", "body")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.forum.Engagement.Like(f.ctx, models.EntityDiscussion, d.ID, f.bob)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), f.count(&models.Like{}, "entity_id = ?", d.ID))
	assert.Equal(t, 1, f.discussionRow(d.ID).LikeCount)
}

func TestListLikers(t *testing.T) {
	f := newFixture(t)
	d := f.discussion(f.alice, "Popular", "body")
	for _, u := range []models.UserRef{f.bob, f.carol, f.staff} {
		_, err := f.forum.Engagement.Like(f.ctx, models.EntityDiscussion, d.ID, u)
		require.NoError(t, err)
	}

	page, err := f.forum.Engagement.ListLikers(f.ctx, models.EntityDiscussion, d.ID, NewPage(2, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)
	require.NotNil(t, page.Items[0].User)
	assert.Equal(t, "mentor", page.Items[0].User.Handle)
	assert.Equal(t, "carol", page.Items[1].User.Handle)
}

func TestTogglePin(t *testing.T) {
	f := newFixture(t)
	d := f.discussion(f.alice, "Bookmark me", "body")

	pinned, err := f.forum.Engagement.TogglePin(f.ctx, d.ID, f.bob)
	require.NoError(t, err)
	assert.True(t, pinned)

	status, err := f.forum.Engagement.PinStatus(f.ctx, d.ID, f.bob)
	require.NoError(t, err)
	assert.True(t, status)
	status, err = f.forum.Engagement.PinStatus(f.ctx, d.ID, f.carol)
	require.NoError(t, err)
	assert.False(t, status)

	pinned, err = f.forum.Engagement.TogglePin(f.ctx, d.ID, f.bob)
	require.NoError(t, err)
	assert.False(t, pinned)
	assert.Zero(t, f.count(&models.Pin{}, "1 = 1"))

	_, err = f.forum.Engagement.TogglePin(f.ctx, 404, f.bob)
	assertCode(t, err, models.CodeNotFound)
}

func TestMarkViewed(t *testing.T) {
	f := newFixture(t)
	d := f.discussion(f.alice, "Seen", "body")
	created := f.discussionRow(d.ID).CreatedAt

	unread, err := f.forum.Engagement.IsUnread(f.ctx, f.bob, d.ID, created)
	require.NoError(t, err)
	assert.True(t, unread, "never viewed")

	for i := 0; i < 3; i++ {
		require.NoError(t, f.forum.Engagement.MarkViewed(f.ctx, f.bob, d.ID))
	}
	assert.Equal(t, 1, f.discussionRow(d.ID).ViewCount)
	assert.Equal(t, int64(1), f.count(&models.DiscussionView{}, "discussion_id = ? AND user_id = ?", d.ID, f.bob.ID))

	var view models.DiscussionView
	require.NoError(t, f.tc.DB.Where("discussion_id = ? AND user_id = ?", d.ID, f.bob.ID).First(&view).Error)

	unread, err = f.forum.Engagement.IsUnread(f.ctx, f.bob, d.ID, view.ViewedAt)
	require.NoError(t, err)
	assert.False(t, unread, "content at the view time is read")
	unread, err = f.forum.Engagement.IsUnread(f.ctx, f.bob, d.ID, view.ViewedAt.Add(time.Millisecond))
	require.NoError(t, err)
	assert.True(t, unread, "content after the view time is unread")

	assertCode(t, f.forum.Engagement.MarkViewed(f.ctx, f.bob, 404), models.CodeNotFound)
}

func TestIsUnread(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	before := at.Add(-time.Minute)
	after := at.Add(time.Minute)

	assert.True(t, isUnread(nil, at))
	assert.True(t, isUnread(&before, at))
	assert.False(t, isUnread(&at, at))
	assert.False(t, isUnread(&after, at))
}

func TestUnreadCounts(t *testing.T) {
	f := newFixture(t)
	seen := f.discussion(f.alice, "Seen", "body")
	fresh := f.discussion(f.alice, "Fresh", "body")
	archived := f.discussion(f.alice, "Archived", "body")
	f.reply(f.carol, archived.ID, nil, "hidden")
	_, err := f.forum.Discussions.ArchiveDiscussion(f.ctx, archived.ID, f.staff)
	require.NoError(t, err)

	require.NoError(t, f.forum.Engagement.MarkViewed(f.ctx, f.bob, seen.ID))
	f.reply(f.carol, seen.ID, nil, "new one")
	f.reply(f.carol, seen.ID, nil, "new two")
	f.reply(f.carol, fresh.ID, nil, "first")

	counts, err := f.forum.Engagement.UnreadCounts(f.ctx, f.bob)
	require.NoError(t, err)

	// Fresh was never opened; Seen has new activity since the view.
	assert.Equal(t, int64(2), counts.Discussions)
	assert.Equal(t, int64(3), counts.Replies)
	assert.Equal(t, models.UnreadEntry{DiscussionUnread: true, Replies: 2}, counts.ByDiscussion[seen.ID])
	assert.Equal(t, models.UnreadEntry{DiscussionUnread: true, Replies: 1}, counts.ByDiscussion[fresh.ID])
	_, ok := counts.ByDiscussion[archived.ID]
	assert.False(t, ok)

	// Opening every discussion clears the counts.
	require.NoError(t, f.forum.Engagement.MarkViewed(f.ctx, f.bob, seen.ID))
	require.NoError(t, f.forum.Engagement.MarkViewed(f.ctx, f.bob, fresh.ID))
	counts, err = f.forum.Engagement.UnreadCounts(f.ctx, f.bob)
	require.NoError(t, err)
	assert.Zero(t, counts.Discussions)
	assert.Zero(t, counts.Replies)
}
