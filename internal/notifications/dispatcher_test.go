package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"agora/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDispatcher_NilClientIsNoop(t *testing.T) {
	d := NewRedisDispatcher(nil)
	assert.NoError(t, d.Send(context.Background(), Notification{RecipientID: 1}))
	assert.NoError(t, d.StartSubscriber(context.Background(), "t", func(string, Notification) {}))
}

func TestRecipientChannel(t *testing.T) {
	t.Parallel()
	n := Notification{RecipientID: 12, RecipientType: models.RoleStaff}
	assert.Equal(t, "notifications:north:staff:12", RecipientChannel("north", n))
}

func TestRedisDispatcher_PublishAndSubscribe(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	d := NewRedisDispatcher(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Notification, 1)
	channels := make(chan string, 1)
	require.NoError(t, d.StartSubscriber(ctx, "north", func(ch string, n Notification) {
		channels <- ch
		got <- n
	}))

	// Give the pattern subscription time to register.
	require.Eventually(t, func() bool {
		return mr.PubSubNumPat() > 0
	}, time.Second, 10*time.Millisecond)

	sent := Notification{
		EventID:       "ev-1",
		RecipientID:   3,
		RecipientType: models.RoleMember,
		Title:         "New reply",
		EventType:     EventReplyCreated,
		TenantKey:     "north",
	}
	require.NoError(t, d.Send(context.Background(), sent))

	select {
	case n := <-got:
		assert.Equal(t, "ev-1", n.EventID)
		assert.Equal(t, EventReplyCreated, n.EventType)
		assert.Equal(t, "notifications:north:member:3", <-channels)
	case <-time.After(time.Second):
		t.Fatal("notification not received")
	}
}

type recordingDispatcher struct {
	sent []Notification
	err  error
}

func (r *recordingDispatcher) Send(_ context.Context, n Notification) error {
	r.sent = append(r.sent, n)
	return r.err
}

func TestMultiDispatcher_SendsToAllAndJoinsErrors(t *testing.T) {
	ok := &recordingDispatcher{}
	failing := &recordingDispatcher{err: errors.New("smtp down")}
	m := MultiDispatcher{failing, ok, LogDispatcher{}}

	err := m.Send(context.Background(), Notification{EventID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Len(t, ok.sent, 1)
	assert.Len(t, failing.sent, 1)
}

func TestNotification_JSONShape(t *testing.T) {
	raw, err := json.Marshal(Notification{RecipientID: 5, RecipientType: models.RoleAdmin, EventType: EventReportCreated, TenantKey: "k"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"recipient_type":"admin"`)
	assert.Contains(t, string(raw), `"event_type":"report.created"`)
	assert.NotContains(t, string(raw), `"metadata"`)
}
