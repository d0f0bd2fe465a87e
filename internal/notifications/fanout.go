package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"agora/internal/middleware"
	"agora/internal/observability"
)

const sendTimeout = 10 * time.Second

// Fanout queues events and dispatches them on a pool of workers. Publishing
// never blocks: when the queue is full the event is dropped and counted.
type Fanout struct {
	dir  Directory
	disp Dispatcher

	queue chan Event
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewFanout starts workers goroutines draining a queue of size events.
func NewFanout(dir Directory, disp Dispatcher, workers, size int) *Fanout {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 1
	}
	f := &Fanout{
		dir:   dir,
		disp:  disp,
		queue: make(chan Event, size),
	}
	f.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go f.worker()
	}
	return f
}

// Publish enqueues ev. Request-scoped values such as the request id are kept
// for logging; cancellation of ctx does not affect delivery.
func (f *Fanout) Publish(ctx context.Context, ev Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		observability.NotificationsDropped.WithLabelValues("closed").Inc()
		middleware.Logger.WarnContext(ctx, "notification dropped: fanout closed",
			slog.String("event_type", string(ev.Type)))
		return
	}

	select {
	case f.queue <- ev:
	default:
		observability.NotificationsDropped.WithLabelValues("queue_full").Inc()
		middleware.Logger.WarnContext(ctx, "notification dropped: queue full",
			slog.String("event_type", string(ev.Type)),
			slog.String("event_id", ev.ID))
	}
}

// Close stops accepting events and waits for queued ones to be delivered or
// for ctx to expire.
func (f *Fanout) Close(ctx context.Context) error {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.queue)
	}
	f.mu.Unlock()

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notification fanout drain: %w", ctx.Err())
	}
}

func (f *Fanout) worker() {
	defer f.wg.Done()
	for ev := range f.queue {
		f.deliver(ev)
	}
}

func (f *Fanout) deliver(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if ev.Tenant != nil {
		ctx = context.WithValue(ctx, middleware.TenantKey, ev.Tenant.Key)
	}

	defer func() {
		if r := recover(); r != nil {
			observability.NotificationsFailed.WithLabelValues(string(ev.Type)).Inc()
			middleware.Logger.ErrorContext(ctx, "panic in notification fanout",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("event_type", string(ev.Type)))
		}
	}()

	if ev.Tenant == nil || ev.Recipients == nil {
		return
	}

	recipients, err := ev.Recipients.Select(ctx, f.dir, ev.Tenant)
	if err != nil {
		observability.NotificationsFailed.WithLabelValues(string(ev.Type)).Inc()
		middleware.Logger.ErrorContext(ctx, "failed to select notification recipients",
			slog.String("event_type", string(ev.Type)),
			slog.String("error", err.Error()))
		return
	}

	for _, ref := range recipients {
		if ref.Is(ev.Actor) {
			continue
		}
		if err := f.disp.Send(ctx, ev.notificationFor(ref)); err != nil {
			observability.NotificationsFailed.WithLabelValues(string(ev.Type)).Inc()
			middleware.Logger.WarnContext(ctx, "notification delivery failed",
				slog.String("event_type", string(ev.Type)),
				slog.String("recipient", ref.String()),
				slog.String("error", err.Error()))
			continue
		}
		observability.NotificationsDispatched.WithLabelValues(string(ev.Type)).Inc()
	}
}
