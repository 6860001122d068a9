// Package notify delivers operator notifications. Feed is the in-process
// broadcast that backs the live notification stream; Multi fans one
// notification out to several sinks.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// Feed keeps a bounded history of notifications and broadcasts new ones
// to subscribers. Subscribers that fall behind miss notifications rather
// than block publishers.
type Feed struct {
	log        *slog.Logger
	bufferSize int
	history    int
	now        func() time.Time

	mu     sync.Mutex
	recent []domain.Notification
	subs   map[int]chan domain.Notification
	nextID int
}

// NewFeed creates a feed. bufferSize is the per-subscriber channel
// capacity; history is how many past notifications Recent returns.
func NewFeed(log *slog.Logger, bufferSize, history int, now func() time.Time) *Feed {
	if now == nil {
		now = time.Now
	}
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Feed{
		log:        log.With("adapter", "notify"),
		bufferSize: bufferSize,
		history:    history,
		now:        now,
		subs:       make(map[int]chan domain.Notification),
	}
}

// Publish stamps n with an ID and time when missing, records it and
// delivers it to every subscriber.
func (f *Feed) Publish(ctx context.Context, n domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Time.IsZero() {
		n.Time = f.now().UTC()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.history > 0 {
		f.recent = append([]domain.Notification{n}, f.recent...)
		if len(f.recent) > f.history {
			f.recent = f.recent[:f.history]
		}
	}

	for id, ch := range f.subs {
		select {
		case ch <- n:
		default:
			f.log.WarnContext(ctx, "subscriber lagging, notification dropped",
				slog.Int("subscriber", id),
				slog.String("notification_id", n.ID.String()),
			)
		}
	}
	return nil
}

// Recent returns the retained notifications, newest first.
func (f *Feed) Recent() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.recent)
}

// Subscribe returns a channel of notifications published after the call.
// The channel closes when ctx is done.
func (f *Feed) Subscribe(ctx context.Context) (<-chan domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := make(chan domain.Notification, f.bufferSize)

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, id)
		close(ch)
		f.mu.Unlock()
	}()

	return ch, nil
}

// Publisher is anything that accepts notifications.
type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// Multi publishes to every sink in order and joins their errors. A failing
// sink does not stop delivery to the rest.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
