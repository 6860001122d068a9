package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// ReconnectDelay is how long the Listener waits before re-subscribing after
// its connection fails.
const ReconnectDelay = 2 * time.Second

var (
	// ErrListenerClosed is returned by subscribe after Close.
	ErrListenerClosed = errors.New("listener closed")
	// ErrListenerOffline is returned by subscribe while the listening
	// connection is down.
	ErrListenerOffline = errors.New("listener offline")
)

type listenEvent int

const (
	// eventChanged asks the subscriber to re-list: a NOTIFY arrived or the
	// connection came back.
	eventChanged listenEvent = iota + 1
	eventLost
)

type subscriber struct {
	channel string
	events  chan listenEvent
}

// Listener holds a single pool connection that LISTENs on a fixed set of
// channels and fans notifications out to in-process subscribers. Every live
// feed shares it, so the number of open feeds never costs pool connections.
// The connection is taken on the first subscription.
type Listener struct {
	log      *slog.Logger
	pool     *pgxpool.Pool
	channels []string

	ctx    context.Context
	cancel context.CancelFunc
	ready  chan struct{} // closed after the first connection attempt
	done   chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
	online  bool
	subs    map[*subscriber]struct{}
}

// NewListener creates a Listener for channels on pool.
func NewListener(log *slog.Logger, pool *pgxpool.Pool, channels ...string) *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{
		log:      log.With("component", "listener"),
		pool:     pool,
		channels: channels,
		ctx:      ctx,
		cancel:   cancel,
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
		subs:     make(map[*subscriber]struct{}),
	}
}

// subscribe registers for notifications on channel. The returned channel
// carries only the latest unread event and is closed by Close. It fails
// while the listening connection is down.
func (l *Listener) subscribe(ctx context.Context, channel string) (<-chan listenEvent, func(), error) {
	if !slices.Contains(l.channels, channel) {
		return nil, nil, fmt.Errorf("listen %s: unknown channel", channel)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, nil, ErrListenerClosed
	}
	if !l.started {
		l.started = true
		go l.run()
	}
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-l.ready:
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.closed:
		return nil, nil, ErrListenerClosed
	case !l.online:
		return nil, nil, fmt.Errorf("listen %s: %w", channel, ErrListenerOffline)
	}

	sub := &subscriber{channel: channel, events: make(chan listenEvent, 1)}
	l.subs[sub] = struct{}{}
	unsubscribe := func() {
		l.mu.Lock()
		delete(l.subs, sub)
		l.mu.Unlock()
	}
	return sub.events, unsubscribe, nil
}

// Close releases the connection and closes every subscriber channel.
func (l *Listener) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	started := l.started
	l.mu.Unlock()

	l.cancel()
	if started {
		<-l.done
	}
}

// Len is the number of current subscribers.
func (l *Listener) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

func (l *Listener) run() {
	defer close(l.done)
	defer l.shutdown()

	first := true
	for {
		conn, err := l.connect(l.ctx)
		if err == nil {
			l.setOnline(true, !first)
		}
		if first {
			close(l.ready)
			first = false
		}
		if err == nil {
			err = l.follow(conn)
			release(conn)
		}
		if l.ctx.Err() != nil {
			return
		}

		l.log.Warn("live listener lost", slog.String("error", err.Error()))
		l.setOnline(false, true)

		t := time.NewTimer(ReconnectDelay)
		select {
		case <-l.ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (l *Listener) connect(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	for _, ch := range l.channels {
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ch}.Sanitize()); err != nil {
			release(conn)
			return nil, fmt.Errorf("listen %s: %w", ch, err)
		}
	}
	return conn, nil
}

// follow hands every notification to the subscribers of its channel until
// the connection fails or the listener is closed.
func (l *Listener) follow(conn *pgxpool.Conn) error {
	for {
		n, err := conn.Conn().WaitForNotification(l.ctx)
		if err != nil {
			return err
		}
		l.mu.Lock()
		for sub := range l.subs {
			if sub.channel == n.Channel {
				sub.send(eventChanged)
			}
		}
		l.mu.Unlock()
	}
}

// setOnline records the connection state and, if announce is set, tells
// every subscriber about the change.
func (l *Listener) setOnline(online, announce bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	was := l.online
	l.online = online
	if !announce || was == online {
		return
	}
	ev := eventLost
	if online {
		ev = eventChanged
	}
	for sub := range l.subs {
		sub.send(ev)
	}
}

func (l *Listener) shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.online = false
	for sub := range l.subs {
		close(sub.events)
		delete(l.subs, sub)
	}
}

// send replaces any unread event with ev. Callers hold the listener lock.
func (s *subscriber) send(ev listenEvent) {
	select {
	case <-s.events:
	default:
	}
	s.events <- ev
}

// Observe streams snapshots of a table whose triggers NOTIFY on channel.
// The first snapshot is the current state; every notification re-lists the
// table. A slow reader only ever sees the latest snapshot. While the
// listener is down the last known items are re-sent as offline. The channel
// closes when ctx is done or the listener is closed.
func Observe[T any](
	ctx context.Context,
	log *slog.Logger,
	l *Listener,
	channel string,
	list func(ctx context.Context) ([]T, error),
) (<-chan domain.LiveSnapshot[T], error) {
	events, unsubscribe, err := l.subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}

	items, err := list(ctx)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	out := make(chan domain.LiveSnapshot[T], 1)
	out <- domain.LiveSnapshot[T]{Items: items, Status: domain.ConnectionLive}

	o := &observer[T]{log: log.With("channel", channel), list: list, out: out, last: items}
	go o.run(ctx, events, unsubscribe)

	return out, nil
}

type observer[T any] struct {
	log  *slog.Logger
	list func(ctx context.Context) ([]T, error)
	out  chan domain.LiveSnapshot[T]
	last []T
}

func (o *observer[T]) run(ctx context.Context, events <-chan listenEvent, unsubscribe func()) {
	defer close(o.out)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev == eventLost {
				o.send(domain.LiveSnapshot[T]{Items: o.last, Status: domain.ConnectionOffline})
				continue
			}
			items, err := o.list(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				o.log.WarnContext(ctx, "live re-list failed", slog.String("error", err.Error()))
				o.send(domain.LiveSnapshot[T]{Items: o.last, Status: domain.ConnectionOffline})
				continue
			}
			o.last = items
			o.send(domain.LiveSnapshot[T]{Items: items, Status: domain.ConnectionLive})
		}
	}
}

// send replaces any unread snapshot with snap.
func (o *observer[T]) send(snap domain.LiveSnapshot[T]) {
	select {
	case <-o.out:
	default:
	}
	o.out <- snap
}

// release returns the connection to the pool without its subscriptions.
// A connection that cannot be cleaned up is closed instead.
func release(conn *pgxpool.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := conn.Exec(ctx, "UNLISTEN *"); err != nil {
		_ = conn.Hijack().Close(ctx)
		return
	}
	conn.Release()
}
