// Package memstore is the in-memory append/observe store used when no
// database is configured and in tests.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// Collection is an ordered, observable list of records, newest first.
type Collection[T any] struct {
	mu     sync.RWMutex
	items  []T
	subs   map[int]chan domain.LiveSnapshot[T]
	nextID int

	stamp func(T, uuid.UUID, time.Time) T
	idOf  func(T) uuid.UUID
	now   func() time.Time
}

// NewCollection creates an empty collection. stamp assigns the server-side
// ID and creation time on append; idOf reads the ID back for deletes.
func NewCollection[T any](stamp func(T, uuid.UUID, time.Time) T, idOf func(T) uuid.UUID, now func() time.Time) *Collection[T] {
	if now == nil {
		now = time.Now
	}
	return &Collection[T]{
		subs:  make(map[int]chan domain.LiveSnapshot[T]),
		stamp: stamp,
		idOf:  idOf,
		now:   now,
	}
}

// Append stamps the record and stores it at the head of the collection.
func (c *Collection[T]) Append(ctx context.Context, item T) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	item = c.stamp(item, uuid.New(), c.now().UTC())

	c.mu.Lock()
	c.items = append([]T{item}, c.items...)
	c.broadcastLocked()
	c.mu.Unlock()

	return item, nil
}

// List returns a copy of all records, newest first.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items), nil
}

// Delete removes the record with the given ID and returns it.
func (c *Collection[T]) Delete(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.items, func(item T) bool { return c.idOf(item) == id })
	if i < 0 {
		return zero, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	removed := c.items[i]
	c.items = slices.Delete(c.items, i, i+1)
	c.broadcastLocked()
	return removed, nil
}

// Clear removes every record and returns how many were removed.
func (c *Collection[T]) Clear(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	n := int64(len(c.items))
	c.items = nil
	c.broadcastLocked()
	return n, nil
}

// Observe streams snapshots: the current state first, then one per change.
// A slow reader only ever sees the latest snapshot. The channel closes when
// ctx is done.
func (c *Collection[T]) Observe(ctx context.Context) (<-chan domain.LiveSnapshot[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := make(chan domain.LiveSnapshot[T], 1)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.subs, id)
		close(ch)
		c.mu.Unlock()
	}()

	return ch, nil
}

func (c *Collection[T]) snapshotLocked() domain.LiveSnapshot[T] {
	return domain.LiveSnapshot[T]{
		Items:  slices.Clone(c.items),
		Status: domain.ConnectionLive,
	}
}

func (c *Collection[T]) broadcastLocked() {
	for _, ch := range c.subs {
		snap := c.snapshotLocked()
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
