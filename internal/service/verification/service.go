// Package verification runs the verification studio: one state machine per
// studio session driving capture, analysis and disposition.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// DefaultMaxSessions caps open studio sessions when Config.MaxSessions is zero.
const DefaultMaxSessions = 256

// Config tunes the machines created by Service.
type Config struct {
	Delays      Delays
	MaxSessions int
	// IdleTimeout closes sessions that saw no operation for this long.
	// Zero keeps sessions until they are closed.
	IdleTimeout time.Duration
}

// Service keeps the open studio sessions.
type Service struct {
	deps deps
	max  int
	idle time.Duration
	log  *slog.Logger

	mu       sync.Mutex
	machines map[uuid.UUID]*Machine

	stop     chan struct{}
	stopOnce sync.Once
	reaped   chan struct{} // nil without a reaper
}

// NewService creates a studio registry.
func NewService(
	log *slog.Logger,
	capture captureAdapter,
	analyzer analyzer,
	dispatcher dispatcher,
	passports passportSource,
	clock clockwork.Clock,
	cfg Config,
) *Service {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	s := &Service{
		deps: deps{
			capture:    capture,
			analyzer:   analyzer,
			dispatcher: dispatcher,
			passports:  passports,
			clock:      clock,
			delays:     cfg.Delays,
		},
		max:      cfg.MaxSessions,
		idle:     cfg.IdleTimeout,
		log:      log.With("service", "verification"),
		machines: make(map[uuid.UUID]*Machine),
		stop:     make(chan struct{}),
	}
	if s.idle > 0 {
		s.reaped = make(chan struct{})
		// The ticker is created here so it exists before NewService returns.
		go s.reap(clock.NewTicker(reapInterval(s.idle)))
	}
	return s
}

// reapInterval sweeps twice per idle timeout, at most once a second.
func reapInterval(idle time.Duration) time.Duration {
	return max(idle/2, time.Second)
}

// Open starts a new studio session in idle with the document modality. The
// session belongs to the role of the actor in ctx.
func (s *Service) Open(ctx context.Context) (*Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.machines) >= s.max {
		return nil, fmt.Errorf("%w: %d studio sessions open", domain.ErrConflict, len(s.machines))
	}

	m := newMachine(s.log, s.deps, actorFromCtx(ctx).RoleID)
	s.machines[m.ID()] = m

	s.log.InfoContext(ctx, "studio session opened",
		slog.String("studio_id", m.ID().String()),
		slog.String("owner", m.owner),
		slog.Int("open", len(s.machines)),
	)
	return m, nil
}

// Get returns an open studio session owned by the actor in ctx.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Machine, error) {
	s.mu.Lock()
	m, ok := s.machines[id]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("studio session %s: %w", id, domain.ErrNotFound)
	}
	if !m.OwnedBy(ctx) {
		return nil, fmt.Errorf("studio session %s: %w", id, domain.ErrForbidden)
	}
	return m, nil
}

// Close tears down a studio session owned by the actor in ctx.
func (s *Service) Close(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	m, ok := s.machines[id]
	if ok && !m.OwnedBy(ctx) {
		s.mu.Unlock()
		return fmt.Errorf("studio session %s: %w", id, domain.ErrForbidden)
	}
	delete(s.machines, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("studio session %s: %w", id, domain.ErrNotFound)
	}

	m.Close()
	s.log.InfoContext(ctx, "studio session closed", slog.String("studio_id", id.String()))
	return nil
}

func (s *Service) reap(t clockwork.Ticker) {
	defer close(s.reaped)
	defer t.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-t.Chan():
			s.reapIdle()
		}
	}
}

// reapIdle closes every session that has been idle for the idle timeout.
// Sessions in a stage or with I/O pending are left alone.
func (s *Service) reapIdle() {
	now := s.deps.clock.Now()

	s.mu.Lock()
	var stale []*Machine
	for id, m := range s.machines {
		last, ok := m.idleSince()
		if ok && now.Sub(last) >= s.idle {
			stale = append(stale, m)
			delete(s.machines, id)
		}
	}
	open := len(s.machines)
	s.mu.Unlock()

	for _, m := range stale {
		m.Close()
		s.log.Info("studio session reaped",
			slog.String("studio_id", m.ID().String()),
			slog.Duration("idle", s.idle),
			slog.Int("open", open),
		)
	}
}

// Shutdown stops the reaper and closes every open studio session.
func (s *Service) Shutdown() {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.reaped != nil {
		<-s.reaped
	}

	s.mu.Lock()
	machines := make([]*Machine, 0, len(s.machines))
	for id, m := range s.machines {
		machines = append(machines, m)
		delete(s.machines, id)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, m := range machines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Close()
		}()
	}
	wg.Wait()
}

// Len is the number of open studio sessions.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.machines)
}
