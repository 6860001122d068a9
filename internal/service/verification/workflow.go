package verification

import (
	"context"
	"log/slog"
	"time"

	"github.com/2400030292/MedGuard-AI/internal/domain"
	"github.com/2400030292/MedGuard-AI/internal/service/disposition"
	"github.com/2400030292/MedGuard-AI/pkg/ctxutil"
)

type run struct {
	gen      uint64
	session  *domain.CaptureSession
	failMode bool
	actor    domain.Actor
	viewport int
}

// startLocked enters scanning and hands the session to a workflow goroutine.
// The actor and viewport of the triggering call travel with it.
func (m *Machine) startLocked(ctx context.Context) {
	m.setStateLocked(StateScanning)

	r := run{
		gen:      m.gen,
		session:  m.session.Clone(),
		failMode: m.failMode,
		actor:    actorFromCtx(ctx),
		viewport: ctxutil.ViewportWidthFromCtx(ctx),
	}

	m.log.InfoContext(ctx, "verification started",
		slog.String("modality", r.session.Modality.String()),
		slog.Bool("fail_mode", r.failMode),
	)

	m.running.Add(1)
	go func() {
		defer m.running.Done()
		m.runWorkflow(m.ctx, r)
	}()
}

// runWorkflow drives scanning -> processing -> result -> dispatch. Manual
// sessions skip processing. Stages run strictly in order.
func (m *Machine) runWorkflow(ctx context.Context, r run) {
	if r.session.Modality == domain.ModalityManual {
		if err := m.wait(ctx, m.deps.delays.Manual); err != nil {
			return
		}
	} else {
		if err := m.wait(ctx, m.deps.delays.Scan); err != nil {
			return
		}
		if !m.advance(r.gen, func() { m.setStateLocked(StateProcessing) }) {
			return
		}

		text, err := m.deps.analyzer.Extract(ctx, r.session)
		if err != nil {
			m.abort(ctx, r.gen, err)
			return
		}
		r.session.ExtractedText = text
		if !m.advance(r.gen, func() { m.session.ExtractedText = text }) {
			return
		}

		if err := m.wait(ctx, m.deps.delays.Process); err != nil {
			return
		}
	}

	verdict, err := m.deps.analyzer.Evaluate(ctx, r.session, r.failMode)
	if err != nil {
		m.abort(ctx, r.gen, err)
		return
	}
	dispatched := make(chan struct{})
	defer close(dispatched)
	if !m.advance(r.gen, func() {
		v := verdict.Clone()
		m.verdict = &v
		m.dispatched = dispatched
		m.setStateLocked(StateResult)
	}) {
		return
	}

	m.log.InfoContext(ctx, "verification finished",
		slog.String("outcome", verdict.Outcome.String()),
		slog.Float64("confidence", verdict.Confidence),
	)

	res := m.deps.dispatcher.Dispatch(ctx, disposition.Input{
		Verdict:       verdict,
		Session:       r.session,
		Actor:         r.actor,
		ViewportWidth: r.viewport,
	})

	m.advance(r.gen, func() { m.quarantined = res.Quarantined })
}

// wait blocks for d on the machine clock or until ctx is done.
func (m *Machine) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := m.deps.clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Chan():
		return nil
	}
}

// advance applies fn if the run still owns the machine.
func (m *Machine) advance(gen uint64, fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.gen {
		return false
	}
	fn()
	return true
}

// abort returns the machine to idle with a user-visible error.
func (m *Machine) abort(ctx context.Context, gen uint64, err error) {
	m.log.ErrorContext(ctx, "verification aborted", slog.String("error", err.Error()))
	m.advance(gen, func() {
		m.resetLocked()
		m.lastErr = err.Error()
		m.setStateLocked(StateIdle)
	})
}
