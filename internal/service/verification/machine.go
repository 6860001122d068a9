package verification

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/2400030292/MedGuard-AI/internal/adapter/capture"
	"github.com/2400030292/MedGuard-AI/internal/domain"
	"github.com/2400030292/MedGuard-AI/internal/service/analysis"
	"github.com/2400030292/MedGuard-AI/internal/service/disposition"
	"github.com/2400030292/MedGuard-AI/pkg/ctxutil"
)

type captureAdapter interface {
	BeginCameraCapture(ctx context.Context) (*capture.CameraSession, error)
	CaptureFromStream(ctx context.Context, cs *capture.CameraSession) (domain.ImagePreview, error)
	IngestFile(ctx context.Context, r io.Reader, filename string) (domain.ImagePreview, error)
}

type analyzer interface {
	Extract(ctx context.Context, session *domain.CaptureSession) (string, error)
	Evaluate(ctx context.Context, session *domain.CaptureSession, failMode bool) (domain.Verdict, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, in disposition.Input) disposition.Result
}

type passportSource interface {
	Passport(ctx context.Context, batchRef string) (domain.Passport, error)
}

// Delays are the waits standing in for scanning and processing latency.
type Delays struct {
	Scan    time.Duration
	Process time.Duration
	Manual  time.Duration
}

type deps struct {
	capture    captureAdapter
	analyzer   analyzer
	dispatcher dispatcher
	passports  passportSource
	clock      clockwork.Clock
	delays     Delays
}

// Machine is the state machine of one studio session. The mutex guards
// state only; it is never held across I/O, a stage wait or a dispatch.
type Machine struct {
	id   uuid.UUID
	deps deps
	log  *slog.Logger
	// owner is the role that opened the studio.
	owner string

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	modality    domain.Modality
	failMode    bool
	session     *domain.CaptureSession
	verdict     *domain.Verdict
	camera      *capture.CameraSession
	quarantined bool
	lastErr     string
	lastActive  time.Time
	// dispatched is closed once the automatic dispatch of the current
	// result has returned. Nil outside result.
	dispatched chan struct{}
	// pending is set while an operation does I/O outside the lock.
	pending bool
	closed  bool
	// gen changes on every reset; late results from an older generation are dropped.
	gen     uint64
	changed chan struct{}

	running sync.WaitGroup
}

func newMachine(log *slog.Logger, d deps, owner string) *Machine {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New()
	return &Machine{
		id:         id,
		deps:       d,
		log:        log.With("studio_id", id.String()),
		owner:      owner,
		ctx:        ctx,
		cancel:     cancel,
		state:      StateIdle,
		modality:   domain.ModalityDocument,
		lastActive: d.clock.Now(),
		changed:    make(chan struct{}),
	}
}

// ID identifies the studio session.
func (m *Machine) ID() uuid.UUID { return m.id }

// View returns a snapshot of the machine.
func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActive = m.deps.clock.Now()
	return m.viewLocked()
}

// OwnedBy reports whether the actor in ctx holds the role that opened the studio.
func (m *Machine) OwnedBy(ctx context.Context) bool {
	return actorFromCtx(ctx).RoleID == m.owner
}

// SelectModality switches the capture channel. It discards the held
// session and verdict, releases the camera and clears fail mode.
func (m *Machine) SelectModality(mod domain.Modality) (View, error) {
	if !mod.IsValid() {
		return View{}, domain.NewValidationError("modality", "must be document, packagingImage, qrImage or manual")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkLocked(StateIdle, StateCapturing, StateResult); err != nil {
		return m.viewLocked(), err
	}

	m.resetLocked()
	m.modality = mod
	m.failMode = false
	m.setStateLocked(StateIdle)
	return m.viewLocked(), nil
}

// SetFailMode forces the scripted detector down its failure branch.
func (m *Machine) SetFailMode(on bool) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkLocked(StateIdle); err != nil {
		return m.viewLocked(), err
	}
	m.failMode = on
	return m.viewLocked(), nil
}

// BeginCameraCapture opens the camera. An unavailable camera yields a
// simulated session, not an error.
func (m *Machine) BeginCameraCapture(ctx context.Context) (View, error) {
	m.mu.Lock()
	if err := m.checkLocked(StateIdle); err != nil {
		defer m.mu.Unlock()
		return m.viewLocked(), err
	}
	if !m.modality.IsImage() {
		defer m.mu.Unlock()
		return m.viewLocked(), fmt.Errorf("%w: %s modality has no camera", domain.ErrInvalidTransition, m.modality)
	}
	gen := m.beginPendingLocked()
	m.mu.Unlock()

	cam, err := m.deps.capture.BeginCameraCapture(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = false

	if err != nil {
		return m.viewLocked(), fmt.Errorf("begin camera capture: %w", err)
	}
	if gen != m.gen {
		_ = cam.Release()
		return m.viewLocked(), ErrClosed
	}

	m.camera = cam
	m.session = domain.NewCaptureSession(m.modality, m.deps.clock.Now())
	m.verdict = nil
	m.lastErr = ""
	m.setStateLocked(StateCapturing)

	m.log.InfoContext(ctx, "camera capture started",
		slog.String("modality", m.modality.String()),
		slog.Bool("simulated", cam.Simulated()),
	)
	return m.viewLocked(), nil
}

// Cancel leaves capturing without recording anything.
func (m *Machine) Cancel() (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkLocked(StateCapturing); err != nil {
		return m.viewLocked(), err
	}
	m.resetLocked()
	m.setStateLocked(StateIdle)
	return m.viewLocked(), nil
}

// Capture snapshots the camera and starts the scan workflow.
func (m *Machine) Capture(ctx context.Context) (View, error) {
	m.mu.Lock()
	if err := m.checkLocked(StateCapturing); err != nil {
		defer m.mu.Unlock()
		return m.viewLocked(), err
	}
	cam := m.camera
	gen := m.beginPendingLocked()
	m.mu.Unlock()

	preview, err := m.deps.capture.CaptureFromStream(ctx, cam)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = false
	m.camera = nil

	if gen != m.gen {
		return m.viewLocked(), ErrClosed
	}
	if err != nil {
		m.resetLocked()
		m.lastErr = err.Error()
		m.setStateLocked(StateIdle)
		return m.viewLocked(), fmt.Errorf("capture: %w", err)
	}

	m.session.Preview = &preview
	m.startLocked(ctx)
	return m.viewLocked(), nil
}

// IngestFile reads an upload and starts the scan workflow. Unreadable
// uploads leave the machine idle with LastError set.
func (m *Machine) IngestFile(ctx context.Context, r io.Reader, filename string) (View, error) {
	m.mu.Lock()
	if err := m.checkLocked(StateIdle); err != nil {
		defer m.mu.Unlock()
		return m.viewLocked(), err
	}
	if !m.modality.IsImage() {
		defer m.mu.Unlock()
		return m.viewLocked(), fmt.Errorf("%w: %s modality takes no upload", domain.ErrInvalidTransition, m.modality)
	}
	gen := m.beginPendingLocked()
	m.mu.Unlock()

	preview, err := m.deps.capture.IngestFile(ctx, r, filename)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = false

	if gen != m.gen {
		return m.viewLocked(), ErrClosed
	}
	if err != nil {
		m.lastErr = err.Error()
		return m.viewLocked(), fmt.Errorf("ingest file: %w", err)
	}

	m.session = domain.NewCaptureSession(m.modality, m.deps.clock.Now())
	m.session.Preview = &preview
	m.verdict = nil
	m.lastErr = ""
	m.startLocked(ctx)
	return m.viewLocked(), nil
}

// SubmitManual starts the manual-entry workflow.
func (m *Machine) SubmitManual(ctx context.Context, batchID, expiry, mfgDate string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkLocked(StateIdle); err != nil {
		return m.viewLocked(), err
	}
	if m.modality != domain.ModalityManual {
		return m.viewLocked(), fmt.Errorf("%w: manual entry needs the manual modality", domain.ErrInvalidTransition)
	}

	fields := capture.CollectManualFields(batchID, expiry, mfgDate)
	m.session = domain.NewCaptureSession(domain.ModalityManual, m.deps.clock.Now())
	m.session.Manual = &fields
	m.verdict = nil
	m.lastErr = ""
	m.startLocked(ctx)
	return m.viewLocked(), nil
}

// ScanAnother returns from result to idle. From idle it does nothing.
func (m *Machine) ScanAnother() (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed && !m.pending && m.state == StateIdle {
		return m.viewLocked(), nil
	}
	if err := m.checkLocked(StateResult); err != nil {
		return m.viewLocked(), err
	}
	m.resetLocked()
	m.setStateLocked(StateIdle)
	return m.viewLocked(), nil
}

// Escalate quarantines the batch of the current result regardless of its
// verdict and returns to idle. It first waits for the automatic dispatch of
// the result; a batch that dispatch already queued only gets the audit entry.
func (m *Machine) Escalate(ctx context.Context) (View, error) {
	m.mu.Lock()
	if err := m.checkLocked(StateResult); err != nil {
		defer m.mu.Unlock()
		return m.viewLocked(), err
	}
	if done := m.dispatched; done != nil {
		gen := m.beginPendingLocked()
		m.mu.Unlock()

		var err error
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-done:
		}

		m.mu.Lock()
		m.pending = false
		if gen != m.gen {
			defer m.mu.Unlock()
			return m.viewLocked(), ErrClosed
		}
		if err != nil {
			defer m.mu.Unlock()
			return m.viewLocked(), fmt.Errorf("escalate: %w", err)
		}
	}
	in := disposition.Input{
		Session:            m.session.Clone(),
		Actor:              actorFromCtx(ctx),
		Forced:             true,
		ViewportWidth:      ctxutil.ViewportWidthFromCtx(ctx),
		AlreadyQuarantined: m.quarantined,
	}
	if m.verdict != nil {
		in.Verdict = m.verdict.Clone()
	}
	m.resetLocked()
	m.setStateLocked(StateIdle)
	gen := m.gen
	m.mu.Unlock()

	res := m.deps.dispatcher.Dispatch(ctx, in)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen == m.gen {
		m.quarantined = res.Quarantined
	}
	return m.viewLocked(), nil
}

// ViewPassport returns the provenance record of the verified batch.
func (m *Machine) ViewPassport(ctx context.Context) (domain.Passport, error) {
	m.mu.Lock()
	if err := m.checkLocked(StateResult); err != nil {
		m.mu.Unlock()
		return domain.Passport{}, err
	}
	if m.verdict == nil || !m.verdict.Passed() {
		m.mu.Unlock()
		return domain.Passport{}, fmt.Errorf("%w: %w", domain.ErrInvalidTransition, errNeedsPass)
	}
	ref := batchOf(m.session)
	m.mu.Unlock()

	p, err := m.deps.passports.Passport(ctx, ref)
	if err != nil {
		return domain.Passport{}, fmt.Errorf("passport for %s: %w", ref, err)
	}
	return p, nil
}

// Close releases the camera, stops a pending workflow and waits for it to
// exit. A dispatch already under way is allowed to finish.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.resetLocked()
	m.setStateLocked(StateIdle)
	m.mu.Unlock()

	m.cancel()
	m.running.Wait()
}

// WaitForState blocks until the machine is in s or ctx is done.
func (m *Machine) WaitForState(ctx context.Context, s State) error {
	for {
		m.mu.Lock()
		if m.state == s {
			m.mu.Unlock()
			return nil
		}
		changed := m.changed
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// WaitWorkflow blocks until no workflow goroutine is running.
func (m *Machine) WaitWorkflow(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.running.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// idleSince returns the time of the last operation and whether the machine
// may be reaped: open, with no I/O pending and no stage under way.
func (m *Machine) idleSince() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActive, !m.closed && !m.pending && !m.state.Busy()
}

// checkLocked gates every operation and stamps it as activity.
func (m *Machine) checkLocked(allowed ...State) error {
	m.lastActive = m.deps.clock.Now()
	switch {
	case m.closed:
		return ErrClosed
	case m.pending, m.state.Busy():
		return domain.ErrBusy
	case !slices.Contains(allowed, m.state):
		return fmt.Errorf("%w: not allowed from %s", domain.ErrInvalidTransition, m.state)
	}
	return nil
}

func (m *Machine) beginPendingLocked() uint64 {
	m.pending = true
	return m.gen
}

// resetLocked drops the session, verdict and camera and starts a new generation.
func (m *Machine) resetLocked() {
	if m.camera != nil {
		if err := m.camera.Release(); err != nil {
			m.log.Warn("release camera stream", slog.String("error", err.Error()))
		}
		m.camera = nil
	}
	m.session = nil
	m.verdict = nil
	m.dispatched = nil
	m.quarantined = false
	m.lastErr = ""
	m.gen++
}

func (m *Machine) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.log.Debug("state changed", slog.String("from", m.state.String()), slog.String("to", s.String()))
	m.state = s
	m.lastActive = m.deps.clock.Now()
	close(m.changed)
	m.changed = make(chan struct{})
}

func (m *Machine) viewLocked() View {
	v := View{
		ID:          m.id,
		State:       m.state,
		Modality:    m.modality,
		FailMode:    m.failMode,
		Session:     m.session.Clone(),
		Quarantined: m.quarantined,
		LastError:   m.lastErr,
	}
	if m.verdict != nil {
		c := m.verdict.Clone()
		v.Verdict = &c
	}
	if m.camera != nil {
		v.CameraActive = m.camera.Active()
		v.Simulated = m.camera.Simulated()
	}
	return v
}

func actorFromCtx(ctx context.Context) domain.Actor {
	roleID, label, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.Actor{}
	}
	return domain.Actor{Label: label, RoleID: roleID}
}

// batchOf reads the batch number a session refers to.
func batchOf(s *domain.CaptureSession) string {
	if s == nil {
		return ""
	}
	if s.Manual != nil {
		return strings.TrimSpace(s.Manual.BatchID)
	}
	return analysis.BatchReference(s.ExtractedText)
}
