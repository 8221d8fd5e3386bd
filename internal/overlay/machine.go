package overlay

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/cardlens/cardlens/internal/capture"
	"github.com/cardlens/cardlens/internal/models"
	"github.com/cardlens/cardlens/internal/normalize"
	"github.com/cardlens/cardlens/internal/ocr"
	"github.com/cardlens/cardlens/internal/pngcheck"
)

// Capturer renders the region around a point of a scene
type Capturer interface {
	Capture(scene capture.Scene, p image.Point) (*capture.Image, error)
	OutputSize() capture.Size
}

// Recognizer extracts candidate text from a capture payload
type Recognizer interface {
	Recognize(ctx context.Context, payload string) (ocr.Result, error)
}

// Resolver looks up a normalized card name
type Resolver interface {
	Resolve(ctx context.Context, name string) models.LookupResult
}

// RegionRequest triggers an identification of the card under Point
type RegionRequest struct {
	Scene capture.Scene
	Point image.Point
	Debug bool
}

// Machine drives identification runs for one session. Only the latest run
// is current: a dismissal or a new trigger supersedes whatever is in flight,
// and the superseded run's result is dropped without an event.
type Machine struct {
	capturer   Capturer
	recognizer Recognizer
	resolver   Resolver
	listener   Listener
	logger     *slog.Logger

	mu         sync.Mutex
	generation uint64
	latest     Event
}

// Option configures a Machine
type Option func(*Machine)

// WithListener registers the event listener
func WithListener(l Listener) Option {
	return func(m *Machine) {
		m.listener = l
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a machine in the idle state
func New(capturer Capturer, recognizer Recognizer, resolver Resolver, opts ...Option) *Machine {
	m := &Machine{
		capturer:   capturer,
		recognizer: recognizer,
		resolver:   resolver,
		logger:     slog.Default(),
		latest:     Event{State: StateIdle},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns the most recent event
func (m *Machine) Snapshot() Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest
}

// State returns the current state
func (m *Machine) State() State {
	return m.Snapshot().State
}

// Dismiss returns the machine to idle. It reports false when the machine was
// already idle. A run in flight keeps going but its result is discarded.
func (m *Machine) Dismiss() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest.State == StateIdle {
		return false
	}
	m.generation++
	m.logger.Info("Overlay dismissed", "run_id", m.latest.RunID, "state", m.latest.State)
	m.emitLocked(Event{State: StateIdle})
	return true
}

type run struct {
	id         string
	generation uint64
}

// dropped is the outcome reported by a superseded run
func (r run) dropped(result models.LookupResult) Event {
	return Event{RunID: r.id, State: StateIdle, Result: result}
}

// begin supersedes the current run and tears down its presentation
func (m *Machine) begin() run {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	if m.latest.State != StateIdle {
		m.logger.Debug("Superseding overlay run", "run_id", m.latest.RunID, "state", m.latest.State)
		m.emitLocked(Event{State: StateIdle})
	}
	return run{id: uuid.NewString(), generation: m.generation}
}

// enter moves the run into state. It returns false when the run has been
// superseded, in which case nothing is emitted.
func (m *Machine) enter(r run, state State) bool {
	return m.emit(r, Event{State: state})
}

func (m *Machine) emit(r run, ev Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.generation != m.generation {
		m.logger.Debug("Dropping stale overlay event", "run_id", r.id, "state", ev.State)
		return false
	}
	ev.RunID = r.id
	m.emitLocked(ev)
	return true
}

func (m *Machine) emitLocked(ev Event) {
	ev.Loading = ev.State.Loading()
	m.latest = ev
	if m.listener != nil {
		m.listener(ev)
	}
}

// IdentifyFromRegion captures the region around req.Point, reads the card
// name and resolves it. The boolean is false when the run was superseded
// before it finished; the result is then nil or discarded.
func (m *Machine) IdentifyFromRegion(ctx context.Context, req RegionRequest) (models.LookupResult, bool) {
	ev, current := m.RunRegion(ctx, req)
	return ev.Result, current
}

// RunRegion is IdentifyFromRegion returning the terminal event of this run.
// A superseded run reports idle, which is what its overlay shows, along with
// the result it reached, if any.
func (m *Machine) RunRegion(ctx context.Context, req RegionRequest) (Event, bool) {
	ctx = context.WithoutCancel(ctx)
	if req.Debug {
		return m.identifyDebug(ctx, req)
	}

	r := m.begin()
	m.logger.Info("Identifying card from region", "run_id", r.id, "x", req.Point.X, "y", req.Point.Y)

	if !m.enter(r, StateCapturing) {
		return r.dropped(nil), false
	}
	img, err := m.capturer.Capture(req.Scene, req.Point)
	if err != nil {
		return m.fail(r, models.NewCaptureFailure(err), "")
	}
	payload, err := img.DataURL()
	if err != nil {
		return m.fail(r, models.NewCaptureFailure(err), "")
	}

	if !m.enter(r, StateValidating) {
		return r.dropped(nil), false
	}
	if !m.validCapture(payload) {
		m.logger.Warn("Capture failed validation", "run_id", r.id, "source", img.Source)
		return m.fail(r, models.NewValidationFailure(), "")
	}

	if !m.enter(r, StateRecognizingText) {
		return r.dropped(nil), false
	}
	text, err := m.recognizer.Recognize(ctx, payload)
	if err != nil {
		return m.fail(r, models.AsFailure(err), "")
	}

	name := normalize.Name(text.Text)
	if !text.Detected || name == "" {
		m.logger.Info("No card name detected", "run_id", r.id, "raw", text.Text)
		return m.finish(r, models.NotFound{Query: name}, strings.TrimSpace(text.Text))
	}

	if !m.enter(r, StateResolvingCard) {
		return r.dropped(nil), false
	}
	result := m.resolver.Resolve(ctx, name)
	if found, ok := result.(models.Found); ok {
		found.DetectedName = text.Text
		result = found
	}
	return m.finish(r, result, name)
}

// IdentifyFromName resolves a name typed by the user, skipping capture and
// text recognition.
func (m *Machine) IdentifyFromName(ctx context.Context, raw string) (models.LookupResult, bool) {
	ev, current := m.RunName(ctx, raw)
	return ev.Result, current
}

// RunName is IdentifyFromName returning the terminal event of this run
func (m *Machine) RunName(ctx context.Context, raw string) (Event, bool) {
	ctx = context.WithoutCancel(ctx)
	r := m.begin()
	m.logger.Info("Identifying card from name", "run_id", r.id, "input", raw)

	if !m.enter(r, StateNormalizingInput) {
		return r.dropped(nil), false
	}
	name := normalize.Name(raw)
	if name == "" {
		return m.finish(r, models.NotFound{Query: name}, strings.TrimSpace(raw))
	}

	if !m.enter(r, StateResolvingCard) {
		return r.dropped(nil), false
	}
	return m.finish(r, m.resolver.Resolve(ctx, name), name)
}

// identifyDebug runs the whole pipeline and always ends in debug_resolved,
// exposing every intermediate value.
func (m *Machine) identifyDebug(ctx context.Context, req RegionRequest) (Event, bool) {
	r := m.begin()
	m.logger.Info("Identifying card from region (debug)", "run_id", r.id, "x", req.Point.X, "y", req.Point.Y)

	info := &DebugInfo{}
	done := func(result models.LookupResult) (Event, bool) {
		info.Outcome = models.ToJSON(result)
		ev := Event{State: StateDebugResolved, Result: result, Debug: info}
		if failed, ok := result.(models.Failed); ok {
			ev.Reason = failed.Failure.Reason
		}
		return m.complete(r, ev)
	}

	if !m.enter(r, StateDebugCapturing) {
		return r.dropped(nil), false
	}
	img, err := m.capturer.Capture(req.Scene, req.Point)
	if err != nil {
		return done(models.Failed{Failure: models.NewCaptureFailure(err)})
	}
	payload, err := img.DataURL()
	if err != nil {
		return done(models.Failed{Failure: models.NewCaptureFailure(err)})
	}
	info.Capture = payload
	info.CaptureSource = string(img.Source)
	if !m.validCapture(payload) {
		return done(models.Failed{Failure: models.NewValidationFailure()})
	}

	if !m.enter(r, StateDebugResolving) {
		return r.dropped(nil), false
	}
	text, err := m.recognizer.Recognize(ctx, payload)
	if err != nil {
		return done(models.Failed{Failure: models.AsFailure(err)})
	}
	info.RawText = text.Text
	info.NormalizedName = normalize.Name(text.Text)
	if !text.Detected || info.NormalizedName == "" {
		return done(models.NotFound{Query: info.NormalizedName})
	}

	result := m.resolver.Resolve(ctx, info.NormalizedName)
	if found, ok := result.(models.Found); ok {
		found.DetectedName = text.Text
		result = found
	}
	return done(result)
}

func (m *Machine) validCapture(payload string) bool {
	size := m.capturer.OutputSize()
	if pngcheck.Valid(payload, size.Width, size.Height) {
		return true
	}
	if w, h, ok := pngcheck.PayloadDimensions(payload); ok {
		m.logger.Warn("Capture has unexpected dimensions", "width", w, "height", h, "want_width", size.Width, "want_height", size.Height)
	} else {
		m.logger.Warn("Capture is not a PNG")
	}
	return false
}

func (m *Machine) fail(r run, failure *models.Failure, prefill string) (Event, bool) {
	return m.finish(r, models.Failed{Failure: failure}, prefill)
}

// finish emits the terminal event for result
func (m *Machine) finish(r run, result models.LookupResult, prefill string) (Event, bool) {
	ev := Event{Result: result}
	switch res := result.(type) {
	case models.Found:
		ev.State = StateResolved
	case models.NotFound:
		ev.State = StateNoMatch
		ev.Prefill = prefill
		if res.Query == "" {
			ev.Reason = "No card name found, type it below"
		} else {
			ev.Reason = fmt.Sprintf("No card matched %q", res.Query)
		}
	case models.Failed:
		ev.State = StateErrorFallback
		ev.Prefill = prefill
		ev.Reason = res.Failure.Reason
	default:
		ev.State = StateErrorFallback
		ev.Reason = models.NewServiceError(0, "", nil).Reason
	}
	return m.complete(r, ev)
}

// complete emits a terminal event and returns it as the run's outcome
func (m *Machine) complete(r run, ev Event) (Event, bool) {
	if !m.emit(r, ev) {
		m.logger.Info("Discarding result of superseded run", "run_id", r.id, "state", ev.State)
		return r.dropped(ev.Result), false
	}
	m.logger.Info("Overlay run finished", "run_id", r.id, "state", ev.State)
	ev.RunID = r.id
	ev.Loading = ev.State.Loading()
	return ev, true
}
