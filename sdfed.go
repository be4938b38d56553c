// Package sdfed is the core of a live signed distance field scene editor.
// A [Session] owns the scene registry, keeps the packed uniform buffers in
// sync with every edit, hot-reloads user shader sources and degrades to a
// fallback program when the driver keeps failing at runtime.
//
// A session is driven from the render loop: [Session.Frame] before drawing
// and [Session.EndFrame] with the error sampled after drawing. The graphics
// API is abstracted behind [Backend] so sessions run headless in tests.
package sdfed

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/sdfed/glbuild"
	"github.com/soypat/sdfed/glcap"
	"github.com/soypat/sdfed/gleval"
	"github.com/soypat/sdfed/glpack"
	"github.com/soypat/sdfed/glprog"
	"github.com/soypat/sdfed/health"
	"github.com/soypat/sdfed/hotreload"
	"github.com/soypat/sdfed/scene"
)

// ErrStartup is returned by [Boot] when neither the scene program nor the
// fallback program can be built.
var ErrStartup = errors.New("sdfed: startup failed")

// Backend is a graphics context able to validate programs and report its
// uniform storage limits.
type Backend interface {
	glprog.Driver
	glcap.Limits
}

// FrameState is everything the renderer needs to draw one frame.
type FrameState struct {
	// Render is false while rendering is disabled. The frame must be skipped.
	Render bool
	// Generation changes whenever Sources changes.
	Generation uint64
	Sources    glprog.Sources
	Buffers    *glpack.Buffers
	View       View
	Status     glprog.Status
}

// Session is the editor state for one window. It is owned by the render
// loop except for [Session.EditShaders] which may be called from any goroutine.
type Session struct {
	cfg       Config
	log       *slog.Logger
	reg       *scene.Registry
	capacity  glcap.Capacity
	buf       *glpack.Buffers
	validator *glprog.Validator
	slot      *glprog.Slot
	reload    *hotreload.Controller
	monitor   *health.Monitor
	fallback  glprog.Sources
	view      View
	lost      bool
	lastFrame time.Time
	now       func() time.Time
}

// Boot probes drv, builds the initial scene from cfg and validates the
// scene program src. If src is rejected the fallback program is used and
// the diagnostic is shown as the edit status. Boot fails with [ErrStartup]
// only when both programs are rejected.
func Boot(drv Backend, src, fallback glprog.Sources, cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStartup, err)
	}
	s := &Session{
		cfg:      cfg,
		log:      Logger(),
		fallback: fallback,
		view:     cfg.view(),
		now:      time.Now,
	}
	capacity, err := glcap.Probe(drv, cfg.Capacity.FastBoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStartup, err)
	}
	s.capacity = capacity
	s.log.Info("probed shape capacity", slog.Int("effective", capacity.Effective), slog.Int("budget", capacity.Budget), slog.Int("slots", capacity.SlotLimit))
	s.reg = scene.NewRegistry(capacity.Effective)
	s.buf = glpack.NewBuffers(capacity.Effective)
	if dropped := cfg.applyScene(s.reg); dropped > 0 {
		s.log.Warn("initial scene exceeds capacity", slog.Int("dropped", dropped))
	}
	s.reg.SetOnChange(s.repack)
	s.repack()
	s.fitView()

	s.validator = s.newValidator(drv)
	state, err := s.build(src)
	if _, disabled := state.(glprog.Disabled); disabled {
		s.log.Error("startup failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrStartup, err)
	}
	s.slot = glprog.NewSlot(state)
	var accepted glprog.Sources
	if _, ok := state.(glprog.Live); ok {
		accepted = src
	}
	s.reload = hotreload.New(s.validator, s.slot, hotreload.Config{
		Debounce: cfg.Shaders.Debounce(),
		Accepted: accepted,
		Logger:   s.log,
	})
	if err != nil {
		// Scene program rejected, booted on fallback.
		s.reload.SetStatus(glprog.Status{Kind: glprog.StatusError, Message: err.Error()})
	}
	s.monitor = health.New(s.validator, s.slot, health.Config{
		Threshold: cfg.Health.Threshold,
		Fallback:  fallback,
		Logger:    s.log,
	})
	return s, nil
}

func (s *Session) newValidator(drv glprog.Driver) *glprog.Validator {
	return &glprog.Validator{
		Driver: drv,
		Preprocessor: glbuild.Preprocessor{
			Version: s.cfg.Shaders.Version,
			Defines: s.cfg.defines(s.capacity.Effective),
		},
		Logger: s.log,
	}
}

// build validates primary, then the fallback program. The returned error
// describes every rejected program.
func (s *Session) build(primary glprog.Sources) (glprog.State, error) {
	var primaryErr error
	if primary.IsZero() {
		primaryErr = errors.New("no scene program")
	} else {
		processed, err := s.validator.Validate(primary)
		if err == nil {
			return glprog.Live{Sources: processed}, nil
		}
		primaryErr = err
	}
	processed, err := s.validator.Validate(s.fallback)
	if err == nil {
		s.log.Warn("scene program rejected, using fallback", slog.String("err", primaryErr.Error()))
		return glprog.Fallback{Reason: primaryErr.Error(), Sources: processed}, primaryErr
	}
	err = errors.Join(primaryErr, fmt.Errorf("fallback: %w", err))
	return glprog.Disabled{Reason: err.Error()}, err
}

func (s *Session) repack() {
	s.buf.Pack(s.reg)
}

func (s *Session) fitView() {
	center, radius, ok := glpack.BoundingSphere(s.reg)
	if !ok {
		center, radius = ms3.Vec{}, 1
	}
	s.view.Fit(center, radius)
}

// EditShaders records a shader edit. It is validated on a later
// [Session.Frame] once edits stop for the debounce period.
func (s *Session) EditShaders(src glprog.Sources) {
	s.reload.Edit(src, s.now())
}

// SetClock replaces the clock used to timestamp edits.
func (s *Session) SetClock(now func() time.Time) { s.now = now }

// Frame advances the session to now and returns what to draw.
func (s *Session) Frame(now time.Time) FrameState {
	if !s.lastFrame.IsZero() {
		s.view.advance(float32(now.Sub(s.lastFrame).Seconds()))
	}
	s.lastFrame = now
	if !s.lost {
		s.reload.Update(now)
	}
	src, ok := s.slot.Sources()
	return FrameState{
		Render:     ok && !s.lost,
		Generation: s.slot.Generation(),
		Sources:    src,
		Buffers:    s.buf,
		View:       s.view,
		Status:     s.Status(),
	}
}

// EndFrame reports the driver error sampled after drawing a frame. A nil
// error is a clean frame.
func (s *Session) EndFrame(err error) health.Phase {
	if s.lost {
		return health.PhaseDisabled
	}
	return s.monitor.Frame(err)
}

// ContextLost suspends validation and rendering until [Session.ContextRestored].
// Shader edits made meanwhile are kept and validated after restoration.
func (s *Session) ContextLost() {
	if s.lost {
		return
	}
	s.lost = true
	s.reload.Suspend()
	s.monitor.ContextLost()
	s.log.Warn("graphics context lost")
}

// ContextRestored re-probes capacity on the new context and rebuilds the
// last accepted program. Capacity follows the new hardware: shapes past a
// smaller capacity are evicted from the end of the scene. A non-nil error
// means rendering stays disabled.
func (s *Session) ContextRestored(drv Backend) error {
	capacity, err := glcap.Probe(drv, s.cfg.Capacity.FastBoot)
	if err != nil {
		return fmt.Errorf("probing restored context: %w", err)
	}
	s.capacity = capacity
	s.buf = glpack.NewBuffers(capacity.Effective)
	// SetCapacity repacks into the new buffers.
	if evicted := s.reg.SetCapacity(capacity.Effective); len(evicted) > 0 {
		s.log.Warn("capacity shrank on restored context, shapes evicted", slog.Int("capacity", capacity.Effective), slog.Any("evicted", evicted))
	}
	s.validator = s.newValidator(drv)
	state, err := s.build(s.reload.Accepted())
	slot := glprog.NewSlot(state)
	s.slot = slot
	s.reload.Resume(s.validator, slot)
	s.monitor.ContextRestored(s.validator, slot)
	s.lost = false
	if err != nil && !slot.IsDisabled() {
		s.reload.SetStatus(glprog.Status{Kind: glprog.StatusError, Message: err.Error()})
	}
	s.log.Info("graphics context restored", slog.String("state", glprog.Describe(state)), slog.Int("capacity", capacity.Effective))
	if slot.IsDisabled() {
		return err
	}
	return nil
}

// Status returns the user-visible status. Disabled rendering takes
// precedence over edit status, which takes precedence over fallback.
// An edit error only hides the fallback status when it was reported
// against the program currently in the slot.
func (s *Session) Status() glprog.Status {
	switch st := s.slot.State().(type) {
	case glprog.Disabled:
		return glprog.Status{Kind: glprog.StatusDisabled, Message: st.Reason}
	case glprog.Fallback:
		rs := s.reload.Status()
		switch rs.Kind {
		case glprog.StatusEditing, glprog.StatusLoading:
			return rs
		case glprog.StatusError:
			if s.reload.StatusGeneration() == s.slot.Generation() {
				return rs
			}
		}
		return glprog.Status{Kind: glprog.StatusFallback, Message: st.Reason}
	}
	return s.reload.Status()
}

// Capacity returns the capacity of the current context.
func (s *Session) Capacity() glcap.Capacity { return s.capacity }

// Buffers returns the packed uniforms. They always reflect the latest edit.
func (s *Session) Buffers() *glpack.Buffers { return s.buf }

// View returns the view parameters for modification by input handlers.
func (s *Session) View() *View { return &s.view }

// FitView points the camera at the whole scene.
func (s *Session) FitView() { s.fitView() }

// Lost reports whether the session waits for a restored graphics context.
// It stays lost when [Session.ContextRestored] fails to probe the new context.
func (s *Session) Lost() bool { return s.lost }

// Phase returns the health phase of the current program.
func (s *Session) Phase() health.Phase {
	if s.lost {
		return health.PhaseDisabled
	}
	return s.monitor.Phase()
}

// Readout is the packed scene's distance field sampled at a point.
type Readout struct {
	Point    ms3.Vec
	Distance float32
	// Material is that of the shape defining Distance.
	Material scene.MaterialID
	// Normal is the unit gradient of the field, zero where it vanishes.
	Normal ms3.Vec
}

const readoutStep = 1e-3

// Sample evaluates the packed scene at p the way the fragment program
// does. ok is false for an empty scene.
func (s *Session) Sample(p ms3.Vec) (r Readout, ok bool) {
	ev := gleval.NewScene(s.buf)
	d, mat := ev.DistanceMaterial(p)
	if mat < 0 {
		return Readout{}, false
	}
	r = Readout{Point: p, Distance: d, Material: scene.MaterialID(mat)}
	var n [1]ms3.Vec
	if err := ev.Normals([]ms3.Vec{p}, n[:], readoutStep); err == nil {
		r.Normal = n[0]
	}
	return r, true
}

// SliceReadout samples the slice plane at its point closest to the camera
// target, the center of the slice view.
func (s *Session) SliceReadout() (Readout, bool) {
	n, offset := s.view.SlicePlane()
	return s.Sample(ms3.Add(s.view.Target, ms3.Scale(offset, n)))
}

// Scene returns the scene for reading. Mutate it through the session's
// forwarding methods.
func (s *Session) Scene() *scene.Registry { return s.reg }
