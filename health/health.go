// Package health watches per-frame driver errors and degrades rendering
// from the live program to a fallback program and finally to no rendering
// at all. Only a graphics context restoration resumes a disabled renderer.
package health

import (
	"fmt"
	"log/slog"

	"github.com/soypat/sdfed/glprog"
)

// DefaultThreshold is the number of consecutive failing frames tolerated.
const DefaultThreshold = 3

// Phase is the monitor state as seen by the render loop.
type Phase uint8

const (
	PhaseNominal Phase = iota
	PhaseDegrading
	PhaseFallback
	PhaseDisabled
)

func (p Phase) String() string {
	switch p {
	case PhaseNominal:
		return "nominal"
	case PhaseDegrading:
		return "degrading"
	case PhaseFallback:
		return "fallback"
	case PhaseDisabled:
		return "disabled"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// Config configures a [Monitor].
type Config struct {
	// Threshold of consecutive failing frames. Zero uses [DefaultThreshold].
	Threshold int
	// Fallback is the unprocessed fallback program. It is validated each
	// time it is about to be engaged.
	Fallback glprog.Sources
	Logger   *slog.Logger
}

// Monitor counts consecutive failing frames of the program held in a slot.
// It is owned by the render loop.
type Monitor struct {
	validator *glprog.Validator
	slot      *glprog.Slot
	fallback  glprog.Sources
	threshold int
	failures  int
	lastGen   uint64
	engaged   int
	log       *slog.Logger
}

// New returns a monitor in the nominal phase.
func New(v *glprog.Validator, slot *glprog.Slot, cfg Config) *Monitor {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Monitor{
		validator: v,
		slot:      slot,
		fallback:  cfg.Fallback,
		threshold: cfg.Threshold,
		lastGen:   slot.Generation(),
		log:       log,
	}
}

// ValidateFallback validates the fallback program and returns its processed sources.
func (m *Monitor) ValidateFallback() (glprog.Sources, error) {
	return m.validator.Validate(m.fallback)
}

// Failures returns the current count of consecutive failing frames.
func (m *Monitor) Failures() int { return m.failures }

// Engagements returns how many times the fallback program was engaged.
func (m *Monitor) Engagements() int { return m.engaged }

// Phase returns the current phase.
func (m *Monitor) Phase() Phase {
	switch {
	case m.slot.IsDisabled():
		return PhaseDisabled
	case m.slot.IsFallback():
		return PhaseFallback
	case m.failures > 0:
		return PhaseDegrading
	}
	return PhaseNominal
}

// Frame records the error sampled after drawing a frame, nil meaning
// the frame was clean. A program change since the last frame resets the count.
func (m *Monitor) Frame(err error) Phase {
	if gen := m.slot.Generation(); gen != m.lastGen {
		m.lastGen = gen
		m.failures = 0
	}
	if m.slot.IsDisabled() {
		return PhaseDisabled
	}
	if err == nil {
		m.failures = 0
		return m.Phase()
	}
	m.failures++
	m.log.Debug("frame error", slog.Int("consecutive", m.failures), slog.String("err", err.Error()))
	if m.failures < m.threshold {
		return m.Phase()
	}
	m.failures = 0
	if m.slot.IsFallback() {
		m.disable(fmt.Sprintf("fallback program failing: %v", err))
	} else {
		m.engage(err)
	}
	m.lastGen = m.slot.Generation()
	return m.Phase()
}

func (m *Monitor) engage(cause error) {
	src, err := m.ValidateFallback()
	if err != nil {
		m.disable(fmt.Sprintf("fallback program invalid: %v", err))
		return
	}
	m.engaged++
	reason := fmt.Sprintf("%d consecutive frame errors: %v", m.threshold, cause)
	m.log.Warn("engaging fallback program", slog.String("reason", reason))
	m.slot.EngageFallback(reason, src)
}

func (m *Monitor) disable(reason string) {
	m.log.Error("rendering disabled", slog.String("reason", reason))
	m.slot.Disable(reason)
}

// ContextLost disables rendering and clears the failure count.
func (m *Monitor) ContextLost() {
	m.failures = 0
	if !m.slot.IsDisabled() {
		m.slot.Disable("graphics context lost")
	}
	m.lastGen = m.slot.Generation()
}

// ContextRestored attaches the monitor to the validator and slot of a new
// context and returns to the nominal phase.
func (m *Monitor) ContextRestored(v *glprog.Validator, slot *glprog.Slot) {
	m.validator = v
	m.slot = slot
	m.failures = 0
	m.lastGen = slot.Generation()
}
