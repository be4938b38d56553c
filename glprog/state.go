package glprog

import "fmt"

// State is the program used for rendering. It is one of [Live],
// [Fallback] or [Disabled].
type State interface {
	isState()
}

// Live renders the user's program.
type Live struct {
	Sources Sources
}

// Fallback renders the known-good fallback program after the live one
// kept failing at runtime.
type Fallback struct {
	Reason  string
	Sources Sources
}

// Disabled skips rendering entirely.
type Disabled struct {
	Reason string
}

func (Live) isState()     {}
func (Fallback) isState() {}
func (Disabled) isState() {}

// Slot holds the current [State]. Every transition bumps the generation so
// the renderer knows when to rebuild its program object.
//
// Slot is not safe for concurrent use; it is owned by the render loop.
type Slot struct {
	state State
	gen   uint64
}

// NewSlot returns a slot holding initial at generation 1.
func NewSlot(initial State) *Slot {
	if initial == nil {
		initial = Disabled{Reason: "no program"}
	}
	return &Slot{state: initial, gen: 1}
}

// State returns the current state.
func (s *Slot) State() State { return s.state }

// Generation increases on every state change.
func (s *Slot) Generation() uint64 { return s.gen }

// Sources returns the sources to render with. ok is false when disabled.
func (s *Slot) Sources() (src Sources, ok bool) {
	switch st := s.state.(type) {
	case Live:
		return st.Sources, true
	case Fallback:
		return st.Sources, true
	}
	return Sources{}, false
}

// IsDisabled reports whether rendering is suspended.
func (s *Slot) IsDisabled() bool {
	_, ok := s.state.(Disabled)
	return ok
}

// IsFallback reports whether the fallback program is in use.
func (s *Slot) IsFallback() bool {
	_, ok := s.state.(Fallback)
	return ok
}

// Apply replaces the program with src, leaving fallback if engaged. It is
// refused while disabled since only a context restoration may resume rendering.
func (s *Slot) Apply(src Sources) bool {
	if s.IsDisabled() {
		return false
	}
	s.set(Live{Sources: src})
	return true
}

// EngageFallback switches to the fallback program.
func (s *Slot) EngageFallback(reason string, fallback Sources) {
	s.set(Fallback{Reason: reason, Sources: fallback})
}

// Disable suspends rendering.
func (s *Slot) Disable(reason string) {
	s.set(Disabled{Reason: reason})
}

// Restore unconditionally installs src as live. Used after a context is recreated.
func (s *Slot) Restore(src Sources) {
	s.set(Live{Sources: src})
}

func (s *Slot) set(st State) {
	s.state = st
	s.gen++
}

// Describe returns a short human readable description of st.
func Describe(st State) string {
	switch st := st.(type) {
	case Live:
		return "live"
	case Fallback:
		return "fallback: " + st.Reason
	case Disabled:
		return "disabled: " + st.Reason
	}
	return fmt.Sprintf("unknown state %T", st)
}
