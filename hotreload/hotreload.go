// Package hotreload turns a stream of shader source edits into validated
// program swaps. Edits are debounced so only the last edit of a burst is
// validated, and a failing edit never replaces the running program.
package hotreload

import (
	"log/slog"
	"sync"
	"time"

	"github.com/soypat/sdfed/glprog"
)

// DefaultDebounce is the quiet period after the last edit before validating.
const DefaultDebounce = 500 * time.Millisecond

// Config configures a [Controller].
type Config struct {
	// Debounce is the quiet period before validation. Zero uses [DefaultDebounce].
	Debounce time.Duration
	// Accepted are the sources the live program was built from.
	Accepted glprog.Sources
	Logger   *slog.Logger
}

// Controller is the edit state machine:
//
//	Idle -> Debouncing -> Validating -> Applied|Rejected -> Idle
//
// [Controller.Edit] may be called from any goroutine. [Controller.Update]
// must be called from the goroutine owning the graphics context, usually
// once per frame.
type Controller struct {
	mu         sync.Mutex
	validator  *glprog.Validator
	slot       *glprog.Slot
	debounce   time.Duration
	log        *slog.Logger
	pending    glprog.Sources
	hasPending bool
	deadline   time.Time
	validating bool
	suspended  bool
	accepted   glprog.Sources
	status     glprog.Status
	statusGen  uint64
	runs       int
}

// New returns a controller that validates with v and applies to slot.
func New(v *glprog.Validator, slot *glprog.Slot, cfg Config) *Controller {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		validator: v,
		slot:      slot,
		debounce:  cfg.Debounce,
		log:       log,
		accepted:  cfg.Accepted,
		status:    glprog.Status{Kind: glprog.StatusLive},
		statusGen: slot.Generation(),
	}
}

// Edit records src as the latest edit made at now and restarts the
// debounce period. Earlier pending edits are discarded.
func (c *Controller) Edit(src glprog.Sources, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = src
	c.hasPending = true
	c.deadline = now.Add(c.debounce)
	c.status = glprog.Status{Kind: glprog.StatusEditing}
}

// Pending reports whether an edit awaits validation.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasPending
}

// Status returns the edit status: live, editing or error, unless
// overridden by [Controller.SetStatus].
func (c *Controller) Status() glprog.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SetStatus overrides the edit status, i.e: to report a scene program
// rejected at startup. It must be called from the goroutine calling Update.
func (c *Controller) SetStatus(st glprog.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStatus(st)
}

// StatusGeneration returns the slot generation current when the status was
// last set by a validation or [Controller.SetStatus]. A status older than
// the slot's program describes a program no longer shown.
func (c *Controller) StatusGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusGen
}

func (c *Controller) setStatus(st glprog.Status) {
	c.status = st
	c.statusGen = c.slot.Generation()
}

// Accepted returns the unprocessed sources of the last accepted edit.
func (c *Controller) Accepted() glprog.Sources {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accepted
}

// Validations returns how many validations have run.
func (c *Controller) Validations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

// Suspend stops validation while the graphics context is unavailable.
// Edits keep being recorded.
func (c *Controller) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspended = true
}

// Resume restarts validation against a new validator and slot.
func (c *Controller) Resume(v *glprog.Validator, slot *glprog.Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validator = v
	c.slot = slot
	c.suspended = false
}

// Update validates the pending edit if its debounce period elapsed by now.
// It returns true if a new program was applied to the slot.
func (c *Controller) Update(now time.Time) (applied bool) {
	c.mu.Lock()
	if !c.hasPending || c.validating || c.suspended || now.Before(c.deadline) {
		c.mu.Unlock()
		return false
	}
	src := c.pending
	c.hasPending = false
	c.validating = true
	c.runs++
	v, slot := c.validator, c.slot
	c.mu.Unlock()

	processed, err := v.Validate(src)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.validating = false
	if err != nil {
		c.log.Warn("shader edit rejected", slog.String("err", err.Error()))
		if !c.hasPending {
			c.setStatus(glprog.Status{Kind: glprog.StatusError, Message: err.Error()})
		}
		return false
	}
	c.accepted = src
	applied = slot.Apply(processed)
	if applied {
		c.log.Info("shader edit applied", slog.Uint64("generation", slot.Generation()))
	} else {
		c.log.Warn("shader edit accepted while rendering disabled")
	}
	if !c.hasPending {
		c.setStatus(glprog.Status{Kind: glprog.StatusLive})
	}
	return applied
}
