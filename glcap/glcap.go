// Package glcap derives how many shapes a fragment program can address from
// the uniform storage limits reported by the graphics driver.
package glcap

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned by a [Limits] query the context cannot answer.
var ErrUnsupported = errors.New("glcap: limit query unsupported")

const (
	// SlotsPerShape is the number of vec4 uniform slots a packed shape uses.
	SlotsPerShape = 4
	// ComponentsPerSlot is the number of scalars in a uniform slot.
	ComponentsPerSlot = 4
	// ReservedSlots covers camera, material and mode uniforms of the fragment program.
	ReservedSlots = 48
	// FloorCapacity is the least shape capacity ever reported.
	FloorCapacity = 8
	// HardCeiling is the most shapes a program is ever built for.
	HardCeiling = 256
	// FastBootCeiling bounds the capacity of the first program so first paint compiles fast.
	FastBootCeiling = 32
)

// Limits answers uniform storage queries for the fragment stage of a live context.
type Limits interface {
	// MaxFragmentUniformVectors returns the number of vec4 uniform slots
	// addressable by the fragment stage.
	MaxFragmentUniformVectors() (int, error)
	// MaxFragmentUniformComponents returns the number of scalar uniform
	// components addressable by the fragment stage.
	MaxFragmentUniformComponents() (int, error)
}

// Capacity is the shape capacity derived for one renderer context.
type Capacity struct {
	// SlotLimit is the fragment uniform slot count reported by the driver.
	SlotLimit int
	// Budget is the most shapes the hardware allows, within [FloorCapacity, HardCeiling].
	Budget int
	// Effective is the capacity programs are built for. Effective <= Budget.
	Effective int
}

func (c Capacity) String() string {
	return fmt.Sprintf("capacity %d/%d (slot limit %d)", c.Effective, c.Budget, c.SlotLimit)
}

// Probe queries lim once and derives the shape capacity. fastBoot caps the
// effective capacity of the first program; zero or negative uses [FastBootCeiling].
func Probe(lim Limits, fastBoot int) (Capacity, error) {
	slots, err := slotLimit(lim)
	if err != nil {
		return Capacity{}, err
	}
	if fastBoot <= 0 {
		fastBoot = FastBootCeiling
	}
	budget := BudgetFor(slots)
	return Capacity{
		SlotLimit: slots,
		Budget:    budget,
		Effective: max(FloorCapacity, min(budget, HardCeiling, fastBoot)),
	}, nil
}

// BudgetFor returns the shape budget for a fragment uniform slot limit,
// clamped to [FloorCapacity, HardCeiling].
func BudgetFor(slotLimit int) int {
	budget := (slotLimit - ReservedSlots) / SlotsPerShape
	if slotLimit < ReservedSlots {
		budget = 0 // Integer division truncates towards zero, not down.
	}
	return min(max(budget, FloorCapacity), HardCeiling)
}

func slotLimit(lim Limits) (int, error) {
	slots, err := lim.MaxFragmentUniformVectors()
	if err == nil && slots > 0 {
		return slots, nil
	} else if err != nil && !errors.Is(err, ErrUnsupported) {
		return 0, fmt.Errorf("querying fragment uniform vectors: %w", err)
	}
	comps, err := lim.MaxFragmentUniformComponents()
	if err != nil {
		return 0, fmt.Errorf("querying fragment uniform components: %w", err)
	} else if comps <= 0 {
		return 0, errors.New("glcap: driver reported no fragment uniform storage")
	}
	return comps / ComponentsPerSlot, nil
}
