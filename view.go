package sdfed

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Mode selects what the fragment program visualizes.
type Mode int32

const (
	ModeShaded Mode = iota
	ModeHeatmap
	ModeNormals
	ModeDepth
	ModeSlice
	ModeAO
	numModes
)

var modeNames = [numModes]string{"shaded", "heatmap", "normals", "depth", "slice", "ao"}

func (m Mode) String() string {
	if m < 0 || m >= numModes {
		return fmt.Sprintf("Mode(%d)", int32(m))
	}
	return modeNames[m]
}

// Next returns the mode after m, wrapping around.
func (m Mode) Next() Mode { return (m + 1) % numModes }

// ParseMode parses a mode name as returned by [Mode.String].
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown render mode %q", s)
}

// View holds the non-scene uniforms of a frame.
type View struct {
	Mode Mode
	// Time is the animation time in seconds. Frozen while Paused.
	Time   float32
	Paused bool
	// Orbit camera around Target.
	Yaw, Pitch, CamDist float32
	Target              ms3.Vec
	ShowFloor           bool
	FloorY              float32

	SliceOffset        float32
	SliceYaw           float32 // degrees
	SlicePitch         float32 // degrees
	ContourSpacing     float32
	ContourWidth       float32
	SliceObjectOpacity float32
	SweepSpeed         float32
	SweepPhase         float32

	minDist, maxDist float32
}

// advance moves time and sweep phase forward by dt seconds unless paused.
func (v *View) advance(dt float32) {
	if v.Paused || dt <= 0 {
		return
	}
	v.Time += dt
	v.SweepPhase += dt * v.SweepSpeed
}

// Fit points the camera at a bounding sphere and rests the floor under it.
func (v *View) Fit(center ms3.Vec, radius float32) {
	radius = max(radius, 1e-3)
	v.Target = center
	v.FloorY = center.Y - radius
	diag := 2 * radius
	v.minDist = diag * 0.00001
	v.maxDist = diag * 10
	v.CamDist = math32.Max(v.minDist, math32.Min(3*radius, v.maxDist))
}

// Orbit rotates the camera. Pitch stays short of the poles.
func (v *View) Orbit(dyaw, dpitch float32) {
	const maxPitch = math32.Pi/2 - 0.01
	v.Yaw += dyaw
	v.Pitch = math32.Max(-maxPitch, math32.Min(v.Pitch+dpitch, maxPitch))
}

// sliceSweep is how far the slice plane swings around SliceOffset as
// SweepPhase advances.
const sliceSweep = 0.5

// SlicePlane returns the unit normal of the slice plane and the plane's
// signed distance from Target along it.
func (v *View) SlicePlane() (normal ms3.Vec, offset float32) {
	const deg = math32.Pi / 180
	sy, cy := math32.Sincos(v.SliceYaw * deg)
	sp, cp := math32.Sincos(v.SlicePitch * deg)
	normal = ms3.Vec{X: cp * sy, Y: sp, Z: cp * cy}
	return normal, v.SliceOffset + sliceSweep*math32.Sin(v.SweepPhase)
}

// Zoom moves the camera along its view direction by scroll amount.
func (v *View) Zoom(scroll float32) {
	v.CamDist -= scroll * (v.CamDist*.1 + .01)
	if v.maxDist > 0 {
		v.CamDist = math32.Max(v.minDist, math32.Min(v.CamDist, v.maxDist))
	}
}
