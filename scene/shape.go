package scene

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// MinSize is the smallest radius or half-extent a shape may hold.
// Zero or negative sizes produce degenerate distance fields on the GPU.
const MinSize = 1e-3

// ShapeID identifies a shape for its whole lifetime. IDs are never reused.
// The zero ShapeID is never assigned.
type ShapeID uint32

// Kind is the primitive type of a shape.
type Kind uint8

const (
	KindSphere Kind = iota
	KindBox
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindBox:
		return "box"
	}
	return "Kind(invalid)"
}

// IsValid reports whether k is a known primitive.
func (k Kind) IsValid() bool { return k <= KindBox }

// Op is the composition a shape applies against the shape preceding it.
type Op uint8

const (
	OpUnion Op = iota
	OpIntersect
	OpSubtract
)

func (op Op) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpIntersect:
		return "intersect"
	case OpSubtract:
		return "subtract"
	}
	return "Op(invalid)"
}

// IsValid reports whether op is a known composition.
func (op Op) IsValid() bool { return op <= OpSubtract }

// Shape is a primitive instance in the scene. Only the size field matching
// Kind is meaningful: Radius for spheres, Extents (half-size per axis) for boxes.
// The other is kept so toggling kind does not lose the user's edit.
type Shape struct {
	ID       ShapeID
	Kind     Kind
	Position ms3.Vec
	// Rotation holds Euler angles in radians applied in intrinsic XYZ order.
	Rotation ms3.Vec
	Radius   float32
	Extents  ms3.Vec
	Material MaterialID
	Op       Op
}

// ShapeOption overrides a default field of a shape being added to a [Registry].
type ShapeOption func(*Shape)

func WithPosition(p ms3.Vec) ShapeOption { return func(s *Shape) { s.Position = p } }
func WithRotation(r ms3.Vec) ShapeOption { return func(s *Shape) { s.Rotation = r } }
func WithRadius(r float32) ShapeOption   { return func(s *Shape) { s.Radius = r } }
func WithExtents(e ms3.Vec) ShapeOption  { return func(s *Shape) { s.Extents = e } }
func WithOp(op Op) ShapeOption           { return func(s *Shape) { s.Op = op } }

func WithMaterial(id MaterialID) ShapeOption { return func(s *Shape) { s.Material = id } }

// Default sizes for newly added shapes.
const (
	DefaultRadius     = 0.5
	DefaultHalfExtent = 0.5
)

func defaultShape(kind Kind) Shape {
	return Shape{
		Kind:    kind,
		Radius:  DefaultRadius,
		Extents: ms3.Vec{X: DefaultHalfExtent, Y: DefaultHalfExtent, Z: DefaultHalfExtent},
	}
}

// sanitize clamps sizes and coerces invalid enum values.
func (s *Shape) sanitize() {
	s.Radius = clampSize(s.Radius)
	s.Extents = ms3.Vec{X: clampSize(s.Extents.X), Y: clampSize(s.Extents.Y), Z: clampSize(s.Extents.Z)}
	if !s.Material.IsValid() {
		s.Material = 0
	}
	if !s.Op.IsValid() {
		s.Op = OpUnion
	}
}

// BoundingRadius returns the radius of a sphere centered at the shape's
// position that contains the shape under any rotation.
func (s Shape) BoundingRadius() float32 {
	if s.Kind == KindBox {
		return ms3.Norm(s.Extents)
	}
	return s.Radius
}

func clampSize(v float32) float32 {
	if math32.IsNaN(v) || v < MinSize {
		return MinSize
	}
	return v
}

func clampf(v, Min, Max float32) float32 {
	if math32.IsNaN(v) || v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}
