// Package scene holds the editable SDF scene: an ordered list of primitive
// shapes composed with CSG operations, and a fixed palette of materials.
//
// The registry is not safe for concurrent use; it is owned by the render loop.
package scene

import (
	"errors"
	"slices"

	"github.com/soypat/geometry/ms3"
)

// ErrCapacityExceeded is returned when adding a shape to a full registry.
var ErrCapacityExceeded = errors.New("scene: shape capacity exceeded")

// Registry is an ordered collection of shapes and the material palette.
// Shape order defines CSG evaluation order: each shape is combined with
// the result of all shapes before it using its Op. The first shape is
// always a Union.
type Registry struct {
	shapes    []Shape
	materials [MaxMaterials]Material
	maxShapes int
	lastID    ShapeID
	onChange  func()
}

// NewRegistry returns an empty registry with the default palette that
// accepts at most maxShapes shapes.
func NewRegistry(maxShapes int) *Registry {
	if maxShapes < 0 {
		panic("negative shape capacity")
	}
	return &Registry{
		shapes:    make([]Shape, 0, maxShapes),
		materials: DefaultPalette(),
		maxShapes: maxShapes,
	}
}

// SetOnChange registers fn to be called synchronously after every mutation.
// Passing nil removes the hook.
func (r *Registry) SetOnChange(fn func()) { r.onChange = fn }

func (r *Registry) changed() {
	if r.onChange != nil {
		r.onChange()
	}
}

// Len returns the number of shapes in the registry.
func (r *Registry) Len() int { return len(r.shapes) }

// Cap returns the maximum number of shapes the registry accepts.
func (r *Registry) Cap() int { return r.maxShapes }

// AddShape appends a new shape of the given kind with default fields
// overridden by opts. It returns [ErrCapacityExceeded] without modifying
// the registry when full.
func (r *Registry) AddShape(kind Kind, opts ...ShapeOption) (ShapeID, error) {
	if !kind.IsValid() {
		return 0, errors.New("scene: invalid shape kind")
	}
	if len(r.shapes) >= r.maxShapes {
		return 0, ErrCapacityExceeded
	}
	s := defaultShape(kind)
	for _, opt := range opts {
		opt(&s)
	}
	s.Kind = kind
	s.sanitize()
	r.lastID++
	s.ID = r.lastID
	r.shapes = append(r.shapes, s)
	r.normalize()
	r.changed()
	return s.ID, nil
}

// RemoveShape deletes the shape with the given id. Absent ids are ignored.
// Callers holding the id in selection state must reconcile it themselves.
func (r *Registry) RemoveShape(id ShapeID) bool {
	idx := r.index(id)
	if idx < 0 {
		return false
	}
	r.shapes = slices.Delete(r.shapes, idx, idx+1)
	r.normalize()
	r.changed()
	return true
}

// Shape returns a copy of the shape with the given id.
func (r *Registry) Shape(id ShapeID) (Shape, bool) {
	idx := r.index(id)
	if idx < 0 {
		return Shape{}, false
	}
	return r.shapes[idx], true
}

// ShapeAt returns the shape at position i in evaluation order.
func (r *Registry) ShapeAt(i int) Shape { return r.shapes[i] }

// Shapes appends all shapes in evaluation order to dst and returns the result.
func (r *Registry) Shapes(dst []Shape) []Shape { return append(dst, r.shapes...) }

// Material returns a copy of the material with the given id.
func (r *Registry) Material(id MaterialID) (Material, bool) {
	if !id.IsValid() {
		return Material{}, false
	}
	return r.materials[id], true
}

// Materials returns a copy of the palette.
func (r *Registry) Materials() [MaxMaterials]Material { return r.materials }

// SetCapacity changes the maximum number of shapes. If the registry holds
// more than n shapes the shapes at the end of the evaluation order are
// dropped and their ids returned.
func (r *Registry) SetCapacity(n int) (evicted []ShapeID) {
	if n < 0 {
		panic("negative shape capacity")
	}
	if len(r.shapes) > n {
		for _, s := range r.shapes[n:] {
			evicted = append(evicted, s.ID)
		}
		r.shapes = r.shapes[:n]
	}
	r.maxShapes = n
	r.shapes = slices.Grow(r.shapes, n-len(r.shapes))
	r.changed()
	return evicted
}

// SetPosition sets the world position of a shape.
func (r *Registry) SetPosition(id ShapeID, p ms3.Vec) bool {
	return r.edit(id, func(s *Shape) { s.Position = p })
}

// SetRotation sets the Euler XYZ rotation in radians of a shape.
func (r *Registry) SetRotation(id ShapeID, rot ms3.Vec) bool {
	return r.edit(id, func(s *Shape) { s.Rotation = rot })
}

// SetRadius sets the sphere radius of a shape. Clamped to [MinSize, ∞).
func (r *Registry) SetRadius(id ShapeID, radius float32) bool {
	return r.edit(id, func(s *Shape) { s.Radius = radius })
}

// SetExtents sets the box half-extents of a shape. Clamped to [MinSize, ∞).
func (r *Registry) SetExtents(id ShapeID, ext ms3.Vec) bool {
	return r.edit(id, func(s *Shape) { s.Extents = ext })
}

// SetKind changes the primitive type of a shape, keeping both size fields.
func (r *Registry) SetKind(id ShapeID, kind Kind) bool {
	if !kind.IsValid() {
		return false
	}
	return r.edit(id, func(s *Shape) { s.Kind = kind })
}

// SetShapeMaterial assigns a palette material to a shape.
func (r *Registry) SetShapeMaterial(id ShapeID, mat MaterialID) bool {
	if !mat.IsValid() {
		return false
	}
	return r.edit(id, func(s *Shape) { s.Material = mat })
}

// SetOp sets the composition of a shape against its predecessor.
// The first shape is always stored as [OpUnion].
func (r *Registry) SetOp(id ShapeID, op Op) bool {
	if !op.IsValid() {
		return false
	}
	return r.edit(id, func(s *Shape) { s.Op = op })
}

func (r *Registry) edit(id ShapeID, fn func(s *Shape)) bool {
	idx := r.index(id)
	if idx < 0 {
		return false
	}
	fn(&r.shapes[idx])
	r.shapes[idx].sanitize()
	r.normalize()
	r.changed()
	return true
}

// SetMaterial replaces all fields of a palette entry except its id.
// Values are clamped to their valid ranges.
func (r *Registry) SetMaterial(m Material) bool {
	return r.editMaterial(m.ID, func(dst *Material) { *dst = m })
}

func (r *Registry) SetBaseColor(id MaterialID, rgb ms3.Vec) bool {
	return r.editMaterial(id, func(m *Material) { m.BaseColor = rgb })
}

func (r *Registry) SetGradient(id MaterialID, enabled bool, rgb ms3.Vec) bool {
	return r.editMaterial(id, func(m *Material) { m.UseGradient, m.GradientColor = enabled, rgb })
}

func (r *Registry) SetRoughness(id MaterialID, v float32) bool {
	return r.editMaterial(id, func(m *Material) { m.Roughness = v })
}

func (r *Registry) SetMetalness(id MaterialID, v float32) bool {
	return r.editMaterial(id, func(m *Material) { m.Metalness = v })
}

func (r *Registry) SetIOR(id MaterialID, v float32) bool {
	return r.editMaterial(id, func(m *Material) { m.IOR = v })
}

func (r *Registry) SetTransmission(id MaterialID, v float32) bool {
	return r.editMaterial(id, func(m *Material) { m.Transmission = v })
}

func (r *Registry) editMaterial(id MaterialID, fn func(m *Material)) bool {
	if !id.IsValid() {
		return false
	}
	m := &r.materials[id]
	fn(m)
	m.ID = id
	m.sanitize()
	r.changed()
	return true
}

func (r *Registry) index(id ShapeID) int {
	if id == 0 {
		return -1
	}
	return slices.IndexFunc(r.shapes, func(s Shape) bool { return s.ID == id })
}

// normalize enforces the first shape's Union op; it has no predecessor.
func (r *Registry) normalize() {
	if len(r.shapes) > 0 {
		r.shapes[0].Op = OpUnion
	}
}
