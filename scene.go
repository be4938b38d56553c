package sdfed

import (
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/sdfed/scene"
)

// Scene edits are forwarded to the registry, whose change hook repacks the
// uniform buffers before returning.

// AddShape appends a shape. It fails with [scene.ErrCapacityExceeded] on a full scene.
func (s *Session) AddShape(kind scene.Kind, opts ...scene.ShapeOption) (scene.ShapeID, error) {
	return s.reg.AddShape(kind, opts...)
}

// RemoveShape removes the shape with id. It reports whether it existed.
func (s *Session) RemoveShape(id scene.ShapeID) bool { return s.reg.RemoveShape(id) }

// Shape returns the shape with id.
func (s *Session) Shape(id scene.ShapeID) (scene.Shape, bool) { return s.reg.Shape(id) }

// SetPosition moves a shape.
func (s *Session) SetPosition(id scene.ShapeID, p ms3.Vec) bool { return s.reg.SetPosition(id, p) }

// SetRotation sets a shape's XYZ Euler angles in radians.
func (s *Session) SetRotation(id scene.ShapeID, rot ms3.Vec) bool {
	return s.reg.SetRotation(id, rot)
}

// SetRadius sets a sphere's radius.
func (s *Session) SetRadius(id scene.ShapeID, r float32) bool { return s.reg.SetRadius(id, r) }

// SetExtents sets a box's half size.
func (s *Session) SetExtents(id scene.ShapeID, ext ms3.Vec) bool {
	return s.reg.SetExtents(id, ext)
}

// SetKind changes a shape's primitive.
func (s *Session) SetKind(id scene.ShapeID, kind scene.Kind) bool { return s.reg.SetKind(id, kind) }

// SetShapeMaterial assigns a palette material to a shape.
func (s *Session) SetShapeMaterial(id scene.ShapeID, mat scene.MaterialID) bool {
	return s.reg.SetShapeMaterial(id, mat)
}

// SetOp sets the composition against the preceding shape.
func (s *Session) SetOp(id scene.ShapeID, op scene.Op) bool { return s.reg.SetOp(id, op) }

// Material returns a palette entry.
func (s *Session) Material(id scene.MaterialID) (scene.Material, bool) { return s.reg.Material(id) }

// SetMaterial replaces the palette entry with m's ID.
func (s *Session) SetMaterial(m scene.Material) bool { return s.reg.SetMaterial(m) }

// SetBaseColor sets a material's RGB color.
func (s *Session) SetBaseColor(id scene.MaterialID, rgb ms3.Vec) bool {
	return s.reg.SetBaseColor(id, rgb)
}

// SetGradient toggles a material's gradient and sets its second color.
func (s *Session) SetGradient(id scene.MaterialID, enabled bool, rgb ms3.Vec) bool {
	return s.reg.SetGradient(id, enabled, rgb)
}

// SetRoughness sets a material's roughness, clamped to [0,1].
func (s *Session) SetRoughness(id scene.MaterialID, v float32) bool {
	return s.reg.SetRoughness(id, v)
}

// SetMetalness sets a material's metalness, clamped to [0,1].
func (s *Session) SetMetalness(id scene.MaterialID, v float32) bool {
	return s.reg.SetMetalness(id, v)
}

// SetIOR sets a material's index of refraction, clamped to [1,2.2].
func (s *Session) SetIOR(id scene.MaterialID, v float32) bool { return s.reg.SetIOR(id, v) }

// SetTransmission sets a material's transmission, clamped to [0,1].
func (s *Session) SetTransmission(id scene.MaterialID, v float32) bool {
	return s.reg.SetTransmission(id, v)
}
