package glpack

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// BoundingSphere returns a sphere containing every shape in src under any
// rotation. ok is false for an empty scene. Used to fit camera range, not
// for rendering correctness.
func BoundingSphere(src Source) (center ms3.Vec, radius float32, ok bool) {
	n := src.Len()
	if n == 0 {
		return ms3.Vec{}, 0, false
	}
	var bb ms3.Box
	for i := 0; i < n; i++ {
		s := src.ShapeAt(i)
		r := s.BoundingRadius()
		box := ms3.Box{
			Min: ms3.AddScalar(-r, s.Position),
			Max: ms3.AddScalar(r, s.Position),
		}
		if i == 0 {
			bb = box
		} else {
			bb = bb.Union(box)
		}
	}
	center = bb.Center()
	for i := 0; i < n; i++ {
		s := src.ShapeAt(i)
		radius = math32.Max(radius, ms3.Norm(ms3.Sub(s.Position, center))+s.BoundingRadius())
	}
	return center, radius, true
}
