// Package gleval evaluates packed scenes on the CPU with the same CSG and
// primitive rules as the ray-marching fragment program.
package gleval

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/sdfed/glpack"
	"github.com/soypat/sdfed/scene"
)

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("position and distance buffer length mismatch")
	errEmptyScene           = errors.New("no shapes packed")
)

// Scene reads distances from packed uniform buffers. It reflects the
// buffers at evaluation time, so repacking is seen immediately.
type Scene struct {
	buf *glpack.Buffers
}

// NewScene returns an evaluator of buf.
func NewScene(buf *glpack.Buffers) *Scene { return &Scene{buf: buf} }

// Evaluate stores the scene distance at every pos in dist. dist and pos
// must be of same length. It fails on a scene with no shapes.
func (s *Scene) Evaluate(pos []ms3.Vec, dist []float32) error {
	if len(pos) != len(dist) {
		return errMismatchBufferLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	} else if s.count() == 0 {
		return errEmptyScene
	}
	for i, p := range pos {
		dist[i] = s.Distance(p)
	}
	return nil
}

// Distance returns the scene distance at p. An empty scene is infinitely far.
func (s *Scene) Distance(p ms3.Vec) float32 {
	d, _ := s.DistanceMaterial(p)
	return d
}

// DistanceMaterial returns the scene distance at p and the material of the
// shape defining it. The material is -1 for an empty scene.
func (s *Scene) DistanceMaterial(p ms3.Vec) (float32, int) {
	b := s.buf
	res, mat := math32.Inf(1), -1
	for i := 0; i < s.count(); i++ {
		d := shapeDist(b.ShapeA[i], b.ShapeB[i], b.ShapeD[i], p)
		m := int(b.ShapeC[i][0])
		switch op := scene.Op(b.ShapeC[i][1]); {
		case i == 0 || op == scene.OpUnion:
			if d < res {
				res, mat = d, m
			}
		case op == scene.OpIntersect:
			if d > res {
				res, mat = d, m
			}
		case -d > res:
			res, mat = -d, m
		}
	}
	return res, mat
}

func (s *Scene) count() int {
	return min(int(s.buf.ShapeCount), s.buf.Cap())
}

func shapeDist(a, b, rot glpack.Vec4, p ms3.Vec) float32 {
	q := ms3.Vec{X: p.X - a[0], Y: p.Y - a[1], Z: p.Z - a[2]}
	q = inverseRotateXYZ(q, ms3.Vec{X: rot[0], Y: rot[1], Z: rot[2]})
	if scene.Kind(b[3]) == scene.KindBox {
		return sdBox(q, ms3.Vec{X: b[0], Y: b[1], Z: b[2]})
	}
	return ms3.Norm(q) - a[3]
}

func sdBox(p, half ms3.Vec) float32 {
	q := ms3.Vec{
		X: math32.Abs(p.X) - half.X,
		Y: math32.Abs(p.Y) - half.Y,
		Z: math32.Abs(p.Z) - half.Z,
	}
	outside := ms3.Norm(ms3.Vec{X: math32.Max(q.X, 0), Y: math32.Max(q.Y, 0), Z: math32.Max(q.Z, 0)})
	return outside + math32.Min(math32.Max(q.X, math32.Max(q.Y, q.Z)), 0)
}

// inverseRotateXYZ brings world offset v into the frame of a shape rotated
// by angles a, applied as Rx*Ry*Rz.
func inverseRotateXYZ(v, a ms3.Vec) ms3.Vec {
	if a == (ms3.Vec{}) {
		return v
	}
	s, c := math32.Sincos(a.X)
	v = ms3.Vec{X: v.X, Y: c*v.Y + s*v.Z, Z: -s*v.Y + c*v.Z}
	s, c = math32.Sincos(a.Y)
	v = ms3.Vec{X: c*v.X - s*v.Z, Y: v.Y, Z: s*v.X + c*v.Z}
	s, c = math32.Sincos(a.Z)
	return ms3.Vec{X: c*v.X + s*v.Y, Y: -s*v.X + c*v.Y, Z: v.Z}
}

// Normals stores the unit gradient of the scene at every pos in normals,
// sampled by central differences step apart. A vanishing gradient, such as
// at a sphere's center, yields the zero vector.
func (s *Scene) Normals(pos, normals []ms3.Vec, step float32) error {
	if step <= 0 {
		return errors.New("invalid step")
	} else if len(pos) != len(normals) {
		return errors.New("length of position must match length of normals")
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	h := step / 2
	aux := make([]ms3.Vec, 2*len(pos))
	d := make([]float32, 2*len(pos))
	for i := range normals {
		normals[i] = ms3.Vec{}
	}
	for _, axis := range [3]ms3.Vec{{X: 1}, {Y: 1}, {Z: 1}} {
		off := ms3.Scale(h, axis)
		for i, p := range pos {
			aux[2*i] = ms3.Add(p, off)
			aux[2*i+1] = ms3.Sub(p, off)
		}
		if err := s.Evaluate(aux, d); err != nil {
			return err
		}
		for i := range normals {
			normals[i] = ms3.Add(normals[i], ms3.Scale(d[2*i]-d[2*i+1], axis))
		}
	}
	for i, n := range normals {
		if l := ms3.Norm(n); l > 0 {
			normals[i] = ms3.Scale(1/l, n)
		}
	}
	return nil
}
