// Package glpack encodes a scene into the fixed-size uniform arrays read by
// the ray-marching fragment program.
//
// Shape slot i holds four vec4 records:
//
//	ShapeA[i] = (position.x, position.y, position.z, radius)   radius is 0 for boxes
//	ShapeB[i] = (extents.x, extents.y, extents.z, kind)        extents are 0 for spheres
//	ShapeC[i] = (material, op, 0, 0)
//	ShapeD[i] = (rotation.x, rotation.y, rotation.z, 0)
//
// Material slot j holds three vec4 records:
//
//	MaterialA[j] = (base.r, base.g, base.b, roughness)
//	MaterialB[j] = (gradient.r, gradient.g, gradient.b, useGradient)
//	MaterialC[j] = (metalness, ior, transmission, 0)
//
// Every slot at or past the populated count is zero.
package glpack

import (
	"encoding/binary"
	"math"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/sdfed/scene"
)

// Source is the scene state read by [Buffers.Pack]. Implemented by [scene.Registry].
type Source interface {
	Len() int
	ShapeAt(i int) scene.Shape
	Materials() [scene.MaxMaterials]scene.Material
}

// Vec4 is one uniform slot.
type Vec4 = [4]float32

// Buffers is an arena of uniform slots sized once for a shape capacity.
// Slices are never grown or reallocated after [NewBuffers].
type Buffers struct {
	ShapeCount    int32
	MaterialCount int32

	ShapeA, ShapeB, ShapeC, ShapeD []Vec4

	MaterialA, MaterialB, MaterialC [scene.MaxMaterials]Vec4
}

// NewBuffers allocates buffers for maxShapes shape slots.
func NewBuffers(maxShapes int) *Buffers {
	if maxShapes < 0 {
		panic("negative shape capacity")
	}
	return &Buffers{
		ShapeA: make([]Vec4, maxShapes),
		ShapeB: make([]Vec4, maxShapes),
		ShapeC: make([]Vec4, maxShapes),
		ShapeD: make([]Vec4, maxShapes),
	}
}

// Cap returns the number of shape slots.
func (b *Buffers) Cap() int { return len(b.ShapeA) }

// Pack rewrites every slot from src. The result depends only on src's state.
// Shapes past Cap are not encoded; callers keep the registry capacity equal
// to the buffer capacity.
func (b *Buffers) Pack(src Source) {
	n := min(src.Len(), b.Cap())
	for i := 0; i < n; i++ {
		b.packShape(i, src.ShapeAt(i))
	}
	for i := n; i < b.Cap(); i++ {
		b.ShapeA[i] = Vec4{}
		b.ShapeB[i] = Vec4{}
		b.ShapeC[i] = Vec4{}
		b.ShapeD[i] = Vec4{}
	}
	b.ShapeCount = int32(n)

	mats := src.Materials()
	for j := range mats {
		m := &mats[j]
		b.MaterialA[j] = Vec4{m.BaseColor.X, m.BaseColor.Y, m.BaseColor.Z, m.Roughness}
		b.MaterialB[j] = Vec4{m.GradientColor.X, m.GradientColor.Y, m.GradientColor.Z, b2f(m.UseGradient)}
		b.MaterialC[j] = Vec4{m.Metalness, m.IOR, m.Transmission, 0}
	}
	b.MaterialCount = scene.MaxMaterials
}

func (b *Buffers) packShape(i int, s scene.Shape) {
	var radius float32
	var ext ms3.Vec
	switch s.Kind {
	case scene.KindSphere:
		radius = s.Radius
	case scene.KindBox:
		ext = s.Extents
	}
	b.ShapeA[i] = Vec4{s.Position.X, s.Position.Y, s.Position.Z, radius}
	b.ShapeB[i] = Vec4{ext.X, ext.Y, ext.Z, float32(s.Kind)}
	b.ShapeC[i] = Vec4{float32(s.Material), float32(s.Op), 0, 0}
	b.ShapeD[i] = Vec4{s.Rotation.X, s.Rotation.Y, s.Rotation.Z, 0}
}

// AppendBinary appends the little-endian encoding of all buffers to dst:
// shape count, material count, the four shape arrays then the three material arrays.
func (b *Buffers) AppendBinary(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(b.ShapeCount))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(b.MaterialCount))
	for _, buf := range [][]Vec4{b.ShapeA, b.ShapeB, b.ShapeC, b.ShapeD, b.MaterialA[:], b.MaterialB[:], b.MaterialC[:]} {
		for _, v := range buf {
			for _, f := range v {
				dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
			}
		}
	}
	return dst
}

func b2f(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
