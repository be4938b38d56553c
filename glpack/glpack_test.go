package glpack_test

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/sdfed/glpack"
	"github.com/soypat/sdfed/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPackedRegistry returns a registry that repacks on every mutation, the
// way the editor session wires them.
func newPackedRegistry(capacity int) (*scene.Registry, *glpack.Buffers) {
	reg := scene.NewRegistry(capacity)
	bufs := glpack.NewBuffers(capacity)
	reg.SetOnChange(func() { bufs.Pack(reg) })
	bufs.Pack(reg)
	return reg, bufs
}

func TestPackSphereSubtractBox(t *testing.T) {
	reg, bufs := newPackedRegistry(8)
	sphere, err := reg.AddShape(scene.KindSphere, scene.WithRadius(0.55), scene.WithOp(scene.OpIntersect))
	require.NoError(t, err)
	box, err := reg.AddShape(scene.KindBox, scene.WithExtents(ms3.Vec{X: 0.76, Y: 0.76, Z: 0.76}))
	require.NoError(t, err)
	require.True(t, reg.SetOp(box, scene.OpSubtract))
	require.True(t, reg.SetOp(sphere, scene.OpSubtract))

	assert.EqualValues(t, 2, bufs.ShapeCount)
	// Slot 0: sphere, union regardless of requested op.
	assert.Equal(t, glpack.Vec4{0, 0, 0, 0.55}, bufs.ShapeA[0])
	assert.Equal(t, float32(scene.KindSphere), bufs.ShapeB[0][3])
	assert.Equal(t, float32(scene.OpUnion), bufs.ShapeC[0][1])
	// Slot 1: box subtracted from sphere.
	assert.Equal(t, glpack.Vec4{0.76, 0.76, 0.76, float32(scene.KindBox)}, bufs.ShapeB[1])
	assert.Equal(t, float32(scene.OpSubtract), bufs.ShapeC[1][1])
	assert.Zero(t, bufs.ShapeA[1][3], "box must not encode a radius")
}

func TestPackTailZeroed(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	reg, bufs := newPackedRegistry(6)
	for i := 0; i < 400; i++ {
		if rng.Intn(3) == 0 && reg.Len() > 0 {
			reg.RemoveShape(reg.ShapeAt(rng.Intn(reg.Len())).ID)
		} else {
			reg.AddShape(scene.Kind(rng.Intn(2)),
				scene.WithPosition(ms3.Vec{X: rng.Float32() + 1, Y: rng.Float32() + 1, Z: rng.Float32() + 1}),
				scene.WithRotation(ms3.Vec{X: rng.Float32() + 1, Y: 1, Z: 1}),
				scene.WithMaterial(scene.MaterialID(rng.Intn(scene.MaxMaterials))),
				scene.WithOp(scene.Op(rng.Intn(3))),
			)
		}
		require.EqualValues(t, reg.Len(), bufs.ShapeCount)
		for slot := reg.Len(); slot < bufs.Cap(); slot++ {
			for _, buf := range [][]glpack.Vec4{bufs.ShapeA, bufs.ShapeB, bufs.ShapeC, bufs.ShapeD} {
				require.Equal(t, glpack.Vec4{}, buf[slot], "slot %d not zeroed", slot)
			}
		}
		for slot := 0; slot < reg.Len(); slot++ {
			require.Equal(t, reg.ShapeAt(slot).Position.X, bufs.ShapeA[slot][0])
		}
	}
}

func TestPackDeterministic(t *testing.T) {
	reg, bufs := newPackedRegistry(16)
	for i := 0; i < 5; i++ {
		reg.AddShape(scene.Kind(i%2), scene.WithPosition(ms3.Vec{X: float32(i)}))
	}
	first := bufs.AppendBinary(nil)
	bufs.Pack(reg)
	second := bufs.AppendBinary(nil)
	assert.Equal(t, first, second)

	other := glpack.NewBuffers(16)
	other.Pack(reg)
	assert.Equal(t, first, other.AppendBinary(nil))
	// 2 counts, 4 shape arrays and 3 material arrays of vec4.
	assert.Len(t, first, 4*(2+4*4*16+3*4*scene.MaxMaterials))
}

func TestPackClearsStaleSlotsAfterRemoval(t *testing.T) {
	reg, bufs := newPackedRegistry(4)
	a, _ := reg.AddShape(scene.KindBox, scene.WithPosition(ms3.Vec{X: 3}))
	b, _ := reg.AddShape(scene.KindBox, scene.WithPosition(ms3.Vec{X: 4}))
	reg.RemoveShape(a)
	reg.RemoveShape(b)
	assert.Zero(t, bufs.ShapeCount)
	assert.Equal(t, glpack.Vec4{}, bufs.ShapeA[0])
	assert.Equal(t, glpack.Vec4{}, bufs.ShapeB[1])
}

func TestMaterialEditIsShared(t *testing.T) {
	reg, bufs := newPackedRegistry(8)
	const shared, other = scene.MaterialID(3), scene.MaterialID(5)
	reg.AddShape(scene.KindSphere, scene.WithMaterial(shared))
	reg.AddShape(scene.KindBox, scene.WithMaterial(other))
	reg.AddShape(scene.KindSphere, scene.WithMaterial(shared))
	shapesBefore := append([]glpack.Vec4{}, bufs.ShapeC...)
	otherBefore := bufs.MaterialA[other]

	require.True(t, reg.SetRoughness(shared, 0.77))

	assert.Equal(t, float32(0.77), bufs.MaterialA[shared][3])
	assert.Equal(t, otherBefore, bufs.MaterialA[other])
	assert.Equal(t, shapesBefore, bufs.ShapeC, "shapes reference materials by id")
	for i := 0; i < reg.Len(); i++ {
		mat := scene.MaterialID(bufs.ShapeC[i][0])
		if mat == shared {
			assert.Equal(t, float32(0.77), bufs.MaterialA[mat][3])
		}
	}
	assert.EqualValues(t, scene.MaxMaterials, bufs.MaterialCount)
}

func TestMaterialLayout(t *testing.T) {
	reg, bufs := newPackedRegistry(1)
	reg.SetMaterial(scene.Material{
		ID:            1,
		BaseColor:     ms3.Vec{X: 0.1, Y: 0.2, Z: 0.3},
		UseGradient:   true,
		GradientColor: ms3.Vec{X: 0.4, Y: 0.5, Z: 0.6},
		Roughness:     0.7,
		Metalness:     0.8,
		IOR:           1.33,
		Transmission:  0.25,
	})
	assert.Equal(t, glpack.Vec4{0.1, 0.2, 0.3, 0.7}, bufs.MaterialA[1])
	assert.Equal(t, glpack.Vec4{0.4, 0.5, 0.6, 1}, bufs.MaterialB[1])
	assert.Equal(t, glpack.Vec4{0.8, 1.33, 0.25, 0}, bufs.MaterialC[1])
}

func TestBoundingSphere(t *testing.T) {
	reg := scene.NewRegistry(4)
	_, _, ok := glpack.BoundingSphere(reg)
	assert.False(t, ok)

	reg.AddShape(scene.KindSphere, scene.WithPosition(ms3.Vec{X: -2}), scene.WithRadius(1))
	reg.AddShape(scene.KindBox, scene.WithPosition(ms3.Vec{X: 2}), scene.WithExtents(ms3.Vec{X: 1, Y: 1, Z: 1}),
		scene.WithRotation(ms3.Vec{X: 0.3, Y: 1.2}))
	center, radius, ok := glpack.BoundingSphere(reg)
	require.True(t, ok)
	boxR := math32.Sqrt(3)
	for i := 0; i < reg.Len(); i++ {
		s := reg.ShapeAt(i)
		dist := ms3.Norm(ms3.Sub(s.Position, center)) + s.BoundingRadius()
		assert.LessOrEqual(t, dist, radius+1e-5)
	}
	assert.InDelta(t, 2+boxR, radius, 0.6)
}
