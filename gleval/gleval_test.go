package gleval_test

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/sdfed/gleval"
	"github.com/soypat/sdfed/glpack"
	"github.com/soypat/sdfed/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packed(t *testing.T, build func(reg *scene.Registry)) *glpack.Buffers {
	t.Helper()
	reg := scene.NewRegistry(8)
	build(reg)
	buf := glpack.NewBuffers(reg.Cap())
	buf.Pack(reg)
	return buf
}

func TestSubtractScenario(t *testing.T) {
	buf := packed(t, func(reg *scene.Registry) {
		_, err := reg.AddShape(scene.KindSphere, scene.WithRadius(0.55))
		require.NoError(t, err)
		_, err = reg.AddShape(scene.KindBox, scene.WithExtents(ms3.Vec{X: 0.76, Y: 0.76, Z: 0.76}), scene.WithOp(scene.OpSubtract))
		require.NoError(t, err)
	})
	s := gleval.NewScene(buf)
	// The box swallows the sphere entirely.
	assert.InDelta(t, 0.76, s.Distance(ms3.Vec{}), 1e-6)
	for _, p := range []ms3.Vec{{X: 0.5}, {Y: -0.5}, {X: 0.3, Y: 0.3, Z: 0.3}} {
		assert.Greater(t, s.Distance(p), float32(0), "point %v", p)
	}
}

func TestUnionMaterial(t *testing.T) {
	buf := packed(t, func(reg *scene.Registry) {
		reg.AddShape(scene.KindSphere, scene.WithRadius(1), scene.WithMaterial(3))
		reg.AddShape(scene.KindSphere, scene.WithRadius(1), scene.WithPosition(ms3.Vec{X: 4}), scene.WithMaterial(5))
	})
	s := gleval.NewScene(buf)
	d, m := s.DistanceMaterial(ms3.Vec{X: -2})
	assert.InDelta(t, 1, d, 1e-6)
	assert.Equal(t, 3, m)
	d, m = s.DistanceMaterial(ms3.Vec{X: 4})
	assert.InDelta(t, -1, d, 1e-6)
	assert.Equal(t, 5, m)
}

func TestIntersect(t *testing.T) {
	buf := packed(t, func(reg *scene.Registry) {
		reg.AddShape(scene.KindSphere, scene.WithRadius(1))
		reg.AddShape(scene.KindSphere, scene.WithRadius(1), scene.WithPosition(ms3.Vec{X: 1.5}), scene.WithOp(scene.OpIntersect))
	})
	s := gleval.NewScene(buf)
	assert.Less(t, s.Distance(ms3.Vec{X: 0.75}), float32(0))
	assert.Greater(t, s.Distance(ms3.Vec{X: -0.5}), float32(0), "outside the second sphere")
}

func TestRotatedBox(t *testing.T) {
	buf := packed(t, func(reg *scene.Registry) {
		reg.AddShape(scene.KindBox,
			scene.WithExtents(ms3.Vec{X: 1, Y: 0.1, Z: 0.1}),
			scene.WithRotation(ms3.Vec{Z: math32.Pi / 2}),
		)
	})
	s := gleval.NewScene(buf)
	assert.Less(t, s.Distance(ms3.Vec{Y: 0.9}), float32(0))
	assert.Greater(t, s.Distance(ms3.Vec{X: 0.9}), float32(0))
}

func TestEvaluateErrors(t *testing.T) {
	empty := gleval.NewScene(glpack.NewBuffers(8))
	assert.Error(t, empty.Evaluate([]ms3.Vec{{}}, make([]float32, 1)))
	assert.True(t, math32.IsInf(empty.Distance(ms3.Vec{}), 1))

	buf := packed(t, func(reg *scene.Registry) { reg.AddShape(scene.KindSphere) })
	s := gleval.NewScene(buf)
	assert.Error(t, s.Evaluate(make([]ms3.Vec, 2), make([]float32, 1)))
	assert.Error(t, s.Evaluate(nil, nil))
}

func TestNormals(t *testing.T) {
	buf := packed(t, func(reg *scene.Registry) { reg.AddShape(scene.KindSphere, scene.WithRadius(1)) })
	s := gleval.NewScene(buf)
	pos := []ms3.Vec{{X: 1}, {Y: -1}, {Z: 1}, {}}
	normals := make([]ms3.Vec, len(pos))
	require.NoError(t, s.Normals(pos, normals, 1e-3))
	for i, n := range normals[:3] {
		assert.InDelta(t, 1, ms3.Dot(n, pos[i]), 1e-3)
	}
	assert.Equal(t, ms3.Vec{}, normals[3], "gradient vanishes at the center")

	assert.Error(t, s.Normals(pos, normals[:1], 1e-3))
	assert.Error(t, s.Normals(pos, normals, 0))
	empty := gleval.NewScene(glpack.NewBuffers(8))
	assert.Error(t, empty.Normals(pos, normals, 1e-3))
}
