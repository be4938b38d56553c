// Package glsllib embeds the editor's stock GLSL programs.
package glsllib

import (
	_ "embed"
)

//go:embed vertex.glsl
var vertexSrc string

//go:embed fragment.glsl
var fragmentSrc string

//go:embed fallback_vertex.glsl
var fallbackVertexSrc string

//go:embed fallback_fragment.glsl
var fallbackFragmentSrc string

// Vertex is the full screen quad vertex program. Attribute location 0 is aPos.
func Vertex() string { return vertexSrc }

// Fragment is the ray-marching program decoding the packed scene uniforms.
// It declares every recognized capacity and step count #define.
func Fragment() string { return fragmentSrc }

// FallbackVertex is the vertex program paired with [FallbackFragment].
func FallbackVertex() string { return fallbackVertexSrc }

// FallbackFragment is a constant, time-animated program that reads no scene
// uniforms. It is shown while the scene program cannot run.
func FallbackFragment() string { return fallbackFragmentSrc }
