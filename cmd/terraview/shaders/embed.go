// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// SurfaceVertexShader is the vertex shader for surface rendering.
//
//go:embed surface.vert
var SurfaceVertexShader string

// SurfaceFragmentShader is the fragment shader for surface rendering.
//
//go:embed surface.frag
var SurfaceFragmentShader string

// LineVertexShader is the vertex shader for helper and overlay lines.
//
//go:embed line.vert
var LineVertexShader string

// LineFragmentShader is the fragment shader for helper and overlay lines.
//
//go:embed line.frag
var LineFragmentShader string
