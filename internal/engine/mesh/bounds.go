// Package mesh converts parsed surfaces into renderer-ready buffers:
// centered positions, smooth vertex normals, per-vertex colors and
// bounding volumes.
package mesh

import (
	"github.com/Mr-akami/indices-vertices-visualizer/pkg/formats"
	"github.com/Mr-akami/indices-vertices-visualizer/pkg/mathx"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max mathx.Vec3
	empty    bool
}

// EmptyBox returns a box containing nothing. Extending it with the first
// point initializes both corners.
func EmptyBox() Box {
	return Box{empty: true}
}

// IsEmpty reports whether the box has never been extended.
func (b Box) IsEmpty() bool {
	return b.empty
}

// Extend grows the box to contain p.
func (b *Box) Extend(p mathx.Vec3) {
	if b.empty {
		b.Min, b.Max = p, p
		b.empty = false
		return
	}
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(other Box) Box {
	if b.empty {
		return other
	}
	if other.empty {
		return b
	}
	return Box{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Center returns the box centroid. An empty box centers on the origin.
func (b Box) Center() mathx.Vec3 {
	if b.empty {
		return mathx.Vec3{}
	}
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extents.
func (b Box) Size() mathx.Vec3 {
	if b.empty {
		return mathx.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Sphere is a center/radius bounding volume. It is the box-diagonal
// approximation used for camera framing, not a minimal enclosing sphere.
type Sphere struct {
	Center mathx.Vec3
	Radius float32
}

// BoundingSphere derives the enclosing sphere of the box: box center,
// half the diagonal as radius.
func (b Box) BoundingSphere() Sphere {
	return Sphere{Center: b.Center(), Radius: b.Size().Length() / 2}
}

// RawBounds computes the bounding box over a surface's raw, uncentered
// vertices.
func RawBounds(s *formats.RawSurface) Box {
	box := EmptyBox()
	for i := 0; i < s.VertexCount(); i++ {
		x, y, z := s.Vertex(i)
		box.Extend(mathx.V3(x, y, z))
	}
	return box
}
