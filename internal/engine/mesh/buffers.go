package mesh

import (
	"github.com/Mr-akami/indices-vertices-visualizer/pkg/formats"
	"github.com/Mr-akami/indices-vertices-visualizer/pkg/mathx"
)

// RenderBuffers is the fully derived, renderer-ready representation of one
// surface. Positions are centered on the shared scene origin. The buffers
// are a pure function of (surface, center, color mode) and are always
// recomputed whole — normals and bounding volumes depend on every position.
type RenderBuffers struct {
	Positions []float32
	Normals   []float32
	Colors    []float32
	Indices   []uint32
	Bounds    Box
	Sphere    Sphere
}

// VertexCount returns the number of vertices in the buffers.
func (rb *RenderBuffers) VertexCount() int {
	return len(rb.Positions) / 3
}

// TriangleCount returns the number of triangles in the buffers.
func (rb *RenderBuffers) TriangleCount() int {
	return len(rb.Indices) / 3
}

// Build derives render buffers from a parsed surface: every vertex is
// translated by -center, normals are recomputed from the centered
// positions, and one color per vertex is assigned under the given mode.
func Build(raw *formats.RawSurface, center mathx.Vec3, mode ColorMode) *RenderBuffers {
	positions := make([]float32, len(raw.Vertices))
	bounds := EmptyBox()
	for i := 0; i < raw.VertexCount(); i++ {
		x, y, z := raw.Vertex(i)
		p := mathx.V3(x, y, z).Sub(center)
		positions[i*3] = p.X
		positions[i*3+1] = p.Y
		positions[i*3+2] = p.Z
		bounds.Extend(p)
	}

	indices := make([]uint32, len(raw.Indices))
	copy(indices, raw.Indices)

	return &RenderBuffers{
		Positions: positions,
		Normals:   VertexNormals(positions, indices),
		Colors:    Colors(positions, indices, mode),
		Indices:   indices,
		Bounds:    bounds,
		Sphere:    bounds.BoundingSphere(),
	}
}

// VertexNormals computes smooth per-vertex normals: each triangle's
// cross-product normal is accumulated into its three vertices and the sums
// are normalized. Degenerate triangles contribute a zero vector so they
// never poison neighboring vertices with NaN.
func VertexNormals(positions []float32, indices []uint32) []float32 {
	normals := make([]float32, len(positions))

	at := func(i uint32) mathx.Vec3 {
		return mathx.V3(positions[i*3], positions[i*3+1], positions[i*3+2])
	}

	for t := 0; t+2 < len(indices); t += 3 {
		ia, ib, ic := indices[t], indices[t+1], indices[t+2]
		a, b, c := at(ia), at(ib), at(ic)

		// Zero-area triangles normalize to the zero vector here.
		faceNormal := b.Sub(a).Cross(c.Sub(a)).Normalize()

		for _, i := range [3]uint32{ia, ib, ic} {
			normals[i*3] += faceNormal.X
			normals[i*3+1] += faceNormal.Y
			normals[i*3+2] += faceNormal.Z
		}
	}

	for i := 0; i < len(normals); i += 3 {
		n := mathx.V3(normals[i], normals[i+1], normals[i+2]).Normalize()
		normals[i] = n.X
		normals[i+1] = n.Y
		normals[i+2] = n.Z
	}

	return normals
}
