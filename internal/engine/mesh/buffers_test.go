package mesh

import (
	"reflect"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Mr-akami/indices-vertices-visualizer/pkg/formats"
	"github.com/Mr-akami/indices-vertices-visualizer/pkg/mathx"
)

const epsilon = 1e-5

func approx(a, b float32) bool {
	return math32.Abs(a-b) < epsilon
}

// unitTriangle is a right triangle in the z=0 plane.
func unitTriangle() *formats.RawSurface {
	return &formats.RawSurface{
		Name:     "tri",
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:  []uint32{0, 1, 2},
	}
}

func TestBuildCentersPositions(t *testing.T) {
	raw := unitTriangle()
	center := mathx.V3(10, 20, 30)

	rb := Build(raw, center, ColorFlat)

	if rb.VertexCount() != 3 || rb.TriangleCount() != 1 {
		t.Fatalf("got %d vertices, %d triangles", rb.VertexCount(), rb.TriangleCount())
	}
	if !approx(rb.Positions[0], -10) || !approx(rb.Positions[1], -20) || !approx(rb.Positions[2], -30) {
		t.Errorf("vertex 0 = (%f, %f, %f), expected (-10, -20, -30)",
			rb.Positions[0], rb.Positions[1], rb.Positions[2])
	}

	// The input surface must stay untouched.
	if raw.Vertices[0] != 0 || raw.Vertices[3] != 1 {
		t.Error("Build mutated the raw surface")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	raw := unitTriangle()
	center := mathx.V3(0.25, 0.25, 0)

	first := Build(raw, center, ColorHeight)
	second := Build(raw, center, ColorHeight)

	if !reflect.DeepEqual(first, second) {
		t.Error("two builds of the same input differ")
	}
}

func TestVertexNormalsFlatTriangle(t *testing.T) {
	rb := Build(unitTriangle(), mathx.Vec3{}, ColorFlat)

	// Counter-clockwise triangle in the z=0 plane faces +z.
	for i := 0; i < 3; i++ {
		nx, ny, nz := rb.Normals[i*3], rb.Normals[i*3+1], rb.Normals[i*3+2]
		if !approx(nx, 0) || !approx(ny, 0) || !approx(nz, 1) {
			t.Errorf("vertex %d normal = (%f, %f, %f), expected (0, 0, 1)", i, nx, ny, nz)
		}
	}
}

func TestVertexNormalsSmoothSharedVertex(t *testing.T) {
	// Two triangles folded along the y axis: one in the z=0 plane facing
	// +z, one in the x=0 plane facing +x. The shared edge vertices must
	// average both faces.
	positions := []float32{
		0, 0, 0, // shared
		0, 1, 0, // shared
		1, 0, 0, // only in the +z facing triangle
		0, 0, 1, // only in the +x facing triangle
	}
	indices := []uint32{0, 2, 1, 0, 1, 3}

	normals := VertexNormals(positions, indices)

	inv := 1 / math32.Sqrt(2)
	if !approx(normals[0], inv) || !approx(normals[1], 0) || !approx(normals[2], inv) {
		t.Errorf("shared vertex normal = (%f, %f, %f), expected (%f, 0, %f)",
			normals[0], normals[1], normals[2], inv, inv)
	}
}

func TestVertexNormalsDegenerateTriangle(t *testing.T) {
	// Triangle 2 is zero-area (all three corners identical) and shares
	// vertex 0 with a healthy triangle.
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	}
	indices := []uint32{
		0, 1, 2,
		0, 0, 0,
	}

	normals := VertexNormals(positions, indices)

	for i, n := range normals {
		if math32.IsNaN(n) {
			t.Fatalf("normal component %d is NaN", i)
		}
	}
	// The degenerate face contributes nothing, so vertex 0 still faces +z.
	if !approx(normals[2], 1) {
		t.Errorf("vertex 0 normal z = %f, expected 1", normals[2])
	}
}

func TestBoundingVolumes(t *testing.T) {
	raw := &formats.RawSurface{
		Vertices: []float32{-1, -2, -3, 1, 2, 3},
		Indices:  []uint32{},
	}

	rb := Build(raw, mathx.Vec3{}, ColorFlat)

	if !approx(rb.Bounds.Min.X, -1) || !approx(rb.Bounds.Max.Z, 3) {
		t.Errorf("bounds = %+v", rb.Bounds)
	}

	center := rb.Sphere.Center
	if !approx(center.X, 0) || !approx(center.Y, 0) || !approx(center.Z, 0) {
		t.Errorf("sphere center = %v, expected origin", center)
	}
	// Half the diagonal of a 2x4x6 box.
	expected := mathx.V3(2, 4, 6).Length() / 2
	if !approx(rb.Sphere.Radius, expected) {
		t.Errorf("sphere radius = %f, expected %f", rb.Sphere.Radius, expected)
	}
}

func TestRawBoundsAndUnion(t *testing.T) {
	a := RawBounds(&formats.RawSurface{Vertices: []float32{0, 0, 0, 2, 2, 2}})
	b := RawBounds(&formats.RawSurface{Vertices: []float32{-4, 1, 1}})

	u := a.Union(b)
	if !approx(u.Min.X, -4) || !approx(u.Max.X, 2) {
		t.Errorf("union = %+v", u)
	}
	if got := u.Center(); !approx(got.X, -1) || !approx(got.Y, 1) || !approx(got.Z, 1) {
		t.Errorf("union center = %v", got)
	}

	empty := EmptyBox()
	if got := empty.Union(a); !reflect.DeepEqual(got, a) {
		t.Error("union with empty box must return the other box")
	}
	if !empty.IsEmpty() || empty.BoundingSphere().Radius != 0 {
		t.Error("empty box must stay empty with a zero sphere")
	}
}
