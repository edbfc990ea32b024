// Package formats provides parsers for the surface mesh file formats the
// viewer understands: LandXML TIN surfaces and the flat JSON mesh schema.
package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Parse errors.
var (
	// ErrSchema reports a JSON mesh document missing required fields or
	// carrying arrays of the wrong shape.
	ErrSchema = errors.New("invalid mesh schema")

	// ErrMalformedGeometry reports LandXML that cannot be resolved into a
	// consistent triangulation (unparseable XML, unknown point references,
	// or a document with no surfaces at all).
	ErrMalformedGeometry = errors.New("malformed geometry")
)

// RawSurface is one named triangulated surface in its source coordinates.
// Vertices holds x,y,z triples; Indices holds zero-based vertex triples.
// A RawSurface is immutable once produced by a parser.
type RawSurface struct {
	Name     string
	Vertices []float32
	Indices  []uint32
}

// VertexCount returns the number of vertices.
func (s *RawSurface) VertexCount() int {
	return len(s.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (s *RawSurface) TriangleCount() int {
	return len(s.Indices) / 3
}

// Vertex returns vertex i as its three components.
func (s *RawSurface) Vertex(i int) (x, y, z float32) {
	return s.Vertices[i*3], s.Vertices[i*3+1], s.Vertices[i*3+2]
}

// Validate checks the structural invariants every parser must uphold.
func (s *RawSurface) Validate() error {
	if len(s.Vertices)%3 != 0 {
		return fmt.Errorf("%w: vertex array length %d is not a multiple of 3", ErrSchema, len(s.Vertices))
	}
	if len(s.Indices)%3 != 0 {
		return fmt.Errorf("%w: index array length %d is not a multiple of 3", ErrSchema, len(s.Indices))
	}
	vertexCount := uint32(len(s.Vertices) / 3)
	for i, idx := range s.Indices {
		if idx >= vertexCount {
			return fmt.Errorf("%w: index %d at position %d out of range (have %d vertices)", ErrSchema, idx, i, vertexCount)
		}
	}
	return nil
}

// Format identifies a supported mesh file format.
type Format int

// Supported formats.
const (
	FormatJSON Format = iota
	FormatLandXML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatLandXML:
		return "LandXML"
	default:
		return "JSON"
	}
}

// DetectFormat picks the parser for a file. An XML extension wins; failing
// that, content starting with an angle bracket is treated as LandXML and
// everything else is attempted as JSON.
func DetectFormat(filename string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xml", ".landxml":
		return FormatLandXML
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "<") {
		return FormatLandXML
	}
	return FormatJSON
}

// Parse decodes file contents into one or more surfaces, sniffing the
// format from the filename and content.
func Parse(filename string, data []byte) ([]*RawSurface, error) {
	switch DetectFormat(filename, data) {
	case FormatLandXML:
		return ParseLandXML(data)
	default:
		surface, err := ParseJSONMesh(data)
		if err != nil {
			return nil, err
		}
		return []*RawSurface{surface}, nil
	}
}
