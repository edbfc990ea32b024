package formats

import (
	"encoding/json"
	"fmt"
)

// jsonMeshDocument is the wire schema: two required flat arrays.
// Pointers distinguish an absent field from an empty array.
type jsonMeshDocument struct {
	Vertices *[]float64 `json:"vertices"`
	Indices  *[]int64   `json:"indices"`
}

// ParseJSONMesh decodes the flat JSON mesh schema:
//
//	{ "vertices": [x, y, z, ...], "indices": [a, b, c, ...] }
//
// Both fields are required, both lengths must be multiples of 3, and every
// index must reference an existing vertex. No coordinate reordering is
// applied.
func ParseJSONMesh(data []byte) (*RawSurface, error) {
	var doc jsonMeshDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	if doc.Vertices == nil {
		return nil, fmt.Errorf("%w: missing required field %q", ErrSchema, "vertices")
	}
	if doc.Indices == nil {
		return nil, fmt.Errorf("%w: missing required field %q", ErrSchema, "indices")
	}

	vertices := make([]float32, len(*doc.Vertices))
	for i, v := range *doc.Vertices {
		vertices[i] = float32(v)
	}

	indices := make([]uint32, len(*doc.Indices))
	for i, idx := range *doc.Indices {
		if idx < 0 {
			return nil, fmt.Errorf("%w: negative index %d at position %d", ErrSchema, idx, i)
		}
		indices[i] = uint32(idx)
	}

	surface := &RawSurface{Name: "Mesh", Vertices: vertices, Indices: indices}
	if err := surface.Validate(); err != nil {
		return nil, err
	}
	return surface, nil
}
