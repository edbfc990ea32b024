package assets

import (
	"errors"
	"testing"

	"github.com/Mr-akami/indices-vertices-visualizer/pkg/formats"
)

func TestDefaultMeshParses(t *testing.T) {
	data, err := DefaultMesh()
	if err != nil {
		t.Fatalf("DefaultMesh failed: %v", err)
	}

	surface, err := formats.ParseJSONMesh(data)
	if err != nil {
		t.Fatalf("bundled mesh does not parse: %v", err)
	}
	if surface.TriangleCount() == 0 || surface.VertexCount() == 0 {
		t.Error("bundled mesh is empty")
	}
	if err := surface.Validate(); err != nil {
		t.Errorf("bundled mesh invalid: %v", err)
	}
}

func TestReadMeshMissingFile(t *testing.T) {
	_, err := ReadMesh("/nonexistent/mesh.json")
	if !errors.Is(err, ErrResourceFetch) {
		t.Fatalf("expected ErrResourceFetch, got %v", err)
	}
}
