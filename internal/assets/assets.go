// Package assets provides the bundled startup dataset.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"os"
)

// ErrResourceFetch reports that a startup dataset could not be loaded.
// It is surfaced and logged but never prevents the viewer from starting.
var ErrResourceFetch = errors.New("resource fetch failed")

// DefaultMeshName is the fixed path of the bundled startup mesh.
const DefaultMeshName = "default_mesh.json"

//go:embed default_mesh.json
var bundled embed.FS

// DefaultMesh returns the bundled JSON mesh loaded at startup.
func DefaultMesh() ([]byte, error) {
	data, err := bundled.ReadFile(DefaultMeshName)
	if err != nil {
		return nil, fmt.Errorf("%w: bundled %s: %v", ErrResourceFetch, DefaultMeshName, err)
	}
	return data, nil
}

// ReadMesh loads a startup mesh from disk, for configurations that
// override the bundled dataset.
func ReadMesh(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrResourceFetch, path, err)
	}
	return data, nil
}
