package scene

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Mr-akami/indices-vertices-visualizer/pkg/formats"
)

// LoadResult is the outcome of one asynchronous decode. On failure Err is
// set and Surfaces is nil; a failed decode never touches the scene.
type LoadResult struct {
	Source   string
	Surfaces []*formats.RawSurface
	Err      error
}

// Loader decodes dropped or picked files off the UI thread. Decodes run
// concurrently; results are queued on a channel and applied one at a time
// by whoever drains it, so two files finishing together still become
// sequential adds.
type Loader struct {
	results chan LoadResult
}

// NewLoader creates a loader. The queue is buffered so decode goroutines
// never block on a slow frame.
func NewLoader() *Loader {
	return &Loader{results: make(chan LoadResult, 32)}
}

// Load decodes raw bytes under their declared filename in the background.
func (l *Loader) Load(filename string, data []byte) {
	go func() {
		surfaces, err := formats.Parse(filename, data)
		if err != nil {
			l.results <- LoadResult{Source: filename, Err: err}
			return
		}
		l.results <- LoadResult{Source: filename, Surfaces: nameSurfaces(filename, surfaces)}
	}()
}

// LoadFile reads and decodes a file from disk in the background.
func (l *Loader) LoadFile(path string) {
	go func() {
		data, err := os.ReadFile(path)
		if err != nil {
			l.results <- LoadResult{Source: path, Err: fmt.Errorf("reading %s: %w", path, err)}
			return
		}
		surfaces, perr := formats.Parse(path, data)
		if perr != nil {
			l.results <- LoadResult{Source: path, Err: perr}
			return
		}
		l.results <- LoadResult{Source: path, Surfaces: nameSurfaces(path, surfaces)}
	}()
}

// Poll returns the next finished decode without blocking.
func (l *Loader) Poll() (LoadResult, bool) {
	select {
	case result := <-l.results:
		return result, true
	default:
		return LoadResult{}, false
	}
}

// nameSurfaces derives entry names from the source file. A lone JSON mesh
// takes the file's name; LandXML surfaces keep their declared name as a
// suffix so several surfaces from one document stay distinguishable.
func nameSurfaces(path string, surfaces []*formats.RawSurface) []*formats.RawSurface {
	base := filepath.Base(path)
	named := make([]*formats.RawSurface, len(surfaces))
	for i, s := range surfaces {
		name := base
		if len(surfaces) > 1 || (s.Name != "" && s.Name != "Mesh") {
			name = fmt.Sprintf("%s: %s", base, s.Name)
		}
		named[i] = &formats.RawSurface{Name: name, Vertices: s.Vertices, Indices: s.Indices}
	}
	return named
}
