// Package scene tracks the set of loaded surfaces, keeps them centered on
// a shared origin, and rebuilds their render buffers whenever the set
// changes.
package scene

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Mr-akami/indices-vertices-visualizer/internal/engine/mesh"
	"github.com/Mr-akami/indices-vertices-visualizer/internal/logger"
	"github.com/Mr-akami/indices-vertices-visualizer/pkg/formats"
	"github.com/Mr-akami/indices-vertices-visualizer/pkg/mathx"
)

// RenderGroup is the drawable bundle an external renderer builds for one
// entry. The scene owns it: groups are released exactly once, before their
// replacement is installed or when the entry is removed.
type RenderGroup interface {
	SetVisible(visible bool)
	Release()
}

// GroupBuilder constructs render groups from finished buffers. A nil
// builder runs the scene headless (tests, CLI tools).
type GroupBuilder interface {
	Build(name string, buffers *mesh.RenderBuffers, view ViewState) (RenderGroup, error)
}

// Entry is one loaded surface with its derived render state.
type Entry struct {
	ID      int
	Name    string
	Data    *formats.RawSurface
	Visible bool
	Buffers *mesh.RenderBuffers
	Group   RenderGroup
}

// Stats aggregates geometry counts over visible entries.
type Stats struct {
	Triangles int
	Vertices  int
}

// Scene is the registry of loaded entries. All mutations are serialized
// behind one mutex so every rebuild sees a consistent snapshot of the
// entry set.
type Scene struct {
	mu      sync.Mutex
	builder GroupBuilder
	entries []*Entry
	nextID  int
	center  mathx.Vec3
	stats   Stats

	// OnRefit, when set, receives the bounding sphere of all visible
	// geometry after every add or remove. It is never called for an empty
	// scene, so the camera stays where it is.
	OnRefit func(center mathx.Vec3, radius float32)
}

// New creates an empty scene. builder may be nil for headless use.
func New(builder GroupBuilder) *Scene {
	return &Scene{builder: builder, nextID: 1}
}

// Add registers a surface under a fresh id, recenters the whole scene and
// rebuilds every entry against the new shared origin. The new entry starts
// visible.
func (s *Scene) Add(name string, raw *formats.RawSurface, view ViewState) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &Entry{
		ID:      s.nextID,
		Name:    name,
		Data:    raw,
		Visible: true,
	}
	s.nextID++
	s.entries = append(s.entries, entry)

	// A render-group failure is reported but does not unwind the add: the
	// geometry itself is valid and the entry stays usable headless.
	err := s.rebuildLocked(view)

	logger.Debug("entry added",
		zap.Int("id", entry.ID),
		zap.String("name", name),
		zap.Int("triangles", raw.TriangleCount()),
		zap.Int("vertices", raw.VertexCount()),
	)

	s.refitLocked()
	return entry, err
}

// Remove releases an entry's render group and drops it from the set,
// recentering and rebuilding everything that remains. Removing an unknown
// id is a no-op.
func (s *Scene) Remove(id int, view ViewState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := -1
	for i, entry := range s.entries {
		if entry.ID == id {
			found = i
			break
		}
	}
	if found < 0 {
		return false
	}

	removed := s.entries[found]
	if removed.Group != nil {
		removed.Group.Release()
		removed.Group = nil
	}
	s.entries = append(s.entries[:found], s.entries[found+1:]...)

	if err := s.rebuildLocked(view); err != nil {
		logger.Error("rebuild after remove failed", zap.Error(err))
	}

	logger.Debug("entry removed", zap.Int("id", id), zap.String("name", removed.Name))

	s.refitLocked()
	return true
}

// SetVisible toggles an entry without rebuilding; only the render group's
// visibility and the aggregate stats change. Unknown ids are a no-op.
func (s *Scene) SetVisible(id int, visible bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.ID != id {
			continue
		}
		entry.Visible = visible
		if entry.Group != nil {
			entry.Group.SetVisible(visible)
		}
		s.stats = s.statsLocked()
		return true
	}
	return false
}

// SetView rebuilds every entry's buffers and render group under a changed
// display configuration. The entry set and shared origin are unaffected.
func (s *Scene) SetView(view ViewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked(view)
}

// Center returns the shared origin: the centroid of the bounding box over
// every loaded entry's raw vertices.
func (s *Scene) Center() mathx.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center
}

// Stats returns triangle and vertex totals over visible entries.
func (s *Scene) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Len returns the number of loaded entries.
func (s *Scene) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns a snapshot of the entry list in load order.
func (s *Scene) Entries() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// VisibleSphere returns the bounding sphere over all visible entries'
// centered geometry. ok is false when nothing is visible.
func (s *Scene) VisibleSphere() (sphere mesh.Sphere, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleSphereLocked()
}

func (s *Scene) visibleSphereLocked() (mesh.Sphere, bool) {
	box := mesh.EmptyBox()
	for _, entry := range s.entries {
		if !entry.Visible || entry.Buffers == nil {
			continue
		}
		box = box.Union(entry.Buffers.Bounds)
	}
	if box.IsEmpty() {
		return mesh.Sphere{}, false
	}
	return box.BoundingSphere(), true
}

// rebuildLocked recomputes the shared origin over the union of all raw
// vertices and rebuilds every entry against it — including entries whose
// data did not change, since their offset from the new origin did. Each
// entry's new render group is fully constructed before the old one is
// released.
func (s *Scene) rebuildLocked(view ViewState) error {
	box := mesh.EmptyBox()
	for _, entry := range s.entries {
		box = box.Union(mesh.RawBounds(entry.Data))
	}
	s.center = box.Center()

	var firstErr error
	for _, entry := range s.entries {
		entry.Buffers = mesh.Build(entry.Data, s.center, view.ColorMode)

		if s.builder == nil {
			continue
		}
		group, err := s.builder.Build(entry.Name, entry.Buffers, view)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("building render group for %q: %w", entry.Name, err)
			}
			continue
		}
		group.SetVisible(entry.Visible)
		if entry.Group != nil {
			entry.Group.Release()
		}
		entry.Group = group
	}

	s.stats = s.statsLocked()
	return firstErr
}

func (s *Scene) statsLocked() Stats {
	var stats Stats
	for _, entry := range s.entries {
		if !entry.Visible {
			continue
		}
		stats.Triangles += entry.Data.TriangleCount()
		stats.Vertices += entry.Data.VertexCount()
	}
	return stats
}

func (s *Scene) refitLocked() {
	if s.OnRefit == nil {
		return
	}
	if sphere, ok := s.visibleSphereLocked(); ok {
		s.OnRefit(sphere.Center, sphere.Radius)
	}
}
