package scene

import (
	"errors"
	"testing"
	"time"

	"github.com/chewxy/math32"

	"github.com/Mr-akami/indices-vertices-visualizer/internal/engine/mesh"
	"github.com/Mr-akami/indices-vertices-visualizer/pkg/formats"
	"github.com/Mr-akami/indices-vertices-visualizer/pkg/mathx"
)

func approx(a, b float32) bool {
	return math32.Abs(a-b) < 1e-5
}

// fakeGroup records lifecycle calls so ownership can be asserted.
type fakeGroup struct {
	visible  bool
	released int
}

func (g *fakeGroup) SetVisible(v bool) { g.visible = v }
func (g *fakeGroup) Release()          { g.released++ }

// fakeBuilder builds fakeGroups and keeps every group it ever made.
type fakeBuilder struct {
	groups []*fakeGroup
	fail   bool
}

func (b *fakeBuilder) Build(name string, buffers *mesh.RenderBuffers, view ViewState) (RenderGroup, error) {
	if b.fail {
		return nil, errors.New("no gl context")
	}
	g := &fakeGroup{}
	b.groups = append(b.groups, g)
	return g, nil
}

func triangleAt(name string, offset float32) *formats.RawSurface {
	return &formats.RawSurface{
		Name: name,
		Vertices: []float32{
			offset, 0, 0,
			offset + 1, 0, 0,
			offset, 1, 0,
		},
		Indices: []uint32{0, 1, 2},
	}
}

func TestAddSingleEntry(t *testing.T) {
	s := New(nil)
	view := DefaultViewState()

	entry, err := s.Add("tri", triangleAt("tri", 0), view)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if entry.ID != 1 || !entry.Visible {
		t.Errorf("entry = %+v", entry)
	}

	stats := s.Stats()
	if stats.Triangles != 1 || stats.Vertices != 3 {
		t.Errorf("stats = %+v, expected 1 triangle, 3 vertices", stats)
	}

	// With one entry the shared origin is its own bounding-box center, so
	// the centered geometry straddles the origin.
	center := s.Center()
	if !approx(center.X, 0.5) || !approx(center.Y, 0.5) || !approx(center.Z, 0) {
		t.Errorf("center = %v, expected (0.5, 0.5, 0)", center)
	}
	if entry.Buffers == nil {
		t.Fatal("entry has no buffers")
	}
	if c := entry.Buffers.Bounds.Center(); !approx(c.X, 0) || !approx(c.Y, 0) {
		t.Errorf("centered bounds center = %v, expected origin", c)
	}
}

func TestAddRebuildsEveryEntry(t *testing.T) {
	s := New(nil)
	view := DefaultViewState()

	first, _ := s.Add("a", triangleAt("a", 0), view)
	firstBuffers := first.Buffers

	// The second entry shifts the union box, so the first entry's buffers
	// must be rebuilt against the new center.
	if _, err := s.Add("b", triangleAt("b", 10), view); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if first.Buffers == firstBuffers {
		t.Error("first entry's buffers were not rebuilt on add")
	}
	center := s.Center()
	if !approx(center.X, 5.5) {
		t.Errorf("center.X = %f, expected 5.5", center.X)
	}
}

func TestAddThenRemoveRestoresState(t *testing.T) {
	s := New(nil)
	view := DefaultViewState()

	base, _ := s.Add("base", triangleAt("base", 0), view)
	beforeCenter := s.Center()
	beforeStats := s.Stats()

	extra, _ := s.Add("extra", triangleAt("extra", 100), view)
	if s.Stats().Triangles != 2 {
		t.Fatalf("stats after add = %+v", s.Stats())
	}

	if !s.Remove(extra.ID, view) {
		t.Fatal("Remove returned false for a present id")
	}

	afterCenter := s.Center()
	afterStats := s.Stats()
	if afterStats != beforeStats {
		t.Errorf("stats not restored: before %+v, after %+v", beforeStats, afterStats)
	}
	if !approx(afterCenter.X, beforeCenter.X) || !approx(afterCenter.Y, beforeCenter.Y) || !approx(afterCenter.Z, beforeCenter.Z) {
		t.Errorf("center not restored: before %v, after %v", beforeCenter, afterCenter)
	}
	_ = base
}

func TestRemoveUnknownIDIsNoop(t *testing.T) {
	s := New(nil)
	view := DefaultViewState()
	s.Add("a", triangleAt("a", 0), view)

	if s.Remove(999, view) {
		t.Error("Remove of unknown id returned true")
	}
	if s.Len() != 1 {
		t.Errorf("entry count = %d, expected 1", s.Len())
	}
}

func TestCenterRecomputationIsIdempotent(t *testing.T) {
	s := New(nil)
	view := DefaultViewState()
	s.Add("a", triangleAt("a", 3), view)
	s.Add("b", triangleAt("b", -7), view)

	before := s.Center()
	if err := s.SetView(view); err != nil {
		t.Fatalf("SetView failed: %v", err)
	}
	after := s.Center()

	if !approx(before.X, after.X) || !approx(before.Y, after.Y) || !approx(before.Z, after.Z) {
		t.Errorf("center drifted on rebuild: %v -> %v", before, after)
	}
}

func TestSetVisibleUpdatesStatsWithoutRebuild(t *testing.T) {
	builder := &fakeBuilder{}
	s := New(builder)
	view := DefaultViewState()

	entry, err := s.Add("a", triangleAt("a", 0), view)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	built := len(builder.groups)

	if !s.SetVisible(entry.ID, false) {
		t.Fatal("SetVisible returned false")
	}

	if len(builder.groups) != built {
		t.Error("SetVisible triggered a rebuild")
	}
	if s.Stats() != (Stats{}) {
		t.Errorf("stats with everything hidden = %+v, expected zero", s.Stats())
	}
	if builder.groups[len(builder.groups)-1].visible {
		t.Error("render group still visible")
	}

	s.SetVisible(entry.ID, true)
	if s.Stats().Triangles != 1 {
		t.Errorf("stats after reshow = %+v", s.Stats())
	}
}

func TestGroupLifecycle(t *testing.T) {
	builder := &fakeBuilder{}
	s := New(builder)
	view := DefaultViewState()

	entry, err := s.Add("a", triangleAt("a", 0), view)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	firstGroup := builder.groups[0]

	// Adding a second entry rebuilds both; the first group must be
	// released exactly once, after its replacement exists.
	if _, err := s.Add("b", triangleAt("b", 5), view); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if firstGroup.released != 1 {
		t.Errorf("first group released %d times, expected 1", firstGroup.released)
	}

	// Removing releases the entry's current group exactly once.
	current := entry.Group.(*fakeGroup)
	s.Remove(entry.ID, view)
	if current.released != 1 {
		t.Errorf("removed entry's group released %d times, expected 1", current.released)
	}
}

func TestBuilderFailureKeepsSceneConsistent(t *testing.T) {
	builder := &fakeBuilder{fail: true}
	s := New(builder)
	view := DefaultViewState()

	entry, err := s.Add("a", triangleAt("a", 0), view)
	if err == nil {
		t.Fatal("expected builder error from Add")
	}
	// The entry is still registered, with buffers, usable headless.
	if entry == nil || entry.Buffers == nil {
		t.Fatal("entry missing despite non-fatal builder error")
	}
	if s.Stats().Triangles != 1 {
		t.Errorf("stats = %+v", s.Stats())
	}
}

func TestVisibleSphere(t *testing.T) {
	s := New(nil)
	view := DefaultViewState()

	if _, ok := s.VisibleSphere(); ok {
		t.Error("empty scene reported a visible sphere")
	}

	entry, _ := s.Add("a", triangleAt("a", 0), view)
	sphere, ok := s.VisibleSphere()
	if !ok {
		t.Fatal("no sphere with a visible entry")
	}
	if sphere.Radius <= 0 {
		t.Errorf("radius = %f", sphere.Radius)
	}

	s.SetVisible(entry.ID, false)
	if _, ok := s.VisibleSphere(); ok {
		t.Error("hidden-only scene reported a visible sphere")
	}
}

func TestRefitFiresOnlyWithVisibleGeometry(t *testing.T) {
	s := New(nil)
	view := DefaultViewState()

	var refits int
	var lastRadius float32
	s.OnRefit = func(center mathx.Vec3, radius float32) {
		refits++
		lastRadius = radius
	}

	entry, _ := s.Add("a", triangleAt("a", 0), view)
	if refits != 1 || lastRadius <= 0 {
		t.Fatalf("refits = %d, radius = %f", refits, lastRadius)
	}

	// Removing the last entry leaves nothing visible: no refit.
	s.Remove(entry.ID, view)
	if refits != 1 {
		t.Errorf("refit fired on empty scene: %d calls", refits)
	}
}

func TestLoaderConcreteScenario(t *testing.T) {
	// The canonical single-triangle JSON load, end to end through the
	// async loader and into the scene.
	loader := NewLoader()
	loader.Load("tri.json", []byte(`{"vertices":[0,0,0, 1,0,0, 0,1,0], "indices":[0,1,2]}`))

	result := waitForResult(t, loader)
	if result.Err != nil {
		t.Fatalf("load failed: %v", result.Err)
	}
	if len(result.Surfaces) != 1 {
		t.Fatalf("got %d surfaces", len(result.Surfaces))
	}

	s := New(nil)
	view := DefaultViewState()
	view.ColorMode = mesh.ColorFlat

	entry, err := s.Add(result.Surfaces[0].Name, result.Surfaces[0], view)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	stats := s.Stats()
	if stats.Triangles != 1 || stats.Vertices != 3 {
		t.Errorf("stats = %+v", stats)
	}

	// Flat mode: one uniform RGB triple repeated three times.
	c := entry.Buffers.Colors
	for i := 3; i < len(c); i++ {
		if c[i] != c[i%3] {
			t.Fatalf("flat colors not uniform: %v", c)
		}
	}

	// Centered on its own bounding-box center.
	if bc := entry.Buffers.Bounds.Center(); !approx(bc.X, 0) || !approx(bc.Y, 0) || !approx(bc.Z, 0) {
		t.Errorf("bounds center = %v", bc)
	}
}

func TestLoaderFailureLeavesSceneUntouched(t *testing.T) {
	loader := NewLoader()
	loader.Load("broken.json", []byte(`{"indices":[0,1,2]}`))

	result := waitForResult(t, loader)
	if !errors.Is(result.Err, formats.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", result.Err)
	}
	if result.Surfaces != nil {
		t.Error("failed load delivered surfaces")
	}
}

func TestLoaderSequentialAdds(t *testing.T) {
	// Two files dropped "simultaneously" arrive as independent results and
	// become sequential adds; the final state must contain both exactly
	// once.
	loader := NewLoader()
	loader.Load("a.json", []byte(`{"vertices":[0,0,0, 1,0,0, 0,1,0], "indices":[0,1,2]}`))
	loader.Load("b.json", []byte(`{"vertices":[5,0,0, 6,0,0, 5,1,0], "indices":[0,1,2]}`))

	s := New(nil)
	view := DefaultViewState()

	for applied := 0; applied < 2; {
		result, ok := loader.Poll()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		if result.Err != nil {
			t.Fatalf("load failed: %v", result.Err)
		}
		for _, surface := range result.Surfaces {
			if _, err := s.Add(surface.Name, surface, view); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
		}
		applied++
	}

	if s.Len() != 2 {
		t.Fatalf("entry count = %d, expected 2", s.Len())
	}
	if s.Stats().Triangles != 2 || s.Stats().Vertices != 6 {
		t.Errorf("stats = %+v", s.Stats())
	}
}

func waitForResult(t *testing.T, loader *Loader) LoadResult {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if result, ok := loader.Poll(); ok {
			return result
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for loader result")
	return LoadResult{}
}
