package scene

import (
	"fmt"

	"github.com/Mr-akami/indices-vertices-visualizer/internal/engine/mesh"
)

// FaceSide selects which triangle sides are rendered.
type FaceSide int

// Face side options.
const (
	FaceFront FaceSide = iota
	FaceBack
	FaceDouble
)

// String returns the side name as used in config files and the UI.
func (f FaceSide) String() string {
	switch f {
	case FaceBack:
		return "back"
	case FaceDouble:
		return "double"
	default:
		return "front"
	}
}

// ParseFaceSide converts a side name back to a FaceSide.
func ParseFaceSide(s string) (FaceSide, error) {
	switch s {
	case "front":
		return FaceFront, nil
	case "back":
		return FaceBack, nil
	case "double":
		return FaceDouble, nil
	}
	return FaceFront, fmt.Errorf("unknown face side %q", s)
}

// ViewState is the viewer's display configuration. It is owned by the
// application shell and passed explicitly into rebuild calls; nothing in
// the core reads it ambiently.
type ViewState struct {
	Wireframe    bool
	ShowVertices bool
	ShowNormals  bool
	ShowAxes     bool
	ShowGrid     bool
	ShowIndices  bool
	ColorMode    mesh.ColorMode
	Opacity      float32
	PointSize    float32
	FaceSide     FaceSide
}

// DefaultViewState returns the startup display configuration.
func DefaultViewState() ViewState {
	return ViewState{
		ShowAxes:  true,
		ShowGrid:  true,
		ColorMode: mesh.ColorHeight,
		Opacity:   1.0,
		PointSize: 3.0,
		FaceSide:  FaceDouble,
	}
}

// Clamp forces opacity into [0, 1] and point size above zero.
func (v *ViewState) Clamp() {
	if v.Opacity < 0 {
		v.Opacity = 0
	}
	if v.Opacity > 1 {
		v.Opacity = 1
	}
	if v.PointSize <= 0 {
		v.PointSize = 1
	}
}
