package mesh

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorMode selects how per-vertex colors are derived.
type ColorMode int

// Color modes.
const (
	// ColorFlat paints every vertex with one reference color.
	ColorFlat ColorMode = iota
	// ColorHeight ramps hue from blue to red over the z range.
	ColorHeight
	// ColorIndex ramps hue over triangles in index order.
	ColorIndex
)

// String returns the mode name as used in config files and the UI.
func (m ColorMode) String() string {
	switch m {
	case ColorHeight:
		return "height"
	case ColorIndex:
		return "index"
	default:
		return "flat"
	}
}

// ParseColorMode converts a mode name back to a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "flat":
		return ColorFlat, nil
	case "height":
		return ColorHeight, nil
	case "index":
		return ColorIndex, nil
	}
	return ColorFlat, fmt.Errorf("unknown color mode %q", s)
}

// Ramp parameters. Height sweeps hue 240° (blue) down to 0° (red); index
// covers 90% of the hue circle so triangle 0 and triangle N-1 stay
// distinguishable.
const (
	rampSaturation = 1.0
	rampLightness  = 0.5
	heightHueMax   = 240.0
	indexHueSpan   = 0.9
)

// flatColor is the reference color for flat shading.
var flatColor = [3]float32{0.45, 0.65, 0.85}

// Colors produces exactly one RGB triple per vertex under the given mode.
// positions must already be centered; indices are only consulted by the
// index mode.
func Colors(positions []float32, indices []uint32, mode ColorMode) []float32 {
	vertexCount := len(positions) / 3
	colors := make([]float32, vertexCount*3)

	// Every mode starts from the flat reference so unreferenced vertices
	// always end up with a defined color.
	for i := 0; i < vertexCount; i++ {
		colors[i*3] = flatColor[0]
		colors[i*3+1] = flatColor[1]
		colors[i*3+2] = flatColor[2]
	}

	switch mode {
	case ColorHeight:
		colorByHeight(positions, colors)
	case ColorIndex:
		colorByTriangleIndex(indices, colors)
	}

	return colors
}

// colorByHeight maps each vertex's z linearly from [minZ, maxZ] onto the
// blue→red hue sweep. A flat mesh (minZ == maxZ) uses range 1 so every
// vertex lands on the low end uniformly.
func colorByHeight(positions, colors []float32) {
	vertexCount := len(positions) / 3
	if vertexCount == 0 {
		return
	}

	minZ, maxZ := positions[2], positions[2]
	for i := 1; i < vertexCount; i++ {
		z := positions[i*3+2]
		if z < minZ {
			minZ = z
		}
		if z > maxZ {
			maxZ = z
		}
	}

	zRange := maxZ - minZ
	if zRange == 0 {
		zRange = 1
	}

	for i := 0; i < vertexCount; i++ {
		t := (positions[i*3+2] - minZ) / zRange
		hue := heightHueMax * (1 - float64(t))
		setHSL(colors, i, hue)
	}
}

// colorByTriangleIndex assigns triangle t of N the hue (t/N)·0.9 of the
// circle and writes it to all three of its vertices. Shared vertices keep
// the color of the last triangle that touches them.
func colorByTriangleIndex(indices []uint32, colors []float32) {
	triangleCount := len(indices) / 3
	if triangleCount == 0 {
		return
	}

	for t := 0; t < triangleCount; t++ {
		hue := float64(t) / float64(triangleCount) * indexHueSpan * 360.0
		for k := 0; k < 3; k++ {
			setHSL(colors, int(indices[t*3+k]), hue)
		}
	}
}

func setHSL(colors []float32, vertex int, hue float64) {
	c := colorful.Hsl(hue, rampSaturation, rampLightness)
	colors[vertex*3] = float32(c.R)
	colors[vertex*3+1] = float32(c.G)
	colors[vertex*3+2] = float32(c.B)
}
