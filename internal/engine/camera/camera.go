// Package camera provides the orbit camera and the sphere-fitting logic
// that frames loaded geometry.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Mr-akami/indices-vertices-visualizer/pkg/mathx"
)

// Framing constants: distance, clip planes and helper sizing all scale
// with the bounding-sphere radius so depth precision holds from
// centimeter-scale test meshes up to kilometer-scale survey data.
const (
	FitDistanceFactor = 2.5
	NearPlaneFactor   = 0.01
	FarPlaneFactor    = 100.0
)

// fitDirection is the fixed oblique direction the camera backs away along
// when framing a sphere.
var fitDirection = mathx.V3(1, 1, 1).Normalize()

// OrbitCamera orbits a target point at a distance, with pitch and yaw.
type OrbitCamera struct {
	Target    mathx.Vec3
	Distance  float32
	RotationX float32 // pitch, radians
	RotationY float32 // yaw, radians

	Near float32
	Far  float32
	FovY float32 // radians

	// HelperScale sizes grid and axes helpers proportionally to the last
	// fitted sphere.
	HelperScale float32

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32
}

// New creates an orbit camera with viewer defaults.
func New() *OrbitCamera {
	return &OrbitCamera{
		Distance:        10,
		RotationX:       0.6,
		RotationY:       0.4,
		Near:            0.1,
		Far:             1000,
		FovY:            math32.Pi / 4,
		HelperScale:     1,
		MinDistance:     0.01,
		MaxDistance:     1e7,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// FitSphere frames a bounding sphere: the camera backs away from the
// sphere center along the fixed oblique direction at 2.5 radii, and the
// clip planes scale with the radius (near 0.01r, far 100r).
func (c *OrbitCamera) FitSphere(center mathx.Vec3, radius float32) {
	if radius <= 0 {
		radius = 1
	}

	c.Target = center
	c.Distance = radius * FitDistanceFactor
	c.Near = radius * NearPlaneFactor
	c.Far = radius * FarPlaneFactor
	c.HelperScale = radius
	c.MaxDistance = c.Far

	// Pitch/yaw matching the fixed oblique fit direction.
	c.RotationX = math32.Asin(fitDirection.Y)
	c.RotationY = math32.Atan2(fitDirection.X, fitDirection.Z)
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mathx.Vec3 {
	cosX := math32.Cos(c.RotationX)
	offset := mathx.V3(
		cosX*math32.Sin(c.RotationY),
		math32.Sin(c.RotationX),
		cosX*math32.Cos(c.RotationY),
	).Scale(c.Distance)
	return c.Target.Add(offset)
}

// ViewMatrix returns the view matrix for the current pose.
func (c *OrbitCamera) ViewMatrix() mathx.Mat4 {
	return mathx.LookAt(c.Position(), c.Target, mathx.V3(0, 1, 0))
}

// ProjectionMatrix returns the perspective projection for an aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) mathx.Mat4 {
	return mathx.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// HandleDrag updates pitch and yaw from a mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity

	if c.RotationX < c.MinPitch {
		c.RotationX = c.MinPitch
	}
	if c.RotationX > c.MaxPitch {
		c.RotationX = c.MaxPitch
	}
}

// HandleZoom scales the orbit distance from scroll-wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// HandlePan shifts the target in the camera's screen plane. Speed scales
// with distance for a consistent feel at any zoom.
func (c *OrbitCamera) HandlePan(deltaX, deltaY float32) {
	speed := c.Distance * 0.002

	right := mathx.V3(math32.Cos(c.RotationY), 0, -math32.Sin(c.RotationY))
	up := mathx.V3(0, 1, 0)

	c.Target = c.Target.
		Add(right.Scale(-deltaX * speed)).
		Add(up.Scale(deltaY * speed))
}
