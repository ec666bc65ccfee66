package engine

import "github.com/go-gl/mathgl/mgl32"

const (
	DefaultFOV  = 45
	DefaultNear = 0.1
	DefaultFar  = 1000
)

// Camera is positioned like any entity; the pipeline uses the inverse of
// its matrix as the view.
type Camera struct {
	Base
	FOV    float32 // vertical, degrees
	Aspect float32
	Near   float32
	Far    float32
}

func NewCamera(width, height int) *Camera {
	c := &Camera{FOV: DefaultFOV, Near: DefaultNear, Far: DefaultFar, Aspect: 1}
	c.SetViewport(width, height)
	return c
}

// SetViewport updates the aspect ratio. A zero height (minimised window)
// keeps the previous value.
func (c *Camera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// View is the inverse of the camera's own transform.
func (c *Camera) View() mgl32.Mat4 {
	return c.MakeMatrix().Inv()
}
