package quarkgl

import "github.com/go-gl/mathgl/mgl64"

// PerspectiveCamera is a pinhole camera. FOV is the vertical field of view in
// degrees. After changing FOV, Aspect, Near or Far call
// UpdateProjectionMatrix.
type PerspectiveCamera struct {
	Position mgl64.Vec3
	Up       mgl64.Vec3

	FOV    float64
	Aspect float64
	Near   float64
	Far    float64

	target     mgl64.Vec3
	projection mgl64.Mat4
}

// NewPerspectiveCamera returns a camera at the origin looking down -Z.
func NewPerspectiveCamera(fov, aspect, near, far float64) *PerspectiveCamera {
	c := &PerspectiveCamera{
		Up:     mgl64.Vec3{0, 1, 0},
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		target: mgl64.Vec3{0, 0, -1},
	}
	c.UpdateProjectionMatrix()
	return c
}

// UpdateProjectionMatrix recomputes the projection from FOV, Aspect, Near and Far.
func (c *PerspectiveCamera) UpdateProjectionMatrix() {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	c.projection = mgl64.Perspective(mgl64.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// ProjectionMatrix returns the matrix computed by the last UpdateProjectionMatrix.
func (c *PerspectiveCamera) ProjectionMatrix() mgl64.Mat4 { return c.projection }

// SetPosition moves the camera without changing its target.
func (c *PerspectiveCamera) SetPosition(x, y, z float64) { c.Position = mgl64.Vec3{x, y, z} }

// LookAt points the camera at target.
func (c *PerspectiveCamera) LookAt(target mgl64.Vec3) { c.target = target }

// Target returns the point the camera looks at.
func (c *PerspectiveCamera) Target() mgl64.Vec3 { return c.target }

// ViewMatrix returns the world to camera transform.
func (c *PerspectiveCamera) ViewMatrix() mgl64.Mat4 {
	up := c.Up
	if up == (mgl64.Vec3{}) {
		up = mgl64.Vec3{0, 1, 0}
	}
	return mgl64.LookAtV(c.Position, c.target, up)
}
