package quarkgl

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// OrbitControls orbits a camera around a target point, keeping the camera's
// up direction. It does not depend on any input system: callers feed
// Rotate, Zoom and Pan and then call Update.
type OrbitControls struct {
	Camera *PerspectiveCamera
	Target mgl64.Vec3

	MinDistance float64
	MaxDistance float64
	// Polar angle limits in radians, measured from the up axis.
	MinPolarAngle float64
	MaxPolarAngle float64

	// Sensitivities: radians per pixel, scale per wheel notch, and a
	// multiplier on the pan distance.
	RotateSpeed float64
	ZoomSpeed   float64
	PanSpeed    float64

	deltaTheta float64
	deltaPhi   float64
	scale      float64
	pan        mgl64.Vec3
}

// NewOrbitControls attaches controls to cam.
func NewOrbitControls(cam *PerspectiveCamera) *OrbitControls {
	return &OrbitControls{
		Camera:        cam,
		MinDistance:   0,
		MaxDistance:   math.Inf(1),
		MinPolarAngle: 0,
		MaxPolarAngle: math.Pi,
		RotateSpeed:   0.005,
		ZoomSpeed:     0.95,
		PanSpeed:      1,
		scale:         1,
	}
}

// Rotate queues an orbit by pixel deltas; positive dx orbits left.
func (c *OrbitControls) Rotate(dx, dy float64) {
	c.deltaTheta -= dx * c.RotateSpeed
	c.deltaPhi -= dy * c.RotateSpeed
}

// Zoom queues a dolly by wheel notches; positive values move closer.
func (c *OrbitControls) Zoom(notches float64) {
	c.scale *= math.Pow(c.ZoomSpeed, notches)
}

// Pan queues a translation of camera and target by pixel deltas on a
// viewport of the given height.
func (c *OrbitControls) Pan(dx, dy float64, viewHeight int) {
	if c.Camera == nil || viewHeight <= 0 {
		return
	}
	offset := c.Camera.Position.Sub(c.Target)
	dist := offset.Len() * math.Tan(mgl64.DegToRad(c.Camera.FOV)/2)
	perPixel := 2 * dist / float64(viewHeight) * c.PanSpeed

	forward := offset.Mul(-1)
	right := forward.Cross(c.up())
	if right.Len() < 1e-12 {
		return
	}
	right = right.Normalize()
	camUp := right.Cross(forward).Normalize()
	c.pan = c.pan.Add(right.Mul(-dx * perPixel)).Add(camUp.Mul(dy * perPixel))
}

func (c *OrbitControls) up() mgl64.Vec3 {
	up := c.Camera.Up
	if up == (mgl64.Vec3{}) {
		up = mgl64.Vec3{0, 1, 0}
	}
	return up.Normalize()
}

// Update applies queued input and points the camera at the target.
func (c *OrbitControls) Update() {
	cam := c.Camera
	if cam == nil {
		return
	}
	up := c.up()
	// Work in a frame where up is +Y.
	toY := mgl64.QuatIdent()
	if up.Sub(mgl64.Vec3{0, 1, 0}).Len() > 1e-12 {
		toY = mgl64.QuatBetweenVectors(up, mgl64.Vec3{0, 1, 0})
	}
	offset := toY.Rotate(cam.Position.Sub(c.Target))

	radius := offset.Len()
	theta := math.Atan2(offset[0], offset[2])
	phi := 0.0
	if radius > 0 {
		phi = math.Acos(clampF64(offset[1]/radius, -1, 1))
	}

	theta += c.deltaTheta
	phi = clampF64(phi+c.deltaPhi, math.Max(c.MinPolarAngle, 1e-6), math.Min(c.MaxPolarAngle, math.Pi-1e-6))
	radius = clampF64(radius*c.scale, c.MinDistance, c.MaxDistance)

	sp, cp := math.Sincos(phi)
	st, ct := math.Sincos(theta)
	offset = mgl64.Vec3{radius * sp * st, radius * cp, radius * sp * ct}

	c.Target = c.Target.Add(c.pan)
	cam.Position = c.Target.Add(toY.Conjugate().Rotate(offset))
	cam.LookAt(c.Target)

	c.deltaTheta, c.deltaPhi = 0, 0
	c.scale = 1
	c.pan = mgl64.Vec3{}
}

func clampF64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
