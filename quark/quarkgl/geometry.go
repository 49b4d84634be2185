package quarkgl

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Geometry is an indexed triangle list in object space.
type Geometry struct {
	Positions []mgl64.Vec3
	Indices   []uint32
}

// Material is a minimal surface description.
type Material struct {
	BaseColor Color
	Opacity   uint8 // 0..255. 255 means opaque.
	Wireframe bool
}

// Mesh pairs geometry with a material.
type Mesh struct {
	Geometry *Geometry
	Material Material
}

// Triangles returns the number of triangles.
func (g *Geometry) Triangles() int {
	if g == nil {
		return 0
	}
	return len(g.Indices) / 3
}

func (g *Geometry) quad(a, b, c, d uint32) {
	g.Indices = append(g.Indices, a, b, c, a, c, d)
}

// PlaneGeometry is a rectangle in the XY plane facing +Z.
func PlaneGeometry(hx, hy float64) *Geometry {
	g := &Geometry{Positions: []mgl64.Vec3{
		{-hx, -hy, 0}, {hx, -hy, 0}, {hx, hy, 0}, {-hx, hy, 0},
	}}
	g.quad(0, 1, 2, 3)
	return g
}

// GridGeometry is a subdivided plane. Large floors need subdivision because
// triangles crossing the near plane are dropped whole.
func GridGeometry(hx, hy float64, div int) *Geometry {
	if div < 1 {
		div = 1
	}
	g := &Geometry{}
	n := div + 1
	for j := 0; j < n; j++ {
		y := -hy + 2*hy*float64(j)/float64(div)
		for i := 0; i < n; i++ {
			x := -hx + 2*hx*float64(i)/float64(div)
			g.Positions = append(g.Positions, mgl64.Vec3{x, y, 0})
		}
	}
	for j := 0; j < div; j++ {
		for i := 0; i < div; i++ {
			a := uint32(j*n + i)
			g.quad(a, a+1, a+1+uint32(n), a+uint32(n))
		}
	}
	return g
}

// BoxGeometry is an axis aligned box with the given half extents.
func BoxGeometry(hx, hy, hz float64) *Geometry {
	g := &Geometry{Positions: []mgl64.Vec3{
		{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {-hx, hy, -hz},
		{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz},
	}}
	g.quad(0, 3, 2, 1) // -z
	g.quad(4, 5, 6, 7) // +z
	g.quad(0, 1, 5, 4) // -y
	g.quad(2, 3, 7, 6) // +y
	g.quad(1, 2, 6, 5) // +x
	g.quad(3, 0, 4, 7) // -x
	return g
}

// EllipsoidGeometry is a UV sphere scaled by the three radii.
func EllipsoidGeometry(rx, ry, rz float64, segments, rings int) *Geometry {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}
	g := &Geometry{}
	for j := 0; j <= rings; j++ {
		phi := math.Pi * float64(j) / float64(rings)
		sp, cp := math.Sincos(phi)
		for i := 0; i <= segments; i++ {
			th := 2 * math.Pi * float64(i) / float64(segments)
			st, ct := math.Sincos(th)
			g.Positions = append(g.Positions, mgl64.Vec3{rx * sp * ct, ry * sp * st, rz * cp})
		}
	}
	stride := uint32(segments + 1)
	for j := 0; j < rings; j++ {
		for i := 0; i < segments; i++ {
			a := uint32(j)*stride + uint32(i)
			g.quad(a, a+stride, a+stride+1, a+1)
		}
	}
	return g
}

// SphereGeometry is a UV sphere.
func SphereGeometry(r float64, segments, rings int) *Geometry {
	return EllipsoidGeometry(r, r, r, segments, rings)
}

// CylinderGeometry is a capped cylinder along Z.
func CylinderGeometry(r, halfLen float64, segments int) *Geometry {
	if segments < 3 {
		segments = 3
	}
	g := &Geometry{}
	for i := 0; i < segments; i++ {
		th := 2 * math.Pi * float64(i) / float64(segments)
		s, c := math.Sincos(th)
		g.Positions = append(g.Positions, mgl64.Vec3{r * c, r * s, -halfLen}, mgl64.Vec3{r * c, r * s, halfLen})
	}
	bottom := uint32(len(g.Positions))
	g.Positions = append(g.Positions, mgl64.Vec3{0, 0, -halfLen}, mgl64.Vec3{0, 0, halfLen})
	top := bottom + 1
	n := uint32(segments)
	for i := uint32(0); i < n; i++ {
		a0, a1 := 2*i, 2*i+1
		b0, b1 := 2*((i+1)%n), 2*((i+1)%n)+1
		g.quad(a0, b0, b1, a1)
		g.Indices = append(g.Indices, bottom, b0, a0, top, a1, b1)
	}
	return g
}

// CapsuleGeometry is a cylinder along Z with hemispherical caps.
func CapsuleGeometry(r, halfLen float64, segments, rings int) *Geometry {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}
	// Two hemispheres of rings/2 bands each; the band joining their
	// equators is the cylinder wall.
	half := (rings + 1) / 2
	g := &Geometry{}
	rows := 0
	for side, off := range [2]float64{halfLen, -halfLen} {
		for j := 0; j <= half; j++ {
			phi := math.Pi/2*float64(side) + math.Pi/2*float64(j)/float64(half)
			sp, cp := math.Sincos(phi)
			for i := 0; i <= segments; i++ {
				th := 2 * math.Pi * float64(i) / float64(segments)
				st, ct := math.Sincos(th)
				g.Positions = append(g.Positions, mgl64.Vec3{r * sp * ct, r * sp * st, r*cp + off})
			}
			rows++
		}
	}
	stride := uint32(segments + 1)
	for j := 0; j < rows-1; j++ {
		for i := 0; i < segments; i++ {
			a := uint32(j)*stride + uint32(i)
			g.quad(a, a+stride, a+stride+1, a+1)
		}
	}
	return g
}
