package quarkgl

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"
)

// Renderer is a fixed-pipeline software renderer drawing into an
// *image.RGBA surface it owns.
//
// Create it once and reuse it; scratch buffers are kept between frames.
type Renderer struct {
	Mode       RenderMode
	Depth      bool
	ClearColor Color
	// Ambient is added to every light's ambient term.
	Ambient float64

	surface  *image.RGBA
	target   RGBATarget
	depthBuf []float32

	world []mgl64.Vec3
	clip  []mgl64.Vec4

	stats RenderStats
}

// RenderStats describes the last frame.
type RenderStats struct {
	Meshes    int
	Triangles int
	Culled    int
}

// NewRenderer creates a renderer with a w×h surface and a depth buffer.
func NewRenderer(w, h int) *Renderer {
	r := &Renderer{
		Mode:       RenderSolidFlat,
		Depth:      true,
		ClearColor: RGB(0x1A, 0x1D, 0x24),
		Ambient:    0.25,
	}
	r.SetSize(w, h)
	return r
}

// SetSize resizes the drawing surface to exactly w×h pixels. Non-positive
// sizes are clamped to 1.
func (r *Renderer) SetSize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if r.surface != nil {
		b := r.surface.Bounds()
		if b.Dx() == w && b.Dy() == h {
			return
		}
	}
	r.surface = image.NewRGBA(image.Rect(0, 0, w, h))
	r.target = RGBATarget{Img: r.surface}
	if cap(r.depthBuf) < w*h {
		r.depthBuf = make([]float32, w*h)
	} else {
		r.depthBuf = r.depthBuf[:w*h]
	}
}

// Size returns the surface size.
func (r *Renderer) Size() (w, h int) { return r.target.Size() }

// Surface returns the image the renderer draws into. The pointer changes on
// SetSize.
func (r *Renderer) Surface() *image.RGBA { return r.surface }

// Target exposes the surface as a Target for overlays.
func (r *Renderer) Target() Target { return &r.target }

func (r *Renderer) SetRenderMode(m RenderMode) { r.Mode = m }

// Stats returns counters from the last Render.
func (r *Renderer) Stats() RenderStats { return r.stats }

func (r *Renderer) clearDepth() {
	for i := range r.depthBuf {
		r.depthBuf[i] = 1e9
	}
}

// Render draws the scene graph rooted at scene as seen by cam. Stale world
// matrices are refreshed first.
func (r *Renderer) Render(scene *Object, cam *PerspectiveCamera) {
	if r == nil || scene == nil || cam == nil {
		return
	}
	r.stats = RenderStats{}
	t := &r.target
	w, h := t.Size()
	if w <= 0 || h <= 0 {
		return
	}
	t.Clear(r.ClearColor)
	if r.Depth {
		r.clearDepth()
	}

	scene.UpdateMatrixWorld(false)
	lights, ambient := collectLights(scene)
	ambient = ambient.Add(mgl64.Vec3{r.Ambient, r.Ambient, r.Ambient})
	if len(lights) == 0 {
		// Headlight fallback so unlit scenes stay readable.
		lights = []litLight{{
			color:       mgl64.Vec3{0.75, 0.75, 0.75},
			directional: true,
			dir:         cam.Target().Sub(cam.Position).Normalize(),
		}}
	}

	vp := cam.ProjectionMatrix().Mul4(cam.ViewMatrix())
	scene.traverseVisible(func(o *Object) {
		if o.Mesh == nil || o.Mesh.Geometry == nil {
			return
		}
		r.stats.Meshes++
		r.renderMesh(t, w, h, vp, cam.Position, o, lights, ambient)
	})
}

func (r *Renderer) renderMesh(t Target, w, h int, vp mgl64.Mat4, eye mgl64.Vec3, o *Object, lights []litLight, ambient mgl64.Vec3) {
	g := o.Mesh.Geometry
	if len(g.Positions) == 0 || len(g.Indices) < 3 {
		return
	}
	model := o.MatrixWorld()
	mvp := vp.Mul4(model)

	n := len(g.Positions)
	if cap(r.world) < n {
		r.world = make([]mgl64.Vec3, n)
		r.clip = make([]mgl64.Vec4, n)
	}
	world, clip := r.world[:n], r.clip[:n]
	for i, p := range g.Positions {
		v := p.Vec4(1)
		world[i] = model.Mul4x1(v).Vec3()
		clip[i] = mvp.Mul4x1(v)
	}

	mat := o.Mesh.Material
	base := mat.BaseColor
	if mat.Opacity != 0 {
		base.A = mat.Opacity
	}
	wire := r.Mode == RenderWireframe || mat.Wireframe

	for i := 0; i+2 < len(g.Indices); i += 3 {
		i0, i1, i2 := int(g.Indices[i]), int(g.Indices[i+1]), int(g.Indices[i+2])
		if i0 >= n || i1 >= n || i2 >= n {
			continue
		}
		p0, p1, p2 := clip[i0], clip[i1], clip[i2]

		// Trivial clip: drop triangles with any vertex before the near plane or
		// all vertices outside one frustum plane.
		if nearClipped(p0) || nearClipped(p1) || nearClipped(p2) || outside(p0, p1, p2) {
			r.stats.Culled++
			continue
		}

		ndc0, ndc1, ndc2 := clipToNDC(p0), clipToNDC(p1), clipToNDC(p2)
		x0, y0 := ndcToScreen(ndc0, w, h)
		x1, y1 := ndcToScreen(ndc1, w, h)
		x2, y2 := ndcToScreen(ndc2, w, h)

		a, b, c := world[i0], world[i1], world[i2]
		normal := b.Sub(a).Cross(c.Sub(a))
		if normal.Len() == 0 {
			continue
		}
		normal = normal.Normalize()
		center := a.Add(b).Add(c).Mul(1.0 / 3)
		if normal.Dot(eye.Sub(center)) < 0 {
			normal = normal.Mul(-1)
		}
		li := shade(lights, ambient, center, normal)
		col := base.Tint(li[0], li[1], li[2])
		r.stats.Triangles++

		if wire {
			r.drawLine(t, x0, y0, x1, y1, col)
			r.drawLine(t, x1, y1, x2, y2, col)
			r.drawLine(t, x2, y2, x0, y0, col)
			continue
		}
		r.fillTriangleFlat(t, w, h, x0, y0, ndc0.Z, x1, y1, ndc1.Z, x2, y2, ndc2.Z, col)
	}
}

type ndcPoint struct {
	X, Y, Z float32
}

func clipToNDC(p mgl64.Vec4) ndcPoint {
	inv := 1 / p[3]
	return ndcPoint{X: float32(p[0] * inv), Y: float32(p[1] * inv), Z: float32(p[2] * inv)}
}

func nearClipped(p mgl64.Vec4) bool {
	return p[3] <= 1e-9 || p[2] < -p[3]
}

func outside(a, b, c mgl64.Vec4) bool {
	for axis := 0; axis < 3; axis++ {
		if a[axis] > a[3] && b[axis] > b[3] && c[axis] > c[3] {
			return true
		}
		if a[axis] < -a[3] && b[axis] < -b[3] && c[axis] < -c[3] {
			return true
		}
	}
	return false
}

func ndcToScreen(p ndcPoint, w, h int) (x, y int) {
	sx := (p.X*0.5 + 0.5) * float32(w-1)
	sy := (1 - (p.Y*0.5 + 0.5)) * float32(h-1)
	return int(sx + 0.5), int(sy + 0.5)
}

func (r *Renderer) depthTest(w int, x, y int, z float32) bool {
	if !r.Depth || r.depthBuf == nil {
		return true
	}
	idx := y*w + x
	if x < 0 || y < 0 || x >= w || idx >= len(r.depthBuf) {
		return false
	}
	// NDC z is in [-1,1]. Map to [0,1].
	d := z*0.5 + 0.5
	if d < 0 || d > 1 {
		return false
	}
	if d >= r.depthBuf[idx] {
		return false
	}
	r.depthBuf[idx] = d
	return true
}

func (r *Renderer) drawLine(t Target, x0, y0, x1, y1 int, c Color) {
	w, h := t.Size()
	// Lines fully on one side of the surface, or far longer than it, come
	// from vertices near the eye; skip them.
	if (x0 < 0 && x1 < 0) || (y0 < 0 && y1 < 0) || (x0 >= w && x1 >= w) || (y0 >= h && y1 >= h) {
		return
	}
	if absInt(x1-x0)+absInt(y1-y0) > 8*(w+h) {
		return
	}
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		t.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (r *Renderer) fillTriangleFlat(t Target, w, h int, x0, y0 int, z0 float32, x1, y1 int, z1 float32, x2, y2 int, z2 float32, c Color) {
	minX, maxX := min(x0, x1, x2), max(x0, x1, x2)
	minY, maxY := min(y0, y1, y2), max(y0, y1, y2)
	minX, minY = max(minX, 0), max(minY, 0)
	maxX, maxY = min(maxX, w-1), min(maxY, h-1)
	if minX > maxX || minY > maxY {
		return
	}

	area := edgeFn(x0, y0, x1, y1, x2, y2)
	if area == 0 {
		return
	}
	// Accept either winding.
	if area < 0 {
		x1, y1, z1, x2, y2, z2 = x2, y2, z2, x1, y1, z1
		area = -area
	}
	invArea := 1.0 / float32(area)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w0 := edgeFn(x1, y1, x2, y2, x, y)
			w1 := edgeFn(x2, y2, x0, y0, x, y)
			w2 := edgeFn(x0, y0, x1, y1, x, y)
			if (w0 | w1 | w2) < 0 {
				continue
			}
			z := float32(w0)*invArea*z0 + float32(w1)*invArea*z1 + float32(w2)*invArea*z2
			if !r.depthTest(w, x, y, z) {
				continue
			}
			t.SetPixel(x, y, c)
		}
	}
}

func edgeFn(x0, y0, x1, y1, x, y int) int {
	return (x-x0)*(y1-y0) - (y-y0)*(x1-x0)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
