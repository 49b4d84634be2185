package quarkgl

import (
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestObject_WorldMatrix(t *testing.T) {
	root := NewGroup("root")
	root.SetQuaternion(math.Cos(math.Pi/4), 0, 0, math.Sin(math.Pi/4)) // 90deg about z
	child := NewGroup("child")
	child.SetPosition(1, 0, 0)
	root.Add(child)

	root.UpdateMatrixWorld(false)
	got := child.WorldPosition()
	if !got.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Fatalf("child world pos = %v want (0, 1, 0)", got)
	}
	if child.Stale() || root.Stale() {
		t.Fatalf("matrices still stale after update")
	}

	child.SetPosition(2, 0, 0)
	if !child.Stale() {
		t.Fatalf("SetPosition did not mark stale")
	}
	root.UpdateMatrixWorld(false)
	if got := child.WorldPosition(); !got.ApproxEqualThreshold(mgl64.Vec3{0, 2, 0}, 1e-12) {
		t.Fatalf("child world pos after move = %v", got)
	}
}

func TestObject_DirectWriteNeedsMarkStale(t *testing.T) {
	o := NewGroup("o")
	o.UpdateMatrixWorld(false)

	o.Position = mgl64.Vec3{5, 0, 0}
	o.UpdateMatrixWorld(false)
	if got := o.WorldPosition(); got != (mgl64.Vec3{}) {
		t.Fatalf("cached matrix recomputed without MarkStale: %v", got)
	}
	o.MarkStale()
	o.UpdateMatrixWorld(false)
	if got := o.WorldPosition(); got != (mgl64.Vec3{5, 0, 0}) {
		t.Fatalf("world pos = %v want (5, 0, 0)", got)
	}
}

func TestObject_Reparent(t *testing.T) {
	a, b, c := NewGroup("a"), NewGroup("b"), NewGroup("c")
	a.Add(c)
	b.Add(c)
	if len(a.Children()) != 0 || len(b.Children()) != 1 || c.Parent() != b {
		t.Fatalf("reparent failed: a=%d b=%d", len(a.Children()), len(b.Children()))
	}
	n := 0
	b.Traverse(func(*Object) { n++ })
	if n != 2 {
		t.Fatalf("traverse visited %d nodes want 2", n)
	}
}

func TestSetQuaternion_StoresVerbatim(t *testing.T) {
	o := NewGroup("o")
	o.SetQuaternion(0, 0, 0, 1)
	if got := o.QuaternionWXYZ(); got != [4]float64{0, 0, 0, 1} {
		t.Fatalf("QuaternionWXYZ = %v", got)
	}
}

func TestCamera_Projection(t *testing.T) {
	cam := NewPerspectiveCamera(45, 2, 0.1, 100)
	p := cam.ProjectionMatrix()
	// For a perspective matrix m[1][1]/m[0][0] equals the aspect ratio.
	if r := p.At(1, 1) / p.At(0, 0); math.Abs(r-2) > 1e-12 {
		t.Fatalf("aspect from matrix = %v want 2", r)
	}
	cam.Aspect = 0.5
	cam.UpdateProjectionMatrix()
	p = cam.ProjectionMatrix()
	if r := p.At(1, 1) / p.At(0, 0); math.Abs(r-0.5) > 1e-12 {
		t.Fatalf("aspect after update = %v want 0.5", r)
	}
}

func TestOrbitControls_PreservesDistance(t *testing.T) {
	cam := NewPerspectiveCamera(45, 1, 0.001, 100)
	cam.SetPosition(2, 1.7, 1.7)
	c := NewOrbitControls(cam)
	c.Target = mgl64.Vec3{0, 0.7, 0}
	c.Update()

	d0 := cam.Position.Sub(c.Target).Len()
	if !cam.Position.ApproxEqualThreshold(mgl64.Vec3{2, 1.7, 1.7}, 1e-9) {
		t.Fatalf("initial update moved camera to %v", cam.Position)
	}
	if cam.Target() != c.Target {
		t.Fatalf("camera target = %v", cam.Target())
	}

	c.Rotate(100, 30)
	c.Update()
	if d := cam.Position.Sub(c.Target).Len(); math.Abs(d-d0) > 1e-9 {
		t.Fatalf("rotate changed distance %v -> %v", d0, d)
	}

	c.Zoom(1)
	c.Update()
	if d := cam.Position.Sub(c.Target).Len(); math.Abs(d-d0*c.ZoomSpeed) > 1e-9 {
		t.Fatalf("zoom distance = %v want %v", d, d0*c.ZoomSpeed)
	}

	before := c.Target
	offset := cam.Position.Sub(c.Target)
	c.Pan(10, 0, 100)
	c.Update()
	if c.Target == before {
		t.Fatalf("pan did not move target")
	}
	if got := cam.Position.Sub(c.Target); !got.ApproxEqualThreshold(offset, 1e-9) {
		t.Fatalf("pan changed camera offset %v -> %v", offset, got)
	}
}

func TestRenderer_SetSize(t *testing.T) {
	r := NewRenderer(64, 32)
	if w, h := r.Size(); w != 64 || h != 32 {
		t.Fatalf("size = %dx%d", w, h)
	}
	r.SetSize(100, 50)
	b := r.Surface().Bounds()
	if b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("surface = %v want 100x50", b)
	}
	r.SetSize(0, -3)
	if w, h := r.Size(); w != 1 || h != 1 {
		t.Fatalf("clamped size = %dx%d", w, h)
	}
}

func TestRenderer_DrawsVisibleMesh(t *testing.T) {
	r := NewRenderer(64, 64)
	cam := NewPerspectiveCamera(45, 1, 0.1, 100)
	cam.SetPosition(0, 0, 3)
	cam.LookAt(mgl64.Vec3{})
	cam.UpdateProjectionMatrix()

	scene := NewGroup("scene")
	box := NewMeshObject("box", BoxGeometry(0.5, 0.5, 0.5), Material{BaseColor: RGB(0xFF, 0, 0)})
	scene.Add(box)

	r.Render(scene, cam)
	center := r.Target().Pixel(32, 32)
	if center.R == r.ClearColor.R && center.G == r.ClearColor.G && center.B == r.ClearColor.B {
		t.Fatalf("center pixel is background")
	}
	if center.G != 0 || center.B != 0 || center.R == 0 {
		t.Fatalf("center pixel = %+v, want a shade of red", center)
	}
	corner := r.Target().Pixel(0, 0)
	if corner.R != r.ClearColor.R || corner.G != r.ClearColor.G {
		t.Fatalf("corner pixel = %+v, want background", corner)
	}
	if st := r.Stats(); st.Meshes != 1 || st.Triangles == 0 {
		t.Fatalf("stats = %+v", st)
	}

	box.Visible = false
	r.Render(scene, cam)
	if p := r.Target().Pixel(32, 32); p.R != r.ClearColor.R {
		t.Fatalf("hidden mesh still drawn: %+v", p)
	}
}

func TestRenderer_Wireframe(t *testing.T) {
	r := NewRenderer(64, 64)
	r.SetRenderMode(RenderWireframe)
	cam := NewPerspectiveCamera(45, 1, 0.1, 100)
	cam.SetPosition(0, 0, 3)
	cam.LookAt(mgl64.Vec3{})
	scene := NewGroup("scene")
	scene.Add(NewMeshObject("plane", PlaneGeometry(0.5, 0.5), Material{BaseColor: RGB(0xFF, 0xFF, 0xFF)}))

	r.Render(scene, cam)
	// (26, 26) is inside the quad but off both its edges and its diagonal.
	if p := r.Target().Pixel(26, 26); p.R != r.ClearColor.R {
		t.Fatalf("wireframe filled the interior: %+v", p)
	}
	if r.Stats().Triangles != 2 {
		t.Fatalf("triangles = %d want 2", r.Stats().Triangles)
	}
}

func TestGeometryBuilders(t *testing.T) {
	tests := []struct {
		name string
		g    *Geometry
	}{
		{"plane", PlaneGeometry(1, 1)},
		{"grid", GridGeometry(1, 1, 4)},
		{"box", BoxGeometry(1, 2, 3)},
		{"sphere", SphereGeometry(1, 8, 6)},
		{"ellipsoid", EllipsoidGeometry(1, 2, 3, 8, 6)},
		{"cylinder", CylinderGeometry(1, 2, 8)},
		{"capsule", CapsuleGeometry(1, 2, 8, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.g.Triangles() == 0 || len(tt.g.Indices)%3 != 0 {
				t.Fatalf("bad triangle list: %d indices", len(tt.g.Indices))
			}
			for _, i := range tt.g.Indices {
				if int(i) >= len(tt.g.Positions) {
					t.Fatalf("index %d out of range %d", i, len(tt.g.Positions))
				}
			}
		})
	}

	capsule := CapsuleGeometry(0.5, 1, 8, 6)
	top := 0.0
	for _, p := range capsule.Positions {
		top = math.Max(top, p[2])
	}
	if math.Abs(top-1.5) > 1e-12 {
		t.Fatalf("capsule top = %v want 1.5", top)
	}
}

func TestHUD_Draw(t *testing.T) {
	r := NewRenderer(120, 40)
	r.Target().Clear(RGB(0, 0, 0))
	h := NewHUD()
	h.Background = Color{}
	h.Color = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	h.Draw(r.Target(), []string{"quark 1.0"})

	lit := 0
	pix := r.Surface().Pix
	for i := 0; i < len(pix); i += 4 {
		if pix[i] == 0xFF {
			lit++
		}
	}
	if lit == 0 {
		t.Fatalf("HUD drew no pixels")
	}
}

func TestColor(t *testing.T) {
	if c := ColorFromFloats(1, 0.5, -1, 2); c != (Color{R: 255, G: 128, B: 0, A: 255}) {
		t.Fatalf("ColorFromFloats = %+v", c)
	}
	if c := RGB(200, 100, 50).Tint(0.5, 1, 2); c != (Color{R: 100, G: 100, B: 100, A: 255}) {
		t.Fatalf("Tint = %+v", c)
	}
	if c := RGBA(255, 0, 0, 0).Blend(RGB(0, 0, 255)); c != RGB(0, 0, 255) {
		t.Fatalf("Blend transparent = %+v", c)
	}
}
