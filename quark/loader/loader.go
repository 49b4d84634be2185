// Package loader turns a staged scene document into a running simulation and
// the render proxies that mirror its bodies.
package loader

import (
	"context"
	"fmt"
	"math"
	"path"

	"github.com/go-gl/mathgl/mgl64"

	"quarkview/quark/mjcf"
	"quarkview/quark/physics"
	"quarkview/quark/quarkgl"
	"quarkview/quark/vfs"
)

// WorkingDir is where scene documents and their assets are staged.
const WorkingDir = "/working"

// Geoms in this group or above are collision-only and get no mesh.
const hiddenGroup = 3

// Tessellation used for round shapes.
const (
	roundSegments = 16
	roundRings    = 10
	floorDivs     = 16
	floorHalfSize = 5.0
)

// Scene is everything LoadScene produces.
type Scene struct {
	Model      *physics.Model
	State      *physics.State
	Simulation *physics.Simulation

	// Bodies has one slot per model body. Slots are nil for bodies with
	// nothing to draw.
	Bodies []*quarkgl.Object
	Lights []*quarkgl.Light

	// Root holds every proxy and light. It rotates the Z-up simulation frame
	// into the renderer's Y-up frame, so proxies take simulation poses as is.
	Root *quarkgl.Object

	// Warnings lists assets that could not be used.
	Warnings []string
}

// LoadScene reads filename from the working directory of fsys, compiles it,
// creates the simulation at its reference pose and builds render proxies.
func LoadScene(ctx context.Context, fsys *vfs.FS, filename string) (*Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := filename
	if !path.IsAbs(p) {
		p = path.Join(WorkingDir, filename)
	}
	data, err := fsys.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", p, err)
	}
	model, err := mjcf.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loader: parse %s: %w", p, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := physics.NewState(model)
	sc := &Scene{
		Model:      model,
		State:      state,
		Simulation: physics.NewSimulation(model, state),
		Bodies:     make([]*quarkgl.Object, model.NBody),
		Root:       upAxisGroup(),
	}
	b := &builder{scene: sc, fs: fsys, dir: path.Dir(p), texColors: map[int][3]float32{}}
	b.addGeoms()
	b.addLights()
	return sc, nil
}

// upAxisGroup returns a group rotated -90 degrees about X.
func upAxisGroup() *quarkgl.Object {
	g := quarkgl.NewGroup("z-up")
	q := mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{1, 0, 0})
	g.SetQuaternion(q.W, q.V[0], q.V[1], q.V[2])
	return g
}

type builder struct {
	scene     *Scene
	fs        *vfs.FS
	dir       string
	texColors map[int][3]float32
}

// proxy returns the proxy of body b, creating it on first use.
func (b *builder) proxy(body int) *quarkgl.Object {
	if o := b.scene.Bodies[body]; o != nil {
		return o
	}
	name := b.scene.Model.Bodies[body].Name
	if name == "" {
		name = fmt.Sprintf("body%d", body)
	}
	o := quarkgl.NewGroup(name)
	b.scene.Bodies[body] = o
	b.scene.Root.Add(o)
	return o
}

func (b *builder) addGeoms() {
	m := b.scene.Model
	for gi, g := range m.Geoms {
		if g.Group >= hiddenGroup {
			continue
		}
		geo := geomGeometry(g)
		if geo == nil {
			b.warn("geom %d (%s): %s is not drawn", gi, g.Name, g.Type)
			continue
		}
		name := g.Name
		if name == "" {
			name = fmt.Sprintf("geom%d", gi)
		}
		obj := quarkgl.NewMeshObject(name, geo, quarkgl.Material{BaseColor: b.geomColor(g)})
		obj.Position = g.Pos
		obj.Quaternion = g.Quat
		obj.MarkStale()
		b.proxy(g.Body).Add(obj)
	}
}

func geomGeometry(g physics.Geom) *quarkgl.Geometry {
	s := g.Size
	switch g.Type {
	case physics.GeomPlane:
		hx, hy := s[0], s[1]
		if hx <= 0 {
			hx = floorHalfSize
		}
		if hy <= 0 {
			hy = floorHalfSize
		}
		return quarkgl.GridGeometry(hx, hy, floorDivs)
	case physics.GeomSphere:
		return quarkgl.SphereGeometry(s[0], roundSegments, roundRings)
	case physics.GeomCapsule:
		return quarkgl.CapsuleGeometry(s[0], s[1], roundSegments, roundRings)
	case physics.GeomEllipsoid:
		return quarkgl.EllipsoidGeometry(s[0], s[1], s[2], roundSegments, roundRings)
	case physics.GeomCylinder:
		return quarkgl.CylinderGeometry(s[0], s[1], roundSegments)
	case physics.GeomBox:
		return quarkgl.BoxGeometry(s[0], s[1], s[2])
	}
	return nil
}

// geomColor takes the material's rgba unless the geom set its own, then
// tints by the material texture's mean colour.
func (b *builder) geomColor(g physics.Geom) quarkgl.Color {
	rgba := g.RGBA
	m := b.scene.Model
	if g.Material >= 0 && g.Material < len(m.Materials) {
		mat := m.Materials[g.Material]
		if !g.OwnRGBA {
			rgba = mat.RGBA
		}
		if mat.Texture >= 0 && mat.Texture < len(m.Textures) {
			if tint, ok := b.textureColor(mat.Texture); ok {
				rgba[0] *= tint[0]
				rgba[1] *= tint[1]
				rgba[2] *= tint[2]
			}
		}
	}
	return quarkgl.ColorFromFloats(rgba[0], rgba[1], rgba[2], rgba[3])
}

func (b *builder) textureColor(id int) ([3]float32, bool) {
	if c, ok := b.texColors[id]; ok {
		return c, true
	}
	tex := b.scene.Model.Textures[id]
	c, err := textureMean(b.fs, b.dir, tex)
	if err != nil {
		b.warn("texture %s: %v", tex.Name, err)
		return [3]float32{}, false
	}
	b.texColors[id] = c
	return c, true
}

func (b *builder) addLights() {
	m := b.scene.Model
	for i, l := range m.Lights {
		light := &quarkgl.Light{
			Color:       l.Diffuse,
			Ambient:     l.Ambient,
			Intensity:   1,
			Directional: l.Directional,
			Direction:   l.Dir,
			Enabled:     l.Active,
		}
		name := l.Name
		if name == "" {
			name = fmt.Sprintf("light%d", i)
		}
		node := quarkgl.NewLightObject(name, light)
		node.Position = l.Pos
		node.MarkStale()
		if l.Body == 0 {
			b.scene.Root.Add(node)
		} else {
			b.proxy(l.Body).Add(node)
		}
		b.scene.Lights = append(b.scene.Lights, light)
	}
}

func (b *builder) warn(format string, args ...any) {
	b.scene.Warnings = append(b.scene.Warnings, fmt.Sprintf(format, args...))
}
