// Package mjcf parses MJCF scene documents and compiles them into a
// physics.Model.
//
// The supported subset covers what the viewer needs: compiler angle units and
// euler sequence, global options, textures and materials, nested default
// classes, the body tree with joints, geoms and lights.
package mjcf

import (
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"quarkview/quark/physics"
)

var (
	// ErrNoWorld indicates a document without a worldbody element.
	ErrNoWorld = errors.New("mjcf: missing worldbody")
	// ErrAttr indicates a malformed attribute value.
	ErrAttr = errors.New("mjcf: bad attribute")
	// ErrUnknownType indicates an unsupported geom or joint type.
	ErrUnknownType = errors.New("mjcf: unknown type")
	// ErrUnknownRef indicates a reference to an undefined class, material or texture.
	ErrUnknownRef = errors.New("mjcf: unknown reference")
)

var defaultRGBA = [4]float32{0.5, 0.5, 0.5, 1}

// Parse decodes and compiles an MJCF document.
func Parse(data []byte) (*physics.Model, error) {
	var doc xmlMujoco
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("mjcf: decode: %w", err)
	}
	c := &compiler{
		model:     &physics.Model{Name: doc.Model, Opt: physics.DefaultOption()},
		classes:   map[string]classDefaults{},
		materials: map[string]int{},
		textures:  map[string]int{},
	}
	if err := c.compile(&doc); err != nil {
		return nil, err
	}
	if err := c.model.Finalize(); err != nil {
		return nil, fmt.Errorf("mjcf: %w", err)
	}
	return c.model, nil
}

type classDefaults struct {
	geom  xmlGeom
	joint xmlJoint
	light xmlLight
}

type compiler struct {
	model *physics.Model
	frame frame

	classes   map[string]classDefaults
	materials map[string]int
	textures  map[string]int
	texDir    string
}

func (c *compiler) compile(doc *xmlMujoco) error {
	c.frame = frame{degrees: true, eulerSeq: "xyz"}
	for _, cc := range doc.Compiler {
		switch strings.TrimSpace(cc.Angle) {
		case "":
		case "degree":
			c.frame.degrees = true
		case "radian":
			c.frame.degrees = false
		default:
			return fmt.Errorf("%w: compiler angle=%q", ErrAttr, cc.Angle)
		}
		if cc.EulerSeq != "" {
			c.frame.eulerSeq = cc.EulerSeq
		}
		if cc.TexDir != "" {
			c.texDir = cc.TexDir
		} else if cc.AssetDir != "" && c.texDir == "" {
			c.texDir = cc.AssetDir
		}
	}

	for _, o := range doc.Option {
		ts, err := float("option timestep", o.Timestep, c.model.Opt.Timestep)
		if err != nil {
			return err
		}
		if ts <= 0 {
			return fmt.Errorf("%w: option timestep=%q must be positive", ErrAttr, o.Timestep)
		}
		c.model.Opt.Timestep = ts
		if c.model.Opt.Gravity, err = vec3("option gravity", o.Gravity, c.model.Opt.Gravity); err != nil {
			return err
		}
	}

	c.classes["main"] = classDefaults{}
	for _, d := range doc.Defaults {
		if err := c.addDefaults(d, classDefaults{}); err != nil {
			return err
		}
	}

	for _, a := range doc.Assets {
		if err := c.addAssets(a); err != nil {
			return err
		}
	}

	if len(doc.Worldbody) == 0 {
		return ErrNoWorld
	}

	m := c.model
	m.Bodies = append(m.Bodies, physics.Body{Name: "world", Parent: -1, Quat: mgl64.QuatIdent()})
	world := &m.Bodies[0]
	world.GeomAdr = len(m.Geoms)
	for _, wb := range doc.Worldbody {
		for _, g := range wb.Geoms {
			if err := c.addGeom(0, g, "main"); err != nil {
				return err
			}
		}
	}
	m.Bodies[0].GeomNum = len(m.Geoms) - m.Bodies[0].GeomAdr
	for _, wb := range doc.Worldbody {
		for _, l := range wb.Lights {
			if err := c.addLight(0, l, "main"); err != nil {
				return err
			}
		}
	}
	for _, wb := range doc.Worldbody {
		for _, b := range wb.Bodies {
			if err := c.addBody(0, b, "main"); err != nil {
				return err
			}
		}
	}
	return nil
}

// addDefaults registers a default class, merged over its parent class.
// The top-level unnamed default is the "main" class.
func (c *compiler) addDefaults(d xmlDefault, parent classDefaults) error {
	name := d.Class
	if name == "" {
		name = "main"
	}
	cd := parent
	if existing, ok := c.classes[name]; ok && name == "main" {
		cd = existing
	}
	if d.Geom != nil {
		cd.geom = d.Geom.merge(cd.geom)
	}
	if d.Joint != nil {
		cd.joint = d.Joint.merge(cd.joint)
	}
	if d.Light != nil {
		cd.light = d.Light.merge(cd.light)
	}
	c.classes[name] = cd
	for _, child := range d.Children {
		if child.Class == "" {
			return fmt.Errorf("%w: nested default without class", ErrAttr)
		}
		if err := c.addDefaults(child, cd); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) class(name string) (classDefaults, error) {
	cd, ok := c.classes[name]
	if !ok {
		return classDefaults{}, fmt.Errorf("%w: default class %q", ErrUnknownRef, name)
	}
	return cd, nil
}

func (c *compiler) addAssets(a xmlAsset) error {
	m := c.model
	for _, t := range a.Textures {
		rgb1, err := rgb("texture rgb1", t.RGB1, [3]float32{0.8, 0.8, 0.8})
		if err != nil {
			return err
		}
		rgb2, err := rgb("texture rgb2", t.RGB2, [3]float32{0.5, 0.5, 0.5})
		if err != nil {
			return err
		}
		file := t.File
		if file != "" && c.texDir != "" && !path.IsAbs(file) {
			file = path.Join(c.texDir, file)
		}
		name := t.Name
		if name == "" && t.File != "" {
			name = strings.TrimSuffix(path.Base(t.File), path.Ext(t.File))
		}
		c.textures[name] = len(m.Textures)
		m.Textures = append(m.Textures, physics.Texture{
			Name:    name,
			Type:    t.Type,
			File:    file,
			Builtin: t.Builtin,
			RGB1:    rgb1,
			RGB2:    rgb2,
		})
	}
	for _, mat := range a.Materials {
		col, err := rgba("material rgba", mat.RGBA, [4]float32{1, 1, 1, 1})
		if err != nil {
			return err
		}
		tex := -1
		if mat.Texture != "" {
			id, ok := c.textures[mat.Texture]
			if !ok {
				return fmt.Errorf("%w: material %q texture %q", ErrUnknownRef, mat.Name, mat.Texture)
			}
			tex = id
		}
		c.materials[mat.Name] = len(m.Materials)
		m.Materials = append(m.Materials, physics.Material{Name: mat.Name, RGBA: col, Texture: tex})
	}
	return nil
}

func (c *compiler) addBody(parent int, b xmlBody, class string) error {
	m := c.model
	if b.ChildClass != "" {
		if _, err := c.class(b.ChildClass); err != nil {
			return err
		}
		class = b.ChildClass
	}

	pos, err := vec3("body pos", b.Pos, mgl64.Vec3{})
	if err != nil {
		return fmt.Errorf("body %q: %w", b.Name, err)
	}
	quat, err := c.frame.orientation(b.xmlOrientation)
	if err != nil {
		return fmt.Errorf("body %q: %w", b.Name, err)
	}

	id := len(m.Bodies)
	m.Bodies = append(m.Bodies, physics.Body{
		Name:     b.Name,
		Parent:   parent,
		Pos:      pos,
		Quat:     quat,
		JointAdr: len(m.Joints),
		GeomAdr:  len(m.Geoms),
	})

	for _, fj := range b.FreeJoints {
		m.Joints = append(m.Joints, physics.Joint{Name: fj.Name, Type: physics.JointFree, Body: id})
	}
	for _, j := range b.Joints {
		if err := c.addJoint(id, j, class); err != nil {
			return fmt.Errorf("body %q: %w", b.Name, err)
		}
	}
	m.Bodies[id].JointNum = len(m.Joints) - m.Bodies[id].JointAdr

	for _, g := range b.Geoms {
		if err := c.addGeom(id, g, class); err != nil {
			return fmt.Errorf("body %q: %w", b.Name, err)
		}
	}
	m.Bodies[id].GeomNum = len(m.Geoms) - m.Bodies[id].GeomAdr

	for _, l := range b.Lights {
		if err := c.addLight(id, l, class); err != nil {
			return fmt.Errorf("body %q: %w", b.Name, err)
		}
	}
	for _, child := range b.Bodies {
		if err := c.addBody(id, child, class); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) addJoint(body int, j xmlJoint, class string) error {
	if j.Class != "" {
		class = j.Class
	}
	cd, err := c.class(class)
	if err != nil {
		return err
	}
	j = j.merge(cd.joint)

	typ := physics.JointHinge
	if j.Type != "" {
		t, ok := physics.ParseJointType(j.Type)
		if !ok {
			return fmt.Errorf("%w: joint %q type %q", ErrUnknownType, j.Name, j.Type)
		}
		typ = t
	}
	jnt := physics.Joint{Name: j.Name, Type: typ, Body: body}
	if jnt.Pos, err = vec3("joint pos", j.Pos, mgl64.Vec3{}); err != nil {
		return err
	}
	if jnt.Axis, err = vec3("joint axis", j.Axis, mgl64.Vec3{0, 0, 1}); err != nil {
		return err
	}
	if jnt.Damping, err = float("joint damping", j.Damping, 0); err != nil {
		return err
	}
	if jnt.Stiffness, err = float("joint stiffness", j.Stiffness, 0); err != nil {
		return err
	}
	if jnt.Ref, err = float("joint ref", j.Ref, 0); err != nil {
		return err
	}

	rng, err := floats("joint range", j.Range, 2, []float64{0, 0})
	if err != nil {
		return err
	}
	if typ == physics.JointHinge || typ == physics.JointBall {
		rng[0], rng[1] = c.frame.angle(rng[0]), c.frame.angle(rng[1])
	}
	if typ == physics.JointHinge {
		jnt.Ref = c.frame.angle(jnt.Ref)
	}
	jnt.Range = [2]float64{rng[0], rng[1]}

	switch strings.TrimSpace(j.Limited) {
	case "", "auto":
		jnt.Limited = j.Range != "" && rng[0] < rng[1]
	default:
		if jnt.Limited, err = boolean("joint limited", j.Limited, false); err != nil {
			return err
		}
	}

	c.model.Joints = append(c.model.Joints, jnt)
	return nil
}

func (c *compiler) addGeom(body int, g xmlGeom, class string) error {
	if g.Class != "" {
		class = g.Class
	}
	cd, err := c.class(class)
	if err != nil {
		return err
	}
	g = g.merge(cd.geom)

	typ := physics.GeomSphere
	if g.Type != "" {
		t, ok := physics.ParseGeomType(g.Type)
		if !ok {
			return fmt.Errorf("%w: geom %q type %q", ErrUnknownType, g.Name, g.Type)
		}
		typ = t
	}
	geom := physics.Geom{Name: g.Name, Type: typ, Body: body, Material: -1, Mesh: g.Mesh}

	size, err := floatsUpTo("geom size", g.Size, 3, nil)
	if err != nil {
		return err
	}
	geom.Size = mgl64.Vec3{size[0], size[1], size[2]}
	if geom.Pos, err = vec3("geom pos", g.Pos, mgl64.Vec3{}); err != nil {
		return err
	}
	if geom.Quat, err = c.frame.orientation(g.xmlOrientation); err != nil {
		return err
	}

	if g.FromTo != "" {
		if err := applyFromTo(&geom, g.FromTo); err != nil {
			return err
		}
	}

	if geom.RGBA, err = rgba("geom rgba", g.RGBA, defaultRGBA); err != nil {
		return err
	}
	geom.OwnRGBA = geom.RGBA != defaultRGBA
	if g.Material != "" {
		id, ok := c.materials[g.Material]
		if !ok {
			return fmt.Errorf("%w: geom %q material %q", ErrUnknownRef, g.Name, g.Material)
		}
		geom.Material = id
	}
	group, err := float("geom group", g.Group, 0)
	if err != nil {
		return err
	}
	geom.Group = int(group)
	if geom.Density, err = float("geom density", g.Density, 1000); err != nil {
		return err
	}

	c.model.Geoms = append(c.model.Geoms, geom)
	return nil
}

// applyFromTo derives pos, quat and half-length from a segment. Capsules,
// cylinders and ellipsoids keep the radius in size[0]; boxes keep both
// cross-section half sizes.
func applyFromTo(g *physics.Geom, s string) error {
	v, err := floats("geom fromto", s, 6, nil)
	if err != nil {
		return err
	}
	from := mgl64.Vec3{v[0], v[1], v[2]}
	to := mgl64.Vec3{v[3], v[4], v[5]}
	seg := to.Sub(from)
	half := seg.Len() / 2
	if half == 0 {
		return fmt.Errorf("%w: geom %q fromto has zero length", ErrAttr, g.Name)
	}
	g.Pos = from.Add(to).Mul(0.5)
	g.Quat = mgl64.QuatBetweenVectors(mgl64.Vec3{0, 0, 1}, seg.Mul(1/(2*half)))

	switch g.Type {
	case physics.GeomCapsule, physics.GeomCylinder:
		g.Size[1] = half
	case physics.GeomEllipsoid:
		g.Size = mgl64.Vec3{g.Size[0], g.Size[0], half}
	case physics.GeomBox:
		if g.Size[1] == 0 {
			g.Size[1] = g.Size[0]
		}
		g.Size[2] = half
	default:
		return fmt.Errorf("%w: geom %q: fromto not supported for %s", ErrAttr, g.Name, g.Type)
	}
	return nil
}

func (c *compiler) addLight(body int, l xmlLight, class string) error {
	if l.Class != "" {
		class = l.Class
	}
	cd, err := c.class(class)
	if err != nil {
		return err
	}
	l = l.merge(cd.light)

	light := physics.Light{Name: l.Name, Body: body}
	if light.Pos, err = vec3("light pos", l.Pos, mgl64.Vec3{}); err != nil {
		return err
	}
	if light.Dir, err = vec3("light dir", l.Dir, mgl64.Vec3{0, 0, -1}); err != nil {
		return err
	}
	if n := light.Dir.Len(); n > 0 {
		light.Dir = light.Dir.Mul(1 / n)
	}
	if light.Diffuse, err = vec3("light diffuse", l.Diffuse, mgl64.Vec3{0.7, 0.7, 0.7}); err != nil {
		return err
	}
	if light.Ambient, err = vec3("light ambient", l.Ambient, mgl64.Vec3{}); err != nil {
		return err
	}
	if light.Directional, err = boolean("light directional", l.Directional, false); err != nil {
		return err
	}
	if light.Active, err = boolean("light active", l.Active, true); err != nil {
		return err
	}
	c.model.Lights = append(c.model.Lights, light)
	return nil
}
