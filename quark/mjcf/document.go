package mjcf

import "encoding/xml"

// Attribute values are kept as raw strings so that defaults can be merged
// before any numeric conversion.

type xmlMujoco struct {
	XMLName   xml.Name       `xml:"mujoco"`
	Model     string         `xml:"model,attr"`
	Compiler  []xmlCompiler  `xml:"compiler"`
	Option    []xmlOption    `xml:"option"`
	Defaults  []xmlDefault   `xml:"default"`
	Assets    []xmlAsset     `xml:"asset"`
	Worldbody []xmlWorldbody `xml:"worldbody"`
}

type xmlCompiler struct {
	Angle    string `xml:"angle,attr"`
	EulerSeq string `xml:"eulerseq,attr"`
	TexDir   string `xml:"texturedir,attr"`
	AssetDir string `xml:"assetdir,attr"`
}

type xmlOption struct {
	Timestep string `xml:"timestep,attr"`
	Gravity  string `xml:"gravity,attr"`
}

type xmlDefault struct {
	Class    string       `xml:"class,attr"`
	Geom     *xmlGeom     `xml:"geom"`
	Joint    *xmlJoint    `xml:"joint"`
	Light    *xmlLight    `xml:"light"`
	Children []xmlDefault `xml:"default"`
}

type xmlAsset struct {
	Textures  []xmlTexture  `xml:"texture"`
	Materials []xmlMaterial `xml:"material"`
}

type xmlTexture struct {
	Name    string `xml:"name,attr"`
	Type    string `xml:"type,attr"`
	File    string `xml:"file,attr"`
	Builtin string `xml:"builtin,attr"`
	RGB1    string `xml:"rgb1,attr"`
	RGB2    string `xml:"rgb2,attr"`
}

type xmlMaterial struct {
	Name    string `xml:"name,attr"`
	RGBA    string `xml:"rgba,attr"`
	Texture string `xml:"texture,attr"`
}

type xmlWorldbody struct {
	Geoms  []xmlGeom  `xml:"geom"`
	Lights []xmlLight `xml:"light"`
	Bodies []xmlBody  `xml:"body"`
}

type xmlOrientation struct {
	Quat      string `xml:"quat,attr"`
	Euler     string `xml:"euler,attr"`
	AxisAngle string `xml:"axisangle,attr"`
	ZAxis     string `xml:"zaxis,attr"`
}

type xmlBody struct {
	Name       string `xml:"name,attr"`
	ChildClass string `xml:"childclass,attr"`
	Pos        string `xml:"pos,attr"`
	xmlOrientation

	Joints     []xmlJoint     `xml:"joint"`
	FreeJoints []xmlFreeJoint `xml:"freejoint"`
	Geoms      []xmlGeom      `xml:"geom"`
	Lights     []xmlLight     `xml:"light"`
	Bodies     []xmlBody      `xml:"body"`
}

type xmlFreeJoint struct {
	Name string `xml:"name,attr"`
}

type xmlJoint struct {
	Name      string `xml:"name,attr"`
	Class     string `xml:"class,attr"`
	Type      string `xml:"type,attr"`
	Pos       string `xml:"pos,attr"`
	Axis      string `xml:"axis,attr"`
	Range     string `xml:"range,attr"`
	Limited   string `xml:"limited,attr"`
	Damping   string `xml:"damping,attr"`
	Stiffness string `xml:"stiffness,attr"`
	Ref       string `xml:"ref,attr"`
}

type xmlGeom struct {
	Name     string `xml:"name,attr"`
	Class    string `xml:"class,attr"`
	Type     string `xml:"type,attr"`
	Size     string `xml:"size,attr"`
	Pos      string `xml:"pos,attr"`
	FromTo   string `xml:"fromto,attr"`
	RGBA     string `xml:"rgba,attr"`
	Material string `xml:"material,attr"`
	Group    string `xml:"group,attr"`
	Density  string `xml:"density,attr"`
	Mesh     string `xml:"mesh,attr"`
	xmlOrientation
}

type xmlLight struct {
	Name        string `xml:"name,attr"`
	Class       string `xml:"class,attr"`
	Pos         string `xml:"pos,attr"`
	Dir         string `xml:"dir,attr"`
	Diffuse     string `xml:"diffuse,attr"`
	Ambient     string `xml:"ambient,attr"`
	Directional string `xml:"directional,attr"`
	Active      string `xml:"active,attr"`
}

func pick(own, def string) string {
	if own != "" {
		return own
	}
	return def
}

func (o xmlOrientation) merge(def xmlOrientation) xmlOrientation {
	if o.Quat != "" || o.Euler != "" || o.AxisAngle != "" || o.ZAxis != "" {
		return o
	}
	return def
}

func (g xmlGeom) merge(def xmlGeom) xmlGeom {
	return xmlGeom{
		Name:           g.Name,
		Class:          g.Class,
		Type:           pick(g.Type, def.Type),
		Size:           pick(g.Size, def.Size),
		Pos:            pick(g.Pos, def.Pos),
		FromTo:         pick(g.FromTo, def.FromTo),
		RGBA:           pick(g.RGBA, def.RGBA),
		Material:       pick(g.Material, def.Material),
		Group:          pick(g.Group, def.Group),
		Density:        pick(g.Density, def.Density),
		Mesh:           pick(g.Mesh, def.Mesh),
		xmlOrientation: g.xmlOrientation.merge(def.xmlOrientation),
	}
}

func (j xmlJoint) merge(def xmlJoint) xmlJoint {
	return xmlJoint{
		Name:      j.Name,
		Class:     j.Class,
		Type:      pick(j.Type, def.Type),
		Pos:       pick(j.Pos, def.Pos),
		Axis:      pick(j.Axis, def.Axis),
		Range:     pick(j.Range, def.Range),
		Limited:   pick(j.Limited, def.Limited),
		Damping:   pick(j.Damping, def.Damping),
		Stiffness: pick(j.Stiffness, def.Stiffness),
		Ref:       pick(j.Ref, def.Ref),
	}
}

func (l xmlLight) merge(def xmlLight) xmlLight {
	return xmlLight{
		Name:        l.Name,
		Class:       l.Class,
		Pos:         pick(l.Pos, def.Pos),
		Dir:         pick(l.Dir, def.Dir),
		Diffuse:     pick(l.Diffuse, def.Diffuse),
		Ambient:     pick(l.Ambient, def.Ambient),
		Directional: pick(l.Directional, def.Directional),
		Active:      pick(l.Active, def.Active),
	}
}
