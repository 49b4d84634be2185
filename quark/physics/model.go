package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// GeomType enumerates collision/visual geometry shapes.
type GeomType uint8

const (
	GeomPlane GeomType = iota
	GeomHField
	GeomSphere
	GeomCapsule
	GeomEllipsoid
	GeomCylinder
	GeomBox
	GeomMesh
)

var geomTypeNames = [...]string{"plane", "hfield", "sphere", "capsule", "ellipsoid", "cylinder", "box", "mesh"}

func (t GeomType) String() string {
	if int(t) < len(geomTypeNames) {
		return geomTypeNames[t]
	}
	return fmt.Sprintf("geom(%d)", t)
}

// ParseGeomType maps a type attribute to a GeomType.
func ParseGeomType(s string) (GeomType, bool) {
	for i, n := range geomTypeNames {
		if n == s {
			return GeomType(i), true
		}
	}
	return 0, false
}

// JointType enumerates joint kinds.
type JointType uint8

const (
	JointFree JointType = iota
	JointBall
	JointSlide
	JointHinge
)

var jointTypeNames = [...]string{"free", "ball", "slide", "hinge"}

func (t JointType) String() string {
	if int(t) < len(jointTypeNames) {
		return jointTypeNames[t]
	}
	return fmt.Sprintf("joint(%d)", t)
}

// ParseJointType maps a type attribute to a JointType.
func ParseJointType(s string) (JointType, bool) {
	for i, n := range jointTypeNames {
		if n == s {
			return JointType(i), true
		}
	}
	return 0, false
}

// QPosSize is the number of generalized coordinates used by a joint type.
func (t JointType) QPosSize() int {
	switch t {
	case JointFree:
		return 7
	case JointBall:
		return 4
	default:
		return 1
	}
}

// DofSize is the number of degrees of freedom of a joint type.
func (t JointType) DofSize() int {
	switch t {
	case JointFree:
		return 6
	case JointBall:
		return 3
	default:
		return 1
	}
}

// Option holds global simulation options.
type Option struct {
	Timestep float64
	Gravity  mgl64.Vec3
	// Restitution and Friction apply to every ground contact.
	Restitution float64
	Friction    float64
	// LinearDamping and AngularDamping apply to free bodies, per second.
	LinearDamping  float64
	AngularDamping float64
}

// DefaultOption returns the engine defaults.
func DefaultOption() Option {
	return Option{
		Timestep:       0.002,
		Gravity:        mgl64.Vec3{0, 0, -9.81},
		Restitution:    0.3,
		Friction:       0.6,
		LinearDamping:  0.05,
		AngularDamping: 0.2,
	}
}

// Body is one node of the kinematic tree. Body 0 is the world.
type Body struct {
	Name   string
	Parent int
	Pos    mgl64.Vec3
	Quat   mgl64.Quat

	JointAdr, JointNum int
	GeomAdr, GeomNum   int

	// Mass and COM (body frame) are derived from geoms by Finalize.
	Mass float64
	COM  mgl64.Vec3
}

// Joint connects a body to its parent.
type Joint struct {
	Name    string
	Type    JointType
	Body    int
	QPosAdr int
	DofAdr  int

	Pos  mgl64.Vec3 // anchor in body frame
	Axis mgl64.Vec3 // unit axis in body frame

	Limited   bool
	Range     [2]float64
	Damping   float64
	Stiffness float64
	Ref       float64
}

// Geom is a shape attached to a body.
type Geom struct {
	Name     string
	Type     GeomType
	Body     int
	Pos      mgl64.Vec3
	Quat     mgl64.Quat
	Size     mgl64.Vec3
	RGBA     [4]float32
	OwnRGBA  bool // RGBA differs from the default and overrides the material
	Material int  // -1 when unset
	Group    int
	Density  float64
	Mesh     string
}

// Light is a light source attached to a body.
type Light struct {
	Name        string
	Body        int
	Pos         mgl64.Vec3
	Dir         mgl64.Vec3
	Diffuse     mgl64.Vec3
	Ambient     mgl64.Vec3
	Directional bool
	Active      bool
}

// Material describes surface appearance.
type Material struct {
	Name    string
	RGBA    [4]float32
	Texture int // -1 when unset
}

// Texture is a texture asset. File is relative to the scene directory.
type Texture struct {
	Name    string
	Type    string
	File    string
	Builtin string
	RGB1    [3]float32
	RGB2    [3]float32
}

// Model is the static scene description produced by the loader.
type Model struct {
	Name string
	Opt  Option

	NBody int
	NQ    int
	NV    int

	Bodies    []Body
	Joints    []Joint
	Geoms     []Geom
	Lights    []Light
	Materials []Material
	Textures  []Texture

	QPos0 []float64
}

var (
	// ErrNoWorld indicates a model without the world body.
	ErrNoWorld = errors.New("physics: model has no world body")
	// ErrBadTree indicates a body whose parent does not precede it.
	ErrBadTree = errors.New("physics: bodies not in tree order")
)

// Finalize validates the model and derives body masses and centers of mass.
// It must be called once after construction.
func (m *Model) Finalize() error {
	if len(m.Bodies) == 0 {
		return ErrNoWorld
	}
	m.NBody = len(m.Bodies)
	for i := 1; i < m.NBody; i++ {
		p := m.Bodies[i].Parent
		if p < 0 || p >= i {
			return fmt.Errorf("%w: body %d (%s) has parent %d", ErrBadTree, i, m.Bodies[i].Name, p)
		}
	}

	nq, nv := 0, 0
	for i := range m.Joints {
		j := &m.Joints[i]
		if j.Body <= 0 || j.Body >= m.NBody {
			return fmt.Errorf("physics: joint %d (%s) on invalid body %d", i, j.Name, j.Body)
		}
		if j.Type == JointFree && m.Bodies[j.Body].Parent != 0 {
			return fmt.Errorf("physics: free joint %s must belong to a top-level body", j.Name)
		}
		j.QPosAdr = nq
		j.DofAdr = nv
		nq += j.Type.QPosSize()
		nv += j.Type.DofSize()
		if l := j.Axis.Len(); l > 0 {
			j.Axis = j.Axis.Mul(1 / l)
		} else if j.Type == JointHinge || j.Type == JointSlide {
			return fmt.Errorf("physics: joint %s has zero axis", j.Name)
		}
	}
	m.NQ, m.NV = nq, nv

	if len(m.QPos0) != nq {
		m.QPos0 = m.defaultQPos0()
	}

	for b := range m.Bodies {
		body := &m.Bodies[b]
		body.Mass = 0
		com := mgl64.Vec3{}
		for g := body.GeomAdr; g < body.GeomAdr+body.GeomNum; g++ {
			mass := geomMass(m.Geoms[g])
			body.Mass += mass
			com = com.Add(m.Geoms[g].Pos.Mul(mass))
		}
		if body.Mass > 0 {
			body.COM = com.Mul(1 / body.Mass)
		}
	}
	return nil
}

// defaultQPos0 builds the reference configuration: free joints start at the
// body pose, ball joints at identity, scalar joints at their Ref value.
func (m *Model) defaultQPos0() []float64 {
	q := make([]float64, m.NQ)
	for _, j := range m.Joints {
		a := j.QPosAdr
		switch j.Type {
		case JointFree:
			b := m.Bodies[j.Body]
			q[a+0], q[a+1], q[a+2] = b.Pos[0], b.Pos[1], b.Pos[2]
			q[a+3], q[a+4], q[a+5], q[a+6] = b.Quat.W, b.Quat.V[0], b.Quat.V[1], b.Quat.V[2]
		case JointBall:
			q[a] = 1
		default:
			q[a] = j.Ref
		}
	}
	return q
}

// geomMass uses a default density of 1000 when none is set.
func geomMass(g Geom) float64 {
	if g.Type == GeomPlane || g.Type == GeomHField {
		return 0
	}
	density := g.Density
	if density == 0 {
		density = 1000
	}
	return density * geomVolume(g)
}

func geomVolume(g Geom) float64 {
	s := g.Size
	switch g.Type {
	case GeomSphere:
		return 4.0 / 3.0 * math.Pi * s[0] * s[0] * s[0]
	case GeomCapsule:
		return math.Pi*s[0]*s[0]*2*s[1] + 4.0/3.0*math.Pi*s[0]*s[0]*s[0]
	case GeomCylinder:
		return math.Pi * s[0] * s[0] * 2 * s[1]
	case GeomEllipsoid:
		return 4.0 / 3.0 * math.Pi * s[0] * s[1] * s[2]
	case GeomBox:
		return 8 * s[0] * s[1] * s[2]
	}
	return 0
}

// BodyID returns the id of the named body or -1.
func (m *Model) BodyID(name string) int {
	for i, b := range m.Bodies {
		if b.Name == name {
			return i
		}
	}
	return -1
}
