package mjcf

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"quarkview/quark/physics"
)

const pendulumXML = `
<mujoco model="pendulum">
  <compiler angle="degree"/>
  <option timestep="0.005" gravity="0 0 -10"/>
  <default>
    <geom rgba="0.2 0.4 0.6 1"/>
    <default class="arm">
      <joint damping="0.5"/>
      <geom type="capsule" size="0.02"/>
    </default>
  </default>
  <asset>
    <texture name="grid" type="2d" builtin="checker" rgb1="1 1 1" rgb2="0 0 0"/>
    <material name="floor" texture="grid" rgba="1 1 1 1"/>
  </asset>
  <worldbody>
    <light name="top" pos="0 0 3" dir="0 0 -1" directional="true"/>
    <geom name="floor" type="plane" size="2 2 0.1" material="floor"/>
    <body name="base" pos="0 0 1" childclass="arm">
      <joint name="swing" type="hinge" axis="0 1 0" range="-90 90"/>
      <geom name="rod" fromto="0 0 0 0.5 0 0"/>
      <light name="lamp" pos="0 0 0.1"/>
      <body name="tip" pos="0.5 0 0" euler="0 0 90">
        <geom name="bob" type="sphere" size="0.05" class="main"/>
      </body>
    </body>
    <body name="ball" pos="1 0 0.5">
      <freejoint name="ball_free"/>
      <geom type="sphere" size="0.1" rgba="1 0 0 1"/>
    </body>
  </worldbody>
</mujoco>`

func TestParse_Pendulum(t *testing.T) {
	m, err := Parse([]byte(pendulumXML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Name != "pendulum" {
		t.Fatalf("name = %q", m.Name)
	}
	if m.NBody != 4 {
		t.Fatalf("NBody = %d want 4", m.NBody)
	}
	if m.Opt.Timestep != 0.005 || m.Opt.Gravity != (mgl64.Vec3{0, 0, -10}) {
		t.Fatalf("option = %+v", m.Opt)
	}

	wantBodies := []struct {
		name   string
		parent int
	}{{"world", -1}, {"base", 0}, {"tip", 1}, {"ball", 0}}
	for i, w := range wantBodies {
		if m.Bodies[i].Name != w.name || m.Bodies[i].Parent != w.parent {
			t.Fatalf("body %d = %s/%d want %s/%d", i, m.Bodies[i].Name, m.Bodies[i].Parent, w.name, w.parent)
		}
	}

	if m.NQ != 8 || m.NV != 7 {
		t.Fatalf("NQ=%d NV=%d want 8 7", m.NQ, m.NV)
	}
	swing := m.Joints[0]
	if swing.Type != physics.JointHinge || swing.Damping != 0.5 || !swing.Limited {
		t.Fatalf("swing joint = %+v", swing)
	}
	if math.Abs(swing.Range[1]-math.Pi/2) > 1e-12 {
		t.Fatalf("range not converted to radians: %v", swing.Range)
	}
	if m.Joints[1].Type != physics.JointFree || m.Joints[1].QPosAdr != 1 {
		t.Fatalf("free joint = %+v", m.Joints[1])
	}
}

func TestParse_Geoms(t *testing.T) {
	m, err := Parse([]byte(pendulumXML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	floor := m.Geoms[0]
	if floor.Type != physics.GeomPlane || floor.Body != 0 || floor.Material != 0 {
		t.Fatalf("floor = %+v", floor)
	}
	if floor.RGBA != [4]float32{0.2, 0.4, 0.6, 1} || !floor.OwnRGBA {
		t.Fatalf("floor rgba from main default = %v own=%v", floor.RGBA, floor.OwnRGBA)
	}

	rod := m.Geoms[1]
	if rod.Type != physics.GeomCapsule {
		t.Fatalf("rod type from class = %v", rod.Type)
	}
	if rod.Pos != (mgl64.Vec3{0.25, 0, 0}) || math.Abs(rod.Size[1]-0.25) > 1e-12 || rod.Size[0] != 0.02 {
		t.Fatalf("rod fromto pos=%v size=%v", rod.Pos, rod.Size)
	}
	z := rod.Quat.Rotate(mgl64.Vec3{0, 0, 1})
	if math.Abs(z[0]-1) > 1e-9 {
		t.Fatalf("rod axis = %v want +x", z)
	}

	bob := m.Geoms[2]
	if bob.Type != physics.GeomSphere || bob.Body != 2 {
		t.Fatalf("bob = %+v", bob)
	}

	tip := m.Bodies[2]
	x := tip.Quat.Rotate(mgl64.Vec3{1, 0, 0})
	if math.Abs(x[1]-1) > 1e-9 {
		t.Fatalf("tip euler 90deg about z maps x to %v", x)
	}

	if m.Bodies[1].GeomNum != 1 || m.Bodies[2].GeomAdr != 2 {
		t.Fatalf("geom addresses: base %+v tip %+v", m.Bodies[1], m.Bodies[2])
	}
}

func TestParse_OwnRGBA(t *testing.T) {
	tests := []struct {
		name string
		attr string
		want bool
	}{
		{"unset", ``, false},
		{"default value", `rgba="0.5 0.5 0.5 1"`, false},
		{"explicit", `rgba="1 0 0 1"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `<mujoco><worldbody><geom type="sphere" size="0.1" ` + tt.attr + `/></worldbody></mujoco>`
			m, err := Parse([]byte(doc))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if m.Geoms[0].OwnRGBA != tt.want {
				t.Fatalf("OwnRGBA = %v want %v", m.Geoms[0].OwnRGBA, tt.want)
			}
		})
	}
}

func TestParse_AssetsAndLights(t *testing.T) {
	m, err := Parse([]byte(pendulumXML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Textures) != 1 || m.Textures[0].Builtin != "checker" || m.Materials[0].Texture != 0 {
		t.Fatalf("assets = %+v %+v", m.Textures, m.Materials)
	}
	if len(m.Lights) != 2 {
		t.Fatalf("lights = %d want 2", len(m.Lights))
	}
	if !m.Lights[0].Directional || m.Lights[0].Body != 0 {
		t.Fatalf("top light = %+v", m.Lights[0])
	}
	if m.Lights[1].Body != 1 || m.Lights[1].Dir != (mgl64.Vec3{0, 0, -1}) {
		t.Fatalf("lamp = %+v", m.Lights[1])
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{name: "no worldbody", doc: `<mujoco/>`, want: ErrNoWorld},
		{name: "bad geom type", doc: `<mujoco><worldbody><geom type="teapot"/></worldbody></mujoco>`, want: ErrUnknownType},
		{name: "bad material", doc: `<mujoco><worldbody><geom size="1" material="x"/></worldbody></mujoco>`, want: ErrUnknownRef},
		{name: "bad class", doc: `<mujoco><worldbody><body childclass="x"/></worldbody></mujoco>`, want: ErrUnknownRef},
		{name: "bad pos", doc: `<mujoco><worldbody><body pos="1 2"/></worldbody></mujoco>`, want: ErrAttr},
		{name: "bad angle", doc: `<mujoco><compiler angle="grad"/><worldbody/></mujoco>`, want: ErrAttr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v want %v", err, tt.want)
			}
		})
	}

	if _, err := Parse([]byte("<mujoco")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestParse_NestedFreeJointRejected(t *testing.T) {
	doc := `<mujoco><worldbody><body><body><freejoint/><geom size="0.1"/></body></body></worldbody></mujoco>`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected error for free joint on nested body")
	}
}

func TestOrientation(t *testing.T) {
	rad := frame{eulerSeq: "xyz"}
	deg := frame{degrees: true, eulerSeq: "xyz"}

	tests := []struct {
		name string
		f    frame
		o    xmlOrientation
		in   mgl64.Vec3
		want mgl64.Vec3
	}{
		{name: "identity", f: rad, o: xmlOrientation{}, in: mgl64.Vec3{1, 0, 0}, want: mgl64.Vec3{1, 0, 0}},
		{name: "quat", f: rad, o: xmlOrientation{Quat: "0 0 0 1"}, in: mgl64.Vec3{1, 0, 0}, want: mgl64.Vec3{-1, 0, 0}},
		{name: "axisangle deg", f: deg, o: xmlOrientation{AxisAngle: "0 0 1 90"}, in: mgl64.Vec3{1, 0, 0}, want: mgl64.Vec3{0, 1, 0}},
		{name: "euler rad", f: rad, o: xmlOrientation{Euler: "1.5707963267948966 0 0"}, in: mgl64.Vec3{0, 1, 0}, want: mgl64.Vec3{0, 0, 1}},
		{name: "zaxis", f: rad, o: xmlOrientation{ZAxis: "1 0 0"}, in: mgl64.Vec3{0, 0, 1}, want: mgl64.Vec3{1, 0, 0}},
		// Intrinsic x then z: the z rotation is about the already rotated frame.
		{name: "euler intrinsic", f: deg, o: xmlOrientation{Euler: "90 0 90"}, in: mgl64.Vec3{1, 0, 0}, want: mgl64.Vec3{0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.f.orientation(tt.o)
			if err != nil {
				t.Fatalf("orientation: %v", err)
			}
			got := q.Rotate(tt.in)
			if !got.ApproxEqualThreshold(tt.want, 1e-9) {
				t.Fatalf("rotate %v = %v want %v", tt.in, got, tt.want)
			}
		})
	}
}
