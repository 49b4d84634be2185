package framesync

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"quarkview/quark/physics"
	"quarkview/quark/quarkgl"
)

func pose(o *quarkgl.Object) (mgl64.Vec3, [4]float64) {
	return o.Position, o.QuaternionWXYZ()
}

func TestSync_ThreeBodies(t *testing.T) {
	a, c := quarkgl.NewGroup("a"), quarkgl.NewGroup("c")
	bodies := []*quarkgl.Object{a, nil, c}
	xpos := []float64{0, 0, 0, 9, 9, 9, 1, 2, 3}
	xquat := []float64{1, 0, 0, 0, 0, 0, 0, 1, 0, 1, 0, 0}

	if n := Sync(bodies, 3, xpos, xquat); n != 2 {
		t.Fatalf("synced %d proxies want 2", n)
	}

	p, q := pose(a)
	if p != (mgl64.Vec3{0, 0, 0}) || q != [4]float64{1, 0, 0, 0} {
		t.Fatalf("proxy 0 = %v %v", p, q)
	}
	p, q = pose(c)
	if p != (mgl64.Vec3{1, 2, 3}) || q != [4]float64{0, 1, 0, 0} {
		t.Fatalf("proxy 2 = %v %v", p, q)
	}
	if bodies[1] != nil {
		t.Fatalf("nil slot was filled")
	}
}

func TestSync_CopiesVerbatim(t *testing.T) {
	o := quarkgl.NewGroup("o")
	// A non-unit quaternion must come through unchanged.
	xpos := []float64{0.1, -2.5e-7, 1e9}
	xquat := []float64{0.3, 0.4, 0.5, 0.6}
	Sync([]*quarkgl.Object{o}, 1, xpos, xquat)

	p, q := pose(o)
	if p != (mgl64.Vec3{0.1, -2.5e-7, 1e9}) {
		t.Fatalf("position = %v", p)
	}
	if q != [4]float64{0.3, 0.4, 0.5, 0.6} {
		t.Fatalf("quaternion = %v", q)
	}
}

func TestSync_MarksStale(t *testing.T) {
	o := quarkgl.NewGroup("o")
	o.UpdateMatrixWorld(false)
	if o.Stale() {
		t.Fatalf("fresh object still stale after update")
	}
	Sync([]*quarkgl.Object{o}, 1, []float64{1, 2, 3}, []float64{1, 0, 0, 0})
	if !o.Stale() {
		t.Fatalf("sync did not mark the proxy stale")
	}
	o.UpdateMatrixWorld(false)
	if got := o.WorldPosition(); got != (mgl64.Vec3{1, 2, 3}) {
		t.Fatalf("world position = %v", got)
	}
}

func TestSync_NilSlotsUntouched(t *testing.T) {
	bodies := []*quarkgl.Object{quarkgl.NewGroup("a"), nil}
	xpos := []float64{1, 1, 1, 2, 2, 2}
	xquat := []float64{1, 0, 0, 0, 1, 0, 0, 0}
	before := append([]float64(nil), xpos...)

	Sync(bodies, 2, xpos, xquat)
	if bodies[1] != nil {
		t.Fatalf("nil slot was filled")
	}
	for i := range xpos {
		if xpos[i] != before[i] {
			t.Fatalf("xpos[%d] modified", i)
		}
	}
}

func TestSync_Idempotent(t *testing.T) {
	mk := func() []*quarkgl.Object {
		return []*quarkgl.Object{quarkgl.NewGroup("0"), nil, quarkgl.NewGroup("2")}
	}
	xpos := []float64{0.5, 0.25, 0.125, 9, 9, 9, -1, -2, -3}
	xquat := []float64{0.5, 0.5, 0.5, 0.5, 0, 0, 0, 1, 0, 0, 1, 0}

	once, twice := mk(), mk()
	Sync(once, 3, xpos, xquat)
	Sync(twice, 3, xpos, xquat)
	Sync(twice, 3, xpos, xquat)
	for b := range once {
		if once[b] == nil {
			continue
		}
		p1, q1 := pose(once[b])
		p2, q2 := pose(twice[b])
		if p1 != p2 || q1 != q2 {
			t.Fatalf("body %d: once %v %v, twice %v %v", b, p1, q1, p2, q2)
		}
	}
}

func TestSync_Bounds(t *testing.T) {
	a := quarkgl.NewGroup("a")
	tests := []struct {
		name   string
		bodies []*quarkgl.Object
		nbody  int
		xpos   []float64
		xquat  []float64
		want   int
	}{
		{name: "nbody zero", bodies: []*quarkgl.Object{a}, nbody: 0, xpos: []float64{1, 2, 3}, xquat: []float64{1, 0, 0, 0}, want: 0},
		{name: "short proxies", bodies: []*quarkgl.Object{a}, nbody: 3, xpos: make([]float64, 9), xquat: make([]float64, 12), want: 1},
		{name: "short arrays", bodies: []*quarkgl.Object{a, a}, nbody: 2, xpos: make([]float64, 3), xquat: make([]float64, 8), want: 1},
		{name: "empty", bodies: nil, nbody: 2, xpos: nil, xquat: nil, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sync(tt.bodies, tt.nbody, tt.xpos, tt.xquat); got != tt.want {
				t.Fatalf("Sync = %d want %d", got, tt.want)
			}
		})
	}
}

func TestSyncSimulation(t *testing.T) {
	m := &physics.Model{
		Opt: physics.DefaultOption(),
		Bodies: []physics.Body{
			{Name: "world", Parent: -1, Quat: mgl64.QuatIdent()},
			{Name: "box", Parent: 0, Pos: mgl64.Vec3{0, 0, 1}, Quat: mgl64.QuatIdent(), JointNum: 1},
		},
		Joints: []physics.Joint{{Name: "free", Type: physics.JointFree, Body: 1}},
		Geoms:  []physics.Geom{},
	}
	if err := m.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	sim := physics.NewSimulation(m, physics.NewState(m))
	sim.State.QPos[0] = 0.5
	sim.Forward()

	bodies := []*quarkgl.Object{nil, quarkgl.NewGroup("box")}
	if n := SyncSimulation(bodies, sim); n != 1 {
		t.Fatalf("synced %d want 1", n)
	}
	if p := bodies[1].Position; p != (mgl64.Vec3{sim.XPos[3], sim.XPos[4], sim.XPos[5]}) || p[0] != 0.5 {
		t.Fatalf("box position = %v", p)
	}
	if SyncSimulation(bodies, nil) != 0 {
		t.Fatalf("nil simulation should sync nothing")
	}
}
