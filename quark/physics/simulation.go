package physics

import "github.com/go-gl/mathgl/mgl64"

// State is the mutable physical state.
type State struct {
	QPos []float64
	QVel []float64
	Time float64
}

// NewState returns a state at the model's reference configuration.
func NewState(m *Model) *State {
	s := &State{
		QPos: make([]float64, m.NQ),
		QVel: make([]float64, m.NV),
	}
	copy(s.QPos, m.QPos0)
	return s
}

// Simulation couples a model with a state and holds the results of the last
// forward pass. XPos and XQuat are indexed by body id; quaternions are stored
// as w, x, y, z.
type Simulation struct {
	Model *Model
	State *State

	XPos  []float64
	XQuat []float64

	// Joint anchors and axes in world coordinates.
	XAnchor []mgl64.Vec3
	XAxis   []mgl64.Vec3

	// Geom poses in world coordinates.
	GeomXPos  []mgl64.Vec3
	GeomXQuat []mgl64.Quat

	Contacts int
}

// NewSimulation allocates the pose arrays and runs one forward pass.
func NewSimulation(m *Model, s *State) *Simulation {
	sim := &Simulation{
		Model:     m,
		State:     s,
		XPos:      make([]float64, 3*m.NBody),
		XQuat:     make([]float64, 4*m.NBody),
		XAnchor:   make([]mgl64.Vec3, len(m.Joints)),
		XAxis:     make([]mgl64.Vec3, len(m.Joints)),
		GeomXPos:  make([]mgl64.Vec3, len(m.Geoms)),
		GeomXQuat: make([]mgl64.Quat, len(m.Geoms)),
	}
	sim.Forward()
	return sim
}

// BodyPos returns the world position of body b.
func (sim *Simulation) BodyPos(b int) mgl64.Vec3 {
	return mgl64.Vec3{sim.XPos[3*b], sim.XPos[3*b+1], sim.XPos[3*b+2]}
}

// BodyQuat returns the world orientation of body b.
func (sim *Simulation) BodyQuat(b int) mgl64.Quat {
	return mgl64.Quat{W: sim.XQuat[4*b], V: mgl64.Vec3{sim.XQuat[4*b+1], sim.XQuat[4*b+2], sim.XQuat[4*b+3]}}
}

func (sim *Simulation) setBody(b int, p mgl64.Vec3, q mgl64.Quat) {
	sim.XPos[3*b], sim.XPos[3*b+1], sim.XPos[3*b+2] = p[0], p[1], p[2]
	sim.XQuat[4*b], sim.XQuat[4*b+1], sim.XQuat[4*b+2], sim.XQuat[4*b+3] = q.W, q.V[0], q.V[1], q.V[2]
}

// Forward recomputes body, joint and geom poses from QPos without advancing
// time.
func (sim *Simulation) Forward() {
	m := sim.Model
	qpos := sim.State.QPos

	sim.setBody(0, mgl64.Vec3{}, mgl64.QuatIdent())
	for b := 1; b < m.NBody; b++ {
		body := &m.Bodies[b]
		pp := sim.BodyPos(body.Parent)
		pq := sim.BodyQuat(body.Parent)

		xpos := pp.Add(pq.Rotate(body.Pos))
		xquat := pq.Mul(body.Quat)

		for j := body.JointAdr; j < body.JointAdr+body.JointNum; j++ {
			jnt := &m.Joints[j]
			a := jnt.QPosAdr
			switch jnt.Type {
			case JointFree:
				xpos = mgl64.Vec3{qpos[a], qpos[a+1], qpos[a+2]}
				xquat = quatFromSlice(qpos[a+3 : a+7]).Normalize()
				sim.XAnchor[j] = xpos
				sim.XAxis[j] = mgl64.Vec3{0, 0, 1}
			case JointBall:
				anchor := xquat.Rotate(jnt.Pos).Add(xpos)
				xquat = xquat.Mul(quatFromSlice(qpos[a : a+4]).Normalize())
				xpos = anchor.Sub(xquat.Rotate(jnt.Pos))
				sim.XAnchor[j] = anchor
				sim.XAxis[j] = xquat.Rotate(jnt.Axis)
			case JointHinge:
				anchor := xquat.Rotate(jnt.Pos).Add(xpos)
				axis := xquat.Rotate(jnt.Axis)
				xquat = xquat.Mul(mgl64.QuatRotate(qpos[a]-jnt.Ref, jnt.Axis))
				xpos = anchor.Sub(xquat.Rotate(jnt.Pos))
				sim.XAnchor[j] = anchor
				sim.XAxis[j] = axis
			case JointSlide:
				axis := xquat.Rotate(jnt.Axis)
				xpos = xpos.Add(axis.Mul(qpos[a] - jnt.Ref))
				sim.XAnchor[j] = xquat.Rotate(jnt.Pos).Add(xpos)
				sim.XAxis[j] = axis
			}
		}
		// Normalize to keep the stored quaternion unit length after chained products.
		sim.setBody(b, xpos, xquat.Normalize())
	}

	for g := range m.Geoms {
		geom := &m.Geoms[g]
		bp := sim.BodyPos(geom.Body)
		bq := sim.BodyQuat(geom.Body)
		sim.GeomXPos[g] = bp.Add(bq.Rotate(geom.Pos))
		sim.GeomXQuat[g] = bq.Mul(geom.Quat)
	}
}

// Step advances the simulation by one timestep.
func (sim *Simulation) Step() {
	m := sim.Model
	dt := m.Opt.Timestep
	if dt <= 0 {
		return
	}
	sim.integrate(dt)
	sim.Forward()
	sim.Contacts = sim.resolveContacts()
	if sim.Contacts > 0 {
		sim.Forward()
	}
	sim.State.Time += dt
}

// Reset restores the reference configuration, zero velocity and zero time.
func (sim *Simulation) Reset() {
	copy(sim.State.QPos, sim.Model.QPos0)
	for i := range sim.State.QVel {
		sim.State.QVel[i] = 0
	}
	sim.State.Time = 0
	sim.Contacts = 0
	sim.Forward()
}

func quatFromSlice(q []float64) mgl64.Quat {
	return mgl64.Quat{W: q[0], V: mgl64.Vec3{q[1], q[2], q[3]}}
}

func quatToSlice(dst []float64, q mgl64.Quat) {
	dst[0], dst[1], dst[2], dst[3] = q.W, q.V[0], q.V[1], q.V[2]
}

// integrateQuat rotates q by the local angular velocity w over dt.
func integrateQuat(q mgl64.Quat, w mgl64.Vec3, dt float64) mgl64.Quat {
	speed := w.Len()
	if speed < 1e-12 {
		return q
	}
	return q.Mul(mgl64.QuatRotate(speed*dt, w.Mul(1/speed))).Normalize()
}

func dampFactor(rate, dt float64) float64 {
	if rate <= 0 {
		return 1
	}
	return 1 / (1 + rate*dt)
}
