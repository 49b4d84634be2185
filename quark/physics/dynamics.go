package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// restingSpeed is the normal approach speed below which contacts do not bounce.
const restingSpeed = 0.05

// integrate performs one semi-implicit Euler step on QVel and QPos using the
// poses from the previous forward pass.
func (sim *Simulation) integrate(dt float64) {
	m := sim.Model
	qpos, qvel := sim.State.QPos, sim.State.QVel
	g := m.Opt.Gravity

	for j := range m.Joints {
		jnt := &m.Joints[j]
		a, d := jnt.QPosAdr, jnt.DofAdr
		switch jnt.Type {
		case JointFree:
			v := mgl64.Vec3{qvel[d], qvel[d+1], qvel[d+2]}
			w := mgl64.Vec3{qvel[d+3], qvel[d+4], qvel[d+5]}
			v = v.Add(g.Mul(dt)).Mul(dampFactor(m.Opt.LinearDamping, dt))
			w = w.Mul(dampFactor(m.Opt.AngularDamping, dt))
			qvel[d], qvel[d+1], qvel[d+2] = v[0], v[1], v[2]
			qvel[d+3], qvel[d+4], qvel[d+5] = w[0], w[1], w[2]

			qpos[a] += v[0] * dt
			qpos[a+1] += v[1] * dt
			qpos[a+2] += v[2] * dt
			quatToSlice(qpos[a+3:a+7], integrateQuat(quatFromSlice(qpos[a+3:a+7]).Normalize(), w, dt))

		case JointBall:
			torque, inertia := sim.ballLoad(j)
			// Angular velocity lives in the body frame.
			acc := sim.BodyQuat(jnt.Body).Conjugate().Rotate(torque).Mul(1 / inertia)
			w := mgl64.Vec3{qvel[d], qvel[d+1], qvel[d+2]}.Add(acc.Mul(dt))
			w = w.Mul(dampFactor(jnt.Damping/inertia, dt))
			qvel[d], qvel[d+1], qvel[d+2] = w[0], w[1], w[2]
			quatToSlice(qpos[a:a+4], integrateQuat(quatFromSlice(qpos[a:a+4]).Normalize(), w, dt))

		case JointHinge, JointSlide:
			torque, inertia := sim.gravityLoad(j)
			acc := (torque - jnt.Stiffness*(qpos[a]-jnt.Ref)) / inertia
			qvel[d] = (qvel[d] + acc*dt) * dampFactor(jnt.Damping/inertia, dt)
			qpos[a] += qvel[d] * dt
			if jnt.Limited && jnt.Range[0] < jnt.Range[1] {
				if qpos[a] < jnt.Range[0] {
					qpos[a] = jnt.Range[0]
					qvel[d] = math.Max(qvel[d], 0)
				} else if qpos[a] > jnt.Range[1] {
					qpos[a] = jnt.Range[1]
					qvel[d] = math.Min(qvel[d], 0)
				}
			}
		}
	}
}

// gravityLoad returns the generalized gravity force on joint j and the
// effective inertia of the subtree it moves. Each body is treated as a point
// mass at its center of mass plus a small spherical term.
func (sim *Simulation) gravityLoad(j int) (force, inertia float64) {
	m := sim.Model
	jnt := &m.Joints[j]
	anchor, axis := sim.XAnchor[j], sim.XAxis[j]
	g := m.Opt.Gravity

	for b := jnt.Body; b < m.NBody; b++ {
		if !m.inSubtree(b, jnt.Body) {
			continue
		}
		body := &m.Bodies[b]
		if body.Mass == 0 {
			continue
		}
		com := sim.BodyPos(b).Add(sim.BodyQuat(b).Rotate(body.COM))
		weight := g.Mul(body.Mass)
		if jnt.Type == JointSlide {
			force += weight.Dot(axis)
			inertia += body.Mass
			continue
		}
		r := com.Sub(anchor)
		force += r.Cross(weight).Dot(axis)
		perp := r.Sub(axis.Mul(r.Dot(axis)))
		inertia += body.Mass * (perp.Dot(perp) + 0.01*r.Dot(r) + 1e-4)
	}
	if inertia < 1e-9 {
		inertia = 1e-9
	}
	return force, inertia
}

// ballLoad returns the world gravity torque about ball joint j's anchor and a
// scalar inertia estimate for the subtree, using the same point-mass model as
// gravityLoad.
func (sim *Simulation) ballLoad(j int) (torque mgl64.Vec3, inertia float64) {
	m := sim.Model
	jnt := &m.Joints[j]
	anchor := sim.XAnchor[j]
	g := m.Opt.Gravity

	for b := jnt.Body; b < m.NBody; b++ {
		if !m.inSubtree(b, jnt.Body) {
			continue
		}
		body := &m.Bodies[b]
		if body.Mass == 0 {
			continue
		}
		com := sim.BodyPos(b).Add(sim.BodyQuat(b).Rotate(body.COM))
		r := com.Sub(anchor)
		torque = torque.Add(r.Cross(g.Mul(body.Mass)))
		inertia += body.Mass * (1.01*r.Dot(r) + 1e-4)
	}
	if inertia < 1e-9 {
		inertia = 1e-9
	}
	return torque, inertia
}

// inSubtree reports whether b is root or one of its descendants.
func (m *Model) inSubtree(b, root int) bool {
	for b > root {
		b = m.Bodies[b].Parent
	}
	return b == root
}

// resolveContacts pushes free bodies out of world planes and applies a
// restitution/friction impulse. It returns the number of bodies in contact.
func (sim *Simulation) resolveContacts() int {
	m := sim.Model
	qpos, qvel := sim.State.QPos, sim.State.QVel
	dt := m.Opt.Timestep
	n := 0

	for j := range m.Joints {
		jnt := &m.Joints[j]
		if jnt.Type != JointFree {
			continue
		}
		body := &m.Bodies[jnt.Body]

		var (
			depth  float64
			normal mgl64.Vec3
		)
		for pg := range m.Geoms {
			plane := &m.Geoms[pg]
			if plane.Type != GeomPlane || plane.Body != 0 {
				continue
			}
			pn := sim.GeomXQuat[pg].Rotate(mgl64.Vec3{0, 0, 1})
			offset := pn.Dot(sim.GeomXPos[pg])
			for g := body.GeomAdr; g < body.GeomAdr+body.GeomNum; g++ {
				p := sim.support(g, pn.Mul(-1))
				if d := offset - pn.Dot(p); d > depth {
					depth, normal = d, pn
				}
			}
		}
		if depth <= 0 {
			continue
		}
		n++

		a, d := jnt.QPosAdr, jnt.DofAdr
		qpos[a] += normal[0] * depth
		qpos[a+1] += normal[1] * depth
		qpos[a+2] += normal[2] * depth

		v := mgl64.Vec3{qvel[d], qvel[d+1], qvel[d+2]}
		vn := v.Dot(normal)
		if vn < 0 {
			e := m.Opt.Restitution
			if -vn < restingSpeed {
				e = 0
			}
			dvn := -(1 + e) * vn
			v = v.Add(normal.Mul(dvn))

			vt := v.Sub(normal.Mul(v.Dot(normal)))
			if speed := vt.Len(); speed > 0 {
				cut := math.Min(speed, m.Opt.Friction*dvn)
				v = v.Sub(vt.Mul(cut / speed))
			}
		}
		qvel[d], qvel[d+1], qvel[d+2] = v[0], v[1], v[2]
		for k := d + 3; k < d+6; k++ {
			qvel[k] *= dampFactor(m.Opt.Friction*10, dt)
		}
	}
	return n
}

// support returns the point of geom g farthest along dir, in world coordinates.
func (sim *Simulation) support(g int, dir mgl64.Vec3) mgl64.Vec3 {
	geom := &sim.Model.Geoms[g]
	c := sim.GeomXPos[g]
	q := sim.GeomXQuat[g]
	s := geom.Size

	switch geom.Type {
	case GeomSphere:
		return c.Add(dir.Mul(s[0]))
	case GeomCapsule:
		axis := q.Rotate(mgl64.Vec3{0, 0, 1})
		return c.Add(axis.Mul(sign(axis.Dot(dir)) * s[1])).Add(dir.Mul(s[0]))
	case GeomCylinder:
		axis := q.Rotate(mgl64.Vec3{0, 0, 1})
		p := c.Add(axis.Mul(sign(axis.Dot(dir)) * s[1]))
		radial := dir.Sub(axis.Mul(dir.Dot(axis)))
		if l := radial.Len(); l > 1e-12 {
			p = p.Add(radial.Mul(s[0] / l))
		}
		return p
	case GeomBox:
		p := c
		for i := 0; i < 3; i++ {
			var e mgl64.Vec3
			e[i] = 1
			ax := q.Rotate(e)
			p = p.Add(ax.Mul(sign(ax.Dot(dir)) * s[i]))
		}
		return p
	case GeomEllipsoid:
		local := q.Conjugate().Rotate(dir)
		scaled := mgl64.Vec3{local[0] * s[0], local[1] * s[1], local[2] * s[2]}
		l := scaled.Len()
		if l < 1e-12 {
			return c
		}
		off := mgl64.Vec3{s[0] * scaled[0] / l, s[1] * scaled[1] / l, s[2] * scaled[2] / l}
		return c.Add(q.Rotate(off))
	}
	return c
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
