// Package framesync copies simulated body poses onto render proxies.
package framesync

import (
	"quarkview/quark/physics"
	"quarkview/quark/quarkgl"
)

// Sync copies pose b from xpos (3 per body) and xquat (4 per body, w x y z)
// into bodies[b] for every b in [0, nbody) that has a proxy, then marks the
// proxy's world matrix stale. Nil slots are skipped without reading their
// pose. Values are copied verbatim; the arrays are never written.
//
// Slots past len(bodies) or past the end of either array are ignored.
func Sync(bodies []*quarkgl.Object, nbody int, xpos, xquat []float64) int {
	n := min(nbody, len(bodies), len(xpos)/3, len(xquat)/4)
	synced := 0
	for b := 0; b < n; b++ {
		obj := bodies[b]
		if obj == nil {
			continue
		}
		p := xpos[3*b : 3*b+3 : 3*b+3]
		q := xquat[4*b : 4*b+4 : 4*b+4]
		obj.Position[0], obj.Position[1], obj.Position[2] = p[0], p[1], p[2]
		obj.Quaternion.W = q[0]
		obj.Quaternion.V[0], obj.Quaternion.V[1], obj.Quaternion.V[2] = q[1], q[2], q[3]
		obj.MarkStale()
		synced++
	}
	return synced
}

// SyncSimulation is Sync over a simulation's pose arrays.
func SyncSimulation(bodies []*quarkgl.Object, sim *physics.Simulation) int {
	if sim == nil || sim.Model == nil {
		return 0
	}
	return Sync(bodies, sim.Model.NBody, sim.XPos, sim.XQuat)
}
