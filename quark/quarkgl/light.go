package quarkgl

import "github.com/go-gl/mathgl/mgl64"

// Light is attached to an Object; its world placement follows the node.
// Directional lights shine along Direction (node frame); other lights are
// point lights at the node origin.
type Light struct {
	Color       mgl64.Vec3 // diffuse, 0..1 per channel
	Ambient     mgl64.Vec3
	Intensity   float64
	Directional bool
	Direction   mgl64.Vec3
	Enabled     bool

	node *Object
}

// NewLightObject wraps l in a scene node.
func NewLightObject(name string, l *Light) *Object {
	o := NewGroup(name)
	o.Light = l
	l.node = o
	return o
}

// Node returns the scene node carrying the light.
func (l *Light) Node() *Object { return l.node }

// litLight is a light resolved to world space for one frame.
type litLight struct {
	color       mgl64.Vec3
	directional bool
	dir         mgl64.Vec3 // direction light travels, world
	pos         mgl64.Vec3
}

func collectLights(root *Object) (lights []litLight, ambient mgl64.Vec3) {
	root.traverseVisible(func(o *Object) {
		l := o.Light
		if l == nil || !l.Enabled {
			return
		}
		intensity := l.Intensity
		if intensity == 0 {
			intensity = 1
		}
		ambient = ambient.Add(l.Ambient)
		ll := litLight{color: l.Color.Mul(intensity), directional: l.Directional}
		m := o.MatrixWorld()
		if l.Directional {
			d := m.Mul4x1(l.Direction.Vec4(0)).Vec3()
			if d.Len() == 0 {
				return
			}
			ll.dir = d.Normalize()
		} else {
			ll.pos = o.WorldPosition()
		}
		lights = append(lights, ll)
	})
	return lights, ambient
}

// shade returns per-channel light intensity for a surface at p with unit
// normal n.
func shade(lights []litLight, ambient mgl64.Vec3, p, n mgl64.Vec3) mgl64.Vec3 {
	out := ambient
	for _, l := range lights {
		var toLight mgl64.Vec3
		if l.directional {
			toLight = l.dir.Mul(-1)
		} else {
			d := l.pos.Sub(p)
			if d.Len() == 0 {
				continue
			}
			toLight = d.Normalize()
		}
		if k := n.Dot(toLight); k > 0 {
			out = out.Add(l.color.Mul(k))
		}
	}
	return out
}
