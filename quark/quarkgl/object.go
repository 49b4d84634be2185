package quarkgl

import "github.com/go-gl/mathgl/mgl64"

// Object is a node of the scene graph. A node carries a local transform and
// optionally a mesh or a light; nodes without either act as groups.
//
// World matrices are cached. Writers that change Position, Quaternion or Scale
// directly must call MarkStale; the setters do it for them.
type Object struct {
	Name       string
	Position   mgl64.Vec3
	Quaternion mgl64.Quat
	Scale      mgl64.Vec3
	Visible    bool

	Mesh  *Mesh
	Light *Light

	parent      *Object
	children    []*Object
	matrixWorld mgl64.Mat4
	stale       bool
}

// NewGroup returns an empty node with an identity transform.
func NewGroup(name string) *Object {
	return &Object{
		Name:        name,
		Quaternion:  mgl64.QuatIdent(),
		Scale:       mgl64.Vec3{1, 1, 1},
		Visible:     true,
		matrixWorld: mgl64.Ident4(),
		stale:       true,
	}
}

// NewMeshObject returns a node drawing geometry with material.
func NewMeshObject(name string, g *Geometry, mat Material) *Object {
	o := NewGroup(name)
	o.Mesh = &Mesh{Geometry: g, Material: mat}
	return o
}

// Add appends child to o, detaching it from any previous parent.
func (o *Object) Add(child *Object) {
	if child == nil || child == o {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = o
	child.stale = true
	o.children = append(o.children, child)
}

// Remove detaches child from o.
func (o *Object) Remove(child *Object) {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

func (o *Object) Parent() *Object     { return o.parent }
func (o *Object) Children() []*Object { return o.children }

// SetPosition sets the local position.
func (o *Object) SetPosition(x, y, z float64) {
	o.Position = mgl64.Vec3{x, y, z}
	o.stale = true
}

// SetQuaternion sets the local orientation from w, x, y, z components.
// The values are stored as given.
func (o *Object) SetQuaternion(w, x, y, z float64) {
	o.Quaternion = mgl64.Quat{W: w, V: mgl64.Vec3{x, y, z}}
	o.stale = true
}

// QuaternionWXYZ returns the local orientation as w, x, y, z.
func (o *Object) QuaternionWXYZ() [4]float64 {
	q := o.Quaternion
	return [4]float64{q.W, q.V[0], q.V[1], q.V[2]}
}

// MarkStale flags the world matrix for recomputation on the next update.
func (o *Object) MarkStale() { o.stale = true }

// Stale reports whether the world matrix is pending recomputation.
func (o *Object) Stale() bool { return o.stale }

// LocalMatrix composes translation, rotation and scale.
func (o *Object) LocalMatrix() mgl64.Mat4 {
	t := mgl64.Translate3D(o.Position[0], o.Position[1], o.Position[2])
	r := o.Quaternion.Normalize().Mat4()
	s := mgl64.Scale3D(o.Scale[0], o.Scale[1], o.Scale[2])
	return t.Mul4(r).Mul4(s)
}

// MatrixWorld returns the cached world matrix.
func (o *Object) MatrixWorld() mgl64.Mat4 { return o.matrixWorld }

// UpdateMatrixWorld recomputes world matrices of stale nodes and their
// descendants. force recomputes the whole subtree.
func (o *Object) UpdateMatrixWorld(force bool) {
	if o.stale || force {
		local := o.LocalMatrix()
		if o.parent != nil {
			o.matrixWorld = o.parent.matrixWorld.Mul4(local)
		} else {
			o.matrixWorld = local
		}
		o.stale = false
		force = true
	}
	for _, c := range o.children {
		c.UpdateMatrixWorld(force)
	}
}

// WorldPosition returns the origin of o in world coordinates.
func (o *Object) WorldPosition() mgl64.Vec3 {
	return o.matrixWorld.Col(3).Vec3()
}

// Traverse calls fn for o and every descendant, depth first.
func (o *Object) Traverse(fn func(*Object)) {
	fn(o)
	for _, c := range o.children {
		c.Traverse(fn)
	}
}

// traverseVisible is Traverse restricted to visible subtrees.
func (o *Object) traverseVisible(fn func(*Object)) {
	if !o.Visible {
		return
	}
	fn(o)
	for _, c := range o.children {
		c.traverseVisible(fn)
	}
}
