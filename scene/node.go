// Package scene is the in-memory character graph the configurator mutates:
// groups, bones and meshes with their materials and deformation slots.
package scene

import (
	"github.com/binzume/mannequin/geom"
)

type Kind int

const (
	KindGroup Kind = iota
	KindBone
	KindMesh
)

func (k Kind) String() string {
	switch k {
	case KindBone:
		return "bone"
	case KindMesh:
		return "mesh"
	}
	return "group"
}

// Node is one of *Group, *Bone or *Mesh.
type Node interface {
	Base() *Object
	Kind() Kind
}

type Object struct {
	Name     string
	Aliases  []string
	Source   int
	Parent   Node
	Children []Node
	Scale    geom.Vector3
	Visible  bool

	baseline *geom.Vector3
}

func newObject(name string) Object {
	return Object{Name: name, Source: -1, Scale: geom.One, Visible: true}
}

func (o *Object) Base() *Object { return o }

// Names returns the node name followed by its aliases.
func (o *Object) Names() []string {
	return append([]string{o.Name}, o.Aliases...)
}

// BaselineScale is the scale at the first call. Later calls return the
// captured value even after Scale changes.
func (o *Object) BaselineScale() geom.Vector3 {
	if o.baseline == nil {
		s := o.Scale
		o.baseline = &s
	}
	return *o.baseline
}

// ResetScale restores the captured baseline.
func (o *Object) ResetScale() {
	o.Scale = o.BaselineScale()
}

type Group struct {
	Object
}

func NewGroup(name string) *Group {
	return &Group{Object: newObject(name)}
}

func (*Group) Kind() Kind { return KindGroup }

type Bone struct {
	Object
}

func NewBone(name string) *Bone {
	return &Bone{Object: newObject(name)}
}

func (*Bone) Kind() Kind { return KindBone }

// Geometry keeps the attributes the configurator reads.
type Geometry struct {
	TriangleCount int
	UVs           [][2]float32
	TargetCount   int
	MorphNormals  bool
}

type Mesh struct {
	Object
	Skinned     bool
	Geometry    Geometry
	Materials   []*Material
	TargetNames []string
	Influences  []float32
	MeshSource  int

	// primitive index -> index into Materials, -1 for no material
	primitiveMaterials []int
	owned              bool
}

func NewMesh(name string) *Mesh {
	return &Mesh{Object: newObject(name), MeshSource: -1}
}

func (*Mesh) Kind() Kind { return KindMesh }

// MaterialNames lists the names of the assigned materials.
func (m *Mesh) MaterialNames() []string {
	names := make([]string, len(m.Materials))
	for i, mat := range m.Materials {
		names[i] = mat.Name
	}
	return names
}

// DeformFlags is what any material drawn on this mesh must declare.
func (m *Mesh) DeformFlags() DeformFlags {
	return DeformFlags{
		Skinning:     m.Skinned,
		MorphTargets: m.Geometry.TargetCount > 0,
		MorphNormals: m.Geometry.TargetCount > 0 && m.Geometry.MorphNormals,
	}
}

// OwnMaterials replaces shared materials with per-mesh clones on first call.
func (m *Mesh) OwnMaterials() []*Material {
	if !m.owned {
		for i, mat := range m.Materials {
			m.Materials[i] = mat.Clone()
		}
		m.owned = true
	}
	m.SyncDeformFlags()
	return m.Materials
}

// SyncDeformFlags copies the mesh's deform capabilities onto its materials.
func (m *Mesh) SyncDeformFlags() {
	for _, mat := range m.Materials {
		m.syncDeform(mat)
	}
}

// Owned reports whether materials were cloned for this mesh.
func (m *Mesh) Owned() bool { return m.owned }

// SetMaterial assigns mat to slot i, taking ownership of it.
func (m *Mesh) SetMaterial(i int, mat *Material) {
	m.OwnMaterials()
	m.syncDeform(mat)
	m.Materials[i] = mat
}

func (m *Mesh) syncDeform(mat *Material) {
	f := m.DeformFlags()
	if mat.Deform != f {
		mat.Deform = f
		mat.Touch()
	}
}

// AddChild appends child and sets its parent.
func AddChild(parent, child Node) {
	parent.Base().Children = append(parent.Base().Children, child)
	child.Base().Parent = parent
}

// Walk visits root and its descendants depth first.
func Walk(root Node, fn func(n Node)) {
	if root == nil {
		return
	}
	fn(root)
	for _, c := range root.Base().Children {
		Walk(c, fn)
	}
}

func Meshes(root Node) []*Mesh {
	var meshes []*Mesh
	Walk(root, func(n Node) {
		if m, ok := n.(*Mesh); ok {
			meshes = append(meshes, m)
		}
	})
	return meshes
}

func Bones(root Node) []*Bone {
	var bones []*Bone
	Walk(root, func(n Node) {
		if b, ok := n.(*Bone); ok {
			bones = append(bones, b)
		}
	})
	return bones
}
