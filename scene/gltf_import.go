package scene

import (
	"errors"
	"log/slog"

	"github.com/binzume/mannequin/geom"
	"github.com/binzume/mannequin/gltfutil"
	"github.com/binzume/mannequin/vrm"
	"github.com/qmuntal/gltf"
)

var ErrEmptyDocument = errors.New("scene: document has no nodes")

type gltfImporter struct {
	doc        *gltf.Document
	joints     map[uint32]bool
	humanoid   map[uint32]string
	blendNames map[int]map[int]string
	materials  map[uint32]*Material
	visited    map[uint32]bool
}

// FromGLTF builds the scene graph of doc's default scene under a root group
// named name. Materials are shared between meshes until OwnMaterials.
func FromGLTF(doc *gltf.Document, name string) (*Asset, error) {
	if doc == nil || len(doc.Nodes) == 0 {
		return nil, ErrEmptyDocument
	}
	imp := &gltfImporter{
		doc:        doc,
		joints:     map[uint32]bool{},
		humanoid:   vrm.HumanoidBones(doc),
		blendNames: vrm.BlendShapeNames(doc),
		materials:  map[uint32]*Material{},
		visited:    map[uint32]bool{},
	}
	for _, skin := range doc.Skins {
		for _, j := range skin.Joints {
			imp.joints[j] = true
		}
	}

	root := NewGroup(name)
	for _, idx := range rootNodes(doc) {
		if n := imp.node(idx); n != nil {
			AddChild(root, n)
		}
	}
	return NewAsset(name, root), nil
}

func rootNodes(doc *gltf.Document) []uint32 {
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
			s = int(*doc.Scene)
		}
		return doc.Scenes[s].Nodes
	}
	child := map[uint32]bool{}
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !child[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

func (imp *gltfImporter) node(idx uint32) Node {
	if int(idx) >= len(imp.doc.Nodes) || imp.visited[idx] {
		return nil
	}
	imp.visited[idx] = true
	gn := imp.doc.Nodes[idx]

	var n Node
	if gn.Mesh != nil && int(*gn.Mesh) < len(imp.doc.Meshes) {
		n = imp.mesh(gn)
	} else if imp.joints[idx] {
		n = NewBone(gn.Name)
	} else {
		n = NewGroup(gn.Name)
	}
	o := n.Base()
	o.Source = int(idx)
	if gn.Scale != [3]float32{} {
		o.Scale = *geom.NewVector3FromArray(gn.Scale)
	}
	if alias, ok := imp.humanoid[idx]; ok {
		o.Aliases = append(o.Aliases, alias)
	}
	for _, c := range gn.Children {
		if child := imp.node(c); child != nil {
			AddChild(n, child)
		}
	}
	return n
}

func (imp *gltfImporter) mesh(gn *gltf.Node) *Mesh {
	mi := *gn.Mesh
	gm := imp.doc.Meshes[mi]
	name := gn.Name
	if name == "" {
		name = gm.Name
	}
	m := NewMesh(name)
	m.MeshSource = int(mi)
	m.Skinned = gn.Skin != nil
	m.Geometry.TriangleCount = gltfutil.TriangleCount(imp.doc, gm)
	m.Geometry.MorphNormals = gltfutil.HasMorphNormals(gm)
	if uvs, err := gltfutil.ReadUVs(imp.doc, gm); err != nil {
		slog.Warn("unreadable TEXCOORD_0", "mesh", name, "err", err)
	} else {
		m.Geometry.UVs = uvs
	}

	count := gltfutil.TargetCount(gm)
	m.Geometry.TargetCount = count
	if count > 0 {
		m.TargetNames = make([]string, count)
		copy(m.TargetNames, gltfutil.TargetNames(gm))
		for i, n := range imp.blendNames[int(mi)] {
			if i >= 0 && i < count && m.TargetNames[i] == "" {
				m.TargetNames[i] = n
			}
		}
		weights := gn.Weights
		if len(weights) != count {
			weights = gm.Weights
		}
		m.Influences = make([]float32, count)
		copy(m.Influences, weights)
	}

	for _, p := range gm.Primitives {
		if p.Material == nil || int(*p.Material) >= len(imp.doc.Materials) {
			m.primitiveMaterials = append(m.primitiveMaterials, -1)
			continue
		}
		mat := imp.material(*p.Material)
		slot := -1
		for i, existing := range m.Materials {
			if existing == mat {
				slot = i
			}
		}
		if slot < 0 {
			m.Materials = append(m.Materials, mat)
			slot = len(m.Materials) - 1
		}
		m.primitiveMaterials = append(m.primitiveMaterials, slot)
	}
	return m
}

func (imp *gltfImporter) material(idx uint32) *Material {
	if mat, ok := imp.materials[idx]; ok {
		return mat
	}
	gm := imp.doc.Materials[idx]
	mat := NewMaterial(gm.Name)
	mat.Source = int(idx)
	mat.MapSource = -1
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		col := pbr.BaseColorFactorOrDefault()
		mat.Color = Color{col[0], col[1], col[2]}
		mat.Alpha = col[3]
		mat.Metalness = pbr.MetallicFactorOrDefault()
		mat.Roughness = pbr.RoughnessFactorOrDefault()
		if pbr.BaseColorTexture != nil {
			mat.MapSource = int(pbr.BaseColorTexture.Index)
		}
	}
	imp.materials[idx] = mat
	return mat
}
