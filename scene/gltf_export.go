package scene

import (
	"fmt"
	"image"

	"github.com/binzume/mannequin/gltfutil"
	"github.com/qmuntal/gltf"
)

const (
	ExtensionNodeVisibility = "KHR_node_visibility"
	ExtrasKey               = "mannequin"
)

type gltfWriter struct {
	doc       *gltf.Document
	materials map[*Material]uint32
	textures  map[*Texture]uint32
	meshUsers map[uint32]int
}

// WriteBack stores influences, scales, visibility and owned materials into
// doc, which must be the document the asset was imported from.
func (a *Asset) WriteBack(doc *gltf.Document) error {
	if a.Root == nil {
		return fmt.Errorf("scene: asset %q released", a.Name)
	}
	w := &gltfWriter{
		doc:       doc,
		materials: map[*Material]uint32{},
		textures:  map[*Texture]uint32{},
		meshUsers: map[uint32]int{},
	}
	for _, n := range doc.Nodes {
		if n.Mesh != nil {
			w.meshUsers[*n.Mesh]++
		}
	}
	var err error
	Walk(a.Root, func(n Node) {
		if err == nil {
			err = w.node(n)
		}
	})
	return err
}

func (w *gltfWriter) node(n Node) error {
	o := n.Base()
	if o.Source < 0 || o.Source >= len(w.doc.Nodes) {
		return nil
	}
	gn := w.doc.Nodes[o.Source]
	gn.Scale = o.Scale.ToArray()
	if !o.Visible {
		if gn.Extensions == nil {
			gn.Extensions = gltf.Extensions{}
		}
		gn.Extensions[ExtensionNodeVisibility] = map[string]interface{}{"visible": false}
		gltfutil.UseExtension(w.doc, ExtensionNodeVisibility)
	} else if gn.Extensions != nil {
		delete(gn.Extensions, ExtensionNodeVisibility)
	}

	m, ok := n.(*Mesh)
	if !ok {
		return nil
	}
	if len(m.Influences) > 0 {
		gn.Weights = append([]float32(nil), m.Influences...)
	}
	if !m.Owned() || gn.Mesh == nil || int(*gn.Mesh) >= len(w.doc.Meshes) {
		return nil
	}
	indices := make([]uint32, len(m.Materials))
	for i, mat := range m.Materials {
		idx, err := w.material(mat)
		if err != nil {
			return err
		}
		indices[i] = idx
	}
	gm := w.doc.Meshes[*gn.Mesh]
	if w.meshUsers[*gn.Mesh] > 1 {
		// shared glTF mesh: give this node its own primitives
		w.meshUsers[*gn.Mesh]--
		c := *gm
		c.Primitives = make([]*gltf.Primitive, len(gm.Primitives))
		for i, p := range gm.Primitives {
			cp := *p
			c.Primitives[i] = &cp
		}
		w.doc.Meshes = append(w.doc.Meshes, &c)
		gn.Mesh = gltf.Index(uint32(len(w.doc.Meshes) - 1))
		gm = &c
	}
	for i, p := range gm.Primitives {
		if i < len(m.primitiveMaterials) && m.primitiveMaterials[i] >= 0 {
			p.Material = gltf.Index(indices[m.primitiveMaterials[i]])
		}
	}
	return nil
}

func (w *gltfWriter) material(mat *Material) (uint32, error) {
	if idx, ok := w.materials[mat]; ok {
		return idx, nil
	}
	var gm gltf.Material
	var pbr gltf.PBRMetallicRoughness
	if mat.Source >= 0 && mat.Source < len(w.doc.Materials) {
		gm = *w.doc.Materials[mat.Source]
		if gm.PBRMetallicRoughness != nil {
			pbr = *gm.PBRMetallicRoughness
		}
	}
	gm.Name = mat.Name
	color := [4]float32{mat.Color.R, mat.Color.G, mat.Color.B, mat.Alpha}
	metallic, roughness := mat.Metalness, mat.Roughness
	pbr.BaseColorFactor = &color
	pbr.MetallicFactor = &metallic
	pbr.RoughnessFactor = &roughness
	var img image.Image
	if mat.Map != nil {
		img = mat.Map.Image()
	}
	switch {
	case img != nil:
		idx, ok := w.textures[mat.Map]
		if !ok {
			var err error
			idx, err = gltfutil.AddImageTexture(w.doc, mat.Map.Name, img)
			if err != nil {
				return 0, fmt.Errorf("scene: texture %q: %w", mat.Map.Name, err)
			}
			w.textures[mat.Map] = idx
		}
		pbr.BaseColorTexture = &gltf.TextureInfo{Index: idx}
	case mat.MapSource >= 0:
		if pbr.BaseColorTexture == nil || int(pbr.BaseColorTexture.Index) != mat.MapSource {
			pbr.BaseColorTexture = &gltf.TextureInfo{Index: uint32(mat.MapSource)}
		}
	default:
		pbr.BaseColorTexture = nil
	}
	gm.PBRMetallicRoughness = &pbr
	gm.Extras = map[string]interface{}{ExtrasKey: materialExtras(mat)}

	w.doc.Materials = append(w.doc.Materials, &gm)
	idx := uint32(len(w.doc.Materials) - 1)
	w.materials[mat] = idx
	return idx, nil
}

func materialExtras(mat *Material) map[string]interface{} {
	ex := map[string]interface{}{
		"skinning":     mat.Deform.Skinning,
		"morphTargets": mat.Deform.MorphTargets,
		"morphNormals": mat.Deform.MorphNormals,
	}
	if mat.Offset.Enabled {
		ex["polygonOffset"] = map[string]float32{"factor": mat.Offset.Factor, "units": mat.Offset.Units}
	}
	return ex
}
