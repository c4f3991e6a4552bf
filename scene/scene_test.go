package scene

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/binzume/mannequin/geom"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument() *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {0.25, 0.1}, {0.1, 0.2}})
	ind := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	delta := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {0.1, 0, 0}, {0, 0, 0}})

	body := &gltf.Primitive{
		Attributes: map[string]uint32{"POSITION": pos, "TEXCOORD_0": uv},
		Indices:    gltf.Index(ind),
		Material:   gltf.Index(0),
	}
	body.Targets = append(body.Targets, map[string]uint32{"POSITION": delta})

	doc.Materials = []*gltf.Material{
		{Name: "Skin", PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorFactor: &[4]float32{1, 0.5, 0.5, 1}}},
		{Name: "Shirt"},
	}
	doc.Meshes = []*gltf.Mesh{
		{Name: "BodyMesh", Primitives: []*gltf.Primitive{body}, Weights: []float32{0.25},
			Extras: map[string]interface{}{"targetNames": []interface{}{"Belly"}}},
		{Name: "ShirtMesh", Primitives: []*gltf.Primitive{{Attributes: map[string]uint32{"POSITION": pos}, Material: gltf.Index(1)}}},
		{Name: "PantsMesh", Primitives: []*gltf.Primitive{{Attributes: map[string]uint32{"POSITION": pos}, Material: gltf.Index(0)}}},
	}
	doc.Nodes = []*gltf.Node{
		{Name: "Armature", Children: []uint32{1, 3, 4, 5}},
		{Name: "J_Hips", Children: []uint32{2}},
		{Name: "Spine"},
		{Name: "Body", Mesh: gltf.Index(0), Skin: gltf.Index(0)},
		{Name: "T-Shirt", Mesh: gltf.Index(1), Scale: [3]float32{1, 2, 1}},
		{Name: "Pants", Mesh: gltf.Index(2)},
	}
	doc.Skins = []*gltf.Skin{{Joints: []uint32{1, 2}}}
	doc.Scenes[0].Nodes = []uint32{0}
	doc.Extensions = gltf.Extensions{
		"VRM": json.RawMessage(`{"humanoid":{"humanBones":[{"bone":"hips","node":1}]}}`),
	}
	return doc
}

func TestFromGLTF(t *testing.T) {
	asset, err := FromGLTF(newTestDocument(), "male")
	require.NoError(t, err)
	require.Len(t, asset.Root.Children, 1)

	hips, ok := asset.Find("J_Hips").(*Bone)
	require.True(t, ok)
	assert.Equal(t, []string{"J_Hips", "hips"}, hips.Names())
	assert.IsType(t, &Bone{}, asset.Find("Spine"))
	assert.IsType(t, &Group{}, asset.Find("Armature"))

	body := asset.Find("Body").(*Mesh)
	assert.True(t, body.Skinned)
	assert.Equal(t, []string{"Belly"}, body.TargetNames)
	assert.Equal(t, []float32{0.25}, body.Influences)
	assert.Equal(t, 1, body.Geometry.TriangleCount)
	assert.Len(t, body.Geometry.UVs, 3)
	assert.Equal(t, Color{1, 0.5, 0.5}, body.Materials[0].Color)
	assert.Equal(t, float32(1), body.Materials[0].Metalness)
	assert.Equal(t, DeformFlags{Skinning: true, MorphTargets: true}, body.DeformFlags())

	shirt := asset.Find("T-Shirt").(*Mesh)
	assert.Nil(t, shirt.Geometry.UVs)
	assert.Equal(t, geom.Vector3{X: 1, Y: 2, Z: 1}, shirt.Scale)
	assert.Equal(t, geom.Vector3{X: 1, Y: 2, Z: 1}, shirt.BaselineScale())
	assert.Equal(t, geom.One, body.Scale)

	assert.Len(t, Meshes(asset.Root), 3)
	assert.Len(t, Bones(asset.Root), 2)
}

func TestFromGLTF_Empty(t *testing.T) {
	_, err := FromGLTF(&gltf.Document{}, "x")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestOwnMaterials(t *testing.T) {
	asset, err := FromGLTF(newTestDocument(), "male")
	require.NoError(t, err)
	body := asset.Find("Body").(*Mesh)
	pants := asset.Find("Pants").(*Mesh)
	require.Same(t, body.Materials[0], pants.Materials[0])

	shared := pants.Materials[0]
	mats := body.OwnMaterials()
	assert.NotSame(t, shared, mats[0])
	assert.Same(t, mats[0], body.OwnMaterials()[0])
	assert.Equal(t, DeformFlags{Skinning: true, MorphTargets: true}, mats[0].Deform)
	assert.Equal(t, DeformFlags{}, shared.Deform)

	mats[0].Color = White
	assert.Equal(t, Color{1, 0.5, 0.5}, shared.Color)
}

func TestSetMaterialSyncsDeformFlags(t *testing.T) {
	m := NewMesh("Body")
	m.Skinned = true
	m.Geometry.TargetCount = 2
	m.Geometry.MorphNormals = true
	m.Materials = []*Material{NewMaterial("a")}

	mat := NewMaterial("b")
	v := mat.Version()
	m.SetMaterial(0, mat)
	assert.Equal(t, DeformFlags{true, true, true}, mat.Deform)
	assert.Greater(t, mat.Version(), v)
	assert.Same(t, mat, m.Materials[0])
}

func TestBaselineScale(t *testing.T) {
	g := NewGroup("root")
	g.Scale = geom.Uniform(2)
	assert.Equal(t, geom.Uniform(2), g.BaselineScale())
	g.Scale = geom.Uniform(3)
	assert.Equal(t, geom.Uniform(2), g.BaselineScale())
	g.ResetScale()
	assert.Equal(t, geom.Uniform(2), g.Scale)
}

func TestWriteBack(t *testing.T) {
	doc := newTestDocument()
	asset, err := FromGLTF(doc, "male")
	require.NoError(t, err)

	body := asset.Find("Body").(*Mesh)
	body.Influences[0] = 0.75
	mat := body.OwnMaterials()[0]
	mat.Color = MustColor("#e6c8b5")
	mat.SetMap(NewTexture("atlas", image.NewRGBA(image.Rect(0, 0, 4, 4))))
	mat.Offset = PolygonOffset{Enabled: true, Factor: -1, Units: -1}
	asset.Find("J_Hips").Base().Scale = geom.Uniform(1.1)
	asset.Find("Pants").Base().Visible = false

	require.NoError(t, asset.WriteBack(doc))

	assert.Equal(t, []float32{0.75}, doc.Nodes[3].Weights)
	assert.Equal(t, [3]float32{1.1, 1.1, 1.1}, doc.Nodes[1].Scale)
	require.Len(t, doc.Materials, 3)
	assert.Equal(t, uint32(2), *doc.Meshes[0].Primitives[0].Material)
	assert.Equal(t, uint32(0), *doc.Meshes[2].Primitives[0].Material)

	out := doc.Materials[2]
	require.NotNil(t, out.PBRMetallicRoughness.BaseColorTexture)
	assert.Len(t, doc.Textures, 1)
	assert.Len(t, doc.Images, 1)
	extras := out.Extras.(map[string]interface{})[ExtrasKey].(map[string]interface{})
	assert.Equal(t, true, extras["skinning"])
	assert.Equal(t, true, extras["morphTargets"])
	assert.Contains(t, extras, "polygonOffset")

	assert.Contains(t, doc.Nodes[5].Extensions, ExtensionNodeVisibility)
	assert.Contains(t, doc.ExtensionsUsed, ExtensionNodeVisibility)
}

func TestRelease(t *testing.T) {
	asset := NewAsset("a", NewGroup("root"))
	tex := NewTexture("atlas", image.NewRGBA(image.Rect(0, 0, 1, 1)))
	mesh := NewMesh("Shirt")
	mesh.Materials = []*Material{NewMaterial("Shirt")}
	mesh.OwnMaterials()[0].SetMap(tex)
	AddChild(asset.Root, mesh)

	asset.Release()
	assert.True(t, asset.Released())
	assert.Nil(t, asset.Root)
	assert.Nil(t, asset.Find("root"))
	// painted textures belong to their creator
	assert.False(t, tex.Disposed())
	assert.NotNil(t, tex.Image())
	asset.Release()
}

func TestTextureFrames(t *testing.T) {
	first := image.NewRGBA(image.Rect(0, 0, 1, 1))
	tex := NewTexture("atlas", first)
	assert.True(t, tex.NeedsUpload())
	tex.MarkUploaded()
	assert.False(t, tex.NeedsUpload())

	second := image.NewRGBA(image.Rect(0, 0, 2, 2))
	v := tex.Version()
	tex.SetImage(second)
	assert.Equal(t, v+1, tex.Version())
	assert.True(t, tex.NeedsUpload())
	assert.Same(t, second, tex.Image())

	tex.Dispose()
	assert.True(t, tex.Disposed())
	assert.False(t, tex.NeedsUpload())
	assert.Nil(t, tex.Image())
	tex.SetImage(first)
	assert.Nil(t, tex.Image())
}

func TestColor(t *testing.T) {
	c, err := ParseColor("#ffffff")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.R, 1e-6)
	assert.Equal(t, "#b91c1c", MustColor("#b91c1c").Hex())
	_, err = ParseColor("red")
	assert.Error(t, err)
}
