package converter

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/binzume/mannequin/atlas"
	"github.com/binzume/mannequin/design"
	"github.com/binzume/mannequin/fit"
	"github.com/binzume/mannequin/gltfutil"
	"github.com/binzume/mannequin/profile"
	"github.com/binzume/mannequin/scene"
	"github.com/binzume/mannequin/uvlayout"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newCharacter(name string) *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}})
	ind := modeler.WriteIndices(doc, []uint16{0, 1, 2, 1, 3, 2})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0.1, 0.1}, {0.9, 0.2}, {0.2, 0.8}, {0.7, 0.9}})
	delta := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {0.1, 0, 0}, {0, 0, 0}, {0, 0, 0}})

	body := &gltf.Primitive{
		Attributes: map[string]uint32{"POSITION": pos},
		Indices:    gltf.Index(ind),
		Material:   gltf.Index(0),
	}
	body.Targets = append(body.Targets, map[string]uint32{"POSITION": delta}, map[string]uint32{"POSITION": delta})

	doc.Materials = []*gltf.Material{{Name: "Skin"}, {Name: "Shirt"}, {Name: "Pants"}}
	doc.Meshes = []*gltf.Mesh{
		{Name: "BodyMesh", Primitives: []*gltf.Primitive{body}, Weights: []float32{0.5, 0.5},
			Extras: map[string]interface{}{"targetNames": []interface{}{"endomorph", "ectomorph"}}},
		{Name: "ShirtMesh", Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{"POSITION": pos, "TEXCOORD_0": uv},
			Indices:    gltf.Index(ind), Material: gltf.Index(1)}}},
		{Name: "PantsMesh", Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{"POSITION": pos},
			Indices:    gltf.Index(ind), Material: gltf.Index(2)}}},
	}
	doc.Nodes = []*gltf.Node{
		{Name: name, Children: []uint32{1, 2, 3, 4}},
		{Name: "Hips"},
		{Name: "Body", Mesh: gltf.Index(0)},
		{Name: "T-Shirt", Mesh: gltf.Index(1)},
		{Name: "Pants", Mesh: gltf.Index(2)},
	}
	doc.Scenes[0].Nodes = []uint32{0}
	return doc
}

type fakeTimer struct{ f func() }

func (t *fakeTimer) Stop() bool { return true }

type fakeClock struct{ timers []*fakeTimer }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) atlas.Timer {
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

func maleProfile(t *testing.T) *profile.Profile {
	p, err := profile.Builtin().Get("male")
	require.NoError(t, err)
	return p
}

func TestNoAsset(t *testing.T) {
	conv := NewDesignToGLTFConverter(&DesignToGLTFOption{Logger: quiet})
	defer conv.Close()

	st := design.DefaultState(design.Male)
	assert.ErrorIs(t, conv.Apply(&st), ErrNoAsset)
	assert.ErrorIs(t, conv.Export(io.Discard), ErrNoAsset)
	_, err := conv.Registry()
	assert.ErrorIs(t, err, ErrNoAsset)
}

func exportDoc(t *testing.T, conv *designToGltf) *gltf.Document {
	var buf bytes.Buffer
	require.NoError(t, conv.Export(&buf))
	out, err := gltfutil.Decode(&buf)
	require.NoError(t, err)
	return out
}

func nodeMaterial(doc *gltf.Document, node int) *gltf.Material {
	return doc.Materials[*doc.Meshes[*doc.Nodes[node].Mesh].Primitives[0].Material]
}

func TestLoadApplyExport(t *testing.T) {
	doc := newCharacter("male")
	conv := NewDesignToGLTFConverter(&DesignToGLTFOption{Logger: quiet})
	defer conv.Close()
	require.NoError(t, conv.Load(doc, maleProfile(t)))

	reg, err := conv.Registry()
	require.NoError(t, err)
	require.NotNil(t, reg.Shirt)
	assert.Equal(t, "T-Shirt", reg.Shirt.Name)
	// discovery zeroes influences
	assert.Equal(t, []float32{0, 0}, reg.Body.Influences)

	rects, solved := conv.Rects()
	assert.True(t, solved)
	assert.Len(t, rects, 4)

	st := design.DefaultState(design.Male)
	st.BodyType = fit.Endomorph
	st.Intensity = 1
	require.NoError(t, conv.Apply(&st))
	assert.Equal(t, []float32{1, 0}, reg.Body.Influences)
	// no layers: flat colors and no atlas work
	assert.Equal(t, 0, conv.Compositor().Rebuilds())

	out := exportDoc(t, conv)
	assert.Len(t, doc.Materials, 3)
	assert.Equal(t, []float32{1, 0}, out.Nodes[2].Weights)
	assert.Empty(t, out.Images)
	shirtMat := nodeMaterial(out, 3)
	assert.Equal(t, "Shirt", shirtMat.Name)
	assert.Nil(t, shirtMat.PBRMetallicRoughness.BaseColorTexture)
	base := scene.MustColor(st.BaseColor)
	assert.InDelta(t, base.R, shirtMat.PBRMetallicRoughness.BaseColorFactorOrDefault()[0], 1e-6)

	skinMat := nodeMaterial(out, 2)
	assert.Equal(t, "Skin", skinMat.Name)
	assert.InDelta(t, 0.65, skinMat.PBRMetallicRoughness.RoughnessFactorOrDefault(), 1e-6)

	st.Layers = append(st.Layers, design.NewTextLayer(uvlayout.Front, "A"))
	require.NoError(t, conv.Apply(&st))
	assert.Equal(t, 1, conv.Compositor().Rebuilds())
	assert.Equal(t, 0, conv.PantsCompositor().Rebuilds())

	out = exportDoc(t, conv)
	require.Len(t, out.Images, 1)
	assert.NotNil(t, nodeMaterial(out, 3).PBRMetallicRoughness.BaseColorTexture)
	assert.Nil(t, nodeMaterial(out, 4).PBRMetallicRoughness.BaseColorTexture)

	st.Layers = append(st.Layers, design.NewShapeLayer(uvlayout.Pants, design.ShapeStripe, ""))
	require.NoError(t, conv.Apply(&st))
	assert.Equal(t, 1, conv.PantsCompositor().Rebuilds())

	out = exportDoc(t, conv)
	require.Len(t, out.Images, 2)
	pantsMat := nodeMaterial(out, 4)
	assert.Equal(t, "Pants", pantsMat.Name)
	require.NotNil(t, pantsMat.PBRMetallicRoughness.BaseColorTexture)
	assert.NotEqual(t, nodeMaterial(out, 3).PBRMetallicRoughness.BaseColorTexture.Index,
		pantsMat.PBRMetallicRoughness.BaseColorTexture.Index)

	st.ShowClothes = false
	require.NoError(t, conv.Apply(&st))
	out = exportDoc(t, conv)
	assert.Contains(t, out.Nodes[3].Extensions, "KHR_node_visibility")
	assert.NotContains(t, out.Nodes[2].Extensions, "KHR_node_visibility")
}

func TestBindSession(t *testing.T) {
	clock := &fakeClock{}
	loads := map[design.Gender]int{}
	conv := NewDesignToGLTFConverter(&DesignToGLTFOption{
		Logger:    quiet,
		AfterFunc: clock.AfterFunc,
		Loader: func(g design.Gender, version int) (*gltf.Document, *profile.Profile, error) {
			loads[g]++
			p, err := profile.Builtin().Select(string(g), version)
			return newCharacter(string(g)), p, err
		},
	})
	defer conv.Close()
	require.NoError(t, conv.Load(newCharacter("male"), maleProfile(t)))

	s := design.NewSession(design.Male)
	s.SetUVRects(uvlayout.Rects{uvlayout.Front: {X: 0.3, Y: 0.3, W: 0.1, H: 0.1}})
	conv.Bind(s)

	rects, _ := conv.Rects()
	assert.Equal(t, rects, s.Snapshot().UVRects)
	// storing the solved regions does not touch the atlas
	assert.Empty(t, clock.timers)
	rebuilds := conv.Compositor().Rebuilds()
	assert.Equal(t, 1, rebuilds)

	s.SetBodyType(fit.Endomorph)
	s.SetIntensity(0.5)
	reg, _ := conv.Registry()
	assert.Equal(t, []float32{0.5, 0}, reg.Body.Influences)
	assert.Empty(t, clock.timers)

	// layer edits are coalesced into one throttled rebuild
	s.AddLayer(design.NewTextLayer(uvlayout.Front, "A"))
	s.AddLayer(design.NewTextLayer(uvlayout.Back, "B"))
	require.Len(t, clock.timers, 1)
	assert.Equal(t, rebuilds, conv.Compositor().Rebuilds())
	assert.Same(t, conv.Compositor().Texture(), reg.Shirt.Materials[0].Map)
	clock.timers[0].f()
	assert.Equal(t, rebuilds+1, conv.Compositor().Rebuilds())

	// the first pants layer switches the pants to their own texture
	pants := reg.Asset.Find("Pants").(*scene.Mesh)
	assert.Nil(t, pants.Materials[0].Map)
	pending := len(clock.timers)
	s.AddLayer(design.NewTextLayer(uvlayout.Pants, "P"))
	require.Len(t, clock.timers, pending+2)
	for _, tm := range clock.timers[pending:] {
		tm.f()
	}
	assert.Equal(t, 2, conv.PantsCompositor().Rebuilds())
	assert.Same(t, conv.PantsCompositor().Texture(), pants.Materials[0].Map)
	assert.Equal(t, scene.White, pants.Materials[0].Color)

	old := reg.Asset
	s.SetGender(design.Female)
	assert.Equal(t, 1, loads[design.Female])
	assert.True(t, old.Released())
	reg, err := conv.Registry()
	require.NoError(t, err)
	assert.NotSame(t, old, reg.Asset)
	assert.Equal(t, "female", reg.Asset.Root.Children[0].Base().Name)
	// textures belong to the session and survive the swap
	assert.False(t, conv.PantsCompositor().Texture().Disposed())

	// unchanged gender does not reload
	s.SetVersion(1)
	assert.Equal(t, 1, loads[design.Female])
}

func TestExportDuringRebuilds(t *testing.T) {
	conv := NewDesignToGLTFConverter(&DesignToGLTFOption{Logger: quiet, AtlasWindow: time.Millisecond})
	defer conv.Close()
	require.NoError(t, conv.Load(newCharacter("male"), maleProfile(t)))

	s := design.NewSession(design.Male)
	s.AddLayer(design.NewTextLayer(uvlayout.Front, "A"))
	s.AddLayer(design.NewTextLayer(uvlayout.Pants, "P"))
	conv.Bind(s)

	done := make(chan struct{})
	go func() {
		defer close(done)
		colors := []string{"#ff0000", "#0000ff"}
		for i := 0; i < 40; i++ {
			s.SetBaseColor(colors[i%2])
			s.SetPantsColor(colors[(i+1)%2])
			time.Sleep(time.Millisecond)
		}
	}()
	for i := 0; i < 5; i++ {
		out := exportDoc(t, conv)
		assert.Len(t, out.Images, 2)
	}
	<-done
}
