package paint

import (
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/binzume/mannequin/profile"
	"github.com/binzume/mannequin/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	root             *scene.Group
	body, hand       *scene.Mesh
	shirt, pants     *scene.Mesh
	skinMat, nailMat *scene.Material
}

func newFixture() *fixture {
	f := &fixture{root: scene.NewGroup("male")}
	f.skinMat = scene.NewMaterial("Skin")
	f.nailMat = scene.NewMaterial("Nails")

	f.body = scene.NewMesh("Body")
	f.body.Skinned = true
	f.body.Geometry.TargetCount = 3
	f.body.Geometry.MorphNormals = true
	f.body.Materials = []*scene.Material{f.skinMat, f.nailMat}

	f.hand = scene.NewMesh("LeftHand")
	f.hand.Materials = []*scene.Material{f.skinMat, scene.NewMaterial("Material.001")}

	f.shirt = scene.NewMesh("T-Shirt")
	f.shirt.Skinned = true
	f.shirt.Materials = []*scene.Material{scene.NewMaterial("Shirt_Fabric"), scene.NewMaterial("Buttons")}

	f.pants = scene.NewMesh("Jeans")
	f.pants.Materials = []*scene.Material{scene.NewMaterial("Denim")}

	for _, m := range []*scene.Mesh{f.body, f.hand, f.shirt, f.pants} {
		scene.AddChild(f.root, m)
	}
	return f
}

func newApplicator(t *testing.T, p *profile.Profile) *Applicator {
	a, err := New(p, quiet)
	require.NoError(t, err)
	return a
}

func TestSkin(t *testing.T) {
	f := newFixture()
	a := newApplicator(t, nil)
	skin := scene.MustColor("#e6c8b5")

	assert.Equal(t, 3, a.Skin(f.root, skin))

	// shared templates are never mutated
	assert.Equal(t, scene.White, f.skinMat.Color)
	assert.NotSame(t, f.skinMat, f.body.Materials[0])
	assert.NotSame(t, f.body.Materials[0], f.hand.Materials[0])

	body := f.body.Materials[0]
	assert.Equal(t, skin, body.Color)
	assert.Equal(t, float32(0), body.Metalness)
	assert.Equal(t, float32(0.65), body.Roughness)
	assert.Equal(t, scene.White, f.body.Materials[1].Color, "nails keep their color")
	assert.Equal(t, skin, f.hand.Materials[1].Color, "placeholder material is skin")

	assert.Equal(t, scene.White, f.shirt.Materials[0].Color)
	assert.False(t, f.shirt.Owned())
}

func TestSkinIdempotent(t *testing.T) {
	f := newFixture()
	a := newApplicator(t, nil)
	skin := scene.MustColor("#8d5524")
	a.Skin(f.root, skin)
	once := *f.body.Materials[0]
	a.Skin(f.root, skin)
	twice := f.body.Materials[0]
	assert.Equal(t, once.Color, twice.Color)
	assert.Equal(t, once.Metalness, twice.Metalness)
	assert.Equal(t, once.Roughness, twice.Roughness)
	assert.Equal(t, once.Deform, twice.Deform)
}

func TestSkinNoMeshes(t *testing.T) {
	root := scene.NewGroup("empty")
	scene.AddChild(root, scene.NewMesh("Hair"))
	assert.Equal(t, 0, newApplicator(t, nil).Skin(root, scene.White))
}

func TestSkinProfileNames(t *testing.T) {
	f := newFixture()
	f.body.Materials[1].Name = "MannequinSurface"
	a := newApplicator(t, &profile.Profile{Names: profile.Names{SkinMaterials: []string{"mannequinsurface"}}})
	a.Skin(f.root, scene.Color{R: 0.5})
	assert.Equal(t, scene.Color{R: 0.5}, f.body.Materials[1].Color)
}

func TestDeformFlagsOnClone(t *testing.T) {
	f := newFixture()
	a := newApplicator(t, nil)
	a.Skin(f.root, scene.White)
	want := scene.DeformFlags{Skinning: true, MorphTargets: true, MorphNormals: true}
	for _, mat := range f.body.Materials {
		assert.Equal(t, want, mat.Deform)
	}
	for _, mat := range f.hand.Materials {
		assert.Equal(t, scene.DeformFlags{}, mat.Deform)
	}

	a.Shirt(f.shirt, Surface{Color: scene.White})
	for _, mat := range f.shirt.Materials {
		assert.Equal(t, scene.DeformFlags{Skinning: true}, mat.Deform)
	}
}

func TestShirtFlat(t *testing.T) {
	f := newFixture()
	f.shirt.Materials[0].MapSource = 2
	a := newApplicator(t, nil)
	red := scene.MustColor("#b91c1c")

	assert.Equal(t, 1, a.Shirt(f.shirt, Surface{Color: red}))
	fabric, buttons := f.shirt.Materials[0], f.shirt.Materials[1]
	assert.Equal(t, red, fabric.Color)
	assert.False(t, fabric.HasMap())
	assert.Equal(t, OverlayOffset, fabric.Offset)
	assert.Equal(t, scene.White, buttons.Color)
	assert.False(t, buttons.Offset.Enabled)
}

func TestShirtAllMaterialsFallback(t *testing.T) {
	f := newFixture()
	f.shirt.Materials = []*scene.Material{scene.NewMaterial("Mat_A"), scene.NewMaterial("Mat_B")}
	a := newApplicator(t, nil)
	assert.Equal(t, 2, a.Shirt(f.shirt, Surface{Color: scene.Color{G: 1}}))
	for _, mat := range f.shirt.Materials {
		assert.Equal(t, scene.Color{G: 1}, mat.Color)
	}
}

func TestShirtTexture(t *testing.T) {
	f := newFixture()
	a := newApplicator(t, nil)
	tex := scene.NewTexture("atlas", image.NewRGBA(image.Rect(0, 0, 8, 8)))
	a.Shirt(f.shirt, Surface{Color: scene.Color{R: 1}, Texture: tex})
	fabric := f.shirt.Materials[0]
	assert.Same(t, tex, fabric.Map)
	assert.Equal(t, scene.White, fabric.Color)
	assert.Equal(t, -1, fabric.MapSource)

	// switching back to flat color drops the texture
	a.Shirt(f.shirt, Surface{Color: scene.Color{R: 1}})
	assert.Nil(t, fabric.Map)
	assert.Equal(t, scene.Color{R: 1}, fabric.Color)

	assert.Equal(t, 0, a.Shirt(nil, Surface{}))
}

func TestPants(t *testing.T) {
	f := newFixture()
	a := newApplicator(t, nil)
	assert.Equal(t, 1, a.Pants(f.root, Surface{Color: DefaultPantsColor}))
	denim := f.pants.Materials[0]
	assert.Equal(t, DefaultPantsColor, denim.Color)
	assert.Equal(t, float32(0.05), denim.Metalness)
	assert.Equal(t, float32(0.85), denim.Roughness)

	tex := scene.NewTexture("pants", image.NewRGBA(image.Rect(0, 0, 8, 8)))
	a.Pants(f.root, Surface{Texture: tex})
	assert.Same(t, tex, denim.Map)
	assert.Equal(t, scene.White, denim.Color)
	assert.Equal(t, float32(0), denim.Metalness)
	assert.Equal(t, float32(0.8), denim.Roughness)

	root := scene.NewGroup("x")
	assert.Equal(t, 0, a.Pants(root, Surface{}))
}

func TestPantsMaterials(t *testing.T) {
	f := newFixture()
	belt := scene.NewMaterial("Belt_Buckle")
	f.pants.Materials = append(f.pants.Materials, belt)
	a := newApplicator(t, nil)

	assert.Equal(t, 1, a.Pants(f.root, Surface{Color: DefaultPantsColor}))
	mats := f.pants.Materials
	assert.Equal(t, DefaultPantsColor, mats[0].Color)
	assert.Equal(t, scene.White, mats[1].Color)
	assert.False(t, mats[1].Offset.Enabled)

	// profile names extend the recognized set
	p := &profile.Profile{Names: profile.Names{PantsMaterials: []string{"belt_buckle"}}}
	a = newApplicator(t, p)
	assert.Equal(t, 2, a.Pants(f.root, Surface{Color: DefaultPantsColor}))
	assert.Equal(t, DefaultPantsColor, f.pants.Materials[1].Color)

	// unrecognized materials are all painted
	shorts := scene.NewMesh("Shorts")
	shorts.Materials = []*scene.Material{scene.NewMaterial("Material.002"), scene.NewMaterial("lambert3")}
	root := scene.NewGroup("x")
	scene.AddChild(root, shorts)
	assert.Equal(t, 2, newApplicator(t, nil).Pants(root, Surface{Color: DefaultPantsColor}))
}

func TestShowClothes(t *testing.T) {
	f := newFixture()
	a := newApplicator(t, nil)
	a.ShowClothes(f.root, f.shirt, false)
	assert.False(t, f.shirt.Visible)
	assert.False(t, f.pants.Visible)
	assert.True(t, f.body.Visible)
	assert.True(t, f.hand.Visible)

	a.ShowClothes(f.root, f.shirt, true)
	assert.True(t, f.shirt.Visible)
	assert.True(t, f.pants.Visible)
}

func TestInvalidProfilePattern(t *testing.T) {
	_, err := New(&profile.Profile{Names: profile.Names{SkinInclude: "("}}, quiet)
	assert.Error(t, err)
}
