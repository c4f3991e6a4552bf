package design

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/binzume/mannequin/fit"
	"github.com/binzume/mannequin/profile"
	"github.com/binzume/mannequin/uvlayout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.UnixMilli(1000)
	return func() time.Time { return t }
}

func TestNewSessionDefaults(t *testing.T) {
	s := NewSession(Female)
	st := s.Snapshot()
	assert.Equal(t, Female, st.Gender)
	assert.Equal(t, fit.Mesomorph, st.BodyType)
	assert.Equal(t, float32(165), st.Measurements.HeightCm)
	assert.Equal(t, "#b91c1c", st.BaseColor)
	assert.Equal(t, "#e6c8b5", st.SkinColor)
	assert.Equal(t, uvlayout.DefaultRects(), st.UVRects)
	assert.True(t, st.ShowClothes)
}

func TestSetGenderResetsMeasurements(t *testing.T) {
	s := NewSession(Male)
	s.SetMeasurements(profile.Measurements{HeightCm: 190, ChestCm: 100, WaistCm: 90, ShouldersCm: 50, SleeveCm: 62})

	var got []Change
	s.Subscribe(func(c Change) { got = append(got, c) })
	s.SetGender(Female)

	assert.Equal(t, DefaultMeasurements(Female), s.Snapshot().Measurements)
	require.Len(t, got, 1)
	assert.True(t, got[0].Deform())
	assert.False(t, got[0].Atlas())
}

func TestClampingSetters(t *testing.T) {
	s := NewSession(Male)
	s.SetIntensity(3)
	assert.Equal(t, float32(1), s.Snapshot().Intensity)
	s.SetIntensity(float32(math.NaN()))
	assert.Equal(t, float32(0), s.Snapshot().Intensity)

	s.SetMeasurements(profile.Measurements{HeightCm: 500, ChestCm: -1, WaistCm: 80, ShouldersCm: 45, SleeveCm: 60})
	m := s.Snapshot().Measurements
	assert.Equal(t, float32(200), m.HeightCm)
	assert.Equal(t, float32(85), m.ChestCm)

	s.SetBodyType("athletic")
	assert.Equal(t, fit.Mesomorph, s.Snapshot().BodyType)

	s.SetGarment(fit.Garment{Custom: &fit.Dimensions{WidthIn: 40, LengthIn: 10}, Style: "baggy"})
	g := s.Snapshot().Garment
	assert.Equal(t, fit.StyleRegular, g.Style)
	assert.Equal(t, float32(24), g.Custom.WidthIn)
	assert.Equal(t, float32(24), g.Custom.LengthIn)

	assert.Error(t, s.SetBaseColor("red"))
	assert.NoError(t, s.SetBaseColor("#00ff00"))
	assert.Equal(t, "#00ff00", s.Snapshot().BaseColor)
}

func TestSetUVRects(t *testing.T) {
	s := NewSession(Male)
	var got []Change
	s.Subscribe(func(c Change) { got = append(got, c) })

	s.SetUVRects(uvlayout.Rects{uvlayout.Front: {X: 0.1, Y: 0.1, W: 0.2, H: 0.2}})
	require.Equal(t, []Change{ChangeUVRects}, got)
	assert.False(t, got[0].Atlas())
	assert.False(t, got[0].Deform())

	rects := s.Snapshot().UVRects
	assert.Equal(t, uvlayout.Rect{X: 0.1, Y: 0.1, W: 0.2, H: 0.2}, rects[uvlayout.Front])
	assert.Equal(t, uvlayout.DefaultRects()[uvlayout.Back], rects[uvlayout.Back])
}

func TestHasLayers(t *testing.T) {
	s := NewSession(Male)
	st := s.Snapshot()
	assert.False(t, st.HasLayers(uvlayout.Parts...))

	id := s.AddLayer(NewTextLayer(uvlayout.Pants, "P"))
	st = s.Snapshot()
	assert.True(t, st.HasLayers(uvlayout.Pants))
	assert.False(t, st.HasLayers(uvlayout.Parts...))

	require.NoError(t, s.RemoveLayer(id))
	st = s.Snapshot()
	assert.False(t, st.HasLayers(uvlayout.Pants))
}

func TestSubscribeCancel(t *testing.T) {
	s := NewSession(Male)
	n := 0
	cancel := s.Subscribe(func(c Change) { n++ })
	s.SetIntensity(0.5)
	cancel()
	s.SetIntensity(0.7)
	assert.Equal(t, 1, n)
}

func TestLayerOperations(t *testing.T) {
	s := NewSession(Male)
	s.Now = fixedClock()

	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })

	a := s.AddLayer(NewTextLayer(uvlayout.Front, "hello"))
	b := s.AddLayer(NewShapeLayer(uvlayout.Front, ShapeStripe, "#ff0000"))
	c := s.AddLayer(NewImageLayer(uvlayout.Back, "logo.png"))
	assert.NotEqual(t, a, b)
	for _, ch := range changes {
		assert.True(t, ch.Atlas())
	}

	front := s.LayersFor(uvlayout.Front)
	require.Len(t, front, 2)
	assert.Equal(t, a, front[0].ID)
	assert.Equal(t, b, front[1].ID)
	assert.Less(t, front[0].Z, front[1].Z)

	require.NoError(t, s.BringToFront(a))
	front = s.LayersFor(uvlayout.Front)
	assert.Equal(t, a, front[1].ID)

	require.NoError(t, s.Rotate(a, 90))
	require.NoError(t, s.Rotate(a, 90))
	require.NoError(t, s.Rotate(a, 90))
	require.NoError(t, s.Rotate(a, 90))
	l, err := s.Layer(a)
	require.NoError(t, err)
	assert.Equal(t, float32(0), l.Rotation)
	require.NoError(t, s.Rotate(a, 15))
	l, _ = s.Layer(a)
	assert.Equal(t, float32(15), l.Rotation)

	require.NoError(t, s.SetScale(a, 10))
	l, _ = s.Layer(a)
	assert.Equal(t, float32(6), l.Scale)

	require.NoError(t, s.UpdateLayer(a, func(l *Layer) {
		l.Size = 1000
		l.Part = uvlayout.Back
	}))
	l, _ = s.Layer(a)
	assert.Equal(t, float32(400), l.Size)
	assert.Equal(t, uvlayout.Front, l.Part)

	require.NoError(t, s.Nudge(a, 2000, -5))
	l, _ = s.Layer(a)
	assert.Equal(t, float32(CanvasSize), l.X)

	require.NoError(t, s.RemoveLayer(c))
	assert.Empty(t, s.LayersFor(uvlayout.Back))
	assert.ErrorIs(t, s.RemoveLayer(c), ErrLayerNotFound)
	assert.ErrorIs(t, s.Nudge("missing", 1, 1), ErrLayerNotFound)
}

func TestCoverFit(t *testing.T) {
	scale, x, y := CoverFit(1024, 512)
	assert.Equal(t, float32(1), scale)
	assert.Equal(t, float32(-256), x)
	assert.Equal(t, float32(0), y)

	s := NewSession(Male)
	id := s.AddLayer(NewImageLayer(uvlayout.SleeveL, "a.png"))
	require.NoError(t, s.CoverFit(id, 256, 256))
	l, _ := s.Layer(id)
	assert.Equal(t, float32(2), l.Scale)
	assert.False(t, l.FitOnLoad)
}

func TestCenter(t *testing.T) {
	s := NewSession(Male)
	id := s.AddLayer(NewImageLayer(uvlayout.Front, "a.png"))
	require.NoError(t, s.SetScale(id, 0.5))
	require.NoError(t, s.Center(id, 200, 100))
	l, _ := s.Layer(id)
	assert.Equal(t, float32(206), l.X)
	assert.Equal(t, float32(231), l.Y)

	txt := s.AddLayer(NewTextLayer(uvlayout.Front, "ABCD"))
	require.NoError(t, s.Center(txt, 0, 0))
	l, _ = s.Layer(txt)
	// 4 chars at 36*0.6 each
	assert.Equal(t, float32(213), l.X)
	assert.Equal(t, float32(238), l.Y)

	circle := s.AddLayer(NewShapeLayer(uvlayout.Front, ShapeCircle, ""))
	require.NoError(t, s.Center(circle, 0, 0))
	l, _ = s.Layer(circle)
	assert.Equal(t, float32(256), l.X)
}

func TestSaveLoad(t *testing.T) {
	s := NewSession(Female)
	s.SetIntensity(0.4)
	s.AddLayer(NewPathLayer(uvlayout.SleeveR, []float32{0, 0, 10, 10, 20}))

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	st := loaded.Snapshot()
	assert.Equal(t, Female, st.Gender)
	assert.Equal(t, float32(0.4), st.Intensity)
	require.Len(t, st.Layers, 1)
	assert.Equal(t, []float32{0, 0, 10, 10}, st.Layers[0].Points)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestDecodeDefaults(t *testing.T) {
	st, err := Decode(strings.NewReader(`{
		"gender": "female",
		"intensity": 7,
		"uvRects": {"front": {"x": 0.1, "y": 0.1, "w": 0.3, "h": 0.3}},
		"layers": [{"id": "x", "kind": "text", "part": "back", "text": "hi"}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, float32(1), st.Intensity)
	assert.Equal(t, "#b91c1c", st.BaseColor)
	assert.Equal(t, uvlayout.Rect{X: 0.1, Y: 0.1, W: 0.3, H: 0.3}, st.UVRects[uvlayout.Front])
	assert.Equal(t, uvlayout.DefaultRects()[uvlayout.Back], st.UVRects[uvlayout.Back])
	require.Len(t, st.Layers, 1)
	assert.Equal(t, float32(1), st.Layers[0].Scale)
	assert.Equal(t, float32(1), st.Layers[0].Opacity)
	assert.Equal(t, float32(DefaultTextSize), st.Layers[0].Size)

	_, err = Decode(strings.NewReader(`{`))
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, st))
	assert.Contains(t, buf.String(), `"gender": "female"`)
}
