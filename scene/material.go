package scene

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is linear RGB.
type Color struct {
	R, G, B float32
}

var White = Color{1, 1, 1}

// ParseColor parses "#rrggbb" (sRGB) into linear RGB.
func ParseColor(hex string) (Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", hex, err)
	}
	r, g, b := c.LinearRgb()
	return Color{float32(r), float32(g), float32(b)}, nil
}

// MustColor is ParseColor for constants.
func MustColor(hex string) Color {
	c, err := ParseColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats c as sRGB "#rrggbb".
func (c Color) Hex() string {
	return colorful.LinearRgb(float64(c.R), float64(c.G), float64(c.B)).Clamped().Hex()
}

type DeformFlags struct {
	Skinning     bool
	MorphTargets bool
	MorphNormals bool
}

type PolygonOffset struct {
	Enabled bool
	Factor  float32
	Units   float32
}

type Material struct {
	Name      string
	Color     Color
	Alpha     float32
	Metalness float32
	Roughness float32
	Map       *Texture
	MapSource int
	Offset    PolygonOffset
	Deform    DeformFlags
	Source    int

	version int
}

func NewMaterial(name string) *Material {
	return &Material{Name: name, Color: White, Alpha: 1, Metalness: 1, Roughness: 1, Source: -1, MapSource: -1}
}

// Clone copies m. The texture is shared.
func (m *Material) Clone() *Material {
	c := *m
	c.version = 0
	return &c
}

// SetMap binds t, replacing any map from the source file.
func (m *Material) SetMap(t *Texture) {
	m.Map = t
	m.MapSource = -1
	m.Touch()
}

// ClearMap removes both the bound texture and the source file's map.
func (m *Material) ClearMap() {
	m.Map = nil
	m.MapSource = -1
	m.Touch()
}

// HasMap reports whether a texture is bound.
func (m *Material) HasMap() bool { return m.Map != nil || m.MapSource >= 0 }

// Touch marks the material as changed.
func (m *Material) Touch() { m.version++ }

func (m *Material) Version() int { return m.version }
