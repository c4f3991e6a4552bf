package design

import (
	"encoding/json"
	"math"

	"github.com/binzume/mannequin/uvlayout"
)

// CanvasSize is the logical edge of every part canvas.
const CanvasSize = 512

type Kind string

const (
	KindImage Kind = "image"
	KindText  Kind = "text"
	KindShape Kind = "shape"
	KindPath  Kind = "path"
)

type Shape string

const (
	ShapeRect   Shape = "rect"
	ShapeStripe Shape = "stripe"
	ShapeCircle Shape = "circle"
)

// Defaults for new layers.
const (
	DefaultFont        = "Arial"
	DefaultTextSize    = 28
	DefaultTextColor   = "#111111"
	DefaultShapeW      = 200
	DefaultShapeH      = 60
	DefaultPathStroke  = "#000000"
	DefaultPathWidth   = 4
	DefaultShapeFill   = "#ffffff"
	DefaultShapeStroke = "#000000"
)

var (
	ScaleRange       = [2]float32{0.1, 6}
	TextSizeRange    = [2]float32{6, 400}
	StrokeWidthRange = [2]float32{0, 40}
	OpacityRange     = [2]float32{0, 1}
)

// Layer is one element painted on a part canvas. Fields not used by a kind are
// left zero.
type Layer struct {
	ID       string        `json:"id"`
	Kind     Kind          `json:"kind"`
	Part     uvlayout.Part `json:"part"`
	X        float32       `json:"x"`
	Y        float32       `json:"y"`
	Scale    float32       `json:"scale"`
	Rotation float32       `json:"rotation"`
	Opacity  float32       `json:"opacity"`

	// text
	Text  string  `json:"text,omitempty"`
	Font  string  `json:"font,omitempty"`
	Size  float32 `json:"size,omitempty"`
	Color string  `json:"color,omitempty"`

	// image
	Src       string `json:"src,omitempty"`
	FitOnLoad bool   `json:"fitOnLoad,omitempty"`

	// shape, path
	Shape       Shape     `json:"shape,omitempty"`
	W           float32   `json:"w,omitempty"`
	H           float32   `json:"h,omitempty"`
	Fill        string    `json:"fill,omitempty"`
	Stroke      string    `json:"stroke,omitempty"`
	StrokeWidth float32   `json:"strokeWidth,omitempty"`
	Points      []float32 `json:"points,omitempty"`
	Closed      bool      `json:"closed,omitempty"`

	Z int64 `json:"z"`
}

// UnmarshalJSON fills scale and opacity with 1 when absent.
func (l *Layer) UnmarshalJSON(data []byte) error {
	type plain Layer
	v := plain{Scale: 1, Opacity: 1}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = Layer(v)
	return nil
}

func NewImageLayer(part uvlayout.Part, src string) Layer {
	return Layer{Kind: KindImage, Part: part, Scale: 1, Opacity: 1, Src: src, FitOnLoad: true}
}

func NewTextLayer(part uvlayout.Part, text string) Layer {
	return Layer{Kind: KindText, Part: part, X: 176, Y: 238, Scale: 1, Opacity: 1,
		Text: text, Font: DefaultFont, Size: 36, Color: "#ffffff"}
}

var shapeDefaults = map[Shape]Layer{
	ShapeStripe: {X: 40, Y: 120, Rotation: -20, W: 420, H: 80, Fill: "#6d28d9"},
	ShapeRect:   {X: 120, Y: 180, W: 260, H: 120, Fill: "#111111"},
	ShapeCircle: {X: 180, Y: 180, W: 160, H: 160, Fill: DefaultShapeFill},
}

// NewShapeLayer places a shape with per-shape defaults. An empty fill keeps
// the default. Circles are positioned by their center.
func NewShapeLayer(part uvlayout.Part, shape Shape, fill string) Layer {
	l, ok := shapeDefaults[shape]
	if !ok {
		shape = ShapeRect
		l = shapeDefaults[shape]
	}
	l.Kind, l.Part, l.Shape, l.Scale, l.Opacity = KindShape, part, shape, 1, 1
	if fill != "" {
		l.Fill = fill
	}
	return l
}

func NewPathLayer(part uvlayout.Part, points []float32) Layer {
	return Layer{Kind: KindPath, Part: part, Scale: 1, Opacity: 1, Points: points,
		Stroke: DefaultPathStroke, StrokeWidth: DefaultPathWidth}
}

func clampRange(v float32, r [2]float32) float32 {
	if math.IsNaN(float64(v)) || v < r[0] {
		return r[0]
	}
	if v > r[1] {
		return r[1]
	}
	return v
}

// normalize clamps every numeric field into its editable range.
func (l *Layer) normalize() {
	l.Scale = clampRange(l.Scale, ScaleRange)
	l.Opacity = clampRange(l.Opacity, OpacityRange)
	l.X = clampRange(l.X, [2]float32{-CanvasSize, CanvasSize})
	l.Y = clampRange(l.Y, [2]float32{-CanvasSize, CanvasSize})
	l.Rotation = normalizeAngle(l.Rotation)
	if l.Kind == KindText {
		if l.Size == 0 {
			l.Size = DefaultTextSize
		}
		l.Size = clampRange(l.Size, TextSizeRange)
	}
	if l.W < 0 || l.W != l.W {
		l.W = 0
	}
	if l.H < 0 || l.H != l.H {
		l.H = 0
	}
	l.StrokeWidth = clampRange(l.StrokeWidth, StrokeWidthRange)
	if len(l.Points)%2 != 0 {
		l.Points = l.Points[:len(l.Points)-1]
	}
}

func normalizeAngle(deg float32) float32 {
	if deg != deg {
		return 0
	}
	r := float32(math.Mod(float64(deg), 360))
	if r < 0 {
		r += 360
	}
	return r
}

// CoverFit scales an image of w x h pixels to cover the canvas and centers it.
func CoverFit(w, h int) (scale, x, y float32) {
	if w <= 0 || h <= 0 {
		return 1, 0, 0
	}
	s := math.Max(CanvasSize/float64(w), CanvasSize/float64(h))
	x = float32(math.Round((CanvasSize - float64(w)*s) / 2))
	y = float32(math.Round((CanvasSize - float64(h)*s) / 2))
	return float32(s), x, y
}

// ApproxSize estimates the unscaled extent of l. Image layers need the decoded
// size in imgW, imgH.
func (l *Layer) ApproxSize(imgW, imgH int) (w, h float32) {
	switch l.Kind {
	case KindImage:
		return float32(imgW), float32(imgH)
	case KindShape:
		return l.W, l.H
	case KindPath:
		var b [4]float32
		for i := 0; i+1 < len(l.Points); i += 2 {
			px, py := l.Points[i], l.Points[i+1]
			if i == 0 || px < b[0] {
				b[0] = px
			}
			if i == 0 || py < b[1] {
				b[1] = py
			}
			if i == 0 || px > b[2] {
				b[2] = px
			}
			if i == 0 || py > b[3] {
				b[3] = py
			}
		}
		return b[2] - b[0], b[3] - b[1]
	}
	size := l.Size
	if size == 0 {
		size = DefaultTextSize
	}
	n := len([]rune(l.Text))
	if n == 0 {
		n = 8
	}
	return float32(n) * float32(math.Max(float64(size)*0.6, 8)), size
}
