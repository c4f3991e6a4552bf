// Package uvlayout derives the garment's per-region UV rectangles from its
// texture coordinates.
package uvlayout

import (
	"github.com/binzume/mannequin/geom"
	"github.com/chewxy/math32"
)

// Bleed pads every solved rectangle.
const Bleed = 0.005

type Part string

const (
	Front   Part = "front"
	Back    Part = "back"
	SleeveL Part = "sleeveL"
	SleeveR Part = "sleeveR"

	// Pants covers the whole pants texture. It has no solved region.
	Pants Part = "pants"
)

// Parts in quadrant order: top-left, top-right, bottom-left, bottom-right.
var Parts = []Part{Front, Back, SleeveL, SleeveR}

// Rect is a normalized rectangle, y down.
type Rect struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	W float32 `json:"w"`
	H float32 `json:"h"`
}

func (r Rect) Center() (float32, float32) {
	return r.X + r.W/2, r.Y + r.H/2
}

type Rects map[Part]Rect

// DefaultRects is the plain quadrant split used when nothing was solved.
func DefaultRects() Rects {
	return Rects{
		Front:   {0, 0, 0.5, 0.5},
		Back:    {0.5, 0, 0.5, 0.5},
		SleeveL: {0, 0.5, 0.5, 0.5},
		SleeveR: {0.5, 0.5, 0.5, 0.5},
	}
}

// Merge returns a copy of r with o's entries overriding.
func (r Rects) Merge(o Rects) Rects {
	m := Rects{}
	for k, v := range r {
		m[k] = v
	}
	for k, v := range o {
		m[k] = v
	}
	return m
}

func clamp01(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}

func quadrant(u, v float32) int {
	q := 0
	if u >= 0.5 {
		q |= 1
	}
	if v >= 0.5 {
		q |= 2
	}
	return q
}

// Solve flips V, buckets every coordinate into a quadrant by midpoint and
// returns each quadrant's padded bounding box. Empty quadrants keep their
// default rectangle. ok is false when uvs is empty.
func Solve(uvs [][2]float32) (rects Rects, ok bool) {
	if len(uvs) == 0 {
		return nil, false
	}
	var boxes [4]geom.Bounds2
	for i := range boxes {
		boxes[i] = geom.EmptyBounds2()
	}
	for _, uv := range uvs {
		u, v := uv[0], 1-uv[1]
		boxes[quadrant(u, v)].Expand(geom.Vector2{X: u, Y: v})
	}

	rects = DefaultRects()
	for q, b := range boxes {
		if b.IsEmpty() {
			continue
		}
		size := b.Size()
		rects[Parts[q]] = Rect{
			X: clamp01(b.Min.X - Bleed),
			Y: clamp01(b.Min.Y - Bleed),
			W: clamp01(size.X + 2*Bleed),
			H: clamp01(size.Y + 2*Bleed),
		}
	}
	return rects, true
}
