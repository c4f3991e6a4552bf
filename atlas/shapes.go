package atlas

import (
	"image"
	"image/color"
	"math"

	"github.com/binzume/mannequin/design"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"
)

type point struct{ x, y float64 }

func apply(m f64.Aff3, p point) (float32, float32) {
	return float32(m[0]*p.x + m[1]*p.y + m[2]), float32(m[3]*p.x + m[4]*p.y + m[5])
}

// polygon adds a closed outline. Overlapping outlines of the same winding
// merge, opposite windings cut holes.
func polygon(z *vector.Rasterizer, m f64.Aff3, pts []point, reverse bool) {
	if len(pts) < 3 {
		return
	}
	n := len(pts)
	at := func(i int) point {
		if reverse {
			return pts[n-1-i]
		}
		return pts[i]
	}
	z.MoveTo(apply(m, at(0)))
	for i := 1; i < n; i++ {
		z.LineTo(apply(m, at(i)))
	}
	z.ClosePath()
}

func signedArea(pts []point) float64 {
	a := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].x*pts[j].y - pts[j].x*pts[i].y
	}
	return a / 2
}

const arcSegments = 12

// arc appends points from angle a0 to a1 (radians, y down).
func arc(pts []point, cx, cy, r, a0, a1 float64) []point {
	for i := 0; i <= arcSegments; i++ {
		a := a0 + (a1-a0)*float64(i)/arcSegments
		pts = append(pts, point{cx + r*math.Cos(a), cy + r*math.Sin(a)})
	}
	return pts
}

func roundedRect(x0, y0, x1, y1, r float64) []point {
	r = math.Min(r, math.Min((x1-x0)/2, (y1-y0)/2))
	if r <= 0 {
		return []point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
	}
	var pts []point
	pts = arc(pts, x1-r, y0+r, r, -math.Pi/2, 0)
	pts = arc(pts, x1-r, y1-r, r, 0, math.Pi/2)
	pts = arc(pts, x0+r, y1-r, r, math.Pi/2, math.Pi)
	pts = arc(pts, x0+r, y0+r, r, math.Pi, 3*math.Pi/2)
	return pts
}

func circle(cx, cy, r float64) []point {
	if r <= 0 {
		return nil
	}
	pts := make([]point, 0, arcSegments*4)
	for i := 0; i < arcSegments*4; i++ {
		a := 2 * math.Pi * float64(i) / (arcSegments * 4)
		pts = append(pts, point{cx + r*math.Cos(a), cy + r*math.Sin(a)})
	}
	return pts
}

func fill(dst *image.RGBA, z *vector.Rasterizer, c color.Color) {
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

func newRasterizer(dst *image.RGBA) *vector.Rasterizer {
	b := dst.Bounds()
	return vector.NewRasterizer(b.Dx(), b.Dy())
}

// drawShape paints a rect, stripe or circle layer. Rects and stripes are
// anchored at their top-left, circles at their center.
func drawShape(dst *image.RGBA, m f64.Aff3, l *design.Layer) {
	w, h := float64(l.W), float64(l.H)
	if w == 0 && h == 0 {
		w, h = design.DefaultShapeW, design.DefaultShapeH
	}
	sw := float64(l.StrokeWidth)
	fillColor := parseColor(l.Fill, design.DefaultShapeFill)
	strokeColor := parseColor(l.Stroke, design.DefaultShapeStroke)

	var outline, outer, inner []point
	switch l.Shape {
	case design.ShapeCircle:
		r := math.Max(w, h) / 2
		outline = circle(0, 0, r)
		outer = circle(0, 0, r+sw/2)
		inner = circle(0, 0, r-sw/2)
	default:
		radius := 8.0
		if l.Shape == design.ShapeStripe {
			radius = 0
		}
		outline = roundedRect(0, 0, w, h, radius)
		outer = roundedRect(-sw/2, -sw/2, w+sw/2, h+sw/2, radius+sw/2)
		if w > sw && h > sw {
			inner = roundedRect(sw/2, sw/2, w-sw/2, h-sw/2, math.Max(radius-sw/2, 0))
		}
	}

	z := newRasterizer(dst)
	polygon(z, m, outline, false)
	fill(dst, z, fillColor)

	if sw > 0 {
		z.Reset(dst.Bounds().Dx(), dst.Bounds().Dy())
		polygon(z, m, outer, false)
		polygon(z, m, inner, true)
		fill(dst, z, strokeColor)
	}
}

// drawPath strokes a polyline with round caps and joins.
func drawPath(dst *image.RGBA, m f64.Aff3, l *design.Layer) {
	pts := make([]point, 0, len(l.Points)/2)
	for i := 0; i+1 < len(l.Points); i += 2 {
		pts = append(pts, point{float64(l.Points[i]), float64(l.Points[i+1])})
	}
	if len(pts) == 0 {
		return
	}
	z := newRasterizer(dst)
	if l.Closed && l.Fill != "" && len(pts) >= 3 {
		polygon(z, m, pts, signedArea(pts) < 0)
		fill(dst, z, parseColor(l.Fill, design.DefaultShapeFill))
		z.Reset(dst.Bounds().Dx(), dst.Bounds().Dy())
	}

	sw := float64(l.StrokeWidth)
	if sw <= 0 {
		return
	}
	half := sw / 2
	for _, p := range pts {
		polygon(z, m, circle(p.x, p.y, half), false)
	}
	segs := len(pts) - 1
	if l.Closed && len(pts) > 2 {
		segs++
	}
	for i := 0; i < segs; i++ {
		a, b := pts[i], pts[(i+1)%len(pts)]
		dx, dy := b.x-a.x, b.y-a.y
		d := math.Hypot(dx, dy)
		if d == 0 {
			continue
		}
		nx, ny := -dy/d*half, dx/d*half
		quad := []point{{a.x + nx, a.y + ny}, {b.x + nx, b.y + ny}, {b.x - nx, b.y - ny}, {a.x - nx, a.y - ny}}
		polygon(z, m, quad, signedArea(quad) < 0)
	}
	fill(dst, z, parseColor(l.Stroke, design.DefaultPathStroke))
}
