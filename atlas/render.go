package atlas

import (
	"image"
	"image/color"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/binzume/mannequin/design"
	"github.com/binzume/mannequin/uvlayout"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// PixelRatio is the snapshot resolution per logical canvas unit.
const PixelRatio = 2

// PartPixels is the edge of a rendered part snapshot.
const PartPixels = design.CanvasSize * PixelRatio

// ImageSource resolves image layer sources.
type ImageSource interface {
	Image(src string) (image.Image, error)
}

func parseColor(hex, fallback string) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(fallback)
	}
	return c
}

// layerMatrix maps layer-local units to snapshot pixels: translate, rotate
// clockwise, then scale.
func layerMatrix(l *design.Layer) f64.Aff3 {
	k := float64(l.Scale) * PixelRatio
	if k == 0 {
		k = PixelRatio
	}
	th := float64(l.Rotation) * math.Pi / 180
	cos, sin := math.Cos(th), math.Sin(th)
	return f64.Aff3{
		k * cos, -k * sin, float64(l.X) * PixelRatio,
		k * sin, k * cos, float64(l.Y) * PixelRatio,
	}
}

// RenderPart paints the base color and the part's layers in ascending z order
// into a PartPixels square snapshot. Layers of other parts are skipped.
func RenderPart(part uvlayout.Part, layers []design.Layer, baseColor string, images ImageSource) *image.RGBA {
	return renderPart(part, layers, baseColor, images, slog.Default())
}

func renderPart(part uvlayout.Part, layers []design.Layer, baseColor string, images ImageSource, logger *slog.Logger) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, PartPixels, PartPixels))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(parseColor(baseColor, "#ffffff")), image.Point{}, draw.Src)

	var ls []design.Layer
	for _, l := range layers {
		if l.Part == part {
			ls = append(ls, l)
		}
	}
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].Z < ls[j].Z })

	scratch := image.NewRGBA(dst.Bounds())
	for i := range ls {
		l := &ls[i]
		if l.Opacity <= 0 {
			continue
		}
		draw.Draw(scratch, scratch.Bounds(), image.Transparent, image.Point{}, draw.Src)
		if err := paintLayer(scratch, l, images); err != nil {
			logger.Warn("layer skipped", "part", part, "layer", l.ID, "kind", l.Kind, "err", err)
			continue
		}
		mask := image.NewUniform(color.Alpha16{A: uint16(math.Round(float64(min(l.Opacity, 1)) * 0xffff))})
		draw.DrawMask(dst, dst.Bounds(), scratch, image.Point{}, mask, image.Point{}, draw.Over)
	}
	return dst
}

func paintLayer(dst *image.RGBA, l *design.Layer, images ImageSource) error {
	m := layerMatrix(l)
	switch l.Kind {
	case design.KindImage:
		if images == nil || l.Src == "" {
			return nil
		}
		img, err := images.Image(l.Src)
		if err != nil {
			return err
		}
		drawImage(dst, m, img)
	case design.KindText:
		return drawText(dst, l)
	case design.KindShape:
		drawShape(dst, m, l)
	case design.KindPath:
		drawPath(dst, m, l)
	}
	return nil
}

func drawImage(dst *image.RGBA, m f64.Aff3, img image.Image) {
	b := img.Bounds()
	// source coordinates start at b.Min
	m[2] -= m[0]*float64(b.Min.X) + m[1]*float64(b.Min.Y)
	m[5] -= m[3]*float64(b.Min.X) + m[4]*float64(b.Min.Y)
	draw.BiLinear.Transform(dst, m, img, b, draw.Over, nil)
}

var (
	fontsOnce sync.Once
	fontsErr  error
	regular   *opentype.Font
	bold      *opentype.Font
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regular, fontsErr = opentype.Parse(goregular.TTF); fontsErr != nil {
			return
		}
		bold, fontsErr = opentype.Parse(gobold.TTF)
	})
	return fontsErr
}

func fontFor(name string) *opentype.Font {
	if strings.Contains(strings.ToLower(name), "bold") {
		return bold
	}
	return regular
}

// drawText renders lines top-down from the layer origin. The text is drawn
// upright at full resolution and then rotated into place.
func drawText(dst *image.RGBA, l *design.Layer) error {
	if l.Text == "" {
		return nil
	}
	if err := loadFonts(); err != nil {
		return err
	}
	size := float64(l.Size)
	if size <= 0 {
		size = design.DefaultTextSize
	}
	k := float64(l.Scale) * PixelRatio
	if k == 0 {
		k = PixelRatio
	}
	face, err := opentype.NewFace(fontFor(l.Font), &opentype.FaceOptions{
		Size:    size * k,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return err
	}
	defer face.Close()

	lines := strings.Split(l.Text, "\n")
	lineH := int(math.Ceil(size * k))
	width := 0
	for _, s := range lines {
		if w := font.MeasureString(face, s).Ceil(); w > width {
			width = w
		}
	}
	if width == 0 {
		return nil
	}
	txt := image.NewRGBA(image.Rect(0, 0, width, lineH*len(lines)))
	d := &font.Drawer{
		Dst:  txt,
		Src:  image.NewUniform(parseColor(l.Color, design.DefaultTextColor)),
		Face: face,
	}
	ascent := face.Metrics().Ascent
	for i, s := range lines {
		d.Dot = fixed.Point26_6{X: 0, Y: fixed.I(i*lineH) + ascent}
		d.DrawString(s)
	}

	th := float64(l.Rotation) * math.Pi / 180
	cos, sin := math.Cos(th), math.Sin(th)
	m := f64.Aff3{
		cos, -sin, float64(l.X) * PixelRatio,
		sin, cos, float64(l.Y) * PixelRatio,
	}
	if l.Rotation == 0 {
		p := image.Pt(int(math.Round(m[2])), int(math.Round(m[5])))
		draw.Draw(dst, txt.Bounds().Add(p), txt, image.Point{}, draw.Over)
		return nil
	}
	draw.BiLinear.Transform(dst, m, txt, txt.Bounds(), draw.Over, nil)
	return nil
}

// RenderPants renders the pants canvas of st over its pants color.
func RenderPants(st *design.State, images ImageSource, logger *slog.Logger) Snapshots {
	if logger == nil {
		logger = slog.Default()
	}
	return Snapshots{uvlayout.Pants: renderPart(uvlayout.Pants, st.Layers, st.PantsColor, images, logger)}
}

// RenderState renders all four part snapshots of st.
func RenderState(st *design.State, images ImageSource, logger *slog.Logger) Snapshots {
	if logger == nil {
		logger = slog.Default()
	}
	snaps := Snapshots{}
	for _, part := range uvlayout.Parts {
		snaps[part] = renderPart(part, st.Layers, st.BaseColor, images, logger)
	}
	return snaps
}
