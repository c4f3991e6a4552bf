// Package atlas renders the per-part design canvases and composes them into
// the garment's texture atlas.
package atlas

import (
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/binzume/mannequin/scene"
	"github.com/binzume/mannequin/uvlayout"
	"golang.org/x/image/draw"
)

const (
	Size         = 2048
	QuadrantSize = Size / 2
	// Window is the default rebuild throttle.
	Window = 60 * time.Millisecond
)

// Snapshots are rendered part canvases.
type Snapshots map[uvlayout.Part]image.Image

// Quadrant returns the atlas area of part, in uvlayout.Parts order.
func Quadrant(part uvlayout.Part) image.Rectangle {
	for i, p := range uvlayout.Parts {
		if p == part {
			x, y := (i%2)*QuadrantSize, (i/2)*QuadrantSize
			return image.Rect(x, y, x+QuadrantSize, y+QuadrantSize)
		}
	}
	return image.Rectangle{}
}

// Layout places each part's snapshot on the atlas.
type Layout map[uvlayout.Part]image.Rectangle

// ShirtLayout is the four garment quadrants.
func ShirtLayout() Layout {
	l := Layout{}
	for _, p := range uvlayout.Parts {
		l[p] = Quadrant(p)
	}
	return l
}

// PantsLayout stretches the pants canvas over the whole texture.
func PantsLayout() Layout {
	return Layout{uvlayout.Pants: image.Rect(0, 0, Size, Size)}
}

type Options struct {
	Logger *slog.Logger
	// Source renders the current snapshots for throttled and forced rebuilds.
	Source func() Snapshots
	// Window defaults to 60ms.
	Window    time.Duration
	AfterFunc AfterFunc
	Name      string
	// Layout defaults to ShirtLayout.
	Layout Layout
}

// Compositor owns the atlas canvas and the texture that shows it. Both outlive
// any character asset. Every rebuild draws a new canvas and publishes it, so a
// frame handed to the texture is never written again.
type Compositor struct {
	logger  *slog.Logger
	source  func() Snapshots
	layout  Layout
	texture *scene.Texture

	mu       sync.Mutex
	canvas   *image.RGBA
	throttle *Throttle
	rebuilds int
}

func NewCompositor(opts *Options) *Compositor {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := opts.Window
	if window == 0 {
		window = Window
	}
	name := opts.Name
	if name == "" {
		name = "shirt_atlas"
	}
	layout := opts.Layout
	if layout == nil {
		layout = ShirtLayout()
	}
	canvas := image.NewRGBA(image.Rect(0, 0, Size, Size))
	c := &Compositor{
		logger:  logger,
		source:  opts.Source,
		layout:  layout,
		canvas:  canvas,
		texture: scene.NewTexture(name, canvas),
	}
	c.throttle = NewThrottle(window, c.rebuildFromSource, opts.AfterFunc)
	return c
}

// Texture is the live texture backed by the atlas canvas.
func (c *Compositor) Texture() *scene.Texture { return c.texture }

// Image returns a copy of the current atlas.
func (c *Compositor) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	img := image.NewRGBA(c.canvas.Bounds())
	copy(img.Pix, c.canvas.Pix)
	return img
}

func (c *Compositor) Rebuilds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rebuilds
}

// Rebuild draws every snapshot into its layout area on a fresh canvas and
// publishes it to the texture. Missing parts stay transparent.
func (c *Compositor) Rebuild(snaps Snapshots) {
	canvas := image.NewRGBA(image.Rect(0, 0, Size, Size))
	for part, dr := range c.layout {
		src, ok := snaps[part]
		if !ok || src == nil {
			continue
		}
		sb := src.Bounds()
		if sb.Dx() == dr.Dx() && sb.Dy() == dr.Dy() {
			draw.Draw(canvas, dr, src, sb.Min, draw.Src)
		} else {
			draw.CatmullRom.Scale(canvas, dr, src, sb, draw.Src, nil)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.canvas = canvas
	c.rebuilds++
	c.texture.SetImage(canvas)
	c.logger.Debug("atlas rebuilt", "texture", c.texture.Name, "parts", len(snaps), "version", c.texture.Version())
}

func (c *Compositor) rebuildFromSource() {
	if c.source == nil {
		return
	}
	c.Rebuild(c.source())
}

// Schedule requests a throttled rebuild from the source.
func (c *Compositor) Schedule() bool {
	return c.throttle.Schedule()
}

// Force rebuilds now, dropping any pending throttled rebuild.
func (c *Compositor) Force() {
	c.throttle.Flush()
}

// Close stops scheduling and disposes the texture.
func (c *Compositor) Close() {
	c.throttle.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texture.Dispose()
}
