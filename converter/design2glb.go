package converter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/binzume/mannequin/atlas"
	"github.com/binzume/mannequin/design"
	"github.com/binzume/mannequin/fit"
	"github.com/binzume/mannequin/gltfutil"
	"github.com/binzume/mannequin/paint"
	"github.com/binzume/mannequin/profile"
	"github.com/binzume/mannequin/rig"
	"github.com/binzume/mannequin/scene"
	"github.com/binzume/mannequin/uvlayout"
	"github.com/qmuntal/gltf"
)

var ErrNoAsset = errors.New("converter: no asset loaded")

// AssetLoader returns the document and profile for a gender and version.
type AssetLoader func(gender design.Gender, version int) (*gltf.Document, *profile.Profile, error)

type DesignToGLTFOption struct {
	Logger *slog.Logger
	// ImageDir resolves relative image layer sources.
	ImageDir string
	// Loader is used to swap assets when the bound session changes gender or
	// version. Without it such changes are ignored.
	Loader AssetLoader

	AtlasWindow time.Duration
	AfterFunc   atlas.AfterFunc
}

type assetKey struct {
	gender  design.Gender
	version int
}

type designToGltf struct {
	*DesignToGLTFOption
	logger *slog.Logger

	mu       sync.Mutex
	doc      *gltf.Document
	asset    *scene.Asset
	profile  *profile.Profile
	registry *rig.Registry
	painter  *paint.Applicator
	rects    uvlayout.Rects
	solved   bool
	loadedAs assetKey

	images      *atlas.ImageCache
	compositor  *atlas.Compositor
	pants       *atlas.Compositor
	session     *design.Session
	unsubscribe func()
	// applied is the last state given to Apply, used when no session is bound.
	applied *design.State
}

func NewDesignToGLTFConverter(options *DesignToGLTFOption) *designToGltf {
	if options == nil {
		options = &DesignToGLTFOption{}
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &designToGltf{
		DesignToGLTFOption: options,
		logger:             logger,
		images:             atlas.NewImageCache(options.ImageDir),
		rects:              uvlayout.DefaultRects(),
	}
	c.compositor = atlas.NewCompositor(&atlas.Options{
		Logger:    logger,
		Source:    c.snapshots,
		Window:    options.AtlasWindow,
		AfterFunc: options.AfterFunc,
	})
	c.pants = atlas.NewCompositor(&atlas.Options{
		Logger:    logger,
		Source:    c.pantsSnapshots,
		Window:    options.AtlasWindow,
		AfterFunc: options.AfterFunc,
		Name:      "pants_atlas",
		Layout:    atlas.PantsLayout(),
	})
	return c
}

// state is the bound session's snapshot, else the last applied state, else
// the defaults.
func (c *designToGltf) state() design.State {
	c.mu.Lock()
	s, applied := c.session, c.applied
	c.mu.Unlock()
	switch {
	case s != nil:
		return s.Snapshot()
	case applied != nil:
		return *applied
	}
	return design.DefaultState(design.Male)
}

func (c *designToGltf) snapshots() atlas.Snapshots {
	st := c.state()
	return atlas.RenderState(&st, c.images, c.logger)
}

func (c *designToGltf) pantsSnapshots() atlas.Snapshots {
	st := c.state()
	return atlas.RenderPants(&st, c.images, c.logger)
}

func shirtTextured(st *design.State) bool { return st.HasLayers(uvlayout.Parts...) }

func pantsTextured(st *design.State) bool { return st.HasLayers(uvlayout.Pants) }

// Load adopts doc as the current character. The previous asset and everything
// derived from it is released first.
func (c *designToGltf) Load(doc *gltf.Document, p *profile.Profile) error {
	if p == nil {
		p = profile.Default()
	}
	name := p.Asset
	if name == "" {
		name = p.Key
	}
	asset, err := scene.FromGLTF(doc, name)
	if err != nil {
		return fmt.Errorf("converter: %w", err)
	}
	painter, err := paint.New(p, c.logger)
	if err != nil {
		return fmt.Errorf("converter: %w", err)
	}

	c.mu.Lock()
	c.releaseLocked()
	c.doc = doc
	c.asset = asset
	c.profile = p
	c.painter = painter
	c.registry = rig.Discover(asset, p, c.logger)
	c.rects, c.solved = c.solveLocked()
	rects := c.rects
	s := c.session
	if s != nil {
		st := s.Snapshot()
		c.loadedAs = assetKey{st.Gender, st.Version}
	}
	c.mu.Unlock()

	if s != nil {
		s.SetUVRects(rects)
		st := s.Snapshot()
		return c.Apply(&st)
	}
	return nil
}

func (c *designToGltf) solveLocked() (uvlayout.Rects, bool) {
	shirt := c.registry.Shirt
	if shirt == nil || len(shirt.Geometry.UVs) == 0 {
		c.logger.Warn("no shirt uv, using default regions")
		return uvlayout.DefaultRects(), false
	}
	rects, ok := uvlayout.Solve(shirt.Geometry.UVs)
	if !ok {
		c.logger.Warn("shirt uv not usable, using default regions", "mesh", shirt.Name)
		return uvlayout.DefaultRects(), false
	}
	return rects, true
}

func (c *designToGltf) releaseLocked() {
	if c.asset != nil {
		c.asset.Release()
	}
	c.doc, c.asset, c.registry, c.painter = nil, nil, nil, nil
	c.rects, c.solved = uvlayout.DefaultRects(), false
}

// Registry returns the handles of the current asset.
func (c *designToGltf) Registry() (*rig.Registry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.asset == nil {
		return nil, ErrNoAsset
	}
	return c.registry, nil
}

// Rects returns the solved UV regions and whether they came from the mesh.
func (c *designToGltf) Rects() (uvlayout.Rects, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rects.Merge(nil), c.solved
}

// Compositor builds the shirt atlas.
func (c *designToGltf) Compositor() *atlas.Compositor { return c.compositor }

// PantsCompositor builds the pants texture.
func (c *designToGltf) PantsCompositor() *atlas.Compositor { return c.pants }

func (c *designToGltf) Images() *atlas.ImageCache { return c.images }

// Apply maps st onto the current asset and paints it. Garments with layers
// get their texture, the others a flat color.
func (c *designToGltf) Apply(st *design.State) error {
	shirtTex, pantsTex := shirtTextured(st), pantsTextured(st)
	applied := *st
	applied.Layers = append([]design.Layer(nil), st.Layers...)
	c.mu.Lock()
	c.applied = &applied
	c.mu.Unlock()

	if shirtTex && c.compositor.Rebuilds() == 0 {
		c.compositor.Force()
	}
	if pantsTex && c.pants.Rebuilds() == 0 {
		c.pants.Force()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.asset == nil {
		return ErrNoAsset
	}

	plan := fit.Build(st.Fit(), fit.AvailabilityOf(c.registry), c.profile)
	plan.Apply(c.registry)

	root := c.registry.Root()
	skin, err := scene.ParseColor(st.SkinColor)
	if err != nil {
		c.logger.Warn("bad skin color", "color", st.SkinColor)
		skin = scene.MustColor("#e6c8b5")
	}
	c.painter.Skin(root, skin)

	shirt := paint.Surface{Texture: c.compositor.Texture()}
	if !shirtTex {
		if shirt.Color, err = scene.ParseColor(st.BaseColor); err != nil {
			shirt.Color = paint.DefaultShirtColor
		}
		shirt.Texture = nil
	}
	c.painter.Shirt(c.registry.Shirt, shirt)

	pants := paint.Surface{Texture: c.pants.Texture()}
	if !pantsTex {
		if pants.Color, err = scene.ParseColor(st.PantsColor); err != nil {
			pants.Color = paint.DefaultPantsColor
		}
		pants.Texture = nil
	}
	c.painter.Pants(root, pants)
	c.painter.ShowClothes(root, c.registry.Shirt, st.ShowClothes)

	c.logger.Debug("design applied", "asset", c.asset.Name, "height", plan.Height, "bodyType", st.BodyType,
		"shirtTexture", shirtTex, "pantsTexture", pantsTex)
	return nil
}

// Bind follows s: atlas edits schedule a throttled rebuild, body and color
// edits re-apply, and gender or version changes swap the asset through Loader.
func (c *designToGltf) Bind(s *design.Session) {
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.session = s
	c.unsubscribe = s.Subscribe(func(ch design.Change) { c.onChange(s, ch) })
	loaded := c.asset != nil
	rects := c.rects
	if loaded {
		st := s.Snapshot()
		c.loadedAs = assetKey{st.Gender, st.Version}
	}
	c.mu.Unlock()

	c.compositor.Force()
	c.pants.Force()
	if loaded {
		s.SetUVRects(rects)
		st := s.Snapshot()
		if err := c.Apply(&st); err != nil {
			c.logger.Warn("apply failed", "err", err)
		}
	}
}

func (c *designToGltf) onChange(s *design.Session, ch design.Change) {
	st := s.Snapshot()
	if ch.Atlas() {
		if shirtTextured(&st) {
			c.compositor.Schedule()
		}
		if pantsTextured(&st) {
			c.pants.Schedule()
		}
	}
	if ch&design.ChangeAsset != 0 && c.Loader != nil {
		c.mu.Lock()
		same := c.loadedAs == assetKey{st.Gender, st.Version} && c.asset != nil
		c.mu.Unlock()
		if !same {
			doc, p, err := c.Loader(st.Gender, st.Version)
			if err != nil {
				c.logger.Error("asset load failed", "gender", st.Gender, "version", st.Version, "err", err)
				return
			}
			if err := c.Load(doc, p); err != nil {
				c.logger.Error("asset load failed", "gender", st.Gender, "version", st.Version, "err", err)
			}
			return
		}
	}
	if ch&^design.ChangeUVRects == 0 {
		return
	}
	// layer edits may switch a garment between texture and flat color
	if err := c.Apply(&st); err != nil && !errors.Is(err, ErrNoAsset) {
		c.logger.Warn("apply failed", "err", err)
	}
}

// Export rebuilds the garment textures in use and writes the configured asset
// as GLB. The loaded document itself is left untouched.
func (c *designToGltf) Export(w io.Writer) error {
	st := c.state()
	if shirtTextured(&st) {
		c.compositor.Force()
	}
	if pantsTextured(&st) {
		c.pants.Force()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.asset == nil {
		return ErrNoAsset
	}
	out, err := cloneDocument(c.doc)
	if err != nil {
		return fmt.Errorf("converter: %w", err)
	}
	if err := c.asset.WriteBack(out); err != nil {
		return fmt.Errorf("converter: %w", err)
	}
	return gltfutil.Encode(w, out)
}

func cloneDocument(doc *gltf.Document) (*gltf.Document, error) {
	var buf bytes.Buffer
	if err := gltfutil.Encode(&buf, doc); err != nil {
		return nil, err
	}
	return gltfutil.Decode(&buf)
}

// Close unbinds the session, stops both compositors and releases the asset.
func (c *designToGltf) Close() {
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.session = nil
	c.releaseLocked()
	c.mu.Unlock()
	c.compositor.Close()
	c.pants.Close()
}
