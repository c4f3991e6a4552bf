// Package design holds the editable session: body, garment, colors and the
// per-part layer lists. Components read it by reference and subscribe to
// changes.
package design

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/binzume/mannequin/fit"
	"github.com/binzume/mannequin/profile"
	"github.com/binzume/mannequin/uvlayout"
	"github.com/google/uuid"
)

var ErrLayerNotFound = errors.New("design: layer not found")

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Change tells subscribers what part of the session moved.
type Change int

const (
	ChangeAsset Change = 1 << iota
	ChangeBody
	ChangeGarment
	ChangeColors
	ChangeLayers
	ChangeVisibility
	// ChangeUVRects is emitted when solved regions are stored. Nothing painted
	// depends on them.
	ChangeUVRects
)

// Atlas reports whether the texture atlas depends on c.
func (c Change) Atlas() bool { return c&(ChangeLayers|ChangeColors) != 0 }

// Deform reports whether the deformation plan depends on c.
func (c Change) Deform() bool { return c&(ChangeAsset|ChangeBody|ChangeGarment) != 0 }

// Measurement slider ranges in cm.
var (
	HeightRange    = profile.Range{Min: 130, Max: 200}
	ChestRange     = profile.Range{Min: 85, Max: 110}
	WaistRange     = profile.Range{Min: 70, Max: 95}
	ShouldersRange = profile.Range{Min: 40, Max: 52}
	SleeveRange    = profile.Range{Min: 55, Max: 63}
	WidthInRange   = profile.Range{Min: 17, Max: 24}
	LengthInRange  = profile.Range{Min: 24, Max: 33}
)

var genderMeasurements = map[Gender]profile.Measurements{
	Male:   {HeightCm: 175, ChestCm: 96, WaistCm: 82, ShouldersCm: 46, SleeveCm: 60},
	Female: {HeightCm: 165, ChestCm: 86, WaistCm: 70, ShouldersCm: 40, SleeveCm: 58},
}

// DefaultMeasurements returns the starting measurements for g.
func DefaultMeasurements(g Gender) profile.Measurements {
	if m, ok := genderMeasurements[g]; ok {
		return m
	}
	return genderMeasurements[Male]
}

// State is the serializable part of a session.
type State struct {
	Gender       Gender               `json:"gender"`
	Version      int                  `json:"version"`
	BodyType     fit.BodyType         `json:"bodyType"`
	Intensity    float32              `json:"intensity"`
	Measurements profile.Measurements `json:"measurements"`
	Garment      fit.Garment          `json:"garment"`
	BaseColor    string               `json:"baseColor"`
	SkinColor    string               `json:"skinColor"`
	PantsColor   string               `json:"pantsColor"`
	ShowClothes  bool                 `json:"showClothes"`
	UVRects      uvlayout.Rects       `json:"uvRects,omitempty"`
	Layers       []Layer              `json:"layers"`
}

// DefaultState is a fresh session for g.
func DefaultState(g Gender) State {
	return State{
		Gender:       g,
		Version:      1,
		BodyType:     fit.Mesomorph,
		Measurements: DefaultMeasurements(g),
		Garment:      fit.Garment{Preset: fit.SizeM, Style: fit.StyleRegular},
		BaseColor:    "#b91c1c",
		SkinColor:    "#e6c8b5",
		PantsColor:   "#444444",
		ShowClothes:  true,
		UVRects:      uvlayout.DefaultRects(),
	}
}

// Fit converts the state into mapper input.
func (s *State) Fit() fit.Input {
	return fit.Input{
		BodyType:     s.BodyType,
		Intensity:    s.Intensity,
		Measurements: s.Measurements,
		Garment:      s.Garment,
	}
}

// LayersFor returns a copy of the layers painted on part, ordered by z.
func (s *State) LayersFor(part uvlayout.Part) []Layer {
	var ls []Layer
	for _, l := range s.Layers {
		if l.Part == part {
			ls = append(ls, l)
		}
	}
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].Z < ls[j].Z })
	return ls
}

// HasLayers reports whether any layer is painted on one of parts.
func (s *State) HasLayers(parts ...uvlayout.Part) bool {
	for _, l := range s.Layers {
		for _, p := range parts {
			if l.Part == p {
				return true
			}
		}
	}
	return false
}

func (s *State) normalize() {
	if s.Gender != Female {
		s.Gender = Male
	}
	if s.Version < 1 {
		s.Version = 1
	}
	if !s.BodyType.Valid() {
		s.BodyType = fit.Mesomorph
	}
	s.Intensity = fit.Clamp01(s.Intensity)
	s.Measurements = clampMeasurements(s.Measurements)
	s.Garment = clampGarment(s.Garment)
	if s.UVRects == nil {
		s.UVRects = uvlayout.DefaultRects()
	} else {
		s.UVRects = uvlayout.DefaultRects().Merge(s.UVRects)
	}
	for i := range s.Layers {
		s.Layers[i].normalize()
	}
}

func clampMeasurements(m profile.Measurements) profile.Measurements {
	m.HeightCm = HeightRange.Clamp(m.HeightCm)
	m.ChestCm = ChestRange.Clamp(m.ChestCm)
	m.WaistCm = WaistRange.Clamp(m.WaistCm)
	m.ShouldersCm = ShouldersRange.Clamp(m.ShouldersCm)
	m.SleeveCm = SleeveRange.Clamp(m.SleeveCm)
	return m
}

func clampGarment(g fit.Garment) fit.Garment {
	switch g.Style {
	case fit.StyleFit, fit.StyleRegular, fit.StyleLoose:
	default:
		g.Style = fit.StyleRegular
	}
	if g.Custom != nil {
		d := *g.Custom
		d.WidthIn = WidthInRange.Clamp(d.WidthIn)
		d.LengthIn = LengthInRange.Clamp(d.LengthIn)
		if d.SleeveIn < 0 || d.SleeveIn != d.SleeveIn {
			d.SleeveIn = 0
		}
		g.Custom = &d
	} else if _, ok := g.Preset.Dimensions(); !ok {
		g.Preset = fit.SizeM
	}
	return g
}

// Session is the shared editable state. Setters clamp their input and notify
// subscribers after the lock is released.
type Session struct {
	mu     sync.Mutex
	state  State
	subs   map[int]func(Change)
	nextID int
	lastZ  int64

	// Now stamps layer z order.
	Now func() time.Time
}

func NewSession(g Gender) *Session {
	return &Session{state: DefaultState(g), subs: map[int]func(Change){}, Now: time.Now}
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (st *State) clone() State {
	c := *st
	c.Layers = make([]Layer, len(st.Layers))
	for i, l := range st.Layers {
		l.Points = append([]float32(nil), l.Points...)
		c.Layers[i] = l
	}
	c.UVRects = uvlayout.Rects{}.Merge(st.UVRects)
	if st.Garment.Custom != nil {
		d := *st.Garment.Custom
		c.Garment.Custom = &d
	}
	return c
}

// Subscribe registers fn for change notifications and returns its cancel func.
func (s *Session) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) update(c Change, fn func(st *State) error) error {
	s.mu.Lock()
	if err := fn(&s.state); err != nil {
		s.mu.Unlock()
		return err
	}
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Change), len(ids))
	for i, id := range ids {
		subs[i] = s.subs[id]
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
	return nil
}

// SetGender switches the asset and resets measurements to that gender's defaults.
func (s *Session) SetGender(g Gender) {
	if g != Female {
		g = Male
	}
	s.update(ChangeAsset|ChangeBody, func(st *State) error {
		st.Gender = g
		st.Measurements = DefaultMeasurements(g)
		return nil
	})
}

func (s *Session) SetVersion(v int) {
	if v < 1 {
		v = 1
	}
	s.update(ChangeAsset, func(st *State) error {
		st.Version = v
		return nil
	})
}

// SetBodyType ignores unknown body types.
func (s *Session) SetBodyType(bt fit.BodyType) {
	if !bt.Valid() {
		return
	}
	s.update(ChangeBody, func(st *State) error {
		st.BodyType = bt
		return nil
	})
}

func (s *Session) SetIntensity(v float32) {
	s.update(ChangeBody, func(st *State) error {
		st.Intensity = fit.Clamp01(v)
		return nil
	})
}

func (s *Session) SetMeasurements(m profile.Measurements) {
	s.update(ChangeBody, func(st *State) error {
		st.Measurements = clampMeasurements(m)
		return nil
	})
}

func (s *Session) SetGarment(g fit.Garment) {
	s.update(ChangeGarment, func(st *State) error {
		st.Garment = clampGarment(g)
		return nil
	})
}

func (s *Session) SetBaseColor(hex string) error {
	return s.setColor(hex, func(st *State) *string { return &st.BaseColor })
}

func (s *Session) SetSkinColor(hex string) error {
	return s.setColor(hex, func(st *State) *string { return &st.SkinColor })
}

func (s *Session) SetPantsColor(hex string) error {
	return s.setColor(hex, func(st *State) *string { return &st.PantsColor })
}

func (s *Session) setColor(hex string, field func(st *State) *string) error {
	if !validHex(hex) {
		return fmt.Errorf("design: invalid color %q", hex)
	}
	return s.update(ChangeColors, func(st *State) error {
		*field(st) = hex
		return nil
	})
}

func validHex(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

func (s *Session) SetShowClothes(show bool) {
	s.update(ChangeVisibility, func(st *State) error {
		st.ShowClothes = show
		return nil
	})
}

// SetUVRects stores solved regions, keeping defaults for missing parts.
func (s *Session) SetUVRects(r uvlayout.Rects) {
	s.update(ChangeUVRects, func(st *State) error {
		st.UVRects = uvlayout.DefaultRects().Merge(r)
		return nil
	})
}

func (s *Session) stamp() int64 {
	z := s.Now().UnixMilli()
	if z <= s.lastZ {
		z = s.lastZ + 1
	}
	s.lastZ = z
	return z
}

// AddLayer assigns an id and a z above every existing layer, and returns the id.
func (s *Session) AddLayer(l Layer) string {
	l.ID = uuid.NewString()
	s.update(ChangeLayers, func(st *State) error {
		for _, o := range st.Layers {
			if o.Z > s.lastZ {
				s.lastZ = o.Z
			}
		}
		l.Z = s.stamp()
		l.normalize()
		st.Layers = append(st.Layers, l)
		return nil
	})
	return l.ID
}

// UpdateLayer edits the layer in place. Id and part are preserved.
func (s *Session) UpdateLayer(id string, fn func(l *Layer)) error {
	return s.update(ChangeLayers, func(st *State) error {
		i := st.index(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
		}
		l := st.Layers[i]
		fn(&l)
		l.ID, l.Part = id, st.Layers[i].Part
		l.normalize()
		st.Layers[i] = l
		return nil
	})
}

func (s *Session) RemoveLayer(id string) error {
	return s.update(ChangeLayers, func(st *State) error {
		i := st.index(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
		}
		st.Layers = append(st.Layers[:i], st.Layers[i+1:]...)
		return nil
	})
}

// Layer returns a copy of the layer with id.
func (s *Session) Layer(id string) (Layer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.state.index(id)
	if i < 0 {
		return Layer{}, fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	return s.state.Layers[i], nil
}

func (st *State) index(id string) int {
	for i, l := range st.Layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// LayersFor returns the layers of part ordered by z.
func (s *Session) LayersFor(part uvlayout.Part) []Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state.clone()
	return st.LayersFor(part)
}

func (s *Session) Nudge(id string, dx, dy float32) error {
	return s.UpdateLayer(id, func(l *Layer) {
		l.X += dx
		l.Y += dy
	})
}

// Rotate adds step degrees, wrapping at 360.
func (s *Session) Rotate(id string, step float32) error {
	return s.UpdateLayer(id, func(l *Layer) {
		l.Rotation += step
	})
}

func (s *Session) SetScale(id string, scale float32) error {
	return s.UpdateLayer(id, func(l *Layer) { l.Scale = scale })
}

// BringToFront restamps the layer above all others.
func (s *Session) BringToFront(id string) error {
	return s.update(ChangeLayers, func(st *State) error {
		i := st.index(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
		}
		for _, o := range st.Layers {
			if o.Z > s.lastZ {
				s.lastZ = o.Z
			}
		}
		st.Layers[i].Z = s.stamp()
		return nil
	})
}

// CoverFit sizes an image layer of w x h pixels to cover its canvas.
func (s *Session) CoverFit(id string, w, h int) error {
	return s.UpdateLayer(id, func(l *Layer) {
		l.Scale, l.X, l.Y = CoverFit(w, h)
		l.FitOnLoad = false
	})
}

// Center places the layer in the middle of its canvas. Image layers need
// their pixel size.
func (s *Session) Center(id string, imgW, imgH int) error {
	return s.UpdateLayer(id, func(l *Layer) {
		if l.Kind == KindShape && l.Shape == ShapeCircle {
			l.X, l.Y = CanvasSize/2, CanvasSize/2
			return
		}
		w, h := l.ApproxSize(imgW, imgH)
		if l.Kind != KindText {
			w, h = w*l.Scale, h*l.Scale
		}
		l.X = float32(math.Round(float64(CanvasSize-w) / 2))
		l.Y = float32(math.Round(float64(CanvasSize-h) / 2))
		if l.Kind == KindPath && len(l.Points) >= 2 {
			minX, minY := l.Points[0], l.Points[1]
			for i := 2; i+1 < len(l.Points); i += 2 {
				minX = min(minX, l.Points[i])
				minY = min(minY, l.Points[i+1])
			}
			l.X -= minX * l.Scale
			l.Y -= minY * l.Scale
		}
	})
}

// Replace sets the session state wholesale, e.g. after loading a file.
func (s *Session) Replace(st State) {
	st.normalize()
	st = st.clone()
	s.update(ChangeAsset|ChangeBody|ChangeGarment|ChangeColors|ChangeLayers|ChangeVisibility, func(cur *State) error {
		*cur = st
		return nil
	})
}

// Decode reads a session JSON document.
func Decode(r io.Reader) (State, error) {
	st := DefaultState(Male)
	st.UVRects = nil
	if err := json.NewDecoder(r).Decode(&st); err != nil {
		return State{}, fmt.Errorf("design: decode session: %w", err)
	}
	st.normalize()
	return st, nil
}

func Encode(w io.Writer, st State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}

// Load reads a session file.
func Load(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s := NewSession(st.Gender)
	s.state = st
	return s, nil
}

// Save writes the current state to path.
func (s *Session) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Encode(f, s.Snapshot())
}
