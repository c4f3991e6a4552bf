package fit

import (
	"github.com/binzume/mannequin/profile"
)

type Preset string

const (
	SizeS  Preset = "S"
	SizeM  Preset = "M"
	SizeL  Preset = "L"
	SizeXL Preset = "XL"
)

var Presets = []Preset{SizeS, SizeM, SizeL, SizeXL}

type Style string

const (
	StyleFit     Style = "fit"
	StyleRegular Style = "regular"
	StyleLoose   Style = "loose"
)

// Factor scales garment width: fit < 1, regular = 1, loose > 1.
func (s Style) Factor() float32 {
	switch s {
	case StyleFit:
		return 0.96
	case StyleLoose:
		return 1.06
	}
	return 1
}

// Ease is the chart allowance in cm used by Evaluate.
func (s Style) Ease() float32 {
	switch s {
	case StyleFit:
		return -2
	case StyleLoose:
		return 6
	}
	return 2
}

// Dimensions are garment lay-flat sizes in inches.
type Dimensions struct {
	WidthIn  float32 `json:"widthIn"`
	LengthIn float32 `json:"lengthIn"`
	SleeveIn float32 `json:"sleeveIn"`
}

var presetDimensions = map[Preset]Dimensions{
	SizeS:  {WidthIn: 18, LengthIn: 27, SleeveIn: 7.5},
	SizeM:  {WidthIn: 20, LengthIn: 28, SleeveIn: 8},
	SizeL:  {WidthIn: 22, LengthIn: 29, SleeveIn: 8.5},
	SizeXL: {WidthIn: 24, LengthIn: 30, SleeveIn: 9},
}

func (p Preset) Dimensions() (Dimensions, bool) {
	d, ok := presetDimensions[p]
	return d, ok
}

type Garment struct {
	Preset       Preset      `json:"preset,omitempty"`
	Custom       *Dimensions `json:"custom,omitempty"`
	Style        Style       `json:"style"`
	UseMorphOnly bool        `json:"useMorphOnly"`
}

// Dimensions resolves the garment size: custom when set, else the preset,
// else the profile's baseline garment.
func (g Garment) Dimensions(p *profile.Profile) Dimensions {
	if g.Custom != nil {
		return *g.Custom
	}
	if d, ok := g.Preset.Dimensions(); ok {
		return d
	}
	return Dimensions{WidthIn: p.Garment.WidthIn, LengthIn: p.Garment.LengthIn, SleeveIn: p.Garment.SleeveIn}
}

// GarmentScale returns the shirt's width (X/Z) and length (Y) factors relative
// to the profile's baseline garment. Style affects width only.
func GarmentScale(g Garment, p *profile.Profile) (width, length float32) {
	d := g.Dimensions(p)
	width, length = 1, 1
	if p.Garment.WidthIn > 0 && d.WidthIn > 0 {
		width = d.WidthIn / p.Garment.WidthIn
	}
	if p.Garment.LengthIn > 0 && d.LengthIn > 0 {
		length = d.LengthIn / p.Garment.LengthIn
	}
	return width * g.Style.Factor(), length
}

// GarmentInfluence maps inches linearly onto [-1, 1] over r.
func GarmentInfluence(inches float32, r profile.Range) float32 {
	if !(r.Max > r.Min) {
		return 0
	}
	return clamp(2*(inches-r.Min)/(r.Max-r.Min)-1, -1, 1)
}
