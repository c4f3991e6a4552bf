package fit

import (
	"github.com/binzume/mannequin/profile"
	"github.com/chewxy/math32"
)

type Status string

const (
	TooTight   Status = "Too Tight"
	PerfectFit Status = "Perfect Fit"
	TooLoose   Status = "Too Loose"
)

// ChartEntry is a garment size in body circumference cm.
type ChartEntry struct {
	ChestCm     float32
	WaistCm     float32
	ShouldersCm float32
}

var Chart = map[Preset]ChartEntry{
	SizeS:  {92, 80, 44},
	SizeM:  {98, 86, 46},
	SizeL:  {106, 94, 48},
	SizeXL: {114, 102, 50},
}

type Result struct {
	Status        Status
	DiffChest     float32
	DiffWaist     float32
	DiffShoulders float32
}

// Evaluate compares body measurements against the garment. Custom sizes
// convert lay-flat width to an approximate circumference.
func Evaluate(m profile.Measurements, g Garment) Result {
	base, ok := Chart[g.Preset]
	if g.Custom != nil || !ok {
		w := float32(20)
		if g.Custom != nil && g.Custom.WidthIn > 0 {
			w = g.Custom.WidthIn
		}
		base = ChartEntry{
			ChestCm:     w * 2.54 * 2 * 0.95,
			WaistCm:     w * 2.54 * 2 * 0.90,
			ShouldersCm: w * 2.54 * 0.9,
		}
	}
	ease := g.Style.Ease()
	r := Result{
		DiffChest:     base.ChestCm + ease - m.ChestCm,
		DiffWaist:     base.WaistCm + ease - m.WaistCm,
		DiffShoulders: base.ShouldersCm + ease*0.3 - m.ShouldersCm,
	}
	switch {
	case r.DiffChest < 2 || r.DiffWaist < 2 || r.DiffShoulders < 1:
		r.Status = TooTight
	case r.DiffChest > 12 || r.DiffWaist > 12 || r.DiffShoulders > 5:
		r.Status = TooLoose
	default:
		r.Status = PerfectFit
	}
	return r
}

// SizeLabel returns the chart size whose chest is nearest to chestCm.
func SizeLabel(chestCm float32) Preset {
	best, bestDiff := SizeM, math32.Inf(1)
	for _, p := range Presets {
		if d := math32.Abs(Chart[p].ChestCm - chestCm); d < bestDiff {
			best, bestDiff = p, d
		}
	}
	return best
}

// Sliders are legacy normalized (0-1) body sliders.
type Sliders struct {
	Height   float32 `json:"height"`
	Waist    float32 `json:"waist"`
	Shoulder float32 `json:"shoulder"`
	Chest    float32 `json:"chest"`
	Arms     float32 `json:"arms"`
}

// EstimateMeasurements converts legacy sliders to centimeters.
func EstimateMeasurements(s Sliders) profile.Measurements {
	return profile.Measurements{
		HeightCm:    160 + Clamp01(s.Height)*30,
		ChestCm:     85 + Clamp01(s.Chest)*25,
		WaistCm:     70 + Clamp01(s.Waist)*25,
		ShouldersCm: 40 + Clamp01(s.Shoulder)*12,
		SleeveCm:    55 + Clamp01(s.Arms)*8,
	}
}
