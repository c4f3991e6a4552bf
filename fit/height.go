package fit

import "github.com/binzume/mannequin/profile"

// HeightToScale rescales cm against the profile's base height. The input is
// clamped to the slider range; the result is not clamped to the safe range.
func HeightToScale(cm float32, p *profile.Profile) float32 {
	cm = p.HeightRange.Clamp(cm)
	return cm / p.HeightBaseCm
}

// ScaleToHeight inverts HeightToScale.
func ScaleToHeight(s float32, p *profile.Profile) float32 {
	return s * p.HeightBaseCm
}

// SafeHeightScale is the scale actually written to the skeleton.
func SafeHeightScale(cm float32, p *profile.Profile) float32 {
	return p.HeightClamp.Clamp(HeightToScale(cm, p))
}
