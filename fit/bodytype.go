package fit

import "github.com/binzume/mannequin/rig"

// BodyTypeWeights returns the influence for each body-type category. Exactly
// the selected category carries the clamped intensity; the others are 0.
func BodyTypeWeights(bt BodyType, intensity float32) map[rig.Category]float32 {
	w := map[rig.Category]float32{
		rig.BodyTypeEndo: 0,
		rig.BodyTypeEcto: 0,
		rig.BodyTypeMeso: 0,
	}
	if c, ok := BodyTypeCategory(bt); ok {
		w[c] = Clamp01(intensity)
	}
	return w
}

func BodyTypeCategory(bt BodyType) (rig.Category, bool) {
	switch bt {
	case Endomorph:
		return rig.BodyTypeEndo, true
	case Ectomorph:
		return rig.BodyTypeEcto, true
	case Mesomorph:
		return rig.BodyTypeMeso, true
	}
	return 0, false
}
