// Package fit maps user-facing measurements and garment choices onto handle
// influences and scale factors. Everything except Plan.Apply is pure.
package fit

import (
	"github.com/chewxy/math32"
)

type BodyType string

const (
	Ectomorph BodyType = "ectomorph"
	Endomorph BodyType = "endomorph"
	Mesomorph BodyType = "mesomorph"
)

func (b BodyType) Valid() bool {
	return b == Ectomorph || b == Endomorph || b == Mesomorph
}

func clamp(v, lo, hi float32) float32 {
	if math32.IsNaN(v) {
		return lo
	}
	return math32.Max(lo, math32.Min(hi, v))
}

// Clamp01 limits v to [0, 1]; NaN maps to 0.
func Clamp01(v float32) float32 {
	return clamp(v, 0, 1)
}
