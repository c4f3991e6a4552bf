package fit

import (
	"github.com/binzume/mannequin/profile"
	"github.com/binzume/mannequin/rig"
)

// RegionInfluence is clamp01((measured - baseline) / delta).
func RegionInfluence(measured, baseline, delta float32) float32 {
	if !(delta > 0) {
		return 0
	}
	return Clamp01((measured - baseline) / delta)
}

// BoneScale is measured/baseline limited to the profile's bone clamp.
func BoneScale(measured, baseline float32, limit profile.Range) float32 {
	if !(baseline > 0) {
		return 1
	}
	return limit.Clamp(measured / baseline)
}

// Region ties a measurement to its blend-shape category and bone group.
type Region struct {
	Category rig.Category
	Bones    rig.BoneKind
	Axis     rig.Axis
	measure  func(profile.Measurements) float32
	delta    func(profile.RegionDelta) float32
}

func (r Region) Measure(m profile.Measurements) float32 { return r.measure(m) }

func (r Region) Delta(d profile.RegionDelta) float32 { return r.delta(d) }

var Regions = []Region{
	{rig.RegionChest, rig.BoneChest, rig.AxisX,
		func(m profile.Measurements) float32 { return m.ChestCm },
		func(d profile.RegionDelta) float32 { return d.Chest }},
	{rig.RegionWaist, rig.BoneWaist, rig.AxisX,
		func(m profile.Measurements) float32 { return m.WaistCm },
		func(d profile.RegionDelta) float32 { return d.Waist }},
	{rig.RegionShoulder, rig.BoneShoulder, rig.AxisX,
		func(m profile.Measurements) float32 { return m.ShouldersCm },
		func(d profile.RegionDelta) float32 { return d.Shoulders }},
	{rig.RegionArms, rig.BoneArm, rig.AxisX,
		func(m profile.Measurements) float32 { return m.SleeveCm },
		func(d profile.RegionDelta) float32 { return d.Arms }},
}
