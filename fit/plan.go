package fit

import (
	"github.com/binzume/mannequin/geom"
	"github.com/binzume/mannequin/profile"
	"github.com/binzume/mannequin/rig"
)

// Input is the session state the mapper reads.
type Input struct {
	BodyType     BodyType
	Intensity    float32
	Measurements profile.Measurements
	Garment      Garment
}

// Availability says which deformation paths the current asset offers.
type Availability struct {
	Handles map[rig.Category]bool
	Bones   map[rig.BoneKind]bool
	Shirt   bool
}

func AvailabilityOf(r *rig.Registry) Availability {
	av := Availability{Handles: map[rig.Category]bool{}, Bones: map[rig.BoneKind]bool{}}
	for _, c := range rig.Categories() {
		av.Handles[c] = r.Has(c)
	}
	for _, k := range []rig.BoneKind{rig.BoneChest, rig.BoneWaist, rig.BoneShoulder, rig.BoneArm} {
		av.Bones[k] = !r.BoneGroup(k).Empty()
	}
	av.Shirt = r.Shirt != nil
	return av
}

// Plan is the complete deformation state for one input. Scale factors are
// relative to captured baselines.
type Plan struct {
	Influences map[rig.Category]float32
	// BodyScale is the X/Z body-type fallback on the asset root.
	BodyScale geom.Vector3
	Height    float32
	Shirt     geom.Vector3
	Bones     map[rig.BoneKind]float32
}

// Build computes the plan. It never fails; missing handles select fallbacks.
func Build(in Input, av Availability, p *profile.Profile) Plan {
	if p == nil {
		p = profile.Default()
	}
	plan := Plan{
		Influences: BodyTypeWeights(in.BodyType, in.Intensity),
		BodyScale:  geom.One,
		Height:     SafeHeightScale(in.Measurements.HeightCm, p),
		Shirt:      geom.One,
		Bones:      map[rig.BoneKind]float32{},
	}

	intensity := Clamp01(in.Intensity)
	shirtWiden := float32(1)
	if c, ok := BodyTypeCategory(in.BodyType); ok && intensity > 0 && !av.Handles[c] {
		switch in.BodyType {
		case Ectomorph:
			f := 1 - p.Fallback.Ectomorph*intensity
			plan.BodyScale = geom.Vector3{X: f, Y: 1, Z: f}
		case Mesomorph:
			f := 1 + p.Fallback.Mesomorph*intensity
			plan.BodyScale = geom.Vector3{X: f, Y: 1, Z: f}
		case Endomorph:
			shirtWiden = 1 + p.Fallback.EndomorphShirt*intensity
		}
	}

	for _, r := range Regions {
		measured, baseline := r.Measure(in.Measurements), r.Measure(p.Baseline)
		plan.Influences[r.Category] = RegionInfluence(measured, baseline, r.Delta(p.RegionDelta))
		if !av.Handles[r.Category] && av.Bones[r.Bones] {
			plan.Bones[r.Bones] = BoneScale(measured, baseline, p.BoneClamp)
		}
	}

	d := in.Garment.Dimensions(p)
	plan.Influences[rig.GarmentWidth] = GarmentInfluence(d.WidthIn, p.Garment.WidthRange)
	plan.Influences[rig.GarmentHeight] = GarmentInfluence(d.LengthIn, p.Garment.LengthRange)
	if av.Shirt && !in.Garment.UseMorphOnly {
		w, l := GarmentScale(in.Garment, p)
		w *= shirtWiden
		plan.Shirt = geom.Vector3{X: w, Y: l, Z: w}
	}
	return plan
}

// Apply writes the plan: handles first, then scales.
func (plan Plan) Apply(r *rig.Registry) {
	for _, c := range rig.Categories() {
		v := plan.Influences[c]
		if r.Has(c) || (v != 0 && !c.Garment()) {
			r.SetInfluence(c, v)
		}
	}

	root := r.Root()
	if root == nil {
		return
	}
	h := plan.Height
	rb := root.Base()
	if r.Hip != nil {
		hip := r.Hip.Base()
		hip.Scale = hip.BaselineScale().Scale(h)
		rb.Scale = rb.BaselineScale().Mul(plan.BodyScale)
	} else {
		rb.Scale = rb.BaselineScale().Mul(plan.BodyScale.Mul(geom.Uniform(h)))
	}
	if r.Shirt != nil {
		r.Shirt.Scale = r.Shirt.BaselineScale().Mul(plan.Shirt)
	}
	for _, reg := range Regions {
		g := r.BoneGroup(reg.Bones)
		if g.Empty() {
			continue
		}
		if f, ok := plan.Bones[reg.Bones]; ok {
			g.ScaleAxis(reg.Axis, f)
		} else {
			g.Reset()
		}
	}
}
