package rig

import (
	"regexp"

	"github.com/binzume/mannequin/geom"
	"github.com/binzume/mannequin/profile"
	"github.com/binzume/mannequin/scene"
)

type BoneKind int

const (
	BoneChest BoneKind = iota
	BoneWaist
	BoneShoulder
	BoneArm
	numBoneKinds
)

func (k BoneKind) String() string {
	switch k {
	case BoneChest:
		return "chest"
	case BoneWaist:
		return "waist"
	case BoneShoulder:
		return "shoulder"
	case BoneArm:
		return "arm"
	}
	return "unknown"
}

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// BoneGroup is a fallback deformation target. Scales are relative to each
// bone's baseline, captured on first mutation.
type BoneGroup struct {
	Kind  BoneKind
	Bones []*scene.Bone
	// Uniform groups (breast bones) always scale on all axes.
	Uniform bool
}

func (g *BoneGroup) Empty() bool { return g == nil || len(g.Bones) == 0 }

func (g *BoneGroup) ScaleUniform(f float32) {
	for _, b := range g.Bones {
		b.Scale = b.BaselineScale().Scale(f)
	}
}

// ScaleAxis scales one axis, or all axes for uniform groups.
func (g *BoneGroup) ScaleAxis(axis Axis, f float32) {
	if g.Uniform {
		g.ScaleUniform(f)
		return
	}
	m := geom.One
	switch axis {
	case AxisX:
		m.X = f
	case AxisY:
		m.Y = f
	case AxisZ:
		m.Z = f
	}
	for _, b := range g.Bones {
		b.Scale = b.BaselineScale().Mul(m)
	}
}

// Reset restores the baseline of every bone that was touched.
func (g *BoneGroup) Reset() {
	for _, b := range g.Bones {
		b.ResetScale()
	}
}

func (g *BoneGroup) Names() []string {
	names := make([]string, len(g.Bones))
	for i, b := range g.Bones {
		names[i] = b.Name
	}
	return names
}

type boneRules struct {
	breast, chest, waist, shoulder, arm *regexp.Regexp
}

var defaultBones = profile.Bones{
	Chest:    `(?i)(^|[_:.\s])(chest|upper_?chest|spine_?0?2)$`,
	Waist:    `(?i)(^|[_:.\s])(spine|spine_?0?1|waist|abdomen)$`,
	Shoulder: `(?i)(shoulder|clavicle)`,
	Arm:      `(?i)(upper_?arm|arm_?upper|(^|[_:.\s])arm(_?[lr])?$|(left|right)_?arm$)`,
}

func compileBones(b profile.Bones) (*boneRules, error) {
	pick := func(s, def string) (*regexp.Regexp, error) {
		if s == "" {
			s = def
		}
		if s == "" {
			return nil, nil
		}
		return regexp.Compile(s)
	}
	var r boneRules
	var err error
	if r.breast, err = pick(b.Breast, defaultBones.Breast); err != nil {
		return nil, err
	}
	if r.chest, err = pick(b.Chest, defaultBones.Chest); err != nil {
		return nil, err
	}
	if r.waist, err = pick(b.Waist, defaultBones.Waist); err != nil {
		return nil, err
	}
	if r.shoulder, err = pick(b.Shoulder, defaultBones.Shoulder); err != nil {
		return nil, err
	}
	if r.arm, err = pick(b.Arm, defaultBones.Arm); err != nil {
		return nil, err
	}
	return &r, nil
}

func matchAny(re *regexp.Regexp, names []string) bool {
	if re == nil {
		return false
	}
	for _, n := range names {
		if re.MatchString(n) {
			return true
		}
	}
	return false
}

func discoverBones(root scene.Node, rules *boneRules) map[BoneKind]*BoneGroup {
	groups := map[BoneKind]*BoneGroup{}
	for k := BoneKind(0); k < numBoneKinds; k++ {
		groups[k] = &BoneGroup{Kind: k}
	}
	var breasts []*scene.Bone
	for _, b := range scene.Bones(root) {
		names := b.Names()
		switch {
		case matchAny(rules.breast, names):
			breasts = append(breasts, b)
		case matchAny(rules.chest, names):
			groups[BoneChest].Bones = append(groups[BoneChest].Bones, b)
		case matchAny(rules.waist, names):
			groups[BoneWaist].Bones = append(groups[BoneWaist].Bones, b)
		case matchAny(rules.shoulder, names):
			groups[BoneShoulder].Bones = append(groups[BoneShoulder].Bones, b)
		case matchAny(rules.arm, names):
			groups[BoneArm].Bones = append(groups[BoneArm].Bones, b)
		}
	}
	if len(breasts) > 0 {
		groups[BoneChest] = &BoneGroup{Kind: BoneChest, Bones: breasts, Uniform: true}
	}
	return groups
}
