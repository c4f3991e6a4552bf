package rig

import (
	"regexp"

	"github.com/binzume/mannequin/naming"
	"github.com/binzume/mannequin/profile"
)

// Category is a semantic blend-shape concept.
type Category int

const (
	BodyTypeEndo Category = iota
	BodyTypeEcto
	BodyTypeMeso
	RegionChest
	RegionWaist
	RegionShoulder
	RegionArms
	GarmentWidth
	GarmentHeight
	numCategories
)

var categoryNames = [...]string{
	BodyTypeEndo:   "endomorph",
	BodyTypeEcto:   "ectomorph",
	BodyTypeMeso:   "mesomorph",
	RegionChest:    "chest",
	RegionWaist:    "waist",
	RegionShoulder: "shoulder",
	RegionArms:     "arms",
	GarmentWidth:   "width",
	GarmentHeight:  "height",
}

func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return "unknown"
	}
	return categoryNames[c]
}

// Garment categories are only discovered on the shirt mesh.
func (c Category) Garment() bool {
	return c == GarmentWidth || c == GarmentHeight
}

func (c Category) BodyType() bool {
	return c <= BodyTypeMeso
}

// Categories lists all categories in discovery priority order.
func Categories() []Category {
	cs := make([]Category, numCategories)
	for i := range cs {
		cs[i] = Category(i)
	}
	return cs
}

// Rules maps each category to its channel names and fallback keywords.
type Rules map[Category]naming.ChannelRule

func DefaultRules() Rules {
	kw := func(s string) *regexp.Regexp { return regexp.MustCompile("(?i)" + s) }
	return Rules{
		BodyTypeEndo:   {Names: []string{"endomorph"}, Keywords: kw(`belly|waist|abdomen|fat`)},
		BodyTypeEcto:   {Names: []string{"ectomorph"}, Keywords: kw(`slim|thin|skinny|lean`)},
		BodyTypeMeso:   {Names: []string{"mesomorph"}, Keywords: kw(`muscle|muscular|athletic|buff`)},
		RegionChest:    {Names: []string{"macrodetails-chest", "chest"}, Keywords: kw(`chest|bust|breast|pec`)},
		RegionWaist:    {Names: []string{"macrodetails-waist", "waist"}, Keywords: kw(`waist|belly|stomach`)},
		RegionShoulder: {Names: []string{"macrodetails-shoulder", "shoulder", "shoulders"}, Keywords: kw(`shoulder|deltoid`)},
		RegionArms:     {Names: []string{"macrodetails-arms", "arms"}, Keywords: kw(`arm|bicep|tricep`)},
		GarmentWidth:   {Names: []string{"width", "shirt_width"}, Keywords: kw(`width|wide|girth`)},
		GarmentHeight:  {Names: []string{"height", "length", "shirt_length"}, Keywords: kw(`height|length|long`)},
	}
}

// RulesFor applies the profile's channel overrides to the defaults.
func RulesFor(p *profile.Profile) (Rules, error) {
	rules := DefaultRules()
	if p == nil {
		return rules, nil
	}
	for _, c := range Categories() {
		o, ok := p.Channels[c.String()]
		if !ok {
			continue
		}
		r := rules[c]
		if len(o.Names) > 0 {
			r.Names = o.Names
		}
		if o.Keywords != "" {
			re, err := regexp.Compile("(?i)" + o.Keywords)
			if err != nil {
				return nil, err
			}
			r.Keywords = re
		}
		rules[c] = r
	}
	return rules, nil
}
