// Package profile holds per-asset tuning records: measurement baselines,
// clamp ranges, fallback fractions and name rules.
package profile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v2"
)

var ErrUnknownProfile = errors.New("profile: unknown profile")

//go:embed profiles.yaml
var builtin []byte

type Range struct {
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

// Clamp limits v to the range. NaN maps to Min.
func (r Range) Clamp(v float32) float32 {
	if v != v || v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

type Measurements struct {
	HeightCm    float32 `yaml:"heightCm" json:"heightCm"`
	ChestCm     float32 `yaml:"chestCm" json:"chestCm"`
	WaistCm     float32 `yaml:"waistCm" json:"waistCm"`
	ShouldersCm float32 `yaml:"shouldersCm" json:"shouldersCm"`
	SleeveCm    float32 `yaml:"sleeveCm" json:"sleeveCm"`
}

// RegionDelta is the measurement change (cm) that drives a region handle to 1.
type RegionDelta struct {
	Chest     float32 `yaml:"chest"`
	Waist     float32 `yaml:"waist"`
	Shoulders float32 `yaml:"shoulders"`
	Arms      float32 `yaml:"arms"`
}

// Fallback fractions applied at full intensity when no body-type handle exists.
type Fallback struct {
	Ectomorph      float32 `yaml:"ectomorph"`
	Mesomorph      float32 `yaml:"mesomorph"`
	EndomorphShirt float32 `yaml:"endomorphShirt"`
}

type Garment struct {
	WidthIn     float32 `yaml:"widthIn"`
	LengthIn    float32 `yaml:"lengthIn"`
	SleeveIn    float32 `yaml:"sleeveIn"`
	WidthRange  Range   `yaml:"widthRange"`
	LengthRange Range   `yaml:"lengthRange"`
}

// Names overrides mesh/material classification. Empty fields keep the defaults.
type Names struct {
	SkinMaterials  []string `yaml:"skinMaterials"`
	ShirtMaterials []string `yaml:"shirtMaterials"`
	PantsMaterials []string `yaml:"pantsMaterials"`
	SkinInclude    string   `yaml:"skinInclude"`
	SkinExclude    string   `yaml:"skinExclude"`
	PantsInclude   string   `yaml:"pantsInclude"`
	PantsExclude   string   `yaml:"pantsExclude"`
}

// Bones are regular expressions over bone names and humanoid aliases.
type Bones struct {
	Chest    string `yaml:"chest"`
	Breast   string `yaml:"breast"`
	Waist    string `yaml:"waist"`
	Shoulder string `yaml:"shoulder"`
	Arm      string `yaml:"arm"`
}

type Channel struct {
	Names    []string `yaml:"names"`
	Keywords string   `yaml:"keywords"`
}

type Profile struct {
	Key          string             `yaml:"-"`
	Gender       string             `yaml:"gender"`
	Version      int                `yaml:"version"`
	Asset        string             `yaml:"asset"`
	Baseline     Measurements       `yaml:"baseline"`
	HeightBaseCm float32            `yaml:"heightBaseCm"`
	HeightRange  Range              `yaml:"heightRange"`
	HeightClamp  Range              `yaml:"heightClamp"`
	RegionDelta  RegionDelta        `yaml:"regionDelta"`
	BoneClamp    Range              `yaml:"boneClamp"`
	Fallback     Fallback           `yaml:"fallback"`
	Garment      Garment            `yaml:"garment"`
	Names        Names              `yaml:"names"`
	Bones        Bones              `yaml:"bones"`
	Channels     map[string]Channel `yaml:"channels"`
}

// Set is a collection of profiles keyed by asset key.
type Set map[string]*Profile

// Parse decodes a YAML profile set.
func Parse(r io.Reader) (Set, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	for key, p := range set {
		if p == nil {
			delete(set, key)
			continue
		}
		p.Key = key
		p.fillDefaults()
	}
	return set, nil
}

// Builtin returns the embedded profile set.
func Builtin() Set {
	set, err := Parse(bytes.NewReader(builtin))
	if err != nil {
		panic(err)
	}
	return set
}

// Load reads profiles from path and overlays them on the built-in set.
func Load(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	defer f.Close()
	set, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("profile: parse %s: %w", path, err)
	}
	merged := Builtin()
	for k, p := range set {
		merged[k] = p
	}
	return merged, nil
}

// Get returns the profile stored under key.
func (s Set) Get(key string) (*Profile, error) {
	if p, ok := s[key]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, key)
}

// Select picks the profile for gender at version, falling back to the
// highest version not above it.
func (s Set) Select(gender string, version int) (*Profile, error) {
	var best *Profile
	for _, key := range s.Keys() {
		p := s[key]
		if p.Gender != gender || p.Version > version {
			continue
		}
		if best == nil || p.Version > best.Version {
			best = p
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: gender %q", ErrUnknownProfile, gender)
	}
	return best, nil
}

func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Default is a generic profile used when none is configured.
func Default() *Profile {
	p := &Profile{
		Key:      "default",
		Gender:   "male",
		Baseline: Measurements{175, 96, 82, 46, 60},
	}
	p.fillDefaults()
	return p
}

func (p *Profile) fillDefaults() {
	if p.Version == 0 {
		p.Version = 1
	}
	if p.HeightBaseCm == 0 {
		p.HeightBaseCm = 175
	}
	if p.HeightRange == (Range{}) {
		p.HeightRange = Range{130, 200}
	}
	if p.HeightClamp == (Range{}) {
		p.HeightClamp = p.HeightRange.Scale(1 / p.HeightBaseCm)
	}
	if p.RegionDelta == (RegionDelta{}) {
		p.RegionDelta = RegionDelta{Chest: 25, Waist: 25, Shoulders: 12, Arms: 8}
	}
	if p.BoneClamp == (Range{}) {
		p.BoneClamp = Range{0.85, 1.15}
	}
	if p.Fallback == (Fallback{}) {
		p.Fallback = Fallback{Ectomorph: 0.15, Mesomorph: 0.12, EndomorphShirt: 0.12}
	}
	if p.Garment.WidthIn == 0 {
		p.Garment.WidthIn = 20
	}
	if p.Garment.LengthIn == 0 {
		p.Garment.LengthIn = 28
	}
	if p.Garment.SleeveIn == 0 {
		p.Garment.SleeveIn = 8
	}
	if p.Garment.WidthRange == (Range{}) {
		p.Garment.WidthRange = Range{17, 24}
	}
	if p.Garment.LengthRange == (Range{}) {
		p.Garment.LengthRange = Range{24, 33}
	}
}

func (r Range) Scale(f float32) Range {
	return Range{r.Min * f, r.Max * f}
}
