// Package paint recolors and textures the skin, shirt and pants materials of
// a character.
package paint

import (
	"log/slog"
	"regexp"

	"github.com/binzume/mannequin/naming"
	"github.com/binzume/mannequin/profile"
	"github.com/binzume/mannequin/rig"
	"github.com/binzume/mannequin/scene"
)

var (
	DefaultShirtColor = scene.MustColor("#b91c1c")
	DefaultPantsColor = scene.MustColor("#444444")

	// OverlayOffset keeps garments from z-fighting with the body underneath.
	OverlayOffset = scene.PolygonOffset{Enabled: true, Factor: -1, Units: -1}

	skinMaterial  = regexp.MustCompile(`(?i)skin|body|human|flesh`)
	placeholder   = regexp.MustCompile(`(?i)^(material([._ ]?[0-9]+)?|default(material)?|lambert[0-9]*|)$`)
	shirtMaterial = regexp.MustCompile(`(?i)shirt|tee|top|upper|cloth|fabric|garment`)
	pantsMaterial = regexp.MustCompile(`(?i)pant|trouser|jean|denim|short|bottom|lower|leg|cloth|fabric|cotton`)
)

type Applicator struct {
	skin   naming.Pattern
	pants  naming.Pattern
	names  profile.Names
	logger *slog.Logger
}

// New builds an applicator using p's name overrides. p may be nil.
func New(p *profile.Profile, logger *slog.Logger) (*Applicator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Applicator{skin: naming.Skin, pants: naming.Pants, logger: logger}
	if p == nil {
		return a, nil
	}
	var err error
	a.names = p.Names
	if a.skin, err = naming.Compile(p.Names.SkinInclude, p.Names.SkinExclude, naming.Skin); err != nil {
		return nil, err
	}
	if a.pants, err = naming.Compile(p.Names.PantsInclude, p.Names.PantsExclude, naming.Pants); err != nil {
		return nil, err
	}
	return a, nil
}

func inList(name string, list []string) bool {
	for _, n := range list {
		if naming.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// IsSkinMaterial decides whether a material on a skin mesh gets recolored.
func (a *Applicator) IsSkinMaterial(name string) bool {
	return inList(name, a.names.SkinMaterials) || skinMaterial.MatchString(name) || placeholder.MatchString(name)
}

func (a *Applicator) isShirtMaterial(name string) bool {
	return inList(name, a.names.ShirtMaterials) || shirtMaterial.MatchString(name)
}

func (a *Applicator) isPantsMaterial(name string) bool {
	return inList(name, a.names.PantsMaterials) || pantsMaterial.MatchString(name)
}

// garmentTargets picks the recognized materials of mats, or all of them when
// none is recognized.
func garmentTargets(mats []*scene.Material, match func(string) bool) []*scene.Material {
	var targets []*scene.Material
	for _, mat := range mats {
		if match(mat.Name) {
			targets = append(targets, mat)
		}
	}
	if len(targets) == 0 {
		return mats
	}
	return targets
}

// SkinMeshes returns the meshes classified as skin.
func (a *Applicator) SkinMeshes(root scene.Node) []*scene.Mesh {
	return rig.FindMeshes(root, a.skin)
}

func (a *Applicator) PantsMeshes(root scene.Node) []*scene.Mesh {
	return rig.FindMeshes(root, a.pants)
}

// Skin recolors skin materials on skin meshes and returns how many changed.
// Materials are cloned per mesh first, so eyes or teeth sharing a material
// elsewhere are never repainted.
func (a *Applicator) Skin(root scene.Node, color scene.Color) int {
	targets := a.SkinMeshes(root)
	if len(targets) == 0 {
		a.logger.Warn("no skin meshes")
		return 0
	}
	n := 0
	for _, m := range targets {
		for _, mat := range m.OwnMaterials() {
			if !a.IsSkinMaterial(mat.Name) {
				continue
			}
			mat.Color = color
			mat.Metalness = 0
			mat.Roughness = 0.65
			mat.Touch()
			n++
		}
	}
	a.logger.Debug("skin applied", "meshes", len(targets), "materials", n, "color", color.Hex())
	return n
}

// Surface is a flat color, or a texture drawn at full fidelity when set.
type Surface struct {
	Color   scene.Color
	Texture *scene.Texture
}

// Shirt applies s to the shirt's garment materials, or to all of its
// materials when none is recognized.
func (a *Applicator) Shirt(shirt *scene.Mesh, s Surface) int {
	if shirt == nil {
		a.logger.Warn("no shirt mesh")
		return 0
	}
	targets := garmentTargets(shirt.OwnMaterials(), a.isShirtMaterial)
	for _, mat := range targets {
		if s.Texture != nil {
			mat.SetMap(s.Texture)
			mat.Color = scene.White
		} else {
			mat.ClearMap()
			mat.Color = s.Color
		}
		mat.Offset = OverlayOffset
	}
	shirt.SyncDeformFlags()
	a.logger.Debug("shirt applied", "mesh", shirt.Name, "materials", len(targets), "textured", s.Texture != nil)
	return len(targets)
}

// Pants applies s with a matte finish to the garment materials of every pants
// mesh, or to all of a mesh's materials when none is recognized. Belts and
// buckles keep their look.
func (a *Applicator) Pants(root scene.Node, s Surface) int {
	meshes := a.PantsMeshes(root)
	if len(meshes) == 0 {
		a.logger.Warn("no pants meshes")
		return 0
	}
	n := 0
	for _, m := range meshes {
		for _, mat := range garmentTargets(m.OwnMaterials(), a.isPantsMaterial) {
			if s.Texture != nil {
				mat.SetMap(s.Texture)
				mat.Color = scene.White
				mat.Metalness = 0
				mat.Roughness = 0.8
			} else {
				mat.ClearMap()
				mat.Color = s.Color
				mat.Metalness = 0.05
				mat.Roughness = 0.85
			}
			mat.Offset = OverlayOffset
			n++
		}
		m.SyncDeformFlags()
	}
	return n
}

// ShowClothes toggles the shirt and pants meshes. Skin is untouched.
func (a *Applicator) ShowClothes(root scene.Node, shirt *scene.Mesh, show bool) {
	if shirt != nil {
		shirt.Visible = show
	}
	for _, m := range a.PantsMeshes(root) {
		m.Visible = show
	}
}
