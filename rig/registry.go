// Package rig discovers deformation handles on a loaded character: blend-shape
// channels per semantic category and bone groups used as scaling fallbacks.
package rig

import (
	"log/slog"

	"github.com/binzume/mannequin/naming"
	"github.com/binzume/mannequin/profile"
	"github.com/binzume/mannequin/scene"
)

// Registry is valid for one asset. Discard it when the asset is replaced.
type Registry struct {
	Asset *scene.Asset
	Body  *scene.Mesh
	Shirt *scene.Mesh
	// Hip is the node height scaling applies to. Nil means the asset root.
	Hip scene.Node

	handles map[Category][]Handle
	bones   map[BoneKind]*BoneGroup
	logger  *slog.Logger
}

// Discover scans asset once and zeroes every matched handle.
func Discover(asset *scene.Asset, p *profile.Profile, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		Asset:   asset,
		handles: map[Category][]Handle{},
		bones:   map[BoneKind]*BoneGroup{},
		logger:  logger,
	}
	if asset == nil || asset.Root == nil {
		return r
	}
	rules, err := RulesFor(p)
	if err != nil {
		logger.Warn("invalid channel override, using defaults", "err", err)
		rules = DefaultRules()
	}
	var bp profile.Bones
	if p != nil {
		bp = p.Bones
	}
	br, err := compileBones(bp)
	if err != nil {
		logger.Warn("invalid bone pattern, using defaults", "err", err)
		br, _ = compileBones(profile.Bones{})
	}

	root := asset.Root
	r.Body = FindBody(root)
	r.Shirt = FindShirt(root)
	r.Hip = FindHip(root)

	for _, m := range scene.Meshes(root) {
		if len(m.Influences) == 0 {
			continue
		}
		r.discoverChannels(m, rules, m == r.Shirt)
	}
	r.bones = discoverBones(root, br)

	for _, h := range r.all() {
		h.Set(0)
	}
	logger.Info("handles discovered", "asset", asset.Name, "handles", len(r.all()),
		"body", meshName(r.Body), "shirt", meshName(r.Shirt), "hip", nodeName(r.Hip))
	return r
}

// discoverChannels resolves at most one channel per category on m. Name
// stages run for every category before any keyword fallback, so a keyword
// never steals a channel another category names exactly.
func (r *Registry) discoverChannels(m *scene.Mesh, rules Rules, shirt bool) {
	claimed := map[int]bool{}
	found := map[Category]bool{}
	add := func(c Category, idx int, stage naming.Stage) {
		claimed[idx] = true
		found[c] = true
		h := Handle{Mesh: m, Index: idx, Name: m.TargetNames[idx], Stage: stage}
		r.handles[c] = append(r.handles[c], h)
		r.logger.Debug("handle", "category", c, "mesh", m.Name, "channel", h.Name, "stage", stage)
	}
	for _, keywords := range []bool{false, true} {
		for _, c := range Categories() {
			if found[c] || (c.Garment() && !shirt) {
				continue
			}
			rule := naming.ChannelRule{Names: rules[c].Names}
			if keywords {
				rule = naming.ChannelRule{Keywords: rules[c].Keywords}
			}
			if idx, stage := naming.ResolveChannel(m.TargetNames, rule, claimed); idx >= 0 {
				add(c, idx, stage)
			}
		}
	}
}

func (r *Registry) all() []Handle {
	var hs []Handle
	for _, c := range Categories() {
		hs = append(hs, r.handles[c]...)
	}
	return hs
}

// Handles returns the handles of c. An empty result is expected on many assets.
func (r *Registry) Handles(c Category) []Handle {
	return r.handles[c]
}

func (r *Registry) Has(c Category) bool {
	return len(r.handles[c]) > 0
}

// SetInfluence drives every handle of c and returns how many were set.
func (r *Registry) SetInfluence(c Category, v float32) int {
	hs := r.handles[c]
	if len(hs) == 0 && v != 0 {
		r.logger.Warn("no handles for category", "category", c, "intensity", v)
	}
	for _, h := range hs {
		h.Set(v)
	}
	return len(hs)
}

// BoneGroup never returns nil; check Empty.
func (r *Registry) BoneGroup(k BoneKind) *BoneGroup {
	if g, ok := r.bones[k]; ok {
		return g
	}
	return &BoneGroup{Kind: k}
}

// Root is the asset root group.
func (r *Registry) Root() scene.Node {
	if r.Asset == nil || r.Asset.Root == nil {
		return nil
	}
	return r.Asset.Root
}

// HeightTarget is the hip-like node, or the root when none exists.
func (r *Registry) HeightTarget() scene.Node {
	if r.Hip != nil {
		return r.Hip
	}
	return r.Root()
}

func meshName(m *scene.Mesh) string {
	if m == nil {
		return ""
	}
	return m.Name
}

func nodeName(n scene.Node) string {
	if n == nil {
		return ""
	}
	return n.Base().Name
}
