package rig

import (
	"regexp"

	"github.com/binzume/mannequin/naming"
	"github.com/binzume/mannequin/scene"
)

var (
	hipBone  = regexp.MustCompile(`(?i)hips?|pelvis|root`)
	hipNames = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^hips?$`),
		regexp.MustCompile(`(?i)pelvis`),
		regexp.MustCompile(`(?i)mixamorig[:]hips`),
		regexp.MustCompile(`(?i)^root$`),
		regexp.MustCompile(`(?i)spine_?0`),
	}
)

// FindMesh returns the first mesh whose own name matches re.
func FindMesh(root scene.Node, re *regexp.Regexp) *scene.Mesh {
	for _, m := range scene.Meshes(root) {
		if re.MatchString(m.Name) {
			return m
		}
	}
	return nil
}

// FindMeshes returns meshes whose name-with-materials label matches p.
func FindMeshes(root scene.Node, p naming.Pattern) []*scene.Mesh {
	var hits []*scene.Mesh
	for _, m := range scene.Meshes(root) {
		if p.Match(naming.Label(m.Name, m.MaterialNames())) {
			hits = append(hits, m)
		}
	}
	return hits
}

// FindShirt tries the exact t-shirt name, then the looser upper/top pattern.
func FindShirt(root scene.Node) *scene.Mesh {
	if m := FindMesh(root, naming.ShirtExact); m != nil {
		return m
	}
	return FindMesh(root, naming.ShirtLoose)
}

// FindBody returns the body-named mesh, else the one with most triangles.
func FindBody(root scene.Node) *scene.Mesh {
	if m := FindMesh(root, naming.BodyMesh); m != nil {
		return m
	}
	var best *scene.Mesh
	for _, m := range scene.Meshes(root) {
		if best == nil || m.Geometry.TriangleCount > best.Geometry.TriangleCount {
			best = m
		}
	}
	return best
}

// FindHip returns the first hip-like node in traversal order, or nil.
// The root itself is not considered.
func FindHip(root scene.Node) scene.Node {
	var hit scene.Node
	scene.Walk(root, func(n scene.Node) {
		if hit != nil || n == root {
			return
		}
		for _, name := range n.Base().Names() {
			if n.Kind() == scene.KindBone && hipBone.MatchString(name) {
				hit = n
				return
			}
			for _, re := range hipNames {
				if re.MatchString(name) {
					hit = n
					return
				}
			}
		}
	})
	return hit
}
