package rig

import (
	"github.com/binzume/mannequin/naming"
	"github.com/binzume/mannequin/scene"
	"github.com/chewxy/math32"
)

// Handle is one blend-shape channel's influence slot on one mesh.
type Handle struct {
	Mesh  *scene.Mesh
	Index int
	Name  string
	Stage naming.Stage
}

func (h Handle) OwnerMeshName() string { return h.Mesh.Name }

func (h Handle) Influence() float32 { return h.Mesh.Influences[h.Index] }

// Set writes v clamped to [-1, 1]. NaN writes 0.
func (h Handle) Set(v float32) {
	if math32.IsNaN(v) {
		v = 0
	}
	h.Mesh.Influences[h.Index] = math32.Max(-1, math32.Min(1, v))
}
