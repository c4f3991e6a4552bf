package rig

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/binzume/mannequin/scene"
)

type MeshMorphs struct {
	Mesh   string
	Morphs []string
}

type Colorable struct {
	Mesh     string
	Material string
}

type MeshSummary struct {
	Name          string
	Type          string
	Triangles     int
	HasMorphs     bool
	MaterialCount int
}

// Report is the editable-parts overview of an asset.
type Report struct {
	MorphTargets []MeshMorphs
	Bones        []string
	Colorables   []Colorable
	Meshes       []MeshSummary
}

func unnamed(s string) string {
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func Inspect(root scene.Node) Report {
	var r Report
	scene.Walk(root, func(n scene.Node) {
		switch n := n.(type) {
		case *scene.Bone:
			r.Bones = append(r.Bones, unnamed(n.Name))
		case *scene.Mesh:
			typ := "Mesh"
			if n.Skinned {
				typ = "SkinnedMesh"
			}
			r.Meshes = append(r.Meshes, MeshSummary{
				Name:          unnamed(n.Name),
				Type:          typ,
				Triangles:     n.Geometry.TriangleCount,
				HasMorphs:     len(n.TargetNames) > 0,
				MaterialCount: len(n.Materials),
			})
			if len(n.TargetNames) > 0 {
				r.MorphTargets = append(r.MorphTargets, MeshMorphs{Mesh: unnamed(n.Name), Morphs: n.TargetNames})
			}
			for _, m := range n.Materials {
				r.Colorables = append(r.Colorables, Colorable{Mesh: unnamed(n.Name), Material: m.Name})
			}
		}
	})
	return r
}

// WriteTo prints the report as aligned tables.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	tw := tabwriter.NewWriter(cw, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MESH\tTYPE\tTRIANGLES\tMORPHS\tMATERIALS")
	for _, m := range r.Meshes {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%v\t%d\n", m.Name, m.Type, m.Triangles, m.HasMorphs, m.MaterialCount)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "MESH\tMORPH TARGET")
	for _, m := range r.MorphTargets {
		for _, name := range m.Morphs {
			fmt.Fprintf(tw, "%s\t%s\n", m.Mesh, name)
		}
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "MESH\tMATERIAL")
	for _, c := range r.Colorables {
		fmt.Fprintf(tw, "%s\t%s\n", c.Mesh, c.Material)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "BONE")
	for _, b := range r.Bones {
		fmt.Fprintln(tw, b)
	}
	err := tw.Flush()
	return cw.n, err
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
