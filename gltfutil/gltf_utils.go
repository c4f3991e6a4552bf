package gltfutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"io/ioutil"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/mannequin/vrm"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Load opens .glb, .gltf and .vrm files. The VRM extension is decoded when present.
func Load(path string) (*gltf.Document, error) {
	vrm.Register()
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltfutil: open %s: %w", path, err)
	}
	return doc, nil
}

// Decode reads a binary or JSON glTF stream.
func Decode(r io.Reader) (*gltf.Document, error) {
	vrm.Register()
	var doc gltf.Document
	if err := gltf.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("gltfutil: decode: %w", err)
	}
	return &doc, nil
}

// Encode writes doc as GLB.
func Encode(w io.Writer, doc *gltf.Document) error {
	e := gltf.NewEncoder(w)
	e.AsBinary = true
	return e.Encode(doc)
}

// TargetNames returns the morph target names of mesh, read from
// extras.targetNames (Blender, three.js and most exporters).
func TargetNames(mesh *gltf.Mesh) []string {
	if mesh == nil {
		return nil
	}
	var names []string
	switch extras := mesh.Extras.(type) {
	case map[string]interface{}:
		names = stringList(extras["targetNames"])
	case json.RawMessage:
		var m struct {
			TargetNames []string `json:"targetNames"`
		}
		if json.Unmarshal(extras, &m) == nil {
			names = m.TargetNames
		}
	}
	return names
}

func stringList(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		names := make([]string, len(list))
		for i, n := range list {
			if s, ok := n.(string); ok {
				names[i] = s
			}
		}
		return names
	}
	return nil
}

// TargetCount is the number of morph targets, the largest count of any primitive.
func TargetCount(mesh *gltf.Mesh) int {
	n := 0
	if mesh == nil {
		return 0
	}
	for _, p := range mesh.Primitives {
		if len(p.Targets) > n {
			n = len(p.Targets)
		}
	}
	return n
}

// ReadUVs concatenates TEXCOORD_0 of all primitives. A nil result means the
// mesh has no UV attribute.
func ReadUVs(doc *gltf.Document, mesh *gltf.Mesh) ([][2]float32, error) {
	var uvs [][2]float32
	for _, p := range mesh.Primitives {
		a, ok := p.Attributes["TEXCOORD_0"]
		if !ok || int(a) >= len(doc.Accessors) {
			continue
		}
		t, err := modeler.ReadTextureCoord(doc, doc.Accessors[a], [][2]float32{})
		if err != nil {
			return nil, err
		}
		uvs = append(uvs, t...)
	}
	return uvs, nil
}

// TriangleCount counts triangles from indices, or from positions for
// non-indexed primitives.
func TriangleCount(doc *gltf.Document, mesh *gltf.Mesh) int {
	n := 0
	for _, p := range mesh.Primitives {
		if p.Indices != nil && int(*p.Indices) < len(doc.Accessors) {
			n += int(doc.Accessors[*p.Indices].Count) / 3
		} else if a, ok := p.Attributes["POSITION"]; ok && int(a) < len(doc.Accessors) {
			n += int(doc.Accessors[a].Count) / 3
		}
	}
	return n
}

// HasMorphNormals reports whether any morph target carries NORMAL deltas.
func HasMorphNormals(mesh *gltf.Mesh) bool {
	for _, p := range mesh.Primitives {
		for _, t := range p.Targets {
			if _, ok := t["NORMAL"]; ok {
				return true
			}
		}
	}
	return false
}

// AddImageTexture embeds img as PNG and returns the new texture index.
func AddImageTexture(doc *gltf.Document, name string, img image.Image) (uint32, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return 0, err
	}
	if len(doc.Buffers) == 0 {
		doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	}
	idx, err := modeler.WriteImage(doc, name, "image/png", &buf)
	if err != nil {
		return 0, err
	}
	doc.Buffers[0].ByteLength = uint32(len(doc.Buffers[0].Data)) // avoid AddImage bug
	if len(doc.Samplers) == 0 {
		doc.Samplers = append(doc.Samplers, &gltf.Sampler{})
	}
	doc.Textures = append(doc.Textures, &gltf.Texture{Name: name, Sampler: gltf.Index(0), Source: gltf.Index(idx)})
	return uint32(len(doc.Textures) - 1), nil
}

// UseExtension adds name to extensionsUsed once.
func UseExtension(doc *gltf.Document, name string) {
	for _, ex := range doc.ExtensionsUsed {
		if ex == name {
			return
		}
	}
	doc.ExtensionsUsed = append(doc.ExtensionsUsed, name)
}

// ToSingleFile embeds images referenced by relative URI so the document can be
// written as one GLB.
func ToSingleFile(doc *gltf.Document, srcDir string) error {
	for _, b := range doc.Buffers {
		b.URI = ""
	}
	for _, m := range doc.Images {
		if m.BufferView == nil && m.URI != "" && !strings.HasPrefix(m.URI, "data:") {
			f, err := os.Open(filepath.Join(srcDir, m.URI))
			if err != nil {
				slog.Warn("image not embedded", "uri", m.URI, "err", err)
				continue
			}
			buf, err := ioutil.ReadAll(f)
			f.Close()
			if err != nil {
				slog.Warn("image not embedded", "uri", m.URI, "err", err)
				continue
			}
			if m.MimeType == "" {
				if strings.HasSuffix(strings.ToLower(m.URI), ".png") {
					m.MimeType = "image/png"
				} else {
					m.MimeType = "image/jpeg"
				}
			}
			if len(doc.Buffers) == 0 {
				doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
			}
			m.BufferView = gltf.Index(modeler.WriteBufferView(doc, gltf.TargetNone, buf))
			m.URI = ""
		}
	}
	return nil
}
