package vrm

// https://vrm.dev/
// https://github.com/vrm-c/vrm-specification/blob/master/specification/0.0/README.md
// https://github.com/vrm-c/vrm-specification/blob/master/specification/VRMC_vrm-1.0/README.md

import (
	"encoding/json"
	"sync"

	"github.com/qmuntal/gltf"
)

const (
	ExtensionName   = "VRM"
	ExtensionNameV1 = "VRMC_vrm"
)

var registerOnce sync.Once

// Register installs the VRM 0.x and 1.0 extension decoders.
func Register() {
	registerOnce.Do(func() {
		gltf.RegisterExtension(ExtensionName, Unmarshal)
		gltf.RegisterExtension(ExtensionNameV1, UnmarshalV1)
	})
}

type Metadata struct {
	Title   string `json:"title"`
	Version string `json:"version"`
	Author  string `json:"author"`
}

type Bone struct {
	Bone string `json:"bone"`
	Node int    `json:"node"`
}

type Humanoid struct {
	Bones []*Bone `json:"humanBones"`
}

type BlendShapeBind struct {
	Mesh   int     `json:"mesh"`
	Index  int     `json:"index"`
	Weight float32 `json:"weight"`
}

type BlendShapeGroup struct {
	Name       string            `json:"name"`
	PresetName string            `json:"presetName"`
	Binds      []*BlendShapeBind `json:"binds"`
}

type BlendShapeMaster struct {
	Groups []*BlendShapeGroup `json:"blendShapeGroups"`
}

type VRM struct {
	Meta             Metadata         `json:"meta"`
	Humanoid         Humanoid         `json:"humanoid"`
	BlendShapeMaster BlendShapeMaster `json:"blendShapeMaster"`
	ExporterVersion  string           `json:"exporterVersion"`
}

func Unmarshal(data []byte) (interface{}, error) {
	var ext VRM
	if err := json.Unmarshal(data, &ext); err != nil {
		return nil, err
	}
	return &ext, nil
}

type HumanBoneV1 struct {
	Node int `json:"node"`
}

type VRMV1 struct {
	SpecVersion string `json:"specVersion"`
	Humanoid    struct {
		HumanBones map[string]HumanBoneV1 `json:"humanBones"`
	} `json:"humanoid"`
}

func UnmarshalV1(data []byte) (interface{}, error) {
	var ext VRMV1
	if err := json.Unmarshal(data, &ext); err != nil {
		return nil, err
	}
	return &ext, nil
}

func decode(doc *gltf.Document, name string, unmarshal func([]byte) (interface{}, error)) interface{} {
	if doc == nil || doc.Extensions == nil {
		return nil
	}
	switch ext := doc.Extensions[name].(type) {
	case json.RawMessage:
		v, err := unmarshal(ext)
		if err != nil {
			return nil
		}
		return v
	case []byte:
		v, err := unmarshal(ext)
		if err != nil {
			return nil
		}
		return v
	default:
		return ext
	}
}

// Ext returns the decoded VRM 0.x extension or nil.
func Ext(doc *gltf.Document) *VRM {
	v, _ := decode(doc, ExtensionName, Unmarshal).(*VRM)
	return v
}

// ExtV1 returns the decoded VRMC_vrm extension or nil.
func ExtV1(doc *gltf.Document) *VRMV1 {
	v, _ := decode(doc, ExtensionNameV1, UnmarshalV1).(*VRMV1)
	return v
}

// HumanoidBones maps node index to humanoid bone name ("hips", "chest", ...).
func HumanoidBones(doc *gltf.Document) map[uint32]string {
	bones := map[uint32]string{}
	if ext := Ext(doc); ext != nil {
		for _, b := range ext.Humanoid.Bones {
			if b != nil && b.Node >= 0 && b.Node < len(doc.Nodes) {
				bones[uint32(b.Node)] = b.Bone
			}
		}
	}
	if ext := ExtV1(doc); ext != nil {
		for name, b := range ext.Humanoid.HumanBones {
			if b.Node >= 0 && b.Node < len(doc.Nodes) {
				bones[uint32(b.Node)] = name
			}
		}
	}
	return bones
}

// BlendShapeNames returns names of morph targets bound by single-bind blend
// shape groups, keyed by mesh index then target index.
func BlendShapeNames(doc *gltf.Document) map[int]map[int]string {
	names := map[int]map[int]string{}
	ext := Ext(doc)
	if ext == nil {
		return names
	}
	for _, g := range ext.BlendShapeMaster.Groups {
		if g == nil || len(g.Binds) != 1 || g.Name == "" {
			continue
		}
		b := g.Binds[0]
		if names[b.Mesh] == nil {
			names[b.Mesh] = map[int]string{}
		}
		names[b.Mesh][b.Index] = g.Name
	}
	return names
}
