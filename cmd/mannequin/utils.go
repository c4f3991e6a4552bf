package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/binzume/mannequin/atlas"
	"github.com/binzume/mannequin/converter"
	"github.com/binzume/mannequin/design"
	"github.com/binzume/mannequin/gltfutil"
	"github.com/binzume/mannequin/profile"
	"github.com/qmuntal/gltf"
)

func loadProfiles(path string) (profile.Set, error) {
	if path == "" {
		return profile.Builtin(), nil
	}
	return profile.Load(path)
}

func loadSession(path string) (*design.Session, error) {
	if path == "" {
		return design.NewSession(design.Male), nil
	}
	return design.Load(path)
}

func assetLoader(profiles profile.Set, dir string) converter.AssetLoader {
	return func(gender design.Gender, version int) (*gltf.Document, *profile.Profile, error) {
		p, err := profiles.Select(string(gender), version)
		if err != nil {
			return nil, nil, err
		}
		if p.Asset == "" {
			return nil, nil, fmt.Errorf("profile %s has no asset file", p.Key)
		}
		path := filepath.Join(dir, p.Asset)
		doc, err := gltfutil.Load(path)
		if err != nil {
			return nil, nil, err
		}
		if err := gltfutil.ToSingleFile(doc, filepath.Dir(path)); err != nil {
			return nil, nil, err
		}
		return doc, p, nil
	}
}

type configurator interface {
	Export(w io.Writer) error
	Compositor() *atlas.Compositor
}

type outputs struct {
	glb    string
	atlas  string
	slices string
}

// write exports the configured model and the requested atlas images.
func (o *outputs) write(conv configurator) error {
	f, err := os.Create(o.glb)
	if err != nil {
		return err
	}
	if err := conv.Export(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("exported", "file", o.glb)

	if o.atlas == "" && o.slices == "" {
		return nil
	}
	img := conv.Compositor().Image()
	if o.atlas != "" {
		if err := atlas.Save(img, o.atlas); err != nil {
			return err
		}
		slog.Info("atlas written", "file", o.atlas, "webp", isWebP(o.atlas))
	}
	if o.slices != "" {
		if err := os.MkdirAll(o.slices, 0755); err != nil {
			return err
		}
		base := filepath.Base(o.glb)
		paths, err := atlas.WriteSlices(img, o.slices, base[:len(base)-len(filepath.Ext(base))])
		if err != nil {
			return err
		}
		slog.Info("slices written", "files", len(paths), "dir", o.slices)
	}
	return nil
}
