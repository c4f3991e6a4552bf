package atlas

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/binzume/mannequin/uvlayout"
)

type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
)

// FormatOf picks the encoder from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".webp":
		return WebP, nil
	}
	return "", fmt.Errorf("atlas: unsupported image type %q", filepath.Ext(path))
}

func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case PNG:
		return png.Encode(w, img)
	case WebP:
		return nativewebp.Encode(w, img, nil)
	}
	return fmt.Errorf("atlas: unsupported format %q", format)
}

// Save writes img to path in the format named by its extension.
func Save(img image.Image, path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("atlas: encode %s: %w", path, err)
	}
	return f.Close()
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Slices cuts the atlas into its four part quadrants.
func Slices(img image.Image) map[uvlayout.Part]image.Image {
	slices := map[uvlayout.Part]image.Image{}
	si, ok := img.(subImager)
	for _, part := range uvlayout.Parts {
		r := Quadrant(part).Add(img.Bounds().Min)
		if ok {
			slices[part] = si.SubImage(r)
			continue
		}
		dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
		for y := 0; y < r.Dy(); y++ {
			for x := 0; x < r.Dx(); x++ {
				dst.Set(x, y, img.At(r.Min.X+x, r.Min.Y+y))
			}
		}
		slices[part] = dst
	}
	return slices
}

// WriteSlices saves one PNG per part as <prefix>-<part>.png in dir and
// returns the written paths.
func WriteSlices(img image.Image, dir, prefix string) ([]string, error) {
	var paths []string
	slices := Slices(img)
	for _, part := range uvlayout.Parts {
		path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", prefix, part))
		if err := Save(slices[part], path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
