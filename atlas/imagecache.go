package atlas

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blezek/tga"
	_ "github.com/oov/psd"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageCache decodes image layer sources once. Sources are file paths
// relative to Dir, or data URLs.
type ImageCache struct {
	Dir string

	mu     sync.Mutex
	images map[string]*imageInfo
}

type imageInfo struct {
	name string
	img  image.Image
	err  error
}

func NewImageCache(dir string) *ImageCache {
	return &ImageCache{Dir: dir, images: map[string]*imageInfo{}}
}

func (c *ImageCache) get(name string) *imageInfo {
	if t, ok := c.images[name]; ok {
		return t
	}
	t := &imageInfo{name: name}
	c.images[name] = t
	return t
}

// Image returns the decoded image. Failures are cached too.
func (c *ImageCache) Image(src string) (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.get(src)
	if t.img != nil || t.err != nil {
		return t.img, t.err
	}
	t.img, t.err = c.load(src)
	if t.err != nil {
		t.err = fmt.Errorf("atlas: image %q: %w", shortName(src), t.err)
	}
	return t.img, t.err
}

// Forget drops a cached entry so the next lookup reloads it.
func (c *ImageCache) Forget(src string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.images, src)
}

func (c *ImageCache) load(src string) (image.Image, error) {
	if strings.HasPrefix(src, "data:") {
		data, err := decodeDataURL(src)
		if err != nil {
			return nil, err
		}
		return decodeImage(bytes.NewReader(data), "")
	}
	path := src
	if !filepath.IsAbs(path) && c.Dir != "" {
		path = filepath.Join(c.Dir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeImage(f, filepath.Ext(path))
}

func decodeImage(r io.ReadSeeker, ext string) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil && (strings.ToLower(ext) == ".tga" || ext == "") {
		// retry
		r.Seek(0, io.SeekStart)
		if timg, terr := tga.Decode(r); terr == nil {
			return timg, nil
		}
	}
	return img, err
}

func decodeDataURL(s string) ([]byte, error) {
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data url")
	}
	meta, payload := s[len("data:"):comma], s[comma+1:]
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	p, err := url.PathUnescape(payload)
	return []byte(p), err
}

func shortName(src string) string {
	if strings.HasPrefix(src, "data:") && len(src) > 32 {
		return src[:32] + "..."
	}
	return src
}
