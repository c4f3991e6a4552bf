package scene

import (
	"image"
	"sync"
)

// Texture is the image a renderer uploads when its version moves. Images are
// published whole with SetImage and never mutated afterwards, so readers on
// other goroutines always see a complete frame.
type Texture struct {
	Name  string
	FlipY bool

	mu       sync.Mutex
	image    image.Image
	version  int
	uploaded int
	disposed bool
}

func NewTexture(name string, img image.Image) *Texture {
	return &Texture{Name: name, image: img, version: 1}
}

// Image returns the current frame, or nil once disposed.
func (t *Texture) Image() image.Image {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.image
}

// SetImage replaces the frame and flags it for upload. Ignored after Dispose.
func (t *Texture) SetImage(img image.Image) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return
	}
	t.image = img
	t.version++
}

func (t *Texture) Version() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}

func (t *Texture) NeedsUpload() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.disposed && t.version != t.uploaded
}

func (t *Texture) MarkUploaded() {
	t.mu.Lock()
	t.uploaded = t.version
	t.mu.Unlock()
}

func (t *Texture) Dispose() {
	t.mu.Lock()
	t.disposed = true
	t.image = nil
	t.mu.Unlock()
}

func (t *Texture) Disposed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disposed
}
