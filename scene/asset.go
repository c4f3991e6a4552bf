package scene

import "log/slog"

// Asset is a loaded character. Textures painted onto it belong to whoever
// created them, so releasing the asset only drops the graph.
type Asset struct {
	Name string
	Root *Group

	released bool
}

func NewAsset(name string, root *Group) *Asset {
	return &Asset{Name: name, Root: root}
}

// Release drops the graph. Later calls are no-ops.
func (a *Asset) Release() {
	if a == nil || a.released {
		return
	}
	slog.Debug("asset released", "name", a.Name)
	a.Root = nil
	a.released = true
}

func (a *Asset) Released() bool { return a.released }

// Find returns the first node named name.
func (a *Asset) Find(name string) Node {
	var found Node
	if a.Root == nil {
		return nil
	}
	Walk(a.Root, func(n Node) {
		if found == nil && n.Base().Name == name {
			found = n
		}
	})
	return found
}
