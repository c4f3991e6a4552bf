package geom

// Vector2 holds a texture coordinate.
type Vector2 struct {
	X Element
	Y Element
}

func NewVector2(x, y float32) *Vector2 {
	return &Vector2{X: x, Y: y}
}

func (v Vector2) Add(v2 Vector2) Vector2 {
	return Vector2{X: v.X + v2.X, Y: v.Y + v2.Y}
}

func (v Vector2) Sub(v2 Vector2) Vector2 {
	return Vector2{X: v.X - v2.X, Y: v.Y - v2.Y}
}

// Bounds2 is an axis aligned box in UV space. An empty box has Min > Max.
type Bounds2 struct {
	Min Vector2
	Max Vector2
}

func EmptyBounds2() Bounds2 {
	return Bounds2{Min: Vector2{1, 1}, Max: Vector2{0, 0}}
}

func (b *Bounds2) Expand(p Vector2) {
	if p.X < b.Min.X {
		b.Min.X = p.X
	}
	if p.Y < b.Min.Y {
		b.Min.Y = p.Y
	}
	if p.X > b.Max.X {
		b.Max.X = p.X
	}
	if p.Y > b.Max.Y {
		b.Max.Y = p.Y
	}
}

func (b Bounds2) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y
}

func (b Bounds2) Size() Vector2 {
	return b.Max.Sub(b.Min)
}
