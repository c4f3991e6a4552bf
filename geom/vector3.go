package geom

import "math"

type Element = float32

// Vector3 is used for node scales. Scale components multiply per axis.
type Vector3 struct {
	X Element
	Y Element
	Z Element
}

var One = Vector3{X: 1, Y: 1, Z: 1}

func NewVector3(x, y, z float32) *Vector3 {
	return &Vector3{X: x, Y: y, Z: z}
}

func NewVector3FromArray(arr [3]Element) *Vector3 {
	return &Vector3{X: arr[0], Y: arr[1], Z: arr[2]}
}

func Uniform(s Element) Vector3 {
	return Vector3{X: s, Y: s, Z: s}
}

func (v Vector3) Add(v2 Vector3) Vector3 {
	return Vector3{X: v.X + v2.X, Y: v.Y + v2.Y, Z: v.Z + v2.Z}
}

func (v Vector3) Sub(v2 Vector3) Vector3 {
	return Vector3{X: v.X - v2.X, Y: v.Y - v2.Y, Z: v.Z - v2.Z}
}

func (v Vector3) Scale(s Element) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Mul multiplies component-wise.
func (v Vector3) Mul(v2 Vector3) Vector3 {
	return Vector3{X: v.X * v2.X, Y: v.Y * v2.Y, Z: v.Z * v2.Z}
}

func (v Vector3) Len() Element {
	return Element(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// IsZero reports whether all components are zero. glTF nodes decoded without a
// "scale" property may carry a zero vector instead of the (1,1,1) default.
func (v Vector3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

func (v Vector3) ToArray() [3]Element {
	return [3]Element{v.X, v.Y, v.Z}
}

// ApproxEqual compares with an absolute tolerance.
func (v Vector3) ApproxEqual(v2 Vector3, eps Element) bool {
	d := v.Sub(v2)
	return abs(d.X) <= eps && abs(d.Y) <= eps && abs(d.Z) <= eps
}

func abs(x Element) Element {
	if x < 0 {
		return -x
	}
	return x
}
