package codec

import "github.com/roach88/assetvariant/internal/native"

// Value is a sealed interface representing a portable override value.
// Only the shapes declared in this file implement it. Values are immutable
// once built and never point back into the object they were read from.
type Value interface {
	portable() // Sealed - only these types implement it
}

// Int is a signed 32-bit integer (integers, enum indices, layer masks, array sizes).
type Int int32

func (Int) portable() {}

// Bool is a boolean.
type Bool bool

func (Bool) portable() {}

// Float is a 32-bit float.
type Float float32

func (Float) portable() {}

// String is a UTF-8 string (strings and single characters).
type String string

func (String) portable() {}

// Vec2 is {x, y}.
type Vec2 struct {
	X, Y float32
}

func (Vec2) portable() {}

// Vec3 is {x, y, z}.
type Vec3 struct {
	X, Y, Z float32
}

func (Vec3) portable() {}

// Vec4 is {x, y, z, w}.
// Colors map r,g,b,a and rectangles map x,y,width,height onto the four slots.
type Vec4 struct {
	X, Y, Z, W float32
}

func (Vec4) portable() {}

// Box is an axis-aligned box given by its center and full size. Integer
// bounds derive their minimum corner from both on decode.
type Box struct {
	Center        Vec3
	ExtentsOrSize Vec3
}

func (Box) portable() {}

// ColorKey is a gradient color key.
type ColorKey struct {
	Color Vec4
	Time  float32
}

// AlphaKey is a gradient alpha key.
type AlphaKey struct {
	Alpha float32
	Time  float32
}

// Gradient is a portable color ramp.
type Gradient struct {
	Mode      int32
	ColorKeys []ColorKey
	AlphaKeys []AlphaKey
}

func (Gradient) portable() {}

// Curve is a portable animation curve.
type Curve struct {
	Keyframes []native.Keyframe
}

func (Curve) portable() {}

// Hash is a 128-bit content hash.
type Hash native.Hash128

func (Hash) portable() {}

// Ref is a stable external identifier of another stored object.
// An empty ID means "no reference".
type Ref struct {
	ID string
}

func (Ref) portable() {}
