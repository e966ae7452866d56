package native

import (
	"encoding/hex"
	"fmt"
	"slices"
)

// Vector2 is a two-component float vector.
type Vector2 struct {
	X, Y float32
}

// Vector2Int is a two-component integer vector.
type Vector2Int struct {
	X, Y int32
}

// Vector3 is a three-component float vector.
type Vector3 struct {
	X, Y, Z float32
}

// Vector3Int is a three-component integer vector.
type Vector3Int struct {
	X, Y, Z int32
}

// Vector4 is a four-component float vector.
type Vector4 struct {
	X, Y, Z, W float32
}

// Color is a linear RGBA color.
type Color struct {
	R, G, B, A float32
}

// Quaternion is a rotation stored as x, y, z, w.
type Quaternion struct {
	X, Y, Z, W float32
}

// Rect is a float rectangle anchored at its minimum corner.
type Rect struct {
	X, Y, Width, Height float32
}

// RectInt is an integer rectangle anchored at its minimum corner.
type RectInt struct {
	X, Y, Width, Height int32
}

// Bounds is a float axis-aligned box described by its center and half-size.
type Bounds struct {
	Center  Vector3
	Extents Vector3
}

// Size returns the full size of the box.
func (b Bounds) Size() Vector3 {
	return Vector3{X: b.Extents.X * 2, Y: b.Extents.Y * 2, Z: b.Extents.Z * 2}
}

// BoundsInt is an integer axis-aligned box described by its minimum corner and size.
type BoundsInt struct {
	Position Vector3Int
	Size     Vector3Int
}

// Center returns the middle of the box. It falls on a half unit when a size
// component is odd.
func (b BoundsInt) Center() Vector3 {
	return Vector3{
		X: float32(b.Position.X) + float32(b.Size.X)/2,
		Y: float32(b.Position.Y) + float32(b.Size.Y)/2,
		Z: float32(b.Position.Z) + float32(b.Size.Z)/2,
	}
}

// GradientColorKey places a color at a normalized time.
type GradientColorKey struct {
	Color Color
	Time  float32
}

// GradientAlphaKey places an alpha value at a normalized time.
type GradientAlphaKey struct {
	Alpha float32
	Time  float32
}

// Gradient is a color ramp. Mode is the host's blend mode index.
type Gradient struct {
	Mode      int32
	ColorKeys []GradientColorKey
	AlphaKeys []GradientAlphaKey
}

// Keyframe is one key of an animation curve.
// TangentMode is the host's internal tangent classification and is opaque here.
type Keyframe struct {
	Time         float32
	Value        float32
	InTangent    float32
	OutTangent   float32
	TangentMode  int32
	WeightedMode int32
	InWeight     float32
	OutWeight    float32
}

// AnimationCurve is an ordered list of keyframes.
type AnimationCurve struct {
	Keys []Keyframe
}

// Hash128 is a 128-bit content hash.
type Hash128 [16]byte

// String returns the hash as 32 lowercase hex characters.
func (h Hash128) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash128 parses 32 hex characters into a Hash128.
func ParseHash128(s string) (Hash128, error) {
	var h Hash128
	if len(s) != hex.EncodedLen(len(h)) {
		return h, fmt.Errorf("hash128 must be %d hex characters, got %d", hex.EncodedLen(len(h)), len(s))
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, fmt.Errorf("hash128: %w", err)
	}
	return h, nil
}

// Handle is an opaque reference to another stored object.
// A nil Handle means "no reference". Hosts supply their own implementations.
type Handle interface {
	HandleName() string
}

// Zero returns the zero value carried by fields of kind k.
func Zero(k Kind) any {
	switch k {
	case KindInteger, KindLayerMask, KindEnum, KindArraySize, KindFixedBufferSize:
		return int32(0)
	case KindBoolean:
		return false
	case KindFloat:
		return float32(0)
	case KindString:
		return ""
	case KindCharacter:
		return rune(0)
	case KindColor:
		return Color{}
	case KindObjectReference:
		return Handle(nil)
	case KindVector2:
		return Vector2{}
	case KindVector3:
		return Vector3{}
	case KindVector4:
		return Vector4{}
	case KindRect:
		return Rect{}
	case KindAnimationCurve:
		return AnimationCurve{}
	case KindBounds:
		return Bounds{}
	case KindGradient:
		return Gradient{}
	case KindQuaternion:
		return Quaternion{}
	case KindVector2Int:
		return Vector2Int{}
	case KindVector3Int:
		return Vector3Int{}
	case KindRectInt:
		return RectInt{}
	case KindBoundsInt:
		return BoundsInt{}
	case KindHash128:
		return Hash128{}
	default:
		return nil
	}
}

// Copy returns a value of kind k that shares no mutable memory with v.
// Object references are shared: they point at other objects, not into this one.
func Copy(k Kind, v any) any {
	switch k {
	case KindGradient:
		g, ok := v.(Gradient)
		if !ok {
			return v
		}
		g.ColorKeys = slices.Clone(g.ColorKeys)
		g.AlphaKeys = slices.Clone(g.AlphaKeys)
		return g
	case KindAnimationCurve:
		c, ok := v.(AnimationCurve)
		if !ok {
			return v
		}
		c.Keys = slices.Clone(c.Keys)
		return c
	default:
		return v
	}
}

// Check verifies that v has the Go type fields of kind k carry.
func Check(k Kind, v any) error {
	ok := true
	switch k {
	case KindInteger, KindLayerMask, KindEnum, KindArraySize, KindFixedBufferSize:
		_, ok = v.(int32)
	case KindBoolean:
		_, ok = v.(bool)
	case KindFloat:
		_, ok = v.(float32)
	case KindString:
		_, ok = v.(string)
	case KindCharacter:
		_, ok = v.(rune)
	case KindColor:
		_, ok = v.(Color)
	case KindObjectReference:
		if v != nil {
			_, ok = v.(Handle)
		}
	case KindVector2:
		_, ok = v.(Vector2)
	case KindVector3:
		_, ok = v.(Vector3)
	case KindVector4:
		_, ok = v.(Vector4)
	case KindRect:
		_, ok = v.(Rect)
	case KindAnimationCurve:
		_, ok = v.(AnimationCurve)
	case KindBounds:
		_, ok = v.(Bounds)
	case KindGradient:
		_, ok = v.(Gradient)
	case KindQuaternion:
		_, ok = v.(Quaternion)
	case KindVector2Int:
		_, ok = v.(Vector2Int)
	case KindVector3Int:
		_, ok = v.(Vector3Int)
	case KindRectInt:
		_, ok = v.(RectInt)
	case KindBoundsInt:
		_, ok = v.(BoundsInt)
	case KindHash128:
		_, ok = v.(Hash128)
	case KindExposedReference, KindManagedReference:
		// opaque host values
	default:
		return fmt.Errorf("kind %s has no leaf value", k)
	}
	if !ok {
		return fmt.Errorf("value of type %T is not a %s", v, k)
	}
	return nil
}
