// Package codec converts native field values to portable values and back, and
// portable values to and from ir documents.
//
// Dispatch is a closed switch over native.Kind. A kind that is not handled
// explicitly is unsupported: Encode and Decode return a diag error with code
// UNSUPPORTED_FIELD_KIND and the caller skips the field.
package codec

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"unicode/utf8"

	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/native"
)

// ErrShapeMismatch is returned when a portable value does not have the shape
// the target kind expects (for example after a field changed type).
var ErrShapeMismatch = errors.New("portable value does not match field kind")

// References maps object handles to stable identifiers and back.
type References interface {
	// Identify returns the stable identifier of h, or false if h has none.
	Identify(h native.Handle) (string, bool)

	// Resolve returns the handle for id, or false if nothing answers to it.
	Resolve(id string) (native.Handle, bool)
}

// Encode captures a native value of the given kind as a portable value.
func Encode(kind native.Kind, v any, refs References) (Value, error) {
	switch kind {
	case native.KindInteger, native.KindLayerMask, native.KindEnum, native.KindArraySize:
		n, err := as[int32](kind, v)
		return Int(n), err
	case native.KindBoolean:
		b, err := as[bool](kind, v)
		return Bool(b), err
	case native.KindFloat:
		f, err := as[float32](kind, v)
		return Float(f), err
	case native.KindString:
		s, err := as[string](kind, v)
		return String(s), err
	case native.KindCharacter:
		r, err := as[rune](kind, v)
		if err != nil {
			return nil, err
		}
		if !utf8.ValidRune(r) {
			return nil, fmt.Errorf("char %U is not a valid rune", r)
		}
		return String(string(r)), nil
	case native.KindColor:
		c, err := as[native.Color](kind, v)
		return Vec4{X: c.R, Y: c.G, Z: c.B, W: c.A}, err
	case native.KindVector2:
		p, err := as[native.Vector2](kind, v)
		return Vec2{X: p.X, Y: p.Y}, err
	case native.KindVector2Int:
		p, err := as[native.Vector2Int](kind, v)
		return Vec2{X: float32(p.X), Y: float32(p.Y)}, err
	case native.KindVector3:
		p, err := as[native.Vector3](kind, v)
		return vec3(p), err
	case native.KindVector3Int:
		p, err := as[native.Vector3Int](kind, v)
		return vec3i(p), err
	case native.KindVector4:
		p, err := as[native.Vector4](kind, v)
		return Vec4{X: p.X, Y: p.Y, Z: p.Z, W: p.W}, err
	case native.KindQuaternion:
		q, err := as[native.Quaternion](kind, v)
		return Vec4{X: q.X, Y: q.Y, Z: q.Z, W: q.W}, err
	case native.KindRect:
		r, err := as[native.Rect](kind, v)
		return Vec4{X: r.X, Y: r.Y, Z: r.Width, W: r.Height}, err
	case native.KindRectInt:
		r, err := as[native.RectInt](kind, v)
		return Vec4{X: float32(r.X), Y: float32(r.Y), Z: float32(r.Width), W: float32(r.Height)}, err
	case native.KindBounds:
		b, err := as[native.Bounds](kind, v)
		return Box{Center: vec3(b.Center), ExtentsOrSize: vec3(b.Size())}, err
	case native.KindBoundsInt:
		b, err := as[native.BoundsInt](kind, v)
		return Box{Center: vec3(b.Center()), ExtentsOrSize: vec3i(b.Size)}, err
	case native.KindGradient:
		g, err := as[native.Gradient](kind, v)
		if err != nil {
			return nil, err
		}
		return encodeGradient(g), nil
	case native.KindAnimationCurve:
		c, err := as[native.AnimationCurve](kind, v)
		if err != nil {
			return nil, err
		}
		return Curve{Keyframes: slices.Clone(c.Keys)}, nil
	case native.KindHash128:
		h, err := as[native.Hash128](kind, v)
		return Hash(h), err
	case native.KindObjectReference:
		return encodeRef(v, refs)
	case native.KindFixedBufferSize:
		// Readable, but the host cannot write it back.
		return nil, diag.Unsupported("", kind, "fixed buffer sizes cannot be written back")
	default:
		return nil, diag.Unsupported("", kind, "")
	}
}

// Decode converts a portable value into the native value a field of kind expects.
func Decode(kind native.Kind, p Value, refs References) (any, error) {
	switch kind {
	case native.KindInteger, native.KindLayerMask, native.KindEnum, native.KindArraySize:
		n, err := shape[Int](kind, p)
		return int32(n), err
	case native.KindBoolean:
		b, err := shape[Bool](kind, p)
		return bool(b), err
	case native.KindFloat:
		f, err := shape[Float](kind, p)
		return float32(f), err
	case native.KindString:
		s, err := shape[String](kind, p)
		return string(s), err
	case native.KindCharacter:
		s, err := shape[String](kind, p)
		if err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(string(s)) != 1 {
			return nil, fmt.Errorf("%w: char needs exactly one character, got %q", ErrShapeMismatch, string(s))
		}
		r, _ := utf8.DecodeRuneInString(string(s))
		return r, nil
	case native.KindColor:
		q, err := shape[Vec4](kind, p)
		return native.Color{R: q.X, G: q.Y, B: q.Z, A: q.W}, err
	case native.KindVector2:
		q, err := shape[Vec2](kind, p)
		return native.Vector2{X: q.X, Y: q.Y}, err
	case native.KindVector2Int:
		q, err := shape[Vec2](kind, p)
		return native.Vector2Int{X: toInt(q.X), Y: toInt(q.Y)}, err
	case native.KindVector3:
		q, err := shape[Vec3](kind, p)
		return native.Vector3{X: q.X, Y: q.Y, Z: q.Z}, err
	case native.KindVector3Int:
		q, err := shape[Vec3](kind, p)
		return toVector3Int(q), err
	case native.KindVector4:
		q, err := shape[Vec4](kind, p)
		return native.Vector4{X: q.X, Y: q.Y, Z: q.Z, W: q.W}, err
	case native.KindQuaternion:
		q, err := shape[Vec4](kind, p)
		return native.Quaternion{X: q.X, Y: q.Y, Z: q.Z, W: q.W}, err
	case native.KindRect:
		q, err := shape[Vec4](kind, p)
		return native.Rect{X: q.X, Y: q.Y, Width: q.Z, Height: q.W}, err
	case native.KindRectInt:
		q, err := shape[Vec4](kind, p)
		return native.RectInt{X: toInt(q.X), Y: toInt(q.Y), Width: toInt(q.Z), Height: toInt(q.W)}, err
	case native.KindBounds:
		b, err := shape[Box](kind, p)
		return native.Bounds{
			Center:  native.Vector3{X: b.Center.X, Y: b.Center.Y, Z: b.Center.Z},
			Extents: native.Vector3{X: b.ExtentsOrSize.X / 2, Y: b.ExtentsOrSize.Y / 2, Z: b.ExtentsOrSize.Z / 2},
		}, err
	case native.KindBoundsInt:
		b, err := shape[Box](kind, p)
		size := toVector3Int(b.ExtentsOrSize)
		corner := Vec3{
			X: b.Center.X - float32(size.X)/2,
			Y: b.Center.Y - float32(size.Y)/2,
			Z: b.Center.Z - float32(size.Z)/2,
		}
		return native.BoundsInt{Position: toVector3Int(corner), Size: size}, err
	case native.KindGradient:
		g, err := shape[Gradient](kind, p)
		if err != nil {
			return nil, err
		}
		return decodeGradient(g), nil
	case native.KindAnimationCurve:
		c, err := shape[Curve](kind, p)
		return native.AnimationCurve{Keys: slices.Clone(c.Keyframes)}, err
	case native.KindHash128:
		h, err := shape[Hash](kind, p)
		return native.Hash128(h), err
	case native.KindObjectReference:
		r, err := shape[Ref](kind, p)
		if err != nil {
			return nil, err
		}
		return decodeRef(r, refs)
	default:
		return nil, diag.Unsupported("", kind, "")
	}
}

// as asserts the native Go type for kind.
func as[T any](kind native.Kind, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("value of type %T is not a %s", v, kind)
	}
	return t, nil
}

// shape asserts the portable shape for kind.
func shape[T Value](kind native.Kind, p Value) (T, error) {
	t, ok := p.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s cannot be read from %T", ErrShapeMismatch, kind, p)
	}
	return t, nil
}

func vec3(v native.Vector3) Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

func vec3i(v native.Vector3Int) Vec3 {
	return Vec3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

func toVector3Int(v Vec3) native.Vector3Int {
	return native.Vector3Int{X: toInt(v.X), Y: toInt(v.Y), Z: toInt(v.Z)}
}

// toInt rounds to the nearest integer and saturates at the int32 range.
func toInt(f float32) int32 {
	r := math.Round(float64(f))
	switch {
	case math.IsNaN(r):
		return 0
	case r > math.MaxInt32:
		return math.MaxInt32
	case r < math.MinInt32:
		return math.MinInt32
	}
	return int32(r)
}

func encodeGradient(g native.Gradient) Gradient {
	out := Gradient{
		Mode:      g.Mode,
		ColorKeys: make([]ColorKey, len(g.ColorKeys)),
		AlphaKeys: make([]AlphaKey, len(g.AlphaKeys)),
	}
	for i, k := range g.ColorKeys {
		out.ColorKeys[i] = ColorKey{Color: Vec4{X: k.Color.R, Y: k.Color.G, Z: k.Color.B, W: k.Color.A}, Time: k.Time}
	}
	for i, k := range g.AlphaKeys {
		out.AlphaKeys[i] = AlphaKey{Alpha: k.Alpha, Time: k.Time}
	}
	return out
}

func decodeGradient(g Gradient) native.Gradient {
	out := native.Gradient{
		Mode:      g.Mode,
		ColorKeys: make([]native.GradientColorKey, len(g.ColorKeys)),
		AlphaKeys: make([]native.GradientAlphaKey, len(g.AlphaKeys)),
	}
	for i, k := range g.ColorKeys {
		out.ColorKeys[i] = native.GradientColorKey{
			Color: native.Color{R: k.Color.X, G: k.Color.Y, B: k.Color.Z, A: k.Color.W},
			Time:  k.Time,
		}
	}
	for i, k := range g.AlphaKeys {
		out.AlphaKeys[i] = native.GradientAlphaKey{Alpha: k.Alpha, Time: k.Time}
	}
	return out
}

func encodeRef(v any, refs References) (Value, error) {
	if v == nil {
		return Ref{}, nil
	}
	h, ok := v.(native.Handle)
	if !ok {
		return nil, fmt.Errorf("value of type %T is not a %s", v, native.KindObjectReference)
	}
	if refs == nil {
		return nil, diag.Unsupported("", native.KindObjectReference, "no reference resolver available")
	}
	id, ok := refs.Identify(h)
	if !ok {
		return nil, diag.Unsupported("", native.KindObjectReference,
			fmt.Sprintf("%s has no stable identifier", h.HandleName()))
	}
	return Ref{ID: id}, nil
}

// decodeRef resolves an identifier. Identifiers that no longer resolve yield a
// nil handle, matching what the host does for a deleted reference target.
func decodeRef(r Ref, refs References) (any, error) {
	if r.ID == "" || refs == nil {
		return nil, nil
	}
	h, ok := refs.Resolve(r.ID)
	if !ok {
		return nil, nil
	}
	return h, nil
}
