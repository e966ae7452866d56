package codec

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/ir"
	"github.com/roach88/assetvariant/internal/native"
)

// Spellings of the non-finite floats JSON cannot carry as numbers.
const (
	docNaN    = "NaN"
	docPosInf = "Infinity"
	docNegInf = "-Infinity"
)

// ToDocument writes a portable value as an ir document.
func ToDocument(p Value) ir.Value {
	switch v := p.(type) {
	case Int:
		return ir.Int(int64(v))
	case Bool:
		return ir.Bool(v)
	case Float:
		return floatDoc(float32(v))
	case String:
		return ir.String(v)
	case Vec2:
		return ir.Object{"x": floatDoc(v.X), "y": floatDoc(v.Y)}
	case Vec3:
		return vec3Doc(v)
	case Vec4:
		return vec4Doc(v)
	case Box:
		return ir.Object{"center": vec3Doc(v.Center), "extentsOrSize": vec3Doc(v.ExtentsOrSize)}
	case Gradient:
		colors := make(ir.Array, len(v.ColorKeys))
		for i, k := range v.ColorKeys {
			colors[i] = ir.Object{"color": vec4Doc(k.Color), "time": floatDoc(k.Time)}
		}
		alphas := make(ir.Array, len(v.AlphaKeys))
		for i, k := range v.AlphaKeys {
			alphas[i] = ir.Object{"alpha": floatDoc(k.Alpha), "time": floatDoc(k.Time)}
		}
		return ir.Object{"mode": ir.Int(int64(v.Mode)), "colorKeys": colors, "alphaKeys": alphas}
	case Curve:
		keys := make(ir.Array, len(v.Keyframes))
		for i, k := range v.Keyframes {
			keys[i] = ir.Object{
				"time":         floatDoc(k.Time),
				"value":        floatDoc(k.Value),
				"inTangent":    floatDoc(k.InTangent),
				"outTangent":   floatDoc(k.OutTangent),
				"tangentMode":  ir.Int(int64(k.TangentMode)),
				"weightedMode": ir.Int(int64(k.WeightedMode)),
				"inWeight":     floatDoc(k.InWeight),
				"outWeight":    floatDoc(k.OutWeight),
			}
		}
		return ir.Object{"keyframes": keys}
	case Hash:
		return ir.String(native.Hash128(v).String())
	case Ref:
		return ir.String(v.ID)
	default:
		return ir.Null{}
	}
}

// FromDocument reads the portable value a field of kind stores from doc.
// Missing object members default to zero; members of the wrong type are errors.
// Object keys are matched in camelCase first and PascalCase second, so blobs
// written by older tools still load.
func FromDocument(kind native.Kind, doc ir.Value) (Value, error) {
	switch kind {
	case native.KindInteger, native.KindLayerMask, native.KindEnum, native.KindArraySize:
		n, err := docInt32(doc)
		return Int(n), err
	case native.KindBoolean:
		b, ok := doc.(ir.Bool)
		if !ok {
			return nil, mismatch(kind, doc)
		}
		return Bool(b), nil
	case native.KindFloat:
		f, err := docFloat(doc)
		return Float(f), err
	case native.KindString, native.KindCharacter:
		s, ok := doc.(ir.String)
		if !ok {
			return nil, mismatch(kind, doc)
		}
		return String(s), nil
	case native.KindVector2, native.KindVector2Int:
		obj, err := docObject(kind, doc)
		if err != nil {
			return nil, err
		}
		var v Vec2
		err = fields(obj, floatField("x", &v.X), floatField("y", &v.Y))
		return v, err
	case native.KindVector3, native.KindVector3Int:
		return docVec3(kind, doc)
	case native.KindVector4, native.KindColor, native.KindQuaternion, native.KindRect, native.KindRectInt:
		return docVec4(kind, doc)
	case native.KindBounds, native.KindBoundsInt:
		obj, err := docObject(kind, doc)
		if err != nil {
			return nil, err
		}
		var b Box
		if b.Center, err = docVec3(kind, member(obj, "center")); err != nil {
			return nil, fmt.Errorf("center: %w", err)
		}
		if b.ExtentsOrSize, err = docVec3(kind, member(obj, "extentsOrSize")); err != nil {
			return nil, fmt.Errorf("extentsOrSize: %w", err)
		}
		return b, nil
	case native.KindGradient:
		return docGradient(doc)
	case native.KindAnimationCurve:
		return docCurve(doc)
	case native.KindHash128:
		s, ok := doc.(ir.String)
		if !ok {
			return nil, mismatch(kind, doc)
		}
		h, err := native.ParseHash128(string(s))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
		}
		return Hash(h), nil
	case native.KindObjectReference:
		switch v := doc.(type) {
		case nil, ir.Null:
			return Ref{}, nil
		case ir.String:
			return Ref{ID: string(v)}, nil
		}
		return nil, mismatch(kind, doc)
	default:
		return nil, diag.Unsupported("", kind, "")
	}
}

// EncodeDocument writes a native value of kind in document form.
func EncodeDocument(kind native.Kind, v any, refs References) (ir.Value, error) {
	p, err := Encode(kind, v, refs)
	if err != nil {
		return nil, err
	}
	return ToDocument(p), nil
}

// DecodeDocument reads the native value a field of kind holds from doc.
func DecodeDocument(kind native.Kind, doc ir.Value, refs References) (any, error) {
	p, err := FromDocument(kind, doc)
	if err != nil {
		return nil, err
	}
	return Decode(kind, p, refs)
}

func mismatch(kind native.Kind, doc ir.Value) error {
	return fmt.Errorf("%w: %s cannot be read from %s", ErrShapeMismatch, kind, docType(doc))
}

func docType(doc ir.Value) string {
	switch doc.(type) {
	case nil, ir.Null:
		return "null"
	case ir.String:
		return "string"
	case ir.Number:
		return "number"
	case ir.Bool:
		return "bool"
	case ir.Array:
		return "array"
	case ir.Object:
		return "object"
	}
	return fmt.Sprintf("%T", doc)
}

func floatDoc(f float32) ir.Value {
	switch {
	case math.IsNaN(float64(f)):
		return ir.String(docNaN)
	case math.IsInf(float64(f), 1):
		return ir.String(docPosInf)
	case math.IsInf(float64(f), -1):
		return ir.String(docNegInf)
	}
	return ir.Float32(f)
}

func vec3Doc(v Vec3) ir.Object {
	return ir.Object{"x": floatDoc(v.X), "y": floatDoc(v.Y), "z": floatDoc(v.Z)}
}

func vec4Doc(v Vec4) ir.Object {
	return ir.Object{"x": floatDoc(v.X), "y": floatDoc(v.Y), "z": floatDoc(v.Z), "w": floatDoc(v.W)}
}

func docInt32(doc ir.Value) (int32, error) {
	n, ok := doc.(ir.Number)
	if !ok {
		return 0, fmt.Errorf("%w: expected integer, got %s", ErrShapeMismatch, docType(doc))
	}
	i, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}
	if i > math.MaxInt32 || i < math.MinInt32 {
		return 0, fmt.Errorf("%w: %d overflows int32", ErrShapeMismatch, i)
	}
	return int32(i), nil
}

func docFloat(doc ir.Value) (float32, error) {
	switch v := doc.(type) {
	case ir.Number:
		f, err := v.Float32()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
		}
		return f, nil
	case ir.String:
		switch string(v) {
		case docNaN:
			return float32(math.NaN()), nil
		case docPosInf:
			return float32(math.Inf(1)), nil
		case docNegInf:
			return float32(math.Inf(-1)), nil
		}
	}
	return 0, fmt.Errorf("%w: expected float, got %s", ErrShapeMismatch, docType(doc))
}

func docObject(kind native.Kind, doc ir.Value) (ir.Object, error) {
	switch v := doc.(type) {
	case ir.Object:
		return v, nil
	case nil:
		return ir.Object{}, nil
	}
	return nil, mismatch(kind, doc)
}

func docArray(doc ir.Value) (ir.Array, error) {
	switch v := doc.(type) {
	case ir.Array:
		return v, nil
	case nil, ir.Null:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: expected array, got %s", ErrShapeMismatch, docType(doc))
}

// member looks a key up in camelCase, then PascalCase. Missing keys yield nil.
func member(obj ir.Object, key string) ir.Value {
	if v, ok := obj[key]; ok {
		return v
	}
	if key == "" {
		return nil
	}
	r := []rune(key)
	r[0] = unicode.ToUpper(r[0])
	if v, ok := obj[string(r)]; ok {
		return v
	}
	return nil
}

type fieldReader func(obj ir.Object) error

func floatField(key string, dst *float32) fieldReader {
	return func(obj ir.Object) error {
		v := member(obj, key)
		if v == nil {
			return nil
		}
		f, err := docFloat(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = f
		return nil
	}
}

func intField(key string, dst *int32) fieldReader {
	return func(obj ir.Object) error {
		v := member(obj, key)
		if v == nil {
			return nil
		}
		n, err := docInt32(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
}

func fields(obj ir.Object, readers ...fieldReader) error {
	for _, read := range readers {
		if err := read(obj); err != nil {
			return err
		}
	}
	return nil
}

func docVec3(kind native.Kind, doc ir.Value) (Vec3, error) {
	var v Vec3
	obj, err := docObject(kind, doc)
	if err != nil {
		return v, err
	}
	err = fields(obj, floatField("x", &v.X), floatField("y", &v.Y), floatField("z", &v.Z))
	return v, err
}

func docVec4(kind native.Kind, doc ir.Value) (Vec4, error) {
	var v Vec4
	obj, err := docObject(kind, doc)
	if err != nil {
		return v, err
	}
	err = fields(obj, floatField("x", &v.X), floatField("y", &v.Y), floatField("z", &v.Z), floatField("w", &v.W))
	return v, err
}

func docGradient(doc ir.Value) (Value, error) {
	obj, err := docObject(native.KindGradient, doc)
	if err != nil {
		return nil, err
	}
	var g Gradient
	if err := intField("mode", &g.Mode)(obj); err != nil {
		return nil, err
	}

	colors, err := docArray(member(obj, "colorKeys"))
	if err != nil {
		return nil, fmt.Errorf("colorKeys: %w", err)
	}
	g.ColorKeys = make([]ColorKey, len(colors))
	for i, elem := range colors {
		key, err := docObject(native.KindGradient, elem)
		if err != nil {
			return nil, fmt.Errorf("colorKeys[%d]: %w", i, err)
		}
		if g.ColorKeys[i].Color, err = docVec4(native.KindColor, member(key, "color")); err != nil {
			return nil, fmt.Errorf("colorKeys[%d].color: %w", i, err)
		}
		if err := floatField("time", &g.ColorKeys[i].Time)(key); err != nil {
			return nil, fmt.Errorf("colorKeys[%d]: %w", i, err)
		}
	}

	alphas, err := docArray(member(obj, "alphaKeys"))
	if err != nil {
		return nil, fmt.Errorf("alphaKeys: %w", err)
	}
	g.AlphaKeys = make([]AlphaKey, len(alphas))
	for i, elem := range alphas {
		key, err := docObject(native.KindGradient, elem)
		if err != nil {
			return nil, fmt.Errorf("alphaKeys[%d]: %w", i, err)
		}
		k := &g.AlphaKeys[i]
		if err := fields(key, floatField("alpha", &k.Alpha), floatField("time", &k.Time)); err != nil {
			return nil, fmt.Errorf("alphaKeys[%d]: %w", i, err)
		}
	}
	return g, nil
}

func docCurve(doc ir.Value) (Value, error) {
	obj, err := docObject(native.KindAnimationCurve, doc)
	if err != nil {
		return nil, err
	}
	keys, err := docArray(member(obj, "keyframes"))
	if err != nil {
		return nil, fmt.Errorf("keyframes: %w", err)
	}
	c := Curve{Keyframes: make([]native.Keyframe, len(keys))}
	for i, elem := range keys {
		key, err := docObject(native.KindAnimationCurve, elem)
		if err != nil {
			return nil, fmt.Errorf("keyframes[%d]: %w", i, err)
		}
		k := &c.Keyframes[i]
		err = fields(key,
			floatField("time", &k.Time),
			floatField("value", &k.Value),
			floatField("inTangent", &k.InTangent),
			floatField("outTangent", &k.OutTangent),
			intField("tangentMode", &k.TangentMode),
			intField("weightedMode", &k.WeightedMode),
			floatField("inWeight", &k.InWeight),
			floatField("outWeight", &k.OutWeight),
		)
		if err != nil {
			return nil, fmt.Errorf("keyframes[%d]: %w", i, err)
		}
	}
	return c, nil
}

// Summary renders a portable value as short human-readable text.
func Summary(p Value) string {
	switch v := p.(type) {
	case Int:
		return fmt.Sprintf("%d", int32(v))
	case Bool:
		return fmt.Sprintf("%t", bool(v))
	case Float:
		return fmt.Sprintf("%g", float32(v))
	case String:
		return fmt.Sprintf("%q", string(v))
	case Vec2:
		return fmt.Sprintf("(%g, %g)", v.X, v.Y)
	case Vec3:
		return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
	case Vec4:
		return fmt.Sprintf("(%g, %g, %g, %g)", v.X, v.Y, v.Z, v.W)
	case Box:
		return fmt.Sprintf("center %s, extentsOrSize %s", Summary(v.Center), Summary(v.ExtentsOrSize))
	case Gradient:
		return fmt.Sprintf("gradient(mode=%d, %d color keys, %d alpha keys)", v.Mode, len(v.ColorKeys), len(v.AlphaKeys))
	case Curve:
		return fmt.Sprintf("curve(%d keys)", len(v.Keyframes))
	case Hash:
		return native.Hash128(v).String()
	case Ref:
		if v.ID == "" {
			return "none"
		}
		return "ref:" + v.ID
	}
	return strings.TrimSpace(fmt.Sprintf("%v", p))
}
