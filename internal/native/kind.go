// Package native defines the field kinds a structured object can expose and the
// Go types that carry each kind's live value.
//
// This package contains type definitions only. Every other internal package may
// import native; native imports nothing internal.
package native

import "fmt"

// Kind identifies the type of a single property on a structured object.
// The set is closed: code that dispatches on Kind must handle every value.
type Kind int

const (
	KindInvalid Kind = iota
	KindInteger
	KindBoolean
	KindFloat
	KindString
	KindCharacter
	KindColor
	KindObjectReference
	KindLayerMask
	KindEnum
	KindVector2
	KindVector3
	KindVector4
	KindRect
	KindArraySize
	KindAnimationCurve
	KindBounds
	KindGradient
	KindQuaternion
	KindVector2Int
	KindVector3Int
	KindRectInt
	KindBoundsInt
	KindHash128

	// Kinds below are discoverable but cannot be stored as overrides.
	KindGeneric
	KindExposedReference
	KindManagedReference
	KindFixedBufferSize
)

var kindNames = map[Kind]string{
	KindInteger:          "int",
	KindBoolean:          "bool",
	KindFloat:            "float",
	KindString:           "string",
	KindCharacter:        "char",
	KindColor:            "color",
	KindObjectReference:  "object",
	KindLayerMask:        "layermask",
	KindEnum:             "enum",
	KindVector2:          "vector2",
	KindVector3:          "vector3",
	KindVector4:          "vector4",
	KindRect:             "rect",
	KindArraySize:        "arraysize",
	KindAnimationCurve:   "curve",
	KindBounds:           "bounds",
	KindGradient:         "gradient",
	KindQuaternion:       "quaternion",
	KindVector2Int:       "vector2int",
	KindVector3Int:       "vector3int",
	KindRectInt:          "rectint",
	KindBoundsInt:        "boundsint",
	KindHash128:          "hash128",
	KindGeneric:          "generic",
	KindExposedReference: "exposedref",
	KindManagedReference: "managedref",
	KindFixedBufferSize:  "fixedbuffer",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

// String returns the schema name of the kind (e.g. "float", "vector3").
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a schema name back to its Kind.
func ParseKind(name string) (Kind, error) {
	k, ok := kindsByName[name]
	if !ok {
		return KindInvalid, fmt.Errorf("unknown field kind %q", name)
	}
	return k, nil
}

// Storable reports whether values of this kind can be captured as overrides.
func (k Kind) Storable() bool {
	switch k {
	case KindInvalid, KindGeneric, KindExposedReference, KindManagedReference, KindFixedBufferSize:
		return false
	}
	_, known := kindNames[k]
	return known
}
