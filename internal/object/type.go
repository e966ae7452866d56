// Package object provides a schema-driven structured object.
//
// An Object is built from a Type and exposes its fields by property path:
//
//	speed                     leaf field
//	stats.hp                  field of a nested record
//	tags.Array.size           length of a list
//	tags.Array.data[2]        list element
//	loot.Array.data[0].weight field of a record inside a list
//
// Object implements host.Object.
package object

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/assetvariant/internal/native"
)

// Type describes the fields of a family of objects.
type Type struct {
	Name   string
	Fields []FieldDef
}

// FieldDef describes one field.
//
// A leaf has a storable or host-only Kind. A nested record has Kind
// KindGeneric and its members in Fields. A list has Elem set; Kind and Fields
// are ignored and Elem.Name is unused.
type FieldDef struct {
	Name   string
	Kind   native.Kind
	Fields []FieldDef
	Elem   *FieldDef
}

// Leaf declares a leaf field.
func Leaf(name string, kind native.Kind) FieldDef {
	return FieldDef{Name: name, Kind: kind}
}

// Record declares a nested record field.
func Record(name string, fields ...FieldDef) FieldDef {
	return FieldDef{Name: name, Kind: native.KindGeneric, Fields: fields}
}

// List declares a list field whose elements are shaped like elem.
func List(name string, elem FieldDef) FieldDef {
	return FieldDef{Name: name, Kind: native.KindGeneric, Elem: &elem}
}

// IsList reports whether the field holds a list.
func (d FieldDef) IsList() bool { return d.Elem != nil }

// IsRecord reports whether the field holds a nested record.
func (d FieldDef) IsRecord() bool { return d.Elem == nil && d.Kind == native.KindGeneric }

// Validate checks field names and kinds.
func (t *Type) Validate() error {
	if t.Name == "" {
		return errors.New("type has no name")
	}
	if err := validateFields(t.Fields); err != nil {
		return fmt.Errorf("type %s: %w", t.Name, err)
	}
	return nil
}

// Field returns the top-level definition named name.
func (t *Type) Field(name string) (FieldDef, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

func validateFields(defs []FieldDef) error {
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if err := validateName(d.Name); err != nil {
			return err
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate field %q", d.Name)
		}
		seen[d.Name] = true
		if err := validateDef(d); err != nil {
			return fmt.Errorf("%s: %w", d.Name, err)
		}
	}
	return nil
}

func validateDef(d FieldDef) error {
	switch {
	case d.IsList():
		return validateDef(*d.Elem)
	case d.IsRecord():
		return validateFields(d.Fields)
	case d.Kind == native.KindInvalid || d.Kind == native.KindArraySize:
		return fmt.Errorf("kind %s cannot be declared", d.Kind)
	}
	if _, err := native.ParseKind(d.Kind.String()); err != nil {
		return err
	}
	return nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return errors.New("field has no name")
	case name == "Array":
		return errors.New(`"Array" is reserved`)
	case strings.ContainsAny(name, ".[] "):
		return fmt.Errorf("field name %q contains a path separator", name)
	}
	return nil
}
