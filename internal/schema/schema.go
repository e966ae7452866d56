// Package schema compiles CUE type declarations into object types.
//
// Types are declared under a top-level "types" struct. A field is a kind
// name, a nested struct (a record) or a one-element list (a list of that
// element):
//
//	types: Enemy: {
//		speed: "float"
//		stats: {hp: "int", armor: "int"}
//		tags: ["string"]
//		loot: [{item: "object", weight: "float"}]
//	}
//
// Field order follows declaration order.
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/assetvariant/internal/native"
	"github.com/roach88/assetvariant/internal/object"
)

// Registry holds compiled types by name.
type Registry struct {
	types map[string]*object.Type
	names []string
}

// NewRegistry returns a registry holding types.
func NewRegistry(types ...*object.Type) (*Registry, error) {
	r := &Registry{types: make(map[string]*object.Type)}
	for _, t := range types {
		if err := r.add(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(t *object.Type) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, dup := r.types[t.Name]; dup {
		return fmt.Errorf("type %s declared twice", t.Name)
	}
	r.types[t.Name] = t
	r.names = append(r.names, t.Name)
	return nil
}

// Lookup returns the type named name.
func (r *Registry) Lookup(name string) (*object.Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Names returns the type names in declaration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Len returns the number of types.
func (r *Registry) Len() int { return len(r.names) }

// CompileError is a schema error with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Compile reads every type under the "types" struct of v.
func Compile(v cue.Value) (*Registry, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	r := &Registry{types: make(map[string]*object.Type)}

	typesVal := v.LookupPath(cue.ParsePath("types"))
	if !typesVal.Exists() {
		return r, nil
	}
	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		t, err := CompileType(iter.Value())
		if err != nil {
			return nil, err
		}
		if err := r.add(t); err != nil {
			return nil, &CompileError{Field: "types." + t.Name, Message: err.Error(), Pos: iter.Value().Pos()}
		}
	}
	return r, nil
}

// CompileType compiles a single type struct. The type is named after the
// last selector of v's path.
func CompileType(v cue.Value) (*object.Type, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	t := &object.Type{}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		t.Name = labels[len(labels)-1].String()
	}
	fields, err := compileFields(v, "types."+t.Name)
	if err != nil {
		return nil, err
	}
	t.Fields = fields
	return t, nil
}

// CompileString compiles CUE source text.
func CompileString(src string) (*Registry, error) {
	return Compile(cuecontext.New().CompileString(src))
}

// LoadDir loads the CUE package in dir and compiles its types.
func LoadDir(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schema directory: %s is not a directory", dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}
	return Compile(cuecontext.New().BuildInstance(inst))
}

func compileFields(v cue.Value, path string) ([]object.FieldDef, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, &CompileError{Field: path, Message: "must be a struct of fields", Pos: v.Pos()}
	}
	var defs []object.FieldDef
	for iter.Next() {
		def, err := compileField(iter.Label(), iter.Value(), path+"."+iter.Label())
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func compileField(name string, v cue.Value, path string) (object.FieldDef, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return object.FieldDef{}, formatCUEError(err)
		}
		kind, err := native.ParseKind(s)
		if err != nil {
			return object.FieldDef{}, &CompileError{Field: path, Message: err.Error(), Pos: v.Pos()}
		}
		return object.Leaf(name, kind), nil

	case cue.StructKind:
		fields, err := compileFields(v, path)
		if err != nil {
			return object.FieldDef{}, err
		}
		return object.Record(name, fields...), nil

	case cue.ListKind:
		n, err := v.Len().Int64()
		if err != nil || n != 1 {
			return object.FieldDef{}, &CompileError{Field: path, Message: "a list declares exactly one element shape", Pos: v.Pos()}
		}
		elem, err := compileField("", v.LookupPath(cue.MakePath(cue.Index(0))), path+"[]")
		if err != nil {
			return object.FieldDef{}, err
		}
		return object.List(name, elem), nil
	}
	return object.FieldDef{}, &CompileError{
		Field:   path,
		Message: fmt.Sprintf("expected a kind name, struct or list, got %s", v.Kind()),
		Pos:     v.Pos(),
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
