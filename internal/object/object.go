package object

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/assetvariant/internal/codec"
	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/host"
	"github.com/roach88/assetvariant/internal/ir"
	"github.com/roach88/assetvariant/internal/native"
)

// ErrReleased is returned by every accessor once Release has been called.
var ErrReleased = errors.New("object released")

// Object is a structured object built from a Type.
type Object struct {
	typ      *Type
	name     string
	root     *record
	released bool
}

var (
	_ host.Object   = (*Object)(nil)
	_ host.Releaser = (*Object)(nil)
	_ native.Handle = (*Object)(nil)
)

// New creates an object of type t with every field at its zero value and
// every list empty.
func New(t *Type, name string) *Object {
	return &Object{typ: t, name: name, root: newRecord(t.Fields)}
}

// Type returns the object's type.
func (o *Object) Type() *Type { return o.typ }

func (o *Object) Name() string        { return o.name }
func (o *Object) SetName(name string) { o.name = name }

// HandleName lets other objects reference o.
func (o *Object) HandleName() string { return o.name }

// Clone returns a deep copy. Object references are shared with o.
func (o *Object) Clone() *Object {
	c := &Object{typ: o.typ, name: o.name, released: o.released}
	if o.root != nil {
		c.root = o.root.clone().(*record)
	}
	return c
}

// Release drops the object's contents.
func (o *Object) Release() {
	o.released = true
	o.root = nil
}

// Released reports whether Release has been called.
func (o *Object) Released() bool { return o.released }

// Fields enumerates leaves and list sizes in schema order. A list's size
// comes before its elements. Nested records contribute only their members.
func (o *Object) Fields() []host.Field {
	if o.released {
		return nil
	}
	var out []host.Field
	o.root.fieldsInto("", &out)
	return out
}

// Kind resolves path. Records and lists resolve to KindGeneric.
func (o *Object) Kind(path string) (native.Kind, error) {
	t, err := o.resolve(path)
	if err != nil {
		return native.KindInvalid, err
	}
	return t.kind, nil
}

// Read returns the value at path. Lists report their size as int32.
func (o *Object) Read(path string) (any, error) {
	t, err := o.resolve(path)
	if err != nil {
		return nil, err
	}
	switch {
	case t.leaf != nil:
		return native.Copy(t.kind, t.leaf.v), nil
	case t.size != nil:
		return int32(len(t.size.items)), nil
	}
	return nil, fmt.Errorf("%s is a %s container and has no value", path, t.kind)
}

// Write stores value at path. Writing a list size grows the list by
// duplicating its last element (or adding zero elements when it is empty)
// and shrinks it by dropping trailing elements.
func (o *Object) Write(path string, value any) error {
	t, err := o.resolve(path)
	if err != nil {
		return err
	}
	if err := native.Check(t.kind, value); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	switch {
	case t.leaf != nil:
		t.leaf.v = native.Copy(t.kind, value)
		return nil
	case t.size != nil:
		n := value.(int32)
		if n < 0 {
			return fmt.Errorf("write %s: negative size %d", path, n)
		}
		t.size.resize(int(n))
		return nil
	}
	return fmt.Errorf("write %s: not a leaf", path)
}

type target struct {
	kind native.Kind
	leaf *leaf
	size *list
}

func (o *Object) resolve(path string) (target, error) {
	if o.released {
		return target{}, ErrReleased
	}
	noField := func() (target, error) {
		return target{}, fmt.Errorf("%w: %s in %s", host.ErrNoField, path, o.name)
	}

	segs := strings.Split(path, ".")
	var cur node = o.root
	for i := 0; i < len(segs); {
		switch n := cur.(type) {
		case *record:
			child, ok := n.fields[segs[i]]
			if !ok {
				return noField()
			}
			cur = child
			i++
		case *list:
			if segs[i] != "Array" || i+1 >= len(segs) {
				return noField()
			}
			if segs[i+1] == "size" {
				if i+2 != len(segs) {
					return noField()
				}
				return target{kind: native.KindArraySize, size: n}, nil
			}
			k, ok := parseData(segs[i+1])
			if !ok || k >= len(n.items) {
				return noField()
			}
			cur = n.items[k]
			i += 2
		case *leaf:
			return noField()
		}
	}
	if l, ok := cur.(*leaf); ok {
		return target{kind: l.kind, leaf: l}, nil
	}
	return target{kind: native.KindGeneric}, nil
}

// parseData parses "data[k]".
func parseData(seg string) (int, bool) {
	inner, ok := strings.CutPrefix(seg, "data[")
	if !ok {
		return 0, false
	}
	inner, ok = strings.CutSuffix(inner, "]")
	if !ok {
		return 0, false
	}
	k, err := strconv.Atoi(inner)
	if err != nil || k < 0 || k > math.MaxInt32 {
		return 0, false
	}
	return k, true
}

// ElementPath returns the path of element k of the list at path.
func ElementPath(path string, k int) string {
	return fmt.Sprintf("%s.Array.data[%d]", path, k)
}

// SizePath returns the path of the size of the list at path.
func SizePath(path string) string {
	return path + ".Array.size"
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

type node interface {
	clone() node
	fieldsInto(path string, out *[]host.Field)
	document(path string, refs codec.References, skipped *[]*diag.Error) ir.Value
	load(path string, doc ir.Value, refs codec.References, errs *[]error)
}

type leaf struct {
	kind native.Kind
	v    any
}

type record struct {
	defs   []FieldDef
	fields map[string]node
}

type list struct {
	elem  FieldDef
	items []node
}

func newNode(d FieldDef) node {
	switch {
	case d.IsList():
		return &list{elem: *d.Elem}
	case d.IsRecord():
		return newRecord(d.Fields)
	}
	return &leaf{kind: d.Kind, v: native.Zero(d.Kind)}
}

func newRecord(defs []FieldDef) *record {
	r := &record{defs: defs, fields: make(map[string]node, len(defs))}
	for _, d := range defs {
		r.fields[d.Name] = newNode(d)
	}
	return r
}

func (l *leaf) clone() node {
	return &leaf{kind: l.kind, v: native.Copy(l.kind, l.v)}
}

func (l *leaf) fieldsInto(path string, out *[]host.Field) {
	*out = append(*out, host.Field{Path: path, Kind: l.kind})
}

func (r *record) clone() node {
	c := &record{defs: r.defs, fields: make(map[string]node, len(r.fields))}
	for name, n := range r.fields {
		c.fields[name] = n.clone()
	}
	return c
}

func (r *record) fieldsInto(path string, out *[]host.Field) {
	for _, d := range r.defs {
		r.fields[d.Name].fieldsInto(join(path, d.Name), out)
	}
}

func (l *list) clone() node {
	c := &list{elem: l.elem, items: make([]node, len(l.items))}
	for i, n := range l.items {
		c.items[i] = n.clone()
	}
	return c
}

func (l *list) fieldsInto(path string, out *[]host.Field) {
	*out = append(*out, host.Field{Path: SizePath(path), Kind: native.KindArraySize})
	for i, n := range l.items {
		n.fieldsInto(ElementPath(path, i), out)
	}
}

func (l *list) resize(n int) {
	if n <= len(l.items) {
		clear(l.items[n:])
		l.items = l.items[:n]
		return
	}
	for len(l.items) < n {
		if last := len(l.items) - 1; last >= 0 {
			l.items = append(l.items, l.items[last].clone())
		} else {
			l.items = append(l.items, newNode(l.elem))
		}
	}
}
