package object

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/assetvariant/internal/codec"
	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/ir"
)

// Document renders the object's fields as a nested document: records become
// objects, lists become arrays, leaves use the codec's document shapes.
// Leaves that cannot be encoded are left out and reported.
func (o *Object) Document(refs codec.References) (ir.Object, []*diag.Error) {
	if o.released {
		return ir.Object{}, nil
	}
	var skipped []*diag.Error
	doc := o.root.document("", refs, &skipped).(ir.Object)
	return doc, skipped
}

// Load sets fields from a nested document shaped like the one Document
// produces. Members missing from doc keep their current value. Problems are
// collected and returned together; every readable member is still loaded.
func (o *Object) Load(doc ir.Object, refs codec.References) error {
	if o.released {
		return ErrReleased
	}
	var errs []error
	o.root.load("", doc, refs, &errs)
	return errors.Join(errs...)
}

func (r *record) document(path string, refs codec.References, skipped *[]*diag.Error) ir.Value {
	out := make(ir.Object, len(r.defs))
	for _, d := range r.defs {
		p := join(path, d.Name)
		if v := r.fields[d.Name].document(p, refs, skipped); v != nil {
			out[d.Name] = v
		}
	}
	return out
}

func (l *list) document(path string, refs codec.References, skipped *[]*diag.Error) ir.Value {
	out := make(ir.Array, 0, len(l.items))
	for i, n := range l.items {
		v := n.document(ElementPath(path, i), refs, skipped)
		if v == nil {
			v = ir.Null{}
		}
		out = append(out, v)
	}
	return out
}

func (l *leaf) document(path string, refs codec.References, skipped *[]*diag.Error) ir.Value {
	p, err := codec.Encode(l.kind, l.v, refs)
	if err != nil {
		*skipped = append(*skipped, qualify(err, path))
		return nil
	}
	return codec.ToDocument(p)
}

func (r *record) load(path string, doc ir.Value, refs codec.References, errs *[]error) {
	obj, ok := doc.(ir.Object)
	if !ok {
		*errs = append(*errs, fmt.Errorf("%s: expected a record", pathOrRoot(path)))
		return
	}
	for _, name := range obj.SortedKeys() {
		if !slices.ContainsFunc(r.defs, func(d FieldDef) bool { return d.Name == name }) {
			*errs = append(*errs, fmt.Errorf("%s: unknown field", join(path, name)))
		}
	}
	for _, d := range r.defs {
		if v, ok := obj[d.Name]; ok {
			r.fields[d.Name].load(join(path, d.Name), v, refs, errs)
		}
	}
}

func (l *list) load(path string, doc ir.Value, refs codec.References, errs *[]error) {
	arr, ok := doc.(ir.Array)
	if !ok {
		*errs = append(*errs, fmt.Errorf("%s: expected a list", path))
		return
	}
	l.items = nil
	l.resize(len(arr))
	for i, v := range arr {
		l.items[i].load(ElementPath(path, i), v, refs, errs)
	}
}

func (l *leaf) load(path string, doc ir.Value, refs codec.References, errs *[]error) {
	p, err := codec.FromDocument(l.kind, doc)
	if err == nil {
		var v any
		if v, err = codec.Decode(l.kind, p, refs); err == nil {
			l.v = v
			return
		}
	}
	*errs = append(*errs, fmt.Errorf("%s: %w", path, err))
}

func qualify(err error, path string) *diag.Error {
	if de, ok := diag.At(err, path).(*diag.Error); ok {
		return de
	}
	return &diag.Error{Code: diag.CodeUnsupportedFieldKind, Message: err.Error(), Path: path}
}

func pathOrRoot(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}
