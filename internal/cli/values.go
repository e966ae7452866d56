package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/assetvariant/internal/codec"
	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/host"
	"github.com/roach88/assetvariant/internal/ir"
	"github.com/roach88/assetvariant/internal/native"
)

// FieldView is one field of an object as shown to the user.
type FieldView struct {
	Path       string `json:"path"`
	Kind       string `json:"kind"`
	Value      any    `json:"value,omitempty"`
	Overridden bool   `json:"overridden,omitempty"`

	// Note explains why Value is missing.
	Note string `json:"note,omitempty"`
}

// parseValue reads a command-line value as YAML, so that 9.5, elite,
// "{x: 1, y: 2, z: 3}" and "[1, 2]" all work unquoted.
func parseValue(text string) (ir.Value, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("invalid value %q: %w", text, err)
	}
	return ir.FromAny(raw)
}

// nativeValue converts text to the native value of the field at path.
func nativeValue(obj host.Object, path, text string, refs codec.References) (any, error) {
	kind, err := obj.Kind(path)
	if err != nil {
		if errors.Is(err, host.ErrNoField) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("%s has no field %s", obj.Name(), path)).WithCode(ErrCodeNotFound)
		}
		return nil, err
	}
	doc, err := parseValue(text)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "bad value", err).WithCode(ErrCodeBadValue)
	}
	v, err := codec.DecodeDocument(kind, doc, refs)
	if errors.Is(err, codec.ErrShapeMismatch) {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("bad value for %s (%s)", path, kind), err).WithCode(ErrCodeBadValue)
	}
	if err != nil {
		return nil, diag.At(err, path)
	}
	return v, nil
}

// fieldViews lists every field of obj in schema order. overridden may be nil.
func fieldViews(obj host.Object, refs codec.References, overridden func(string) bool) []FieldView {
	fields := obj.Fields()
	out := make([]FieldView, 0, len(fields))
	for _, f := range fields {
		view := FieldView{Path: f.Path, Kind: f.Kind.String()}
		if overridden != nil {
			view.Overridden = overridden(f.Path)
		}
		v, err := obj.Read(f.Path)
		if err == nil {
			var doc ir.Value
			if doc, err = codec.EncodeDocument(f.Kind, v, refs); err == nil {
				view.Value = ir.ToAny(doc)
			}
		}
		if err != nil {
			view.Note = noteFor(err)
		}
		out = append(out, view)
	}
	return out
}

func noteFor(err error) string {
	if diag.IsUnsupported(err) {
		return "unsupported"
	}
	return err.Error()
}

// valueText renders a document value on one line.
func valueText(v any) string {
	doc, err := ir.FromAny(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	data, err := ir.Marshal(doc)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// writeFields renders views as "path = value" lines. Overridden fields are
// marked with a star.
func writeFields(b *strings.Builder, views []FieldView) {
	width := 0
	for _, v := range views {
		width = max(width, len(v.Path))
	}
	for _, v := range views {
		value := v.Note
		if v.Note == "" {
			value = valueText(v.Value)
		} else {
			value = "<" + value + ">"
		}
		mark := ""
		if v.Overridden {
			mark = "  *"
		}
		fmt.Fprintf(b, "  %-*s = %s%s\n", width, v.Path, value, mark)
	}
}

// diagnosticStrings formats diagnostics for output.
func diagnosticStrings(ds []*diag.Error) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Error())
	}
	return out
}

// resolver lets reference values on the command line name assets by path
// as well as by GUID.
type resolver struct {
	ws *workspace
}

func (r resolver) Identify(h native.Handle) (string, bool) {
	return r.ws.project.Identify(h)
}

func (r resolver) Resolve(id string) (native.Handle, bool) {
	if h, ok := r.ws.project.Resolve(id); ok {
		return h, true
	}
	rec, err := r.ws.lookup(context.Background(), id)
	if err != nil {
		return nil, false
	}
	return r.ws.project.Resolve(rec.GUID)
}
