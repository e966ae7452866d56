// Package overrides holds the per-variant set of overridden properties.
//
// A Store maps property paths to portable documents. Lookup is by path; the
// insertion order is kept only so that serialization is deterministic.
package overrides

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/ir"
)

// Version is the blob format version written by Serialize.
const Version = 1

// Store is an ordered map from property path to override document.
// The zero value is an empty store ready to use.
type Store struct {
	order   []string
	entries map[string]ir.Value
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]ir.Value)}
}

// Set records value for path. An existing entry keeps its position.
func (s *Store) Set(path string, value ir.Value) {
	if s.entries == nil {
		s.entries = make(map[string]ir.Value)
	}
	if _, ok := s.entries[path]; !ok {
		s.order = append(s.order, path)
	}
	s.entries[path] = value
}

// Remove deletes the entry for path and reports whether one existed.
func (s *Store) Remove(path string) bool {
	if _, ok := s.entries[path]; !ok {
		return false
	}
	delete(s.entries, path)
	s.order = slices.DeleteFunc(s.order, func(p string) bool { return p == path })
	return true
}

// Get returns the document stored for path.
func (s *Store) Get(path string) (ir.Value, bool) {
	v, ok := s.entries[path]
	return v, ok
}

// Has reports whether path is overridden.
func (s *Store) Has(path string) bool {
	_, ok := s.entries[path]
	return ok
}

// Paths returns the overridden paths in insertion order.
func (s *Store) Paths() []string {
	return slices.Clone(s.order)
}

// All iterates entries in insertion order.
func (s *Store) All() iter.Seq2[string, ir.Value] {
	return func(yield func(string, ir.Value) bool) {
		for _, p := range s.order {
			if !yield(p, s.entries[p]) {
				return
			}
		}
	}
}

// Len returns the number of entries.
// A nil store is empty.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// IsEmpty reports whether the store has no entries.
func (s *Store) IsEmpty() bool { return s.Len() == 0 }

// Clone returns an independent copy. Documents are immutable and shared.
func (s *Store) Clone() *Store {
	c := &Store{
		order:   slices.Clone(s.order),
		entries: make(map[string]ir.Value, len(s.entries)),
	}
	for p, v := range s.entries {
		c.entries[p] = v
	}
	return c
}

// Equal reports whether both stores hold the same paths with equal documents.
// Order is not compared. A nil store equals an empty one.
func (s *Store) Equal(other *Store) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s.Len() == 0 {
		return true
	}
	for p, v := range s.entries {
		ov, ok := other.entries[p]
		if !ok || !ir.Equal(v, ov) {
			return false
		}
	}
	return true
}

// Serialize writes the store as {"v":1,"o":{...}} with entries in insertion order.
func (s *Store) Serialize() (string, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"v":%d,"o":{`, Version)
	for i, p := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := ir.Marshal(ir.String(p))
		if err != nil {
			return "", err
		}
		val, err := ir.Marshal(s.entries[p])
		if err != nil {
			return "", fmt.Errorf("override %s: %w", p, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString("}}")
	return buf.String(), nil
}

// Deserialize parses a blob written by Serialize or by the older {"o":{...}}
// format. Empty text is an empty store. Anything unreadable yields an empty
// store together with a MALFORMED_PATCH error.
func Deserialize(text string) (*Store, error) {
	if strings.TrimSpace(text) == "" {
		return New(), nil
	}
	s, err := parse(text)
	if err != nil {
		return New(), diag.Malformed(err)
	}
	return s, nil
}

func parse(text string) (*Store, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	s := New()
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		switch key {
		case "v":
			var v json.Number
			if err := dec.Decode(&v); err != nil {
				return nil, fmt.Errorf("version: %w", err)
			}
			if v.String() != fmt.Sprint(Version) {
				return nil, fmt.Errorf("unsupported patch version %s", v)
			}
		case "o":
			if err := parseOverrides(dec, s); err != nil {
				return nil, err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after patch")
	}
	return s, nil
}

func parseOverrides(dec *json.Decoder, s *Store) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("overrides must be an object, got %v", tok)
	}
	for dec.More() {
		path, err := stringToken(dec)
		if err != nil {
			return err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("override %s: %w", path, err)
		}
		doc, err := ir.Unmarshal(raw)
		if err != nil {
			return fmt.Errorf("override %s: %w", path, err)
		}
		s.Set(path, doc)
	}
	return expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected key, got %v", tok)
	}
	return s, nil
}
