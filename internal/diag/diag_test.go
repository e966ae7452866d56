package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type kindName string

func (k kindName) String() string { return string(k) }

func TestErrorFormatting(t *testing.T) {
	err := Unsupported("items.Array.data[0]", kindName("generic"), "")
	assert.Equal(t, "UNSUPPORTED_FIELD_KIND: generic is not handled (path=items.Array.data[0])", err.Error())

	err = Stale("speed", "Goblin", nil)
	assert.Equal(t, "STALE_OVERRIDE_PATH: speed no longer exists in Goblin (path=speed)", err.Error())

	err = Unresolved("missing-id", "origin not found", nil)
	assert.Equal(t, "UNRESOLVED_ORIGIN: origin not found (origin=missing-id)", err.Error())

	err = Malformed(errors.New("unexpected EOF"))
	assert.Equal(t, "MALFORMED_PATCH: patch could not be parsed, treating as empty: unexpected EOF", err.Error())
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("materialize: %w", Unresolved("x", "gone", nil))
	assert.True(t, IsUnresolved(wrapped))
	assert.False(t, IsStale(wrapped))
	assert.False(t, IsMalformed(wrapped))
	assert.False(t, IsUnsupported(wrapped))

	assert.True(t, IsStale(Stale("a", "b", nil)))
	assert.True(t, IsMalformed(Malformed(nil)))
	assert.True(t, IsUnsupported(Unsupported("a", kindName("k"), "why")))
}

func TestCodeOfPlainError(t *testing.T) {
	_, ok := CodeOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk")
	err := Unresolved("id", "cannot load", cause)
	assert.ErrorIs(t, err, cause)
}

func TestAtQualifiesPath(t *testing.T) {
	err := At(Unsupported("", kindName("generic"), ""), "stats")
	var de *Error
	assert.ErrorAs(t, err, &de)
	assert.Equal(t, "stats", de.Path)

	already := Stale("a", "obj", nil)
	assert.Same(t, already, At(already, "b"))

	plain := errors.New("plain")
	assert.Equal(t, plain, At(plain, "x"))
}
