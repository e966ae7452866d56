package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Number("42")
	var _ Value = Bool(true)
	var _ Value = Array{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{
		"zebra":  String("z"),
		"apple":  String("a"),
		"banana": String("b"),
	}
	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestObjectSortedKeysUTF16Order(t *testing.T) {
	// U+FF61 sorts before U+1F600 in UTF-8 byte order but after it in UTF-16.
	obj := Object{"\U0001F600": Int(1), "｡": Int(2), "a": Int(3)}
	assert.Equal(t, []string{"a", "\U0001F600", "｡"}, obj.SortedKeys())
}

func TestMarshalDeterministic(t *testing.T) {
	doc := Object{
		"y": Float32(2.5),
		"x": Float32(0.1),
		"tags": Array{String("<a&b>"), Bool(false), Null{}},
	}
	out, err := Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"tags":["<a&b>",false,null],"x":0.1,"y":2.5}`, string(out))
}

func TestMarshalRejectsBadNumber(t *testing.T) {
	_, err := Marshal(Number("NaN"))
	assert.Error(t, err)
}

func TestUnmarshalKeepsNumberLiterals(t *testing.T) {
	v, err := Unmarshal([]byte(`{"f": 0.1, "i": 7, "big": 123456789012345678}`))
	require.NoError(t, err)
	obj := v.(Object)
	assert.Equal(t, Number("0.1"), obj["f"])
	assert.Equal(t, Number("7"), obj["i"])
	assert.Equal(t, Number("123456789012345678"), obj["big"])
}

func TestUnmarshalRejectsTrailingData(t *testing.T) {
	_, err := Unmarshal([]byte(`{} {}`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestFloat32RoundTrip(t *testing.T) {
	values := []float32{0, 0.1, -3.75, 1e-7, math.MaxFloat32, math.SmallestNonzeroFloat32, 16777217}
	for _, f := range values {
		n := Float32(f)
		back, err := n.Float32()
		require.NoError(t, err)
		assert.Equal(t, math.Float32bits(f), math.Float32bits(back), "value %v via %s", f, n)
	}
}

func TestNumberInt64(t *testing.T) {
	tests := []struct {
		in      Number
		want    int64
		wantErr bool
	}{
		{"5", 5, false},
		{"-12", -12, false},
		{"5.0", 5, false},
		{"1e3", 1000, false},
		{"5.5", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got, err := tt.in.Int64()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"i":    1,
		"f":    2.5,
		"n":    json.Number("3"),
		"s":    "x",
		"b":    true,
		"nil":  nil,
		"list": []any{int64(1), math.Inf(1), math.NaN(), math.Inf(-1)},
	})
	require.NoError(t, err)
	obj := v.(Object)
	assert.Equal(t, Number("1"), obj["i"])
	assert.Equal(t, Number("2.5"), obj["f"])
	assert.Equal(t, Number("3"), obj["n"])
	assert.Equal(t, String("x"), obj["s"])
	assert.Equal(t, Bool(true), obj["b"])
	assert.Equal(t, Null{}, obj["nil"])
	assert.Equal(t, Array{Number("1"), String("Infinity"), String("NaN"), String("-Infinity")}, obj["list"])

	_, err = FromAny(struct{}{})
	assert.Error(t, err)
}

func TestToAny(t *testing.T) {
	got := ToAny(Object{
		"i": Number("4"),
		"f": Number("4.5"),
		"a": Array{String("s"), Bool(true), Null{}},
	})
	assert.Equal(t, map[string]any{
		"i": int64(4),
		"f": 4.5,
		"a": []any{"s", true, nil},
	}, got)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Number("5"), Number("5.0")))
	assert.True(t, Equal(Null{}, nil))
	assert.True(t, Equal(Object{"a": Array{Int(1)}}, Object{"a": Array{Number("1")}}))
	assert.False(t, Equal(Object{"a": Int(1)}, Object{"b": Int(1)}))
	assert.False(t, Equal(Array{Int(1)}, Array{Int(1), Int(2)}))
	assert.False(t, Equal(String("1"), Number("1")))
	assert.False(t, Equal(Bool(true), Bool(false)))
}
