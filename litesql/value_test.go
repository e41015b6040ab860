package litesql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueOfConversions(t *testing.T) {
	var cases = []struct {
		in   interface{}
		want Value
	}{
		{nil, Null()},
		{int(42), Integer(42)},
		{int64(-7), Integer(-7)},
		{uint32(9), Integer(9)},
		{3.5, Double(3.5)},
		{float32(0.5), Double(0.5)},
		{true, Integer(1)},
		{false, Integer(0)},
		{"hi", Text("hi")},
		{[]byte{1, 2}, Blob([]byte{1, 2})},
		{Integer(11), Integer(11)},
	}
	for _, tc := range cases {
		var got, err = ValueOf(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}

	var _, err = ValueOf(struct{}{})
	require.Error(t, err)
	require.Equal(t, ErrMismatch, err.(*Error).Code)
}

func TestValueAccessors(t *testing.T) {
	var i, ok = Integer(5).Int64()
	require.True(t, ok)
	require.Equal(t, int64(5), i)

	// INTEGER widens to DOUBLE, but not the reverse.
	f, ok := Integer(5).Float64()
	require.True(t, ok)
	require.Equal(t, 5.0, f)
	_, ok = Double(5.0).Int64()
	require.False(t, ok)

	s, ok := Text("abc").TextValue()
	require.True(t, ok)
	require.Equal(t, "abc", s)

	b, ok := Blob([]byte("xy")).BlobValue()
	require.True(t, ok)
	require.Equal(t, []byte("xy"), b)

	require.True(t, Null().IsNull())
	_, ok = Null().Int64()
	require.False(t, ok)
	_, ok = Null().TextValue()
	require.False(t, ok)
}

func TestBlobCopiesInput(t *testing.T) {
	var src = []byte{1, 2, 3}
	var v = Blob(src)
	src[0] = 9

	var b, _ = v.BlobValue()
	require.Equal(t, []byte{1, 2, 3}, b)
}

func TestDecode(t *testing.T) {
	var i int64
	require.NoError(t, Integer(7).Decode(&i))
	require.Equal(t, int64(7), i)

	var s string
	require.NoError(t, Text("x").Decode(&s))
	require.Equal(t, "x", s)

	var f float64
	require.NoError(t, Integer(2).Decode(&f))
	require.Equal(t, 2.0, f)

	var b bool
	require.NoError(t, Integer(1).Decode(&b))
	require.True(t, b)

	var any interface{}
	require.NoError(t, Null().Decode(&any))
	require.Nil(t, any)

	// Pointer-to-pointer forms carry NULL as nil.
	var opt *int64
	require.NoError(t, Integer(3).Decode(&opt))
	require.NotNil(t, opt)
	require.Equal(t, int64(3), *opt)
	require.NoError(t, Null().Decode(&opt))
	require.Nil(t, opt)

	// Kind mismatches fail rather than coerce.
	var err = Text("nope").Decode(&i)
	require.Error(t, err)
	require.Equal(t, ErrMismatch, err.(*Error).Code)

	err = Null().Decode(&s)
	require.Error(t, err)
	require.Equal(t, ErrMismatch, err.(*Error).Code)
}
