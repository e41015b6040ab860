package litesql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddFunctionScalar(t *testing.T) {
	var c = newTestConn(t, Config{})

	c.AddFunction("reverse", 1, true, func(args []Value) (Value, error) {
		var s, ok = args[0].TextValue()
		if !ok {
			return Null(), nil
		}
		var r = []rune(s)
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return Text(string(r)), nil
	})

	var s, err = c.SelectStatement(`SELECT reverse('abc')`)
	require.NoError(t, err)
	row, err := s.Step()
	require.NoError(t, err)
	require.True(t, row)
	require.Equal(t, Text("cba"), s.Value(0))
}

func TestFunctionArityEnforcedAtCompileTime(t *testing.T) {
	var c = newTestConn(t, Config{})

	c.AddFunction("two", 2, true, func(args []Value) (Value, error) {
		return args[0], nil
	})

	// The wrong argument count is a compile error, before any row runs.
	var _, err = c.Execute(`SELECT two(1)`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "wrong number of arguments")

	_, err = c.Execute(`SELECT two(1, 2)`)
	require.NoError(t, err)
}

func TestFunctionArityAny(t *testing.T) {
	var c = newTestConn(t, Config{})

	c.AddFunction("argc", ArityAny, true, func(args []Value) (Value, error) {
		return Integer(int64(len(args))), nil
	})

	var s, err = c.SelectStatement(`SELECT argc(), argc(1), argc(1, 2, 3)`)
	require.NoError(t, err)
	row, err := s.Step()
	require.NoError(t, err)
	require.True(t, row)
	require.Equal(t, Integer(0), s.Value(0))
	require.Equal(t, Integer(1), s.Value(1))
	require.Equal(t, Integer(3), s.Value(2))
}

func TestFunctionErrorFailsStatement(t *testing.T) {
	var c = newTestConn(t, Config{})

	c.AddFunction("boom", 0, false, func(args []Value) (Value, error) {
		return Value{}, &Error{Code: ErrConstraint, Message: "boom refused"}
	})

	var _, err = c.Execute(`SELECT boom()`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom refused")
}

func TestFunctionNullRoundTrip(t *testing.T) {
	var c = newTestConn(t, Config{})

	c.AddFunction("nothing", 0, true, func(args []Value) (Value, error) {
		return Null(), nil
	})

	var s, err = c.SelectStatement(`SELECT nothing()`)
	require.NoError(t, err)
	row, err := s.Step()
	require.NoError(t, err)
	require.True(t, row)

	var v = s.Value(0)
	require.True(t, v.IsNull())
	var _, ok = v.Int64()
	require.False(t, ok)
	_, ok = v.TextValue()
	require.False(t, ok)
	_, ok = v.BlobValue()
	require.False(t, ok)
}

func TestFunctionReceivesAllValueKinds(t *testing.T) {
	var c = newTestConn(t, Config{})

	var seen []Value
	c.AddFunction("capture", ArityAny, false, func(args []Value) (Value, error) {
		seen = append(seen[:0], args...)
		return Integer(int64(len(args))), nil
	})

	_, err := c.Execute(`SELECT capture(1, 2.5, 'x', x'ff', NULL)`)
	require.NoError(t, err)
	require.Equal(t, []Value{
		Integer(1), Double(2.5), Text("x"), Blob([]byte{0xff}), Null(),
	}, seen)
}

func TestRemoveFunction(t *testing.T) {
	var c = newTestConn(t, Config{})

	c.AddFunction("gone", 0, true, func(args []Value) (Value, error) {
		return Integer(1), nil
	})
	_, err := c.Execute(`SELECT gone()`)
	require.NoError(t, err)

	c.RemoveFunction("gone", 0)
	_, err = c.Execute(`SELECT gone()`)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "no such function"))

	// Removing an unregistered function is a no-op.
	c.RemoveFunction("gone", 0)
	c.RemoveFunction("never", 3)
}

func TestAddFunctionReplacesPriorRegistration(t *testing.T) {
	var c = newTestConn(t, Config{})

	c.AddFunction("f", 0, true, func(args []Value) (Value, error) {
		return Integer(1), nil
	})
	c.AddFunction("f", 0, true, func(args []Value) (Value, error) {
		return Integer(2), nil
	})

	var s, err = c.SelectStatement(`SELECT f()`)
	require.NoError(t, err)
	row, err := s.Step()
	require.NoError(t, err)
	require.True(t, row)
	require.Equal(t, Integer(2), s.Value(0))
}
