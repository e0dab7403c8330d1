package value_test

import (
	"testing"

	"github.com/ember-lang/ember/lang/value"
	"github.com/stretchr/testify/require"
)

func TestNumRoundtrip(t *testing.T) {
	for _, n := range []float64{0, -0.0, 1, -1, 3.1415, 1e300, -1e-300} {
		v := value.Num(n)
		require.True(t, v.IsNum())
		require.Equal(t, n, v.Num())
	}
}

func TestPrimitives(t *testing.T) {
	require.True(t, value.Nil.IsPrim())
	require.Equal(t, value.PrimNil, value.Nil.Prim())
	require.False(t, value.Nil.Truth())

	require.True(t, value.False.IsPrim())
	require.False(t, value.False.Truth())

	require.True(t, value.True.IsPrim())
	require.True(t, value.True.Truth())
}

func TestBool(t *testing.T) {
	require.Equal(t, value.True, value.Bool(true))
	require.Equal(t, value.False, value.Bool(false))
}

func TestTruthOfNumbers(t *testing.T) {
	require.True(t, value.Num(0).Truth())
	require.True(t, value.Num(-1).Truth())
}

func TestFnAndNative(t *testing.T) {
	f := value.Fn(42)
	require.True(t, f.IsFn())
	require.False(t, f.IsNative())
	require.Equal(t, uint16(42), f.Index())

	n := value.Native(7)
	require.True(t, n.IsNative())
	require.False(t, n.IsFn())
	require.Equal(t, uint16(7), n.Index())
}

func TestIs(t *testing.T) {
	require.True(t, value.Num(1).Is(value.Num(1)))
	require.True(t, value.Nil.Is(value.Nil))
	require.False(t, value.Nil.Is(value.False))
}

func TestString(t *testing.T) {
	require.Equal(t, "nil", value.Nil.String())
	require.Equal(t, "true", value.True.String())
	require.Equal(t, "false", value.False.String())
	require.Equal(t, "42", value.Num(42).String())
	require.Equal(t, "3.1415", value.Num(3.1415).String())
}
