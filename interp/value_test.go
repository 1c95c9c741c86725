package interp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArithPromotionToFloat(t *testing.T) {
	r, err := arith('+', NumI32(2), NumF64(0.5))
	require.NoError(t, err)
	require.Equal(t, KindFloat, r.Kind)
	require.Equal(t, 2.5, r.F64)
}

func TestArithInt32Overflow(t *testing.T) {
	_, err := arith('+', NumI32(2147483647), NumI32(1))
	require.Error(t, err)
	be, ok := err.(*BasicError)
	require.True(t, ok)
	require.Equal(t, ErrNumberTooBig, be.Kind)
}

func TestArithDivByZero(t *testing.T) {
	_, err := arith('/', NumI32(1), NumI32(0))
	require.Error(t, err)
	be, ok := err.(*BasicError)
	require.True(t, ok)
	require.Equal(t, ErrDivByZero, be.Kind)
}

func TestCompareNumbersMixedIntFloat(t *testing.T) {
	require.Equal(t, 0, compareNumbers(NumI32(2), NumF64(2.0)))
	require.Equal(t, -1, compareNumbers(NumI32(1), NumF64(1.5)))
	require.Equal(t, 1, compareNumbers(NumF64(3.5), NumI64(3)))
}

func TestToInt32RangeCheck(t *testing.T) {
	_, err := ToInt32(2147483648)
	require.Error(t, err)
	v, err := ToInt32(-2147483648)
	require.NoError(t, err)
	require.Equal(t, int32(-2147483648), v)
}

func TestPromoteOrder(t *testing.T) {
	require.Equal(t, KindInt64, promote(KindInt32, KindInt64))
	require.Equal(t, KindFloat, promote(KindFloat, KindUint8))
	require.Equal(t, KindInt32, promote(KindInt32, KindUint8))
}
