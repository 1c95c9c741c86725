package interp

import "math"

// Kind discriminates the eight value-bearing shapes a Value Stack frame
// can hold (spec §3).
type Kind byte

const (
	KindUint8 Kind = iota
	KindInt32
	KindInt64
	KindFloat
	KindStringRef  // payload borrowed from a variable/array
	KindStringTemp // payload owned by the stack frame
	KindArrayRef
	KindArrayTemp
)

func (k Kind) String() string {
	switch k {
	case KindUint8:
		return "uint8"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat:
		return "float"
	case KindStringRef:
		return "string-ref"
	case KindStringTemp:
		return "string-temp"
	case KindArrayRef:
		return "array-ref"
	case KindArrayTemp:
		return "array-temp"
	default:
		return "?kind?"
	}
}

// IsInteger reports whether the kind pops as "any integer" (§3).
func (k Kind) IsInteger() bool {
	return k == KindUint8 || k == KindInt32 || k == KindInt64
}

// IsNumeric reports whether the kind pops as "any numeric" (§3).
func (k Kind) IsNumeric() bool {
	return k.IsInteger() || k == KindFloat
}

func (k Kind) IsString() bool {
	return k == KindStringRef || k == KindStringTemp
}

func (k Kind) IsArray() bool {
	return k == KindArrayRef || k == KindArrayTemp
}

// promote returns the wider of two numeric kinds, following the order
// uint8 < int32 < int64 < float (§3).
func promote(a, b Kind) Kind {
	order := func(k Kind) int {
		switch k {
		case KindUint8:
			return 0
		case KindInt32:
			return 1
		case KindInt64:
			return 2
		case KindFloat:
			return 3
		default:
			return -1
		}
	}
	if order(a) >= order(b) {
		return a
	}
	return b
}

// StringDesc is a string descriptor: a length plus a payload pointer
// (spec §3). Payload is either a freshly allocated copy or the shared
// empty-string literal.
type StringDesc struct {
	Length  int
	Payload []byte
}

var emptyStringPayload = []byte{}

func emptyString() StringDesc {
	return StringDesc{Length: 0, Payload: emptyStringPayload}
}

// Number is a tagged numeric value used by the expression evaluator and
// by anything that needs to carry a typed numeric without going through
// the byte-oriented Value Stack frames.
type Number struct {
	Kind  Kind
	U8    uint8
	I32   int32
	I64   int64
	F64   float64
}

func NumU8(v uint8) Number  { return Number{Kind: KindUint8, U8: v} }
func NumI32(v int32) Number { return Number{Kind: KindInt32, I32: v} }
func NumI64(v int64) Number { return Number{Kind: KindInt64, I64: v} }
func NumF64(v float64) Number { return Number{Kind: KindFloat, F64: v} }

// AsFloat widens any numeric Number to float64.
func (n Number) AsFloat() float64 {
	switch n.Kind {
	case KindUint8:
		return float64(n.U8)
	case KindInt32:
		return float64(n.I32)
	case KindInt64:
		return float64(n.I64)
	case KindFloat:
		return n.F64
	default:
		return 0
	}
}

// AsInt64 widens any numeric Number to int64, truncating floats.
func (n Number) AsInt64() int64 {
	switch n.Kind {
	case KindUint8:
		return int64(n.U8)
	case KindInt32:
		return int64(n.I32)
	case KindInt64:
		return n.I64
	case KindFloat:
		return int64(n.F64)
	default:
		return 0
	}
}

// Truthy follows the expression-value convention: 0 = false, anything
// else = true (§4.6).
func (n Number) Truthy() bool {
	switch n.Kind {
	case KindFloat:
		return n.F64 != 0
	default:
		return n.AsInt64() != 0
	}
}

// ToInt32 performs the float->int32 range check of §4.7.
func ToInt32(f float64) (int32, error) {
	if f < -2147483648 || f >= 2147483648 {
		return 0, newBasicError(ErrNumberTooBig, "")
	}
	return int32(f), nil
}

// ToInt64 performs the float->int64 range check of §4.7, reconciling
// sign against the truncated value per spec.
func ToInt64(f float64) (int64, error) {
	if f <= -9223372036854775808.0 || f >= 9223372036854775808.0 {
		return 0, newBasicError(ErrNumberTooBig, "")
	}
	i := int64(f)
	if (f < 0) != (i < 0) && i != 0 {
		return 0, newBasicError(ErrNumberTooBig, "")
	}
	return i, nil
}

// promoteBinary applies the promotion rule to a pair of Numbers and
// returns both operands widened to the common kind.
func promoteBinary(a, b Number) (Kind, float64, float64, int64, int64) {
	k := promote(a.Kind, b.Kind)
	return k, a.AsFloat(), b.AsFloat(), a.AsInt64(), b.AsInt64()
}

// arith applies one of the four basic arithmetic operators with BASIC's
// promotion and overflow rules.
func arith(op byte, a, b Number) (Number, error) {
	k, af, bf, ai, bi := promoteBinary(a, b)
	if k == KindFloat {
		var r float64
		switch op {
		case '+':
			r = af + bf
		case '-':
			r = af - bf
		case '*':
			r = af * bf
		case '/':
			if bf == 0 {
				return Number{}, newBasicError(ErrDivByZero, "")
			}
			r = af / bf
		}
		return NumF64(r), nil
	}

	var r int64
	switch op {
	case '+':
		r = ai + bi
	case '-':
		r = ai - bi
	case '*':
		r = ai * bi
	case '/':
		if bi == 0 {
			return Number{}, newBasicError(ErrDivByZero, "")
		}
		r = ai / bi
	case '%':
		if bi == 0 {
			return Number{}, newBasicError(ErrDivByZero, "")
		}
		r = ai % bi
	}

	switch k {
	case KindUint8:
		if r < 0 || r > 255 {
			return Number{}, newBasicError(ErrNumberTooBig, "")
		}
		return NumU8(uint8(r)), nil
	case KindInt32:
		if r < math.MinInt32 || r > math.MaxInt32 {
			return Number{}, newBasicError(ErrNumberTooBig, "")
		}
		return NumI32(int32(r)), nil
	default:
		return NumI64(r), nil
	}
}

// compareNumbers implements the ordering used by relational operators
// and by CASE's integer-vs-integer / integer-vs-float comparisons.
func compareNumbers(a, b Number) int {
	if a.Kind == KindFloat || b.Kind == KindFloat {
		af, bf := a.AsFloat(), b.AsFloat()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	ai, bi := a.AsInt64(), b.AsInt64()
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	default:
		return 0
	}
}
