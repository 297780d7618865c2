package ir

import "fmt"

// Type is the type of an IR value.
type Type byte

const (
	TypeInvalid Type = iota
	TypeI1
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeI128
	TypeF32
	TypeF64
	TypeF128
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case TypeI1:
		return "i1"
	case TypeI8:
		return "i8"
	case TypeI16:
		return "i16"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeI128:
		return "i128"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	case TypeF128:
		return "f128"
	}
	return "invalid"
}

// Size returns the size of the type in bytes. I1 is reported as one byte.
func (t Type) Size() int {
	switch t {
	case TypeI1, TypeI8:
		return 1
	case TypeI16:
		return 2
	case TypeI32, TypeF32:
		return 4
	case TypeI64, TypeF64:
		return 8
	case TypeI128, TypeF128:
		return 16
	}
	panic(fmt.Sprintf("BUG: size of %s", t))
}

// IsInt returns true if the type is held in integer registers.
func (t Type) IsInt() bool {
	return t >= TypeI1 && t <= TypeI128
}

// IsFloat returns true if the type is held in floating point registers.
func (t Type) IsFloat() bool {
	return t >= TypeF32 && t <= TypeF128
}

// Endness is the byte order of a memory access.
type Endness byte

const (
	EndBE Endness = iota
	EndLE
)

// String implements fmt.Stringer.
func (e Endness) String() string {
	if e == EndLE {
		return "le"
	}
	return "be"
}

// Tmp is a single-assignment temporary of an SB.
type Tmp uint32

// TmpInvalid is the zero-assignment marker used where a statement has no result temporary.
const TmpInvalid = ^Tmp(0)

// String implements fmt.Stringer.
func (t Tmp) String() string {
	if t == TmpInvalid {
		return "t_invalid"
	}
	return fmt.Sprintf("t%d", t)
}

// Const is a literal. Bits holds the raw bit pattern; floating point constants
// carry their IEEE754 encoding.
type Const struct {
	Type Type
	Bits uint64
}

// String implements fmt.Stringer.
func (c Const) String() string {
	switch c.Type {
	case TypeI1:
		if c.Bits != 0 {
			return "1:i1"
		}
		return "0:i1"
	case TypeF32, TypeF64:
		return fmt.Sprintf("%#x:%s(bits)", c.Bits, c.Type)
	}
	return fmt.Sprintf("%#x:%s", c.Bits, c.Type)
}
