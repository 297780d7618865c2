package regalloc

import (
	"fmt"

	"github.com/sparcjit/sparcjit/ir"
)

// VReg represents a register which is assigned to an IR value. This is used to represent a register in the backend.
// A VReg may or may not be a physical register, and the info of physical register can be obtained by RealReg.
type VReg uint64

// VRegID is the lower 32bit of VReg, which is the pure identifier of VReg without RealReg info.
type VRegID uint32

// RealReg returns the RealReg of this VReg.
func (v VReg) RealReg() RealReg {
	return RealReg(v >> 32)
}

// IsRealReg returns true if this VReg is backed by a physical register.
func (v VReg) IsRealReg() bool {
	return v.RealReg() != RealRegInvalid
}

// FromRealReg returns a VReg from the given RealReg and RegType.
// This is used to represent a specific pre-colored register in the backend.
func FromRealReg(r RealReg, typ RegType) VReg {
	rid := VRegID(r)
	if rid > vRegIDReservedForRealNum {
		panic(fmt.Sprintf("invalid real reg %d", r))
	}
	return VReg(r).SetRealReg(r).SetRegType(typ)
}

// SetRealReg sets the RealReg of this VReg and returns the updated VReg.
func (v VReg) SetRealReg(r RealReg) VReg {
	return VReg(r)<<32 | (v & 0xff_00_ffffffff)
}

// RegType returns the RegType of this VReg.
func (v VReg) RegType() RegType {
	return RegType(v >> 40)
}

// SetRegType sets the RegType of this VReg and returns the updated VReg.
func (v VReg) SetRegType(t RegType) VReg {
	return VReg(t)<<40 | (v & 0x00_ff_ffffffff)
}

// ID returns the VRegID of this VReg.
func (v VReg) ID() VRegID {
	return VRegID(v & 0xffffffff)
}

// Valid returns true if this VReg is Valid.
func (v VReg) Valid() bool {
	return v.ID() != vRegIDInvalid && v.RegType() != RegTypeInvalid
}

// RealReg represents a physical register.
type RealReg byte

const RealRegInvalid RealReg = 0

const (
	vRegIDInvalid            VRegID = 1 << 31
	VRegIDNonReservedBegin          = vRegIDReservedForRealNum
	vRegIDReservedForRealNum VRegID = 64
	VRegInvalid                     = VReg(vRegIDInvalid)
)

// String implements fmt.Stringer.
func (r RealReg) String() string {
	switch r {
	case RealRegInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("r%d", r)
	}
}

// String implements fmt.Stringer.
func (v VReg) String() string {
	if v.IsRealReg() {
		return fmt.Sprintf("r%d", v.ID())
	}
	return fmt.Sprintf("v%d?", v.ID())
}

// RegType represents the storage class of a register.
type RegType byte

const (
	RegTypeInvalid RegType = iota
	RegTypeInt
	RegTypeF32
	RegTypeF64
	RegTypeF128
	NumRegType
)

// String implements fmt.Stringer.
func (r RegType) String() string {
	switch r {
	case RegTypeInt:
		return "int"
	case RegTypeF32:
		return "f32"
	case RegTypeF64:
		return "f64"
	case RegTypeF128:
		return "f128"
	default:
		return "invalid"
	}
}

// IsFloat returns true for the floating point classes.
func (r RegType) IsFloat() bool {
	return r >= RegTypeF32 && r <= RegTypeF128
}

// Size returns the number of bytes a register of this class holds.
func (r RegType) Size() int {
	switch r {
	case RegTypeInt, RegTypeF64:
		return 8
	case RegTypeF32:
		return 4
	case RegTypeF128:
		return 16
	}
	panic(fmt.Sprintf("BUG: size of %s", r))
}

// RegTypeOf returns the RegType of the given ir.Type. I128 values live in a pair of int registers.
func RegTypeOf(p ir.Type) RegType {
	switch p {
	case ir.TypeI1, ir.TypeI8, ir.TypeI16, ir.TypeI32, ir.TypeI64, ir.TypeI128:
		return RegTypeInt
	case ir.TypeF32:
		return RegTypeF32
	case ir.TypeF64:
		return RegTypeF64
	case ir.TypeF128:
		return RegTypeF128
	default:
		panic("invalid type")
	}
}
