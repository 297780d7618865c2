package sparc64

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
)

const (
	simm10Bits = 10
	simm13Bits = 13
	simm13Mask = 0x1FFF
	simm10Mask = 0x3FF
)

// fitsSigned returns true if v is representable as a bits-wide two's complement integer.
func fitsSigned[T constraints.Integer](v T, bits uint) bool {
	x := int64(v)
	return x >= -(int64(1)<<(bits-1)) && x <= int64(1)<<(bits-1)-1
}

// fitsUnsigned returns true if v is representable as a bits-wide unsigned integer.
func fitsUnsigned[T constraints.Integer](v T, bits uint) bool {
	return uint64(v)&^(uint64(1)<<bits-1) == 0
}

func fitsSimm13[T constraints.Integer](v T) bool { return fitsSigned(v, simm13Bits) }

type addressModeKind byte

const (
	// addressModeKindIR is [rn + simm13].
	addressModeKindIR addressModeKind = iota
	// addressModeKindRR is [rn + rm].
	addressModeKindRR
)

// addressMode is the memory operand of loads and stores.
type addressMode struct {
	kind   addressModeKind
	rn, rm regalloc.VReg
	imm    int64
}

func amodeIR(imm int64, base regalloc.VReg) addressMode {
	if !fitsSimm13(imm) {
		panic(fmt.Sprintf("BUG: address offset %d does not fit in 13 bits", imm))
	}
	if base.RegType() != regalloc.RegTypeInt {
		panic(fmt.Sprintf("BUG: address base %s is not an integer register", formatVReg(base)))
	}
	return addressMode{kind: addressModeKindIR, rn: base, imm: imm}
}

func amodeRR(base, index regalloc.VReg) addressMode {
	if base.RegType() != regalloc.RegTypeInt || index.RegType() != regalloc.RegTypeInt {
		panic(fmt.Sprintf("BUG: address registers %s, %s are not integer registers", formatVReg(base), formatVReg(index)))
	}
	return addressMode{kind: addressModeKindRR, rn: base, rm: index}
}

// guestAMode addresses the guest state at off.
func guestAMode(off int32) addressMode {
	return amodeIR(int64(off), gsPtrVReg)
}

func (a *addressMode) regUsage(u *regalloc.RegUsage) {
	u.Read(a.rn)
	if a.kind == addressModeKindRR {
		u.Read(a.rm)
	}
}

func (a *addressMode) mapRegs(f func(regalloc.VReg) regalloc.VReg) {
	a.rn = f(a.rn)
	if a.kind == addressModeKindRR {
		a.rm = f(a.rm)
	}
}

// String implements fmt.Stringer.
func (a addressMode) String() string {
	if a.kind == addressModeKindRR {
		return fmt.Sprintf("[%s+%s]", formatVReg(a.rn), formatVReg(a.rm))
	}
	if a.imm < 0 {
		return fmt.Sprintf("[%s%d]", formatVReg(a.rn), a.imm)
	}
	return fmt.Sprintf("[%s+%d]", formatVReg(a.rn), a.imm)
}

type operandKind byte

const (
	operandKindNone operandKind = iota
	operandKindReg
	operandKindImm
)

// operand is the register-or-immediate second source of ALU, shift and move instructions.
type operand struct {
	kind operandKind
	reg  regalloc.VReg
	imm  int64
}

func operandReg(r regalloc.VReg) operand {
	return operand{kind: operandKindReg, reg: r}
}

func operandImm(v int64) operand {
	return operand{kind: operandKindImm, imm: v}
}

func (o operand) isImm() bool { return o.kind == operandKindImm }

func (o operand) isReg(r regalloc.VReg) bool {
	return o.kind == operandKindReg && o.reg == r
}

func (o *operand) regUsage(u *regalloc.RegUsage) {
	if o.kind == operandKindReg {
		u.Read(o.reg)
	}
}

func (o *operand) mapRegs(f func(regalloc.VReg) regalloc.VReg) {
	if o.kind == operandKindReg {
		o.reg = f(o.reg)
	}
}

// String implements fmt.Stringer.
func (o operand) String() string {
	switch o.kind {
	case operandKindReg:
		return formatVReg(o.reg)
	case operandKindImm:
		return fmt.Sprintf("%d", o.imm)
	}
	return "-"
}
