package sparc64

import (
	"fmt"

	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
	"github.com/sparcjit/sparcjit/ir"
)

// asiPrimaryLittle is the address space of little-endian accesses to the primary context.
const asiPrimaryLittle = 0x88

// constBits returns the value of the literal c zero extended to 64 bits.
func constBits(c ir.Const) uint64 {
	switch c.Type {
	case ir.TypeI1:
		return c.Bits & 1
	case ir.TypeI8:
		return c.Bits & 0xFF
	case ir.TypeI16:
		return c.Bits & 0xFFFF
	case ir.TypeI32:
		return c.Bits & 0xFFFFFFFF
	case ir.TypeI64:
		return c.Bits
	}
	panic(fmt.Sprintf("sparc64: unsupported literal %s", c))
}

// constSext returns the value of the literal c sign extended to 64 bits.
func constSext(c ir.Const) uint64 {
	switch c.Type {
	case ir.TypeI1:
		return c.Bits & 1
	case ir.TypeI8:
		return uint64(int64(int8(c.Bits)))
	case ir.TypeI16:
		return uint64(int64(int16(c.Bits)))
	case ir.TypeI32:
		return uint64(int64(int32(c.Bits)))
	case ir.TypeI64:
		return c.Bits
	}
	panic(fmt.Sprintf("sparc64: unsupported literal %s", c))
}

// lowerConstant materializes the literal e into a new register.
func (m *Machine) lowerConstant(e *ir.Expr) regalloc.VReg {
	dst := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asLoadImm(dst, constSext(e.Con)))
	return dst
}

// lowerImm returns v as an immediate operand if it fits in bits, signed or not, and in a register otherwise.
func (m *Machine) lowerImm(v uint64, bits uint, signed bool) operand {
	if signed && fitsSigned(int64(v), bits) {
		return operandImm(int64(v))
	}
	if !signed && fitsUnsigned(v, bits) {
		return operandImm(int64(v))
	}
	tmp := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asLoadImm(tmp, v))
	return operandReg(tmp)
}

// getOperand returns e as the register-or-immediate operand of an instruction taking immediates of the given
// width.
func (m *Machine) getOperand(e *ir.Expr, bits uint, signed bool) operand {
	if e.Kind == ir.ExprConst {
		if e.Con.Type == ir.TypeI8 {
			return operandImm(int64(constBits(e.Con)))
		}
		return m.lowerImm(constBits(e.Con), bits, signed)
	}
	return operandReg(m.lowerExpr(e))
}

func (m *Machine) getOperandSimm13(e *ir.Expr) operand {
	return m.getOperand(e, simm13Bits, true)
}

// lowerToAddressMode returns the address mode of the memory operand at addr. Add64 of a small literal folds into
// the displacement, Add64 of two registers into the register+register form.
func (m *Machine) lowerToAddressMode(addr *ir.Expr) addressMode {
	if addr.IsBinop(ir.OpAdd64) {
		if c, ok := addr.Args[1].IsConstU64(); ok {
			if fitsSimm13(int64(c)) {
				return amodeIR(int64(c), m.lowerExpr(addr.Args[0]))
			}
		} else {
			return amodeRR(m.lowerExpr(addr.Args[0]), m.lowerExpr(addr.Args[1]))
		}
	}
	return amodeIR(0, m.lowerExpr(addr))
}

// toRR rewrites a register+immediate address mode into the register+register form.
func (m *Machine) toRR(a addressMode) addressMode {
	if a.kind == addressModeKindRR {
		return a
	}
	if a.imm == 0 {
		return amodeRR(a.rn, g0VReg)
	}
	idx := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asLoadImm(idx, uint64(a.imm)))
	return amodeRR(a.rn, idx)
}

// toIR rewrites a register+register address mode into the register+immediate form.
func (m *Machine) toIR(a addressMode) addressMode {
	if a.kind == addressModeKindIR {
		return a
	}
	base := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asALU(aluOpAdd, base, a.rn, operandReg(a.rm)))
	return amodeIR(0, base)
}

func (m *Machine) insertLoadStore(store bool, size byte, reg regalloc.VReg, amode addressMode, asi asiOperand) {
	i := m.allocateInstr()
	if store {
		i.asStore(size, reg, amode, asi)
	} else {
		i.asLoad(size, reg, amode, asi)
	}
	m.insert(i)
}

// lowerLoadStore emits a load of ty from addr into reg, or a store of reg to addr. A literal address space is
// encoded in the instruction, which requires the register+register form. Any other address space expression is
// written into %asi around the access, whose previous value is restored afterwards.
func (m *Machine) lowerLoadStore(store bool, reg regalloc.VReg, ty ir.Type, end ir.Endness, addr, asiExpr *ir.Expr) {
	size := byte(ty.Size())
	if end == ir.EndLE {
		if asiExpr != nil || !ty.IsInt() {
			panic(fmt.Sprintf("sparc64: little-endian %s access with address space %v", ty, asiExpr))
		}
		m.insertLoadStore(store, size, reg, m.toRR(m.lowerToAddressMode(addr)), asiOperand{kind: asiImm, imm: asiPrimaryLittle})
		return
	}

	amode := m.lowerToAddressMode(addr)
	if asiExpr == nil {
		m.insertLoadStore(store, size, reg, amode, asiOperand{})
		return
	}

	if asiExpr.Kind == ir.ExprConst && fitsUnsigned(constBits(asiExpr.Con), 8) {
		m.insertLoadStore(store, size, reg, m.toRR(amode), asiOperand{kind: asiImm, imm: uint8(constBits(asiExpr.Con))})
		return
	}

	amode = m.toIR(amode)
	asi := m.getOperandSimm13(asiExpr)
	saved := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asReadASR(asrASI, saved))
	m.insert(m.allocateInstr().asWriteASR(asrASI, g0VReg, asi))
	m.insertLoadStore(store, size, reg, amode, asiOperand{kind: asiImplicit})
	m.insert(m.allocateInstr().asWriteASR(asrASI, g0VReg, operandReg(saved)))
}

// lowerGet loads the guest state at off into a new register of type ty.
func (m *Machine) lowerGet(off int32, ty ir.Type) regalloc.VReg {
	dst := m.newVReg(regalloc.RegTypeOf(ty))
	m.insert(m.allocateInstr().asLoad(byte(ty.Size()), dst, guestAMode(off), asiOperand{}))
	return dst
}

// lowerPut stores src into the guest state at off.
func (m *Machine) lowerPut(off int32, src regalloc.VReg, ty ir.Type) {
	m.insert(m.allocateInstr().asStore(byte(ty.Size()), src, guestAMode(off), asiOperand{}))
}
