package sparc64

import (
	"fmt"

	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
	"github.com/sparcjit/sparcjit/ir"
)

// intCmpConds maps the comparisons selectable as a single subcc to the condition they leave on %xcc.
var intCmpConds = map[ir.Op]condCode{
	ir.OpCmpEQ8: condE, ir.OpCasCmpEQ8: condE, ir.OpCmpNE8: condNE, ir.OpCasCmpNE8: condNE,
	ir.OpCmpEQ32: condE, ir.OpCasCmpEQ32: condE, ir.OpCmpNE32: condNE, ir.OpCasCmpNE32: condNE,
	ir.OpCmpLT32S: condL, ir.OpCmpLT32U: condCS, ir.OpCmpLE32S: condLE, ir.OpCmpLE32U: condLEU,
	ir.OpCmpEQ64: condE, ir.OpCasCmpEQ64: condE, ir.OpCmpNE64: condNE, ir.OpCasCmpNE64: condNE,
	ir.OpCmpLT64S: condL, ir.OpCmpLT64U: condCS, ir.OpCmpLE64S: condLE, ir.OpCmpLE64U: condLEU,
}

// lowerCond sets the condition codes for the boolean expression e and returns the condition which holds when e
// is true. Nothing selected after it may touch %ccr before the condition is consumed, so operands of the
// consumer must be computed first.
func (m *Machine) lowerCond(e *ir.Expr) condCode {
	if ty := m.sb.TypeOf(e); ty != ir.TypeI1 {
		panic(fmt.Sprintf("BUG: condition %s has type %s", e, ty))
	}

	switch e.Kind {
	case ir.ExprRdTmp:
		m.insertAndcc(m.vregs[e.Tmp], operandImm(1))
		return condNE
	case ir.ExprConst:
		// Neither needs a flag setting instruction.
		if e.Con.Bits&1 != 0 {
			return condA
		}
		return condN
	case ir.ExprUnop:
		switch e.Op {
		case ir.OpNot1:
			c := m.lowerCond(e.Args[0])
			switch c {
			case condA:
				return condN
			case condN:
				return condA
			}
			return c.invert()
		case ir.Op64to1, ir.Op32to1:
			m.insertAndcc(m.lowerExpr(e.Args[0]), operandImm(1))
			return condNE
		case ir.OpCmpNEZ8:
			m.insertAndcc(m.lowerExpr(e.Args[0]), operandImm(0xFF))
			return condNE
		case ir.OpCmpNEZ32:
			src := m.lowerExpr(e.Args[0])
			m.insertAndcc(src, m.lowerImm(0xFFFFFFFF, simm13Bits, true))
			return condNE
		case ir.OpCmpNEZ64:
			m.insertSubcc(m.lowerExpr(e.Args[0]), operandReg(g0VReg))
			return condNE
		}
	case ir.ExprBinop:
		if c, ok := intCmpConds[e.Op]; ok {
			m.lowerIntCmp(e)
			return c
		}
	}

	// Anything else is materialized as 0 or 1 and tested.
	m.insertAndcc(m.lowerExpr(e), operandImm(1))
	return condNE
}

// lowerIntCmp emits the subcc comparing the operands of the binary comparison e. Narrow operands are
// normalized first: the signed 32-bit comparisons sign extend, every other narrow one zero extends.
func (m *Machine) lowerIntCmp(e *ir.Expr) {
	switch e.Op {
	case ir.OpCmpEQ8, ir.OpCasCmpEQ8, ir.OpCmpNE8, ir.OpCasCmpNE8:
		l := m.zeroExtend(m.lowerExpr(e.Args[0]), 8)
		r := m.zeroExtend(m.lowerExpr(e.Args[1]), 8)
		m.insertSubcc(l, operandReg(r))
	case ir.OpCmpEQ32, ir.OpCasCmpEQ32, ir.OpCmpNE32, ir.OpCasCmpNE32, ir.OpCmpLT32U, ir.OpCmpLE32U:
		l := m.zeroExtend(m.lowerExpr(e.Args[0]), 32)
		r := m.zeroExtend(m.lowerExpr(e.Args[1]), 32)
		m.insertSubcc(l, operandReg(r))
	case ir.OpCmpLT32S, ir.OpCmpLE32S:
		l := m.signExtend32(m.lowerExpr(e.Args[0]))
		r := m.signExtend32(m.lowerExpr(e.Args[1]))
		m.insertSubcc(l, operandReg(r))
	default:
		l := m.lowerExpr(e.Args[0])
		m.insertSubcc(l, m.getOperandSimm13(e.Args[1]))
	}
}

// lowerIntCmpValue materializes the comparison e as 0 or 1.
func (m *Machine) lowerIntCmpValue(e *ir.Expr) regalloc.VReg {
	m.lowerIntCmp(e)
	return m.materializeCond(intCmpConds[e.Op])
}

// materializeCond returns a new register holding 1 if c holds on %xcc and 0 otherwise.
func (m *Machine) materializeCond(c condCode) regalloc.VReg {
	dst := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asALU(aluOpOr, dst, g0VReg, operandImm(1)))
	m.insert(m.allocateInstr().asMoveCond(c.invert(), dst, g0VReg))
	return dst
}

func (m *Machine) insertSubcc(l regalloc.VReg, r operand) {
	m.insert(m.allocateInstr().asALU(aluOpSubcc, g0VReg, l, r))
}

func (m *Machine) insertAndcc(l regalloc.VReg, r operand) {
	m.insert(m.allocateInstr().asALU(aluOpAndcc, g0VReg, l, r))
}

// zeroExtend returns a new register holding the low bits of src.
func (m *Machine) zeroExtend(src regalloc.VReg, bits byte) regalloc.VReg {
	dst := m.newVReg(regalloc.RegTypeInt)
	switch bits {
	case 8:
		m.insert(m.allocateInstr().asALU(aluOpAnd, dst, src, operandImm(0xFF)))
	case 16:
		m.insert(m.allocateInstr().asShift(shiftOpSllx, dst, src, operandImm(48)))
		m.insert(m.allocateInstr().asShift(shiftOpSrlx, dst, dst, operandImm(48)))
	case 32:
		// srl by zero clears the upper word.
		m.insert(m.allocateInstr().asShift(shiftOpSrl, dst, src, operandImm(0)))
	default:
		panic(fmt.Sprintf("BUG: zero extension of %d bits", bits))
	}
	return dst
}

// signExtend32 returns a new register holding the low word of src sign extended.
func (m *Machine) signExtend32(src regalloc.VReg) regalloc.VReg {
	dst := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asShift(shiftOpSra, dst, src, operandImm(0)))
	return dst
}

// signExtendFrom returns a new register holding the low bits of src sign extended to 64 bits.
func (m *Machine) signExtendFrom(src regalloc.VReg, bits int64) regalloc.VReg {
	dst := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asShift(shiftOpSllx, dst, src, operandImm(64-bits)))
	m.insert(m.allocateInstr().asShift(shiftOpSrax, dst, dst, operandImm(64-bits)))
	return dst
}
