package sparc64

import (
	"fmt"

	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
	"github.com/sparcjit/sparcjit/internal/engine/jitapi"
	"github.com/sparcjit/sparcjit/ir"
)

// lowerExpr selects the instructions computing e and returns the register holding its value. 128-bit values go
// through lowerExpr128 instead.
func (m *Machine) lowerExpr(e *ir.Expr) regalloc.VReg {
	if ty := m.sb.TypeOf(e); ty == ir.TypeI128 {
		panic(fmt.Sprintf("BUG: %s is a 128-bit value", e))
	}

	switch e.Kind {
	case ir.ExprRdTmp:
		return m.vregs[e.Tmp]
	case ir.ExprConst:
		return m.lowerConstant(e)
	case ir.ExprGet:
		return m.lowerGet(e.Offset, e.Ty)
	case ir.ExprGSPtr:
		return gsPtrVReg
	case ir.ExprLoad:
		dst := m.newVReg(regalloc.RegTypeOf(e.Ty))
		m.lowerLoadStore(false, dst, e.Ty, e.End, e.Addr, e.ASI)
		return dst
	case ir.ExprUnop:
		if v, ok := m.lowerFpUnop(e); ok {
			return v
		}
		return m.lowerUnop(e)
	case ir.ExprBinop:
		if v, ok := m.lowerFpBinop(e); ok {
			return v
		}
		return m.lowerBinop(e)
	case ir.ExprTriop:
		return m.lowerTriop(e)
	case ir.ExprQop:
		return m.lowerQop(e)
	case ir.ExprITE:
		return m.lowerITE(e)
	case ir.ExprCCall:
		m.lowerHelperCall(nil, e.Callee, e.Ty, e.CallArgs)
		dst := m.newVReg(regalloc.RegTypeInt)
		m.insertMove(dst, o0VReg)
		return dst
	}
	panic(fmt.Sprintf("sparc64: cannot select %s", e))
}

// lowerExpr128 returns the registers holding the high and low halves of the 128-bit value e.
func (m *Machine) lowerExpr128(e *ir.Expr) (hi, lo regalloc.VReg) {
	if ty := m.sb.TypeOf(e); ty != ir.TypeI128 {
		panic(fmt.Sprintf("BUG: %s has type %s", e, ty))
	}
	switch {
	case e.Kind == ir.ExprRdTmp:
		return m.vregsHi[e.Tmp], m.vregs[e.Tmp]
	case e.Kind == ir.ExprGet:
		return m.lowerGet(e.Offset, ir.TypeI64), m.lowerGet(e.Offset+8, ir.TypeI64)
	case e.IsBinop(ir.Op64HLto128):
		return m.lowerExpr(e.Args[0]), m.lowerExpr(e.Args[1])
	case e.Kind == ir.ExprCCall:
		if m.lowerHelperCall(nil, e.Callee, e.Ty, e.CallArgs) != retLoc2Int {
			panic(fmt.Sprintf("BUG: %s does not return in two registers", e))
		}
		hi, lo = m.newVReg(regalloc.RegTypeInt), m.newVReg(regalloc.RegTypeInt)
		m.insertMove(hi, o0VReg)
		m.insertMove(lo, o1VReg)
		return hi, lo
	}
	panic(fmt.Sprintf("sparc64: cannot select the 128-bit %s", e))
}

func (m *Machine) insertALU(op aluOp, l regalloc.VReg, r operand) regalloc.VReg {
	dst := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asALU(op, dst, l, r))
	return dst
}

// lowerShiftAmount returns the operand of a shift by e. Literal amounts are reduced modulo the width of op.
func (m *Machine) lowerShiftAmount(op shiftOp, e *ir.Expr) operand {
	if e.Kind == ir.ExprConst {
		return operandImm(int64(constBits(e.Con)) & op.maxAmount())
	}
	return operandReg(m.lowerExpr(e))
}

var binopALUOps = map[ir.Op]aluOp{
	ir.OpAdd64: aluOpAdd, ir.OpSub64: aluOpSub, ir.OpMul64: aluOpMulx,
	ir.OpMullS32: aluOpSmul, ir.OpMullU32: aluOpUmul,
	ir.OpDivS64: aluOpSdivx, ir.OpDivU64: aluOpUdivx,
	ir.OpAnd32: aluOpAnd, ir.OpAnd64: aluOpAnd, ir.OpOr32: aluOpOr, ir.OpOr64: aluOpOr, ir.OpXor64: aluOpXor,
}

var binopShiftOps = map[ir.Op]shiftOp{
	ir.OpShl32: shiftOpSll, ir.OpShl64: shiftOpSllx,
	ir.OpShr32: shiftOpSrl, ir.OpShr64: shiftOpSrlx,
	ir.OpSar32: shiftOpSra, ir.OpSar64: shiftOpSrax,
}

func (m *Machine) lowerBinop(e *ir.Expr) regalloc.VReg {
	a, b := e.Args[0], e.Args[1]
	if op, ok := binopALUOps[e.Op]; ok {
		l := m.lowerExpr(a)
		return m.insertALU(op, l, m.getOperandSimm13(b))
	}
	if op, ok := binopShiftOps[e.Op]; ok {
		l := m.lowerExpr(a)
		dst := m.newVReg(regalloc.RegTypeInt)
		m.insert(m.allocateInstr().asShift(op, dst, l, m.lowerShiftAmount(op, b)))
		return dst
	}
	if _, ok := intCmpConds[e.Op]; ok {
		return m.lowerIntCmpValue(e)
	}

	switch e.Op {
	case ir.OpMulHiU64:
		l := m.lowerExpr(a)
		return m.insertALU(aluOpUmulxhi, l, operandReg(m.lowerExpr(b)))
	case ir.OpDivS64to32, ir.OpDivU64to32:
		// The 32-bit divisions take the upper word of the dividend from %y.
		l := m.lowerExpr(a)
		r := m.getOperandSimm13(b)
		hi := m.newVReg(regalloc.RegTypeInt)
		m.insert(m.allocateInstr().asShift(shiftOpSrlx, hi, l, operandImm(32)))
		m.insert(m.allocateInstr().asWriteASR(asrY, g0VReg, operandReg(hi)))
		op := aluOpSdiv
		if e.Op == ir.OpDivU64to32 {
			op = aluOpUdiv
		}
		return m.insertALU(op, l, r)
	case ir.OpMax32U:
		l := m.zeroExtend(m.lowerExpr(a), 32)
		r := m.zeroExtend(m.lowerExpr(b), 32)
		dst := m.newVReg(regalloc.RegTypeInt)
		m.insertMove(dst, l)
		m.insertSubcc(l, operandReg(r))
		m.insert(m.allocateInstr().asMoveCond(condCS, dst, r))
		return dst
	case ir.Op32HLto64:
		hi := m.lowerExpr(a)
		lo := m.zeroExtend(m.lowerExpr(b), 32)
		dst := m.newVReg(regalloc.RegTypeInt)
		m.insert(m.allocateInstr().asShift(shiftOpSllx, dst, hi, operandImm(32)))
		m.insert(m.allocateInstr().asALU(aluOpOr, dst, dst, operandReg(lo)))
		return dst
	}
	panic(fmt.Sprintf("sparc64: unsupported binary operation %s", e.Op))
}

// lowerCmpNEZ returns 1 if src is non zero and 0 otherwise.
func (m *Machine) lowerCmpNEZ(src regalloc.VReg) regalloc.VReg {
	dst := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asALU(aluOpOr, dst, g0VReg, operandImm(1)))
	m.insert(m.allocateInstr().asMoveReg(regCondZ, dst, src, operandReg(g0VReg)))
	return dst
}

// lowerCmpNEZLanes sets every lane of width bits in the result to all ones if the same lane of src is non zero,
// and to zero otherwise.
func (m *Machine) lowerCmpNEZLanes(src regalloc.VReg, width int64) regalloc.VReg {
	dst := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asLoadImm(dst, 0))
	for shift := int64(0); shift < 64; shift += width {
		lane := src
		if shift > 0 {
			lane = m.newVReg(regalloc.RegTypeInt)
			m.insert(m.allocateInstr().asShift(shiftOpSrlx, lane, src, operandImm(shift)))
		}
		masked := m.zeroExtend(lane, byte(width))
		// -masked is negative exactly when masked is non zero.
		ones := m.newVReg(regalloc.RegTypeInt)
		m.insert(m.allocateInstr().asALU(aluOpSub, ones, g0VReg, operandReg(masked)))
		m.insert(m.allocateInstr().asShift(shiftOpSrax, ones, ones, operandImm(63)))
		m.insert(m.allocateInstr().asShift(shiftOpSrlx, ones, ones, operandImm(64-width)))
		if shift > 0 {
			m.insert(m.allocateInstr().asShift(shiftOpSllx, ones, ones, operandImm(shift)))
		}
		m.insert(m.allocateInstr().asALU(aluOpOr, dst, dst, operandReg(ones)))
	}
	return dst
}

func (m *Machine) lowerUnop(e *ir.Expr) regalloc.VReg {
	arg := e.Args[0]
	switch e.Op {
	case ir.Op1Uto32, ir.Op1Uto64:
		if arg.Kind == ir.ExprBinop {
			if _, ok := intCmpConds[arg.Op]; ok {
				return m.lowerIntCmpValue(arg)
			}
		}
		return m.insertALU(aluOpAnd, m.lowerExpr(arg), operandImm(1))
	case ir.Op1Sto32, ir.Op1Sto64:
		return m.signExtendFrom(m.lowerExpr(arg), 1)
	case ir.Op8Uto32, ir.Op8Uto64, ir.Op64to8:
		return m.zeroExtend(m.lowerExpr(arg), 8)
	case ir.Op8Sto64:
		return m.signExtendFrom(m.lowerExpr(arg), 8)
	case ir.Op16Uto64:
		return m.zeroExtend(m.lowerExpr(arg), 16)
	case ir.Op16Sto64:
		return m.signExtendFrom(m.lowerExpr(arg), 16)
	case ir.Op32Sto64:
		return m.signExtend32(m.lowerExpr(arg))
	case ir.Op32Uto64:
		return m.zeroExtend(m.lowerExpr(skipUnop(arg, ir.Op64to32)), 32)
	case ir.Op64to32:
		return m.zeroExtend(m.lowerExpr(arg), 32)
	case ir.Op64to16:
		src := m.lowerExpr(arg)
		return m.insertALU(aluOpAnd, src, m.lowerImm(0xFFFF, simm13Bits, true))
	case ir.Op64to1, ir.Op32to1:
		return m.insertALU(aluOpAnd, m.lowerExpr(arg), operandImm(1))
	case ir.Op128to64:
		_, lo := m.lowerExpr128(arg)
		return lo
	case ir.Op128HIto64:
		hi, _ := m.lowerExpr128(arg)
		return hi
	case ir.OpCmpNEZ8:
		return m.lowerCmpNEZ(m.zeroExtend(m.lowerExpr(skipUnop(arg, ir.Op64to8)), 8))
	case ir.OpCmpNEZ32:
		return m.lowerCmpNEZ(m.zeroExtend(m.lowerExpr(arg), 32))
	case ir.OpCmpNEZ64:
		return m.lowerCmpNEZ(m.lowerExpr(arg))
	case ir.OpCmpNEZ16x4:
		return m.lowerCmpNEZLanes(m.lowerExpr(arg), 16)
	case ir.OpCmpNEZ32x2:
		return m.lowerCmpNEZLanes(m.lowerExpr(arg), 32)
	case ir.OpCmpwNEZ32:
		masked := m.zeroExtend(m.lowerExpr(arg), 32)
		dst := m.insertALU(aluOpSub, g0VReg, operandReg(masked))
		m.insert(m.allocateInstr().asALU(aluOpOr, dst, dst, operandReg(masked)))
		m.insert(m.allocateInstr().asShift(shiftOpSrax, dst, dst, operandImm(63)))
		return dst
	case ir.OpCmpwNEZ64:
		src := m.lowerExpr(arg)
		dst := m.insertALU(aluOpSub, g0VReg, operandImm(1))
		m.insert(m.allocateInstr().asMoveReg(regCondZ, dst, src, operandReg(g0VReg)))
		return dst
	case ir.OpLeft32, ir.OpLeft64:
		src := m.lowerExpr(arg)
		dst := m.insertALU(aluOpSub, g0VReg, operandReg(src))
		m.insert(m.allocateInstr().asALU(aluOpOr, dst, dst, operandReg(src)))
		return dst
	case ir.OpClz64:
		src := m.lowerExpr(arg)
		m.requireHwcaps(jitapi.HwcapVIS3, "lzcnt")
		dst := m.newVReg(regalloc.RegTypeInt)
		m.insert(m.allocateInstr().asLzcnt(dst, src))
		return dst
	case ir.OpNot1:
		src := m.lowerExpr(arg)
		dst := m.newVReg(regalloc.RegTypeInt)
		m.insert(m.allocateInstr().asLoadImm(dst, 1))
		m.insert(m.allocateInstr().asALU(aluOpSub, dst, dst, operandReg(src)))
		return dst
	case ir.OpNot8, ir.OpNot16, ir.OpNot32, ir.OpNot64:
		return m.insertALU(aluOpXnor, g0VReg, operandReg(m.lowerExpr(arg)))
	}
	panic(fmt.Sprintf("sparc64: unsupported unary operation %s", e.Op))
}

// lowerITE selects e.Cond ? e.IfTrue : e.IfFalse as a conditional move over the false value.
func (m *Machine) lowerITE(e *ir.Expr) regalloc.VReg {
	ty := m.sb.TypeOf(e)
	if ty.IsFloat() {
		dst := m.newVReg(fpRegType(ty))
		m.insert(m.allocateInstr().asMovFp(dst, m.lowerExpr(e.IfFalse)))
		t := m.lowerExpr(e.IfTrue)
		c := m.lowerCond(e.Cond)
		m.insert(m.allocateInstr().asMovFpICond(c, dst, t))
		return dst
	}

	dst := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asALU(aluOpOr, dst, g0VReg, m.getOperandSimm13(e.IfFalse)))
	t := m.lowerExpr(e.IfTrue)
	c := m.lowerCond(e.Cond)
	m.insert(m.allocateInstr().asMoveCond(c, dst, t))
	return dst
}
