package sparc64

import (
	"fmt"

	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
	"github.com/sparcjit/sparcjit/internal/engine/jitapi"
	"github.com/sparcjit/sparcjit/ir"
)

// Values of the IR floating point comparison result.
const (
	cmpFResultGT = 0x00
	cmpFResultLT = 0x01
	cmpFResultEQ = 0x40
	cmpFResultUN = 0x45
)

// scratchAMode is the guest state slot used to move %fsr to and from the integer registers.
func scratchAMode() addressMode {
	return guestAMode(jitapi.OffsetScratchpad)
}

// setRoundingMode makes %fsr round the way the IR rounding mode rm says. rm is an I32 holding 0 (nearest),
// 1 (towards -inf), 2 (towards +inf) or 3 (towards zero).
//
// Writing %fsr is slow, so nothing is emitted when rm reads the same temporary as the previous call. This is
// sound because a temporary holds the same value wherever it is read within a block. The rest of %fsr is
// cleared.
func (m *Machine) setRoundingMode(rm *ir.Expr) {
	if ty := m.sb.TypeOf(rm); ty != ir.TypeI32 {
		panic(fmt.Sprintf("BUG: rounding mode %s has type %s", rm, ty))
	}
	if prev := m.prevRM; prev != nil && prev.Kind == ir.ExprRdTmp && rm.Kind == ir.ExprRdTmp && prev.Tmp == rm.Tmp {
		return
	}
	m.prevRM = rm

	// The IR modes 0, 1, 2, 3 are the %fsr.rd values 0, 3, 2, 1: the two's complement of the mode placed in
	// the top two bits, then moved down to bits 31:30.
	src := m.lowerExpr(rm)
	fsr := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asShift(shiftOpSllx, fsr, src, operandImm(62)))
	m.insert(m.allocateInstr().asALU(aluOpSub, fsr, g0VReg, operandReg(fsr)))
	m.insert(m.allocateInstr().asShift(shiftOpSrlx, fsr, fsr, operandImm(62-30)))
	m.insert(m.allocateInstr().asStore(8, fsr, scratchAMode(), asiOperand{}))
	m.insert(m.allocateInstr().asLoadFSR(scratchAMode()))
}

// forgetRoundingMode makes the next setRoundingMode write %fsr unconditionally.
func (m *Machine) forgetRoundingMode() {
	m.prevRM = nil
}

func fpRegType(ty ir.Type) regalloc.RegType {
	if !ty.IsFloat() {
		panic(fmt.Sprintf("BUG: %s is not a floating point type", ty))
	}
	return regalloc.RegTypeOf(ty)
}

// lowerAluFp selects the binary floating point operation op. A non-nil rm is applied first.
func (m *Machine) lowerAluFp(op aluFpOp, dstTy ir.Type, rm, l, r *ir.Expr) regalloc.VReg {
	dst := m.newVReg(fpRegType(dstTy))
	srcL := m.lowerExpr(l)
	srcR := m.lowerExpr(r)
	if rm != nil {
		m.setRoundingMode(rm)
	}
	m.insert(m.allocateInstr().asAluFp(op, dst, srcL, srcR))
	return dst
}

func (m *Machine) lowerFpUnary(kind instructionKind, e *ir.Expr) regalloc.VReg {
	dst := m.newVReg(fpRegType(e.Op.ResultType()))
	src := m.lowerExpr(e.Args[0])
	m.insert(m.allocateInstr().asFpUnary(kind, dst, src))
	return dst
}

// lowerConvFp converts src with the given rounding mode, or the current one if rm is nil.
func (m *Machine) lowerConvFp(dstTy ir.Type, rm, src *ir.Expr) regalloc.VReg {
	dst := m.newVReg(fpRegType(dstTy))
	s := m.lowerExpr(src)
	if rm != nil {
		m.setRoundingMode(rm)
	}
	m.insert(m.allocateInstr().asConvFp(dst, s, false, false))
	return dst
}

// intInFpReg returns a floating point register of class typ holding the integer e, reusing the source of a
// reinterpretation.
func (m *Machine) intInFpReg(e *ir.Expr, typ regalloc.RegType) regalloc.VReg {
	reinterp := ir.OpReinterpF64asI64
	if typ == regalloc.RegTypeF32 {
		reinterp = ir.OpReinterpF32asI32
	}
	if e.IsUnop(reinterp) {
		return m.lowerExpr(e.Args[0])
	}
	src := m.lowerExpr(e)
	m.requireHwcaps(jitapi.HwcapVIS3, "moving an integer register into a floating point register")
	tmp := m.newVReg(typ)
	m.insert(m.allocateInstr().asMovIRegToFp(tmp, src))
	return tmp
}

// lowerIntToFp converts the integer e, held in a register of class srcTyp once moved, to dstTy.
func (m *Machine) lowerIntToFp(dstTy ir.Type, srcTyp regalloc.RegType, rm, e *ir.Expr) regalloc.VReg {
	dst := m.newVReg(fpRegType(dstTy))
	tmp := m.intInFpReg(e, srcTyp)
	if rm != nil {
		m.setRoundingMode(rm)
	}
	m.insert(m.allocateInstr().asConvFp(dst, tmp, true, false))
	return dst
}

// lowerFpToInt converts the floating point e to an integer, rounding towards zero, and moves it into an integer
// register. fregTyp is the class of the intermediate result: F32 for words, F64 for doublewords.
func (m *Machine) lowerFpToInt(fregTyp regalloc.RegType, e *ir.Expr) regalloc.VReg {
	tmp := m.newVReg(fregTyp)
	src := m.lowerExpr(e)
	m.insert(m.allocateInstr().asConvFp(tmp, src, false, true))
	m.requireHwcaps(jitapi.HwcapVIS3, "moving a floating point register into an integer register")
	dst := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asMovFpToIReg(dst, tmp))
	return dst
}

// lowerCmpF compares two floating point values into the IR comparison result encoding.
func (m *Machine) lowerCmpF(e *ir.Expr) regalloc.VReg {
	srcL := m.lowerExpr(e.Args[0])
	srcR := m.lowerExpr(e.Args[1])
	m.insert(m.allocateInstr().asCmpFp(srcL, srcR, 0))
	m.insert(m.allocateInstr().asStoreFSR(scratchAMode()))

	// fcc0 is %fsr bits 11:10: 0 equal, 1 less, 2 greater, 3 unordered.
	fcc := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asLoad(8, fcc, scratchAMode(), asiOperand{}))
	m.insert(m.allocateInstr().asShift(shiftOpSrlx, fcc, fcc, operandImm(10)))
	m.insert(m.allocateInstr().asALU(aluOpAnd, fcc, fcc, operandImm(3)))

	dst := m.newVReg(regalloc.RegTypeInt)
	m.insert(m.allocateInstr().asLoadImm(dst, cmpFResultGT))
	for k, res := range []int64{cmpFResultEQ, cmpFResultLT, cmpFResultGT, cmpFResultUN} {
		if k > 0 {
			m.insert(m.allocateInstr().asALU(aluOpSub, fcc, fcc, operandImm(1)))
		}
		m.insert(m.allocateInstr().asMoveReg(regCondZ, dst, fcc, operandImm(res)))
	}
	return dst
}

// lowerF64HLtoF128 selects the only supported shape of F64HLtoF128: the halves are big-endian loads from two
// adjacent literal addresses, read by a single quad load.
func (m *Machine) lowerF64HLtoF128(e *ir.Expr) regalloc.VReg {
	hi, lo := e.Args[0], e.Args[1]
	if isPlainLoadF64(hi) && isPlainLoadF64(lo) {
		hiAddr, ok1 := hi.Addr.IsConstU64()
		loAddr, ok2 := lo.Addr.IsConstU64()
		if ok1 && ok2 && hiAddr+8 == loAddr {
			dst := m.newVReg(regalloc.RegTypeF128)
			m.insert(m.allocateInstr().asLoad(16, dst, m.lowerToAddressMode(hi.Addr), asiOperand{}))
			return dst
		}
	}
	panic(fmt.Sprintf("sparc64: unsupported %s", e))
}

func isPlainLoadF64(e *ir.Expr) bool {
	return e.Kind == ir.ExprLoad && e.End == ir.EndBE && e.Ty == ir.TypeF64 && e.ASI == nil
}

// lowerF128Half returns the high or low double of a quad.
func (m *Machine) lowerF128Half(e *ir.Expr, high bool) regalloc.VReg {
	arg := e.Args[0]
	if arg.IsBinop(ir.OpF64HLtoF128) {
		if high {
			return m.lowerExpr(arg.Args[0])
		}
		return m.lowerExpr(arg.Args[1])
	}
	dst := m.newVReg(regalloc.RegTypeF64)
	src := m.lowerExpr(arg)
	m.insert(m.allocateInstr().asHalveFp(dst, src, high))
	return dst
}

var shftFpOps = map[ir.Op]shftFpOp{
	ir.OpShlF16x4: shftFpOpSll16, ir.OpShrF16x4: shftFpOpSrl16, ir.OpQSalF16x4: shftFpOpSlas16, ir.OpSarF16x4: shftFpOpSra16,
	ir.OpShlF32x2: shftFpOpSll32, ir.OpShrF32x2: shftFpOpSrl32, ir.OpQSalF32x2: shftFpOpSlas32, ir.OpSarF32x2: shftFpOpSra32,
}

func (m *Machine) lowerShftFp(op shftFpOp, e *ir.Expr) regalloc.VReg {
	dst := m.newVReg(regalloc.RegTypeF64)
	srcL := m.lowerExpr(e.Args[0])
	srcR := m.lowerExpr(e.Args[1])
	m.insert(m.allocateInstr().asShftFp(op, dst, srcL, srcR))
	return dst
}

// lowerFpBinop selects the binary operations producing or consuming floating point values.
func (m *Machine) lowerFpBinop(e *ir.Expr) (regalloc.VReg, bool) {
	a, b := e.Args[0], e.Args[1]
	switch e.Op {
	case ir.OpAndF32, ir.OpAndF64:
		return m.lowerAluFp(aluFpOpFand, e.Op.ResultType(), nil, a, b), true
	case ir.OpOrF32, ir.OpOrF64:
		return m.lowerAluFp(aluFpOpFor, e.Op.ResultType(), nil, a, b), true
	case ir.OpXorF32, ir.OpXorF64:
		return m.lowerAluFp(aluFpOpFxor, e.Op.ResultType(), nil, a, b), true
	case ir.OpMullF32, ir.OpMullF64:
		return m.lowerAluFp(aluFpOpFsdmul, e.Op.ResultType(), nil, a, b), true
	case ir.OpCmpF32, ir.OpCmpF64, ir.OpCmpF128:
		return m.lowerCmpF(e), true
	case ir.OpI32StoF32:
		return m.lowerIntToFp(ir.TypeF32, regalloc.RegTypeF32, a, b), true
	case ir.OpI64StoF32:
		return m.lowerIntToFp(ir.TypeF32, regalloc.RegTypeF64, a, b), true
	case ir.OpI64StoF64:
		return m.lowerIntToFp(ir.TypeF64, regalloc.RegTypeF64, a, b), true
	case ir.OpF32toI32U, ir.OpF64toI32U, ir.OpF128toI32U:
		return m.lowerFpToInt(regalloc.RegTypeF32, b), true
	case ir.OpF32toI64U, ir.OpF64toI64U, ir.OpF128toI64U:
		return m.lowerFpToInt(regalloc.RegTypeF64, b), true
	case ir.OpF64toF32, ir.OpF128toF32, ir.OpF128toF64:
		return m.lowerConvFp(e.Op.ResultType(), a, b), true
	case ir.OpF64HLtoF128:
		return m.lowerF64HLtoF128(e), true
	case ir.OpSqrtF32, ir.OpSqrtF64, ir.OpSqrtF128:
		dst := m.newVReg(fpRegType(e.Op.ResultType()))
		src := m.lowerExpr(b)
		m.setRoundingMode(a)
		m.insert(m.allocateInstr().asSqrtFp(dst, src))
		return dst, true
	}
	if op, ok := shftFpOps[e.Op]; ok {
		return m.lowerShftFp(op, e), true
	}
	return regalloc.VRegInvalid, false
}

// lowerFpUnop selects the unary operations producing or consuming floating point values.
func (m *Machine) lowerFpUnop(e *ir.Expr) (regalloc.VReg, bool) {
	arg := e.Args[0]
	switch e.Op {
	case ir.OpAbsF32, ir.OpAbsF64, ir.OpAbsF128:
		return m.lowerFpUnary(absFp, e), true
	case ir.OpNegF32, ir.OpNegF64, ir.OpNegF128:
		return m.lowerFpUnary(negFp, e), true
	case ir.OpNotF32, ir.OpNotF64:
		dst := m.newVReg(fpRegType(e.Op.ResultType()))
		src := m.lowerExpr(arg)
		m.insert(m.allocateInstr().asAluFp(aluFpOpFnot, dst, src, regalloc.VRegInvalid))
		return dst, true
	case ir.OpF32toF64, ir.OpF32toF128, ir.OpF64toF128:
		return m.lowerConvFp(e.Op.ResultType(), nil, arg), true
	case ir.OpF128HItoF64:
		return m.lowerF128Half(e, true), true
	case ir.OpF128LOtoF64:
		return m.lowerF128Half(e, false), true
	case ir.OpI32StoF64:
		return m.lowerIntToFp(ir.TypeF64, regalloc.RegTypeF32, nil, arg), true
	case ir.OpI32StoF128:
		return m.lowerIntToFp(ir.TypeF128, regalloc.RegTypeF32, nil, arg), true
	case ir.OpI64StoF128:
		return m.lowerIntToFp(ir.TypeF128, regalloc.RegTypeF64, nil, arg), true
	case ir.OpReinterpF32asI32, ir.OpReinterpF64asI64:
		src := m.lowerExpr(arg)
		m.requireHwcaps(jitapi.HwcapVIS3, e.Op.String())
		dst := m.newVReg(regalloc.RegTypeInt)
		m.insert(m.allocateInstr().asMovFpToIReg(dst, src))
		return dst, true
	case ir.OpReinterpI64asF64:
		src := m.lowerExpr(arg)
		m.requireHwcaps(jitapi.HwcapVIS3, e.Op.String())
		dst := m.newVReg(regalloc.RegTypeF64)
		m.insert(m.allocateInstr().asMovIRegToFp(dst, src))
		return dst, true
	}
	return regalloc.VRegInvalid, false
}

// lowerTriop selects the ternary operations. The arithmetic ones take the rounding mode first.
func (m *Machine) lowerTriop(e *ir.Expr) regalloc.VReg {
	rm, a, b := e.Args[0], e.Args[1], e.Args[2]
	switch e.Op {
	case ir.OpAddF32, ir.OpAddF64, ir.OpAddF128:
		return m.lowerAluFp(aluFpOpFadd, e.Op.ResultType(), rm, a, b)
	case ir.OpSubF32, ir.OpSubF64, ir.OpSubF128:
		return m.lowerAluFp(aluFpOpFsub, e.Op.ResultType(), rm, a, b)
	case ir.OpMulF32, ir.OpMulF64, ir.OpMulF128:
		return m.lowerAluFp(aluFpOpFmul, e.Op.ResultType(), rm, a, b)
	case ir.OpDivF32, ir.OpDivF64, ir.OpDivF128:
		return m.lowerAluFp(aluFpOpFdiv, e.Op.ResultType(), rm, a, b)
	case ir.OpAlignF64:
		dst := m.newVReg(regalloc.RegTypeF64)
		sel := m.lowerExpr(rm)
		srcL := m.lowerExpr(a)
		srcR := m.lowerExpr(b)
		m.requireHwcaps(jitapi.HwcapSPARC5, "faligndatai")
		// faligndatai overwrites its first source.
		m.insert(m.allocateInstr().asMovFp(dst, srcL))
		m.insert(m.allocateInstr().asAlignDataFp(dst, sel, srcR))
		return dst
	case ir.OpShuffleF64:
		dst := m.newVReg(regalloc.RegTypeF64)
		mask := m.lowerExpr(rm)
		srcL := m.lowerExpr(a)
		srcR := m.lowerExpr(b)
		m.requireHwcaps(jitapi.HwcapVIS2, "bshuffle")
		// The shuffle mask lives in the upper word of %gsr.
		gsr := m.newVReg(regalloc.RegTypeInt)
		m.insert(m.allocateInstr().asShift(shiftOpSllx, gsr, mask, operandImm(32)))
		m.insert(m.allocateInstr().asWriteASR(asrGSR, g0VReg, operandReg(gsr)))
		m.insert(m.allocateInstr().asShuffleFp(dst, srcL, srcR))
		return dst
	}
	panic(fmt.Sprintf("sparc64: unsupported ternary operation %s", e.Op))
}

// lowerQop selects the fused multiply-add family.
func (m *Machine) lowerQop(e *ir.Expr) regalloc.VReg {
	var op fusedFpOp
	switch e.Op {
	case ir.OpMAddF32, ir.OpMAddF64:
		op = fusedFpOpMadd
	case ir.OpMSubF32, ir.OpMSubF64:
		op = fusedFpOpMsub
	default:
		panic(fmt.Sprintf("sparc64: unsupported quaternary operation %s", e.Op))
	}
	dst := m.newVReg(fpRegType(e.Op.ResultType()))
	a1 := m.lowerExpr(e.Args[1])
	a2 := m.lowerExpr(e.Args[2])
	a3 := m.lowerExpr(e.Args[3])
	m.setRoundingMode(e.Args[0])
	m.insert(m.allocateInstr().asFusedFp(op, dst, a1, a2, a3))
	return dst
}
