package sparc64

import (
	"fmt"

	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
	"github.com/sparcjit/sparcjit/internal/engine/jitapi"
	"github.com/sparcjit/sparcjit/ir"
)

type (
	// instruction represents either a real sparc64 instruction, or one of the macro instructions
	// which expand into a fixed sequence at encoding time, such as wide immediate loads, calls and
	// control transfers.
	//
	// Each field is interpreted depending on the kind.
	instruction struct {
		kind           instructionKind
		u1, u2         uint64
		rd, rn, rm, ra regalloc.VReg
		ri             operand
		amode          addressMode
		asi            asiOperand
		cond           condCode
		rcond          regCond
		rloc           retLoc
		b1, b2         bool
	}

	// instructionKind represents the kind of instruction.
	// This controls how the instruction struct is interpreted.
	instructionKind byte
)

const (
	// nop0 is a placeholder which emits nothing.
	nop0 instructionKind = iota
	// loadImm materializes a 64-bit constant: setx u1, rd.
	loadImm
	// alu is an arithmetic or logical operation aluOp(u1) rn, ri, rd.
	alu
	// shift is a shift shiftOp(u1) rn, ri, rd.
	shift
	// load reads u1 bytes at amode into rd, or into %fsr when b1 is set.
	load
	// store writes u1 bytes of rn to amode, or %fsr when b1 is set.
	store
	// moveCond copies rn into rd when cond holds on %xcc.
	moveCond
	// moveReg copies ri into rd when rn satisfies rcond.
	moveReg
	// call branches and links through rn when cond holds, with u1 arguments in place.
	call
	// cas is the u1 bytes wide compare and swap of [rn] with rm, exchanging with rd.
	cas
	// ldstub atomically loads the byte at amode into rd and sets it to 0xff.
	ldstub
	// lzcnt counts the leading zeros of rn into rd.
	lzcnt
	// membar waits for every outstanding memory access to complete.
	membar
	// asr writes rn xor ri into the ancillary state register u1 when b1 is set, or reads it into rd.
	asr
	// xDirect exits to the guest address u1, through one of the chain-me stubs.
	xDirect
	// xIndir exits to the guest address in rn, through the indirect exit stub.
	xIndir
	// xAssisted exits to the guest address in rn, through the assisted exit stub with the trap return code u1.
	xAssisted
	// evCheck decrements the event counter at [%g5+u1] and leaves through [%g5+u2] once it expires.
	evCheck
	// profInc is the reserved profiling counter increment. It emits nothing.
	profInc
	alignDataFp
	aluFp
	absFp
	cmpFp
	convFp
	fusedFp
	halveFp
	movFp
	movFpICond
	movIRegToFp
	movFpToIReg
	negFp
	shftFp
	shuffleFp
	sqrtFp
	// loadGuestState and storeGuestState are the halves of the trampoline around an unrecognized instruction.
	loadGuestState
	storeGuestState
	// unrecognized emits the raw instruction word u1.
	unrecognized
	numInstructionKinds
)

// String implements fmt.Stringer.
func (k instructionKind) String() string {
	if int(k) < len(instructionKindNames) {
		return instructionKindNames[k]
	}
	return "invalid"
}

var instructionKindNames = [numInstructionKinds]string{
	nop0: "nop0", loadImm: "loadImm", alu: "alu", shift: "shift", load: "load", store: "store",
	moveCond: "moveCond", moveReg: "moveReg", call: "call", cas: "cas", ldstub: "ldstub", lzcnt: "lzcnt",
	membar: "membar", asr: "asr", xDirect: "xDirect", xIndir: "xIndir", xAssisted: "xAssisted",
	evCheck: "evCheck", profInc: "profInc", alignDataFp: "alignDataFp", aluFp: "aluFp", absFp: "absFp",
	cmpFp: "cmpFp", convFp: "convFp", fusedFp: "fusedFp", halveFp: "halveFp", movFp: "movFp",
	movFpICond: "movFpICond", movIRegToFp: "movIRegToFp", movFpToIReg: "movFpToIReg", negFp: "negFp",
	shftFp: "shftFp", shuffleFp: "shuffleFp", sqrtFp: "sqrtFp", loadGuestState: "loadGuestState",
	storeGuestState: "storeGuestState", unrecognized: "unrecognized",
}

type aluOp byte

const (
	aluOpAdd aluOp = iota
	aluOpSub
	aluOpMulx
	aluOpSmul
	aluOpUmul
	aluOpUmulxhi
	aluOpUdivx
	aluOpSdivx
	aluOpSdiv
	aluOpUdiv
	aluOpSubcc
	aluOpAnd
	aluOpAndcc
	aluOpOr
	aluOpOrn
	aluOpXor
	aluOpXnor
	numAluOps
)

var aluOpNames = [numAluOps]string{
	aluOpAdd: "add", aluOpSub: "sub", aluOpMulx: "mulx", aluOpSmul: "smul", aluOpUmul: "umul",
	aluOpUmulxhi: "umulxhi", aluOpUdivx: "udivx", aluOpSdivx: "sdivx", aluOpSdiv: "sdiv", aluOpUdiv: "udiv",
	aluOpSubcc: "subcc", aluOpAnd: "and", aluOpAndcc: "andcc", aluOpOr: "or", aluOpOrn: "orn",
	aluOpXor: "xor", aluOpXnor: "xnor",
}

// String implements fmt.Stringer.
func (a aluOp) String() string { return aluOpNames[a] }

// registerOnly returns true for the operations which have no immediate form.
func (a aluOp) registerOnly() bool { return a == aluOpUmulxhi }

type shiftOp byte

const (
	shiftOpSll shiftOp = iota
	shiftOpSrl
	shiftOpSra
	shiftOpSllx
	shiftOpSrlx
	shiftOpSrax
	numShiftOps
)

var shiftOpNames = [numShiftOps]string{"sll", "srl", "sra", "sllx", "srlx", "srax"}

// String implements fmt.Stringer.
func (s shiftOp) String() string { return shiftOpNames[s] }

func (s shiftOp) is64() bool { return s >= shiftOpSllx }

// maxAmount returns the largest immediate shift amount.
func (s shiftOp) maxAmount() int64 {
	if s.is64() {
		return 0x3F
	}
	return 0x1F
}

type aluFpOp byte

const (
	aluFpOpFadd aluFpOp = iota
	aluFpOpFand
	aluFpOpFdiv
	aluFpOpFmul
	aluFpOpFsdmul
	aluFpOpFnot
	aluFpOpFor
	aluFpOpFsub
	aluFpOpFxor
	numAluFpOps
)

var aluFpOpNames = [numAluFpOps]string{"fadd", "fand", "fdiv", "fmul", "fsdmul", "fnot", "for", "fsub", "fxor"}

// String implements fmt.Stringer.
func (a aluFpOp) String() string { return aluFpOpNames[a] }

// logical returns true for the VIS bitwise operations, which exist for single and double registers only.
func (a aluFpOp) logical() bool {
	switch a {
	case aluFpOpFand, aluFpOpFnot, aluFpOpFor, aluFpOpFxor:
		return true
	}
	return false
}

type fusedFpOp byte

const (
	fusedFpOpMadd fusedFpOp = iota
	fusedFpOpMsub
)

// String implements fmt.Stringer.
func (f fusedFpOp) String() string {
	if f == fusedFpOpMsub {
		return "fmsub"
	}
	return "fmadd"
}

type shftFpOp byte

const (
	shftFpOpSll16 shftFpOp = iota
	shftFpOpSrl16
	shftFpOpSll32
	shftFpOpSrl32
	shftFpOpSlas16
	shftFpOpSra16
	shftFpOpSlas32
	shftFpOpSra32
	numShftFpOps
)

var shftFpOpNames = [numShftFpOps]string{"fsll16", "fsrl16", "fsll32", "fsrl32", "fslas16", "fsra16", "fslas32", "fsra32"}

// String implements fmt.Stringer.
func (s shftFpOp) String() string { return shftFpOpNames[s] }

// asrReg is an ancillary state register number.
type asrReg byte

const (
	asrY    asrReg = 0
	asrCCR  asrReg = 2
	asrASI  asrReg = 3
	asrPC   asrReg = 5
	asrFPRS asrReg = 6
	asrGSR  asrReg = 19
)

// String implements fmt.Stringer.
func (a asrReg) String() string {
	switch a {
	case asrY:
		return "%y"
	case asrCCR:
		return "%ccr"
	case asrASI:
		return "%asi"
	case asrPC:
		return "%pc"
	case asrFPRS:
		return "%fprs"
	case asrGSR:
		return "%gsr"
	}
	return fmt.Sprintf("%%asr%d", byte(a))
}

type asiKind byte

const (
	asiNone asiKind = iota
	// asiImm carries the address space identifier in the instruction. Register+register addressing only.
	asiImm
	// asiImplicit uses the current value of %asi. Register+immediate addressing only.
	asiImplicit
)

// asiOperand is the address space qualifier of an alternate space load or store.
type asiOperand struct {
	kind asiKind
	imm  uint8
}

// String implements fmt.Stringer.
func (a asiOperand) String() string {
	switch a.kind {
	case asiImm:
		return fmt.Sprintf(" %#x", a.imm)
	case asiImplicit:
		return " %asi"
	}
	return ""
}

// retLoc tells where the result of a helper call is found once it returns.
type retLoc byte

const (
	retLocInvalid retLoc = iota
	retLocNone
	// retLocInt is %o0.
	retLocInt
	// retLoc2Int is %o0 (high half) and %o1 (low half).
	retLoc2Int
)

// String implements fmt.Stringer.
func (r retLoc) String() string {
	switch r {
	case retLocNone:
		return "none"
	case retLocInt:
		return "int"
	case retLoc2Int:
		return "2int"
	}
	return "invalid"
}

func mustClass(v regalloc.VReg, typ regalloc.RegType, what string) {
	if v.RegType() != typ {
		panic(fmt.Sprintf("BUG: %s must be a %s register, got %s", what, typ, formatVReg(v)))
	}
}

func mustFloat(v regalloc.VReg, what string) {
	if !v.RegType().IsFloat() {
		panic(fmt.Sprintf("BUG: %s must be a floating point register, got %s", what, formatVReg(v)))
	}
}

func mustSameClass(what string, regs ...regalloc.VReg) {
	for _, r := range regs[1:] {
		if r.RegType() != regs[0].RegType() {
			panic(fmt.Sprintf("BUG: %s operands %s and %s differ in class", what, formatVReg(regs[0]), formatVReg(r)))
		}
	}
}

func (i *instruction) asNop0() *instruction {
	i.kind = nop0
	return i
}

func (i *instruction) asLoadImm(dst regalloc.VReg, imm uint64) *instruction {
	mustClass(dst, regalloc.RegTypeInt, "setx destination")
	i.kind = loadImm
	i.rd = dst
	i.u1 = imm
	return i
}

func (i *instruction) asALU(op aluOp, dst, srcL regalloc.VReg, ri operand) *instruction {
	mustClass(dst, regalloc.RegTypeInt, op.String()+" destination")
	mustClass(srcL, regalloc.RegTypeInt, op.String()+" source")
	switch ri.kind {
	case operandKindImm:
		if op.registerOnly() {
			panic(fmt.Sprintf("BUG: %s has no immediate form", op))
		}
		if !fitsSimm13(ri.imm) {
			panic(fmt.Sprintf("BUG: %s immediate %d does not fit in 13 bits", op, ri.imm))
		}
	case operandKindReg:
		mustClass(ri.reg, regalloc.RegTypeInt, op.String()+" source")
	default:
		panic("BUG: missing second operand of " + op.String())
	}
	i.kind = alu
	i.u1 = uint64(op)
	i.rd, i.rn, i.ri = dst, srcL, ri
	return i
}

func (i *instruction) asShift(op shiftOp, dst, srcL regalloc.VReg, ri operand) *instruction {
	mustClass(dst, regalloc.RegTypeInt, op.String()+" destination")
	mustClass(srcL, regalloc.RegTypeInt, op.String()+" source")
	switch ri.kind {
	case operandKindImm:
		if ri.imm < 0 || ri.imm > op.maxAmount() {
			panic(fmt.Sprintf("BUG: %s amount %d out of range", op, ri.imm))
		}
	case operandKindReg:
		mustClass(ri.reg, regalloc.RegTypeInt, op.String()+" amount")
	default:
		panic("BUG: missing shift amount of " + op.String())
	}
	i.kind = shift
	i.u1 = uint64(op)
	i.rd, i.rn, i.ri = dst, srcL, ri
	return i
}

// checkAccess validates the width of a load or store of a register of class typ.
func checkAccess(size byte, typ regalloc.RegType, asi asiOperand) {
	switch typ {
	case regalloc.RegTypeInt:
		if size != 1 && size != 2 && size != 4 && size != 8 {
			panic(fmt.Sprintf("BUG: invalid integer access size %d", size))
		}
	case regalloc.RegTypeF32, regalloc.RegTypeF64, regalloc.RegTypeF128:
		if int(size) != typ.Size() {
			panic(fmt.Sprintf("BUG: %s register accessed with size %d", typ, size))
		}
		if asi.kind != asiNone {
			panic("BUG: alternate space floating point accesses are unsupported")
		}
	default:
		panic("BUG: access of an invalid register class")
	}
}

func checkASI(amode addressMode, asi asiOperand) {
	switch asi.kind {
	case asiImm:
		if amode.kind != addressModeKindRR {
			panic("BUG: immediate address space requires register+register addressing")
		}
	case asiImplicit:
		if amode.kind != addressModeKindIR {
			panic("BUG: %asi addressing requires register+immediate addressing")
		}
	}
}

func (i *instruction) asLoad(size byte, dst regalloc.VReg, amode addressMode, asi asiOperand) *instruction {
	checkAccess(size, dst.RegType(), asi)
	checkASI(amode, asi)
	i.kind = load
	i.u1 = uint64(size)
	i.rd, i.amode, i.asi = dst, amode, asi
	return i
}

func (i *instruction) asStore(size byte, src regalloc.VReg, amode addressMode, asi asiOperand) *instruction {
	checkAccess(size, src.RegType(), asi)
	checkASI(amode, asi)
	i.kind = store
	i.u1 = uint64(size)
	i.rn, i.amode, i.asi = src, amode, asi
	return i
}

// asLoadFSR loads the whole floating point state register.
func (i *instruction) asLoadFSR(amode addressMode) *instruction {
	i.kind = load
	i.u1 = 8
	i.amode = amode
	i.b1 = true
	return i
}

// asStoreFSR stores the whole floating point state register.
func (i *instruction) asStoreFSR(amode addressMode) *instruction {
	i.kind = store
	i.u1 = 8
	i.amode = amode
	i.b1 = true
	return i
}

func (i *instruction) isFSRAccess() bool { return i.b1 }

func (i *instruction) asMoveCond(c condCode, dst, src regalloc.VReg) *instruction {
	mustClass(dst, regalloc.RegTypeInt, "movcc destination")
	mustClass(src, regalloc.RegTypeInt, "movcc source")
	i.kind = moveCond
	i.cond = c
	i.rd, i.rn = dst, src
	return i
}

func (i *instruction) asMoveReg(c regCond, dst, srcL regalloc.VReg, ri operand) *instruction {
	mustClass(dst, regalloc.RegTypeInt, "movr destination")
	mustClass(srcL, regalloc.RegTypeInt, "movr condition")
	switch ri.kind {
	case operandKindImm:
		if !fitsSigned(ri.imm, simm10Bits) {
			panic(fmt.Sprintf("BUG: movr immediate %d does not fit in 10 bits", ri.imm))
		}
	case operandKindReg:
		mustClass(ri.reg, regalloc.RegTypeInt, "movr source")
	default:
		panic("BUG: missing movr source")
	}
	i.kind = moveReg
	i.rcond = c
	i.rd, i.rn, i.ri = dst, srcL, ri
	return i
}

func (i *instruction) asCall(c condCode, target regalloc.VReg, nargs int, rloc retLoc) *instruction {
	mustClass(target, regalloc.RegTypeInt, "call target")
	if nargs < 0 || nargs > maxHelperArgs {
		panic(fmt.Sprintf("BUG: call with %d arguments", nargs))
	}
	if rloc == retLocInvalid {
		panic("BUG: call without return location")
	}
	if c != condA && rloc != retLocNone {
		panic("BUG: conditional calls returning a value are unsupported")
	}
	i.kind = call
	i.cond = c
	i.rn = target
	i.u1 = uint64(nargs)
	i.rloc = rloc
	return i
}

func (i *instruction) asCAS(size byte, addr, expected, dst regalloc.VReg) *instruction {
	if size != 4 && size != 8 {
		panic(fmt.Sprintf("BUG: cas of size %d", size))
	}
	mustClass(addr, regalloc.RegTypeInt, "cas address")
	mustClass(expected, regalloc.RegTypeInt, "cas expected value")
	mustClass(dst, regalloc.RegTypeInt, "cas destination")
	i.kind = cas
	i.u1 = uint64(size)
	i.rn, i.rm, i.rd = addr, expected, dst
	return i
}

func (i *instruction) asLdstub(amode addressMode, dst regalloc.VReg) *instruction {
	mustClass(dst, regalloc.RegTypeInt, "ldstub destination")
	i.kind = ldstub
	i.amode, i.rd = amode, dst
	return i
}

func (i *instruction) asLzcnt(dst, src regalloc.VReg) *instruction {
	mustClass(dst, regalloc.RegTypeInt, "lzcnt destination")
	mustClass(src, regalloc.RegTypeInt, "lzcnt source")
	i.kind = lzcnt
	i.rd, i.rn = dst, src
	return i
}

func (i *instruction) asMembar() *instruction {
	i.kind = membar
	return i
}

// asWriteASR writes srcL ^ ri into the ancillary state register.
func (i *instruction) asWriteASR(r asrReg, srcL regalloc.VReg, ri operand) *instruction {
	mustClass(srcL, regalloc.RegTypeInt, "wr source")
	switch ri.kind {
	case operandKindImm:
		if !fitsSimm13(ri.imm) {
			panic(fmt.Sprintf("BUG: wr immediate %d does not fit in 13 bits", ri.imm))
		}
	case operandKindReg:
		mustClass(ri.reg, regalloc.RegTypeInt, "wr source")
	default:
		panic("BUG: missing wr operand")
	}
	i.kind = asr
	i.u1 = uint64(r)
	i.b1 = true
	i.rn, i.ri = srcL, ri
	return i
}

func (i *instruction) asReadASR(r asrReg, dst regalloc.VReg) *instruction {
	mustClass(dst, regalloc.RegTypeInt, "rd destination")
	i.kind = asr
	i.u1 = uint64(r)
	i.rd = dst
	return i
}

func (i *instruction) asXDirect(dstGA uint64, amPC addressMode, c condCode, toFastEP bool) *instruction {
	i.kind = xDirect
	i.u1 = dstGA
	i.amode = amPC
	i.cond = c
	i.b1 = toFastEP
	return i
}

func (i *instruction) asXIndir(dstGA regalloc.VReg, amPC addressMode, c condCode) *instruction {
	mustClass(dstGA, regalloc.RegTypeInt, "indirect exit target")
	i.kind = xIndir
	i.rn = dstGA
	i.amode = amPC
	i.cond = c
	return i
}

func (i *instruction) asXAssisted(dstGA regalloc.VReg, amPC addressMode, c condCode, jk ir.JumpKind) *instruction {
	mustClass(dstGA, regalloc.RegTypeInt, "assisted exit target")
	i.kind = xAssisted
	i.rn = dstGA
	i.amode = amPC
	i.cond = c
	i.u1 = uint64(trcOf(jk))
	return i
}

// trcOf returns the trap return code an assisted exit of the given kind reports.
func trcOf(jk ir.JumpKind) jitapi.TRC {
	switch jk {
	case ir.JumpBoring:
		return jitapi.TRCBoring
	case ir.JumpClientReq:
		return jitapi.TRCClientReq
	case ir.JumpEmWarn:
		return jitapi.TRCEmWarn
	case ir.JumpEmFail:
		return jitapi.TRCEmFail
	case ir.JumpInvalICache:
		return jitapi.TRCInvalICache
	case ir.JumpNoDecode:
		return jitapi.TRCNoDecode
	case ir.JumpNoRedir:
		return jitapi.TRCNoRedir
	case ir.JumpSigBUS:
		return jitapi.TRCSigBUS
	case ir.JumpSigILL:
		return jitapi.TRCSigILL
	case ir.JumpSigTRAP:
		return jitapi.TRCSigTRAP
	case ir.JumpSigFPEIntDiv:
		return jitapi.TRCSigFPEIntDiv
	case ir.JumpSigFPEIntOvf:
		return jitapi.TRCSigFPEIntOvf
	case ir.JumpSysSyscall:
		return jitapi.TRCSysSyscall
	case ir.JumpSysSyscall110:
		return jitapi.TRCSysSyscall110
	case ir.JumpSysSyscall111:
		return jitapi.TRCSysSyscall111
	case ir.JumpSysFasttrap:
		return jitapi.TRCSysFasttrap
	case ir.JumpYield:
		return jitapi.TRCYield
	}
	panic(fmt.Sprintf("BUG: no trap return code for jump kind %s", jk))
}

func (i *instruction) asEvCheck(offCounter, offFailAddr int32) *instruction {
	if !fitsSimm13(offCounter) || !fitsSimm13(offFailAddr) {
		panic("BUG: event check offsets must fit in 13 bits")
	}
	i.kind = evCheck
	i.u1 = uint64(uint32(offCounter))
	i.u2 = uint64(uint32(offFailAddr))
	return i
}

func (i *instruction) asProfInc() *instruction {
	i.kind = profInc
	return i
}

// asAlignDataFp aligns the concatenation of dst and srcR at the byte offset in sel. dst is both read and written.
func (i *instruction) asAlignDataFp(dst, sel, srcR regalloc.VReg) *instruction {
	mustClass(dst, regalloc.RegTypeF64, "faligndata destination")
	mustClass(sel, regalloc.RegTypeInt, "faligndata selector")
	mustClass(srcR, regalloc.RegTypeF64, "faligndata source")
	i.kind = alignDataFp
	i.rd, i.rn, i.rm = dst, sel, srcR
	return i
}

func (i *instruction) asAluFp(op aluFpOp, dst, srcL, srcR regalloc.VReg) *instruction {
	mustFloat(dst, op.String()+" destination")
	mustFloat(srcL, op.String()+" source")
	if op != aluFpOpFnot {
		mustSameClass(op.String(), srcL, srcR)
	}
	switch {
	case op == aluFpOpFsdmul:
		want := regalloc.RegTypeInvalid
		switch srcL.RegType() {
		case regalloc.RegTypeF32:
			want = regalloc.RegTypeF64
		case regalloc.RegTypeF64:
			want = regalloc.RegTypeF128
		}
		mustClass(dst, want, "fsdmul destination")
	case op.logical():
		if srcL.RegType() == regalloc.RegTypeF128 {
			panic(fmt.Sprintf("BUG: %s on quad registers", op))
		}
		mustSameClass(op.String(), dst, srcL)
	default:
		mustSameClass(op.String(), dst, srcL)
	}
	i.kind = aluFp
	i.u1 = uint64(op)
	i.rd, i.rn, i.rm = dst, srcL, srcR
	return i
}

func (i *instruction) asFpUnary(kind instructionKind, dst, src regalloc.VReg) *instruction {
	mustFloat(dst, kind.String()+" destination")
	mustSameClass(kind.String(), dst, src)
	i.kind = kind
	i.rd, i.rn = dst, src
	return i
}

func (i *instruction) asAbsFp(dst, src regalloc.VReg) *instruction  { return i.asFpUnary(absFp, dst, src) }
func (i *instruction) asNegFp(dst, src regalloc.VReg) *instruction  { return i.asFpUnary(negFp, dst, src) }
func (i *instruction) asSqrtFp(dst, src regalloc.VReg) *instruction { return i.asFpUnary(sqrtFp, dst, src) }
func (i *instruction) asMovFp(dst, src regalloc.VReg) *instruction  { return i.asFpUnary(movFp, dst, src) }

func (i *instruction) asCmpFp(srcL, srcR regalloc.VReg, fccn byte) *instruction {
	mustFloat(srcL, "fcmp source")
	mustSameClass("fcmp", srcL, srcR)
	if fccn > 3 {
		panic(fmt.Sprintf("BUG: %%fcc%d does not exist", fccn))
	}
	i.kind = cmpFp
	i.rn, i.rm = srcL, srcR
	i.u1 = uint64(fccn)
	return i
}

// asConvFp converts between floating point formats. With fromInt, src holds an integer in a floating point
// register; with toInt, dst receives one.
func (i *instruction) asConvFp(dst, src regalloc.VReg, fromInt, toInt bool) *instruction {
	mustFloat(dst, "conversion destination")
	mustFloat(src, "conversion source")
	if fromInt && toInt {
		panic("BUG: integer to integer conversion")
	}
	if _, ok := convFpOpcode(src.RegType(), dst.RegType(), fromInt, toInt); !ok {
		panic(fmt.Sprintf("BUG: unsupported conversion %s -> %s (fromInt=%v, toInt=%v)", src.RegType(), dst.RegType(), fromInt, toInt))
	}
	i.kind = convFp
	i.rd, i.rn = dst, src
	i.b1, i.b2 = fromInt, toInt
	return i
}

func (i *instruction) asFusedFp(op fusedFpOp, dst, a1, a2, a3 regalloc.VReg) *instruction {
	mustSameClass(op.String(), dst, a1, a2, a3)
	if t := dst.RegType(); t != regalloc.RegTypeF32 && t != regalloc.RegTypeF64 {
		panic(fmt.Sprintf("BUG: %s on %s registers", op, t))
	}
	i.kind = fusedFp
	i.u1 = uint64(op)
	i.rd, i.rn, i.rm, i.ra = dst, a1, a2, a3
	return i
}

// asHalveFp extracts the high or low half of a double or quad register.
func (i *instruction) asHalveFp(dst, src regalloc.VReg, high bool) *instruction {
	switch src.RegType() {
	case regalloc.RegTypeF128:
		mustClass(dst, regalloc.RegTypeF64, "quad half")
	case regalloc.RegTypeF64:
		mustClass(dst, regalloc.RegTypeF32, "double half")
	default:
		panic(fmt.Sprintf("BUG: cannot halve %s", formatVReg(src)))
	}
	i.kind = halveFp
	i.rd, i.rn = dst, src
	i.b1 = high
	return i
}

func (i *instruction) asMovFpICond(c condCode, dst, src regalloc.VReg) *instruction {
	mustFloat(dst, "fmov destination")
	mustSameClass("fmovcc", dst, src)
	i.kind = movFpICond
	i.cond = c
	i.rd, i.rn = dst, src
	return i
}

func (i *instruction) asMovIRegToFp(dst, src regalloc.VReg) *instruction {
	if t := dst.RegType(); t != regalloc.RegTypeF32 && t != regalloc.RegTypeF64 {
		panic(fmt.Sprintf("BUG: integer move into %s", formatVReg(dst)))
	}
	mustClass(src, regalloc.RegTypeInt, "movxtod source")
	i.kind = movIRegToFp
	i.rd, i.rn = dst, src
	return i
}

func (i *instruction) asMovFpToIReg(dst, src regalloc.VReg) *instruction {
	if t := src.RegType(); t != regalloc.RegTypeF32 && t != regalloc.RegTypeF64 {
		panic(fmt.Sprintf("BUG: integer move from %s", formatVReg(src)))
	}
	mustClass(dst, regalloc.RegTypeInt, "movdtox destination")
	i.kind = movFpToIReg
	i.rd, i.rn = dst, src
	return i
}

func (i *instruction) asShftFp(op shftFpOp, dst, srcL, srcR regalloc.VReg) *instruction {
	mustClass(dst, regalloc.RegTypeF64, op.String()+" destination")
	mustClass(srcL, regalloc.RegTypeF64, op.String()+" source")
	mustClass(srcR, regalloc.RegTypeF64, op.String()+" amount")
	i.kind = shftFp
	i.u1 = uint64(op)
	i.rd, i.rn, i.rm = dst, srcL, srcR
	return i
}

func (i *instruction) asShuffleFp(dst, srcL, srcR regalloc.VReg) *instruction {
	mustClass(dst, regalloc.RegTypeF64, "bshuffle destination")
	mustClass(srcL, regalloc.RegTypeF64, "bshuffle source")
	mustClass(srcR, regalloc.RegTypeF64, "bshuffle source")
	i.kind = shuffleFp
	i.rd, i.rn, i.rm = dst, srcL, srcR
	return i
}

func (i *instruction) asLoadGuestState() *instruction {
	i.kind = loadGuestState
	return i
}

func (i *instruction) asStoreGuestState() *instruction {
	i.kind = storeGuestState
	return i
}

func (i *instruction) asUnrecognized(bits uint32) *instruction {
	i.kind = unrecognized
	i.u1 = uint64(bits)
	return i
}

// RegUsage implements regalloc.Instr.
func (i *instruction) RegUsage(u *regalloc.RegUsage) {
	switch i.kind {
	case nop0, membar, evCheck, profInc:
	case loadImm:
		u.Write(i.rd)
	case alu, shift:
		u.Read(i.rn)
		i.ri.regUsage(u)
		u.Write(i.rd)
	case load:
		i.amode.regUsage(u)
		if !i.isFSRAccess() {
			u.Write(i.rd)
		}
	case store:
		if !i.isFSRAccess() {
			u.Read(i.rn)
		}
		i.amode.regUsage(u)
	case moveCond, movFpICond:
		u.Modify(i.rd)
		u.Read(i.rn)
	case moveReg:
		u.Modify(i.rd)
		u.Read(i.rn)
		i.ri.regUsage(u)
	case call:
		u.Read(i.rn)
		for _, r := range callClobbered {
			u.Write(realRegVReg(r))
		}
		for _, r := range argRegs[:i.u1] {
			u.Read(realRegVReg(r))
		}
	case cas:
		u.Read(i.rn)
		u.Read(i.rm)
		u.Modify(i.rd)
	case ldstub:
		i.amode.regUsage(u)
		u.Write(i.rd)
	case lzcnt, absFp, negFp, sqrtFp, movFp, convFp, halveFp, movIRegToFp, movFpToIReg:
		u.Read(i.rn)
		u.Write(i.rd)
	case asr:
		if i.b1 {
			u.Read(i.rn)
			i.ri.regUsage(u)
		} else {
			u.Write(i.rd)
		}
	case xDirect:
		i.amode.regUsage(u)
	case xIndir, xAssisted:
		u.Read(i.rn)
		i.amode.regUsage(u)
	case alignDataFp:
		u.Read(i.rn)
		u.Read(i.rm)
		u.Modify(i.rd)
	case aluFp:
		u.Read(i.rn)
		if aluFpOp(i.u1) != aluFpOpFnot {
			u.Read(i.rm)
		}
		u.Write(i.rd)
	case cmpFp:
		u.Read(i.rn)
		u.Read(i.rm)
	case fusedFp:
		u.Read(i.rn)
		u.Read(i.rm)
		u.Read(i.ra)
		u.Write(i.rd)
	case shftFp, shuffleFp:
		u.Read(i.rn)
		u.Read(i.rm)
		u.Write(i.rd)
	case loadGuestState, storeGuestState, unrecognized:
		// The trampoline reloads every host register from the guest state.
		for _, r := range GetUniverse().Regs()[:numAllocatable] {
			u.Write(realRegVReg(r))
		}
	default:
		panic(fmt.Sprintf("BUG: RegUsage of %s", i.kind))
	}
}

// MapRegs implements regalloc.Instr.
func (i *instruction) MapRegs(f func(regalloc.VReg) regalloc.VReg) {
	for _, r := range []*regalloc.VReg{&i.rd, &i.rn, &i.rm, &i.ra} {
		if r.Valid() {
			*r = f(*r)
		}
	}
	i.ri.mapRegs(f)
	if i.amode.rn.Valid() {
		i.amode.mapRegs(f)
	}
}

// IsMove implements regalloc.Instr.
func (i *instruction) IsMove() (dst, src regalloc.VReg, ok bool) {
	switch i.kind {
	case alu:
		if aluOp(i.u1) != aluOpOr || i.ri.kind != operandKindReg {
			return
		}
		if i.rn == g0VReg {
			return i.rd, i.ri.reg, true
		}
		if i.ri.reg == g0VReg {
			return i.rd, i.rn, true
		}
	case movFp:
		return i.rd, i.rn, true
	}
	return
}

// String implements fmt.Stringer.
func (i *instruction) String() string {
	switch i.kind {
	case nop0:
		return "nop0"
	case loadImm:
		return fmt.Sprintf("setx %#x, %s", i.u1, formatVReg(i.rd))
	case alu:
		return fmt.Sprintf("%s %s, %s, %s", aluOp(i.u1), formatVReg(i.rn), i.ri, formatVReg(i.rd))
	case shift:
		return fmt.Sprintf("%s %s, %s, %s", shiftOp(i.u1), formatVReg(i.rn), i.ri, formatVReg(i.rd))
	case load:
		if i.isFSRAccess() {
			return fmt.Sprintf("ldx %s, %%fsr", i.amode)
		}
		if i.asi.kind != asiNone {
			return fmt.Sprintf("lda%d %s%s, %s", i.u1, i.amode, i.asi, formatVReg(i.rd))
		}
		return fmt.Sprintf("ld%d %s, %s", i.u1, i.amode, formatVReg(i.rd))
	case store:
		if i.isFSRAccess() {
			return fmt.Sprintf("stx %%fsr, %s", i.amode)
		}
		if i.asi.kind != asiNone {
			return fmt.Sprintf("sta%d %s, %s%s", i.u1, formatVReg(i.rn), i.amode, i.asi)
		}
		return fmt.Sprintf("st%d %s, %s", i.u1, formatVReg(i.rn), i.amode)
	case moveCond:
		return fmt.Sprintf("mov%s %%xcc, %s, %s", i.cond, formatVReg(i.rn), formatVReg(i.rd))
	case moveReg:
		return fmt.Sprintf("movr%s %s, %s, %s", i.rcond, formatVReg(i.rn), i.ri, formatVReg(i.rd))
	case call:
		return fmt.Sprintf("call: if (%s) { jmpl %s, %%o7; nop } [#args=%d, ret=%s]", i.cond, formatVReg(i.rn), i.u1, i.rloc)
	case cas:
		return fmt.Sprintf("cas%d [%s], %s, %s", i.u1, formatVReg(i.rn), formatVReg(i.rm), formatVReg(i.rd))
	case ldstub:
		return fmt.Sprintf("ldstub %s, %s", i.amode, formatVReg(i.rd))
	case lzcnt:
		return fmt.Sprintf("lzcnt %s, %s", formatVReg(i.rn), formatVReg(i.rd))
	case membar:
		return "membar #MemIssue"
	case asr:
		if i.b1 {
			return fmt.Sprintf("wr %s, %s, %s", formatVReg(i.rn), i.ri, asrReg(i.u1))
		}
		return fmt.Sprintf("rd %s, %s", asrReg(i.u1), formatVReg(i.rd))
	case xDirect:
		ep := "slow"
		if i.b1 {
			ep = "fast"
		}
		return fmt.Sprintf("(xDirect) if (%s) { setx %#x, %%g4; stx %%g4, %s; setx chain_me_to_%sEP, %%g4; jmpl %%g4, %%o7; nop }",
			i.cond, i.u1, i.amode, ep)
	case xIndir:
		return fmt.Sprintf("(xIndir) if (%s) { stx %s, %s; setx xindir, %%g4; jmpl %%g4, %%o7; nop }",
			i.cond, formatVReg(i.rn), i.amode)
	case xAssisted:
		return fmt.Sprintf("(xAssisted) if (%s) { stx %s, %s; setx $%d, %%g5; setx xassisted, %%g4; jmpl %%g4, %%o7; nop } [%s]",
			i.cond, formatVReg(i.rn), i.amode, i.u1, jitapi.TRC(i.u1))
	case evCheck:
		return fmt.Sprintf("(evCheck) lduw [%%g5+%d], %%g4; subcc %%g4, 1, %%g4; bpos nofail; stw %%g4, [%%g5+%d]; ldx [%%g5+%d], %%g4; jmpl %%g4, %%o7; nop; nofail:",
			int32(i.u1), int32(i.u1), int32(i.u2))
	case profInc:
		return "(profInc)"
	case alignDataFp:
		return fmt.Sprintf("faligndatai %s, %s, %s", formatVReg(i.rn), formatVReg(i.rm), formatVReg(i.rd))
	case aluFp:
		if aluFpOp(i.u1) == aluFpOpFnot {
			return fmt.Sprintf("fnot %s, %s", formatVReg(i.rn), formatVReg(i.rd))
		}
		return fmt.Sprintf("%s %s, %s, %s", aluFpOp(i.u1), formatVReg(i.rn), formatVReg(i.rm), formatVReg(i.rd))
	case absFp:
		return fmt.Sprintf("fabs %s, %s", formatVReg(i.rn), formatVReg(i.rd))
	case negFp:
		return fmt.Sprintf("fneg %s, %s", formatVReg(i.rn), formatVReg(i.rd))
	case sqrtFp:
		return fmt.Sprintf("fsqrt %s, %s", formatVReg(i.rn), formatVReg(i.rd))
	case movFp:
		return fmt.Sprintf("fmov %s, %s", formatVReg(i.rn), formatVReg(i.rd))
	case cmpFp:
		return fmt.Sprintf("fcmp %%fcc%d, %s, %s", i.u1, formatVReg(i.rn), formatVReg(i.rm))
	case convFp:
		from, to := "f", "f"
		if i.b1 {
			from = "i"
		}
		if i.b2 {
			to = "i"
		}
		return fmt.Sprintf("f%sto%s %s, %s", from, to, formatVReg(i.rn), formatVReg(i.rd))
	case fusedFp:
		return fmt.Sprintf("%s %s, %s, %s, %s", fusedFpOp(i.u1), formatVReg(i.rn), formatVReg(i.rm), formatVReg(i.ra), formatVReg(i.rd))
	case halveFp:
		half := "lo"
		if i.b1 {
			half = "hi"
		}
		return fmt.Sprintf("fhalve.%s %s, %s", half, formatVReg(i.rn), formatVReg(i.rd))
	case movFpICond:
		return fmt.Sprintf("fmov%s %%xcc, %s, %s", i.cond, formatVReg(i.rn), formatVReg(i.rd))
	case movIRegToFp:
		return fmt.Sprintf("movxtod %s, %s", formatVReg(i.rn), formatVReg(i.rd))
	case movFpToIReg:
		return fmt.Sprintf("movdtox %s, %s", formatVReg(i.rn), formatVReg(i.rd))
	case shftFp:
		return fmt.Sprintf("%s %s, %s, %s", shftFpOp(i.u1), formatVReg(i.rn), formatVReg(i.rm), formatVReg(i.rd))
	case shuffleFp:
		return fmt.Sprintf("bshuffle %s, %s, %s", formatVReg(i.rn), formatVReg(i.rm), formatVReg(i.rd))
	case loadGuestState:
		return "(loadGuestState)"
	case storeGuestState:
		return "(storeGuestState)"
	case unrecognized:
		return fmt.Sprintf("(unrecognized) .word %#08x", i.u1)
	}
	return fmt.Sprintf("BUG: %s", i.kind)
}
