package sparc64

import (
	"fmt"

	"github.com/sparcjit/sparcjit/internal/asm"
	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
	"github.com/sparcjit/sparcjit/internal/engine/jitapi"
)

// minEmitSpace is the room the code buffer must have left before any instruction is encoded.
const minEmitSpace = 32

const (
	nopWord = 0x01000000
	// jmplO7 is jmpl %rs1, %o7 without the rs1 field.
	jmplO7 = 0x9FC00000
	// reloadGSPtr is ldx [%fp+2031], %g5: a helper call may trash the guest state pointer.
	reloadGSPtr = 0xCA5FA7EF
	// branchXcc is bpcc,pn %xcc without the cond and displacement fields.
	branchXcc    = 0x00600000
	saveFrame    = 0x9DE3A000
	restoreFrame = 0x81E80000

	// loadImmWordLen is the number of words of a wide-immediate load.
	loadImmWordLen = 6
)

// minFrameSize is the size of the register window save area the trampoline allocates.
const minFrameSize = 176

var (
	g1No = uint32(RegEncoding(g1))
	g4No = uint32(RegEncoding(g4))
	g5No = uint32(RegEncoding(g5))
	o7No = uint32(RegEncoding(o7))
)

// encodeSethi returns sethi %hi(imm), rd.
func encodeSethi(rd, imm uint32) uint32 {
	return rd<<25 | 0x4<<22 | imm>>10
}

// encodeOrImm returns or rs1, simm13, rd.
func encodeOrImm(rd, rs1, imm uint32) uint32 {
	return 0x80102000 | rd<<25 | rs1<<14 | imm&simm13Mask
}

// loadImmWords returns the six words materializing imm in dst, using tmp for the upper half.
// The layout is fixed: chaining rewrites it in place.
func loadImmWords(tmp, dst uint32, imm uint64) [loadImmWordLen]uint32 {
	hi, lo := uint32(imm>>32), uint32(imm)
	return [loadImmWordLen]uint32{
		encodeSethi(tmp, hi),
		encodeOrImm(tmp, tmp, hi&simm10Mask),
		encodeSethi(dst, lo),
		encodeOrImm(dst, dst, lo&simm10Mask),
		// sllx tmp, 32, tmp
		0x81283000 | tmp<<25 | tmp<<14 | 32,
		// or tmp, dst, dst
		0x80100000 | dst<<25 | tmp<<14 | dst,
	}
}

func emitLoadImmWord(buf asm.Buffer, tmp, dst uint32, imm uint64) {
	for _, w := range loadImmWords(tmp, dst, imm) {
		buf.EmitWord(w)
	}
}

// emitLoadImm materializes imm in dst with as few words as its magnitude allows.
func emitLoadImm(buf asm.Buffer, dst uint32, imm uint64) {
	switch {
	case imm>>32 > 0:
		emitLoadImmWord(buf, g1No, dst, imm)
	case imm > 0xFFF:
		buf.EmitWord(encodeSethi(dst, uint32(imm)))
		buf.EmitWord(encodeOrImm(dst, dst, uint32(imm)&simm10Mask))
	default:
		buf.EmitWord(encodeOrImm(dst, 0, uint32(imm)))
	}
}

// loadImmLen returns the number of bytes emitLoadImm writes for imm.
func loadImmLen(imm uint64) int {
	switch {
	case imm>>32 > 0:
		return 4 * loadImmWordLen
	case imm > 0xFFF:
		return 8
	}
	return 4
}

// encodeRegOrImm returns the i, rs2 and simm13 fields of a register-or-immediate operand.
func encodeRegOrImm(ri operand, mask uint32) uint32 {
	if ri.kind == operandKindImm {
		return 1<<13 | uint32(ri.imm)&mask
	}
	return iregNo(ri.reg)
}

func encodeAMode(a addressMode, asi asiOperand) uint32 {
	switch a.kind {
	case addressModeKindIR:
		return 1<<13 | iregNo(a.rn)<<14 | uint32(a.imm)&simm13Mask
	case addressModeKindRR:
		w := iregNo(a.rn)<<14 | iregNo(a.rm)
		if asi.kind == asiImm {
			w |= uint32(asi.imm) << 5
		}
		return w
	}
	panic(fmt.Sprintf("BUG: invalid addressing mode %d", a.kind))
}

// memOp identifies one row of the load/store opcode table.
type memOp struct {
	store bool
	size  byte
	float bool
	asi   bool
}

var memOpcodes = map[memOp]uint32{
	{store: true, size: 1}:               0xC0280000,
	{store: true, size: 2}:               0xC0300000,
	{store: true, size: 4}:               0xC0200000,
	{store: true, size: 8}:               0xC0700000,
	{store: true, size: 4, float: true}:  0xC1200000,
	{store: true, size: 8, float: true}:  0xC1380000,
	{store: true, size: 16, float: true}: 0xC1300000,
	{size: 1}:                            0xC0080000,
	{size: 2}:                            0xC0100000,
	{size: 4}:                            0xC0000000,
	{size: 8}:                            0xC0580000,
	{size: 4, float: true}:               0xC1000000,
	{size: 8, float: true}:               0xC1180000,
	{size: 16, float: true}:              0xC1100000,
	{store: true, size: 1, asi: true}:    0xC0A80000,
	{store: true, size: 2, asi: true}:    0xC0B00000,
	{store: true, size: 4, asi: true}:    0xC0A00000,
	{store: true, size: 8, asi: true}:    0xC0F00000,
	{size: 1, asi: true}:                 0xC0880000,
	{size: 2, asi: true}:                 0xC0900000,
	{size: 4, asi: true}:                 0xC0800000,
	{size: 8, asi: true}:                 0xC0D80000,
}

const (
	stxfsrOpcode = 0xC1280000 | 1<<25
	ldxfsrOpcode = 0xC1080000 | 1<<25
)

// memOpcode returns the base opcode of a load or store, panicking on combinations the host lacks.
func memOpcode(op memOp) uint32 {
	w, ok := memOpcodes[op]
	if !ok {
		panic(fmt.Sprintf("BUG: no opcode for %+v", op))
	}
	return w
}

// encodeLoadStore returns the word of a load or store of reg at amode.
func encodeLoadStore(store bool, size byte, reg regalloc.VReg, amode addressMode, asi asiOperand) uint32 {
	op := memOp{store: store, size: size, asi: asi.kind != asiNone}
	var rd uint32
	if reg.RegType().IsFloat() {
		op.float = true
		rd = fregNo(reg, true)
	} else {
		rd = iregNo(reg)
	}
	return memOpcode(op) | rd<<25 | encodeAMode(amode, asi)
}

// encodeStx returns stx rd, [amode] for a hardware register number.
func encodeStx(rd uint32, amode addressMode) uint32 {
	return memOpcode(memOp{store: true, size: 8}) | rd<<25 | encodeAMode(amode, asiOperand{})
}

// encodeLdx returns ldx [amode], rd for a hardware register number.
func encodeLdx(rd uint32, amode addressMode) uint32 {
	return memOpcode(memOp{size: 8}) | rd<<25 | encodeAMode(amode, asiOperand{})
}

var aluOpcodes = [numAluOps]uint32{
	aluOpAdd:     0x80000000,
	aluOpSub:     0x80200000,
	aluOpMulx:    0x80480000,
	aluOpSmul:    0x80580000,
	aluOpUmul:    0x80500000,
	aluOpUmulxhi: 0x81B002C0,
	aluOpUdivx:   0x80680000,
	aluOpSdivx:   0x81680000,
	aluOpSdiv:    0x80780000,
	aluOpUdiv:    0x80700000,
	aluOpSubcc:   0x80A00000,
	aluOpAnd:     0x80080000,
	aluOpAndcc:   0x80880000,
	aluOpOr:      0x80100000,
	aluOpOrn:     0x80300000,
	aluOpXor:     0x80180000,
	aluOpXnor:    0x80380000,
}

var shiftOpcodes = [numShiftOps]uint32{
	shiftOpSll:  0x81280000,
	shiftOpSrl:  0x81300000,
	shiftOpSra:  0x81380000,
	shiftOpSllx: 0x81281000,
	shiftOpSrlx: 0x81301000,
	shiftOpSrax: 0x81381000,
}

var aluFpOpcodes = [numAluFpOps]uint32{
	aluFpOpFadd:   0x81A00800,
	aluFpOpFand:   0x81B00E00,
	aluFpOpFdiv:   0x81A00980,
	aluFpOpFmul:   0x81A00900,
	aluFpOpFsdmul: 0x81A00D00,
	aluFpOpFnot:   0x81B00D40,
	aluFpOpFor:    0x81B00F80,
	aluFpOpFsub:   0x81A00880,
	aluFpOpFxor:   0x81B00D80,
}

var shftFpOpcodes = [numShftFpOps]uint32{
	shftFpOpSll16:  0x81B00420,
	shftFpOpSrl16:  0x81B00460,
	shftFpOpSll32:  0x81B004A0,
	shftFpOpSrl32:  0x81B004E0,
	shftFpOpSlas16: 0x81B00520,
	shftFpOpSra16:  0x81B00560,
	shftFpOpSlas32: 0x81B005A0,
	shftFpOpSra32:  0x81B005E0,
}

// fpSizeBits returns the operand size field of the arithmetic floating point instructions.
func fpSizeBits(t regalloc.RegType) uint32 {
	switch t {
	case regalloc.RegTypeF32:
		return 0x20
	case regalloc.RegTypeF64:
		return 0x40
	case regalloc.RegTypeF128:
		return 0x60
	}
	panic(fmt.Sprintf("BUG: %s is not a floating point class", t))
}

// visSizeBits returns the operand size field of the VIS instructions, which only exist for singles and doubles.
func visSizeBits(t regalloc.RegType) uint32 {
	switch t {
	case regalloc.RegTypeF32:
		return 0x20
	case regalloc.RegTypeF64:
		return 0
	}
	panic(fmt.Sprintf("BUG: no VIS form for %s", t))
}

type convFpKey struct {
	src, dst       regalloc.RegType
	fromInt, toInt bool
}

var convFpOpcodes = map[convFpKey]uint32{
	{regalloc.RegTypeF32, regalloc.RegTypeF32, true, false}:  0x81A01880,
	{regalloc.RegTypeF32, regalloc.RegTypeF64, true, false}:  0x81A01900,
	{regalloc.RegTypeF32, regalloc.RegTypeF128, true, false}: 0x81A01980,
	{regalloc.RegTypeF64, regalloc.RegTypeF32, true, false}:  0x81A01080,
	{regalloc.RegTypeF64, regalloc.RegTypeF64, true, false}:  0x81A01100,
	{regalloc.RegTypeF64, regalloc.RegTypeF128, true, false}: 0x81A01180,

	{regalloc.RegTypeF32, regalloc.RegTypeF32, false, true}:  0x81A01A20,
	{regalloc.RegTypeF32, regalloc.RegTypeF64, false, true}:  0x81A01020,
	{regalloc.RegTypeF64, regalloc.RegTypeF32, false, true}:  0x81A01A40,
	{regalloc.RegTypeF64, regalloc.RegTypeF64, false, true}:  0x81A01040,
	{regalloc.RegTypeF128, regalloc.RegTypeF32, false, true}: 0x81A01A60,
	{regalloc.RegTypeF128, regalloc.RegTypeF64, false, true}: 0x81A01060,

	{regalloc.RegTypeF32, regalloc.RegTypeF64, false, false}:  0x81A01920,
	{regalloc.RegTypeF32, regalloc.RegTypeF128, false, false}: 0x81A019A0,
	{regalloc.RegTypeF64, regalloc.RegTypeF32, false, false}:  0x81A018C0,
	{regalloc.RegTypeF64, regalloc.RegTypeF128, false, false}: 0x81A019C0,
	{regalloc.RegTypeF128, regalloc.RegTypeF32, false, false}: 0x81A018E0,
	{regalloc.RegTypeF128, regalloc.RegTypeF64, false, false}: 0x81A01960,
}

// convFpOpcode returns the opcode converting a src register into a dst register. fromInt and toInt mark the
// side holding an integer.
func convFpOpcode(src, dst regalloc.RegType, fromInt, toInt bool) (uint32, bool) {
	w, ok := convFpOpcodes[convFpKey{src, dst, fromInt, toInt}]
	return w, ok
}

// emitGuarded emits body, skipped at run time unless c holds. Nothing is emitted when c never holds.
func emitGuarded(buf asm.Buffer, c condCode, body func()) {
	if c == condN {
		return
	}
	at := -1
	if c != condA {
		at = buf.Len()
		buf.EmitWord(0)
		buf.EmitWord(0)
	}
	body()
	if at >= 0 {
		delta := uint32(buf.Len()-at) / 4
		buf.PatchWord(at, branchXcc|c.invert().encoding()<<25|delta)
		buf.PatchWord(at+4, nopWord)
	}
}

// encode writes the machine code of i, whose registers must all be allocated, to buf and returns the number of
// bytes written.
func (i *instruction) encode(buf asm.Buffer, stubs *Stubs) int {
	if r := buf.Remaining(); r >= 0 && r < minEmitSpace {
		panic(fmt.Sprintf("BUG: %d bytes left in the code buffer, at least %d are needed", r, minEmitSpace))
	}
	start := buf.Len()

	switch i.kind {
	case nop0, profInc:
	case loadImm:
		emitLoadImm(buf, iregNo(i.rd), i.u1)
	case alu:
		buf.EmitWord(aluOpcodes[i.u1] | iregNo(i.rd)<<25 | iregNo(i.rn)<<14 | encodeRegOrImm(i.ri, simm13Mask))
	case shift:
		op := shiftOp(i.u1)
		buf.EmitWord(shiftOpcodes[op] | iregNo(i.rd)<<25 | iregNo(i.rn)<<14 | encodeRegOrImm(i.ri, uint32(op.maxAmount())))
	case load:
		if i.isFSRAccess() {
			buf.EmitWord(ldxfsrOpcode | encodeAMode(i.amode, asiOperand{}))
		} else {
			buf.EmitWord(encodeLoadStore(false, byte(i.u1), i.rd, i.amode, i.asi))
		}
	case store:
		if i.isFSRAccess() {
			buf.EmitWord(stxfsrOpcode | encodeAMode(i.amode, asiOperand{}))
		} else {
			buf.EmitWord(encodeLoadStore(true, byte(i.u1), i.rn, i.amode, i.asi))
		}
	case moveCond:
		buf.EmitWord(0x81641000 | iregNo(i.rd)<<25 | i.cond.encoding()<<14 | iregNo(i.rn))
	case moveReg:
		buf.EmitWord(0x81780000 | iregNo(i.rd)<<25 | uint32(i.rcond)<<10 | iregNo(i.rn)<<14 | encodeRegOrImm(i.ri, simm10Mask))
	case call:
		target := iregNo(i.rn)
		emitGuarded(buf, i.cond, func() {
			buf.EmitWord(jmplO7 | target<<14)
			buf.EmitWord(nopWord)
			buf.EmitWord(reloadGSPtr)
		})
	case cas:
		w := uint32(0xC1E00000)
		if i.u1 == 8 {
			w = 0xC1F00000
		}
		// ASI_PRIMARY
		buf.EmitWord(w | iregNo(i.rd)<<25 | iregNo(i.rn)<<14 | iregNo(i.rm) | 0x80<<5)
	case ldstub:
		buf.EmitWord(0xC0680000 | iregNo(i.rd)<<25 | encodeAMode(i.amode, asiOperand{}))
	case lzcnt:
		buf.EmitWord(0x81B002E0 | iregNo(i.rd)<<25 | iregNo(i.rn))
	case membar:
		// cmask bit 1.
		buf.EmitWord(0x8143E000 | 1<<5)
	case asr:
		if i.b1 {
			buf.EmitWord(0x81800000 | uint32(i.u1)<<25 | iregNo(i.rn)<<14 | encodeRegOrImm(i.ri, simm13Mask))
		} else {
			buf.EmitWord(0x81400000 | iregNo(i.rd)<<25 | uint32(i.u1)<<14)
		}
	case xDirect:
		stub := stubs.ChainMeToSlowEP
		if i.b1 {
			stub = stubs.ChainMeToFastEP
		}
		emitGuarded(buf, i.cond, func() {
			emitLoadImmWord(buf, g1No, g4No, i.u1)
			buf.EmitWord(encodeStx(g4No, i.amode))
			emitExit(buf, stub)
		})
	case xIndir:
		emitGuarded(buf, i.cond, func() {
			buf.EmitWord(encodeStx(iregNo(i.rn), i.amode))
			emitExit(buf, stubs.XIndir)
		})
	case xAssisted:
		emitGuarded(buf, i.cond, func() {
			buf.EmitWord(encodeStx(iregNo(i.rn), i.amode))
			emitLoadImmWord(buf, g1No, g5No, i.u1)
			emitExit(buf, stubs.XAssisted)
		})
	case evCheck:
		emitEvCheck(buf, int32(i.u1), int32(i.u2))
		if n := buf.Len() - start; n != EvCheckSize {
			panic(fmt.Sprintf("BUG: event check is %d bytes, want %d", n, EvCheckSize))
		}
	case alignDataFp:
		buf.EmitWord(0x81B00920 | fregNo(i.rd, true)<<25 | iregNo(i.rn)<<14 | fregNo(i.rm, true))
	case aluFp:
		buf.EmitWord(encodeAluFp(aluFpOp(i.u1), i.rd, i.rn, i.rm))
	case absFp:
		buf.EmitWord(0x81A00100 | fpSizeBits(i.rd.RegType()) | fregNo(i.rd, true)<<25 | fregNo(i.rn, true))
	case negFp:
		buf.EmitWord(0x81A00080 | fpSizeBits(i.rd.RegType()) | fregNo(i.rd, true)<<25 | fregNo(i.rn, true))
	case sqrtFp:
		buf.EmitWord(0x81A00500 | fpSizeBits(i.rd.RegType()) | fregNo(i.rd, true)<<25 | fregNo(i.rn, true))
	case movFp:
		buf.EmitWord(0x81A00000 | fpSizeBits(i.rd.RegType()) | fregNo(i.rd, true)<<25 | fregNo(i.rn, true))
	case cmpFp:
		buf.EmitWord(0x81A80A00 | fpSizeBits(i.rn.RegType()) | uint32(i.u1&3)<<25 | fregNo(i.rn, true)<<14 | fregNo(i.rm, true))
	case convFp:
		w, ok := convFpOpcode(i.rn.RegType(), i.rd.RegType(), i.b1, i.b2)
		if !ok {
			panic("BUG: unsupported conversion " + i.String())
		}
		buf.EmitWord(w | fregNo(i.rd, true)<<25 | fregNo(i.rn, true))
	case fusedFp:
		w := uint32(0x81B80000)
		if fusedFpOp(i.u1) == fusedFpOpMsub {
			w = 0x81B80080
		}
		w |= fpSizeBits(i.rd.RegType())
		buf.EmitWord(w | fregNo(i.rd, true)<<25 | fregNo(i.rn, true)<<14 | fregNo(i.rm, true) | fregNo(i.ra, true)<<9)
	case halveFp:
		w := uint32(0x81B00F00)
		high := uint32(0x04)
		if i.rn.RegType() == regalloc.RegTypeF64 {
			w |= 0x20
			high = 0x02
		}
		if i.b1 {
			w |= high
		}
		buf.EmitWord(w | fregNo(i.rd, true)<<25 | fregNo(i.rn, true))
	case movFpICond:
		buf.EmitWord(0x81A83000 | fpSizeBits(i.rd.RegType()) | fregNo(i.rd, true)<<25 | i.cond.encoding()<<14 | fregNo(i.rn, true))
	case movIRegToFp:
		buf.EmitWord(0x81B02300 | visSizeBits(i.rd.RegType()) | fregNo(i.rd, true)<<25 | iregNo(i.rn))
	case movFpToIReg:
		buf.EmitWord(0x81B02200 | visSizeBits(i.rn.RegType()) | iregNo(i.rd)<<25 | fregNo(i.rn, true))
	case shftFp:
		buf.EmitWord(shftFpOpcodes[i.u1] | fregNo(i.rd, true)<<25 | fregNo(i.rn, true)<<14 | fregNo(i.rm, true))
	case shuffleFp:
		buf.EmitWord(0x81B00980 | fregNo(i.rd, true)<<25 | fregNo(i.rn, true)<<14 | fregNo(i.rm, true))
	case loadGuestState:
		emitLoadGuestState(buf, stubs.LoadGuestRegs)
	case storeGuestState:
		emitStoreGuestState(buf, stubs.StoreGuestRegs)
	case unrecognized:
		buf.EmitWord(uint32(i.u1))
	default:
		panic("BUG: cannot encode " + i.String())
	}
	return buf.Len() - start
}

func encodeAluFp(op aluFpOp, dst, srcL, srcR regalloc.VReg) uint32 {
	w := aluFpOpcodes[op]
	t := srcL.RegType()
	switch {
	case op == aluFpOpFsdmul:
		if t == regalloc.RegTypeF32 {
			w |= 0x20
		} else {
			w |= 0xC0
		}
	case op.logical():
		w |= visSizeBits(t)
	default:
		w |= fpSizeBits(t)
	}
	w |= fregNo(dst, true)<<25 | fregNo(srcL, true)<<14
	if op != aluFpOpFnot {
		w |= fregNo(srcR, true)
	}
	return w
}

// emitExit loads the stub address into %g4 and jumps to it, leaving the return address in %o7.
// The wide-immediate load is what Chain and Unchain rewrite.
func emitExit(buf asm.Buffer, stub uint64) {
	emitLoadImmWord(buf, g1No, g4No, stub)
	buf.EmitWord(jmplO7 | g4No<<14)
	buf.EmitWord(nopWord)
}

func emitEvCheck(buf asm.Buffer, offCounter, offFailAddr int32) {
	cnt := uint32(offCounter) & simm13Mask
	fail := uint32(offFailAddr) & simm13Mask
	buf.EmitWord(0xC8016000 | cnt)  // lduw [%g5+cnt], %g4
	buf.EmitWord(0x88A12001)        // subcc %g4, 1, %g4
	buf.EmitWord(0x1C480005)        // bpos,pt %icc, nofail
	buf.EmitWord(0xC8216000 | cnt)  // stw %g4, [%g5+cnt]
	buf.EmitWord(0xC8596000 | fail) // ldx [%g5+fail], %g4
	buf.EmitWord(jmplO7 | g4No<<14)
	buf.EmitWord(nopWord)
}

// emitLoadGuestState saves the host %o7, opens a register window and calls the routine loading every guest
// register into its host register. The guest %o7 is loaded last since the call itself overwrites it.
func emitLoadGuestState(buf asm.Buffer, loadGuestRegs uint64) {
	buf.EmitWord(encodeStx(o7No, amodeIR(jitapi.OffsetHostO7, g5VReg)))
	buf.EmitWord(saveFrame | (simm13Mask+1-minFrameSize))
	emitExit(buf, loadGuestRegs)
	buf.EmitWord(encodeLdx(o7No, amodeIR(int64(jitapi.OffsetR(15)), g7VReg)))
}

// emitStoreGuestState is the inverse of emitLoadGuestState. %g1 and %g4 are trashed by the call sequence, so they
// are stored by hand first.
func emitStoreGuestState(buf asm.Buffer, storeGuestRegs uint64) {
	buf.EmitWord(encodeStx(o7No, amodeIR(int64(jitapi.OffsetR(15)), g7VReg)))
	buf.EmitWord(encodeStx(g1No, amodeIR(int64(jitapi.OffsetR(1)), g7VReg)))
	buf.EmitWord(encodeStx(g4No, amodeIR(int64(jitapi.OffsetR(4)), g7VReg)))
	emitExit(buf, storeGuestRegs)
	buf.EmitWord(restoreFrame)
	buf.EmitWord(encodeLdx(o7No, amodeIR(jitapi.OffsetHostO7, g5VReg)))
}

// ImmWord is one instruction of a constant materialization.
type ImmWord struct {
	Word uint32
	Asm  string
}

// LoadImmSequence returns the instructions materializing imm in %o0, as emitted for any integer register.
func LoadImmSequence(imm uint64) []ImmWord {
	var seg asm.CodeSegment
	buf := seg.Next()
	emitLoadImm(buf, uint32(RegEncoding(o0)), imm)

	hi, lo := uint32(imm>>32), uint32(imm)
	var text []string
	switch loadImmLen(imm) {
	case 4:
		text = []string{fmt.Sprintf("or %%g0, %#x, %%o0", lo)}
	case 8:
		text = []string{
			fmt.Sprintf("sethi %%hi(%#x), %%o0", lo),
			fmt.Sprintf("or %%o0, %#x, %%o0", lo&simm10Mask),
		}
	default:
		text = []string{
			fmt.Sprintf("sethi %%hi(%#x), %%g1", hi),
			fmt.Sprintf("or %%g1, %#x, %%g1", hi&simm10Mask),
			fmt.Sprintf("sethi %%hi(%#x), %%o0", lo),
			fmt.Sprintf("or %%o0, %#x, %%o0", lo&simm10Mask),
			"sllx %g1, 32, %g1",
			"or %g1, %o0, %o0",
		}
	}
	ret := make([]ImmWord, len(text))
	for k := range ret {
		ret[k] = ImmWord{Word: buf.Word(4 * k), Asm: text[k]}
	}
	return ret
}
