package sparc64

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCondCode_invert(t *testing.T) {
	for c := condA; c < numCondCodes; c++ {
		require.Equal(t, c, c.invert().invert())
		require.NotEqual(t, c, c.invert())
		// Negated conditions differ in bit 3 of the hardware encoding.
		require.Equal(t, c.encoding()^0x8, c.invert().encoding(), c.String())
	}
	require.Equal(t, "invalid", numCondCodes.String())
	require.Panics(t, func() { numCondCodes.encoding() })
}

func TestFitsSimm13(t *testing.T) {
	for _, tc := range []struct {
		v   int64
		exp bool
	}{
		{v: 0, exp: true},
		{v: 4095, exp: true},
		{v: -4096, exp: true},
		{v: 4096, exp: false},
		{v: -4097, exp: false},
	} {
		require.Equal(t, tc.exp, fitsSimm13(tc.v), tc.v)
	}
	require.True(t, fitsUnsigned(uint64(0xff), 8))
	require.False(t, fitsUnsigned(uint64(0x100), 8))
	require.True(t, fitsSigned(int64(-512), simm10Bits))
	require.False(t, fitsSigned(int64(512), simm10Bits))
}

func TestAddressMode_String(t *testing.T) {
	require.Equal(t, "[%g5+528]", guestAMode(528).String())
	require.Equal(t, "[%o0-4]", amodeIR(-4, o0VReg).String())
	require.Equal(t, "[%o0+%o1]", amodeRR(o0VReg, o1VReg).String())
	require.Panics(t, func() { amodeIR(4096, o0VReg) })
	require.Panics(t, func() { amodeRR(o0VReg, d8VReg) })
}

func TestInstruction_constructorsPanic(t *testing.T) {
	for _, tc := range []struct {
		name string
		fn   func(*instruction)
	}{
		{name: "alu immediate too wide", fn: func(i *instruction) { i.asALU(aluOpAdd, o0VReg, o0VReg, operandImm(4096)) }},
		{name: "umulxhi immediate", fn: func(i *instruction) { i.asALU(aluOpUmulxhi, o0VReg, o0VReg, operandImm(1)) }},
		{name: "shift amount", fn: func(i *instruction) { i.asShift(shiftOpSll, o0VReg, o0VReg, operandImm(32)) }},
		{name: "float alu destination", fn: func(i *instruction) { i.asALU(aluOpAdd, d8VReg, o0VReg, operandImm(1)) }},
		{name: "load size", fn: func(i *instruction) { i.asLoad(3, o0VReg, guestAMode(0), asiOperand{}) }},
		{name: "float load size", fn: func(i *instruction) { i.asLoad(4, d8VReg, guestAMode(0), asiOperand{}) }},
		{
			name: "immediate asi with immediate offset",
			fn:   func(i *instruction) { i.asLoad(8, o0VReg, guestAMode(0), asiOperand{kind: asiImm, imm: 0x80}) },
		},
		{name: "movr immediate", fn: func(i *instruction) { i.asMoveReg(regCondZ, o0VReg, o1VReg, operandImm(512)) }},
		{name: "conditional call with result", fn: func(i *instruction) { i.asCall(condE, g4VReg, 1, retLocInt) }},
		{name: "call without return location", fn: func(i *instruction) { i.asCall(condA, g4VReg, 1, retLocInvalid) }},
		{name: "call arguments", fn: func(i *instruction) { i.asCall(condA, g4VReg, 7, retLocNone) }},
		{name: "cas size", fn: func(i *instruction) { i.asCAS(2, o0VReg, o1VReg, o2VReg) }},
		{name: "fand on quads", fn: func(i *instruction) { i.asAluFp(aluFpOpFand, q32VReg, q32VReg, q36VReg) }},
		{name: "fsmuld destination", fn: func(i *instruction) { i.asAluFp(aluFpOpFsdmul, f1VReg, f1VReg, f1VReg) }},
		{name: "integer to integer", fn: func(i *instruction) { i.asConvFp(d8VReg, d10VReg, true, true) }},
		{name: "fused on quads", fn: func(i *instruction) { i.asFusedFp(fusedFpOpMadd, q32VReg, q32VReg, q32VReg, q32VReg) }},
		{name: "fcc", fn: func(i *instruction) { i.asCmpFp(d8VReg, d10VReg, 4) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Panics(t, func() { tc.fn(&instruction{}) })
		})
	}
}

func TestInstruction_IsMove(t *testing.T) {
	dst, src, ok := (&instruction{}).asALU(aluOpOr, o0VReg, g0VReg, operandReg(o1VReg)).IsMove()
	require.True(t, ok)
	require.Equal(t, o0VReg, dst)
	require.Equal(t, o1VReg, src)

	dst, src, ok = (&instruction{}).asMovFp(d8VReg, d10VReg).IsMove()
	require.True(t, ok)
	require.Equal(t, d8VReg, dst)
	require.Equal(t, d10VReg, src)

	_, _, ok = (&instruction{}).asALU(aluOpOr, o0VReg, g0VReg, operandImm(1)).IsMove()
	require.False(t, ok)
	_, _, ok = (&instruction{}).asALU(aluOpAdd, o0VReg, g0VReg, operandReg(o1VReg)).IsMove()
	require.False(t, ok)
}
