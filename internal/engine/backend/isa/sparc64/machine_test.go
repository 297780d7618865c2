package sparc64

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparcjit/sparcjit/internal/asm"
	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
	"github.com/sparcjit/sparcjit/internal/engine/jitapi"
	"github.com/sparcjit/sparcjit/ir"
)

func TestMachine_Allocate(t *testing.T) {
	m := newTestMachine(true)
	require.NoError(t, m.Select(getAddPutBlock(), 0x2000))
	require.Equal(t, 4, m.NumVRegs())

	m.Allocate()
	require.Equal(t, listing(
		evCheckLine,
		"ld8 [%g5+16], %l0",
		"add %l0, 5, %l1",
		"st8 %l1, [%g5+24]",
		exitLine,
	), m.Format())
	require.Panics(t, m.Allocate)
}

func TestMachine_Encode(t *testing.T) {
	m := newTestMachine(true)
	require.NoError(t, m.Select(getAddPutBlock(), 0x2000))

	var seg asm.CodeSegment
	require.Panics(t, func() { m.Encode(seg.Next()) })

	m.Allocate()
	buf := seg.Next()
	n := m.Encode(buf)
	// Event check, three instructions and the direct exit.
	require.Equal(t, EvCheckSize+3*4+(2*loadImmWordLen+3)*4, n)
	require.Equal(t, n, buf.Len())

	code := buf.Bytes()
	require.Equal(t, "e0596010"+"a2042005"+"e2716018", hex.EncodeToString(code[EvCheckSize:EvCheckSize+12]))
	require.Equal(t, []ChainSite{{Offset: EvCheckSize + 12 + xDirectSiteOffset, Target: 0x1000}}, m.ChainSites())

	// The chain site is patchable.
	off := m.ChainSites()[0].Offset
	Chain(code[off:], testStubs.ChainMeToSlowEP, 0x7000)

	// Reset forgets everything about the previous block.
	m.Reset()
	require.Equal(t, 0, len(m.ChainSites()))
	require.Equal(t, 0, m.NumVRegs())
	require.Equal(t, "\n\n", m.Format())
}

// spillingBlock keeps more values alive than there are integer registers.
func spillingBlock() *ir.SB {
	const n = 24
	sb := ir.NewSB(jitapi.OffsetPC)
	tmps := make([]ir.Tmp, n)
	for k := range tmps {
		tmps[k] = sb.NewTmp(ir.TypeI64)
		sb.Add(ir.WrTmp(tmps[k], ir.Get(jitapi.OffsetR(k), ir.TypeI64)))
	}
	for k := range tmps {
		sb.Add(ir.Put(jitapi.OffsetR(n-1-k), ir.RdTmp(tmps[k])))
	}
	sb.Next, sb.JumpKind = ir.ConstU64(0x1000), ir.JumpBoring
	return sb
}

func TestMachine_Allocate_spills(t *testing.T) {
	m := newTestMachine(true)
	require.NoError(t, m.Select(spillingBlock(), 0x2000))
	m.Allocate()
	spills, reloads := m.regAlloc.Stats()
	require.True(t, spills > 0)
	require.True(t, reloads > 0)

	var seg asm.CodeSegment
	m.Encode(seg.Next())

	// Every spill slot lies in the spill area.
	for _, i := range m.instrs {
		if (i.kind == load || i.kind == store) && i.amode.rn == gsPtrVReg && i.amode.imm >= jitapi.DefaultSpillAreaOffset {
			require.True(t, i.amode.imm < jitapi.DefaultSpillAreaOffset+jitapi.DefaultSpillAreaSize)
		}
	}
}

func TestMachine_GenSpill(t *testing.T) {
	m := newTestMachine(true)
	for _, tc := range []struct {
		r   regalloc.VReg
		exp string
	}{
		{r: l0VReg, exp: "st8 %l0, [%g5+1024]"},
		{r: f1VReg, exp: "st4 %f1, [%g5+1024]"},
		{r: d8VReg, exp: "st8 %d8, [%g5+1024]"},
		{r: q32VReg, exp: "st16 %q32, [%g5+1024]"},
	} {
		require.Equal(t, tc.exp, m.GenSpill(tc.r, jitapi.DefaultSpillAreaOffset).String())
	}
	require.Equal(t, "ld8 [%g5+1032], %l1", m.GenReload(l1VReg, jitapi.DefaultSpillAreaOffset+8).String())
}

// encodeBlock translates sb on m and returns a copy of the code and the chain sites.
func encodeBlock(t *testing.T, m *Machine, sb *ir.SB, maxGA uint64) ([]byte, []ChainSite) {
	require.NoError(t, m.Select(sb, maxGA))
	m.Allocate()
	var seg asm.CodeSegment
	buf := seg.Next()
	m.Encode(buf)
	return append([]byte(nil), buf.Bytes()...), append([]ChainSite(nil), m.ChainSites()...)
}

func TestMachine_Encode_idempotent(t *testing.T) {
	fpBlock := func() *ir.SB {
		sb := ir.NewSB(jitapi.OffsetPC)
		rm := sb.NewTmp(ir.TypeI32)
		a, b, c := sb.NewTmp(ir.TypeF64), sb.NewTmp(ir.TypeF64), sb.NewTmp(ir.TypeF64)
		sb.Add(
			ir.IMark(0x4000, 4),
			ir.WrTmp(rm, ir.Get(jitapi.OffsetFSRRD, ir.TypeI32)),
			ir.WrTmp(a, ir.Get(jitapi.OffsetD(0), ir.TypeF64)),
			ir.WrTmp(b, ir.Triop(ir.OpAddF64, ir.RdTmp(rm), ir.RdTmp(a), ir.RdTmp(a))),
			ir.WrTmp(c, ir.Triop(ir.OpMulF64, ir.RdTmp(rm), ir.RdTmp(b), ir.RdTmp(a))),
			ir.Put(jitapi.OffsetD(2), ir.RdTmp(c)),
		)
		sb.Next, sb.JumpKind = ir.ConstU64(0x4004), ir.JumpBoring
		return sb
	}
	loopBlock := func() *ir.SB {
		sb := ir.NewSB(jitapi.OffsetPC)
		t0, t1 := sb.NewTmp(ir.TypeI64), sb.NewTmp(ir.TypeI64)
		sb.Add(
			ir.IMark(0x2000, 4),
			ir.WrTmp(t0, ir.Get(jitapi.OffsetR(8), ir.TypeI64)),
			ir.WrTmp(t1, ir.Binop(ir.OpSub64, ir.RdTmp(t0), ir.ConstU64(1))),
			ir.Put(jitapi.OffsetR(8), ir.RdTmp(t1)),
			ir.Exit(ir.Binop(ir.OpCmpNE64, ir.RdTmp(t1), ir.ConstU64(0)), ir.JumpBoring, 0x2000, jitapi.OffsetPC),
		)
		sb.Next, sb.JumpKind = ir.ConstU64(0x2004), ir.JumpBoring
		return sb
	}

	for _, tc := range []struct {
		name  string
		sb    func() *ir.SB
		maxGA uint64
	}{
		{name: "get add put", sb: getAddPutBlock, maxGA: 0x2000},
		{name: "rounding mode", sb: fpBlock, maxGA: 0x4003},
		{name: "conditional exit", sb: loopBlock, maxGA: 0x2003},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestMachine(true)
			code, sites := encodeBlock(t, m, tc.sb(), tc.maxGA)

			// Same block again on the same machine.
			code2, sites2 := encodeBlock(t, m, tc.sb(), tc.maxGA)
			require.Equal(t, code, code2)
			require.Equal(t, sites, sites2)

			// Another block in between leaves nothing behind.
			encodeBlock(t, m, spillingBlock(), 0x3000)
			code3, sites3 := encodeBlock(t, m, tc.sb(), tc.maxGA)
			require.Equal(t, code, code3)
			require.Equal(t, sites, sites3)

			// A fresh machine agrees.
			code4, sites4 := encodeBlock(t, newTestMachine(true), tc.sb(), tc.maxGA)
			require.Equal(t, code, code4)
			require.Equal(t, sites, sites4)
		})
	}
}
