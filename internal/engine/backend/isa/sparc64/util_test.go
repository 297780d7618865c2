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

var testStubs = Stubs{
	ChainMeToSlowEP: 0x10000,
	ChainMeToFastEP: 0x10400,
	XIndir:          0x10800,
	XAssisted:       0x10c00,
	LoadGuestRegs:   0x11000,
	StoreGuestRegs:  0x11400,
}

func newTestMachine(chaining bool) *Machine {
	return NewMachine(Config{Hwcaps: jitapi.HwcapsAll, Chaining: chaining, Stubs: testStubs})
}

var (
	l0VReg  = realRegVReg(l0)
	l1VReg  = realRegVReg(l1)
	o2VReg  = realRegVReg(o2)
	f1VReg  = realRegVReg(f1)
	d8VReg  = realRegVReg(d8)
	d10VReg = realRegVReg(d10)
	d12VReg = realRegVReg(d12)
	q32VReg = realRegVReg(q32)
	q36VReg = realRegVReg(q36)
)

// encodeToHex encodes i with allocated registers and returns the machine code in hex.
func encodeToHex(t *testing.T, i *instruction) string {
	var seg asm.CodeSegment
	buf := seg.Next()
	n := i.encode(buf, &testStubs)
	require.Equal(t, n, buf.Len())
	return hex.EncodeToString(buf.Bytes())
}

// selectBlock selects sb and returns its listing.
func selectBlock(t *testing.T, m *Machine, sb *ir.SB, maxGA uint64) string {
	require.NoError(t, m.Select(sb, maxGA))
	return m.Format()
}

// getAddPutBlock returns t0 = GET:I64(16); t1 = Add64(t0, 5); PUT(24) = t1; goto 0x1000.
func getAddPutBlock() *ir.SB {
	sb := ir.NewSB(jitapi.OffsetPC)
	t0 := sb.NewTmp(ir.TypeI64)
	t1 := sb.NewTmp(ir.TypeI64)
	sb.Add(
		ir.IMark(0x1000, 4),
		ir.WrTmp(t0, ir.Get(jitapi.OffsetR(0), ir.TypeI64)),
		ir.WrTmp(t1, ir.Binop(ir.OpAdd64, ir.RdTmp(t0), ir.ConstU64(5))),
		ir.Put(jitapi.OffsetR(1), ir.RdTmp(t1)),
	)
	sb.Next = ir.ConstU64(0x1000)
	sb.JumpKind = ir.JumpBoring
	return sb
}

func intVReg(id regalloc.VRegID) regalloc.VReg {
	return regalloc.VReg(id).SetRegType(regalloc.RegTypeInt)
}
