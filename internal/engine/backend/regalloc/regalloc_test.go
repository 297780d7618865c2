package regalloc

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockInstr struct {
	op               string
	defs, uses, mods []VReg
	move             bool
	spillOff         int32
}

func (m *mockInstr) String() string {
	var b strings.Builder
	b.WriteString(m.op)
	for _, list := range [][]VReg{m.defs, m.mods, m.uses} {
		for _, v := range list {
			fmt.Fprintf(&b, " %s", v)
		}
	}
	if m.op == "spill" || m.op == "reload" {
		fmt.Fprintf(&b, " [%d]", m.spillOff)
	}
	return b.String()
}

func (m *mockInstr) RegUsage(u *RegUsage) {
	for _, v := range m.uses {
		u.Read(v)
	}
	for _, v := range m.defs {
		u.Write(v)
	}
	for _, v := range m.mods {
		u.Modify(v)
	}
}

func (m *mockInstr) MapRegs(f func(VReg) VReg) {
	for _, list := range [][]VReg{m.defs, m.uses, m.mods} {
		for i := range list {
			list[i] = f(list[i])
		}
	}
}

func (m *mockInstr) IsMove() (dst, src VReg, ok bool) {
	if m.move {
		return m.defs[0], m.uses[0], true
	}
	return
}

type mockFunction struct {
	instrs []Instr
}

func (f *mockFunction) Instructions() []Instr       { return f.instrs }
func (f *mockFunction) SetInstructions(is []Instr) { f.instrs = is }
func (f *mockFunction) GenSpill(r VReg, off int32) Instr {
	return &mockInstr{op: "spill", uses: []VReg{r}, spillOff: off}
}

func (f *mockFunction) GenReload(r VReg, off int32) Instr {
	return &mockInstr{op: "reload", defs: []VReg{r}, spillOff: off}
}

func (f *mockFunction) String() string {
	strs := make([]string, len(f.instrs))
	for i, instr := range f.instrs {
		strs[i] = instr.String()
	}
	return strings.Join(strs, "\n")
}

func vr(id VRegID) VReg { return VReg(id).SetRegType(RegTypeInt) }

func rr(r RealReg) VReg { return FromRealReg(r, RegTypeInt) }

func def(v ...VReg) *mockInstr { return &mockInstr{op: "def", defs: v} }

func use(v ...VReg) *mockInstr { return &mockInstr{op: "use", uses: v} }

func newTestAllocator(regs ...RealReg) Allocator {
	info := &RegisterInfo{}
	info.AllocatableRegisters[RegTypeInt] = regs
	return NewAllocator(info, SpillArea{Offset: 1024, Size: 64})
}

func TestAllocator_DoAllocation(t *testing.T) {
	for _, tc := range []struct {
		name    string
		regs    []RealReg
		instrs  []Instr
		exp     string
		spills  int
		reloads int
	}{
		{
			name:   "straight",
			regs:   []RealReg{1, 2},
			instrs: []Instr{def(vr(64)), &mockInstr{op: "add", defs: []VReg{vr(65)}, uses: []VReg{vr(64)}}, use(vr(65))},
			exp: `def r1
add r2 r1
use r2`,
		},
		{
			name: "dead value frees register",
			regs: []RealReg{1},
			instrs: []Instr{
				def(vr(64)), use(vr(64)), def(vr(65)), use(vr(65)),
			},
			exp: `def r1
use r1
def r1
use r1`,
		},
		{
			name: "pressure",
			regs: []RealReg{1, 2},
			instrs: []Instr{
				def(vr(64)), def(vr(65)), def(vr(66)), use(vr(65), vr(66)), use(vr(64)),
			},
			exp: `def r1
def r2
spill r1 [1024]
def r1
use r2 r1
reload r1 [1024]
use r1`,
			spills:  1,
			reloads: 1,
		},
		{
			name: "clobbered by real register write",
			regs: []RealReg{1, 2},
			instrs: []Instr{
				def(vr(64)),
				&mockInstr{op: "call", defs: []VReg{rr(1), rr(2)}},
				use(vr(64)),
			},
			exp: `def r1
spill r1 [1024]
call r1 r2
reload r1 [1024]
use r1`,
			spills:  1,
			reloads: 1,
		},
		{
			name: "pinned argument register is not reused",
			regs: []RealReg{1, 2},
			instrs: []Instr{
				&mockInstr{op: "setarg", defs: []VReg{rr(1)}},
				def(vr(64)),
				use(vr(64)),
				&mockInstr{op: "call", uses: []VReg{rr(1)}},
			},
			exp: `setarg r1
def r2
use r2
call r1`,
		},
		{
			name: "modify keeps the register",
			regs: []RealReg{1, 2},
			instrs: []Instr{
				def(vr(64)),
				&mockInstr{op: "inc", mods: []VReg{vr(64)}},
				use(vr(64)),
			},
			exp: `def r1
inc r1
use r1`,
		},
		{
			name: "coalesce",
			regs: []RealReg{1, 2},
			instrs: []Instr{
				def(vr(64)),
				&mockInstr{op: "mov", defs: []VReg{vr(65)}, uses: []VReg{vr(64)}, move: true},
				use(vr(65)),
			},
			exp: `def r1
use r1`,
		},
		{
			name: "no coalesce when source lives on",
			regs: []RealReg{1, 2},
			instrs: []Instr{
				def(vr(64)),
				&mockInstr{op: "mov", defs: []VReg{vr(65)}, uses: []VReg{vr(64)}, move: true},
				use(vr(65), vr(64)),
			},
			exp: `def r1
mov r2 r1
use r2 r1`,
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAllocator(tc.regs...)
			f := &mockFunction{instrs: tc.instrs}
			a.DoAllocation(f)
			require.Equal(t, tc.exp, f.String())
			spills, reloads := a.Stats()
			require.Equal(t, tc.spills, spills)
			require.Equal(t, tc.reloads, reloads)
		})
	}
}

func TestAllocator_readBeforeDef(t *testing.T) {
	a := newTestAllocator(1)
	f := &mockFunction{instrs: []Instr{use(vr(64))}}
	require.Panics(t, func() { a.DoAllocation(f) })
}

func TestAllocator_spillAreaExhausted(t *testing.T) {
	info := &RegisterInfo{}
	info.AllocatableRegisters[RegTypeInt] = []RealReg{1}
	a := NewAllocator(info, SpillArea{Offset: 1024, Size: 8})
	f := &mockFunction{instrs: []Instr{
		def(vr(64)), def(vr(65)), def(vr(66)), use(vr(64)), use(vr(65)), use(vr(66)),
	}}
	require.Panics(t, func() { a.DoAllocation(f) })
}

func TestRegUsage(t *testing.T) {
	var u RegUsage
	u.Read(vr(64))
	u.Write(vr(64))
	u.Write(vr(65))
	require.Equal(t, UseModify, u.Mode(vr(64)))
	require.Equal(t, UseWrite, u.Mode(vr(65)))
	require.Equal(t, UseMode(0), u.Mode(vr(66)))
	require.Equal(t, 2, len(u.Uses()))
	u.Reset()
	require.Equal(t, 0, len(u.Uses()))
}

func TestVReg(t *testing.T) {
	v := FromRealReg(5, RegTypeF64)
	require.True(t, v.IsRealReg())
	require.Equal(t, RealReg(5), v.RealReg())
	require.Equal(t, RegTypeF64, v.RegType())
	require.Equal(t, VRegID(5), v.ID())

	v = VReg(100).SetRegType(RegTypeInt)
	require.False(t, v.IsRealReg())
	require.True(t, v.Valid())
	require.False(t, VRegInvalid.Valid())
}
