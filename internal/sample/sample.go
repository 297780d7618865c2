// Package sample holds small guest blocks in IR form, the kind a SPARC front end produces, for the command line
// tool and for tests which need realistic input.
package sample

import (
	"sort"

	"github.com/sparcjit/sparcjit/internal/engine/jitapi"
	"github.com/sparcjit/sparcjit/ir"
)

// RdTick is the helper the "helper" sample calls.
var RdTick = &ir.Callee{Name: "sparc64g_dirtyhelper_rdtick", Addr: 0x40000}

var samples = map[string]func() *ir.SB{
	// add %g2, 5, %g3
	"addput": func() *ir.SB {
		sb := ir.NewSB(jitapi.OffsetPC)
		t0, t1 := sb.NewTmp(ir.TypeI64), sb.NewTmp(ir.TypeI64)
		sb.Add(
			ir.IMark(0x1000, 4),
			ir.WrTmp(t0, ir.Get(jitapi.OffsetR(2), ir.TypeI64)),
			ir.WrTmp(t1, ir.Binop(ir.OpAdd64, ir.RdTmp(t0), ir.ConstU64(5))),
			ir.Put(jitapi.OffsetR(3), ir.RdTmp(t1)),
		)
		sb.Next, sb.JumpKind = ir.ConstU64(0x1004), ir.JumpBoring
		return sb
	},
	// subcc %o0, 1, %o0; bne,a 0x2000
	"loop": func() *ir.SB {
		sb := ir.NewSB(jitapi.OffsetPC)
		t0, t1 := sb.NewTmp(ir.TypeI64), sb.NewTmp(ir.TypeI64)
		sb.Add(
			ir.IMark(0x2000, 4),
			ir.WrTmp(t0, ir.Get(jitapi.OffsetR(8), ir.TypeI64)),
			ir.WrTmp(t1, ir.Binop(ir.OpSub64, ir.RdTmp(t0), ir.ConstU64(1))),
			ir.Put(jitapi.OffsetR(8), ir.RdTmp(t1)),
			ir.IMark(0x2004, 4),
			ir.Exit(ir.Binop(ir.OpCmpNE64, ir.RdTmp(t1), ir.ConstU64(0)), ir.JumpBoring, 0x2000, jitapi.OffsetPC),
		)
		sb.Next, sb.JumpKind = ir.ConstU64(0x2008), ir.JumpBoring
		return sb
	},
	// rd %tick, %g1
	"helper": func() *ir.SB {
		sb := ir.NewSB(jitapi.OffsetPC)
		t0 := sb.NewTmp(ir.TypeI64)
		sb.Add(
			ir.IMark(0x3000, 4),
			ir.DirtyStmt(&ir.Dirty{Callee: RdTick, Args: []*ir.Expr{ir.GSPtr()}, Tmp: t0}),
			ir.Put(jitapi.OffsetR(1), ir.RdTmp(t0)),
		)
		sb.Next, sb.JumpKind = ir.ConstU64(0x3004), ir.JumpBoring
		return sb
	},
	// faddd %f0, %f2, %f4
	"fp": func() *ir.SB {
		sb := ir.NewSB(jitapi.OffsetPC)
		rm := sb.NewTmp(ir.TypeI32)
		a, b, sum := sb.NewTmp(ir.TypeF64), sb.NewTmp(ir.TypeF64), sb.NewTmp(ir.TypeF64)
		sb.Add(
			ir.IMark(0x4000, 4),
			ir.WrTmp(rm, ir.Get(jitapi.OffsetFSRRD, ir.TypeI32)),
			ir.WrTmp(a, ir.Get(jitapi.OffsetD(0), ir.TypeF64)),
			ir.WrTmp(b, ir.Get(jitapi.OffsetD(2), ir.TypeF64)),
			ir.WrTmp(sum, ir.Triop(ir.OpAddF64, ir.RdTmp(rm), ir.RdTmp(a), ir.RdTmp(b))),
			ir.Put(jitapi.OffsetD(4), ir.RdTmp(sum)),
		)
		sb.Next, sb.JumpKind = ir.ConstU64(0x4004), ir.JumpBoring
		return sb
	},
	// casx [%o0], %o1, %o2
	"cas": func() *ir.SB {
		sb := ir.NewSB(jitapi.OffsetPC)
		addr, expd, data, old := sb.NewTmp(ir.TypeI64), sb.NewTmp(ir.TypeI64), sb.NewTmp(ir.TypeI64), sb.NewTmp(ir.TypeI64)
		sb.Add(
			ir.IMark(0x5000, 4),
			ir.WrTmp(addr, ir.Get(jitapi.OffsetR(8), ir.TypeI64)),
			ir.WrTmp(expd, ir.Get(jitapi.OffsetR(9), ir.TypeI64)),
			ir.WrTmp(data, ir.Get(jitapi.OffsetR(10), ir.TypeI64)),
			ir.CASStmt(old, ir.EndBE, ir.RdTmp(addr), ir.RdTmp(expd), ir.RdTmp(data)),
			ir.Put(jitapi.OffsetR(10), ir.RdTmp(old)),
		)
		sb.Next, sb.JumpKind = ir.ConstU64(0x5004), ir.JumpBoring
		return sb
	},
	// ta 0x6d
	"syscall": func() *ir.SB {
		sb := ir.NewSB(jitapi.OffsetPC)
		sb.Add(ir.IMark(0x6000, 4))
		sb.Next, sb.JumpKind = ir.ConstU64(0x6004), ir.JumpSysSyscall
		return sb
	},
	// ret
	"ret": func() *ir.SB {
		sb := ir.NewSB(jitapi.OffsetPC)
		t0 := sb.NewTmp(ir.TypeI64)
		sb.Add(
			ir.IMark(0x7000, 4),
			ir.WrTmp(t0, ir.Binop(ir.OpAdd64, ir.Get(jitapi.OffsetR(31), ir.TypeI64), ir.ConstU64(8))),
		)
		sb.Next, sb.JumpKind = ir.RdTmp(t0), ir.JumpRet
		return sb
	},
}

// Names returns the names of the samples in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a fresh copy of the sample called name.
func Get(name string) (*ir.SB, bool) {
	f, ok := samples[name]
	if !ok {
		return nil, false
	}
	return f(), true
}
