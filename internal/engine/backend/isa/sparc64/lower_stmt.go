package sparc64

import (
	"fmt"

	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
	"github.com/sparcjit/sparcjit/internal/engine/jitapi"
	"github.com/sparcjit/sparcjit/internal/log"
	"github.com/sparcjit/sparcjit/ir"
)

// Select resets m and selects the instructions of sb. maxGA is the highest guest address the block was
// translated from: direct exits above it go to the fast entry point of their destination.
//
// Blocks which are not well formed are reported as errors. Any other failure is a bug and panics.
func (m *Machine) Select(sb *ir.SB, maxGA uint64) error {
	if sb == nil {
		return fmt.Errorf("sparc64: nil block")
	}
	if err := sb.Validate(); err != nil {
		return fmt.Errorf("sparc64: invalid block: %w", err)
	}
	m.Reset()
	m.sb = sb
	m.maxGA = maxGA

	for _, ty := range sb.Types {
		lo, hi := regalloc.VRegInvalid, regalloc.VRegInvalid
		if ty == ir.TypeI128 {
			hi = m.newVReg(regalloc.RegTypeInt)
			lo = m.newVReg(regalloc.RegTypeInt)
		} else {
			lo = m.newVReg(regalloc.RegTypeOf(ty))
		}
		m.vregs = append(m.vregs, lo)
		m.vregsHi = append(m.vregsHi, hi)
	}

	// The event check must be first so that the fast entry point is a fixed distance into the block.
	m.insert(m.allocateInstr().asEvCheck(jitapi.OffsetEvCCounter, jitapi.OffsetEvCFailAddr))
	if m.cfg.ProfInc {
		m.insert(m.allocateInstr().asProfInc())
	}

	for _, s := range sb.Stmts {
		m.lowerStmt(s)
	}
	m.lowerNext(sb.Next, sb.JumpKind)

	if log.Enabled(log.Isel) {
		log.Trace(log.Isel, "selected", "stmts", len(sb.Stmts), "vregs", m.NumVRegs(), "code", m.Format())
	}
	return nil
}

func (m *Machine) lowerStmt(s *ir.Stmt) {
	switch s.Kind {
	case ir.StmtNoOp, ir.StmtIMark, ir.StmtAbiHint:
	case ir.StmtPut:
		m.lowerPutStmt(s.Offset, s.Data)
	case ir.StmtWrTmp:
		m.lowerWrTmp(s.Tmp, s.Data)
	case ir.StmtStore:
		ty := m.sb.TypeOf(s.Data)
		if ty == ir.TypeI128 {
			panic(fmt.Sprintf("sparc64: unsupported 128-bit store %s", s))
		}
		src := m.lowerExpr(s.Data)
		m.lowerLoadStore(true, src, ty, s.End, s.Addr, s.ASI)
	case ir.StmtCAS:
		m.lowerCAS(s.CAS)
	case ir.StmtDirty:
		m.lowerDirty(s.Dirty)
	case ir.StmtMBE:
		m.insert(m.allocateInstr().asMembar())
	case ir.StmtExit:
		m.lowerExit(s)
	case ir.StmtUnrecognized:
		m.insert(m.allocateInstr().asLoadGuestState())
		m.insert(m.allocateInstr().asUnrecognized(s.Bits))
		m.insert(m.allocateInstr().asStoreGuestState())
		// The instruction may have changed %fsr.
		m.forgetRoundingMode()
	default:
		panic(fmt.Sprintf("sparc64: cannot select %s", s))
	}
}

func (m *Machine) lowerPutStmt(off int32, data *ir.Expr) {
	ty := m.sb.TypeOf(data)
	switch {
	case data.Kind == ir.ExprConst && ty.IsInt() && constBits(data.Con) == 0:
		m.lowerPut(off, g0VReg, ty)
	case ty == ir.TypeI128:
		// Big-endian: the high half comes first.
		hi, lo := m.lowerExpr128(data)
		m.lowerPut(off, hi, ir.TypeI64)
		m.lowerPut(off+8, lo, ir.TypeI64)
	default:
		m.lowerPut(off, m.lowerExpr(data), ty)
	}
}

func (m *Machine) lowerWrTmp(t ir.Tmp, data *ir.Expr) {
	ty := m.sb.TypeOfTmp(t)
	switch {
	case ty == ir.TypeI128:
		hi, lo := m.lowerExpr128(data)
		m.insertMove(m.vregsHi[t], hi)
		m.insertMove(m.vregs[t], lo)
	case ty.IsFloat():
		m.insert(m.allocateInstr().asMovFp(m.vregs[t], m.lowerExpr(data)))
	default:
		m.insertMove(m.vregs[t], m.lowerExpr(data))
	}
}

func (m *Machine) lowerCAS(c *ir.CAS) {
	if c.OldHi != ir.TmpInvalid {
		panic("sparc64: double-width compare and swap is unsupported")
	}
	if c.End != ir.EndBE {
		panic("sparc64: little-endian compare and swap is unsupported")
	}
	old := m.vregs[c.OldLo]
	switch ty := m.sb.TypeOfTmp(c.OldLo); ty {
	case ir.TypeI8:
		// Only test-and-set has a byte wide atomic.
		if v, ok := c.DataLo.IsConstU8(); !ok || v != 0xFF {
			panic(fmt.Sprintf("sparc64: byte compare and swap storing %s is unsupported", c.DataLo))
		}
		m.insert(m.allocateInstr().asLdstub(m.lowerToAddressMode(c.Addr), old))
	case ir.TypeI32, ir.TypeI64:
		addr := m.lowerExpr(c.Addr)
		expd := m.lowerExpr(c.ExpdLo)
		data := m.lowerExpr(c.DataLo)
		m.insertMove(old, data)
		m.insert(m.allocateInstr().asCAS(byte(ty.Size()), addr, expd, old))
	default:
		panic(fmt.Sprintf("sparc64: %s compare and swap is unsupported", ty))
	}
}

func (m *Machine) lowerDirty(d *ir.Dirty) {
	retTy := ir.TypeInvalid
	if d.Tmp != ir.TmpInvalid {
		retTy = m.sb.TypeOfTmp(d.Tmp)
	}
	switch m.lowerHelperCall(d.Guard, d.Callee, retTy, d.Args) {
	case retLocInt:
		m.insertMove(m.vregs[d.Tmp], o0VReg)
	case retLoc2Int:
		m.insertMove(m.vregsHi[d.Tmp], o0VReg)
		m.insertMove(m.vregs[d.Tmp], o1VReg)
	}
	// The helper may have changed %fsr.
	m.forgetRoundingMode()
}

// isAssisted returns true for the jump kinds which always leave through the assisted exit.
func isAssisted(jk ir.JumpKind) bool {
	switch jk {
	case ir.JumpClientReq, ir.JumpEmFail, ir.JumpEmWarn, ir.JumpInvalICache, ir.JumpNoDecode, ir.JumpNoRedir,
		ir.JumpSigBUS, ir.JumpSigILL, ir.JumpSigTRAP, ir.JumpSigFPEIntDiv, ir.JumpSigFPEIntOvf,
		ir.JumpSysSyscall, ir.JumpSysSyscall110, ir.JumpSysSyscall111, ir.JumpSysFasttrap, ir.JumpYield:
		return true
	}
	return false
}

// lowerAssisted loads dst and leaves through the assisted exit with the trap return code of jk when c holds.
func (m *Machine) lowerAssisted(dst regalloc.VReg, amPC addressMode, c condCode, jk ir.JumpKind) {
	m.insert(m.allocateInstr().asXAssisted(dst, amPC, c, jk))
}

func (m *Machine) lowerExit(s *ir.Stmt) {
	if s.Dst.Type != ir.TypeI64 {
		panic(fmt.Sprintf("sparc64: exit to a %s address", s.Dst.Type))
	}
	amPC := guestAMode(s.OffsIP)
	dst := s.Dst.Bits

	switch {
	case s.JumpKind == ir.JumpBoring && m.cfg.Chaining:
		c := m.lowerCond(s.Guard)
		m.insert(m.allocateInstr().asXDirect(dst, amPC, c, dst > m.maxGA))
	case s.JumpKind == ir.JumpBoring || isAssisted(s.JumpKind):
		r := m.newVReg(regalloc.RegTypeInt)
		m.insert(m.allocateInstr().asLoadImm(r, dst))
		c := m.lowerCond(s.Guard)
		m.lowerAssisted(r, amPC, c, s.JumpKind)
	default:
		panic(fmt.Sprintf("sparc64: unsupported exit kind %s", s.JumpKind))
	}
}

// lowerNext selects the transfer to the fall-through successor.
func (m *Machine) lowerNext(next *ir.Expr, jk ir.JumpKind) {
	if ty := m.sb.TypeOf(next); ty != ir.TypeI64 {
		panic(fmt.Sprintf("sparc64: next address has type %s", ty))
	}
	amPC := guestAMode(m.sb.OffsIP)

	if dst, ok := next.IsConstU64(); ok && (jk == ir.JumpBoring || jk == ir.JumpCall) {
		if m.cfg.Chaining {
			m.insert(m.allocateInstr().asXDirect(dst, amPC, condA, dst > m.maxGA))
		} else {
			m.lowerAssisted(m.lowerExpr(next), amPC, condA, ir.JumpBoring)
		}
		return
	}

	switch {
	case jk == ir.JumpBoring || jk == ir.JumpRet || jk == ir.JumpCall:
		r := m.lowerExpr(next)
		if m.cfg.Chaining {
			m.insert(m.allocateInstr().asXIndir(r, amPC, condA))
		} else {
			m.lowerAssisted(r, amPC, condA, ir.JumpBoring)
		}
	case isAssisted(jk):
		m.lowerAssisted(m.lowerExpr(next), amPC, condA, jk)
	default:
		panic(fmt.Sprintf("sparc64: unsupported jump kind %s", jk))
	}
}
