package sparc64

import (
	"fmt"

	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
	"github.com/sparcjit/sparcjit/internal/engine/jitapi"
	"github.com/sparcjit/sparcjit/ir"
)

// maxHelperArgs is the number of integer arguments passed in registers. Helpers taking more are unsupported.
const maxHelperArgs = 6

// helperArgPattern is an argument shape which can be computed directly into its argument register without
// touching any other fixed register.
type helperArgPattern struct {
	name  string
	match func(m *Machine, e *ir.Expr) bool
	emit  func(m *Machine, e *ir.Expr, dst regalloc.VReg)
}

// helperArgPatterns are tried in order and the first match wins: the more specific shapes come first.
// The emitters must not call back into the general selector.
var helperArgPatterns = []helperArgPattern{
	{
		name:  "GSPTR",
		match: func(_ *Machine, e *ir.Expr) bool { return e.Kind == ir.ExprGSPtr },
		emit:  func(m *Machine, _ *ir.Expr, dst regalloc.VReg) { m.insertMove(dst, gsPtrVReg) },
	},
	{
		name:  "t",
		match: func(_ *Machine, e *ir.Expr) bool { return e.Kind == ir.ExprRdTmp },
		emit:  func(m *Machine, e *ir.Expr, dst regalloc.VReg) { m.insertMove(dst, m.vregs[e.Tmp]) },
	},
	{
		name:  "GET:I64",
		match: func(_ *Machine, e *ir.Expr) bool { return isGet64(e) },
		emit:  func(m *Machine, e *ir.Expr, dst regalloc.VReg) { m.insertGetInto(e, dst) },
	},
	{
		name:  "const",
		match: func(_ *Machine, e *ir.Expr) bool { return e.Kind == ir.ExprConst },
		emit: func(m *Machine, e *ir.Expr, dst regalloc.VReg) {
			m.insert(m.allocateInstr().asLoadImm(dst, constSext(e.Con)))
		},
	},
	{
		name: "32Uto64(t|GET:I64)",
		match: func(_ *Machine, e *ir.Expr) bool {
			return e.IsUnop(ir.Op32Uto64) && isTmpOrGet64(skipUnop(e.Args[0], ir.Op64to32))
		},
		emit: func(m *Machine, e *ir.Expr, dst regalloc.VReg) {
			src := m.tmpOrGetInto(skipUnop(e.Args[0], ir.Op64to32), dst)
			m.insert(m.allocateInstr().asShift(shiftOpSrl, dst, src, operandImm(0)))
		},
	},
	{
		name: "8Uto64(t|GET:I64)",
		match: func(_ *Machine, e *ir.Expr) bool {
			return e.IsUnop(ir.Op8Uto64) && isTmpOrGet64(skipUnop(e.Args[0], ir.Op64to8))
		},
		emit: func(m *Machine, e *ir.Expr, dst regalloc.VReg) {
			src := m.tmpOrGetInto(skipUnop(e.Args[0], ir.Op64to8), dst)
			m.insert(m.allocateInstr().asALU(aluOpAnd, dst, src, operandImm(0xFF)))
		},
	},
	{
		name: "ReinterpF64asI64(t)",
		match: func(m *Machine, e *ir.Expr) bool {
			return e.IsUnop(ir.OpReinterpF64asI64) && e.Args[0].Kind == ir.ExprRdTmp && m.cfg.Hwcaps.Has(jitapi.HwcapVIS3)
		},
		emit: func(m *Machine, e *ir.Expr, dst regalloc.VReg) {
			m.insert(m.allocateInstr().asMovFpToIReg(dst, m.vregs[e.Args[0].Tmp]))
		},
	},
	{
		name:  "Add64(GET:I64, simm13)",
		match: func(_ *Machine, e *ir.Expr) bool { return e.IsBinop(ir.OpAdd64) && isGet64(e.Args[0]) && isSimm13Const(e.Args[1]) },
		emit: func(m *Machine, e *ir.Expr, dst regalloc.VReg) {
			m.insertGetInto(e.Args[0], dst)
			m.insert(m.allocateInstr().asALU(aluOpAdd, dst, dst, operandImm(int64(e.Args[1].Con.Bits))))
		},
	},
	{
		name:  "Add64(t, simm13)",
		match: func(_ *Machine, e *ir.Expr) bool { return e.IsBinop(ir.OpAdd64) && e.Args[0].Kind == ir.ExprRdTmp && isSimm13Const(e.Args[1]) },
		emit: func(m *Machine, e *ir.Expr, dst regalloc.VReg) {
			m.insert(m.allocateInstr().asALU(aluOpAdd, dst, m.vregs[e.Args[0].Tmp], operandImm(int64(e.Args[1].Con.Bits))))
		},
	},
	{
		name: "And64(t, t)",
		match: func(_ *Machine, e *ir.Expr) bool {
			return e.IsBinop(ir.OpAnd64) && e.Args[0].Kind == ir.ExprRdTmp && e.Args[1].Kind == ir.ExprRdTmp
		},
		emit: func(m *Machine, e *ir.Expr, dst regalloc.VReg) {
			m.insert(m.allocateInstr().asALU(aluOpAnd, dst, m.vregs[e.Args[0].Tmp], operandReg(m.vregs[e.Args[1].Tmp])))
		},
	},
	{
		name:  "And64(GET:I64, simm13)",
		match: func(_ *Machine, e *ir.Expr) bool { return e.IsBinop(ir.OpAnd64) && isGet64(e.Args[0]) && isSimm13Const(e.Args[1]) },
		emit: func(m *Machine, e *ir.Expr, dst regalloc.VReg) {
			m.insertGetInto(e.Args[0], dst)
			m.insert(m.allocateInstr().asALU(aluOpAnd, dst, dst, operandImm(int64(e.Args[1].Con.Bits))))
		},
	},
	{
		name:  "And64(t, simm13)",
		match: func(_ *Machine, e *ir.Expr) bool { return e.IsBinop(ir.OpAnd64) && e.Args[0].Kind == ir.ExprRdTmp && isSimm13Const(e.Args[1]) },
		emit: func(m *Machine, e *ir.Expr, dst regalloc.VReg) {
			m.insert(m.allocateInstr().asALU(aluOpAnd, dst, m.vregs[e.Args[0].Tmp], operandImm(int64(e.Args[1].Con.Bits))))
		},
	},
}

func isGet64(e *ir.Expr) bool {
	return e.Kind == ir.ExprGet && e.Ty == ir.TypeI64
}

func isTmpOrGet64(e *ir.Expr) bool {
	return e.Kind == ir.ExprRdTmp || isGet64(e)
}

func isSimm13Const(e *ir.Expr) bool {
	c, ok := e.IsConstU64()
	return ok && fitsSimm13(int64(c))
}

// skipUnop returns the argument of e if e applies op, and e otherwise.
func skipUnop(e *ir.Expr, op ir.Op) *ir.Expr {
	if e.IsUnop(op) {
		return e.Args[0]
	}
	return e
}

func (m *Machine) insertMove(dst, src regalloc.VReg) {
	m.insert(m.allocateInstr().asALU(aluOpOr, dst, g0VReg, operandReg(src)))
}

func (m *Machine) insertGetInto(e *ir.Expr, dst regalloc.VReg) {
	m.insert(m.allocateInstr().asLoad(8, dst, guestAMode(e.Offset), asiOperand{}))
}

// tmpOrGetInto returns the register holding e, loading it into dst first if e reads the guest state.
func (m *Machine) tmpOrGetInto(e *ir.Expr, dst regalloc.VReg) regalloc.VReg {
	if e.Kind == ir.ExprRdTmp {
		return m.vregs[e.Tmp]
	}
	m.insertGetInto(e, dst)
	return dst
}

// matchHelperArg returns the first pattern matching e, or nil.
func (m *Machine) matchHelperArg(e *ir.Expr) *helperArgPattern {
	if e.Kind != ir.ExprGSPtr && (e.Kind == ir.ExprVecRet || m.sb.TypeOf(e) != ir.TypeI64) {
		return nil
	}
	for k := range helperArgPatterns {
		if p := &helperArgPatterns[k]; p.match(m, e) {
			return p
		}
	}
	return nil
}

func isTrue(e *ir.Expr) bool {
	return e == nil || (e.Kind == ir.ExprConst && e.Con.Type == ir.TypeI1 && e.Con.Bits&1 != 0)
}

// retLocOf returns where a helper returning ty leaves its result.
func retLocOf(ty ir.Type) retLoc {
	switch ty {
	case ir.TypeInvalid:
		return retLocNone
	case ir.TypeI1, ir.TypeI8, ir.TypeI16, ir.TypeI32, ir.TypeI64:
		return retLocInt
	case ir.TypeI128:
		return retLoc2Int
	}
	panic(fmt.Sprintf("sparc64: helper calls returning %s are unsupported", ty))
}

// lowerHelperCall marshals args into the argument registers and calls callee when guard holds. A nil guard means
// always. It returns where the result is found after the call.
//
// Unconditional calls whose arguments all match helperArgPatterns compute every argument straight into its
// register. Otherwise every argument is first computed into a fresh register, then the guard, and only then are
// the arguments copied into place, since computing an argument may need fixed registers and condition codes.
func (m *Machine) lowerHelperCall(guard *ir.Expr, callee *ir.Callee, retTy ir.Type, args []*ir.Expr) retLoc {
	if len(args) > maxHelperArgs {
		panic(fmt.Sprintf("sparc64: helper %s takes %d arguments, at most %d are supported", callee.Name, len(args), maxHelperArgs))
	}
	var gsPtrs int
	for _, a := range args {
		switch a.Kind {
		case ir.ExprVecRet:
			panic(fmt.Sprintf("sparc64: helper %s returns a vector", callee.Name))
		case ir.ExprGSPtr:
			gsPtrs++
		}
	}
	if gsPtrs > 1 {
		panic(fmt.Sprintf("sparc64: helper %s takes the guest state pointer %d times", callee.Name, gsPtrs))
	}
	rloc := retLocOf(retTy)
	if !isTrue(guard) && rloc != retLocNone {
		panic(fmt.Sprintf("sparc64: conditional call of %s returning %s is unsupported", callee.Name, retTy))
	}

	fast := isTrue(guard)
	var patterns [maxHelperArgs]*helperArgPattern
	for k := 0; fast && k < len(args); k++ {
		patterns[k] = m.matchHelperArg(args[k])
		fast = patterns[k] != nil
	}

	cond := condA
	if fast {
		for k, a := range args {
			patterns[k].emit(m, a, realRegVReg(argRegs[k]))
		}
	} else {
		var tmps [maxHelperArgs]regalloc.VReg
		for k, a := range args {
			switch {
			case a.Kind == ir.ExprGSPtr:
				tmps[k] = gsPtrVReg
			case m.sb.TypeOf(a) == ir.TypeI64:
				tmps[k] = m.lowerExpr(a)
			default:
				panic(fmt.Sprintf("sparc64: helper %s argument %s has type %s", callee.Name, a, m.sb.TypeOf(a)))
			}
		}
		if !isTrue(guard) {
			cond = m.lowerCond(guard)
		}
		for k := range args {
			m.insertMove(realRegVReg(argRegs[k]), tmps[k])
		}
	}

	m.insert(m.allocateInstr().asLoadImm(g4VReg, callee.Addr))
	m.insert(m.allocateInstr().asCall(cond, g4VReg, len(args), rloc))
	return rloc
}
