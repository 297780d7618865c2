package ir

import "fmt"

// JumpKind tells the runtime why control leaves a block.
type JumpKind byte

const (
	JumpInvalid JumpKind = iota
	JumpBoring
	JumpCall
	JumpRet
	JumpClientReq
	JumpEmWarn
	JumpEmFail
	JumpInvalICache
	JumpNoDecode
	JumpNoRedir
	JumpSigBUS
	JumpSigILL
	JumpSigTRAP
	JumpSigFPEIntDiv
	JumpSigFPEIntOvf
	JumpSysSyscall
	JumpSysSyscall110
	JumpSysSyscall111
	JumpSysFasttrap
	JumpYield
)

var jumpKindNames = [...]string{
	JumpInvalid:       "Invalid",
	JumpBoring:        "Boring",
	JumpCall:          "Call",
	JumpRet:           "Ret",
	JumpClientReq:     "ClientReq",
	JumpEmWarn:        "EmWarn",
	JumpEmFail:        "EmFail",
	JumpInvalICache:   "InvalICache",
	JumpNoDecode:      "NoDecode",
	JumpNoRedir:       "NoRedir",
	JumpSigBUS:        "SigBUS",
	JumpSigILL:        "SigILL",
	JumpSigTRAP:       "SigTRAP",
	JumpSigFPEIntDiv:  "SigFPE_IntDiv",
	JumpSigFPEIntOvf:  "SigFPE_IntOvf",
	JumpSysSyscall:    "Sys_syscall",
	JumpSysSyscall110: "Sys_syscall110",
	JumpSysSyscall111: "Sys_syscall111",
	JumpSysFasttrap:   "Sys_fasttrap",
	JumpYield:         "Yield",
}

// String implements fmt.Stringer.
func (j JumpKind) String() string {
	if int(j) < len(jumpKindNames) {
		return jumpKindNames[j]
	}
	return "invalid"
}

// StmtKind is the kind of a Stmt.
type StmtKind byte

const (
	StmtInvalid StmtKind = iota
	StmtNoOp
	// StmtIMark marks the start of the guest instruction at Addr, Len bytes long.
	StmtIMark
	StmtAbiHint
	// StmtPut writes Data into the guest state at Offset.
	StmtPut
	StmtPutI
	// StmtWrTmp assigns Data to Tmp.
	StmtWrTmp
	// StmtStore writes Data to memory at Addr, optionally in the address space ASI.
	StmtStore
	StmtStoreG
	StmtLoadG
	// StmtCAS is an atomic compare and swap described by CAS.
	StmtCAS
	StmtLLSC
	// StmtDirty is a helper call with side effects described by Dirty.
	StmtDirty
	// StmtMBE is a memory barrier.
	StmtMBE
	// StmtExit leaves the block for Dst when Guard holds.
	StmtExit
	// StmtUnrecognized carries a raw guest instruction word which the selector passes through.
	StmtUnrecognized
)

// Stmt is a statement of an SB. Fields are interpreted depending on Kind.
type Stmt struct {
	Kind StmtKind

	Offset int32
	Data   *Expr
	Tmp    Tmp

	End  Endness
	Addr *Expr
	ASI  *Expr

	CAS   *CAS
	Dirty *Dirty

	Guard    *Expr
	Dst      Const
	JumpKind JumpKind
	OffsIP   int32

	IMarkAddr uint64
	IMarkLen  uint32

	Bits uint32
}

// CAS describes a compare and swap. It is a double CAS when OldHi is valid.
type CAS struct {
	OldHi, OldLo   Tmp
	End            Endness
	Addr           *Expr
	ExpdHi, ExpdLo *Expr
	DataHi, DataLo *Expr
}

// Dirty describes a helper call with side effects, executed only when Guard holds.
type Dirty struct {
	Callee *Callee
	Guard  *Expr
	Args   []*Expr
	// Tmp receives the result, or is TmpInvalid.
	Tmp Tmp
}

// NoOp returns a statement which does nothing.
func NoOp() *Stmt { return &Stmt{Kind: StmtNoOp} }

// IMark returns an instruction marker.
func IMark(addr uint64, length uint32) *Stmt {
	return &Stmt{Kind: StmtIMark, IMarkAddr: addr, IMarkLen: length}
}

// Put returns a guest state write.
func Put(offset int32, data *Expr) *Stmt {
	return &Stmt{Kind: StmtPut, Offset: offset, Data: data}
}

// WrTmp returns an assignment of data to t.
func WrTmp(t Tmp, data *Expr) *Stmt {
	return &Stmt{Kind: StmtWrTmp, Tmp: t, Data: data}
}

// Store returns a memory write of data at addr.
func Store(end Endness, addr, data *Expr) *Stmt {
	return &Stmt{Kind: StmtStore, End: end, Addr: addr, Data: data}
}

// StoreASI returns a memory write of data at addr in the address space asi.
func StoreASI(end Endness, addr, data, asi *Expr) *Stmt {
	return &Stmt{Kind: StmtStore, End: end, Addr: addr, Data: data, ASI: asi}
}

// CASStmt returns a single compare and swap: old := *addr; if old == expd { *addr = data }.
func CASStmt(old Tmp, end Endness, addr, expd, data *Expr) *Stmt {
	return &Stmt{Kind: StmtCAS, CAS: &CAS{
		OldHi: TmpInvalid, OldLo: old, End: end, Addr: addr, ExpdLo: expd, DataLo: data,
	}}
}

// DirtyStmt returns a side-effecting helper call.
func DirtyStmt(d *Dirty) *Stmt { return &Stmt{Kind: StmtDirty, Dirty: d} }

// MBE returns a memory barrier.
func MBE() *Stmt { return &Stmt{Kind: StmtMBE} }

// Exit returns a side exit to dst taken when guard holds.
func Exit(guard *Expr, jk JumpKind, dst uint64, offsIP int32) *Stmt {
	return &Stmt{Kind: StmtExit, Guard: guard, JumpKind: jk, Dst: Const{Type: TypeI64, Bits: dst}, OffsIP: offsIP}
}

// Unrecognized returns a passthrough of a raw guest instruction word.
func Unrecognized(bits uint32) *Stmt {
	return &Stmt{Kind: StmtUnrecognized, Bits: bits}
}

// String implements fmt.Stringer.
func (s *Stmt) String() string {
	switch s.Kind {
	case StmtNoOp:
		return "IR-NoOp"
	case StmtIMark:
		return fmt.Sprintf("------ IMark(%#x, %d) ------", s.IMarkAddr, s.IMarkLen)
	case StmtAbiHint:
		return "AbiHint"
	case StmtPut:
		return fmt.Sprintf("PUT(%d) = %s", s.Offset, s.Data)
	case StmtPutI:
		return "PUTI"
	case StmtWrTmp:
		return fmt.Sprintf("%s = %s", s.Tmp, s.Data)
	case StmtStore:
		if s.ASI != nil {
			return fmt.Sprintf("ST%s(%s,asi=%s) = %s", s.End, s.Addr, s.ASI, s.Data)
		}
		return fmt.Sprintf("ST%s(%s) = %s", s.End, s.Addr, s.Data)
	case StmtStoreG:
		return "STOREG"
	case StmtLoadG:
		return "LOADG"
	case StmtCAS:
		c := s.CAS
		if c.OldHi != TmpInvalid {
			return fmt.Sprintf("%s,%s = CAS%s(%s::(%s,%s)->(%s,%s))", c.OldHi, c.OldLo, c.End, c.Addr, c.ExpdHi, c.ExpdLo, c.DataHi, c.DataLo)
		}
		return fmt.Sprintf("%s = CAS%s(%s::%s->%s)", c.OldLo, c.End, c.Addr, c.ExpdLo, c.DataLo)
	case StmtLLSC:
		return "LLSC"
	case StmtDirty:
		d := s.Dirty
		guard := "1:i1"
		if d.Guard != nil {
			guard = d.Guard.String()
		}
		if d.Tmp != TmpInvalid {
			return fmt.Sprintf("%s = DIRTY %s ::: %s(%s)", d.Tmp, guard, d.Callee, formatArgs(d.Args))
		}
		return fmt.Sprintf("DIRTY %s ::: %s(%s)", guard, d.Callee, formatArgs(d.Args))
	case StmtMBE:
		return "IR-MBusEvent"
	case StmtExit:
		return fmt.Sprintf("if (%s) { PUT(%d) = %#x; exit-%s }", s.Guard, s.OffsIP, s.Dst.Bits, s.JumpKind)
	case StmtUnrecognized:
		return fmt.Sprintf("Unrecognized(%#08x)", s.Bits)
	}
	return "invalid"
}
