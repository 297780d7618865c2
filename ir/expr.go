package ir

import (
	"fmt"
	"strings"
)

// ExprKind is the kind of an Expr node.
type ExprKind byte

const (
	ExprInvalid ExprKind = iota
	// ExprGet reads Ty bytes of the guest state at Offset.
	ExprGet
	// ExprRdTmp reads the temporary Tmp.
	ExprRdTmp
	// ExprConst is the literal Con.
	ExprConst
	ExprUnop
	ExprBinop
	ExprTriop
	ExprQop
	// ExprLoad reads Ty from memory at Addr, optionally in the address space ASI.
	ExprLoad
	// ExprITE is Cond ? IfTrue : IfFalse.
	ExprITE
	// ExprCCall calls a pure helper function.
	ExprCCall
	// ExprGSPtr stands for the guest state pointer in helper call arguments.
	ExprGSPtr
	// ExprVecRet stands for a vector return slot in helper call arguments.
	ExprVecRet
)

// Expr is a node of an expression tree. Fields are interpreted depending on Kind.
type Expr struct {
	Kind ExprKind
	Op   Op
	Args [4]*Expr

	Ty     Type
	Offset int32
	Tmp    Tmp
	Con    Const

	End  Endness
	Addr *Expr
	ASI  *Expr

	Cond, IfTrue, IfFalse *Expr

	Callee   *Callee
	CallArgs []*Expr
}

// Callee describes a helper function by name and host address.
type Callee struct {
	Name string
	Addr uint64
}

// String implements fmt.Stringer.
func (c *Callee) String() string {
	return fmt.Sprintf("%s{%#x}", c.Name, c.Addr)
}

// Get returns an expression reading the guest state.
func Get(offset int32, ty Type) *Expr {
	return &Expr{Kind: ExprGet, Offset: offset, Ty: ty}
}

// RdTmp returns an expression reading t.
func RdTmp(t Tmp) *Expr {
	return &Expr{Kind: ExprRdTmp, Tmp: t}
}

// ConstU1 returns a boolean literal.
func ConstU1(b bool) *Expr {
	var v uint64
	if b {
		v = 1
	}
	return &Expr{Kind: ExprConst, Con: Const{Type: TypeI1, Bits: v}}
}

// ConstU8 returns an 8-bit literal.
func ConstU8(v uint8) *Expr {
	return &Expr{Kind: ExprConst, Con: Const{Type: TypeI8, Bits: uint64(v)}}
}

// ConstU16 returns a 16-bit literal.
func ConstU16(v uint16) *Expr {
	return &Expr{Kind: ExprConst, Con: Const{Type: TypeI16, Bits: uint64(v)}}
}

// ConstU32 returns a 32-bit literal.
func ConstU32(v uint32) *Expr {
	return &Expr{Kind: ExprConst, Con: Const{Type: TypeI32, Bits: uint64(v)}}
}

// ConstU64 returns a 64-bit literal.
func ConstU64(v uint64) *Expr {
	return &Expr{Kind: ExprConst, Con: Const{Type: TypeI64, Bits: v}}
}

// Unop returns op(a).
func Unop(op Op, a *Expr) *Expr {
	return newOp(ExprUnop, op, a)
}

// Binop returns op(a, b).
func Binop(op Op, a, b *Expr) *Expr {
	return newOp(ExprBinop, op, a, b)
}

// Triop returns op(a, b, c).
func Triop(op Op, a, b, c *Expr) *Expr {
	return newOp(ExprTriop, op, a, b, c)
}

// Qop returns op(a, b, c, d).
func Qop(op Op, a, b, c, d *Expr) *Expr {
	return newOp(ExprQop, op, a, b, c, d)
}

func newOp(kind ExprKind, op Op, args ...*Expr) *Expr {
	if op.Arity() != len(args) {
		panic(fmt.Sprintf("BUG: %s takes %d arguments, got %d", op, op.Arity(), len(args)))
	}
	e := &Expr{Kind: kind, Op: op}
	copy(e.Args[:], args)
	return e
}

// Load returns a memory read of ty at addr.
func Load(end Endness, ty Type, addr *Expr) *Expr {
	return &Expr{Kind: ExprLoad, End: end, Ty: ty, Addr: addr}
}

// LoadASI returns a memory read of ty at addr in the address space asi.
func LoadASI(end Endness, ty Type, addr, asi *Expr) *Expr {
	return &Expr{Kind: ExprLoad, End: end, Ty: ty, Addr: addr, ASI: asi}
}

// ITE returns cond ? ifTrue : ifFalse.
func ITE(cond, ifTrue, ifFalse *Expr) *Expr {
	return &Expr{Kind: ExprITE, Cond: cond, IfTrue: ifTrue, IfFalse: ifFalse}
}

// CCall returns a call of a pure helper returning retTy.
func CCall(callee *Callee, retTy Type, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCCall, Callee: callee, Ty: retTy, CallArgs: args}
}

// GSPtr returns the guest state pointer argument marker.
func GSPtr() *Expr { return &Expr{Kind: ExprGSPtr} }

// VecRet returns the vector return argument marker.
func VecRet() *Expr { return &Expr{Kind: ExprVecRet} }

// IsUnop returns true if e is op applied to one argument.
func (e *Expr) IsUnop(op Op) bool {
	return e.Kind == ExprUnop && e.Op == op
}

// IsBinop returns true if e is op applied to two arguments.
func (e *Expr) IsBinop(op Op) bool {
	return e.Kind == ExprBinop && e.Op == op
}

// IsConstU64 returns the value of e if it is a 64-bit literal.
func (e *Expr) IsConstU64() (uint64, bool) {
	if e.Kind == ExprConst && e.Con.Type == TypeI64 {
		return e.Con.Bits, true
	}
	return 0, false
}

// IsConstU8 returns the value of e if it is an 8-bit literal.
func (e *Expr) IsConstU8() (uint8, bool) {
	if e.Kind == ExprConst && e.Con.Type == TypeI8 {
		return uint8(e.Con.Bits), true
	}
	return 0, false
}

// String implements fmt.Stringer.
func (e *Expr) String() string {
	switch e.Kind {
	case ExprGet:
		return fmt.Sprintf("GET:%s(%d)", e.Ty, e.Offset)
	case ExprRdTmp:
		return e.Tmp.String()
	case ExprConst:
		return e.Con.String()
	case ExprUnop, ExprBinop, ExprTriop, ExprQop:
		args := make([]string, 0, 4)
		for _, a := range e.Args[:e.Op.Arity()] {
			args = append(args, a.String())
		}
		return fmt.Sprintf("%s(%s)", e.Op, strings.Join(args, ","))
	case ExprLoad:
		if e.ASI != nil {
			return fmt.Sprintf("LD%s:%s(%s,asi=%s)", e.End, e.Ty, e.Addr, e.ASI)
		}
		return fmt.Sprintf("LD%s:%s(%s)", e.End, e.Ty, e.Addr)
	case ExprITE:
		return fmt.Sprintf("ITE(%s,%s,%s)", e.Cond, e.IfTrue, e.IfFalse)
	case ExprCCall:
		return fmt.Sprintf("%s(%s):%s", e.Callee, formatArgs(e.CallArgs), e.Ty)
	case ExprGSPtr:
		return "GSPTR"
	case ExprVecRet:
		return "VECRET"
	}
	return "invalid"
}

func formatArgs(args []*Expr) string {
	strs := make([]string, len(args))
	for i, a := range args {
		strs[i] = a.String()
	}
	return strings.Join(strs, ",")
}
