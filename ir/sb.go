package ir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xlab/treeprint"
)

// SB is a superblock: a single-entry, multiple-exit sequence of statements
// ending in a jump to Next.
type SB struct {
	// Types is the type environment, indexed by Tmp.
	Types []Type
	Stmts []*Stmt
	// Next is the address of the fall-through successor.
	Next     *Expr
	JumpKind JumpKind
	// OffsIP is the guest state offset of the program counter.
	OffsIP int32
}

// NewSB returns an empty SB whose program counter lives at offsIP.
func NewSB(offsIP int32) *SB {
	return &SB{OffsIP: offsIP}
}

// NewTmp allocates a new temporary of the given type.
func (sb *SB) NewTmp(ty Type) Tmp {
	sb.Types = append(sb.Types, ty)
	return Tmp(len(sb.Types) - 1)
}

// Add appends statements to the block.
func (sb *SB) Add(stmts ...*Stmt) {
	sb.Stmts = append(sb.Stmts, stmts...)
}

// TypeOfTmp returns the type of t.
func (sb *SB) TypeOfTmp(t Tmp) Type {
	if int(t) >= len(sb.Types) {
		panic(fmt.Sprintf("BUG: %s is not declared", t))
	}
	return sb.Types[t]
}

// TypeOf returns the type of e.
func (sb *SB) TypeOf(e *Expr) Type {
	switch e.Kind {
	case ExprGet, ExprLoad, ExprCCall:
		return e.Ty
	case ExprRdTmp:
		return sb.TypeOfTmp(e.Tmp)
	case ExprConst:
		return e.Con.Type
	case ExprUnop, ExprBinop, ExprTriop, ExprQop:
		return e.Op.ResultType()
	case ExprITE:
		return sb.TypeOf(e.IfTrue)
	case ExprGSPtr, ExprVecRet:
		return TypeI64
	}
	return TypeInvalid
}

// Validate checks the structural well-formedness of the block. In particular,
// every temporary must be assigned exactly once before it is read. Selectors
// rely on this property to identify values by temporary.
func (sb *SB) Validate() error {
	if sb.Next == nil {
		return errors.New("block has no next expression")
	}
	if sb.JumpKind == JumpInvalid {
		return errors.New("block has no jump kind")
	}
	assigned := make([]bool, len(sb.Types))
	def := func(t Tmp) error {
		if t == TmpInvalid {
			return nil
		}
		if int(t) >= len(sb.Types) {
			return fmt.Errorf("%s is not declared", t)
		}
		if assigned[t] {
			return fmt.Errorf("%s is assigned more than once", t)
		}
		assigned[t] = true
		return nil
	}
	var use func(e *Expr) error
	use = func(e *Expr) error {
		if e == nil {
			return nil
		}
		switch e.Kind {
		case ExprRdTmp:
			if int(e.Tmp) >= len(sb.Types) {
				return fmt.Errorf("%s is not declared", e.Tmp)
			}
			if !assigned[e.Tmp] {
				return fmt.Errorf("%s is read before assignment", e.Tmp)
			}
		case ExprUnop, ExprBinop, ExprTriop, ExprQop:
			for _, a := range e.Args[:e.Op.Arity()] {
				if a == nil {
					return fmt.Errorf("%s has a missing argument", e.Op)
				}
				if err := use(a); err != nil {
					return err
				}
			}
		case ExprLoad:
			if err := use(e.Addr); err != nil {
				return err
			}
			return use(e.ASI)
		case ExprITE:
			for _, a := range []*Expr{e.Cond, e.IfTrue, e.IfFalse} {
				if err := use(a); err != nil {
					return err
				}
			}
		case ExprCCall:
			for _, a := range e.CallArgs {
				if err := use(a); err != nil {
					return err
				}
			}
		case ExprInvalid:
			return errors.New("invalid expression")
		}
		return nil
	}
	for i, s := range sb.Stmts {
		var err error
		switch s.Kind {
		case StmtPut:
			err = use(s.Data)
		case StmtWrTmp:
			if err = use(s.Data); err == nil {
				err = def(s.Tmp)
			}
		case StmtStore:
			if err = use(s.Addr); err == nil {
				if err = use(s.ASI); err == nil {
					err = use(s.Data)
				}
			}
		case StmtCAS:
			c := s.CAS
			for _, e := range []*Expr{c.Addr, c.ExpdHi, c.ExpdLo, c.DataHi, c.DataLo} {
				if err = use(e); err != nil {
					break
				}
			}
			if err == nil {
				if err = def(c.OldHi); err == nil {
					err = def(c.OldLo)
				}
			}
		case StmtDirty:
			d := s.Dirty
			if err = use(d.Guard); err == nil {
				for _, a := range d.Args {
					if err = use(a); err != nil {
						break
					}
				}
			}
			if err == nil {
				err = def(d.Tmp)
			}
		case StmtExit:
			if err = use(s.Guard); err == nil && (s.Guard == nil || sb.TypeOf(s.Guard) != TypeI1) {
				err = errors.New("exit guard is not i1")
			}
		case StmtInvalid:
			err = errors.New("invalid statement")
		}
		if err != nil {
			return fmt.Errorf("stmt %d (%s): %w", i, s, err)
		}
	}
	return use(sb.Next)
}

// Tree returns a printable tree of the block.
func (sb *SB) Tree() treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("IRSB (%d temps)", len(sb.Types)))
	if len(sb.Types) > 0 {
		env := tree.AddBranch("types")
		for t, ty := range sb.Types {
			env.AddNode(fmt.Sprintf("%s:%s", Tmp(t), ty))
		}
	}
	var insn treeprint.Tree = tree
	for _, s := range sb.Stmts {
		if s.Kind == StmtIMark {
			insn = tree.AddBranch(s.String())
			continue
		}
		insn.AddNode(s.String())
	}
	tree.AddNode(fmt.Sprintf("PUT(%d) = %s; exit-%s", sb.OffsIP, sb.Next, sb.JumpKind))
	return tree
}

// String implements fmt.Stringer.
func (sb *SB) String() string {
	var b strings.Builder
	for t, ty := range sb.Types {
		fmt.Fprintf(&b, "%s:%s ", Tmp(t), ty)
	}
	b.WriteByte('\n')
	for _, s := range sb.Stmts {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "PUT(%d) = %s; exit-%s\n", sb.OffsIP, sb.Next, sb.JumpKind)
	return b.String()
}
