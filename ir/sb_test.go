package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSB_TypeOf(t *testing.T) {
	sb := NewSB(528)
	t0 := sb.NewTmp(TypeI64)
	t1 := sb.NewTmp(TypeF64)

	for _, tc := range []struct {
		e   *Expr
		exp Type
	}{
		{e: Get(16, TypeI64), exp: TypeI64},
		{e: RdTmp(t0), exp: TypeI64},
		{e: RdTmp(t1), exp: TypeF64},
		{e: ConstU1(true), exp: TypeI1},
		{e: ConstU32(5), exp: TypeI32},
		{e: Binop(OpAdd64, RdTmp(t0), ConstU64(5)), exp: TypeI64},
		{e: Binop(OpCmpLT64S, RdTmp(t0), ConstU64(5)), exp: TypeI1},
		{e: Unop(Op64to32, RdTmp(t0)), exp: TypeI32},
		{e: Triop(OpAddF64, ConstU32(0), RdTmp(t1), RdTmp(t1)), exp: TypeF64},
		{e: ITE(ConstU1(false), RdTmp(t1), RdTmp(t1)), exp: TypeF64},
		{e: Load(EndBE, TypeI16, RdTmp(t0)), exp: TypeI16},
		{e: GSPtr(), exp: TypeI64},
	} {
		require.Equal(t, tc.exp, sb.TypeOf(tc.e), tc.e.String())
	}
}

func TestSB_Validate(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		sb := NewSB(528)
		t0 := sb.NewTmp(TypeI64)
		sb.Add(
			IMark(0x1000, 4),
			WrTmp(t0, Get(16, TypeI64)),
			Put(24, Binop(OpAdd64, RdTmp(t0), ConstU64(5))),
		)
		sb.Next, sb.JumpKind = ConstU64(0x1004), JumpBoring
		require.NoError(t, sb.Validate())
	})
	t.Run("double assignment", func(t *testing.T) {
		sb := NewSB(528)
		t0 := sb.NewTmp(TypeI64)
		sb.Add(WrTmp(t0, ConstU64(1)), WrTmp(t0, ConstU64(2)))
		sb.Next, sb.JumpKind = ConstU64(0x1004), JumpBoring
		require.ErrorContains(t, sb.Validate(), "t0 is assigned more than once")
	})
	t.Run("read before assignment", func(t *testing.T) {
		sb := NewSB(528)
		t0 := sb.NewTmp(TypeI64)
		sb.Add(Put(16, RdTmp(t0)))
		sb.Next, sb.JumpKind = ConstU64(0x1004), JumpBoring
		require.ErrorContains(t, sb.Validate(), "t0 is read before assignment")
	})
	t.Run("exit guard type", func(t *testing.T) {
		sb := NewSB(528)
		sb.Add(Exit(ConstU64(1), JumpBoring, 0x2000, 528))
		sb.Next, sb.JumpKind = ConstU64(0x1004), JumpBoring
		require.ErrorContains(t, sb.Validate(), "exit guard is not i1")
	})
	t.Run("no next", func(t *testing.T) {
		require.Error(t, NewSB(528).Validate())
	})
}

func TestSB_Tree(t *testing.T) {
	sb := NewSB(528)
	t0 := sb.NewTmp(TypeI64)
	sb.Add(IMark(0x1000, 4), WrTmp(t0, Get(16, TypeI64)))
	sb.Next, sb.JumpKind = RdTmp(t0), JumpRet
	out := sb.Tree().String()
	require.Contains(t, out, "IMark(0x1000, 4)")
	require.Contains(t, out, "t0 = GET:i64(16)")
	require.Contains(t, out, "PUT(528) = t0; exit-Ret")
}

func TestOp_Arity(t *testing.T) {
	require.Equal(t, 1, OpNot64.Arity())
	require.Equal(t, 2, OpAdd64.Arity())
	require.Equal(t, 3, OpAddF64.Arity())
	require.Equal(t, 4, OpMAddF64.Arity())
	require.Panics(t, func() { Binop(OpNot64, ConstU64(1), ConstU64(2)) })
	for op := OpNot1; op < numOps; op++ {
		require.NotEqual(t, "invalid", op.String(), int(op))
		require.NotEqual(t, TypeInvalid, op.ResultType(), op.String())
	}
}
