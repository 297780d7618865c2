package sparc64

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
)

func TestGetUniverse(t *testing.T) {
	u := GetUniverse()
	require.Equal(t, int(numRealRegs)-1, u.Len())
	require.Equal(t, 44, u.Allocatable())
	require.NoError(t, u.validate())

	info := u.RegisterInfo()
	require.Equal(t, []regalloc.RealReg{
		l0, l1, l2, l3, l4, l5, l6, l7, i0, i1, i2, i3, i4, i5, o0, o1, o2, o3, o4, o5,
	}, info.AllocatableRegisters[regalloc.RegTypeInt])
	require.Equal(t, 8, len(info.AllocatableRegisters[regalloc.RegTypeF32]))
	require.Equal(t, 8, len(info.AllocatableRegisters[regalloc.RegTypeF64]))
	require.Equal(t, 8, len(info.AllocatableRegisters[regalloc.RegTypeF128]))

	// None of the reserved registers is handed out.
	for _, r := range u.Regs()[u.Allocatable():] {
		for _, regs := range info.AllocatableRegisters {
			require.NotContains(t, regs, r)
		}
	}

	s := u.String()
	require.True(t, strings.HasPrefix(s, "%l0 %l1"))
	require.Contains(t, s, "%q52 | %g0")
	require.True(t, strings.HasSuffix(s, "%pc"))
}

func TestGetUniverse_concurrent(t *testing.T) {
	var wg sync.WaitGroup
	got := make([]*Universe, 8)
	for k := range got {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			got[k] = GetUniverse()
		}(k)
	}
	wg.Wait()
	for _, u := range got {
		require.Same(t, got[0], u)
	}
}

func TestUniverse_validate(t *testing.T) {
	t.Run("misplaced", func(t *testing.T) {
		u := newUniverse()
		u.regs[0], u.regs[1] = u.regs[1], u.regs[0]
		require.EqualError(t, u.validate(), "%l1 is at index 0")
	})
	t.Run("too many allocatable", func(t *testing.T) {
		u := newUniverse()
		u.allocatable = u.Len() + 1
		require.Error(t, u.validate())
	})
	t.Run("reserved register made allocatable", func(t *testing.T) {
		u := newUniverse()
		// %g0 follows the quad registers, so the integer class is no longer contiguous.
		u.allocatable++
		require.EqualError(t, u.validate(), "allocatable int registers are not contiguous at %g0")
	})
}

func TestRegName(t *testing.T) {
	for _, tc := range []struct {
		r   regalloc.RealReg
		exp string
		enc byte
	}{
		{r: l0, exp: "%l0", enc: 16},
		{r: i5, exp: "%i5", enc: 29},
		{r: o0, exp: "%o0", enc: 8},
		{r: f7, exp: "%f7", enc: 7},
		{r: d22, exp: "%d22", enc: 22},
		{r: q52, exp: "%q52", enc: 52},
		{r: g5, exp: "%g5", enc: 5},
		{r: i7, exp: "%i7", enc: 31},
	} {
		require.Equal(t, tc.exp, RegName(tc.r))
		require.Equal(t, tc.enc, RegEncoding(tc.r))
	}
	require.Equal(t, "invalid(0)", RegName(regalloc.RealRegInvalid))
	require.Equal(t, regalloc.RegTypeF64, RegClass(d8))
}

func TestFormatVReg(t *testing.T) {
	require.Equal(t, "%o1", formatVReg(o1VReg))
	require.Equal(t, "v70?f64", formatVReg(regalloc.VReg(70).SetRegType(regalloc.RegTypeF64)))
}

func TestFregNo(t *testing.T) {
	require.Equal(t, uint32(52), fregNo(realRegVReg(q52), false))
	require.Equal(t, uint32(21), fregNo(realRegVReg(q52), true))
	require.Equal(t, uint32(12), fregNo(d12VReg, true))
	require.Panics(t, func() { fregNo(o0VReg, true) })
	require.Panics(t, func() { iregNo(d8VReg) })
}

func TestIregNo(t *testing.T) {
	require.Equal(t, uint32(0), iregNo(g0VReg))
	require.Equal(t, uint32(31), iregNo(realRegVReg(i7)))
	require.Equal(t, uint32(8), iregNo(o0VReg))
	// %pc has no operand encoding.
	require.Equal(t, byte(encNone), RegEncoding(pc))
	require.PanicsWithValue(t, "BUG: %pc cannot be encoded as an integer register", func() { iregNo(realRegVReg(pc)) })
	require.Panics(t, func() { iregNo(regalloc.VReg(70).SetRegType(regalloc.RegTypeInt)) })
}
