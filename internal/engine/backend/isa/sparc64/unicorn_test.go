//go:build unicorn

package sparc64

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"
)

const (
	unicornCodeBase  = 0x10000
	unicornStateBase = 0x100000
)

// runWords executes words on an emulated sparc64 core whose %g5 points at state, and returns the core.
func runWords(t *testing.T, words []uint32, state []byte, setup func(mu uc.Unicorn)) uc.Unicorn {
	mu, err := uc.NewUnicorn(uc.ARCH_SPARC, uc.MODE_SPARC64|uc.MODE_BIG_ENDIAN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mu.Close() })

	code := make([]byte, 4*len(words))
	for k, w := range words {
		binary.BigEndian.PutUint32(code[4*k:], w)
	}
	require.NoError(t, mu.MemMap(unicornCodeBase, 0x1000))
	require.NoError(t, mu.MemWrite(unicornCodeBase, code))
	require.NoError(t, mu.MemMap(unicornStateBase, 0x1000))
	if state != nil {
		require.NoError(t, mu.MemWrite(unicornStateBase, state))
	}
	require.NoError(t, mu.RegWrite(uc.SPARC_REG_G5, unicornStateBase))
	if setup != nil {
		setup(mu)
	}
	require.NoError(t, mu.Start(unicornCodeBase, unicornCodeBase+uint64(len(code))))
	return mu
}

func TestUnicorn_LoadImmSequence(t *testing.T) {
	for _, imm := range []uint64{
		0, 5, 0xfff, 0x1000, 0x12345678, 0xffffffff, 0x1_0000_0000, 0xdead_beef_cafe_f00d, 0xffff_ffff_ffff_ffff,
	} {
		var words []uint32
		for _, w := range LoadImmSequence(imm) {
			words = append(words, w.Word)
		}
		mu := runWords(t, words, nil, nil)
		got, err := mu.RegRead(uc.SPARC_REG_O0)
		require.NoError(t, err)
		require.Equal(t, imm, got, "%#x", imm)
	}
}

func TestUnicorn_addPut(t *testing.T) {
	// ld8 [%g5+16], %l0; add %l0, 5, %l1; st8 %l1, [%g5+24]
	words := []uint32{0xe0596010, 0xa2042005, 0xe2716018}
	state := make([]byte, 32)
	binary.BigEndian.PutUint64(state[16:], 0x1_0000_0010)

	mu := runWords(t, words, state, nil)
	l1, err := mu.RegRead(uc.SPARC_REG_L1)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1_0000_0015), l1)

	out, err := mu.MemRead(unicornStateBase+24, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1_0000_0015), binary.BigEndian.Uint64(out))
}
