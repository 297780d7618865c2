package asm_test

import (
	"testing"

	"github.com/sparcjit/sparcjit/internal/asm"
	"github.com/stretchr/testify/require"
)

func TestCodeSegmentZeroValue(t *testing.T) {
	var code asm.CodeSegment
	require.Equal(t, 0, code.Size())
	require.Equal(t, 0, len(code.Bytes()))

	buf := code.Next()
	require.Equal(t, 0, buf.Len())
	require.Equal(t, 0, buf.Start())
	require.Equal(t, -1, buf.Remaining())
}

func TestBufferEmitWord(t *testing.T) {
	var code asm.CodeSegment
	buf := code.Next()
	buf.EmitWord(0x9FC10000)
	buf.EmitWord(0x01000000)
	require.Equal(t, 8, buf.Len())
	require.Equal(t, []byte{0x9f, 0xc1, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}, buf.Bytes())
	require.Equal(t, uint32(0x9FC10000), buf.Word(0))
	require.Equal(t, uint32(0x01000000), buf.Word(4))

	buf.PatchWord(4, 0xCA5FA7EF)
	require.Equal(t, []byte{0x9f, 0xc1, 0x00, 0x00, 0xca, 0x5f, 0xa7, 0xef}, buf.Bytes())
}

func TestCodeSegmentNextAligns(t *testing.T) {
	var code asm.CodeSegment
	first := code.Next()
	first.EmitWord(1)
	first.EmitWord(2)
	first.EmitWord(3)

	second := code.Next()
	require.Equal(t, 16, second.Start())
	require.Equal(t, 0, second.Len())
	second.EmitWord(4)
	require.Equal(t, 20, code.Size())
	require.Equal(t, uint32(4), second.Word(0))
	require.Equal(t, uint32(3), first.Word(8))
}

func TestCodeSegmentGrow(t *testing.T) {
	var code asm.CodeSegment
	buf := code.Next()
	for i := 0; i < 5000; i++ {
		buf.EmitWord(uint32(i))
	}
	require.Equal(t, 20000, buf.Len())
	for _, i := range []int{0, 1023, 1024, 4999} {
		require.Equal(t, uint32(i), buf.Word(4*i))
	}
}

func TestCodeSegmentLimit(t *testing.T) {
	code := asm.NewCodeSegment(8)
	buf := code.Next()
	require.Equal(t, 8, buf.Remaining())
	buf.EmitWord(1)
	buf.EmitWord(2)
	require.Equal(t, 0, buf.Remaining())
	require.Panics(t, func() { buf.EmitWord(3) })
}

func TestBufferResetTruncate(t *testing.T) {
	var code asm.CodeSegment
	buf := code.Next()
	_, err := buf.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	buf.Truncate(4)
	require.Equal(t, []byte{1, 2, 3, 4}, buf.Bytes())
	buf.Reset()
	require.Equal(t, 0, buf.Len())

	code.Reset()
	require.Equal(t, 0, code.Size())
}
