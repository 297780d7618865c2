package sparcjit

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparcjit/sparcjit/internal/engine/backend/isa/sparc64"
)

const testVersion = "0.0.1"

func le32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }

func le64(v uint64) []byte { return binary.LittleEndian.AppendUint64(nil, v) }

func concat(ins ...[]byte) (ret []byte) {
	for _, in := range ins {
		ret = append(ret, in...)
	}
	return
}

func crcf(b []byte) []byte {
	return le32(crc32.Checksum(b, crc))
}

var testCode = bytes.Repeat([]byte{1, 2, 3, 4}, 8)

func TestSerializeBlock(t *testing.T) {
	in := &cachedBlock{
		guestLen: 8,
		code:     testCode,
		sites:    []sparc64.ChainSite{{Offset: 4, Target: 0x2000, ToFastEP: true}},
	}
	actual, err := io.ReadAll(serializeBlock(testVersion, in))
	require.NoError(t, err)
	require.Equal(t, concat(
		magic,
		[]byte{byte(len(testVersion))},
		[]byte(testVersion),
		le64(8),        // guest length.
		le64(32),       // length of code.
		testCode,       // code.
		crcf(testCode), // crc for the code.
		le32(1),        // number of chain sites.
		le32(4),        // offset.
		le64(0x2000),   // target.
		[]byte{1},      // to the fast entry point.
	), actual)

	b, stale, err := deserializeBlock(testVersion, bytes.NewReader(actual))
	require.NoError(t, err)
	require.False(t, stale)
	require.Equal(t, in, b)
}

func TestDeserializeBlock(t *testing.T) {
	header := concat(magic, []byte{byte(len(testVersion))}, []byte(testVersion))
	tests := []struct {
		name     string
		in       []byte
		expStale bool
		expErr   string
	}{
		{
			name:   "invalid header",
			in:     []byte{1},
			expErr: "compilationcache: invalid header length: 1",
		},
		{
			name:   "invalid magic",
			in:     concat([]byte{'a', 'b', 'c', 'd', 'e', 'f'}, []byte{byte(len(testVersion))}, []byte(testVersion)),
			expErr: "compilationcache: invalid magic number: got abcdef but want SPJITB",
		},
		{
			name:     "version mismatch",
			in:       concat(magic, []byte{byte(len(testVersion))}, []byte("1.0.0")),
			expStale: true,
		},
		{
			name:   "truncated code",
			in:     concat(header, le64(8), le64(32), testCode[:5]),
			expErr: "compilationcache: error reading code (len=32): unexpected EOF",
		},
		{
			name:   "checksum mismatch",
			in:     concat(header, le64(8), le64(32), testCode, le32(1)),
			expErr: "compilationcache: checksum mismatch",
		},
		{
			name:   "missing chain sites",
			in:     concat(header, le64(8), le64(32), testCode, crcf(testCode)),
			expErr: "compilationcache: error reading number of chain sites: EOF",
		},
		{
			name:   "chain site outside of the code",
			in:     concat(header, le64(8), le64(32), testCode, crcf(testCode), le32(1), le32(16), le64(0x2000), []byte{0}),
			expErr: "compilationcache: chain site at 16 lies outside of the code (len=32)",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, stale, err := deserializeBlock(testVersion, bytes.NewReader(tc.in))
			if tc.expErr != "" {
				require.ErrorContains(t, err, tc.expErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expStale, stale)
			require.Nil(t, b)
		})
	}
}
