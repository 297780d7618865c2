package main

import (
	"bytes"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
)

func runMain(t *testing.T, args ...string) (int, string, string) {
	var stdOut, stdErr bytes.Buffer
	code := doMain(args, &stdOut, &stdErr)
	return code, stdOut.String(), stdErr.String()
}

func TestUniverse(t *testing.T) {
	code, out, _ := runMain(t, "universe")
	require.Equal(t, 0, code)
	require.Contains(t, out, "sparc64 (57 registers)")
	require.Contains(t, out, "allocatable (44)")
	require.Contains(t, out, "[int]  %l0 %l1 %l2")
	require.Contains(t, out, "reserved (13)")
	require.Contains(t, out, "%g0 %g1")
}

func TestImm(t *testing.T) {
	tests := []struct {
		name, arg, exp string
	}{
		{name: "small", arg: "5", exp: "90102005  or %g0, 0x5, %o0\n"},
		{name: "32-bit", arg: "0x12345678", exp: "11048d15  sethi %hi(0x12345678), %o0\n90122278  or %o0, 0x278, %o0\n"},
		{name: "negative", arg: "-1", exp: "033fffff  sethi %hi(0xffffffff), %g1\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, out, _ := runMain(t, "imm", tc.arg)
			require.Equal(t, 0, code)
			require.Contains(t, out, tc.exp)
		})
	}

	code, _, stdErr := runMain(t, "imm", "twelve")
	require.Equal(t, 1, code)
	require.Contains(t, stdErr, `invalid immediate "twelve"`)
}

func TestSample(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		code, out, _ := runMain(t, "sample")
		require.Equal(t, 0, code)
		require.Equal(t, "addput\ncas\nfp\nhelper\nloop\nret\nsyscall\n", out)
	})
	t.Run("translate", func(t *testing.T) {
		code, out, _ := runMain(t, "sample", "addput", "--ir")
		require.Equal(t, 0, code)
		require.Contains(t, out, "IMark(0x1000, 4)")
		require.Contains(t, out, "guest 0x1000+4 -> host 0x100000000 (fast entry 0x10000001c), 100 bytes")
		require.Contains(t, out, "add %l0, 5, %l1")
		require.Contains(t, out, "chain site 0x44 -> 0x1004 (fast entry, chained=false)")
	})
	t.Run("no chaining", func(t *testing.T) {
		code, out, _ := runMain(t, "sample", "addput", "--no-chaining")
		require.Equal(t, 0, code)
		require.Contains(t, out, "(xAssisted)")
		require.NotContains(t, out, "chain site")
	})
	t.Run("config", func(t *testing.T) {
		p := path.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(p, []byte(`
hwcaps: [vis3]
code_base: 0x200000
stubs:
  chain_me_to_slow_ep: 0x10000
  chain_me_to_fast_ep: 0x10400
  xindir: 0x10800
  xassisted: 0x10c00
  load_guest_regs: 0x11000
  store_guest_regs: 0x11400
`), 0o600))
		code, out, _ := runMain(t, "sample", "loop", "--config", p)
		require.Equal(t, 0, code)
		require.Contains(t, out, "host 0x200000")
		require.Contains(t, out, "chain site")
	})
	t.Run("unknown", func(t *testing.T) {
		code, _, stdErr := runMain(t, "sample", "nope")
		require.Equal(t, 1, code)
		require.Contains(t, stdErr, `unknown sample "nope"`)
	})
	t.Run("bad capability", func(t *testing.T) {
		code, _, stdErr := runMain(t, "sample", "addput", "--hwcaps", "vis9")
		require.Equal(t, 1, code)
		require.Contains(t, stdErr, `unknown hardware capability "vis9"`)
	})
}

func TestLogLevel(t *testing.T) {
	code, _, stdErr := runMain(t, "universe", "--log-level", "loud")
	require.Equal(t, 1, code)
	require.Contains(t, stdErr, "invalid level: loud")
}
