package sample

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSamples(t *testing.T) {
	names := Names()
	require.Equal(t, []string{"addput", "cas", "fp", "helper", "loop", "ret", "syscall"}, names)
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			sb, ok := Get(name)
			require.True(t, ok)
			require.NoError(t, sb.Validate())

			// Every call returns a block of its own.
			again, _ := Get(name)
			require.NotSame(t, sb, again)
			require.Equal(t, sb.String(), again.String())
		})
	}
	_, ok := Get("nope")
	require.False(t, ok)
}
