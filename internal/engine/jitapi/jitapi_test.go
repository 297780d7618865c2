package jitapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuestOffsets(t *testing.T) {
	require.Equal(t, int32(24), OffsetR(1))
	require.Equal(t, int32(48), OffsetR(4))
	require.Equal(t, int32(136), OffsetR(15))
	require.Equal(t, int32(396), OffsetF(31))
	require.Equal(t, int32(280), OffsetD(2))
	require.Equal(t, int32(400), OffsetD(32))
	require.Equal(t, int32(520), OffsetD(62))
	require.True(t, DefaultSpillAreaOffset >= GuestStateSize)
	require.True(t, DefaultSpillAreaOffset+DefaultSpillAreaSize <= 4095)
}

func TestHwcaps(t *testing.T) {
	h, err := ParseHwcaps([]string{"VIS3", "sparc5"})
	require.NoError(t, err)
	require.True(t, h.Has(HwcapVIS3))
	require.False(t, h.Has(HwcapVIS2))
	require.Equal(t, "vis3-sparc5", h.String())
	require.Equal(t, "baseline", Hwcaps(0).String())

	_, err = ParseHwcaps([]string{"vis9"})
	require.EqualError(t, err, `unknown hardware capability "vis9"`)
}

func TestTRC_String(t *testing.T) {
	require.Equal(t, "boring", TRCBoring.String())
	require.Equal(t, "sys_fasttrap", TRCSysFasttrap.String())
	require.Equal(t, "trc(1)", TRC(1).String())
}
