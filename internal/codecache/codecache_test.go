package codecache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparcjit/sparcjit/internal/asm"
	"github.com/sparcjit/sparcjit/internal/engine/backend/isa/sparc64"
	"github.com/sparcjit/sparcjit/internal/engine/jitapi"
	"github.com/sparcjit/sparcjit/ir"
)

var testStubs = sparc64.Stubs{
	ChainMeToSlowEP: 0x10000,
	ChainMeToFastEP: 0x10400,
	XIndir:          0x10800,
	XAssisted:       0x10c00,
	LoadGuestRegs:   0x11000,
	StoreGuestRegs:  0x11400,
}

// translate returns the block of a 4-byte guest instruction at guest jumping to next.
func translate(t *testing.T, guest, next, host uint64) *Block {
	sb := ir.NewSB(jitapi.OffsetPC)
	sb.Add(ir.IMark(guest, 4))
	sb.Next, sb.JumpKind = ir.ConstU64(next), ir.JumpBoring

	m := sparc64.NewMachine(sparc64.Config{Hwcaps: jitapi.HwcapsAll, Chaining: true, Stubs: testStubs})
	require.NoError(t, m.Select(sb, guest+3))
	m.Allocate()
	var seg asm.CodeSegment
	buf := seg.Next()
	m.Encode(buf)

	b := &Block{GuestAddr: guest, GuestLen: 4, HostAddr: host, Code: append([]byte(nil), buf.Bytes()...)}
	for _, s := range m.ChainSites() {
		b.Sites = append(b.Sites, Site{ChainSite: s})
	}
	return b
}

// requireJumpsTo fails unless the exit of b currently loads addr.
func requireJumpsTo(t *testing.T, b *Block, addr uint64) {
	site := append([]byte(nil), b.Code[b.Sites[0].Offset:]...)
	require.NotPanics(t, func() { sparc64.Chain(site, addr, 0) })
}

func TestCache_link(t *testing.T) {
	c := New(testStubs)
	a := translate(t, 0x1000, 0x2000, 0x100000)
	b := translate(t, 0x2000, 0x1000, 0x100400)
	require.True(t, a.Sites[0].ToFastEP)
	require.False(t, b.Sites[0].ToFastEP)

	c.Insert(a)
	require.Equal(t, 1, c.Len())
	require.False(t, a.Sites[0].Chained)
	requireJumpsTo(t, a, testStubs.ChainMeToFastEP)

	// Both directions are linked once the destination exists.
	c.Insert(b)
	require.True(t, a.Sites[0].Chained)
	require.True(t, b.Sites[0].Chained)
	requireJumpsTo(t, a, b.FastEP())
	requireJumpsTo(t, b, a.SlowEP())
	require.Equal(t, uint64(0x100400+sparc64.EvCheckSize), b.FastEP())

	got, ok := c.Lookup(0x2000)
	require.True(t, ok)
	require.Same(t, b, got)
	_, ok = c.Lookup(0x2004)
	require.False(t, ok)

	// Evicting b sends a back to the dispatcher.
	require.True(t, c.Remove(0x2000))
	require.False(t, c.Remove(0x2000))
	require.False(t, a.Sites[0].Chained)
	requireJumpsTo(t, a, testStubs.ChainMeToFastEP)
	// b keeps its code, chained or not, but nothing refers to it any more.
	require.Equal(t, 1, c.Len())
	require.Equal(t, 1, len(c.incoming))
}

func TestCache_Insert_replace(t *testing.T) {
	c := New(testStubs)
	a := translate(t, 0x1000, 0x2000, 0x100000)
	b := translate(t, 0x2000, 0x3000, 0x100400)
	c.Insert(a)
	c.Insert(b)
	requireJumpsTo(t, a, b.FastEP())

	// A retranslation of 0x2000 takes over the exits leading to the old one.
	b2 := translate(t, 0x2000, 0x3000, 0x100800)
	c.Insert(b2)
	require.Equal(t, 2, c.Len())
	requireJumpsTo(t, a, b2.FastEP())
	require.Equal(t, 1, len(c.incoming[0x3000]))
}

func TestCache_selfLoop(t *testing.T) {
	c := New(testStubs)
	a := translate(t, 0x1000, 0x1000, 0x100000)
	c.Insert(a)
	require.True(t, a.Sites[0].Chained)
	requireJumpsTo(t, a, a.SlowEP())

	require.True(t, c.Remove(0x1000))
	requireJumpsTo(t, a, testStubs.ChainMeToSlowEP)
	require.Equal(t, 0, len(c.incoming))
}

func TestCache_Invalidate(t *testing.T) {
	c := New(testStubs)
	for k, guest := range []uint64{0x1000, 0x1004, 0x1008, 0x2000} {
		c.Insert(translate(t, guest, 0x9000, 0x100000+uint64(k)*0x400))
	}

	evicted := c.Invalidate(0x1006, 0x1009)
	require.Equal(t, 2, len(evicted))
	require.Equal(t, uint64(0x1004), evicted[0].GuestAddr)
	require.Equal(t, uint64(0x1008), evicted[1].GuestAddr)

	var resident []uint64
	c.Ascend(func(b *Block) bool {
		resident = append(resident, b.GuestAddr)
		return true
	})
	require.Equal(t, []uint64{0x1000, 0x2000}, resident)
	require.Equal(t, 0, len(c.Invalidate(0x3000, 0x4000)))
}

func TestCache_Insert_invalid(t *testing.T) {
	c := New(testStubs)
	a := translate(t, 0x1000, 0x2000, 0x100000)
	a.Sites[0].Chained = true
	require.Panics(t, func() { c.Insert(a) })

	a = translate(t, 0x1000, 0x2000, 0x100000)
	a.Code = a.Code[:a.Sites[0].Offset]
	require.Panics(t, func() { c.Insert(a) })
}
