package sparcjit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparcjit/sparcjit/internal/engine/backend/isa/sparc64"
	"github.com/sparcjit/sparcjit/internal/engine/jitapi"
	"github.com/sparcjit/sparcjit/internal/sample"
	"github.com/sparcjit/sparcjit/ir"
)

var testCtx = context.Background()

func newTestTranslator(t *testing.T, c TranslatorConfig) *Translator {
	tr, err := NewTranslator(c.WithStubs(testStubs))
	require.NoError(t, err)
	return tr
}

func translateSample(t *testing.T, tr *Translator, name string) *CompiledBlock {
	sb, ok := sample.Get(name)
	require.True(t, ok)
	b, err := tr.Translate(testCtx, sb)
	require.NoError(t, err)
	return b
}

func TestNewTranslator_invalid(t *testing.T) {
	_, err := NewTranslator(NewTranslatorConfig())
	require.EqualError(t, err, "invalid translator config: dispatcher stubs are not configured")

	_, err = NewTranslator(nil)
	require.EqualError(t, err, "unsupported TranslatorConfig implementation: <nil>")
}

func TestTranslator_Translate(t *testing.T) {
	tr := newTestTranslator(t, NewTranslatorConfig())
	b := translateSample(t, tr, "addput")

	require.Equal(t, uint64(0x1000), b.GuestAddr())
	require.Equal(t, uint64(4), b.GuestLen())
	require.Equal(t, uint64(0x1_0000_0000), b.HostAddr())
	require.Equal(t, b.HostAddr(), b.SlowEP())
	require.Equal(t, b.HostAddr()+sparc64.EvCheckSize, b.FastEP())
	require.False(t, b.FromCache())
	require.Contains(t, b.Listing(), "add %l0, 5, %l1")
	require.Equal(t, []ChainSite{{Offset: 68, Target: 0x1004, ToFastEP: true}}, b.ChainSites())
	require.Equal(t, 100, len(b.Code()))

	// The next block starts at the next 16-byte boundary.
	b2 := translateSample(t, tr, "syscall")
	require.Equal(t, uint64(0x1_0000_0000+112), b2.HostAddr())
	require.Equal(t, 2, tr.NumBlocks())

	got, ok := tr.Lookup(0x1000)
	require.True(t, ok)
	require.Equal(t, b.Code(), got.Code())
	_, ok = tr.Lookup(0x1004)
	require.False(t, ok)
}

func TestTranslator_Translate_errors(t *testing.T) {
	tr := newTestTranslator(t, NewTranslatorConfig())

	_, err := tr.Translate(testCtx, nil)
	require.EqualError(t, err, "sparc64: nil block")

	sb := ir.NewSB(jitapi.OffsetPC)
	sb.Next, sb.JumpKind = ir.ConstU64(0x1000), ir.JumpBoring
	_, err = tr.Translate(testCtx, sb)
	require.EqualError(t, err, "block has no instruction mark")

	sb.Add(ir.IMark(0x1000, 4))
	sb.Next = nil
	_, err = tr.Translate(testCtx, sb)
	require.ErrorContains(t, err, "block has no next expression")

	ctx, cancel := context.WithCancel(testCtx)
	cancel()
	sb, _ = sample.Get("addput")
	_, err = tr.Translate(ctx, sb)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, tr.NumBlocks())
}

func TestTranslator_Translate_missingHwcaps(t *testing.T) {
	sb := ir.NewSB(jitapi.OffsetPC)
	sb.Add(
		ir.IMark(0x1000, 4),
		ir.Put(jitapi.OffsetR(1), ir.Unop(ir.OpClz64, ir.Get(jitapi.OffsetR(2), ir.TypeI64))),
	)
	sb.Next, sb.JumpKind = ir.ConstU64(0x1004), ir.JumpBoring

	tr := newTestTranslator(t, NewTranslatorConfig())
	require.Panics(t, func() { _, _ = tr.Translate(testCtx, sb) })

	tr = newTestTranslator(t, NewTranslatorConfig().WithHwcaps(HwcapVIS3))
	b, err := tr.Translate(testCtx, sb)
	require.NoError(t, err)
	require.Contains(t, b.Listing(), "lzcnt")
}

func TestTranslator_link(t *testing.T) {
	tr := newTestTranslator(t, NewTranslatorConfig())
	loop := translateSample(t, tr, "loop")
	require.Equal(t, uint64(8), loop.GuestLen())

	// The loop back edge enters the block itself through its event check, while the fall through waits for 0x2008.
	sites := loop.ChainSites()
	require.Equal(t, 2, len(sites))
	require.Equal(t, ChainSite{Offset: sites[0].Offset, Target: 0x2000, Chained: true}, sites[0])
	require.Equal(t, ChainSite{Offset: sites[1].Offset, Target: 0x2008, ToFastEP: true}, sites[1])

	require.Equal(t, 1, tr.Invalidate(0x2004, 0x2005))
	require.Equal(t, 0, tr.NumBlocks())
	require.False(t, loop.ChainSites()[0].Chained)
}

func TestTranslator_link_chainedWords(t *testing.T) {
	tr := newTestTranslator(t, NewTranslatorConfig().WithChaining(true))
	a := translateSample(t, tr, "addput")

	sb := ir.NewSB(jitapi.OffsetPC)
	sb.Add(ir.IMark(0x1004, 4))
	sb.Next, sb.JumpKind = ir.ConstU64(0x1000), ir.JumpBoring
	b, err := tr.Translate(testCtx, sb)
	require.NoError(t, err)

	// Unchaining with the expected destination succeeds only if the exit really jumps there.
	site := a.ChainSites()[0]
	require.True(t, site.Chained)
	code := append([]byte(nil), a.Code()...)
	require.NotPanics(t, func() { sparc64.Unchain(code[site.Offset:], b.FastEP(), testStubs.ChainMeToFastEP) })

	site = b.ChainSites()[0]
	require.True(t, site.Chained)
	require.False(t, site.ToFastEP)
	code = append([]byte(nil), b.Code()...)
	require.NotPanics(t, func() { sparc64.Unchain(code[site.Offset:], a.SlowEP(), testStubs.ChainMeToSlowEP) })
}

func TestTranslator_compilationCache(t *testing.T) {
	for _, tc := range []struct {
		name  string
		cache func(t *testing.T) CompilationCache
	}{
		{name: "memory", cache: func(*testing.T) CompilationCache { return NewCompilationCache() }},
		{
			name: "file",
			cache: func(t *testing.T) CompilationCache {
				c, err := NewCompilationCacheWithDir(t.TempDir())
				require.NoError(t, err)
				return c
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			config := NewTranslatorConfig().WithCompilationCache(tc.cache(t))

			foo := newTestTranslator(t, config)
			fresh := translateSample(t, foo, "loop")
			require.False(t, fresh.FromCache())

			// Another translator sharing the cache gets the same code.
			bar := newTestTranslator(t, config)
			cached := translateSample(t, bar, "loop")
			require.True(t, cached.FromCache())
			require.Equal(t, "", cached.Listing())
			require.Equal(t, fresh.Code(), cached.Code())
			require.Equal(t, fresh.ChainSites(), cached.ChainSites())
			require.Equal(t, fresh.GuestLen(), cached.GuestLen())

			// A configuration generating other code misses.
			baz := newTestTranslator(t, config.WithChaining(false))
			require.False(t, translateSample(t, baz, "loop").FromCache())
		})
	}
}

func TestTranslator_samples(t *testing.T) {
	tr := newTestTranslator(t, NewTranslatorConfig().WithHwcaps(HwcapsAll))
	for _, name := range sample.Names() {
		t.Run(name, func(t *testing.T) {
			b := translateSample(t, tr, name)
			require.NotEqual(t, 0, len(b.Code()))
			require.Equal(t, 0, len(b.Code())%4)
		})
	}
	require.Equal(t, len(sample.Names()), tr.NumBlocks())
}
