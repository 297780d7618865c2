package sparcjit_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sparcjit/sparcjit"
	"github.com/sparcjit/sparcjit/ir"
)

// stubs are the dispatcher entry points of the examples. A real embedder passes the addresses of its own stubs.
var stubs = sparcjit.Stubs{
	ChainMeToSlowEP: 0x10000,
	ChainMeToFastEP: 0x10400,
	XIndir:          0x10800,
	XAssisted:       0x10c00,
	LoadGuestRegs:   0x11000,
	StoreGuestRegs:  0x11400,
}

// addPut is "add %g2, 5, %g3" at 0x1000 followed by a jump to 0x1004.
func addPut() *ir.SB {
	sb := ir.NewSB(sparcjit.GuestOffsetPC)
	t0, t1 := sb.NewTmp(ir.TypeI64), sb.NewTmp(ir.TypeI64)
	sb.Add(
		ir.IMark(0x1000, 4),
		ir.WrTmp(t0, ir.Get(sparcjit.GuestOffsetR(2), ir.TypeI64)),
		ir.WrTmp(t1, ir.Binop(ir.OpAdd64, ir.RdTmp(t0), ir.ConstU64(5))),
		ir.Put(sparcjit.GuestOffsetR(3), ir.RdTmp(t1)),
	)
	sb.Next, sb.JumpKind = ir.ConstU64(0x1004), ir.JumpBoring
	return sb
}

// jumpBack is a block at 0x1004 which jumps back to 0x1000.
func jumpBack() *ir.SB {
	sb := ir.NewSB(sparcjit.GuestOffsetPC)
	sb.Add(ir.IMark(0x1004, 4))
	sb.Next, sb.JumpKind = ir.ConstU64(0x1000), ir.JumpBoring
	return sb
}

// This is a basic example of translating two blocks which jump to each other. The exit of the first block is linked
// once its destination is translated.
func Example() {
	ctx := context.Background()

	t, err := sparcjit.NewTranslator(sparcjit.NewTranslatorConfig().WithStubs(stubs))
	if err != nil {
		log.Panicln(err)
	}

	a, err := t.Translate(ctx, addPut())
	if err != nil {
		log.Panicln(err)
	}
	fmt.Printf("guest %#x -> host %#x, %d bytes\n", a.GuestAddr(), a.HostAddr(), len(a.Code()))
	fmt.Printf("exit to %#x chained: %t\n", a.ChainSites()[0].Target, a.ChainSites()[0].Chained)

	if _, err = t.Translate(ctx, jumpBack()); err != nil {
		log.Panicln(err)
	}
	fmt.Printf("exit to %#x chained: %t\n", a.ChainSites()[0].Target, a.ChainSites()[0].Chained)

	// Output:
	// guest 0x1000 -> host 0x100000000, 100 bytes
	// exit to 0x1004 chained: false
	// exit to 0x1004 chained: true
}

// This is a basic example of using the file system compilation cache via sparcjit.NewCompilationCacheWithDir.
// The main goal is to show how it is configured.
func Example_compileCache() {
	// Prepare a cache directory.
	cacheDir, err := os.MkdirTemp("", "example")
	if err != nil {
		log.Panicln(err)
	}
	defer os.RemoveAll(cacheDir)

	cache, err := sparcjit.NewCompilationCacheWithDir(cacheDir)
	if err != nil {
		log.Panicln(err)
	}
	config := sparcjit.NewTranslatorConfig().WithStubs(stubs).WithCompilationCache(cache)

	// The first translator stores its code in the cache directory, the others load it from there.
	for i := 0; i < 3; i++ {
		fmt.Println(newTranslatorTranslate(config).FromCache())
	}

	// Output:
	// false
	// true
	// true
}

func newTranslatorTranslate(config sparcjit.TranslatorConfig) *sparcjit.CompiledBlock {
	t, err := sparcjit.NewTranslator(config)
	if err != nil {
		log.Panicln(err)
	}
	b, err := t.Translate(context.Background(), addPut())
	if err != nil {
		log.Panicln(err)
	}
	return b
}

// This is a basic example of loading the translator configuration from YAML with sparcjit.LoadTranslatorConfig.
func Example_loadTranslatorConfig() {
	config, err := sparcjit.LoadTranslatorConfig(strings.NewReader(`
hwcaps: [vis3]
code_base: 0x200000
stubs:
  chain_me_to_slow_ep: 0x10000
  chain_me_to_fast_ep: 0x10400
  xindir: 0x10800
  xassisted: 0x10c00
  load_guest_regs: 0x11000
  store_guest_regs: 0x11400
`))
	if err != nil {
		log.Panicln(err)
	}
	t, err := sparcjit.NewTranslator(config)
	if err != nil {
		log.Panicln(err)
	}
	b, err := t.Translate(context.Background(), addPut())
	if err != nil {
		log.Panicln(err)
	}
	fmt.Printf("%#x\n", b.HostAddr())

	// Output:
	// 0x200000
}
