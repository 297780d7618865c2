package sparcjit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sparcjit/sparcjit/internal/asm"
	"github.com/sparcjit/sparcjit/internal/codecache"
	"github.com/sparcjit/sparcjit/internal/compilationcache"
	"github.com/sparcjit/sparcjit/internal/engine/backend/isa/sparc64"
	"github.com/sparcjit/sparcjit/internal/log"
	"github.com/sparcjit/sparcjit/internal/version"
	"github.com/sparcjit/sparcjit/ir"
)

// ChainSite is a direct exit of a CompiledBlock.
type ChainSite struct {
	// Offset is the offset of the patchable load from the start of the block.
	Offset int
	// Target is the guest address the exit leads to.
	Target uint64
	// ToFastEP is true if the exit enters its destination after the event check.
	ToFastEP bool
	// Chained is true while the exit jumps directly into the block translated for Target.
	Chained bool
}

// CompiledBlock is a guest block translated into sparc64 machine code.
type CompiledBlock struct {
	b       *codecache.Block
	listing string
	cached  bool
}

// GuestAddr returns the guest address the block was translated from.
func (c *CompiledBlock) GuestAddr() uint64 { return c.b.GuestAddr }

// GuestLen returns the number of guest bytes the block covers.
func (c *CompiledBlock) GuestLen() uint64 { return c.b.GuestLen }

// HostAddr returns the host address the block is laid out at.
func (c *CompiledBlock) HostAddr() uint64 { return c.b.HostAddr }

// SlowEP returns the entry point of the block which runs the event check.
func (c *CompiledBlock) SlowEP() uint64 { return c.b.SlowEP() }

// FastEP returns the entry point of the block right after the event check.
func (c *CompiledBlock) FastEP() uint64 { return c.b.FastEP() }

// Code returns the machine code of the block. The Translator rewrites it in place when it links blocks, so the
// embedder copies it to HostAddr again after every Translate and Invalidate.
func (c *CompiledBlock) Code() []byte { return c.b.Code }

// ChainSites returns the direct exits of the block and whether they are currently linked.
func (c *CompiledBlock) ChainSites() []ChainSite {
	ret := make([]ChainSite, len(c.b.Sites))
	for k, s := range c.b.Sites {
		ret[k] = ChainSite{Offset: s.Offset, Target: s.Target, ToFastEP: s.ToFastEP, Chained: s.Chained}
	}
	return ret
}

// Listing returns the register-allocated instructions of the block, or an empty string if the block was loaded
// from a CompilationCache.
func (c *CompiledBlock) Listing() string { return c.listing }

// FromCache returns true if the block was loaded from a CompilationCache instead of translated.
func (c *CompiledBlock) FromCache() bool { return c.cached }

// Translator translates IR blocks into sparc64 machine code and keeps the translated blocks linked with each other.
//
// A Translator is safe for concurrent use, but translates one block at a time.
type Translator struct {
	mux     sync.Mutex
	config  *translatorConfig
	machine *sparc64.Machine
	seg     asm.CodeSegment
	blocks  *codecache.Cache
	// nextHostAddr is where the next block is laid out.
	nextHostAddr uint64
	version      string
}

// NewTranslator returns a Translator using the given configuration, or an error if the configuration is unusable.
func NewTranslator(config TranslatorConfig) (*Translator, error) {
	c, ok := config.(*translatorConfig)
	if !ok || c == nil {
		return nil, fmt.Errorf("unsupported TranslatorConfig implementation: %v", config)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid translator config: %w", err)
	}
	c = c.clone()
	return &Translator{
		config:       c,
		machine:      sparc64.NewMachine(c.machineConfig()),
		blocks:       codecache.New(c.stubs),
		nextHostAddr: c.codeBase,
		version:      version.GetVersion(),
	}, nil
}

// Translate translates sb into a CompiledBlock and links it with the blocks translated before. The guest address of
// the block is the address of its first instruction mark.
//
// An invalid block is reported as an error. A block the back end cannot translate, such as one using an
// instruction set extension the configuration lacks, panics.
func (t *Translator) Translate(ctx context.Context, sb *ir.SB) (*CompiledBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	guest, guestLen, err := guestRange(sb)
	if err != nil {
		return nil, err
	}

	t.mux.Lock()
	defer t.mux.Unlock()

	var key compilationcache.Key
	cache := t.compilationCache()
	if cache != nil {
		key = compilationcache.NewKey([]byte(t.version), t.config.fingerprint(), []byte(sb.String()))
		cb, err := t.getCachedBlock(cache, key)
		if err != nil {
			return nil, err
		}
		if cb != nil {
			log.Debug(log.Cache, "compilation cache hit", "guest", guest, "key", fmt.Sprintf("%x", key[:8]))
			return t.install(guest, cb, "", true), nil
		}
	}

	m := t.machine
	maxGA := guest
	if guestLen > 0 {
		maxGA = guest + guestLen - 1
	}
	if err = m.Select(sb, maxGA); err != nil {
		return nil, err
	}
	m.Allocate()
	t.seg.Reset()
	buf := t.seg.Next()
	m.Encode(buf)

	cb := &cachedBlock{
		guestLen: guestLen,
		code:     append([]byte(nil), buf.Bytes()...),
		sites:    append([]sparc64.ChainSite(nil), m.ChainSites()...),
	}
	if cache != nil {
		if err = cache.Add(key, serializeBlock(t.version, cb)); err != nil {
			return nil, fmt.Errorf("compilationcache: add: %w", err)
		}
	}
	return t.install(guest, cb, m.Format(), false), nil
}

func (t *Translator) compilationCache() compilationcache.Cache {
	if t.config.cache == nil {
		return nil
	}
	return t.config.cache.cache()
}

func (t *Translator) getCachedBlock(cache compilationcache.Cache, key compilationcache.Key) (*cachedBlock, error) {
	content, ok, err := cache.Get(key)
	if err != nil || !ok {
		return nil, err
	}
	cb, staleCache, err := deserializeBlock(t.version, content)
	if closeErr := content.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}
	if staleCache {
		// Written by another version: purge it and translate again.
		return nil, cache.Delete(key)
	}
	return cb, nil
}

// install lays out cb after the previously installed blocks and links it.
func (t *Translator) install(guest uint64, cb *cachedBlock, listing string, cached bool) *CompiledBlock {
	host := (t.nextHostAddr + 15) &^ 15
	t.nextHostAddr = host + uint64(len(cb.code))

	b := &codecache.Block{GuestAddr: guest, GuestLen: cb.guestLen, HostAddr: host, Code: cb.code}
	for _, s := range cb.sites {
		b.Sites = append(b.Sites, codecache.Site{ChainSite: s})
	}
	t.blocks.Insert(b)
	log.Info(log.Cache, "translated block", "guest", guest, "host", host, "size", len(cb.code), "cached", cached)
	return &CompiledBlock{b: b, listing: listing, cached: cached}
}

// Lookup returns the resident block translated for guest address addr.
func (t *Translator) Lookup(addr uint64) (*CompiledBlock, bool) {
	b, ok := t.blocks.Lookup(addr)
	if !ok {
		return nil, false
	}
	return &CompiledBlock{b: b}, true
}

// NumBlocks returns the number of resident blocks.
func (t *Translator) NumBlocks() int {
	return t.blocks.Len()
}

// Invalidate evicts every block covering a guest byte in [lo, hi), unlinking the exits leading to them, and returns
// the number of evicted blocks.
func (t *Translator) Invalidate(lo, hi uint64) int {
	t.mux.Lock()
	defer t.mux.Unlock()
	return len(t.blocks.Invalidate(lo, hi))
}

// guestRange returns the address of the first instruction mark of sb, and the number of guest bytes from there to
// the end of the furthest one.
func guestRange(sb *ir.SB) (addr, length uint64, err error) {
	if sb == nil {
		return 0, 0, errors.New("sparc64: nil block")
	}
	var end uint64
	found := false
	for _, s := range sb.Stmts {
		if s == nil || s.Kind != ir.StmtIMark {
			continue
		}
		if !found {
			addr, found = s.IMarkAddr, true
		}
		if e := s.IMarkAddr + uint64(s.IMarkLen); e > end {
			end = e
		}
	}
	if !found {
		return 0, 0, errors.New("block has no instruction mark")
	}
	return addr, end - addr, nil
}
