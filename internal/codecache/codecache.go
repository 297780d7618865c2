// Package codecache indexes translated blocks by guest address and keeps their direct exits linked: a direct exit
// whose destination is resident jumps straight into it, and is returned to the dispatcher when the destination
// goes away.
package codecache

import (
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/sparcjit/sparcjit/internal/engine/backend/isa/sparc64"
	"github.com/sparcjit/sparcjit/internal/log"
)

// Block is a translated block resident in the code segment.
type Block struct {
	// GuestAddr is the guest address the block was translated from, and GuestLen the number of guest bytes it
	// covers.
	GuestAddr, GuestLen uint64
	// HostAddr is the host address of the first byte of Code.
	HostAddr uint64
	// Code is the machine code of the block. Linking rewrites it in place.
	Code []byte
	// Sites are the direct exits of the block.
	Sites []Site
}

// Site is a direct exit of a Block.
type Site struct {
	sparc64.ChainSite
	// Chained is true while the exit jumps directly into its destination.
	Chained bool
}

// SlowEP returns the host address of the slow entry point of b, which runs the event check.
func (b *Block) SlowEP() uint64 { return b.HostAddr }

// FastEP returns the host address of the fast entry point of b, right after the event check.
func (b *Block) FastEP() uint64 { return b.HostAddr + sparc64.EvCheckSize }

func (b *Block) entry(toFastEP bool) uint64 {
	if toFastEP {
		return b.FastEP()
	}
	return b.SlowEP()
}

// siteRef names the site idx of block.
type siteRef struct {
	block *Block
	idx   int
}

// Cache is the set of resident blocks. Cache is safe for concurrent use.
type Cache struct {
	mux   sync.Mutex
	stubs sparc64.Stubs
	tree  *btree.BTreeG[*Block]
	// incoming lists the sites leading to each guest address, chained or not.
	incoming map[uint64][]siteRef
	// maxGuestLen bounds the guest length of every block, so that overlap queries only look back that far.
	maxGuestLen uint64
}

// New returns an empty Cache. stubs are the dispatcher entry points the direct exits were emitted with.
func New(stubs sparc64.Stubs) *Cache {
	return &Cache{
		stubs: stubs,
		tree: btree.NewG[*Block](8, func(a, b *Block) bool {
			return a.GuestAddr < b.GuestAddr
		}),
		incoming: map[uint64][]siteRef{},
	}
}

func (c *Cache) stub(toFastEP bool) uint64 {
	if toFastEP {
		return c.stubs.ChainMeToFastEP
	}
	return c.stubs.ChainMeToSlowEP
}

// Len returns the number of resident blocks.
func (c *Cache) Len() int {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.tree.Len()
}

// Lookup returns the block translated for guest address addr.
func (c *Cache) Lookup(addr uint64) (*Block, bool) {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.tree.Get(&Block{GuestAddr: addr})
}

// Ascend calls fn for every resident block in guest address order until fn returns false.
func (c *Cache) Ascend(fn func(b *Block) bool) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.tree.Ascend(fn)
}

// Insert makes b resident, replacing any block previously translated for the same guest address. The direct exits
// of b leading to resident blocks are chained, as are the exits of resident blocks leading to b.
func (c *Cache) Insert(b *Block) {
	for _, s := range b.Sites {
		if s.Chained {
			panic(fmt.Sprintf("BUG: inserting block %#x with a chained exit to %#x", b.GuestAddr, s.Target))
		}
		if s.Offset < 0 || s.Offset+sparc64.ChainPatchSize > len(b.Code) {
			panic(fmt.Sprintf("BUG: exit of block %#x at %d lies outside of its %d bytes", b.GuestAddr, s.Offset, len(b.Code)))
		}
	}

	c.mux.Lock()
	defer c.mux.Unlock()

	if old, ok := c.tree.Get(b); ok {
		c.remove(old)
	}
	c.tree.ReplaceOrInsert(b)
	if b.GuestLen > c.maxGuestLen {
		c.maxGuestLen = b.GuestLen
	}
	log.Debug(log.Cache, "inserted block", "guest", b.GuestAddr, "host", b.HostAddr, "size", len(b.Code))

	for idx := range b.Sites {
		target := b.Sites[idx].Target
		c.incoming[target] = append(c.incoming[target], siteRef{block: b, idx: idx})
		if dst, ok := c.tree.Get(&Block{GuestAddr: target}); ok {
			c.chain(siteRef{block: b, idx: idx}, dst)
		}
	}
	for _, ref := range c.incoming[b.GuestAddr] {
		if !ref.block.Sites[ref.idx].Chained {
			c.chain(ref, b)
		}
	}
}

// Remove evicts the block translated for guest address addr, if any, and reports whether there was one.
func (c *Cache) Remove(addr uint64) bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	b, ok := c.tree.Get(&Block{GuestAddr: addr})
	if ok {
		c.remove(b)
	}
	return ok
}

// Invalidate evicts every block covering a guest byte in [lo, hi) and returns them in guest address order.
func (c *Cache) Invalidate(lo, hi uint64) []*Block {
	c.mux.Lock()
	defer c.mux.Unlock()

	var from uint64
	if lo > c.maxGuestLen {
		from = lo - c.maxGuestLen
	}
	var evicted []*Block
	c.tree.AscendRange(&Block{GuestAddr: from}, &Block{GuestAddr: hi}, func(b *Block) bool {
		if b.GuestAddr+b.GuestLen > lo || b.GuestAddr >= lo {
			evicted = append(evicted, b)
		}
		return true
	})
	for _, b := range evicted {
		c.remove(b)
	}
	if len(evicted) > 0 {
		log.Debug(log.Cache, "invalidated", "lo", lo, "hi", hi, "blocks", len(evicted))
	}
	return evicted
}

// remove evicts b: the exits leading to it go back to the dispatcher, and its own exits are forgotten.
func (c *Cache) remove(b *Block) {
	c.tree.Delete(b)
	for _, ref := range c.incoming[b.GuestAddr] {
		if ref.block.Sites[ref.idx].Chained {
			c.unchain(ref, b)
		}
	}
	for idx := range b.Sites {
		target := b.Sites[idx].Target
		refs := c.incoming[target]
		for k := 0; k < len(refs); k++ {
			if refs[k].block == b {
				refs = append(refs[:k], refs[k+1:]...)
				k--
			}
		}
		if len(refs) == 0 {
			delete(c.incoming, target)
		} else {
			c.incoming[target] = refs
		}
	}
	log.Debug(log.Cache, "removed block", "guest", b.GuestAddr)
}

func (c *Cache) chain(ref siteRef, dst *Block) {
	s := &ref.block.Sites[ref.idx]
	to := dst.entry(s.ToFastEP)
	sparc64.Chain(ref.block.Code[s.Offset:], c.stub(s.ToFastEP), to)
	s.Chained = true
	log.Trace(log.Link, "chained", "from", ref.block.GuestAddr, "site", s.Offset, "to", dst.GuestAddr, "host", to)
}

func (c *Cache) unchain(ref siteRef, dst *Block) {
	s := &ref.block.Sites[ref.idx]
	sparc64.Unchain(ref.block.Code[s.Offset:], dst.entry(s.ToFastEP), c.stub(s.ToFastEP))
	s.Chained = false
	log.Trace(log.Link, "unchained", "from", ref.block.GuestAddr, "site", s.Offset, "to", dst.GuestAddr)
}
