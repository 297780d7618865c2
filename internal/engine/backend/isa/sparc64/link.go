package sparc64

import (
	"encoding/binary"
	"fmt"
)

// EvCheckSize is the size in bytes of the event check every block starts with. The fast entry point of a block
// is right after it.
const EvCheckSize = 7 * 4

// ChainPatchSize is the number of bytes Chain and Unchain rewrite.
const ChainPatchSize = loadImmWordLen * 4

// xDirectSiteOffset is where the patchable stub load starts within an unconditional direct exit: after the
// wide-immediate load of the destination and the store of the guest program counter.
const xDirectSiteOffset = (loadImmWordLen + 1) * 4

// ChainSite is a direct exit which can be linked to the block translated for Target once it exists.
type ChainSite struct {
	// Offset is the offset of the patchable load from the start of the block.
	Offset int
	// Target is the guest address the exit leads to.
	Target uint64
	// ToFastEP is true if the exit was emitted to enter the destination after its event check.
	ToFastEP bool
}

// Chain makes the direct exit at site jump to the host address to instead of the dispatcher stub expected, and
// returns the rewritten bytes. site must start at a ChainSite offset.
//
// The caller must guarantee the rewritten code is not being executed while it is patched, and flush the
// instruction cache of the returned range afterwards.
func Chain(site []byte, expected, to uint64) []byte {
	return relink(site, expected, to, "chain")
}

// Unchain is the inverse of Chain: it restores the jump of site from the block address expected to the
// dispatcher stub to.
func Unchain(site []byte, expected, to uint64) []byte {
	return relink(site, expected, to, "unchain")
}

func relink(site []byte, expected, to uint64, what string) []byte {
	if len(site) < ChainPatchSize {
		panic(fmt.Sprintf("sparc64: %s site is %d bytes long, want %d", what, len(site), ChainPatchSize))
	}
	site = site[:ChainPatchSize]
	for k, w := range loadImmWords(g1No, g4No, expected) {
		if got := binary.BigEndian.Uint32(site[4*k:]); got != w {
			panic(fmt.Sprintf("sparc64: %s site word %d is %#08x, want %#08x loading %#x", what, k, got, w, expected))
		}
	}
	for k, w := range loadImmWords(g1No, g4No, to) {
		binary.BigEndian.PutUint32(site[4*k:], w)
	}
	return site
}

// PatchProfInc would point the profiling counter increment at site to counter. The increment is never emitted,
// so there is nothing to patch.
func PatchProfInc(site []byte, counter uint64) []byte {
	panic("sparc64: profile counter patching is not implemented")
}
