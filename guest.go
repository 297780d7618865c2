package sparcjit

import "github.com/sparcjit/sparcjit/internal/engine/jitapi"

// Guest state layout, as byte offsets from the guest state pointer. IR blocks address guest registers with these.
const (
	// GuestOffsetPC is the offset of the guest program counter, the one ir.NewSB is given.
	GuestOffsetPC = jitapi.OffsetPC
	// GuestOffsetNPC is the offset of the guest next program counter.
	GuestOffsetNPC = jitapi.OffsetNPC
	// GuestStateSize is the size of the guest state. The spill area lies after it.
	GuestStateSize = jitapi.GuestStateSize
)

// GuestOffsetR returns the offset of the guest integer register %rn, n < 32.
func GuestOffsetR(n int) int32 { return jitapi.OffsetR(n) }

// GuestOffsetF returns the offset of the guest single precision register %fn, n < 32.
func GuestOffsetF(n int) int32 { return jitapi.OffsetF(n) }

// GuestOffsetD returns the offset of the guest double precision register %dn, n even.
func GuestOffsetD(n int) int32 { return jitapi.OffsetD(n) }
