package jitapi

// Byte offsets into the guest state the translated code addresses relative to the guest state pointer.
const (
	OffsetEvCFailAddr = 0
	OffsetEvCCounter  = 8

	// OffsetR0 is the first of the 32 integer registers, 8 bytes each.
	OffsetR0 = 16
	// OffsetF0 is the first of the 32 single precision registers, 4 bytes each.
	OffsetF0 = 272
	// OffsetD32 is the first of the 16 upper double precision registers, 8 bytes each.
	OffsetD32 = 400

	OffsetPC       = 528
	OffsetNPC      = 536
	OffsetY        = 544
	OffsetASI      = 552
	OffsetFPRS     = 560
	OffsetGSRAlign = 568
	OffsetGSRMask  = 572
	OffsetCMStart  = 576
	OffsetCMLen    = 584

	OffsetCCOp   = 592
	OffsetCCDep1 = 600
	OffsetCCDep2 = 608
	OffsetCCNdep = 616

	OffsetFSRRD  = 624
	OffsetFSRFCC = 632

	OffsetNRAddr = 688
	OffsetEmNote = 696

	// OffsetScratchpad is an 8-byte slot the translated code uses to move values between
	// the floating point state register and the integer registers.
	OffsetScratchpad = 704
	OffsetHostFP     = 712
	OffsetHostSP     = 720
	// OffsetHostO7 keeps the host return address across the guest state trampoline.
	OffsetHostO7 = 728

	// GuestStateSize is the size of the guest state, rounded to 16 bytes.
	GuestStateSize = 736

	// DefaultSpillAreaOffset is where the spill slots start unless configured otherwise.
	DefaultSpillAreaOffset = 1024
	// DefaultSpillAreaSize keeps every slot addressable with a 13-bit signed displacement.
	DefaultSpillAreaSize = 4096 - 16 - DefaultSpillAreaOffset
)

// OffsetR returns the guest state offset of the integer register %rn.
func OffsetR(n int) int32 {
	return int32(OffsetR0 + 8*n)
}

// OffsetF returns the guest state offset of the single precision register %fn, n < 32.
func OffsetF(n int) int32 {
	return int32(OffsetF0 + 4*n)
}

// OffsetD returns the guest state offset of the double precision register %dn, n even.
func OffsetD(n int) int32 {
	if n < 32 {
		return OffsetF(n)
	}
	return int32(OffsetD32 + 8*((n-32)/2))
}
