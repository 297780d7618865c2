package regalloc

import "fmt"

// These interfaces are implemented by ISA-specific backends to abstract away the details, and allow the register
// allocator to work on any ISA.

type (
	// Function is the unit of register allocation: one straight-line sequence of instructions
	// together with the ISA hooks needed to move values between registers and spill slots.
	Function interface {
		// Instructions returns the instructions to allocate, in program order.
		Instructions() []Instr
		// SetInstructions replaces the instructions with the allocated ones, including
		// inserted spills and reloads.
		SetInstructions([]Instr)
		// GenSpill returns an instruction storing the real register r into the spill slot at offset.
		GenSpill(r VReg, offset int32) Instr
		// GenReload returns an instruction loading the spill slot at offset into the real register r.
		GenReload(r VReg, offset int32) Instr
	}

	// Instr is an instruction, abstracting away the underlying ISA.
	Instr interface {
		fmt.Stringer

		// RegUsage reports every register the instruction reads, writes or modifies,
		// including the implicit ones.
		RegUsage(u *RegUsage)
		// MapRegs rewrites every virtual register operand through f.
		MapRegs(f func(VReg) VReg)
		// IsMove returns the operands if the instruction is a register to register copy of the form dst = src.
		// If the src and dst do not interfere with each other, the copy can be eliminated.
		IsMove() (dst, src VReg, ok bool)
	}
)

// UseMode tells how an instruction uses a register.
type UseMode byte

const (
	UseRead UseMode = 1 << iota
	UseWrite
	// UseModify reads and then writes the register.
	UseModify = UseRead | UseWrite
)

// String implements fmt.Stringer.
func (m UseMode) String() string {
	switch m {
	case UseRead:
		return "read"
	case UseWrite:
		return "write"
	case UseModify:
		return "modify"
	}
	return "invalid"
}

// RegUse is one entry of RegUsage.
type RegUse struct {
	Reg  VReg
	Mode UseMode
}

// RegUsage collects the register usage of one instruction.
// The same register may be added several times; the modes are merged.
type RegUsage struct {
	uses []RegUse
}

// Reset clears the usage so that it can be reused for another instruction.
func (u *RegUsage) Reset() {
	u.uses = u.uses[:0]
}

// Add records that v is used with the given mode.
func (u *RegUsage) Add(v VReg, m UseMode) {
	for i := range u.uses {
		if u.uses[i].Reg == v {
			u.uses[i].Mode |= m
			return
		}
	}
	u.uses = append(u.uses, RegUse{Reg: v, Mode: m})
}

// Read is equivalent to Add(v, UseRead).
func (u *RegUsage) Read(v VReg) { u.Add(v, UseRead) }

// Write is equivalent to Add(v, UseWrite).
func (u *RegUsage) Write(v VReg) { u.Add(v, UseWrite) }

// Modify is equivalent to Add(v, UseModify).
func (u *RegUsage) Modify(v VReg) { u.Add(v, UseModify) }

// Uses returns the collected entries. The slice is reused by Reset.
func (u *RegUsage) Uses() []RegUse {
	return u.uses
}

// Mode returns how v is used, or zero when v is not used at all.
func (u *RegUsage) Mode(v VReg) UseMode {
	for _, e := range u.uses {
		if e.Reg == v {
			return e.Mode
		}
	}
	return 0
}

// String implements fmt.Stringer.
func (u *RegUsage) String() string {
	s := "{"
	for i, e := range u.uses {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s:%s", e.Reg, e.Mode)
	}
	return s + "}"
}
