package sparc64

import (
	"fmt"
	"strings"

	"github.com/sparcjit/sparcjit/internal/asm"
	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
	"github.com/sparcjit/sparcjit/internal/engine/jitapi"
	"github.com/sparcjit/sparcjit/internal/log"
	"github.com/sparcjit/sparcjit/ir"
)

type (
	// Stubs are the host addresses of the dispatcher entry points translated code leaves through.
	Stubs struct {
		// ChainMeToSlowEP and ChainMeToFastEP are where an unchained direct exit goes. The dispatcher chains
		// the exit to the slow or fast entry point of the destination block accordingly.
		ChainMeToSlowEP, ChainMeToFastEP uint64
		// XIndir is where exits to a guest address computed at run time go.
		XIndir uint64
		// XAssisted is where exits needing the dispatcher's help go, with the reason in %g5.
		XAssisted uint64
		// LoadGuestRegs and StoreGuestRegs move the whole guest register file into and out of the host
		// registers around an unrecognized instruction.
		LoadGuestRegs, StoreGuestRegs uint64
	}

	// Config configures a Machine.
	Config struct {
		Hwcaps jitapi.Hwcaps
		// Chaining allows direct and indirect exits. Without it every exit is assisted.
		Chaining bool
		// ProfInc adds the profiling counter increment after the event check.
		ProfInc bool
		Stubs   Stubs
		// SpillArea is the part of the guest state spill slots are allocated in.
		SpillArea regalloc.SpillArea
	}

	// Machine translates one IR superblock at a time into sparc64 machine code. A Machine is not safe for
	// concurrent use, but independent Machines can translate in parallel.
	Machine struct {
		cfg       Config
		instrPool jitapi.Pool[instruction]
		instrs    []*instruction
		// regInstrs is the view of instrs handed to the register allocator.
		regInstrs []regalloc.Instr
		regAlloc  regalloc.Allocator
		allocated bool

		sb *ir.SB
		// vregs maps every temporary to its register. vregsHi holds the high half of 128-bit temporaries.
		vregs, vregsHi []regalloc.VReg
		nextVRegID     regalloc.VRegID
		// maxGA is the highest guest address of the block.
		maxGA uint64
		// prevRM is the rounding mode expression last written into %fsr.
		prevRM *ir.Expr

		chainSites []ChainSite
	}
)

// NewMachine returns a new Machine.
func NewMachine(cfg Config) *Machine {
	if cfg.SpillArea.Size == 0 {
		cfg.SpillArea = regalloc.SpillArea{Offset: jitapi.DefaultSpillAreaOffset, Size: jitapi.DefaultSpillAreaSize}
	}
	m := &Machine{
		cfg:       cfg,
		instrPool: jitapi.NewPool[instruction](resetInstruction),
		regAlloc:  regalloc.NewAllocator(GetUniverse().RegisterInfo(), cfg.SpillArea),
	}
	m.Reset()
	return m
}

func resetInstruction(i *instruction) {
	*i = instruction{}
}

// Reset prepares the machine for the next block.
func (m *Machine) Reset() {
	m.instrPool.Reset()
	m.instrs = m.instrs[:0]
	m.regInstrs = m.regInstrs[:0]
	m.allocated = false
	m.sb = nil
	m.vregs = m.vregs[:0]
	m.vregsHi = m.vregsHi[:0]
	m.nextVRegID = regalloc.VRegIDNonReservedBegin
	m.maxGA = 0
	m.prevRM = nil
	m.chainSites = m.chainSites[:0]
}

// Config returns the configuration of m.
func (m *Machine) Config() Config { return m.cfg }

func (m *Machine) allocateInstr() *instruction {
	return m.instrPool.Allocate()
}

func (m *Machine) insert(i *instruction) {
	m.instrs = append(m.instrs, i)
}

// newVReg returns a fresh virtual register of class typ.
func (m *Machine) newVReg(typ regalloc.RegType) regalloc.VReg {
	v := regalloc.VReg(m.nextVRegID).SetRegType(typ)
	m.nextVRegID++
	return v
}

// NumVRegs returns the number of virtual registers the selected code uses.
func (m *Machine) NumVRegs() int {
	return int(m.nextVRegID - regalloc.VRegIDNonReservedBegin)
}

func (m *Machine) requireHwcaps(c jitapi.Hwcaps, what string) {
	if !m.cfg.Hwcaps.Has(c) {
		panic(fmt.Sprintf("sparc64: %s requires %s, host has %s", what, c, m.cfg.Hwcaps))
	}
}

// Instructions implements regalloc.Function.
func (m *Machine) Instructions() []regalloc.Instr {
	m.regInstrs = m.regInstrs[:0]
	for _, i := range m.instrs {
		m.regInstrs = append(m.regInstrs, i)
	}
	return m.regInstrs
}

// SetInstructions implements regalloc.Function.
func (m *Machine) SetInstructions(instrs []regalloc.Instr) {
	m.instrs = m.instrs[:0]
	for _, i := range instrs {
		m.instrs = append(m.instrs, i.(*instruction))
	}
}

// GenSpill implements regalloc.Function.
func (m *Machine) GenSpill(r regalloc.VReg, offset int32) regalloc.Instr {
	return m.allocateInstr().asStore(spillSize(r.RegType()), r, guestAMode(offset), asiOperand{})
}

// GenReload implements regalloc.Function.
func (m *Machine) GenReload(r regalloc.VReg, offset int32) regalloc.Instr {
	return m.allocateInstr().asLoad(spillSize(r.RegType()), r, guestAMode(offset), asiOperand{})
}

// spillSize returns the size of the spill slot of a register class.
func spillSize(typ regalloc.RegType) byte {
	switch typ {
	case regalloc.RegTypeInt:
		return 8
	case regalloc.RegTypeF32:
		return 4
	case regalloc.RegTypeF64:
		return 8
	case regalloc.RegTypeF128:
		return 16
	}
	panic(fmt.Sprintf("BUG: no spill slot for %s", typ))
}

// Allocate assigns a real register to every virtual register of the selected code, inserting spills and reloads.
func (m *Machine) Allocate() {
	if m.allocated {
		panic("BUG: registers already allocated")
	}
	m.regAlloc.DoAllocation(m)
	m.allocated = true
	if log.Enabled(log.Regalloc) {
		spills, reloads := m.regAlloc.Stats()
		log.Trace(log.Regalloc, "allocated", "spills", spills, "reloads", reloads, "code", m.Format())
	}
}

// Encode writes the machine code of the allocated block to buf and returns its size. The chain sites of the block
// are available from ChainSites afterwards.
func (m *Machine) Encode(buf asm.Buffer) int {
	if !m.allocated {
		panic("BUG: encoding before register allocation")
	}
	start := buf.Len()
	for _, i := range m.instrs {
		at := buf.Len()
		n := i.encode(buf, &m.cfg.Stubs)
		if i.kind == xDirect && i.cond != condN {
			off := at - start + xDirectSiteOffset
			if i.cond != condA {
				off += 8
			}
			m.chainSites = append(m.chainSites, ChainSite{Offset: off, Target: i.u1, ToFastEP: i.b1})
		}
		if log.Enabled(log.Emit) {
			log.Trace(log.Emit, i.String(), "offset", at-start, "bytes", fmt.Sprintf("%x", buf.Bytes()[at:at+n]))
		}
	}
	return buf.Len() - start
}

// ChainSites returns the direct exits of the last encoded block.
func (m *Machine) ChainSites() []ChainSite {
	return m.chainSites
}

// Format returns the listing of the selected instructions.
func (m *Machine) Format() string {
	var lines []string
	for _, i := range m.instrs {
		if i.kind == nop0 {
			continue
		}
		lines = append(lines, "\t"+i.String())
	}
	return "\n" + strings.Join(lines, "\n") + "\n"
}
