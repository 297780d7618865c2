package sparc64

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
)

// Real registers are numbered by their position in the register universe, plus one, so that
// the zero value stays regalloc.RealRegInvalid. The allocatable registers come first, grouped by class.
const (
	l0 regalloc.RealReg = iota + 1
	l1
	l2
	l3
	l4
	l5
	l6
	l7
	i0
	i1
	i2
	i3
	i4
	i5
	o0
	o1
	o2
	o3
	o4
	o5
	f0
	f1
	f2
	f3
	f4
	f5
	f6
	f7
	d8
	d10
	d12
	d14
	d16
	d18
	d20
	d22
	q24
	q28
	q32
	q36
	q40
	q44
	q48
	q52

	// Reserved registers. Never handed out by the allocator.
	g0
	g1
	g2
	g3
	g4
	g5
	g6
	g7
	o6
	o7
	i6
	i7
	pc

	numRealRegs
)

// numAllocatable is the length of the allocatable prefix of the universe.
const numAllocatable = int(g0 - 1)

// encNone is the encoding of registers which cannot appear in an instruction field.
const encNone = 0xFF

// regSpec is the static description of one real register.
type regSpec struct {
	name string
	// enc is the register number as the hardware sees it. For floating point registers
	// this is the architectural number, which must still be folded into five bits, see fregNo.
	enc byte
	typ regalloc.RegType
}

var regSpecs = [numRealRegs]regSpec{
	l0: {"%l0", 16, regalloc.RegTypeInt}, l1: {"%l1", 17, regalloc.RegTypeInt},
	l2: {"%l2", 18, regalloc.RegTypeInt}, l3: {"%l3", 19, regalloc.RegTypeInt},
	l4: {"%l4", 20, regalloc.RegTypeInt}, l5: {"%l5", 21, regalloc.RegTypeInt},
	l6: {"%l6", 22, regalloc.RegTypeInt}, l7: {"%l7", 23, regalloc.RegTypeInt},
	i0: {"%i0", 24, regalloc.RegTypeInt}, i1: {"%i1", 25, regalloc.RegTypeInt},
	i2: {"%i2", 26, regalloc.RegTypeInt}, i3: {"%i3", 27, regalloc.RegTypeInt},
	i4: {"%i4", 28, regalloc.RegTypeInt}, i5: {"%i5", 29, regalloc.RegTypeInt},
	o0: {"%o0", 8, regalloc.RegTypeInt}, o1: {"%o1", 9, regalloc.RegTypeInt},
	o2: {"%o2", 10, regalloc.RegTypeInt}, o3: {"%o3", 11, regalloc.RegTypeInt},
	o4: {"%o4", 12, regalloc.RegTypeInt}, o5: {"%o5", 13, regalloc.RegTypeInt},

	f0: {"%f0", 0, regalloc.RegTypeF32}, f1: {"%f1", 1, regalloc.RegTypeF32},
	f2: {"%f2", 2, regalloc.RegTypeF32}, f3: {"%f3", 3, regalloc.RegTypeF32},
	f4: {"%f4", 4, regalloc.RegTypeF32}, f5: {"%f5", 5, regalloc.RegTypeF32},
	f6: {"%f6", 6, regalloc.RegTypeF32}, f7: {"%f7", 7, regalloc.RegTypeF32},

	d8: {"%d8", 8, regalloc.RegTypeF64}, d10: {"%d10", 10, regalloc.RegTypeF64},
	d12: {"%d12", 12, regalloc.RegTypeF64}, d14: {"%d14", 14, regalloc.RegTypeF64},
	d16: {"%d16", 16, regalloc.RegTypeF64}, d18: {"%d18", 18, regalloc.RegTypeF64},
	d20: {"%d20", 20, regalloc.RegTypeF64}, d22: {"%d22", 22, regalloc.RegTypeF64},

	q24: {"%q24", 24, regalloc.RegTypeF128}, q28: {"%q28", 28, regalloc.RegTypeF128},
	q32: {"%q32", 32, regalloc.RegTypeF128}, q36: {"%q36", 36, regalloc.RegTypeF128},
	q40: {"%q40", 40, regalloc.RegTypeF128}, q44: {"%q44", 44, regalloc.RegTypeF128},
	q48: {"%q48", 48, regalloc.RegTypeF128}, q52: {"%q52", 52, regalloc.RegTypeF128},

	g0: {"%g0", 0, regalloc.RegTypeInt}, g1: {"%g1", 1, regalloc.RegTypeInt},
	g2: {"%g2", 2, regalloc.RegTypeInt}, g3: {"%g3", 3, regalloc.RegTypeInt},
	g4: {"%g4", 4, regalloc.RegTypeInt}, g5: {"%g5", 5, regalloc.RegTypeInt},
	g6: {"%g6", 6, regalloc.RegTypeInt}, g7: {"%g7", 7, regalloc.RegTypeInt},
	o6: {"%o6", 14, regalloc.RegTypeInt}, o7: {"%o7", 15, regalloc.RegTypeInt},
	i6: {"%i6", 30, regalloc.RegTypeInt}, i7: {"%i7", 31, regalloc.RegTypeInt},
	// The program counter is only readable through rd, never as an operand.
	pc: {"%pc", encNone, regalloc.RegTypeInt},
}

// Pre-colored VRegs used by the selector and the encoder.
var (
	g0VReg = regalloc.FromRealReg(g0, regalloc.RegTypeInt)
	g1VReg = regalloc.FromRealReg(g1, regalloc.RegTypeInt)
	g4VReg = regalloc.FromRealReg(g4, regalloc.RegTypeInt)
	g5VReg = regalloc.FromRealReg(g5, regalloc.RegTypeInt)
	g7VReg = regalloc.FromRealReg(g7, regalloc.RegTypeInt)
	o0VReg = regalloc.FromRealReg(o0, regalloc.RegTypeInt)
	o1VReg = regalloc.FromRealReg(o1, regalloc.RegTypeInt)
	o7VReg = regalloc.FromRealReg(o7, regalloc.RegTypeInt)

	// gsPtrVReg holds the guest state pointer for the whole lifetime of the translated code.
	gsPtrVReg = g5VReg
)

// argRegs are the registers carrying helper call arguments, in order.
var argRegs = [maxHelperArgs]regalloc.RealReg{o0, o1, o2, o3, o4, o5}

// callClobbered are the registers a helper call may trash: the register window is rotated by the callee.
var callClobbered = []regalloc.RealReg{
	o0, o1, o2, o3, o4, o5, o6, o7,
	i0, i1, i2, i3, i4, i5, i6, i7,
	l0, l1, l2, l3, l4, l5, l6, l7,
}

func realRegVReg(r regalloc.RealReg) regalloc.VReg {
	return regalloc.FromRealReg(r, regSpecs[r].typ)
}

// Universe is the ordered catalogue of the host's real registers. The first Allocatable entries may be
// handed out by the register allocator, the remaining ones are reserved.
type Universe struct {
	regs        []regalloc.RealReg
	allocatable int
	info        regalloc.RegisterInfo
}

var (
	universeOnce sync.Once
	universe     *Universe
)

// GetUniverse returns the register universe. It is built and validated once, and is safe for concurrent use.
func GetUniverse() *Universe {
	universeOnce.Do(func() {
		u := newUniverse()
		if err := u.validate(); err != nil {
			panic("BUG: " + err.Error())
		}
		universe = u
	})
	return universe
}

func newUniverse() *Universe {
	u := &Universe{allocatable: numAllocatable}
	for r := l0; r < numRealRegs; r++ {
		u.regs = append(u.regs, r)
	}
	for _, r := range u.regs[:u.allocatable] {
		typ := regSpecs[r].typ
		u.info.AllocatableRegisters[typ] = append(u.info.AllocatableRegisters[typ], r)
	}
	u.info.RealRegName = RegName
	return u
}

// validate checks that the universe is well-formed: every register sits at its own index, the allocatable prefix
// is grouped by class, and no two allocatable registers of a class share a hardware encoding.
func (u *Universe) validate() error {
	if u.allocatable > len(u.regs) {
		return fmt.Errorf("allocatable %d exceeds universe size %d", u.allocatable, len(u.regs))
	}
	for i, r := range u.regs {
		if int(r) != i+1 {
			return fmt.Errorf("%s is at index %d", RegName(r), i)
		}
	}
	var prev regalloc.RegType
	seenClass := map[regalloc.RegType]bool{}
	seenEnc := map[[2]byte]regalloc.RealReg{}
	for _, r := range u.regs[:u.allocatable] {
		spec := regSpecs[r]
		if spec.typ != prev {
			if seenClass[spec.typ] {
				return fmt.Errorf("allocatable %s registers are not contiguous at %s", spec.typ, spec.name)
			}
			seenClass[spec.typ] = true
			prev = spec.typ
		}
		key := [2]byte{0, spec.enc}
		if spec.typ.IsFloat() {
			key[0] = 1
		}
		if other, ok := seenEnc[key]; ok {
			return fmt.Errorf("%s and %s share encoding %d", RegName(other), spec.name, spec.enc)
		}
		seenEnc[key] = r
	}
	return nil
}

// Len returns the number of registers in the universe.
func (u *Universe) Len() int { return len(u.regs) }

// Allocatable returns the number of registers available to the allocator.
func (u *Universe) Allocatable() int { return u.allocatable }

// Regs returns the registers in universe order.
func (u *Universe) Regs() []regalloc.RealReg { return u.regs }

// RegisterInfo returns the allocator's view of the universe.
func (u *Universe) RegisterInfo() *regalloc.RegisterInfo { return &u.info }

// String implements fmt.Stringer.
func (u *Universe) String() string {
	var b strings.Builder
	for i, r := range u.regs {
		if i == u.allocatable {
			b.WriteString("| ")
		}
		b.WriteString(RegName(r))
		b.WriteByte(' ')
	}
	return strings.TrimSpace(b.String())
}

// RegName returns the assembler name of r.
func RegName(r regalloc.RealReg) string {
	if r == regalloc.RealRegInvalid || r >= numRealRegs {
		return fmt.Sprintf("invalid(%d)", r)
	}
	return regSpecs[r].name
}

// RegEncoding returns the hardware register number of r.
func RegEncoding(r regalloc.RealReg) byte {
	return regSpecs[r].enc
}

// RegClass returns the register class of r.
func RegClass(r regalloc.RealReg) regalloc.RegType {
	return regSpecs[r].typ
}

// formatVReg returns the name of v: the register name once allocated, otherwise the virtual id and class.
func formatVReg(v regalloc.VReg) string {
	if v.IsRealReg() {
		return RegName(v.RealReg())
	}
	return fmt.Sprintf("v%d?%s", v.ID(), v.RegType())
}

// iregNo returns the five bit encoding of an allocated integer register.
func iregNo(v regalloc.VReg) uint32 {
	if v.RegType() != regalloc.RegTypeInt {
		panic(fmt.Sprintf("BUG: %s is not an integer register", formatVReg(v)))
	}
	if !v.IsRealReg() {
		panic(fmt.Sprintf("BUG: %s is not allocated", formatVReg(v)))
	}
	n := uint32(regSpecs[v.RealReg()].enc)
	if n > 31 {
		panic(fmt.Sprintf("BUG: %s cannot be encoded as an integer register", formatVReg(v)))
	}
	return n
}

// fregNo returns the number of an allocated floating point register. With encode, the number is folded
// into the five bit field: bit 5 of the double and quad register numbers moves into bit 0.
func fregNo(v regalloc.VReg, encode bool) uint32 {
	if !v.RegType().IsFloat() {
		panic(fmt.Sprintf("BUG: %s is not a floating point register", formatVReg(v)))
	}
	if !v.IsRealReg() {
		panic(fmt.Sprintf("BUG: %s is not allocated", formatVReg(v)))
	}
	n := uint32(regSpecs[v.RealReg()].enc)
	if encode && n&0x20 != 0 {
		n = n&^0x20 | 1
	}
	return n
}
