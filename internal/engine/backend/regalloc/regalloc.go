// Package regalloc performs register allocation. The algorithm can work on any ISA by implementing the interfaces in
// api.go.
//
// The allocator assumes the Function is a single straight-line block with one entry at its first instruction.
// Control may leave it early through side exits, but nothing branches into its middle and there are no join
// points. It walks the instructions once, forwards, evicting the value with the furthest next use.
package regalloc

import (
	"fmt"
	"math"
	"strings"
)

type (
	// RegisterInfo holds the statically-known ISA-specific register information.
	RegisterInfo struct {
		// AllocatableRegisters is a 2D array of allocatable RealReg, indexed by RegType.
		// The order matters: the first element is the most preferred one when allocating.
		AllocatableRegisters [NumRegType][]RealReg
		// RealRegName returns the name of the given RealReg for debugging.
		RealRegName func(r RealReg) string
	}

	// SpillArea is the window of the translation's private state that holds spill slots,
	// given as a byte offset from the state pointer and a size in bytes.
	SpillArea struct {
		Offset, Size int32
	}

	// Allocator is a register allocator.
	Allocator struct {
		regInfo *RegisterInfo
		area    SpillArea
		fn      Function

		usage    RegUsage
		vrStates map[VRegID]*vrState
		inUse    regInUseSet
		nextSlot int32
		spills   int
		reloads  int
	}

	// vrState is the allocation state of one virtual register.
	vrState struct {
		v VReg
		// r is the register currently holding v, or RealRegInvalid.
		r RealReg
		// uses and modes are the instruction indexes mentioning v and how they use it.
		uses  []int
		modes []UseMode
		// next indexes the first entry of uses which has not been processed yet.
		next int
		// slot is the spill slot offset, or -1 when v was never spilled.
		slot int32
		// slotValid is true when the spill slot holds the current value of v.
		slotValid bool
	}
)

// NewAllocator returns a new Allocator.
func NewAllocator(regInfo *RegisterInfo, area SpillArea) Allocator {
	return Allocator{regInfo: regInfo, area: area, vrStates: map[VRegID]*vrState{}}
}

// Reset prepares the allocator for the next function.
func (a *Allocator) Reset() {
	for k := range a.vrStates {
		delete(a.vrStates, k)
	}
	a.inUse.reset()
	a.usage.Reset()
	a.nextSlot = a.area.Offset
	a.spills, a.reloads = 0, 0
}

// Stats returns the number of spills and reloads inserted by the last DoAllocation.
func (a *Allocator) Stats() (spills, reloads int) {
	return a.spills, a.reloads
}

func (a *Allocator) state(v VReg) *vrState {
	st, ok := a.vrStates[v.ID()]
	if !ok {
		st = &vrState{v: v, slot: -1}
		a.vrStates[v.ID()] = st
	}
	return st
}

// DoAllocation performs register allocation on the given Function.
func (a *Allocator) DoAllocation(f Function) {
	a.Reset()
	a.fn = f
	defer func() { a.fn = nil }()
	instrs := f.Instructions()
	n := len(instrs)

	usages := make([][]RegUse, n)
	realReads := make([]RegSet, n)
	realWrites := make([]RegSet, n)
	for i, instr := range instrs {
		a.usage.Reset()
		instr.RegUsage(&a.usage)
		usages[i] = append([]RegUse(nil), a.usage.Uses()...)
		for _, u := range usages[i] {
			if u.Reg.IsRealReg() {
				if u.Mode&UseRead != 0 {
					realReads[i] = realReads[i].add(u.Reg.RealReg())
				}
				if u.Mode&UseWrite != 0 {
					realWrites[i] = realWrites[i].add(u.Reg.RealReg())
				}
				continue
			}
			st := a.state(u.Reg)
			st.uses = append(st.uses, i)
			st.modes = append(st.modes, u.Mode)
		}
	}

	// Backward liveness of the real registers named explicitly by the instructions.
	liveIn := make([]RegSet, n)
	var live RegSet
	for i := n - 1; i >= 0; i-- {
		live = (live &^ realWrites[i]) | realReads[i]
		liveIn[i] = live
	}

	out := make([]Instr, 0, n)
	for i, instr := range instrs {
		if a.coalesce(instr, i) {
			continue
		}

		mentioned := realReads[i] | realWrites[i]
		blocked := mentioned | liveIn[i]
		mentioned.Range(func(r RealReg) {
			if vr := a.inUse.get(r); vr != nil {
				out = a.evict(vr, i, out)
			}
		})

		var busy RegSet
		for _, u := range usages[i] {
			if !u.Reg.IsRealReg() {
				if st := a.state(u.Reg); st.r != RealRegInvalid {
					busy = busy.add(st.r)
				}
			}
		}
		for _, u := range usages[i] {
			if u.Reg.IsRealReg() || u.Mode&UseRead == 0 {
				continue
			}
			st := a.state(u.Reg)
			if st.r == RealRegInvalid {
				if !st.slotValid {
					panic(fmt.Sprintf("BUG: %s is read before being defined at %s", st.v, instr))
				}
				var r RealReg
				r, out = a.pick(st.v.RegType(), blocked|busy, i, out)
				out = append(out, f.GenReload(FromRealReg(r, st.v.RegType()), st.slot))
				a.reloads++
				a.assign(st, r)
				busy = busy.add(r)
			}
		}
		for _, u := range usages[i] {
			if u.Reg.IsRealReg() || u.Mode&UseWrite == 0 {
				continue
			}
			st := a.state(u.Reg)
			if st.r == RealRegInvalid {
				var r RealReg
				r, out = a.pick(st.v.RegType(), blocked|busy, i, out)
				a.assign(st, r)
				busy = busy.add(r)
			}
			st.slotValid = false
		}

		instr.MapRegs(func(v VReg) VReg {
			if v.IsRealReg() {
				return v
			}
			st := a.state(v)
			return FromRealReg(st.r, v.RegType())
		})
		out = append(out, instr)

		for _, u := range usages[i] {
			if u.Reg.IsRealReg() {
				continue
			}
			st := a.state(u.Reg)
			st.next++
			if st.next == len(st.uses) && st.r != RealRegInvalid {
				a.inUse.remove(st.r)
				st.r = RealRegInvalid
			}
		}
	}
	f.SetInstructions(out)
}

// coalesce eliminates a copy between two virtual registers of the same class when the source dies at the copy
// and the destination is defined by it: the destination simply takes over the source's register.
func (a *Allocator) coalesce(instr Instr, i int) bool {
	dst, src, ok := instr.IsMove()
	if !ok || dst.IsRealReg() || src.IsRealReg() || dst.RegType() != src.RegType() || dst.ID() == src.ID() {
		return false
	}
	ds, ss := a.state(dst), a.state(src)
	if ss.r == RealRegInvalid || ss.next != len(ss.uses)-1 || ss.uses[ss.next] != i {
		return false
	}
	if ds.next != 0 || len(ds.uses) == 0 || ds.uses[0] != i {
		return false
	}
	r := ss.r
	a.inUse.remove(r)
	ss.r = RealRegInvalid
	ss.next++
	ds.next++
	if ds.next == len(ds.uses) {
		return true
	}
	a.assign(ds, r)
	return true
}

func (a *Allocator) assign(st *vrState, r RealReg) {
	st.r = r
	a.inUse.add(r, st)
}

// pick returns a free register of the given class outside of excluded, evicting the value whose next use is the
// furthest away when none is free.
func (a *Allocator) pick(typ RegType, excluded RegSet, i int, out []Instr) (RealReg, []Instr) {
	candidates := a.regInfo.AllocatableRegisters[typ]
	for _, r := range candidates {
		if !excluded.has(r) && !a.inUse.has(r) {
			return r, out
		}
	}
	var victim *vrState
	furthest := -1
	for _, r := range candidates {
		if excluded.has(r) {
			continue
		}
		vr := a.inUse.get(r)
		if nu := vr.nextUse(i); nu > furthest {
			victim, furthest = vr, nu
		}
	}
	if victim == nil {
		panic(fmt.Sprintf("BUG: no %s register available (excluded: %s)", typ, excluded.format(a.name)))
	}
	r := victim.r
	out = a.evict(victim, i, out)
	return r, out
}

// evict releases the register of vr, saving the value into its spill slot if it is still needed.
func (a *Allocator) evict(vr *vrState, i int, out []Instr) []Instr {
	if vr.needsValue(i) && !vr.slotValid {
		if vr.slot < 0 {
			vr.slot = a.allocSlot(vr.v.RegType())
		}
		out = append(out, a.spillFn(vr))
		a.spills++
		vr.slotValid = true
	}
	a.inUse.remove(vr.r)
	vr.r = RealRegInvalid
	return out
}

func (a *Allocator) spillFn(vr *vrState) Instr {
	return a.fn.GenSpill(FromRealReg(vr.r, vr.v.RegType()), vr.slot)
}

func (a *Allocator) allocSlot(typ RegType) int32 {
	size := int32(typ.Size())
	if size < 8 {
		size = 8
	}
	off := (a.nextSlot + size - 1) &^ (size - 1)
	if off+size > a.area.Offset+a.area.Size {
		panic(fmt.Sprintf("BUG: spill area exhausted (%d bytes)", a.area.Size))
	}
	a.nextSlot = off + size
	return off
}

func (a *Allocator) name(r RealReg) string {
	if a.regInfo.RealRegName != nil {
		return a.regInfo.RealRegName(r)
	}
	return r.String()
}

// nextUse returns the index of the first instruction at or after i which uses vr.
func (vr *vrState) nextUse(i int) int {
	for j := vr.next; j < len(vr.uses); j++ {
		if vr.uses[j] >= i {
			return vr.uses[j]
		}
	}
	return math.MaxInt32
}

// needsValue returns true if the current value of vr is read at or after instruction i.
func (vr *vrState) needsValue(i int) bool {
	for j := vr.next; j < len(vr.uses); j++ {
		if vr.uses[j] < i {
			continue
		}
		return vr.modes[j]&UseRead != 0
	}
	return false
}

// String implements fmt.Stringer.
func (a *Allocator) String() string {
	var b strings.Builder
	for r, vr := range a.inUse {
		if vr != nil {
			fmt.Fprintf(&b, "(%s->v%d)", a.name(RealReg(r)), vr.v.ID())
		}
	}
	return b.String()
}
