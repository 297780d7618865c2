package regalloc

import "strings"

// NewRegSet returns a new RegSet with the given registers.
func NewRegSet(regs ...RealReg) RegSet {
	var ret RegSet
	for _, r := range regs {
		ret = ret.add(r)
	}
	return ret
}

// RegSet represents a set of real registers.
type RegSet uint64

func (rs RegSet) format(name func(RealReg) string) string {
	var ret []string
	rs.Range(func(r RealReg) { ret = append(ret, name(r)) })
	return strings.Join(ret, ", ")
}

func (rs RegSet) has(r RealReg) bool {
	return r < 64 && rs&(1<<uint(r)) != 0
}

func (rs RegSet) add(r RealReg) RegSet {
	if r >= 64 {
		return rs
	}
	return rs | 1<<uint(r)
}

func (rs RegSet) remove(r RealReg) RegSet {
	if r >= 64 {
		return rs
	}
	return rs &^ (1 << uint(r))
}

// Range calls f for each register of the set in increasing order.
func (rs RegSet) Range(f func(r RealReg)) {
	for i := 0; i < 64; i++ {
		if rs&(1<<uint(i)) != 0 {
			f(RealReg(i))
		}
	}
}

type regInUseSet [64]*vrState

func (rs *regInUseSet) reset() {
	for i := range rs {
		rs[i] = nil
	}
}

func (rs *regInUseSet) has(r RealReg) bool {
	return r < 64 && rs[r] != nil
}

func (rs *regInUseSet) get(r RealReg) *vrState {
	return rs[r]
}

func (rs *regInUseSet) add(r RealReg, vr *vrState) {
	rs[r] = vr
}

func (rs *regInUseSet) remove(r RealReg) {
	rs[r] = nil
}
