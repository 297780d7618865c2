// Package jitapi holds the definitions shared between the translator front door and the
// sparc64 back end: object pools, trap-return codes, host capabilities and the guest state layout.
package jitapi

const poolPageSize = 128

// Pool is a paged arena of T which hands out stable pointers and is reset between translations.
// Translating a block allocates hundreds of small instruction nodes, so reusing pages avoids
// most of the garbage a fresh allocation per node would produce.
type Pool[T any] struct {
	pages            []*[poolPageSize]T
	allocated, index int
	resetFn          func(*T)
}

// NewPool returns a new Pool. resetFn, when non-nil, is called on every item handed out by Allocate.
func NewPool[T any](resetFn func(*T)) Pool[T] {
	ret := Pool[T]{resetFn: resetFn}
	ret.Reset()
	return ret
}

// Allocated returns the number of allocated T currently in the pool.
func (p *Pool[T]) Allocated() int {
	return p.allocated
}

// Allocate allocates a new T from the pool.
func (p *Pool[T]) Allocate() *T {
	if p.index == poolPageSize {
		if len(p.pages) == cap(p.pages) {
			p.pages = append(p.pages, new([poolPageSize]T))
		} else {
			i := len(p.pages)
			p.pages = p.pages[:i+1]
			if p.pages[i] == nil {
				p.pages[i] = new([poolPageSize]T)
			}
		}
		p.index = 0
	}
	ret := &p.pages[len(p.pages)-1][p.index]
	if p.resetFn != nil {
		p.resetFn(ret)
	}
	p.index++
	p.allocated++
	return ret
}

// View returns the pointer to i-th item from the pool.
func (p *Pool[T]) View(i int) *T {
	page, index := i/poolPageSize, i%poolPageSize
	return &p.pages[page][index]
}

// Reset makes every page available again. Items are zeroed lazily by Allocate when resetFn is set,
// and eagerly otherwise.
func (p *Pool[T]) Reset() {
	if p.resetFn == nil {
		for _, ns := range p.pages {
			pages := ns[:]
			for i := range pages {
				var v T
				pages[i] = v
			}
		}
	}
	p.pages = p.pages[:0]
	p.index = poolPageSize
	p.allocated = 0
}
