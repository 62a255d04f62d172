// Package pool provides a generic arena-style allocator for values that are
// allocated many at a time and all reclaimed together, such as the
// interference-graph nodes and per-block liveness facts built while laying
// out one procedure. Reusing the backing pages across procedures avoids
// thrashing the allocator on the common case of laying out many small
// procedures in a row.
package pool

const pageSize = 128

// Pool is a pool of T that can be bulk-allocated and reset.
type Pool[T any] struct {
	pages            []*[pageSize]T
	reset            func(*T)
	allocated, index int
}

// New returns a new Pool. reset, if non-nil, is called on every T handed out
// by Allocate so that values reused from a previous generation start clean.
func New[T any](reset func(*T)) Pool[T] {
	p := Pool[T]{reset: reset}
	p.Reset()
	return p
}

// Allocated returns the number of values allocated since the last Reset.
func (p *Pool[T]) Allocated() int {
	return p.allocated
}

// Allocate returns a fresh *T from the pool.
func (p *Pool[T]) Allocate() *T {
	if p.index == pageSize {
		if len(p.pages) == cap(p.pages) {
			p.pages = append(p.pages, new([pageSize]T))
		} else {
			i := len(p.pages)
			p.pages = p.pages[:i+1]
			if p.pages[i] == nil {
				p.pages[i] = new([pageSize]T)
			}
		}
		p.index = 0
	}
	ret := &p.pages[len(p.pages)-1][p.index]
	if p.reset != nil {
		p.reset(ret)
	}
	p.index++
	p.allocated++
	return ret
}

// View returns the pointer to the i-th allocated value, in allocation order.
func (p *Pool[T]) View(i int) *T {
	page, index := i/pageSize, i%pageSize
	return &p.pages[page][index]
}

// Reset reclaims every value allocated so far; the backing pages are kept for
// reuse by the next generation.
func (p *Pool[T]) Reset() {
	p.pages = p.pages[:0]
	p.index = pageSize
	p.allocated = 0
}
