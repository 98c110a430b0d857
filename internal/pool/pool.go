// Package pool provides a chunked slot allocator with O(1) acquire and
// release.
//
// Slots live in fixed-capacity chunks that are never moved or shrunk, so a
// pointer returned by [Pool.Acquire] stays valid until the slot is released or
// the pool is destroyed. Released slots are recycled through a free list.
//
// Every acquisition is stamped with a pool-wide generation. A [Ref] carries
// that generation, which lets [Pool.Get] and [Pool.Release] reject references
// to slots that have since been recycled.
//
// A Pool is not safe for concurrent use.
package pool

// DefaultChunkSize is the number of slots per chunk used when New is given a
// non-positive chunk size.
const DefaultChunkSize = 512

// Ref refers to one acquisition of a slot. The zero Ref is never valid.
type Ref struct {
	Index uint32
	Gen   uint32
}

// IsZero reports whether r is the zero Ref.
func (r Ref) IsZero() bool { return r.Gen == 0 }

type slot[T any] struct {
	value T
	// gen is zero while the slot is on the free list.
	gen uint32
	// nextFree links free slots, encoded as index+1 so that zero ends the list.
	nextFree uint32
}

// Pool is a chunked allocator of T values.
type Pool[T any] struct {
	chunkSize int
	chunks    [][]slot[T]
	// bump is the number of slots ever handed out by bump allocation.
	bump     int
	freeHead uint32
	live     int
	gen      uint32
}

// New returns a pool that allocates chunks of chunkSize slots.
func New[T any](chunkSize int) *Pool[T] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Pool[T]{chunkSize: chunkSize}
}

func (p *Pool[T]) slot(idx uint32) *slot[T] {
	i := int(idx)
	return &p.chunks[i/p.chunkSize][i%p.chunkSize]
}

func (p *Pool[T]) nextGen() uint32 {
	p.gen++
	if p.gen == 0 {
		// Wrapped around; zero is reserved for free slots.
		p.gen = 1
	}
	return p.gen
}

// Acquire returns a zeroed slot and a reference to it.
func (p *Pool[T]) Acquire() (Ref, *T) {
	var idx uint32
	if p.freeHead != 0 {
		idx = p.freeHead - 1
		s := p.slot(idx)
		p.freeHead = s.nextFree
		s.nextFree = 0
	} else {
		if p.bump == len(p.chunks)*p.chunkSize {
			p.chunks = append(p.chunks, make([]slot[T], p.chunkSize))
		}
		idx = uint32(p.bump)
		p.bump++
	}
	s := p.slot(idx)
	s.gen = p.nextGen()
	p.live++
	return Ref{Index: idx, Gen: s.gen}, &s.value
}

// Get returns the value r refers to, or nil if r is stale or zero.
func (p *Pool[T]) Get(r Ref) *T {
	if !p.owns(r) {
		return nil
	}
	return &p.slot(r.Index).value
}

func (p *Pool[T]) owns(r Ref) bool {
	if r.IsZero() || int(r.Index) >= p.bump {
		return false
	}
	return p.slot(r.Index).gen == r.Gen
}

// Release returns the slot r refers to to the free list. It reports false,
// and does nothing, if r is stale or zero.
func (p *Pool[T]) Release(r Ref) bool {
	if !p.owns(r) {
		return false
	}
	s := p.slot(r.Index)
	s.value = *new(T)
	s.gen = 0
	s.nextFree = p.freeHead
	p.freeHead = r.Index + 1
	p.live--
	return true
}

// Len returns the number of live slots.
func (p *Pool[T]) Len() int { return p.live }

// Cap returns the number of slots reserved across all chunks.
func (p *Pool[T]) Cap() int { return len(p.chunks) * p.chunkSize }

// Chunks returns the number of chunks allocated so far.
func (p *Pool[T]) Chunks() int { return len(p.chunks) }

// Destroy drops every chunk at once. All outstanding references become
// stale; the pool may be reused afterwards.
func (p *Pool[T]) Destroy() {
	p.chunks = nil
	p.bump = 0
	p.freeHead = 0
	p.live = 0
	// p.gen keeps counting so that references from before Destroy never match
	// slots acquired after it.
}
