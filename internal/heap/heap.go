// Package heap implements a binary min-heap whose entries can be updated or
// removed in O(log n) through the handle returned on insertion.
//
// Entries are allocated from a [pool.Pool]. Each entry records its current
// position in the heap array, and that position is maintained on every swap,
// so removing an entry from the middle of the heap does not need a search.
package heap

import (
	"honnef.co/go/curvefit/internal/pool"
)

// Handle identifies an entry of a Heap. The zero Handle refers to no entry.
// Handles of popped or removed entries become stale and are ignored by every
// method.
type Handle struct {
	ref pool.Ref
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.ref.IsZero() }

// minChunk bounds the pool chunk size from below so small heaps do not
// allocate a chunk per entry.
const minChunk = 32

type node[T any] struct {
	key   float64
	value T
	index int
	ref   pool.Ref
}

// Heap is a min-heap of T values ordered by a float64 key.
type Heap[T any] struct {
	nodes *pool.Pool[node[T]]
	tree  []*node[T]
}

// New returns an empty heap with room for capacity entries before the backing
// array needs to grow.
func New[T any](capacity int) *Heap[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Heap[T]{
		nodes: pool.New[node[T]](max(capacity, minChunk)),
		tree:  make([]*node[T], 0, capacity),
	}
}

// Len returns the number of entries.
func (h *Heap[T]) Len() int { return len(h.tree) }

// IsEmpty reports whether the heap has no entries.
func (h *Heap[T]) IsEmpty() bool { return len(h.tree) == 0 }

func (h *Heap[T]) less(i, j int) bool {
	return h.tree[i].key < h.tree[j].key
}

func (h *Heap[T]) swap(i, j int) {
	h.tree[i], h.tree[j] = h.tree[j], h.tree[i]
	h.tree[i].index = i
	h.tree[j].index = j
}

func (h *Heap[T]) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !h.less(i, p) {
			return
		}
		h.swap(i, p)
		i = p
	}
}

func (h *Heap[T]) siftDown(i int) {
	n := len(h.tree)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && h.less(r, l) {
			best = r
		}
		if !h.less(best, i) {
			return
		}
		h.swap(i, best)
		i = best
	}
}

func (h *Heap[T]) fix(i int) {
	n := h.tree[i]
	h.siftUp(i)
	h.siftDown(n.index)
}

// Insert adds value with the given key and returns its handle.
func (h *Heap[T]) Insert(key float64, value T) Handle {
	if len(h.tree) == cap(h.tree) {
		grown := make([]*node[T], len(h.tree), 2*cap(h.tree))
		copy(grown, h.tree)
		h.tree = grown
	}
	ref, n := h.nodes.Acquire()
	n.key = key
	n.value = value
	n.index = len(h.tree)
	n.ref = ref
	h.tree = append(h.tree, n)
	h.siftUp(n.index)
	return Handle{ref}
}

func (h *Heap[T]) node(hd Handle) *node[T] {
	return h.nodes.Get(hd.ref)
}

// Top returns the value with the smallest key without removing it.
func (h *Heap[T]) Top() (T, bool) {
	if len(h.tree) == 0 {
		return *new(T), false
	}
	return h.tree[0].value, true
}

// TopValue returns the smallest key.
func (h *Heap[T]) TopValue() (float64, bool) {
	if len(h.tree) == 0 {
		return 0, false
	}
	return h.tree[0].key, true
}

// PopMin removes and returns the value with the smallest key along with that
// key.
func (h *Heap[T]) PopMin() (T, float64, bool) {
	if len(h.tree) == 0 {
		return *new(T), 0, false
	}
	root := h.tree[0]
	value, key := root.value, root.key
	h.removeAt(0)
	return value, key, true
}

func (h *Heap[T]) removeAt(i int) {
	n := h.tree[i]
	last := len(h.tree) - 1
	if i != last {
		h.swap(i, last)
	}
	h.tree[last] = nil
	h.tree = h.tree[:last]
	if i != last {
		h.fix(i)
	}
	h.nodes.Release(n.ref)
}

// Remove deletes the entry hd refers to. It reports false if hd is stale.
func (h *Heap[T]) Remove(hd Handle) bool {
	n := h.node(hd)
	if n == nil {
		return false
	}
	h.removeAt(n.index)
	return true
}

// Update changes the key of the entry hd refers to.
func (h *Heap[T]) Update(hd Handle, key float64) bool {
	n := h.node(hd)
	if n == nil {
		return false
	}
	n.key = key
	h.fix(n.index)
	return true
}

// UpdateValue changes both the key and the value of the entry hd refers to.
func (h *Heap[T]) UpdateValue(hd Handle, key float64, value T) bool {
	n := h.node(hd)
	if n == nil {
		return false
	}
	n.value = value
	n.key = key
	h.fix(n.index)
	return true
}

// InsertOrUpdate inserts value if *hd does not refer to a live entry and
// stores the new handle in *hd; otherwise it updates the existing entry.
func (h *Heap[T]) InsertOrUpdate(hd *Handle, key float64, value T) {
	if h.UpdateValue(*hd, key, value) {
		return
	}
	*hd = h.Insert(key, value)
}

// Value returns the value of the entry hd refers to.
func (h *Heap[T]) Value(hd Handle) (T, bool) {
	n := h.node(hd)
	if n == nil {
		return *new(T), false
	}
	return n.value, true
}

// Key returns the key of the entry hd refers to.
func (h *Heap[T]) Key(hd Handle) (float64, bool) {
	n := h.node(hd)
	if n == nil {
		return 0, false
	}
	return n.key, true
}

// Reset removes every entry. Outstanding handles become stale.
func (h *Heap[T]) Reset() {
	clear(h.tree)
	h.tree = h.tree[:0]
	h.nodes.Destroy()
}
