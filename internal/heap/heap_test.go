package heap

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkInvariant verifies the min-heap property at every level and that each
// node's recorded index matches its position.
func checkInvariant[T any](t *testing.T, h *Heap[T]) {
	t.Helper()
	for i, n := range h.tree {
		require.Equal(t, i, n.index, "stale index at %d", i)
		if i > 0 {
			p := (i - 1) / 2
			require.LessOrEqual(t, h.tree[p].key, n.key, "heap property violated at %d", i)
		}
	}
}

func TestHeap_Empty(t *testing.T) {
	h := New[string](0)
	assert.True(t, h.IsEmpty())
	assert.Equal(t, 0, h.Len())

	_, ok := h.Top()
	assert.False(t, ok)
	_, ok = h.TopValue()
	assert.False(t, ok)
	_, _, ok = h.PopMin()
	assert.False(t, ok)
}

func TestHeap_PopOrder(t *testing.T) {
	h := New[string](2)
	h.Insert(3, "c")
	h.Insert(1, "a")
	h.Insert(4, "d")
	h.Insert(2, "b")
	checkInvariant(t, h)

	top, ok := h.TopValue()
	require.True(t, ok)
	assert.Equal(t, 1.0, top)

	var got []string
	for !h.IsEmpty() {
		v, _, ok := h.PopMin()
		require.True(t, ok)
		got = append(got, v)
		checkInvariant(t, h)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestHeap_RemoveByHandle(t *testing.T) {
	h := New[int](4)
	var handles []Handle
	for i := range 10 {
		handles = append(handles, h.Insert(float64(10-i), i))
	}
	require.True(t, h.Remove(handles[9])) // key 1, the root
	require.True(t, h.Remove(handles[3])) // key 7, interior
	checkInvariant(t, h)
	assert.False(t, h.Remove(handles[3]), "removing twice must be rejected")

	_, ok := h.Value(handles[3])
	assert.False(t, ok)

	v, key, ok := h.PopMin()
	require.True(t, ok)
	assert.Equal(t, 8, v)
	assert.Equal(t, 2.0, key)
	_, ok = h.Value(handles[8])
	assert.False(t, ok, "popped handle must be stale")
}

func TestHeap_Update(t *testing.T) {
	h := New[string](0)
	a := h.Insert(1, "a")
	b := h.Insert(2, "b")
	c := h.Insert(3, "c")

	require.True(t, h.Update(a, 10))
	checkInvariant(t, h)
	v, _ := h.Top()
	assert.Equal(t, "b", v)

	require.True(t, h.UpdateValue(c, 0, "c2"))
	checkInvariant(t, h)
	v, _ = h.Top()
	assert.Equal(t, "c2", v)

	key, ok := h.Key(b)
	require.True(t, ok)
	assert.Equal(t, 2.0, key)
}

func TestHeap_InsertOrUpdate(t *testing.T) {
	h := New[int](0)
	var hd Handle
	assert.True(t, hd.IsZero())

	h.InsertOrUpdate(&hd, 5, 1)
	require.False(t, hd.IsZero())
	assert.Equal(t, 1, h.Len())

	first := hd
	h.InsertOrUpdate(&hd, 2, 2)
	assert.Equal(t, first, hd, "live handle must be updated in place")
	assert.Equal(t, 1, h.Len())
	v, _ := h.Value(hd)
	assert.Equal(t, 2, v)

	h.PopMin()
	h.InsertOrUpdate(&hd, 3, 3)
	assert.NotEqual(t, first, hd, "stale handle must be replaced")
	assert.Equal(t, 1, h.Len())
}

func TestHeap_Reset(t *testing.T) {
	h := New[int](0)
	hd := h.Insert(1, 1)
	h.Insert(2, 2)
	h.Reset()
	assert.True(t, h.IsEmpty())
	assert.False(t, h.Remove(hd))
	h.Insert(3, 3)
	v, _ := h.Top()
	assert.Equal(t, 3, v)
}

// TestHeap_SortedOracle drives random inserts, removals and updates and checks
// every pop against a sorted list of the live keys.
func TestHeap_SortedOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	h := New[int](1)
	keys := map[int]float64{}
	handles := map[int]Handle{}
	next := 0

	oracleMin := func() float64 {
		ks := make([]float64, 0, len(keys))
		for _, k := range keys {
			ks = append(ks, k)
		}
		slices.Sort(ks)
		return ks[0]
	}

	for range 4000 {
		switch op := rng.Intn(10); {
		case op < 4 || len(keys) == 0:
			k := float64(rng.Intn(100))
			handles[next] = h.Insert(k, next)
			keys[next] = k
			next++
		case op < 6:
			for id := range keys {
				require.True(t, h.Remove(handles[id]))
				delete(keys, id)
				delete(handles, id)
				break
			}
		case op < 8:
			for id := range keys {
				k := float64(rng.Intn(100))
				require.True(t, h.Update(handles[id], k))
				keys[id] = k
				break
			}
		default:
			want := oracleMin()
			id, key, ok := h.PopMin()
			require.True(t, ok)
			require.Equal(t, want, key)
			require.Equal(t, keys[id], key)
			delete(keys, id)
			delete(handles, id)
		}
		require.Equal(t, len(keys), h.Len())
		checkInvariant(t, h)
	}

	prev := -1.0
	for !h.IsEmpty() {
		_, key, _ := h.PopMin()
		require.GreaterOrEqual(t, key, prev)
		prev = key
	}
}
