package pool

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_New(t *testing.T) {
	t.Run("default chunk size", func(t *testing.T) {
		p := New[int](0)
		assert.Equal(t, DefaultChunkSize, p.chunkSize)
		assert.Equal(t, 0, p.Cap())
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New[int](4)
		p.Acquire()
		assert.Equal(t, 4, p.Cap())
		assert.Equal(t, 1, p.Chunks())
	})
}

func TestPool_AcquireRelease(t *testing.T) {
	p := New[[3]float64](2)

	r1, v1 := p.Acquire()
	r2, v2 := p.Acquire()
	r3, v3 := p.Acquire()
	require.Equal(t, 3, p.Len())
	require.Equal(t, 2, p.Chunks())

	v1[0], v2[0], v3[0] = 1, 2, 3
	assert.Equal(t, 1.0, p.Get(r1)[0])
	assert.Equal(t, 2.0, p.Get(r2)[0])
	assert.Equal(t, 3.0, p.Get(r3)[0])

	require.True(t, p.Release(r2))
	assert.Equal(t, 2, p.Len())
	assert.Nil(t, p.Get(r2), "released ref must be stale")
	assert.False(t, p.Release(r2), "double release must be rejected")

	// The freed slot is recycled, zeroed, under a new generation.
	r4, v4 := p.Acquire()
	assert.Equal(t, r2.Index, r4.Index)
	assert.NotEqual(t, r2.Gen, r4.Gen)
	assert.Equal(t, [3]float64{}, *v4)
	assert.Nil(t, p.Get(r2))
	assert.Equal(t, 2, p.Chunks(), "recycling must not grow the pool")
}

func TestPool_PointersStable(t *testing.T) {
	p := New[int](3)
	ptrs := map[Ref]*int{}
	for i := range 100 {
		r, v := p.Acquire()
		*v = i
		ptrs[r] = v
	}
	for r, v := range ptrs {
		assert.Same(t, v, p.Get(r))
	}
}

func TestPool_ZeroRef(t *testing.T) {
	p := New[int](1)
	var r Ref
	assert.True(t, r.IsZero())
	assert.Nil(t, p.Get(r))
	assert.False(t, p.Release(r))
}

func TestPool_Destroy(t *testing.T) {
	p := New[int](8)
	r, _ := p.Acquire()
	p.Destroy()
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 0, p.Cap())
	assert.Nil(t, p.Get(r))

	r2, _ := p.Acquire()
	assert.Equal(t, r.Index, r2.Index)
	assert.NotEqual(t, r.Gen, r2.Gen)
	assert.Nil(t, p.Get(r))
}

func TestPool_LiveCountMatchesOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := New[int](16)
	live := map[Ref]int{}
	var refs []Ref
	for i := range 5000 {
		if len(refs) > 0 && rng.Intn(3) == 0 {
			j := rng.Intn(len(refs))
			r := refs[j]
			refs[j] = refs[len(refs)-1]
			refs = refs[:len(refs)-1]
			require.True(t, p.Release(r))
			delete(live, r)
		} else {
			r, v := p.Acquire()
			*v = i
			live[r] = i
			refs = append(refs, r)
		}
		require.Equal(t, len(live), p.Len())
	}
	for r, want := range live {
		got := p.Get(r)
		require.NotNil(t, got)
		assert.Equal(t, want, *got)
	}
}
