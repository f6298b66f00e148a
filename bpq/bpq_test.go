package bpq

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewInvalidCapacity(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)
	_, err = New(-1)
	require.Error(t, err)
}

func TestEnqueueWithinCapacityDrainsAscending(t *testing.T) {
	q, err := New(5)
	require.NoError(t, err)
	q.Enqueue(3, 5.0)
	q.Enqueue(1, 1.0)
	q.Enqueue(2, 3.0)

	require.Equal(t, 3, q.Size())
	var got []float64
	for !q.IsEmpty() {
		e, err := q.PeekMin()
		require.NoError(t, err)
		got = append(got, e.Priority)
		require.NoError(t, q.Dequeue())
	}
	require.True(t, sort.Float64sAreSorted(got))
}

// TestScenarioE enqueues a mixed batch of priorities, including ties, past
// capacity and checks the surviving set and its order.
func TestScenarioE(t *testing.T) {
	q, err := New(3)
	require.NoError(t, err)
	q.Enqueue(5, 2.0)
	q.Enqueue(2, 2.0)
	q.Enqueue(7, 1.0)
	q.Enqueue(9, 3.0)
	q.Enqueue(1, 2.0)

	require.Equal(t, 3, q.Size())
	want := []Element{{7, 1.0}, {1, 2.0}, {2, 2.0}}
	require.Equal(t, want, q.Elements())
}

// TestKSmallestInvariant checks that after any sequence of enqueues, the
// stored set is the K lexicographically-smallest (priority, id) pairs seen
// so far.
func TestKSmallestInvariant(t *testing.T) {
	const k = 4
	const n = 200
	rng := rand.New(rand.NewPCG(1, 2))

	q, err := New(k)
	require.NoError(t, err)
	var all []Element
	for i := 0; i < n; i++ {
		e := Element{ImageID: i, Priority: float64(rng.IntN(20))}
		all = append(all, e)
		q.Enqueue(e.ImageID, e.Priority)
		require.LessOrEqual(t, q.Size(), k)
	}

	sort.Slice(all, func(i, j int) bool { return less(all[i], all[j]) })
	want := all[:k]
	require.Equal(t, want, q.Elements())
}

func TestIsFullIsEmpty(t *testing.T) {
	q, err := New(2)
	require.NoError(t, err)
	require.True(t, q.IsEmpty())
	require.False(t, q.IsFull())
	q.Enqueue(1, 1.0)
	require.False(t, q.IsEmpty())
	require.False(t, q.IsFull())
	q.Enqueue(2, 2.0)
	require.True(t, q.IsFull())
}

func TestCopyIsIndependent(t *testing.T) {
	q, err := New(3)
	require.NoError(t, err)
	q.Enqueue(1, 1.0)
	q.Enqueue(2, 2.0)

	snap := q.Copy()
	q.Enqueue(0, 0.0)
	q.Enqueue(3, 3.0)

	require.Equal(t, 2, snap.Size())
	require.Equal(t, []Element{{1, 1.0}, {2, 2.0}}, snap.Elements())
}

func TestEmptyErrors(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)
	_, err = q.PeekMin()
	require.Error(t, err)
	_, err = q.PeekMax()
	require.Error(t, err)
	_, err = q.MinPriority()
	require.Error(t, err)
	_, err = q.MaxPriority()
	require.Error(t, err)
	require.Error(t, q.Dequeue())
}

func TestClear(t *testing.T) {
	q, err := New(2)
	require.NoError(t, err)
	q.Enqueue(1, 1.0)
	q.Clear()
	require.True(t, q.IsEmpty())
	require.Equal(t, 2, q.Capacity())
}
