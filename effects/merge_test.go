package effects_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/composable_go/effects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_ForwardsAllValuesAndCompletesOnce(t *testing.T) {
	r := &recorder[int]{initial: effects.Unlimited}
	effects.Merge(effects.Just(1), effects.Just(2), effects.Just(3)).
		Subscribe(context.Background(), r)

	assert.Equal(t, []int{1, 2, 3}, r.Values())
	assert.Equal(t, []effects.Completion{effects.Finished}, r.Completions())
}

func TestMerge_ZeroSourcesCompletesImmediately(t *testing.T) {
	r := &recorder[int]{initial: effects.Unlimited}
	effects.Merge[int]().Subscribe(context.Background(), r)

	assert.Empty(t, r.Values())
	assert.Equal(t, []effects.Completion{effects.Finished}, r.Completions())
}

func TestMerge_CompletesOnlyAfterEverySource(t *testing.T) {
	a, b := &manualSource[int]{}, &manualSource[int]{}
	r := &recorder[int]{initial: effects.Unlimited}
	effects.Merge(a.Effect(), b.Effect()).Subscribe(context.Background(), r)

	a.Send(1)
	a.Complete(effects.Finished)
	a.Complete(effects.Finished)
	assert.Empty(t, r.Completions())

	b.Send(2)
	b.Complete(effects.Finished)

	assert.Equal(t, []int{1, 2}, r.Values())
	assert.Equal(t, []effects.Completion{effects.Finished}, r.Completions())
}

func TestMerge_FirstFailureWins(t *testing.T) {
	a, b, c := &manualSource[int]{}, &manualSource[int]{}, &manualSource[int]{}
	r := &recorder[int]{initial: effects.Unlimited}
	effects.Merge(a.Effect(), b.Effect(), c.Effect()).Subscribe(context.Background(), r)

	a.Send(1)
	b.Complete(effects.Failure(errBoom))

	assert.True(t, a.Cancelled())
	assert.True(t, c.Cancelled())

	a.Send(2)
	c.Complete(effects.Failure(errBoom))
	a.Complete(effects.Finished)

	assert.Equal(t, []int{1}, r.Values())
	require.Len(t, r.Completions(), 1)
	assert.ErrorIs(t, r.Completions()[0].Err, errBoom)
}

func TestMerge_ProbesWithMinimalDemand(t *testing.T) {
	a, b := &manualSource[int]{}, &manualSource[int]{}
	r := &recorder[int]{initial: effects.Max(1)}
	effects.Merge(a.Effect(), b.Effect()).Subscribe(context.Background(), r)

	assert.Equal(t, effects.Max(1), a.Requested())
	assert.Equal(t, effects.Max(1), b.Requested())

	r.Request(effects.Unlimited)
	assert.Equal(t, effects.Unlimited, a.Requested())
	assert.Equal(t, effects.Unlimited, b.Requested())
}

func TestMerge_BuffersLatestValuePerSourceWithoutDemand(t *testing.T) {
	a, b := &manualSource[int]{}, &manualSource[int]{}
	r := &recorder[int]{initial: effects.Max(1)}
	effects.Merge(a.Effect(), b.Effect()).Subscribe(context.Background(), r)

	assert.Equal(t, effects.Max(1), a.Send(10))

	assert.Equal(t, effects.Demand(0), b.Send(20))
	assert.Equal(t, effects.Demand(0), b.Send(21))
	assert.Equal(t, []int{10}, r.Values())

	before := b.Requested()
	r.Request(effects.Max(1))
	assert.Equal(t, []int{10, 21}, r.Values())
	assert.Equal(t, before.Add(effects.Max(1)), b.Requested(), "drained source may send one more")

	a.Complete(effects.Finished)
	b.Complete(effects.Finished)
	assert.Equal(t, []effects.Completion{effects.Finished}, r.Completions())
}

func TestMerge_FlushesBufferBeforeCompleting(t *testing.T) {
	a, b := &manualSource[int]{}, &manualSource[int]{}
	r := &recorder[int]{}
	effects.Merge(a.Effect(), b.Effect()).Subscribe(context.Background(), r)

	b.Send(30)
	a.Complete(effects.Finished)
	b.Complete(effects.Finished)
	assert.Empty(t, r.Values())
	assert.Empty(t, r.Completions())

	r.Request(effects.Max(1))
	assert.Equal(t, []int{30}, r.Values())
	assert.Equal(t, []effects.Completion{effects.Finished}, r.Completions())
}

func TestMerge_RequestFromInsideReceiveIsNotLost(t *testing.T) {
	a, b := &manualSource[int]{}, &manualSource[int]{}
	r := &recorder[int]{
		initial: effects.Max(1),
		onReceive: func(s effects.Subscription, _ int) {
			s.Request(effects.Max(1))
		},
	}
	effects.Merge(a.Effect(), b.Effect()).Subscribe(context.Background(), r)

	a.Send(1)
	b.Send(2)
	a.Send(3)

	assert.Equal(t, []int{1, 2, 3}, r.Values())
}

func TestMerge_CancelStopsEverything(t *testing.T) {
	a, b := &manualSource[int]{}, &manualSource[int]{}
	r := &recorder[int]{}
	effects.Merge(a.Effect(), b.Effect()).Subscribe(context.Background(), r)

	b.Send(5)
	r.Cancel()
	r.Cancel()

	assert.True(t, a.Cancelled())
	assert.True(t, b.Cancelled())

	r.Request(effects.Unlimited)
	a.Send(1)
	a.Complete(effects.Finished)
	b.Complete(effects.Finished)

	assert.Empty(t, r.Values())
	assert.Empty(t, r.Completions())
}

type doubleSubscribe struct {
	first, second *manualSource[int]
}

func (d doubleSubscribe) Subscribe(_ context.Context, s effects.Subscriber[int]) {
	d.first.Subscribe(context.Background(), s)
	d.second.Subscribe(context.Background(), s)
}

func TestMerge_CancelsDuplicateSubscription(t *testing.T) {
	first, second := &manualSource[int]{}, &manualSource[int]{}
	r := &recorder[int]{initial: effects.Unlimited}
	effects.Merge(effects.New[int](doubleSubscribe{first, second})).
		Subscribe(context.Background(), r)

	assert.False(t, first.Cancelled())
	assert.True(t, second.Cancelled())
}

func TestMerge_ConcurrentSources(t *testing.T) {
	const n = 50
	effs := make([]effects.Effect[int], n)
	for i := range effs {
		effs[i] = effects.Task(func(context.Context) (int, error) {
			time.Sleep(time.Millisecond)
			return i, nil
		})
	}

	var mu sync.Mutex
	var got []int
	completions := 0
	done := make(chan struct{})
	effects.Sink(context.Background(), effects.Merge(effs...), func(v int) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	}, func(c effects.Completion) {
		mu.Lock()
		completions++
		mu.Unlock()
		assert.False(t, c.IsFailure())
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("merge did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	sort.Ints(got)
	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 1, completions)
}
