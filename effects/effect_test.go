package effects_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/on-the-ground/composable_go/effects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestNone_CompletesWithoutValues(t *testing.T) {
	r := &recorder[int]{initial: effects.Unlimited}
	effects.None[int]().Subscribe(context.Background(), r)

	assert.Empty(t, r.Values())
	assert.Equal(t, []effects.Completion{effects.Finished}, r.Completions())
}

func TestJust_WaitsForDemand(t *testing.T) {
	r := &recorder[string]{}
	effects.Just("a").Subscribe(context.Background(), r)
	assert.Empty(t, r.Values())
	assert.Empty(t, r.Completions())

	r.Request(effects.Max(1))
	assert.Equal(t, []string{"a"}, r.Values())
	assert.Equal(t, []effects.Completion{effects.Finished}, r.Completions())

	r.Request(effects.Max(1))
	assert.Equal(t, []string{"a"}, r.Values())
	assert.Len(t, r.Completions(), 1)
}

func TestFail_CompletesWithError(t *testing.T) {
	r := &recorder[int]{initial: effects.Unlimited}
	effects.Fail[int](errBoom).Subscribe(context.Background(), r)

	assert.Empty(t, r.Values())
	require.Len(t, r.Completions(), 1)
	assert.ErrorIs(t, r.Completions()[0].Err, errBoom)
}

func TestFuture_DefersWorkUntilSubscribed(t *testing.T) {
	calls := 0
	e := effects.Future(func(callback func(int, error)) {
		calls++
		callback(42, nil)
		callback(43, nil)
		callback(0, errBoom)
	})
	assert.Equal(t, 0, calls)

	r := &recorder[int]{initial: effects.Unlimited}
	e.Subscribe(context.Background(), r)

	assert.Equal(t, 1, calls)
	assert.Equal(t, []int{42}, r.Values())
	assert.Equal(t, []effects.Completion{effects.Finished}, r.Completions())
}

func TestFuture_ResolvesAsynchronously(t *testing.T) {
	e := effects.Future(func(callback func(string, error)) {
		go func() {
			time.Sleep(10 * time.Millisecond)
			callback("late", nil)
		}()
	})

	got := make(chan string, 1)
	done := make(chan effects.Completion, 1)
	effects.Sink(context.Background(), e, func(v string) { got <- v }, func(c effects.Completion) { done <- c })

	select {
	case v := <-got:
		assert.Equal(t, "late", v)
	case <-time.After(time.Second):
		t.Fatal("future never resolved")
	}
	select {
	case c := <-done:
		assert.False(t, c.IsFailure())
	case <-time.After(time.Second):
		t.Fatal("future never completed")
	}
}

func TestFuture_FailureIgnoresDemand(t *testing.T) {
	r := &recorder[int]{}
	effects.Future(func(callback func(int, error)) {
		callback(0, errBoom)
	}).Subscribe(context.Background(), r)

	require.Len(t, r.Completions(), 1)
	assert.ErrorIs(t, r.Completions()[0].Err, errBoom)
}

func TestResult_RunsOncePerSubscription(t *testing.T) {
	calls := 0
	e := effects.Result(func() (int, error) {
		calls++
		return calls, nil
	})

	first := &recorder[int]{initial: effects.Unlimited}
	second := &recorder[int]{initial: effects.Unlimited}
	e.Subscribe(context.Background(), first)
	e.Subscribe(context.Background(), second)

	assert.Equal(t, []int{1}, first.Values())
	assert.Equal(t, []int{2}, second.Values())
}

func TestDeferred_BuildsOnSubscribe(t *testing.T) {
	built := 0
	e := effects.Deferred(func() effects.Effect[int] {
		built++
		return effects.Just(built)
	})
	assert.Equal(t, 0, built)

	r := &recorder[int]{initial: effects.Unlimited}
	e.Subscribe(context.Background(), r)
	assert.Equal(t, 1, built)
	assert.Equal(t, []int{1}, r.Values())
}

func TestFireAndForget_RunsWorkWithoutEmitting(t *testing.T) {
	ran := 0
	e := effects.FireAndForget[int](func() { ran++ })
	assert.Equal(t, 0, ran)

	r := &recorder[int]{initial: effects.Unlimited}
	e.Subscribe(context.Background(), r)

	assert.Equal(t, 1, ran)
	assert.Empty(t, r.Values())
	assert.Equal(t, []effects.Completion{effects.Finished}, r.Completions())
}

func TestMap_TransformsValuesAndKeepsCompletion(t *testing.T) {
	r := &recorder[string]{initial: effects.Unlimited}
	effects.Map(effects.Concatenate(effects.Just(1), effects.Just(2)), strconv.Itoa).
		Subscribe(context.Background(), r)

	assert.Equal(t, []string{"1", "2"}, r.Values())
	assert.Equal(t, []effects.Completion{effects.Finished}, r.Completions())

	failed := &recorder[string]{initial: effects.Unlimited}
	effects.Map(effects.Fail[int](errBoom), strconv.Itoa).Subscribe(context.Background(), failed)
	require.Len(t, failed.Completions(), 1)
	assert.ErrorIs(t, failed.Completions()[0].Err, errBoom)
}

func TestSink_CancelStopsCallbacks(t *testing.T) {
	src := &manualSource[int]{}
	var got []int
	completed := false
	handle := effects.Sink(context.Background(), src.Effect(), func(v int) {
		got = append(got, v)
	}, func(effects.Completion) { completed = true })

	assert.Equal(t, effects.Unlimited, src.Requested())
	src.Send(1)
	handle.Cancel()
	handle.Cancel()
	src.Send(2)
	src.Complete(effects.Finished)

	assert.True(t, src.Cancelled())
	assert.Equal(t, []int{1}, got)
	assert.False(t, completed)
}

func TestDemand_AddSaturates(t *testing.T) {
	assert.Equal(t, effects.Demand(3), effects.Max(1).Add(effects.Max(2)))
	assert.Equal(t, effects.Unlimited, effects.Max(1).Add(effects.Unlimited))
	assert.Equal(t, effects.Unlimited, (effects.Unlimited - 1).Add(effects.Max(5)))
	assert.Equal(t, effects.Demand(0), effects.Max(-4))
}
