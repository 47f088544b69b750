package observable_test

import (
	"testing"
	"time"

	"github.com/on-the-ground/composable_go/shared/observable"
	"github.com/stretchr/testify/assert"
)

func TestCurrentValue_ReplaysAndNotifies(t *testing.T) {
	cv := observable.NewCurrentValue(1)

	var got []int
	h := cv.Subscribe(func(v int) { got = append(got, v) })
	cv.Send(2)
	cv.Send(3)

	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 3, cv.Value())

	h.Cancel()
	cv.Send(4)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 0, cv.Observers())
}

func TestCurrentValue_CancelTwicePanics(t *testing.T) {
	cv := observable.NewCurrentValue("a")
	h := cv.Subscribe(func(string) {})
	h.Cancel()

	assert.PanicsWithValue(t, observable.ErrCancelledTwice, func() { h.Cancel() })
}

func TestCurrentValue_NestedSendSupersedesOlderRound(t *testing.T) {
	cv := observable.NewCurrentValue(0)

	var first, second []int
	cv.Subscribe(func(v int) {
		first = append(first, v)
		if v == 1 {
			cv.Send(2)
		}
	})
	cv.Subscribe(func(v int) { second = append(second, v) })

	cv.Send(1)

	assert.Equal(t, []int{0, 1, 2}, first)
	assert.Equal(t, []int{0, 2}, second, "the later observer never sees the superseded value")
}

func TestCurrentValue_ConcurrentSendIsHandedToActiveDelivery(t *testing.T) {
	cv := observable.NewCurrentValue(0)

	entered := make(chan struct{})
	release := make(chan struct{})
	var first, second []int
	cv.Subscribe(func(v int) {
		first = append(first, v)
		if v == 1 {
			close(entered)
			<-release
		}
	})
	cv.Subscribe(func(v int) { second = append(second, v) })

	done := make(chan struct{})
	go func() {
		cv.Send(1)
		close(done)
	}()
	<-entered

	returned := make(chan struct{})
	go func() {
		cv.Send(2)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("send blocked behind the active delivery")
	}
	assert.Equal(t, 2, cv.Value())

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("delivery did not finish")
	}

	assert.Equal(t, []int{0, 1, 2}, first)
	assert.Equal(t, []int{0, 2}, second, "the newer value is delivered after the older one, never before")
}

func TestCurrentValue_CancelInsideCallback(t *testing.T) {
	cv := observable.NewCurrentValue(0)

	var got []int
	var h interface{ Cancel() }
	h = cv.Subscribe(func(v int) {
		got = append(got, v)
		if v == 1 {
			h.Cancel()
		}
	})
	cv.Send(1)
	cv.Send(2)

	assert.Equal(t, []int{0, 1}, got)
}

func TestRemoveDuplicates_PerSubscriber(t *testing.T) {
	cv := observable.NewCurrentValue(1)
	distinct := observable.Distinct[int](cv)

	var a, b []int
	distinct.Subscribe(func(v int) { a = append(a, v) })
	cv.Send(1)
	cv.Send(2)
	distinct.Subscribe(func(v int) { b = append(b, v) })
	cv.Send(2)
	cv.Send(1)

	assert.Equal(t, []int{1, 2, 1}, a)
	assert.Equal(t, []int{2, 1}, b)
}

func TestMapAndDropFirst(t *testing.T) {
	cv := observable.NewCurrentValue(1)
	doubled := observable.DropFirst(observable.Map[int, int](cv, func(v int) int { return v * 2 }), 1)

	var got []int
	doubled.Subscribe(func(v int) { got = append(got, v) })
	cv.Send(5)

	assert.Equal(t, []int{10}, got)
}
