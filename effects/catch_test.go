package effects_test

import (
	"context"
	"testing"

	"github.com/on-the-ground/composable_go/effects"
	"github.com/stretchr/testify/assert"
)

type outcome struct {
	value int
	err   error
}

func toOutcome(v int, err error) outcome {
	return outcome{value: v, err: err}
}

func TestCatchToEffect_TurnsFailureIntoValue(t *testing.T) {
	r := &recorder[outcome]{initial: effects.Unlimited}
	effects.CatchToEffect(effects.Concatenate(effects.Just(1), effects.Fail[int](errBoom)), toOutcome).
		Subscribe(context.Background(), r)

	assert.Equal(t, []outcome{{value: 1}, {err: errBoom}}, r.Values())
	assert.Equal(t, []effects.Completion{effects.Finished}, r.Completions())
}

func TestCatchToEffect_HoldsFailureUntilDemand(t *testing.T) {
	r := &recorder[outcome]{}
	effects.CatchToEffect(effects.Fail[int](errBoom), toOutcome).
		Subscribe(context.Background(), r)
	assert.Empty(t, r.Values())
	assert.Empty(t, r.Completions())

	r.Request(effects.Max(1))
	assert.Equal(t, []outcome{{err: errBoom}}, r.Values())
	assert.Equal(t, []effects.Completion{effects.Finished}, r.Completions())
}

func TestCatchToEffect_PassesSuccessThrough(t *testing.T) {
	r := &recorder[outcome]{initial: effects.Unlimited}
	effects.CatchToEffect(effects.Just(7), toOutcome).Subscribe(context.Background(), r)

	assert.Equal(t, []outcome{{value: 7}}, r.Values())
	assert.Equal(t, []effects.Completion{effects.Finished}, r.Completions())
}

func TestIgnore_SwallowsValuesAndFailures(t *testing.T) {
	r := &recorder[string]{initial: effects.Unlimited}
	effects.Ignore[string](effects.Merge(effects.Just(1), effects.Fail[int](errBoom))).
		Subscribe(context.Background(), r)

	assert.Empty(t, r.Values())
	assert.Equal(t, []effects.Completion{effects.Finished}, r.Completions())
}
