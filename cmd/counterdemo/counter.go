package main

import (
	"context"
	"time"

	"github.com/on-the-ground/composable_go/effects"
)

type action int

const (
	increment action = iota
	decrement
	startTimer
	tick
	timerFinished
)

func (a action) String() string {
	switch a {
	case increment:
		return "increment"
	case decrement:
		return "decrement"
	case startTimer:
		return "startTimer"
	case tick:
		return "tick"
	case timerFinished:
		return "timerFinished"
	}
	return "unknown"
}

type counter struct {
	Count   int
	Ticks   int
	Running bool
	// Completed counts finished timer runs.
	Completed int
}

type timerEnv struct {
	ticks    int
	interval time.Duration
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func timer(env timerEnv) effects.Effect[action] {
	steps := make([]effects.Effect[action], 0, env.ticks+1)
	for range env.ticks {
		steps = append(steps, effects.Task(func(ctx context.Context) (action, error) {
			return tick, sleep(ctx, env.interval)
		}))
	}
	steps = append(steps, effects.Just(timerFinished))
	return effects.Concatenate(steps...)
}

func reduceCounter(s *counter, a action, env timerEnv) effects.Effect[action] {
	switch a {
	case increment:
		s.Count++
	case decrement:
		s.Count--
	case startTimer:
		if s.Running {
			break
		}
		s.Running = true
		return timer(env)
	case tick:
		s.Count++
		s.Ticks++
	case timerFinished:
		s.Running = false
		s.Completed++
	}
	return effects.None[action]()
}
