package main

import (
	"context"
	"fmt"
	"time"

	"github.com/on-the-ground/composable_go/config"
	"github.com/on-the-ground/composable_go/effects/log"
	"github.com/on-the-ground/composable_go/effects/scheduler"
	"github.com/on-the-ground/composable_go/reducer"
	"github.com/on-the-ground/composable_go/store"
	"github.com/on-the-ground/composable_go/viewstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds the command's flags.
type RootOptions struct {
	ConfigPath string
	Ticks      int
	Interval   time.Duration
	Timeout    time.Duration
}

// NewRootCommand creates the counterdemo command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "counterdemo",
		Short: "Run a timer-driven counter store",
		Long: `Start a counter store, run a timer effect that ticks the counter,
and print the count every time it changes.

Example:
  counterdemo --ticks 5 --interval 200ms
  counterdemo --config ./composable.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.Flags().IntVar(&opts.Ticks, "ticks", 3, "number of timer ticks")
	cmd.Flags().DurationVar(&opts.Interval, "interval", time.Second, "time between ticks")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", time.Minute, "give up after this long")

	return cmd
}

func run(cmd *cobra.Command, opts *RootOptions) error {
	if opts.Ticks < 0 {
		return fmt.Errorf("invalid ticks %d: must not be negative", opts.Ticks)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	logger, err := log.New(cfg.LogLevel())
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync(logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	queue := scheduler.New(ctx, cfg.Scheduler.BufferSize, cfg.Scheduler.NumWorkers, logger)
	defer queue.Close()

	s := store.New(ctx, counter{},
		reducer.Reducer[counter, action, timerEnv](reduceCounter),
		timerEnv{ticks: opts.Ticks, interval: opts.Interval},
		store.WithLogger(logger),
		store.WithConfig(cfg),
		store.WithScheduler(queue),
	)
	defer s.Close()

	vs := viewstore.NewComparable(s)
	defer vs.Close()

	out := cmd.OutOrStdout()
	counts := viewstore.Field(vs, func(c counter) int { return c.Count }).Subscribe(func(n int) {
		fmt.Fprintf(out, "count: %d\n", n)
	})
	defer counts.Cancel()

	finished := make(chan counter, 1)
	done := vs.Publisher().Subscribe(func(c counter) {
		if c.Completed == 0 {
			return
		}
		select {
		case finished <- c:
		default:
		}
	})
	defer done.Cancel()

	logger.Info("starting timer",
		zap.Int("ticks", opts.Ticks),
		zap.Duration("interval", opts.Interval),
		zap.String("scheduler_id", queue.ID()),
	)
	vs.Send(startTimer)

	select {
	case c := <-finished:
		fmt.Fprintf(out, "timer finished after %d ticks\n", c.Ticks)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timer did not finish: %w", ctx.Err())
	}
}
