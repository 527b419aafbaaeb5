package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Swind/go-thread/config"
	"github.com/Swind/go-thread/core"
	"github.com/Swind/go-thread/thisthread"
	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the host's thread facts and the resolved configuration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hardware_concurrency: %d\n", core.HardwareConcurrency())
			fmt.Fprintf(out, "current_thread: %v\n", thisthread.GetID())
			fmt.Fprintf(out, "layout_compatible: %t\n", core.LayoutCompatible())

			data, err := config.Marshal(a.cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "---\n%s", data)
			return nil
		},
	}
}

func newSpawnCmd(a *app) *cobra.Command {
	var (
		count  int
		work   time.Duration
		detach bool
	)

	cmd := &cobra.Command{
		Use:   "spawn",
		Short: "Start threads that each sleep, then join or detach them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}
			out := cmd.OutOrStdout()

			var wg sync.WaitGroup
			body := func(wg *sync.WaitGroup, d time.Duration) {
				defer wg.Done()
				thisthread.SleepFor(d)
			}

			threads := make([]*core.Thread, 0, count)
			var firstErr error
			failed := 0
			for i := 0; i < count; i++ {
				wg.Add(1)
				th, err := a.spawner.Spawn(body, core.Ref(&wg), work)
				if err != nil {
					wg.Done()
					failed++
					if firstErr == nil {
						firstErr = err
					}
					fmt.Fprintf(out, "thread %d: %v\n", i, err)
					continue
				}
				fmt.Fprintf(out, "thread %d: %v\n", i, th.ID())
				threads = append(threads, th)
			}

			for _, th := range threads {
				var err error
				if detach {
					err = th.Detach()
				} else {
					err = th.Join()
				}
				if err != nil {
					return err
				}
			}
			// Detached threads still count as live until their callables return.
			wg.Wait()

			stats := a.spawner.Stats()
			fmt.Fprintf(out, "spawned=%d failed=%d joined=%d detached=%d\n",
				stats.Spawned, stats.Failed, stats.Joined, stats.Detached)

			if firstErr != nil {
				return fmt.Errorf("%d of %d threads could not be created: %w", failed, count, firstErr)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 4, "number of threads to start")
	cmd.Flags().DurationVar(&work, "work", 10*time.Millisecond, "how long each thread sleeps")
	cmd.Flags().BoolVar(&detach, "detach", false, "detach the threads instead of joining them")
	return cmd
}

func newSleepCmd(a *app) *cobra.Command {
	var (
		sleepFor time.Duration
		until    string
	)

	cmd := &cobra.Command{
		Use:   "sleep",
		Short: "Sleep on a new thread and report how long it actually slept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var deadline time.Time
			if until != "" {
				if cmd.Flags().Changed("for") {
					return errors.New("--for and --until are mutually exclusive")
				}
				t, err := time.Parse(time.RFC3339Nano, until)
				if err != nil {
					return fmt.Errorf("--until: %w", err)
				}
				deadline = t
			}

			var (
				slept time.Duration
				id    core.ID
			)
			th, err := a.spawner.Spawn(func(elapsed *time.Duration, self *core.ID) {
				*self = thisthread.GetID()
				begin := time.Now()
				if deadline.IsZero() {
					thisthread.SleepFor(sleepFor)
				} else {
					thisthread.SleepUntil(deadline)
				}
				*elapsed = time.Since(begin)
			}, core.Ref(&slept), core.Ref(&id))
			if err != nil {
				return err
			}
			if err := th.Join(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "slept %v on %v\n", slept, id)
			return nil
		},
	}

	cmd.Flags().DurationVar(&sleepFor, "for", 100*time.Millisecond, "relative sleep duration")
	cmd.Flags().StringVar(&until, "until", "", "absolute wake-up time (RFC 3339)")
	return cmd
}
