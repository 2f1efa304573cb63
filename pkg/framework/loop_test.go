package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
}

func (r *recorder) controller(name string, err error) Controller {
	return ControlFunc(func(cc ControlContext) error {
		r.calls = append(r.calls, name)
		return err
	})
}

type runFunc func(context.Context) error

func (f runFunc) Run(ctx context.Context) error { return f(ctx) }

func TestRunIterationOrder(t *testing.T) {
	var rec recorder
	l := NewLoop()
	l.AddController(PrLvPostProc, rec.controller("scan", nil))
	l.AddController(PrLvControl, rec.controller("dispatch", nil))
	l.AddController(PrLvSense, rec.controller("sense", nil))
	l.AddController(PrLvControl, rec.controller("dispatch2", nil))
	require.NoError(t, l.RunIteration(context.Background()))
	require.Equal(t, []string{"sense", "dispatch", "dispatch2", "scan"}, rec.calls)
}

func TestRunIterationErrors(t *testing.T) {
	var rec recorder
	l := NewLoop()
	l.AddController(PrLvControl, rec.controller("soft", errors.New("soft")))
	l.AddController(PrLvControl, rec.controller("next", nil))
	require.NoError(t, l.RunIteration(context.Background()))
	require.Equal(t, []string{"soft", "next"}, rec.calls)

	rec.calls = nil
	fatal := errors.New("gone")
	l.AddController(PrLvSense, rec.controller("fatal", Fatal(fatal)))
	err := l.RunIteration(context.Background())
	require.Error(t, err)
	require.Equal(t, fatal, err.(*FatalError).Err)
	require.Equal(t, []string{"fatal"}, rec.calls)
}

func TestIterationContext(t *testing.T) {
	var seen []uint64
	var levels []int
	l := NewLoop()
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		seen = append(seen, cc.Iteration())
		levels = append(levels, cc.PriorityLevel())
		require.False(t, cc.Time().IsZero())
		require.NotNil(t, cc.Context())
		return nil
	}))
	for i := 0; i < 3; i++ {
		require.NoError(t, l.RunIteration(context.Background()))
	}
	require.Equal(t, []uint64{1, 2, 3}, seen)
	require.Equal(t, []int{PrLvControl, PrLvControl, PrLvControl}, levels)
}

func TestLoopRunStopsOnFatal(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Millisecond
	var n int
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		if n++; n == 3 {
			return Fatal(errors.New("stop"))
		}
		return nil
	}))
	started := make(chan struct{})
	l.AddRunnable(runFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	err := l.Run(context.Background())
	require.IsType(t, &FatalError{}, err)
	require.Equal(t, 3, n)
	<-started
}

func TestLoopRunCancel(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cancel()
		return nil
	}))
	require.Equal(t, context.Canceled, l.Run(ctx))
}

func TestFatal(t *testing.T) {
	require.Nil(t, Fatal(nil))
	err := Fatal(errors.New("x"))
	require.Equal(t, "fatal: x", err.Error())
}

func TestRunnerWait(t *testing.T) {
	r := NewRunner()
	r.Go(
		NamedRun("ok", runFunc(func(context.Context) error { return nil })),
		NamedRun("bad", runFunc(func(context.Context) error { return errors.New("boom") })),
		runFunc(func(context.Context) error { return context.Canceled }),
	)
	err := r.Wait()
	require.Error(t, err)
	agg, ok := err.(*AggregatedError)
	require.True(t, ok)
	require.Len(t, agg.Errors, 1)
	require.Equal(t, "bad: boom", agg.Errors[0].Error())

	require.NoError(t, NewRunner().Wait())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	errs.Add(errors.New("a"), nil, errors.New("b"))
	require.Equal(t, "Multiple errors:\na\nb", errs.Aggregate().Error())
}
