package renderer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineExecutor(t *testing.T) {
	ran := false
	err := NewInlineExecutor().Run(context.Background(), func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewInlineExecutor().Run(ctx, func() error {
		t.Fatal("must not run on a cancelled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForegroundExecutorRunsOnDrainingGoroutine(t *testing.T) {
	var wakes atomic.Int32
	exec := NewForegroundExecutor(WithQueueSize(4), WithWakeFunc(func() { wakes.Add(1) }))
	defer exec.Close()

	sentinel := errors.New("boom")
	var wg sync.WaitGroup
	results := make([]error, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = exec.Run(context.Background(), func() error {
				if i == 1 {
					return sentinel
				}
				return nil
			})
		}(i)
	}

	drained := 0
	deadline := time.Now().Add(2 * time.Second)
	for drained < 3 && time.Now().Before(deadline) {
		drained += exec.Drain()
		time.Sleep(time.Millisecond)
	}
	wg.Wait()

	assert.Equal(t, 3, drained)
	assert.Equal(t, int32(3), wakes.Load())
	assert.NoError(t, results[0])
	assert.ErrorIs(t, results[1], sentinel)
	assert.NoError(t, results[2])
}

func TestForegroundExecutorSkipsCancelledTasks(t *testing.T) {
	queued := make(chan struct{}, 1)
	exec := NewForegroundExecutor(WithWakeFunc(func() { queued <- struct{}{} }))
	defer exec.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- exec.Run(ctx, func() error {
			return errors.New("should not run")
		})
	}()

	<-queued
	cancel()
	assert.Equal(t, 1, exec.Drain())
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestForegroundExecutorClose(t *testing.T) {
	exec := NewForegroundExecutor()
	done := make(chan error, 1)
	go func() {
		done <- exec.Run(context.Background(), func() error { return nil })
	}()

	time.Sleep(10 * time.Millisecond)
	exec.Close()
	exec.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrExecutorClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	assert.ErrorIs(t, exec.Run(context.Background(), func() error { return nil }), ErrExecutorClosed)
}

func TestForegroundExecutorDrainSkipsTasksQueuedBeforeClose(t *testing.T) {
	exec := NewForegroundExecutor()
	var ran atomic.Bool
	done := make(chan error, 1)
	go func() {
		done <- exec.Run(context.Background(), func() error {
			ran.Store(true)
			return nil
		})
	}()

	time.Sleep(10 * time.Millisecond)
	exec.Close()
	require.ErrorIs(t, <-done, ErrExecutorClosed)

	assert.Zero(t, exec.Drain())
	assert.False(t, ran.Load(), "a task abandoned by Close never runs")
}
