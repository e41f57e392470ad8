package worker

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPoolRunsSubmittedJobs(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start(context.Background())

	var ran atomic.Int64
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		pool.Submit(func(context.Context) error {
			if ran.Add(1) == 4 {
				close(done)
			}
			return nil
		})
	}

	<-done
	pool.Stop()
	assert.Equal(t, int64(4), ran.Load())
}

func TestWorkerPoolStopDrainsAndReturns(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start(context.Background())

	var ran atomic.Int64
	pool.Submit(func(context.Context) error {
		ran.Add(1)
		return nil
	})

	pool.Stop() // closes the queue; the worker drains the buffered job first
	assert.Equal(t, int64(1), ran.Load())
}
