package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingJob struct {
	name  string
	count atomic.Int32
	err   error
}

func (j *countingJob) Name() string { return j.name }
func (j *countingJob) Run(ctx context.Context) error {
	j.count.Add(1)
	return j.err
}

func TestScheduler_RunsJobOnInterval(t *testing.T) {
	s := New(nil)
	job := &countingJob{name: "tick"}
	s.Add(job, 10*time.Millisecond, false)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(35 * time.Millisecond)
	cancel()
	s.Stop()

	assert.GreaterOrEqual(t, job.count.Load(), int32(2))
}

func TestScheduler_RunOnStartFiresImmediately(t *testing.T) {
	s := New(nil)
	job := &countingJob{name: "immediate"}
	s.Add(job, time.Hour, true)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()
	s.Stop()

	assert.Equal(t, int32(1), job.count.Load())
}

func TestScheduler_TriggerRunsOutOfCycle(t *testing.T) {
	s := New(nil)
	job := &countingJob{name: "triggered"}
	s.Add(job, time.Hour, false)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	s.Trigger("triggered")
	time.Sleep(10 * time.Millisecond)
	cancel()
	s.Stop()

	assert.Equal(t, int32(1), job.count.Load())
}

func TestScheduler_TriggerUnknownJobIsNoop(t *testing.T) {
	s := New(nil)
	assert.NotPanics(t, func() { s.Trigger("ghost") })
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := New(nil)
	s.Add(&countingJob{name: "a"}, time.Hour, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	s.Stop()
	assert.NotPanics(t, s.Stop)
}

func TestScheduler_JobFailureDoesNotStopOtherTicks(t *testing.T) {
	s := New(nil)
	job := &countingJob{name: "flaky", err: context.DeadlineExceeded}
	s.Add(job, 10*time.Millisecond, false)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(25 * time.Millisecond)
	cancel()
	s.Stop()

	assert.GreaterOrEqual(t, job.count.Load(), int32(2))
}
