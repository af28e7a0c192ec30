package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stepResult records which job produced it
type stepResult struct {
	id  int
	err error
}

func (r *stepResult) GetError() error { return r.err }

// stepJob sleeps for delay (or until ctx is done) and reports its id
type stepJob struct {
	id      int
	delay   time.Duration
	fail    bool
	running *atomic.Int32
	peak    *atomic.Int32
	ran     *atomic.Int32
	started chan struct{}
}

func (j *stepJob) Execute(ctx context.Context) Result {
	if j.ran != nil {
		j.ran.Add(1)
	}
	if j.running != nil {
		n := j.running.Add(1)
		defer j.running.Add(-1)
		for {
			old := j.peak.Load()
			if n <= old || j.peak.CompareAndSwap(old, n) {
				break
			}
		}
	}
	if j.started != nil {
		close(j.started)
	}

	select {
	case <-time.After(j.delay):
	case <-ctx.Done():
		return &stepResult{id: j.id, err: ctx.Err()}
	}
	if j.fail {
		return &stepResult{id: j.id, err: errors.New("step failed")}
	}
	return &stepResult{id: j.id}
}

func ids(results []Result) []int {
	out := make([]int, 0, len(results))
	for _, r := range results {
		out = append(out, r.(*stepResult).id)
	}
	return out
}

func TestNewPool_WorkerFloor(t *testing.T) {
	for in, want := range map[int]int{5: 5, 0: 1, -3: 1} {
		p := NewPool(context.Background(), in)
		assert.Equal(t, want, p.workers, "NewPool(%d)", in)
		p.Shutdown()
	}
}

func TestPool_ResultsInSubmissionOrder(t *testing.T) {
	pool := NewPool(context.Background(), 4)
	pool.Start()

	// later jobs finish first
	for i := 0; i < 4; i++ {
		require.True(t, pool.Submit(&stepJob{id: i, delay: time.Duration(4-i) * 5 * time.Millisecond}))
	}

	assert.Equal(t, []int{0, 1, 2, 3}, ids(pool.Wait()))
}

func TestRunAll_BoundedConcurrency(t *testing.T) {
	const workers, total = 3, 24
	var running, peak, ran atomic.Int32

	jobs := make([]Job, total)
	for i := range jobs {
		jobs[i] = &stepJob{id: i, delay: 5 * time.Millisecond, running: &running, peak: &peak, ran: &ran}
	}

	results := RunAll(context.Background(), workers, jobs)

	require.Len(t, results, total)
	assert.Equal(t, int32(total), ran.Load())
	assert.LessOrEqual(t, peak.Load(), int32(workers))
	for i, id := range ids(results) {
		assert.Equal(t, i, id)
	}
}

func TestRunAll_AllConcurrent(t *testing.T) {
	var running, peak atomic.Int32
	jobs := make([]Job, 6)
	for i := range jobs {
		jobs[i] = &stepJob{id: i, delay: 50 * time.Millisecond, running: &running, peak: &peak}
	}

	RunAll(context.Background(), len(jobs), jobs)

	assert.Equal(t, int32(len(jobs)), peak.Load(), "one worker per job runs them all at once")
}

func TestRunAll_Empty(t *testing.T) {
	assert.Nil(t, RunAll(context.Background(), 4, nil))
}

func TestRunAll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	jobs := []Job{
		&stepJob{id: 0, delay: time.Second},
		&stepJob{id: 1, delay: time.Second},
	}

	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	RunAll(ctx, 2, jobs)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "cancellation cuts jobs short")
}

func TestRunAll_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	jobs := []Job{&stepJob{id: 0, ran: &ran}, &stepJob{id: 1, ran: &ran}, &stepJob{id: 2, ran: &ran}}

	results := RunAll(ctx, 2, jobs)

	require.Len(t, results, len(jobs), "one entry per job even when none ran")
	for _, r := range results {
		assert.Nil(t, r)
	}
	assert.Equal(t, int32(0), ran.Load())
}

func TestPool_Errors(t *testing.T) {
	results := RunAll(context.Background(), 2, []Job{
		&stepJob{id: 0, fail: true},
		&stepJob{id: 1},
	})

	require.Len(t, results, 2)
	assert.Error(t, results[0].GetError())
	assert.NoError(t, results[1].GetError())
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	accepted := make(chan bool, 1)
	go func() { accepted <- pool.Submit(&stepJob{}) }()

	select {
	case ok := <-accepted:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestPool_ShutdownInterruptsRunningJob(t *testing.T) {
	pool := NewPool(context.Background(), 1)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(&stepJob{delay: 5 * time.Second, started: started})
	<-started

	stopped := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not interrupt the running job")
	}
}
