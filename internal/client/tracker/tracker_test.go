package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/draped/internal/client/client"
	"github.com/dmitrijs2005/draped/internal/client/metrics"
	"github.com/dmitrijs2005/draped/internal/client/models"
	"github.com/dmitrijs2005/draped/internal/client/state"
)

const testInterval = 5 * time.Millisecond

type step struct {
	status   models.JobStatus
	progress *int
	err      error
}

// fakeAPI replays steps in order; the last step repeats.
type fakeAPI struct {
	mu          sync.Mutex
	steps       []step
	statusCalls int
	resultCalls int
	resultFails int
	result      models.JobResultResponse
	release     chan struct{}
}

func (f *fakeAPI) JobStatus(_ context.Context, jobID string) (*models.JobStatusResponse, error) {
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := min(f.statusCalls, len(f.steps)-1)
	f.statusCalls++
	s := f.steps[i]
	if s.err != nil {
		return nil, s.err
	}
	return &models.JobStatusResponse{JobID: jobID, Status: s.status, Progress: s.progress}, nil
}

func (f *fakeAPI) JobResult(_ context.Context, jobID string) (*models.JobResultResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resultCalls++
	if f.resultCalls <= f.resultFails {
		return nil, client.ErrUnavailable
	}
	r := f.result
	r.JobID = jobID
	return &r, nil
}

func (f *fakeAPI) Origin() string { return "http://localhost:8081" }

func (f *fakeAPI) calls() (status, result int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls, f.resultCalls
}

func seeded(id string) *state.Store {
	s := state.NewStore()
	j := models.Job{ID: id, Status: models.JobStatusPending}
	s.SetCurrentJob(&j)
	s.AddJob(j)
	return s
}

func waitDone(t *testing.T, tr *Tracker) {
	t.Helper()
	select {
	case <-tr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("tracker did not finish")
	}
}

type callbacks struct {
	mu       sync.Mutex
	terminal []models.Job
	failures []models.Job
}

func (c *callbacks) onTerminal(j models.Job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terminal = append(c.terminal, j)
}

func (c *callbacks) onFailure(j models.Job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, j)
}

func (c *callbacks) counts() (terminal, failures int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.terminal), len(c.failures)
}

func TestTracker_CompletesOnceWithAbsoluteURL(t *testing.T) {
	api := &fakeAPI{
		steps: []step{
			{status: models.JobStatusPending},
			{status: models.JobStatusProcessing, progress: models.Ptr(50)},
			{status: models.JobStatusCompleted, progress: models.Ptr(100)},
		},
		result: models.JobResultResponse{
			Status:           models.JobStatusCompleted,
			ResultURL:        models.Ptr("/files/r.png"),
			ProcessingTimeMs: models.Ptr(int64(4200)),
		},
	}
	jobs := seeded("j1")
	cb := &callbacks{}
	reg := prometheus.NewRegistry()
	tr := New(api, jobs, WithInterval(testInterval), WithFailureHandler(cb.onFailure), WithMetrics(metrics.New(reg)))

	tr.Watch(context.Background(), "j1", cb.onTerminal)
	waitDone(t, tr)

	assert.Equal(t, StateResolved, tr.State())
	terminal, failures := cb.counts()
	require.Equal(t, 1, terminal)
	assert.Equal(t, 0, failures)

	got := cb.terminal[0]
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Equal(t, "http://localhost:8081/files/r.png", got.ResultImageURL)
	require.NotNil(t, got.ProcessingTimeMs)
	assert.Equal(t, int64(4200), *got.ProcessingTimeMs)

	cur, ok := jobs.CurrentJob()
	require.True(t, ok)
	assert.Equal(t, got, cur)

	status, result := api.calls()
	assert.Equal(t, 3, status)
	assert.Equal(t, 1, result)

	time.Sleep(5 * testInterval)
	status2, result2 := api.calls()
	assert.Equal(t, status, status2, "no polling after termination")
	assert.Equal(t, result, result2)

	samples, err := metrics.Snapshot(reg)
	require.NoError(t, err)
	assert.Contains(t, samples, metrics.Sample{Name: "draped_client_jobs_terminal_total", Labels: "status=completed", Value: 1})
	assert.Contains(t, samples, metrics.Sample{Name: "draped_client_job_polls_total", Labels: "status=processing", Value: 1})
}

func TestTracker_FailedSetsErrorAndSkipsOnTerminal(t *testing.T) {
	api := &fakeAPI{
		steps:  []step{{status: models.JobStatusFailed}},
		result: models.JobResultResponse{Status: models.JobStatusFailed, ErrorMessage: models.Ptr("GPU out of memory")},
	}
	jobs := seeded("j1")
	cb := &callbacks{}
	tr := New(api, jobs, WithInterval(testInterval), WithFailureHandler(cb.onFailure))

	tr.Watch(context.Background(), "j1", cb.onTerminal)
	waitDone(t, tr)

	assert.Equal(t, StateErrored, tr.State())
	terminal, failures := cb.counts()
	assert.Equal(t, 0, terminal)
	require.Equal(t, 1, failures)
	assert.Equal(t, "GPU out of memory", cb.failures[0].ErrorMessage)

	got, ok := jobs.Job("j1")
	require.True(t, ok)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, "GPU out of memory", got.ErrorMessage)
}

func TestTracker_CancelledIsTerminal(t *testing.T) {
	api := &fakeAPI{steps: []step{{status: models.JobStatusProcessing}, {status: models.JobStatusCancelled}}}
	jobs := seeded("j1")
	cb := &callbacks{}
	tr := New(api, jobs, WithInterval(testInterval), WithFailureHandler(cb.onFailure))

	tr.Watch(context.Background(), "j1", cb.onTerminal)
	waitDone(t, tr)

	assert.Equal(t, StateErrored, tr.State())
	_, result := api.calls()
	assert.Equal(t, 0, result)
	terminal, failures := cb.counts()
	assert.Equal(t, 0, terminal)
	assert.Equal(t, 1, failures)

	got, _ := jobs.Job("j1")
	assert.Equal(t, models.JobStatusCancelled, got.Status)
}

func TestTracker_TransientErrorsKeepPolling(t *testing.T) {
	api := &fakeAPI{
		steps: []step{
			{err: client.ErrTimeout},
			{err: errors.New("connection reset")},
			{status: models.JobStatusCompleted},
		},
		resultFails: 1,
		result:      models.JobResultResponse{Status: models.JobStatusCompleted, ResultURL: models.Ptr("https://cdn.example.com/r.png")},
	}
	jobs := seeded("j1")
	cb := &callbacks{}
	tr := New(api, jobs, WithInterval(testInterval))

	tr.Watch(context.Background(), "j1", cb.onTerminal)
	waitDone(t, tr)

	assert.Equal(t, StateResolved, tr.State())
	status, result := api.calls()
	assert.Equal(t, 4, status, "a failed result fetch re-queries status on the next tick")
	assert.Equal(t, 2, result)

	terminal, _ := cb.counts()
	require.Equal(t, 1, terminal)
	assert.Equal(t, "https://cdn.example.com/r.png", cb.terminal[0].ResultImageURL)
	require.NotNil(t, cb.terminal[0].Progress)
	assert.Equal(t, 100, *cb.terminal[0].Progress)
}

func TestTracker_StopReturnsToIdleAndHaltsPolling(t *testing.T) {
	api := &fakeAPI{steps: []step{{status: models.JobStatusProcessing, progress: models.Ptr(10)}}}
	jobs := seeded("j1")
	tr := New(api, jobs, WithInterval(testInterval))

	tr.Watch(context.Background(), "j1", nil)
	assert.Equal(t, StateWatching, tr.State())
	assert.Equal(t, "j1", tr.JobID())

	require.Eventually(t, func() bool {
		s, _ := api.calls()
		return s >= 2
	}, time.Second, testInterval)

	tr.Stop()
	tr.Stop()
	waitDone(t, tr)
	assert.Equal(t, StateIdle, tr.State())

	before, _ := api.calls()
	time.Sleep(5 * testInterval)
	after, _ := api.calls()
	assert.Equal(t, before, after)

	got, _ := jobs.Job("j1")
	assert.Equal(t, models.JobStatusProcessing, got.Status)
}

func TestTracker_StopKeepsTerminalState(t *testing.T) {
	api := &fakeAPI{
		steps:  []step{{status: models.JobStatusFailed}},
		result: models.JobResultResponse{ErrorMessage: models.Ptr("bad input")},
	}
	tr := New(api, seeded("j1"), WithInterval(testInterval))

	tr.Watch(context.Background(), "j1", nil)
	waitDone(t, tr)
	tr.Stop()

	assert.Equal(t, StateErrored, tr.State())
}

func TestTracker_ResultAfterStopIsDiscarded(t *testing.T) {
	api := &fakeAPI{
		steps:   []step{{status: models.JobStatusCompleted}},
		result:  models.JobResultResponse{ResultURL: models.Ptr("/files/r.png")},
		release: make(chan struct{}),
	}
	jobs := seeded("j1")
	cb := &callbacks{}
	tr := New(api, jobs, WithInterval(testInterval), WithFailureHandler(cb.onFailure))

	tr.Watch(context.Background(), "j1", cb.onTerminal)
	tr.Stop()
	close(api.release)
	waitDone(t, tr)

	assert.Equal(t, StateIdle, tr.State())
	terminal, failures := cb.counts()
	assert.Equal(t, 0, terminal)
	assert.Equal(t, 0, failures)

	got, _ := jobs.Job("j1")
	assert.Equal(t, models.JobStatusPending, got.Status)
	assert.Empty(t, got.ResultImageURL)
}

func TestTracker_WatchReplacesPreviousWatch(t *testing.T) {
	api := &fakeAPI{steps: []step{{status: models.JobStatusProcessing}}}
	jobs := seeded("j1")
	tr := New(api, jobs, WithInterval(testInterval))

	tr.Watch(context.Background(), "j1", nil)
	first := tr.Done()

	tr.Watch(context.Background(), "j2", nil)
	select {
	case <-first:
	case <-time.After(time.Second):
		t.Fatal("previous watch still running")
	}

	assert.Equal(t, "j2", tr.JobID())
	assert.Equal(t, StateWatching, tr.State())

	tr.Stop()
	waitDone(t, tr)
}

func TestTracker_EmptyIDOnlyStops(t *testing.T) {
	api := &fakeAPI{steps: []step{{status: models.JobStatusProcessing}}}
	tr := New(api, seeded("j1"), WithInterval(testInterval))

	tr.Watch(context.Background(), "j1", nil)
	tr.Watch(context.Background(), "", nil)
	waitDone(t, tr)

	assert.Equal(t, StateIdle, tr.State())
	assert.Equal(t, "j1", tr.JobID())
}

func TestTracker_ParentContextCancelEndsWatch(t *testing.T) {
	api := &fakeAPI{steps: []step{{status: models.JobStatusProcessing}}}
	tr := New(api, seeded("j1"), WithInterval(testInterval))

	ctx, cancel := context.WithCancel(context.Background())
	tr.Watch(ctx, "j1", nil)
	cancel()
	waitDone(t, tr)

	assert.Equal(t, StateIdle, tr.State())
}

func TestTracker_NewIsIdleAndDone(t *testing.T) {
	tr := New(&fakeAPI{}, state.NewStore())
	assert.Equal(t, StateIdle, tr.State())
	waitDone(t, tr)
}
