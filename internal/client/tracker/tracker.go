// Package tracker follows one try-on job from submission to a terminal
// status by polling the API.
//
// A Tracker moves through idle → watching → {resolved, errored}. Watch starts
// a polling goroutine driven by a ticker; Stop ends it. Results that arrive
// after Stop, or after a newer Watch, are discarded: every watch carries a
// generation number and updates are applied only while it is current.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/draped/internal/client/client"
	"github.com/dmitrijs2005/draped/internal/client/metrics"
	"github.com/dmitrijs2005/draped/internal/client/models"
	"github.com/dmitrijs2005/draped/internal/logging"
)

const DefaultInterval = 2500 * time.Millisecond

type State string

const (
	StateIdle     State = "idle"
	StateWatching State = "watching"
	StateResolved State = "resolved"
	StateErrored  State = "errored"
)

// API is the subset of the typed client the tracker polls.
type API interface {
	JobStatus(ctx context.Context, jobID string) (*models.JobStatusResponse, error)
	JobResult(ctx context.Context, jobID string) (*models.JobResultResponse, error)
	Origin() string
}

// Jobs receives job updates. state.Store satisfies it.
type Jobs interface {
	UpdateJobStatus(id string, patch models.JobPatch) bool
	Job(id string) (models.Job, bool)
}

type Option func(*Tracker)

// WithInterval sets the polling period.
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// WithFailureHandler installs a hook called once when a watched job ends
// failed or cancelled. The onTerminal callback of Watch only fires on
// success.
func WithFailureHandler(fn func(models.Job)) Option {
	return func(t *Tracker) { t.onFailure = fn }
}

type Tracker struct {
	api       API
	jobs      Jobs
	interval  time.Duration
	log       logging.Logger
	metrics   *metrics.Metrics
	onFailure func(models.Job)

	mu     sync.Mutex
	state  State
	jobID  string
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

func New(api API, jobs Jobs, opts ...Option) *Tracker {
	done := make(chan struct{})
	close(done)

	t := &Tracker{
		api:      api,
		jobs:     jobs,
		interval: DefaultInterval,
		log:      logging.Nop(),
		state:    StateIdle,
		done:     done,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Watch stops any running watch and starts polling jobID: once right away,
// then every interval until the job is terminal or Stop is called.
// onTerminal (may be nil) is called exactly once when the job completes.
// An empty jobID only stops.
func (t *Tracker) Watch(ctx context.Context, jobID string, onTerminal func(models.Job)) {
	t.Stop()
	if jobID == "" {
		return
	}

	wctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.state = StateWatching
	t.jobID = jobID
	t.cancel = cancel
	t.done = done
	t.mu.Unlock()

	t.log.Info(ctx, "watching job", "job_id", jobID)
	go t.run(wctx, gen, jobID, onTerminal, done)
}

// Stop cancels the running watch, if any. A watching tracker returns to
// idle; resolved and errored are kept so the outcome stays inspectable.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if t.state == StateWatching {
		t.state = StateIdle
	}
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// JobID is the job of the current or last watch.
func (t *Tracker) JobID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.jobID
}

// Done is closed when the polling goroutine of the latest watch exits.
func (t *Tracker) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

func (t *Tracker) run(ctx context.Context, gen uint64, jobID string, onTerminal func(models.Job), done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		if t.poll(ctx, gen, jobID, onTerminal) {
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			t.mu.Lock()
			if t.gen == gen && t.state == StateWatching {
				t.state = StateIdle
			}
			t.mu.Unlock()
			return
		}
	}
}

// poll performs one status query and reports whether polling is over.
func (t *Tracker) poll(ctx context.Context, gen uint64, jobID string, onTerminal func(models.Job)) bool {
	st, err := t.api.JobStatus(ctx, jobID)
	if err != nil {
		t.transient(ctx, jobID, "job status query failed", err)
		return false
	}
	t.metrics.ObservePoll(string(st.Status))

	switch st.Status {
	case models.JobStatusCompleted:
		return t.complete(ctx, gen, jobID, st, onTerminal)
	case models.JobStatusFailed:
		return t.fail(ctx, gen, jobID)
	case models.JobStatusCancelled:
		patch := models.JobPatch{Status: models.Ptr(models.JobStatusCancelled)}
		return t.finish(ctx, gen, jobID, patch, StateErrored, t.onFailure)
	default:
		t.apply(gen, jobID, models.JobPatch{Status: models.Ptr(st.Status), Progress: st.Progress})
		return false
	}
}

func (t *Tracker) complete(ctx context.Context, gen uint64, jobID string, st *models.JobStatusResponse, onTerminal func(models.Job)) bool {
	res, err := t.api.JobResult(ctx, jobID)
	if err != nil {
		t.transient(ctx, jobID, "job result query failed", err)
		return false
	}

	progress := st.Progress
	if progress == nil {
		progress = models.Ptr(100)
	}
	patch := models.JobPatch{
		Status:           models.Ptr(models.JobStatusCompleted),
		Progress:         progress,
		ProcessingTimeMs: res.ProcessingTimeMs,
	}
	if res.ResultURL != nil {
		patch.ResultImageURL = models.Ptr(client.ResolveResultURL(t.api.Origin(), *res.ResultURL))
	}
	return t.finish(ctx, gen, jobID, patch, StateResolved, onTerminal)
}

func (t *Tracker) fail(ctx context.Context, gen uint64, jobID string) bool {
	res, err := t.api.JobResult(ctx, jobID)
	if err != nil {
		t.transient(ctx, jobID, "job result query failed", err)
		return false
	}

	patch := models.JobPatch{Status: models.Ptr(models.JobStatusFailed), ErrorMessage: res.ErrorMessage}
	return t.finish(ctx, gen, jobID, patch, StateErrored, t.onFailure)
}

// finish applies the terminal patch and notifies, both only if gen is still
// current. It always ends polling.
func (t *Tracker) finish(ctx context.Context, gen uint64, jobID string, patch models.JobPatch, final State, notify func(models.Job)) bool {
	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return true
	}
	t.jobs.UpdateJobStatus(jobID, patch)
	job, ok := t.jobs.Job(jobID)
	if !ok {
		job = patch.Apply(models.Job{ID: jobID})
	}
	t.state = final
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.mu.Unlock()

	t.metrics.ObserveTerminal(string(job.Status))
	t.log.Info(ctx, "job finished", "job_id", jobID, "status", job.Status)

	if notify != nil {
		notify(job)
	}
	return true
}

func (t *Tracker) apply(gen uint64, jobID string, patch models.JobPatch) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		return
	}
	t.jobs.UpdateJobStatus(jobID, patch)
}

func (t *Tracker) transient(ctx context.Context, jobID, msg string, err error) {
	if ctx.Err() != nil {
		return
	}
	t.metrics.ObservePoll(metrics.ErrorLabel)
	t.log.Warn(ctx, msg, "job_id", jobID, "error", err)
}
