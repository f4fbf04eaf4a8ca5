package services

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/draped/internal/client/client"
	"github.com/dmitrijs2005/draped/internal/client/models"
	"github.com/dmitrijs2005/draped/internal/client/state"
	"github.com/dmitrijs2005/draped/internal/client/tracker"
	"github.com/dmitrijs2005/draped/internal/filex"
	"github.com/dmitrijs2005/draped/internal/logging"
	"github.com/dmitrijs2005/draped/internal/timex"
)

// JobAPI is the part of the typed client used for jobs and results.
type JobAPI interface {
	CreateJob(ctx context.Context, upload client.JobUpload) (*models.JobCreateResponse, error)
	ListJobs(ctx context.Context, page, pageSize int) (*models.JobPage, error)
	DeleteJob(ctx context.Context, jobID string) error
	ListResults(ctx context.Context, page, limit int) (*models.ResultPage, error)
	FavoriteResult(ctx context.Context, resultID string) error
	DeleteResult(ctx context.Context, resultID string) error
	Download(ctx context.Context, resultURL string, w io.Writer) (int64, error)
}

// Watcher follows one job at a time. tracker.Tracker satisfies it.
type Watcher interface {
	Watch(ctx context.Context, jobID string, onTerminal func(models.Job))
	Stop()
	State() tracker.State
	JobID() string
	Done() <-chan struct{}
}

// JobService defines the try-on workflow for the CLI.
//
// Contract:
//   - Submit: check the images and the user's credits, create the job,
//     record it as current and in the history, then watch it.
//   - Watch/Stop: (re)attach or detach the tracker.
//   - Current/Recent/Job: the locally tracked jobs.
//   - ListJobs, DeleteJob, ListResults, FavoriteResult, DeleteResult:
//     server-side history and gallery.
//   - Download: save a result image to a local file.
type JobService interface {
	Submit(ctx context.Context, photoPath, garmentPath string, onDone func(models.Job)) (*models.Job, error)
	Watch(ctx context.Context, jobID string, onDone func(models.Job))
	Stop()
	WatchState() (tracker.State, string)
	Current() (models.Job, bool)
	Recent() []models.Job
	Job(id string) (models.Job, bool)
	Reset()

	ListJobs(ctx context.Context, page, pageSize int) (*models.JobPage, error)
	DeleteJob(ctx context.Context, jobID string) error
	ListResults(ctx context.Context, page, limit int) (*models.ResultPage, error)
	FavoriteResult(ctx context.Context, resultID string) error
	DeleteResult(ctx context.Context, resultID string) error
	Download(ctx context.Context, resultURL, dest string) (int64, error)
}

type jobService struct {
	api     JobAPI
	session SessionStore
	jobs    *state.Store
	watcher Watcher
	log     logging.Logger
}

func NewJobService(api JobAPI, session SessionStore, jobs *state.Store, watcher Watcher, log logging.Logger) JobService {
	if log == nil {
		log = logging.Nop()
	}
	return &jobService{api: api, session: session, jobs: jobs, watcher: watcher, log: log}
}

func (s *jobService) checkCredits() error {
	sess := s.session.Read()
	if !sess.Authenticated {
		return ErrNotAuthenticated
	}
	if sess.User.CreditsRemaining <= 0 {
		return ErrNoCredits
	}
	return nil
}

// Submit runs the whole submission. The watch outlives ctx; use Stop to end
// it early.
func (s *jobService) Submit(ctx context.Context, photoPath, garmentPath string, onDone func(models.Job)) (*models.Job, error) {
	if err := ValidateImage("photo", photoPath); err != nil {
		return nil, err
	}
	if err := ValidateImage("garment", garmentPath); err != nil {
		return nil, err
	}
	if err := s.checkCredits(); err != nil {
		return nil, err
	}

	resp, err := s.api.CreateJob(ctx, client.JobUpload{UserImagePath: photoPath, GarmentImagePath: garmentPath})
	if err != nil {
		return nil, fmt.Errorf("create job error: %w", err)
	}

	status := resp.Status
	if status == "" {
		status = models.JobStatusPending
	}
	job := models.Job{
		ID:        resp.JobID,
		Status:    status,
		CreatedAt: timex.Now(),
	}
	if status.IsTerminal() {
		// Let the tracker perform the status and result queries that make the
		// job final; the create response carries neither URL nor timing.
		job.Status = models.JobStatusProcessing
	}

	s.jobs.SetCurrentJob(&job)
	s.jobs.AddJob(job)
	s.jobs.SetPreviews(photoPath, garmentPath)
	s.log.Info(ctx, "job submitted", "job_id", job.ID, "status", resp.Status)

	s.watcher.Watch(context.WithoutCancel(ctx), job.ID, onDone)
	return &job, nil
}

func (s *jobService) Watch(ctx context.Context, jobID string, onDone func(models.Job)) {
	if _, ok := s.jobs.Job(jobID); !ok && jobID != "" {
		j := models.Job{ID: jobID, Status: models.JobStatusPending}
		s.jobs.SetCurrentJob(&j)
	}
	s.watcher.Watch(context.WithoutCancel(ctx), jobID, onDone)
}

func (s *jobService) Stop() {
	s.watcher.Stop()
}

func (s *jobService) WatchState() (tracker.State, string) {
	return s.watcher.State(), s.watcher.JobID()
}

func (s *jobService) Current() (models.Job, bool) {
	return s.jobs.CurrentJob()
}

func (s *jobService) Recent() []models.Job {
	return s.jobs.RecentJobs()
}

func (s *jobService) Job(id string) (models.Job, bool) {
	return s.jobs.Job(id)
}

// Reset stops watching and clears the current job and previews.
func (s *jobService) Reset() {
	s.watcher.Stop()
	s.jobs.Reset()
}

func (s *jobService) ListJobs(ctx context.Context, page, pageSize int) (*models.JobPage, error) {
	if !s.session.Read().Authenticated {
		return nil, ErrNotAuthenticated
	}
	return s.api.ListJobs(ctx, page, pageSize)
}

func (s *jobService) DeleteJob(ctx context.Context, jobID string) error {
	if !s.session.Read().Authenticated {
		return ErrNotAuthenticated
	}
	if s.watcher.JobID() == jobID && s.watcher.State() == tracker.StateWatching {
		s.watcher.Stop()
	}
	return s.api.DeleteJob(ctx, jobID)
}

func (s *jobService) ListResults(ctx context.Context, page, limit int) (*models.ResultPage, error) {
	if !s.session.Read().Authenticated {
		return nil, ErrNotAuthenticated
	}
	return s.api.ListResults(ctx, page, limit)
}

func (s *jobService) FavoriteResult(ctx context.Context, resultID string) error {
	if !s.session.Read().Authenticated {
		return ErrNotAuthenticated
	}
	return s.api.FavoriteResult(ctx, resultID)
}

func (s *jobService) DeleteResult(ctx context.Context, resultID string) error {
	if !s.session.Read().Authenticated {
		return ErrNotAuthenticated
	}
	return s.api.DeleteResult(ctx, resultID)
}

// Download writes the image at resultURL to dest. A failed download leaves
// no file behind.
func (s *jobService) Download(ctx context.Context, resultURL, dest string) (int64, error) {
	if resultURL == "" {
		return 0, fmt.Errorf("%w: result url is required", ErrValidation)
	}
	if dest == "" {
		return 0, fmt.Errorf("%w: destination is required", ErrValidation)
	}

	n, err := filex.WriteFileFrom(dest, func(w io.Writer) (int64, error) {
		return s.api.Download(ctx, resultURL, w)
	})
	if err != nil {
		return 0, fmt.Errorf("download error: %w", err)
	}
	s.log.Info(ctx, "result downloaded", "dest", dest, "bytes", n)
	return n, nil
}
