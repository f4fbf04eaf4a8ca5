package models

import "github.com/dmitrijs2005/draped/internal/timex"

// JobStatus is the server-side lifecycle state of a try-on job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further transition can follow s.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Job is one try-on generation request as the client tracks it.
type Job struct {
	ID               string          `json:"id"`
	Status           JobStatus       `json:"status"`
	Progress         *int            `json:"progress,omitempty"`
	UserImageURL     string          `json:"user_image_url,omitempty"`
	GarmentImageURL  string          `json:"garment_image_url,omitempty"`
	ResultImageURL   string          `json:"result_image_url,omitempty"`
	ProcessingTimeMs *int64          `json:"processing_time_ms,omitempty"`
	ErrorMessage     string          `json:"error_message,omitempty"`
	CreatedAt        timex.Timestamp `json:"created_at"`
}

// JobPatch is a shallow update; nil fields are left untouched.
type JobPatch struct {
	Status           *JobStatus
	Progress         *int
	ResultImageURL   *string
	ProcessingTimeMs *int64
	ErrorMessage     *string
}

// Apply returns a copy of j with the non-nil patch fields set.
func (p JobPatch) Apply(j Job) Job {
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.Progress != nil {
		v := *p.Progress
		j.Progress = &v
	}
	if p.ResultImageURL != nil {
		j.ResultImageURL = *p.ResultImageURL
	}
	if p.ProcessingTimeMs != nil {
		v := *p.ProcessingTimeMs
		j.ProcessingTimeMs = &v
	}
	if p.ErrorMessage != nil {
		j.ErrorMessage = *p.ErrorMessage
	}
	return j
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T {
	return &v
}

type JobCreateResponse struct {
	JobID   string    `json:"job_id"`
	Status  JobStatus `json:"status"`
	Message string    `json:"message"`
}

type JobStatusResponse struct {
	JobID                  string          `json:"job_id"`
	Status                 JobStatus       `json:"status"`
	Progress               *int            `json:"progress"`
	EstimatedTimeRemaining *int            `json:"estimated_time_remaining"`
	CreatedAt              timex.Timestamp `json:"created_at"`
	StartedAt              timex.Timestamp `json:"started_at"`
	CompletedAt            timex.Timestamp `json:"completed_at"`
}

type JobResultResponse struct {
	JobID            string    `json:"job_id"`
	Status           JobStatus `json:"status"`
	ResultURL        *string   `json:"result_url"`
	ThumbnailURL     *string   `json:"thumbnail_url"`
	ProcessingTimeMs *int64    `json:"processing_time_ms"`
	ErrorMessage     *string   `json:"error_message"`
}

type JobPage struct {
	Jobs     []Job `json:"jobs"`
	Total    int   `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}
