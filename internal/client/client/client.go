package client

import (
	"context"

	"github.com/dmitrijs2005/draped/internal/client/models"
)

// JobUpload names the two local images of a try-on request.
type JobUpload struct {
	UserImagePath    string
	GarmentImagePath string
}

// Client is the typed Draped API.
type Client interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.TokenResponse, error)
	GoogleLogin(ctx context.Context, credential string) (*models.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context) error

	CreateJob(ctx context.Context, upload JobUpload) (*models.JobCreateResponse, error)
	JobStatus(ctx context.Context, jobID string) (*models.JobStatusResponse, error)
	JobResult(ctx context.Context, jobID string) (*models.JobResultResponse, error)
	ListJobs(ctx context.Context, page, pageSize int) (*models.JobPage, error)
	DeleteJob(ctx context.Context, jobID string) error

	ListResults(ctx context.Context, page, limit int) (*models.ResultPage, error)
	FavoriteResult(ctx context.Context, resultID string) error
	DeleteResult(ctx context.Context, resultID string) error

	Profile(ctx context.Context) (*models.Profile, error)
	Quota(ctx context.Context) (*models.Quota, error)

	// Origin is the API origin relative result URLs resolve against.
	Origin() string
}
