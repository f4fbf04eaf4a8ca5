package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dmitrijs2005/draped/internal/client/models"
	"github.com/dmitrijs2005/draped/internal/common"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

var (
	authPath    = common.APIPrefix + "/auth"
	jobsPath    = common.APIPrefix + "/jobs"
	resultsPath = common.APIPrefix + "/results"
	userPath    = common.APIPrefix + "/user"
)

// HTTPClient implements Client over a Gateway.
type HTTPClient struct {
	gw            *Gateway
	uploadTimeout time.Duration
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(origin string, session SessionStore, opts ...Option) *HTTPClient {
	o := buildOptions(opts)
	return &HTTPClient{
		gw:            NewGateway(origin, session, opts...),
		uploadTimeout: o.uploadTimeout,
	}
}

func (c *HTTPClient) Origin() string {
	return c.gw.Origin()
}

func (c *HTTPClient) postAuth(ctx context.Context, path string, body any) (*models.TokenResponse, error) {
	req, err := NewJSONRequest(http.MethodPost, authPath+path, body)
	if err != nil {
		return nil, err
	}
	req.NoAuth = true

	var resp models.TokenResponse
	if err := c.gw.Do(ctx, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Login(ctx context.Context, r models.LoginRequest) (*models.TokenResponse, error) {
	return c.postAuth(ctx, "/login", r)
}

func (c *HTTPClient) Register(ctx context.Context, r models.RegisterRequest) (*models.TokenResponse, error) {
	return c.postAuth(ctx, "/register", r)
}

func (c *HTTPClient) GoogleLogin(ctx context.Context, credential string) (*models.TokenResponse, error) {
	return c.postAuth(ctx, "/google/login", models.GoogleLoginRequest{Credential: credential})
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	return c.gw.requestRefresh(ctx, refreshToken)
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.gw.Do(ctx, &Request{Method: http.MethodPost, Path: authPath + "/logout"}, nil)
}

func (c *HTTPClient) CreateJob(ctx context.Context, upload JobUpload) (*models.JobCreateResponse, error) {
	body, contentType, err := buildJobForm(upload)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Method:      http.MethodPost,
		Path:        jobsPath + "/create",
		Body:        body,
		ContentType: contentType,
		Timeout:     c.uploadTimeout,
	}

	var resp models.JobCreateResponse
	if err := c.gw.Do(ctx, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) JobStatus(ctx context.Context, jobID string) (*models.JobStatusResponse, error) {
	var resp models.JobStatusResponse
	req := &Request{Method: http.MethodGet, Path: jobsPath + "/" + url.PathEscape(jobID) + "/status"}
	if err := c.gw.Do(ctx, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) JobResult(ctx context.Context, jobID string) (*models.JobResultResponse, error) {
	var resp models.JobResultResponse
	req := &Request{Method: http.MethodGet, Path: jobsPath + "/" + url.PathEscape(jobID) + "/result"}
	if err := c.gw.Do(ctx, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ListJobs(ctx context.Context, page, pageSize int) (*models.JobPage, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var resp models.JobPage
	if err := c.gw.Do(ctx, &Request{Method: http.MethodGet, Path: jobsPath, Query: q}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) DeleteJob(ctx context.Context, jobID string) error {
	return c.gw.Do(ctx, &Request{Method: http.MethodDelete, Path: jobsPath + "/" + url.PathEscape(jobID)}, nil)
}

func (c *HTTPClient) ListResults(ctx context.Context, page, limit int) (*models.ResultPage, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var resp models.ResultPage
	if err := c.gw.Do(ctx, &Request{Method: http.MethodGet, Path: resultsPath, Query: q}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) FavoriteResult(ctx context.Context, resultID string) error {
	path := resultsPath + "/" + url.PathEscape(resultID) + "/favorite"
	return c.gw.Do(ctx, &Request{Method: http.MethodPost, Path: path}, nil)
}

func (c *HTTPClient) DeleteResult(ctx context.Context, resultID string) error {
	return c.gw.Do(ctx, &Request{Method: http.MethodDelete, Path: resultsPath + "/" + url.PathEscape(resultID)}, nil)
}

func (c *HTTPClient) Profile(ctx context.Context) (*models.Profile, error) {
	var resp models.Profile
	if err := c.gw.Do(ctx, &Request{Method: http.MethodGet, Path: userPath + "/profile"}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Quota(ctx context.Context) (*models.Quota, error) {
	var resp models.Quota
	if err := c.gw.Do(ctx, &Request{Method: http.MethodGet, Path: userPath + "/quota"}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// buildJobForm reads both images into a multipart body. Each part carries
// the detected MIME type so the server's content-type check sees the real
// image type.
func buildJobForm(upload JobUpload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := addFilePart(w, "user_image", upload.UserImagePath); err != nil {
		return nil, "", err
	}
	if err := addFilePart(w, "garment_image", upload.GarmentImagePath); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func addFilePart(w *multipart.Writer, field, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", field, err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filepath.Base(path)))
	h.Set("Content-Type", mimetype.Detect(data).String())

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s part: %w", field, err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s part: %w", field, err)
	}
	return nil
}
