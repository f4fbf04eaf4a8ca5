package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/draped/internal/client/config"
	"github.com/dmitrijs2005/draped/internal/client/models"
	"github.com/dmitrijs2005/draped/internal/client/tracker"
)

// ---- fake auth service ----

type fakeAuth struct {
	session models.Session

	user    *models.User
	err     error
	profile *models.Profile
	quota   *models.Quota

	loginEmail string
	loginPass  []byte
	regName    string
	regEmail   string
	credential string
	logouts    int
}

func (f *fakeAuth) Login(_ context.Context, email string, password []byte) (*models.User, error) {
	f.loginEmail, f.loginPass = email, append([]byte(nil), password...)
	return f.signIn()
}

func (f *fakeAuth) Register(_ context.Context, name, email string, password []byte) (*models.User, error) {
	f.regName, f.regEmail = name, email
	return f.signIn()
}

func (f *fakeAuth) GoogleLogin(_ context.Context, credential string) (*models.User, error) {
	f.credential = credential
	return f.signIn()
}

func (f *fakeAuth) signIn() (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.session = models.Session{AccessToken: "A", RefreshToken: "R", User: f.user, Authenticated: true}
	return f.user, nil
}

func (f *fakeAuth) Logout(context.Context) error {
	f.logouts++
	f.session = models.Session{}
	return nil
}

func (f *fakeAuth) Session() models.Session { return f.session }

func (f *fakeAuth) Profile(context.Context) (*models.Profile, error) { return f.profile, f.err }
func (f *fakeAuth) Quota(context.Context) (*models.Quota, error)     { return f.quota, f.err }

// ---- fake job service ----

type fakeJobs struct {
	current *models.Job
	recent  []models.Job
	state   tracker.State
	watchID string

	submitRet *models.Job
	err       error
	jobPage   *models.JobPage
	resPage   *models.ResultPage

	submitted  []string
	onDone     func(models.Job)
	watched    string
	stops      int
	resets     int
	listPage   int
	deletedJob string
	favorited  string
	deletedRes string
	dlURL      string
	dlDest     string
}

func (f *fakeJobs) Submit(_ context.Context, photo, garment string, onDone func(models.Job)) (*models.Job, error) {
	f.submitted = []string{photo, garment}
	f.onDone = onDone
	return f.submitRet, f.err
}

func (f *fakeJobs) Watch(_ context.Context, jobID string, onDone func(models.Job)) {
	f.watched, f.onDone = jobID, onDone
	f.state, f.watchID = tracker.StateWatching, jobID
}

func (f *fakeJobs) Stop() {
	f.stops++
	if f.state == tracker.StateWatching {
		f.state = tracker.StateIdle
	}
}

func (f *fakeJobs) WatchState() (tracker.State, string) { return f.state, f.watchID }

func (f *fakeJobs) Current() (models.Job, bool) {
	if f.current == nil {
		return models.Job{}, false
	}
	return *f.current, true
}

func (f *fakeJobs) Recent() []models.Job { return f.recent }

func (f *fakeJobs) Job(id string) (models.Job, bool) {
	for _, j := range f.recent {
		if j.ID == id {
			return j, true
		}
	}
	return models.Job{}, false
}

func (f *fakeJobs) Reset() {
	f.resets++
	f.current = nil
}

func (f *fakeJobs) ListJobs(_ context.Context, page, _ int) (*models.JobPage, error) {
	f.listPage = page
	return f.jobPage, f.err
}

func (f *fakeJobs) DeleteJob(_ context.Context, jobID string) error {
	f.deletedJob = jobID
	return f.err
}

func (f *fakeJobs) ListResults(_ context.Context, page, _ int) (*models.ResultPage, error) {
	f.listPage = page
	return f.resPage, f.err
}

func (f *fakeJobs) FavoriteResult(_ context.Context, id string) error {
	f.favorited = id
	return f.err
}

func (f *fakeJobs) DeleteResult(_ context.Context, id string) error {
	f.deletedRes = id
	return f.err
}

func (f *fakeJobs) Download(_ context.Context, u, dest string) (int64, error) {
	f.dlURL, f.dlDest = u, dest
	if f.err != nil {
		return 0, f.err
	}
	return 42, nil
}

// ---- helpers ----

func newTestApp(t *testing.T, as *fakeAuth, js *fakeJobs) (*App, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	a := NewApp(&config.Config{APIOrigin: "http://api.test"}, as, js, nil, nil, NewConsole(&buf))
	return a, &buf
}

func stubInputs(t *testing.T, lines []string, password []byte) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(lines) == 0 {
			return "", io.EOF
		}
		l := lines[0]
		lines = lines[1:]
		return strings.TrimSpace(l), nil
	}
	getPassword = func(_ io.Writer) ([]byte, error) { return password, nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

func testUser() *models.User {
	name := "Ada"
	return &models.User{ID: "u1", Email: "ada@example.com", Name: &name, Plan: models.PlanPro, CreditsRemaining: 7}
}
