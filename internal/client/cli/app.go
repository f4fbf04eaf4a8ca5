package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/draped/internal/client/client"
	"github.com/dmitrijs2005/draped/internal/client/config"
	"github.com/dmitrijs2005/draped/internal/client/models"
	"github.com/dmitrijs2005/draped/internal/client/services"
	"github.com/dmitrijs2005/draped/internal/client/tracker"
	"github.com/dmitrijs2005/draped/internal/logging"
)

// Console serializes writes to the terminal. Tracker callbacks print from
// their own goroutine while the REPL is reading input.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}

func (c *Console) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c, format, args...)
}

// JobFinished reports a job that reached a terminal status. It is used both
// as the tracker completion callback and as its failure handler.
func (c *Console) JobFinished(j models.Job) {
	switch j.Status {
	case models.JobStatusCompleted:
		c.Printf("\njob %s completed: %s\n", j.ID, j.ResultImageURL)
	case models.JobStatusCancelled:
		c.Printf("\njob %s was cancelled\n", j.ID)
	default:
		msg := j.ErrorMessage
		if msg == "" {
			msg = "generation failed"
		}
		c.Printf("\njob %s failed: %s\n", j.ID, msg)
	}
}

type App struct {
	config      *config.Config
	authService services.AuthService
	jobService  services.JobService
	gatherer    prometheus.Gatherer
	log         logging.Logger
	out         *Console
	reader      *bufio.Reader
}

// NewApp assembles the REPL on top of already wired services. gatherer is
// the registry the client metrics were registered with.
func NewApp(c *config.Config, as services.AuthService, js services.JobService, g prometheus.Gatherer, log logging.Logger, out *Console) *App {
	if log == nil {
		log = logging.Nop()
	}
	if out == nil {
		out = NewConsole(os.Stdout)
	}
	return &App{
		config:      c,
		authService: as,
		jobService:  js,
		gatherer:    g,
		log:         log,
		out:         out,
		reader:      bufio.NewReader(os.Stdin),
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.jobService.Stop()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.authService.Session().Authenticated
}

func (a *App) origin() string {
	if a.config == nil {
		return ""
	}
	return a.config.APIOrigin
}

func (a *App) resultURL(u string) string {
	return client.ResolveResultURL(a.origin(), u)
}

func (a *App) getStatus() string {
	s := ""
	sess := a.authService.Session()
	if sess.Authenticated && sess.User != nil {
		s = fmt.Sprintf("%s %d credits", sess.User.DisplayName(), sess.User.CreditsRemaining)
	}
	if st, id := a.jobService.WatchState(); st == tracker.StateWatching {
		if s != "" {
			s += " "
		}
		s += "watching " + id
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}
