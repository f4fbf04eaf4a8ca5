package cli

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/draped/internal/client/models"
	"github.com/dmitrijs2005/draped/internal/client/tracker"
)

const pageSize = 20

// Submit uploads a photo and a garment image and starts watching the job.
// The outcome is printed asynchronously when the job finishes.
func (a *App) Submit(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage("submit <photo> <garment>")
	}
	j, err := a.jobService.Submit(ctx, args[0], args[1], a.out.JobFinished)
	if err != nil {
		return err
	}
	a.out.Printf("Job %s submitted (%s). Type 'status' to follow it.\n", j.ID, j.Status)
	return nil
}

// Status prints the current job, or a locally tracked job by id, along
// with the tracker state.
func (a *App) Status(ctx context.Context, args []string) error {
	var (
		j  models.Job
		ok bool
	)
	switch len(args) {
	case 0:
		j, ok = a.jobService.Current()
	case 1:
		j, ok = a.jobService.Job(args[0])
	default:
		return errUsage("status [job-id]")
	}
	if !ok {
		a.out.Printf("No job\n")
		return nil
	}

	a.out.Printf("%s\n", a.formatJob(j))
	if st, id := a.jobService.WatchState(); id == j.ID {
		a.out.Printf("  tracker: %s\n", st)
	}
	return nil
}

// Watch attaches the tracker to an existing job, e.g. one from 'jobs'.
func (a *App) Watch(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage("watch <job-id>")
	}
	a.jobService.Watch(ctx, args[0], a.out.JobFinished)
	a.out.Printf("Watching %s\n", args[0])
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	st, id := a.jobService.WatchState()
	a.jobService.Stop()
	if st == tracker.StateWatching {
		a.out.Printf("Stopped watching %s\n", id)
	}
	return nil
}

func (a *App) Reset(ctx context.Context) error {
	a.jobService.Reset()
	a.out.Printf("Cleared current job\n")
	return nil
}

// Recent lists the jobs tracked in this session, newest first.
func (a *App) Recent(ctx context.Context) error {
	jobs := a.jobService.Recent()
	if len(jobs) == 0 {
		a.out.Printf("No recent jobs\n")
		return nil
	}
	for _, j := range jobs {
		a.out.Printf("%s\n", a.formatJob(j))
	}
	return nil
}

// Jobs lists the user's job history from the server.
func (a *App) Jobs(ctx context.Context, args []string) error {
	page, err := pageArg(args, "jobs [page]")
	if err != nil {
		return err
	}
	p, err := a.jobService.ListJobs(ctx, page, pageSize)
	if err != nil {
		return err
	}
	for _, j := range p.Jobs {
		a.out.Printf("%s\n", a.formatJob(j))
	}
	a.out.Printf("page %d, %d of %d jobs\n", p.Page, len(p.Jobs), p.Total)
	return nil
}

func (a *App) DeleteJob(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage("delete-job <job-id>")
	}
	if err := a.jobService.DeleteJob(ctx, args[0]); err != nil {
		return err
	}
	a.out.Printf("Deleted job %s\n", args[0])
	return nil
}

// Results lists the result gallery.
func (a *App) Results(ctx context.Context, args []string) error {
	page, err := pageArg(args, "results [page]")
	if err != nil {
		return err
	}
	p, err := a.jobService.ListResults(ctx, page, pageSize)
	if err != nil {
		return err
	}
	for _, r := range p.Results {
		star := " "
		if r.IsFavorite {
			star = "*"
		}
		a.out.Printf("%s %s  job %s  %s  %s\n", star, r.ID, r.JobID, formatTime(r.CreatedAt.Time), a.resultURL(r.ImageURL))
	}
	a.out.Printf("page %d, %d of %d results\n", p.Page, len(p.Results), p.Total)
	return nil
}

func (a *App) Favorite(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage("favorite <result-id>")
	}
	if err := a.jobService.FavoriteResult(ctx, args[0]); err != nil {
		return err
	}
	a.out.Printf("Toggled favorite on %s\n", args[0])
	return nil
}

func (a *App) DeleteResult(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage("delete-result <result-id>")
	}
	if err := a.jobService.DeleteResult(ctx, args[0]); err != nil {
		return err
	}
	a.out.Printf("Deleted result %s\n", args[0])
	return nil
}

// Download saves a result image. The source is either a locally tracked job
// id or a result URL; the destination defaults to the URL's file name.
func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage("download <job-id|url> [file]")
	}

	src := args[0]
	if j, ok := a.jobService.Job(src); ok {
		if j.ResultImageURL == "" {
			return fmt.Errorf("job %s has no result yet", j.ID)
		}
		src = j.ResultImageURL
	}
	src = a.resultURL(src)

	dest := ""
	if len(args) == 2 {
		dest = args[1]
	} else {
		dest = defaultFileName(src)
	}

	n, err := a.jobService.Download(ctx, src, dest)
	if err != nil {
		return err
	}
	a.out.Printf("Saved %s (%d bytes)\n", dest, n)
	return nil
}

func defaultFileName(u string) string {
	if parsed, err := url.Parse(u); err == nil {
		if base := path.Base(parsed.Path); base != "" && base != "." && base != "/" {
			return base
		}
	}
	return "result.png"
}

func (a *App) formatJob(j models.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-10s", j.ID, j.Status)
	if j.Progress != nil && !j.Status.IsTerminal() {
		fmt.Fprintf(&b, " %3d%%", *j.Progress)
	}
	if !j.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "  %s", formatTime(j.CreatedAt.Time))
	}
	if j.ProcessingTimeMs != nil {
		fmt.Fprintf(&b, "  took %s", (time.Duration(*j.ProcessingTimeMs) * time.Millisecond).Round(100*time.Millisecond))
	}
	if j.ResultImageURL != "" {
		fmt.Fprintf(&b, "  %s", a.resultURL(j.ResultImageURL))
	}
	if j.ErrorMessage != "" {
		fmt.Fprintf(&b, "  error: %s", j.ErrorMessage)
	}
	return b.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
