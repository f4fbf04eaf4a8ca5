package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/draped/internal/client/client"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	GoogleLogin(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Profile(ctx context.Context) error
	Quota(ctx context.Context) error

	Submit(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	Watch(ctx context.Context, args []string) error
	Stop(ctx context.Context) error
	Reset(ctx context.Context) error
	Recent(ctx context.Context) error
	Jobs(ctx context.Context, args []string) error
	DeleteJob(ctx context.Context, args []string) error
	Results(ctx context.Context, args []string) error
	Favorite(ctx context.Context, args []string) error
	DeleteResult(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
}

// errUsage is returned by handlers when the arguments are wrong; the REPL
// prints the usage line instead of an error.
type errUsage string

func (e errUsage) Error() string { return "usage: " + string(e) }

const (
	helpAnonymous = "Available commands: register, login, google-login, stats, exit"
	helpSignedIn  = "Available commands: submit, status, watch, stop, reset, recent, jobs, delete-job, " +
		"results, favorite, delete-result, download, whoami, profile, quota, stats, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the Draped CLI.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to methods on 'a' with the remaining tokens as arguments. The
// loop exits on EOF or when the user types "exit" or "quit".
//
// Prompt & Commands
//
//	Not logged in:
//	  - help                    show available commands
//	  - register                create an account
//	  - login                   sign in with email and password
//	  - google-login            sign in with a Google ID token
//	  - stats                   client request counters
//	  - exit | quit             leave the program
//
//	Logged in:
//	  - submit <photo> <garment> start a try-on job and watch it
//	  - status [job-id]          show the current (or given) job
//	  - watch <job-id> | stop    attach or detach the job tracker
//	  - reset                    forget the current job and previews
//	  - recent                   locally tracked jobs
//	  - jobs [page]              server-side job history
//	  - delete-job <job-id>
//	  - results [page]           result gallery
//	  - favorite <result-id>     toggle favorite
//	  - delete-result <result-id>
//	  - download <job-id|url> [file]
//	  - whoami | profile | quota
//	  - logout
//
// Errors returned by handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("draped %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}
		report(dispatch(ctx, a, cmd, args))
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpSignedIn)
		} else {
			printlnFn(helpAnonymous)
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "google-login":
		return a.GoogleLogin(ctx)
	case "logout":
		return a.Logout(ctx)
	case "whoami":
		return a.WhoAmI(ctx)
	case "profile":
		return a.Profile(ctx)
	case "quota":
		return a.Quota(ctx)
	case "submit":
		return a.Submit(ctx, args)
	case "status":
		return a.Status(ctx, args)
	case "watch":
		return a.Watch(ctx, args)
	case "stop":
		return a.Stop(ctx)
	case "reset":
		return a.Reset(ctx)
	case "recent":
		return a.Recent(ctx)
	case "jobs":
		return a.Jobs(ctx, args)
	case "delete-job":
		return a.DeleteJob(ctx, args)
	case "results":
		return a.Results(ctx, args)
	case "favorite":
		return a.Favorite(ctx, args)
	case "delete-result":
		return a.DeleteResult(ctx, args)
	case "download":
		return a.Download(ctx, args)
	case "stats":
		return a.Stats(ctx)
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}

func report(err error) {
	if err == nil {
		return
	}
	var u errUsage
	if errors.As(err, &u) {
		printlnFn(u.Error())
		return
	}
	printlnFn("Error:", client.ErrorMessage(err))
}
