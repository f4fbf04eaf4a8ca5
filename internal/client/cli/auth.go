package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/draped/internal/client/client"
	"github.com/dmitrijs2005/draped/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a display name (optional), email and password and
// creates an account, which is signed in right away.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name (optional)", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.authService.Register(ctx, name, email, password)
	if err != nil {
		return err
	}

	a.out.Printf("Welcome, %s! %d credits available.\n", u.DisplayName(), u.CreditsRemaining)
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.authService.Login(ctx, email, password)
	if err != nil {
		return err
	}

	a.out.Printf("Signed in as %s (%s plan, %d credits)\n", u.DisplayName(), u.Plan, u.CreditsRemaining)
	return nil
}

// GoogleLogin asks for a Google ID token obtained elsewhere and exchanges it
// for a session.
func (a *App) GoogleLogin(ctx context.Context) error {
	credential, err := getSimpleText(a.reader, "Paste Google ID token", a.out)
	if err != nil {
		return err
	}

	u, err := a.authService.GoogleLogin(ctx, credential)
	if err != nil {
		return err
	}

	a.out.Printf("Signed in as %s (%s plan, %d credits)\n", u.DisplayName(), u.Plan, u.CreditsRemaining)
	return nil
}

// Logout stops any watch, clears the local job state and ends the session.
func (a *App) Logout(ctx context.Context) error {
	a.jobService.Reset()
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.out.Printf("Signed out\n")
	return nil
}

// WhoAmI prints the signed-in user and when the access token expires.
func (a *App) WhoAmI(ctx context.Context) error {
	sess := a.authService.Session()
	if !sess.Authenticated || sess.User == nil {
		a.out.Printf("Not signed in\n")
		return nil
	}

	u := sess.User
	a.out.Printf("%s <%s>\n  id: %s\n  plan: %s\n  credits: %d\n", u.DisplayName(), u.Email, u.ID, u.Plan, u.CreditsRemaining)

	exp, err := client.TokenExpiry(sess.AccessToken)
	if err != nil {
		a.log.Debug(ctx, "access token has no readable expiry", "error", err)
	} else {
		a.out.Printf("  access token expires: %s (in %s)\n",
			exp.Local().Format(time.DateTime), time.Until(exp).Round(time.Second))
	}
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	p, err := a.authService.Profile(ctx)
	if err != nil {
		return err
	}
	a.out.Printf("%s <%s>\n  plan: %s\n  credits: %d\n", p.DisplayName(), p.Email, p.Plan, p.CreditsRemaining)
	if !p.CreatedAt.IsZero() {
		a.out.Printf("  member since: %s\n", p.CreatedAt.Local().Format(time.DateOnly))
	}
	a.printQuota(p.Quota.Daily.Used, p.Quota.Daily.Limit, p.Quota.Monthly.Used, p.Quota.Monthly.Limit)
	return nil
}

func (a *App) Quota(ctx context.Context) error {
	q, err := a.authService.Quota(ctx)
	if err != nil {
		return err
	}
	a.printQuota(q.Daily.Used, q.Daily.Limit, q.Monthly.Used, q.Monthly.Limit)
	return nil
}

func (a *App) printQuota(dUsed, dLimit, mUsed, mLimit int) {
	a.out.Printf("  today: %d/%d\n  this month: %d/%d\n", dUsed, dLimit, mUsed, mLimit)
}
