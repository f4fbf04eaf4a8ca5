// Package services contains the use cases of the Draped client. This file
// defines the authentication service: password and Google sign-in,
// registration, logout and the account views (profile, quota).
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/draped/internal/client/client"
	"github.com/dmitrijs2005/draped/internal/client/models"
	"github.com/dmitrijs2005/draped/internal/common"
	"github.com/dmitrijs2005/draped/internal/logging"
)

// AuthAPI is the part of the typed client used for authentication.
type AuthAPI interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.TokenResponse, error)
	GoogleLogin(ctx context.Context, credential string) (*models.TokenResponse, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.Profile, error)
	Quota(ctx context.Context) (*models.Quota, error)
}

// SessionStore is what the services need from session.Store.
type SessionStore interface {
	Read() models.Session
	SetAuth(ctx context.Context, user models.User, access, refresh string) error
	Logout(ctx context.Context) error
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login, Register, GoogleLogin: validate input, call the server and on
//     success store the returned user and token pair in the session.
//   - Logout: tell the server (best effort) and always clear the session.
//   - Session: current session snapshot.
//   - Profile, Quota: account views of the signed-in user.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte) (*models.User, error)
	Register(ctx context.Context, name, email string, password []byte) (*models.User, error)
	GoogleLogin(ctx context.Context, credential string) (*models.User, error)
	Logout(ctx context.Context) error
	Session() models.Session
	Profile(ctx context.Context) (*models.Profile, error)
	Quota(ctx context.Context) (*models.Quota, error)
}

type authService struct {
	api            AuthAPI
	session        SessionStore
	googleClientID string
	log            logging.Logger
}

// NewAuthService constructs an AuthService. An empty googleClientID turns
// GoogleLogin off.
func NewAuthService(api AuthAPI, session SessionStore, googleClientID string, log logging.Logger) AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &authService{api: api, session: session, googleClientID: googleClientID, log: log}
}

// Login signs in with email and password. The password buffer is wiped once
// the request has been built.
func (a *authService) Login(ctx context.Context, email string, password []byte) (*models.User, error) {
	req := models.LoginRequest{Email: strings.TrimSpace(email), Password: string(password)}
	common.WipeByteArray(password)

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	resp, err := a.api.Login(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	return a.establish(ctx, resp)
}

// Register creates an account and signs it in.
func (a *authService) Register(ctx context.Context, name, email string, password []byte) (*models.User, error) {
	req := models.RegisterRequest{Email: strings.TrimSpace(email), Password: string(password)}
	common.WipeByteArray(password)
	if n := strings.TrimSpace(name); n != "" {
		req.Name = &n
	}

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	resp, err := a.api.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	return a.establish(ctx, resp)
}

// GoogleLogin exchanges a Google identity credential for a session.
func (a *authService) GoogleLogin(ctx context.Context, credential string) (*models.User, error) {
	if a.googleClientID == "" {
		return nil, ErrFederatedLoginDisabled
	}

	req := models.GoogleLoginRequest{Credential: strings.TrimSpace(credential)}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	resp, err := a.api.GoogleLogin(ctx, req.Credential)
	if err != nil {
		return nil, fmt.Errorf("google login error: %w", err)
	}
	return a.establish(ctx, resp)
}

func (a *authService) establish(ctx context.Context, resp *models.TokenResponse) (*models.User, error) {
	user := resp.User
	if err := a.session.SetAuth(ctx, user, resp.AccessToken, resp.RefreshToken); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	a.log.Info(ctx, "signed in", "user_id", user.ID, "plan", user.Plan)
	return &user, nil
}

// Logout ends the session. A failing server call is logged and does not
// keep the local session alive.
func (a *authService) Logout(ctx context.Context) error {
	if a.session.Read().Authenticated {
		if err := a.api.Logout(ctx); err != nil {
			a.log.Warn(ctx, "server logout failed", "error", client.ErrorMessage(err))
		}
	}
	return a.session.Logout(ctx)
}

func (a *authService) Session() models.Session {
	return a.session.Read()
}

func (a *authService) Profile(ctx context.Context) (*models.Profile, error) {
	if !a.session.Read().Authenticated {
		return nil, ErrNotAuthenticated
	}
	return a.api.Profile(ctx)
}

func (a *authService) Quota(ctx context.Context) (*models.Quota, error) {
	if !a.session.Read().Authenticated {
		return nil, ErrNotAuthenticated
	}
	return a.api.Quota(ctx)
}
