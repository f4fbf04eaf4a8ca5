// Package session holds the client's authentication state: the signed-in
// user and the access/refresh credential pair.
//
// Store is the only writer of that state. Every mutation is persisted through
// a Persister before it becomes visible, so a restarted client picks up where
// it left off (see Load). Store is safe for concurrent use; the request
// gateway refreshes tokens from whatever goroutine hit the 401 while the CLI
// may be logging the user out at the same time.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/draped/internal/client/models"
	"github.com/dmitrijs2005/draped/internal/common"
)

// Persister is the durable backing of a Store.
type Persister interface {
	// Save replaces the stored session with s.
	Save(ctx context.Context, s models.Session) error
	// Load returns the stored session, or an empty one when nothing is stored.
	Load(ctx context.Context) (models.Session, error)
	// Clear removes the stored session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

type Store struct {
	mu        sync.RWMutex
	current   models.Session
	persister Persister
}

// NewStore returns an empty store. Call Load to rehydrate it.
func NewStore(p Persister) *Store {
	return &Store{persister: p}
}

// Load replaces the in-memory session with the persisted one. A persisted
// record that violates the session invariant is discarded.
func (s *Store) Load(ctx context.Context) error {
	loaded, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !loaded.Valid() {
		loaded = models.Session{}
	}

	s.mu.Lock()
	s.current = clone(loaded)
	s.mu.Unlock()
	return nil
}

// Read returns a snapshot. It stays valid only until the next mutation.
func (s *Store) Read() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.current)
}

// SetAuth overwrites the whole session after a successful login or
// registration.
func (s *Store) SetAuth(ctx context.Context, user models.User, access, refresh string) error {
	return s.mutate(ctx, func(models.Session) models.Session {
		u := user
		return models.Session{
			AccessToken:   access,
			RefreshToken:  refresh,
			User:          u.Clone(),
			Authenticated: true,
		}
	})
}

// SetTokens swaps the credential pair after a refresh. User and
// Authenticated are left as they are. A session that is not authenticated
// (for example one logged out while the refresh was in flight) is left
// untouched and common.ErrNoSession is returned.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current.Authenticated {
		return common.ErrNoSession
	}
	updated := clone(s.current)
	updated.AccessToken = access
	updated.RefreshToken = refresh
	return s.publish(ctx, updated)
}

// Logout clears every field. Calling it on an empty session is fine.
// The in-memory session is cleared even when the stored copy cannot be
// removed; the storage error is still returned.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = models.Session{}
	if err := s.persister.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// mutate persists next(current) and only then publishes it.
func (s *Store) mutate(ctx context.Context, next func(models.Session) models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.publish(ctx, next(clone(s.current)))
}

// publish must be called with mu held.
func (s *Store) publish(ctx context.Context, updated models.Session) error {
	if err := s.persister.Save(ctx, updated); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.current = updated
	return nil
}

func clone(s models.Session) models.Session {
	s.User = s.User.Clone()
	return s
}
