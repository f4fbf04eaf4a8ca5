package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/draped/internal/client/models"
	"github.com/dmitrijs2005/draped/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/draped/internal/dbx"
)

// Metadata keys owned by the session. They share keyPrefix so a logout can
// drop them in one statement.
const (
	keyPrefix        = "session."
	keyUser          = keyPrefix + "user"
	keyAccessToken   = keyPrefix + "access_token"
	keyRefreshToken  = keyPrefix + "refresh_token"
	keyAuthenticated = keyPrefix + "authenticated"
)

// SQLitePersister stores the session in the metadata table.
type SQLitePersister struct {
	db *sql.DB
}

func NewSQLitePersister(db *sql.DB) *SQLitePersister {
	return &SQLitePersister{db: db}
}

// Save writes all session keys in one transaction.
func (p *SQLitePersister) Save(ctx context.Context, s models.Session) error {
	var userJSON []byte
	if s.User != nil {
		b, err := json.Marshal(s.User)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		userJSON = b
	}

	return dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		if err := repo.DeletePrefix(ctx, keyPrefix); err != nil {
			return err
		}
		if userJSON != nil {
			if err := repo.Set(ctx, keyUser, userJSON); err != nil {
				return err
			}
		}
		if s.AccessToken != "" {
			if err := repo.Set(ctx, keyAccessToken, []byte(s.AccessToken)); err != nil {
				return err
			}
		}
		if s.RefreshToken != "" {
			if err := repo.Set(ctx, keyRefreshToken, []byte(s.RefreshToken)); err != nil {
				return err
			}
		}
		return repo.Set(ctx, keyAuthenticated, []byte(strconv.FormatBool(s.Authenticated)))
	})
}

func (p *SQLitePersister) Load(ctx context.Context) (models.Session, error) {
	pairs, err := metadata.NewSQLiteRepository(p.db).ListPrefix(ctx, keyPrefix)
	if err != nil {
		return models.Session{}, err
	}

	var s models.Session
	if raw, ok := pairs[keyUser]; ok && len(raw) > 0 {
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			return models.Session{}, fmt.Errorf("decode user: %w", err)
		}
		s.User = &u
	}
	s.AccessToken = string(pairs[keyAccessToken])
	s.RefreshToken = string(pairs[keyRefreshToken])
	if raw, ok := pairs[keyAuthenticated]; ok {
		s.Authenticated, _ = strconv.ParseBool(string(raw))
	}
	return s, nil
}

func (p *SQLitePersister) Clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(p.db).DeletePrefix(ctx, keyPrefix)
}
