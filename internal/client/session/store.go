// Package session owns the client's credentials and backend selection.
//
// The access token lives only in memory and disappears with the Store; the
// refresh token is persisted under common.KeyRefreshToken in a
// metadata.Repository and is the single source of truth for "logged in".
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/pharmalink/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/pharmalink/internal/common"
	"github.com/dmitrijs2005/pharmalink/internal/logging"
)

// ErrEmptyRefreshToken is returned by SetTokens when refresh is empty.
var ErrEmptyRefreshToken = errors.New("refresh token must not be empty")

type Store struct {
	repo   metadata.Repository
	logger logging.Logger

	mu     sync.RWMutex
	access string
}

func NewStore(repo metadata.Repository, logger logging.Logger) *Store {
	return &Store{repo: repo, logger: logger.With("component", "session")}
}

// SetTokens keeps access in memory and persists refresh durably. The access
// token is only updated once the refresh token has been written.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	if refresh == "" {
		return ErrEmptyRefreshToken
	}
	if err := s.repo.Set(ctx, common.KeyRefreshToken, []byte(refresh)); err != nil {
		return err
	}

	s.mu.Lock()
	s.access = access
	s.mu.Unlock()
	return nil
}

// ClearTokens removes the durable refresh token and forgets the access token.
// Clearing an empty session is a no-op.
func (s *Store) ClearTokens(ctx context.Context) error {
	s.mu.Lock()
	s.access = ""
	s.mu.Unlock()

	return s.repo.Delete(ctx, common.KeyRefreshToken)
}

// IsAuthenticated reports whether a refresh token is persisted. A failing
// store is logged and treated as logged out.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	token, err := s.RefreshToken(ctx)
	if err != nil {
		s.logger.Warn(ctx, "reading refresh token failed", "err", err)
		return false
	}
	return token != ""
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// RefreshToken returns "" when nothing is persisted.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	v, err := s.repo.Get(ctx, common.KeyRefreshToken)
	if err != nil {
		return "", err
	}
	return string(v), nil
}
