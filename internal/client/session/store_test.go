package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/pharmalink/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/pharmalink/internal/common"
	"github.com/dmitrijs2005/pharmalink/internal/logging"
)

type failingRepo struct {
	metadata.Repository
	err error
}

func (f failingRepo) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingRepo) Set(context.Context, string, []byte) error  { return f.err }

func TestStore_SetTokens_PersistsRefreshOnly(t *testing.T) {
	ctx := context.Background()
	repo := metadata.NewMemoryRepository()
	s := NewStore(repo, logging.Discard())

	require.NoError(t, s.SetTokens(ctx, "a", "r"))

	assert.Equal(t, "a", s.AccessToken())
	got, err := s.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r", got)

	stored, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{common.KeyRefreshToken: []byte("r")}, stored)
}

func TestStore_FreshInstanceSeesRefreshButNotAccess(t *testing.T) {
	ctx := context.Background()
	repo := metadata.NewMemoryRepository()

	require.NoError(t, NewStore(repo, logging.Discard()).SetTokens(ctx, "a", "r"))

	reloaded := NewStore(repo, logging.Discard())
	got, err := reloaded.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r", got)
	assert.Empty(t, reloaded.AccessToken())
	assert.True(t, reloaded.IsAuthenticated(ctx))
}

func TestStore_ClearTokens_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(metadata.NewMemoryRepository(), logging.Discard())
	require.NoError(t, s.SetTokens(ctx, "a", "r"))

	require.NoError(t, s.ClearTokens(ctx))
	assert.False(t, s.IsAuthenticated(ctx))
	assert.Empty(t, s.AccessToken())

	require.NoError(t, s.ClearTokens(ctx))
	assert.False(t, s.IsAuthenticated(ctx))
}

func TestStore_SetTokens_RejectsEmptyRefresh(t *testing.T) {
	s := NewStore(metadata.NewMemoryRepository(), logging.Discard())
	require.ErrorIs(t, s.SetTokens(context.Background(), "a", ""), ErrEmptyRefreshToken)
	assert.Empty(t, s.AccessToken())
}

func TestStore_SetTokens_KeepsAccessWhenPersistFails(t *testing.T) {
	boom := errors.New("disk full")
	s := NewStore(failingRepo{Repository: metadata.NewMemoryRepository(), err: boom}, logging.Discard())

	require.ErrorIs(t, s.SetTokens(context.Background(), "a", "r"), boom)
	assert.Empty(t, s.AccessToken())
}

func TestStore_IsAuthenticated_FalseOnStoreError(t *testing.T) {
	s := NewStore(failingRepo{Repository: metadata.NewMemoryRepository(), err: errors.New("down")}, logging.Discard())
	assert.False(t, s.IsAuthenticated(context.Background()))
}
