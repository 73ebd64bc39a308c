package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRepository_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	r := NewRedisRepository(db, "")

	mock.ExpectSet(DefaultRedisPrefix+"auth.refresh_token", []byte("r1"), 0).SetVal("OK")
	mock.ExpectGet(DefaultRedisPrefix + "auth.refresh_token").SetVal("r1")
	mock.ExpectDel(DefaultRedisPrefix + "auth.refresh_token").SetVal(1)

	require.NoError(t, r.Set(ctx, "auth.refresh_token", []byte("r1")))

	v, err := r.Get(ctx, "auth.refresh_token")
	require.NoError(t, err)
	assert.Equal(t, []byte("r1"), v)

	require.NoError(t, r.Delete(ctx, "auth.refresh_token"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRepository_GetMissingIsNil(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedisRepository(db, "app:")

	mock.ExpectGet("app:absent").RedisNil()

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRepository_GetErrorWrapped(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedisRepository(db, "app:")

	mock.ExpectGet("app:k").SetErr(errors.New("connection refused"))

	_, err := r.Get(context.Background(), "k")
	require.ErrorContains(t, err, "failed to get metadata[k]")
}

func TestRedisRepository_ListAndClear(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	r := NewRedisRepository(db, "app:")

	mock.ExpectScan(0, "app:*", redisScanCount).SetVal([]string{"app:a"}, 7)
	mock.ExpectScan(7, "app:*", redisScanCount).SetVal([]string{"app:b"}, 0)
	mock.ExpectGet("app:a").SetVal("1")
	mock.ExpectGet("app:b").SetVal("2")

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, m)

	mock.ExpectScan(0, "app:*", redisScanCount).SetVal([]string{"app:a", "app:b"}, 0)
	mock.ExpectDel("app:a", "app:b").SetVal(2)

	require.NoError(t, r.Clear(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRepository_ClearEmptyIsNoop(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedisRepository(db, "app:")

	mock.ExpectScan(0, "app:*", redisScanCount).SetVal(nil, 0)

	require.NoError(t, r.Clear(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRepository_SetManyUsesTransaction(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedisRepository(db, "app:")

	mock.ExpectTxPipeline()
	mock.ExpectSet("app:api.custom_base_url", []byte("http://10.0.0.5:9000/api"), 0).SetVal("OK")
	mock.ExpectSet("app:api.environment", []byte("custom"), 0).SetVal("OK")
	mock.ExpectTxPipelineExec()

	require.NoError(t, r.SetMany(context.Background(), map[string][]byte{
		"api.environment":     []byte("custom"),
		"api.custom_base_url": []byte("http://10.0.0.5:9000/api"),
	}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRepository_SetManyErrorWrapped(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedisRepository(db, "app:")

	mock.ExpectTxPipeline()
	mock.ExpectSet("app:a", []byte("1"), 0).SetErr(errors.New("READONLY"))

	err := r.SetMany(context.Background(), map[string][]byte{"a": []byte("1")})
	require.ErrorContains(t, err, "failed to set metadata")
}
