package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis_SetGetDelete(t *testing.T) {
	mr, client := newMiniRedis(t)
	s := NewRedis(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "onboarding:a@b.com:onboardingData", `{"customers":[]}`))

	val, err := s.Get(ctx, "onboarding:a@b.com:onboardingData")
	require.NoError(t, err)
	assert.Equal(t, `{"customers":[]}`, val)
	assert.Equal(t, time.Hour, mr.TTL("onboarding:a@b.com:onboardingData"))

	require.NoError(t, s.Delete(ctx, "onboarding:a@b.com:onboardingData"))
	_, err = s.Get(ctx, "onboarding:a@b.com:onboardingData")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_NoTTL(t *testing.T) {
	mr, client := newMiniRedis(t)
	s := NewRedis(client, 0)

	require.NoError(t, s.Set(context.Background(), "k", "v"))
	assert.Equal(t, time.Duration(0), mr.TTL("k"))
}

func TestRedis_MissingKey(t *testing.T) {
	_, client := newMiniRedis(t)
	s := NewRedis(client, 0)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_PropagatesBackendErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedis(client, time.Minute)
	ctx := context.Background()

	mock.ExpectGet("k").SetErr(errors.New("connection refused"))
	_, err := s.Get(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "connection refused")

	mock.ExpectSet("k", "v", time.Minute).SetErr(errors.New("READONLY"))
	err = s.Set(ctx, "k", "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READONLY")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	require.NoError(t, s.Set(ctx, "k", "v2"))
	val, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", val)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, "k", "other"))
	assert.Equal(t, 0, s.Len())
	assert.NoError(t, s.Ping(ctx))
}
