package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencySaveReplacesExpiredKey(t *testing.T) {
	s := New()
	clock := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	repo := s.Idempotency()
	ctx := context.Background()
	user := uuid.New()

	first := &entity.IdempotencyKey{
		Key: "checkout-1", UserID: user, Endpoint: "POST /api/v1/sales",
		ResponseCode: 201, ResponseBody: `{"id":"a"}`, ExpiresAt: clock.Add(time.Hour),
	}
	require.NoError(t, repo.Save(ctx, first))

	got, err := repo.FindLive(ctx, user, "checkout-1", clock)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"id":"a"}`, got.ResponseBody)

	again := &entity.IdempotencyKey{Key: "checkout-1", UserID: user, ExpiresAt: clock.Add(2 * time.Hour)}
	assert.ErrorIs(t, repo.Save(ctx, again), domainRepo.ErrDuplicate)

	other, err := repo.FindLive(ctx, uuid.New(), "checkout-1", clock)
	require.NoError(t, err)
	assert.Nil(t, other)

	clock = clock.Add(time.Hour)
	got, err = repo.FindLive(ctx, user, "checkout-1", clock)
	require.NoError(t, err)
	assert.Nil(t, got)

	fresh := &entity.IdempotencyKey{
		Key: "checkout-1", UserID: user, Endpoint: "POST /api/v1/sales",
		ResponseCode: 201, ResponseBody: `{"id":"b"}`, ExpiresAt: clock.Add(time.Hour),
	}
	require.NoError(t, repo.Save(ctx, fresh))

	got, err = repo.FindLive(ctx, user, "checkout-1", clock)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"id":"b"}`, got.ResponseBody)
	assert.Len(t, s.st.idempotency, 1)
}

func TestIdempotencyPurge(t *testing.T) {
	s := New()
	repo := s.Idempotency()
	ctx := context.Background()
	now := time.Now()

	for _, ttl := range []time.Duration{-time.Minute, -time.Second, time.Hour} {
		require.NoError(t, repo.Save(ctx, &entity.IdempotencyKey{
			Key:       uuid.NewString(),
			UserID:    uuid.New(),
			CreatedAt: now.Add(-2 * time.Minute),
			ExpiresAt: now.Add(ttl),
		}))
	}

	n, err := repo.Purge(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Len(t, s.st.idempotency, 1)
}
