package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
)

// IdempotencyRepository stores the first successful response per user and key.
type IdempotencyRepository interface {
	// FindLive returns the record for key that is still valid at now, or nil.
	FindLive(ctx context.Context, userID uuid.UUID, key string, now time.Time) (*entity.IdempotencyKey, error)
	// Save stores ikey, replacing a record for the same key that expired
	// before ikey.CreatedAt. A live record yields ErrDuplicate.
	Save(ctx context.Context, ikey *entity.IdempotencyKey) error
	// Purge deletes records that expired before cutoff.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}
