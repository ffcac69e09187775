package repository

import (
	"context"
	"errors"
)

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate entry")

// Transactor runs fn in a single unit of work. Repositories called with the ctx
// passed to fn join that unit of work; returning an error from fn rolls it back.
// Nested calls join the outer transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
