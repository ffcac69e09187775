package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ShiftRepository defines the interface for shift data operations
type ShiftRepository interface {
	// Create inserts an open shift. Returns ErrDuplicate if the user already has one.
	Create(ctx context.Context, shift *entity.Shift) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Shift, error)
	GetOpenByUser(ctx context.Context, userID uuid.UUID) (*entity.Shift, error)
	// Close sets the closing fields only if the shift is still open. Returns false
	// when it was already closed.
	Close(ctx context.Context, id uuid.UUID, closeAt time.Time, closingCash decimal.Decimal, notes *string) (bool, error)
	List(ctx context.Context, params *ShiftFilterParams) ([]entity.Shift, int64, error)
}

// ShiftFilterParams contains filtering parameters for shift queries
type ShiftFilterParams struct {
	Pagination *pagination.PaginationParams
	UserID     *uuid.UUID
	OpenOnly   bool
}
