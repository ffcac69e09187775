package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type shiftRepository struct {
	db *gorm.DB
}

// NewShiftRepository creates a new shift repository
func NewShiftRepository(db *gorm.DB) domainRepo.ShiftRepository {
	return &shiftRepository{db: db}
}

// Create relies on the partial unique index idx_shifts_one_open_per_user.
func (r *shiftRepository) Create(ctx context.Context, shift *entity.Shift) error {
	return translate(conn(ctx, r.db).Omit("User").Create(shift).Error)
}

func (r *shiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Shift, error) {
	var shift entity.Shift
	err := conn(ctx, r.db).Preload("User").First(&shift, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &shift, err
}

func (r *shiftRepository) GetOpenByUser(ctx context.Context, userID uuid.UUID) (*entity.Shift, error) {
	var shift entity.Shift
	err := conn(ctx, r.db).
		Where("user_id = ? AND close_at IS NULL", userID).
		First(&shift).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &shift, err
}

func (r *shiftRepository) Close(ctx context.Context, id uuid.UUID, closeAt time.Time, closingCash decimal.Decimal, notes *string) (bool, error) {
	updates := map[string]interface{}{
		"close_at":     closeAt,
		"closing_cash": decimal.NullDecimal{Decimal: closingCash, Valid: true},
	}
	if notes != nil {
		updates["notes"] = *notes
	}

	result := conn(ctx, r.db).Model(&entity.Shift{}).
		Where("id = ? AND close_at IS NULL", id).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *shiftRepository) List(ctx context.Context, params *domainRepo.ShiftFilterParams) ([]entity.Shift, int64, error) {
	var shifts []entity.Shift
	var total int64

	query := conn(ctx, r.db).Model(&entity.Shift{})
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.OpenOnly {
		query = query.Where("close_at IS NULL")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("User").
		Order("open_at DESC").
		Find(&shifts).Error

	return shifts, total, err
}
