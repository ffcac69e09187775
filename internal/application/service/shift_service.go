package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
	"github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/pkg/apperror"
	"github.com/sangkips/kopi-pos/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ShiftService opens and closes cashier shifts and reconciles the cash drawer
type ShiftService struct {
	tx        repository.Transactor
	shiftRepo repository.ShiftRepository
	saleRepo  repository.SaleRepository
	locker    Locker
	log       *logrus.Logger
	now       func() time.Time
}

// NewShiftService creates a new shift service
func NewShiftService(
	tx repository.Transactor,
	shiftRepo repository.ShiftRepository,
	saleRepo repository.SaleRepository,
	locker Locker,
	log *logrus.Logger,
) *ShiftService {
	return &ShiftService{
		tx:        tx,
		shiftRepo: shiftRepo,
		saleRepo:  saleRepo,
		locker:    locker,
		log:       log,
		now:       time.Now,
	}
}

// OpenShiftInput represents the open shift input
type OpenShiftInput struct {
	OpeningCash decimal.Decimal
	Notes       *string
}

// CloseShiftInput represents the close shift input
type CloseShiftInput struct {
	ClosingCash decimal.Decimal
	Notes       *string
}

// OpenShift starts a shift for the actor. A user holds at most one open shift;
// the lock narrows the race and the open-shift unique index settles it.
func (s *ShiftService) OpenShift(ctx context.Context, actor *Actor, input *OpenShiftInput) (*entity.Shift, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil || input.OpeningCash.IsNegative() {
		return nil, fieldError("opening_cash", "must not be negative")
	}

	release := obtainLock(ctx, s.locker, s.log, "shift:open:"+actor.UserID.String())
	defer release()

	shift := &entity.Shift{
		UserID:      actor.UserID,
		OpenAt:      s.now(),
		OpeningCash: input.OpeningCash,
		Notes:       input.Notes,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		open, err := s.shiftRepo.GetOpenByUser(ctx, actor.UserID)
		if err != nil {
			return apperror.Persistence(err)
		}
		if open != nil {
			return apperror.ErrShiftAlreadyOpen
		}
		return s.shiftRepo.Create(ctx, shift)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperror.ErrShiftAlreadyOpen
	}
	if err != nil {
		return nil, apperror.Persistence(err)
	}

	s.log.WithFields(logrus.Fields{
		"module":       "shift",
		"shift_id":     shift.ID,
		"user_id":      actor.UserID,
		"opening_cash": shift.OpeningCash.String(),
	}).Info("shift opened")
	return shift, nil
}

// CloseShift records the declared closing cash. Only the owner or an admin may
// close a shift, and only once.
func (s *ShiftService) CloseShift(ctx context.Context, actor *Actor, id uuid.UUID, input *CloseShiftInput) (*entity.Shift, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil || input.ClosingCash.IsNegative() {
		return nil, fieldError("closing_cash", "must not be negative")
	}

	shift, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if shift == nil {
		return nil, apperror.NewNotFoundError("Shift")
	}
	if !actor.CanAccess(shift.UserID) {
		return nil, apperror.NewForbiddenError("You can only close your own shift")
	}
	if !shift.IsOpen() {
		return nil, apperror.ErrAlreadyClosed
	}

	closed, err := s.shiftRepo.Close(ctx, id, s.now(), input.ClosingCash, input.Notes)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if !closed {
		return nil, apperror.ErrAlreadyClosed
	}

	shift, err = s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	s.log.WithFields(logrus.Fields{
		"module":       "shift",
		"shift_id":     id,
		"user_id":      shift.UserID,
		"closing_cash": input.ClosingCash.String(),
	}).Info("shift closed")
	return shift, nil
}

// ShiftTotals is the reconciliation of a shift's cash drawer.
type ShiftTotals struct {
	TotalSales        decimal.Decimal                        `json:"total_sales"`
	TotalTransactions int                                    `json:"total_transactions"`
	TotalCash         decimal.Decimal                        `json:"total_cash"`
	ExpectedCash      decimal.Decimal                        `json:"expected_cash"`
	ActualCash        decimal.NullDecimal                    `json:"actual_cash"`
	Difference        decimal.Decimal                        `json:"difference"`
	ByMethod          map[enum.PaymentMethod]decimal.Decimal `json:"by_method"`
}

// ShiftSummary is a shift with the sales recorded in its window.
type ShiftSummary struct {
	Shift   *entity.Shift `json:"shift"`
	Sales   []entity.Sale `json:"sales"`
	Summary ShiftTotals   `json:"summary"`
}

// SummarizeShift reconciles a shift against its sales. Only cash sales count
// toward the drawer; the difference stays zero until the shift is closed.
func SummarizeShift(shift *entity.Shift, sales []entity.Sale) ShiftTotals {
	totals := ShiftTotals{
		TotalSales: decimal.Zero,
		TotalCash:  decimal.Zero,
		Difference: decimal.Zero,
		ByMethod:   make(map[enum.PaymentMethod]decimal.Decimal),
	}

	for _, sale := range sales {
		totals.TotalSales = totals.TotalSales.Add(sale.Total)
		totals.TotalTransactions++
		totals.ByMethod[sale.PaymentType] = totals.ByMethod[sale.PaymentType].Add(sale.Total)
		if sale.PaymentType == enum.PaymentMethodCash {
			totals.TotalCash = totals.TotalCash.Add(sale.Paid)
		}
	}

	totals.ExpectedCash = shift.OpeningCash.Add(totals.TotalCash)
	totals.ActualCash = shift.ClosingCash
	if !shift.IsOpen() && shift.ClosingCash.Valid {
		totals.Difference = shift.ClosingCash.Decimal.Sub(totals.ExpectedCash)
	}
	return totals
}

// GetShiftSummary recomputes the shift report from persisted sales.
func (s *ShiftService) GetShiftSummary(ctx context.Context, actor *Actor, id uuid.UUID) (*ShiftSummary, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	shift, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if shift == nil || !actor.CanAccess(shift.UserID) {
		return nil, apperror.NewNotFoundError("Shift")
	}

	until := s.now()
	if shift.CloseAt != nil {
		until = *shift.CloseAt
	}
	sales, err := s.saleRepo.ListByCashierBetween(ctx, shift.UserID, shift.OpenAt, until)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if sales == nil {
		sales = []entity.Sale{}
	}

	return &ShiftSummary{
		Shift:   shift,
		Sales:   sales,
		Summary: SummarizeShift(shift, sales),
	}, nil
}

// ActiveShift returns the actor's open shift, or NotFound.
func (s *ShiftService) ActiveShift(ctx context.Context, actor *Actor) (*entity.Shift, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	shift, err := s.shiftRepo.GetOpenByUser(ctx, actor.UserID)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if shift == nil {
		return nil, apperror.NewNotFoundError("Active shift")
	}
	return shift, nil
}

// ListShifts returns all shifts for admins and the caller's own otherwise.
func (s *ShiftService) ListShifts(ctx context.Context, actor *Actor, params *pagination.PaginationParams, openOnly bool) (*pagination.PaginatedResult[entity.Shift], error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	filter := &repository.ShiftFilterParams{Pagination: params, OpenOnly: openOnly}
	if !actor.IsAdmin() {
		filter.UserID = &actor.UserID
	}

	shifts, total, err := s.shiftRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return pagination.NewPaginatedResult(shifts, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}
