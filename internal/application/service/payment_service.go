package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
	"github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/internal/infrastructure/payment"
	"github.com/sangkips/kopi-pos/pkg/apperror"
	"github.com/sangkips/kopi-pos/pkg/email"
	"github.com/sangkips/kopi-pos/pkg/logger"
	"github.com/sangkips/kopi-pos/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PaymentGateway opens charges and reports their status.
type PaymentGateway interface {
	Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error)
	Status(ctx context.Context, orderID string) (*payment.Notification, error)
}

// PaymentNotifier sends the customer-facing confirmation.
type PaymentNotifier interface {
	Enabled() bool
	SendPaymentConfirmation(to string, data email.PaymentConfirmation) error
}

// PaymentService charges digital sales and applies gateway status updates
type PaymentService struct {
	tx          repository.Transactor
	saleRepo    repository.SaleRepository
	paymentRepo repository.PaymentRepository
	gateway     PaymentGateway
	serverKey   string
	locker      Locker
	notifier    PaymentNotifier
	log         *logrus.Logger
	now         func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	tx repository.Transactor,
	saleRepo repository.SaleRepository,
	paymentRepo repository.PaymentRepository,
	gateway PaymentGateway,
	serverKey string,
	locker Locker,
	notifier PaymentNotifier,
	log *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		tx:          tx,
		saleRepo:    saleRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		serverKey:   serverKey,
		locker:      locker,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
}

// MapGatewayStatus translates a gateway transaction status into a payment status.
// ok is false for statuses that must be ignored.
func MapGatewayStatus(transactionStatus, fraudStatus string) (status enum.PaymentStatus, ok bool) {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "accept" {
			return enum.PaymentStatusCompleted, true
		}
		return 0, false
	case "settlement":
		return enum.PaymentStatusCompleted, true
	case "cancel", "deny", "expire":
		return enum.PaymentStatusFailed, true
	case "pending":
		return enum.PaymentStatusPending, true
	}
	return 0, false
}

func methodFromGateway(paymentType string) (enum.PaymentMethod, bool) {
	switch paymentType {
	case "qris", "gopay", "shopeepay":
		return enum.PaymentMethodQRIS, true
	case "bank_transfer", "echannel", "permata":
		return enum.PaymentMethodTransfer, true
	}
	return "", false
}

// HandleNotification authenticates a gateway callback and applies it. Only a bad
// signature is returned as an error; everything after verification is logged so
// the gateway always gets a success response.
func (s *PaymentService) HandleNotification(ctx context.Context, n *payment.Notification) error {
	if s.serverKey == "" || !payment.VerifySignature(n, s.serverKey) {
		s.log.WithFields(logrus.Fields{
			"module":   "payment",
			"order_id": orderIDOf(n),
		}).Warn("rejected notification with invalid signature")
		return apperror.ErrInvalidSignature
	}

	fields := logrus.Fields{
		"module":             "payment",
		"order_id":           n.OrderID,
		"transaction_status": n.TransactionStatus,
		"fraud_status":       n.FraudStatus,
	}

	status, ok := MapGatewayStatus(n.TransactionStatus, n.FraudStatus)
	if !ok {
		s.log.WithFields(fields).Info("ignoring unrecognized transaction status")
		return nil
	}

	changed, err := s.applyStatus(ctx, n, status)
	if err != nil {
		logger.LogError(s.log, "payment", "HandleNotification", "apply status", fields, err)
		return nil
	}
	if changed {
		s.log.WithFields(fields).WithField("status", status.String()).Info("payment status updated")
	}
	return nil
}

func orderIDOf(n *payment.Notification) string {
	if n == nil {
		return ""
	}
	return n.OrderID
}

// applyStatus moves the payment referenced by n.OrderID to status. Terminal states
// never change and repeating the current status is a no-op, so replays are safe.
// It reports whether a transition happened.
func (s *PaymentService) applyStatus(ctx context.Context, n *payment.Notification, status enum.PaymentStatus) (bool, error) {
	release := obtainLock(ctx, s.locker, s.log, "payment:"+n.OrderID)
	defer release()

	var (
		changed bool
		saleID  uuid.UUID
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.paymentRepo.GetByReferenceForUpdate(ctx, n.OrderID)
		if err != nil {
			return apperror.Persistence(err)
		}
		if p == nil {
			return apperror.NewNotFoundError("Payment for order " + n.OrderID)
		}
		if p.Status == status || p.Status.IsTerminal() {
			return nil
		}

		p.Status = status
		if method, ok := methodFromGateway(n.PaymentType); ok {
			p.Method = method
		}
		if n.TransactionID != "" {
			tid := n.TransactionID
			p.TransactionID = &tid
		}
		if status == enum.PaymentStatusCompleted {
			now := s.now()
			p.PaidAt = &now
			if gross, err := decimal.NewFromString(n.GrossAmount); err == nil {
				p.Amount = gross
				if err := s.saleRepo.UpdatePaid(ctx, p.SaleID, gross); err != nil {
					return apperror.Persistence(err)
				}
			}
		}
		if err := s.paymentRepo.Update(ctx, p); err != nil {
			return apperror.Persistence(err)
		}

		changed = true
		saleID = p.SaleID
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed && status == enum.PaymentStatusCompleted {
		s.sendConfirmation(ctx, saleID)
	}
	return changed, nil
}

func (s *PaymentService) sendConfirmation(ctx context.Context, saleID uuid.UUID) {
	if s.notifier == nil || !s.notifier.Enabled() {
		return
	}

	sale, err := s.saleRepo.GetByID(ctx, saleID)
	if err != nil || sale == nil {
		s.log.WithField("sale_id", saleID).WithError(err).Warn("could not load sale for confirmation email")
		return
	}
	if sale.Customer == nil || sale.Customer.Email == nil || *sale.Customer.Email == "" {
		return
	}

	data := email.PaymentConfirmation{
		CustomerName: sale.Customer.Name,
		InvoiceNo:    sale.InvoiceNo,
		Method:       string(sale.PaymentType),
		Total:        utils.FormatRupiah(sale.Total),
		PaidAt:       s.now().Format("02 Jan 2006 15:04"),
	}
	if p := sale.PrimaryPayment(); p != nil && p.PaidAt != nil {
		data.PaidAt = p.PaidAt.Format("02 Jan 2006 15:04")
	}
	for _, item := range sale.Items {
		data.Lines = append(data.Lines, email.PaymentConfirmationLine{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Total:    utils.FormatRupiah(item.Total),
		})
	}

	if err := s.notifier.SendPaymentConfirmation(*sale.Customer.Email, data); err != nil {
		logger.LogError(s.log, "payment", "sendConfirmation", "smtp", sale.InvoiceNo, err)
	}
}

// ChargeInput selects the bank for transfer charges.
type ChargeInput struct {
	Bank enum.Bank
}

// ChargeSale opens the gateway charge for a pending digital sale.
func (s *PaymentService) ChargeSale(ctx context.Context, actor *Actor, saleID uuid.UUID, input ChargeInput) (*payment.ChargeResult, error) {
	sale, p, err := s.digitalPayment(ctx, actor, saleID)
	if err != nil {
		return nil, err
	}
	if p.Status != enum.PaymentStatusPending {
		return nil, fieldError("status", "payment is already "+p.Status.String())
	}
	if sale.PaymentType == enum.PaymentMethodTransfer && !input.Bank.IsValid() {
		return nil, fieldError("bank", "must be one of: bca bni bri permata")
	}

	req := payment.ChargeRequest{
		OrderID:     *p.Reference,
		GrossAmount: sale.Total.Round(0).IntPart(),
		Method:      sale.PaymentType,
		Bank:        input.Bank,
	}
	if sale.Customer != nil {
		req.CustomerName = sale.Customer.Name
		if sale.Customer.Email != nil {
			req.CustomerEmail = *sale.Customer.Email
		}
	}

	result, err := s.gateway.Charge(ctx, req)
	if errors.Is(err, payment.ErrNotConfigured) {
		return nil, apperror.NewGatewayError("Payment gateway is not configured", err)
	}
	if err != nil {
		logger.LogError(s.log, "payment", "ChargeSale", "gateway charge", req.OrderID, err)
		return nil, apperror.NewGatewayError("Payment gateway rejected the charge", err)
	}

	if result.TransactionID != "" {
		if err := s.recordTransactionID(ctx, req.OrderID, result.TransactionID); err != nil {
			logger.LogError(s.log, "payment", "ChargeSale", "record transaction id", req.OrderID, err)
		}
	}

	s.log.WithFields(logrus.Fields{
		"module":   "payment",
		"order_id": req.OrderID,
		"method":   req.Method,
		"amount":   req.GrossAmount,
	}).Info("charge created")
	return result, nil
}

func (s *PaymentService) recordTransactionID(ctx context.Context, reference, transactionID string) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.paymentRepo.GetByReferenceForUpdate(ctx, reference)
		if err != nil || p == nil {
			return err
		}
		if p.TransactionID != nil && *p.TransactionID == transactionID {
			return nil
		}
		p.TransactionID = &transactionID
		return s.paymentRepo.Update(ctx, p)
	})
}

// PaymentStatusResult is the payment state reported to the cashier screen.
type PaymentStatusResult struct {
	SaleID            uuid.UUID          `json:"sale_id"`
	InvoiceNo         string             `json:"invoice_no"`
	Method            enum.PaymentMethod `json:"method"`
	Status            enum.PaymentStatus `json:"status"`
	TransactionStatus string             `json:"transaction_status,omitempty"`
	PaidAt            *time.Time         `json:"paid_at,omitempty"`
}

// CheckPaymentStatus asks the gateway for the latest status of a pending digital
// payment and applies it the same way a notification would.
func (s *PaymentService) CheckPaymentStatus(ctx context.Context, actor *Actor, saleID uuid.UUID) (*PaymentStatusResult, error) {
	sale, p, err := s.digitalPayment(ctx, actor, saleID)
	if err != nil {
		return nil, err
	}

	result := &PaymentStatusResult{
		SaleID:    sale.ID,
		InvoiceNo: sale.InvoiceNo,
		Method:    p.Method,
		Status:    p.Status,
		PaidAt:    p.PaidAt,
	}
	if p.Status.IsTerminal() {
		return result, nil
	}

	n, err := s.gateway.Status(ctx, *p.Reference)
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			return nil, apperror.NewGatewayError("Payment gateway is not configured", err)
		}
		return nil, apperror.NewGatewayError("Could not query payment status", err)
	}
	result.TransactionStatus = n.TransactionStatus

	if status, ok := MapGatewayStatus(n.TransactionStatus, n.FraudStatus); ok {
		if _, err := s.applyStatus(ctx, n, status); err != nil {
			return nil, apperror.Persistence(err)
		}
	}

	updated, err := s.paymentRepo.GetBySaleID(ctx, sale.ID)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	if updated != nil {
		result.Method = updated.Method
		result.Status = updated.Status
		result.PaidAt = updated.PaidAt
	}
	return result, nil
}

func (s *PaymentService) digitalPayment(ctx context.Context, actor *Actor, saleID uuid.UUID) (*entity.Sale, *entity.Payment, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}

	sale, err := s.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, nil, apperror.Persistence(err)
	}
	if sale == nil || !actor.CanAccess(sale.CashierID) {
		return nil, nil, apperror.NewNotFoundError("Sale")
	}
	if !sale.PaymentType.IsDigital() {
		return nil, nil, fieldError("payment_type", "cash sales are settled at the counter")
	}

	p := sale.PrimaryPayment()
	if p == nil || p.Reference == nil {
		return nil, nil, fieldError("payment", "sale has no gateway reference")
	}
	return sale, p, nil
}
