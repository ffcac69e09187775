package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/sangkips/kopi-pos/internal/config"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
)

const paymentTypeQRIS = "qris"

// ErrNotConfigured is returned when no server key is set.
var ErrNotConfigured = errors.New("payment: midtrans server key not configured")

// MidtransGateway charges and queries payments through the Midtrans Core API.
type MidtransGateway struct {
	client       coreapi.Client
	serverKey    string
	qrisAcquirer string
}

func NewMidtransGateway(cfg config.MidtransConfig) *MidtransGateway {
	env := midtrans.Sandbox
	if cfg.IsProduction {
		env = midtrans.Production
	}

	g := &MidtransGateway{serverKey: cfg.ServerKey, qrisAcquirer: cfg.QRISAcquirer}
	g.client.New(cfg.ServerKey, env)
	return g
}

// ServerKey is the shared secret used to sign notifications.
func (g *MidtransGateway) ServerKey() string {
	return g.serverKey
}

// Charge opens a payment. The midtrans client does not accept a context; ctx is
// only checked before the call.
func (g *MidtransGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if g.serverKey == "" {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chargeReq := &coreapi.ChargeReq{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.GrossAmount,
		},
	}
	if req.CustomerName != "" || req.CustomerEmail != "" {
		chargeReq.CustomerDetails = &midtrans.CustomerDetails{
			FName: req.CustomerName,
			Email: req.CustomerEmail,
		}
	}

	switch req.Method {
	case enum.PaymentMethodQRIS:
		chargeReq.PaymentType = paymentTypeQRIS
		chargeReq.Qris = &coreapi.QrisDetails{Acquirer: g.qrisAcquirer}
	case enum.PaymentMethodTransfer:
		chargeReq.PaymentType = coreapi.PaymentTypeBankTransfer
		chargeReq.BankTransfer = &coreapi.BankTransferDetails{Bank: midtrans.Bank(req.Bank)}
	default:
		return nil, fmt.Errorf("payment: unsupported method %q", req.Method)
	}

	resp, merr := g.client.ChargeTransaction(chargeReq)
	if merr != nil {
		return nil, fmt.Errorf("midtrans charge %s: %s", req.OrderID, merr.Error())
	}
	return chargeResult(resp), nil
}

// Status fetches the current transaction state for an order id.
func (g *MidtransGateway) Status(ctx context.Context, orderID string) (*Notification, error) {
	if g.serverKey == "" {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, merr := g.client.CheckTransaction(orderID)
	if merr != nil {
		return nil, fmt.Errorf("midtrans status %s: %s", orderID, merr.Error())
	}
	return &Notification{
		OrderID:           resp.OrderID,
		StatusCode:        resp.StatusCode,
		GrossAmount:       resp.GrossAmount,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		TransactionID:     resp.TransactionID,
		PaymentType:       resp.PaymentType,
	}, nil
}

func chargeResult(resp *coreapi.ChargeResponse) *ChargeResult {
	res := &ChargeResult{
		OrderID:           resp.OrderID,
		TransactionID:     resp.TransactionID,
		TransactionStatus: resp.TransactionStatus,
		GrossAmount:       resp.GrossAmount,
		PaymentType:       resp.PaymentType,
		QRString:          resp.QRString,
	}

	for _, action := range resp.Actions {
		if action.Name == "generate-qr-code" {
			res.QRURL = action.URL
			break
		}
	}

	if resp.PermataVaNumber != "" {
		res.Bank = string(enum.BankPermata)
		res.VANumber = resp.PermataVaNumber
	} else if len(resp.VaNumbers) > 0 {
		res.Bank = resp.VaNumbers[0].Bank
		res.VANumber = resp.VaNumbers[0].VANumber
	}
	return res
}
