// Package payment talks to the Midtrans Core API and verifies its notifications.
package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"github.com/sangkips/kopi-pos/internal/domain/enum"
)

// ChargeRequest asks the gateway to open a QRIS or bank transfer payment.
// GrossAmount is in whole rupiah.
type ChargeRequest struct {
	OrderID       string
	GrossAmount   int64
	Method        enum.PaymentMethod
	Bank          enum.Bank
	CustomerName  string
	CustomerEmail string
}

// ChargeResult is what the cashier screen needs to show the customer.
type ChargeResult struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	QRString          string `json:"qr_string,omitempty"`
	QRURL             string `json:"qr_url,omitempty"`
	Bank              string `json:"bank,omitempty"`
	VANumber          string `json:"va_number,omitempty"`
}

// Notification is the asynchronous status callback, also returned by status checks.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
}

// Signature computes hex(sha512(orderID + statusCode + grossAmount + serverKey)).
// grossAmount must be the exact string the gateway sent, e.g. "22200.00".
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature compares the notification signature in constant time.
func VerifySignature(n *Notification, serverKey string) bool {
	if n == nil || n.SignatureKey == "" {
		return false
	}
	expected := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) == 1
}
