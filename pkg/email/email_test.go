package email

import (
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPaymentConfirmation(t *testing.T) {
	svc := NewEmailService(EmailConfig{
		SMTPHost:  "smtp.kopi.test",
		SMTPPort:  "2525",
		FromName:  "Kopi POS",
		FromEmail: "no-reply@kopi.test",
	})

	var gotAddr string
	var gotTo []string
	var gotMsg string
	svc.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.Nil(t, a)
		return nil
	}

	err := svc.SendPaymentConfirmation("ani@kopi.test", PaymentConfirmation{
		CustomerName: "Ani",
		InvoiceNo:    "INV-20261019-0042",
		Method:       "qris",
		Total:        "Rp 22.200",
		Lines:        []PaymentConfirmationLine{{Name: "Kopi Susu", Quantity: 2, Total: "Rp 22.200"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.kopi.test:2525", gotAddr)
	assert.Equal(t, []string{"ani@kopi.test"}, gotTo)
	assert.True(t, strings.Contains(gotMsg, "Subject: Pembayaran diterima - INV-20261019-0042"))
	assert.Contains(t, gotMsg, "2 x Kopi Susu")
}

func TestSendPaymentConfirmationDisabled(t *testing.T) {
	svc := NewEmailService(EmailConfig{})
	assert.ErrorIs(t, svc.SendPaymentConfirmation("a@b.c", PaymentConfirmation{}), ErrDisabled)
}
