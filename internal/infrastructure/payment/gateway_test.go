package payment

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/stretchr/testify/assert"
)

func TestSignature(t *testing.T) {
	sum := sha512.Sum512([]byte("INV-20261019-0001-1700000000" + "200" + "22200.00" + "server-key"))
	want := hex.EncodeToString(sum[:])

	assert.Equal(t, want, Signature("INV-20261019-0001-1700000000", "200", "22200.00", "server-key"))
}

func TestVerifySignature(t *testing.T) {
	n := &Notification{OrderID: "INV-1", StatusCode: "200", GrossAmount: "22200.00"}
	n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, "server-key")

	assert.True(t, VerifySignature(n, "server-key"))
	assert.False(t, VerifySignature(n, "other-key"))

	tampered := *n
	tampered.GrossAmount = "1.00"
	assert.False(t, VerifySignature(&tampered, "server-key"))

	assert.False(t, VerifySignature(&Notification{OrderID: "INV-1"}, "server-key"))
	assert.False(t, VerifySignature(nil, "server-key"))
}

func TestChargeResult(t *testing.T) {
	qris := chargeResult(&coreapi.ChargeResponse{
		OrderID:           "INV-1",
		TransactionID:     "tx-1",
		TransactionStatus: "pending",
		QRString:          "000201010212",
		Actions: []coreapi.Action{
			{Name: "deeplink-redirect", URL: "gojek://"},
			{Name: "generate-qr-code", URL: "https://api.midtrans.test/qr"},
		},
	})
	assert.Equal(t, "https://api.midtrans.test/qr", qris.QRURL)
	assert.Equal(t, "000201010212", qris.QRString)
	assert.Empty(t, qris.VANumber)

	bca := chargeResult(&coreapi.ChargeResponse{
		VaNumbers: []coreapi.VANumber{{Bank: "bca", VANumber: "12345678901"}},
	})
	assert.Equal(t, "bca", bca.Bank)
	assert.Equal(t, "12345678901", bca.VANumber)

	permata := chargeResult(&coreapi.ChargeResponse{PermataVaNumber: "8562000000"})
	assert.Equal(t, "permata", permata.Bank)
	assert.Equal(t, "8562000000", permata.VANumber)
}
