package enum

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentStatusJSON(t *testing.T) {
	b, err := json.Marshal(PaymentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, `"completed"`, string(b))

	var s PaymentStatus
	require.NoError(t, json.Unmarshal([]byte(`"failed"`), &s))
	assert.Equal(t, PaymentStatusFailed, s)

	require.NoError(t, json.Unmarshal([]byte(`0`), &s))
	assert.Equal(t, PaymentStatusPending, s)

	assert.Error(t, json.Unmarshal([]byte(`"refunded"`), &s))
}

func TestPaymentStatusScan(t *testing.T) {
	var s PaymentStatus
	require.NoError(t, s.Scan(int64(1)))
	assert.Equal(t, PaymentStatusCompleted, s)
	assert.True(t, s.IsTerminal())
	assert.False(t, PaymentStatusPending.IsTerminal())
	assert.Error(t, s.Scan("x"))
}

func TestPaymentMethod(t *testing.T) {
	assert.True(t, PaymentMethodQRIS.IsDigital())
	assert.False(t, PaymentMethodCash.IsDigital())
	assert.False(t, PaymentMethod("card").IsValid())
	assert.True(t, BankPermata.IsValid())
	assert.False(t, Bank("mandiri").IsValid())
}
