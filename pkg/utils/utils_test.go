package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRupiah(t *testing.T) {
	cases := map[string]string{
		"0":        "Rp 0",
		"500":      "Rp 500",
		"22200":    "Rp 22.200",
		"1357.95":  "Rp 1.358",
		"1234567":  "Rp 1.234.567",
		"-2500.00": "-Rp 2.500",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatRupiah(decimal.RequireFromString(in)), in)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "kopi-pos", time.Hour, 2*time.Hour)
	userID := uuid.New()

	access, err := m.GenerateAccessToken(userID, "kasir@kopi.test", "cashier")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "cashier", claims.Role)

	refresh, err := m.GenerateRefreshToken(userID)
	require.NoError(t, err)
	got, err := m.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = m.ValidateRefreshToken(access)
	assert.Error(t, err)

	other := NewJWTManager("other", "kopi-pos", time.Hour, time.Hour)
	_, err = other.ValidateAccessToken(access)
	assert.Error(t, err)
}
