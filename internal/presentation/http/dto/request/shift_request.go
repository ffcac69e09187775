package request

import "github.com/shopspring/decimal"

type OpenShiftRequest struct {
	OpeningCash decimal.Decimal `json:"opening_cash"`
	Notes       *string         `json:"notes"`
}

type CloseShiftRequest struct {
	ClosingCash decimal.Decimal `json:"closing_cash"`
	Notes       *string         `json:"notes"`
}
