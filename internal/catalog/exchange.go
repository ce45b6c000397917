package catalog

import "github.com/shopspring/decimal"

// Rates is the fixed PKR per USD table. Amounts are stored in USD and
// converted only when shown to the user or paid out.
type Rates struct {
	DepositRate  decimal.Decimal `json:"depositRate"`  // PKR received per USD credited
	WithdrawRate decimal.Decimal `json:"withdrawRate"` // PKR paid out per USD withdrawn
}

// ExchangeRates is the table used by deposits and withdrawals
var ExchangeRates = Rates{
	DepositRate:  decimal.NewFromInt(315),
	WithdrawRate: decimal.NewFromInt(270),
}

// DepositPKR converts a USD deposit to the PKR the user transfers
func DepositPKR(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(ExchangeRates.DepositRate).Round(2)
}

// WithdrawPKR converts a net USD payout to PKR
func WithdrawPKR(net decimal.Decimal) decimal.Decimal {
	return net.Mul(ExchangeRates.WithdrawRate).Round(2)
}
