package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the holdings of a single currency.
type Balance struct {
	Currency  string
	Available decimal.Decimal
	Frozen    decimal.Decimal
}

// AccountInfo is the canonical account snapshot.
type AccountInfo struct {
	Timestamp time.Time
	Balances  []Balance
}
