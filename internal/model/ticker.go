package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker is a per-session price aggregate for one currency pair.
type Ticker struct {
	Pair      CurrencyPair
	Timestamp time.Time
	High      decimal.Decimal
	Low       decimal.Decimal
	Last      decimal.Decimal
	Volume    decimal.Decimal
}
