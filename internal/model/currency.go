package model

import (
	"strings"

	"github.com/yanun0323/errors"
)

// CurrencyPair is an ordered base/counter currency pair, e.g. BTC/CNY.
// Immutable value; equality by value.
type CurrencyPair struct {
	Base    string
	Counter string
}

// ParseCurrencyPair splits a compound symbol into its currency pair.
// The symbol must contain exactly one separator dividing two non-empty
// currency codes.
func ParseCurrencyPair(symbol string) (CurrencyPair, error) {
	parts := strings.Split(symbol, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return CurrencyPair{}, errors.Errorf("malformed symbol: %q", symbol)
	}

	return CurrencyPair{Base: parts[0], Counter: parts[1]}, nil
}

func (p CurrencyPair) String() string {
	return p.Base + "/" + p.Counter
}
