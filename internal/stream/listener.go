package stream

import (
	"github.com/quickfixgo/quickfix"

	"okfix/internal/model"
)

// Listener receives normalized market data produced by the application.
// Callbacks run on the FIX engine's dispatch goroutine and must not block.
type Listener interface {
	OnOrderBook(book *model.OrderBook, sessionID quickfix.SessionID)
	OnTrades(trades []model.Trade, sessionID quickfix.SessionID)
	OnTicker(ticker model.Ticker, sessionID quickfix.SessionID)
	OnAccountInfo(info model.AccountInfo, sessionID quickfix.SessionID)
}

// NopListener implements Listener with no-ops, for embedding.
type NopListener struct{}

func (NopListener) OnOrderBook(*model.OrderBook, quickfix.SessionID)    {}
func (NopListener) OnTrades([]model.Trade, quickfix.SessionID)          {}
func (NopListener) OnTicker(model.Ticker, quickfix.SessionID)           {}
func (NopListener) OnAccountInfo(model.AccountInfo, quickfix.SessionID) {}
