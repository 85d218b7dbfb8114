package stream

import (
	"github.com/google/uuid"
	fixenum "github.com/quickfixgo/enum"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"okfix/internal/codec"
)

var relatedSymTemplate = quickfix.GroupTemplate{
	quickfix.GroupElement(tag.Symbol),
}

// SubscribeOrderBook requests snapshot plus incremental updates, full
// refresh, full depth, for the symbol. Subscribing an already subscribed
// symbol is a warning no-op; no request is sent. The registry check, the
// outbound request and the registry update form one critical section.
func (app *App) SubscribeOrderBook(symbol string, sessionID quickfix.SessionID) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if _, ok := app.reqIDs[symbol]; ok {
		logs.Warnf("%s has already been subscribed", symbol)
		return nil
	}

	reqID := uuid.NewString()
	if err := app.sendMarketDataRequest(reqID, symbol, fixenum.SubscriptionRequestType_SNAPSHOT_PLUS_UPDATES, sessionID); err != nil {
		return errors.Wrap(err, "subscribe order book").With("symbol", symbol)
	}
	app.reqIDs[symbol] = reqID

	return nil
}

// UnsubscribeOrderBook disables a previous subscription, reusing its
// request id. Unsubscribing a symbol that was never subscribed is a warning
// no-op; no request is sent.
func (app *App) UnsubscribeOrderBook(symbol string, sessionID quickfix.SessionID) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	reqID, ok := app.reqIDs[symbol]
	if !ok {
		logs.Warnf("%s has not been subscribed", symbol)
		return nil
	}

	if err := app.sendMarketDataRequest(reqID, symbol, fixenum.SubscriptionRequestType_DISABLE_PREVIOUS_SNAPSHOT_PLUS_UPDATE_REQUEST, sessionID); err != nil {
		return errors.Wrap(err, "unsubscribe order book").With("symbol", symbol)
	}
	delete(app.reqIDs, symbol)

	return nil
}

func (app *App) sendMarketDataRequest(reqID, symbol string, subType fixenum.SubscriptionRequestType, sessionID quickfix.SessionID) error {
	msg := quickfix.NewMessage()
	msg.Header.SetString(tag.MsgType, msgTypeMarketDataRequest)
	msg.Body.SetString(tag.MDReqID, reqID)
	msg.Body.SetString(tag.SubscriptionRequestType, string(subType))
	msg.Body.SetInt(tag.MarketDepth, 0) // full depth
	msg.Body.SetString(tag.MDUpdateType, string(fixenum.MDUpdateType_FULL_REFRESH))

	related := quickfix.NewRepeatingGroup(tag.NoRelatedSym, relatedSymTemplate)
	related.Add().SetString(tag.Symbol, symbol)
	msg.Body.SetGroup(related)

	return app.sender.Send(msg, sessionID)
}

// RequestAccountInfo asks for the current account snapshot.
func (app *App) RequestAccountInfo(sessionID quickfix.SessionID) error {
	msg := quickfix.NewMessage()
	msg.Header.SetString(tag.MsgType, codec.MsgTypeAccountInfoRequest)
	msg.Body.SetString(codec.TagAccReqID, uuid.NewString())

	if err := app.sender.Send(msg, sessionID); err != nil {
		return errors.Wrap(err, "request account info")
	}

	return nil
}
