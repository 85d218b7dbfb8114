package stream

import (
	"sync"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/yanun0323/logs"

	"okfix/internal/book"
	"okfix/internal/codec"
	"okfix/internal/model"
)

// FIX 4.4 application message types handled by the client.
const (
	msgTypeMarketDataSnapshotFullRefresh = "W"
	msgTypeMarketDataRequest             = "V"
	msgTypeMarketDataRequestReject       = "Y"
)

// Sender submits an outbound message to a FIX session.
type Sender interface {
	Send(m quickfix.Messagable, sessionID quickfix.SessionID) error
}

type sessionSender struct{}

func (sessionSender) Send(m quickfix.Messagable, sessionID quickfix.SessionID) error {
	return quickfix.SendToTarget(m, sessionID)
}

// Option configures optional collaborators of the App.
type Option struct {
	// Sender overrides outbound message submission. Defaults to
	// quickfix.SendToTarget.
	Sender Sender
	// OnLogon is invoked after a session logs on.
	OnLogon func(sessionID quickfix.SessionID)
	// Listeners receive normalized market data.
	Listeners []Listener
}

// App normalizes OKCoin FIX market data into the canonical domain model
// and dispatches it to registered listeners. It implements
// quickfix.Application; the engine drives all inbound handlers from its
// dispatch goroutine, so they stay synchronous and free of I/O.
type App struct {
	sender  Sender
	onLogon func(quickfix.SessionID)

	mu        sync.Mutex
	reqIDs    map[string]string // symbol -> MDReqID
	listeners []Listener

	cache book.Cache
}

var _ quickfix.Application = (*App)(nil)

// New creates an App.
func New(opt Option) *App {
	sender := opt.Sender
	if sender == nil {
		sender = sessionSender{}
	}

	return &App{
		sender:    sender,
		onLogon:   opt.OnLogon,
		reqIDs:    make(map[string]string),
		listeners: append([]Listener(nil), opt.Listeners...),
	}
}

// AddListener registers an additional listener.
func (app *App) AddListener(l Listener) {
	if l == nil {
		return
	}

	app.mu.Lock()
	app.listeners = append(app.listeners, l)
	app.mu.Unlock()
}

// GetOrderBook returns the latest cached order book, or nil before the
// first snapshot arrives.
func (app *App) GetOrderBook() *model.OrderBook {
	return app.cache.Load()
}

func (app *App) OnCreate(sessionID quickfix.SessionID) {}

func (app *App) OnLogon(sessionID quickfix.SessionID) {
	logs.Infof("fix session %s logged on", sessionID)
	if app.onLogon != nil {
		app.onLogon(sessionID)
	}
}

func (app *App) OnLogout(sessionID quickfix.SessionID) {
	logs.Infof("fix session %s logged out", sessionID)
}

func (app *App) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}

func (app *App) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}

func (app *App) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

// FromApp routes inbound application messages. Decode failures propagate as
// reject errors so the engine decides their fate; recognized-but-unhandled
// message types are signaled distinctly.
func (app *App) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	msgType, err := msg.Header.GetString(tag.MsgType)
	if err != nil {
		return err
	}

	switch msgType {
	case msgTypeMarketDataSnapshotFullRefresh:
		return app.onMarketDataSnapshot(msg, sessionID)
	case msgTypeMarketDataRequestReject:
		return app.onMarketDataReject(msg)
	case codec.MsgTypeAccountInfoResponse:
		return app.onAccountInfo(msg, sessionID)
	default:
		return quickfix.UnsupportedMessageType()
	}
}

func (app *App) onMarketDataSnapshot(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	snap, err := codec.DecodeSnapshot(msg)
	if err != nil {
		return err
	}

	listeners := app.currentListeners()

	if orderBook, ok := book.Reconstruct(snap.OrigTime, snap.Bids, snap.Asks); ok {
		app.cache.Store(orderBook)
		for _, l := range listeners {
			l.OnOrderBook(orderBook, sessionID)
		}
	}

	if len(snap.Trades) > 0 {
		for _, l := range listeners {
			l.OnTrades(snap.Trades, sessionID)
		}
	}

	if ticker, ok := snap.Ticker(); ok {
		for _, l := range listeners {
			l.OnTicker(ticker, sessionID)
		}
	}

	return nil
}

func (app *App) onMarketDataReject(msg *quickfix.Message) quickfix.MessageRejectError {
	reqID, err := msg.Body.GetString(tag.MDReqID)
	if err != nil {
		return err
	}

	var text string
	if msg.Body.Has(tag.Text) {
		if v, terr := msg.Body.GetString(tag.Text); terr == nil {
			text = v
		}
	}

	var symbol string
	app.mu.Lock()
	for sym, id := range app.reqIDs {
		if id == reqID {
			symbol = sym
			delete(app.reqIDs, sym)
			break
		}
	}
	app.mu.Unlock()

	logs.Warnf("market data request %s rejected (symbol %q): %s", reqID, symbol, text)
	return nil
}

func (app *App) onAccountInfo(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	info, err := codec.DecodeAccountInfo(msg)
	if err != nil {
		return err
	}

	for _, l := range app.currentListeners() {
		l.OnAccountInfo(info, sessionID)
	}

	return nil
}

func (app *App) currentListeners() []Listener {
	app.mu.Lock()
	defer app.mu.Unlock()

	return append([]Listener(nil), app.listeners...)
}
