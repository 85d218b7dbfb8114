package stream

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"okfix/internal/codec"
	"okfix/internal/model"
	"okfix/internal/model/enum"
)

var (
	testSessionID = quickfix.SessionID{
		BeginString:  "FIX.4.4",
		SenderCompID: "OKFIX_CLIENT",
		TargetCompID: "OKCOIN",
	}
	testOrigTime = time.Date(2014, 7, 18, 6, 30, 0, 0, time.UTC)
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*quickfix.Message
}

func (f *fakeSender) Send(m quickfix.Messagable, _ quickfix.SessionID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m.ToMessage())

	return nil
}

func (f *fakeSender) messages() []*quickfix.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*quickfix.Message(nil), f.sent...)
}

type recordListener struct {
	events  []string
	books   []*model.OrderBook
	trades  [][]model.Trade
	tickers []model.Ticker
	infos   []model.AccountInfo
}

func (l *recordListener) OnOrderBook(book *model.OrderBook, _ quickfix.SessionID) {
	l.events = append(l.events, "book")
	l.books = append(l.books, book)
}

func (l *recordListener) OnTrades(trades []model.Trade, _ quickfix.SessionID) {
	l.events = append(l.events, "trades")
	l.trades = append(l.trades, trades)
}

func (l *recordListener) OnTicker(ticker model.Ticker, _ quickfix.SessionID) {
	l.events = append(l.events, "ticker")
	l.tickers = append(l.tickers, ticker)
}

func (l *recordListener) OnAccountInfo(info model.AccountInfo, _ quickfix.SessionID) {
	l.events = append(l.events, "account")
	l.infos = append(l.infos, info)
}

type entrySpec struct {
	typ  string
	px   string
	size string
	side string
}

var testMDEntriesTemplate = quickfix.GroupTemplate{
	quickfix.GroupElement(tag.MDEntryType),
	quickfix.GroupElement(tag.MDEntryPx),
	quickfix.GroupElement(tag.MDEntrySize),
	quickfix.GroupElement(tag.Side),
}

func snapshotMessage(symbol string, entries ...entrySpec) *quickfix.Message {
	msg := quickfix.NewMessage()
	msg.Header.SetString(tag.MsgType, msgTypeMarketDataSnapshotFullRefresh)
	msg.Body.SetString(tag.Symbol, symbol)
	msg.Body.SetField(tag.OrigTime, quickfix.FIXUTCTimestamp{Time: testOrigTime})

	group := quickfix.NewRepeatingGroup(tag.NoMDEntries, testMDEntriesTemplate)
	for _, e := range entries {
		g := group.Add()
		g.SetString(tag.MDEntryType, e.typ)
		g.SetString(tag.MDEntryPx, e.px)
		if e.size != "" {
			g.SetString(tag.MDEntrySize, e.size)
		}
		if e.side != "" {
			g.SetString(tag.Side, e.side)
		}
	}
	msg.Body.SetGroup(group)

	return msg
}

func subscriptionFields(t *testing.T, msg *quickfix.Message) (reqID, subType, symbol string) {
	t.Helper()

	reqID, err := msg.Body.GetString(tag.MDReqID)
	require.Nil(t, err)
	subType, err = msg.Body.GetString(tag.SubscriptionRequestType)
	require.Nil(t, err)

	related := quickfix.NewRepeatingGroup(tag.NoRelatedSym, quickfix.GroupTemplate{
		quickfix.GroupElement(tag.Symbol),
	})
	require.Nil(t, msg.Body.GetGroup(related))
	require.Equal(t, 1, related.Len())
	symbol, err = related.Get(0).GetString(tag.Symbol)
	require.Nil(t, err)

	return reqID, subType, symbol
}

func TestSubscribeOrderBookSendsOneRequest(t *testing.T) {
	sender := &fakeSender{}
	app := New(Option{Sender: sender})

	require.NoError(t, app.SubscribeOrderBook("BTC/CNY", testSessionID))
	require.NoError(t, app.SubscribeOrderBook("BTC/CNY", testSessionID), "duplicate subscribe is a no-op")

	sent := sender.messages()
	require.Len(t, sent, 1)

	msgType, err := sent[0].Header.GetString(tag.MsgType)
	require.Nil(t, err)
	assert.Equal(t, "V", msgType)

	reqID, subType, symbol := subscriptionFields(t, sent[0])
	assert.Equal(t, "1", subType, "snapshot plus updates")
	assert.Equal(t, "BTC/CNY", symbol)

	_, uerr := uuid.Parse(reqID)
	assert.NoError(t, uerr, "request id is a freshly generated uuid")

	depth, err := sent[0].Body.GetInt(tag.MarketDepth)
	require.Nil(t, err)
	assert.Equal(t, 0, depth, "full depth")

	updateType, err := sent[0].Body.GetString(tag.MDUpdateType)
	require.Nil(t, err)
	assert.Equal(t, "0", updateType, "full refresh")
}

func TestUnsubscribeWithoutSubscribeSendsNothing(t *testing.T) {
	sender := &fakeSender{}
	app := New(Option{Sender: sender})

	require.NoError(t, app.UnsubscribeOrderBook("BTC/CNY", testSessionID))
	assert.Empty(t, sender.messages())
}

func TestUnsubscribeReusesRequestID(t *testing.T) {
	sender := &fakeSender{}
	app := New(Option{Sender: sender})

	require.NoError(t, app.SubscribeOrderBook("BTC/CNY", testSessionID))
	require.NoError(t, app.UnsubscribeOrderBook("BTC/CNY", testSessionID))

	sent := sender.messages()
	require.Len(t, sent, 2)

	subReqID, _, _ := subscriptionFields(t, sent[0])
	unsubReqID, subType, _ := subscriptionFields(t, sent[1])
	assert.Equal(t, subReqID, unsubReqID)
	assert.Equal(t, "2", subType, "disable previous request")

	// the symbol can be subscribed again with a fresh id
	require.NoError(t, app.SubscribeOrderBook("BTC/CNY", testSessionID))
	sent = sender.messages()
	require.Len(t, sent, 3)
	resubReqID, _, _ := subscriptionFields(t, sent[2])
	assert.NotEqual(t, subReqID, resubReqID)
}

func TestFromAppSnapshotDispatchOrder(t *testing.T) {
	listener := &recordListener{}
	app := New(Option{Sender: &fakeSender{}, Listeners: []Listener{listener}})

	msg := snapshotMessage("BTC/CNY",
		entrySpec{typ: "0", px: "100", size: "1"},
		entrySpec{typ: "0", px: "99", size: "2"},
		entrySpec{typ: "1", px: "101", size: "1"},
		entrySpec{typ: "2", px: "50", size: "3", side: "1"},
		entrySpec{typ: "4", px: "95"},
		entrySpec{typ: "5", px: "102"},
		entrySpec{typ: "7", px: "110"},
		entrySpec{typ: "8", px: "90"},
		entrySpec{typ: "9", px: "100.5"},
		entrySpec{typ: "B", px: "100.2", size: "12345"},
	)

	require.Nil(t, app.FromApp(msg, testSessionID))

	assert.Equal(t, []string{"book", "trades", "ticker"}, listener.events)

	require.Len(t, listener.books, 1)
	published := listener.books[0]
	require.Len(t, published.Bids, 2)
	assert.True(t, published.Bids[0].Price.Equal(decimal.RequireFromString("100")))
	assert.True(t, published.Bids[1].Price.Equal(decimal.RequireFromString("99")))
	require.Len(t, published.Asks, 1)
	assert.True(t, published.Asks[0].Price.Equal(decimal.RequireFromString("101")))

	assert.Same(t, published, app.GetOrderBook(), "the delivered book is cached")

	require.Len(t, listener.trades, 1)
	require.Len(t, listener.trades[0], 1)
	assert.Equal(t, enum.SideBid, listener.trades[0][0].Side)

	require.Len(t, listener.tickers, 1)
	assert.True(t, listener.tickers[0].Last.Equal(decimal.RequireFromString("100.2")))
}

func TestFromAppTradeOnlyMessage(t *testing.T) {
	listener := &recordListener{}
	app := New(Option{Sender: &fakeSender{}, Listeners: []Listener{listener}})

	msg := snapshotMessage("BTC/CNY",
		entrySpec{typ: "2", px: "50", size: "3", side: "1"},
	)

	require.Nil(t, app.FromApp(msg, testSessionID))

	assert.Equal(t, []string{"trades"}, listener.events, "no book or ticker callback fires")
	require.Len(t, listener.trades, 1)

	trade := listener.trades[0][0]
	assert.Equal(t, enum.SideBid, trade.Side)
	assert.True(t, trade.Price.Equal(decimal.RequireFromString("50")))
	assert.True(t, trade.Amount.Equal(decimal.RequireFromString("3")))

	assert.Nil(t, app.GetOrderBook())
}

func TestFromAppReversedSnapshotSwapsSides(t *testing.T) {
	listener := &recordListener{}
	app := New(Option{Sender: &fakeSender{}, Listeners: []Listener{listener}})

	msg := snapshotMessage("BTC/CNY",
		entrySpec{typ: "0", px: "101", size: "1"},
		entrySpec{typ: "1", px: "100", size: "1"},
	)

	require.Nil(t, app.FromApp(msg, testSessionID))

	require.Len(t, listener.books, 1)
	published := listener.books[0]
	require.Len(t, published.Asks, 1)
	assert.True(t, published.Asks[0].Price.Equal(decimal.RequireFromString("101")))
	assert.Equal(t, enum.SideAsk, published.Asks[0].Side)
	require.Len(t, published.Bids, 1)
	assert.True(t, published.Bids[0].Price.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, enum.SideBid, published.Bids[0].Side)
}

func TestFromAppUnsupportedMessageType(t *testing.T) {
	app := New(Option{Sender: &fakeSender{}})

	msg := quickfix.NewMessage()
	msg.Header.SetString(tag.MsgType, "8")

	err := app.FromApp(msg, testSessionID)
	require.NotNil(t, err)
}

func TestFromAppAccountInfo(t *testing.T) {
	listener := &recordListener{}
	app := New(Option{Sender: &fakeSender{}, Listeners: []Listener{listener}})

	msg := quickfix.NewMessage()
	msg.Header.SetString(tag.MsgType, codec.MsgTypeAccountInfoResponse)
	msg.Header.SetField(tag.SendingTime, quickfix.FIXUTCTimestamp{Time: testOrigTime})

	group := quickfix.NewRepeatingGroup(codec.TagNoAccountBalances, quickfix.GroupTemplate{
		quickfix.GroupElement(codec.TagBalanceCurrency),
		quickfix.GroupElement(codec.TagBalanceAvailable),
		quickfix.GroupElement(codec.TagBalanceFrozen),
	})
	g := group.Add()
	g.SetString(codec.TagBalanceCurrency, "BTC")
	g.SetString(codec.TagBalanceAvailable, "1.5")
	g.SetString(codec.TagBalanceFrozen, "0.5")
	msg.Body.SetGroup(group)

	require.Nil(t, app.FromApp(msg, testSessionID))

	assert.Equal(t, []string{"account"}, listener.events, "only the account callback fires")
	require.Len(t, listener.infos, 1)
	require.Len(t, listener.infos[0].Balances, 1)
	assert.Equal(t, "BTC", listener.infos[0].Balances[0].Currency)
}

func TestMarketDataRejectClearsSubscription(t *testing.T) {
	sender := &fakeSender{}
	app := New(Option{Sender: sender})

	require.NoError(t, app.SubscribeOrderBook("BTC/CNY", testSessionID))
	reqID, _, _ := subscriptionFields(t, sender.messages()[0])

	reject := quickfix.NewMessage()
	reject.Header.SetString(tag.MsgType, msgTypeMarketDataRequestReject)
	reject.Body.SetString(tag.MDReqID, reqID)
	reject.Body.SetString(tag.Text, "unknown symbol")

	require.Nil(t, app.FromApp(reject, testSessionID))

	// the symbol can be subscribed again after the reject
	require.NoError(t, app.SubscribeOrderBook("BTC/CNY", testSessionID))
	assert.Len(t, sender.messages(), 2)
}

func TestRequestAccountInfo(t *testing.T) {
	sender := &fakeSender{}
	app := New(Option{Sender: sender})

	require.NoError(t, app.RequestAccountInfo(testSessionID))

	sent := sender.messages()
	require.Len(t, sent, 1)

	msgType, err := sent[0].Header.GetString(tag.MsgType)
	require.Nil(t, err)
	assert.Equal(t, codec.MsgTypeAccountInfoRequest, msgType)

	reqID, err := sent[0].Body.GetString(codec.TagAccReqID)
	require.Nil(t, err)
	_, uerr := uuid.Parse(reqID)
	assert.NoError(t, uerr)
}
