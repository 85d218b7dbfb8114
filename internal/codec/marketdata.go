package codec

import (
	"time"

	fixenum "github.com/quickfixgo/enum"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/shopspring/decimal"

	"okfix/internal/model"
	"okfix/internal/model/enum"
)

var mdEntriesTemplate = quickfix.GroupTemplate{
	quickfix.GroupElement(tag.MDEntryType),
	quickfix.GroupElement(tag.MDEntryPx),
	quickfix.GroupElement(tag.MDEntrySize),
	quickfix.GroupElement(tag.Side),
}

// Snapshot is the decoded form of one MarketDataSnapshotFullRefresh
// message. Session scalars are nil when the message carried no entry of the
// corresponding type.
type Snapshot struct {
	Pair     model.CurrencyPair
	OrigTime time.Time
	ReqID    string

	Bids   []model.LimitOrder
	Asks   []model.LimitOrder
	Trades []model.Trade

	Open   *decimal.Decimal
	Close  *decimal.Decimal
	High   *decimal.Decimal
	Low    *decimal.Decimal
	VWAP   *decimal.Decimal
	Last   *decimal.Decimal
	Volume *decimal.Decimal
}

// DecodeSnapshot decodes a market data snapshot message. It is a pure
// function of the message: no I/O, no side effects beyond the returned
// value. A missing required field on a classified entry rejects the whole
// message; unknown entry types are skipped.
func DecodeSnapshot(msg *quickfix.Message) (Snapshot, quickfix.MessageRejectError) {
	var snap Snapshot

	symbol, err := msg.Body.GetString(tag.Symbol)
	if err != nil {
		return snap, err
	}
	pair, perr := model.ParseCurrencyPair(symbol)
	if perr != nil {
		return snap, quickfix.IncorrectDataFormatForValue(tag.Symbol)
	}
	snap.Pair = pair

	var origTime quickfix.FIXUTCTimestamp
	if err := msg.Body.GetField(tag.OrigTime, &origTime); err != nil {
		return snap, err
	}
	snap.OrigTime = origTime.Time

	if msg.Body.Has(tag.MDReqID) {
		reqID, err := msg.Body.GetString(tag.MDReqID)
		if err != nil {
			return snap, err
		}
		snap.ReqID = reqID
	}

	group := quickfix.NewRepeatingGroup(tag.NoMDEntries, mdEntriesTemplate)
	if err := msg.Body.GetGroup(group); err != nil {
		return snap, err
	}

	for i := 0; i < group.Len(); i++ {
		if err := snap.decodeEntry(group.Get(i)); err != nil {
			return snap, err
		}
	}

	return snap, nil
}

func (s *Snapshot) decodeEntry(entry *quickfix.Group) quickfix.MessageRejectError {
	entryType, err := entry.GetString(tag.MDEntryType)
	if err != nil {
		return err
	}

	var pxField quickfix.FIXDecimal
	if err := entry.GetField(tag.MDEntryPx, &pxField); err != nil {
		return err
	}
	px := pxField.Decimal

	var size *decimal.Decimal
	if entry.Has(tag.MDEntrySize) {
		var sizeField quickfix.FIXDecimal
		if err := entry.GetField(tag.MDEntrySize, &sizeField); err != nil {
			return err
		}
		size = &sizeField.Decimal
	}

	switch fixenum.MDEntryType(entryType) {
	case fixenum.MDEntryType_BID:
		s.Bids = append(s.Bids, s.limitOrder(enum.SideBid, px, size))
	case fixenum.MDEntryType_OFFER:
		s.Asks = append(s.Asks, s.limitOrder(enum.SideAsk, px, size))
	case fixenum.MDEntryType_TRADE:
		side, err := entry.GetString(tag.Side)
		if err != nil {
			return err
		}
		tradeSide := enum.SideAsk
		if fixenum.Side(side) == fixenum.Side_BUY {
			tradeSide = enum.SideBid
		}
		s.Trades = append(s.Trades, model.Trade{
			Pair:   s.Pair,
			Side:   tradeSide,
			Price:  px,
			Amount: deref(size),
		})
	case fixenum.MDEntryType_OPENING_PRICE:
		s.Open = &px
	case fixenum.MDEntryType_CLOSING_PRICE:
		s.Close = &px
	case fixenum.MDEntryType_TRADING_SESSION_HIGH_PRICE:
		s.High = &px
	case fixenum.MDEntryType_TRADING_SESSION_LOW_PRICE:
		s.Low = &px
	case fixenum.MDEntryType_TRADING_SESSION_VWAP_PRICE:
		s.VWAP = &px
	case fixenum.MDEntryType_TRADE_VOLUME:
		// The exchange overloads this entry: px carries the last traded
		// price, size the session volume.
		s.Last = &px
		s.Volume = size
	default:
		// unhandled entry types are skipped
	}

	return nil
}

func (s *Snapshot) limitOrder(side enum.Side, px decimal.Decimal, size *decimal.Decimal) model.LimitOrder {
	return model.LimitOrder{
		Side:      side,
		Pair:      s.Pair,
		Price:     px,
		Amount:    deref(size),
		Timestamp: s.OrigTime,
	}
}

// Ticker builds the session ticker for this snapshot. All seven session
// fields must have been present in the message; otherwise no ticker is
// produced. Open, close and vwap only gate construction and are not
// surfaced.
func (s Snapshot) Ticker() (model.Ticker, bool) {
	if s.Open == nil || s.Close == nil || s.High == nil || s.Low == nil ||
		s.VWAP == nil || s.Last == nil || s.Volume == nil {
		return model.Ticker{}, false
	}

	return model.Ticker{
		Pair:      s.Pair,
		Timestamp: s.OrigTime,
		High:      *s.High,
		Low:       *s.Low,
		Last:      *s.Last,
		Volume:    *s.Volume,
	}, true
}

func deref(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Decimal{}
	}

	return *d
}
