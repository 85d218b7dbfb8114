package store

import (
	"encoding/json"
	"time"

	"github.com/yanun0323/errors"

	"okfix/internal/model"
)

// BookRecord is the latest order book snapshot for one symbol. Sides are
// stored as JSON price level arrays.
type BookRecord struct {
	Symbol    string `gorm:"primaryKey"`
	Timestamp time.Time
	Bids      string
	Asks      string
	UpdatedAt time.Time
}

// TickerRecord is the latest session ticker for one symbol. Decimals are
// stored as text to keep them exact.
type TickerRecord struct {
	Symbol    string `gorm:"primaryKey"`
	Timestamp time.Time
	High      string
	Low       string
	Last      string
	Volume    string
	UpdatedAt time.Time
}

type priceLevel struct {
	Price  string `json:"price"`
	Amount string `json:"amount"`
}

func newBookRecord(book *model.OrderBook) (BookRecord, error) {
	bids, err := marshalSide(book.Bids)
	if err != nil {
		return BookRecord{}, errors.Wrap(err, "marshal bids")
	}

	asks, err := marshalSide(book.Asks)
	if err != nil {
		return BookRecord{}, errors.Wrap(err, "marshal asks")
	}

	return BookRecord{
		Symbol:    book.Bids[0].Pair.String(),
		Timestamp: book.Timestamp,
		Bids:      bids,
		Asks:      asks,
	}, nil
}

func newTickerRecord(ticker model.Ticker) TickerRecord {
	return TickerRecord{
		Symbol:    ticker.Pair.String(),
		Timestamp: ticker.Timestamp,
		High:      ticker.High.String(),
		Low:       ticker.Low.String(),
		Last:      ticker.Last.String(),
		Volume:    ticker.Volume.String(),
	}
}

func marshalSide(orders []model.LimitOrder) (string, error) {
	levels := make([]priceLevel, len(orders))
	for i, order := range orders {
		levels[i] = priceLevel{
			Price:  order.Price.String(),
			Amount: order.Amount.String(),
		}
	}

	raw, err := json.Marshal(levels)
	if err != nil {
		return "", err
	}

	return string(raw), nil
}
