package book

import (
	"sort"
	"time"

	"okfix/internal/model"
	"okfix/internal/model/enum"
)

// Reconstruct assembles a corrected, sorted order book snapshot from the
// raw bid and ask entries of a single snapshot message. It reports false
// when either side is empty, in which case no book is published.
//
// OKCoin snapshots have been observed to deliver bid/ask with swapped side
// labels. The anomaly is detected on the raw first element of each list,
// before sorting: when the nominal lowest ask does not exceed the nominal
// highest bid, every entry is relabeled to the opposite side and the lists
// exchange roles. Prices, amounts and timestamps are unchanged.
func Reconstruct(ts time.Time, bids, asks []model.LimitOrder) (*model.OrderBook, bool) {
	if len(bids) == 0 || len(asks) == 0 {
		return nil, false
	}

	if asks[0].Price.Cmp(bids[0].Price) <= 0 {
		bids, asks = relabel(asks, enum.SideBid), relabel(bids, enum.SideAsk)
	} else {
		bids, asks = clone(bids), clone(asks)
	}

	sortSide(bids)
	sortSide(asks)

	return model.NewOrderBook(ts, asks, bids), true
}

func relabel(orders []model.LimitOrder, side enum.Side) []model.LimitOrder {
	out := make([]model.LimitOrder, len(orders))
	for i, order := range orders {
		out[i] = order.WithSide(side)
	}

	return out
}

func clone(orders []model.LimitOrder) []model.LimitOrder {
	out := make([]model.LimitOrder, len(orders))
	copy(out, orders)

	return out
}

// sortSide stable-sorts one side in its natural order, so entries with
// equal prices keep their input order.
func sortSide(orders []model.LimitOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Before(orders[j])
	})
}
