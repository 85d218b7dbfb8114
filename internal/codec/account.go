package codec

import (
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"

	"okfix/internal/model"
)

// OKCoin vendor extensions for account information.
const (
	MsgTypeAccountInfoRequest  = "Z1000"
	MsgTypeAccountInfoResponse = "Z1001"
)

const (
	TagAccReqID          quickfix.Tag = 8000
	TagNoAccountBalances quickfix.Tag = 8100
	TagBalanceCurrency   quickfix.Tag = 8101
	TagBalanceAvailable  quickfix.Tag = 8102
	TagBalanceFrozen     quickfix.Tag = 8103
)

var accountBalancesTemplate = quickfix.GroupTemplate{
	quickfix.GroupElement(TagBalanceCurrency),
	quickfix.GroupElement(TagBalanceAvailable),
	quickfix.GroupElement(TagBalanceFrozen),
}

// DecodeAccountInfo maps an account info response onto the canonical
// account model. Pure field mapping, no branching beyond extraction.
func DecodeAccountInfo(msg *quickfix.Message) (model.AccountInfo, quickfix.MessageRejectError) {
	var info model.AccountInfo

	var sendingTime quickfix.FIXUTCTimestamp
	if err := msg.Header.GetField(tag.SendingTime, &sendingTime); err == nil {
		info.Timestamp = sendingTime.Time
	}

	group := quickfix.NewRepeatingGroup(TagNoAccountBalances, accountBalancesTemplate)
	if err := msg.Body.GetGroup(group); err != nil {
		return info, err
	}

	info.Balances = make([]model.Balance, 0, group.Len())
	for i := 0; i < group.Len(); i++ {
		entry := group.Get(i)

		currency, err := entry.GetString(TagBalanceCurrency)
		if err != nil {
			return info, err
		}

		var available, frozen quickfix.FIXDecimal
		if err := entry.GetField(TagBalanceAvailable, &available); err != nil {
			return info, err
		}
		if err := entry.GetField(TagBalanceFrozen, &frozen); err != nil {
			return info, err
		}

		info.Balances = append(info.Balances, model.Balance{
			Currency:  currency,
			Available: available.Decimal,
			Frozen:    frozen.Decimal,
		})
	}

	return info, nil
}
