package order

import (
	"github.com/shopspring/decimal"

	"github.com/LeJamon/xrplrest/internal/amount"
)

// Transaction types produced by the builder.
const (
	KindOfferCreate = "OfferCreate"
	KindOfferCancel = "OfferCancel"
)

// tfSell marks an OfferCreate that must sell the full TakerGets amount even
// when the exchange rate is better than requested.
const tfSell uint32 = 0x00080000

// DefaultLedgerOffset is how many ledgers past the build-time ledger index a
// transaction stays eligible for inclusion.
const DefaultLedgerOffset = 3

// Descriptor is an unsigned transaction ready for the signing collaborator.
// Sequence is the account's current transaction sequence; OfferSequence is
// only set for cancellations and names the offer being withdrawn.
type Descriptor struct {
	Kind               string
	Account            string
	Sequence           uint32
	OfferSequence      uint32
	TakerGets          amount.Amount
	TakerPays          amount.Amount
	Flags              uint32
	LastLedgerSequence uint32
}

// BuildCreate assembles an OfferCreate descriptor. The two amounts pass
// through exactly as validated; the only business rule applied here is the
// sell flag for "sell" orders.
func BuildCreate(req *Request, accountSeq, currentLedger uint32) *Descriptor {
	d := &Descriptor{
		Kind:               KindOfferCreate,
		Account:            req.Account,
		Sequence:           accountSeq,
		TakerGets:          req.TakerGets,
		TakerPays:          req.TakerPays,
		LastLedgerSequence: currentLedger + DefaultLedgerOffset,
	}
	if req.Type == SideSell {
		d.Flags = tfSell
	}
	return d
}

// BuildCancel assembles an OfferCancel descriptor.
func BuildCancel(req *CancelRequest, accountSeq, currentLedger uint32) *Descriptor {
	return &Descriptor{
		Kind:               KindOfferCancel,
		Account:            req.Account,
		Sequence:           accountSeq,
		OfferSequence:      req.OfferSequence,
		LastLedgerSequence: currentLedger + DefaultLedgerOffset,
	}
}

// TxJSON renders the descriptor as the tx_json object understood by the
// node's sign command.
func (d *Descriptor) TxJSON() map[string]any {
	tx := map[string]any{
		"TransactionType":    d.Kind,
		"Account":            d.Account,
		"Sequence":           d.Sequence,
		"LastLedgerSequence": d.LastLedgerSequence,
	}
	if d.Flags != 0 {
		tx["Flags"] = d.Flags
	}
	switch d.Kind {
	case KindOfferCreate:
		tx["TakerGets"] = amountField(d.TakerGets)
		tx["TakerPays"] = amountField(d.TakerPays)
	case KindOfferCancel:
		tx["OfferSequence"] = d.OfferSequence
	}
	return tx
}

// amountField renders an amount for tx_json: issued amounts as the
// {value, currency, issuer} object, native amounts as a drops string.
func amountField(a amount.Amount) any {
	if a.IsNative() {
		v, err := decimal.NewFromString(a.Value)
		if err != nil {
			// Validation guarantees a parseable value.
			return a.Value
		}
		return v.Shift(6).String()
	}
	return map[string]any{
		"value":    a.Value,
		"currency": a.Currency,
		"issuer":   a.Issuer,
	}
}
