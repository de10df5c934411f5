package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/xrplrest/internal/amount"
)

const hexCurrency = "0158415500000000C1F76FF6ECB0BAC600000000"

func TestBuildCreateRoundTrip(t *testing.T) {
	body := validBody()
	body.Order.TakerGets = "100/USD/" + issuer
	body.Order.TakerPays = "100/USD/" + issuer
	req, err := ValidateSubmit(account, body)
	require.NoError(t, err)

	d := BuildCreate(req, 42, 1000)

	assert.Equal(t, KindOfferCreate, d.Kind)
	assert.Equal(t, uint32(42), d.Sequence)
	assert.Equal(t, uint32(1000+DefaultLedgerOffset), d.LastLedgerSequence)
	assert.Equal(t, req.TakerGets, d.TakerGets, "amounts pass through untouched")
	assert.Equal(t, req.TakerPays, d.TakerPays)
}

func TestBuildCreateHexCurrency(t *testing.T) {
	body := validBody()
	body.Order.TakerGets = "0.00000001/" + hexCurrency + "/" + issuer
	req, err := ValidateSubmit(account, body)
	require.NoError(t, err)

	d := BuildCreate(req, 1, 1)
	assert.Equal(t, hexCurrency, d.TakerGets.Currency)
	assert.Equal(t, issuer, d.TakerGets.Issuer)
	assert.Equal(t, "0.00000001", d.TakerGets.Value)
}

func TestBuildCreateSellFlag(t *testing.T) {
	req, err := ValidateSubmit(account, validBody())
	require.NoError(t, err)
	require.Equal(t, SideSell, req.Type)
	assert.Equal(t, tfSell, BuildCreate(req, 1, 1).Flags)

	body := validBody()
	body.Order.Type = "buy"
	req, err = ValidateSubmit(account, body)
	require.NoError(t, err)
	assert.Zero(t, BuildCreate(req, 1, 1).Flags)
}

func TestBuildCancel(t *testing.T) {
	req, err := ValidateCancel(account, "99", &CancelBody{Secret: "shhh"})
	require.NoError(t, err)

	d := BuildCancel(req, 42, 1000)
	assert.Equal(t, KindOfferCancel, d.Kind)
	assert.Equal(t, uint32(42), d.Sequence, "submission sequence is the account's, not the offer's")
	assert.Equal(t, uint32(99), d.OfferSequence)
	assert.Equal(t, uint32(1003), d.LastLedgerSequence)
}

func TestTxJSONCreate(t *testing.T) {
	req, err := ValidateSubmit(account, validBody())
	require.NoError(t, err)

	tx := BuildCreate(req, 42, 1000).TxJSON()

	assert.Equal(t, "OfferCreate", tx["TransactionType"])
	assert.Equal(t, account, tx["Account"])
	assert.Equal(t, uint32(42), tx["Sequence"])
	assert.Equal(t, uint32(1003), tx["LastLedgerSequence"])
	assert.Equal(t, tfSell, tx["Flags"])
	assert.Equal(t, map[string]any{
		"value":    "100",
		"currency": "USD",
		"issuer":   issuer,
	}, tx["TakerGets"])
	assert.Equal(t, "100000000", tx["TakerPays"], "native amounts serialize as drops")
}

func TestTxJSONCancel(t *testing.T) {
	req, err := ValidateCancel(account, "99", &CancelBody{Secret: "shhh"})
	require.NoError(t, err)

	tx := BuildCancel(req, 42, 1000).TxJSON()

	assert.Equal(t, "OfferCancel", tx["TransactionType"])
	assert.Equal(t, uint32(99), tx["OfferSequence"])
	assert.NotContains(t, tx, "TakerGets")
	assert.NotContains(t, tx, "Flags")
}

func TestAmountFieldFractionalDrops(t *testing.T) {
	a, err := amount.Parse("0.000001")
	require.NoError(t, err)
	assert.Equal(t, "1", amountField(a))
}
