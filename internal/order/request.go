// Package order holds the order request model, its validation rules and the
// construction of unsigned transaction descriptors.
package order

import (
	"strconv"

	"github.com/LeJamon/xrplrest/internal/address"
	"github.com/LeJamon/xrplrest/internal/amount"
)

// Side is the order direction supplied by the client.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// SubmitBody is the decoded JSON body of an order creation request.
type SubmitBody struct {
	Secret    string      `json:"secret"`
	Order     *OrderParam `json:"order"`
	Validated *bool       `json:"validated,omitempty"`
}

// OrderParam is the "order" object inside a creation body. The two amounts
// arrive in the compact "value[/currency/issuer]" notation.
type OrderParam struct {
	Type      string `json:"type"`
	TakerGets string `json:"taker_gets"`
	TakerPays string `json:"taker_pays"`
}

// CancelBody is the decoded JSON body of an order cancellation request.
type CancelBody struct {
	Secret string `json:"secret"`
}

// Request is a validated order creation request.
type Request struct {
	Account   string
	Secret    string
	Type      Side
	TakerGets amount.Amount
	TakerPays amount.Amount
}

// CancelRequest is a validated order cancellation request. OfferSequence is
// the sequence number of the offer being cancelled, not the account's
// current transaction sequence.
type CancelRequest struct {
	Account       string
	Secret        string
	OfferSequence uint32
}

// ValidationError reports a request that failed structural validation. The
// Reason string is surfaced verbatim to the caller; Message optionally adds
// a longer explanation.
type ValidationError struct {
	Field   string
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Reason + ": " + e.Message
	}
	return e.Reason
}

// ValidateSubmit checks an order creation request. Rules apply in order and
// the first failure wins; no network access happens here.
func ValidateSubmit(account string, body *SubmitBody) (*Request, error) {
	if body.Secret == "" {
		return nil, &ValidationError{
			Field:  "secret",
			Reason: "Parameter missing: secret",
		}
	}
	if !address.IsValid(account) {
		return nil, &ValidationError{
			Field:  "account",
			Reason: "Parameter is not a valid Ripple address: account",
		}
	}
	if body.Order == nil {
		return nil, &ValidationError{
			Field:   "order",
			Reason:  "Missing parameter: order",
			Message: "Submission must have order object in JSON form",
		}
	}
	side := Side(body.Order.Type)
	if side != SideBuy && side != SideSell {
		return nil, &ValidationError{
			Field:  "type",
			Reason: `Parameter must be "buy" or "sell": type`,
		}
	}
	gets, err := amount.Parse(body.Order.TakerGets)
	if err != nil {
		return nil, amountError("taker_gets")
	}
	pays, err := amount.Parse(body.Order.TakerPays)
	if err != nil {
		return nil, amountError("taker_pays")
	}

	return &Request{
		Account:   account,
		Secret:    body.Secret,
		Type:      side,
		TakerGets: gets,
		TakerPays: pays,
	}, nil
}

// ValidateCancel checks an order cancellation request. The sequence arrives
// as a path token and must be a positive integer.
func ValidateCancel(account, sequence string, body *CancelBody) (*CancelRequest, error) {
	if body.Secret == "" {
		return nil, &ValidationError{
			Field:  "secret",
			Reason: "Parameter missing: secret",
		}
	}
	if !address.IsValid(account) {
		return nil, &ValidationError{
			Field:  "account",
			Reason: "Parameter is not a valid Ripple address: account",
		}
	}
	seq, err := strconv.ParseUint(sequence, 10, 32)
	if err != nil || seq == 0 {
		return nil, &ValidationError{
			Field:   "sequence",
			Reason:  "Invalid parameter: sequence",
			Message: "Sequence must be a positive number",
		}
	}

	return &CancelRequest{
		Account:       account,
		Secret:        body.Secret,
		OfferSequence: uint32(seq),
	}, nil
}

func amountError(field string) *ValidationError {
	return &ValidationError{
		Field:  field,
		Reason: `Parameter must be in the format "amount[/currency/issuer]": ` + field,
	}
}
