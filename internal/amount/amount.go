// Package amount parses the compact "value/currency/issuer" amount notation
// used by the order endpoints.
package amount

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/xrplrest/internal/address"
)

// NativeCurrency is the currency code of the ledger's native asset.
const NativeCurrency = "XRP"

// ErrInvalidFormat is returned for any string that does not match the
// "amount[/currency/issuer]" grammar.
var ErrInvalidFormat = errors.New("invalid amount format")

// currencyPattern accepts 3-character ISO-like codes and 160-bit hex codes.
// Hex codes are carried through verbatim; expanding them is the job of the
// transaction serializer, not this package.
var currencyPattern = regexp.MustCompile(`^[A-Za-z0-9]{3}$|^[A-Fa-f0-9]{40}$`)

// Amount is a parsed order amount. Value keeps the caller's exact decimal
// string. Issuer is empty for native amounts.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
	Issuer   string `json:"issuer,omitempty"`
}

// IsNative reports whether the amount is denominated in the native asset.
func (a Amount) IsNative() bool {
	return a.Currency == NativeCurrency
}

// String renders the amount back in the compact notation.
func (a Amount) String() string {
	if a.IsNative() {
		return a.Value
	}
	return a.Value + "/" + a.Currency + "/" + a.Issuer
}

// Parse parses the compact notation. Accepted forms:
//
//	VALUE                  native amount
//	VALUE/CURRENCY/ISSUER  issued amount
//
// A currency without an issuer, a stray number of slashes, or a value that
// is not a non-negative decimal all fail with ErrInvalidFormat. Parsing is
// purely syntactic; no account lookups happen here.
func Parse(text string) (Amount, error) {
	parts := strings.Split(text, "/")

	switch len(parts) {
	case 1:
		if !validValue(parts[0]) {
			return Amount{}, ErrInvalidFormat
		}
		return Amount{Value: parts[0], Currency: NativeCurrency}, nil

	case 3:
		value, currency, issuer := parts[0], parts[1], parts[2]
		if !validValue(value) {
			return Amount{}, ErrInvalidFormat
		}
		if currency == NativeCurrency {
			// The native asset never has an issuer.
			return Amount{}, ErrInvalidFormat
		}
		if !currencyPattern.MatchString(currency) {
			return Amount{}, ErrInvalidFormat
		}
		if !address.IsValid(issuer) {
			return Amount{}, ErrInvalidFormat
		}
		return Amount{Value: value, Currency: currency, Issuer: issuer}, nil

	default:
		return Amount{}, ErrInvalidFormat
	}
}

func validValue(s string) bool {
	if s == "" {
		return false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return !d.IsNegative()
}
