package submit

import "errors"

// Sentinel errors surfaced by the collaborator implementations.
var (
	// ErrInvalidSecret means the signing credential does not correspond to
	// the submitting account. Nothing is submitted when this fires.
	ErrInvalidSecret = errors.New("invalid secret")

	// ErrAccountNotFound means the account-info lookup found no such
	// account on the ledger.
	ErrAccountNotFound = errors.New("account not found")

	// ErrNodeUnavailable means the node connection dropped while a request
	// was outstanding.
	ErrNodeUnavailable = errors.New("node connection unavailable")
)

// Expiry result surfaced when no confirming event arrives before the ledger
// index passes the transaction's LastLedgerSequence.
const (
	ResultMaxLedger        = "tejMaxLedger"
	maxLedgerMessage       = "Transaction failed to make it into a validated ledger"
	invalidSecretMnemonic  = "Invalid secret"
	accountNotFoundMessage = "Account not found."
)

// Error is a transaction-kind failure: anything going wrong from signing
// onwards. Result carries the engine mnemonic (or a short code such as
// "Invalid secret") exactly as it must appear in the REST error body.
type Error struct {
	Result  string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Result + ": " + e.Message
	}
	return e.Result
}
