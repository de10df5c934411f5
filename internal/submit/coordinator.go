// Package submit drives one order transaction through its whole lifecycle:
// signing, submission, and the asynchronous reconciliation of the immediate
// engine acknowledgment with the eventual ledger-validation outcome.
package submit

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/LeJamon/xrplrest/internal/order"
)

// AccountInfo looks up the current transaction sequence of an account.
type AccountInfo interface {
	AccountSequence(ctx context.Context, account string) (uint32, error)
}

// Signer derives a signed transaction blob and its hash from an unsigned
// tx_json object. Fails with ErrInvalidSecret when the credential does not
// match the account.
type Signer interface {
	Sign(ctx context.Context, tx map[string]any, secret string) (blob, hash string, err error)
}

// Node is the ledger-node collaborator: one-shot submission plus the two
// event sources the coordinator races while waiting for validation. Both
// Watch methods return a cancel func that must be called exactly once.
type Node interface {
	CurrentLedger() uint32
	Submit(ctx context.Context, blob string) (*EngineOutcome, error)
	WatchTransaction(hash string) (<-chan TxEvent, func())
	WatchLedgerClose() (<-chan uint32, func())
}

// Recorder persists terminal outcomes. Implementations must tolerate being
// called once per request at most.
type Recorder interface {
	RecordOutcome(ctx context.Context, account, kind string, out *Outcome) error
}

// Outcome is the terminal result of one submission. Result holds the last
// engine mnemonic observed for the transaction.
type Outcome struct {
	State      State
	Hash       string
	LastLedger uint32
	Result     string
}

// Coordinator owns a transaction descriptor from the moment validation hands
// it over until a terminal state has been reached.
type Coordinator struct {
	accounts AccountInfo
	signer   Signer
	node     Node
	recorder Recorder
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRecorder attaches a journal recording terminal outcomes.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

func New(accounts AccountInfo, signer Signer, node Node, opts ...Option) *Coordinator {
	c := &Coordinator{accounts: accounts, signer: signer, node: node}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitOrder places a new offer. With waitValidated the call blocks until
// the transaction is seen in a validated ledger or its inclusion window
// closes; otherwise it returns as soon as the engine acknowledges.
func (c *Coordinator) SubmitOrder(ctx context.Context, req *order.Request, waitValidated bool) (*Outcome, error) {
	seq, err := c.accounts.AccountSequence(ctx, req.Account)
	if err != nil {
		return nil, accountError(err)
	}
	desc := order.BuildCreate(req, seq, c.node.CurrentLedger())
	return c.run(ctx, desc, req.Secret, waitValidated)
}

// CancelOrder withdraws an existing offer by its sequence number.
func (c *Coordinator) CancelOrder(ctx context.Context, req *order.CancelRequest, waitValidated bool) (*Outcome, error) {
	seq, err := c.accounts.AccountSequence(ctx, req.Account)
	if err != nil {
		return nil, accountError(err)
	}
	desc := order.BuildCancel(req, seq, c.node.CurrentLedger())
	return c.run(ctx, desc, req.Secret, waitValidated)
}

func accountError(err error) error {
	if errors.Is(err, ErrAccountNotFound) {
		return &Error{Result: "actNotFound", Message: accountNotFoundMessage}
	}
	return fmt.Errorf("account lookup: %w", err)
}

// run executes the state machine. The secret is consumed by the single Sign
// call and not retained anywhere past it.
func (c *Coordinator) run(ctx context.Context, desc *order.Descriptor, secret string, wait bool) (*Outcome, error) {
	blob, hash, err := c.signer.Sign(ctx, desc.TxJSON(), secret)
	if err != nil {
		if errors.Is(err, ErrInvalidSecret) {
			return nil, &Error{Result: invalidSecretMnemonic}
		}
		return nil, fmt.Errorf("sign: %w", err)
	}

	logger := log.WithFields(log.Fields{
		"hash":        hash,
		"account":     desc.Account,
		"type":        desc.Kind,
		"last_ledger": desc.LastLedgerSequence,
	})
	logger.Debug("transaction signed")

	// Register the waiter before the blob goes out so a validation event
	// can never slip past between submission and subscription.
	var (
		events <-chan TxEvent
		closes <-chan uint32
	)
	if wait {
		var stopEvents, stopCloses func()
		events, stopEvents = c.node.WatchTransaction(hash)
		defer stopEvents()
		closes, stopCloses = c.node.WatchLedgerClose()
		defer stopCloses()
	}

	ack, err := c.node.Submit(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if ack.Hash != "" {
		hash = ack.Hash
	}

	if !ack.Provisional() {
		logger.WithField("engine_result", ack.Result).Info("transaction rejected by engine")
		out := &Outcome{State: StateEngineRejected, Hash: hash, LastLedger: desc.LastLedgerSequence, Result: ack.Result}
		c.record(ctx, desc, out)
		return nil, &Error{Result: ack.Result, Message: ack.Message}
	}

	if !wait {
		logger.WithField("engine_result", ack.Result).Info("transaction provisionally accepted")
		out := &Outcome{State: StateProvisional, Hash: hash, LastLedger: desc.LastLedgerSequence, Result: ack.Result}
		c.record(ctx, desc, out)
		return out, nil
	}

	return c.await(ctx, desc, hash, events, closes, logger)
}

// await blocks until exactly one of {validation event, expiry, caller
// cancellation} resolves the transaction. The registrations are torn down by
// run's deferred cancel funcs whichever way this returns.
func (c *Coordinator) await(ctx context.Context, desc *order.Descriptor, hash string, events <-chan TxEvent, closes <-chan uint32, logger *log.Entry) (*Outcome, error) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil, ErrNodeUnavailable
			}
			if !ev.Validated {
				continue
			}
			if successClass(ev.Result) {
				logger.WithField("ledger_index", ev.LedgerIndex).Info("transaction validated")
				out := &Outcome{State: StateValidated, Hash: hash, LastLedger: desc.LastLedgerSequence, Result: ev.Result}
				c.record(ctx, desc, out)
				return out, nil
			}
			// Included in a ledger but failed execution. The event's own
			// mnemonic and message are preserved so callers can tell this
			// apart from a rejection before inclusion.
			logger.WithField("engine_result", ev.Result).Info("transaction failed in validated ledger")
			out := &Outcome{State: StateEngineRejected, Hash: hash, LastLedger: desc.LastLedgerSequence, Result: ev.Result}
			c.record(ctx, desc, out)
			return nil, &Error{Result: ev.Result, Message: ev.Message}

		case idx, ok := <-closes:
			if !ok {
				return nil, ErrNodeUnavailable
			}
			if idx <= desc.LastLedgerSequence {
				continue
			}
			logger.WithField("ledger_index", idx).Info("transaction expired unvalidated")
			out := &Outcome{State: StateExpired, Hash: hash, LastLedger: desc.LastLedgerSequence, Result: ResultMaxLedger}
			c.record(ctx, desc, out)
			return nil, &Error{Result: ResultMaxLedger, Message: maxLedgerMessage}

		case <-ctx.Done():
			// Caller went away. The transaction stays in flight on the
			// network; nothing is resubmitted or reported twice.
			return nil, ctx.Err()
		}
	}
}

func (c *Coordinator) record(ctx context.Context, desc *order.Descriptor, out *Outcome) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordOutcome(ctx, desc.Account, desc.Kind, out); err != nil {
		log.WithError(err).WithField("hash", out.Hash).Warn("failed to journal outcome")
	}
}
