// Package remote multiplexes the gateway's traffic over a single WebSocket
// connection to a rippled node: command request/response correlation by id,
// validated-transaction events dispatched to per-hash waiters, and
// ledger-close notifications fanned out to expiry watchers.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"

	"github.com/LeJamon/xrplrest/internal/submit"
)

// resolvedCacheSize bounds the cache of recently resolved transaction
// hashes, used to tell late duplicate events apart from genuinely unknown
// ones.
const resolvedCacheSize = 512

// Config carries the connection parameters for a rippled node.
type Config struct {
	// URL is the node's WebSocket endpoint, e.g. "wss://s1.ripple.com:443".
	URL string

	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration

	// CallTimeout bounds each command round trip.
	CallTimeout time.Duration
}

// Error is an error response from the node's command interface.
type Error struct {
	Name    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Name + ": " + e.Message
	}
	return e.Name
}

// Client is a connected rippled session. It implements the account-info,
// signing and node collaborator interfaces consumed by the submission
// coordinator.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu        sync.Mutex
	pending   map[uint64]chan *response
	waiters   map[string]chan submit.TxEvent
	closeSubs map[uint64]chan uint32
	closed    bool
	err       error

	nextID        atomic.Uint64
	nextSubID     atomic.Uint64
	currentLedger atomic.Uint32

	resolved    *lru.Cache[string, struct{}]
	callTimeout time.Duration
	done        chan struct{}
}

// Dial connects to the node, starts the read loop and subscribes to the
// ledger and transactions streams.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}

	resolved, err := lru.New[string, struct{}](resolvedCacheSize)
	if err != nil {
		conn.Close()
		return nil, err
	}

	c := &Client{
		conn:        conn,
		pending:     make(map[uint64]chan *response),
		waiters:     make(map[string]chan submit.TxEvent),
		closeSubs:   make(map[uint64]chan uint32),
		resolved:    resolved,
		callTimeout: cfg.CallTimeout,
		done:        make(chan struct{}),
	}
	go c.readLoop()

	if err := c.subscribe(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	log.WithFields(log.Fields{
		"url":    cfg.URL,
		"ledger": c.CurrentLedger(),
	}).Info("connected to rippled")
	return c, nil
}

func (c *Client) subscribe(ctx context.Context) error {
	raw, err := c.call(ctx, "subscribe", map[string]any{
		"streams": []string{"ledger", "transactions"},
	})
	if err != nil {
		return err
	}
	var result subscribeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	if result.LedgerIndex > 0 {
		c.currentLedger.Store(result.LedgerIndex)
	}
	return nil
}

// Close tears down the connection. All outstanding calls and watches resolve
// with ErrNodeUnavailable.
func (c *Client) Close() error {
	c.shutdown(submit.ErrNodeUnavailable)
	return nil
}

// Done is closed when the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err reports why the connection ended, nil before that.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// CurrentLedger returns the index of the most recently closed ledger seen on
// the connection.
func (c *Client) CurrentLedger() uint32 {
	return c.currentLedger.Load()
}

// AccountSequence fetches the account's current transaction sequence.
func (c *Client) AccountSequence(ctx context.Context, account string) (uint32, error) {
	raw, err := c.call(ctx, "account_info", map[string]any{
		"account":      account,
		"ledger_index": "current",
	})
	if err != nil {
		var rerr *Error
		if errors.As(err, &rerr) && rerr.Name == "actNotFound" {
			return 0, fmt.Errorf("%s: %w", account, submit.ErrAccountNotFound)
		}
		return 0, err
	}
	var result accountInfoResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, err
	}
	return result.AccountData.Sequence, nil
}

// Sign has the node derive the signed blob and hash for an unsigned
// tx_json. The secret travels on this one call and nowhere else.
func (c *Client) Sign(ctx context.Context, tx map[string]any, secret string) (string, string, error) {
	raw, err := c.call(ctx, "sign", map[string]any{
		"tx_json": tx,
		"secret":  secret,
	})
	if err != nil {
		var rerr *Error
		if errors.As(err, &rerr) && (rerr.Name == "badSecret" || rerr.Name == "badSeed") {
			return "", "", submit.ErrInvalidSecret
		}
		return "", "", err
	}
	var result signResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", "", err
	}
	return result.TxBlob, result.TxJSON.Hash, nil
}

// Submit hands a signed blob to the node and returns the immediate engine
// acknowledgment.
func (c *Client) Submit(ctx context.Context, blob string) (*submit.EngineOutcome, error) {
	raw, err := c.call(ctx, "submit", map[string]any{"tx_blob": blob})
	if err != nil {
		return nil, err
	}
	var result submitResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &submit.EngineOutcome{
		Code:    result.EngineResultCode,
		Result:  result.EngineResult,
		Message: result.EngineResultMessage,
		Hash:    result.TxJSON.Hash,
	}, nil
}

// WatchTransaction registers a waiter for validated events matching hash.
// The returned cancel unregisters the waiter and remembers the hash so that
// late duplicate events are discarded quietly.
func (c *Client) WatchTransaction(hash string) (<-chan submit.TxEvent, func()) {
	key := strings.ToUpper(hash)
	ch := make(chan submit.TxEvent, 4)

	c.mu.Lock()
	if c.closed {
		close(ch)
		c.mu.Unlock()
		return ch, func() {}
	}
	c.waiters[key] = ch
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.waiters, key)
			c.mu.Unlock()
			c.resolved.Add(key, struct{}{})
		})
	}
	return ch, cancel
}

// WatchLedgerClose registers a subscriber for ledger-close notifications.
func (c *Client) WatchLedgerClose() (<-chan uint32, func()) {
	id := c.nextSubID.Add(1)
	ch := make(chan uint32, 4)

	c.mu.Lock()
	if c.closed {
		close(ch)
		c.mu.Unlock()
		return ch, func() {}
	}
	c.closeSubs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.closeSubs, id)
			c.mu.Unlock()
		})
	}
	return ch, cancel
}

// call performs one command round trip.
func (c *Client) call(ctx context.Context, command string, params map[string]any) (json.RawMessage, error) {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	id := c.nextID.Add(1)
	ch := make(chan *response, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, submit.ErrNodeUnavailable
	}
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	msg := map[string]any{"id": id, "command": command}
	for k, v := range params {
		msg[k] = v
	}
	if err := c.writeJSON(msg); err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}

	select {
	case resp := <-ch:
		if resp.Status == "error" {
			return nil, &Error{Name: resp.Error, Message: resp.ErrorMessage}
		}
		return resp.Result, nil
	case <-c.done:
		return nil, submit.ErrNodeUnavailable
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown(fmt.Errorf("%w: %v", submit.ErrNodeUnavailable, err))
			return
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	var probe frame
	if err := json.Unmarshal(data, &probe); err != nil {
		log.WithError(err).Debug("discarding unparseable message")
		return
	}

	switch {
	case probe.Type == "response" && probe.ID != nil:
		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		c.mu.Unlock()
		if ok {
			ch <- &resp
		}

	case probe.Type == "ledgerClosed":
		var msg ledgerClosedMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		c.currentLedger.Store(msg.LedgerIndex)
		c.mu.Lock()
		for _, ch := range c.closeSubs {
			select {
			case ch <- msg.LedgerIndex:
			default:
				// Slow subscriber; it will catch up on the next close.
			}
		}
		c.mu.Unlock()

	case probe.Type == "transaction":
		var msg transactionMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		c.deliverTx(&msg)
	}
}

func (c *Client) deliverTx(msg *transactionMsg) {
	key := strings.ToUpper(msg.txHash())
	if key == "" {
		return
	}

	c.mu.Lock()
	ch, ok := c.waiters[key]
	c.mu.Unlock()

	if !ok {
		if _, seen := c.resolved.Get(key); !seen {
			log.WithField("hash", key).Debug("discarding event with no registered waiter")
		}
		return
	}

	ev := submit.TxEvent{
		Hash:        key,
		Result:      msg.EngineResult,
		Message:     msg.EngineResultMessage,
		LedgerIndex: msg.LedgerIndex,
		Validated:   msg.Validated,
	}
	select {
	case ch <- ev:
	default:
		log.WithField("hash", key).Warn("dropping event for saturated waiter")
	}
}

// shutdown closes the connection once and fails everything outstanding.
func (c *Client) shutdown(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.err = cause
	for _, ch := range c.waiters {
		close(ch)
	}
	for _, ch := range c.closeSubs {
		close(ch)
	}
	c.waiters = map[string]chan submit.TxEvent{}
	c.closeSubs = map[uint64]chan uint32{}
	c.mu.Unlock()

	c.conn.Close()
	close(c.done)
}
