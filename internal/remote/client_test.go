package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/xrplrest/internal/submit"
)

const testHash = "61DE29B8E3F1B9B617C5A6A0B693AC21BACECE0E1D1FC8C0C3B0B6DAB9C9EB46"

// fakeRippled is a scriptable single-connection rippled stand-in. Command
// handlers produce response payloads; push injects stream messages.
type fakeRippled struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conn     *websocket.Conn
	ready    chan struct{}
	handlers map[string]func(req map[string]any) map[string]any
}

func newFakeRippled(t *testing.T) *fakeRippled {
	f := &fakeRippled{
		t:        t,
		ready:    make(chan struct{}),
		handlers: map[string]func(req map[string]any) map[string]any{},
	}
	f.handlers["subscribe"] = func(req map[string]any) map[string]any {
		return map[string]any{
			"status": "success",
			"result": map[string]any{"ledger_index": 1000},
		}
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRippled) url() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func (f *fakeRippled) handle(command string, fn func(req map[string]any) map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[command] = fn
}

func (f *fakeRippled) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
	close(f.ready)

	for {
		var req map[string]any
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		command, _ := req["command"].(string)

		f.mu.Lock()
		handler := f.handlers[command]
		f.mu.Unlock()
		if handler == nil {
			f.t.Errorf("unexpected command %q", command)
			return
		}

		resp := handler(req)
		resp["id"] = req["id"]
		resp["type"] = "response"
		f.write(resp)
	}
}

func (f *fakeRippled) write(msg map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.Marshal(msg)
	require.NoError(f.t, err)
	_ = f.conn.WriteMessage(websocket.TextMessage, data)
}

// push injects a stream message once the connection is up.
func (f *fakeRippled) push(msg map[string]any) {
	<-f.ready
	f.write(msg)
}

func dialTestClient(t *testing.T, f *fakeRippled) *Client {
	t.Helper()
	client, err := Dial(context.Background(), Config{
		URL:              f.url(),
		HandshakeTimeout: 5 * time.Second,
		CallTimeout:      5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDialSubscribes(t *testing.T) {
	f := newFakeRippled(t)
	client := dialTestClient(t, f)
	assert.Equal(t, uint32(1000), client.CurrentLedger())
}

func TestAccountSequence(t *testing.T) {
	f := newFakeRippled(t)
	f.handle("account_info", func(req map[string]any) map[string]any {
		assert.Equal(t, "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", req["account"])
		return map[string]any{
			"status": "success",
			"result": map[string]any{
				"account_data": map[string]any{"Sequence": 42},
			},
		}
	})
	client := dialTestClient(t, f)

	seq, err := client.AccountSequence(context.Background(), "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh")
	require.NoError(t, err)
	assert.Equal(t, uint32(42), seq)
}

func TestAccountSequenceNotFound(t *testing.T) {
	f := newFakeRippled(t)
	f.handle("account_info", func(req map[string]any) map[string]any {
		return map[string]any{
			"status":        "error",
			"error":         "actNotFound",
			"error_message": "Account not found.",
		}
	})
	client := dialTestClient(t, f)

	_, err := client.AccountSequence(context.Background(), "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh")
	assert.ErrorIs(t, err, submit.ErrAccountNotFound)
}

func TestSign(t *testing.T) {
	f := newFakeRippled(t)
	f.handle("sign", func(req map[string]any) map[string]any {
		assert.Equal(t, "shhh", req["secret"])
		tx, ok := req["tx_json"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "OfferCreate", tx["TransactionType"])
		return map[string]any{
			"status": "success",
			"result": map[string]any{
				"tx_blob": "DEADBEEF",
				"tx_json": map[string]any{"hash": testHash},
			},
		}
	})
	client := dialTestClient(t, f)

	blob, hash, err := client.Sign(context.Background(),
		map[string]any{"TransactionType": "OfferCreate"}, "shhh")
	require.NoError(t, err)
	assert.Equal(t, "DEADBEEF", blob)
	assert.Equal(t, testHash, hash)
}

func TestSignBadSecret(t *testing.T) {
	f := newFakeRippled(t)
	f.handle("sign", func(req map[string]any) map[string]any {
		return map[string]any{
			"status":        "error",
			"error":         "badSecret",
			"error_message": "Secret does not match account.",
		}
	})
	client := dialTestClient(t, f)

	_, _, err := client.Sign(context.Background(), map[string]any{}, "foo")
	assert.ErrorIs(t, err, submit.ErrInvalidSecret)
}

func TestSubmit(t *testing.T) {
	f := newFakeRippled(t)
	f.handle("submit", func(req map[string]any) map[string]any {
		assert.Equal(t, "DEADBEEF", req["tx_blob"])
		return map[string]any{
			"status": "success",
			"result": map[string]any{
				"engine_result":         "tesSUCCESS",
				"engine_result_code":    0,
				"engine_result_message": "The transaction was applied.",
				"tx_json":               map[string]any{"hash": testHash},
			},
		}
	})
	client := dialTestClient(t, f)

	out, err := client.Submit(context.Background(), "DEADBEEF")
	require.NoError(t, err)
	assert.Equal(t, "tesSUCCESS", out.Result)
	assert.Equal(t, testHash, out.Hash)
	assert.True(t, out.Provisional())
}

func TestLedgerCloseFanout(t *testing.T) {
	f := newFakeRippled(t)
	client := dialTestClient(t, f)

	closes, cancel := client.WatchLedgerClose()
	defer cancel()

	f.push(map[string]any{"type": "ledgerClosed", "ledger_index": 1001})

	select {
	case idx := <-closes:
		assert.Equal(t, uint32(1001), idx)
	case <-time.After(5 * time.Second):
		t.Fatal("no ledger close notification")
	}
	assert.Equal(t, uint32(1001), client.CurrentLedger())
}

func TestTransactionEventDelivery(t *testing.T) {
	f := newFakeRippled(t)
	client := dialTestClient(t, f)

	events, cancel := client.WatchTransaction(testHash)
	defer cancel()

	// An event for an unrelated hash must be discarded quietly.
	f.push(map[string]any{
		"type":          "transaction",
		"engine_result": "tesSUCCESS",
		"validated":     true,
		"transaction":   map[string]any{"hash": strings.Repeat("A", 64)},
	})
	f.push(map[string]any{
		"type":                  "transaction",
		"engine_result":         "tesSUCCESS",
		"engine_result_message": "The transaction was applied.",
		"ledger_index":          1002,
		"validated":             true,
		"transaction":           map[string]any{"hash": testHash},
	})

	select {
	case ev := <-events:
		assert.Equal(t, testHash, ev.Hash)
		assert.Equal(t, "tesSUCCESS", ev.Result)
		assert.Equal(t, uint32(1002), ev.LedgerIndex)
		assert.True(t, ev.Validated)
	case <-time.After(5 * time.Second):
		t.Fatal("no transaction event")
	}
}

func TestWatchCancelDiscardsLateEvents(t *testing.T) {
	f := newFakeRippled(t)
	client := dialTestClient(t, f)

	events, cancel := client.WatchTransaction(testHash)
	cancel()

	f.push(map[string]any{
		"type":          "transaction",
		"engine_result": "tesSUCCESS",
		"validated":     true,
		"transaction":   map[string]any{"hash": testHash},
	})

	select {
	case ev, ok := <-events:
		if ok {
			t.Fatalf("unexpected event after cancel: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCloseFailsOutstandingCalls(t *testing.T) {
	f := newFakeRippled(t)
	f.handle("account_info", func(req map[string]any) map[string]any {
		// Never answered; the connection dies first.
		time.Sleep(time.Hour)
		return nil
	})
	client := dialTestClient(t, f)

	errc := make(chan error, 1)
	go func() {
		_, err := client.AccountSequence(context.Background(), "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh")
		errc <- err
	}()

	time.Sleep(50 * time.Millisecond)
	client.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, submit.ErrNodeUnavailable)
	case <-time.After(5 * time.Second):
		t.Fatal("call did not fail on close")
	}
}
