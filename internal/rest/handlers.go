// Package rest exposes the order lifecycle over HTTP and translates
// terminal submission outcomes into the gateway's response shapes.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/LeJamon/xrplrest/internal/amount"
	"github.com/LeJamon/xrplrest/internal/journal"
	"github.com/LeJamon/xrplrest/internal/order"
	"github.com/LeJamon/xrplrest/internal/submit"
)

// Submitter drives validated requests through the submission lifecycle.
type Submitter interface {
	SubmitOrder(ctx context.Context, req *order.Request, waitValidated bool) (*submit.Outcome, error)
	CancelOrder(ctx context.Context, req *order.CancelRequest, waitValidated bool) (*submit.Outcome, error)
}

// JournalReader serves recorded submission outcomes. Optional.
type JournalReader interface {
	Lookup(ctx context.Context, account, hash string) (*journal.Record, error)
}

// LedgerInfo reports the node's view of the current ledger, for the health
// endpoint.
type LedgerInfo interface {
	CurrentLedger() uint32
}

// Handler carries the gateway's HTTP endpoints.
type Handler struct {
	submitter Submitter
	journal   JournalReader
	ledger    LedgerInfo
}

func NewHandler(submitter Submitter, journal JournalReader, ledger LedgerInfo) *Handler {
	return &Handler{submitter: submitter, journal: journal, ledger: ledger}
}

// Register attaches all routes to the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/v1/accounts/{account}/orders", h.placeOrder).Methods(http.MethodPost)
	r.HandleFunc("/v1/accounts/{account}/orders/{hash:[0-9a-fA-F]{64}}", h.getOrder).Methods(http.MethodGet)
	r.HandleFunc("/v1/accounts/{account}/orders/{sequence}", h.cancelOrder).Methods(http.MethodDelete)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
}

// orderEcho mirrors the order fields back in a success response.
type orderEcho struct {
	Account   string        `json:"account"`
	Type      order.Side    `json:"type"`
	TakerGets amount.Amount `json:"taker_gets"`
	TakerPays amount.Amount `json:"taker_pays"`
}

// submitResponse is the success payload for order placement. State is only
// set when the caller waited for ledger validation; its absence means
// "provisionally accepted, unconfirmed".
type submitResponse struct {
	Success bool       `json:"success"`
	Order   *orderEcho `json:"order,omitempty"`
	Hash    string     `json:"hash"`
	Ledger  string     `json:"ledger"`
	State   string     `json:"state,omitempty"`
}

// cancelResponse is the success payload for order cancellation.
type cancelResponse struct {
	Success       bool   `json:"success"`
	Account       string `json:"account"`
	OfferSequence uint32 `json:"offer_sequence"`
	Hash          string `json:"hash"`
	Ledger        string `json:"ledger"`
	State         string `json:"state,omitempty"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]

	var body order.SubmitBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	req, err := order.ValidateSubmit(account, &body)
	if err != nil {
		writeError(w, err)
		return
	}

	wait := waitValidated(r, body.Validated)
	out, err := h.submitter.SubmitOrder(r.Context(), req, wait)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Success: true,
		Order: &orderEcho{
			Account:   req.Account,
			Type:      req.Type,
			TakerGets: req.TakerGets,
			TakerPays: req.TakerPays,
		},
		Hash:   out.Hash,
		Ledger: strconv.FormatUint(uint64(out.LastLedger), 10),
		State:  stateField(out),
	})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	account, sequence := vars["account"], vars["sequence"]

	var body order.CancelBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	req, err := order.ValidateCancel(account, sequence, &body)
	if err != nil {
		writeError(w, err)
		return
	}

	wait := waitValidated(r, nil)
	out, err := h.submitter.CancelOrder(r.Context(), req, wait)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cancelResponse{
		Success:       true,
		Account:       req.Account,
		OfferSequence: req.OfferSequence,
		Hash:          out.Hash,
		Ledger:        strconv.FormatUint(uint64(out.LastLedger), 10),
		State:         stateField(out),
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if h.journal == nil {
		writeJSON(w, http.StatusNotFound, errorBody{
			Type:  typeInvalidRequest,
			Error: "Transaction not found",
		})
		return
	}

	rec, err := h.journal.Lookup(r.Context(), vars["account"], vars["hash"])
	if errors.Is(err, journal.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{
			Type:  typeInvalidRequest,
			Error: "Transaction not found",
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool            `json:"success"`
		Order   *journal.Record `json:"order"`
	}{Success: true, Order: rec})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ledger := uint32(0)
	if h.ledger != nil {
		ledger = h.ledger.CurrentLedger()
	}
	status := http.StatusOK
	state := "ok"
	if ledger == 0 {
		status = http.StatusServiceUnavailable
		state = "disconnected"
	}
	writeJSON(w, status, struct {
		Status      string `json:"status"`
		LedgerIndex uint32 `json:"ledger_index"`
	}{Status: state, LedgerIndex: ledger})
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &order.ValidationError{
			Field:  "body",
			Reason: "Invalid parameter: body",
		}
	}
	return nil
}

// waitValidated reads the validated flag, query parameter first, then the
// optional body field. Default is no validation wait.
func waitValidated(r *http.Request, bodyFlag *bool) bool {
	if q := r.URL.Query().Get("validated"); q != "" {
		return q == "true"
	}
	return bodyFlag != nil && *bodyFlag
}

func stateField(out *submit.Outcome) string {
	if out.State == submit.StateValidated {
		return out.State.String()
	}
	return ""
}
