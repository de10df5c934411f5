package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/LeJamon/xrplrest/internal/order"
	"github.com/LeJamon/xrplrest/internal/submit"
)

// Error kinds surfaced in the REST error body.
const (
	typeInvalidRequest = "invalid_request"
	typeTransaction    = "transaction"
	typeServer         = "server"
)

// errorBody is the uniform REST error shape.
type errorBody struct {
	Success bool   `json:"success"`
	Type    string `json:"type"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError translates any error from the order pipeline into the REST
// error shape. Validation failures are 400s with the offending field's
// message verbatim; anything from signing onwards is a 500 transaction
// error; infrastructure failures are 500 server errors with a generic
// message.
func writeError(w http.ResponseWriter, err error) {
	var verr *order.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Type:    typeInvalidRequest,
			Error:   verr.Reason,
			Message: verr.Message,
		})
		return
	}

	var terr *submit.Error
	if errors.As(err, &terr) {
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Type:    typeTransaction,
			Error:   terr.Result,
			Message: terr.Message,
		})
		return
	}

	if errors.Is(err, context.Canceled) {
		// Caller disconnected; nobody is reading this.
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	msg := "Internal error"
	if errors.Is(err, submit.ErrNodeUnavailable) {
		msg = "Cannot connect to rippled"
	}
	log.WithError(err).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, errorBody{
		Type:    typeServer,
		Error:   "Internal error",
		Message: msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Debug("failed to write response body")
	}
}
