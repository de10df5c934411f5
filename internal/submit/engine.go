package submit

import "strings"

// successPrefix marks the "probably will apply, pending consensus" class of
// engine results. Classification is by prefix only; individual mnemonics are
// never enumerated here.
const successPrefix = "tes"

// EngineOutcome is the node's immediate acknowledgment of a submit call.
type EngineOutcome struct {
	Code    int    `json:"engine_result_code"`
	Result  string `json:"engine_result"`
	Message string `json:"engine_result_message"`
	Hash    string `json:"tx_hash,omitempty"`
}

// Provisional reports whether the engine result is tentative local success,
// as opposed to a malformed, retry or definite-failure class.
func (o *EngineOutcome) Provisional() bool {
	return successClass(o.Result)
}

func successClass(result string) bool {
	return strings.HasPrefix(result, successPrefix)
}

// TxEvent is a validated-transaction notification from the node's
// transaction stream, correlated to a waiter by hash.
type TxEvent struct {
	Hash        string
	Result      string
	Message     string
	LedgerIndex uint32
	Validated   bool
}
