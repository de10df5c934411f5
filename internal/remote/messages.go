package remote

import "encoding/json"

// frame is the minimal probe decoded from every incoming message to decide
// how to dispatch it.
type frame struct {
	ID   *uint64 `json:"id,omitempty"`
	Type string  `json:"type,omitempty"`
}

// response is a command response correlated back to its caller by id.
type response struct {
	ID           uint64          `json:"id"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	Error        string          `json:"error,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
}

// ledgerClosedMsg matches the rippled "ledgerClosed" stream message.
type ledgerClosedMsg struct {
	Type        string `json:"type"`
	LedgerIndex uint32 `json:"ledger_index"`
	LedgerHash  string `json:"ledger_hash"`
}

// transactionMsg matches the rippled "transaction" stream message. Depending
// on the node's API version the hash lives either on the embedded
// transaction object or at the top level.
type transactionMsg struct {
	Type                string `json:"type"`
	EngineResult        string `json:"engine_result"`
	EngineResultCode    int    `json:"engine_result_code"`
	EngineResultMessage string `json:"engine_result_message"`
	LedgerIndex         uint32 `json:"ledger_index"`
	Validated           bool   `json:"validated"`
	Hash                string `json:"hash,omitempty"`
	Transaction         struct {
		Hash string `json:"hash"`
	} `json:"transaction"`
}

func (m *transactionMsg) txHash() string {
	if m.Transaction.Hash != "" {
		return m.Transaction.Hash
	}
	return m.Hash
}

// accountInfoResult is the subset of an account_info result the gateway
// needs: the account's current transaction sequence.
type accountInfoResult struct {
	AccountData struct {
		Account  string `json:"Account"`
		Sequence uint32 `json:"Sequence"`
	} `json:"account_data"`
}

// signResult is the subset of a sign result the gateway needs.
type signResult struct {
	TxBlob string `json:"tx_blob"`
	TxJSON struct {
		Hash string `json:"hash"`
	} `json:"tx_json"`
}

// submitResult is the immediate engine acknowledgment of a submit command.
type submitResult struct {
	EngineResult        string `json:"engine_result"`
	EngineResultCode    int    `json:"engine_result_code"`
	EngineResultMessage string `json:"engine_result_message"`
	TxJSON              struct {
		Hash string `json:"hash"`
	} `json:"tx_json"`
}

// subscribeResult is the snapshot returned when subscribing to the ledger
// stream.
type subscribeResult struct {
	LedgerIndex uint32 `json:"ledger_index"`
}
