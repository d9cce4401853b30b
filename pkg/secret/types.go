package secret

// Coin is a denominated token amount
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// ExecuteMsg describes a contract execution to broadcast. Msg holds the
// JSON-encoded contract message.
type ExecuteMsg struct {
	Contract  string
	CodeHash  string
	Msg       []byte
	SentFunds []Coin
}

// Account holds the on-chain account metadata needed for signing
type Account struct {
	AccountNumber uint64
	Sequence      uint64
}

// TxResponse is the chain's answer to a broadcast or tx lookup. Code 0
// means the transaction was accepted.
type TxResponse struct {
	Code   uint32 `json:"code"`
	TxHash string `json:"txhash"`
	RawLog string `json:"raw_log"`
	Height string `json:"height"`
}

// Succeeded reports whether the transaction was accepted by the chain
func (r *TxResponse) Succeeded() bool {
	return r.Code == 0
}
