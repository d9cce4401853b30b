// Package user defines the domain types for wallet-scoped users and their
// trading state.
package user

import "time"

// User represents a wallet that has logged in at least once. Viewing keys
// and spend flags start empty and are filled in as the user progresses
// through onboarding.
type User struct {
	WalletAddress       string    `json:"wallet_address"`
	SscrtKey            *string   `json:"sscrt_key"`
	SusdcKey            *string   `json:"susdc_key"`
	AllowedToSpendSscrt *string   `json:"allowed_to_spend_sscrt"`
	AllowedToSpendSusdc *string   `json:"allowed_to_spend_susdc"`
	CreatedAt           time.Time `json:"created_at"`
}

// AllowedToSpend reports whether both spend allowances have been verified
func (u *User) AllowedToSpend() bool {
	return u.AllowedToSpendSscrt != nil && *u.AllowedToSpendSscrt == "true" &&
		u.AllowedToSpendSusdc != nil && *u.AllowedToSpendSusdc == "true"
}

// TradingState is the per-wallet trading state machine. Transitions only
// move forward: not_convinced -> convinced -> trading -> traded.
type TradingState string

const (
	// StateNotConvinced is the initial state; the agent will not trade
	StateNotConvinced TradingState = "not_convinced"
	// StateConvinced means the consent phrase was received; a trade may run
	StateConvinced TradingState = "convinced"
	// StateTrading means a swap is being broadcast for this wallet
	StateTrading TradingState = "trading"
	// StateTraded means a swap attempt completed, successfully or not
	StateTraded TradingState = "traded"
)

// Convinced reports whether the wallet has consented to trading
func (s TradingState) Convinced() bool {
	return s == StateConvinced || s == StateTrading || s == StateTraded
}

// TradeOutcome tags the result of a swap attempt
type TradeOutcome string

const (
	// OutcomeExecuted means the transaction was accepted by the chain (code 0)
	OutcomeExecuted TradeOutcome = "executed"
	// OutcomeFailed means the transaction was broadcast but returned a non-zero code
	OutcomeFailed TradeOutcome = "failed"
	// OutcomeBroadcastError means the transaction never reached the chain
	OutcomeBroadcastError TradeOutcome = "broadcast_error"
	// OutcomeNotConvinced means no trade ran because consent is missing.
	// Reported to callers, never persisted.
	OutcomeNotConvinced TradeOutcome = "not_convinced"
)

// TradeRecord is the persisted result of the most recent swap attempt,
// stored alongside the trading state so the transition and its trigger are
// written together.
type TradeRecord struct {
	Outcome   TradeOutcome `json:"outcome"`
	TxHash    string       `json:"tx_hash,omitempty"`
	RawLog    string       `json:"raw_log,omitempty"`
	Detail    string       `json:"detail,omitempty"`
	Confirmed bool         `json:"confirmed"`
}
