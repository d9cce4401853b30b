package userstore

import (
	"context"
	"errors"

	"github.com/scrtlabs/trading-middleware/pkg/user"
)

// ErrUserNotFound is returned when a user lookup finds no matching record.
var ErrUserNotFound = errors.New("user not found")

// Store defines the interface for user and trading-state persistence.
// Every operation is scoped to a single wallet address; the wallet is the
// tenant partition key for all tables.
type Store interface {
	TradingStateStore

	// EnsureUser creates the user row if it does not exist and returns it.
	// Safe to call repeatedly.
	EnsureUser(ctx context.Context, walletAddress string) (*user.User, error)
	GetUser(ctx context.Context, walletAddress string) (*user.User, error)
	UserExists(ctx context.Context, walletAddress string) (bool, error)
	SetViewingKeys(ctx context.Context, walletAddress, sscrtKey, susdcKey string) error
	// SetAllowedToSpend marks both spend allowances verified. Idempotent:
	// re-marking an already-allowed user performs no write.
	SetAllowedToSpend(ctx context.Context, walletAddress string) error
}

// TradingStateStore defines the interface for the per-wallet trading state
// machine.
type TradingStateStore interface {
	// TradingState returns the wallet's current state, defaulting to
	// not_convinced when no row exists.
	TradingState(ctx context.Context, walletAddress string) (user.TradingState, error)
	// MarkConvinced upserts the wallet into the convinced state. A wallet
	// that already progressed further is left alone.
	MarkConvinced(ctx context.Context, walletAddress string) error
	// SetTrading moves a convinced wallet into the trading state.
	SetTrading(ctx context.Context, walletAddress string) error
	// RecordTrade moves the wallet into the traded state and persists the
	// swap outcome in the same write.
	RecordTrade(ctx context.Context, walletAddress string, rec *user.TradeRecord) error
	// LastTrade returns the most recent trade record, or nil when the
	// wallet has never traded.
	LastTrade(ctx context.Context, walletAddress string) (*user.TradeRecord, error)
}
