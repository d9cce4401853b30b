// Package memory holds conversation persistence: a local relational store,
// a decentralized mirror, and a resolver that keeps the two reconciled.
package memory

import (
	"context"
	"errors"
	"time"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ErrMirrorUnavailable is returned by mirror operations when the gateway
// cannot be reached.
var ErrMirrorUnavailable = errors.New("memory mirror unavailable")

// Entry is a single conversation message belonging to a wallet.
type Entry struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"-"`
	Role          string    `json:"role"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store defines the interface for local conversation persistence. All
// operations are scoped to a wallet address.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	History(ctx context.Context, walletAddress string) ([]*Entry, error)
	Clear(ctx context.Context, walletAddress string) error
}

// Mirror defines the interface for the decentralized memory mirror. The
// mirror is append-only: Save uploads a full conversation snapshot, Load
// returns the latest snapshot for the wallet.
type Mirror interface {
	Save(ctx context.Context, walletAddress string, entries []*Entry) (txID string, err error)
	Load(ctx context.Context, walletAddress string) ([]*Entry, error)
}
