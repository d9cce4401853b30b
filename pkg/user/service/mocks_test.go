package service

import (
	"context"

	"github.com/scrtlabs/trading-middleware/pkg/user"
)

// mockAgent is a test double for the agent operations the service uses
type mockAgent struct {
	EnsureUserFunc          func(ctx context.Context, walletAddress string) (*user.User, error)
	GetUserFunc             func(ctx context.Context, walletAddress string) (*user.User, error)
	SetViewingKeysFunc      func(ctx context.Context, walletAddress, sscrtKey, susdcKey string) error
	CheckAllowedToSpendFunc func(ctx context.Context, walletAddress string) (bool, error)
	AddressFunc             func() string
}

func (m *mockAgent) EnsureUser(ctx context.Context, walletAddress string) (*user.User, error) {
	if m.EnsureUserFunc != nil {
		return m.EnsureUserFunc(ctx, walletAddress)
	}
	return &user.User{WalletAddress: walletAddress}, nil
}

func (m *mockAgent) GetUser(ctx context.Context, walletAddress string) (*user.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, walletAddress)
	}
	return &user.User{WalletAddress: walletAddress}, nil
}

func (m *mockAgent) SetViewingKeys(ctx context.Context, walletAddress, sscrtKey, susdcKey string) error {
	if m.SetViewingKeysFunc != nil {
		return m.SetViewingKeysFunc(ctx, walletAddress, sscrtKey, susdcKey)
	}
	return nil
}

func (m *mockAgent) CheckAllowedToSpend(ctx context.Context, walletAddress string) (bool, error) {
	if m.CheckAllowedToSpendFunc != nil {
		return m.CheckAllowedToSpendFunc(ctx, walletAddress)
	}
	return false, nil
}

func (m *mockAgent) Address() string {
	if m.AddressFunc != nil {
		return m.AddressFunc()
	}
	return "secret1agentagentagentagentagentagentagentagent"
}
