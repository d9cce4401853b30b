package service

import (
	"context"

	"github.com/scrtlabs/trading-middleware/pkg/memory"
)

// mockAgent is a test double for the agent operations the chat service uses
type mockAgent struct {
	ChatFunc         func(ctx context.Context, walletAddress, message string) (string, error)
	HistoryFunc      func(ctx context.Context, walletAddress string) ([]*memory.Entry, error)
	ClearHistoryFunc func(ctx context.Context, walletAddress string) error
}

func (m *mockAgent) Chat(ctx context.Context, walletAddress, message string) (string, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, walletAddress, message)
	}
	return "mock reply", nil
}

func (m *mockAgent) History(ctx context.Context, walletAddress string) ([]*memory.Entry, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, walletAddress)
	}
	return nil, nil
}

func (m *mockAgent) ClearHistory(ctx context.Context, walletAddress string) error {
	if m.ClearHistoryFunc != nil {
		return m.ClearHistoryFunc(ctx, walletAddress)
	}
	return nil
}
