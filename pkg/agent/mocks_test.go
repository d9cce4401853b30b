package agent

import (
	"context"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/scrtlabs/trading-middleware/pkg/secret"
	"github.com/scrtlabs/trading-middleware/pkg/secretai"
)

// mockChain is a test double for the LCD client
type mockChain struct {
	ExecuteFunc         func(ctx context.Context, wallet *secret.Wallet, exec *secret.ExecuteMsg) (*secret.TxResponse, error)
	GetTxFunc           func(ctx context.Context, hash string) (*secret.TxResponse, error)
	Snip20AllowanceFunc func(ctx context.Context, contract, owner, spender, viewingKey string) (decimal.Decimal, error)

	executeCalls atomic.Int64
}

func (m *mockChain) Execute(ctx context.Context, wallet *secret.Wallet, exec *secret.ExecuteMsg) (*secret.TxResponse, error) {
	m.executeCalls.Add(1)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, wallet, exec)
	}
	return &secret.TxResponse{Code: 0, TxHash: "MOCKTX", RawLog: "[]"}, nil
}

func (m *mockChain) GetTx(ctx context.Context, hash string) (*secret.TxResponse, error) {
	if m.GetTxFunc != nil {
		return m.GetTxFunc(ctx, hash)
	}
	return &secret.TxResponse{Code: 0, TxHash: hash, RawLog: "[]", Height: "1"}, nil
}

func (m *mockChain) Snip20Allowance(ctx context.Context, contract, owner, spender, viewingKey string) (decimal.Decimal, error) {
	if m.Snip20AllowanceFunc != nil {
		return m.Snip20AllowanceFunc(ctx, contract, owner, spender, viewingKey)
	}
	return decimal.Zero, nil
}

// mockChatter is a test double for the inference client
type mockChatter struct {
	ChatFunc func(ctx context.Context, messages []secretai.Message) (string, error)

	lastMessages []secretai.Message
}

func (m *mockChatter) Chat(ctx context.Context, messages []secretai.Message) (string, error) {
	m.lastMessages = messages
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, messages)
	}
	return "mock reply", nil
}

func (m *mockChatter) Model() string {
	return "mock-model"
}
