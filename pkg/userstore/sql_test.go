package userstore

import (
	"context"
	"errors"
	"testing"

	"github.com/scrtlabs/trading-middleware/pkg/dbutil"
	mghelper "github.com/scrtlabs/trading-middleware/pkg/dbutil/migrations"
	"github.com/scrtlabs/trading-middleware/pkg/user"
)

const testWallet = "secret1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq"

func setupStore(t *testing.T) (context.Context, *sqlStore) {
	t.Helper()

	ctx := context.Background()
	db := dbutil.SetupTestDB(t)

	if err := mghelper.CreateSchema(ctx, db, &UserDao{}, &TradingStateDao{}); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return ctx, NewStore(db)
}

func TestStore_EnsureUserIsIdempotent(t *testing.T) {
	ctx, s := setupStore(t)

	first, err := s.EnsureUser(ctx, testWallet)
	if err != nil {
		t.Fatalf("EnsureUser() failed: %v", err)
	}
	if first.WalletAddress != testWallet {
		t.Fatalf("wallet mismatch: got %s want %s", first.WalletAddress, testWallet)
	}
	if first.SscrtKey != nil || first.SusdcKey != nil {
		t.Fatalf("expected new user without viewing keys")
	}

	if err := s.SetViewingKeys(ctx, testWallet, "vk-sscrt", "vk-susdc"); err != nil {
		t.Fatalf("SetViewingKeys() failed: %v", err)
	}

	second, err := s.EnsureUser(ctx, testWallet)
	if err != nil {
		t.Fatalf("EnsureUser() second call failed: %v", err)
	}
	if second.SscrtKey == nil || *second.SscrtKey != "vk-sscrt" {
		t.Fatalf("EnsureUser() must not reset existing rows, got keys %v/%v", second.SscrtKey, second.SusdcKey)
	}
}

func TestStore_GetUserNotFound(t *testing.T) {
	ctx, s := setupStore(t)

	_, err := s.GetUser(ctx, testWallet)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	exists, err := s.UserExists(ctx, testWallet)
	if err != nil {
		t.Fatalf("UserExists() failed: %v", err)
	}
	if exists {
		t.Fatalf("expected user to not exist")
	}
}

func TestStore_SetViewingKeysUnknownWallet(t *testing.T) {
	ctx, s := setupStore(t)

	err := s.SetViewingKeys(ctx, testWallet, "a", "b")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestStore_SetAllowedToSpend(t *testing.T) {
	ctx, s := setupStore(t)

	if err := s.SetAllowedToSpend(ctx, testWallet); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for unknown wallet, got %v", err)
	}

	if _, err := s.EnsureUser(ctx, testWallet); err != nil {
		t.Fatalf("EnsureUser() failed: %v", err)
	}

	u, err := s.GetUser(ctx, testWallet)
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if u.AllowedToSpend() {
		t.Fatalf("new user must not be allowed to spend")
	}

	if err := s.SetAllowedToSpend(ctx, testWallet); err != nil {
		t.Fatalf("SetAllowedToSpend() failed: %v", err)
	}
	// Re-marking is a no-op, not an error.
	if err := s.SetAllowedToSpend(ctx, testWallet); err != nil {
		t.Fatalf("SetAllowedToSpend() should be idempotent, got: %v", err)
	}

	u, err = s.GetUser(ctx, testWallet)
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if !u.AllowedToSpend() {
		t.Fatalf("expected user to be allowed to spend")
	}
}

func TestStore_TradingStateDefaultsToNotConvinced(t *testing.T) {
	ctx, s := setupStore(t)

	state, err := s.TradingState(ctx, testWallet)
	if err != nil {
		t.Fatalf("TradingState() failed: %v", err)
	}
	if state != user.StateNotConvinced {
		t.Fatalf("expected %s, got %s", user.StateNotConvinced, state)
	}

	rec, err := s.LastTrade(ctx, testWallet)
	if err != nil {
		t.Fatalf("LastTrade() failed: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil trade record for fresh wallet, got %+v", rec)
	}
}

func TestStore_MarkConvincedTransitions(t *testing.T) {
	ctx, s := setupStore(t)

	if err := s.MarkConvinced(ctx, testWallet); err != nil {
		t.Fatalf("MarkConvinced() failed: %v", err)
	}
	state, err := s.TradingState(ctx, testWallet)
	if err != nil {
		t.Fatalf("TradingState() failed: %v", err)
	}
	if state != user.StateConvinced {
		t.Fatalf("expected %s, got %s", user.StateConvinced, state)
	}

	// Repeat consent while already convinced keeps the state.
	if err := s.MarkConvinced(ctx, testWallet); err != nil {
		t.Fatalf("MarkConvinced() repeat failed: %v", err)
	}
	state, err = s.TradingState(ctx, testWallet)
	if err != nil {
		t.Fatalf("TradingState() failed: %v", err)
	}
	if state != user.StateConvinced {
		t.Fatalf("expected %s after repeat, got %s", user.StateConvinced, state)
	}
}

func TestStore_MarkConvincedDoesNotRegress(t *testing.T) {
	ctx, s := setupStore(t)

	if err := s.MarkConvinced(ctx, testWallet); err != nil {
		t.Fatalf("MarkConvinced() failed: %v", err)
	}
	if err := s.SetTrading(ctx, testWallet); err != nil {
		t.Fatalf("SetTrading() failed: %v", err)
	}

	if err := s.MarkConvinced(ctx, testWallet); err != nil {
		t.Fatalf("MarkConvinced() on trading wallet failed: %v", err)
	}
	state, err := s.TradingState(ctx, testWallet)
	if err != nil {
		t.Fatalf("TradingState() failed: %v", err)
	}
	if state != user.StateTrading {
		t.Fatalf("trading wallet must not regress to convinced, got %s", state)
	}
}

func TestStore_SetTradingRequiresConvinced(t *testing.T) {
	ctx, s := setupStore(t)

	if err := s.SetTrading(ctx, testWallet); err == nil {
		t.Fatalf("expected SetTrading to fail for unconvinced wallet")
	}

	if err := s.MarkConvinced(ctx, testWallet); err != nil {
		t.Fatalf("MarkConvinced() failed: %v", err)
	}
	if err := s.SetTrading(ctx, testWallet); err != nil {
		t.Fatalf("SetTrading() failed: %v", err)
	}

	// A second concurrent trade attempt sees the trading state and fails.
	if err := s.SetTrading(ctx, testWallet); err == nil {
		t.Fatalf("expected SetTrading to fail while already trading")
	}
}

func TestStore_RecordTradeAndLastTrade(t *testing.T) {
	ctx, s := setupStore(t)

	if err := s.MarkConvinced(ctx, testWallet); err != nil {
		t.Fatalf("MarkConvinced() failed: %v", err)
	}
	if err := s.SetTrading(ctx, testWallet); err != nil {
		t.Fatalf("SetTrading() failed: %v", err)
	}

	rec := &user.TradeRecord{
		Outcome:   user.OutcomeExecuted,
		TxHash:    "ABC123",
		RawLog:    "[]",
		Confirmed: true,
	}
	if err := s.RecordTrade(ctx, testWallet, rec); err != nil {
		t.Fatalf("RecordTrade() failed: %v", err)
	}

	state, err := s.TradingState(ctx, testWallet)
	if err != nil {
		t.Fatalf("TradingState() failed: %v", err)
	}
	if state != user.StateTraded {
		t.Fatalf("expected %s, got %s", user.StateTraded, state)
	}

	got, err := s.LastTrade(ctx, testWallet)
	if err != nil {
		t.Fatalf("LastTrade() failed: %v", err)
	}
	if got == nil {
		t.Fatalf("expected trade record")
	}
	if got.Outcome != user.OutcomeExecuted {
		t.Fatalf("outcome mismatch: got %s want %s", got.Outcome, user.OutcomeExecuted)
	}
	if got.TxHash != "ABC123" {
		t.Fatalf("tx hash mismatch: got %s", got.TxHash)
	}
	if !got.Confirmed {
		t.Fatalf("expected confirmed trade")
	}
}

func TestStore_RecordTradeFailureOutcome(t *testing.T) {
	ctx, s := setupStore(t)

	if err := s.MarkConvinced(ctx, testWallet); err != nil {
		t.Fatalf("MarkConvinced() failed: %v", err)
	}
	if err := s.SetTrading(ctx, testWallet); err != nil {
		t.Fatalf("SetTrading() failed: %v", err)
	}

	rec := &user.TradeRecord{
		Outcome: user.OutcomeBroadcastError,
		Detail:  "connection refused",
	}
	if err := s.RecordTrade(ctx, testWallet, rec); err != nil {
		t.Fatalf("RecordTrade() failed: %v", err)
	}

	got, err := s.LastTrade(ctx, testWallet)
	if err != nil {
		t.Fatalf("LastTrade() failed: %v", err)
	}
	if got.Outcome != user.OutcomeBroadcastError {
		t.Fatalf("outcome mismatch: got %s", got.Outcome)
	}
	if got.Detail != "connection refused" {
		t.Fatalf("detail mismatch: got %q", got.Detail)
	}
	if got.TxHash != "" {
		t.Fatalf("expected empty tx hash, got %q", got.TxHash)
	}
}

func TestStore_RecordTradeWithoutStateRow(t *testing.T) {
	ctx, s := setupStore(t)

	err := s.RecordTrade(ctx, testWallet, &user.TradeRecord{Outcome: user.OutcomeExecuted})
	if err == nil {
		t.Fatalf("expected RecordTrade to fail without a state row")
	}
}

func TestStore_WalletIsolation(t *testing.T) {
	ctx, s := setupStore(t)

	other := "secret1zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"

	if err := s.MarkConvinced(ctx, testWallet); err != nil {
		t.Fatalf("MarkConvinced() failed: %v", err)
	}

	state, err := s.TradingState(ctx, other)
	if err != nil {
		t.Fatalf("TradingState(other) failed: %v", err)
	}
	if state != user.StateNotConvinced {
		t.Fatalf("state leaked across wallets: got %s", state)
	}
}
