package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/scrtlabs/trading-middleware/pkg/user"
)

type sqlStore struct {
	db *bun.DB
}

// NewStore creates a bun-backed implementation of the user store. It works
// against both the sqlite and postgres dialects.
func NewStore(db *bun.DB) *sqlStore {
	return &sqlStore{db: db}
}

func (s *sqlStore) EnsureUser(ctx context.Context, walletAddress string) (*user.User, error) {
	dao := &UserDao{WalletAddress: walletAddress}

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (wallet_address) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	return s.GetUser(ctx, walletAddress)
}

func (s *sqlStore) GetUser(ctx context.Context, walletAddress string) (*user.User, error) {
	dao := new(UserDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("wallet_address = ?", walletAddress).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toUser(dao), nil
}

func (s *sqlStore) UserExists(ctx context.Context, walletAddress string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*UserDao)(nil)).
		Where("wallet_address = ?", walletAddress).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check user exists: %w", err)
	}
	return exists, nil
}

func (s *sqlStore) SetViewingKeys(ctx context.Context, walletAddress, sscrtKey, susdcKey string) error {
	res, err := s.db.NewUpdate().
		Model((*UserDao)(nil)).
		Set("sscrt_key = ?", sscrtKey).
		Set("susdc_key = ?", susdcKey).
		Where("wallet_address = ?", walletAddress).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set viewing keys: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *sqlStore) SetAllowedToSpend(ctx context.Context, walletAddress string) error {
	res, err := s.db.NewUpdate().
		Model((*UserDao)(nil)).
		Set("allowed_to_spend_sscrt = 'true'").
		Set("allowed_to_spend_susdc = 'true'").
		Where("wallet_address = ?", walletAddress).
		Where("allowed_to_spend_sscrt IS NULL OR allowed_to_spend_sscrt != 'true' OR allowed_to_spend_susdc IS NULL OR allowed_to_spend_susdc != 'true'").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set allowed to spend: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Already marked, or no such user. Distinguish so callers get a
		// real error for unknown wallets.
		exists, err := s.UserExists(ctx, walletAddress)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}
	}
	return nil
}

func (s *sqlStore) TradingState(ctx context.Context, walletAddress string) (user.TradingState, error) {
	dao := new(TradingStateDao)
	err := s.db.NewSelect().
		Model(dao).
		Column("state").
		Where("wallet_address = ?", walletAddress).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.StateNotConvinced, nil
		}
		return "", fmt.Errorf("failed to get trading state: %w", err)
	}
	return user.TradingState(dao.State), nil
}

func (s *sqlStore) MarkConvinced(ctx context.Context, walletAddress string) error {
	now := time.Now().UTC()
	dao := &TradingStateDao{
		WalletAddress: walletAddress,
		State:         string(user.StateConvinced),
		UpdatedAt:     &now,
	}

	// A wallet that already progressed past convinced keeps its state.
	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (wallet_address) DO UPDATE").
		Set("state = EXCLUDED.state").
		Set("updated_at = EXCLUDED.updated_at").
		Where("ts.state = ?", string(user.StateNotConvinced)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark convinced: %w", err)
	}
	return nil
}

func (s *sqlStore) SetTrading(ctx context.Context, walletAddress string) error {
	now := time.Now().UTC()
	res, err := s.db.NewUpdate().
		Model((*TradingStateDao)(nil)).
		Set("state = ?", string(user.StateTrading)).
		Set("updated_at = ?", now).
		Where("wallet_address = ?", walletAddress).
		Where("state = ?", string(user.StateConvinced)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set trading: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("wallet %s is not in the convinced state", walletAddress)
	}
	return nil
}

func (s *sqlStore) RecordTrade(ctx context.Context, walletAddress string, rec *user.TradeRecord) error {
	now := time.Now().UTC()
	q := s.db.NewUpdate().
		Model((*TradingStateDao)(nil)).
		Set("state = ?", string(user.StateTraded)).
		Set("outcome = ?", string(rec.Outcome)).
		Set("confirmed = ?", rec.Confirmed).
		Set("updated_at = ?", now).
		Where("wallet_address = ?", walletAddress)

	if rec.TxHash != "" {
		q = q.Set("tx_hash = ?", rec.TxHash)
	}
	if rec.RawLog != "" {
		q = q.Set("raw_log = ?", rec.RawLog)
	}
	if rec.Detail != "" {
		q = q.Set("detail = ?", rec.Detail)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record trade: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no trading state row for wallet %s", walletAddress)
	}
	return nil
}

func (s *sqlStore) LastTrade(ctx context.Context, walletAddress string) (*user.TradeRecord, error) {
	dao := new(TradingStateDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("wallet_address = ?", walletAddress).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last trade: %w", err)
	}
	return toTradeRecord(dao), nil
}
