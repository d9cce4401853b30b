package agent

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scrtlabs/trading-middleware/internal/metrics"
	"github.com/scrtlabs/trading-middleware/pkg/shade"
	"github.com/scrtlabs/trading-middleware/pkg/user"
)

// TradeResult is the structured outcome of a swap attempt. Formatting it
// into a user-facing string is the chat layer's job.
type TradeResult struct {
	Outcome   user.TradeOutcome
	TxHash    string
	RawLog    string
	Detail    string
	Confirmed bool
}

func (r *TradeResult) record() *user.TradeRecord {
	return &user.TradeRecord{
		Outcome:   r.Outcome,
		TxHash:    r.TxHash,
		RawLog:    r.RawLog,
		Detail:    r.Detail,
		Confirmed: r.Confirmed,
	}
}

// Trade executes the fixed-notional USDC -> SCRT buy for a wallet that has
// consented. The caller is expected to hold the wallet's lock; Chat does.
func (a *Agent) Trade(ctx context.Context, walletAddress string) (*TradeResult, error) {
	state, err := a.store.TradingState(ctx, walletAddress)
	if err != nil {
		return nil, err
	}

	switch state {
	case user.StateNotConvinced:
		return &TradeResult{
			Outcome: user.OutcomeNotConvinced,
			Detail:  "Trading is not yet enabled. Convince me first!",
		}, nil
	case user.StateTrading:
		return &TradeResult{
			Outcome: user.OutcomeNotConvinced,
			Detail:  "A trade is already in progress for this wallet.",
		}, nil
	case user.StateTraded:
		last, err := a.store.LastTrade(ctx, walletAddress)
		if err != nil {
			return nil, err
		}
		result := &TradeResult{
			Outcome: user.OutcomeNotConvinced,
			Detail:  "A trade has already been executed for this wallet.",
		}
		if last != nil {
			result.TxHash = last.TxHash
			result.Confirmed = last.Confirmed
		}
		return result, nil
	}

	if err := a.store.SetTrading(ctx, walletAddress); err != nil {
		return nil, err
	}

	start := time.Now()
	result := a.executeBuy(ctx, walletAddress)

	metrics.TradesTotal.WithLabelValues("buy", string(result.Outcome)).Inc()
	metrics.TradeDuration.WithLabelValues("buy").Observe(time.Since(start).Seconds())

	if err := a.store.RecordTrade(ctx, walletAddress, result.record()); err != nil {
		a.logger.Error("failed to persist trade outcome",
			zap.String("wallet", walletAddress),
			zap.String("outcome", string(result.Outcome)),
			zap.Error(err))
		return nil, err
	}

	return result, nil
}

func (a *Agent) executeBuy(ctx context.Context, walletAddress string) *TradeResult {
	exec, err := shade.BuyMsg(a.buyAmountUsdc, walletAddress)
	if err != nil {
		return &TradeResult{
			Outcome: user.OutcomeBroadcastError,
			Detail:  err.Error(),
		}
	}

	a.logger.Info("executing swap",
		zap.String("wallet", walletAddress),
		zap.String("amount_uusdc", a.buyAmountUsdc))

	tx, err := a.chain.Execute(ctx, a.wallet, exec)
	if err != nil {
		a.logger.Error("swap broadcast failed",
			zap.String("wallet", walletAddress),
			zap.Error(err))
		return &TradeResult{
			Outcome: user.OutcomeBroadcastError,
			Detail:  err.Error(),
		}
	}

	result := &TradeResult{
		TxHash: tx.TxHash,
		RawLog: tx.RawLog,
	}
	if tx.Succeeded() {
		result.Outcome = user.OutcomeExecuted
	} else {
		result.Outcome = user.OutcomeFailed
		result.Detail = fmt.Sprintf("transaction failed with code %d", tx.Code)
	}

	// Give the chain time to include the tx before the lookup
	select {
	case <-time.After(a.confirmationDelay):
	case <-ctx.Done():
		result.Detail = joinDetail(result.Detail, "confirmation wait cancelled")
		return result
	}

	info, err := a.chain.GetTx(ctx, tx.TxHash)
	if err != nil {
		a.logger.Warn("could not confirm transaction yet",
			zap.String("tx_hash", tx.TxHash),
			zap.Error(err))
		return result
	}

	result.Confirmed = true
	result.RawLog = info.RawLog
	if !info.Succeeded() && result.Outcome == user.OutcomeExecuted {
		result.Outcome = user.OutcomeFailed
		result.Detail = fmt.Sprintf("transaction failed on chain with code %d", info.Code)
	}
	return result
}

func joinDetail(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + "; " + extra
}

// formatTradeResult renders a result as the chat reply body
func formatTradeResult(r *TradeResult) string {
	switch r.Outcome {
	case user.OutcomeExecuted:
		confirmation := "Not available yet"
		if r.Confirmed {
			confirmation = "Confirmed"
		}
		return fmt.Sprintf("Transaction executed successfully!\nHash: %s\nRaw Log: %s\nConfirmation: %s",
			r.TxHash, r.RawLog, confirmation)
	case user.OutcomeFailed:
		return fmt.Sprintf("Transaction failed.\nHash: %s\nRaw Log: %s\nDetail: %s",
			r.TxHash, r.RawLog, r.Detail)
	case user.OutcomeBroadcastError:
		return fmt.Sprintf("Error executing transaction: %s", r.Detail)
	default:
		return r.Detail
	}
}
