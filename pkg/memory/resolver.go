package memory

import (
	"context"

	"go.uber.org/zap"

	"github.com/scrtlabs/trading-middleware/internal/metrics"
)

// Resolver fronts the local store with the decentralized mirror. The local
// store is the source of truth; the mirror is written best-effort on every
// append and consulted on reads only to detect and repair divergence.
//
// Divergence is never silently reconciled: every mismatch between the two
// backends is logged and counted so drift is visible in monitoring.
type Resolver struct {
	local  Store
	mirror Mirror
	logger *zap.Logger
}

// NewResolver creates a resolver over the local store and an optional
// mirror. A nil mirror disables mirroring entirely.
func NewResolver(local Store, mirror Mirror, logger *zap.Logger) *Resolver {
	return &Resolver{
		local:  local,
		mirror: mirror,
		logger: logger,
	}
}

// Append writes the entry locally and then mirrors the full conversation
// snapshot. A mirror failure does not fail the append.
func (r *Resolver) Append(ctx context.Context, entry *Entry) error {
	if err := r.local.Append(ctx, entry); err != nil {
		return err
	}

	if r.mirror == nil {
		return nil
	}

	entries, err := r.local.History(ctx, entry.WalletAddress)
	if err != nil {
		r.logger.Warn("failed to snapshot conversation for mirror",
			zap.String("wallet", entry.WalletAddress),
			zap.Error(err))
		metrics.MirrorWritesTotal.WithLabelValues("snapshot_error").Inc()
		return nil
	}

	txID, err := r.mirror.Save(ctx, entry.WalletAddress, entries)
	if err != nil {
		r.logger.Warn("memory mirror write failed",
			zap.String("wallet", entry.WalletAddress),
			zap.Error(err))
		metrics.MirrorWritesTotal.WithLabelValues("error").Inc()
		return nil
	}

	metrics.MirrorWritesTotal.WithLabelValues("ok").Inc()
	r.logger.Debug("conversation mirrored",
		zap.String("wallet", entry.WalletAddress),
		zap.String("tx_id", txID),
		zap.Int("entries", len(entries)))
	return nil
}

// History returns the local conversation. When the local store is empty but
// the mirror has a snapshot, the snapshot is restored into the local store
// first. When both have data and disagree, the divergence is reported and
// the local copy wins.
func (r *Resolver) History(ctx context.Context, walletAddress string) ([]*Entry, error) {
	local, err := r.local.History(ctx, walletAddress)
	if err != nil {
		return nil, err
	}

	if r.mirror == nil {
		return local, nil
	}

	mirrored, err := r.mirror.Load(ctx, walletAddress)
	if err != nil {
		r.logger.Warn("memory mirror read failed",
			zap.String("wallet", walletAddress),
			zap.Error(err))
		return local, nil
	}

	if len(local) == 0 && len(mirrored) > 0 {
		r.logger.Info("restoring conversation from mirror",
			zap.String("wallet", walletAddress),
			zap.Int("entries", len(mirrored)))
		for _, entry := range mirrored {
			entry.WalletAddress = walletAddress
			if err := r.local.Append(ctx, entry); err != nil {
				return nil, err
			}
		}
		return r.local.History(ctx, walletAddress)
	}

	if kind := diverges(local, mirrored); kind != "" {
		r.logger.Warn("memory mirror diverges from local store",
			zap.String("wallet", walletAddress),
			zap.String("kind", kind),
			zap.Int("local_entries", len(local)),
			zap.Int("mirror_entries", len(mirrored)))
		metrics.MemoryDivergenceTotal.WithLabelValues(kind).Inc()
	}

	return local, nil
}

// Clear removes the local conversation. Mirror snapshots are immutable and
// stay on chain; the next append starts a fresh snapshot lineage.
func (r *Resolver) Clear(ctx context.Context, walletAddress string) error {
	return r.local.Clear(ctx, walletAddress)
}

// diverges classifies the mismatch between local and mirrored history.
// Returns "" when they agree. The mirror lags by design right after an
// append, so a mirror that is exactly one entry behind is not divergence.
func diverges(local, mirrored []*Entry) string {
	if len(mirrored) == 0 {
		return ""
	}
	switch {
	case len(mirrored) > len(local):
		return "mirror_ahead"
	case len(local)-len(mirrored) > 1:
		return "mirror_behind"
	}
	for i := range mirrored {
		if mirrored[i].Role != local[i].Role || mirrored[i].Content != local[i].Content {
			return "content_mismatch"
		}
	}
	return ""
}
