package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type sqlStore struct {
	db *bun.DB
}

// NewStore creates a bun-backed implementation of the conversation store
func NewStore(db *bun.DB) *sqlStore {
	return &sqlStore{db: db}
}

func (s *sqlStore) Append(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.NewInsert().
		Model(toConversationDao(entry)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to append conversation entry: %w", err)
	}
	return nil
}

func (s *sqlStore) History(ctx context.Context, walletAddress string) ([]*Entry, error) {
	var daos []ConversationDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("wallet_address = ?", walletAddress).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	entries := make([]*Entry, len(daos))
	for i := range daos {
		entries[i] = toEntry(&daos[i])
	}
	return entries, nil
}

func (s *sqlStore) Clear(ctx context.Context, walletAddress string) error {
	_, err := s.db.NewDelete().
		Model((*ConversationDao)(nil)).
		Where("wallet_address = ?", walletAddress).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear conversation history: %w", err)
	}
	return nil
}
