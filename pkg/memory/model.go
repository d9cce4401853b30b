package memory

import (
	"time"

	"github.com/uptrace/bun"
)

// ConversationDao is a data access object that maps directly to the
// 'conversations' table.
type ConversationDao struct {
	bun.BaseModel `bun:"table:conversations,alias:c"`
	ID            string    `bun:"id,pk,type:varchar(36)"`
	WalletAddress string    `bun:"wallet_address,notnull,type:varchar(64)"`
	Role          string    `bun:"role,notnull,type:varchar(16)"`
	Content       string    `bun:"content,notnull,type:text"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func toEntry(dao *ConversationDao) *Entry {
	return &Entry{
		ID:            dao.ID,
		WalletAddress: dao.WalletAddress,
		Role:          dao.Role,
		Content:       dao.Content,
		CreatedAt:     dao.CreatedAt,
	}
}

func toConversationDao(entry *Entry) *ConversationDao {
	return &ConversationDao{
		ID:            entry.ID,
		WalletAddress: entry.WalletAddress,
		Role:          entry.Role,
		Content:       entry.Content,
		CreatedAt:     entry.CreatedAt,
	}
}
