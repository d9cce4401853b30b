package userstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/scrtlabs/trading-middleware/pkg/user"
)

// UserDao is a data access object that maps directly to the 'users' table.
type UserDao struct {
	bun.BaseModel       `bun:"table:users,alias:u"`
	WalletAddress       string    `bun:"wallet_address,pk,type:varchar(64)"`
	SscrtKey            *string   `bun:"sscrt_key,type:text"`
	SusdcKey            *string   `bun:"susdc_key,type:text"`
	AllowedToSpendSscrt *string   `bun:"allowed_to_spend_sscrt,type:varchar(8)"`
	AllowedToSpendSusdc *string   `bun:"allowed_to_spend_susdc,type:varchar(8)"`
	CreatedAt           time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

// toUser converts a UserDao to user.User.
func toUser(dao *UserDao) *user.User {
	return &user.User{
		WalletAddress:       dao.WalletAddress,
		SscrtKey:            dao.SscrtKey,
		SusdcKey:            dao.SusdcKey,
		AllowedToSpendSscrt: dao.AllowedToSpendSscrt,
		AllowedToSpendSusdc: dao.AllowedToSpendSusdc,
		CreatedAt:           dao.CreatedAt,
	}
}

// TradingStateDao is a data access object that maps directly to the
// 'trading_state' table. The state transition and the trade outcome that
// caused it live in the same row so they are always written together.
type TradingStateDao struct {
	bun.BaseModel `bun:"table:trading_state,alias:ts"`
	WalletAddress string     `bun:"wallet_address,pk,type:varchar(64)"`
	State         string     `bun:"state,notnull,type:varchar(16)"`
	Outcome       *string    `bun:"outcome,type:varchar(16)"`
	TxHash        *string    `bun:"tx_hash,type:varchar(128)"`
	RawLog        *string    `bun:"raw_log,type:text"`
	Detail        *string    `bun:"detail,type:text"`
	Confirmed     bool       `bun:"confirmed,notnull,default:false"`
	UpdatedAt     *time.Time `bun:"updated_at"`
}

// toTradeRecord converts the outcome columns of a TradingStateDao to a
// user.TradeRecord, or nil when no trade has been recorded.
func toTradeRecord(dao *TradingStateDao) *user.TradeRecord {
	if dao.Outcome == nil {
		return nil
	}
	rec := &user.TradeRecord{
		Outcome:   user.TradeOutcome(*dao.Outcome),
		Confirmed: dao.Confirmed,
	}
	if dao.TxHash != nil {
		rec.TxHash = *dao.TxHash
	}
	if dao.RawLog != nil {
		rec.RawLog = *dao.RawLog
	}
	if dao.Detail != nil {
		rec.Detail = *dao.Detail
	}
	return rec
}
