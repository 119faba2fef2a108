package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a single-currency balance owned by exactly one Owner.
// OwnerID is a plain foreign key; the owner's account set is derived by query.
type Account struct {
	ID        uint64          `gorm:"primaryKey" json:"id"`
	OwnerID   uint64          `gorm:"not null;uniqueIndex:idx_accounts_owner_currency" json:"owner_id"`
	Currency  Currency        `gorm:"type:varchar(3);not null;uniqueIndex:idx_accounts_owner_currency" json:"currency"`
	Balance   decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"balance"`
	Version   int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CanWithdraw reports whether amount can leave the account without the
// balance going negative.
func (a *Account) CanWithdraw(amount decimal.Decimal) bool {
	return a.Balance.Sub(amount).GreaterThanOrEqual(decimal.Zero)
}
