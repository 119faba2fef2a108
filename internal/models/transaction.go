package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

// Transaction types
const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
)

// Amount is a value tagged with its currency.
type Amount struct {
	Currency Currency        `gorm:"type:varchar(3)" json:"currency"`
	Value    decimal.Decimal `gorm:"type:numeric" json:"value"`
}

// Transaction is an append-only audit record of a completed money movement.
type Transaction struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Type           TransactionType `gorm:"type:varchar(16);not null;index" json:"type"`
	SenderID       *uint64         `gorm:"index" json:"sender_id,omitempty"`
	ReceiverID     *uint64         `gorm:"index" json:"receiver_id,omitempty"`
	AmountSent     Amount          `gorm:"embedded;embeddedPrefix:amount_sent_" json:"amount_sent"`
	AmountReceived Amount          `gorm:"embedded;embeddedPrefix:amount_received_" json:"amount_received"`
	Timestamp      time.Time       `gorm:"not null" json:"timestamp"`
}
