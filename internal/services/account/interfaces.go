package account

import (
	"context"
	"time"

	"fundapp/internal/models"
	"fundapp/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service defines the ledger operations on accounts.
type Service interface {
	FindByID(ctx context.Context, id uint64) (*models.Account, error)
	Deposit(ctx context.Context, id uint64, amount decimal.Decimal) (*Receipt, error)
	Withdraw(ctx context.Context, id uint64, amount decimal.Decimal) (*Receipt, error)

	// TransferTo moves amount, denominated in the sender's currency.
	TransferTo(ctx context.Context, senderID, receiverID uint64, amount decimal.Decimal) (*Receipt, error)
	// TransferFrom credits the receiver with amount, denominated in the
	// receiver's currency.
	TransferFrom(ctx context.Context, senderID, receiverID uint64, amount decimal.Decimal) (*Receipt, error)
	Transfer(ctx context.Context, req TransferRequest) (*Receipt, error)

	DeleteAccount(ctx context.Context, id uint64) error
}

// RateProvider converts between currencies.
type RateProvider interface {
	GetRate(ctx context.Context, base, target models.Currency) (decimal.Decimal, error)
}

// Auditor records completed movements. The Log methods append through the
// repository they are given so the record commits with the balance change.
type Auditor interface {
	LogDeposit(ctx context.Context, repo repositories.TransactionRepository, account *models.Account, amount decimal.Decimal) (*models.Transaction, error)
	LogWithdrawal(ctx context.Context, repo repositories.TransactionRepository, account *models.Account, amount decimal.Decimal) (*models.Transaction, error)
	LogTransfer(ctx context.Context, repo repositories.TransactionRepository, sender, receiver *models.Account, sent, received decimal.Decimal) (*models.Transaction, error)
	Publish(ctx context.Context, tx *models.Transaction)
}

// MetricsCollector defines the interface for collecting ledger metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordCacheHit(entity string)
	RecordCacheMiss(entity string)
	RecordTransaction(txType, currency string, amount decimal.Decimal)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOperationDuration(string, time.Duration)     {}
func (NoopMetricsCollector) RecordOperationResult(string, string)              {}
func (NoopMetricsCollector) RecordCacheHit(string)                             {}
func (NoopMetricsCollector) RecordCacheMiss(string)                            {}
func (NoopMetricsCollector) RecordTransaction(string, string, decimal.Decimal) {}

// TransferRequest mirrors the transfer endpoint payload. ToSend selects
// TransferTo (amount in sender currency) over TransferFrom.
type TransferRequest struct {
	SenderID   uint64
	ReceiverID uint64
	Amount     decimal.Decimal
	ToSend     bool
}

// Receipt confirms a completed movement.
type Receipt struct {
	Message       string    `json:"message"`
	TransactionID uuid.UUID `json:"transaction_id"`
}
