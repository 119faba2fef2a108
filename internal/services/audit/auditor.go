// Package audit appends an immutable record for every completed money
// movement and forwards it to the event publisher.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fundapp/internal/events"
	"fundapp/internal/models"
	"fundapp/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Auditor struct {
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() uuid.UUID
}

func NewAuditor(publisher events.Publisher, logger *slog.Logger) *Auditor {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.New,
	}
}

// LogDeposit appends a DEPOSIT record through repo, which should be bound to
// the same store transaction as the balance write.
func (a *Auditor) LogDeposit(ctx context.Context, repo repositories.TransactionRepository, account *models.Account, amount decimal.Decimal) (*models.Transaction, error) {
	value := models.Amount{Currency: account.Currency, Value: amount}
	tx := a.record(models.TransactionTypeDeposit, nil, &account.ID, value, value)
	if err := a.append(ctx, repo, tx); err != nil {
		return nil, err
	}
	a.logger.Info("new deposit performed",
		"transaction_id", tx.ID,
		"account_id", account.ID,
		"currency", account.Currency,
		"amount", amount.StringFixed(2))
	return tx, nil
}

func (a *Auditor) LogWithdrawal(ctx context.Context, repo repositories.TransactionRepository, account *models.Account, amount decimal.Decimal) (*models.Transaction, error) {
	value := models.Amount{Currency: account.Currency, Value: amount}
	tx := a.record(models.TransactionTypeWithdrawal, &account.ID, nil, value, value)
	if err := a.append(ctx, repo, tx); err != nil {
		return nil, err
	}
	a.logger.Info("new withdrawal performed",
		"transaction_id", tx.ID,
		"account_id", account.ID,
		"currency", account.Currency,
		"amount", amount.StringFixed(2))
	return tx, nil
}

// LogTransfer appends one combined TRANSFER record for both legs.
func (a *Auditor) LogTransfer(ctx context.Context, repo repositories.TransactionRepository, sender, receiver *models.Account, sent, received decimal.Decimal) (*models.Transaction, error) {
	tx := a.record(models.TransactionTypeTransfer, &sender.ID, &receiver.ID,
		models.Amount{Currency: sender.Currency, Value: sent},
		models.Amount{Currency: receiver.Currency, Value: received})
	if err := a.append(ctx, repo, tx); err != nil {
		return nil, err
	}
	a.logger.Info("new transfer performed",
		"transaction_id", tx.ID,
		"sender_id", sender.ID,
		"receiver_id", receiver.ID,
		"sent", fmt.Sprintf("%s %s", sender.Currency, sent.StringFixed(2)),
		"received", fmt.Sprintf("%s %s", receiver.Currency, received.StringFixed(2)))
	return tx, nil
}

// Publish forwards a committed record to the event publisher. Failures are
// logged, never returned: the ledger change is already durable.
func (a *Auditor) Publish(ctx context.Context, tx *models.Transaction) {
	if tx == nil {
		return
	}
	if err := a.publisher.Publish(ctx, events.RoutingKey(string(tx.Type)), tx); err != nil {
		a.logger.Warn("failed to publish transaction event",
			"transaction_id", tx.ID,
			"type", tx.Type,
			"error", err)
	}
}

func (a *Auditor) record(txType models.TransactionType, senderID, receiverID *uint64, sent, received models.Amount) *models.Transaction {
	return &models.Transaction{
		ID:             a.newID(),
		Type:           txType,
		SenderID:       copyID(senderID),
		ReceiverID:     copyID(receiverID),
		AmountSent:     sent,
		AmountReceived: received,
		Timestamp:      a.now().UTC(),
	}
}

func (a *Auditor) append(ctx context.Context, repo repositories.TransactionRepository, tx *models.Transaction) error {
	if err := repo.Append(ctx, tx); err != nil {
		a.logger.Error("failed to append audit record", "type", tx.Type, "error", err)
		return fmt.Errorf("failed to record %s: %w", tx.Type, err)
	}
	return nil
}

func copyID(id *uint64) *uint64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
