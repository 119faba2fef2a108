package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "fundapp/internal/errors"
	"fundapp/internal/models"
	"fundapp/internal/repositories"
	"fundapp/internal/repositories/cache"

	"github.com/shopspring/decimal"
)

type service struct {
	store   repositories.Store
	rates   RateProvider
	cache   cache.EntityCache[models.Account]
	auditor Auditor
	metrics MetricsCollector
	logger  *slog.Logger
}

// NewService creates a new account service
func NewService(
	store repositories.Store,
	rates RateProvider,
	accountCache cache.EntityCache[models.Account],
	auditor Auditor,
	metrics MetricsCollector,
	logger *slog.Logger,
) Service {
	if store == nil {
		panic("store is required")
	}
	if rates == nil {
		panic("rate provider is required")
	}
	if accountCache == nil {
		panic("account cache is required")
	}
	if auditor == nil {
		panic("auditor is required")
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &service{
		store:   store,
		rates:   rates,
		cache:   accountCache,
		auditor: auditor,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *service) FindByID(ctx context.Context, id uint64) (*models.Account, error) {
	cached, found, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("account cache read failed", "account_id", id, "error", err)
	}
	if found {
		s.metrics.RecordCacheHit(cache.EntityAccount)
		return cached, nil
	}
	s.metrics.RecordCacheMiss(cache.EntityAccount)

	account, err := s.store.Accounts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(ctx, id, account); err != nil {
		s.logger.Warn("failed to cache account", "account_id", id, "error", err)
	}
	return account, nil
}

func (s *service) Deposit(ctx context.Context, id uint64, amount decimal.Decimal) (receipt *Receipt, err error) {
	defer s.observe(OpDeposit, time.Now(), &err)

	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var account *models.Account
	var record *models.Transaction
	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		a, err := tx.Accounts().GetByID(ctx, id)
		if err != nil {
			return err
		}
		credit(a, amount)
		if err := tx.Accounts().Update(ctx, a); err != nil {
			return err
		}
		record, err = s.auditor.LogDeposit(ctx, tx.Transactions(), a, amount)
		account = a
		return err
	})
	s.evict(ctx, id)
	if err != nil {
		return nil, err
	}

	s.committed(ctx, record)
	return &Receipt{
		Message: fmt.Sprintf(msgDeposit,
			account.Currency, amount.StringFixed(2), account.ID,
			account.Currency, account.Balance.StringFixed(2)),
		TransactionID: record.ID,
	}, nil
}

func (s *service) Withdraw(ctx context.Context, id uint64, amount decimal.Decimal) (receipt *Receipt, err error) {
	defer s.observe(OpWithdraw, time.Now(), &err)

	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var account *models.Account
	var record *models.Transaction
	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		a, err := tx.Accounts().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := debit(a, amount); err != nil {
			return err
		}
		if err := tx.Accounts().Update(ctx, a); err != nil {
			return err
		}
		record, err = s.auditor.LogWithdrawal(ctx, tx.Transactions(), a, amount)
		account = a
		return err
	})
	s.evict(ctx, id)
	if err != nil {
		return nil, err
	}

	s.committed(ctx, record)
	return &Receipt{
		Message: fmt.Sprintf(msgWithdraw,
			account.Currency, amount.StringFixed(2), account.ID,
			account.Currency, account.Balance.StringFixed(2)),
		TransactionID: record.ID,
	}, nil
}

func (s *service) TransferTo(ctx context.Context, senderID, receiverID uint64, amount decimal.Decimal) (receipt *Receipt, err error) {
	defer s.observe(OpTransferTo, time.Now(), &err)

	sender, receiver, err := s.transferParties(ctx, senderID, receiverID, amount)
	if err != nil {
		return nil, err
	}

	if amount.GreaterThan(sender.Balance) {
		return nil, apperrors.ErrInsufficientFunds
	}

	received := amount
	if sender.Currency != receiver.Currency {
		rate, err := s.conversionRate(ctx, sender.Currency, receiver.Currency)
		if err != nil {
			return nil, err
		}
		received = amount.Mul(rate)
	}

	return s.applyTransfer(ctx, senderID, receiverID, amount, received)
}

func (s *service) TransferFrom(ctx context.Context, senderID, receiverID uint64, amount decimal.Decimal) (receipt *Receipt, err error) {
	defer s.observe(OpTransferFrom, time.Now(), &err)

	sender, receiver, err := s.transferParties(ctx, senderID, receiverID, amount)
	if err != nil {
		return nil, err
	}

	withdrawn := amount
	if sender.Currency != receiver.Currency {
		rate, err := s.conversionRate(ctx, sender.Currency, receiver.Currency)
		if err != nil {
			return nil, err
		}
		withdrawn = amount.Div(rate).RoundBank(withdrawScale)
		if !withdrawn.IsPositive() {
			return nil, apperrors.Newf(apperrors.ErrInvalidAmount,
				"amount %s %s is too small to convert", receiver.Currency, amount)
		}
	}

	return s.applyTransfer(ctx, senderID, receiverID, withdrawn, amount)
}

func (s *service) Transfer(ctx context.Context, req TransferRequest) (*Receipt, error) {
	if req.ToSend {
		return s.TransferTo(ctx, req.SenderID, req.ReceiverID, req.Amount)
	}
	return s.TransferFrom(ctx, req.SenderID, req.ReceiverID, req.Amount)
}

func (s *service) DeleteAccount(ctx context.Context, id uint64) (err error) {
	defer s.observe(OpDelete, time.Now(), &err)

	if err := s.store.Accounts().Delete(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	s.logger.Warn("account deleted", "account_id", id)
	return nil
}

// conversionRate refuses zero and negative rates, which would destroy or
// invent money.
func (s *service) conversionRate(ctx context.Context, from, to models.Currency) (decimal.Decimal, error) {
	rate, err := s.rates.GetRate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	if !rate.IsPositive() {
		return decimal.Zero, apperrors.Newf(apperrors.ErrRateUnavailable,
			"invalid exchange rate %s from %s to %s", rate, from, to)
	}
	return rate, nil
}

// transferParties rejects self-transfers before anything else, then loads
// both accounts to learn their currencies.
func (s *service) transferParties(ctx context.Context, senderID, receiverID uint64, amount decimal.Decimal) (*models.Account, *models.Account, error) {
	if senderID == receiverID {
		return nil, nil, apperrors.Newf(apperrors.ErrInvalidOperation, msgSameAccount)
	}
	if err := validateAmount(amount); err != nil {
		return nil, nil, err
	}

	sender, err := s.store.Accounts().GetByID(ctx, senderID)
	if err != nil {
		return nil, nil, err
	}
	receiver, err := s.store.Accounts().GetByID(ctx, receiverID)
	if err != nil {
		return nil, nil, err
	}
	return sender, receiver, nil
}

// applyTransfer debits withdrawn from the sender and credits deposited to the
// receiver in one store transaction together with the audit record. Accounts
// are written in ascending id order.
func (s *service) applyTransfer(ctx context.Context, senderID, receiverID uint64, withdrawn, deposited decimal.Decimal) (*Receipt, error) {
	var record *models.Transaction
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		sender, err := tx.Accounts().GetByID(ctx, senderID)
		if err != nil {
			return err
		}
		receiver, err := tx.Accounts().GetByID(ctx, receiverID)
		if err != nil {
			return err
		}

		if err := debit(sender, withdrawn); err != nil {
			return err
		}
		credit(receiver, deposited)

		first, second := sender, receiver
		if receiver.ID < sender.ID {
			first, second = receiver, sender
		}
		if err := tx.Accounts().Update(ctx, first); err != nil {
			return err
		}
		if err := tx.Accounts().Update(ctx, second); err != nil {
			return err
		}

		record, err = s.auditor.LogTransfer(ctx, tx.Transactions(), sender, receiver, withdrawn, deposited)
		return err
	})
	s.evict(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	s.committed(ctx, record)
	return &Receipt{
		Message:       fmt.Sprintf(msgTransfer, senderID, receiverID),
		TransactionID: record.ID,
	}, nil
}

func (s *service) committed(ctx context.Context, record *models.Transaction) {
	s.metrics.RecordTransaction(string(record.Type), string(record.AmountSent.Currency), record.AmountSent.Value)
	s.auditor.Publish(ctx, record)
}

func (s *service) evict(ctx context.Context, ids ...uint64) {
	keys := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id)
	}
	if err := s.cache.Evict(ctx, keys...); err != nil {
		s.logger.Warn("failed to evict accounts from cache", "account_ids", ids, "error", err)
	}
}

func (s *service) observe(operation string, start time.Time, errp *error) {
	s.metrics.RecordOperationDuration(operation, time.Since(start))

	result := "ok"
	if err := *errp; err != nil {
		result = "error"
		if de, ok := apperrors.As(err); ok {
			result = de.Code
		}
		if errors.Is(err, apperrors.ErrConflict) {
			s.logger.Info("optimistic lock conflict", "operation", operation, "error", err)
		}
	}
	s.metrics.RecordOperationResult(operation, result)
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	return nil
}

func credit(a *models.Account, amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
}

// debit fails without touching the balance when it would go negative.
func debit(a *models.Account, amount decimal.Decimal) error {
	if !a.CanWithdraw(amount) {
		return apperrors.ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}
