package repositories

import (
	"context"

	"fundapp/internal/models"
)

// AccountRepository persists accounts. Update is a compare-and-swap on
// Version: it writes only when the stored version equals account.Version,
// increments it, and fails with errors.ErrConflict otherwise.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uint64) (*models.Account, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]models.Account, error)
	ExistsByOwnerAndCurrency(ctx context.Context, ownerID uint64, currency models.Currency) (bool, error)
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, id uint64) error
	DeleteByOwner(ctx context.Context, ownerID uint64) ([]uint64, error)
}

// OwnerRepository persists owners. Touch bumps the version with the same
// compare-and-swap rule as AccountRepository.Update.
type OwnerRepository interface {
	Create(ctx context.Context, owner *models.Owner) error
	GetByID(ctx context.Context, id uint64) (*models.Owner, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]models.Owner, int64, error)
	Touch(ctx context.Context, owner *models.Owner) error
	Delete(ctx context.Context, id uint64) error
}

// ExchangeRateRepository is the rate store. Upsert replaces the rate map
// wholesale and increments the row version (last writer wins).
type ExchangeRateRepository interface {
	GetByCurrency(ctx context.Context, currency models.Currency) (*models.ExchangeRate, error)
	Upsert(ctx context.Context, rate *models.ExchangeRate) error
	ListAll(ctx context.Context) ([]models.ExchangeRate, error)
}

// TransactionRepository is the append-only audit log.
type TransactionRepository interface {
	Append(ctx context.Context, tx *models.Transaction) error
}

// Store groups the repositories and scopes multi-step writes in a single
// transaction: fn's Store is bound to the transaction, which commits when fn
// returns nil and rolls back otherwise.
type Store interface {
	Accounts() AccountRepository
	Owners() OwnerRepository
	ExchangeRates() ExchangeRateRepository
	Transactions() TransactionRepository
	ExecuteInTransaction(ctx context.Context, fn func(Store) error) error
}
