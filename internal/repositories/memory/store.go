// Package memory is an in-process repositories.Store used for local runs
// (STORE_DRIVER=memory) and service tests. It keeps the same contracts as the
// gorm store: compare-and-swap versions, unique owner usernames, one account
// per owner and currency, and all-or-nothing transactions.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "fundapp/internal/errors"
	"fundapp/internal/models"
	"fundapp/internal/repositories"
)

const firstAccountID = 1000

type state struct {
	owners        map[uint64]models.Owner
	accounts      map[uint64]models.Account
	rates         map[models.Currency]models.ExchangeRate
	transactions  []models.Transaction
	nextOwnerID   uint64
	nextAccountID uint64
}

func newState() *state {
	return &state{
		owners:        make(map[uint64]models.Owner),
		accounts:      make(map[uint64]models.Account),
		rates:         make(map[models.Currency]models.ExchangeRate),
		nextOwnerID:   1,
		nextAccountID: firstAccountID,
	}
}

func (s *state) clone() *state {
	c := &state{
		owners:        make(map[uint64]models.Owner, len(s.owners)),
		accounts:      make(map[uint64]models.Account, len(s.accounts)),
		rates:         make(map[models.Currency]models.ExchangeRate, len(s.rates)),
		transactions:  append([]models.Transaction(nil), s.transactions...),
		nextOwnerID:   s.nextOwnerID,
		nextAccountID: s.nextAccountID,
	}
	for k, v := range s.owners {
		c.owners[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.rates {
		c.rates[k] = v
	}
	return c
}

// Store is safe for concurrent use. A transaction holds the store lock for
// its whole duration and works on a copy that replaces the live state only
// on success.
type Store struct {
	mu   *sync.Mutex
	data *state
	inTx bool
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		mu:   &sync.Mutex{},
		data: newState(),
		now:  time.Now,
	}
}

func (s *Store) with(fn func(*state) error) error {
	if s.inTx {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) Accounts() repositories.AccountRepository {
	return accountRepo{s}
}

func (s *Store) Owners() repositories.OwnerRepository {
	return ownerRepo{s}
}

func (s *Store) ExchangeRates() repositories.ExchangeRateRepository {
	return rateRepo{s}
}

func (s *Store) Transactions() repositories.TransactionRepository {
	return txRepo{s}
}

func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(repositories.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &Store{mu: s.mu, data: s.data.clone(), inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// TransactionLog returns a copy of every appended audit record.
func (s *Store) TransactionLog() []models.Transaction {
	var out []models.Transaction
	_ = s.with(func(st *state) error {
		out = append(out, st.transactions...)
		return nil
	})
	return out
}

type accountRepo struct{ s *Store }

func (r accountRepo) Create(_ context.Context, account *models.Account) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.owners[account.OwnerID]; !ok {
			return apperrors.Newf(apperrors.ErrNotFound, "Owner not found with ID: %d", account.OwnerID)
		}
		for _, a := range st.accounts {
			if a.OwnerID == account.OwnerID && a.Currency == account.Currency {
				return apperrors.Newf(apperrors.ErrInvalidOperation,
					"Cannot possess more than one account with currency %s", account.Currency)
			}
		}
		now := r.s.now()
		account.ID = st.nextAccountID
		account.CreatedAt = now
		account.UpdatedAt = now
		st.nextAccountID++
		st.accounts[account.ID] = *account
		return nil
	})
}

func (r accountRepo) GetByID(_ context.Context, id uint64) (*models.Account, error) {
	var out *models.Account
	err := r.s.with(func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return apperrors.Newf(apperrors.ErrNotFound, "Account not found with ID: %d", id)
		}
		out = &a
		return nil
	})
	return out, err
}

func (r accountRepo) ListByOwner(_ context.Context, ownerID uint64) ([]models.Account, error) {
	var out []models.Account
	err := r.s.with(func(st *state) error {
		for _, a := range st.accounts {
			if a.OwnerID == ownerID {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r accountRepo) ExistsByOwnerAndCurrency(_ context.Context, ownerID uint64, currency models.Currency) (bool, error) {
	exists := false
	err := r.s.with(func(st *state) error {
		for _, a := range st.accounts {
			if a.OwnerID == ownerID && a.Currency == currency {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

func (r accountRepo) Update(_ context.Context, account *models.Account) error {
	return r.s.with(func(st *state) error {
		current, ok := st.accounts[account.ID]
		if !ok {
			return apperrors.Newf(apperrors.ErrNotFound, "Account not found with ID: %d", account.ID)
		}
		if current.Version != account.Version {
			return apperrors.Newf(apperrors.ErrConflict, "account %d was modified concurrently", account.ID)
		}
		if account.Balance.IsNegative() {
			return apperrors.ErrInsufficientFunds
		}
		current.Balance = account.Balance
		current.Version++
		current.UpdatedAt = r.s.now()
		st.accounts[account.ID] = current

		account.Version = current.Version
		account.UpdatedAt = current.UpdatedAt
		return nil
	})
}

func (r accountRepo) Delete(_ context.Context, id uint64) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.accounts[id]; !ok {
			return apperrors.Newf(apperrors.ErrNotFound, "Account not found with ID: %d", id)
		}
		delete(st.accounts, id)
		return nil
	})
}

func (r accountRepo) DeleteByOwner(_ context.Context, ownerID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.s.with(func(st *state) error {
		for id, a := range st.accounts {
			if a.OwnerID == ownerID {
				ids = append(ids, id)
				delete(st.accounts, id)
			}
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}

type ownerRepo struct{ s *Store }

func (r ownerRepo) Create(_ context.Context, owner *models.Owner) error {
	return r.s.with(func(st *state) error {
		for _, o := range st.owners {
			if o.Username == owner.Username {
				return apperrors.Newf(apperrors.ErrAlreadyExists, "%s already exists", owner.Username)
			}
		}
		now := r.s.now()
		owner.ID = st.nextOwnerID
		owner.CreatedAt = now
		owner.UpdatedAt = now
		st.nextOwnerID++
		st.owners[owner.ID] = *owner
		return nil
	})
}

func (r ownerRepo) GetByID(_ context.Context, id uint64) (*models.Owner, error) {
	var out *models.Owner
	err := r.s.with(func(st *state) error {
		o, ok := st.owners[id]
		if !ok {
			return apperrors.Newf(apperrors.ErrNotFound, "Owner not found with ID: %d", id)
		}
		out = &o
		return nil
	})
	return out, err
}

func (r ownerRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	exists := false
	err := r.s.with(func(st *state) error {
		for _, o := range st.owners {
			if o.Username == username {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

func (r ownerRepo) List(_ context.Context, offset, limit int) ([]models.Owner, int64, error) {
	var all []models.Owner
	_ = r.s.with(func(st *state) error {
		for _, o := range st.owners {
			all = append(all, o)
		}
		return nil
	})
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	if offset >= len(all) {
		return []models.Owner{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r ownerRepo) Touch(_ context.Context, owner *models.Owner) error {
	return r.s.with(func(st *state) error {
		current, ok := st.owners[owner.ID]
		if !ok {
			return apperrors.Newf(apperrors.ErrNotFound, "Owner not found with ID: %d", owner.ID)
		}
		if current.Version != owner.Version {
			return apperrors.Newf(apperrors.ErrConflict, "owner %d was modified concurrently", owner.ID)
		}
		current.Version++
		current.UpdatedAt = r.s.now()
		st.owners[owner.ID] = current

		owner.Version = current.Version
		owner.UpdatedAt = current.UpdatedAt
		return nil
	})
}

func (r ownerRepo) Delete(_ context.Context, id uint64) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.owners[id]; !ok {
			return apperrors.Newf(apperrors.ErrNotFound, "Owner not found with ID: %d", id)
		}
		delete(st.owners, id)
		return nil
	})
}

type rateRepo struct{ s *Store }

func (r rateRepo) GetByCurrency(_ context.Context, currency models.Currency) (*models.ExchangeRate, error) {
	var out *models.ExchangeRate
	err := r.s.with(func(st *state) error {
		rate, ok := st.rates[currency]
		if !ok {
			return apperrors.Newf(apperrors.ErrNotFound, "no exchange rate stored for %s", currency)
		}
		rate.Rates = copyRates(rate.Rates)
		out = &rate
		return nil
	})
	return out, err
}

func (r rateRepo) Upsert(_ context.Context, rate *models.ExchangeRate) error {
	return r.s.with(func(st *state) error {
		stored := *rate
		stored.Rates = copyRates(rate.Rates)
		if existing, ok := st.rates[rate.Currency]; ok {
			stored.Version = existing.Version + 1
		}
		st.rates[rate.Currency] = stored
		return nil
	})
}

func (r rateRepo) ListAll(_ context.Context) ([]models.ExchangeRate, error) {
	var out []models.ExchangeRate
	err := r.s.with(func(st *state) error {
		for _, rate := range st.rates {
			rate.Rates = copyRates(rate.Rates)
			out = append(out, rate)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, err
}

func copyRates(in models.RateMap) models.RateMap {
	out := make(models.RateMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type txRepo struct{ s *Store }

func (r txRepo) Append(_ context.Context, tx *models.Transaction) error {
	return r.s.with(func(st *state) error {
		st.transactions = append(st.transactions, *tx)
		return nil
	})
}
