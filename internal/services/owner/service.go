package owner

import (
	"context"
	"log/slog"
	"strings"

	apperrors "fundapp/internal/errors"
	"fundapp/internal/models"
	"fundapp/internal/repositories"
	"fundapp/internal/repositories/cache"

	"github.com/shopspring/decimal"
)

type service struct {
	store    repositories.Store
	owners   cache.EntityCache[models.Owner]
	accounts cache.EntityCache[models.Account]
	logger   *slog.Logger
}

// NewService creates the owner service. accounts is the cache shared with the
// account service so deleted accounts are evicted from it.
func NewService(
	store repositories.Store,
	ownerCache cache.EntityCache[models.Owner],
	accountCache cache.EntityCache[models.Account],
	logger *slog.Logger,
) Service {
	if store == nil {
		panic("store is required")
	}
	if ownerCache == nil || accountCache == nil {
		panic("owner and account caches are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		store:    store,
		owners:   ownerCache,
		accounts: accountCache,
		logger:   logger,
	}
}

func (s *service) CreateOwner(ctx context.Context, username string) (*models.Owner, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.Newf(apperrors.ErrInvalidOperation, "username is required")
	}

	exists, err := s.store.Owners().ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Newf(apperrors.ErrAlreadyExists, "%s already exists", username)
	}

	owner := &models.Owner{Username: username}
	if err := s.store.Owners().Create(ctx, owner); err != nil {
		return nil, err
	}

	s.logger.Info("owner created", "owner_id", owner.ID, "username", owner.Username)
	return owner, nil
}

func (s *service) GetByID(ctx context.Context, id uint64) (*Profile, error) {
	owner, err := s.findOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, s.store, owner)
}

func (s *service) ListOwners(ctx context.Context, offset, limit int) ([]Profile, int64, error) {
	owners, total, err := s.store.Owners().List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]Profile, 0, len(owners))
	for i := range owners {
		p, err := s.profile(ctx, s.store, &owners[i])
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, total, nil
}

// AddAccountToOwner opens a zero-balance account in currency. The owner's
// version is bumped in the same transaction, so two concurrent adds for one
// owner cannot both commit.
func (s *service) AddAccountToOwner(ctx context.Context, ownerID uint64, currency models.Currency) (*Profile, error) {
	if !currency.IsValid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidOperation, "unsupported currency %s", currency)
	}

	var result *Profile
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		owner, err := tx.Owners().GetByID(ctx, ownerID)
		if err != nil {
			return err
		}

		held, err := tx.Accounts().ExistsByOwnerAndCurrency(ctx, ownerID, currency)
		if err != nil {
			return err
		}
		if held {
			return apperrors.Newf(apperrors.ErrInvalidOperation,
				"Cannot possess more than one account with currency %s", currency)
		}

		account := &models.Account{
			OwnerID:  ownerID,
			Currency: currency,
			Balance:  decimal.Zero,
		}
		if err := tx.Accounts().Create(ctx, account); err != nil {
			return err
		}
		if err := tx.Owners().Touch(ctx, owner); err != nil {
			return err
		}

		result, err = s.profile(ctx, tx, owner)
		return err
	})
	s.evictOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("account added to owner", "owner_id", ownerID, "currency", currency)
	return result, nil
}

// DeleteOwner removes the owner and every account it holds.
func (s *service) DeleteOwner(ctx context.Context, id uint64) error {
	var removed []uint64
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Owners().GetByID(ctx, id); err != nil {
			return err
		}
		ids, err := tx.Accounts().DeleteByOwner(ctx, id)
		if err != nil {
			return err
		}
		removed = ids
		return tx.Owners().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.evictOwner(ctx, id)
	if len(removed) > 0 {
		keys := make([]interface{}, 0, len(removed))
		for _, accountID := range removed {
			keys = append(keys, accountID)
		}
		if err := s.accounts.Evict(ctx, keys...); err != nil {
			s.logger.Warn("failed to evict accounts from cache", "account_ids", removed, "error", err)
		}
	}

	s.logger.Warn("owner deleted", "owner_id", id, "accounts_removed", len(removed))
	return nil
}

func (s *service) findOwner(ctx context.Context, id uint64) (*models.Owner, error) {
	cached, found, err := s.owners.Get(ctx, id)
	if err != nil {
		s.logger.Warn("owner cache read failed", "owner_id", id, "error", err)
	}
	if found {
		return cached, nil
	}

	owner, err := s.store.Owners().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.owners.Put(ctx, id, owner); err != nil {
		s.logger.Warn("failed to cache owner", "owner_id", id, "error", err)
	}
	return owner, nil
}

// profile derives the owner's accounts from the store rather than the cache.
func (s *service) profile(ctx context.Context, store repositories.Store, owner *models.Owner) (*Profile, error) {
	accounts, err := store.Accounts().ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return &Profile{Owner: *owner, Accounts: accounts}, nil
}

func (s *service) evictOwner(ctx context.Context, id uint64) {
	if err := s.owners.Evict(ctx, id); err != nil {
		s.logger.Warn("failed to evict owner from cache", "owner_id", id, "error", err)
	}
}
