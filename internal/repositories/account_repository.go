package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "fundapp/internal/errors"
	"fundapp/internal/models"

	"gorm.io/gorm"
)

type accountRepository struct {
	db *gorm.DB
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Newf(apperrors.ErrInvalidOperation,
				"Cannot possess more than one account with currency %s", account.Currency)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uint64) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accountNotFound(id)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) ListByOwner(ctx context.Context, ownerID uint64) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (r *accountRepository) ExistsByOwnerAndCurrency(ctx context.Context, ownerID uint64, currency models.Currency) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("owner_id = ? AND currency = ?", ownerID, currency).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check account currency: %w", err)
	}
	return count > 0, nil
}

func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]interface{}{
			"balance":    account.Balance,
			"version":    account.Version + 1,
			"updated_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missOrConflict(ctx, account.ID)
	}

	account.Version++
	account.UpdatedAt = now
	return nil
}

func (r *accountRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Delete(&models.Account{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return accountNotFound(id)
	}
	return nil
}

func (r *accountRepository) DeleteByOwner(ctx context.Context, ownerID uint64) ([]uint64, error) {
	var ids []uint64
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Account{}).Where("owner_id = ?", ownerID).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list owner accounts: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := db.Where("owner_id = ?", ownerID).Delete(&models.Account{}).Error; err != nil {
		return nil, fmt.Errorf("failed to delete owner accounts: %w", err)
	}
	return ids, nil
}

// missOrConflict tells a vanished row apart from a stale version after a
// compare-and-swap matched nothing.
func (r *accountRepository) missOrConflict(ctx context.Context, id uint64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check account: %w", err)
	}
	if count == 0 {
		return accountNotFound(id)
	}
	return apperrors.Newf(apperrors.ErrConflict, "account %d was modified concurrently", id)
}

func accountNotFound(id uint64) error {
	return apperrors.Newf(apperrors.ErrNotFound, "Account not found with ID: %d", id)
}
