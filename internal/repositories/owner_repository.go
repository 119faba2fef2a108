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

type ownerRepository struct {
	db *gorm.DB
}

func (r *ownerRepository) Create(ctx context.Context, owner *models.Owner) error {
	if err := r.db.WithContext(ctx).Create(owner).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Newf(apperrors.ErrAlreadyExists, "%s already exists", owner.Username)
		}
		return fmt.Errorf("failed to create owner: %w", err)
	}
	return nil
}

func (r *ownerRepository) GetByID(ctx context.Context, id uint64) (*models.Owner, error) {
	var owner models.Owner
	if err := r.db.WithContext(ctx).First(&owner, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ownerNotFound(id)
		}
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	return &owner, nil
}

func (r *ownerRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Owner{}).
		Where("username = ?", username).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

func (r *ownerRepository) List(ctx context.Context, offset, limit int) ([]models.Owner, int64, error) {
	var owners []models.Owner
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Owner{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count owners: %w", err)
	}

	if err := db.Order("id ASC").Offset(offset).Limit(limit).Find(&owners).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list owners: %w", err)
	}

	return owners, total, nil
}

func (r *ownerRepository) Touch(ctx context.Context, owner *models.Owner) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Owner{}).
		Where("id = ? AND version = ?", owner.ID, owner.Version).
		Updates(map[string]interface{}{
			"version":    owner.Version + 1,
			"updated_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update owner: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Owner{}).Where("id = ?", owner.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check owner: %w", err)
		}
		if count == 0 {
			return ownerNotFound(owner.ID)
		}
		return apperrors.Newf(apperrors.ErrConflict, "owner %d was modified concurrently", owner.ID)
	}

	owner.Version++
	owner.UpdatedAt = now
	return nil
}

func (r *ownerRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Delete(&models.Owner{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete owner: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ownerNotFound(id)
	}
	return nil
}

func ownerNotFound(id uint64) error {
	return apperrors.Newf(apperrors.ErrNotFound, "Owner not found with ID: %d", id)
}
