package repositories

import (
	"context"
	"errors"
	"fmt"

	apperrors "fundapp/internal/errors"
	"fundapp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type exchangeRateRepository struct {
	db *gorm.DB
}

func (r *exchangeRateRepository) GetByCurrency(ctx context.Context, currency models.Currency) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.db.WithContext(ctx).Where("currency = ?", currency).First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrNotFound, "no exchange rate stored for %s", currency)
		}
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	return &rate, nil
}

func (r *exchangeRateRepository) Upsert(ctx context.Context, rate *models.ExchangeRate) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "currency"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"rates":           gorm.Expr("EXCLUDED.rates"),
			"last_updated_at": gorm.Expr("EXCLUDED.last_updated_at"),
			"version":         gorm.Expr("exchange_rates.version + 1"),
		}),
	}).Create(rate).Error
	if err != nil {
		return fmt.Errorf("failed to upsert exchange rate: %w", err)
	}
	return nil
}

func (r *exchangeRateRepository) ListAll(ctx context.Context) ([]models.ExchangeRate, error) {
	var rates []models.ExchangeRate
	if err := r.db.WithContext(ctx).Order("currency ASC").Find(&rates).Error; err != nil {
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	return rates, nil
}
