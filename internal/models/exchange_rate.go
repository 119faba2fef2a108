package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate holds the conversion factors from one base currency to the
// others. There is one row per base currency.
type ExchangeRate struct {
	Currency      Currency  `gorm:"primaryKey;type:varchar(3)" json:"currency"`
	Rates         RateMap   `gorm:"type:jsonb;not null" json:"rates"`
	LastUpdatedAt time.Time `gorm:"type:date;not null" json:"last_updated_at"`
	Version       int64     `gorm:"not null;default:0" json:"version"`
}

// FreshOn reports whether the rates were fetched on the calendar day of now
// (or later). Dates are compared in UTC.
func (r *ExchangeRate) FreshOn(now time.Time) bool {
	return !Day(r.LastUpdatedAt).Before(Day(now))
}

// Rate returns the factor from the row's base currency to target.
func (r *ExchangeRate) Rate(target Currency) (decimal.Decimal, bool) {
	v, ok := r.Rates[target]
	return v, ok
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
