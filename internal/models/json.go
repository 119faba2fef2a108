package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// RateMap maps a target currency to its conversion factor. It is stored as
// jsonb.
type RateMap map[Currency]decimal.Decimal

// Value implements the driver.Valuer interface
func (m RateMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[Currency]decimal.Decimal(m))
}

// Scan implements the sql.Scanner interface
func (m *RateMap) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*m = RateMap{}
		return nil
	default:
		return fmt.Errorf("unsupported rate map source %T", value)
	}

	decoded := make(map[Currency]decimal.Decimal)
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*m = decoded
	return nil
}

// UnmarshalJSON keeps only supported currencies.
func (m *RateMap) UnmarshalJSON(data []byte) error {
	if m == nil {
		return errors.New("nil pointer")
	}
	raw := make(map[string]decimal.Decimal)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = RatesFrom(raw)
	return nil
}

// RatesFrom converts provider codes to a RateMap, dropping codes outside
// SupportedCurrencies.
func RatesFrom(raw map[string]decimal.Decimal) RateMap {
	out := make(RateMap, len(raw))
	for code, rate := range raw {
		c, err := ParseCurrency(code)
		if err != nil {
			continue
		}
		out[c] = rate
	}
	return out
}
