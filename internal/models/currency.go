package models

import (
	"fmt"
	"strings"
)

// Currency is an ISO 4217 code from the fixed set the ledger supports.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	BRL Currency = "BRL"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CHF Currency = "CHF"
	CAD Currency = "CAD"
	AUD Currency = "AUD"
)

// SupportedCurrencies lists every currency an account or rate may use.
var SupportedCurrencies = []Currency{USD, EUR, BRL, GBP, JPY, CHF, CAD, AUD}

// IsValid reports whether c belongs to the supported set.
func (c Currency) IsValid() bool {
	for _, s := range SupportedCurrencies {
		if c == s {
			return true
		}
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}

// ParseCurrency accepts a code in any letter case.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if !c.IsValid() {
		return "", fmt.Errorf("unsupported currency %q", code)
	}
	return c, nil
}
