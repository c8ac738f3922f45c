// Package money holds the fixed-point currency and rate helpers used by the
// amortization engine, ledger reports and offer calculations.
package money

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Currency is an ISO 4217 currency code.
type Currency struct {
	code string
}

// NewCurrency validates that code is exactly 3 uppercase letters.
func NewCurrency(code string) (Currency, error) {
	if !currencyCodeRe.MatchString(code) {
		return Currency{}, fmt.Errorf("invalid currency code %q: must be exactly 3 uppercase letters", code)
	}
	return Currency{code: code}, nil
}

// MustCurrency panics on an invalid code. Package-level initialisation only.
func MustCurrency(code string) Currency {
	c, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Currency) Code() string   { return c.code }
func (c Currency) String() string { return c.code }

// INR is the settlement currency of every loan in the book.
var INR = MustCurrency("INR")

// Money is an immutable amount in a currency. Amounts are always held at the
// 2-digit currency scale.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// New rounds amount half-up to 2 places and binds it to currency.
func New(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: Round(amount), currency: currency}
}

// Zero returns 0.00 in the given currency.
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }

// Add returns m + other, failing on a currency mismatch.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: cannot add %s to %s", other.currency, m.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}
