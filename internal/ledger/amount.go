package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/susu3304/partybot/internal/settle"
)

// MaxAmount is the largest amount a single expense or a member total may
// reach. It matches the NUMERIC(14,2) columns of the Postgres store.
const MaxAmount = "999999999999.99"

var maxAmount = decimal.RequireFromString(MaxAmount)

// Exponent bounds keep Round from expanding inputs like 1e20000000 into
// millions of digits. Anything outside them is either above MaxAmount or
// rounds to zero long before the last digit.
const (
	maxExponent = 12
	minExponent = -32
)

func exponentInRange(d decimal.Decimal) bool {
	e := d.Exponent()
	return e >= minExponent && e <= maxExponent
}

// CheckAmount rounds d to cents and reports ErrInvalidAmount when it is
// negative or above MaxAmount.
func CheckAmount(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsNegative() || !exponentInRange(d) {
		return decimal.Zero, ErrInvalidAmount
	}
	d = settle.Round(d)
	if d.GreaterThan(maxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
