// Package satoshi provides the exact integer money type used across the
// ledger. Every amount in the system is a whole number of satoshis; the
// arithmetic is checked and an Amount can never hold a negative value.
// A deficit is never represented as a negative Amount; overspend is a
// separate quantity computed by the rollover engine.
package satoshi

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "satsbudget/internal/errors"
)

// PerBTC is the number of satoshis in one bitcoin.
const PerBTC = 100_000_000

// Amount is a non-negative number of satoshis.
type Amount int64

// MaxAmount is the largest representable Amount.
const MaxAmount = Amount(math.MaxInt64)

var maxAmountDec = decimal.NewFromInt(math.MaxInt64)

// New creates an Amount from a raw satoshi count.
// Negative values are rejected with NEGATIVE_AMOUNT.
func New(v int64) (Amount, error) {
	if v < 0 {
		return 0, apperrors.ErrNegativeAmount
	}
	return Amount(v), nil
}

// MustNew is New for compile-time constants in tests and fixtures.
// It panics on a negative value.
func MustNew(v int64) Amount {
	a, err := New(v)
	if err != nil {
		panic("satoshi: negative amount " + strconv.FormatInt(v, 10))
	}
	return a
}

// Int64 returns the raw satoshi count.
func (a Amount) Int64() int64 { return int64(a) }

// IsZero reports whether the amount is zero satoshis.
func (a Amount) IsZero() bool { return a == 0 }

// Add returns a + b, failing with AMOUNT_OVERFLOW when the sum does not
// fit in 64 bits.
func (a Amount) Add(b Amount) (Amount, error) {
	if int64(a) > math.MaxInt64-int64(b) {
		return 0, apperrors.ErrAmountOverflow
	}
	return a + b, nil
}

// Sub returns a - b, failing with AMOUNT_UNDERFLOW when the result would
// be negative.
func (a Amount) Sub(b Amount) (Amount, error) {
	if b > a {
		return 0, apperrors.ErrAmountUnderflow
	}
	return a - b, nil
}

// Scale returns a * num / den truncated toward zero. Negative scalars are
// rejected with NEGATIVE_AMOUNT and a zero denominator with INVALID_INPUT.
func (a Amount) Scale(num, den int64) (Amount, error) {
	if num < 0 || den < 0 {
		return 0, apperrors.ErrNegativeAmount
	}
	if den == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "scale denominator cannot be zero")
	}
	scaled := decimal.NewFromInt(int64(a)).
		Mul(decimal.NewFromInt(num)).
		Div(decimal.NewFromInt(den)).
		Truncate(0)
	if scaled.Cmp(maxAmountDec) > 0 {
		return 0, apperrors.ErrAmountOverflow
	}
	return Amount(scaled.IntPart()), nil
}

// String returns the satoshi count with thousands separators, e.g. "1,234,567".
func (a Amount) String() string {
	digits := strconv.FormatInt(int64(a), 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return b.String()
}

// FormatSats renders the amount for display, e.g. "1,234,567 sats".
func (a Amount) FormatSats() string {
	return a.String() + " sats"
}

// FormatBTC renders the amount in bitcoin with eight decimal places,
// e.g. "0.01000000 BTC".
func (a Amount) FormatBTC() string {
	return decimal.New(int64(a), -8).StringFixed(8) + " BTC"
}

// Parse converts user input to an Amount. Plain integers are read as
// satoshis ("1,000,000", separators allowed); values suffixed with "BTC"
// are converted exactly ("0.01 BTC" = 1,000,000 sats). Inputs finer than
// one satoshi are rejected.
func Parse(input string) (Amount, error) {
	s := strings.TrimSpace(strings.ReplaceAll(input, ",", ""))
	if s == "" {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount is required")
	}

	if strings.HasSuffix(strings.ToLower(s), "btc") {
		btc, err := decimal.NewFromString(strings.TrimSpace(s[:len(s)-3]))
		if err != nil {
			return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid BTC amount: "+input)
		}
		sats := btc.Mul(decimal.NewFromInt(PerBTC))
		if !sats.IsInteger() {
			return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount is finer than one satoshi")
		}
		if sats.IsNegative() {
			return 0, apperrors.ErrNegativeAmount
		}
		if sats.Cmp(maxAmountDec) > 0 {
			return 0, apperrors.ErrAmountOverflow
		}
		return Amount(sats.IntPart()), nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid satoshi amount: "+input)
	}
	return New(v)
}
