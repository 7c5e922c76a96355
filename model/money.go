/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places carried by every Money value.
const MoneyScale = 2

var (
	ErrInvalidMoney  = errors.New("invalid monetary amount")
	ErrMoneyOverflow = errors.New("monetary amount out of range")

	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)

// Money is a signed fixed-point amount held as integer minor units (cents).
// The zero value is a valid amount of 0.00.
type Money struct {
	minor int64
}

// NewMoney builds a Money value from minor units.
func NewMoney(minor int64) Money {
	return Money{minor: minor}
}

// ParseMoney parses a decimal string such as "12.50". Inputs carrying more than
// MoneyScale fractional digits are rejected rather than rounded.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}
	return NewMoneyFromDecimal(d)
}

// NewMoneyFromDecimal converts a decimal to Money without losing precision.
func NewMoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if !d.Round(MoneyScale).Equal(d) {
		return Money{}, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidMoney, d.String(), MoneyScale)
	}
	shifted := d.Shift(MoneyScale)
	if shifted.GreaterThan(maxMinorUnits) || shifted.LessThan(minMinorUnits) {
		return Money{}, ErrMoneyOverflow
	}
	return Money{minor: shifted.IntPart()}, nil
}

// MinorUnits returns the amount in minor units.
func (m Money) MinorUnits() int64 {
	return m.minor
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.minor, -MoneyScale)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(MoneyScale)
}

func (m Money) Add(other Money) Money {
	return Money{minor: m.minor + other.minor}
}

// AddChecked adds other to m and reports false when the result does not fit.
func (m Money) AddChecked(other Money) (Money, bool) {
	sum := m.minor + other.minor
	if (other.minor > 0 && sum < m.minor) || (other.minor < 0 && sum > m.minor) {
		return Money{}, false
	}
	return Money{minor: sum}, true
}

// Sub may return a negative amount; callers decide whether that is allowed.
func (m Money) Sub(other Money) Money {
	return Money{minor: m.minor - other.minor}
}

func (m Money) Neg() Money {
	return Money{minor: -m.minor}
}

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(other Money) int {
	switch {
	case m.minor < other.minor:
		return -1
	case m.minor > other.minor:
		return 1
	default:
		return 0
	}
}

func (m Money) Equal(other Money) bool {
	return m.minor == other.minor
}

func (m Money) IsPositive() bool {
	return m.minor > 0
}

func (m Money) IsNegative() bool {
	return m.minor < 0
}

func (m Money) IsZero() bool {
	return m.minor == 0
}

// MarshalJSON renders the amount as a fixed-scale decimal string, e.g. "150.00".
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON accepts both quoted decimal strings and bare JSON numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMoney, string(data))
	}
	parsed, err := NewMoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value stores Money as BIGINT minor units.
func (m Money) Value() (driver.Value, error) {
	return m.minor, nil
}

// Scan reads BIGINT minor units.
func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		m.minor = v
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidMoney, string(v))
		}
		m.minor = n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidMoney, v)
		}
		m.minor = n
	case nil:
		m.minor = 0
	default:
		return fmt.Errorf("cannot scan %T into Money", src)
	}
	return nil
}
