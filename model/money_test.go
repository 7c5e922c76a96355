package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{name: "whole units", input: "150", want: 15000},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "one decimal", input: "0.5", want: 50},
		{name: "negative", input: "-3.10", want: -310},
		{name: "too precise", input: "1.001", wantErr: ErrInvalidMoney},
		{name: "garbage", input: "ten", wantErr: ErrInvalidMoney},
		{name: "overflow", input: "99999999999999999999", wantErr: ErrMoneyOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.MinorUnits())
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoney(15000)
	b := NewMoney(20000)

	assert.Equal(t, NewMoney(35000), a.Add(b))
	assert.Equal(t, NewMoney(-5000), a.Sub(b))
	assert.True(t, a.Sub(b).IsNegative())
	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, 1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(NewMoney(15000)))
	assert.True(t, a.IsPositive())
	assert.False(t, Money{}.IsPositive())
	assert.True(t, Money{}.IsZero())
	assert.Equal(t, NewMoney(-15000), a.Neg())
}

func TestMoneyAddChecked(t *testing.T) {
	_, ok := NewMoney(math.MaxInt64).AddChecked(NewMoney(1))
	assert.False(t, ok)

	_, ok = NewMoney(math.MinInt64).AddChecked(NewMoney(-1))
	assert.False(t, ok)

	sum, ok := NewMoney(100).AddChecked(NewMoney(-40))
	assert.True(t, ok)
	assert.Equal(t, NewMoney(60), sum)
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "150.00", NewMoney(15000).String())
	assert.Equal(t, "0.05", NewMoney(5).String())
	assert.Equal(t, "-1.20", NewMoney(-120).String())
	assert.True(t, decimal.RequireFromString("1.2").Equal(NewMoney(120).Decimal()))
}

func TestMoneyJSON(t *testing.T) {
	payload, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Amount: NewMoney(3050)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"30.50"}`, string(payload))

	var fromNumber struct {
		Amount Money `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 12.5}`), &fromNumber))
	assert.Equal(t, int64(1250), fromNumber.Amount.MinorUnits())

	var fromString struct {
		Amount Money `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount": "0.01"}`), &fromString))
	assert.Equal(t, int64(1), fromString.Amount.MinorUnits())

	var tooPrecise struct {
		Amount Money `json:"amount"`
	}
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"amount": "0.001"}`), &tooPrecise), ErrInvalidMoney)
}

func TestMoneyScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan(int64(42)))
	assert.Equal(t, int64(42), m.MinorUnits())

	require.NoError(t, m.Scan([]byte("1000")))
	assert.Equal(t, int64(1000), m.MinorUnits())

	assert.Error(t, m.Scan(3.14))

	v, err := NewMoney(77).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(77), v)
}
