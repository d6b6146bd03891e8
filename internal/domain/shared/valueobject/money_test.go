package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("valid currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(100), BRL)
		require.NoError(t, err)
		assert.Equal(t, BRL, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))
	})

	t.Run("empty currency rejected", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
	})
}

func TestMoney_ArithmeticMismatchedCurrency(t *testing.T) {
	brl := NewMoneyBRLFromFloat(10)
	usd, err := NewMoney(decimal.NewFromInt(10), USD)
	require.NoError(t, err)

	_, err = brl.Add(usd)
	assert.Error(t, err)
	_, err = brl.Subtract(usd)
	assert.Error(t, err)
	_, err = brl.LessThan(usd)
	assert.Error(t, err)
}

func TestMoney_Round2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.005", "10.01"},
		{"10.004", "10.00"},
		{"10", "10.00"},
		{"0.015", "0.02"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := NewMoneyBRLFromString(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Round2().StringFixed(2))
		})
	}
}

func TestMoney_IsSettled(t *testing.T) {
	assert.True(t, ZeroBRL().IsSettled())
	assert.True(t, NewMoneyBRLFromFloat(0.01).IsSettled())
	assert.True(t, NewMoneyBRLFromFloat(-0.5).IsSettled())
	assert.False(t, NewMoneyBRLFromFloat(0.02).IsSettled())
	assert.False(t, NewMoneyBRLFromFloat(1).IsSettled())
}

func TestMoney_FlooredAtZero(t *testing.T) {
	assert.True(t, NewMoneyBRLFromFloat(-3.5).FlooredAtZero().IsZero())
	assert.Equal(t, "2.50", NewMoneyBRLFromFloat(2.5).FlooredAtZero().StringFixed(2))
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := NewMoneyBRLFromFloat(123.45)
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var out Money
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, m.Equals(out))
}

func TestMoney_Scan(t *testing.T) {
	t.Run("string value", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan("42.10"))
		assert.Equal(t, "42.10", m.StringFixed(2))
		assert.Equal(t, DefaultCurrency, m.Currency())
	})

	t.Run("nil value becomes zero", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))
		assert.True(t, m.IsZero())
	})

	t.Run("unsupported type", func(t *testing.T) {
		var m Money
		assert.Error(t, m.Scan(true))
	})
}
