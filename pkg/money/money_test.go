package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrench(t *testing.T) {
	t.Run("comma decimal", func(t *testing.T) {
		d, err := ParseFrench("12,50")
		require.NoError(t, err)
		assert.True(t, d.Equal(decimal.RequireFromString("12.50")), d.String())
	})

	t.Run("negative with thousands space", func(t *testing.T) {
		d, err := ParseFrench("-1 234,56")
		require.NoError(t, err)
		assert.True(t, d.Equal(decimal.RequireFromString("-1234.56")), d.String())
	})

	t.Run("dot thousands separator", func(t *testing.T) {
		d, err := ParseFrench("1.234,56")
		require.NoError(t, err)
		assert.True(t, d.Equal(decimal.RequireFromString("1234.56")), d.String())
	})

	t.Run("plain dot decimal", func(t *testing.T) {
		d, err := ParseFrench("16.62")
		require.NoError(t, err)
		assert.True(t, d.Equal(decimal.RequireFromString("16.62")), d.String())
	})

	t.Run("euro sign and nbsp", func(t *testing.T) {
		d, err := ParseFrench("2 500,00 €")
		require.NoError(t, err)
		assert.True(t, d.Equal(decimal.RequireFromString("2500.00")), d.String())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseFrench("TOTAL")
		assert.Error(t, err)

		_, err = ParseFrench("")
		assert.Error(t, err)
	})
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(-1662), Cents(decimal.RequireFromString("-16.62")))
	assert.Equal(t, int64(250000), Cents(decimal.RequireFromString("2500")))
}

func TestFormatEUR(t *testing.T) {
	s := FormatEUR(decimal.RequireFromString("-16.62"))
	assert.Contains(t, s, "16.62")
}
