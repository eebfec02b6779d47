package exporter

import (
	"bytes"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/comptaflow/comptaflow/internal/domain/statement"
)

func sampleTransactions(t *testing.T, n int) []statement.Transaction {
	t.Helper()
	faker := gofakeit.New(42)
	txs := make([]statement.Transaction, 0, n)
	for i := 0; i < n; i++ {
		txs = append(txs, statement.Transaction{
			Date:   time.Date(2025, time.March, 1+i, 0, 0, 0, 0, time.UTC),
			Label:  faker.Company(),
			Amount: decimal.NewFromFloat(faker.Price(1, 500)).Neg(),
		})
	}
	return txs
}

func TestNormalize(t *testing.T) {
	valid := sampleTransactions(t, 2)

	t.Run("drops rows with zero dates and blank labels", func(t *testing.T) {
		input := []statement.Transaction{
			valid[0],
			{Label: "NO DATE", Amount: decimal.NewFromInt(-5)},
			{Date: valid[1].Date, Label: "   ", Amount: decimal.NewFromInt(-5)},
			valid[1],
		}

		rows := Normalize(input)
		require.Len(t, rows, 2)
		assert.Equal(t, valid[0].Label, rows[0].Label)
		assert.Equal(t, valid[1].Label, rows[1].Label)
	})

	t.Run("nil when nothing survives", func(t *testing.T) {
		rows := Normalize([]statement.Transaction{{Label: "NO DATE"}})
		assert.Nil(t, rows)
	})
}

func TestToExcel(t *testing.T) {
	t.Run("writes header and rows on the named sheet", func(t *testing.T) {
		txs := sampleTransactions(t, 3)

		out, err := ToExcel(txs)
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(out))
		require.NoError(t, err)
		defer f.Close()

		require.Equal(t, []string{"Relevé"}, f.GetSheetList())

		rows, err := f.GetRows("Relevé")
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, []string{"Date", "Libellé", "Montant"}, rows[0])
		assert.Equal(t, "01/03/2025", rows[1][0])
		assert.Equal(t, txs[0].Label, rows[1][1])

		width, err := f.GetColWidth("Relevé", "B")
		require.NoError(t, err)
		assert.InDelta(t, 50, width, 0.01)
	})

	t.Run("fails when every row is dropped", func(t *testing.T) {
		out, err := ToExcel([]statement.Transaction{{Label: "NO DATE"}})
		assert.ErrorIs(t, err, ErrNoRows)
		assert.Nil(t, out)
	})

	t.Run("fails on empty input", func(t *testing.T) {
		_, err := ToExcel(nil)
		assert.ErrorIs(t, err, ErrNoRows)
	})
}

func TestToCSV(t *testing.T) {
	t.Run("round-trips the normalized rows", func(t *testing.T) {
		txs := []statement.Transaction{
			{
				Date:   time.Date(2025, time.October, 30, 0, 0, 0, 0, time.UTC),
				Label:  "CERTAS ENERGY",
				Amount: decimal.RequireFromString("-16.62"),
			},
		}

		out, err := ToCSV(txs)
		require.NoError(t, err)

		text := string(out)
		assert.Contains(t, text, "date,libelle,montant")
		assert.Contains(t, text, "30/10/2025,CERTAS ENERGY,-16.62")
	})

	t.Run("fails when every row is dropped", func(t *testing.T) {
		_, err := ToCSV([]statement.Transaction{{Label: "NO DATE"}})
		assert.ErrorIs(t, err, ErrNoRows)
	})
}
