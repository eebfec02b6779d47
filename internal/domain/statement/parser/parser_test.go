package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comptaflow/comptaflow/internal/domain/statement/signature"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestDotDateParser(t *testing.T) {
	p := NewDotDateParser(2025)

	t.Run("parses a card purchase line", func(t *testing.T) {
		txs := p.Parse([]string{"15.03 BOULANGERIE PARIS 12,50"})
		require.Len(t, txs, 1)
		assert.Equal(t, date(2025, 3, 15), txs[0].Date)
		assert.Equal(t, "BOULANGERIE PARIS", txs[0].Label)
		assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("-12.50")), txs[0].Amount.String())
	})

	t.Run("skips boilerplate lines", func(t *testing.T) {
		txs := p.Parse([]string{
			"Date Commerce Montant",
			"TOTAL 152,30",
			"Page 1/2",
			"15.03 CAFE FRANCIS 23,40",
		})
		require.Len(t, txs, 1)
		assert.Equal(t, "CAFE FRANCIS", txs[0].Label)
	})

	t.Run("drops short labels and invalid dates", func(t *testing.T) {
		assert.Empty(t, p.Parse([]string{"15.03 AB 12,50"}))
		assert.Empty(t, p.Parse([]string{"31.13 BOULANGERIE 12,50"}))
		assert.Empty(t, p.Parse([]string{"30.02 BOULANGERIE 12,50"}))
	})

	t.Run("ambiguous lines are dropped not guessed", func(t *testing.T) {
		assert.Empty(t, p.Parse([]string{"BOULANGERIE PARIS 12,50"})) // no date
		assert.Empty(t, p.Parse([]string{"15.03 BOULANGERIE PARIS"})) // no amount
	})
}

func TestCompactDateParser(t *testing.T) {
	p := NewCompactDateParser()

	t.Run("parses concatenated DDMMYY dates", func(t *testing.T) {
		txs := p.Parse([]string{"150324 SUPERMARCHE LYON 45,99"})
		require.Len(t, txs, 1)
		assert.Equal(t, date(2024, 3, 15), txs[0].Date)
		assert.Equal(t, "SUPERMARCHE LYON", txs[0].Label)
		assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("-45.99")), txs[0].Amount.String())
	})

	t.Run("skips header lines", func(t *testing.T) {
		assert.Empty(t, p.Parse([]string{"DATE NOM MONTANT", "TOTAL 45,99"}))
	})

	t.Run("requires the date at line start", func(t *testing.T) {
		assert.Empty(t, p.Parse([]string{"REF 150324 SUPERMARCHE 45,99"}))
	})
}

func TestAnchorDateParser(t *testing.T) {
	t.Run("amount on the anchor line", func(t *testing.T) {
		p := NewAnchorDateParser(2025)
		txs := p.Parse([]string{
			"PAIEMENTS PAR CARTE DE JANVIER 2025",
			"CERTAS ESSOF024 LE 15/01 16,62",
			"TOTAUX 16,62",
		})
		require.Len(t, txs, 1)
		assert.Equal(t, date(2025, 1, 15), txs[0].Date)
		assert.Equal(t, "CERTAS ESSOF024 LE 15/01", txs[0].Label)
		assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("-16.62")), txs[0].Amount.String())
	})

	t.Run("amount on the following line", func(t *testing.T) {
		p := NewAnchorDateParser(2025)
		txs := p.Parse([]string{
			"PAIEMENTS PAR CARTE DE JANVIER 2025",
			"CAFE FRANCIS LE 20/01",
			"23,40",
			"TOTAUX 23,40",
		})
		require.Len(t, txs, 1)
		assert.Equal(t, date(2025, 1, 20), txs[0].Date)
		assert.Equal(t, "CAFE FRANCIS LE 20/01", txs[0].Label)
		assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("-23.40")), txs[0].Amount.String())
	})

	t.Run("december entries on a january statement roll back a year", func(t *testing.T) {
		p := NewAnchorDateParser(2025)
		txs := p.Parse([]string{
			"PAIEMENTS PAR CARTE DE JANVIER 2025",
			"STATION SERVICE LE 28/12 40,00",
			"EPICERIE LE 15/01 8,90",
			"TOTAUX 48,90",
		})
		require.Len(t, txs, 2)
		assert.Equal(t, date(2024, 12, 28), txs[0].Date)
		assert.Equal(t, date(2025, 1, 15), txs[1].Date)
	})

	t.Run("no card-payments section yields nothing", func(t *testing.T) {
		p := NewAnchorDateParser(2025)
		assert.Empty(t, p.Parse([]string{"RELEVE DE COMPTE", "CAFE LE 20/01 23,40"}))
	})

	t.Run("stop keywords inside the section are skipped", func(t *testing.T) {
		p := NewAnchorDateParser(2025)
		txs := p.Parse([]string{
			"PAIEMENTS PAR CARTE DE MARS 2025",
			"LIBELLE VALEUR DEBIT",
			"CARTE N° 1234",
			"PHARMACIE LE 02/03 9,99",
			"TOTAUX 9,99",
		})
		require.Len(t, txs, 1)
		assert.Equal(t, "PHARMACIE LE 02/03", txs[0].Label)
	})

	t.Run("missing header falls back to the supplied year", func(t *testing.T) {
		p := NewAnchorDateParser(2023)
		txs := p.Parse([]string{
			"PAIEMENTS PAR CARTE",
			"PHARMACIE LE 02/03 9,99",
			"TOTAUX 9,99",
		})
		require.Len(t, txs, 1)
		assert.Equal(t, date(2023, 3, 2), txs[0].Date)
	})
}

func TestNewSet(t *testing.T) {
	s := NewSet(2025)
	for _, layout := range []signature.Layout{
		signature.LayoutDotDate,
		signature.LayoutCompactDate,
		signature.LayoutAnchorDate,
	} {
		p, ok := s.For(layout)
		require.True(t, ok, layout)
		assert.Equal(t, layout, p.Layout())
	}
}

func TestSplitLines(t *testing.T) {
	lines := SplitLines("  a \n\n\t\nb\n")
	assert.Equal(t, []string{"a", "b"}, lines)
}
