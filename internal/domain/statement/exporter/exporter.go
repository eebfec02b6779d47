// Package exporter turns a transaction list into the canonical tabular
// artifacts callers download: an Excel workbook matching the original
// relevé layout, and a CSV sibling.
package exporter

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/comptaflow/comptaflow/internal/domain/statement"
)

// ErrNoRows signals that every candidate row was dropped during
// normalization; there is nothing to export.
var ErrNoRows = errors.New("exporter: no valid rows")

// Sheet and presentation constants for the Excel artifact.
const (
	sheetName   = "Relevé"
	widthDate   = 12
	widthLabel  = 50
	widthAmount = 15
)

// Normalize drops rows that fail the model invariants (zero date, blank
// label) and returns the surviving rows in input order. A nil result means
// nothing survived.
func Normalize(txs []statement.Transaction) []statement.Transaction {
	var rows []statement.Transaction
	for _, tx := range txs {
		if !tx.Valid() {
			continue
		}
		rows = append(rows, tx)
	}
	return rows
}

// ToExcel renders the normalized rows as an Excel workbook. It returns
// ErrNoRows when normalization leaves nothing to write.
func ToExcel(txs []statement.Transaction) ([]byte, error) {
	rows := Normalize(txs)
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []interface{}{"Date", "Libellé", "Montant"}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, tx := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{
			tx.Date.Format(statement.DateLayout),
			tx.Label,
			tx.Amount.InexactFloat64(),
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	for col, width := range map[string]float64{
		"A": widthDate, "B": widthLabel, "C": widthAmount,
	} {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// csvRow is the CSV projection of one transaction.
type csvRow struct {
	Date    string `csv:"date"`
	Libelle string `csv:"libelle"`
	Montant string `csv:"montant"`
}

// ToCSV renders the normalized rows as CSV with the same columns as the
// workbook. It returns ErrNoRows when nothing survives normalization.
func ToCSV(txs []statement.Transaction) ([]byte, error) {
	rows := Normalize(txs)
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	records := make([]csvRow, 0, len(rows))
	for _, tx := range rows {
		records = append(records, csvRow{
			Date:    tx.Date.Format(statement.DateLayout),
			Libelle: tx.Label,
			Montant: tx.Amount.StringFixed(2),
		})
	}

	out, err := gocsv.MarshalBytes(&records)
	if err != nil {
		return nil, fmt.Errorf("serialize csv: %w", err)
	}
	return out, nil
}
