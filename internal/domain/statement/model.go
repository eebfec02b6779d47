// Package statement defines the core data model for bank-statement extraction:
// transactions, extraction outcomes, and the typed failure kinds shared by the
// pipeline packages.
package statement

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical presentation format for transaction dates.
const DateLayout = "02/01/2006"

// Transaction is a single normalized statement entry.
// Amount is signed: negative for debits, positive for credits.
type Transaction struct {
	Date   time.Time
	Label  string
	Amount decimal.Decimal
}

// Valid reports whether the transaction satisfies the model invariants:
// a real calendar date and a non-empty label after trimming.
func (t Transaction) Valid() bool {
	return !t.Date.IsZero() && strings.TrimSpace(t.Label) != ""
}

// Method identifies which extraction tier produced a result.
type Method string

const (
	MethodNativeRegex Method = "NATIVE_REGEX"
	MethodOCRRegex    Method = "OCR_REGEX"
	MethodLLM         Method = "LLM"
)

// ExtractionOutcome is the terminal artifact of a successful pipeline run.
// It is request-scoped and never outlives the call that produced it.
type ExtractionOutcome struct {
	Transactions []Transaction
	Method       Method
	Bank         string
}

// ErrorKind classifies terminal pipeline failures.
type ErrorKind string

const (
	ErrScanned             ErrorKind = "SCANNED"
	ErrBankNotSupported    ErrorKind = "BANK_NOT_SUPPORTED"
	ErrUnreadable          ErrorKind = "UNREADABLE"
	ErrNoTransactionsFound ErrorKind = "NO_TRANSACTIONS_FOUND"
	ErrExtraction          ErrorKind = "EXTRACTION_ERROR"
	ErrUnknown             ErrorKind = "UNKNOWN"
)

// PipelineError is a typed, user-facing terminal failure.
type PipelineError struct {
	Kind    ErrorKind
	Bank    string
	Message string
}

func (e *PipelineError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

// AsPipelineError unwraps err into a PipelineError when it is one.
func AsPipelineError(err error) (*PipelineError, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
