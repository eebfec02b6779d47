// Package llm extracts transactions from statement text through a
// language-model completion backend with a strict JSON contract. It is the
// pipeline's fallback tier: every failure mode here degrades to "zero
// records", never to a fatal error.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/tmc/langchaingo/llms"

	"github.com/comptaflow/comptaflow/internal/domain/statement"
)

// defaultMaxPromptChars bounds the statement text sent to the model so the
// request stays inside token limits.
const defaultMaxPromptChars = 8000

// maxReplyTokens caps the completion length.
const maxReplyTokens = 4000

// Result is the outcome of one extraction call. Rejected counts records the
// model produced that failed schema, date, or amount validation.
type Result struct {
	Transactions []statement.Transaction
	Rejected     int
}

// Extractor drives the language-model tier.
type Extractor struct {
	model          llms.Model
	logger         *slog.Logger
	maxPromptChars int
}

// NewExtractor wraps a langchaingo model. maxPromptChars <= 0 selects the
// default character budget.
func NewExtractor(model llms.Model, logger *slog.Logger, maxPromptChars int) *Extractor {
	if maxPromptChars <= 0 {
		maxPromptChars = defaultMaxPromptChars
	}
	return &Extractor{model: model, logger: logger, maxPromptChars: maxPromptChars}
}

// Extract submits the statement text (truncated to the configured budget)
// and validates the model's reply record by record. One bad record does not
// void the batch. Transport failures and unparseable replies surface as an
// error; the orchestrator treats both the error and an empty Result as an
// empty tier.
func (e *Extractor) Extract(ctx context.Context, text, bankHint string) (Result, error) {
	if len(text) > e.maxPromptChars {
		cut := truncateRunes(text, e.maxPromptChars)
		e.logger.Debug("truncating statement text for model prompt",
			slog.Int("from", len(text)), slog.Int("to", len(cut)))
		text = cut
	}

	reply, err := llms.GenerateFromSinglePrompt(ctx, e.model, buildPrompt(text, bankHint),
		llms.WithTemperature(0.1),
		llms.WithMaxTokens(maxReplyTokens),
	)
	if err != nil {
		return Result{}, fmt.Errorf("llm completion: %w", err)
	}

	return e.parseReply(reply)
}

// buildPrompt mirrors the extraction contract the backing model is tuned
// for: a strict JSON array of {date, libelle, montant} with French banking
// conventions spelled out.
func buildPrompt(text, bankHint string) string {
	bankContext := ""
	if bankHint != "" {
		bankContext = fmt.Sprintf(" (banque détectée : %s)", bankHint)
	}

	return fmt.Sprintf(`Tu es un expert en extraction de données bancaires françaises.
Analyse ce relevé bancaire%s et extrait TOUTES les transactions visibles au format JSON strict.

Relevé bancaire :
%s

Format JSON attendu (IMPORTANT - respecter exactement ce format) :
[
  {"date": "30/10/2025", "libelle": "CERTAS ESSOF024", "montant": -16.62},
  {"date": "01/11/2025", "libelle": "VIREMENT SALAIRE", "montant": 2500.00}
]

Règles strictes :
1. Date : format JJ/MM/AAAA (ex: 30/10/2025)
2. Montant : NÉGATIF pour débits/achats, POSITIF pour crédits/virements reçus, point décimal (16.62, pas 16,62)
3. Libellé : nom du commerce/opération, sans la date
4. Extraire TOUTES les transactions (débits ET crédits)
5. Si une ligne contient "CREDIT" ou "VIREMENT RECU", le montant est POSITIF
6. Retourner UNIQUEMENT le tableau JSON, sans markdown, sans explications

JSON :`, bankContext, text)
}

// arrayPattern extracts the first bracket-delimited array from a reply that
// may carry prose or markdown around it.
var arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// rawRecord is one record as the model emits it. Pointers distinguish
// missing fields from empty ones; montant stays raw so both -16.62 and
// "-16.62" coerce.
type rawRecord struct {
	Date    *string         `json:"date"`
	Libelle *string         `json:"libelle"`
	Montant json.RawMessage `json:"montant"`
}

func (e *Extractor) parseReply(reply string) (Result, error) {
	cleaned := strings.ReplaceAll(reply, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	raw := arrayPattern.FindString(cleaned)
	if raw == "" {
		return Result{}, fmt.Errorf("no JSON array in model reply")
	}

	var records []rawRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return Result{}, fmt.Errorf("decode model reply: %w", err)
	}

	var res Result
	for i, rec := range records {
		tx, ok := e.validateRecord(i, rec)
		if !ok {
			res.Rejected++
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}

	e.logger.Debug("model reply validated",
		slog.Int("accepted", len(res.Transactions)),
		slog.Int("rejected", res.Rejected))

	return res, nil
}

// validateRecord applies the per-record contract: all three fields present,
// date in one of the accepted literal formats and calendar-valid, amount
// numeric.
func (e *Extractor) validateRecord(idx int, rec rawRecord) (statement.Transaction, bool) {
	if rec.Date == nil || rec.Libelle == nil || rec.Montant == nil {
		e.logger.Debug("record rejected: missing field", slog.Int("index", idx))
		return statement.Transaction{}, false
	}

	date, ok := NormalizeDate(*rec.Date)
	if !ok {
		e.logger.Debug("record rejected: bad date",
			slog.Int("index", idx), slog.String("date", *rec.Date))
		return statement.Transaction{}, false
	}

	amount, err := coerceAmount(rec.Montant)
	if err != nil {
		e.logger.Debug("record rejected: bad amount",
			slog.Int("index", idx), slog.String("montant", string(rec.Montant)))
		return statement.Transaction{}, false
	}

	label := strings.TrimSpace(*rec.Libelle)
	if label == "" {
		e.logger.Debug("record rejected: empty label", slog.Int("index", idx))
		return statement.Transaction{}, false
	}

	return statement.Transaction{Date: date, Label: label, Amount: amount}, true
}

// coerceAmount accepts a JSON number or a numeric string.
func coerceAmount(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	return decimal.NewFromString(s)
}

// truncateRunes cuts s to at most max bytes without splitting a multibyte
// character; French statement text is full of accented letters.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
