package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/comptaflow/comptaflow/internal/domain/statement"
	"github.com/comptaflow/comptaflow/internal/domain/statement/signature"
	"github.com/comptaflow/comptaflow/pkg/money"
)

// AnchorDateParser handles card-payment sections anchored by "LE DD/MM"
// (LCL convention). The section header declares the statement month and
// year; the amount sits at the end of the anchor line or alone on the next
// line. Statements spanning a year boundary get the year rolled back for
// transactions whose month exceeds the declared one.
type AnchorDateParser struct {
	fallbackYear int
}

func NewAnchorDateParser(fallbackYear int) *AnchorDateParser {
	return &AnchorDateParser{fallbackYear: fallbackYear}
}

func (p *AnchorDateParser) Layout() signature.Layout { return signature.LayoutAnchorDate }

// frenchMonths maps French month names (with and without diacritics) to
// their number.
var frenchMonths = map[string]int{
	"JANVIER": 1, "FEVRIER": 2, "FÉVRIER": 2, "MARS": 3, "AVRIL": 4,
	"MAI": 5, "JUIN": 6, "JUILLET": 7, "AOUT": 8, "AOÛT": 8,
	"SEPTEMBRE": 9, "OCTOBRE": 10, "NOVEMBRE": 11,
	"DECEMBRE": 12, "DÉCEMBRE": 12,
}

var (
	sectionHeaderPattern = regexp.MustCompile(`PAIEMENTS PAR CARTE D[E']?\s*([A-ZÉÈÊÀÙÔÛ]+)\s+(\d{4})`)
	anchorPattern        = regexp.MustCompile(`LE\s+(\d{1,2})/(\d{1,2})`)
	trailingAmount       = regexp.MustCompile(`(\d+[,.]\d{2})\s*$`)
	leadingAmount        = regexp.MustCompile(`^(\d+[,.]\d{2})`)

	anchorStopWords = []string{
		"SOUS TOTAL", "LIBELLE", "VALEUR", "DEBIT", "CREDIT",
		"CARTE N°", "Page", "Crédit Lyonnais", "SIREN", "RCS", "ORIAS",
		"Indicatif", "Compte",
	}
)

// headerLookahead is how many leading lines are searched for the section
// header before falling back to defaults.
const headerLookahead = 30

func (p *AnchorDateParser) Parse(lines []string) []statement.Transaction {
	month, year := p.statementPeriod(lines)

	section := sectionLines(lines)
	if section == nil {
		return nil
	}

	var txs []statement.Transaction
	for i := 0; i < len(section); i++ {
		line := section[i]
		if containsAny(line, anchorStopWords) {
			continue
		}

		anchor := anchorPattern.FindStringSubmatch(line)
		if anchor == nil {
			continue
		}
		day, _ := strconv.Atoi(anchor[1])
		txMonth, _ := strconv.Atoi(anchor[2])

		txYear := year
		// A statement declared for January can still carry late-December
		// card entries; those belong to the previous year.
		if month > 0 && txMonth > month {
			txYear = year - 1
		}
		date, ok := makeDate(day, txMonth, txYear)
		if !ok {
			continue
		}

		// Amount on the anchor line itself.
		if loc := trailingAmount.FindStringSubmatchIndex(line); loc != nil {
			label := strings.TrimSpace(line[:loc[0]])
			if len(label) < minLabelChars {
				continue
			}
			amount, err := money.ParseFrench(line[loc[2]:loc[3]])
			if err != nil {
				continue
			}
			txs = append(txs, statement.Transaction{
				Date:   date,
				Label:  label,
				Amount: amount.Abs().Neg(),
			})
			continue
		}

		// Amount alone at the start of the next line.
		if i+1 < len(section) {
			next := section[i+1]
			if m := leadingAmount.FindStringSubmatch(next); m != nil {
				label := strings.TrimSpace(line)
				if len(label) < minLabelChars {
					continue
				}
				amount, err := money.ParseFrench(m[1])
				if err != nil {
					continue
				}
				txs = append(txs, statement.Transaction{
					Date:   date,
					Label:  label,
					Amount: amount.Abs().Neg(),
				})
				i++ // the amount line is consumed
			}
		}
	}

	return txs
}

// statementPeriod reads the declared month and year from the section
// header. Month 0 disables year rollback; the fallback year covers
// statements whose header line was mangled by extraction.
func (p *AnchorDateParser) statementPeriod(lines []string) (month, year int) {
	year = p.fallbackYear
	limit := len(lines)
	if limit > headerLookahead {
		limit = headerLookahead
	}
	for _, line := range lines[:limit] {
		m := sectionHeaderPattern.FindStringSubmatch(strings.ToUpper(line))
		if m == nil {
			continue
		}
		if y, err := strconv.Atoi(m[2]); err == nil {
			year = y
		}
		month = frenchMonths[m[1]]
		return month, year
	}
	return 0, year
}

// sectionLines returns the lines between the card-payments header and the
// closing TOTAUX line, or nil when no section exists.
func sectionLines(lines []string) []string {
	start := -1
	end := len(lines)
	for i, line := range lines {
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "PAIEMENTS PAR CARTE") {
			start = i + 1
			continue
		}
		if start >= 0 && strings.Contains(upper, "TOTAUX") {
			end = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	return lines[start:end]
}
