package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/comptaflow/comptaflow/internal/domain/statement"
	"github.com/comptaflow/comptaflow/internal/domain/statement/signature"
	"github.com/comptaflow/comptaflow/pkg/money"
)

// DotDateParser handles the "DD.MM LABEL 1 234,56" card-statement layout
// (Crédit Agricole convention). Date tokens carry no year, so the statement
// year is supplied at construction.
type DotDateParser struct {
	year int
}

func NewDotDateParser(year int) *DotDateParser {
	return &DotDateParser{year: year}
}

func (p *DotDateParser) Layout() signature.Layout { return signature.LayoutDotDate }

var (
	dotDatePattern   = regexp.MustCompile(`(\d{1,2})\.(\d{2})`)
	dotAmountPattern = regexp.MustCompile(`-?(\d{1,5}),(\d{2})`)

	dotDateStopWords = []string{"TOTAL", "Date", "Montant", "Commerce", "Page"}
)

func (p *DotDateParser) Parse(lines []string) []statement.Transaction {
	var txs []statement.Transaction

	for _, line := range lines {
		if containsAny(line, dotDateStopWords) {
			continue
		}

		dateLoc := dotDatePattern.FindStringSubmatchIndex(line)
		amountLoc := dotAmountPattern.FindStringIndex(line)
		if dateLoc == nil || amountLoc == nil || amountLoc[0] <= dateLoc[1] {
			continue
		}

		day, _ := strconv.Atoi(line[dateLoc[2]:dateLoc[3]])
		month, _ := strconv.Atoi(line[dateLoc[4]:dateLoc[5]])
		date, ok := makeDate(day, month, p.year)
		if !ok {
			continue
		}

		label := strings.TrimSpace(line[dateLoc[1]:amountLoc[0]])
		if len(label) < minLabelChars {
			continue
		}

		amount, err := money.ParseFrench(line[amountLoc[0]:amountLoc[1]])
		if err != nil {
			continue
		}

		// Card-statement entries are purchases: always debits.
		txs = append(txs, statement.Transaction{
			Date:   date,
			Label:  label,
			Amount: amount.Abs().Neg(),
		})
	}

	return txs
}
