package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/comptaflow/comptaflow/internal/domain/statement"
	"github.com/comptaflow/comptaflow/internal/domain/statement/signature"
	"github.com/comptaflow/comptaflow/pkg/money"
)

// CompactDateParser handles lines starting with a concatenated "DDMMYY"
// date followed by label and amount (Banque Populaire convention).
type CompactDateParser struct{}

func NewCompactDateParser() *CompactDateParser {
	return &CompactDateParser{}
}

func (p *CompactDateParser) Layout() signature.Layout { return signature.LayoutCompactDate }

var (
	compactDatePattern   = regexp.MustCompile(`^(\d{1,2})(\d{2})(\d{2})`)
	compactAmountPattern = regexp.MustCompile(`(\d+),(\d{2})`)

	compactDateStopWords = []string{"DATE", "NOM", "MONTANT", "Page", "TOTAL"}
)

func (p *CompactDateParser) Parse(lines []string) []statement.Transaction {
	var txs []statement.Transaction

	for _, line := range lines {
		if containsAny(line, compactDateStopWords) {
			continue
		}

		dateLoc := compactDatePattern.FindStringSubmatchIndex(line)
		if dateLoc == nil {
			continue
		}
		amountLoc := compactAmountPattern.FindStringIndex(line)
		if amountLoc == nil || amountLoc[0] <= dateLoc[1] {
			continue
		}

		day, _ := strconv.Atoi(line[dateLoc[2]:dateLoc[3]])
		month, _ := strconv.Atoi(line[dateLoc[4]:dateLoc[5]])
		year, _ := strconv.Atoi(line[dateLoc[6]:dateLoc[7]])
		date, ok := makeDate(day, month, 2000+year)
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

		txs = append(txs, statement.Transaction{
			Date:   date,
			Label:  label,
			Amount: amount.Abs().Neg(),
		})
	}

	return txs
}
