package pdftext

import (
	"regexp"
	"strings"
)

const (
	// leadingPages is how many pages the classifier samples.
	leadingPages = 3
	// minLeadingChars below this, the document is treated as image-only.
	minLeadingChars = 200
	// minWords is the minimum count of alphabetic tokens (3+ letters) a
	// native document is expected to carry in its leading pages.
	minWords = 50
	// minBankWords is how many distinct banking keywords mark a document
	// as native even when it is otherwise sparse.
	minBankWords = 2
)

// wordPattern matches alphabetic tokens of 3+ letters, accented letters
// included, as they appear in French statements.
var wordPattern = regexp.MustCompile(`[a-zA-ZÀ-ÿ]{3,}`)

// bankVocabulary is the fixed domain keyword set used to recognize native
// statement text regardless of layout.
var bankVocabulary = []string{
	"BANQUE", "CREDIT", "COMPTE", "RELEVE", "TRANSACTION",
	"DEBIT", "CARTE", "PAIEMENT", "MONTANT", "DATE", "LCL",
}

// IsScanned classifies a document as scanned (image-only) or native using
// text density and banking-vocabulary heuristics over the first pages.
// On any internal extraction error it returns false: attempting native
// parsing is cheap, optical recognition is not.
func IsScanned(data []byte) bool {
	text, err := extractLeading(data, leadingPages)
	if err != nil {
		return false
	}
	return classifyText(text)
}

// classifyText applies the scanned-document heuristics to already-extracted
// leading-page text.
func classifyText(text string) bool {
	if len(strings.TrimSpace(text)) < minLeadingChars {
		return true
	}

	if len(wordPattern.FindAllString(text, -1)) < minWords {
		return true
	}

	upper := strings.ToUpper(text)
	found := 0
	for _, word := range bankVocabulary {
		if strings.Contains(upper, word) {
			found++
		}
	}
	return found < minBankWords
}
