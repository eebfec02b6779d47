package signature

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/comptaflow/comptaflow/internal/domain/statement"
)

// ValidationResult is the typed compatibility verdict for one document.
// It is created per request and consumed immediately by the caller.
type ValidationResult struct {
	Compatible     bool
	Bank           string
	Layout         Layout
	ErrorKind      statement.ErrorKind
	Message        string
	SupportedBanks map[string]string
}

// Detector matches statement text against the signature registry using a
// single Aho-Corasick pass over all keywords. It is read-only after
// construction and safe for concurrent use.
type Detector struct {
	registry Registry
	matcher  *ahocorasick.Matcher
	// sigIndex maps a keyword's position in the matcher dictionary back to
	// its signature's position in the registry.
	sigIndex []int
}

// NewDetector builds the keyword matcher for the given registry.
func NewDetector(registry Registry) *Detector {
	var dictionary []string
	var sigIndex []int
	for i, sig := range registry {
		for _, kw := range sig.Keywords {
			dictionary = append(dictionary, strings.ToUpper(kw))
			sigIndex = append(sigIndex, i)
		}
	}
	return &Detector{
		registry: registry,
		matcher:  ahocorasick.NewStringMatcher(dictionary),
		sigIndex: sigIndex,
	}
}

// Detect returns the first signature (in registry order) with at least one
// keyword present in the text. Tie-break is registry order, not match count.
func (d *Detector) Detect(text string) (BankSignature, bool) {
	hits := d.matcher.Match([]byte(strings.ToUpper(text)))
	if len(hits) == 0 {
		return BankSignature{}, false
	}

	best := -1
	for _, hit := range hits {
		idx := d.sigIndex[hit]
		if best == -1 || idx < best {
			best = idx
		}
	}
	return d.registry[best], true
}

// Validate produces the compatibility verdict for extracted text. The
// scanned flag comes from the scan classifier and short-circuits any
// signature search: image-only documents are reported as such even when a
// keyword survived partial extraction.
func (d *Detector) Validate(text string, scanned bool) ValidationResult {
	supported := d.registry.SupportedBanks()

	if scanned {
		return ValidationResult{
			ErrorKind:      statement.ErrScanned,
			Message:        "Le document est un scan (image). Seuls les relevés PDF natifs sont pris en charge.",
			SupportedBanks: supported,
		}
	}

	sig, ok := d.Detect(text)
	if !ok {
		msg := "Banque non reconnue. Banques prises en charge : " + d.bankList()
		if hint := d.nearestBank(text); hint != "" {
			msg += fmt.Sprintf(" (détecté : %s ?)", hint)
		}
		return ValidationResult{
			ErrorKind:      statement.ErrBankNotSupported,
			Message:        msg,
			SupportedBanks: supported,
		}
	}

	return ValidationResult{
		Compatible:     true,
		Bank:           sig.Code,
		Layout:         sig.Layout,
		Message:        "Relevé " + sig.Description + " reconnu.",
		SupportedBanks: supported,
	}
}

func (d *Detector) bankList() string {
	names := make([]string, 0, len(d.registry))
	for _, sig := range d.registry {
		names = append(names, sig.Description)
	}
	return strings.Join(names, ", ")
}

var tokenPattern = regexp.MustCompile(`[A-Za-zÀ-ÿ]{3,}`)

// maxSuggestDistance is the Levenshtein budget for the "did you mean" hint
// on unsupported documents; it absorbs one or two OCR-style character slips.
const maxSuggestDistance = 2

// nearestBank scans text tokens for a near-miss of a registered keyword and
// returns the matching bank description, or "" when nothing is close.
func (d *Detector) nearestBank(text string) string {
	tokens := tokenPattern.FindAllString(strings.ToUpper(text), -1)
	if len(tokens) == 0 {
		return ""
	}

	for _, sig := range d.registry {
		for _, kw := range sig.Keywords {
			kwUpper := strings.ToUpper(kw)
			// Short codes like "LCL" sit within the edit budget of too
			// many ordinary words to suggest safely.
			if len(kwUpper) < 6 {
				continue
			}
			width := len(strings.Fields(kwUpper))
			for i := 0; i+width <= len(tokens); i++ {
				window := strings.Join(tokens[i:i+width], " ")
				if fuzzy.LevenshteinDistance(window, kwUpper) <= maxSuggestDistance {
					return sig.Description
				}
			}
		}
	}
	return ""
}
