// Package signature matches statement text against a registry of
// per-institution keyword signatures and produces the compatibility verdict
// consumed by the pipeline and its callers.
package signature

// Layout identifies the structural parsing convention a bank's statements
// follow. Each layout has one parser in the parser package.
type Layout string

const (
	// LayoutDotDate — lines of the form "DD.MM LABEL 12,34" with no year.
	LayoutDotDate Layout = "DOT_DATE"
	// LayoutCompactDate — lines starting with a concatenated "DDMMYY" date.
	LayoutCompactDate Layout = "COMPACT_DATE"
	// LayoutAnchorDate — card-payment sections with "LE DD/MM" anchors and
	// a month/year section header.
	LayoutAnchorDate Layout = "ANCHOR_DATE"
)

// BankSignature names an institution and the keywords that identify its
// statements. Keywords are matched case-insensitively as substrings.
type BankSignature struct {
	Code        string
	Description string
	Keywords    []string
	Layout      Layout
}

// Registry is the immutable set of supported bank signatures. It is loaded
// once at process start and shared by reference across requests; detection
// order follows slice order.
type Registry []BankSignature

// DefaultRegistry returns the supported institutions. Order matters: the
// first signature with a keyword hit wins.
func DefaultRegistry() Registry {
	return Registry{
		{
			Code:        "CA",
			Description: "Crédit Agricole",
			Keywords:    []string{"CREDIT AGRICOLE", "CRÉDIT AGRICOLE"},
			Layout:      LayoutDotDate,
		},
		{
			Code:        "BP",
			Description: "Banque Populaire",
			Keywords:    []string{"BANQUE POPULAIRE"},
			Layout:      LayoutCompactDate,
		},
		{
			Code:        "LCL",
			Description: "LCL / Crédit Lyonnais",
			Keywords:    []string{"CREDIT LYONNAIS", "CRÉDIT LYONNAIS", "LCL"},
			Layout:      LayoutAnchorDate,
		},
	}
}

// SupportedBanks returns the code → description mapping surfaced to callers
// in validation results.
func (r Registry) SupportedBanks() map[string]string {
	banks := make(map[string]string, len(r))
	for _, sig := range r {
		banks[sig.Code] = sig.Description
	}
	return banks
}

// Find returns the signature with the given code.
func (r Registry) Find(code string) (BankSignature, bool) {
	for _, sig := range r {
		if sig.Code == code {
			return sig, true
		}
	}
	return BankSignature{}, false
}
