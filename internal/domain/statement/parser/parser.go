// Package parser converts raw statement lines into transaction candidates.
// Each supported institution layout has one structural parser; parsing is
// precision-first, so ambiguous lines are dropped, never guessed.
package parser

import (
	"strings"
	"time"

	"github.com/comptaflow/comptaflow/internal/domain/statement"
	"github.com/comptaflow/comptaflow/internal/domain/statement/signature"
)

// minLabelChars is the minimum label length a candidate must keep after
// trimming; shorter labels are almost always regex noise.
const minLabelChars = 3

// LayoutParser is one structural parser. Parse receives the non-empty
// trimmed lines of a statement and returns candidates; returning zero
// candidates is a normal outcome, not an error.
type LayoutParser interface {
	Layout() signature.Layout
	Parse(lines []string) []statement.Transaction
}

// Set holds the parser for every supported layout.
type Set struct {
	parsers map[signature.Layout]LayoutParser
}

// NewSet builds the default parser set. statementYear is the year assumed by
// layouts whose date tokens carry no year (typically the processing year).
func NewSet(statementYear int) *Set {
	s := &Set{parsers: make(map[signature.Layout]LayoutParser)}
	s.register(NewDotDateParser(statementYear))
	s.register(NewCompactDateParser())
	s.register(NewAnchorDateParser(statementYear))
	return s
}

func (s *Set) register(p LayoutParser) {
	s.parsers[p.Layout()] = p
}

// For returns the parser for the given layout.
func (s *Set) For(layout signature.Layout) (LayoutParser, bool) {
	p, ok := s.parsers[layout]
	return p, ok
}

// SplitLines turns extracted text into the trimmed, non-empty lines the
// layout parsers consume.
func SplitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// containsAny reports whether line contains one of the stop keywords.
func containsAny(line string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

// makeDate builds a calendar-checked date. It rejects components that
// time.Date would silently normalize (e.g. 31/13).
func makeDate(day, month, year int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != time.Month(month) || d.Year() != year {
		return time.Time{}, false
	}
	return d, true
}
