// internal/careers/candidate.go
// Package careers models the careers site: its pages, the job cards listed on
// the open positions page and the selection of one card to open.
package careers

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Candidate is one job card that satisfied a Predicate. Strings are stored
// normalized; ActionReference is the href of the card's "View Role" link and
// identifies the card across re-renders.
type Candidate struct {
	Title           string `json:"title"`
	Department      string `json:"department"`
	Location        string `json:"location"`
	ActionReference string `json:"action_reference"`
	SourceIndex     int    `json:"source_index"`
}

// MarshalLogObject lets candidates be logged with zap.Object.
func (c Candidate) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("index", c.SourceIndex)
	enc.AddString("title", c.Title)
	enc.AddString("department", c.Department)
	enc.AddString("location", c.Location)
	enc.AddString("href", c.ActionReference)
	return nil
}

// NormalizeWhitespace collapses runs of whitespace into one space and trims
// both ends. It is idempotent.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Match holds the per-field verdicts of a Predicate.
type Match struct {
	Title      bool
	Department bool
	Location   bool
}

// OK reports whether every field matched.
func (m Match) OK() bool { return m.Title && m.Department && m.Location }

// Predicate judges a candidate field by field so that rejections can be
// explained in logs.
type Predicate func(Candidate) Match

// Criteria is a case-insensitive substring predicate. Location must contain
// LocationContains and, when LocationAnyOf is non-empty, at least one of its
// entries.
type Criteria struct {
	TitleContains      string
	DepartmentContains string
	LocationContains   string
	LocationAnyOf      []string
}

// QAIstanbul selects Quality Assurance roles located in Istanbul, accepting
// both spellings of the country.
var QAIstanbul = Criteria{
	TitleContains:      "quality assurance",
	DepartmentContains: "quality assurance",
	LocationContains:   "istanbul",
	LocationAnyOf:      []string{"turkey", "turkiye"},
}

// Match evaluates c against the criteria.
func (cr Criteria) Match(c Candidate) Match {
	loc := fold(c.Location)
	locOK := strings.Contains(loc, fold(cr.LocationContains))
	if locOK && len(cr.LocationAnyOf) > 0 {
		locOK = false
		for _, alt := range cr.LocationAnyOf {
			if strings.Contains(loc, fold(alt)) {
				locOK = true
				break
			}
		}
	}
	return Match{
		Title:      strings.Contains(fold(c.Title), fold(cr.TitleContains)),
		Department: strings.Contains(fold(c.Department), fold(cr.DepartmentContains)),
		Location:   locOK,
	}
}

// MatchesQAIstanbul is the Predicate form of QAIstanbul.
func MatchesQAIstanbul(c Candidate) Match { return QAIstanbul.Match(c) }

func fold(s string) string { return strings.ToLower(NormalizeWhitespace(s)) }
