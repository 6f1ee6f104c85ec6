// Package patterns scores raw clause text against weighted HIGH and LOW
// risk substrings. Scoring is pure: same text and tables, same result.
package patterns

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/danielpatrickdp/clause-adjudicator/internal/fault"
)

// ErrMalformedTable marks a rejected pattern table.
var ErrMalformedTable = errors.New("malformed pattern table")

// #region types
// Polarity says which table a pattern came from.
type Polarity string

const (
	High Polarity = "HIGH"
	Low  Polarity = "LOW"
)

// Pattern is one weighted substring. Weight is positive for HIGH patterns
// and negative for LOW patterns.
type Pattern struct {
	Text   string
	Weight int
	Lang   string // "en", "fr", ...; informational unless filtered on
}

// Table is the pair of HIGH and LOW pattern lists, in declaration order.
type Table struct {
	High []Pattern
	Low  []Pattern
}

// ForLanguages returns a copy keeping only patterns whose Lang is listed.
// An empty list keeps everything.
func (t Table) ForLanguages(langs ...string) Table {
	if len(langs) == 0 {
		return t
	}
	keep := make(map[string]bool, len(langs))
	for _, l := range langs {
		keep[strings.ToLower(l)] = true
	}
	filter := func(in []Pattern) []Pattern {
		var out []Pattern
		for _, p := range in {
			if keep[strings.ToLower(p.Lang)] {
				out = append(out, p)
			}
		}
		return out
	}
	return Table{High: filter(t.High), Low: filter(t.Low)}
}

// EvidenceMatch is a pattern found in the clause.
type EvidenceMatch struct {
	Pattern  string   `json:"pattern"`
	Weight   int      `json:"weight"`
	Polarity Polarity `json:"polarity"`
}

// Result is the scorer output: signed sum of matched weights plus the
// matches, HIGH first then LOW, each in table order.
type Result struct {
	Score   int             `json:"score"`
	Matches []EvidenceMatch `json:"matches"`
}

// Count returns the number of matches with the given polarity.
func (r Result) Count(p Polarity) int {
	n := 0
	for _, m := range r.Matches {
		if m.Polarity == p {
			n++
		}
	}
	return n
}

// #endregion types

// #region scorer
type compiled struct {
	Pattern
	folded   string
	polarity Polarity
}

// Scorer matches clause text against a validated Table. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	patterns []compiled
}

// NewScorer validates the table: non-empty texts, HIGH weights > 0,
// LOW weights < 0, and no pattern repeated (case-insensitively) within or
// across the two lists.
func NewScorer(t Table) (*Scorer, error) {
	s := &Scorer{}
	seen := make(map[string]Polarity)
	add := func(p Pattern, pol Polarity) error {
		folded := fold(p.Text)
		if strings.TrimSpace(folded) == "" {
			return fault.Configf("patterns", ErrMalformedTable, "%s pattern with empty text", pol)
		}
		if pol == High && p.Weight <= 0 {
			return fault.Configf("patterns", ErrMalformedTable, "HIGH pattern %q has non-positive weight %d", p.Text, p.Weight)
		}
		if pol == Low && p.Weight >= 0 {
			return fault.Configf("patterns", ErrMalformedTable, "LOW pattern %q has non-negative weight %d", p.Text, p.Weight)
		}
		if prev, dup := seen[folded]; dup {
			return fault.Configf("patterns", ErrMalformedTable, "pattern %q declared in %s and %s", p.Text, prev, pol)
		}
		seen[folded] = pol
		s.patterns = append(s.patterns, compiled{Pattern: p, folded: folded, polarity: pol})
		return nil
	}
	for _, p := range t.High {
		if err := add(p, High); err != nil {
			return nil, err
		}
	}
	for _, p := range t.Low {
		if err := add(p, Low); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Score returns the signed sum of weights of every pattern contained in
// text. A pattern counts once however often it occurs; overlapping
// patterns ("regardless of", "regardless of fault") each count.
func (s *Scorer) Score(text string) Result {
	folded := fold(text)
	res := Result{Matches: []EvidenceMatch{}}
	for _, p := range s.patterns {
		if !strings.Contains(folded, p.folded) {
			continue
		}
		res.Score += p.Weight
		res.Matches = append(res.Matches, EvidenceMatch{Pattern: p.Text, Weight: p.Weight, Polarity: p.polarity})
	}
	return res
}

// Len returns the number of compiled patterns.
func (s *Scorer) Len() int {
	return len(s.patterns)
}

func (s *Scorer) String() string {
	return fmt.Sprintf("patterns.Scorer(%d patterns)", len(s.patterns))
}

// fold normalises to NFC and applies Unicode case folding so that
// "ÎLES CAÏMANS" matches "îles caïmans" regardless of composition.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// #endregion scorer
