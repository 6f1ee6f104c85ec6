package patterns

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/clause-adjudicator/internal/fault"
)

func defaultScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(DefaultTable())
	if err != nil {
		t.Fatalf("NewScorer(DefaultTable()): %v", err)
	}
	return s
}

func TestScoreNoMatches(t *testing.T) {
	res := defaultScorer(t).Score("The parties shall meet on Tuesdays.")
	if res.Score != 0 || len(res.Matches) != 0 {
		t.Fatalf("got %+v, want zero result", res)
	}
	if res.Matches == nil {
		t.Fatal("matches should be an empty slice, not nil")
	}
}

func TestScoreHighRiskClause(t *testing.T) {
	res := defaultScorer(t).Score("The Supplier may terminate at its sole discretion, regardless of fault.")
	want := []EvidenceMatch{
		{Pattern: "regardless of", Weight: 2, Polarity: High},
		{Pattern: "sole discretion", Weight: 3, Polarity: High},
		{Pattern: "regardless of fault", Weight: 3, Polarity: High},
	}
	if diff := cmp.Diff(want, res.Matches); diff != "" {
		t.Fatalf("matches (-want +got):\n%s", diff)
	}
	if res.Score != 8 {
		t.Fatalf("score = %d, want 8", res.Score)
	}
}

func TestScoreLowRiskClause(t *testing.T) {
	res := defaultScorer(t).Score("Liability is mutual and capped at the fees paid.")
	if res.Score != -3 {
		t.Fatalf("score = %d, want -3 (matches %+v)", res.Score, res.Matches)
	}
	if res.Count(High) != 0 || res.Count(Low) != 2 {
		t.Fatalf("counts high=%d low=%d", res.Count(High), res.Count(Low))
	}
}

func TestScoreCountsRepeatsOnce(t *testing.T) {
	res := defaultScorer(t).Score("unlimited unlimited UNLIMITED")
	if res.Score != 3 || len(res.Matches) != 1 {
		t.Fatalf("got %+v, want a single +3 match", res)
	}
}

func TestScoreFrenchCaseAndComposition(t *testing.T) {
	// decomposed E + combining acute
	res := defaultScorer(t).Score("LE PRESTATAIRE PEUT RE\u0301SILIER SANS PRE\u0301AVIS.")
	if res.Count(High) != 1 || res.Matches[0].Pattern != "sans préavis" {
		t.Fatalf("got %+v, want sans préavis", res.Matches)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	s := defaultScorer(t)
	text := "Irrevocable, worldwide, non-exclusive licence; each party may terminate at any time."
	first := s.Score(text)
	for i := 0; i < 30; i++ {
		if diff := cmp.Diff(first, s.Score(text)); diff != "" {
			t.Fatalf("run %d differs:\n%s", i, diff)
		}
	}
}

func TestNewScorerRejectsMalformed(t *testing.T) {
	cases := map[string]Table{
		"empty text":   {High: []Pattern{{Text: "  ", Weight: 1}}},
		"high non-pos": {High: []Pattern{{Text: "x", Weight: 0}}},
		"low non-neg":  {Low: []Pattern{{Text: "x", Weight: 1}}},
		"dup within":   {High: []Pattern{{Text: "x", Weight: 1}, {Text: "X", Weight: 2}}},
		"dup across":   {High: []Pattern{{Text: "fair", Weight: 1}}, Low: []Pattern{{Text: "Fair", Weight: -1}}},
	}
	for name, tbl := range cases {
		_, err := NewScorer(tbl)
		if !errors.Is(err, fault.ErrConfiguration) || !errors.Is(err, ErrMalformedTable) {
			t.Errorf("%s: err = %v, want malformed table", name, err)
		}
	}
}

func TestForLanguages(t *testing.T) {
	s, err := NewScorer(DefaultTable().ForLanguages("fr"))
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	if res := s.Score("sole discretion"); res.Score != 0 {
		t.Fatalf("english pattern matched in french-only table: %+v", res)
	}
	if res := s.Score("à sa seule discrétion"); res.Score != 3 {
		t.Fatalf("french pattern score = %d, want 3", res.Score)
	}
}
