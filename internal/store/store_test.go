package store

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/clause-adjudicator/internal/adjudicator"
	"github.com/danielpatrickdp/clause-adjudicator/internal/authority"
	"github.com/danielpatrickdp/clause-adjudicator/internal/config"
	"github.com/danielpatrickdp/clause-adjudicator/internal/facts"
	"github.com/danielpatrickdp/clause-adjudicator/internal/gate"
	"github.com/danielpatrickdp/clause-adjudicator/internal/logging"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func judged(t *testing.T) (*adjudicator.Adjudicator, adjudicator.Request, adjudicator.Result) {
	t.Helper()
	a, err := adjudicator.New(config.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	statute, _ := a.Authority().Source(authority.CivilLaw, "STATUTORY_PUBLIC_ORDER")
	contract, _ := a.Authority().Source(authority.CivilLaw, "CONTRACTUAL")

	st := facts.NewStore()
	_ = st.Set("is_ambiguous", facts.Bool(true))
	_ = st.Assert(facts.Fact{Name: "authority_is_mandatory", Value: facts.Bool(false), Source: &contract})
	_ = st.Assert(facts.Fact{Name: "authority_is_mandatory", Value: facts.Bool(true), Source: &statute})
	req := adjudicator.Request{
		ID:         "case-7",
		Facts:      st.Freeze(),
		ClauseText: "The Supplier may terminate at its sole discretion.",
		NeuralBand: gate.BandHigh,
	}
	res, err := a.Run(req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return a, req, res
}

func TestSaveAndGetAdjudication(t *testing.T) {
	s := tempDB(t)
	_, req, res := judged(t)

	rec, err := s.SaveAdjudication("judge", req, res)
	if err != nil {
		t.Fatalf("SaveAdjudication: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := s.GetAdjudication(rec.ID)
	if err != nil {
		t.Fatalf("GetAdjudication: %v", err)
	}
	if got.Verdict.Digest() != res.Verdict.Digest() {
		t.Fatalf("digest = %s, want %s", got.Verdict.Digest(), res.Verdict.Digest())
	}
	if err := got.Verdict.Verify(); err != nil {
		t.Fatalf("stored verdict does not verify: %v", err)
	}
	if diff := cmp.Diff(rec.Request, got.Request, cmp.Comparer(func(a, b facts.Value) bool { return a.Equal(b) })); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
	if got.Trigger != "judge" {
		t.Errorf("trigger = %q", got.Trigger)
	}
}

func TestGetAdjudication_NotFound(t *testing.T) {
	s := tempDB(t)
	if _, err := s.GetAdjudication("missing"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetAdjudication_CorruptTimestamp(t *testing.T) {
	s := tempDB(t)
	_, req, res := judged(t)
	rec, err := s.SaveAdjudication("judge", req, res)
	if err != nil {
		t.Fatalf("SaveAdjudication: %v", err)
	}
	if _, err := s.DB().Exec(`UPDATE adjudications SET created_at = 'soon' WHERE id = ?`, rec.ID); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := s.GetAdjudication(rec.ID); err == nil {
		t.Fatal("expected created_at parse error")
	}
	if _, err := s.ListAdjudications(10); err == nil {
		t.Fatal("expected created_at parse error from list")
	}
}

func TestFactProvenance_MarksOverruled(t *testing.T) {
	s := tempDB(t)
	_, req, res := judged(t)
	rec, err := s.SaveAdjudication("judge", req, res)
	if err != nil {
		t.Fatalf("SaveAdjudication: %v", err)
	}
	rows, err := s.FactProvenance(rec.ID)
	if err != nil {
		t.Fatalf("FactProvenance: %v", err)
	}
	want := []FactProvenance{
		{Seq: 0, Name: "is_ambiguous", Value: "true"},
		{Seq: 1, Name: "authority_is_mandatory", Value: "false", Source: "CIVIL_LAW/CONTRACTUAL (30, DEFAULT)", Overruled: true},
		{Seq: 2, Name: "authority_is_mandatory", Value: "true", Source: "CIVIL_LAW/STATUTORY_PUBLIC_ORDER (90, MANDATORY)"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("fact provenance (-want +got):\n%s", diff)
	}
}

func TestFactProvenance_ComparesTypedValues(t *testing.T) {
	s := tempDB(t)
	a, err := adjudicator.New(config.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	statute, _ := a.Authority().Source(authority.CivilLaw, "STATUTORY_PUBLIC_ORDER")
	contract, _ := a.Authority().Source(authority.CivilLaw, "CONTRACTUAL")

	st := facts.NewStore()
	_ = st.Set("authority_is_mandatory", facts.Bool(false))
	_ = st.Assert(facts.Fact{Name: "authority_is_mandatory", Value: facts.Enum("true"), Source: &contract})
	_ = st.Assert(facts.Fact{Name: "authority_is_mandatory", Value: facts.Bool(true), Source: &statute})
	req := adjudicator.Request{ID: "typed", Facts: st.Freeze(), ClauseText: "x", NeuralBand: gate.BandMedium}
	res, err := a.Run(req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec, err := s.SaveAdjudication("judge", req, res)
	if err != nil {
		t.Fatalf("SaveAdjudication: %v", err)
	}
	rows, err := s.FactProvenance(rec.ID)
	if err != nil {
		t.Fatalf("FactProvenance: %v", err)
	}
	got := make([]bool, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.Overruled)
	}
	// unsourced false and enum "true" both lost to the statutory bool
	if diff := cmp.Diff([]bool{true, true, false}, got); diff != "" {
		t.Fatalf("overruled marks (-want +got):\n%s", diff)
	}
}

func TestSaveAdjudication_WritesProvenanceLog(t *testing.T) {
	s := tempDB(t)
	_, req, res := judged(t)
	rec, err := s.SaveAdjudication("serve", req, res)
	if err != nil {
		t.Fatalf("SaveAdjudication: %v", err)
	}
	entries, err := logging.RecentDecisions(s.DB(), 10)
	if err != nil {
		t.Fatalf("RecentDecisions: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 provenance row, got %d", len(entries))
	}
	e := entries[0]
	if e.AdjudicationID != rec.ID || e.Digest != res.Verdict.Digest() || e.TriggerType != "serve" {
		t.Fatalf("entry = %+v", e)
	}
	var dr logging.DecisionRecord
	if err := json.Unmarshal([]byte(e.DecisionJSON), &dr); err != nil {
		t.Fatalf("decision json: %v", err)
	}
	if dr.Thresholds.High != 3 || dr.Thresholds.Low != -2 || dr.Thresholds.BaseScore != 50 {
		t.Errorf("thresholds = %+v", dr.Thresholds)
	}
	if diff := cmp.Diff([]string{"contra_proferentem", "mandatory_law_override"}, dr.FiredRules); diff != "" {
		t.Errorf("fired rules (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"authority_is_mandatory"}, dr.Resolved); diff != "" {
		t.Errorf("resolved (-want +got):\n%s", diff)
	}
}

func TestLogFailure(t *testing.T) {
	s := tempDB(t)
	if err := s.LogFailure("batch", adjudicator.Request{ID: "r9"}, errString("unresolved conflict")); err != nil {
		t.Fatalf("LogFailure: %v", err)
	}
	entries, _ := logging.RecentDecisions(s.DB(), 1)
	if len(entries) != 1 || entries[0].Reason != "r9: unresolved conflict" || entries[0].AdjudicationID != "" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestListAdjudications_NewestFirst(t *testing.T) {
	s := tempDB(t)
	_, req, res := judged(t)
	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := s.SaveAdjudication("batch", req, res)
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		ids = append(ids, rec.ID)
	}
	got, err := s.ListAdjudications(2)
	if err != nil {
		t.Fatalf("ListAdjudications: %v", err)
	}
	if len(got) != 2 || got[0].ID != ids[2] || got[1].ID != ids[1] {
		t.Fatalf("order = %v, saved %v", []string{got[0].ID, got[1].ID}, ids)
	}
}

func TestRequestRecord_RoundTrip(t *testing.T) {
	a, req, res := judged(t)
	back, err := NewRequestRecord(req).ToRequest(a.Authority())
	if err != nil {
		t.Fatalf("ToRequest: %v", err)
	}
	again, err := a.Run(back)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if again.Verdict.Digest() != res.Verdict.Digest() {
		t.Fatalf("rebuilt request judged differently")
	}
}

func TestRequestRecord_UnknownSource(t *testing.T) {
	rr := RequestRecord{NeuralBand: gate.BandLow, Facts: []FactRecord{
		{Name: "x", Value: facts.Bool(true), System: authority.CivilLaw, Kind: "FOREIGN_CASE_LAW"},
	}}
	if _, err := rr.ToRequest(authority.DefaultTable()); err == nil {
		t.Fatal("expected error")
	}
}

type errString string

func (e errString) Error() string { return string(e) }
