package replay

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/clause-adjudicator/internal/adjudicator"
	"github.com/danielpatrickdp/clause-adjudicator/internal/config"
	"github.com/danielpatrickdp/clause-adjudicator/internal/facts"
	"github.com/danielpatrickdp/clause-adjudicator/internal/gate"
	"github.com/danielpatrickdp/clause-adjudicator/internal/store"
	"github.com/danielpatrickdp/clause-adjudicator/internal/verdict"
)

// helper: default adjudicator.
func newAdjudicator(t *testing.T) *adjudicator.Adjudicator {
	t.Helper()
	a, err := adjudicator.New(config.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

// helper: request with plain facts.
func request(clause string, band gate.Band, kv map[string]bool) adjudicator.Request {
	st := facts.NewStore()
	for _, name := range []string{"is_ambiguous", "is_exclusion_clear", "plaintiff_plausible"} {
		if v, ok := kv[name]; ok {
			_ = st.Set(name, facts.Bool(v))
		}
	}
	return adjudicator.Request{Facts: st.Freeze(), ClauseText: clause, NeuralBand: band}
}

// helper: temp store.
func tempStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "replay.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRun_StableAndExpected(t *testing.T) {
	a := newAdjudicator(t)
	req := request("unlimited liability in perpetuity", gate.BandHigh, map[string]bool{"is_ambiguous": true})
	first, err := a.Adjudicate(req)
	if err != nil {
		t.Fatalf("Adjudicate: %v", err)
	}

	results, err := Run(context.Background(), a, []Case{{
		ID:       "c1",
		Request:  req,
		Expected: Expected{Category: gate.BandHigh, Outcome: verdict.PlaintiffFavor, Digest: first.Digest()},
	}}, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r := results[0]
	if !r.Passed || !r.Stable || r.Runs != DefaultRuns || r.Digest != first.Digest() {
		t.Fatalf("result = %+v", r)
	}
}

func TestRun_ExpectationMismatch(t *testing.T) {
	a := newAdjudicator(t)
	cases := []Case{
		{ID: "category", Request: request("mutual and capped at cost", gate.BandLow, nil), Expected: Expected{Category: gate.BandHigh}},
		{ID: "digest", Request: request("", gate.BandLow, nil), Expected: Expected{Digest: "0000"}},
		{ID: "error", Request: request("", gate.BandLow, nil), Expected: Expected{Error: "unresolved_conflict"}},
		{ID: "band", Request: request("", "SEVERE", nil), Expected: Expected{Category: gate.BandLow}},
	}
	results, err := Run(context.Background(), a, cases, 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, r := range results {
		if r.Passed || r.Reason == "" {
			t.Errorf("case %s: expected failure, got %+v", r.ID, r)
		}
		if !r.Stable {
			t.Errorf("case %s: deterministic failure reported as unstable", r.ID)
		}
	}
	s := Summarize(results)
	if s.Total != 4 || s.Failed != 4 || s.Unstable != 0 || s.Passed != 0 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestRun_Cancelled(t *testing.T) {
	a := newAdjudicator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, a, []Case{{ID: "x", Request: request("", gate.BandLow, nil)}}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestStored_ReproducesDigests(t *testing.T) {
	a := newAdjudicator(t)
	s := tempStore(t)
	for _, clause := range []string{"as is, without warranty", "each party may terminate on six months notice"} {
		req := request(clause, gate.BandMedium, map[string]bool{"is_exclusion_clear": false})
		res, err := a.Run(req)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if _, err := s.SaveAdjudication("judge", req, res); err != nil {
			t.Fatalf("SaveAdjudication: %v", err)
		}
	}

	results, err := Stored(context.Background(), a, s, 10, 5)
	if err != nil {
		t.Fatalf("Stored: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("stored %s failed: %s", r.ID, r.Reason)
		}
	}
}

func TestStored_DetectsTamperedVerdict(t *testing.T) {
	a := newAdjudicator(t)
	s := tempStore(t)
	req := request("no liability", gate.BandHigh, nil)
	res, err := a.Run(req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec, err := s.SaveAdjudication("judge", req, res)
	if err != nil {
		t.Fatalf("SaveAdjudication: %v", err)
	}

	var m map[string]any
	raw, _ := json.Marshal(res.Verdict)
	_ = json.Unmarshal(raw, &m)
	m["risk_score"] = 1
	tampered, _ := json.Marshal(m)
	if _, err := s.DB().Exec(`UPDATE adjudications SET verdict_json = ? WHERE id = ?`, string(tampered), rec.ID); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	results, err := Stored(context.Background(), a, s, 10, 1)
	if err != nil {
		t.Fatalf("Stored: %v", err)
	}
	if len(results) != 1 || results[0].Passed {
		t.Fatalf("tampered verdict passed: %+v", results)
	}
}

func TestFixtureFromRecords(t *testing.T) {
	a := newAdjudicator(t)
	s := tempStore(t)
	req := request("forfeit all fees", gate.BandLow, map[string]bool{"plaintiff_plausible": true})
	res, err := a.Run(req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := s.SaveAdjudication("judge", req, res); err != nil {
		t.Fatalf("SaveAdjudication: %v", err)
	}
	recs, err := s.ListAdjudications(5)
	if err != nil {
		t.Fatalf("ListAdjudications: %v", err)
	}

	f := FixtureFromRecords("exported", recs)
	cases, err := f.ToCases(a.Authority())
	if err != nil {
		t.Fatalf("ToCases: %v", err)
	}
	results, err := Run(context.Background(), a, cases, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !results[0].Passed {
		t.Fatalf("exported fixture does not replay: %s", results[0].Reason)
	}
}
