package eval

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/danielpatrickdp/clause-adjudicator/internal/facts"
	"github.com/danielpatrickdp/clause-adjudicator/internal/gate"
	"github.com/danielpatrickdp/clause-adjudicator/internal/patterns"
	"github.com/danielpatrickdp/clause-adjudicator/internal/rules"
	"github.com/danielpatrickdp/clause-adjudicator/internal/verdict"
)

func makeVerdict(t *testing.T) verdict.Verdict {
	t.Helper()
	b, err := verdict.NewBuilder(verdict.DefaultPolicy())
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	v, err := b.Build(verdict.Inputs{
		Firings: []rules.Firing{{Rule: "mandatory_law_override", Goal: "mandatory_law_override", Value: facts.Bool(true), RiskDelta: 20}},
		Patterns: patterns.Result{Score: 3, Matches: []patterns.EvidenceMatch{
			{Pattern: "unlimited", Weight: 3, Polarity: patterns.High},
		}},
		Decision: gate.GateDecision{Category: gate.BandHigh, Provisional: gate.BandHigh, NeuralBand: gate.BandHigh, TieBreak: gate.TieBreakNone},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return v
}

// mutate rewrites the verdict JSON and decodes it back, bypassing the builder.
func mutate(t *testing.T, v verdict.Verdict, fn func(m map[string]any)) verdict.Verdict {
	t.Helper()
	data, _ := json.Marshal(v)
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	fn(m)
	data, _ = json.Marshal(m)
	var out verdict.Verdict
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal verdict: %v", err)
	}
	return out
}

func metric(r EvalResult, name string) (EvalMetric, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return EvalMetric{}, false
}

func TestEvalPassesOnBuiltVerdict(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	result := h.Run(makeVerdict(t))
	if !result.Passed {
		t.Fatalf("expected pass, got fail: %s", result.Reason)
	}
	if len(result.Metrics) != 6 {
		t.Fatalf("expected 6 metrics, got %d", len(result.Metrics))
	}
}

func TestEvalFailsOnScoreOutOfBounds(t *testing.T) {
	v := mutate(t, makeVerdict(t), func(m map[string]any) { m["risk_score"] = 150 })
	result := NewEvalHarness(DefaultEvalConfig()).Run(v)
	if result.Passed {
		t.Fatal("expected fail")
	}
	if m, _ := metric(result, "score_bounds"); m.Pass {
		t.Fatal("score_bounds should fail")
	}
}

func TestEvalFailsOnUntraceableRationale(t *testing.T) {
	v := mutate(t, makeVerdict(t), func(m map[string]any) {
		m["rationale"] = append(m["rationale"].([]any), "the court likes this clause")
	})
	result := NewEvalHarness(DefaultEvalConfig()).Run(v)
	if m, _ := metric(result, "rationale_traceable"); m.Pass {
		t.Fatal("rationale_traceable should fail on an extra line")
	}
}

func TestEvalFailsOnArithmeticMismatch(t *testing.T) {
	v := mutate(t, makeVerdict(t), func(m map[string]any) { m["risk_score"] = 60 })
	config := DefaultEvalConfig()
	config.VerifyDigest = false
	result := NewEvalHarness(config).Run(v)
	if result.Passed {
		t.Fatal("expected fail")
	}
	if !strings.Contains(result.Reason, "trace sums to 73") {
		t.Fatalf("reason = %q", result.Reason)
	}
}

func TestEvalDigestCatchesTampering(t *testing.T) {
	v := mutate(t, makeVerdict(t), func(m map[string]any) { m["outcome"] = "DEFENSE_FAVOR" })
	result := NewEvalHarness(DefaultEvalConfig()).Run(v)
	if m, _ := metric(result, "digest"); m.Pass {
		t.Fatal("digest should fail")
	}
}

func TestEvalReviewInformationalOnly(t *testing.T) {
	v := mutate(t, makeVerdict(t), func(m map[string]any) { m["needs_review"] = true })
	config := DefaultEvalConfig()
	config.VerifyDigest = false
	result := NewEvalHarness(config).Run(v)
	if !result.Passed {
		t.Fatalf("review flag should be informational: %s", result.Reason)
	}
	if m, _ := metric(result, "needs_review"); m.Pass {
		t.Fatal("needs_review metric should show pass=false")
	}

	config.ReviewBlocking = true
	if NewEvalHarness(config).Run(v).Passed {
		t.Fatal("blocking review should fail")
	}
}
