// Package eval re-checks a built verdict against its own audit trail:
// bounded output, a rationale traceable line by line to trace entries, and
// a score that is the clipped sum of the traced contributions.
package eval

import (
	"fmt"

	"github.com/danielpatrickdp/clause-adjudicator/internal/verdict"
)

// #region eval-harness
// EvalHarness validates verdicts after they are built.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run performs the checks and returns pass/fail with one metric per check.
func (h *EvalHarness) Run(v verdict.Verdict) EvalResult {
	var metrics []EvalMetric
	passed := true
	var failReasons []string

	check := func(name string, value float64, ok bool, blocking bool, reason string) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: ok})
		if !ok && blocking {
			passed = false
			failReasons = append(failReasons, reason)
		}
	}

	// 1. Score bounds
	score := v.RiskScore()
	check("score_bounds", float64(score),
		score >= h.config.MinScore && score <= h.config.MaxScore, true,
		fmt.Sprintf("risk score %d outside [%d, %d]", score, h.config.MinScore, h.config.MaxScore))

	// 2. Confidence bounds
	conf := v.Confidence()
	check("confidence_bounds", conf, conf >= 0 && conf <= 1, true,
		fmt.Sprintf("confidence %v outside [0, 1]", conf))

	// 3. Traceability: base first, then one rationale line per entry
	trace := v.Trace()
	rationale := v.Rationale()
	traceable := len(trace) > 0 && trace[0].Kind == verdict.KindBase && len(rationale) == len(trace)-1
	for _, e := range trace {
		if e.Source == "" {
			traceable = false
		}
	}
	check("rationale_traceable", float64(len(rationale)), traceable, true,
		fmt.Sprintf("%d rationale lines for %d trace entries", len(rationale), len(trace)))

	// 4. Arithmetic: score is the clipped sum of contributions
	sum := 0
	for _, e := range trace {
		sum += e.Contribution
	}
	want := clip(sum, h.config.MinScore, h.config.MaxScore)
	check("score_arithmetic", float64(sum), want == score, true,
		fmt.Sprintf("trace sums to %d (clipped %d) but score is %d", sum, want, score))

	// 5. Digest
	if h.config.VerifyDigest {
		err := v.Verify()
		reason := ""
		if err != nil {
			reason = err.Error()
		}
		check("digest", 0, err == nil, true, reason)
	}

	// 6. Review flag: informational unless configured otherwise
	check("needs_review", conf, !v.NeedsReview(), h.config.ReviewBlocking,
		fmt.Sprintf("confidence %v flagged for review", conf))

	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  passed,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion helpers
