package eval

import "github.com/danielpatrickdp/clause-adjudicator/internal/verdict"

// #region eval-config
// EvalConfig holds the bounds a verdict must respect.
type EvalConfig struct {
	MinScore       int
	MaxScore       int
	VerifyDigest   bool // recompute the SHA-256 digest
	ReviewBlocking bool // fail verdicts flagged needs_review instead of only reporting them
}

// DefaultEvalConfig checks the [0, 100] range and the digest; review is
// informational.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MinScore:     verdict.MinScore,
		MaxScore:     verdict.MaxScore,
		VerifyDigest: true,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of verdict validation.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
