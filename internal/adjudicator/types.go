package adjudicator

import (
	"errors"

	"github.com/danielpatrickdp/clause-adjudicator/internal/eval"
	"github.com/danielpatrickdp/clause-adjudicator/internal/facts"
	"github.com/danielpatrickdp/clause-adjudicator/internal/gate"
	"github.com/danielpatrickdp/clause-adjudicator/internal/patterns"
	"github.com/danielpatrickdp/clause-adjudicator/internal/rules"
	"github.com/danielpatrickdp/clause-adjudicator/internal/verdict"
)

var (
	ErrInvalidRequest = errors.New("invalid adjudication request")
	// ErrVerdictCheck means a built verdict failed its own audit checks. It
	// indicates a bug, not bad input.
	ErrVerdictCheck = errors.New("verdict failed audit checks")
	ErrNotStarted   = errors.New("request not started")
)

// #region request
// Request is the whole upstream surface: a frozen fact snapshot, the raw
// clause text and the neural band.
type Request struct {
	ID         string
	Facts      facts.Snapshot
	ClauseText string
	NeuralBand gate.Band
}

// #endregion request

// #region result
// Result is a verdict together with the intermediate outputs that produced
// it, for audit storage and inspection.
type Result struct {
	Verdict      verdict.Verdict
	Facts        facts.Snapshot // effective facts after authority resolution
	Patterns     patterns.Result
	Decision     gate.GateDecision
	Explanations []rules.Explanation
	Resolutions  []verdict.Resolution
	Eval         eval.EvalResult
	Gate         gate.GateConfig
	Policy       verdict.Policy
}

// Outcome is one entry of a batch run. Exactly one of Result and Err is set.
type Outcome struct {
	Index  int
	ID     string
	Result Result
	Err    error
}

// #endregion result
