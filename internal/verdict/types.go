package verdict

import (
	"errors"

	"github.com/danielpatrickdp/clause-adjudicator/internal/fault"
	"github.com/danielpatrickdp/clause-adjudicator/internal/gate"
	"github.com/danielpatrickdp/clause-adjudicator/internal/patterns"
	"github.com/danielpatrickdp/clause-adjudicator/internal/rules"
)

// ErrPolicy marks an unusable scoring policy.
var ErrPolicy = errors.New("invalid verdict policy")

// #region policy
// Policy holds the scoring constants. They are tuned empirically and kept
// configurable.
type Policy struct {
	BaseScore           int     // starting risk score
	BaseConfidence      float64 // starting confidence
	PerMatch            float64 // confidence added per pattern match
	DisagreementPenalty float64 // subtracted when category != neural band
	ReviewThreshold     float64 // needs_review below this confidence
	Counterfactuals     int     // max counterfactuals reported
}

// DefaultPolicy returns base 50, confidence 0.5 + 0.05/match - 0.2 on
// disagreement, review below 0.6, three counterfactuals.
func DefaultPolicy() Policy {
	return Policy{
		BaseScore:           50,
		BaseConfidence:      0.5,
		PerMatch:            0.05,
		DisagreementPenalty: 0.2,
		ReviewThreshold:     0.6,
		Counterfactuals:     3,
	}
}

func (p Policy) Validate() error {
	switch {
	case p.BaseScore < MinScore || p.BaseScore > MaxScore:
		return fault.Configf("verdict", ErrPolicy, "base score %d outside [%d, %d]", p.BaseScore, MinScore, MaxScore)
	case p.BaseConfidence < 0 || p.BaseConfidence > 1:
		return fault.Configf("verdict", ErrPolicy, "base confidence %v outside [0, 1]", p.BaseConfidence)
	case p.PerMatch < 0:
		return fault.Configf("verdict", ErrPolicy, "per-match confidence %v is negative", p.PerMatch)
	case p.DisagreementPenalty < 0:
		return fault.Configf("verdict", ErrPolicy, "disagreement penalty %v is negative", p.DisagreementPenalty)
	case p.ReviewThreshold < 0 || p.ReviewThreshold > 1:
		return fault.Configf("verdict", ErrPolicy, "review threshold %v outside [0, 1]", p.ReviewThreshold)
	case p.Counterfactuals < 0:
		return fault.Configf("verdict", ErrPolicy, "counterfactual limit %d is negative", p.Counterfactuals)
	}
	return nil
}

const (
	MinScore = 0
	MaxScore = 100
	Midpoint = 50
)

// #endregion policy

// #region outcome
// Outcome says which side the score favours.
type Outcome string

const (
	PlaintiffFavor Outcome = "PLAINTIFF_FAVOR"
	DefenseFavor   Outcome = "DEFENSE_FAVOR"
	Neutral        Outcome = "NEUTRAL"
)

func outcomeFor(score int) Outcome {
	switch {
	case score > Midpoint:
		return PlaintiffFavor
	case score < Midpoint:
		return DefenseFavor
	}
	return Neutral
}

// #endregion outcome

// #region trace
// TraceKind classifies a trace entry.
type TraceKind string

const (
	KindBase       TraceKind = "base"
	KindResolution TraceKind = "resolution"
	KindRule       TraceKind = "rule"
	KindUnknown    TraceKind = "unknown"
	KindPattern    TraceKind = "pattern"
	KindTieBreak   TraceKind = "tie_break"
)

// TraceEntry is one evidence item and its contribution to the score.
type TraceEntry struct {
	Source       string    `json:"source"`
	Kind         TraceKind `json:"kind"`
	Contribution int       `json:"contribution"`
}

// Counterfactual is the score the verdict would have had without one
// fired rule.
type Counterfactual struct {
	Rule         string `json:"rule"`
	Delta        int    `json:"delta"`
	ScoreWithout int    `json:"score_without"`
}

// #endregion trace

// #region inputs
// Resolution is a settled authority conflict, already rendered.
type Resolution struct {
	Fact      string
	Value     string
	Source    string
	Overruled []string
}

// UnknownGoal is a goal no fact or rule established, with the actual
// blocking condition if one was tried.
type UnknownGoal struct {
	Goal    string
	Blocker string // empty when no candidate rule exists
}

// Inputs is everything the builder needs; it reads nothing else.
type Inputs struct {
	Resolutions []Resolution
	Firings     []rules.Firing
	Unknown     []UnknownGoal
	Patterns    patterns.Result
	Decision    gate.GateDecision
}

// #endregion inputs
