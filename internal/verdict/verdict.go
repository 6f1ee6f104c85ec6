// Package verdict composes the final bounded score, confidence, rationale
// and trace. A Verdict is a pure function of its Inputs and Policy.
package verdict

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/danielpatrickdp/clause-adjudicator/internal/gate"
	"github.com/danielpatrickdp/clause-adjudicator/internal/patterns"
)

// ErrDigestMismatch is returned by Verify when the stored digest does not
// match the content.
var ErrDigestMismatch = errors.New("verdict digest mismatch")

// #region verdict
type record struct {
	RiskScore       int              `json:"risk_score"`
	Confidence      float64          `json:"confidence"`
	Category        gate.Band        `json:"category"`
	NeuralBand      gate.Band        `json:"neural_band"`
	TieBreak        gate.TieBreak    `json:"tie_break"`
	PatternScore    int              `json:"pattern_score"`
	Outcome         Outcome          `json:"outcome"`
	NeedsReview     bool             `json:"needs_review"`
	Rationale       []string         `json:"rationale"`
	Trace           []TraceEntry     `json:"trace"`
	Counterfactuals []Counterfactual `json:"counterfactuals"`
	Digest          string           `json:"digest,omitempty"`
}

// Verdict is immutable once built. Accessors return copies.
type Verdict struct {
	r record
}

func (v Verdict) RiskScore() int          { return v.r.RiskScore }
func (v Verdict) Confidence() float64     { return v.r.Confidence }
func (v Verdict) Category() gate.Band     { return v.r.Category }
func (v Verdict) NeuralBand() gate.Band   { return v.r.NeuralBand }
func (v Verdict) TieBreak() gate.TieBreak { return v.r.TieBreak }
func (v Verdict) PatternScore() int       { return v.r.PatternScore }
func (v Verdict) Outcome() Outcome        { return v.r.Outcome }
func (v Verdict) NeedsReview() bool       { return v.r.NeedsReview }
func (v Verdict) Digest() string          { return v.r.Digest }
func (v Verdict) IsZero() bool            { return v.r.Digest == "" }

func (v Verdict) Rationale() []string {
	return append([]string(nil), v.r.Rationale...)
}

func (v Verdict) Trace() []TraceEntry {
	return append([]TraceEntry(nil), v.r.Trace...)
}

func (v Verdict) Counterfactuals() []Counterfactual {
	return append([]Counterfactual(nil), v.r.Counterfactuals...)
}

// MarshalJSON emits the canonical form including the digest.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.r)
}

// UnmarshalJSON restores a verdict as stored. Call Verify to check that the
// digest still matches.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("unmarshal verdict: %w", err)
	}
	v.r = r
	return nil
}

// Verify recomputes the digest over the content.
func (v Verdict) Verify() error {
	want, err := digest(v.r)
	if err != nil {
		return err
	}
	if want != v.r.Digest {
		return fmt.Errorf("%w: stored %s, computed %s", ErrDigestMismatch, v.r.Digest, want)
	}
	return nil
}

// digest hashes the canonical JSON of r with the digest field cleared.
func digest(r record) (string, error) {
	r.Digest = ""
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("digest verdict: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// #endregion verdict

// #region builder
// Builder turns pipeline outputs into a Verdict under a fixed Policy.
type Builder struct {
	policy Policy
}

// NewBuilder validates the policy.
func NewBuilder(policy Policy) (*Builder, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Builder{policy: policy}, nil
}

// Policy returns the policy in use.
func (b *Builder) Policy() Policy { return b.policy }

// Build composes the verdict. The raw score is base + pattern score + the
// risk delta of every fired rule, clipped to [0, 100]. Trace order is base,
// authority resolutions, fired rules, unknown goals, pattern matches, then
// the tie-break. Every rationale line corresponds to exactly one non-base
// trace entry, in the same order.
func (b *Builder) Build(in Inputs) (Verdict, error) {
	p := b.policy
	r := record{
		Category:        in.Decision.Category,
		NeuralBand:      in.Decision.NeuralBand,
		TieBreak:        in.Decision.TieBreak,
		PatternScore:    in.Patterns.Score,
		Rationale:       []string{},
		Trace:           []TraceEntry{{Source: "base", Kind: KindBase, Contribution: p.BaseScore}},
		Counterfactuals: []Counterfactual{},
	}
	add := func(e TraceEntry, line string) {
		r.Trace = append(r.Trace, e)
		r.Rationale = append(r.Rationale, line)
	}

	for _, res := range in.Resolutions {
		line := fmt.Sprintf("authority: %s = %s per %s", res.Fact, res.Value, res.Source)
		if len(res.Overruled) > 0 {
			line += fmt.Sprintf(", overruling %d lower-ranked assertion(s)", len(res.Overruled))
		}
		add(TraceEntry{Source: "authority:" + res.Fact, Kind: KindResolution}, line)
	}

	raw := p.BaseScore + in.Patterns.Score
	for _, f := range in.Firings {
		raw += f.RiskDelta
		line := fmt.Sprintf("rule %s fired: %s = %s (%+d)", f.Rule, f.Goal, f.Value, f.RiskDelta)
		if f.Description != "" {
			line += ": " + f.Description
		}
		add(TraceEntry{Source: "rule:" + f.Rule, Kind: KindRule, Contribution: f.RiskDelta}, line)
	}

	for _, u := range in.Unknown {
		line := fmt.Sprintf("goal %s unknown: no fact or rule establishes it", u.Goal)
		if u.Blocker != "" {
			line = fmt.Sprintf("goal %s unknown: %s", u.Goal, u.Blocker)
		}
		add(TraceEntry{Source: "goal:" + u.Goal, Kind: KindUnknown}, line)
	}

	for _, m := range in.Patterns.Matches {
		add(
			TraceEntry{Source: "pattern:" + m.Pattern, Kind: KindPattern, Contribution: m.Weight},
			fmt.Sprintf("%s pattern %q matched (%+d)", m.Polarity, m.Pattern, m.Weight),
		)
	}

	if in.Decision.TieBreak != gate.TieBreakNone && in.Decision.TieBreak != "" {
		add(
			TraceEntry{Source: "tie_break:" + string(in.Decision.TieBreak), Kind: KindTieBreak},
			fmt.Sprintf("neural band %s moved %s to %s (%d HIGH matches)",
				in.Decision.NeuralBand, in.Decision.Provisional, in.Decision.Category, in.Decision.HighMatches),
		)
	}

	r.RiskScore = clipInt(raw, MinScore, MaxScore)
	r.Confidence = b.confidence(in.Patterns, in.Decision.Disagreement)
	r.NeedsReview = r.Confidence < p.ReviewThreshold
	r.Outcome = outcomeFor(r.RiskScore)
	r.Counterfactuals = b.counterfactuals(in, raw)

	d, err := digest(r)
	if err != nil {
		return Verdict{}, err
	}
	r.Digest = d
	return Verdict{r: r}, nil
}

// confidence = base + perMatch*len(matches) - penalty*disagreement, clipped
// to [0, 1] and rounded to four decimals so float noise never reaches the
// digest.
func (b *Builder) confidence(res patterns.Result, disagreement bool) float64 {
	c := b.policy.BaseConfidence + b.policy.PerMatch*float64(len(res.Matches))
	if disagreement {
		c -= b.policy.DisagreementPenalty
	}
	c = math.Max(0, math.Min(1, c))
	return math.Round(c*1e4) / 1e4
}

// counterfactuals reports, for the fired rules with the largest positive
// deltas, the clipped score without that rule. Ties keep firing order.
func (b *Builder) counterfactuals(in Inputs, raw int) []Counterfactual {
	out := []Counterfactual{}
	for _, f := range in.Firings {
		if f.RiskDelta > 0 {
			out = append(out, Counterfactual{Rule: f.Rule, Delta: f.RiskDelta, ScoreWithout: clipInt(raw-f.RiskDelta, MinScore, MaxScore)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Delta > out[j].Delta })
	if len(out) > b.policy.Counterfactuals {
		out = out[:b.policy.Counterfactuals]
	}
	return out
}

func clipInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion builder
