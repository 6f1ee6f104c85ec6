// Package gate fuses the symbolic pattern score with the neural risk band.
// The pattern score decides; the neural band only breaks ties inside the
// MEDIUM band.
package gate

import (
	"fmt"

	"github.com/danielpatrickdp/clause-adjudicator/internal/patterns"
)

// #region gate
// Gate holds validated thresholds and no other state.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) (*Gate, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Gate{config: config}, nil
}

// Config returns the thresholds in use.
func (g *Gate) Config() GateConfig { return g.config }

// Evaluate classifies the pattern score, then applies the tie-break only
// when the provisional result is MEDIUM:
//   - neural LOW and no HIGH match: downgrade to LOW
//   - neural HIGH and at least one HIGH match: upgrade to HIGH
func (g *Gate) Evaluate(res patterns.Result, neural Band) GateDecision {
	d := GateDecision{
		NeuralBand:  neural,
		TieBreak:    TieBreakNone,
		Score:       res.Score,
		HighMatches: res.Count(patterns.High),
		LowMatches:  res.Count(patterns.Low),
	}

	switch {
	case res.Score >= g.config.HighThreshold:
		d.Provisional = BandHigh
		d.Reason = fmt.Sprintf("pattern score %d >= %d", res.Score, g.config.HighThreshold)
	case res.Score <= g.config.LowThreshold:
		d.Provisional = BandLow
		d.Reason = fmt.Sprintf("pattern score %d <= %d", res.Score, g.config.LowThreshold)
	default:
		d.Provisional = BandMedium
		d.Reason = fmt.Sprintf("pattern score %d in ambiguous band (%d, %d)", res.Score, g.config.LowThreshold, g.config.HighThreshold)
	}
	d.Category = d.Provisional

	if d.Provisional == BandMedium {
		switch {
		case neural == BandLow && d.HighMatches == 0:
			d.Category = BandLow
			d.TieBreak = TieBreakDowngrade
			d.Reason += "; neural band LOW with no HIGH matches: downgraded to LOW"
		case neural == BandHigh && d.HighMatches > 0:
			d.Category = BandHigh
			d.TieBreak = TieBreakUpgrade
			d.Reason += fmt.Sprintf("; neural band HIGH with %d HIGH matches: upgraded to HIGH", d.HighMatches)
		}
	}

	d.Disagreement = neural.Valid() && d.Category != neural
	return d
}

// #endregion gate
