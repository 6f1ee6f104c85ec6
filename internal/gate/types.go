package gate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danielpatrickdp/clause-adjudicator/internal/fault"
)

// ErrThresholds marks an unusable threshold pair.
var ErrThresholds = errors.New("invalid gate thresholds")

// #region band
// Band is a risk category. It is both the neural signal's vocabulary and
// the gate's output.
type Band string

const (
	BandHigh   Band = "HIGH"
	BandMedium Band = "MEDIUM"
	BandLow    Band = "LOW"
)

// Rank orders bands so monotonicity can be asserted: LOW < MEDIUM < HIGH.
func (b Band) Rank() int {
	switch b {
	case BandLow:
		return 0
	case BandMedium:
		return 1
	case BandHigh:
		return 2
	}
	return -1
}

func (b Band) Valid() bool { return b.Rank() >= 0 }

// ParseBand accepts HIGH, MEDIUM or LOW in any case.
func ParseBand(s string) (Band, error) {
	b := Band(strings.ToUpper(strings.TrimSpace(s)))
	if !b.Valid() {
		return "", fmt.Errorf("unknown risk band %q", s)
	}
	return b, nil
}

// #endregion band

// #region tie-break
// TieBreak records whether the neural band moved a MEDIUM result.
type TieBreak string

const (
	TieBreakNone      TieBreak = "none"
	TieBreakDowngrade TieBreak = "downgrade"
	TieBreakUpgrade   TieBreak = "upgrade"
)

// #endregion tie-break

// #region gate-config
// GateConfig holds the score thresholds. Scores at or above HighThreshold
// are HIGH, at or below LowThreshold are LOW, anything between is MEDIUM.
type GateConfig struct {
	HighThreshold int
	LowThreshold  int
}

// DefaultGateConfig returns the thresholds 3 and -2.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		HighThreshold: 3,
		LowThreshold:  -2,
	}
}

// Validate rejects overlapping thresholds.
func (c GateConfig) Validate() error {
	if c.HighThreshold <= c.LowThreshold {
		return fault.Configf("gate", ErrThresholds, "high threshold %d must exceed low threshold %d", c.HighThreshold, c.LowThreshold)
	}
	return nil
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of the hybrid decision.
type GateDecision struct {
	Category     Band
	Provisional  Band // category from the pattern score alone
	NeuralBand   Band
	TieBreak     TieBreak
	Score        int
	HighMatches  int
	LowMatches   int
	Disagreement bool // Category differs from NeuralBand
	Reason       string
}

// #endregion gate-decision
