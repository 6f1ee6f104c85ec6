package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/clause-adjudicator/internal/authority"
	"github.com/danielpatrickdp/clause-adjudicator/internal/gate"
	"github.com/danielpatrickdp/clause-adjudicator/internal/signals"
	"github.com/danielpatrickdp/clause-adjudicator/internal/store"
	"github.com/danielpatrickdp/clause-adjudicator/internal/verdict"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Runs        int           `json:"runs,omitempty"`
	Cases       []FixtureCase `json:"cases"`
}

// FixtureCase is one request plus what it must produce. Facts use the
// interpretation payload shape so fixtures can be written by hand.
type FixtureCase struct {
	ID         string                `json:"id"`
	ClauseText string                `json:"clause_text"`
	NeuralBand string                `json:"neural_band"`
	Facts      []signals.FactPayload `json:"facts,omitempty"`
	Expected   FixtureExpected       `json:"expected"`
}

// FixtureExpected lists the checked outputs. Empty fields are not checked.
type FixtureExpected struct {
	Category string `json:"category,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
	Digest   string `json:"digest,omitempty"`
	Error    string `json:"error,omitempty"` // adjudicator.ErrorReason label
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToCase converts a FixtureCase to a domain Case, resolving sources
// against table.
func (fc *FixtureCase) ToCase(table *authority.Table) (Case, error) {
	req, err := signals.NewProducer(nil, table).Request(signals.Interpretation{
		RequestID:      fc.ID,
		ClauseText:     fc.ClauseText,
		NeuralRiskBand: fc.NeuralBand,
		Facts:          fc.Facts,
	})
	if err != nil {
		return Case{}, fmt.Errorf("case %s: %w", fc.ID, err)
	}
	return Case{
		ID:      fc.ID,
		Request: req,
		Expected: Expected{
			Category: gate.Band(fc.Expected.Category),
			Outcome:  verdict.Outcome(fc.Expected.Outcome),
			Digest:   fc.Expected.Digest,
			Error:    fc.Expected.Error,
		},
	}, nil
}

// ToCases converts every fixture case.
func (f *Fixture) ToCases(table *authority.Table) ([]Case, error) {
	out := make([]Case, 0, len(f.Cases))
	for i := range f.Cases {
		c, err := f.Cases[i].ToCase(table)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// #endregion fixture-loader

// #region fixture-export

// FixtureFromRecords turns stored adjudications into a fixture that pins
// their categories, outcomes and digests.
func FixtureFromRecords(description string, recs []store.Record) Fixture {
	f := Fixture{Description: description, Runs: DefaultRuns, Cases: make([]FixtureCase, 0, len(recs))}
	for _, rec := range recs {
		fc := FixtureCase{
			ID:         rec.ID,
			ClauseText: rec.Request.ClauseText,
			NeuralBand: string(rec.Request.NeuralBand),
			Expected: FixtureExpected{
				Category: string(rec.Verdict.Category()),
				Outcome:  string(rec.Verdict.Outcome()),
				Digest:   rec.Verdict.Digest(),
			},
		}
		for _, fr := range rec.Request.Facts {
			fp := signals.FactPayload{Name: fr.Name, Value: fr.Value}
			if fr.Kind != "" {
				fp.Source = &signals.SourcePayload{System: string(fr.System), Kind: fr.Kind}
			}
			fc.Facts = append(fc.Facts, fp)
		}
		f.Cases = append(f.Cases, fc)
	}
	return f
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion fixture-export
