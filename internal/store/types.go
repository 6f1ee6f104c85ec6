package store

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/clause-adjudicator/internal/adjudicator"
	"github.com/danielpatrickdp/clause-adjudicator/internal/authority"
	"github.com/danielpatrickdp/clause-adjudicator/internal/facts"
	"github.com/danielpatrickdp/clause-adjudicator/internal/gate"
	"github.com/danielpatrickdp/clause-adjudicator/internal/verdict"
)

// #region record
// Record is one stored adjudication.
type Record struct {
	ID        string
	Trigger   string
	Request   RequestRecord
	Verdict   verdict.Verdict
	CreatedAt time.Time
}

// #endregion record

// #region request-record
// RequestRecord is the serializable form of an adjudicator.Request. Sources
// are kept as table keys and re-resolved on load, so a record replayed
// against a changed authority table sees the new levels.
type RequestRecord struct {
	ID         string       `json:"id,omitempty"`
	ClauseText string       `json:"clause_text"`
	NeuralBand gate.Band    `json:"neural_band"`
	Facts      []FactRecord `json:"facts"`
}

// FactRecord is one assertion in log order.
type FactRecord struct {
	Name   string           `json:"name"`
	Value  facts.Value      `json:"value"`
	System authority.System `json:"system,omitempty"`
	Kind   string           `json:"kind,omitempty"`
}

// NewRequestRecord captures every assertion of req in order.
func NewRequestRecord(req adjudicator.Request) RequestRecord {
	all := req.Facts.Assertions()
	out := RequestRecord{
		ID:         req.ID,
		ClauseText: req.ClauseText,
		NeuralBand: req.NeuralBand,
		Facts:      make([]FactRecord, 0, len(all)),
	}
	for _, f := range all {
		fr := FactRecord{Name: f.Name, Value: f.Value}
		if f.Source != nil {
			fr.System = f.Source.System()
			fr.Kind = f.Source.Kind()
		}
		out.Facts = append(out.Facts, fr)
	}
	return out
}

// ToRequest rebuilds the request, looking every source up in table.
func (r RequestRecord) ToRequest(table *authority.Table) (adjudicator.Request, error) {
	st := facts.NewStore()
	for i, fr := range r.Facts {
		f := facts.Fact{Name: fr.Name, Value: fr.Value}
		if fr.Kind != "" {
			src, err := table.Source(fr.System, fr.Kind)
			if err != nil {
				return adjudicator.Request{}, fmt.Errorf("fact %d %q: %w", i, fr.Name, err)
			}
			f.Source = &src
		}
		if err := st.Assert(f); err != nil {
			return adjudicator.Request{}, fmt.Errorf("fact %d: %w", i, err)
		}
	}
	return adjudicator.Request{
		ID:         r.ID,
		Facts:      st.Freeze(),
		ClauseText: r.ClauseText,
		NeuralBand: r.NeuralBand,
	}, nil
}

// #endregion request-record

// #region fact-provenance
// FactProvenance is one row of fact_provenance: an assertion and whether
// authority resolution overruled it.
type FactProvenance struct {
	Seq       int
	Name      string
	Value     string
	Source    string // SourceRef.String(), empty when unsourced
	Overruled bool
}

// #endregion fact-provenance
