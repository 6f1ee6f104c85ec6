// Package signals turns Interpretation Layer output into adjudication
// requests. It is the only place where model text is read; the adjudication
// core only ever sees a fact snapshot and a band.
package signals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/danielpatrickdp/clause-adjudicator/internal/adjudicator"
	"github.com/danielpatrickdp/clause-adjudicator/internal/authority"
	"github.com/danielpatrickdp/clause-adjudicator/internal/facts"
	"github.com/danielpatrickdp/clause-adjudicator/internal/gate"
)

// #region producer

// Producer builds adjudication requests from interpretations.
type Producer struct {
	interpreter Interpreter
	table       *authority.Table
}

// NewProducer creates a Producer. interpreter may be nil, in which case only
// Request can be used.
func NewProducer(interpreter Interpreter, table *authority.Table) *Producer {
	return &Producer{interpreter: interpreter, table: table}
}

// #endregion producer

// #region produce

// Produce asks the interpreter about clause and converts the answer.
func (p *Producer) Produce(ctx context.Context, id, clause string) (adjudicator.Request, error) {
	if p.interpreter == nil {
		return adjudicator.Request{}, fmt.Errorf("produce %s: no interpreter configured", id)
	}
	in, err := p.interpreter.Interpret(ctx, clause)
	if err != nil {
		return adjudicator.Request{}, fmt.Errorf("interpret: %w", err)
	}
	if in.ClauseText == "" {
		in.ClauseText = clause
	}
	if id != "" {
		in.RequestID = id
	}
	return p.Request(in)
}

// Request asserts every payload fact in order into a fresh store, looking
// sources up in the authority table, and freezes it.
func (p *Producer) Request(in Interpretation) (adjudicator.Request, error) {
	store := facts.NewStore()
	for i, fp := range in.Facts {
		f := facts.Fact{Name: fp.Name, Value: fp.Value}
		if fp.Source != nil {
			src, err := p.source(*fp.Source)
			if err != nil {
				return adjudicator.Request{}, fmt.Errorf("fact %d %q: %w", i, fp.Name, err)
			}
			f.Source = &src
		}
		if err := store.Assert(f); err != nil {
			return adjudicator.Request{}, fmt.Errorf("%w: fact %d: %w", ErrMalformedPayload, i, err)
		}
	}
	band, err := Band(in)
	if err != nil {
		return adjudicator.Request{}, err
	}
	return adjudicator.Request{
		ID:         in.RequestID,
		Facts:      store.Freeze(),
		ClauseText: in.ClauseText,
		NeuralBand: band,
	}, nil
}

func (p *Producer) source(sp SourcePayload) (authority.SourceRef, error) {
	sys := authority.System(strings.ToUpper(strings.TrimSpace(sp.System)))
	src, err := p.table.Source(sys, strings.ToUpper(strings.TrimSpace(sp.Kind)))
	if err != nil {
		return authority.SourceRef{}, fmt.Errorf("%w: %w", ErrUnknownSource, err)
	}
	return src, nil
}

// #endregion produce

// #region decode

// Decode parses an Interpretation from JSON, rejecting unknown fields and
// trailing data.
func Decode(data []byte) (Interpretation, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var in Interpretation
	if err := dec.Decode(&in); err != nil {
		return Interpretation{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if dec.More() {
		return Interpretation{}, fmt.Errorf("%w: trailing data", ErrMalformedPayload)
	}
	return in, nil
}

// #endregion decode

// #region band

var (
	riskLine = regexp.MustCompile(`(?im)^\s*risk\s*(?:level)?\s*:\s*\[?\s*(high|medium|low)\b`)
	bandWord = []struct {
		word string
		band gate.Band
	}{
		{"high", gate.BandHigh},
		{"medium", gate.BandMedium},
		{"low", gate.BandLow},
	}
)

// Band picks the neural band of an interpretation. A non-empty explicit
// field must parse; an empty one falls back to a band extracted from
// ModelOutput, then to MEDIUM. A MEDIUM neural band never moves the gate.
func Band(in Interpretation) (gate.Band, error) {
	if strings.TrimSpace(in.NeuralRiskBand) != "" {
		b, err := gate.ParseBand(in.NeuralRiskBand)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
		return b, nil
	}
	if b, ok := ExtractBand(in.ModelOutput); ok {
		return b, nil
	}
	return gate.BandMedium, nil
}

// ExtractBand reads a risk band out of free model text. A "Risk: x" line
// wins; otherwise the first of high, medium, low found anywhere in the text
// in that order of preference.
func ExtractBand(text string) (gate.Band, bool) {
	if m := riskLine.FindStringSubmatch(text); m != nil {
		b, err := gate.ParseBand(m[1])
		return b, err == nil
	}
	lower := strings.ToLower(text)
	for _, w := range bandWord {
		if strings.Contains(lower, w.word) {
			return w.band, true
		}
	}
	return "", false
}

// #endregion band

// #region prompt

// Prompt renders the instruction sent to the interpretation model.
func Prompt(clause string) string {
	var b strings.Builder
	b.WriteString("You are an expert contract attorney analyzing legal clauses for risk.\n\n")
	b.WriteString("Determine the clause type and its risk level (low, medium, high).\n\n")
	b.WriteString("HIGH risk indicators: unlimited liability, as-is warranties, one-sided termination, ")
	b.WriteString("perpetual obligations, offshore jurisdiction, waiver of rights, regardless of fault.\n")
	b.WriteString("LOW risk indicators: mutual obligations, liability caps tied to contract value, ")
	b.WriteString("reasonable timeframes, non-exclusive jurisdiction, consent requirements.\n\n")
	fmt.Fprintf(&b, "CLAUSE TO ANALYZE:\n%q\n\n", clause)
	b.WriteString("Respond in this exact format:\nType: [clause type]\nRisk: [low/medium/high]\nReason: [one sentence]\n")
	return b.String()
}

// #endregion prompt
