package signals

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/danielpatrickdp/clause-adjudicator/internal/authority"
	"github.com/danielpatrickdp/clause-adjudicator/internal/facts"
	"github.com/danielpatrickdp/clause-adjudicator/internal/gate"
)

// #region mock

// mockInterpreter returns a pre-configured interpretation or error.
type mockInterpreter struct {
	out  Interpretation
	err  error
	seen string
}

func (m *mockInterpreter) Interpret(_ context.Context, clause string) (Interpretation, error) {
	m.seen = clause
	return m.out, m.err
}

// #endregion mock

const payload = `{
	"clause_text": "Le prestataire peut résilier sans préavis.",
	"neural_risk_band": "high",
	"facts": [
		{"name": "is_ambiguous", "value": true},
		{"name": "authority_is_mandatory", "value": false, "source": {"system": "civil_law", "kind": "contractual"}},
		{"name": "authority_is_mandatory", "value": true, "source": {"system": "CIVIL_LAW", "kind": "STATUTORY_PUBLIC_ORDER"}},
		{"name": "claim_amount", "value": 12000}
	]
}`

// #region decode-tests

func TestDecode_Payload(t *testing.T) {
	in, err := Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(in.Facts) != 4 || in.Facts[3].Value.Kind() != facts.KindNumber {
		t.Fatalf("facts = %+v", in.Facts)
	}
	if in.Facts[1].Source == nil || in.Facts[1].Source.Kind != "contractual" {
		t.Fatalf("source = %+v", in.Facts[1].Source)
	}
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": `{"clause_text": "x", "confidence": 0.9}`,
		"object value":  `{"facts": [{"name": "a", "value": {"x": 1}}]}`,
		"trailing":      `{"clause_text": "x"} {}`,
		"not json":      `clause`,
	}
	for name, body := range cases {
		if _, err := Decode([]byte(body)); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

// #endregion decode-tests

// #region request-tests

func TestRequest_BuildsSnapshot(t *testing.T) {
	in, _ := Decode([]byte(payload))
	req, err := NewProducer(nil, authority.DefaultTable()).Request(in)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if req.NeuralBand != gate.BandHigh {
		t.Errorf("band = %s", req.NeuralBand)
	}
	hist := req.Facts.History("authority_is_mandatory")
	if len(hist) != 2 || hist[1].Source.Level() != 90 || hist[0].Source.Level() != 30 {
		t.Fatalf("history = %+v", hist)
	}
	if got := req.Facts.Contested(); len(got) != 1 || got[0] != "authority_is_mandatory" {
		t.Fatalf("contested = %v", got)
	}
}

func TestRequest_UnknownSource(t *testing.T) {
	in := Interpretation{Facts: []FactPayload{{
		Name:   "x",
		Value:  facts.Bool(true),
		Source: &SourcePayload{System: "CIVIL_LAW", Kind: "FOREIGN_CASE_LAW"},
	}}}
	_, err := NewProducer(nil, authority.DefaultTable()).Request(in)
	if !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("err = %v", err)
	}
}

func TestRequest_EmptyName(t *testing.T) {
	in := Interpretation{Facts: []FactPayload{{Value: facts.Bool(true)}}}
	_, err := NewProducer(nil, authority.DefaultTable()).Request(in)
	if !errors.Is(err, ErrMalformedPayload) || !errors.Is(err, facts.ErrEmptyName) {
		t.Fatalf("err = %v", err)
	}
}

// #endregion request-tests

// #region produce-tests

func TestProduce_UsesInterpreter(t *testing.T) {
	m := &mockInterpreter{out: Interpretation{ModelOutput: "Type: warranty\nRisk: low\nReason: high level of mutuality"}}
	req, err := NewProducer(m, authority.DefaultTable()).Produce(context.Background(), "c-1", "Each party warrants ...")
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if m.seen != "Each party warrants ..." || req.ClauseText != "Each party warrants ..." {
		t.Errorf("clause not forwarded: seen=%q req=%q", m.seen, req.ClauseText)
	}
	if req.ID != "c-1" || req.NeuralBand != gate.BandLow {
		t.Errorf("req = %+v", req)
	}
}

func TestProduce_InterpreterError(t *testing.T) {
	m := &mockInterpreter{err: errors.New("unavailable")}
	_, err := NewProducer(m, authority.DefaultTable()).Produce(context.Background(), "", "x")
	if !errors.Is(err, m.err) {
		t.Fatalf("err = %v", err)
	}
}

func TestProduce_NilInterpreter(t *testing.T) {
	if _, err := NewProducer(nil, authority.DefaultTable()).Produce(context.Background(), "", "x"); err == nil {
		t.Fatal("expected error")
	}
}

// #endregion produce-tests

// #region band-tests

func TestExtractBand(t *testing.T) {
	cases := []struct {
		text string
		want gate.Band
		ok   bool
	}{
		{"Risk: high", gate.BandHigh, true},
		{"Type: payment\nRisk: [low]\nReason: high fees are capped", gate.BandLow, true},
		{"this looks like a medium exposure", gate.BandMedium, true},
		{"low or high, hard to say", gate.BandHigh, true},
		{"no opinion", "", false},
	}
	for _, c := range cases {
		got, ok := ExtractBand(c.text)
		if got != c.want || ok != c.ok {
			t.Errorf("ExtractBand(%q) = %q, %v; want %q, %v", c.text, got, ok, c.want, c.ok)
		}
	}
}

func TestBand_Fallbacks(t *testing.T) {
	cases := []struct {
		name string
		in   Interpretation
		want gate.Band
	}{
		{"explicit field wins", Interpretation{NeuralRiskBand: "Low", ModelOutput: "Risk: high"}, gate.BandLow},
		{"empty field uses model output", Interpretation{NeuralRiskBand: " ", ModelOutput: "Risk: high"}, gate.BandHigh},
		{"nothing given", Interpretation{}, gate.BandMedium},
	}
	for _, c := range cases {
		b, err := Band(c.in)
		if err != nil || b != c.want {
			t.Errorf("%s: Band = %q, %v; want %q", c.name, b, err, c.want)
		}
	}
}

func TestBand_RejectsMalformedField(t *testing.T) {
	in := Interpretation{NeuralRiskBand: "HGIH", ModelOutput: "Risk: high"}
	if _, err := Band(in); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("Band err = %v, want ErrMalformedPayload", err)
	}
	p := NewProducer(nil, authority.DefaultTable())
	if _, err := p.Request(in); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("Request err = %v, want ErrMalformedPayload", err)
	}
}

func TestPromptQuotesClause(t *testing.T) {
	p := Prompt(`pay "now"`)
	if want := `"pay \"now\""`; !strings.Contains(p, want) {
		t.Fatalf("prompt missing %s:\n%s", want, p)
	}
}

// #endregion band-tests
