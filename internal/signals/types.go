package signals

import (
	"context"
	"errors"

	"github.com/danielpatrickdp/clause-adjudicator/internal/facts"
)

var (
	ErrMalformedPayload = errors.New("malformed interpretation payload")
	ErrUnknownSource    = errors.New("unknown fact source")
)

// #region interpreter-interface

// Interpreter abstracts the external interpretation RPC so Producer can be
// tested without gRPC.
type Interpreter interface {
	Interpret(ctx context.Context, clause string) (Interpretation, error)
}

// #endregion interpreter-interface

// #region payload

// SourcePayload names an authority table row. Levels and statuses are never
// taken from the payload; they are looked up in the table.
type SourcePayload struct {
	System string `json:"system"`
	Kind   string `json:"kind"`
}

// FactPayload is one fact extracted by the interpretation layer.
type FactPayload struct {
	Name   string         `json:"name"`
	Value  facts.Value    `json:"value"`
	Source *SourcePayload `json:"source,omitempty"`
}

// Interpretation is the upstream payload: extracted facts plus the neural
// risk band. ModelOutput carries raw model text when no band field was
// produced.
type Interpretation struct {
	RequestID      string        `json:"request_id,omitempty"`
	ClauseText     string        `json:"clause_text"`
	NeuralRiskBand string        `json:"neural_risk_band,omitempty"`
	ModelOutput    string        `json:"model_output,omitempty"`
	Facts          []FactPayload `json:"facts,omitempty"`
}

// #endregion payload
