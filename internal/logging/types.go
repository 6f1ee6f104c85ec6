package logging

import "time"

// #region provenance-entry
// ProvenanceEntry is a single row in the provenance_log table.
type ProvenanceEntry struct {
	AdjudicationID string
	Digest         string
	TriggerType    string // "judge" | "serve" | "batch" | "replay"
	DecisionJSON   string // DecisionRecord
	EvidenceRefs   string // comma-separated trace sources
	Category       string // "HIGH" | "MEDIUM" | "LOW" | "" on failure
	Reason         string
	CreatedAt      time.Time
}

// #endregion provenance-entry

// #region decision-record
// DecisionRecord captures the hybrid decision inputs and the policy active
// at decision time. Serialized into provenance_log.decision_json so a
// decision can be re-derived without the original process.
type DecisionRecord struct {
	RequestID  string `json:"request_id,omitempty"`
	ClauseText string `json:"clause_text"`
	NeuralBand string `json:"neural_band"`

	// Pattern scorer output
	PatternScore int      `json:"pattern_score"`
	HighMatches  []string `json:"high_matches"`
	LowMatches   []string `json:"low_matches"`

	// Rule engine output
	FiredRules   []string `json:"fired_rules"`
	UnknownGoals []string `json:"unknown_goals,omitempty"`
	Resolved     []string `json:"resolved_facts,omitempty"`

	Thresholds DecisionThresholds `json:"thresholds"`

	// Gate output
	Provisional string `json:"provisional"`
	Category    string `json:"category"`
	TieBreak    string `json:"tie_break"`
	Reason      string `json:"reason"`
}

// DecisionThresholds captures the gate and policy constants in force.
type DecisionThresholds struct {
	High                int     `json:"high"`
	Low                 int     `json:"low"`
	BaseScore           int     `json:"base_score"`
	BaseConfidence      float64 `json:"base_confidence"`
	PerMatch            float64 `json:"per_match"`
	DisagreementPenalty float64 `json:"disagreement_penalty"`
}

// #endregion decision-record
