package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/clause-adjudicator/internal/adjudicator"
	"github.com/danielpatrickdp/clause-adjudicator/internal/signals"
	"github.com/danielpatrickdp/clause-adjudicator/internal/store"
	"github.com/danielpatrickdp/clause-adjudicator/internal/verdict"
)

var judgeFlags struct {
	save     bool
	batch    bool
	parallel int
	explain  bool
}

var judgeCmd = &cobra.Command{
	Use:   "judge [file|-]",
	Short: "Adjudicate interpretation payloads read from a file or stdin",
	Long: `Reads one interpretation payload (or, with --batch, a JSON array of them)
and prints the verdicts as JSON. Payload shape:

  {"clause_text": "...", "neural_risk_band": "HIGH",
   "facts": [{"name": "is_ambiguous", "value": true,
              "source": {"system": "CIVIL_LAW", "kind": "STATUTORY"}}]}`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJudge,
}

func init() {
	f := judgeCmd.Flags()
	f.BoolVar(&judgeFlags.save, "save", false, "Store verdicts in the audit database")
	f.BoolVar(&judgeFlags.batch, "batch", false, "Input is a JSON array of payloads")
	f.IntVar(&judgeFlags.parallel, "parallel", 4, "Concurrent adjudications in batch mode")
	f.BoolVar(&judgeFlags.explain, "explain", false, "Print the rationale as text instead of JSON")
}

// judgement is one line of judge output.
type judgement struct {
	ID             string           `json:"id,omitempty"`
	AdjudicationID string           `json:"adjudication_id,omitempty"`
	Verdict        *verdict.Verdict `json:"verdict,omitempty"`
	Error          string           `json:"error,omitempty"`
}

func runJudge(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	payloads, err := decodePayloads(data, judgeFlags.batch)
	if err != nil {
		return err
	}

	a, err := loadAdjudicator()
	if err != nil {
		return err
	}
	producer := signals.NewProducer(nil, a.Authority())
	reqs := make([]adjudicator.Request, 0, len(payloads))
	for i, p := range payloads {
		req, err := producer.Request(p)
		if err != nil {
			return fmt.Errorf("payload %d: %w", i, err)
		}
		reqs = append(reqs, req)
	}

	var st *store.Store
	if judgeFlags.save {
		if st, err = openStore(); err != nil {
			return err
		}
		defer st.Close()
	}

	outcomes, err := a.AdjudicateBatch(cmd.Context(), reqs, judgeFlags.parallel)
	if err != nil {
		return err
	}
	trigger := "judge"
	if judgeFlags.batch {
		trigger = "batch"
	}
	out := make([]judgement, 0, len(outcomes))
	failed := 0
	for _, o := range outcomes {
		j, err := record(st, trigger, reqs[o.Index], o)
		if err != nil {
			return err
		}
		if j.Error != "" {
			failed++
		}
		out = append(out, j)
	}

	if err := emit(cmd.OutOrStdout(), out, judgeFlags.batch, judgeFlags.explain); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d adjudications failed", failed, len(out))
	}
	return nil
}

func decodePayloads(data []byte, batch bool) ([]signals.Interpretation, error) {
	if !batch {
		p, err := signals.Decode(data)
		if err != nil {
			return nil, err
		}
		return []signals.Interpretation{p}, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", signals.ErrMalformedPayload, err)
	}
	out := make([]signals.Interpretation, 0, len(raw))
	for i, r := range raw {
		p, err := signals.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("payload %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// record stores a finished outcome when st is set and converts it to output.
func record(st *store.Store, trigger string, req adjudicator.Request, o adjudicator.Outcome) (judgement, error) {
	j := judgement{ID: o.ID}
	if o.Err != nil {
		j.Error = o.Err.Error()
		if st != nil {
			if err := st.LogFailure(trigger, req, o.Err); err != nil {
				return j, err
			}
		}
		return j, nil
	}
	v := o.Result.Verdict
	j.Verdict = &v
	if st != nil {
		rec, err := st.SaveAdjudication(trigger, req, o.Result)
		if err != nil {
			return j, err
		}
		j.AdjudicationID = rec.ID
	}
	return j, nil
}

func emit(w io.Writer, out []judgement, batch, explain bool) error {
	if explain {
		for _, j := range out {
			explainJudgement(w, j)
		}
		return nil
	}
	if batch {
		return printJSON(w, out)
	}
	return printJSON(w, out[0])
}

func explainJudgement(w io.Writer, j judgement) {
	label := j.ID
	if label == "" {
		label = j.AdjudicationID
	}
	if j.Error != "" {
		fmt.Fprintf(w, "%s: error: %s\n", label, j.Error)
		return
	}
	v := j.Verdict
	fmt.Fprintf(w, "%s %s risk=%d confidence=%.2f outcome=%s\n", label, v.Category(), v.RiskScore(), v.Confidence(), v.Outcome())
	if v.NeedsReview() {
		fmt.Fprintln(w, "  needs review")
	}
	for _, line := range v.Rationale() {
		fmt.Fprintf(w, "  - %s\n", line)
	}
	for _, c := range v.Counterfactuals() {
		fmt.Fprintf(w, "  without %s (%+d): risk %d\n", c.Rule, c.Delta, c.ScoreWithout)
	}
	fmt.Fprintf(w, "  digest %s\n", v.Digest())
}
