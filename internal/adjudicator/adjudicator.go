// Package adjudicator wires the fact store, authority resolver, rule
// engine, pattern scorer, hybrid gate and verdict builder into one pure
// pipeline. An Adjudicator holds only immutable tables and is safe for
// concurrent use; all per-request state lives inside a single call.
package adjudicator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/clause-adjudicator/internal/authority"
	"github.com/danielpatrickdp/clause-adjudicator/internal/config"
	"github.com/danielpatrickdp/clause-adjudicator/internal/eval"
	"github.com/danielpatrickdp/clause-adjudicator/internal/facts"
	"github.com/danielpatrickdp/clause-adjudicator/internal/fault"
	"github.com/danielpatrickdp/clause-adjudicator/internal/gate"
	"github.com/danielpatrickdp/clause-adjudicator/internal/logging"
	"github.com/danielpatrickdp/clause-adjudicator/internal/patterns"
	"github.com/danielpatrickdp/clause-adjudicator/internal/rules"
	"github.com/danielpatrickdp/clause-adjudicator/internal/verdict"
)

// #region adjudicator-struct
// Adjudicator is the configured pipeline.
type Adjudicator struct {
	table   *authority.Table
	rules   *rules.RuleSet
	goals   []string
	scorer  *patterns.Scorer
	gate    *gate.Gate
	builder *verdict.Builder
	harness *eval.EvalHarness
	log     *slog.Logger
}

// #endregion adjudicator-struct

// #region constructor
// New builds every component from cfg. Any malformed table or policy is
// returned as a configuration error and nothing is constructed.
func New(cfg config.Config) (*Adjudicator, error) {
	table, err := authority.NewTable(cfg.Authority)
	if err != nil {
		return nil, err
	}
	rs, err := rules.NewRuleSet(cfg.Rules)
	if err != nil {
		return nil, err
	}
	if len(cfg.Goals) == 0 {
		return nil, fault.Configf("config", nil, "no goals configured")
	}
	scorer, err := patterns.NewScorer(cfg.Patterns)
	if err != nil {
		return nil, err
	}
	g, err := gate.NewGate(cfg.Gate)
	if err != nil {
		return nil, err
	}
	b, err := verdict.NewBuilder(cfg.Policy)
	if err != nil {
		return nil, err
	}

	a := &Adjudicator{
		table:   table,
		rules:   rs,
		goals:   append([]string(nil), cfg.Goals...),
		scorer:  scorer,
		gate:    g,
		builder: b,
		harness: eval.NewEvalHarness(cfg.Eval),
		log:     logging.New("adjudicator"),
	}
	a.log.Debug("adjudicator ready",
		"rules", rs.Len(), "patterns", scorer.Len(), "goals", len(a.goals),
		"high_threshold", cfg.Gate.HighThreshold, "low_threshold", cfg.Gate.LowThreshold)
	return a, nil
}

// Authority returns the authority table so that callers can build
// SourceRefs for their facts.
func (a *Adjudicator) Authority() *authority.Table { return a.table }

// Goals returns the goals evaluated for every request.
func (a *Adjudicator) Goals() []string { return append([]string(nil), a.goals...) }

// Policy returns the verdict policy in use.
func (a *Adjudicator) Policy() verdict.Policy { return a.builder.Policy() }

// GateConfig returns the thresholds in use.
func (a *Adjudicator) GateConfig() gate.GateConfig { return a.gate.Config() }

// #endregion constructor

// #region adjudicate
// Adjudicate runs the pipeline and returns only the verdict.
func (a *Adjudicator) Adjudicate(req Request) (verdict.Verdict, error) {
	res, err := a.Run(req)
	if err != nil {
		return verdict.Verdict{}, err
	}
	return res.Verdict, nil
}

// Run resolves contested facts, evaluates every goal, scores the clause,
// applies the hybrid gate and builds the verdict. An unresolved authority
// tie fails the request with an error wrapping fault.ErrUnresolvedConflict.
func (a *Adjudicator) Run(req Request) (Result, error) {
	start := time.Now()
	res, err := a.run(req)
	adjudicationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		adjudicationErrors.WithLabelValues(ErrorReason(err)).Inc()
		return Result{}, err
	}
	adjudicationsTotal.WithLabelValues(string(res.Verdict.Category())).Inc()
	riskScore.Observe(float64(res.Verdict.RiskScore()))
	if tb := res.Decision.TieBreak; tb != gate.TieBreakNone {
		tieBreaksTotal.WithLabelValues(string(tb)).Inc()
	}
	logging.WithRequest(a.log, req.ID).Debug("adjudicated",
		"category", res.Verdict.Category(),
		"score", res.Verdict.RiskScore(),
		"confidence", res.Verdict.Confidence(),
		"digest", res.Verdict.Digest())
	return res, nil
}

func (a *Adjudicator) run(req Request) (Result, error) {
	if !req.NeuralBand.Valid() {
		return Result{}, fmt.Errorf("%w: neural band %q", ErrInvalidRequest, req.NeuralBand)
	}

	snap, resolutions, err := a.resolve(req.Facts)
	if err != nil {
		logging.WithRequest(a.log, req.ID).Warn("unresolved authority conflict", "error", err)
		return Result{}, fmt.Errorf("adjudicate %s: %w", requestLabel(req), err)
	}

	engine := a.rules.NewEngine(snap)
	explanations := make([]rules.Explanation, 0, len(a.goals))
	var unknown []verdict.UnknownGoal
	for _, goal := range a.goals {
		ex := engine.Explain(goal)
		explanations = append(explanations, ex)
		if !ex.Result.Known() {
			unknown = append(unknown, verdict.UnknownGoal{Goal: goal, Blocker: blockerText(ex.Chain)})
		}
	}

	scored := a.scorer.Score(req.ClauseText)
	decision := a.gate.Evaluate(scored, req.NeuralBand)

	v, err := a.builder.Build(verdict.Inputs{
		Resolutions: resolutions,
		Firings:     engine.Firings(),
		Unknown:     unknown,
		Patterns:    scored,
		Decision:    decision,
	})
	if err != nil {
		return Result{}, fmt.Errorf("build verdict: %w", err)
	}

	check := a.harness.Run(v)
	if !check.Passed {
		return Result{}, fmt.Errorf("%w: %s", ErrVerdictCheck, check.Reason)
	}

	return Result{
		Verdict:      v,
		Facts:        snap,
		Patterns:     scored,
		Decision:     decision,
		Explanations: explanations,
		Resolutions:  resolutions,
		Eval:         check,
		Gate:         a.gate.Config(),
		Policy:       a.builder.Policy(),
	}, nil
}

// resolve settles every contested fact by authority. Only sourced
// assertions take part; the winner replaces the last-write-wins value.
func (a *Adjudicator) resolve(snap facts.Snapshot) (facts.Snapshot, []verdict.Resolution, error) {
	var out []verdict.Resolution
	var conflicts []error
	for _, name := range snap.Contested() {
		var claims []authority.Claim[facts.Value]
		for _, f := range snap.History(name) {
			if f.Source != nil {
				claims = append(claims, authority.Claim[facts.Value]{Value: f.Value, Source: *f.Source})
			}
		}
		res, err := authority.Resolve(name, claims)
		if err != nil {
			conflicts = append(conflicts, err)
			continue
		}
		src := res.Winner.Source
		snap = snap.WithEffective(facts.Fact{Name: name, Value: res.Winner.Value, Source: &src})

		overruled := make([]string, 0, len(res.Overruled))
		for _, c := range res.Overruled {
			overruled = append(overruled, c.String())
		}
		out = append(out, verdict.Resolution{
			Fact:      name,
			Value:     res.Winner.Value.String(),
			Source:    src.String(),
			Overruled: overruled,
		})
	}
	if len(conflicts) > 0 {
		return facts.Snapshot{}, nil, errors.Join(conflicts...)
	}
	return snap, out, nil
}

// #endregion adjudicate

// #region batch
// AdjudicateBatch runs requests concurrently, at most parallel at a time
// (parallel <= 0 means unbounded). Per-request failures are reported in
// the matching Outcome; the returned error is set only when ctx ends
// before every request has started, and the skipped outcomes carry
// ErrNotStarted.
func (a *Adjudicator) AdjudicateBatch(ctx context.Context, reqs []Request, parallel int) ([]Outcome, error) {
	out := make([]Outcome, len(reqs))
	for i, req := range reqs {
		out[i] = Outcome{Index: i, ID: req.ID, Err: ErrNotStarted}
	}
	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, req := range reqs {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := a.Run(req)
			out[i] = Outcome{Index: i, ID: req.ID, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, fmt.Errorf("batch cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("batch cancelled: %w", err)
	}
	return out, nil
}

// #endregion batch

// #region helpers
func blockerText(chain []rules.Check) string {
	if len(chain) == 0 {
		return ""
	}
	parts := make([]string, 0, len(chain))
	for _, c := range chain {
		parts = append(parts, fmt.Sprintf("rule %s blocked: %s", c.Rule, c))
	}
	return strings.Join(parts, "; ")
}

func requestLabel(req Request) string {
	if req.ID != "" {
		return req.ID
	}
	return "request"
}

// ErrorReason maps a pipeline error to a short label used by metrics,
// audit rows and fixtures.
func ErrorReason(err error) string {
	switch {
	case errors.Is(err, fault.ErrUnresolvedConflict):
		return "unresolved_conflict"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrVerdictCheck):
		return "verdict_check"
	case err == nil:
		return ""
	}
	return "other"
}

// #endregion helpers
