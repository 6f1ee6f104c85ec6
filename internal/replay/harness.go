// Package replay re-runs recorded or hand-written cases through the
// adjudicator and checks that every run produces the same digest.
package replay

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/clause-adjudicator/internal/adjudicator"
	"github.com/danielpatrickdp/clause-adjudicator/internal/gate"
	"github.com/danielpatrickdp/clause-adjudicator/internal/store"
	"github.com/danielpatrickdp/clause-adjudicator/internal/verdict"
)

// DefaultRuns is how many times each case is judged when no count is given.
const DefaultRuns = 30

// #region types
// Case is a single request with its expectations.
type Case struct {
	ID       string
	Request  adjudicator.Request
	Expected Expected
}

// Expected lists the outputs a case must reproduce. Zero fields are not
// checked.
type Expected struct {
	Category gate.Band
	Outcome  verdict.Outcome
	Digest   string
	Error    string
}

// CaseResult captures the outcome of replaying one case.
type CaseResult struct {
	ID       string
	Runs     int
	Digest   string // digest of the first run
	Category gate.Band
	Stable   bool   // every run produced Digest
	Passed   bool   // stable and all expectations met
	Reason   string // first failed check
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total    int
	Passed   int
	Unstable int
	Failed   int
}

// #endregion types

// #region replay
// Run judges every case runs times (runs <= 0 means DefaultRuns). Cases run
// concurrently; results come back in case order. The error is set only
// when ctx ends early.
func Run(ctx context.Context, a *adjudicator.Adjudicator, cases []Case, runs int) ([]CaseResult, error) {
	if runs <= 0 {
		runs = DefaultRuns
	}
	results := make([]CaseResult, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runCase(a, c, runs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("replay cancelled: %w", err)
	}
	return results, nil
}

func runCase(a *adjudicator.Adjudicator, c Case, runs int) CaseResult {
	res := CaseResult{ID: c.ID, Runs: runs, Stable: true}
	var firstErr string
	for i := 0; i < runs; i++ {
		v, err := a.Adjudicate(c.Request)
		reason := adjudicator.ErrorReason(err)
		if i == 0 {
			firstErr = reason
			res.Digest = v.Digest()
			res.Category = v.Category()
			if err == nil {
				if vErr := v.Verify(); vErr != nil {
					res.Reason = vErr.Error()
				}
			}
			checkExpected(&res, c.Expected, v, err)
			continue
		}
		if reason != firstErr || v.Digest() != res.Digest {
			res.Stable = false
			if res.Reason == "" {
				res.Reason = fmt.Sprintf("run %d produced %q, first run %q", i, v.Digest(), res.Digest)
			}
			break
		}
	}
	res.Passed = res.Stable && res.Reason == ""
	return res
}

func checkExpected(res *CaseResult, exp Expected, v verdict.Verdict, err error) {
	if res.Reason != "" {
		return
	}
	got := adjudicator.ErrorReason(err)
	switch {
	case got != exp.Error:
		if err != nil {
			res.Reason = fmt.Sprintf("error %s (%v), want %q", got, err, exp.Error)
		} else {
			res.Reason = fmt.Sprintf("no error, want %q", exp.Error)
		}
	case err != nil:
	case exp.Category != "" && v.Category() != exp.Category:
		res.Reason = fmt.Sprintf("category %s, want %s", v.Category(), exp.Category)
	case exp.Outcome != "" && v.Outcome() != exp.Outcome:
		res.Reason = fmt.Sprintf("outcome %s, want %s", v.Outcome(), exp.Outcome)
	case exp.Digest != "" && v.Digest() != exp.Digest:
		res.Reason = fmt.Sprintf("digest %s, want %s", v.Digest(), exp.Digest)
	}
}

// #endregion replay

// #region stored
// Stored re-judges the most recent stored adjudications. Each stored
// verdict must still verify, and re-running its request must reproduce
// the stored digest.
func Stored(ctx context.Context, a *adjudicator.Adjudicator, st *store.Store, limit, runs int) ([]CaseResult, error) {
	recs, err := st.ListAdjudications(limit)
	if err != nil {
		return nil, err
	}
	cases := make([]Case, 0, len(recs))
	var broken []CaseResult
	for _, rec := range recs {
		if err := rec.Verdict.Verify(); err != nil {
			broken = append(broken, CaseResult{ID: rec.ID, Reason: fmt.Sprintf("stored verdict: %v", err)})
			continue
		}
		req, err := rec.Request.ToRequest(a.Authority())
		if err != nil {
			broken = append(broken, CaseResult{ID: rec.ID, Reason: fmt.Sprintf("rebuild request: %v", err)})
			continue
		}
		cases = append(cases, Case{ID: rec.ID, Request: req, Expected: Expected{Digest: rec.Verdict.Digest()}})
	}
	results, err := Run(ctx, a, cases, runs)
	return append(broken, results...), err
}

// #endregion stored

// #region summary
// Summarize computes aggregate stats from replay results.
func Summarize(results []CaseResult) ReplaySummary {
	s := ReplaySummary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Passed:
			s.Passed++
		case !r.Stable && r.Runs > 0:
			s.Unstable++
			s.Failed++
		default:
			s.Failed++
		}
	}
	return s
}

// #endregion summary
