package rules

import (
	"fmt"

	"github.com/danielpatrickdp/clause-adjudicator/internal/authority"
	"github.com/danielpatrickdp/clause-adjudicator/internal/facts"
)

// #region results
// Status is the outcome of evaluating a goal. Unknown is distinct from a
// proven false and must never be coerced into one.
type Status int

const (
	StatusUnknown Status = iota
	StatusProven
)

func (s Status) String() string {
	if s == StatusProven {
		return "PROVEN"
	}
	return "UNKNOWN"
}

// Via says where a proven value came from.
type Via string

const (
	ViaNone Via = ""
	ViaFact Via = "fact"
	ViaRule Via = "rule"
)

// ProofResult is the answer for one goal.
type ProofResult struct {
	Goal   string
	Status Status
	Value  facts.Value          // valid only when Status == StatusProven
	Via    Via
	Rule   string               // firing rule when Via == ViaRule
	Source *authority.SourceRef // provenance when Via == ViaFact
}

// Known reports whether the goal was established.
func (p ProofResult) Known() bool { return p.Status == StatusProven }

// Check is one condition test performed while trying a rule.
type Check struct {
	Rule     string
	Fact     string
	Expected facts.Value
	Actual   ProofResult
}

// Held reports whether the condition matched exactly.
func (c Check) Held() bool {
	return c.Actual.Known() && c.Actual.Value.Equal(c.Expected)
}

func (c Check) String() string {
	if !c.Actual.Known() {
		return fmt.Sprintf("%s is unknown, needed %s", c.Fact, c.Expected)
	}
	return fmt.Sprintf("%s is %s, needed %s", c.Fact, c.Actual.Value, c.Expected)
}

// Attempt records one rule tried for a goal. Checks stop at the first
// condition that failed.
type Attempt struct {
	Rule   string
	Goal   string
	Fired  bool
	Checks []Check
}

// Blocker returns the failing check, if the attempt did not fire.
func (a Attempt) Blocker() (Check, bool) {
	if a.Fired || len(a.Checks) == 0 {
		return Check{}, false
	}
	return a.Checks[len(a.Checks)-1], true
}

// Firing is a rule that fired, in the order rules fired.
type Firing struct {
	Rule        string
	Goal        string
	Value       facts.Value
	RiskDelta   int
	Description string
}

// Explanation describes why a goal has the status it has. Chain is the
// sequence of blocking conditions, outermost first, starting from the first
// candidate rule that did not fire and descending into any unknown
// derivable condition that blocked it.
type Explanation struct {
	Goal     string
	Result   ProofResult
	Chain    []Check
	Attempts []Attempt
}

// #endregion results

// #region engine
// Engine evaluates goals for one request. It is not safe for concurrent
// use; create one per request.
type Engine struct {
	rs       *RuleSet
	snapshot facts.Snapshot
	memo     map[string]ProofResult
	attempts map[string][]Attempt
	firings  []Firing
}

// NewEngine binds the rule set to a frozen snapshot.
func (rs *RuleSet) NewEngine(snapshot facts.Snapshot) *Engine {
	return &Engine{
		rs:       rs,
		snapshot: snapshot,
		memo:     make(map[string]ProofResult),
		attempts: make(map[string][]Attempt),
	}
}

// Evaluate establishes goal: first from the snapshot, otherwise by trying
// candidate rules in priority order. The first rule whose conditions all
// hold fires and its value is memoized. Unknown results are memoized too,
// so every goal has a single answer per request.
func (e *Engine) Evaluate(goal string) ProofResult {
	if res, ok := e.memo[goal]; ok {
		return res
	}
	if f, ok := e.snapshot.Get(goal); ok {
		res := ProofResult{Goal: goal, Status: StatusProven, Value: f.Value, Via: ViaFact, Source: f.Source}
		e.memo[goal] = res
		return res
	}

	res := ProofResult{Goal: goal, Status: StatusUnknown}
	for _, idx := range e.rs.byConclusion[goal] {
		r := e.rs.rules[idx]
		att := Attempt{Rule: r.Name, Goal: goal, Fired: true}
		for _, c := range r.Conditions {
			chk := Check{Rule: r.Name, Fact: c.Fact, Expected: c.Value, Actual: e.Evaluate(c.Fact)}
			att.Checks = append(att.Checks, chk)
			if !chk.Held() {
				att.Fired = false
				break
			}
		}
		e.attempts[goal] = append(e.attempts[goal], att)
		if att.Fired {
			res = ProofResult{Goal: goal, Status: StatusProven, Value: r.Conclusion.Value, Via: ViaRule, Rule: r.Name}
			e.firings = append(e.firings, Firing{
				Rule:        r.Name,
				Goal:        goal,
				Value:       r.Conclusion.Value,
				RiskDelta:   r.RiskDelta,
				Description: r.Description,
			})
			break
		}
	}
	e.memo[goal] = res
	return res
}

// Explain evaluates goal if needed and reports the actual evaluation path.
func (e *Engine) Explain(goal string) Explanation {
	ex := Explanation{Goal: goal, Result: e.Evaluate(goal)}
	ex.Attempts = append(ex.Attempts, e.attempts[goal]...)

	visited := map[string]bool{}
	for cur := goal; !visited[cur]; {
		visited[cur] = true
		blocker, ok := e.firstBlocker(cur)
		if !ok {
			break
		}
		ex.Chain = append(ex.Chain, blocker)
		if blocker.Actual.Known() || !e.rs.Derivable(blocker.Fact) {
			break
		}
		cur = blocker.Fact
	}
	return ex
}

func (e *Engine) firstBlocker(goal string) (Check, bool) {
	for _, att := range e.attempts[goal] {
		if chk, ok := att.Blocker(); ok {
			return chk, true
		}
	}
	return Check{}, false
}

// Firings returns the rules that fired so far, in firing order.
func (e *Engine) Firings() []Firing {
	out := make([]Firing, len(e.firings))
	copy(out, e.firings)
	return out
}

// Attempts returns every rule attempt recorded for goal.
func (e *Engine) Attempts(goal string) []Attempt {
	out := make([]Attempt, len(e.attempts[goal]))
	copy(out, e.attempts[goal])
	return out
}

// #endregion engine
