// Package rules is a backward-chaining evaluator over a frozen fact
// snapshot. Rule sets are validated once at load time; engines are
// per-request and discarded afterwards.
package rules

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danielpatrickdp/clause-adjudicator/internal/facts"
	"github.com/danielpatrickdp/clause-adjudicator/internal/fault"
)

var (
	ErrDuplicateRule = errors.New("duplicate rule name")
	ErrMalformedRule = errors.New("malformed rule")
	ErrCycle         = errors.New("cycle detected")
)

// #region types
// Condition requires a fact to evaluate to exactly Value.
type Condition struct {
	Fact  string
	Value facts.Value
}

// Conclusion is the single fact a rule asserts when it fires.
type Conclusion struct {
	Fact  string
	Value facts.Value
}

// Rule fires iff every condition holds. Higher Priority is tried first;
// equal priorities keep declaration order. RiskDelta is added to the
// verdict score when the rule fires.
type Rule struct {
	Name        string
	Conditions  []Condition
	Conclusion  Conclusion
	Priority    int
	RiskDelta   int
	Description string
}

// #endregion types

// #region ruleset
// RuleSet is an immutable, validated, ordered rule table.
type RuleSet struct {
	rules        []Rule           // priority order
	byConclusion map[string][]int // fact -> indices into rules, priority order
}

// NewRuleSet validates rules and fixes their evaluation order. Duplicate
// names, malformed rules and dependency cycles are configuration errors.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fault.Configf("rules", ErrMalformedRule, "rule %d has no name", i)
		}
		if seen[r.Name] {
			return nil, fault.Configf("rules", ErrDuplicateRule, "%q", r.Name)
		}
		seen[r.Name] = true
		if err := validateRule(r); err != nil {
			return nil, err
		}
	}

	ordered := make([]Rule, len(rules))
	for i, r := range rules {
		ordered[i] = cloneRule(r)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	rs := &RuleSet{rules: ordered, byConclusion: make(map[string][]int)}
	for i, r := range ordered {
		rs.byConclusion[r.Conclusion.Fact] = append(rs.byConclusion[r.Conclusion.Fact], i)
	}
	if err := rs.validateAcyclic(); err != nil {
		return nil, err
	}
	return rs, nil
}

func validateRule(r Rule) error {
	if r.Conclusion.Fact == "" {
		return fault.Configf("rules", ErrMalformedRule, "%q has no conclusion fact", r.Name)
	}
	if !r.Conclusion.Value.IsValid() {
		return fault.Configf("rules", ErrMalformedRule, "%q has an invalid conclusion value", r.Name)
	}
	if len(r.Conditions) == 0 {
		return fault.Configf("rules", ErrMalformedRule, "%q has no conditions", r.Name)
	}
	for _, c := range r.Conditions {
		if c.Fact == "" || !c.Value.IsValid() {
			return fault.Configf("rules", ErrMalformedRule, "%q has an empty or invalid condition", r.Name)
		}
	}
	return nil
}

func cloneRule(r Rule) Rule {
	conds := make([]Condition, len(r.Conditions))
	copy(conds, r.Conditions)
	r.Conditions = conds
	return r
}

// Rules returns the rules in evaluation order.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	for i, r := range rs.rules {
		out[i] = cloneRule(r)
	}
	return out
}

// Derivable reports whether some rule concludes fact.
func (rs *RuleSet) Derivable(fact string) bool {
	return len(rs.byConclusion[fact]) > 0
}

// Conclusions returns the sorted set of derivable fact names.
func (rs *RuleSet) Conclusions() []string {
	out := make([]string, 0, len(rs.byConclusion))
	for f := range rs.byConclusion {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// #endregion ruleset

// #region cycle-detection
// depGraph has one node per fact name and an edge from each rule's
// conclusion to each of its condition facts. Nodes are indexed in sorted
// name order so traversal is deterministic.
type depGraph struct {
	names    []string
	outgoing [][]int
	indeg    []int
}

func (rs *RuleSet) graph() depGraph {
	nameSet := make(map[string]bool)
	for _, r := range rs.rules {
		nameSet[r.Conclusion.Fact] = true
		for _, c := range r.Conditions {
			nameSet[c.Fact] = true
		}
	}
	g := depGraph{names: make([]string, 0, len(nameSet))}
	for n := range nameSet {
		g.names = append(g.names, n)
	}
	sort.Strings(g.names)
	index := make(map[string]int, len(g.names))
	for i, n := range g.names {
		index[n] = i
	}

	edges := make([]map[int]bool, len(g.names))
	for _, r := range rs.rules {
		from := index[r.Conclusion.Fact]
		if edges[from] == nil {
			edges[from] = make(map[int]bool)
		}
		for _, c := range r.Conditions {
			edges[from][index[c.Fact]] = true
		}
	}
	g.outgoing = make([][]int, len(g.names))
	g.indeg = make([]int, len(g.names))
	for from, tos := range edges {
		for to := range tos {
			g.outgoing[from] = append(g.outgoing[from], to)
			g.indeg[to]++
		}
		sort.Ints(g.outgoing[from])
	}
	return g
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// validateAcyclic runs Kahn's algorithm over the dependency graph and, if
// some node is never released, extracts one cycle for the error message.
func (rs *RuleSet) validateAcyclic() error {
	g := rs.graph()
	indeg := make([]int, len(g.indeg))
	copy(indeg, g.indeg)

	ready := &intMinHeap{}
	for i, d := range indeg {
		if d == 0 {
			heap.Push(ready, i)
		}
	}
	visited := 0
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		visited++
		for _, m := range g.outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	if visited == len(g.names) {
		return nil
	}
	path := g.findCycle()
	return fault.Configf("rules", ErrCycle, "%s", strings.Join(path, " -> "))
}

// findCycle returns one stable cycle witness as fact names, closed
// (first == last).
func (g depGraph) findCycle() []string {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(g.names))
	parent := make([]int, len(g.names))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.outgoing[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// back-edge u -> v: walk parents from u up to v
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}
	for i := range g.names {
		if color[i] == white && dfs(i) {
			break
		}
	}

	out := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		out = append(out, g.names[cycle[i]])
	}
	if len(out) == 0 {
		out = append(out, fmt.Sprintf("%d facts unresolved", len(g.names)))
	}
	return out
}

// #endregion cycle-detection
