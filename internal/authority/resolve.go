package authority

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danielpatrickdp/clause-adjudicator/internal/fault"
)

// ErrNoClaims is returned when Resolve is called with nothing to resolve.
var ErrNoClaims = errors.New("no claims to resolve")

// #region claim
// Claim is one sourced assertion of a value for a fact.
type Claim[V comparable] struct {
	Value  V
	Source SourceRef
}

func (c Claim[V]) String() string {
	return fmt.Sprintf("%v from %s", c.Value, c.Source)
}

// Resolution records how a contested fact was settled.
type Resolution[V comparable] struct {
	Fact      string
	Winner    Claim[V]
	Overruled []Claim[V] // claims whose value differs from the winner's
}

// #endregion claim

// #region resolve
// Resolve picks the claim with the highest authority level, breaking level
// ties by binding status. When the top claims tie on both axes and disagree
// on value, Resolve returns a *fault.ConflictError rather than picking one.
// The outcome does not depend on the order of claims.
func Resolve[V comparable](fact string, claims []Claim[V]) (Resolution[V], error) {
	if len(claims) == 0 {
		return Resolution[V]{}, fmt.Errorf("resolve %q: %w", fact, ErrNoClaims)
	}

	ranked := make([]Claim[V], len(claims))
	copy(ranked, claims)
	sort.SliceStable(ranked, func(i, j int) bool {
		if c := Compare(ranked[i].Source, ranked[j].Source); c != 0 {
			return c > 0
		}
		// same rank: order by rendering so that ties on equal values
		// still pick the same representative regardless of input order
		return ranked[i].String() < ranked[j].String()
	})

	winner := ranked[0]
	var tied []string
	for _, c := range ranked[1:] {
		if Compare(c.Source, winner.Source) != 0 {
			break
		}
		if c.Value != winner.Value {
			tied = append(tied, c.String())
		}
	}
	if len(tied) > 0 {
		return Resolution[V]{}, &fault.ConflictError{
			Fact:   fact,
			Claims: append([]string{winner.String()}, tied...),
		}
	}

	res := Resolution[V]{Fact: fact, Winner: winner}
	for _, c := range ranked[1:] {
		if c.Value != winner.Value {
			res.Overruled = append(res.Overruled, c)
		}
	}
	return res, nil
}

// #endregion resolve
