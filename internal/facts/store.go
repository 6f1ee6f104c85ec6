// Package facts holds the typed, request-scoped fact container fed by the
// interpretation layer and read by the rule engine.
package facts

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danielpatrickdp/clause-adjudicator/internal/authority"
)

var (
	ErrEmptyName    = errors.New("fact name is empty")
	ErrInvalidValue = errors.New("fact value is invalid")
	ErrZeroSource   = errors.New("fact source was not looked up from an authority table")
)

// #region fact
// Fact is a named value with optional provenance.
type Fact struct {
	Name   string
	Value  Value
	Source *authority.SourceRef
}

func (f Fact) validate() error {
	if f.Name == "" {
		return ErrEmptyName
	}
	if !f.Value.IsValid() {
		return fmt.Errorf("%q: %w", f.Name, ErrInvalidValue)
	}
	if f.Source != nil && f.Source.IsZero() {
		return fmt.Errorf("%q: %w", f.Name, ErrZeroSource)
	}
	return nil
}

// #endregion fact

// #region store
// Store collects assertions for one adjudication request. Every assertion is
// kept for audit; lookups see the latest one per name.
type Store struct {
	log []Fact
}

func NewStore() *Store {
	return &Store{}
}

// Assert appends a fact. Re-asserting a name supersedes the earlier value
// but the earlier assertion stays in the history.
func (s *Store) Assert(f Fact) error {
	if err := f.validate(); err != nil {
		return fmt.Errorf("assert: %w", err)
	}
	if f.Source != nil {
		src := *f.Source
		f.Source = &src
	}
	s.log = append(s.log, f)
	return nil
}

// Set is Assert without provenance.
func (s *Store) Set(name string, v Value) error {
	return s.Assert(Fact{Name: name, Value: v})
}

// Len returns the number of assertions, not distinct names.
func (s *Store) Len() int {
	return len(s.log)
}

// Freeze returns an immutable snapshot of the current assertions. The store
// may keep receiving facts; the snapshot does not see them.
func (s *Store) Freeze() Snapshot {
	log := make([]Fact, len(s.log))
	copy(log, s.log)
	latest := make(map[string]int, len(log))
	for i, f := range log {
		latest[f.Name] = i
	}
	return Snapshot{log: log, latest: latest}
}

// #endregion store

// #region snapshot
// Snapshot is a frozen view of a Store. It is safe to share between
// goroutines.
type Snapshot struct {
	log      []Fact
	latest   map[string]int
	override map[string]Fact
}

// Get returns the effective fact for name: an override installed by
// WithEffective if any, otherwise the last assertion.
func (s Snapshot) Get(name string) (Fact, bool) {
	if f, ok := s.override[name]; ok {
		return f, true
	}
	i, ok := s.latest[name]
	if !ok {
		return Fact{}, false
	}
	return s.log[i], true
}

// Names returns the distinct fact names in sorted order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.latest))
	for n := range s.latest {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of distinct names.
func (s Snapshot) Len() int {
	return len(s.latest)
}

// History returns every assertion of name in assertion order.
func (s Snapshot) History(name string) []Fact {
	var out []Fact
	for _, f := range s.log {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}

// Assertions returns the full assertion log in order.
func (s Snapshot) Assertions() []Fact {
	out := make([]Fact, len(s.log))
	copy(out, s.log)
	return out
}

// Contested returns, sorted, the names that have at least two sourced
// assertions with differing values. These are the inputs to authority
// resolution.
func (s Snapshot) Contested() []string {
	var out []string
	for _, name := range s.Names() {
		var first *Value
		for _, f := range s.log {
			if f.Name != name || f.Source == nil {
				continue
			}
			if first == nil {
				v := f.Value
				first = &v
				continue
			}
			if !first.Equal(f.Value) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// WithEffective returns a copy of s where Get(f.Name) yields f. History is
// unchanged. Used to install the winner of an authority resolution.
func (s Snapshot) WithEffective(f Fact) Snapshot {
	override := make(map[string]Fact, len(s.override)+1)
	for k, v := range s.override {
		override[k] = v
	}
	override[f.Name] = f
	s.override = override
	return s
}

// #endregion snapshot
