package authority

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danielpatrickdp/clause-adjudicator/internal/fault"
)

// ErrMalformedTable marks a rejected authority table.
var ErrMalformedTable = errors.New("malformed authority table")

// #region entry
// Entry maps a (system, kind) pair to its fixed authority level and status.
type Entry struct {
	System System
	Kind   string
	Level  int
	Status BindingStatus
}

type entryKey struct {
	system System
	kind   string
}

// #endregion entry

// #region table
// Table is the immutable authority lookup. It is built once at startup and
// shared read-only across requests.
type Table struct {
	entries map[entryKey]Entry
	order   []entryKey
}

// NewTable validates entries and builds a Table. Duplicate (system, kind)
// pairs, unknown systems or statuses and levels outside 0..100 are rejected.
func NewTable(entries []Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, fault.Configf("authority", ErrMalformedTable, "table is empty")
	}
	t := &Table{entries: make(map[entryKey]Entry, len(entries))}
	for i, e := range entries {
		if !e.System.Valid() {
			return nil, fault.Configf("authority", ErrMalformedTable, "entry %d: unknown system %q", i, e.System)
		}
		if e.Kind == "" {
			return nil, fault.Configf("authority", ErrMalformedTable, "entry %d: empty kind", i)
		}
		if e.Level < 0 || e.Level > 100 {
			return nil, fault.Configf("authority", ErrMalformedTable, "entry %s/%s: level %d outside 0..100", e.System, e.Kind, e.Level)
		}
		if !e.Status.Valid() {
			return nil, fault.Configf("authority", ErrMalformedTable, "entry %s/%s: unknown binding status %q", e.System, e.Kind, e.Status)
		}
		k := entryKey{system: e.System, kind: e.Kind}
		if _, dup := t.entries[k]; dup {
			return nil, fault.Configf("authority", ErrMalformedTable, "duplicate entry %s/%s", e.System, e.Kind)
		}
		t.entries[k] = e
		t.order = append(t.order, k)
	}
	return t, nil
}

// Source looks up the SourceRef for a (system, kind) pair. This is the only
// way to obtain a non-zero SourceRef.
func (t *Table) Source(system System, kind string) (SourceRef, error) {
	e, ok := t.entries[entryKey{system: system, kind: kind}]
	if !ok {
		return SourceRef{}, fmt.Errorf("unknown authority source %s/%s", system, kind)
	}
	return SourceRef{system: e.System, kind: e.Kind, level: e.Level, status: e.Status}, nil
}

// Entries returns the table in declaration order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.entries[k])
	}
	return out
}

// Kinds returns the sorted source kinds known for a system.
func (t *Table) Kinds(system System) []string {
	var kinds []string
	for _, k := range t.order {
		if k.system == system {
			kinds = append(kinds, k.kind)
		}
	}
	sort.Strings(kinds)
	return kinds
}

// #endregion table

// #region defaults
// DefaultEntries is the hierarchy of legal sources for both systems.
// Levels follow the classic pyramid: constitution 100, statute 90,
// regulation 80, supreme court 70, appellate 60, trial 50, doctrine 40,
// the contract itself 30.
func DefaultEntries() []Entry {
	return []Entry{
		{CivilLaw, "CONSTITUTIONAL", 100, Mandatory},
		{CivilLaw, "STATUTORY_PUBLIC_ORDER", 90, Mandatory},
		{CivilLaw, "STATUTORY", 90, Default},
		{CivilLaw, "REGULATORY", 80, Mandatory},
		{CivilLaw, "SUPREME_COURT", 70, Persuasive},
		{CivilLaw, "APPELLATE_COURT", 60, Persuasive},
		{CivilLaw, "TRIAL_COURT", 50, Persuasive},
		{CivilLaw, "DOCTRINE", 40, Persuasive},
		{CivilLaw, "CONTRACTUAL", 30, Default},

		{CommonLaw, "CONSTITUTIONAL", 100, Mandatory},
		{CommonLaw, "STATUTORY", 90, Mandatory},
		{CommonLaw, "STATUTORY_DEFAULT", 90, Default},
		{CommonLaw, "REGULATORY", 80, Mandatory},
		{CommonLaw, "SUPREME_COURT", 70, Mandatory},
		{CommonLaw, "APPELLATE_COURT", 60, Mandatory},
		{CommonLaw, "TRIAL_COURT", 50, Persuasive},
		{CommonLaw, "FOREIGN_CASE_LAW", 40, Persuasive},
		{CommonLaw, "DOCTRINE", 40, Persuasive},
		{CommonLaw, "CONTRACTUAL", 30, Default},
	}
}

// DefaultTable builds the table from DefaultEntries.
func DefaultTable() *Table {
	t, err := NewTable(DefaultEntries())
	if err != nil {
		panic(fmt.Sprintf("default authority table: %v", err))
	}
	return t
}

// #endregion defaults
