package authority

import (
	"encoding/json"
	"fmt"
)

// #region system
// System identifies the legal tradition a source belongs to.
type System string

const (
	CivilLaw  System = "CIVIL_LAW"
	CommonLaw System = "COMMON_LAW"
)

// Valid reports whether s is a known legal system.
func (s System) Valid() bool {
	return s == CivilLaw || s == CommonLaw
}

// #endregion system

// #region binding-status
// BindingStatus describes how strongly a source binds the court.
type BindingStatus string

const (
	Mandatory  BindingStatus = "MANDATORY"  // ordre public, cannot be contracted out of
	Default    BindingStatus = "DEFAULT"    // applies unless the parties exclude it
	Persuasive BindingStatus = "PERSUASIVE" // doctrine, foreign case law
)

// Valid reports whether b is a known binding status.
func (b BindingStatus) Valid() bool {
	return b.rank() > 0
}

// rank orders binding statuses for tie-breaks: MANDATORY > DEFAULT > PERSUASIVE.
func (b BindingStatus) rank() int {
	switch b {
	case Mandatory:
		return 3
	case Default:
		return 2
	case Persuasive:
		return 1
	}
	return 0
}

// #endregion binding-status

// #region source-ref
// SourceRef is the provenance of an asserted fact. Its authority level and
// binding status are fixed at construction by a Table lookup and cannot be
// changed afterwards. The zero value is not a valid source.
type SourceRef struct {
	system System
	kind   string
	level  int
	status BindingStatus
}

func (s SourceRef) System() System        { return s.system }
func (s SourceRef) Kind() string          { return s.kind }
func (s SourceRef) Level() int            { return s.level }
func (s SourceRef) Status() BindingStatus { return s.status }

// IsZero reports whether s was never produced by a Table.
func (s SourceRef) IsZero() bool {
	return s.system == "" && s.kind == ""
}

func (s SourceRef) String() string {
	return fmt.Sprintf("%s/%s (%d, %s)", s.system, s.kind, s.level, s.status)
}

type sourceRefJSON struct {
	System         System        `json:"system"`
	Kind           string        `json:"kind"`
	AuthorityLevel int           `json:"authority_level"`
	BindingStatus  BindingStatus `json:"binding_status"`
}

// MarshalJSON exposes the looked-up values for audit output. There is no
// UnmarshalJSON: a SourceRef read back from storage must be looked up again.
func (s SourceRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(sourceRefJSON{
		System:         s.system,
		Kind:           s.kind,
		AuthorityLevel: s.level,
		BindingStatus:  s.status,
	})
}

// Compare orders two sources by authority level, then binding status.
// It returns a positive number when a outranks b, negative when b outranks a,
// and zero when they tie on both axes.
func Compare(a, b SourceRef) int {
	if a.level != b.level {
		return a.level - b.level
	}
	return a.status.rank() - b.status.rank()
}

// #endregion source-ref
