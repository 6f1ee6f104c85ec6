// Package fault holds the error taxonomy shared by the adjudication packages.
//
// Configuration problems are fatal at load time and unwrap to ErrConfiguration.
// Unresolved authority ties are per-request failures and unwrap to
// ErrUnresolvedConflict. A goal that cannot be derived is not an error at all;
// the rule engine reports it as an UNKNOWN result.
package fault

import (
	"errors"
	"fmt"
	"strings"
)

// #region sentinels
var (
	ErrConfiguration      = errors.New("configuration error")
	ErrUnresolvedConflict = errors.New("unresolved conflict")
)

// #endregion sentinels

// #region config-error
// ConfigError reports a malformed table or rule set detected while loading.
type ConfigError struct {
	Component string // "rules" | "patterns" | "authority" | "gate" | "verdict" | "config"
	Kind      error  // component-specific sentinel, may be nil
	Msg       string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(ErrConfiguration.Error())
	if e.Component != "" {
		b.WriteString(" [")
		b.WriteString(e.Component)
		b.WriteString("]")
	}
	if e.Kind != nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.Error())
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

// Unwrap exposes both ErrConfiguration and the component kind to errors.Is.
func (e *ConfigError) Unwrap() []error {
	if e.Kind == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Kind}
}

// Configf builds a ConfigError for the given component.
func Configf(component string, kind error, format string, args ...any) error {
	return &ConfigError{Component: component, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// #endregion config-error

// #region conflict-error
// ConflictError names a fact whose competing assertions tie on authority
// level and binding status while disagreeing on value.
type ConflictError struct {
	Fact   string
	Claims []string // human-readable description of each tied claim
}

func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: fact %q: %s", ErrUnresolvedConflict.Error(), e.Fact, strings.Join(e.Claims, " vs "))
}

func (e *ConflictError) Unwrap() error { return ErrUnresolvedConflict }

// #endregion conflict-error
