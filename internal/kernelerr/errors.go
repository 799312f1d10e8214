// Package kernelerr gives every failure a Kind so the daemon and the
// verify CLI can map errors to process exit codes without string
// matching. The source never needed this (it only ever logged and
// returned plain wrapped errors); a governance kernel that gates on
// failure class does.
package kernelerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for exit-code and logging purposes.
type Kind string

const (
	KindTransport  Kind = "transport"
	KindParse      Kind = "parse"
	KindValidation Kind = "validation"
	KindPolicyCap  Kind = "policy_cap"
	KindTimeout    Kind = "timeout"
	KindIntegrity  Kind = "integrity"
	KindConfig     Kind = "config"
)

// KernelError wraps an underlying error with a Kind and the role or
// pipeline step it occurred in.
type KernelError struct {
	Kind      Kind
	RoleOrSeq string
	Err       error
}

func (e *KernelError) Error() string {
	if e.RoleOrSeq == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s[%s]: %v", e.Kind, e.RoleOrSeq, e.Err)
}

func (e *KernelError) Unwrap() error { return e.Err }

// New wraps err with a Kind and a role/sequence label.
func New(kind Kind, roleOrSeq string, err error) error {
	if err == nil {
		return nil
	}
	return &KernelError{Kind: kind, RoleOrSeq: roleOrSeq, Err: err}
}

// Newf builds a KernelError directly from a format string.
func Newf(kind Kind, roleOrSeq, format string, args ...any) error {
	return &KernelError{Kind: kind, RoleOrSeq: roleOrSeq, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err, walking the unwrap chain. Returns
// ("", false) if err carries no KernelError.
func KindOf(err error) (Kind, bool) {
	var ke *KernelError
	if errors.As(err, &ke) {
		return ke.Kind, true
	}
	return "", false
}

// Is reports whether err (or something it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
