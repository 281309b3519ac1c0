// Package fault defines the error taxonomy shared by the ledgers, the
// reservation engine, and the HTTP layer. Errors are matched with errors.As;
// the HTTP status mapping lives in controllers.
package fault

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ConflictError reports a claim on a resource that is already held, or a
// mutation blocked by what currently holds it.
type ConflictError struct {
	Resource string
	ID       string
	Reason   string
}

func (e *ConflictError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %s: %s", e.Resource, e.ID, e.Reason)
	}
	return fmt.Sprintf("%s %s is already occupied", e.Resource, e.ID)
}

// InsufficientItem is one failing line of a batch decrement.
type InsufficientItem struct {
	EquipmentID string `json:"equipmentId"`
	Name        string `json:"name"`
	Requested   int    `json:"requested"`
	Remaining   int    `json:"remaining"`
}

// InsufficientError reports an all-or-nothing batch decrement that could not
// be satisfied. Items lists every line that fell short, not just the first.
type InsufficientError struct {
	Items []InsufficientItem
}

func (e *InsufficientError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		parts = append(parts, fmt.Sprintf("%s (want %d, have %d)", it.Name, it.Requested, it.Remaining))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// StaleError reports a state guard that failed at commit time: the record is
// no longer in the state the caller observed.
type StaleError struct {
	ID    string
	State string
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("reservation %s changed state concurrently (now %s)", e.ID, e.State)
}

// StateError reports an operation that is not legal from the record's
// current state.
type StateError struct {
	ID    string
	State string
	Op    string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s reservation %s in state %s", e.Op, e.ID, e.State)
}

// NotFoundError reports an unknown record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// AuthzError reports an actor without ownership or the required role.
type AuthzError struct {
	Reason string
}

func (e *AuthzError) Error() string { return e.Reason }

func IsValidation(err error) bool   { var t *ValidationError; return errors.As(err, &t) }
func IsConflict(err error) bool     { var t *ConflictError; return errors.As(err, &t) }
func IsInsufficient(err error) bool { var t *InsufficientError; return errors.As(err, &t) }
func IsStale(err error) bool        { var t *StaleError; return errors.As(err, &t) }
func IsState(err error) bool        { var t *StateError; return errors.As(err, &t) }
func IsNotFound(err error) bool     { var t *NotFoundError; return errors.As(err, &t) }
func IsAuthz(err error) bool        { var t *AuthzError; return errors.As(err, &t) }
