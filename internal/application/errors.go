package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested container, slot or class does not exist.
	ErrNotFound = errors.New("application: not found")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message for a field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// ConflictError reports that a slot write overlapped committed bookings.
type ConflictError struct {
	Conflicts []scheduler.Conflict
}

func (e *ConflictError) Error() string {
	if e == nil || len(e.Conflicts) == 0 {
		return "schedule conflict"
	}
	messages := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		messages = append(messages, c.Message)
	}
	return "schedule conflict: " + strings.Join(messages, "; ")
}

// Generation infeasibility reasons.
const (
	ReasonNoSubjects       = "no_subjects"
	ReasonNoPlaceableSlots = "no_placeable_slots"
)

// InfeasibleGenerationError is returned when a timetable cannot be drafted.
type InfeasibleGenerationError struct {
	ClassID string
	Reason  string
	// ContainerID names an empty draft that could not be removed and
	// CleanupErr says why.
	ContainerID string
	CleanupErr  error
}

func (e *InfeasibleGenerationError) Error() string {
	var msg string
	switch e.Reason {
	case ReasonNoSubjects:
		msg = fmt.Sprintf("no subjects assigned to class %s", e.ClassID)
	case ReasonNoPlaceableSlots:
		msg = fmt.Sprintf("no conflict-free slots could be placed for class %s", e.ClassID)
	default:
		msg = fmt.Sprintf("timetable generation infeasible for class %s: %s", e.ClassID, e.Reason)
	}
	if e.ContainerID != "" {
		msg += fmt.Sprintf("; empty draft container %s could not be removed", e.ContainerID)
	}
	return msg
}

func (e *InfeasibleGenerationError) Unwrap() error {
	return e.CleanupErr
}

// PersistenceError wraps a storage failure. Its message is safe to log but
// clients only ever see a generic text.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// StateError reports a lifecycle transition that is not allowed from the
// container's current status.
type StateError struct {
	ContainerID string
	Kind        scheduler.Kind
	Status      scheduler.Status
	Action      string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s %s container %s in status %s", e.Action, e.Kind, e.ContainerID, e.Status)
}

// storeError converts repository errors into the service taxonomy.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		vErr     *ValidationError
		cErr     *ConflictError
		sErr     *StateError
		pErr     *PersistenceError
		feasible *InfeasibleGenerationError
	)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnauthorized),
		errors.As(err, &vErr), errors.As(err, &cErr), errors.As(err, &sErr),
		errors.As(err, &pErr), errors.As(err, &feasible):
		return err
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add("reference", "related records are missing")
		return vErr
	}
	return &PersistenceError{Op: op, Err: err}
}
