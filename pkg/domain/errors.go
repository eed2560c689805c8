package domain

import "fmt"

// InvalidFieldError reports a validation failure on a named field. Commands
// reject the mutation before any state change.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Kind EntityType
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ConflictError reports a mutation that would violate a referential
// invariant, such as deleting an occupied room.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Reason)
}

// PersistenceWarning reports a durable write that failed after the in-memory
// commit succeeded. It is non-fatal: the in-memory state stays authoritative
// until the next successful save.
type PersistenceWarning struct {
	Cause error
}

func (e PersistenceWarning) Error() string {
	return fmt.Sprintf("snapshot not durably written: %v", e.Cause)
}

func (e PersistenceWarning) Unwrap() error { return e.Cause }
