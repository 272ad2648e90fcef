package attribution

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed required field on an
// ingestion or catalog request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ConflictError reports a duplicate natural key on catalog create.
type ConflictError struct {
	Kind string
	Key  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Kind, e.Key)
}

// AggregationTimeoutError reports an aggregation that exceeded the query
// timeout or lost its backing store. Callers must treat it as "no data
// available", never as zero values.
type AggregationTimeoutError struct {
	Operation string
	Err       error
}

func (e *AggregationTimeoutError) Error() string {
	return fmt.Sprintf("aggregation %q timed out: %v", e.Operation, e.Err)
}

func (e *AggregationTimeoutError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsAggregationTimeout reports whether err is an AggregationTimeoutError.
func IsAggregationTimeout(err error) bool {
	var te *AggregationTimeoutError
	return errors.As(err, &te)
}
