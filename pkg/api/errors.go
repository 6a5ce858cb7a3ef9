// Package api is the client for the versioned business-entity HTTP API.
// Every mutating call carries the version the caller last read; the server
// rejects stale writes with 409 and the client never retries or merges on
// its own.
package api

import (
	"fmt"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// ConflictError reports a concurrent edit: the caller's version was stale.
// Not automatically retryable; the caller must offer reload-and-discard.
type ConflictError struct {
	CurrentVersion int
	Current        model.Entity
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: entity %d is at version %d", e.Current.ID, e.CurrentVersion)
}

// ValidationError reports a field-level rejection (4xx other than 409).
// Surfaced inline per field, never retried.
type ValidationError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation failed (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("validation failed (%d)", e.Status)
}

// NetworkError reports a transport failure. Safe to retry manually; never
// retried silently to avoid duplicate submits.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
