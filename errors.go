package vecfleet

import (
	"errors"
	"fmt"
)

var (
	// ErrRoleUnresolved is returned by Initialize when no explicit role is
	// available for this instance. Roles are never inferred from arrival
	// order or instance count: a fleet must not have two instances silently
	// disagree about who is allowed to write.
	ErrRoleUnresolved = errors.New("instance role unresolved: set an explicit role or reuse a registered instance ID")

	// ErrConflictRetriesExhausted is returned when a read-merge-write cycle
	// kept losing against concurrent writers for the configured number of
	// attempts.
	ErrConflictRetriesExhausted = errors.New("shared config write retries exhausted")

	// ErrClosed is returned by operations on a closed coordinator.
	ErrClosed = errors.New("coordinator is closed")
)

// ErrMalformedPartitionPath indicates a partition path that does not parse.
//
// This is a programming or data error and fails fast rather than silently
// returning a wrong index.
type ErrMalformedPartitionPath struct {
	Path  string
	cause error
}

func (e *ErrMalformedPartitionPath) Error() string {
	return fmt.Sprintf("malformed partition path: %q", e.Path)
}

func (e *ErrMalformedPartitionPath) Unwrap() error { return e.cause }

// ErrInvalidPartitionCount indicates a non-positive partition count.
type ErrInvalidPartitionCount struct {
	Count int
}

func (e *ErrInvalidPartitionCount) Error() string {
	return fmt.Sprintf("invalid partition count: %d", e.Count)
}

// ErrSettingsMismatch indicates that locally supplied settings disagree
// with the settings already committed by the fleet.
type ErrSettingsMismatch struct {
	Field string
	Local any
	Fleet any
}

func (e *ErrSettingsMismatch) Error() string {
	return fmt.Sprintf("settings mismatch on %s: local %v, fleet %v", e.Field, e.Local, e.Fleet)
}
