// Package repository defines error types that are reused across multiple
// repositories. These sentinel values let handlers distinguish failure
// scenarios without string matching. ErrForbidden means the caller is not
// allowed to act on a resource owned by someone else; ErrConflict signals
// state that blocks an operation; ErrSlotUnavailable and ErrDoubleBooking
// are the two deterministic booking rejections.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed due to
// conflicting state, such as a duplicate table number within a
// restaurant. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrSlotUnavailable is returned when a booking targets a time slot whose
// status is not free at the instant of the transaction. The loser of a
// race over the same slot receives this error as if it had arrived after
// the winner committed.
var ErrSlotUnavailable = errors.New("time slot is not available")

// ErrDoubleBooking is returned when the requesting user already holds a
// booking whose slot interval overlaps the target slot's interval.
var ErrDoubleBooking = errors.New("user already has an overlapping booking")

// isDuplicateKey reports whether err is a MySQL duplicate-entry violation
// (error 1062), used to map unique-constraint hits to domain errors.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// isLockConflict reports whether err is a transient MySQL lock failure:
// 1213 (deadlock victim) or 1205 (lock wait timeout). These are retried by
// callers up to a small bounded count.
func isLockConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1213") || strings.Contains(msg, "1205")
}

// IsRetryable exposes the transient-conflict test to handlers so the
// booking endpoints can implement their bounded retry loop.
func IsRetryable(err error) bool { return isLockConflict(err) }
