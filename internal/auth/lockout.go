package auth

import (
	"time"
)

// Policy is the locking policy of one account type.
type Policy struct {
	MaxAttempts int
	LockWait    time.Duration
	FailExpires time.Duration
}

// LockState is the effective lock state of an account at a point in time.
type LockState int

const (
	LockOpen LockState = iota
	LockSoft
	LockHard
)

func (s LockState) String() string {
	switch s {
	case LockSoft:
		return "soft-locked"
	case LockHard:
		return "locked"
	default:
		return "open"
	}
}

// StateOf derives the lock state at `now`.
//
// A hard lock (Locked set) always wins and is never cleared here; only an
// explicit administrative unlock clears it. A soft lock holds until LockWait
// has elapsed since it was set, after which authentication is permitted
// again. The soft_locked column is deliberately not cleared by this read:
// clearing happens lazily on the next successful login or explicitly.
func StateOf(u *User, p Policy, now time.Time) LockState {
	if u.Locked != nil {
		return LockHard
	}
	if u.SoftLocked != nil && now.Sub(*u.SoftLocked) <= p.LockWait {
		return LockSoft
	}
	return LockOpen
}

// NextAttempts computes the counter value a failure at `now` should produce.
// A failure landing after FailExpires has elapsed since the most recent
// attempt does not compound with the stale streak: the counter behaves as
// reset, then incremented.
func NextAttempts(u *User, p Policy, now time.Time) int {
	if u.LastAttempt == nil || now.Sub(*u.LastAttempt) > p.FailExpires {
		return 1
	}
	return u.LoginAttempts + 1
}
