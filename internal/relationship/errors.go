package relationship

import "errors"

// ErrInvalidStateTransition rejects a relationship change that is not
// legal from the pair's current state. Under contention this is an
// expected outcome; callers surface it and re-check, never auto-retry.
var ErrInvalidStateTransition = errors.New("invalid relationship state transition")

// ErrNotFound marks a profile id with no matching profile row.
var ErrNotFound = errors.New("profile not found")
