// Package staleness implements the Publisher's scheduling policy: whether a
// target is fresh, already in flight, or due for a check (spec §4.5).
package staleness

import (
	"time"

	"github.com/zecrocks/hosh/internal/model"
)

// Class is the outcome of classifying one target.
type Class string

const (
	Fresh    Class = "fresh"
	InFlight Class = "in_flight"
	Due      Class = "due"
)

// userSubmittedBypassWindow is how recently a user-submitted target must
// have been queued (last_queued_at) for the "not
// user-submitted-within-last-minute" fresh-gate exception to apply, per
// spec §4.5.
const userSubmittedBypassWindow = 60 * time.Second

// Classify applies the staleness policy to one target as of now.
//
// A user-submitted target always bypasses the in-flight gate, and bypasses
// the fresh gate only when its last_queued_at is within
// userSubmittedBypassWindow (it may still be worth rechecking a target
// someone just asked about); a recently checked user-submitted target that
// was not queued in that window is still Fresh. The in-flight bypass is
// SPEC_FULL.md's Open Question 2 decision: user-submitted
// requests always publish on their module's `.user` companion subject
// regardless of in-flight state, for btc/zec/http alike).
func Classify(t model.Target, now time.Time, refreshInterval, inFlightTTL time.Duration) Class {
	recentlySubmitted := t.UserSubmitted && t.LastQueuedAt != nil && now.Sub(*t.LastQueuedAt) < userSubmittedBypassWindow

	if t.LastCheckedAt != nil && now.Sub(*t.LastCheckedAt) < refreshInterval && !recentlySubmitted {
		return Fresh
	}
	if t.UserSubmitted {
		return Due
	}
	if t.InFlight(now, inFlightTTL) {
		return InFlight
	}
	return Due
}
