package staleness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zecrocks/hosh/internal/model"
)

func TestClassifyFresh(t *testing.T) {
	now := time.Now()
	checked := now.Add(-30 * time.Second)
	target := model.Target{LastCheckedAt: &checked}

	require.Equal(t, Fresh, Classify(target, now, 300*time.Second, 120*time.Second))
}

func TestClassifyInFlight(t *testing.T) {
	now := time.Now()
	checked := now.Add(-10 * time.Minute)
	queued := now.Add(-10 * time.Second)
	target := model.Target{LastCheckedAt: &checked, LastQueuedAt: &queued}

	require.Equal(t, InFlight, Classify(target, now, 300*time.Second, 120*time.Second))
}

func TestClassifyDue(t *testing.T) {
	now := time.Now()
	checked := now.Add(-10 * time.Minute)
	target := model.Target{LastCheckedAt: &checked}

	require.Equal(t, Due, Classify(target, now, 300*time.Second, 120*time.Second))
}

func TestClassifyNeverChecked(t *testing.T) {
	now := time.Now()
	target := model.Target{}

	require.Equal(t, Due, Classify(target, now, 300*time.Second, 120*time.Second))
}

func TestClassifyUserSubmittedBypassesFreshAndInFlightGates(t *testing.T) {
	now := time.Now()
	checked := now.Add(-15 * time.Second)
	queued := now.Add(-10 * time.Second)

	withoutBypass := model.Target{LastCheckedAt: &checked, LastQueuedAt: &queued}
	require.Equal(t, Fresh, Classify(withoutBypass, now, 300*time.Second, 120*time.Second),
		"a recently checked, non-user-submitted target is fresh")

	withBypass := model.Target{LastCheckedAt: &checked, LastQueuedAt: &queued, UserSubmitted: true}
	require.Equal(t, Due, Classify(withBypass, now, 300*time.Second, 120*time.Second),
		"a user-submitted target queued within the last minute publishes, bypassing both the fresh gate and the in-flight gate")
}
