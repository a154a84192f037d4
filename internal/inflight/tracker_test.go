package inflight

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go-todo-client/internal/model"
)

func TestTrackerRejectsDuplicates(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	release, err := tracker.Begin(7, "delete")
	require.NoError(t, err)

	_, err = tracker.Begin(7, "toggle")
	require.ErrorIs(t, err, model.ErrInFlight)

	// Other records are unaffected.
	releaseOther, err := tracker.Begin(8, "toggle")
	require.NoError(t, err)
	releaseOther()

	op, busy := tracker.Busy(7)
	require.True(t, busy)
	require.Equal(t, "delete", op)

	release()
	release()
	_, busy = tracker.Busy(7)
	require.False(t, busy)

	release, err = tracker.Begin(7, "toggle")
	require.NoError(t, err)
	release()
}
