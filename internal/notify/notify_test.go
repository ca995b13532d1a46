package notify_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florawatch/florawatch/internal/notify"
	"github.com/florawatch/florawatch/internal/sched"
)

var start = time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)

func newCenter(t *testing.T) (*notify.Center, *sched.Manual) {
	t.Helper()
	clock := sched.NewManual(start)
	center := notify.NewCenter(notify.CenterConfig{
		Scheduler: clock,
		Logger:    zerolog.Nop(),
	})
	return center, clock
}

func TestCenter_Push(t *testing.T) {
	center, _ := newCenter(t)

	n := center.Push(notify.SeveritySuccess, "Analysis complete")
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, start, n.CreatedAt)

	active := center.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Analysis complete", active[0].Message)
}

func TestCenter_AutoDismiss(t *testing.T) {
	center, clock := newCenter(t)

	center.Error("Analysis failed")

	clock.Advance(4 * time.Second)
	assert.Len(t, center.Active(), 1)

	clock.Advance(1 * time.Second)
	assert.Empty(t, center.Active())
}

func TestCenter_AutoDismissIsIndependent(t *testing.T) {
	center, clock := newCenter(t)

	center.Info("first")
	clock.Advance(3 * time.Second)
	center.Info("second")

	// The first notification expires; the second keeps its own timer.
	clock.Advance(2 * time.Second)
	active := center.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "second", active[0].Message)

	clock.Advance(3 * time.Second)
	assert.Empty(t, center.Active())
}

func TestCenter_ManualDismiss(t *testing.T) {
	center, clock := newCenter(t)

	n := center.Push(notify.SeverityWarning, "heads up")
	center.Dismiss(n.ID)
	assert.Empty(t, center.Active())

	// The dismissal timer was cancelled with it.
	assert.Equal(t, 0, clock.PendingTimers())

	// Unknown and repeated IDs are no-ops.
	center.Dismiss(n.ID)
	center.Dismiss("nope")
}

func TestCenter_Clear(t *testing.T) {
	center, clock := newCenter(t)

	center.Success("one")
	center.Info("two")
	center.Clear()

	assert.Empty(t, center.Active())
	assert.Equal(t, 0, clock.PendingTimers())
}

func TestCenter_CustomDismissAfter(t *testing.T) {
	clock := sched.NewManual(start)
	center := notify.NewCenter(notify.CenterConfig{
		Scheduler:    clock,
		Logger:       zerolog.Nop(),
		DismissAfter: time.Minute,
	})

	center.Info("slow")
	clock.Advance(59 * time.Second)
	assert.Len(t, center.Active(), 1)
	clock.Advance(time.Second)
	assert.Empty(t, center.Active())
}
