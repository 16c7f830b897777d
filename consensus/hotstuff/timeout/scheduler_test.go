package timeout_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/timeout"
)

func TestRoundIndex_GenesisObeysNoThreeChainRule(t *testing.T) {
	assert.Equal(t, uint(0), timeout.RoundIndex(0, 0))
	assert.Equal(t, uint(4), timeout.RoundIndex(5, 0))
}

func TestRoundIndex_ZeroUntilThreeRoundsPastOrdered(t *testing.T) {
	assert.Equal(t, uint(0), timeout.RoundIndex(10, 9))
	assert.Equal(t, uint(0), timeout.RoundIndex(11, 9))
	assert.Equal(t, uint(0), timeout.RoundIndex(12, 9))
}

func TestRoundIndex_GrowsLinearlyPastThreeChainWindow(t *testing.T) {
	assert.Equal(t, uint(0), timeout.RoundIndex(12, 9))
	assert.Equal(t, uint(1), timeout.RoundIndex(13, 9))
	assert.Equal(t, uint(2), timeout.RoundIndex(14, 9))
}

func TestScheduler_ArmDropsStaleFiring(t *testing.T) {
	// A fired timer whose generation has been superseded by a later Arm
	// call must never reach timeoutCh (spec §9, invariant against spurious
	// stale-timeout notifications).
	clock := newFakeTimeService()
	timeoutCh := make(chan model.Round, 4)
	interval := timeout.Fixed(0)
	sched := timeout.NewScheduler(interval, clock, timeoutCh)

	sched.Arm(1, 0, 0)
	sched.Arm(2, 0, 0) // supersedes the first arm before it can fire

	clock.fireAll()

	select {
	case r := <-timeoutCh:
		assert.Equal(t, model.Round(2), r, "only the latest armed round may fire")
	default:
		t.Fatal("expected the latest arm to fire")
	}
	assert.Len(t, timeoutCh, 0, "the superseded firing must have been dropped")
}

func TestScheduler_Arm_DoublesDurationPerConsecutiveTimeoutUpToCap(t *testing.T) {
	clock := newFakeTimeService()
	timeoutCh := make(chan model.Round, 1)
	interval, err := timeout.NewExponentialTimeInterval(1000*time.Millisecond, 2.0, 6)
	assert.NoError(t, err)
	sched := timeout.NewScheduler(interval, clock, timeoutCh)

	assert.Equal(t, 1000*time.Millisecond, sched.Arm(1, 0, 0))
	assert.Equal(t, 2000*time.Millisecond, sched.Arm(1, 0, 1))
	assert.Equal(t, 4000*time.Millisecond, sched.Arm(1, 0, 2))
}

func TestScheduler_Arm_SaturatesAtIntervalExponentCap(t *testing.T) {
	clock := newFakeTimeService()
	timeoutCh := make(chan model.Round, 1)
	interval, err := timeout.NewExponentialTimeInterval(1000*time.Millisecond, 2.0, 1)
	assert.NoError(t, err)
	sched := timeout.NewScheduler(interval, clock, timeoutCh)

	assert.Equal(t, 2000*time.Millisecond, sched.Arm(1, 0, 1))
	assert.Equal(t, 2000*time.Millisecond, sched.Arm(1, 0, 2), "timeoutCount beyond the exponent cap must not grow the multiplier further")
	assert.Equal(t, 2000*time.Millisecond, sched.Arm(1, 0, 50))
}

func TestScheduler_CancelIsIdempotent(t *testing.T) {
	clock := newFakeTimeService()
	timeoutCh := make(chan model.Round, 1)
	sched := timeout.NewScheduler(timeout.Fixed(0), clock, timeoutCh)

	sched.Arm(1, 0, 0)
	sched.Cancel()
	assert.NotPanics(t, func() { sched.Cancel() })

	clock.fireAll()
	assert.Len(t, timeoutCh, 0, "a cancelled timer must never fire")
}
