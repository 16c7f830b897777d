package timeout

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
	"github.com/FinnTew/gravity-sdk/module/timeservice"
)

// Scheduler computes per-round durations via a RoundTimeInterval, arms a
// single cancellable timer, and emits a local-timeout notification
// carrying the round it was armed for. Not concurrency safe: like
// consensus/hotstuff/eventhandler.EventHandler, it is driven by a single
// goroutine that serializes all Arm/Cancel calls.
type Scheduler struct {
	interval    RoundTimeInterval
	timeService timeservice.TimeService
	timeoutCh   chan<- model.Round

	mu       sync.Mutex
	cancel   context.CancelFunc
	deadline time.Duration

	// generation guards against a timer that fires after it has already
	// been superseded by a later Arm call: fired timers self-check
	// staleness against the generation they were armed with, per spec §9
	// ("let fired timers self-check staleness").
	generation *atomic.Uint64
}

// NewScheduler constructs a Scheduler that sends fired rounds on timeoutCh.
func NewScheduler(interval RoundTimeInterval, timeService timeservice.TimeService, timeoutCh chan<- model.Round) *Scheduler {
	return &Scheduler{
		interval:    interval,
		timeService: timeService,
		timeoutCh:   timeoutCh,
		deadline:    time.Duration(math.MaxInt64),
		generation:  atomic.NewUint64(0),
	}
}

// RoundIndex computes the round index since the last ordered round, per
// spec §4.1: genesis (h==0) does not obey the 3-chain rule, so idx = c-1;
// otherwise idx is 0 until the round is 3 past the ordered round, then
// grows linearly.
func RoundIndex(currentRound, highestOrderedRound model.Round) uint {
	if highestOrderedRound == 0 {
		if currentRound == 0 {
			return 0
		}
		return uint(currentRound - 1)
	}
	if currentRound < highestOrderedRound+3 {
		return 0
	}
	return uint(currentRound - highestOrderedRound - 3)
}

// Arm cancels any previously armed timer and schedules a one-shot
// notification of round after Duration(idx)*2^min(timeoutCount,
// interval.MaxExponent()) from now, where idx is derived from (round,
// highestOrderedRound). timeoutCount is 0 on a round advance and the
// number of local timeouts already observed for this round when rearming
// after one, so repeated local timeouts within a single stuck round
// double the previously armed duration each time, saturating at the
// interval's exponent cap (spec §4.1, §4.3 op 2). Returns the armed
// duration.
func (s *Scheduler) Arm(round, highestOrderedRound model.Round, timeoutCount uint) time.Duration {
	idx := RoundIndex(round, highestOrderedRound)
	exp := timeoutCount
	if maxExp := s.interval.MaxExponent(); exp > maxExp {
		exp = maxExp
	}
	duration := s.interval.Duration(idx) * time.Duration(uint64(1)<<exp)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	gen := s.generation.Add(1)
	now := s.timeService.Now()
	s.deadline = now + duration

	s.cancel = s.timeService.RunAfter(duration, func() {
		if s.generation.Load() != gen {
			// superseded by a later Arm call; drop the stale firing.
			return
		}
		s.timeoutCh <- round
	})
	return duration
}

// Cancel cancels the currently armed timer, if any. Idempotent: calling it
// when no timer is armed, or after the timer already fired, is a no-op.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation.Add(1)
}

// Deadline returns the wall-clock deadline of the currently armed timer,
// for observation only.
func (s *Scheduler) Deadline() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline
}
