package timeout

import (
	"fmt"
	"math"
	"time"
)

// RoundTimeInterval determines the duration of a round given the index of
// that round since the last ordered round (spec §4.1).
type RoundTimeInterval interface {
	// Duration returns the round duration for the given round index.
	// Round indices start at 0: index 0 is the round right after the
	// round that led to the highest ordered round.
	Duration(idx uint) time.Duration

	// MaxExponent returns the exponent cap repeated local timeouts within
	// a single round must saturate at when doubling the armed duration
	// (spec §4.1, §4.3 op 2).
	MaxExponent() uint
}

// ExponentialTimeInterval grows the round duration exponentially with the
// round index, capped at maxExponent. duration_ms = ceil(base_ms *
// exponent_base^min(idx, max_exponent)).
type ExponentialTimeInterval struct {
	baseMS       uint64
	exponentBase float64
	maxExponent  uint
}

var _ RoundTimeInterval = (*ExponentialTimeInterval)(nil)

// NewExponentialTimeInterval validates its parameters and constructs an
// ExponentialTimeInterval. maxExponent must be < 32, and exponentBase
// raised to maxExponent must not exceed the maximum representable 32-bit
// unsigned multiplier -- configuration is rejected with an error rather
// than asserted/panicked, since Byzantine or malformed configuration must
// never crash the validator (spec §7 applied to construction as well as
// runtime operations).
func NewExponentialTimeInterval(base time.Duration, exponentBase float64, maxExponent uint) (*ExponentialTimeInterval, error) {
	if maxExponent >= 32 {
		return nil, fmt.Errorf("max_exponent for ExponentialTimeInterval must be < 32, got %d", maxExponent)
	}
	multiplier := math.Pow(exponentBase, float64(maxExponent))
	if math.Ceil(multiplier) >= float64(math.MaxUint32) {
		return nil, fmt.Errorf("maximum interval multiplier %v exceeds uint32 max", multiplier)
	}
	return &ExponentialTimeInterval{
		baseMS:       uint64(base.Milliseconds()),
		exponentBase: exponentBase,
		maxExponent:  maxExponent,
	}, nil
}

// Fixed returns an ExponentialTimeInterval that always yields the same
// duration, useful for deterministic tests.
func Fixed(d time.Duration) *ExponentialTimeInterval {
	interval, err := NewExponentialTimeInterval(d, 1.0, 0)
	if err != nil {
		// 1.0^0 == 1 always satisfies the bound checks above.
		panic(err)
	}
	return interval
}

func (e *ExponentialTimeInterval) MaxExponent() uint {
	return e.maxExponent
}

func (e *ExponentialTimeInterval) Duration(idx uint) time.Duration {
	pow := idx
	if pow > e.maxExponent {
		pow = e.maxExponent
	}
	multiplier := math.Pow(e.exponentBase, float64(pow))
	durationMS := uint64(math.Ceil(float64(e.baseMS) * multiplier))
	return time.Duration(durationMS) * time.Millisecond
}
