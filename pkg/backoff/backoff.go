// Package backoff provides delay strategies for retry loops.
//
// A Strategy is a pure function of the attempt number: the first attempt is
// attempt 1, and Delay reports how long to wait after that attempt fails.
// Strategies never return a negative duration. Invalid parameter combinations
// are reported by Validate and rejected when the strategy is attached to a
// retry policy, not silently clamped.
package backoff

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay to wait after a failed attempt.
// Implementations must be stateless: the same attempt number always describes
// the same distribution of delays.
type Strategy interface {
	Delay(attempt int) time.Duration
}

// Func is an adapter that allows a plain function to be used as a Strategy.
type Func func(attempt int) time.Duration

// Delay implements Strategy.
func (f Func) Delay(attempt int) time.Duration {
	return f(attempt)
}

// Range describes a closed interval of durations used for jitter.
type Range struct {
	Min time.Duration
	Max time.Duration
}

func (r Range) validate() error {
	if r.Min < 0 || r.Max < 0 {
		return errors.New("backoff: jitter bounds must be non-negative")
	}
	if r.Min > r.Max {
		return errors.New("backoff: jitter min must not exceed max")
	}
	return nil
}

// draw returns a uniformly distributed duration in [r.Min, r.Max].
func (r Range) draw() time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rand.Int64N(int64(r.Max-r.Min)+1))
}

// Fixed waits the same base delay between every attempt.
type Fixed struct {
	Base time.Duration
	// Jitter, when set, adds a uniform random duration from the range on top
	// of the base delay for every retry after the first one.
	Jitter *Range
}

// Delay implements Strategy.
func (s Fixed) Delay(attempt int) time.Duration {
	d := s.Base
	if attempt > 1 && s.Jitter != nil {
		d += s.Jitter.draw()
	}
	return d
}

// Validate checks the strategy parameters.
func (s Fixed) Validate() error {
	if s.Base < 0 {
		return errors.New("backoff: base delay must be non-negative")
	}
	if s.Jitter != nil {
		return s.Jitter.validate()
	}
	return nil
}

// Linear grows the delay by a fixed step with each attempt:
// delay = Base + Step*(attempt-1).
type Linear struct {
	Base time.Duration
	Step time.Duration
	// Jitter, when set, adds a uniform random duration for attempts after the
	// first one, before the Max cap is applied.
	Jitter *Range
	// Max caps the delay when positive.
	Max time.Duration
}

// Delay implements Strategy.
func (s Linear) Delay(attempt int) time.Duration {
	d := s.Base + s.Step*time.Duration(attempt-1)
	if attempt > 1 && s.Jitter != nil {
		d += s.Jitter.draw()
	}
	if s.Max > 0 && d > s.Max {
		d = s.Max
	}
	return d
}

// Validate checks the strategy parameters.
func (s Linear) Validate() error {
	if s.Base < 0 {
		return errors.New("backoff: base delay must be non-negative")
	}
	if s.Step < 0 {
		return errors.New("backoff: step must be non-negative")
	}
	if s.Max > 0 && s.Max < s.Base {
		return errors.New("backoff: max must be at least the base delay")
	}
	if s.Jitter != nil {
		return s.Jitter.validate()
	}
	return nil
}

// DefaultFactor is the exponentiation base used by Exponential when Factor
// is left at its zero value.
const DefaultFactor = 2.0

// Exponential doubles (or multiplies by Factor) the delay with each attempt:
// delay = Base * Factor^(attempt-1).
type Exponential struct {
	Base time.Duration
	// Factor is the exponentiation base. Zero means DefaultFactor.
	Factor float64
	// Jitter, when set, adds a uniform random duration for attempts after the
	// first one, before the Max cap is applied.
	Jitter *Range
	// Max caps the delay when positive.
	Max time.Duration
}

// Delay implements Strategy.
func (s Exponential) Delay(attempt int) time.Duration {
	factor := s.Factor
	if factor == 0 {
		factor = DefaultFactor
	}

	scaled := float64(s.Base) * math.Pow(factor, float64(attempt-1))
	var d time.Duration
	if scaled >= float64(math.MaxInt64) {
		d = time.Duration(math.MaxInt64)
	} else {
		d = time.Duration(scaled)
	}

	if attempt > 1 && s.Jitter != nil {
		if add := s.Jitter.draw(); d <= time.Duration(math.MaxInt64)-add {
			d += add
		}
	}
	if s.Max > 0 && d > s.Max {
		d = s.Max
	}
	return d
}

// Validate checks the strategy parameters.
func (s Exponential) Validate() error {
	if s.Base < 0 {
		return errors.New("backoff: base delay must be non-negative")
	}
	if s.Factor != 0 && s.Factor < 1 {
		return errors.New("backoff: factor must be at least 1")
	}
	if s.Max > 0 && s.Max < s.Base {
		return errors.New("backoff: max must be at least the base delay")
	}
	if s.Jitter != nil {
		return s.Jitter.validate()
	}
	return nil
}

// RandomUniform draws every delay uniformly from [Min, Max], independent of
// the attempt number.
type RandomUniform struct {
	// Base is accepted for symmetry with the other strategies but does not
	// affect the draw. Callers should not rely on it mattering.
	Base time.Duration
	Min  time.Duration
	Max  time.Duration
}

// Delay implements Strategy.
func (s RandomUniform) Delay(attempt int) time.Duration {
	if s.Max <= s.Min {
		return s.Min
	}
	return s.Min + time.Duration(rand.Int64N(int64(s.Max-s.Min)+1))
}

// Validate checks the strategy parameters.
func (s RandomUniform) Validate() error {
	if s.Min < 0 || s.Max < 0 {
		return errors.New("backoff: delay bounds must be non-negative")
	}
	if s.Min > s.Max {
		return errors.New("backoff: min delay must not exceed max delay")
	}
	return nil
}
