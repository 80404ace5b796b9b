package autoclicker

import (
	"math"
	"math/rand"
	"time"
)

// Sampler draws the pause between two emission cycles.
type Sampler struct {
	dist      Distribution
	wait      float64
	deviation float64
	rng       *rand.Rand
}

// NewSampler builds a sampler for cfg. A negative uniform deviation is treated as zero;
// a negative normal deviation has no meaning and is rejected.
func NewSampler(cfg Config, rng *rand.Rand) (*Sampler, error) {
	if !isFinite(cfg.WaitTime) || !isFinite(cfg.DeviationTime) {
		return nil, ErrInvalidTiming
	}
	if cfg.DistributionType == DistributionNormal && cfg.DeviationTime < 0 {
		return nil, ErrInvalidDeviation
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{
		dist:      cfg.DistributionType,
		wait:      cfg.WaitTime,
		deviation: cfg.DeviationTime,
		rng:       rng,
	}, nil
}

// Seconds returns the next delay in seconds, never negative.
func (s *Sampler) Seconds() float64 {
	var v float64
	switch s.dist {
	case DistributionNormal:
		v = math.Abs(s.wait + s.rng.NormFloat64()*s.deviation)
	default:
		v = s.wait + s.rng.Float64()*math.Max(0, s.deviation)
	}
	return math.Max(0, v)
}

func (s *Sampler) Next() time.Duration {
	return secondsToDuration(s.Seconds())
}

func secondsToDuration(seconds float64) time.Duration {
	if !isFinite(seconds) || seconds <= 0 {
		return 0
	}
	if seconds >= math.MaxInt64/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(seconds * float64(time.Second))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
