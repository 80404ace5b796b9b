package autoclicker

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"
)

func newTestSampler(t *testing.T, cfg Config) *Sampler {
	t.Helper()
	sampler, err := NewSampler(cfg, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("NewSampler() error = %v", err)
	}
	return sampler
}

func TestUniformDelayStaysInRange(t *testing.T) {
	sampler := newTestSampler(t, Config{WaitTime: 0.1, DeviationTime: 0.05})
	for i := 0; i < 5000; i++ {
		v := sampler.Seconds()
		if v < 0.1 || v > 0.15 {
			t.Fatalf("sample %d = %v, want within [0.1, 0.15]", i, v)
		}
	}
}

func TestUniformNegativeDeviationAddsNoJitter(t *testing.T) {
	sampler := newTestSampler(t, Config{WaitTime: 0.2, DeviationTime: -0.5})
	for i := 0; i < 100; i++ {
		if v := sampler.Seconds(); v != 0.2 {
			t.Fatalf("sample %d = %v, want 0.2", i, v)
		}
	}
}

func TestUniformNegativeWaitClampsToZero(t *testing.T) {
	sampler := newTestSampler(t, Config{WaitTime: -1, DeviationTime: 0.5})
	for i := 0; i < 100; i++ {
		if d := sampler.Next(); d != 0 {
			t.Fatalf("sample %d = %v, want 0", i, d)
		}
	}
}

func TestNormalDelayIsAbsoluteDraw(t *testing.T) {
	sampler := newTestSampler(t, Config{DistributionType: DistributionNormal, WaitTime: 0.01, DeviationTime: 1})

	var sum float64
	const n = 20000
	for i := 0; i < n; i++ {
		v := sampler.Seconds()
		if v < 0 {
			t.Fatalf("sample %d = %v, want non-negative", i, v)
		}
		sum += v
	}
	// |N(0.01, 1)| has a mean close to sqrt(2/pi).
	if mean := sum / n; math.Abs(mean-math.Sqrt(2/math.Pi)) > 0.05 {
		t.Fatalf("mean = %v, want about %v", mean, math.Sqrt(2/math.Pi))
	}
}

func TestNormalZeroDeviationIsConstant(t *testing.T) {
	sampler := newTestSampler(t, Config{DistributionType: DistributionNormal, WaitTime: 0.3})
	if d := sampler.Next(); d != 300*time.Millisecond {
		t.Fatalf("Next() = %v, want 300ms", d)
	}
}

func TestNewSamplerRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		cfg  Config
		want error
	}{
		{Config{DistributionType: DistributionNormal, DeviationTime: -0.1}, ErrInvalidDeviation},
		{Config{WaitTime: math.NaN()}, ErrInvalidTiming},
		{Config{DeviationTime: math.Inf(1)}, ErrInvalidTiming},
	}
	for _, tc := range tests {
		if _, err := NewSampler(tc.cfg, nil); !errors.Is(err, tc.want) {
			t.Fatalf("NewSampler(%+v) error = %v, want %v", tc.cfg, err, tc.want)
		}
	}
}

func TestSecondsToDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want time.Duration
	}{
		{0, 0},
		{-3, 0},
		{math.NaN(), 0},
		{1.5, 1500 * time.Millisecond},
		{math.MaxFloat64, time.Duration(math.MaxInt64)},
	}
	for _, tc := range tests {
		if got := secondsToDuration(tc.in); got != tc.want {
			t.Fatalf("secondsToDuration(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
