package sensor

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
)

// SimConfig parameterizes the simulated sensor.
type SimConfig struct {
	HumidityPct float64
	TempC       float64
	// Drift is the largest step of the random walk per read.
	Drift float64
	// FailureRate is the probability in [0,1] that a read returns NaN.
	FailureRate float64
	Seed        uint64
}

var errSimulatedFailure = errors.New("simulated sensor timeout")

// SimSource is a random-walk sensor for running without hardware.
type SimSource struct {
	mu       sync.Mutex
	cfg      SimConfig
	humidity float64
	tempC    float64
	rng      *rand.Rand
}

// NewSimSource returns a simulated sensor starting at the configured values.
func NewSimSource(cfg SimConfig) *SimSource {
	if cfg.HumidityPct == 0 && cfg.TempC == 0 {
		cfg.HumidityPct = 55
		cfg.TempC = 24
	}
	return &SimSource{
		cfg:      cfg,
		humidity: cfg.HumidityPct,
		tempC:    cfg.TempC,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

// Read advances the random walk by one step. With FailureRate set, some
// reads fail and report NaN.
func (s *SimSource) Read(ctx context.Context) (Measurement, error) {
	if err := ctx.Err(); err != nil {
		return NaNMeasurement(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.FailureRate > 0 && s.rng.Float64() < s.cfg.FailureRate {
		return NaNMeasurement(), errSimulatedFailure
	}

	if s.cfg.Drift > 0 {
		s.humidity = clamp(s.humidity+(s.rng.Float64()*2-1)*s.cfg.Drift, 0, 100)
		s.tempC = clamp(s.tempC+(s.rng.Float64()*2-1)*s.cfg.Drift, -40, 80)
	}

	return Measurement{
		HumidityPct: s.humidity,
		TempC:       s.tempC,
		TempF:       CelsiusToFahrenheit(s.tempC),
	}, nil
}

// Close is a no-op.
func (s *SimSource) Close() error { return nil }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
