package tracing

import (
	"fmt"
	"sync/atomic"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ratioSampler samples a fraction of root traces and follows the parent's
// decision otherwise. Its ratio can change while spans are being started.
type ratioSampler struct {
	current atomic.Pointer[samplerState]
}

type samplerState struct {
	ratio   float64
	sampler sdktrace.Sampler
}

func newRatioSampler(ratio float64) (*ratioSampler, error) {
	s := &ratioSampler{}
	if err := s.SetRatio(ratio); err != nil {
		return nil, err
	}
	return s, nil
}

// SetRatio replaces the sampling ratio.
func (s *ratioSampler) SetRatio(ratio float64) error {
	if ratio < 0.0 || ratio > 1.0 {
		return fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
	}
	s.current.Store(&samplerState{
		ratio:   ratio,
		sampler: sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio)),
	})
	return nil
}

// Ratio returns the current sampling ratio.
func (s *ratioSampler) Ratio() float64 { return s.current.Load().ratio }

func (s *ratioSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	return s.current.Load().sampler.ShouldSample(p)
}

func (s *ratioSampler) Description() string {
	return fmt.Sprintf("KeeperRatio{%g}", s.Ratio())
}
