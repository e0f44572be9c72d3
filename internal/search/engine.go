package search

import (
	"context"
	"fmt"
	"time"

	"github.com/mahdiidarabi/vanitysplit/pkg/splitkey"
)

// ErrGPUUnavailable is returned when a GPU search is requested. Only the CPU
// engine is built.
var ErrGPUUnavailable = fmt.Errorf("%w: GPU search is not available in this build", splitkey.ErrConfig)

// Stats summarizes a finished search.
type Stats struct {
	Keys    uint64 // keys tested, each covering six points
	Found   int
	Dropped int // hits over the per-batch MaxFound cap
	Stopped bool
	Elapsed time.Duration
}

// Rate returns the key rate in keys per second.
func (s *Stats) Rate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Keys) / s.Elapsed.Seconds()
}

// Engine runs a vanity search and writes every hit to sink. Search returns
// when all patterns are found and cfg.Stop is set, when every worker
// reached cfg.KeyLimit, or when ctx is cancelled.
type Engine interface {
	Search(ctx context.Context, cfg *Config, sink splitkey.ResultSink) (*Stats, error)
}

// Select returns the engine able to run cfg.
func Select(cfg *Config, cpu *CPUEngine) (Engine, error) {
	if cfg.GPU {
		return nil, ErrGPUUnavailable
	}
	if cfg.Threads < 1 {
		return nil, fmt.Errorf("%w: no CPU thread to search with", splitkey.ErrConfig)
	}
	return cpu, nil
}
