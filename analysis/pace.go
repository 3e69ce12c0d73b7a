package analysis

import (
	"context"
	"time"
)

// Pacer is called after every stage-level model call, successful or not, before the next
// one is issued.
type Pacer interface {
	Pace(ctx context.Context, stage Stage) error
}

// FixedPacer sleeps a fixed per-stage delay. Stages without an entry are not delayed.
type FixedPacer map[Stage]time.Duration

// DefaultPacing is the delay schedule used against rate-limited hosted models.
func DefaultPacing() FixedPacer {
	return FixedPacer{
		StageExtract:   5 * time.Second,
		StageMerge:     10 * time.Second,
		StageStructure: 10 * time.Second,
	}
}

func (p FixedPacer) Pace(ctx context.Context, stage Stage) error {
	d := p[stage]
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoPacer never waits.
type NoPacer struct{}

func (NoPacer) Pace(ctx context.Context, _ Stage) error { return ctx.Err() }
