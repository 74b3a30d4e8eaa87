package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ErrNoNewBlock is returned when the chain height does not grow within the wait budget
var ErrNoNewBlock = errors.New("no new block produced within the wait budget")

const (
	DefaultHealthBudget   = 30 * time.Second
	DefaultHealthInterval = time.Second
)

// HeightSource reports the current best block height of a node
type HeightSource interface {
	BlockHeight(ctx context.Context) (uint64, error)
}

// HealthMonitor decides whether a network is producing blocks.
type HealthMonitor struct {
	Source   HeightSource
	Clock    clockwork.Clock
	Budget   time.Duration
	Interval time.Duration
	Log      zerolog.Logger
}

// NewHealthMonitor creates a monitor with the real clock.
// Non-positive budget or interval fall back to the defaults.
func NewHealthMonitor(source HeightSource, budget, interval time.Duration, log zerolog.Logger) *HealthMonitor {
	return &HealthMonitor{
		Source:   source,
		Clock:    clockwork.NewRealClock(),
		Budget:   budget,
		Interval: interval,
		Log:      log,
	}
}

// Check captures a baseline height and polls until a higher one is seen.
// It returns the new height, or ErrNoNewBlock once the budget is spent.
// A failed query aborts the check. The baseline query is bounded by the budget
// and every later poll by the time left plus one interval.
func (m *HealthMonitor) Check(ctx context.Context) (uint64, error) {
	clock := m.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	budget := m.Budget
	if budget <= 0 {
		budget = DefaultHealthBudget
	}
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultHealthInterval
	}

	baseline, err := m.query(ctx, budget)
	if err != nil {
		return 0, fmt.Errorf("failed to query block height: %w", err)
	}
	m.Log.Info().Uint64("height", baseline).Msg("baseline block height")

	deadline := clock.Now().Add(budget)
	for {
		wait := interval
		if remaining := deadline.Sub(clock.Now()); remaining < wait {
			wait = remaining
		}
		if wait > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-clock.After(wait):
			}
		}

		// a poll may not outlive the budget by more than one interval
		remaining := deadline.Sub(clock.Now())
		if remaining < 0 {
			remaining = 0
		}
		height, err := m.query(ctx, remaining+interval)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			m.Log.Warn().Dur("budget", budget).Msg("block height query timed out")
			return baseline, ErrNoNewBlock
		}
		if err != nil {
			return 0, fmt.Errorf("failed to query block height: %w", err)
		}
		// Height first: a new block seen exactly at the deadline still counts
		if height > baseline {
			m.Log.Info().Uint64("height", height).Msg("new block produced")
			return height, nil
		}
		if !clock.Now().Before(deadline) {
			m.Log.Warn().Uint64("height", height).Dur("budget", budget).Msg("no new block produced")
			return height, ErrNoNewBlock
		}
	}
}

func (m *HealthMonitor) query(ctx context.Context, timeout time.Duration) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return m.Source.BlockHeight(ctx)
}
