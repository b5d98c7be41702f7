// Package scheduler drives recurring pipeline runs on a fixed
// interval parsed from the configured update frequency.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mentarch/reading-agent/internal/ports"
)

const defaultInterval = 6 * time.Hour

// IntervalScheduler runs the job immediately and then on every tick.
type IntervalScheduler struct {
	interval time.Duration
	stop     chan struct{}
	logger   *slog.Logger
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// New builds a scheduler from an update-frequency string such as
// "6h", "30m", or "daily". Unparseable values fall back to six hours
// with a warning.
func New(frequency string, logger *slog.Logger) *IntervalScheduler {
	interval, err := ParseFrequency(frequency)
	if err != nil {
		if logger != nil {
			logger.Warn("unknown update frequency, defaulting", "frequency", frequency, "default", defaultInterval)
		}
		interval = defaultInterval
	}
	return &IntervalScheduler{interval: interval, logger: logger}
}

// ParseFrequency converts "<n>h", "<n>m", or "daily" to a duration.
func ParseFrequency(frequency string) (time.Duration, error) {
	frequency = strings.TrimSpace(strings.ToLower(frequency))

	switch {
	case frequency == "daily":
		return 24 * time.Hour, nil
	case strings.HasSuffix(frequency, "h"):
		hours, err := strconv.Atoi(strings.TrimSuffix(frequency, "h"))
		if err != nil || hours <= 0 {
			return 0, fmt.Errorf("invalid hour frequency %q", frequency)
		}
		return time.Duration(hours) * time.Hour, nil
	case strings.HasSuffix(frequency, "m"):
		minutes, err := strconv.Atoi(strings.TrimSuffix(frequency, "m"))
		if err != nil || minutes <= 0 {
			return 0, fmt.Errorf("invalid minute frequency %q", frequency)
		}
		return time.Duration(minutes) * time.Minute, nil
	default:
		return 0, fmt.Errorf("unknown frequency %q", frequency)
	}
}

// Start launches the ticking goroutine. The job runs once right away,
// then on every interval until Stop or context cancellation.
func (s *IntervalScheduler) Start(ctx context.Context, job func()) error {
	if job == nil {
		return nil
	}
	if s.stop != nil {
		return nil
	}

	// The goroutine watches its own copy of the channel; Stop may nil
	// the field while the goroutine is still draining a tick.
	stop := make(chan struct{})
	s.stop = stop
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		job()
		for {
			select {
			case <-ticker.C:
				job()
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	if s.logger != nil {
		s.logger.Info("scheduler started", "interval", s.interval)
	}
	return nil
}

// Stop halts the ticker goroutine.
func (s *IntervalScheduler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}
