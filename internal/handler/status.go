package handler

import (
	"fmt"
	"sync/atomic"
	"time"

	"tg-unibans/internal/logger"
	"tg-unibans/internal/metrics"
)

// Stats counts processed updates
type Stats struct {
	messages      atomic.Int64
	commands      atomic.Int64
	memberUpdates atomic.Int64
	callbacks     atomic.Int64
	errors        atomic.Int64
	started       time.Time
}

func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

// countError records a failed handler and passes the error through
func (s *Stats) countError(err error) error {
	if err != nil {
		s.errors.Add(1)
		metrics.HandlerErrorsTotal.Inc()
	}
	return err
}

// Snapshot returns the current counter values keyed by name
func (s *Stats) Snapshot() map[string]int64 {
	return map[string]int64{
		"uptime_seconds":       int64(time.Since(s.started).Seconds()),
		"total_messages":       s.messages.Load(),
		"total_commands":       s.commands.Load(),
		"total_member_updates": s.memberUpdates.Load(),
		"total_callbacks":      s.callbacks.Load(),
		"total_errors":         s.errors.Load(),
	}
}

func (s *Stats) String() string {
	return fmt.Sprintf(`Uptime: %s
Messages processed: %d
Commands run: %d
Member updates: %d
Callback queries: %d
Errors: %d`,
		time.Since(s.started).Truncate(time.Second),
		s.messages.Load(),
		s.commands.Load(),
		s.memberUpdates.Load(),
		s.callbacks.Load(),
		s.errors.Load(),
	)
}

// LogPeriodically writes the counters to the log every interval until
// stop is closed
func (s *Stats) LogPeriodically(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			stats := s.Snapshot()
			logger.Infof("Processing stats: %+v", stats)

			messages, errors := stats["total_messages"], stats["total_errors"]
			if messages > 0 && float64(errors)/float64(messages) > 0.1 {
				logger.Warningf("High error rate: %.2f%% (%d errors out of %d messages)",
					float64(errors)/float64(messages)*100, errors, messages)
			}
		}
	}
}
