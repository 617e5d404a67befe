// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartMomentumScheduler runs the momentum recompute periodically as a safety
// net on top of the per-completion recompute. The recompute is idempotent, so
// overlap with a completion transaction is harmless.
func (s *ScoringService) StartMomentumScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			if err := recomputeMomentumFlags(s.DB, s.Momentum); err != nil {
				log.Printf("[Scheduler] momentum recompute failed: %v", err)
			}
		}),
	)
}
