package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"careersync/internal/services"
)

// StartMaintenance schedules the periodic cleanup jobs: expiring referral
// rewards, closing abandoned sessions, and pruning stale rate limit rows.
// Returns the scheduler so the caller can shut it down.
func StartMaintenance(billing *services.BillingService, sessions *services.SessionService, rateLimits *services.RateLimitService) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			n, err := billing.DeactivateExpiredRewards()
			if err != nil {
				log.Printf("[Maintenance] Error deactivating expired rewards: %v", err)
				return
			}
			if n > 0 {
				log.Printf("[Maintenance] Deactivated %d expired rewards", n)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			n, err := sessions.CloseIdleSessions(10 * time.Minute)
			if err != nil {
				log.Printf("[Maintenance] Error closing idle sessions: %v", err)
				return
			}
			if n > 0 {
				log.Printf("[Maintenance] Closed %d idle sessions", n)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			n, err := rateLimits.PruneStale(24 * time.Hour)
			if err != nil {
				log.Printf("[Maintenance] Error pruning rate limits: %v", err)
				return
			}
			if n > 0 {
				log.Printf("[Maintenance] Pruned %d stale rate limit entries", n)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	log.Println("[Maintenance] Scheduler started")
	return sched, nil
}
