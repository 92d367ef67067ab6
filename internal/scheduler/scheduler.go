package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
)

const refreshTimeout = 30 * time.Second

// Dashboards is the part of dashboard.Manager the scheduler drives.
type Dashboards interface {
	Active() []*dashboard.Dashboard
	Evict(cutoff time.Time) int
}

// Pruner is implemented by session stores that need explicit expiry.
// Redis expires keys on its own and does not implement it.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler periodically refreshes every active dashboard that has a known
// location, and expires idle sessions.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	dashboards Dashboards
	pruner     Pruner
	interval   time.Duration
	maxAge     time.Duration
}

// New creates a new Scheduler. pruner may be nil.
func New(dashboards Dashboards, pruner Pruner, interval, maxAge time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:  s,
		dashboards: dashboards,
		pruner:     pruner,
		interval:   interval,
		maxAge:     maxAge,
	}
}

// Start schedules the periodic jobs and starts the underlying scheduler.
// A zero interval disables the refresh job.
func (s *Scheduler) Start() error {
	scheduled := false

	if s.interval > 0 {
		if _, err := s.scheduler.Every(s.interval).Do(s.RefreshAll); err != nil {
			return err
		}
		scheduled = true
	} else {
		log.Println("scheduler: refresh interval is 0; periodic refresh disabled")
	}

	if s.maxAge > 0 {
		if _, err := s.scheduler.Every(s.maxAge / 4).Do(s.Expire); err != nil {
			return err
		}
		scheduled = true
	}

	if !scheduled {
		return nil
	}
	s.scheduler.StartAsync()
	return nil
}

// RefreshAll refreshes every active dashboard with a last location concurrently.
func (s *Scheduler) RefreshAll() {
	log.Println("scheduler: running dashboard refresh job")

	var wg sync.WaitGroup
	for _, d := range s.dashboards.Active() {
		if !d.HasLastLocation() {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()

			if err := d.Refresh(ctx); err != nil {
				log.Printf("scheduler: refresh failed for session %s: %v", d.ID(), err)
			}
		}()
	}
	wg.Wait()
	log.Println("scheduler: completed dashboard refresh job")
}

// Expire drops idle dashboards from memory and prunes the session store.
func (s *Scheduler) Expire() {
	cutoff := time.Now().Add(-s.maxAge)

	if n := s.dashboards.Evict(cutoff); n > 0 {
		log.Printf("INFO: scheduler evicted %d idle dashboards", n)
	}
	if s.pruner == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	n, err := s.pruner.Prune(ctx, cutoff)
	if err != nil {
		log.Printf("ERROR: scheduler prune failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("INFO: scheduler pruned %d expired sessions", n)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
