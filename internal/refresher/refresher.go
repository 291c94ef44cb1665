package refresher

import (
	"context"
	"log"
	"sync"
	"time"
)

// Target is refreshed on every tick.
type Target interface {
	Refresh(ctx context.Context) error
}

type Refresher struct {
	target   Target
	interval time.Duration

	mu        sync.RWMutex
	running   bool
	lastRun   time.Time
	lastError error
	runs      int
}

type RefresherConfig struct {
	Target   Target
	Interval time.Duration
}

func NewRefresher(cfg RefresherConfig) *Refresher {
	return &Refresher{
		target:   cfg.Target,
		interval: cfg.Interval,
	}
}

// Enabled reports whether a positive interval was configured.
func (r *Refresher) Enabled() bool {
	return r.interval > 0 && r.target != nil
}

// Start blocks until ctx is done. The first refresh happens one interval
// after start; the mount fetch is the caller's job.
func (r *Refresher) Start(ctx context.Context) error {
	if !r.Enabled() {
		log.Println("Auto-refresh is disabled")
		return nil
	}

	r.mu.Lock()
	r.running = true
	r.mu.Unlock()

	log.Printf("Starting auto-refresh with interval %s", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Auto-refresh stopped")
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
			return nil
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	err := r.target.Refresh(ctx)

	r.mu.Lock()
	r.lastRun = time.Now()
	r.lastError = err
	r.runs++
	r.mu.Unlock()

	if err != nil {
		log.Printf("Error refreshing weather: %v", err)
	}
}

func (r *Refresher) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

type Status struct {
	Enabled   bool      `json:"enabled"`
	Running   bool      `json:"running"`
	Interval  string    `json:"interval"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Runs      int       `json:"runs"`
}

func (r *Refresher) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Status{
		Enabled:  r.Enabled(),
		Running:  r.running,
		Interval: r.interval.String(),
		LastRun:  r.lastRun,
		Runs:     r.runs,
	}
	if r.lastError != nil {
		s.LastError = r.lastError.Error()
	}
	return s
}
