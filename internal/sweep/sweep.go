// Package sweep implements the daily reconciliation pass: users whose
// payment confirmation never arrived get a fallback access window, and
// expired grants are cleaned up afterwards.
package sweep

import (
	"context"
	"fmt"
	"time"

	"selective-prep/internal/metrics"
	"selective-prep/internal/models"
	"selective-prep/pkg/logger"
)

const fallbackReason = "Daily fallback process"

// Store is the identity-store subset the sweep needs.
type Store interface {
	PendingProfilesOlderThan(ctx context.Context, age time.Duration) ([]models.UserProfile, error)
	GrantTemporaryAccess(ctx context.Context, userID string, hours int, reason string) error
	CleanupExpiredAccess(ctx context.Context) error
}

// Job grants fallback access to stalled pending users. Candidates are
// processed sequentially; one candidate's failed grant is skipped without
// aborting the run or counting toward the result.
type Job struct {
	store   Store
	logger  *logger.Logger
	metrics *metrics.Collector

	// PendingAge is how old a pending profile must be to qualify.
	PendingAge time.Duration
	// GrantHours is the length of the fallback access window.
	GrantHours int
}

func NewJob(store Store, l *logger.Logger, m *metrics.Collector) *Job {
	return &Job{
		store:      store,
		logger:     l,
		metrics:    m,
		PendingAge: 24 * time.Hour,
		GrantHours: 24,
	}
}

// Run executes one sweep and returns the number of users granted access.
// A candidate-query failure aborts the whole run; per-candidate grant
// failures do not. Cleanup of expired grants runs after the loop whenever
// the candidate query succeeded.
func (j *Job) Run(ctx context.Context) (int, error) {
	start := time.Now()

	profiles, err := j.store.PendingProfilesOlderThan(ctx, j.PendingAge)
	if err != nil {
		return 0, fmt.Errorf("failed to query pending profiles: %w", err)
	}

	processed := 0
	for _, p := range profiles {
		if err := j.store.GrantTemporaryAccess(ctx, p.ID, j.GrantHours, fallbackReason); err != nil {
			j.logger.Errorw("fallback grant failed, skipping user",
				"user_id", p.ID, "error", err)
			continue
		}
		processed++
	}

	if err := j.store.CleanupExpiredAccess(ctx); err != nil {
		j.logger.Errorw("cleanup of expired access failed", "error", err)
	}

	j.metrics.RecordSweepRun(processed)
	j.logger.Infow("daily sweep completed",
		"candidates", len(profiles),
		"processed", processed,
		"duration_ms", time.Since(start).Milliseconds())

	return processed, nil
}

// Scheduler runs the sweep on a fixed interval until the context is
// cancelled. The first run happens immediately on start.
type Scheduler struct {
	job      *Job
	logger   *logger.Logger
	interval time.Duration
}

func NewScheduler(job *Job, l *logger.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{job: job, logger: l, interval: interval}
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Infow("sweep scheduler started", "interval", s.interval.String())

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweep scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.job.Run(ctx); err != nil {
		s.logger.Errorw("daily sweep failed", "error", err)
	}
}
