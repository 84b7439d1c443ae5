package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"docstore-platform/internal/database"
	"docstore-platform/internal/logger"
	"docstore-platform/models"
)

// JanitorService periodically scans for stores parked in a transitional
// state (SYNCING, UPSERTING) longer than the threshold and logs them. There
// is no automatic reset: a parked UPSERTING store is an intentional marker
// of an incomplete upsert, the janitor only gives it visibility.
type JanitorService struct {
	repos     *database.Repositories
	threshold time.Duration
	scheduler *gocron.Scheduler
}

func NewJanitorService(repos *database.Repositories, threshold time.Duration) *JanitorService {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &JanitorService{repos: repos, threshold: threshold, scheduler: s}
}

// Start schedules the scan at the given interval and runs the scheduler in
// the background.
func (j *JanitorService) Start(interval time.Duration) error {
	_, err := j.scheduler.Every(interval).Tag("stuck-store-scan").Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := j.Scan(ctx); err != nil {
			logger.Error("Stuck store scan failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	j.scheduler.StartAsync()
	return nil
}

func (j *JanitorService) Stop() {
	j.scheduler.Stop()
}

// Scan logs every store sitting in a transitional state past the threshold.
func (j *JanitorService) Scan(ctx context.Context) error {
	stores, _, err := j.repos.Stores.List(ctx, "", 0, 0)
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-j.threshold)
	for _, store := range stores {
		if store.Status != models.StatusSyncing && store.Status != models.StatusUpserting {
			continue
		}
		if store.UpdatedAt.After(cutoff) {
			continue
		}
		logger.Warn("Store stuck in transitional state",
			"storeId", store.ID,
			"name", store.Name,
			"status", store.Status,
			"since", store.UpdatedAt.Format(time.RFC3339),
		)
	}
	return nil
}
