package logging

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/goals-backend/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// RetentionJob deletes system_logs older than the configured number of days.
type RetentionJob struct {
	db   *gorm.DB
	days int
	now  func() time.Time
}

func NewRetentionJob(db *gorm.DB, days int) *RetentionJob {
	if days <= 0 {
		days = 30
	}
	return &RetentionJob{db: db, days: days, now: time.Now}
}

// Cutoff is the timestamp before which rows are purged.
func (j *RetentionJob) Cutoff() time.Time {
	return j.now().AddDate(0, 0, -j.days)
}

// Run implements cron.Job.
func (j *RetentionJob) Run() {
	result := j.db.Where("timestamp < ?", j.Cutoff()).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "component", "logging", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
}

// StartCleanup schedules the retention job daily and returns the running
// scheduler. Call Stop on it during shutdown.
func StartCleanup(db *gorm.DB, days int) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddJob("@daily", NewRetentionJob(db, days)); err != nil {
		return nil, err
	}
	c.Start()
	slog.Info("log cleanup scheduled", "retention_days", days)
	return c, nil
}
