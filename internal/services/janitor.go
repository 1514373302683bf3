package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tripora/backend/internal/config"
	"github.com/tripora/backend/internal/models"
	"github.com/tripora/backend/internal/store"
	"github.com/tripora/backend/pkg/logger"
	"gorm.io/gorm"
)

// CredentialJanitor periodically deletes refresh credentials that are
// expired, or revoked and past the retention window. Runs best-effort
// outside the request path; a failed sweep is logged and the next tick
// tries again.
type CredentialJanitor struct {
	db        *gorm.DB
	interval  time.Duration
	retention time.Duration
	scheduler *cron.Cron
}

func NewCredentialJanitor(db *gorm.DB, cfg *config.JanitorConfig) *CredentialJanitor {
	return &CredentialJanitor{
		db:        db,
		interval:  time.Duration(cfg.IntervalHours) * time.Hour,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
	}
}

// Start runs one sweep immediately and then schedules sweeps on the
// configured interval.
func (j *CredentialJanitor) Start() {
	j.scheduler = cron.New()
	spec := fmt.Sprintf("@every %s", j.interval)
	if _, err := j.scheduler.AddFunc(spec, j.Sweep); err != nil {
		logger.Error().Err(err).Str("spec", spec).Msg("janitor schedule registration failed")
		return
	}
	j.scheduler.Start()
	go j.Sweep()
	logger.Info().Dur("interval", j.interval).Msg("credential janitor started")
}

// Stop halts the schedule. A sweep already running finishes on its own.
func (j *CredentialJanitor) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}

// Sweep deletes stale credentials once. Tolerates the table not existing
// yet (migration still pending at cold start) by skipping the run instead
// of failing.
func (j *CredentialJanitor) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if !j.db.Migrator().HasTable(&models.RefreshCredential{}) {
		logger.Warn().Msg("credential table not present yet, skipping janitor sweep")
		return
	}

	uow := store.New(j.db, nil)
	deleted, err := uow.Credentials.DeleteStale(ctx, time.Now(), j.retention)
	if err != nil {
		logger.Error().Err(err).Msg("credential sweep failed")
		return
	}
	if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Msg("credential sweep removed stale rows")
	}
}
