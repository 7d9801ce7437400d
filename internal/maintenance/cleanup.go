package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hockey-club/backend/internal/events"
)

// Cleaner runs the nightly purge of cancellation and override rows whose
// occurrences are older than the retention horizon. The base events keep
// their full history; only per-occurrence adjustments age out.
type Cleaner struct {
	repo          *events.Repository
	logger        *zap.Logger
	retentionDays int
	cron          *cron.Cron
}

// NewCleaner creates a cleaner. retentionDays <= 0 disables purging.
func NewCleaner(repo *events.Repository, logger *zap.Logger, retentionDays int) *Cleaner {
	return &Cleaner{
		repo:          repo,
		logger:        logger,
		retentionDays: retentionDays,
		cron:          cron.New(),
	}
}

// Start schedules the purge to run daily at 03:30 server time.
func (c *Cleaner) Start() error {
	if c.retentionDays <= 0 {
		c.logger.Info("occurrence retention disabled")
		return nil
	}
	_, err := c.cron.AddFunc("30 3 * * *", c.run)
	if err != nil {
		return err
	}
	c.cron.Start()
	c.logger.Info("occurrence retention scheduled", zap.Int("retention_days", c.retentionDays))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (c *Cleaner) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

func (c *Cleaner) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -c.retentionDays)
	purged, err := c.repo.PurgeOccurrenceRowsBefore(ctx, cutoff)
	if err != nil {
		c.logger.Error("occurrence purge failed", zap.Error(err))
		return
	}
	c.logger.Info("occurrence purge complete",
		zap.Time("cutoff", cutoff),
		zap.Int64("rows", purged),
	)
}
