package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"portfolioRiskBot/internal/storage"
)

// UsageRetentionJob deletes usage rows older than a number of days.
type UsageRetentionJob struct {
	store *storage.Store
	days  int
	now   func() time.Time
	log   zerolog.Logger
}

func NewUsageRetentionJob(store *storage.Store, days int, log zerolog.Logger) *UsageRetentionJob {
	return &UsageRetentionJob{
		store: store,
		days:  days,
		now:   time.Now,
		log:   log.With().Str("job", "usage_retention").Logger(),
	}
}

func (j *UsageRetentionJob) Name() string { return "usage_retention" }

func (j *UsageRetentionJob) Run() error {
	if j.days <= 0 {
		return nil
	}
	before := j.now().AddDate(0, 0, -j.days)
	n, err := j.store.PruneUsage(before.Unix())
	if err != nil {
		return fmt.Errorf("prune usage: %w", err)
	}
	j.log.Info().Int64("deleted", n).Time("before", before).Msg("usage pruned")
	return nil
}
