package maintenance

import (
	"context"
	"fmt"

	"github.com/homura-labs/storefront/pkg/logger"
)

// Purger deletes expired session values.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type sessionPurgeJob struct {
	logg   *logger.Logger
	purger Purger
}

// NewSessionPurgeJob removes expired values from a SQL or in-process session
// store. Redis expires values on its own and needs no job.
func NewSessionPurgeJob(logg *logger.Logger, purger Purger) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if purger == nil {
		return nil, fmt.Errorf("purger required")
	}
	return &sessionPurgeJob{logg: logg, purger: purger}, nil
}

func (j *sessionPurgeJob) Name() string { return "session-purge" }

func (j *sessionPurgeJob) Run(ctx context.Context) error {
	deleted, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("session purge: %w", err)
	}
	if deleted > 0 {
		j.logg.Info(j.logg.WithField(ctx, "values_deleted", deleted), "expired session values purged")
	}
	return nil
}
