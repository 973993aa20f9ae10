package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
	"github.com/cognicore/feedlens/pkg/feedlens/logging"
	"github.com/cognicore/feedlens/pkg/feedlens/store"
)

// DefaultDaysToKeep is the retention window used when DaysToKeep is unset.
const DefaultDaysToKeep = 365

// Cleaner removes analysis data older than the retention window.
type Cleaner struct {
	Store      store.Store
	DaysToKeep int
	Logger     *logging.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Result summarizes the cleanup run.
type Result struct {
	Cutoff  time.Time
	Deleted int64
}

// Clean deletes every row dated before now minus DaysToKeep days.
func (c *Cleaner) Clean(ctx context.Context) (Result, error) {
	var res Result
	if c.Store == nil {
		return res, fmt.Errorf("cleaner: no store: %w", internalerr.ErrInvalidConfig)
	}
	days := c.DaysToKeep
	if days == 0 {
		days = DefaultDaysToKeep
	}
	if days < 0 {
		return res, fmt.Errorf("cleaner: days_to_keep %d: %w", days, internalerr.ErrInvalidConfig)
	}
	now := time.Now
	if c.Clock != nil {
		now = c.Clock
	}

	res.Cutoff = now().AddDate(0, 0, -days)
	c.Logger.Info("Cleaning up data older than %d days (before %s)", days, res.Cutoff.Format(time.DateOnly))
	n, err := c.Store.Cleanup(ctx, res.Cutoff)
	if err != nil {
		return res, fmt.Errorf("cleaner: %w", err)
	}
	res.Deleted = n
	c.Logger.Info("Cleaned up %d old records", n)
	return res, nil
}
