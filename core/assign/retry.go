package assign

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kilianp07/skyops/core/model"
	"github.com/kilianp07/skyops/core/roster"
)

// newWriteBackoff returns a fresh policy per write; backoff.BackOff values
// are stateful.
func (o *Orchestrator) newWriteBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = o.cfg.RetryInitialInterval
	bo.MaxElapsedTime = o.cfg.RetryMaxElapsed
	return bo
}

// writeAssignment stores a through the repository, retrying transient
// failures. Version conflicts and missing rows fail at once; a version
// conflict also drops any cached read.
func (o *Orchestrator) writeAssignment(ctx context.Context, kind model.Kind, id string, a model.Assignment, version int64) (int64, error) {
	var (
		newVersion int64
		attempt    int
	)
	start := time.Now()
	err := backoff.Retry(func() error {
		attempt++
		v, err := o.repo.WriteAssignment(ctx, kind, id, a, version)
		switch {
		case err == nil:
			newVersion = v
			return nil
		case roster.IsTransient(err):
			writeRetries.WithLabelValues(string(kind)).Inc()
			o.log.Warnf("write %s %s attempt %d failed: %v", kind, id, attempt, err)
			return err
		default:
			return backoff.Permanent(err)
		}
	}, backoff.WithContext(o.newWriteBackoff(), ctx))
	writeLatency.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		// The next attempt must read the row another writer left behind.
		if errors.Is(err, roster.ErrVersionConflict) {
			o.repo.InvalidateCache()
		}
		return 0, err
	}
	o.repo.InvalidateCache()
	return newVersion, nil
}
