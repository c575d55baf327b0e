package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/collections_backend/config"
	"github.com/bsm/redislock"
)

var ErrLoadInProgress = errors.New("another load into this table is in progress")

// TableLock serializes loads into one table across processes. The returned release func
// is always non-nil. With a nil locker (redis not configured) or an unreachable redis the
// lock is a no-op; only a lock held elsewhere returns ErrLoadInProgress.
func TableLock(ctx context.Context, locker *redislock.Client, table string, ttl time.Duration, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	if locker == nil {
		logger.WithField("table", table).Debug("redis lock not configured, loading without lock")
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("ingest:%s", table)
	lock, err := locker.Obtain(ctx, lockKey, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for table", table, err)
		return func() {}, ErrLoadInProgress
	} else if err != nil {
		// redis unreachable: the primary key is still the backstop, load unlocked
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for table, loading without lock", table, err)
		return func() {}, nil
	}
	return func() {
		// the load ctx may already be cancelled; release with a fresh one
		if err := lock.Release(context.Background()); err != nil && err != redislock.ErrLockNotHeld {
			config.LogError(logger, moduleName, functionName, "Error releasing lock for table", table, err)
		}
	}, nil
}
