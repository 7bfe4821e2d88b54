package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/rivone/internal/models"
)

// Synchronizer runs one catalog synchronization pass.
type Synchronizer interface {
	Synchronize(ctx context.Context) (models.SyncResult, error)
}

// StartSyncScheduler polls the message source every interval until ctx is
// done. Failed passes are logged and retried on the next tick only.
func StartSyncScheduler(
	ctx context.Context,
	syncer Synchronizer,
	interval time.Duration,
	log *zap.Logger,
) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res, err := syncer.Synchronize(ctx)
				if err != nil {
					log.Error("scheduled sync failed", zap.Error(err))
					continue
				}
				if res.Added > 0 {
					log.Info("scheduled sync added tracks",
						zap.Int("added", res.Added),
						zap.Int("total", res.Total),
					)
				}
			}
		}
	}()
}
