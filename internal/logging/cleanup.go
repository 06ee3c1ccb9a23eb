package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/repository"
)

// StartCleanup deletes system logs older than retention once a day until done
// is closed.
func StartCleanup(logs repository.LogRepository, retention time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				PurgeOnce(logs, retention)
			case <-done:
				return
			}
		}
	}()
}

// PurgeOnce runs a single cleanup pass.
func PurgeOnce(logs repository.LogRepository, retention time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := logs.DeleteLogsBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		slog.Error("log cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("log cleanup completed", "deleted", deleted)
	}
}
