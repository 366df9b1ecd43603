package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const deleteStaleSessions = `
DELETE FROM client_sessions
 WHERE updated_at < $1`

// SweepStaleSessions deletes persisted sessions last written before cutoff
// and returns how many were removed.
func SweepStaleSessions(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, deleteStaleSessions, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep stale sessions: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}

// StartStaleSessionCleaner sweeps, every interval, persisted sessions that
// have not been written within retention. A token never outlives a
// realistic retention, so such rows can only be abandoned logins.
func StartStaleSessionCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rows, err := SweepStaleSessions(ctx, db, now.Add(-retention))
				if err != nil {
					if ctx.Err() == nil {
						log.Error("failed to clean stale sessions", zap.Error(err))
					}
					continue
				}
				if rows > 0 {
					log.Info("cleaned stale sessions", zap.Int64("removed", rows), zap.Duration("retention", retention))
				}
			}
		}
	}()
}
