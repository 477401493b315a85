package tasks

import (
	"context"
	"fmt"
	"time"
)

// VACUUM rewrites the whole file; the audit log is the only table that grows.
const sqlMaintenanceTimeout = 5 * time.Minute

// newSQLMaintenanceTask creates the task that compacts the SQLite file.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		timeoutCtx, cancel := context.WithTimeout(ctx, sqlMaintenanceTimeout)
		defer cancel()

		started := deps.clock().Now()
		if err := deps.Store.RunSQLMaintenance(timeoutCtx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance task failed", "error", err, "duration", deps.clock().Since(started))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance task completed", "duration", deps.clock().Since(started))
		return nil
	}
}
